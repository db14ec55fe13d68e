package payment

import "context"

// Intent statuses reported by providers.
const (
	StatusPending = "pending"
	StatusPaid    = "paid"
	StatusFailed  = "failed"
)

// IntentRequest captures the information required to open a payment intent with a provider.
type IntentRequest struct {
	Reference string
	Amount    int64
	Currency  string
	Purpose   string
}

// IntentResponse represents the minimal information returned by a provider when creating an intent.
type IntentResponse struct {
	Provider    string
	IntentID    string
	RedirectURL string
	Status      string
}

// Provider abstracts the operations required from an upstream payment provider.
type Provider interface {
	CreateIntent(ctx context.Context, req IntentRequest) (IntentResponse, error)
	GetIntentStatus(ctx context.Context, intentID string) (string, error)
}
