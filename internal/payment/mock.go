package payment

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrIntentNotFound indicates an unknown intent identifier.
var ErrIntentNotFound = errors.New("payment: intent not found")

// Mock is an in-memory provider used in development and tests.
// Intents settle immediately unless HoldPending is set.
type Mock struct {
	HoldPending bool

	mu      sync.Mutex
	intents map[string]string
}

// CreateIntent registers a new intent.
func (m *Mock) CreateIntent(_ context.Context, req IntentRequest) (IntentResponse, error) {
	if req.Amount <= 0 {
		return IntentResponse{}, errors.New("payment: amount must be positive")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.intents == nil {
		m.intents = map[string]string{}
	}
	id := uuid.NewString()
	status := StatusPaid
	if m.HoldPending {
		status = StatusPending
	}
	m.intents[id] = status
	return IntentResponse{
		Provider: "mock",
		IntentID: id,
		Status:   status,
	}, nil
}

// GetIntentStatus reports the current status of an intent.
func (m *Mock) GetIntentStatus(_ context.Context, intentID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	status, ok := m.intents[intentID]
	if !ok {
		return "", ErrIntentNotFound
	}
	return status, nil
}

// Settle marks a pending intent as paid. Test helper.
func (m *Mock) Settle(intentID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.intents == nil {
		return
	}
	if _, ok := m.intents[intentID]; ok {
		m.intents[intentID] = StatusPaid
	}
}

// Fail marks a pending intent as failed. Test helper.
func (m *Mock) Fail(intentID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.intents == nil {
		return
	}
	if _, ok := m.intents[intentID]; ok {
		m.intents[intentID] = StatusFailed
	}
}
