package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// User is an account row including its prime subscription fields.
type User struct {
	ID           pgtype.UUID
	Email        string
	PasswordHash string
	Name         string
	Role         string
	PrimeMember  bool
	SubPlan      pgtype.Text
	SubStatus    pgtype.Text
	SubPrice     int64
	SubStart     pgtype.Timestamptz
	SubEnd       pgtype.Timestamptz
	CreatedAt    pgtype.Timestamptz
}

const userColumns = `id, email, password_hash, name, role, prime_member,
	sub_plan, sub_status, sub_price, sub_start, sub_end, created_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &u.PrimeMember,
		&u.SubPlan, &u.SubStatus, &u.SubPrice, &u.SubStart, &u.SubEnd, &u.CreatedAt,
	)
	return u, err
}

// CreateUserParams carries the fields required to register an account.
type CreateUserParams struct {
	Email        string
	PasswordHash string
	Name         string
	Role         string
}

// CreateUser inserts a new account.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	return scanUser(q.db.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, name, role)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns,
		arg.Email, arg.PasswordHash, arg.Name, arg.Role))
}

// GetUserByEmail loads an account by email.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(q.db.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// GetUserByID loads an account by identifier.
func (q *Queries) GetUserByID(ctx context.Context, id pgtype.UUID) (User, error) {
	return scanUser(q.db.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// ActivateSubscriptionParams carries the subscription fields written on purchase.
type ActivateSubscriptionParams struct {
	ID       pgtype.UUID
	Plan     string
	Price    int64
	SubStart pgtype.Timestamptz
	SubEnd   pgtype.Timestamptz
}

// ActivateSubscription marks the account as a prime member with an active subscription window.
func (q *Queries) ActivateSubscription(ctx context.Context, arg ActivateSubscriptionParams) (User, error) {
	return scanUser(q.db.QueryRow(ctx, `
		UPDATE users
		SET prime_member = TRUE,
		    sub_plan = $2,
		    sub_status = 'active',
		    sub_price = $3,
		    sub_start = $4,
		    sub_end = $5
		WHERE id = $1
		RETURNING `+userColumns,
		arg.ID, arg.Plan, arg.Price, arg.SubStart, arg.SubEnd))
}

// CancelSubscription flips the subscription to cancelled and clears the member flag.
func (q *Queries) CancelSubscription(ctx context.Context, id pgtype.UUID) (User, error) {
	return scanUser(q.db.QueryRow(ctx, `
		UPDATE users
		SET prime_member = FALSE,
		    sub_status = 'cancelled'
		WHERE id = $1
		RETURNING `+userColumns, id))
}

// ExpireLapsedSubscriptions flips active subscriptions whose end date has passed to expired.
// Returns the number of rows updated.
func (q *Queries) ExpireLapsedSubscriptions(ctx context.Context, now pgtype.Timestamptz) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE users
		SET prime_member = FALSE,
		    sub_status = 'expired'
		WHERE sub_status = 'active' AND sub_end IS NOT NULL AND sub_end <= $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
