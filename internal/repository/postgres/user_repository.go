package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chefwise/chefwise-api/internal/domain"
	"github.com/chefwise/chefwise-api/internal/repository"
	"github.com/chefwise/chefwise-api/pkg/logger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository реализация repository.UserRepository поверх PostgreSQL
type UserRepository struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

// NewUserRepository создает репозиторий
func NewUserRepository(pool *pgxpool.Pool, log *logger.Logger) *UserRepository {
	return &UserRepository{pool: pool, log: log}
}

const selectUserQuery = `
	SELECT uid, email, plan_tier, billing_period, subscription_status,
	       stripe_customer_id, stripe_subscription_id, period_end,
	       last_payment_at, last_payment_amount, payment_failed,
	       last_payment_failure_at, updated_at
	FROM users
	WHERE uid = $1`

// GetByUID возвращает запись пользователя
func (r *UserRepository) GetByUID(ctx context.Context, uid string) (*domain.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, selectUserQuery, uid))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return user, nil
}

// ApplySubscriptionUpdate создает строку при первом событии и накладывает
// только заполненные поля обновления
func (r *UserRepository) ApplySubscriptionUpdate(ctx context.Context, uid string, update domain.SubscriptionUpdate) (*domain.User, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO users (uid, plan_tier) VALUES ($1, $2) ON CONFLICT (uid) DO NOTHING`,
		uid, domain.TierFree)
	if err != nil {
		return nil, fmt.Errorf("ensure user row: %w", err)
	}

	sets, args := buildUpdateSet(update)
	if len(sets) > 0 {
		args = append(args, uid)
		query := fmt.Sprintf(`UPDATE users SET %s, updated_at = NOW() WHERE uid = $%d`,
			strings.Join(sets, ", "), len(args))

		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}
	}

	user, err := scanUser(tx.QueryRow(ctx, selectUserQuery, uid))
	if err != nil {
		return nil, fmt.Errorf("reload user: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return user, nil
}

func buildUpdateSet(update domain.SubscriptionUpdate) ([]string, []interface{}) {
	var sets []string
	var args []interface{}

	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.PlanTier != nil {
		add("plan_tier", string(*update.PlanTier))
	}
	if update.BillingPeriod != nil {
		add("billing_period", *update.BillingPeriod)
	}
	if update.SubscriptionStatus != nil {
		add("subscription_status", *update.SubscriptionStatus)
	}
	if update.StripeCustomerID != nil {
		add("stripe_customer_id", *update.StripeCustomerID)
	}
	if update.StripeSubscriptionID != nil {
		add("stripe_subscription_id", *update.StripeSubscriptionID)
	}
	if update.PeriodEnd != nil {
		add("period_end", *update.PeriodEnd)
	}
	if update.LastPaymentAt != nil {
		add("last_payment_at", *update.LastPaymentAt)
	}
	if update.LastPaymentAmount != nil {
		add("last_payment_amount", *update.LastPaymentAmount)
	}
	if update.PaymentFailed != nil {
		add("payment_failed", *update.PaymentFailed)
	}
	if update.LastPaymentFailureAt != nil {
		add("last_payment_failure_at", *update.LastPaymentFailureAt)
	}

	return sets, args
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	var tier string
	var email, billingPeriod, status, customerID, subscriptionID *string

	err := row.Scan(
		&user.UID,
		&email,
		&tier,
		&billingPeriod,
		&status,
		&customerID,
		&subscriptionID,
		&user.PeriodEnd,
		&user.LastPaymentAt,
		&user.LastPaymentAmount,
		&user.PaymentFailed,
		&user.LastPaymentFailureAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.PlanTier = domain.ParsePlanTier(tier)
	if email != nil {
		user.Email = *email
	}
	if billingPeriod != nil {
		user.BillingPeriod = *billingPeriod
	}
	if status != nil {
		user.SubscriptionStatus = *status
	}
	if customerID != nil {
		user.StripeCustomerID = *customerID
	}
	if subscriptionID != nil {
		user.StripeSubscriptionID = *subscriptionID
	}

	return &user, nil
}
