package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/chefwise/chefwise-api/internal/domain"
	"github.com/chefwise/chefwise-api/internal/repository"
	"github.com/chefwise/chefwise-api/pkg/logger"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WebhookEventRepository журнал принятых вебхуков в PostgreSQL
type WebhookEventRepository struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

// NewWebhookEventRepository создает репозиторий
func NewWebhookEventRepository(pool *pgxpool.Pool, log *logger.Logger) *WebhookEventRepository {
	return &WebhookEventRepository{pool: pool, log: log}
}

// Record записывает событие в журнал; повтор external_id считается дубликатом
func (r *WebhookEventRepository) Record(ctx context.Context, event domain.WebhookEvent) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO webhook_events (id, external_id, type, status, error, received_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		event.ID, event.ExternalID, event.Type, event.Status, event.Error, event.ReceivedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("insert webhook event: %w", err)
	}
	return nil
}
