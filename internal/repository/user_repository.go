package repository

import (
	"context"

	"github.com/chefwise/chefwise-api/internal/domain"
)

// UserRepository хранилище записей о пользователях и их подписках
type UserRepository interface {
	// GetByUID возвращает запись пользователя; ErrNotFound, если записи нет
	GetByUID(ctx context.Context, uid string) (*domain.User, error)
	// ApplySubscriptionUpdate создает или обновляет запись пользователя,
	// накладывая только заполненные поля обновления
	ApplySubscriptionUpdate(ctx context.Context, uid string, update domain.SubscriptionUpdate) (*domain.User, error)
}

// WebhookEventRepository журнал принятых вебхуков
type WebhookEventRepository interface {
	Record(ctx context.Context, event domain.WebhookEvent) error
}
