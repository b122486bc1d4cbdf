package repository

import (
	"context"
	"sync"
	"time"

	"github.com/chefwise/chefwise-api/internal/domain"
)

// InMemoryUserRepository реализация UserRepository в памяти (тесты и локальный запуск)
type InMemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User
}

// NewInMemoryUserRepository создает пустое хранилище
func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{users: make(map[string]*domain.User)}
}

// GetByUID возвращает копию записи пользователя
func (r *InMemoryUserRepository) GetByUID(ctx context.Context, uid string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[uid]
	if !ok {
		return nil, ErrNotFound
	}

	copied := *user
	return &copied, nil
}

// ApplySubscriptionUpdate создает или обновляет запись пользователя
func (r *InMemoryUserRepository) ApplySubscriptionUpdate(ctx context.Context, uid string, update domain.SubscriptionUpdate) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[uid]
	if !ok {
		user = &domain.User{UID: uid, PlanTier: domain.TierFree}
		r.users[uid] = user
	}

	update.Apply(user)
	user.UpdatedAt = time.Now().UTC()

	copied := *user
	return &copied, nil
}

// InMemoryWebhookEventRepository журнал вебхуков в памяти
type InMemoryWebhookEventRepository struct {
	mu     sync.Mutex
	events []domain.WebhookEvent
}

// NewInMemoryWebhookEventRepository создает пустой журнал
func NewInMemoryWebhookEventRepository() *InMemoryWebhookEventRepository {
	return &InMemoryWebhookEventRepository{}
}

// Record добавляет событие в журнал
func (r *InMemoryWebhookEventRepository) Record(ctx context.Context, event domain.WebhookEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Events возвращает копию журнала (для тестов)
func (r *InMemoryWebhookEventRepository) Events() []domain.WebhookEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.WebhookEvent, len(r.events))
	copy(out, r.events)
	return out
}
