package repository

import (
	"context"
	"errors"

	"github.com/chefwise/chefwise-api/internal/domain"
	"github.com/chefwise/chefwise-api/pkg/logger"
)

// CachedUserRepository UserRepository с read-through кэшем снимков.
// Ошибки кэша не фатальны: чтение уходит в базу, запись логируется.
type CachedUserRepository struct {
	inner UserRepository
	cache UserCache
	log   *logger.Logger
}

// NewCachedUserRepository оборачивает репозиторий кэшем
func NewCachedUserRepository(inner UserRepository, cache UserCache, log *logger.Logger) *CachedUserRepository {
	return &CachedUserRepository{inner: inner, cache: cache, log: log}
}

// GetByUID читает из кэша, при промахе — из базы с обратной записью
func (r *CachedUserRepository) GetByUID(ctx context.Context, uid string) (*domain.User, error) {
	cached, err := r.cache.Get(ctx, uid)
	if err != nil {
		r.log.Warnw("User cache read failed", "uid", uid, "error", err)
	} else if cached != nil {
		return cached, nil
	}

	user, err := r.inner.GetByUID(ctx, uid)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, user); err != nil {
		r.log.Warnw("User cache write failed", "uid", uid, "error", err)
	}

	return user, nil
}

// ApplySubscriptionUpdate пишет в базу и обновляет кэш свежим снимком
func (r *CachedUserRepository) ApplySubscriptionUpdate(ctx context.Context, uid string, update domain.SubscriptionUpdate) (*domain.User, error) {
	user, err := r.inner.ApplySubscriptionUpdate(ctx, uid, update)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, user); err != nil {
		r.log.Warnw("User cache refresh failed", "uid", uid, "error", err)
		// Устаревший снимок хуже отсутствующего
		_ = r.cache.Invalidate(ctx, uid)
	}

	return user, nil
}

// PlanTier возвращает тариф пользователя; отсутствие записи — free
func (r *CachedUserRepository) PlanTier(ctx context.Context, uid string) (domain.PlanTier, error) {
	user, err := r.GetByUID(ctx, uid)
	if errors.Is(err, ErrNotFound) {
		return domain.TierFree, nil
	}
	if err != nil {
		return domain.TierFree, err
	}
	return user.PlanTier, nil
}
