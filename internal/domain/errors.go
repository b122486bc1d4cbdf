package domain

import (
	"errors"
	"fmt"
)

// Ошибки аутентификации
var (
	ErrMissingToken       = errors.New("authentication token is missing")
	ErrTokenExpired       = errors.New("authentication token has expired")
	ErrTokenRevoked       = errors.New("authentication token has been revoked")
	ErrTokenInvalid       = errors.New("authentication token is invalid")
	ErrVerificationFailed = errors.New("authentication verification failed")
	ErrInsufficientTier   = errors.New("subscription tier is insufficient")
)

// Ошибки интеграций
var (
	ErrCompletionTimeout   = errors.New("completion request timed out")
	ErrProviderRateLimited = errors.New("provider rate limit exceeded")
	ErrProviderUnavailable = errors.New("provider is unavailable")
	ErrProviderAuth        = errors.New("provider authentication failed")
	ErrMalformedResponse   = errors.New("provider returned a malformed response")
	ErrInvalidPriceID      = errors.New("price id is not configured correctly")
)

// ProviderError ошибка внешнего провайдера с дополнительным контекстом
type ProviderError struct {
	Provider string
	Op       string
	Err      error
}

// Error возвращает строковое представление ошибки
func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Op, e.Err)
}

// Unwrap возвращает вложенную ошибку
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError создает новую ошибку провайдера
func NewProviderError(provider, op string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Op: op, Err: err}
}
