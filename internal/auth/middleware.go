package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/chefwise/chefwise-api/internal/domain"
	"github.com/chefwise/chefwise-api/pkg/logger"
	"github.com/gin-gonic/gin"
)

// Middleware аутентификация запросов по Firebase ID-токену
type Middleware struct {
	verifier TokenVerifier
	log      *logger.Logger
}

// NewMiddleware создает middleware аутентификации
func NewMiddleware(verifier TokenVerifier, log *logger.Logger) *Middleware {
	return &Middleware{verifier: verifier, log: log}
}

// Required пропускает только аутентифицированные запросы
func (m *Middleware) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if token == "" {
			abortAuthError(c, domain.ErrMissingToken)
			return
		}

		id, err := m.verifier.Verify(c.Request.Context(), token)
		if err != nil {
			m.log.Warnw("Token verification failed", "error", err)
			abortAuthError(c, err)
			return
		}

		SetIdentity(c, id)
		c.Next()
	}
}

// Optional пропускает запросы без токена как анонимные.
// Непроверяемый токен тоже деградирует до анонимного запроса.
func (m *Middleware) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if token == "" {
			c.Next()
			return
		}

		id, err := m.verifier.Verify(c.Request.Context(), token)
		if err != nil {
			m.log.Warnw("Optional auth token rejected, continuing as anonymous", "error", err)
			c.Next()
			return
		}

		SetIdentity(c, id)
		c.Next()
	}
}

func extractBearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// abortAuthError переводит ошибку проверки токена в стабильный код и сообщение
func abortAuthError(c *gin.Context, err error) {
	code := "auth/verification-failed"
	message := "Authentication failed"

	switch {
	case errors.Is(err, domain.ErrMissingToken):
		code = "auth/missing-token"
		message = "Authentication required"
	case errors.Is(err, domain.ErrTokenExpired):
		code = "auth/id-token-expired"
		message = "Session expired. Please sign in again."
	case errors.Is(err, domain.ErrTokenRevoked):
		code = "auth/id-token-revoked"
		message = "Session revoked. Please sign in again."
	case errors.Is(err, domain.ErrTokenInvalid):
		code = "auth/invalid-id-token"
		message = "Invalid authentication token."
	}

	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": message,
		"code":  code,
	})
}
