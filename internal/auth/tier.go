package auth

import (
	"context"
	"net/http"

	"github.com/chefwise/chefwise-api/internal/domain"
	"github.com/chefwise/chefwise-api/pkg/logger"
	"github.com/gin-gonic/gin"
)

// TierSource источник актуального тарифа пользователя
type TierSource interface {
	PlanTier(ctx context.Context, uid string) (domain.PlanTier, error)
}

// RequireTier пропускает только пользователей с тарифом не ниже min.
// Ставится после Required().
func RequireTier(source TierSource, min domain.PlanTier, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		if !ok {
			abortAuthError(c, domain.ErrMissingToken)
			return
		}

		tier, err := source.PlanTier(c.Request.Context(), id.SubjectID)
		if err != nil {
			// Недоступное хранилище не должно выдавать платные функции
			log.Errorw("Failed to resolve plan tier", "uid", id.SubjectID, "error", err)
			tier = domain.TierFree
		}

		if !tier.AtLeast(min) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "This feature requires a " + string(min) + " subscription.",
				"code":  "auth/insufficient-tier",
			})
			return
		}

		c.Next()
	}
}
