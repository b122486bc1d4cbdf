package handlers

import (
	"errors"
	"net/http"

	"github.com/chefwise/chefwise-api/internal/domain"
	"github.com/chefwise/chefwise-api/pkg/res"
	"github.com/gin-gonic/gin"
)

// writeCompletionError переводит ошибку шлюза модели в HTTP-ответ.
// fallback используется для неклассифицированных ошибок провайдера.
func writeCompletionError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, domain.ErrCompletionTimeout):
		res.Error(c, http.StatusGatewayTimeout, "Request timed out. Please try again.")
	case errors.Is(err, domain.ErrProviderRateLimited):
		res.Error(c, http.StatusServiceUnavailable, "Service temporarily unavailable. Please try again later.")
	case errors.Is(err, domain.ErrProviderUnavailable):
		res.Error(c, http.StatusBadGateway, "Service temporarily unavailable. Please try again later.")
	case errors.Is(err, domain.ErrMalformedResponse):
		res.Error(c, http.StatusBadGateway, fallback)
	case errors.Is(err, domain.ErrProviderAuth):
		res.Error(c, http.StatusInternalServerError, "API configuration error")
	default:
		res.Error(c, http.StatusInternalServerError, fallback)
	}
}
