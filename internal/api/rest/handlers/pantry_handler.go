package handlers

import (
	"net/http"

	"github.com/chefwise/chefwise-api/internal/auth"
	"github.com/chefwise/chefwise-api/internal/domain"
	"github.com/chefwise/chefwise-api/internal/ratelimit"
	"github.com/chefwise/chefwise-api/internal/service"
	"github.com/chefwise/chefwise-api/pkg/logger"
	"github.com/chefwise/chefwise-api/pkg/res"
	"github.com/gin-gonic/gin"
)

// PantryHandler обработчик анализа фотографий кладовой
type PantryHandler struct {
	recipes service.RecipeService
	tiers   auth.TierSource
	// quota суточная квота сканов для бесплатного тарифа
	quota   *ratelimit.Limiter
	metrics ratelimit.Recorder
	log     *logger.Logger
}

// NewPantryHandler создает обработчик
func NewPantryHandler(recipes service.RecipeService, tiers auth.TierSource, quota *ratelimit.Limiter, rec ratelimit.Recorder, log *logger.Logger) *PantryHandler {
	return &PantryHandler{
		recipes: recipes,
		tiers:   tiers,
		quota:   quota,
		metrics: rec,
		log:     log,
	}
}

type pantryPhotoRequest struct {
	Image    string `json:"image" binding:"required"`
	MimeType string `json:"mimeType" binding:"required,startswith=image/"`
}

var pantryFieldMessages = map[string]string{
	"Image":    "Image data is required",
	"MimeType": "Valid image MIME type is required",
}

// Analyze обрабатывает POST /api/analyze-pantry-photo
func (h *PantryHandler) Analyze(c *gin.Context) {
	var req pantryPhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		res.Error(c, http.StatusBadRequest, validationMessage(err, pantryFieldMessages, "Image data is required"))
		return
	}

	// Квота действует только для известных пользователей бесплатного тарифа
	if uid := auth.UIDFrom(c); uid != "" && !h.isPremium(c, uid) {
		if !h.quota.Check(uid).Allowed {
			if h.metrics != nil {
				h.metrics.RateLimitRejected("analyze_pantry_photo")
			}
			res.Json(c, http.StatusTooManyRequests, gin.H{
				"error":       "Free tier limit reached (2 scans/day). Upgrade to Premium for unlimited scans.",
				"rateLimited": true,
			})
			return
		}
	}

	items, err := h.recipes.AnalyzePantryPhoto(c.Request.Context(), req.Image, req.MimeType)
	if err != nil {
		writeCompletionError(c, err, "Failed to analyze image. Please try again.")
		return
	}

	res.Json(c, http.StatusOK, gin.H{"items": items})
}

func (h *PantryHandler) isPremium(c *gin.Context, uid string) bool {
	tier, err := h.tiers.PlanTier(c.Request.Context(), uid)
	if err != nil {
		h.log.Warnw("Failed to resolve tier for quota check", "uid", uid, "error", err)
		return false
	}
	return tier.AtLeast(domain.TierPro)
}
