package handlers

import (
	"io"
	"net/http"

	stripegw "github.com/chefwise/chefwise-api/internal/integration/stripe"
	"github.com/chefwise/chefwise-api/internal/service"
	"github.com/chefwise/chefwise-api/pkg/logger"
	"github.com/chefwise/chefwise-api/pkg/res"
	"github.com/gin-gonic/gin"
)

// Лимит Stripe на размер тела вебхука
const maxWebhookBodyBytes = 65536

// WebhookHandler обработчик вебхуков Stripe
type WebhookHandler struct {
	verifier stripegw.WebhookVerifier
	webhooks service.WebhookService
	log      *logger.Logger
}

// NewWebhookHandler создает обработчик
func NewWebhookHandler(verifier stripegw.WebhookVerifier, webhooks service.WebhookService, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		verifier: verifier,
		webhooks: webhooks,
		log:      log,
	}
}

// HandleStripeWebhook обрабатывает POST /api/stripe/webhook
func (h *WebhookHandler) HandleStripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		h.log.Error("Failed to read webhook body: %v", err)
		res.Error(c, http.StatusBadRequest, "Failed to read webhook body")
		return
	}

	event, err := h.verifier.VerifyEvent(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		h.log.Error("Webhook signature verification failed: %v", err)
		res.Error(c, http.StatusBadRequest, "Webhook signature verification failed")
		return
	}

	if err := h.webhooks.ProcessEvent(c.Request.Context(), event); err != nil {
		h.log.Error("Error handling webhook: %v", err)
		res.Error(c, http.StatusInternalServerError, "Webhook handler failed")
		return
	}

	res.Json(c, http.StatusOK, gin.H{"received": true})
}
