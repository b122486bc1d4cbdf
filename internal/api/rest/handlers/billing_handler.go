package handlers

import (
	"errors"
	"net/http"

	"github.com/chefwise/chefwise-api/internal/domain"
	"github.com/chefwise/chefwise-api/internal/service"
	"github.com/chefwise/chefwise-api/pkg/logger"
	"github.com/chefwise/chefwise-api/pkg/res"
	"github.com/gin-gonic/gin"
)

// BillingHandler обработчики оформления подписки
type BillingHandler struct {
	billing service.BillingService
	log     *logger.Logger
}

// NewBillingHandler создает обработчик
func NewBillingHandler(billing service.BillingService, log *logger.Logger) *BillingHandler {
	return &BillingHandler{billing: billing, log: log}
}

type checkoutRequest struct {
	UserID        string `json:"userId" binding:"required"`
	UserEmail     string `json:"userEmail" binding:"required"`
	PlanID        string `json:"planId"`
	BillingPeriod string `json:"billingPeriod"`
	PriceID       string `json:"priceId"`
}

type portalRequest struct {
	CustomerID string `json:"customerId" binding:"required"`
}

// CreateCheckoutSession обрабатывает POST /api/stripe/create-checkout-session
func (h *BillingHandler) CreateCheckoutSession(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		res.Error(c, http.StatusBadRequest, "Missing required fields")
		return
	}

	session, err := h.billing.StartCheckout(c.Request.Context(), domain.CheckoutRequest{
		UID:           req.UserID,
		Email:         req.UserEmail,
		PlanID:        req.PlanID,
		PriceID:       req.PriceID,
		BillingPeriod: req.BillingPeriod,
	})
	if err != nil {
		h.writeCheckoutError(c, err)
		return
	}

	res.Json(c, http.StatusOK, gin.H{"sessionId": session.SessionID, "url": session.URL})
}

// CreatePortalSession обрабатывает POST /api/stripe/portal
func (h *BillingHandler) CreatePortalSession(c *gin.Context) {
	var req portalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		res.Error(c, http.StatusBadRequest, "Missing customer ID")
		return
	}

	session, err := h.billing.OpenPortal(c.Request.Context(), req.CustomerID)
	if err != nil {
		h.log.Errorw("Failed to create portal session", "error", err)
		res.Error(c, http.StatusInternalServerError, "Failed to create portal session")
		return
	}

	res.Json(c, http.StatusOK, gin.H{"url": session.URL})
}

func (h *BillingHandler) writeCheckoutError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidPlan):
		res.Error(c, http.StatusBadRequest, "Invalid plan selected")
	case errors.Is(err, service.ErrPriceNotConfigured):
		res.Error(c, http.StatusBadRequest, "Price ID not configured. Please contact support.")
	case errors.Is(err, domain.ErrInvalidPriceID):
		res.Error(c, http.StatusInternalServerError, "Price configuration error. Please contact support.")
	default:
		h.log.Errorw("Failed to create checkout session", "error", err)
		res.Error(c, http.StatusInternalServerError, "Failed to create checkout session")
	}
}
