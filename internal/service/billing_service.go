package service

import (
	"context"
	"errors"
	"strings"

	"github.com/chefwise/chefwise-api/config"
	"github.com/chefwise/chefwise-api/internal/domain"
	stripegw "github.com/chefwise/chefwise-api/internal/integration/stripe"
	"github.com/chefwise/chefwise-api/pkg/logger"
)

// Ошибки подбора цены
var (
	ErrInvalidPlan        = errors.New("unknown plan id")
	ErrPriceNotConfigured = errors.New("no price id configured for plan")
)

// BillingService оформление подписки и доступ к клиентскому порталу
type BillingService interface {
	// StartCheckout подбирает цену и создает checkout-сессию
	StartCheckout(ctx context.Context, req domain.CheckoutRequest) (*domain.CheckoutSession, error)
	// OpenPortal создает сессию клиентского портала
	OpenPortal(ctx context.Context, customerID string) (*domain.PortalSession, error)
}

type billingService struct {
	gateway stripegw.SessionGateway
	stripe  config.StripeConfig
	appURL  string
	log     *logger.Logger
}

// NewBillingService создает сервис
func NewBillingService(gateway stripegw.SessionGateway, stripeCfg config.StripeConfig, appURL string, log *logger.Logger) BillingService {
	return &billingService{
		gateway: gateway,
		stripe:  stripeCfg,
		appURL:  appURL,
		log:     log,
	}
}

// StartCheckout подбирает цену, гарантирует клиента Stripe и создает сессию
func (s *billingService) StartCheckout(ctx context.Context, req domain.CheckoutRequest) (*domain.CheckoutSession, error) {
	period := req.BillingPeriod
	if period == "" {
		period = domain.BillingMonthly
	}

	priceID, err := s.resolvePrice(req.PlanID, period, req.PriceID)
	if err != nil {
		return nil, err
	}

	// Тариф определяется ценой, а не названием плана
	tier := s.stripe.TierForPrice(priceID)
	if tier == "" {
		tier = string(domain.TierPro)
	}

	customerID, err := s.gateway.EnsureCustomer(ctx, req.Email, req.UID)
	if err != nil {
		return nil, err
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, stripegw.CheckoutParams{
		CustomerID:    customerID,
		PriceID:       priceID,
		FirebaseUID:   req.UID,
		PlanTier:      tier,
		BillingPeriod: period,
		SuccessURL:    s.appURL + "/subscription?success=true&session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     s.appURL + "/upgrade?canceled=true",
	})
	if err != nil {
		return nil, err
	}

	s.log.Infow("Checkout session created", "uid", req.UID, "tier", tier, "period", period)

	return session, nil
}

// OpenPortal создает сессию клиентского портала
func (s *billingService) OpenPortal(ctx context.Context, customerID string) (*domain.PortalSession, error) {
	return s.gateway.CreatePortalSession(ctx, customerID, s.appURL+"/subscription")
}

// resolvePrice подбирает price id: явный priceId, затем таблица план/период
// (легаси "premium" сводится к pro), затем запасная premium-цена
func (s *billingService) resolvePrice(planID, period, explicit string) (string, error) {
	priceID := explicit

	if priceID == "" && planID != "" {
		plan := planID
		if plan == "premium" {
			plan = string(domain.TierPro)
		}
		if plan != string(domain.TierPro) && plan != string(domain.TierChef) {
			return "", ErrInvalidPlan
		}
		priceID = s.stripe.PriceFor(plan, period)
		if priceID == "" && plan == string(domain.TierPro) && period == domain.BillingMonthly {
			priceID = s.stripe.PremiumPriceID
		}
	}

	if priceID == "" {
		priceID = s.stripe.PremiumPriceID
	}
	if priceID == "" {
		return "", ErrPriceNotConfigured
	}

	if !strings.HasPrefix(priceID, "price_") {
		s.log.Errorw("Misconfigured Stripe price id", "price_id", priceID)
		return "", domain.ErrInvalidPriceID
	}

	return priceID, nil
}
