package service

import (
	"context"
	"testing"

	"github.com/chefwise/chefwise-api/config"
	"github.com/chefwise/chefwise-api/internal/domain"
	stripegw "github.com/chefwise/chefwise-api/internal/integration/stripe"
	"github.com/chefwise/chefwise-api/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSessionGateway struct {
	lastParams stripegw.CheckoutParams
	calls      int
}

func (s *stubSessionGateway) EnsureCustomer(ctx context.Context, email, uid string) (string, error) {
	return "cus_test", nil
}

func (s *stubSessionGateway) CreateCheckoutSession(ctx context.Context, p stripegw.CheckoutParams) (*domain.CheckoutSession, error) {
	s.calls++
	s.lastParams = p
	return &domain.CheckoutSession{SessionID: "cs_test", URL: "https://checkout.stripe.com/c/cs_test"}, nil
}

func (s *stubSessionGateway) CreatePortalSession(ctx context.Context, customerID, returnURL string) (*domain.PortalSession, error) {
	return &domain.PortalSession{URL: "https://billing.stripe.com/p/session"}, nil
}

func newBillingFixture() (BillingService, *stubSessionGateway) {
	gw := &stubSessionGateway{}
	svc := NewBillingService(gw, testStripeConfig(), "https://app.example.com", logger.New(logger.ERROR))
	return svc, gw
}

func TestStartCheckoutResolvesPlanPrices(t *testing.T) {
	svc, gw := newBillingFixture()

	session, err := svc.StartCheckout(context.Background(), domain.CheckoutRequest{
		UID:           testUID,
		Email:         "cook@example.com",
		PlanID:        "chef",
		BillingPeriod: "yearly",
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_test", session.SessionID)
	assert.Equal(t, "price_chef_y", gw.lastParams.PriceID)
	assert.Equal(t, "chef", gw.lastParams.PlanTier)
	assert.Equal(t, "yearly", gw.lastParams.BillingPeriod)
	assert.Equal(t, "cus_test", gw.lastParams.CustomerID)
	assert.Contains(t, gw.lastParams.SuccessURL, "/subscription?success=true&session_id={CHECKOUT_SESSION_ID}")
	assert.Contains(t, gw.lastParams.CancelURL, "/upgrade?canceled=true")
}

func TestStartCheckoutPremiumAliasMapsToPro(t *testing.T) {
	svc, gw := newBillingFixture()

	_, err := svc.StartCheckout(context.Background(), domain.CheckoutRequest{
		UID:    testUID,
		Email:  "cook@example.com",
		PlanID: "premium",
	})
	require.NoError(t, err)
	assert.Equal(t, "price_pro_m", gw.lastParams.PriceID)
	assert.Equal(t, "pro", gw.lastParams.PlanTier)
	assert.Equal(t, "monthly", gw.lastParams.BillingPeriod)
}

func TestStartCheckoutExplicitPriceWins(t *testing.T) {
	svc, gw := newBillingFixture()

	_, err := svc.StartCheckout(context.Background(), domain.CheckoutRequest{
		UID:     testUID,
		Email:   "cook@example.com",
		PlanID:  "pro",
		PriceID: "price_chef_m",
	})
	require.NoError(t, err)
	assert.Equal(t, "price_chef_m", gw.lastParams.PriceID)
	assert.Equal(t, "chef", gw.lastParams.PlanTier)
}

func TestStartCheckoutInvalidPlan(t *testing.T) {
	svc, gw := newBillingFixture()

	_, err := svc.StartCheckout(context.Background(), domain.CheckoutRequest{
		UID:    testUID,
		Email:  "cook@example.com",
		PlanID: "diamond",
	})
	assert.ErrorIs(t, err, ErrInvalidPlan)
	assert.Zero(t, gw.calls)
}

func TestStartCheckoutUnconfiguredPrice(t *testing.T) {
	gw := &stubSessionGateway{}
	svc := NewBillingService(gw, testStripeConfig(), "https://app.example.com", logger.New(logger.ERROR))

	// Тариф без настроенной цены: таблица пуста, запасной цены нет
	emptySvc := NewBillingService(gw, config.StripeConfig{}, "https://app.example.com", logger.New(logger.ERROR))
	_, err := emptySvc.StartCheckout(context.Background(), domain.CheckoutRequest{
		UID:   testUID,
		Email: "cook@example.com",
	})
	assert.ErrorIs(t, err, ErrPriceNotConfigured)

	// Цена без префикса price_ — ошибка конфигурации
	_, err = svc.StartCheckout(context.Background(), domain.CheckoutRequest{
		UID:     testUID,
		Email:   "cook@example.com",
		PriceID: "prod_not_a_price",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPriceID)
	assert.Zero(t, gw.calls)
}
