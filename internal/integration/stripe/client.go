package stripe

import (
	"context"
	"strings"

	"github.com/chefwise/chefwise-api/internal/domain"
	"github.com/chefwise/chefwise-api/pkg/logger"
	stripe "github.com/stripe/stripe-go/v79"
	portalsession "github.com/stripe/stripe-go/v79/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/customer"
)

// SessionGateway операции Stripe, нужные для оформления подписки
type SessionGateway interface {
	// EnsureCustomer находит клиента по email или создает нового,
	// гарантируя метаданные firebaseUID
	EnsureCustomer(ctx context.Context, email, uid string) (string, error)
	// CreateCheckoutSession создает checkout-сессию подписки
	CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*domain.CheckoutSession, error)
	// CreatePortalSession создает сессию клиентского портала
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (*domain.PortalSession, error)
}

// CheckoutParams параметры checkout-сессии
type CheckoutParams struct {
	CustomerID    string
	PriceID       string
	FirebaseUID   string
	PlanTier      string
	BillingPeriod string
	SuccessURL    string
	CancelURL     string
}

// Client реализация SessionGateway поверх stripe-go
type Client struct {
	log *logger.Logger
}

// NewClient настраивает глобальный ключ stripe-go и возвращает клиента
func NewClient(secretKey string, log *logger.Logger) *Client {
	stripe.Key = secretKey
	return &Client{log: log}
}

// EnsureCustomer ищет клиента по email (limit 1); найденному без firebaseUID
// дописывает метаданные, иначе создает нового
func (c *Client) EnsureCustomer(ctx context.Context, email, uid string) (string, error) {
	listParams := &stripe.CustomerListParams{
		Email: stripe.String(email),
	}
	listParams.Context = ctx
	listParams.Limit = stripe.Int64(1)

	iter := customer.List(listParams)
	if iter.Next() {
		existing := iter.Customer()

		if existing.Metadata["firebaseUID"] == "" {
			updateParams := &stripe.CustomerParams{}
			updateParams.Context = ctx
			updateParams.AddMetadata("firebaseUID", uid)

			if _, err := customer.Update(existing.ID, updateParams); err != nil {
				return "", domain.NewProviderError("stripe", "update customer", err)
			}
			c.log.Infow("Linked existing Stripe customer to user", "customer_id", existing.ID)
		}

		return existing.ID, nil
	}
	if err := iter.Err(); err != nil {
		return "", domain.NewProviderError("stripe", "list customers", err)
	}

	createParams := &stripe.CustomerParams{
		Email: stripe.String(email),
	}
	createParams.Context = ctx
	createParams.AddMetadata("firebaseUID", uid)

	created, err := customer.New(createParams)
	if err != nil {
		return "", domain.NewProviderError("stripe", "create customer", err)
	}

	c.log.Infow("Created Stripe customer", "customer_id", created.ID)

	return created.ID, nil
}

// CreateCheckoutSession создает checkout-сессию подписки; метаданные с uid и
// планом кладутся и на сессию, и на будущую подписку
func (c *Client) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*domain.CheckoutSession, error) {
	if !strings.HasPrefix(p.PriceID, "price_") {
		return nil, domain.ErrInvalidPriceID
	}

	metadata := map[string]string{
		"firebaseUID":   p.FirebaseUID,
		"planTier":      p.PlanTier,
		"billingPeriod": p.BillingPeriod,
	}

	params := &stripe.CheckoutSessionParams{
		Customer: stripe.String(p.CustomerID),
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(p.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:          stripe.String(p.SuccessURL),
		CancelURL:           stripe.String(p.CancelURL),
		AllowPromotionCodes: stripe.Bool(true),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: metadata,
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	sess, err := checkoutsession.New(params)
	if err != nil {
		return nil, domain.NewProviderError("stripe", "create checkout session", err)
	}

	return &domain.CheckoutSession{SessionID: sess.ID, URL: sess.URL}, nil
}

// CreatePortalSession создает сессию клиентского портала
func (c *Client) CreatePortalSession(ctx context.Context, customerID, returnURL string) (*domain.PortalSession, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx

	sess, err := portalsession.New(params)
	if err != nil {
		return nil, domain.NewProviderError("stripe", "create portal session", err)
	}

	return &domain.PortalSession{URL: sess.URL}, nil
}
