package stripe

import (
	"context"
	"time"

	"github.com/chefwise/chefwise-api/internal/domain"
	stripe "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/customer"
	"github.com/stripe/stripe-go/v79/subscription"
)

// CustomerResolver доступ к живым объектам Stripe для обогащения вебхуков
type CustomerResolver interface {
	// CustomerUID возвращает firebaseUID из метаданных клиента
	CustomerUID(ctx context.Context, customerID string) (string, error)
	// Subscription возвращает срез данных подписки
	Subscription(ctx context.Context, subscriptionID string) (*domain.SubscriptionInfo, error)
}

// Directory реализация CustomerResolver поверх stripe-go
type Directory struct{}

// NewDirectory создает резолвер
func NewDirectory() *Directory {
	return &Directory{}
}

// CustomerUID загружает клиента и возвращает его firebaseUID
func (d *Directory) CustomerUID(ctx context.Context, customerID string) (string, error) {
	params := &stripe.CustomerParams{}
	params.Context = ctx

	c, err := customer.Get(customerID, params)
	if err != nil {
		return "", domain.NewProviderError("stripe", "get customer", err)
	}

	return c.Metadata["firebaseUID"], nil
}

// Subscription загружает подписку и возвращает нужные вебхукам поля
func (d *Directory) Subscription(ctx context.Context, subscriptionID string) (*domain.SubscriptionInfo, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	s, err := subscription.Get(subscriptionID, params)
	if err != nil {
		return nil, domain.NewProviderError("stripe", "get subscription", err)
	}

	info := &domain.SubscriptionInfo{
		ID:       s.ID,
		Status:   string(s.Status),
		Metadata: s.Metadata,
	}
	if s.CurrentPeriodEnd > 0 {
		info.PeriodEnd = time.Unix(s.CurrentPeriodEnd, 0).UTC()
	}
	if s.Items != nil && len(s.Items.Data) > 0 && s.Items.Data[0].Price != nil {
		price := s.Items.Data[0].Price
		info.PriceID = price.ID
		if price.Recurring != nil {
			if price.Recurring.Interval == stripe.PriceRecurringIntervalYear {
				info.BillingPeriod = domain.BillingYearly
			} else {
				info.BillingPeriod = domain.BillingMonthly
			}
		}
	}
	if s.Metadata != nil {
		info.PlanTier = s.Metadata["planTier"]
		if bp := s.Metadata["billingPeriod"]; bp != "" {
			info.BillingPeriod = bp
		}
	}

	return info, nil
}
