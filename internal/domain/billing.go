package domain

import "time"

// Периоды оплаты
const (
	BillingMonthly = "monthly"
	BillingYearly  = "yearly"
)

// CheckoutRequest параметры создания checkout-сессии
type CheckoutRequest struct {
	UID           string
	Email         string
	PlanID        string
	PriceID       string
	BillingPeriod string
}

// CheckoutSession созданная checkout-сессия Stripe
type CheckoutSession struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// PortalSession сессия клиентского портала Stripe
type PortalSession struct {
	URL string `json:"url"`
}

// SubscriptionInfo срез данных живой подписки Stripe
type SubscriptionInfo struct {
	ID            string
	Status        string
	PriceID       string
	PlanTier      string
	BillingPeriod string
	PeriodEnd     time.Time
	Metadata      map[string]string
}

// WebhookEvent запись о принятом вебхуке для журнала событий
type WebhookEvent struct {
	ID         string
	ExternalID string
	Type       string
	Status     string
	Error      string
	ReceivedAt time.Time
}

// Статусы обработки вебхука
const (
	WebhookStatusProcessed = "processed"
	WebhookStatusSkipped   = "skipped"
	WebhookStatusFailed    = "failed"
)
