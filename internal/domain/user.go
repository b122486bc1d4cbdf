package domain

import "time"

// PlanTier тариф подписки пользователя
type PlanTier string

const (
	TierFree PlanTier = "free"
	TierPro  PlanTier = "pro"
	TierChef PlanTier = "chef"
)

var tierRank = map[PlanTier]int{
	TierFree: 0,
	TierPro:  1,
	TierChef: 2,
}

// Rank возвращает числовой ранг тарифа для сравнения
func (t PlanTier) Rank() int {
	return tierRank[t]
}

// AtLeast проверяет, что тариф не ниже требуемого
func (t PlanTier) AtLeast(min PlanTier) bool {
	return t.Rank() >= min.Rank()
}

// ParsePlanTier приводит строку к известному тарифу; неизвестное значение — free
func ParsePlanTier(s string) PlanTier {
	switch PlanTier(s) {
	case TierPro:
		return TierPro
	case TierChef:
		return TierChef
	default:
		return TierFree
	}
}

// User запись о пользователе и его подписке
type User struct {
	UID                  string     `json:"uid"`
	Email                string     `json:"email,omitempty"`
	PlanTier             PlanTier   `json:"planTier"`
	BillingPeriod        string     `json:"billingPeriod,omitempty"`
	SubscriptionStatus   string     `json:"subscriptionStatus,omitempty"`
	StripeCustomerID     string     `json:"stripeCustomerId,omitempty"`
	StripeSubscriptionID string     `json:"stripeSubscriptionId,omitempty"`
	PeriodEnd            *time.Time `json:"currentPeriodEnd,omitempty"`
	LastPaymentAt        *time.Time `json:"lastPaymentAt,omitempty"`
	LastPaymentAmount    *float64   `json:"lastPaymentAmount,omitempty"`
	PaymentFailed        bool       `json:"paymentFailed"`
	LastPaymentFailureAt *time.Time `json:"lastPaymentFailureAt,omitempty"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

// SubscriptionUpdate частичное обновление записи пользователя.
// Заполненные поля перезаписывают текущие значения, nil-поля не трогаются,
// поэтому повторная доставка того же события сходится к тому же состоянию.
type SubscriptionUpdate struct {
	PlanTier             *PlanTier
	BillingPeriod        *string
	SubscriptionStatus   *string
	StripeCustomerID     *string
	StripeSubscriptionID *string
	PeriodEnd            *time.Time
	LastPaymentAt        *time.Time
	LastPaymentAmount    *float64
	PaymentFailed        *bool
	LastPaymentFailureAt *time.Time
}

// Apply накладывает обновление на запись пользователя
func (u *SubscriptionUpdate) Apply(user *User) {
	if u.PlanTier != nil {
		user.PlanTier = *u.PlanTier
	}
	if u.BillingPeriod != nil {
		user.BillingPeriod = *u.BillingPeriod
	}
	if u.SubscriptionStatus != nil {
		user.SubscriptionStatus = *u.SubscriptionStatus
	}
	if u.StripeCustomerID != nil {
		user.StripeCustomerID = *u.StripeCustomerID
	}
	if u.StripeSubscriptionID != nil {
		user.StripeSubscriptionID = *u.StripeSubscriptionID
	}
	if u.PeriodEnd != nil {
		user.PeriodEnd = u.PeriodEnd
	}
	if u.LastPaymentAt != nil {
		user.LastPaymentAt = u.LastPaymentAt
	}
	if u.LastPaymentAmount != nil {
		user.LastPaymentAmount = u.LastPaymentAmount
	}
	if u.PaymentFailed != nil {
		user.PaymentFailed = *u.PaymentFailed
	}
	if u.LastPaymentFailureAt != nil {
		user.LastPaymentFailureAt = u.LastPaymentFailureAt
	}
}

// TierPtr вспомогательный конструктор указателя на тариф
func TierPtr(t PlanTier) *PlanTier { return &t }

// StrPtr вспомогательный конструктор указателя на строку
func StrPtr(s string) *string { return &s }

// BoolPtr вспомогательный конструктор указателя на bool
func BoolPtr(b bool) *bool { return &b }

// TimePtr вспомогательный конструктор указателя на время
func TimePtr(t time.Time) *time.Time { return &t }

// Float64Ptr вспомогательный конструктор указателя на float64
func Float64Ptr(f float64) *float64 { return &f }
