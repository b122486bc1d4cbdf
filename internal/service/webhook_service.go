package service

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/chefwise/chefwise-api/config"
	"github.com/chefwise/chefwise-api/internal/domain"
	stripegw "github.com/chefwise/chefwise-api/internal/integration/stripe"
	"github.com/chefwise/chefwise-api/internal/kafka"
	"github.com/chefwise/chefwise-api/internal/metrics"
	"github.com/chefwise/chefwise-api/internal/repository"
	"github.com/chefwise/chefwise-api/pkg/logger"
	"github.com/google/uuid"
	stripe "github.com/stripe/stripe-go/v79"
)

// Формат Firebase UID; все остальное в метаданных игнорируется
var firebaseUIDPattern = regexp.MustCompile(`^[a-zA-Z0-9]{20,128}$`)

// WebhookService сводит события Stripe к состоянию подписки пользователя
type WebhookService interface {
	// ProcessEvent обрабатывает проверенное событие. Событие без валидного
	// uid пропускается без ошибки: Stripe не должен ретраить такие доставки.
	ProcessEvent(ctx context.Context, event stripe.Event) error
}

type webhookService struct {
	users    repository.UserRepository
	events   repository.WebhookEventRepository
	resolver stripegw.CustomerResolver
	producer kafka.Producer
	stripe   config.StripeConfig
	metrics  metrics.Recorder
	log      *logger.Logger
}

// NewWebhookService создает сервис
func NewWebhookService(
	users repository.UserRepository,
	events repository.WebhookEventRepository,
	resolver stripegw.CustomerResolver,
	producer kafka.Producer,
	stripeCfg config.StripeConfig,
	rec metrics.Recorder,
	log *logger.Logger,
) WebhookService {
	return &webhookService{
		users:    users,
		events:   events,
		resolver: resolver,
		producer: producer,
		stripe:   stripeCfg,
		metrics:  rec,
		log:      log,
	}
}

// ProcessEvent разбирает событие по типу и применяет обновление
func (s *webhookService) ProcessEvent(ctx context.Context, event stripe.Event) error {
	var err error
	result := domain.WebhookStatusProcessed

	switch event.Type {
	case "checkout.session.completed":
		err = s.handleCheckoutCompleted(ctx, event)
	case "customer.subscription.created", "customer.subscription.updated":
		err = s.handleSubscriptionUpdate(ctx, event)
	case "customer.subscription.deleted":
		err = s.handleSubscriptionDeleted(ctx, event)
	case "invoice.payment_succeeded":
		err = s.handlePaymentSucceeded(ctx, event)
	case "invoice.payment_failed":
		err = s.handlePaymentFailed(ctx, event)
	default:
		s.log.Infow("Unhandled webhook event type", "type", event.Type)
		result = domain.WebhookStatusSkipped
	}

	if err != nil {
		result = domain.WebhookStatusFailed
	}

	s.metrics.WebhookEvent(string(event.Type), result)
	s.recordEvent(ctx, event, result, err)

	return err
}

func (s *webhookService) handleCheckoutCompleted(ctx context.Context, event stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return fmt.Errorf("parse checkout session: %w", err)
	}

	uid := session.Metadata["firebaseUID"]
	if !validFirebaseUID(uid) {
		s.log.Warnw("Checkout session without valid firebaseUID, skipping", "event_id", event.ID)
		return nil
	}

	tier := domain.ParsePlanTier(session.Metadata["planTier"])
	if session.Metadata["planTier"] == "" {
		tier = domain.TierPro
	}
	period := session.Metadata["billingPeriod"]
	if period == "" {
		period = domain.BillingMonthly
	}

	update := domain.SubscriptionUpdate{
		PlanTier:           domain.TierPtr(tier),
		BillingPeriod:      domain.StrPtr(period),
		SubscriptionStatus: domain.StrPtr("active"),
	}
	if session.Customer != nil {
		update.StripeCustomerID = domain.StrPtr(session.Customer.ID)
	}

	// Живая подписка точнее метаданных сессии, но ее недоступность не
	// должна ронять обработку
	if session.Subscription != nil && session.Subscription.ID != "" {
		update.StripeSubscriptionID = domain.StrPtr(session.Subscription.ID)

		if info, err := s.resolver.Subscription(ctx, session.Subscription.ID); err != nil {
			s.log.Warnw("Failed to enrich checkout from subscription", "error", err)
		} else {
			update.PlanTier = domain.TierPtr(s.subscriptionTier(info))
			if info.BillingPeriod != "" {
				update.BillingPeriod = domain.StrPtr(info.BillingPeriod)
			}
		}
	}

	user, err := s.users.ApplySubscriptionUpdate(ctx, uid, update)
	if err != nil {
		return fmt.Errorf("apply checkout update: %w", err)
	}

	s.log.Infow("User upgraded", "uid", uid, "tier", user.PlanTier, "period", user.BillingPeriod)
	s.publish(ctx, kafka.TopicSubscriptionUpdated, user)

	return nil
}

func (s *webhookService) handleSubscriptionUpdate(ctx context.Context, event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("parse subscription: %w", err)
	}

	uid := s.resolveSubscriptionUID(ctx, &sub)
	if !validFirebaseUID(uid) {
		s.log.Warnw("Subscription event without valid firebaseUID, skipping", "event_id", event.ID)
		return nil
	}

	status := string(sub.Status)
	isActive := status == "active" || status == "trialing"

	tier := domain.TierFree
	if isActive {
		tier = s.subscriptionTier(s.subscriptionInfo(&sub))
	}

	update := domain.SubscriptionUpdate{
		PlanTier:             domain.TierPtr(tier),
		SubscriptionStatus:   domain.StrPtr(status),
		StripeSubscriptionID: domain.StrPtr(sub.ID),
	}
	if period := s.subscriptionInfo(&sub).BillingPeriod; period != "" {
		update.BillingPeriod = domain.StrPtr(period)
	}
	if sub.CurrentPeriodEnd > 0 {
		update.PeriodEnd = domain.TimePtr(time.Unix(sub.CurrentPeriodEnd, 0).UTC())
	}

	user, err := s.users.ApplySubscriptionUpdate(ctx, uid, update)
	if err != nil {
		return fmt.Errorf("apply subscription update: %w", err)
	}

	s.log.Infow("Subscription updated", "uid", uid, "tier", user.PlanTier, "status", status)
	s.publish(ctx, kafka.TopicSubscriptionUpdated, user)

	return nil
}

func (s *webhookService) handleSubscriptionDeleted(ctx context.Context, event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("parse subscription: %w", err)
	}

	uid := s.resolveSubscriptionUID(ctx, &sub)
	if !validFirebaseUID(uid) {
		s.log.Warnw("Subscription delete without valid firebaseUID, skipping", "event_id", event.ID)
		return nil
	}

	user, err := s.users.ApplySubscriptionUpdate(ctx, uid, domain.SubscriptionUpdate{
		PlanTier:           domain.TierPtr(domain.TierFree),
		SubscriptionStatus: domain.StrPtr("canceled"),
	})
	if err != nil {
		return fmt.Errorf("apply subscription delete: %w", err)
	}

	s.log.Infow("Subscription canceled", "uid", uid)
	s.publish(ctx, kafka.TopicSubscriptionCancelled, user)

	return nil
}

func (s *webhookService) handlePaymentSucceeded(ctx context.Context, event stripe.Event) error {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		return fmt.Errorf("parse invoice: %w", err)
	}

	uid := s.resolveCustomerUID(ctx, invoice.Customer)
	if !validFirebaseUID(uid) {
		s.log.Warnw("Invoice event without valid firebaseUID, skipping", "event_id", event.ID)
		return nil
	}

	amount := float64(invoice.AmountPaid) / 100

	_, err := s.users.ApplySubscriptionUpdate(ctx, uid, domain.SubscriptionUpdate{
		LastPaymentAt:     domain.TimePtr(time.Now().UTC()),
		LastPaymentAmount: domain.Float64Ptr(amount),
		PaymentFailed:     domain.BoolPtr(false),
	})
	if err != nil {
		return fmt.Errorf("apply payment success: %w", err)
	}

	s.log.Infow("Payment succeeded", "uid", uid, "amount", amount)

	return nil
}

func (s *webhookService) handlePaymentFailed(ctx context.Context, event stripe.Event) error {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		return fmt.Errorf("parse invoice: %w", err)
	}

	uid := s.resolveCustomerUID(ctx, invoice.Customer)
	if !validFirebaseUID(uid) {
		s.log.Warnw("Invoice event without valid firebaseUID, skipping", "event_id", event.ID)
		return nil
	}

	_, err := s.users.ApplySubscriptionUpdate(ctx, uid, domain.SubscriptionUpdate{
		PaymentFailed:        domain.BoolPtr(true),
		LastPaymentFailureAt: domain.TimePtr(time.Now().UTC()),
	})
	if err != nil {
		return fmt.Errorf("apply payment failure: %w", err)
	}

	s.log.Warnw("Payment failed", "uid", uid)

	return nil
}

// resolveSubscriptionUID берет uid из метаданных клиента, затем из метаданных подписки
func (s *webhookService) resolveSubscriptionUID(ctx context.Context, sub *stripe.Subscription) string {
	uid := s.resolveCustomerUID(ctx, sub.Customer)
	if uid == "" {
		uid = sub.Metadata["firebaseUID"]
	}
	return uid
}

func (s *webhookService) resolveCustomerUID(ctx context.Context, customer *stripe.Customer) string {
	if customer == nil || customer.ID == "" {
		return ""
	}

	uid, err := s.resolver.CustomerUID(ctx, customer.ID)
	if err != nil {
		s.log.Warnw("Failed to resolve customer uid", "customer_id", customer.ID, "error", err)
		return ""
	}
	return uid
}

func (s *webhookService) subscriptionInfo(sub *stripe.Subscription) *domain.SubscriptionInfo {
	info := &domain.SubscriptionInfo{
		ID:     sub.ID,
		Status: string(sub.Status),
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		price := sub.Items.Data[0].Price
		info.PriceID = price.ID
		if price.Recurring != nil {
			if price.Recurring.Interval == stripe.PriceRecurringIntervalYear {
				info.BillingPeriod = domain.BillingYearly
			} else {
				info.BillingPeriod = domain.BillingMonthly
			}
		}
	}
	if sub.Metadata != nil {
		info.PlanTier = sub.Metadata["planTier"]
		if bp := sub.Metadata["billingPeriod"]; bp != "" {
			info.BillingPeriod = bp
		}
	}
	return info
}

// subscriptionTier определяет тариф: метаданные, затем таблица цен, затем pro
func (s *webhookService) subscriptionTier(info *domain.SubscriptionInfo) domain.PlanTier {
	if info.PlanTier != "" {
		return domain.ParsePlanTier(info.PlanTier)
	}
	if tier := s.stripe.TierForPrice(info.PriceID); tier != "" {
		return domain.ParsePlanTier(tier)
	}
	return domain.TierPro
}

// publish отправляет событие в Kafka; сбой публикации не ломает обработку вебхука
func (s *webhookService) publish(ctx context.Context, topic string, user *domain.User) {
	if s.producer == nil {
		return
	}
	if err := s.producer.Publish(ctx, topic, user.UID, user); err != nil {
		s.log.Errorw("Failed to publish subscription event", "topic", topic, "uid", user.UID, "error", err)
	}
}

// recordEvent пишет событие в журнал; журнал не влияет на ответ Stripe
func (s *webhookService) recordEvent(ctx context.Context, event stripe.Event, result string, procErr error) {
	if s.events == nil {
		return
	}

	record := domain.WebhookEvent{
		ID:         uuid.NewString(),
		ExternalID: event.ID,
		Type:       string(event.Type),
		Status:     result,
		ReceivedAt: time.Now().UTC(),
	}
	if procErr != nil {
		record.Error = procErr.Error()
	}

	if err := s.events.Record(ctx, record); err != nil {
		s.log.Warnw("Failed to record webhook event", "event_id", event.ID, "error", err)
	}
}

func validFirebaseUID(uid string) bool {
	return firebaseUIDPattern.MatchString(uid)
}
