package stripe

import (
	stripe "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
)

// WebhookVerifier проверяет подпись вебхука и разбирает событие
type WebhookVerifier interface {
	VerifyEvent(payload []byte, signature string) (stripe.Event, error)
}

// SignatureVerifier реализация поверх webhook-пакета stripe-go
type SignatureVerifier struct {
	secret string
}

// NewSignatureVerifier создает верификатор с секретом вебхука
func NewSignatureVerifier(secret string) *SignatureVerifier {
	return &SignatureVerifier{secret: secret}
}

// VerifyEvent проверяет подпись Stripe-Signature и возвращает событие.
// Несовпадение версии API не считается ошибкой: событие все равно
// разбирается по известным полям.
func (v *SignatureVerifier) VerifyEvent(payload []byte, signature string) (stripe.Event, error) {
	return webhook.ConstructEventWithOptions(payload, signature, v.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
}
