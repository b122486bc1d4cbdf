package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chefwise/chefwise-api/internal/auth"
	"github.com/chefwise/chefwise-api/internal/domain"
	"github.com/chefwise/chefwise-api/internal/ratelimit"
	"github.com/chefwise/chefwise-api/internal/service"
	"github.com/chefwise/chefwise-api/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	stripe "github.com/stripe/stripe-go/v79"
)

var testLog = logger.New(logger.ERROR)

type stubRecipeService struct {
	chatReply string
	recipe    *domain.Recipe
	items     []domain.PantryItem
	err       error
	calls     int
}

func (s *stubRecipeService) Chat(ctx context.Context, messages []domain.ChatMessage) (string, error) {
	s.calls++
	return s.chatReply, s.err
}

func (s *stubRecipeService) GenerateRecipe(ctx context.Context, ingredients string) (*domain.Recipe, error) {
	s.calls++
	return s.recipe, s.err
}

func (s *stubRecipeService) AnalyzePantryPhoto(ctx context.Context, imageBase64, mimeType string) ([]domain.PantryItem, error) {
	s.calls++
	return s.items, s.err
}

type stubBillingService struct {
	session *domain.CheckoutSession
	portal  *domain.PortalSession
	err     error
}

func (s *stubBillingService) StartCheckout(ctx context.Context, req domain.CheckoutRequest) (*domain.CheckoutSession, error) {
	return s.session, s.err
}

func (s *stubBillingService) OpenPortal(ctx context.Context, customerID string) (*domain.PortalSession, error) {
	return s.portal, s.err
}

type freeTierSource struct{}

func (freeTierSource) PlanTier(ctx context.Context, uid string) (domain.PlanTier, error) {
	return domain.TierFree, nil
}

type proTierSource struct{}

func (proTierSource) PlanTier(ctx context.Context, uid string) (domain.PlanTier, error) {
	return domain.TierPro, nil
}

func postJSON(t *testing.T, r *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func chatRouter(svc *stubRecipeService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/chat-recipe", NewChatHandler(svc, testLog).Chat)
	return r
}

func TestChatAcceptsBatchAtLimit(t *testing.T) {
	svc := &stubRecipeService{chatReply: "Bon appetit!"}
	r := chatRouter(svc)

	messages := make([]map[string]string, 0, 50)
	for i := 0; i < 50; i++ {
		messages = append(messages, map[string]string{"role": "user", "content": fmt.Sprintf("m%d", i)})
	}

	w := postJSON(t, r, "/api/chat-recipe", gin.H{"messages": messages})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Bon appetit!")
	assert.Equal(t, 1, svc.calls)
}

func TestChatRejectsOversizedBatchBeforeProvider(t *testing.T) {
	svc := &stubRecipeService{chatReply: "never"}
	r := chatRouter(svc)

	messages := make([]map[string]string, 0, 51)
	for i := 0; i < 51; i++ {
		messages = append(messages, map[string]string{"role": "user", "content": fmt.Sprintf("m%d", i)})
	}

	w := postJSON(t, r, "/api/chat-recipe", gin.H{"messages": messages})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, svc.calls, "provider must not be called for an invalid batch")
}

func TestChatRejectsEmptyBatch(t *testing.T) {
	svc := &stubRecipeService{}
	r := chatRouter(svc)

	w := postJSON(t, r, "/api/chat-recipe", gin.H{"messages": []string{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Messages are required")
	assert.Zero(t, svc.calls)
}

func TestChatRejectsBadRoleAndMissingBody(t *testing.T) {
	svc := &stubRecipeService{}
	r := chatRouter(svc)

	w := postJSON(t, r, "/api/chat-recipe", gin.H{
		"messages": []map[string]string{{"role": "system", "content": "hi"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(t, r, "/api/chat-recipe", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Messages are required")
	assert.Zero(t, svc.calls)
}

func TestChatMapsProviderErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{domain.ErrCompletionTimeout, http.StatusGatewayTimeout},
		{domain.ErrProviderRateLimited, http.StatusServiceUnavailable},
		{domain.ErrProviderUnavailable, http.StatusBadGateway},
		{domain.ErrProviderAuth, http.StatusInternalServerError},
		{assert.AnError, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		svc := &stubRecipeService{err: tc.err}
		r := chatRouter(svc)

		w := postJSON(t, r, "/api/chat-recipe", gin.H{
			"messages": []map[string]string{{"role": "user", "content": "hi"}},
		})
		assert.Equal(t, tc.status, w.Code, "error %v", tc.err)
	}
}

func TestGenerateRecipe(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &stubRecipeService{recipe: &domain.Recipe{
		Title:        "Garlic Pasta",
		Ingredients:  []string{"pasta", "garlic"},
		Instructions: []string{"boil", "mix"},
		CookTime:     "20 minutes",
	}}
	r := gin.New()
	r.POST("/api/generate-recipe", NewRecipeHandler(svc, testLog).Generate)

	w := postJSON(t, r, "/api/generate-recipe", gin.H{"ingredients": "pasta, garlic"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Garlic Pasta")
	assert.Contains(t, w.Body.String(), "cookTime")

	// Без ингредиентов запрос отклоняется до провайдера
	calls := svc.calls
	w = postJSON(t, r, "/api/generate-recipe", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Ingredients are required")
	assert.Equal(t, calls, svc.calls)
}

func TestGenerateRecipeMalformedResponseIs502(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &stubRecipeService{err: domain.ErrMalformedResponse}
	r := gin.New()
	r.POST("/api/generate-recipe", NewRecipeHandler(svc, testLog).Generate)

	w := postJSON(t, r, "/api/generate-recipe", gin.H{"ingredients": "pasta"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func pantryRouter(svc *stubRecipeService, tiers auth.TierSource, quota *ratelimit.Limiter, uid string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	identity := func(c *gin.Context) {
		if uid != "" {
			auth.SetIdentity(c, &auth.Identity{SubjectID: uid})
		}
	}
	r.POST("/api/analyze-pantry-photo", identity, NewPantryHandler(svc, tiers, quota, nil, testLog).Analyze)
	return r
}

func TestPantryPhotoValidation(t *testing.T) {
	quota := ratelimit.New(ratelimit.Config{Window: 24 * time.Hour, Max: 2})
	defer quota.Stop()
	svc := &stubRecipeService{}
	r := pantryRouter(svc, freeTierSource{}, quota, "")

	w := postJSON(t, r, "/api/analyze-pantry-photo", gin.H{"mimeType": "image/jpeg"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Image data is required")

	w = postJSON(t, r, "/api/analyze-pantry-photo", gin.H{"image": "aGk=", "mimeType": "text/plain"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Valid image MIME type is required")
	assert.Zero(t, svc.calls)
}

func TestPantryPhotoFreeTierQuota(t *testing.T) {
	quota := ratelimit.New(ratelimit.Config{Window: 24 * time.Hour, Max: 2})
	defer quota.Stop()
	svc := &stubRecipeService{items: []domain.PantryItem{}}
	r := pantryRouter(svc, freeTierSource{}, quota, "abcdefghijklmnopqrstu1")

	body := gin.H{"image": "aGk=", "mimeType": "image/jpeg"}

	for i := 0; i < 2; i++ {
		w := postJSON(t, r, "/api/analyze-pantry-photo", body)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := postJSON(t, r, "/api/analyze-pantry-photo", body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "Free tier limit reached (2 scans/day). Upgrade to Premium for unlimited scans.")
	assert.Contains(t, w.Body.String(), `"rateLimited":true`)
	assert.Equal(t, 2, svc.calls)
}

func TestPantryPhotoPremiumBypassesQuota(t *testing.T) {
	quota := ratelimit.New(ratelimit.Config{Window: 24 * time.Hour, Max: 2})
	defer quota.Stop()
	svc := &stubRecipeService{items: []domain.PantryItem{}}
	r := pantryRouter(svc, proTierSource{}, quota, "abcdefghijklmnopqrstu1")

	body := gin.H{"image": "aGk=", "mimeType": "image/jpeg"}
	for i := 0; i < 5; i++ {
		w := postJSON(t, r, "/api/analyze-pantry-photo", body)
		require.Equal(t, http.StatusOK, w.Code)
	}
	assert.Equal(t, 5, svc.calls)
}

func billingRouter(svc service.BillingService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewBillingHandler(svc, testLog)
	r := gin.New()
	r.POST("/api/stripe/create-checkout-session", h.CreateCheckoutSession)
	r.POST("/api/stripe/portal", h.CreatePortalSession)
	return r
}

func TestCheckoutSessionHandler(t *testing.T) {
	svc := &stubBillingService{session: &domain.CheckoutSession{SessionID: "cs_1", URL: "https://checkout.stripe.com/c/cs_1"}}
	r := billingRouter(svc)

	w := postJSON(t, r, "/api/stripe/create-checkout-session", gin.H{
		"userId":    "abcdefghijklmnopqrstu1",
		"userEmail": "cook@example.com",
		"planId":    "pro",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cs_1")

	// Без uid или email — 400
	w = postJSON(t, r, "/api/stripe/create-checkout-session", gin.H{"userEmail": "cook@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Missing required fields")
}

func TestCheckoutSessionErrorMapping(t *testing.T) {
	cases := []struct {
		err     error
		status  int
		message string
	}{
		{service.ErrInvalidPlan, http.StatusBadRequest, "Invalid plan selected"},
		{service.ErrPriceNotConfigured, http.StatusBadRequest, "Price ID not configured. Please contact support."},
		{domain.ErrInvalidPriceID, http.StatusInternalServerError, "Price configuration error. Please contact support."},
	}

	for _, tc := range cases {
		r := billingRouter(&stubBillingService{err: tc.err})
		w := postJSON(t, r, "/api/stripe/create-checkout-session", gin.H{
			"userId":    "abcdefghijklmnopqrstu1",
			"userEmail": "cook@example.com",
		})
		assert.Equal(t, tc.status, w.Code)
		assert.Contains(t, w.Body.String(), tc.message)
	}
}

func TestPortalHandler(t *testing.T) {
	svc := &stubBillingService{portal: &domain.PortalSession{URL: "https://billing.stripe.com/p/x"}}
	r := billingRouter(svc)

	w := postJSON(t, r, "/api/stripe/portal", gin.H{"customerId": "cus_1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "billing.stripe.com")

	w = postJSON(t, r, "/api/stripe/portal", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Missing customer ID")
}

type stubWebhookVerifier struct {
	event stripe.Event
	err   error
}

func (s *stubWebhookVerifier) VerifyEvent(payload []byte, signature string) (stripe.Event, error) {
	return s.event, s.err
}

type stubWebhookService struct {
	err   error
	calls int
}

func (s *stubWebhookService) ProcessEvent(ctx context.Context, event stripe.Event) error {
	s.calls++
	return s.err
}

func TestWebhookHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	run := func(verifier *stubWebhookVerifier, svc *stubWebhookService) *httptest.ResponseRecorder {
		r := gin.New()
		r.POST("/api/stripe/webhook", NewWebhookHandler(verifier, svc, testLog).HandleStripeWebhook)
		req := httptest.NewRequest(http.MethodPost, "/api/stripe/webhook", bytes.NewReader([]byte(`{}`)))
		req.Header.Set("Stripe-Signature", "t=1,v1=sig")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	// Неверная подпись — 400, событие не обрабатывается
	svc := &stubWebhookService{}
	w := run(&stubWebhookVerifier{err: assert.AnError}, svc)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, svc.calls)

	// Успешная обработка — {"received":true}
	svc = &stubWebhookService{}
	w = run(&stubWebhookVerifier{event: stripe.Event{ID: "evt_1"}}, svc)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"received":true`)
	assert.Equal(t, 1, svc.calls)

	// Ошибка обработки — 500
	w = run(&stubWebhookVerifier{event: stripe.Event{ID: "evt_1"}}, &stubWebhookService{err: assert.AnError})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Webhook handler failed")
}
