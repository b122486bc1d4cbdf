package rest

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chefwise/chefwise-api/internal/api/rest/handlers"
	"github.com/chefwise/chefwise-api/internal/auth"
	"github.com/chefwise/chefwise-api/internal/domain"
	"github.com/chefwise/chefwise-api/internal/metrics"
	"github.com/chefwise/chefwise-api/internal/ratelimit"
	"github.com/chefwise/chefwise-api/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	stripe "github.com/stripe/stripe-go/v79"
)

type allowAllVerifier struct{}

func (allowAllVerifier) Verify(ctx context.Context, token string) (*auth.Identity, error) {
	return &auth.Identity{SubjectID: "abcdefghijklmnopqrstu1", Email: "cook@example.com"}, nil
}

type staticRecipes struct{}

func (staticRecipes) Chat(ctx context.Context, messages []domain.ChatMessage) (string, error) {
	return "ok", nil
}

func (staticRecipes) GenerateRecipe(ctx context.Context, ingredients string) (*domain.Recipe, error) {
	return &domain.Recipe{Title: "t"}, nil
}

func (staticRecipes) AnalyzePantryPhoto(ctx context.Context, imageBase64, mimeType string) ([]domain.PantryItem, error) {
	return nil, nil
}

type staticBilling struct{}

func (staticBilling) StartCheckout(ctx context.Context, req domain.CheckoutRequest) (*domain.CheckoutSession, error) {
	return &domain.CheckoutSession{SessionID: "cs_1", URL: "u"}, nil
}

func (staticBilling) OpenPortal(ctx context.Context, customerID string) (*domain.PortalSession, error) {
	return &domain.PortalSession{URL: "u"}, nil
}

type staticTiers struct{}

func (staticTiers) PlanTier(ctx context.Context, uid string) (domain.PlanTier, error) {
	return domain.TierFree, nil
}

type rejectVerifier struct{}

func (rejectVerifier) VerifyEvent(payload []byte, signature string) (stripe.Event, error) {
	return stripe.Event{}, assert.AnError
}

type nopWebhooks struct{}

func (nopWebhooks) ProcessEvent(ctx context.Context, event stripe.Event) error { return nil }

func newTestRouter(t *testing.T, chatMax int) (*gin.Engine, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.New(logger.ERROR)

	chat := ratelimit.New(ratelimit.Config{Window: time.Minute, Max: chatMax})
	recipe := ratelimit.New(ratelimit.Config{Window: time.Minute, Max: 10})
	billing := ratelimit.New(ratelimit.Config{Window: time.Minute, Max: 10})
	quota := ratelimit.New(ratelimit.Config{Window: 24 * time.Hour, Max: 2})

	r := SetupRouter(Deps{
		Log:            log,
		Registry:       prometheus.NewRegistry(),
		Metrics:        metrics.NopRecorder{},
		Auth:           auth.NewMiddleware(allowAllVerifier{}, log),
		Tiers:          staticTiers{},
		Recipes:        staticRecipes{},
		Billing:        staticBilling{},
		Webhooks:       handlers.NewWebhookHandler(rejectVerifier{}, nopWebhooks{}, log),
		ChatLimiter:    chat,
		RecipeLimiter:  recipe,
		BillingLimiter: billing,
		PantryQuota:    quota,
	})

	stop := func() {
		chat.Stop()
		recipe.Stop()
		billing.Stop()
		quota.Stop()
	}

	return r, stop
}

func TestHealthEndpoint(t *testing.T) {
	r, stop := newTestRouter(t, 5)
	defer stop()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "OK")
}

func TestMethodNotAllowedOnAPIRoutes(t *testing.T) {
	r, stop := newTestRouter(t, 5)
	defer stop()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/chat-recipe", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Contains(t, w.Body.String(), "Method not allowed")
}

func TestChatRouteIsRateLimited(t *testing.T) {
	r, stop := newTestRouter(t, 5)
	defer stop()

	body := []byte(`{"messages":[{"role":"user","content":"hi"}]}`)

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/chat-recipe", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer token")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	for i := 0; i < 5; i++ {
		w := send()
		require.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
	}

	w := send()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "Too many requests. Please try again later.")
}

func TestChatRouteRequiresAuth(t *testing.T) {
	r, stop := newTestRouter(t, 5)
	defer stop()

	req := httptest.NewRequest(http.MethodPost, "/api/chat-recipe", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "auth/missing-token")
}

func TestWebhookRouteRejectsBadSignature(t *testing.T) {
	r, stop := newTestRouter(t, 5)
	defer stop()

	req := httptest.NewRequest(http.MethodPost, "/api/stripe/webhook", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Stripe-Signature", "t=1,v1=bad")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
