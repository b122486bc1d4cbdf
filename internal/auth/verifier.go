package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/chefwise/chefwise-api/internal/domain"
	"github.com/chefwise/chefwise-api/pkg/logger"
	"github.com/golang-jwt/jwt/v5"
)

// TokenVerifier проверяет ID-токен и возвращает идентичность пользователя
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// FirebaseVerifier проверяет Firebase ID-токены по JWKS Google
type FirebaseVerifier struct {
	projectID string
	issuer    string
	keyfunc   jwt.Keyfunc
	log       *logger.Logger
}

// NewFirebaseVerifier создает верификатор; JWKS кэшируется и обновляется фоном
func NewFirebaseVerifier(ctx context.Context, projectID, jwksURL string, log *logger.Logger) (*FirebaseVerifier, error) {
	kf, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("create jwks keyfunc: %w", err)
	}

	return &FirebaseVerifier{
		projectID: projectID,
		issuer:    "https://securetoken.google.com/" + projectID,
		keyfunc:   kf.Keyfunc,
		log:       log,
	}, nil
}

// Verify разбирает и проверяет токен: подпись RS256, issuer и audience проекта
func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	claims := jwt.MapClaims{}

	parsed, err := jwt.ParseWithClaims(token, claims, v.keyfunc,
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.projectID),
	)
	if err != nil {
		return nil, mapJWTError(err)
	}
	if !parsed.Valid {
		return nil, domain.ErrTokenInvalid
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, domain.ErrTokenInvalid
	}

	id := &Identity{SubjectID: sub}
	if email, ok := claims["email"].(string); ok {
		id.Email = email
	}
	if verified, ok := claims["email_verified"].(bool); ok {
		id.EmailVerified = verified
	}
	if name, ok := claims["name"].(string); ok {
		id.DisplayName = name
	}

	return id, nil
}

func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return domain.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenInvalidIssuer),
		errors.Is(err, jwt.ErrTokenInvalidAudience),
		errors.Is(err, jwt.ErrTokenInvalidClaims):
		return domain.ErrTokenInvalid
	default:
		return domain.ErrVerificationFailed
	}
}
