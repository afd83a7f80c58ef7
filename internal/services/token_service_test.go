package services_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"catalog/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const testSecret = "unit-test-secret"

func newTestTokenService(t *testing.T, cfg services.TokenConfig) *services.TokenService {
	t.Helper()
	if cfg.Secret == "" && !cfg.Development {
		cfg.Secret = testSecret
	}
	svc, err := services.NewTokenService(cfg, zap.NewNop())
	require.NoError(t, err)
	return svc
}

func TestTokenService_RoundTrip(t *testing.T) {
	svc := newTestTokenService(t, services.TokenConfig{})

	token, err := svc.Create(map[string]any{"user_id": 1, "role": "admin"})
	require.NoError(t, err)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"user_id": float64(1), "role": "admin"}, claims)
}

func TestTokenService_DoesNotMutateCallerClaims(t *testing.T) {
	svc := newTestTokenService(t, services.TokenConfig{})
	claims := map[string]any{"sub": "admin@example.com"}

	_, err := svc.Create(claims)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"sub": "admin@example.com"}, claims)
}

func TestTokenService_EmptyClaims(t *testing.T) {
	svc := newTestTokenService(t, services.TokenConfig{})

	_, err := svc.Create(map[string]any{})
	assert.ErrorIs(t, err, services.ErrEmptyClaims)

	_, err = svc.Create(nil)
	assert.ErrorIs(t, err, services.ErrEmptyClaims)
}

func TestTokenService_Expired(t *testing.T) {
	svc := newTestTokenService(t, services.TokenConfig{})

	token, err := svc.CreateWithTTL(map[string]any{"user_id": 1}, -time.Minute)
	require.NoError(t, err)

	claims, err := svc.Verify(token)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, services.ErrTokenExpired)
}

func TestTokenService_ExpiresAfterDefaultTTL(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestTokenService(t, services.TokenConfig{Now: func() time.Time { return now }})
	assert.Equal(t, services.DefaultTokenTTL, svc.DefaultTTL())

	token, err := svc.Create(map[string]any{"user_id": 1})
	require.NoError(t, err)

	now = now.Add(29 * time.Minute)
	_, err = svc.Verify(token)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, services.ErrTokenExpired)
}

func TestTokenService_BlankTokenIsAbsent(t *testing.T) {
	svc := newTestTokenService(t, services.TokenConfig{})

	for _, token := range []string{"", "   "} {
		claims, err := svc.Verify(token)
		assert.NoError(t, err)
		assert.Nil(t, claims)
	}
}

func TestTokenService_Malformed(t *testing.T) {
	svc := newTestTokenService(t, services.TokenConfig{})

	for _, token := range []string{"garbage", "a.b", "a.b.c", "eyJhbGciOiJIUzI1NiJ9..sig"} {
		_, err := svc.Verify(token)
		assert.ErrorIs(t, err, services.ErrTokenMalformed, token)
	}
}

func TestTokenService_EverySignatureCharacterIsChecked(t *testing.T) {
	svc := newTestTokenService(t, services.TokenConfig{})
	token, err := svc.Create(map[string]any{"user_id": 1})
	require.NoError(t, err)

	sigStart := strings.LastIndex(token, ".") + 1
	for i := sigStart; i < len(token); i++ {
		replacement := byte('A')
		if token[i] == 'A' {
			replacement = 'B'
		}
		tampered := token[:i] + string(replacement) + token[i+1:]

		claims, err := svc.Verify(tampered)
		assert.Nil(t, claims, "position %d", i)
		require.Error(t, err, "position %d", i)
		assert.True(t,
			errors.Is(err, services.ErrTokenTampered) || errors.Is(err, services.ErrTokenMalformed),
			"position %d: unexpected error %v", i, err,
		)
	}
}

func TestTokenService_TamperedPayload(t *testing.T) {
	svc := newTestTokenService(t, services.TokenConfig{})
	token, err := svc.Create(map[string]any{"role": "user"})
	require.NoError(t, err)

	forged, err := svc.Create(map[string]any{"role": "admin"})
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	forgedParts := strings.Split(forged, ".")
	mixed := parts[0] + "." + forgedParts[1] + "." + parts[2]

	_, err = svc.Verify(mixed)
	assert.ErrorIs(t, err, services.ErrTokenTampered)
}

func TestTokenService_WrongSecret(t *testing.T) {
	issuer := newTestTokenService(t, services.TokenConfig{Secret: "issuer-secret"})
	verifier := newTestTokenService(t, services.TokenConfig{Secret: "other-secret"})

	token, err := issuer.Create(map[string]any{"user_id": 1})
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, services.ErrTokenTampered)
}

func TestTokenService_AlgorithmMismatch(t *testing.T) {
	issuer := newTestTokenService(t, services.TokenConfig{Algorithm: "HS512"})
	verifier := newTestTokenService(t, services.TokenConfig{Algorithm: "HS256"})

	token, err := issuer.Create(map[string]any{"user_id": 1})
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.Error(t, err)
}

func TestTokenService_UnsupportedAlgorithm(t *testing.T) {
	for _, alg := range []string{"RS256", "none", "HS1"} {
		_, err := services.NewTokenService(services.TokenConfig{Secret: testSecret, Algorithm: alg}, zap.NewNop())
		assert.ErrorIs(t, err, services.ErrUnsupportedAlgorithm, alg)
	}
}

func TestTokenService_MissingSecret(t *testing.T) {
	_, err := services.NewTokenService(services.TokenConfig{}, zap.NewNop())
	assert.ErrorIs(t, err, services.ErrMissingSecret)
}

func TestTokenService_DevelopmentSecretFallback(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)

	svc, err := services.NewTokenService(services.TokenConfig{Development: true}, zap.New(core))
	require.NoError(t, err)
	assert.Equal(t, 1, logs.Len())

	devIssuer := newTestTokenService(t, services.TokenConfig{Secret: services.DevelopmentSecret})
	token, err := devIssuer.Create(map[string]any{"user_id": 1})
	require.NoError(t, err)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, float64(1), claims["user_id"])
}
