package services

import (
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// DevelopmentSecret is only used when no secret is configured in development.
const DevelopmentSecret = "dev-secret-key-change-in-production"

// DefaultTokenTTL applies when TokenConfig.DefaultTTL is not set.
const DefaultTokenTTL = 30 * time.Minute

var reservedClaims = []string{"iat", "nbf", "exp"}

var (
	ErrEmptyClaims          = errors.New("claims cannot be empty")
	ErrTokenExpired         = errors.New("token has expired")
	ErrTokenMalformed       = errors.New("token is malformed")
	ErrTokenTampered        = errors.New("token signature is invalid")
	ErrMissingSecret        = errors.New("JWT secret key must be configured outside development")
	ErrUnsupportedAlgorithm = errors.New("unsupported signing algorithm")
)

// TokenConfig configures a TokenService.
type TokenConfig struct {
	Secret      string
	Algorithm   string
	DefaultTTL  time.Duration
	Development bool
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

// TokenService mints and verifies HMAC-signed JWTs carrying arbitrary claims.
// There is no server-side token store.
type TokenService struct {
	secret     []byte
	method     *jwt.SigningMethodHMAC
	defaultTTL time.Duration
	now        func() time.Time
}

// NewTokenService validates cfg. Without a secret it fails unless
// cfg.Development is set, in which case DevelopmentSecret is used and a
// warning is logged.
func NewTokenService(cfg TokenConfig, logger *zap.Logger) (*TokenService, error) {
	alg := cfg.Algorithm
	if alg == "" {
		alg = jwt.SigningMethodHS256.Alg()
	}
	method, ok := jwt.GetSigningMethod(strings.ToUpper(alg)).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("%w: %q (expected HS256, HS384 or HS512)", ErrUnsupportedAlgorithm, alg)
	}

	secret := cfg.Secret
	if secret == "" {
		if !cfg.Development {
			return nil, ErrMissingSecret
		}
		secret = DevelopmentSecret
		logger.Warn("USING INSECURE DEFAULT JWT SECRET. Set JWT_SECRET_KEY before deploying anywhere but a developer machine!")
	}

	ttl := cfg.DefaultTTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &TokenService{
		secret:     []byte(secret),
		method:     method,
		defaultTTL: ttl,
		now:        now,
	}, nil
}

// DefaultTTL returns the lifetime applied by Create.
func (s *TokenService) DefaultTTL() time.Duration { return s.defaultTTL }

// Create signs claims with the default lifetime.
func (s *TokenService) Create(claims map[string]any) (string, error) {
	return s.CreateWithTTL(claims, 0)
}

// CreateWithTTL signs a copy of claims extended with iat, nbf and exp. A zero
// ttl means the default; a negative ttl yields an already expired token.
func (s *TokenService) CreateWithTTL(claims map[string]any, ttl time.Duration) (string, error) {
	if len(claims) == 0 {
		return "", ErrEmptyClaims
	}
	if ttl == 0 {
		ttl = s.defaultTTL
	}

	now := s.now()
	tokenClaims := make(jwt.MapClaims, len(claims)+len(reservedClaims))
	maps.Copy(tokenClaims, claims)
	tokenClaims["iat"] = now.Unix()
	tokenClaims["nbf"] = now.Unix()
	tokenClaims["exp"] = now.Add(ttl).Unix()

	signed, err := jwt.NewWithClaims(s.method, tokenClaims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and lifetime of token and returns its claims
// without iat, nbf and exp. A blank token yields (nil, nil): the caller
// decides what a missing token means.
func (s *TokenService) Verify(token string) (map[string]any, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(s.now),
	)
	parsed, err := parser.Parse(token, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, classifyTokenError(err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenMalformed
	}

	out := make(map[string]any, len(claims))
	maps.Copy(out, claims)
	for _, name := range reservedClaims {
		delete(out, name)
	}
	return out, nil
}

func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %v", ErrTokenTampered, err)
	default:
		return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
}
