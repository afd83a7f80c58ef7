package services

import "time"

// AuthService puts token and password operations behind one type. It holds no
// state of its own.
type AuthService struct {
	tokens *TokenService
	hasher *PasswordHasher
}

// NewAuthService creates a new AuthService.
func NewAuthService(tokens *TokenService, hasher *PasswordHasher) *AuthService {
	return &AuthService{
		tokens: tokens,
		hasher: hasher,
	}
}

// Tokens exposes the underlying TokenService for callers that need failure detail.
func (s *AuthService) Tokens() *TokenService { return s.tokens }

func (s *AuthService) CreateToken(claims map[string]any) (string, error) {
	return s.tokens.Create(claims)
}

func (s *AuthService) CreateTokenWithTTL(claims map[string]any, ttl time.Duration) (string, error) {
	return s.tokens.CreateWithTTL(claims, ttl)
}

// VerifyToken returns the token claims, or nil for any missing or invalid token.
func (s *AuthService) VerifyToken(token string) map[string]any {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil
	}
	return claims
}

func (s *AuthService) HashPassword(password string) (string, error) {
	return s.hasher.Hash(password)
}

func (s *AuthService) VerifyPassword(password, hash string) (bool, error) {
	return s.hasher.Verify(password, hash)
}
