package handlers

import (
	"strings"

	"catalog/internal/middleware"
	"catalog/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AdminAccount is the single account allowed to log in.
type AdminAccount struct {
	Email        string
	PasswordHash string
}

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService *services.AuthService
	admin       AdminAccount
	development bool
	validate    *validator.Validate
	logger      *zap.Logger
}

// NewAuthHandler creates a new AuthHandler. The hash-password helper is only
// routed when development is true.
func NewAuthHandler(authService *services.AuthService, admin AdminAccount, development bool, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		admin:       admin,
		development: development,
		validate:    newValidator(),
		logger:      logger,
	}
}

// RegisterRoutes registers the authentication routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/login", h.HandleLogin)
	authRoutes.Post("/verify", h.HandleVerify)
	authRoutes.Get("/me", middleware.AuthRequired(h.authService), h.HandleMe)
	if h.development {
		authRoutes.Post("/hash-password", h.HandleHashPassword)
	}
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse is returned by a successful login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// VerifyRequest is the body of POST /auth/verify.
type VerifyRequest struct {
	Token string `json:"token" validate:"required"`
}

// VerifyResponse reports whether a token is valid and, if so, its claims.
type VerifyResponse struct {
	Valid   bool           `json:"valid"`
	Payload map[string]any `json:"payload,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// HashPasswordRequest is the body of POST /auth/hash-password.
type HashPasswordRequest struct {
	Password string `json:"password" validate:"required"`
}

// HandleLogin checks the admin credentials and issues a JWT token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	if !h.checkCredentials(req.Email, req.Password) {
		h.logger.Warn("login failed", zap.String("email", req.Email), zap.String("remote_addr", c.IP()))
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Invalid email or password",
		})
	}

	token, err := h.authService.CreateToken(map[string]any{
		"sub":  h.admin.Email,
		"role": "admin",
	})
	if err != nil {
		return writeError(c, h.logger, "Could not create token", err)
	}

	return c.JSON(TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(h.authService.Tokens().DefaultTTL().Seconds()),
	})
}

// HandleVerify reports on a token without requiring it to be valid.
func (h *AuthHandler) HandleVerify(c *fiber.Ctx) error {
	var req VerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	claims, err := h.authService.Tokens().Verify(req.Token)
	if err != nil {
		return c.JSON(VerifyResponse{Valid: false, Error: err.Error()})
	}
	return c.JSON(VerifyResponse{Valid: true, Payload: claims})
}

// HandleMe echoes the claims of the caller's token.
func (h *AuthHandler) HandleMe(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"claims": middleware.Claims(c),
	})
}

// HandleHashPassword hashes a password so an operator can fill ADMIN_PASSWORD_HASH.
func (h *AuthHandler) HandleHashPassword(c *fiber.Ctx) error {
	var req HashPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	hash, err := h.authService.HashPassword(req.Password)
	if err != nil {
		return writeError(c, h.logger, "Could not hash password", err)
	}
	return c.JSON(fiber.Map{"hash": hash})
}

func (h *AuthHandler) checkCredentials(email, password string) bool {
	if h.admin.Email == "" || h.admin.PasswordHash == "" {
		return false
	}
	if !strings.EqualFold(strings.TrimSpace(email), h.admin.Email) {
		return false
	}
	ok, err := h.authService.VerifyPassword(password, h.admin.PasswordHash)
	return err == nil && ok
}
