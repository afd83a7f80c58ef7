package middleware

import (
	"strings"

	"catalog/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ClaimsKey is the fiber.Ctx Locals key holding the verified token claims.
const ClaimsKey = "claims"

// AuthRequired is a Fiber middleware to check for a valid JWT token.
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, ok := bearerToken(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header format must be 'Bearer <token>'",
			})
		}

		claims, err := authService.Tokens().Verify(tokenString)
		if err != nil || claims == nil {
			body := fiber.Map{"message": "Invalid or expired token"}
			if err != nil {
				body["error"] = err.Error()
			}
			return c.Status(fiber.StatusUnauthorized).JSON(body)
		}

		c.Locals(ClaimsKey, claims)
		return c.Next()
	}
}

// OptionalAuth stores claims when a valid bearer token is present and lets
// every request through.
func OptionalAuth(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if tokenString, ok := bearerToken(c); ok {
			if claims := authService.VerifyToken(tokenString); claims != nil {
				c.Locals(ClaimsKey, claims)
			}
		}
		return c.Next()
	}
}

// Claims returns the claims stored by AuthRequired or OptionalAuth, or nil.
func Claims(c *fiber.Ctx) map[string]any {
	claims, _ := c.Locals(ClaimsKey).(map[string]any)
	return claims
}

// Expected format: "Bearer <token>"
func bearerToken(c *fiber.Ctx) (string, bool) {
	parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
