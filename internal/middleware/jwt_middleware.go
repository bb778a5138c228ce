package middleware

import (
	"strings"

	"mafiamadness/internal/apperr"

	"github.com/dgrijalva/jwt-go"
	"github.com/gofiber/fiber/v2"
)

// Locals keys set by AuthRequired.
const (
	LocalUserID   = "user_id"
	LocalUsername = "username"
	LocalRole     = "role"
)

// TokenValidator is implemented by services.AuthService.
type TokenValidator interface {
	ValidateToken(tokenString string) (jwt.MapClaims, error)
}

// AuthRequired is a Fiber middleware to check for a valid JWT token.
func AuthRequired(validator TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return apperr.Unauthorized("Authorization header is required")
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			return apperr.Unauthorized("Authorization header format must be 'Bearer <token>'")
		}

		claims, err := validator.ValidateToken(parts[1])
		if err != nil {
			return err
		}

		userID, _ := claims["user_id"].(string)
		if userID == "" {
			return apperr.Unauthorized("Invalid or expired token")
		}
		username, _ := claims["username"].(string)
		role, _ := claims["role"].(string)

		// Store claims in Fiber context for subsequent handlers
		c.Locals(LocalUserID, userID)
		c.Locals(LocalUsername, username)
		c.Locals(LocalRole, role)

		return c.Next()
	}
}

// CurrentUserID returns the authenticated user's id, or "" outside AuthRequired.
func CurrentUserID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalUserID).(string)
	return id
}

// CurrentUsername returns the authenticated user's username, or "" outside AuthRequired.
func CurrentUsername(c *fiber.Ctx) string {
	username, _ := c.Locals(LocalUsername).(string)
	return username
}

// CurrentRole returns the authenticated user's role, or "" outside AuthRequired.
func CurrentRole(c *fiber.Ctx) string {
	role, _ := c.Locals(LocalRole).(string)
	return role
}
