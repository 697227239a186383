package middleware

import (
	"strings"

	"ordersvc/internal/services"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// CustomerIDKey is the fiber.Ctx Locals key holding the authenticated customer's ID.
const CustomerIDKey = "customer_id"

// AuthRequired rejects requests without a valid bearer token and stores the
// token's customer ID under CustomerIDKey. Failures are returned as 401
// fiber errors so any error handler renders them.
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := bearerToken(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return err
		}

		claims, err := authService.ValidateToken(token)
		if err != nil {
			log.WithError(err).WithField("path", c.Path()).Debug("Rejected bearer token")
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired token")
		}

		customerID, _ := claims["customer_id"].(string)
		if customerID == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Token does not identify a customer")
		}

		c.Locals(CustomerIDKey, customerID)
		return c.Next()
	}
}

// CustomerID returns the customer authenticated by AuthRequired, or "" when
// the route is not guarded.
func CustomerID(c *fiber.Ctx) string {
	id, _ := c.Locals(CustomerIDKey).(string)
	return id
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", fiber.NewError(fiber.StatusUnauthorized, "Authorization header is required")
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", fiber.NewError(fiber.StatusUnauthorized, "Authorization header format must be 'Bearer <token>'")
	}
	return strings.TrimSpace(token), nil
}
