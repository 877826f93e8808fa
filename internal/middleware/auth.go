package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/cleitonmachado77/NutriBoxBack/pkg/utils"
)

func AuthRequired(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			// Websocket clients cannot set headers from the browser, so the
			// token may ride in the query string instead.
			if token := c.Query("token"); token != "" {
				return authorize(c, token, secret)
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing authorization header",
			})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid authorization header format",
			})
		}

		return authorize(c, parts[1], secret)
	}
}

func authorize(c *fiber.Ctx, tokenString, secret string) error {
	claims, err := utils.ValidateToken(tokenString, secret)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid or expired token",
		})
	}

	c.Locals("user_id", claims.UserID)
	c.Locals("role", claims.Role)

	return c.Next()
}
