package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/keyauth"

	"devtube-server/internal/transport/httpserver/dto"
)

// AdminAuth requires "Authorization: Bearer <token>". An empty token rejects
// every request.
func AdminAuth(token string) fiber.Handler {
	return keyauth.New(keyauth.Config{
		KeyLookup:  "header:" + fiber.HeaderAuthorization,
		AuthScheme: "Bearer",
		Validator: func(_ *fiber.Ctx, key string) (bool, error) {
			if token == "" {
				return false, keyauth.ErrMissingOrMalformedAPIKey
			}
			if subtle.ConstantTimeCompare([]byte(key), []byte(token)) != 1 {
				return false, keyauth.ErrMissingOrMalformedAPIKey
			}

			return true, nil
		},
		ErrorHandler: func(c *fiber.Ctx, _ error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: "unauthorized",
				Code:  "UNAUTHORIZED",
			})
		},
	})
}
