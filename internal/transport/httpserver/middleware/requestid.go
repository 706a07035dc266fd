package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = fiber.HeaderXRequestID

// RequestID assigns every request a UUID, or keeps the one sent by a proxy.
func RequestID() fiber.Handler {
	return requestid.New(requestid.Config{
		Header:     RequestIDHeader,
		Generator:  uuid.NewString,
		ContextKey: "requestid",
	})
}

// GetRequestID returns the id assigned by RequestID.
func GetRequestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}

	return ""
}
