package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"devtube-server/internal/logger"
)

// Logger returns a middleware that logs HTTP requests.
func Logger(log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start)
		status := c.Response().StatusCode()

		fields := []zap.Field{
			logger.RequestID(GetRequestID(c)),
			zap.String("method", c.Method()),
			logger.Path(c.Path()),
			zap.Int("status", status),
			zap.Duration("duration", duration),
			zap.String("ip", c.IP()),
			zap.String("user_agent", c.Get(fiber.HeaderUserAgent)),
		}

		if err != nil {
			fields = append(fields, zap.Error(err))
		}

		// 404s are routine for a static site and stay at debug.
		switch {
		case status >= 500:
			log.Error("request failed", fields...)
		case status >= 400 && status != fiber.StatusNotFound:
			log.Warn("request error", fields...)
		default:
			log.Debug("request completed", fields...)
		}

		return err
	}
}
