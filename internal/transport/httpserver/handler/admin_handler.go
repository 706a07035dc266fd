package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"devtube-server/internal/app/service"
	"devtube-server/internal/transport/httpserver/dto"
)

// DatasetRefresher reloads the locally held datasets on demand.
// Implementations: internal/app/service/refresh_service.go
type DatasetRefresher interface {
	RefreshAll(ctx context.Context) []service.RefreshResult
	DatasetNames() []string
}

// AdminHandler handles operator requests.
type AdminHandler struct {
	refresher DatasetRefresher
	logger    *zap.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(refresher DatasetRefresher, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		refresher: refresher,
		logger:    logger,
	}
}

// Refresh handles POST /admin/refresh
func (h *AdminHandler) Refresh(c *fiber.Ctx) error {
	h.logger.Info("manual refresh triggered")

	results := h.refresher.RefreshAll(c.UserContext())

	resp := dto.FromRefreshResults(results)
	if resp.Failed > 0 {
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}

	return c.JSON(resp)
}

// Datasets handles GET /admin/datasets
func (h *AdminHandler) Datasets(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"datasets": h.refresher.DatasetNames(),
	})
}
