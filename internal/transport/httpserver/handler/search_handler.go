package handler

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"devtube-server/internal/transport/httpserver/dto"
	"devtube-server/internal/validator"
)

// SearchHandler proxies search client queries to the embedded engine.
type SearchHandler struct {
	search    SearchQuerier
	validator *validator.Validator
	logger    *zap.Logger
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(search SearchQuerier, v *validator.Validator, logger *zap.Logger) *SearchHandler {
	return &SearchHandler{
		search:    search,
		validator: v,
		logger:    logger,
	}
}

// Search handles POST /search
//
// The body is decoded as JSON whatever its declared content type: browser
// search clients often send text/plain or form content types to avoid CORS
// preflight requests.
func (h *SearchHandler) Search(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodPost {
		c.Set(fiber.HeaderAllow, fiber.MethodPost)

		return c.Status(fiber.StatusMethodNotAllowed).JSON(dto.ErrorResponse{
			Error: "search expects a POST request",
			Code:  "METHOD_NOT_ALLOWED",
		})
	}

	var req dto.SearchRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		h.logger.Debug("invalid search body", zap.Error(err))

		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_BODY",
		})
	}

	if err := h.validator.Validate(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error:   "validation failed",
			Code:    "VALIDATION_ERROR",
			Details: err,
		})
	}

	resp := dto.SearchResponse{Results: make([]dto.PageResponse, len(req.Requests))}
	for i := range req.Requests {
		result := h.search.Query(c.UserContext(), req.Requests[i].Params.ToPageRequest())
		resp.Results[i] = dto.FromPageResult(result)
	}

	return c.JSON(resp)
}
