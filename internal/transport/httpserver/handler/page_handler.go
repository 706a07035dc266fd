package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"devtube-server/internal/domain"
	"devtube-server/internal/logger"
	"devtube-server/internal/transport/httpserver/dispatch"
	"devtube-server/internal/transport/httpserver/dto"
	"devtube-server/internal/transport/httpserver/middleware"
)

const (
	siteTitle       = "DevTube - The best developer videos in one place"
	siteDescription = "Enjoy the best technical videos and share it with friends, colleagues, and the world."
	errorTitle      = "Error at Dev.Tube"

	// VideoUnavailableMessage is shown when the index cannot be reached.
	VideoUnavailableMessage = "Sorry, but the video is not available now. We're working on the solution."
)

// PageConfig holds page rendering settings.
type PageConfig struct {
	Template      string // view name of the single page template
	Domain        string // site domain used in social preview URLs
	SearchEnabled bool
}

// PageHandler renders the HTML pages of the site. Every page is the same
// template; the fields bound to it differ per page kind.
//
// JSON blobs are bound as template.JS so the template can embed them in a
// script block. Plain strings are escaped by the template.
type PageHandler struct {
	cfg       PageConfig
	resolver  VideoResolver
	featured  FeaturedSource  // nil when search is disabled
	newVideos NewVideosSource // nil when no catalog is loaded
	logger    *zap.Logger
}

// NewPageHandler creates a new PageHandler.
func NewPageHandler(
	cfg PageConfig,
	resolver VideoResolver,
	featured FeaturedSource,
	newVideos NewVideosSource,
	logger *zap.Logger,
) *PageHandler {
	return &PageHandler{
		cfg:       cfg,
		resolver:  resolver,
		featured:  featured,
		newVideos: newVideos,
		logger:    logger,
	}
}

// Home handles GET /
func (h *PageHandler) Home(c *fiber.Ctx) error {
	ids := []string{}
	if h.newVideos != nil {
		ids = h.newVideos.NewVideoIDs()
	}

	bind := h.baseBind(c, siteTitle)
	bind["newVideos"] = toJS(ids)
	bind["meta"] = socialMeta(siteTitle, siteDescription, h.siteImage())

	return c.Render(h.cfg.Template, bind)
}

// Speaker handles GET /@:speaker
func (h *PageHandler) Speaker(c *fiber.Ctx) error {
	speaker := dispatch.SpeakerName(c.Path())
	title := fmt.Sprintf("DevTube - Videos by @%s", speaker)

	bind := h.baseBind(c, title)
	bind["speaker"] = speaker
	bind["meta"] = socialMeta(title, siteDescription, h.siteImage())

	return c.Render(h.cfg.Template, bind)
}

// Tag handles GET /tag/:tag
func (h *PageHandler) Tag(c *fiber.Ctx) error {
	tag := dispatch.TagName(c.Path())
	title := fmt.Sprintf("DevTube - Videos by topic @%s", tag)

	bind := h.baseBind(c, title)
	bind["tag"] = tag
	bind["meta"] = socialMeta(title, siteDescription, h.siteImage())

	return c.Render(h.cfg.Template, bind)
}

// Video handles GET /video/:id
//
// A missing video answers 404 with an empty body. Any other lookup failure
// still answers 200 with an error page the client displays.
func (h *PageHandler) Video(c *fiber.Ctx) error {
	id := dispatch.VideoID(c.Path())
	if id == "" {
		c.Status(fiber.StatusNotFound)

		return nil
	}

	video, err := h.resolver.Resolve(c.UserContext(), id)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		h.logger.Debug("video not found", logger.VideoID(id))
		c.Status(fiber.StatusNotFound)

		return nil
	case err != nil:
		h.logger.Error("video lookup failed",
			logger.VideoID(id),
			logger.Path(c.Path()),
			logger.RequestID(middleware.GetRequestID(c)),
			zap.Error(err),
		)

		return h.renderError(c)
	}

	title := video.Title + " - Watch at Dev.Tube"
	image := fmt.Sprintf("https://img.youtube.com/vi/%s/maxresdefault.jpg", video.ID)

	bind := h.baseBind(c, title)
	bind["preloadedEntity"] = toJS(video)
	bind["meta"] = socialMeta(video.Title, video.Description, image)

	return c.Render(h.cfg.Template, bind)
}

func (h *PageHandler) renderError(c *fiber.Ctx) error {
	bind := fiber.Map{
		"title":           errorTitle,
		"searchEnabled":   h.cfg.SearchEnabled,
		"serverSideError": toJS(dto.ServerSideError{Message: VideoUnavailableMessage}),
		"meta":            socialMeta(errorTitle, siteDescription, h.siteImage()),
	}

	return c.Status(fiber.StatusOK).Render(h.cfg.Template, bind)
}

// baseBind returns the fields shared by every page.
func (h *PageHandler) baseBind(c *fiber.Ctx, title string) fiber.Map {
	bind := fiber.Map{
		"title":         title,
		"searchEnabled": h.cfg.SearchEnabled,
	}

	if h.cfg.SearchEnabled && h.featured != nil {
		if featured, ok := h.featured.Featured(c.UserContext()); ok {
			bind["featured"] = toJS(featured)
		}
	}

	return bind
}

func (h *PageHandler) siteImage() string {
	return "https://" + h.cfg.Domain + "/open_graph.jpg"
}

// socialMeta builds the description and social preview tags of a page.
func socialMeta(title, description, image string) []dto.MetaTag {
	return []dto.MetaTag{
		{Name: "description", Content: description},
		{Name: "og:title", Content: title},
		{Name: "og:description", Content: description},
		{Name: "og:image", Content: image},
		{Name: "twitter:title", Content: title},
		{Name: "twitter:description", Content: description},
		{Name: "twitter:image", Content: image},
	}
}

// toJS serializes v for embedding in a script block. encoding/json escapes
// <, > and & so the payload cannot close the script element.
func toJS(v interface{}) template.JS {
	b, err := json.Marshal(v)
	if err != nil {
		return template.JS("null")
	}

	return template.JS(b) //nolint:gosec // escaped JSON
}
