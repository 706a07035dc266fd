// Package httpserver provides HTTP server and routing.
package httpserver

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/template/html/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"devtube-server/internal/logger"
	"devtube-server/internal/transport/httpserver/dispatch"
	"devtube-server/internal/transport/httpserver/dto"
	"devtube-server/internal/transport/httpserver/handler"
	"devtube-server/internal/transport/httpserver/middleware"
	"devtube-server/internal/validator"
)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port      int
	BodyLimit int
	Debug     bool

	ViewsDir  string
	Template  string
	StaticDir string
	Domain    string

	SearchEnabled bool

	MetricsEnabled bool
	MetricsPath    string

	AdminToken string // bearer token for the /admin routes
}

// Dependencies are the collaborators the handlers call into.
type Dependencies struct {
	Resolver  handler.VideoResolver
	Search    handler.SearchQuerier    // required when search is enabled
	Featured  handler.FeaturedSource   // optional
	NewVideos handler.NewVideosSource  // optional
	Refresher handler.DatasetRefresher // optional, mounts /admin routes
	Ready     middleware.ReadinessFunc
}

// Option customizes NewServer.
type Option func(*options)

type options struct {
	views fiber.Views
}

// WithViews replaces the HTML template engine.
func WithViews(v fiber.Views) Option {
	return func(o *options) {
		o.views = v
	}
}

// Server wraps Fiber app with handlers.
type Server struct {
	App    *fiber.App
	Logger *zap.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(cfg ServerConfig, deps Dependencies, logger *zap.Logger, opts ...Option) (*Server, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if deps.Resolver == nil {
		return nil, errors.New("httpserver: a video resolver is required")
	}
	if cfg.SearchEnabled && deps.Search == nil {
		return nil, errors.New("httpserver: search is enabled but no search service was given")
	}
	if deps.Refresher != nil && cfg.AdminToken == "" {
		return nil, errors.New("httpserver: admin routes need an admin token")
	}

	views := o.views
	if views == nil {
		engine := html.New(cfg.ViewsDir, ".html")
		engine.Reload(cfg.Debug)
		views = engine
	}

	app := fiber.New(fiber.Config{
		AppName:               "devtube-server",
		BodyLimit:             cfg.BodyLimit,
		ErrorHandler:          errorHandler(logger),
		Views:                 views,
		DisableStartupMessage: !cfg.Debug,
	})

	// Health check middleware MUST be registered BEFORE other middleware
	// for Kubernetes probes to work even during high load
	app.Use(middleware.NewHealthCheck(deps.Ready))

	// Global middleware
	app.Use(middleware.RequestID())
	app.Use(middleware.Recover(logger))
	app.Use(middleware.Logger(logger))
	app.Use(middleware.CORS())
	app.Use(compress.New())

	if cfg.MetricsEnabled {
		app.Get(cfg.MetricsPath, adaptor.HTTPHandler(promhttp.Handler()))
	}

	if deps.Refresher != nil {
		admin := handler.NewAdminHandler(deps.Refresher, logger)
		auth := middleware.AdminAuth(cfg.AdminToken)
		adminGroup := app.Group("/admin")
		adminGroup.Post("/refresh", auth, admin.Refresh)
		adminGroup.Get("/datasets", auth, admin.Datasets)
	}

	dispatcher, err := newDispatcher(cfg, deps, logger)
	if err != nil {
		return nil, err
	}

	// Every page, the search endpoint and static files go through one dispatcher.
	app.Get("/*", dispatcher.Handle)
	app.Post("/*", dispatcher.Handle)

	return &Server{
		App:    app,
		Logger: logger,
	}, nil
}

func newDispatcher(cfg ServerConfig, deps Dependencies, logger *zap.Logger) (*handler.Dispatcher, error) {
	featured := deps.Featured
	if !cfg.SearchEnabled {
		featured = nil
	}

	pages := handler.NewPageHandler(
		handler.PageConfig{
			Template:      cfg.Template,
			Domain:        cfg.Domain,
			SearchEnabled: cfg.SearchEnabled,
		},
		deps.Resolver,
		featured,
		deps.NewVideos,
		logger,
	)

	static, err := handler.NewStaticHandler(cfg.StaticDir, logger)
	if err != nil {
		return nil, fmt.Errorf("httpserver: static root: %w", err)
	}

	handlers := map[dispatch.Kind]fiber.Handler{
		dispatch.Home:    pages.Home,
		dispatch.Speaker: pages.Speaker,
		dispatch.Tag:     pages.Tag,
		dispatch.Video:   pages.Video,
		dispatch.Static:  static.Serve,
	}
	if cfg.SearchEnabled {
		handlers[dispatch.Search] = handler.NewSearchHandler(deps.Search, validator.New(), logger).Search
	}

	return handler.NewDispatcher(dispatch.Rules(cfg.SearchEnabled), handlers)
}

// errorHandler returns a custom error handler that logs based on HTTP status code.
// 404s are logged at DEBUG level (expected client behavior), 4xx at WARN, 5xx at ERROR.
func errorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError

		var e *fiber.Error
		if errors.As(err, &e) {
			code = e.Code
		}

		switch {
		case code == fiber.StatusNotFound:
			log.Debug("resource not found",
				logger.Path(c.Path()),
				zap.String("method", c.Method()),
			)

			// Not found answers carry no body, like the static fallback.
			c.Status(code)

			return nil
		case code >= 500:
			log.Error("server error",
				zap.Error(err),
				logger.RequestID(middleware.GetRequestID(c)),
				zap.Int("status", code),
				logger.Path(c.Path()),
			)
		default:
			log.Warn("client error",
				zap.Error(err),
				zap.Int("status", code),
				logger.Path(c.Path()),
			)
		}

		msg := "internal server error"
		if code < 500 {
			msg = err.Error()
		}

		return c.Status(code).JSON(dto.ErrorResponse{
			Error: msg,
			Code:  "UNHANDLED_ERROR",
		})
	}
}

// Start starts the HTTP server.
func (s *Server) Start(port int) error {
	s.Logger.Info("starting HTTP server", zap.Int("port", port))

	return s.App.Listen(fmt.Sprintf(":%d", port))
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	s.Logger.Info("shutting down HTTP server")

	return s.App.Shutdown()
}
