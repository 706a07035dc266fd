package handler

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"devtube-server/internal/metrics"
	"devtube-server/internal/transport/httpserver/dispatch"
)

// Route pairs a dispatch rule with the handler serving it.
type Route struct {
	dispatch.Rule
	Handler fiber.Handler
}

// Dispatcher sends every request to the handler of the first matching rule.
type Dispatcher struct {
	routes []Route
}

// NewDispatcher builds a dispatcher from the ordered rule list. Every kind in
// rules must have a handler.
func NewDispatcher(rules []dispatch.Rule, handlers map[dispatch.Kind]fiber.Handler) (*Dispatcher, error) {
	routes := make([]Route, 0, len(rules))
	for _, rule := range rules {
		h, ok := handlers[rule.Kind]
		if !ok || h == nil {
			return nil, fmt.Errorf("no handler for %s pages", rule.Kind)
		}
		routes = append(routes, Route{Rule: rule, Handler: h})
	}

	return &Dispatcher{routes: routes}, nil
}

// Handle is the catch-all GET and POST handler.
func (d *Dispatcher) Handle(c *fiber.Ctx) error {
	req := dispatch.Request{Path: c.Path(), Method: c.Method()}

	for _, route := range d.routes {
		if route.Match(req) {
			metrics.DispatchTotal.WithLabelValues(route.Kind.String()).Inc()

			return route.Handler(c)
		}
	}

	return notFound(c)
}
