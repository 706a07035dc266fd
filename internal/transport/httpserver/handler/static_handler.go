package handler

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"devtube-server/internal/logger"
)

// StaticHandler serves files below a root directory. Anything it cannot
// serve answers 404 with an empty body.
type StaticHandler struct {
	root   string
	logger *zap.Logger
}

// NewStaticHandler creates a new StaticHandler rooted at dir.
func NewStaticHandler(dir string, logger *zap.Logger) (*StaticHandler, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	return &StaticHandler{root: root, logger: logger}, nil
}

// Serve handles every path no page rule matched.
func (h *StaticHandler) Serve(c *fiber.Ctx) error {
	file, ok := h.resolve(c.Path())
	if !ok {
		h.logger.Warn("rejected static path",
			logger.Path(c.Path()),
			zap.String("ip", c.IP()),
		)

		return notFound(c)
	}

	info, err := os.Stat(file)
	if err != nil || info.IsDir() {
		return notFound(c)
	}

	return c.SendFile(file)
}

// resolve maps a request path to a file below the root. It refuses paths
// with parent segments or NUL bytes, before and after unescaping.
func (h *StaticHandler) resolve(path string) (string, bool) {
	decoded, err := url.PathUnescape(path)
	if err != nil {
		return "", false
	}
	if strings.ContainsRune(decoded, 0) || hasDotDot(path) || hasDotDot(decoded) {
		return "", false
	}

	file := filepath.Join(h.root, filepath.FromSlash(decoded))

	rel, err := filepath.Rel(h.root, file)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}

	return file, true
}

func hasDotDot(path string) bool {
	for _, seg := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' }) {
		if seg == ".." {
			return true
		}
	}

	return false
}

func notFound(c *fiber.Ctx) error {
	c.Status(fiber.StatusNotFound)

	return nil
}
