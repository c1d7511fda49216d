package module

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/verfahren/verfahren/pkg/middleware"
)

// Module mounts an inner router under a path prefix with its own
// middleware stack. The prefix is stripped before dispatch.
type Module struct {
	prefix     string
	router     http.Handler
	middleware middleware.System
}

// New returns a Module for a single-level prefix such as "/api".
// An empty, unrooted, or multi-level prefix panics.
func New(prefix string, router http.Handler) *Module {
	if err := validatePrefix(prefix); err != nil {
		panic(err)
	}
	return &Module{
		prefix:     prefix,
		router:     router,
		middleware: middleware.New(),
	}
}

// Handler returns the inner router wrapped in the middleware stack.
func (m *Module) Handler() http.Handler {
	return m.middleware.Apply(m.router)
}

// Prefix returns the mount prefix.
func (m *Module) Prefix() string {
	return m.prefix
}

// Serve strips the prefix from the request path and dispatches to the
// inner router.
func (m *Module) Serve(w http.ResponseWriter, req *http.Request) {
	stripped := strippedRequest(req, m.prefix)
	m.Handler().ServeHTTP(w, stripped)
}

// Use appends middleware to the module's stack.
func (m *Module) Use(mw func(http.Handler) http.Handler) {
	m.middleware.Use(mw)
}

func strippedRequest(req *http.Request, prefix string) *http.Request {
	path := req.URL.Path[len(prefix):]
	if path == "" {
		path = "/"
	}

	clone := new(http.Request)
	*clone = *req
	clone.URL = new(url.URL)
	*clone.URL = *req.URL
	clone.URL.Path = path
	clone.URL.RawPath = ""
	return clone
}

func validatePrefix(prefix string) error {
	if prefix == "" {
		return fmt.Errorf("module prefix cannot be empty")
	}
	if !strings.HasPrefix(prefix, "/") {
		return fmt.Errorf("module prefix must start with /: %s", prefix)
	}
	if strings.Count(prefix, "/") != 1 {
		return fmt.Errorf("module prefix must be single-level sub-path: %s", prefix)
	}
	return nil
}
