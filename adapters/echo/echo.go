// Package formupecho provides Echo framework integration for formup forms.
//
// Mount the form registry onto an Echo instance or group:
//
//	e := echo.New()
//	reg := formupecho.Mount(e)
//	reg.MustAdd("signup", formup.Mount{Descriptor: desc, Options: opts})
//
// Or mount on a group with middleware:
//
//	g := e.Group("/app", authMiddleware)
//	reg := formupecho.MountGroup(g)
package formupecho

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/pthm/formup"
)

// Option configures the Mount and MountGroup functions.
type Option func(*options)

type options struct {
	key     []byte
	path    string
	logger  *slog.Logger
	regOpts []formup.RegistryOption
}

// WithKey sets the key protecting form state tokens.
// The key should be at least 32 bytes of cryptographically random data.
// If not provided, a random key is generated (suitable for development only).
func WithKey(key []byte) Option {
	return func(o *options) {
		o.key = key
	}
}

// WithPath sets the URL path prefix for form routes, relative to the
// instance or group. Defaults to "/_f/".
func WithPath(path string) Option {
	return func(o *options) {
		o.path = path
	}
}

// WithLogger sets the registry logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRegistryOptions passes extra options to formup.NewRegistry.
func WithRegistryOptions(opts ...formup.RegistryOption) Option {
	return func(o *options) {
		o.regOpts = append(o.regOpts, opts...)
	}
}

// Mount creates a registry and mounts the form handler on an Echo instance.
//
//	e := echo.New()
//	reg := formupecho.Mount(e)
//
//	// With options:
//	reg := formupecho.Mount(e, formupecho.WithKey(key))
func Mount(e *echo.Echo, opts ...Option) *formup.Registry {
	o := newOptions(opts)
	var reg *formup.Registry
	routes := e.Any(o.path+"*", handler(&reg))
	reg = newRegistry(o, routePrefix(routes, o.path))
	return reg
}

// MountGroup creates a registry and mounts the form handler on an Echo group.
// This allows forms to share middleware with the group (auth, logging, etc.).
// Rendered forms post to the group's full path.
//
//	g := e.Group("/app", authMiddleware)
//	reg := formupecho.MountGroup(g)
func MountGroup(g *echo.Group, opts ...Option) *formup.Registry {
	o := newOptions(opts)
	var reg *formup.Registry
	routes := g.Any(o.path+"*", handler(&reg))
	reg = newRegistry(o, routePrefix(routes, o.path))
	return reg
}

// Render writes a templ component to the Echo response.
//
//	func handler(c echo.Context) error {
//	    return formupecho.Render(c, page())
//	}
func Render(c echo.Context, component templ.Component) error {
	c.Response().Header().Set("Content-Type", "text/html; charset=utf-8")
	return component.Render(c.Request().Context(), c.Response())
}

// RenderForm writes a fresh instance of the named form.
func RenderForm(c echo.Context, reg *formup.Registry, name string) error {
	comp, err := reg.Component(name)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return Render(c, comp)
}

func newOptions(opts []Option) *options {
	o := &options{path: formup.DefaultPrefix}
	for _, opt := range opts {
		opt(o)
	}
	if !strings.HasSuffix(o.path, "/") {
		o.path += "/"
	}
	return o
}

// handler defers to the registry created after the route, whose prefix
// depends on the route's full path.
func handler(reg **formup.Registry) echo.HandlerFunc {
	return func(c echo.Context) error {
		(*reg).Handler().ServeHTTP(c.Response(), c.Request())
		return nil
	}
}

func routePrefix(routes []*echo.Route, fallback string) string {
	if len(routes) == 0 {
		return fallback
	}
	return strings.TrimSuffix(routes[0].Path, "*")
}

func newRegistry(o *options, prefix string) *formup.Registry {
	key := o.key
	if key == nil {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			panic(fmt.Sprintf("formupecho: failed to generate random key: %v", err))
		}
	}

	regOpts := []formup.RegistryOption{formup.WithPrefix(prefix)}
	if o.logger != nil {
		regOpts = append(regOpts, formup.WithLogger(o.logger))
	}
	regOpts = append(regOpts, o.regOpts...)
	return formup.NewRegistry(key, regOpts...)
}
