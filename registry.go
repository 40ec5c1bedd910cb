package formup

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/a-h/templ"
	"github.com/microcosm-cc/bluemonday"
)

// DefaultPrefix is the URL prefix forms are mounted under.
const DefaultPrefix = "/_f/"

// Mount describes one form served by a Registry. A fresh Form is built from
// it for every request and its state travels in the rendered token.
type Mount struct {
	Descriptor *Descriptor
	Options    Options

	// Renderer defaults to DefaultRenderer.
	Renderer Renderer

	// Binds holds per-field presentation attributes and change/blur hooks.
	Binds map[string]Bind

	Swap        SwapMode
	SubmitLabel string

	// Flashes overrides DefaultFlashMessages.
	Flashes *FlashMessages
}

func (m *Mount) flashMessages() FlashMessages {
	if m.Flashes != nil {
		return *m.Flashes
	}
	return DefaultFlashMessages
}

// Registry serves mounted forms over HTTP.
//
//	reg := formup.NewRegistry(key)
//	reg.MustAdd("signup", formup.Mount{Descriptor: desc, Options: opts})
//	http.Handle(formup.DefaultPrefix, reg.Handler())
type Registry struct {
	mu        sync.RWMutex
	mux       *http.ServeMux
	codec     *StateCodec
	prefix    string
	sealed    bool
	sanitizer *bluemonday.Policy
	logger    *slog.Logger
	forms     map[string]*Mount

	// OnError writes the response for failed requests.
	OnError func(http.ResponseWriter, *http.Request, error)
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithPrefix mounts forms under prefix instead of DefaultPrefix.
func WithPrefix(prefix string) RegistryOption {
	return func(reg *Registry) {
		reg.prefix = normalizePrefix(prefix)
	}
}

// WithLogger sets the logger used by the registry and, unless a mount sets
// its own, by the forms it builds.
func WithLogger(logger *slog.Logger) RegistryOption {
	return func(reg *Registry) {
		if logger != nil {
			reg.logger = logger
		}
	}
}

// WithSanitizer filters submitted values through policy before they are
// stored, for example bluemonday.StrictPolicy() to drop all markup. Rendered
// values are escaped either way.
func WithSanitizer(policy *bluemonday.Policy) RegistryOption {
	return func(reg *Registry) {
		reg.sanitizer = policy
	}
}

// WithSealedState encrypts state tokens instead of only signing them.
func WithSealedState() RegistryOption {
	return func(reg *Registry) {
		reg.sealed = true
	}
}

// NewRegistry creates a registry whose state tokens are protected with key.
// Submitted values are stored verbatim unless WithSanitizer sets a policy.
func NewRegistry(key []byte, opts ...RegistryOption) *Registry {
	reg := &Registry{
		mux:    http.NewServeMux(),
		prefix: DefaultPrefix,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		forms:  make(map[string]*Mount),
	}
	for _, opt := range opts {
		opt(reg)
	}

	codec, err := NewStateCodec(key, reg.sealed)
	if err != nil {
		panic(fmt.Sprintf("formup: failed to create state codec: %v", err))
	}
	reg.codec = codec

	reg.OnError = func(w http.ResponseWriter, r *http.Request, err error) {
		switch {
		case errors.Is(err, ErrFormNotFound):
			http.Error(w, "Not found", http.StatusNotFound)
		case IsBadRequest(err):
			http.Error(w, "Bad request", http.StatusBadRequest)
		default:
			http.Error(w, "Internal error", http.StatusInternalServerError)
		}
	}

	return reg
}

// Prefix returns the URL prefix forms are mounted under.
func (reg *Registry) Prefix() string {
	return reg.prefix
}

// Path returns the URL of the named form.
func (reg *Registry) Path(name string) string {
	return reg.prefix + name + "/"
}

// Add mounts a form under name.
func (reg *Registry) Add(name string, m Mount) error {
	if name == "" || strings.ContainsAny(name, "/ \t{}") {
		return fmt.Errorf("formup: invalid form name %q", name)
	}
	if m.Descriptor == nil {
		return fmt.Errorf("formup: form %q has no descriptor", name)
	}
	if err := m.Descriptor.Err(); err != nil {
		return fmt.Errorf("formup: form %q: %w", name, err)
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	if _, exists := reg.forms[name]; exists {
		return fmt.Errorf("formup: form %q already mounted", name)
	}
	mount := m
	reg.forms[name] = &mount

	path := reg.Path(name)
	reg.mux.HandleFunc("GET "+path+"{$}", func(w http.ResponseWriter, r *http.Request) {
		reg.serveInitial(w, r, name, &mount)
	})
	reg.mux.HandleFunc("POST "+path+"event", func(w http.ResponseWriter, r *http.Request) {
		reg.serveEvent(w, r, name, &mount)
	})
	return nil
}

// MustAdd panics if Add fails. Useful for init-time wiring.
func (reg *Registry) MustAdd(name string, m Mount) {
	if err := reg.Add(name, m); err != nil {
		panic(err)
	}
}

// Names lists the mounted forms.
func (reg *Registry) Names() []string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	names := make([]string, 0, len(reg.forms))
	for name := range reg.forms {
		names = append(names, name)
	}
	return names
}

func (reg *Registry) lookup(name string) (*Mount, error) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	m, ok := reg.forms[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrFormNotFound, name)
	}
	return m, nil
}

// Component renders a fresh instance of the named form, for embedding in a
// page.
func (reg *Registry) Component(name string) (templ.Component, error) {
	m, err := reg.lookup(name)
	if err != nil {
		return nil, err
	}
	f, err := reg.newForm(name, m)
	if err != nil {
		return nil, err
	}
	return reg.render(name, m, f)
}

// Handler returns the HTTP handler for form routes. Mount it at Prefix().
//
// Mutating requests must carry HX-Request: true, which browsers do not send
// on cross-site form posts.
func (reg *Registry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead && !IsHTMX(r) {
			http.Error(w, "Forbidden: HTMX request required", http.StatusForbidden)
			return
		}
		reg.mux.ServeHTTP(w, r)
	})
}

func normalizePrefix(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix
}
