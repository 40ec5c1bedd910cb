package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/a-h/templ"
	"github.com/joeshaw/envdecode"
	"github.com/labstack/echo/v4"
	"github.com/microcosm-cc/bluemonday"

	"github.com/pthm/formup"
	formupecho "github.com/pthm/formup/adapters/echo"
	"github.com/pthm/formup/lib/definition"
)

// serveConfig is read from the environment.
type serveConfig struct {
	Addr     string `env:"FORMUP_ADDR,default=:8080"`
	Key      string `env:"FORMUP_KEY"`
	Sealed   bool   `env:"FORMUP_SEALED,default=false"`
	LogLevel string `env:"FORMUP_LOG_LEVEL,default=info"`
	Strip    bool   `env:"FORMUP_STRIP_MARKUP,default=false"`
}

func loadServeConfig() (serveConfig, error) {
	var cfg serveConfig
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return cfg, fmt.Errorf("serve: config: %w", err)
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	return cfg, nil
}

func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("serve: log level %q: %w", level, err)
		}
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}

func runServe(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("serve: no definition files given")
	}
	cfg, err := loadServeConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}

	key := []byte(cfg.Key)
	if len(key) == 0 {
		logger.Warn("FORMUP_KEY not set, using a random key; tokens will not survive a restart")
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return fmt.Errorf("serve: generate key: %w", err)
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	var regOpts []formup.RegistryOption
	if cfg.Sealed {
		regOpts = append(regOpts, formup.WithSealedState())
	}
	if cfg.Strip {
		regOpts = append(regOpts, formup.WithSanitizer(bluemonday.StrictPolicy()))
	}
	reg := formupecho.Mount(e,
		formupecho.WithKey(key),
		formupecho.WithLogger(logger),
		formupecho.WithRegistryOptions(regOpts...),
	)

	defs := make(map[string]*definition.Definition, len(args))
	for _, path := range args {
		def, err := definition.LoadFile(path)
		if err != nil {
			return err
		}
		if err := mountDefinition(reg, def, logger); err != nil {
			return err
		}
		defs[def.Name] = def
		logger.Info("form mounted", "form", def.Name, "path", "/"+def.Name, "fields", len(def.Fields))
	}

	e.GET("/", func(c echo.Context) error {
		return formupecho.Render(c, indexPage(defs))
	})
	e.GET("/:name", func(c echo.Context) error {
		def, ok := defs[c.Param("name")]
		if !ok {
			return echo.NewHTTPError(http.StatusNotFound, "unknown form")
		}
		comp, err := reg.Component(def.Name)
		if err != nil {
			return err
		}
		return formupecho.Render(c, formPage(def, comp))
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Addr)
		errCh <- e.Start(cfg.Addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.Info("shutting down")
	return e.Shutdown(shutdownCtx)
}

func mountDefinition(reg *formup.Registry, def *definition.Definition, logger *slog.Logger) error {
	m, err := def.Mount(formup.Options{
		OnSubmit: func(ctx context.Context, ev *formup.SubmitEvent) error {
			attrs := make([]any, 0, 2+2*len(ev.Values))
			attrs = append(attrs, "form", def.Name)
			for _, name := range sortedKeys(ev.Values) {
				attrs = append(attrs, name, ev.Values[name])
			}
			logger.Info("form submitted", attrs...)
			return nil
		},
	})
	if err != nil {
		return err
	}
	return reg.Add(def.Name, m)
}

func sortedKeys(v formup.Values) []string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

const htmxScript = `<script src="https://unpkg.com/htmx.org@2.0.4"></script>`

func layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<!DOCTYPE html><html><head><meta charset="utf-8"><title>`+
			templ.EscapeString(title)+`</title>`+htmxScript+`</head><body>`)
		if err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		if err := formup.ToastContainer().Render(ctx, w); err != nil {
			return err
		}
		_, err = io.WriteString(w, `</body></html>`)
		return err
	})
}

func formPage(def *definition.Definition, form templ.Component) templ.Component {
	title := def.Title
	if title == "" {
		title = def.Name
	}
	return layout(title, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<h1>`+templ.EscapeString(title)+`</h1>`); err != nil {
			return err
		}
		return form.Render(ctx, w)
	}))
}

func indexPage(defs map[string]*definition.Definition) templ.Component {
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)

	return layout("formup", templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<h1>Forms</h1><ul>`); err != nil {
			return err
		}
		for _, name := range names {
			href := templ.EscapeString("/" + name)
			if _, err := io.WriteString(w, `<li><a href="`+href+`">`+templ.EscapeString(name)+`</a></li>`); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</ul>`)
		return err
	}))
}
