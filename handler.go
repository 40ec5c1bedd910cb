package formup

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"

	"github.com/a-h/templ"
)

func (reg *Registry) newForm(name string, m *Mount) (*Form, error) {
	opts := m.Options
	opts.Name = name
	if opts.Logger == nil {
		opts.Logger = reg.logger
	}
	return New(m.Descriptor, opts)
}

// render encodes the form state and hands the form to the mount's renderer.
func (reg *Registry) render(name string, m *Mount, f *Form) (templ.Component, error) {
	token, err := reg.codec.Encode(f.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("formup: encode state: %w", err)
	}

	page := Page{
		Action: reg.Path(name) + "event",
		Token:  token,
		Swap:   m.Swap,
		Binds:  m.Binds,
		Submit: m.SubmitLabel,
	}
	renderer := m.Renderer
	if renderer == nil {
		renderer = DefaultRenderer
	}
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return renderer.Render(ctx, f, page).Render(ctx, w)
	}), nil
}

func (reg *Registry) fail(w http.ResponseWriter, r *http.Request, name string, err error) {
	if IsBadRequest(err) {
		reg.logger.Warn("formup: rejected event", "form", name, "error", err)
	} else {
		reg.logger.Error("formup: request failed", "form", name, "error", err)
	}
	reg.OnError(w, r, err)
}

func (reg *Registry) serveInitial(w http.ResponseWriter, r *http.Request, name string, m *Mount) {
	f, err := reg.newForm(name, m)
	if err != nil {
		reg.fail(w, r, name, err)
		return
	}
	comp, err := reg.render(name, m, f)
	if err != nil {
		reg.fail(w, r, name, err)
		return
	}
	if err := Render(w, r, comp); err != nil {
		reg.logger.Error("formup: render failed", "form", name, "error", err)
	}
}

// serveEvent restores the form from the posted token, applies one event and
// re-renders the form.
func (reg *Registry) serveEvent(w http.ResponseWriter, r *http.Request, name string, m *Mount) {
	if err := r.ParseForm(); err != nil {
		reg.fail(w, r, name, fmt.Errorf("%w: %v", ErrInvalidEvent, err))
		return
	}

	st, err := reg.codec.Decode(r.PostForm.Get(StateParam))
	if err != nil {
		reg.fail(w, r, name, err)
		return
	}
	f, err := reg.newForm(name, m)
	if err != nil {
		reg.fail(w, r, name, err)
		return
	}
	if err := f.Restore(st); err != nil {
		reg.fail(w, r, name, err)
		return
	}

	raw := r.PostForm.Get(EventParam)
	event, ok := ParseEventType(raw)
	if !ok {
		reg.fail(w, r, name, fmt.Errorf("%w: %q", ErrInvalidEvent, raw))
		return
	}

	var flashes []Flash
	switch event {
	case EventChange, EventBlur:
		if err := reg.applyFieldEvent(r, m, f, event); err != nil {
			reg.fail(w, r, name, err)
			return
		}
	case EventSubmit:
		out, err := reg.applySubmit(r, f)
		if err != nil {
			reg.fail(w, r, name, err)
			return
		}
		if flash, ok := m.flashMessages().flashFor(out); ok {
			flashes = append(flashes, flash)
		}
		if out.Submitted {
			w.Header().Set("HX-Trigger", BuildTriggerHeader(EventSubmitted, map[string]any{"form": name}))
		}
	}

	comp, err := reg.render(name, m, f)
	if err != nil {
		reg.fail(w, r, name, err)
		return
	}
	if err := Render(w, r, comp); err != nil {
		reg.logger.Error("formup: render failed", "form", name, "error", err)
		return
	}
	if oob := RenderFlashesOOB(flashes); oob != "" {
		if _, err := io.WriteString(w, oob); err != nil {
			reg.logger.Error("formup: write flashes failed", "form", name, "error", err)
		}
	}
}

func (reg *Registry) applyFieldEvent(r *http.Request, m *Mount, f *Form, event EventType) error {
	fieldName := r.PostForm.Get(FieldParam)
	if fieldName == "" {
		fieldName = TriggerName(r)
	}
	fl, ok := f.Field(fieldName)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, fieldName)
	}

	bind := m.Binds[fieldName]
	if event == EventBlur {
		return bind.Blur(fl, BlurEvent{Field: fieldName, Request: r})
	}
	return bind.Change(fl, ChangeEvent{
		Field:   fieldName,
		Value:   reg.sanitize(r.PostForm.Get(fieldName)),
		Request: r,
	})
}

// applySubmit takes the browser's current values as authoritative, then
// submits.
func (reg *Registry) applySubmit(r *http.Request, f *Form) (Outcome, error) {
	for _, fieldName := range f.Descriptor().Names() {
		vals, ok := r.PostForm[fieldName]
		if !ok || len(vals) == 0 {
			continue
		}
		if err := f.SetFieldValue(fieldName, reg.sanitize(vals[0])); err != nil {
			return Outcome{}, err
		}
	}
	return f.Submit(r.Context(), &SubmitEvent{Request: r})
}

func (reg *Registry) sanitize(v string) string {
	if reg.sanitizer == nil {
		return v
	}
	return html.UnescapeString(reg.sanitizer.Sanitize(v))
}
