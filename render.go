package formup

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// Renderer produces the markup of a form. It is called for the initial GET
// and after every event, with the form already updated.
//
// Render should be pure: read the form and page, write HTML.
type Renderer interface {
	Render(ctx context.Context, f *Form, page Page) templ.Component
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, f *Form, page Page) templ.Component

// Render calls fn.
func (fn RendererFunc) Render(ctx context.Context, f *Form, page Page) templ.Component {
	return fn(ctx, f, page)
}

// DefaultRenderer lays out one labelled row per field, the error list and a
// submit button. Field errors are shown once the field is touched.
var DefaultRenderer Renderer = RendererFunc(renderDefault)

// Page carries what a renderer needs to wire a form to its event endpoint.
type Page struct {
	// Action is the URL of the event endpoint. Empty renders a static form.
	Action string
	// Token is the encoded form state, echoed back with every event.
	Token string
	Swap  SwapMode
	// Binds holds per-field presentation attributes and handlers.
	Binds map[string]Bind
	// Submit is the label of the default submit button.
	Submit string
}

// Bind returns the configured Bind for fl with the event wiring applied.
func (p Page) Bind(fl Field) Bind {
	b := p.Binds[fl.Name]
	if p.Action == "" {
		return b
	}
	return b.With(WireAttrs(p.Action, fl.formID, fl, p.Swap))
}

// FormTag renders the <form> element: submit wiring, the hidden state input
// and children.
func FormTag(f *Form, page Page, attrs templ.Attributes, children ...templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		all := templ.Attributes{"id": f.ID(), "class": "formup"}
		if page.Action != "" {
			for k, v := range SubmitAttrs(page.Action, page.Swap) {
				all[k] = v
			}
		}
		for k, v := range attrs {
			if k == "id" {
				continue
			}
			all[k] = v
		}

		if _, err := io.WriteString(w, "<form"); err != nil {
			return err
		}
		if err := writeAttrs(w, all); err != nil {
			return err
		}
		if _, err := io.WriteString(w, ">"); err != nil {
			return err
		}

		if page.Token != "" {
			hidden := templ.Attributes{"type": "hidden", "name": StateParam, "value": page.Token}
			if _, err := io.WriteString(w, "<input"); err != nil {
				return err
			}
			if err := writeAttrs(w, hidden); err != nil {
				return err
			}
			if _, err := io.WriteString(w, ">"); err != nil {
				return err
			}
		}

		for _, child := range children {
			if child == nil {
				continue
			}
			if err := child.Render(ctx, w); err != nil {
				return err
			}
		}

		_, err := io.WriteString(w, "</form>")
		return err
	})
}

// ErrorList renders messages as a list. Nothing is written when empty.
func ErrorList(messages []string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if len(messages) == 0 {
			return nil
		}
		if _, err := io.WriteString(w, `<ul class="formup-errors">`); err != nil {
			return err
		}
		for _, msg := range messages {
			if _, err := io.WriteString(w, "<li>"+templ.EscapeString(msg)+"</li>"); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "</ul>")
		return err
	})
}

// FieldError renders the field's error once the field is touched.
func FieldError(fl Field) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if !fl.Touched || !fl.HasError() {
			return nil
		}
		_, err := io.WriteString(w, `<div class="formup-field-error" id="`+
			templ.EscapeString(fl.ID()+"-error")+`">`+templ.EscapeString(fl.Error)+`</div>`)
		return err
	})
}

func renderDefault(ctx context.Context, f *Form, page Page) templ.Component {
	fields := f.Fields()
	children := make([]templ.Component, 0, len(fields)+2)
	for _, fl := range fields {
		children = append(children, fieldRow(fl, page.Bind(fl)))
	}

	label := page.Submit
	if label == "" {
		label = "Submit"
	}
	children = append(children,
		ErrorList(f.Errors()),
		templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
			_, err := io.WriteString(w, `<button type="submit">`+templ.EscapeString(label)+`</button>`)
			return err
		}),
	)
	return FormTag(f, page, nil, children...)
}

func fieldRow(fl Field, b Bind) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<div class="formup-row"><label for="`+
			templ.EscapeString(fl.ID())+`">`+templ.EscapeString(fl.DisplayLabel())+`</label>`)
		if err != nil {
			return err
		}
		if err := Control(fl, b).Render(ctx, w); err != nil {
			return err
		}
		if err := FieldError(fl).Render(ctx, w); err != nil {
			return err
		}
		_, err = io.WriteString(w, "</div>")
		return err
	})
}
