package formup

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/a-h/templ"
)

// Marker classes added by the bindings.
const (
	ClassTouched = "formup-touched"
	ClassError   = "formup-error"
)

// ChangeEvent is a new value reported for a bound control.
type ChangeEvent struct {
	Field   string
	Value   string
	Request *http.Request
}

// BlurEvent reports that a bound control lost focus.
type BlurEvent struct {
	Field   string
	Request *http.Request
}

// Bind carries caller supplied presentation attributes and handlers for a
// bound control. Caller handlers run after the form has been updated.
type Bind struct {
	Class    string
	Attrs    templ.Attributes
	OnChange func(ChangeEvent) error
	OnBlur   func(BlurEvent) error
}

// With returns a copy of b with attrs merged over its own.
func (b Bind) With(attrs templ.Attributes) Bind {
	merged := make(templ.Attributes, len(b.Attrs)+len(attrs))
	for k, v := range b.Attrs {
		merged[k] = v
	}
	for k, v := range attrs {
		merged[k] = v
	}
	b.Attrs = merged
	return b
}

// Change stores the new value on the field, then calls OnChange.
func (b Bind) Change(fl Field, ev ChangeEvent) error {
	if err := fl.SetValue(ev.Value); err != nil {
		return err
	}
	if b.OnChange != nil {
		return b.OnChange(ev)
	}
	return nil
}

// Blur marks the field touched, then calls OnBlur.
func (b Bind) Blur(fl Field, ev BlurEvent) error {
	if err := fl.SetTouched(true); err != nil {
		return err
	}
	if b.OnBlur != nil {
		return b.OnBlur(ev)
	}
	return nil
}

// Classes merges the caller's class list with the field's state markers.
// Duplicates are dropped and the caller's order is kept.
func Classes(fl Field, class string) string {
	classes := strings.Fields(class)
	if fl.Touched {
		classes = append(classes, ClassTouched)
	}
	if fl.HasError() {
		classes = append(classes, ClassError)
	}

	seen := make(map[string]struct{}, len(classes))
	out := classes[:0]
	for _, c := range classes {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return strings.Join(out, " ")
}

// Input renders an <input> bound to fl.
//
//	@formup.Input(fields.Name, formup.Bind{Class: "form-control"})
func Input(fl Field, b Bind) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		attrs := controlAttrs(fl, b)
		attrs["type"] = inputType(fl.Kind)
		attrs["value"] = fl.StringValue()

		if _, err := io.WriteString(w, "<input"); err != nil {
			return err
		}
		if err := writeAttrs(w, attrs); err != nil {
			return err
		}
		_, err := io.WriteString(w, ">")
		return err
	})
}

// SelectBox renders a <select> bound to fl, with one <option> per choice.
// The choice matching the current value is selected.
func SelectBox(fl Field, b Bind) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, "<select"); err != nil {
			return err
		}
		if err := writeAttrs(w, controlAttrs(fl, b)); err != nil {
			return err
		}
		if _, err := io.WriteString(w, ">"); err != nil {
			return err
		}

		current := fl.StringValue()
		for _, choice := range fl.Choices {
			attrs := templ.Attributes{"value": choice.Value}
			if choice.Value == current {
				attrs["selected"] = true
			}
			if choice.Disabled {
				attrs["disabled"] = true
			}
			label := choice.Label
			if label == "" {
				label = choice.Value
			}

			if _, err := io.WriteString(w, "<option"); err != nil {
				return err
			}
			if err := writeAttrs(w, attrs); err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, ">%s</option>", templ.EscapeString(label)); err != nil {
				return err
			}
		}

		_, err := io.WriteString(w, "</select>")
		return err
	})
}

// Control renders SelectBox for select fields and Input otherwise.
func Control(fl Field, b Bind) templ.Component {
	if fl.Kind == KindSelect {
		return SelectBox(fl, b)
	}
	return Input(fl, b)
}

// controlAttrs applies the caller's attributes and then the field's own,
// which always win. Class lists are merged instead.
func controlAttrs(fl Field, b Bind) templ.Attributes {
	attrs := make(templ.Attributes, len(b.Attrs)+4)
	class := b.Class
	for k, v := range b.Attrs {
		if k == "class" {
			class = strings.TrimSpace(class + " " + stringValue(v))
			continue
		}
		attrs[k] = v
	}

	attrs["name"] = fl.Name
	attrs["id"] = fl.ID()
	if classes := Classes(fl, class); classes != "" {
		attrs["class"] = classes
	}
	if fl.HasError() {
		attrs["aria-invalid"] = "true"
	}
	return attrs
}

func inputType(k Kind) string {
	switch k {
	case KindEmail, KindDate:
		return string(k)
	default:
		return string(KindText)
	}
}

// writeAttrs renders attributes in key order. True booleans render as bare
// attributes, false ones are omitted.
func writeAttrs(w io.Writer, attrs templ.Attributes) error {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		var err error
		switch v := attrs[k].(type) {
		case bool:
			if v {
				_, err = fmt.Fprintf(w, " %s", templ.EscapeString(k))
			}
		default:
			_, err = fmt.Fprintf(w, ` %s="%s"`, templ.EscapeString(k), templ.EscapeString(stringValue(v)))
		}
		if err != nil {
			return err
		}
	}
	return nil
}
