package formup

import (
	"errors"
	"strings"
	"testing"

	"github.com/a-h/templ"
)

func newColorForm(t *testing.T) *Form {
	t.Helper()
	desc := Describe().
		Field("name", Text("")).
		Field("email", Email("")).
		Field("color", Select("green",
			Choice{Value: "red", Label: "Red"},
			Choice{Value: "green", Label: "Green"},
			Choice{Value: "blue", Label: "Blue", Disabled: true},
		))
	f, err := New(desc, Options{ID: "f1"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return f
}

func mustField(t *testing.T, f *Form, name string) Field {
	t.Helper()
	fl, ok := f.Field(name)
	if !ok {
		t.Fatalf("field %q not found", name)
	}
	return fl
}

func TestClasses(t *testing.T) {
	tests := []struct {
		name  string
		fl    Field
		class string
		want  string
	}{
		{"pristine", Field{}, "form-control", "form-control"},
		{"touched", Field{Touched: true}, "form-control", "form-control formup-touched"},
		{"error only", Field{Error: "bad"}, "", "formup-error"},
		{"touched and error", Field{Touched: true, Error: "bad"}, "a b", "a b formup-touched formup-error"},
		{"dedupe", Field{Touched: true}, "a formup-touched a", "a formup-touched"},
		{"empty", Field{}, "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classes(tt.fl, tt.class); got != tt.want {
				t.Errorf("Classes() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInputRender(t *testing.T) {
	f := newColorForm(t)
	_ = f.SetFieldValue("name", `a"b`)

	result, err := TestRender(Input(mustField(t, f, "name"), Bind{
		Class: "form-control",
		Attrs: templ.Attributes{"placeholder": "Your name", "name": "ignored", "required": true},
	}))
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}

	want := `<input class="form-control" id="f1-name" name="name" placeholder="Your name" required type="text" value="a&#34;b">`
	if result.HTML != want {
		t.Errorf("got  %s\nwant %s", result.HTML, want)
	}
}

func TestInputRenderStateClasses(t *testing.T) {
	f := newColorForm(t)
	_ = f.SetFieldValue("email", "x")
	_ = f.SetFieldTouched("email", true)

	result, err := TestRender(Input(mustField(t, f, "email"), Bind{}))
	if err != nil {
		t.Fatal(err)
	}
	if !result.HTMLContainsAll(`type="email"`, `class="formup-touched"`) {
		t.Errorf("unexpected markup: %s", result.HTML)
	}
	if result.HTMLContains("aria-invalid") {
		t.Error("no error, no aria-invalid")
	}

	fl := mustField(t, f, "email")
	fl.Error = "bad email"
	result, err = TestRender(Input(fl, Bind{Attrs: templ.Attributes{"class": "extra"}}))
	if err != nil {
		t.Fatal(err)
	}
	if !result.HTMLContainsAll(`aria-invalid="true"`, `class="extra formup-touched formup-error"`) {
		t.Errorf("unexpected markup: %s", result.HTML)
	}
}

func TestSelectBoxRender(t *testing.T) {
	f := newColorForm(t)

	result, err := TestRender(SelectBox(mustField(t, f, "color"), Bind{Class: "form-select"}))
	if err != nil {
		t.Fatal(err)
	}

	want := `<select class="form-select" id="f1-color" name="color">` +
		`<option value="red">Red</option>` +
		`<option selected value="green">Green</option>` +
		`<option disabled value="blue">Blue</option>` +
		`</select>`
	if result.HTML != want {
		t.Errorf("got  %s\nwant %s", result.HTML, want)
	}
}

func TestControlPicksByKind(t *testing.T) {
	f := newColorForm(t)

	for name, prefix := range map[string]string{"name": "<input", "color": "<select"} {
		result, err := TestRender(Control(mustField(t, f, name), Bind{}))
		if err != nil {
			t.Fatal(err)
		}
		if !strings.HasPrefix(result.HTML, prefix) {
			t.Errorf("Control(%s) = %s, want prefix %s", name, result.HTML, prefix)
		}
	}
}

func TestBindChange(t *testing.T) {
	f := newColorForm(t)

	var seen []string
	b := Bind{OnChange: func(ev ChangeEvent) error {
		// The form is updated before the caller's handler runs.
		seen = append(seen, f.Values().String(ev.Field))
		return nil
	}}

	if err := b.Change(mustField(t, f, "name"), ChangeEvent{Field: "name", Value: "abc"}); err != nil {
		t.Fatalf("Change failed: %v", err)
	}
	if len(seen) != 1 || seen[0] != "abc" {
		t.Errorf("OnChange saw %v, want [abc]", seen)
	}
	if f.TouchedState()["name"] {
		t.Error("change must not touch the field")
	}
}

func TestBindBlur(t *testing.T) {
	f := newColorForm(t)

	var touchedInHandler bool
	b := Bind{OnBlur: func(ev BlurEvent) error {
		touchedInHandler = f.TouchedState()[ev.Field]
		return nil
	}}

	if err := b.Blur(mustField(t, f, "email"), BlurEvent{Field: "email"}); err != nil {
		t.Fatalf("Blur failed: %v", err)
	}
	if !touchedInHandler {
		t.Error("field should be touched before OnBlur runs")
	}
	if f.Values()["email"] != "" {
		t.Error("blur must not change the value")
	}
}

func TestBindHandlerErrors(t *testing.T) {
	f := newColorForm(t)
	boom := errors.New("boom")

	b := Bind{
		OnChange: func(ChangeEvent) error { return boom },
		OnBlur:   func(BlurEvent) error { return boom },
	}
	if err := b.Change(mustField(t, f, "name"), ChangeEvent{Value: "x"}); !errors.Is(err, boom) {
		t.Errorf("Change error = %v", err)
	}
	if err := b.Blur(mustField(t, f, "name"), BlurEvent{}); !errors.Is(err, boom) {
		t.Errorf("Blur error = %v", err)
	}

	called := false
	detached := Bind{OnChange: func(ChangeEvent) error { called = true; return nil }}
	if err := detached.Change(Field{Name: "x"}, ChangeEvent{}); !IsUnknownField(err) {
		t.Errorf("detached Change error = %v", err)
	}
	if called {
		t.Error("OnChange must not run when the update fails")
	}
}

func TestBindWith(t *testing.T) {
	b := Bind{Attrs: templ.Attributes{"a": "1", "b": "2"}}
	merged := b.With(templ.Attributes{"b": "3", "c": "4"})

	if b.Attrs["b"] != "2" || len(b.Attrs) != 2 {
		t.Error("With must not modify the receiver")
	}
	if merged.Attrs["a"] != "1" || merged.Attrs["b"] != "3" || merged.Attrs["c"] != "4" {
		t.Errorf("unexpected merge: %v", merged.Attrs)
	}
}

func TestWriteAttrsEscapes(t *testing.T) {
	var sb strings.Builder
	err := writeAttrs(&sb, templ.Attributes{"title": `<x>&"`, "hidden": false, "checked": true})
	if err != nil {
		t.Fatal(err)
	}
	want := ` checked title="&lt;x&gt;&amp;&#34;"`
	if sb.String() != want {
		t.Errorf("got %q, want %q", sb.String(), want)
	}
}
