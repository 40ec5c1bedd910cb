package formupecho

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/pthm/formup"
)

func contactMount() formup.Mount {
	return formup.Mount{Descriptor: formup.Describe().Field("email", formup.Email(""))}
}

func TestMount(t *testing.T) {
	e := echo.New()
	reg := Mount(e)

	if reg == nil {
		t.Fatal("Mount returned nil registry")
	}
	if reg.Prefix() != formup.DefaultPrefix {
		t.Errorf("Prefix() = %q, want %q", reg.Prefix(), formup.DefaultPrefix)
	}
}

func TestMountWithKey(t *testing.T) {
	e := echo.New()
	key := make([]byte, 32)
	reg := Mount(e, WithKey(key))

	if reg == nil {
		t.Fatal("Mount returned nil registry")
	}
}

func TestMountWithPath(t *testing.T) {
	e := echo.New()
	reg := Mount(e, WithPath("/forms"))
	reg.MustAdd("contact", contactMount())

	req := httptest.NewRequest(http.MethodGet, "/forms/contact/", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `hx-post="/forms/contact/event"`) {
		t.Errorf("unexpected markup: %s", rec.Body.String())
	}
}

func TestMountGroup(t *testing.T) {
	e := echo.New()
	g := e.Group("/app")
	reg := MountGroup(g)
	reg.MustAdd("contact", contactMount())

	if reg.Path("contact") != "/app/_f/contact/" {
		t.Errorf("Path() = %q", reg.Path("contact"))
	}

	req := httptest.NewRequest(http.MethodGet, "/app/_f/contact/", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `hx-post="/app/_f/contact/event"`) {
		t.Errorf("unexpected markup: %s", rec.Body.String())
	}
}

func TestEventRoundTrip(t *testing.T) {
	e := echo.New()
	reg := Mount(e)
	reg.MustAdd("contact", contactMount())

	get := httptest.NewRequest(http.MethodGet, "/_f/contact/", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, get)
	result := &formup.TestResult{HTML: rec.Body.String()}

	form := url.Values{}
	form.Set(formup.StateParam, result.Token())
	form.Set(formup.EventParam, "submit")
	form.Set("email", "a@b.c")

	post := httptest.NewRequest(http.MethodPost, "/_f/contact/event", strings.NewReader(form.Encode()))
	post.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	post.Header.Set("HX-Request", "true")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, post)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Header().Get("HX-Trigger"), formup.EventSubmitted) {
		t.Errorf("HX-Trigger = %q", rec.Header().Get("HX-Trigger"))
	}
}

func TestCSRFProtection(t *testing.T) {
	e := echo.New()
	Mount(e)

	// POST without HX-Request header should be forbidden
	req := httptest.NewRequest(http.MethodPost, "/_f/test/event", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for POST without HX-Request, got %d", rec.Code)
	}
}

func TestGETAllowed(t *testing.T) {
	e := echo.New()
	Mount(e)

	// GET requests don't need HX-Request header
	req := httptest.NewRequest(http.MethodGet, "/_f/test/", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	// 404 since no form is mounted, but not forbidden
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown form, got %d", rec.Code)
	}
}

func TestRenderForm(t *testing.T) {
	e := echo.New()
	reg := Mount(e)
	reg.MustAdd("contact", contactMount())

	req := httptest.NewRequest(http.MethodGet, "/page", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := RenderForm(c, reg, "contact"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(rec.Body.String(), `name="email"`) {
		t.Errorf("unexpected markup: %s", rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}

	err := RenderForm(c, reg, "missing")
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusNotFound {
		t.Errorf("RenderForm(missing) = %v, want 404", err)
	}
}
