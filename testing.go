package formup

import (
	"bytes"
	"context"
	"encoding/json"
	"html"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"

	"github.com/a-h/templ"
)

// TestResult holds rendered output for assertions in tests.
type TestResult struct {
	HTML            string
	StatusCode      int
	Headers         http.Header
	TriggeredEvents []string
	Flashes         []Flash
}

// TestRender renders a component to a TestResult.
//
//	result, err := formup.TestRender(formup.Input(field, formup.Bind{}))
//	if !result.HTMLContains(formup.ClassError) { ... }
func TestRender(component templ.Component) (*TestResult, error) {
	var buf bytes.Buffer
	if err := component.Render(context.Background(), &buf); err != nil {
		return nil, err
	}
	return &TestResult{
		HTML:       buf.String(),
		StatusCode: http.StatusOK,
		Headers:    make(http.Header),
		Flashes:    parseFlashesFromHTML(buf.String()),
	}, nil
}

// TestRenderForm renders f with DefaultRenderer.
func TestRenderForm(f *Form, page Page) (*TestResult, error) {
	return TestRender(DefaultRenderer.Render(context.Background(), f, page))
}

// HTMLContains checks if the HTML contains a substring.
func (r *TestResult) HTMLContains(substr string) bool {
	return strings.Contains(r.HTML, substr)
}

// HTMLContainsAll checks if the HTML contains all the given substrings.
func (r *TestResult) HTMLContainsAll(substrs ...string) bool {
	for _, s := range substrs {
		if !strings.Contains(r.HTML, s) {
			return false
		}
	}
	return true
}

// HasEvent checks if an event was triggered through HX-Trigger.
func (r *TestResult) HasEvent(event string) bool {
	for _, e := range r.TriggeredEvents {
		if e == event {
			return true
		}
	}
	return false
}

// HasFlash checks if a flash with the given level and message was sent.
func (r *TestResult) HasFlash(level, message string) bool {
	for _, f := range r.Flashes {
		if f.Level == level && f.Message == message {
			return true
		}
	}
	return false
}

// HasFlashLevel checks if any flash with the given level was sent.
func (r *TestResult) HasFlashLevel(level string) bool {
	for _, f := range r.Flashes {
		if f.Level == level {
			return true
		}
	}
	return false
}

// IsOK checks if the status code is 200.
func (r *TestResult) IsOK() bool {
	return r.StatusCode == http.StatusOK
}

// HasStatus checks if the status code matches.
func (r *TestResult) HasStatus(code int) bool {
	return r.StatusCode == code
}

// Token extracts the state token of the first rendered form, for chaining
// event requests.
func (r *TestResult) Token() string {
	marker := `name="` + StateParam + `"`
	idx := strings.Index(r.HTML, marker)
	if idx == -1 {
		return ""
	}
	rest := r.HTML[idx:]
	start := strings.Index(rest, `value="`)
	if start == -1 {
		return ""
	}
	rest = rest[start+len(`value="`):]
	end := strings.Index(rest, `"`)
	if end == -1 {
		return ""
	}
	return html.UnescapeString(rest[:end])
}

// parseTriggerHeader returns the event names of an HX-Trigger value, which
// is either a comma separated list or a JSON object keyed by event.
func parseTriggerHeader(trigger string) []string {
	trigger = strings.TrimSpace(trigger)
	if trigger == "" {
		return nil
	}

	if strings.HasPrefix(trigger, "{") {
		var payload map[string]json.RawMessage
		if err := json.Unmarshal([]byte(trigger), &payload); err != nil {
			return nil
		}
		events := make([]string, 0, len(payload))
		for name := range payload {
			events = append(events, name)
		}
		sort.Strings(events)
		return events
	}

	var events []string
	for _, p := range strings.Split(trigger, ",") {
		if p = strings.TrimSpace(p); p != "" {
			events = append(events, p)
		}
	}
	return events
}

// parseFlashesFromHTML extracts flashes rendered by RenderFlashesOOB.
func parseFlashesFromHTML(markup string) []Flash {
	var flashes []Flash

	const prefix = `<div class="toast toast-`
	idx := 0
	for {
		start := strings.Index(markup[idx:], prefix)
		if start == -1 {
			break
		}
		start += idx + len(prefix)

		levelEnd := strings.Index(markup[start:], `"`)
		tagEnd := strings.Index(markup[start:], ">")
		if levelEnd == -1 || tagEnd == -1 {
			break
		}
		contentStart := start + tagEnd + 1
		contentEnd := strings.Index(markup[contentStart:], "</div>")
		if contentEnd == -1 {
			break
		}

		flashes = append(flashes, Flash{
			Level:   html.UnescapeString(markup[start : start+levelEnd]),
			Message: html.UnescapeString(markup[contentStart : contentStart+contentEnd]),
		})
		idx = contentStart + contentEnd
	}

	return flashes
}

// TestRequestBuilder builds requests against a registry handler.
//
//	result, err := formup.NewTestRequest(http.MethodPost, reg.Path("signup")+"event").
//	    HTMX().
//	    WithFormData(formup.StateParam, token).
//	    WithFormData(formup.EventParam, "submit").
//	    Execute(reg.Handler())
type TestRequestBuilder struct {
	method   string
	url      string
	formData url.Values
	headers  map[string]string
	ctx      context.Context
}

// NewTestRequest creates a new test request builder.
func NewTestRequest(method, target string) *TestRequestBuilder {
	return &TestRequestBuilder{
		method:   method,
		url:      target,
		formData: url.Values{},
		headers:  make(map[string]string),
		ctx:      context.Background(),
	}
}

// WithFormData adds a form field.
func (b *TestRequestBuilder) WithFormData(key, value string) *TestRequestBuilder {
	b.formData.Add(key, value)
	return b
}

// WithFormValues adds several form fields.
func (b *TestRequestBuilder) WithFormValues(data map[string]string) *TestRequestBuilder {
	for k, v := range data {
		b.formData.Add(k, v)
	}
	return b
}

// WithHeader sets a request header.
func (b *TestRequestBuilder) WithHeader(key, value string) *TestRequestBuilder {
	b.headers[key] = value
	return b
}

// HTMX marks the request as sent by HTMX.
func (b *TestRequestBuilder) HTMX() *TestRequestBuilder {
	return b.WithHeader("HX-Request", "true")
}

// WithContext sets the request context.
func (b *TestRequestBuilder) WithContext(ctx context.Context) *TestRequestBuilder {
	b.ctx = ctx
	return b
}

// Execute sends the request to h and captures the response.
func (b *TestRequestBuilder) Execute(h http.Handler) (*TestResult, error) {
	var req *http.Request
	if b.method == http.MethodGet || b.method == http.MethodHead {
		req = httptest.NewRequest(b.method, b.url, nil)
	} else {
		req = httptest.NewRequest(b.method, b.url, strings.NewReader(b.formData.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req = req.WithContext(b.ctx)
	for k, v := range b.headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	body := rec.Body.String()
	return &TestResult{
		HTML:            body,
		StatusCode:      rec.Code,
		Headers:         rec.Header(),
		TriggeredEvents: parseTriggerHeader(rec.Header().Get("HX-Trigger")),
		Flashes:         parseFlashesFromHTML(body),
	}, nil
}
