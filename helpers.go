package formup

import (
	"encoding/json"
	"net/http"

	"github.com/a-h/templ"
)

// EventSubmitted is triggered on the client (HX-Trigger) after a form was
// submitted successfully.
const EventSubmitted = "formup:submitted"

// Render writes a templ component as an HTML response.
func Render(w http.ResponseWriter, r *http.Request, component templ.Component) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return component.Render(r.Context(), w)
}

// IsHTMX returns true if the request originated from HTMX.
func IsHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// TriggerName returns the name attribute of the element that triggered the
// request, which for bound controls is the field name.
func TriggerName(r *http.Request) string {
	return r.Header.Get("HX-Trigger-Name")
}

// BuildTriggerHeader builds an HX-Trigger header value. Without data the
// bare event name is used; with data the JSON object form is produced so
// listeners receive it as evt.detail.
func BuildTriggerHeader(event string, data map[string]any) string {
	if event == "" {
		return ""
	}
	if data == nil {
		return event
	}
	out, err := json.Marshal(map[string]any{event: data})
	if err != nil {
		return event
	}
	return string(out)
}
