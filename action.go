package formup

import (
	"encoding/json"

	"github.com/a-h/templ"
)

// Request parameters understood by the event endpoint.
const (
	StateParam = "_formup"
	EventParam = "_formup_event"
	FieldParam = "_formup_field"
)

// EventType names an interaction delivered to the event endpoint.
type EventType string

const (
	EventChange EventType = "change"
	EventBlur   EventType = "blur"
	EventSubmit EventType = "submit"
)

// ParseEventType maps a DOM event name onto an EventType.
func ParseEventType(s string) (EventType, bool) {
	switch s {
	case "change", "input":
		return EventChange, true
	case "blur", "focusout":
		return EventBlur, true
	case "submit":
		return EventSubmit, true
	default:
		return "", false
	}
}

// WireAttrs builds the HTMX attributes that post a control's change and blur
// events to path, re-rendering the form identified by formID.
//
// The event type is read from the DOM event at request time, so a single
// hx-post serves both triggers.
func WireAttrs(path, formID string, fl Field, swap SwapMode) templ.Attributes {
	name, _ := json.Marshal(fl.Name)
	return templ.Attributes{
		"hx-post":    path,
		"hx-trigger": "change, blur",
		"hx-vals":    `js:{"` + EventParam + `": event.type, "` + FieldParam + `": ` + string(name) + `}`,
		"hx-include": "closest form",
		"hx-target":  "#" + formID,
		"hx-swap":    string(swap.orDefault()),
		"hx-sync":    "closest form:queue",
	}
}

// SubmitAttrs builds the HTMX attributes of the <form> element. Posting via
// HTMX replaces the browser's default navigation.
func SubmitAttrs(path string, swap SwapMode) templ.Attributes {
	vals, _ := json.Marshal(map[string]string{EventParam: string(EventSubmit)})
	return templ.Attributes{
		"hx-post":   path,
		"hx-vals":   string(vals),
		"hx-target": "this",
		"hx-swap":   string(swap.orDefault()),
	}
}
