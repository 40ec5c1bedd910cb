package formup

import (
	"encoding/json"
	"testing"
)

func TestParseEventType(t *testing.T) {
	tests := []struct {
		in     string
		want   EventType
		wantOK bool
	}{
		{"change", EventChange, true},
		{"input", EventChange, true},
		{"blur", EventBlur, true},
		{"focusout", EventBlur, true},
		{"submit", EventSubmit, true},
		{"", "", false},
		{"click", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseEventType(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseEventType(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestWireAttrs(t *testing.T) {
	attrs := WireAttrs("/_f/person/event", "f1", Field{Name: `na"me`}, "")

	if attrs["hx-post"] != "/_f/person/event" {
		t.Errorf("hx-post = %v", attrs["hx-post"])
	}
	if attrs["hx-target"] != "#f1" {
		t.Errorf("hx-target = %v", attrs["hx-target"])
	}
	if attrs["hx-swap"] != string(SwapOuter) {
		t.Errorf("hx-swap should default to outerHTML, got %v", attrs["hx-swap"])
	}
	want := `js:{"_formup_event": event.type, "_formup_field": "na\"me"}`
	if attrs["hx-vals"] != want {
		t.Errorf("hx-vals = %v, want %v", attrs["hx-vals"], want)
	}
}

func TestSubmitAttrs(t *testing.T) {
	attrs := SubmitAttrs("/x", SwapInner)

	if attrs["hx-post"] != "/x" || attrs["hx-swap"] != string(SwapInner) || attrs["hx-target"] != "this" {
		t.Errorf("unexpected attrs: %v", attrs)
	}

	var vals map[string]string
	if err := json.Unmarshal([]byte(attrs["hx-vals"].(string)), &vals); err != nil {
		t.Fatalf("hx-vals is not JSON: %v", err)
	}
	if vals[EventParam] != string(EventSubmit) {
		t.Errorf("hx-vals = %v", vals)
	}
}
