package formup

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/pthm/formup/lib/validation"
)

func TestFlashFor(t *testing.T) {
	tests := []struct {
		name   string
		msgs   FlashMessages
		out    Outcome
		want   Flash
		wantOK bool
	}{
		{
			name:   "submitted",
			msgs:   DefaultFlashMessages,
			out:    Outcome{Submitted: true},
			want:   Flash{Level: FlashSuccess, Message: "Form submitted."},
			wantOK: true,
		},
		{
			name:   "invalid with count",
			msgs:   DefaultFlashMessages,
			out:    Outcome{Errors: validation.ErrorMap{"a": "x", "b": "y", "c": "z"}},
			want:   Flash{Level: FlashError, Message: "Please correct 3 field(s)."},
			wantOK: true,
		},
		{
			name:   "invalid without verb",
			msgs:   FlashMessages{Invalid: "Nope."},
			out:    Outcome{Errors: validation.ErrorMap{"a": "x"}},
			want:   Flash{Level: FlashError, Message: "Nope."},
			wantOK: true,
		},
		{
			name: "disabled",
			msgs: FlashMessages{},
			out:  Outcome{Submitted: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.msgs.flashFor(tt.out)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("flash mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRenderFlashesOOB(t *testing.T) {
	if RenderFlashesOOB(nil) != "" {
		t.Error("no flashes should render nothing")
	}

	flashes := []Flash{
		{Level: FlashSuccess, Message: "Saved <now>"},
		{Level: FlashError, Message: "Oops"},
	}
	out := RenderFlashesOOB(flashes)

	if !strings.HasPrefix(out, `<div id="`+ToastsID+`" hx-swap-oob="beforeend">`) {
		t.Errorf("missing OOB wrapper: %s", out)
	}
	if strings.Contains(out, "<now>") {
		t.Error("messages must be escaped")
	}
	if diff := cmp.Diff(flashes, parseFlashesFromHTML(out)); diff != "" {
		t.Errorf("parsed flashes mismatch (-want +got):\n%s", diff)
	}
}

func TestToastContainer(t *testing.T) {
	result, err := TestRender(ToastContainer())
	if err != nil {
		t.Fatal(err)
	}
	if !result.HTMLContains(`id="` + ToastsID + `"`) {
		t.Errorf("unexpected markup: %s", result.HTML)
	}
}
