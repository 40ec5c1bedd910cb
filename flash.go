package formup

import (
	"context"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// Flash levels.
const (
	FlashSuccess = "success"
	FlashError   = "error"
)

// ToastsID is the id of the element flashes are appended to.
const ToastsID = "formup-toasts"

// Flash is a one-time notification sent with an event response.
type Flash struct {
	Level   string
	Message string
}

// FlashMessages are the texts used to report submit outcomes. A %d verb in
// Invalid receives the number of fields with errors.
type FlashMessages struct {
	Submitted string
	Invalid   string
}

// DefaultFlashMessages is used when a mount does not set its own.
var DefaultFlashMessages = FlashMessages{
	Submitted: "Form submitted.",
	Invalid:   "Please correct %d field(s).",
}

// flashFor turns a submit outcome into a flash. Empty texts disable it.
func (m FlashMessages) flashFor(out Outcome) (Flash, bool) {
	if out.Submitted {
		if m.Submitted == "" {
			return Flash{}, false
		}
		return Flash{Level: FlashSuccess, Message: m.Submitted}, true
	}
	if m.Invalid == "" {
		return Flash{}, false
	}
	msg := m.Invalid
	if strings.Contains(msg, "%d") {
		msg = fmt.Sprintf(msg, len(out.Errors))
	}
	return Flash{Level: FlashError, Message: msg}, true
}

// RenderFlashesOOB renders flashes as an out-of-band swap appending to the
// toast container.
func RenderFlashesOOB(flashes []Flash) string {
	if len(flashes) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(`<div id="` + ToastsID + `" hx-swap-oob="beforeend">`)
	for _, f := range flashes {
		sb.WriteString(`<div class="toast toast-`)
		sb.WriteString(html.EscapeString(f.Level))
		sb.WriteString(`" role="status">`)
		sb.WriteString(html.EscapeString(f.Message))
		sb.WriteString(`</div>`)
	}
	sb.WriteString(`</div>`)
	return sb.String()
}

// ToastContainer renders the element flashes are appended to. Place it once
// in the page layout.
func ToastContainer() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<div id="`+ToastsID+`" class="toast-container"></div>`)
		return err
	})
}
