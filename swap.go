package formup

// SwapMode is the HTMX swap strategy used when a form re-renders after an
// event. See https://htmx.org/attributes/hx-swap/.
type SwapMode string

const (
	// SwapOuter replaces the whole form element. This is the default.
	SwapOuter SwapMode = "outerHTML"

	// SwapInner keeps the <form> tag and replaces its contents.
	SwapInner SwapMode = "innerHTML"

	// SwapNone discards the response; only headers (events, flashes) apply.
	SwapNone SwapMode = "none"
)

func (m SwapMode) orDefault() SwapMode {
	if m == "" {
		return SwapOuter
	}
	return m
}
