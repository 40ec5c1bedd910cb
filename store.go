package formup

import "fmt"

// Values maps field names to their current values.
//
// Stores never mutate a Values in place; each update produces a new map so a
// previously handed out snapshot stays stable.
type Values map[string]any

// Touched maps field names to their touched flag.
type Touched map[string]bool

// Clone returns a shallow copy of v.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// String returns the value of name formatted for an HTML attribute.
func (v Values) String(name string) string {
	return stringValue(v[name])
}

// Clone returns a copy of t.
func (t Touched) Clone() Touched {
	out := make(Touched, len(t))
	for k, val := range t {
		out[k] = val
	}
	return out
}

// All reports whether every field is touched.
func (t Touched) All() bool {
	for _, touched := range t {
		if !touched {
			return false
		}
	}
	return true
}

// reduceValue replaces exactly one entry.
func reduceValue(state Values, name string, value any) (Values, error) {
	if _, ok := state[name]; !ok {
		return state, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	next := state.Clone()
	next[name] = value
	return next, nil
}

// reduceTouched replaces exactly one entry.
func reduceTouched(state Touched, name string, touched bool) (Touched, error) {
	if _, ok := state[name]; !ok {
		return state, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	next := state.Clone()
	next[name] = touched
	return next, nil
}

// touchAll marks every field touched.
func touchAll(state Touched) Touched {
	next := make(Touched, len(state))
	for name := range state {
		next[name] = true
	}
	return next
}

func stringValue(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	default:
		return fmt.Sprint(v)
	}
}
