// Package validation adapts schema validators to the flat field error maps
// consumed by forms.
package validation

import (
	"context"
	"errors"
	"sort"
)

// ErrAdapter marks failures of the validator itself, as opposed to values
// that violate the schema.
var ErrAdapter = errors.New("validation: validator failed")

// FormKey holds messages that could not be attributed to a field.
const FormKey = ""

// ErrorMap maps a field name to the message reported for it. An empty map
// means the values are valid.
type ErrorMap map[string]string

// Valid reports whether the map holds no errors.
func (m ErrorMap) Valid() bool {
	return len(m) == 0
}

// Clone returns a copy of m. A nil map clones to an empty one.
func (m ErrorMap) Clone() ErrorMap {
	out := make(ErrorMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Messages returns the messages of m ordered by the given field names.
// Keys not present in order (including FormKey) follow in sorted order.
func (m ErrorMap) Messages(order []string) []string {
	if len(m) == 0 {
		return nil
	}

	out := make([]string, 0, len(m))
	seen := make(map[string]struct{}, len(order))
	for _, name := range order {
		seen[name] = struct{}{}
		if msg, ok := m[name]; ok {
			out = append(out, msg)
		}
	}

	var rest []string
	for name := range m {
		if _, ok := seen[name]; !ok {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		out = append(out, m[name])
	}
	return out
}

// Validator checks a snapshot of form values.
//
// A non-nil error means the validator could not run; violations are reported
// through the returned map only.
type Validator interface {
	Validate(ctx context.Context, values map[string]any) (ErrorMap, error)
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(ctx context.Context, values map[string]any) (ErrorMap, error)

// Validate calls fn.
func (fn ValidatorFunc) Validate(ctx context.Context, values map[string]any) (ErrorMap, error) {
	return fn(ctx, values)
}

// Run validates values with v. A nil validator accepts everything.
func Run(ctx context.Context, v Validator, values map[string]any) (ErrorMap, error) {
	if v == nil {
		return ErrorMap{}, nil
	}
	errs, err := v.Validate(ctx, values)
	if err != nil {
		return nil, err
	}
	if errs == nil {
		errs = ErrorMap{}
	}
	return errs, nil
}
