package formup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/pthm/formup/lib/validation"
)

// SubmitPolicy controls what happens when Submit is called while an earlier
// submit is still validating or running OnSubmit.
type SubmitPolicy int

const (
	// SubmitOverlap lets overlapping submits run independently. Each one
	// validates the values current when it started, and the last one to
	// finish writes the error map that the form keeps.
	SubmitOverlap SubmitPolicy = iota

	// SubmitReject fails a submit with ErrSubmitInFlight while another is
	// pending.
	SubmitReject
)

// SubmitFunc is the caller's completion logic, invoked only for valid forms.
// Its error is returned from Submit unchanged.
type SubmitFunc func(ctx context.Context, ev *SubmitEvent) error

// Options configures a Form.
type Options struct {
	// Validator checks values on submit. Nil means every value set is valid.
	Validator validation.Validator

	// OnSubmit runs after successful validation. Nil is a no-op.
	OnSubmit SubmitFunc

	// Logger receives submit diagnostics. Defaults to a discarding logger.
	Logger *slog.Logger

	SubmitPolicy SubmitPolicy

	// ID is the DOM id of the rendered form. A random one is generated when
	// empty.
	ID string

	// Name is recorded in snapshots. Restore rejects state taken from a form
	// with a different name.
	Name string
}

// SubmitEvent describes one submit attempt.
type SubmitEvent struct {
	// Request is the originating HTTP request, if any.
	Request *http.Request

	// Values is the snapshot the submit validated. Set by Submit.
	Values Values

	defaultPrevented bool
}

// PreventDefault records that the host's default submit handling (a full
// page navigation) must not happen.
func (e *SubmitEvent) PreventDefault() {
	e.defaultPrevented = true
}

// DefaultPrevented reports whether PreventDefault was called.
func (e *SubmitEvent) DefaultPrevented() bool {
	return e.defaultPrevented
}

// Outcome is the result of a submit attempt that did not fail outright.
type Outcome struct {
	// Submitted is true when validation passed and OnSubmit was invoked.
	Submitted bool
	Errors    validation.ErrorMap
}

// Settings exposes the form level handlers to presentation code.
type Settings struct {
	ID               string
	Submit           func(ctx context.Context, ev *SubmitEvent) (Outcome, error)
	ValidationErrors func(ctx context.Context) (validation.ErrorMap, error)
}

// State is the serializable part of a form.
type State struct {
	Form    string            `msgpack:"f,omitempty"`
	ID      string            `msgpack:"id"`
	Values  map[string]any    `msgpack:"v"`
	Touched map[string]bool   `msgpack:"t"`
	Errors  map[string]string `msgpack:"e,omitempty"`
}

// Form tracks values, touched flags and validation errors for the fields of
// a Descriptor. It is safe for concurrent use; every mutation is applied as a
// single step against the current state.
type Form struct {
	desc   *Descriptor
	opts   Options
	logger *slog.Logger
	id     string

	mu       sync.Mutex
	values   Values
	touched  Touched
	errors   validation.ErrorMap
	inFlight int
}

// New builds a form with every field at its initial value and untouched.
func New(desc *Descriptor, opts Options) (*Form, error) {
	if desc == nil {
		return nil, errors.New("formup: descriptor is required")
	}
	if err := desc.Err(); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	id := opts.ID
	if id == "" {
		id = "formup-" + uuid.NewString()
	}

	return &Form{
		desc:    desc,
		opts:    opts,
		logger:  logger.With("form", id),
		id:      id,
		values:  desc.InitialValues(),
		touched: desc.InitialTouched(),
		errors:  validation.ErrorMap{},
	}, nil
}

// ID returns the DOM id of the form.
func (f *Form) ID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.id
}

// Descriptor returns the field set the form was built from.
func (f *Form) Descriptor() *Descriptor {
	return f.desc
}

// Values returns a snapshot of the current values.
func (f *Form) Values() Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values.Clone()
}

// TouchedState returns a snapshot of the touched flags.
func (f *Form) TouchedState() Touched {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.touched.Clone()
}

// SetFieldValue replaces the value of one field.
func (f *Form) SetFieldValue(name string, value any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	next, err := reduceValue(f.values, name, value)
	if err != nil {
		return err
	}
	f.values = next
	return nil
}

// SetFieldTouched replaces the touched flag of one field.
func (f *Form) SetFieldTouched(name string, touched bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	next, err := reduceTouched(f.touched, name, touched)
	if err != nil {
		return err
	}
	f.touched = next
	return nil
}

// TouchAll marks every field touched.
func (f *Form) TouchAll() {
	f.mu.Lock()
	f.touched = touchAll(f.touched)
	f.mu.Unlock()
}

// ErrorMap returns the errors stored by the last completed submit.
func (f *Form) ErrorMap() validation.ErrorMap {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errors.Clone()
}

// Errors returns the stored error messages in field order.
func (f *Form) Errors() []string {
	return f.ErrorMap().Messages(f.desc.names)
}

// Field returns the view of one field.
func (f *Form) Field(name string) (Field, bool) {
	fd, ok := f.desc.Lookup(name)
	if !ok {
		return Field{}, false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fieldLocked(name, fd), true
}

// Fields returns the views of all fields in declaration order.
func (f *Form) Fields() []Field {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]Field, 0, len(f.desc.names))
	for _, name := range f.desc.names {
		out = append(out, f.fieldLocked(name, f.desc.fields[name]))
	}
	return out
}

func (f *Form) fieldLocked(name string, fd FieldDescriptor) Field {
	return Field{
		Name:    name,
		Kind:    fd.Kind,
		Label:   fd.Label,
		Choices: cloneChoices(fd.Choices),
		Value:   f.values[name],
		Touched: f.touched[name],
		Error:   f.errors[name],
		formID:  f.id,
		form:    f,
	}
}

// ValidationErrors validates the current values without storing the result
// or touching any field.
func (f *Form) ValidationErrors(ctx context.Context) (validation.ErrorMap, error) {
	f.mu.Lock()
	snapshot := f.values.Clone()
	f.mu.Unlock()
	return validation.Run(ctx, f.opts.Validator, snapshot)
}

// Submit validates the form and forwards valid submissions to OnSubmit.
//
// The values are captured once, when Submit is called; edits made while
// validation or OnSubmit run do not affect this attempt. Whatever the result,
// every field ends up touched so errors become visible. Invalid values are not
// an error: they are reported through Outcome.Errors and OnSubmit is skipped.
func (f *Form) Submit(ctx context.Context, ev *SubmitEvent) (Outcome, error) {
	if ev == nil {
		ev = &SubmitEvent{}
	}
	ev.PreventDefault()

	f.mu.Lock()
	if f.opts.SubmitPolicy == SubmitReject && f.inFlight > 0 {
		f.mu.Unlock()
		return Outcome{}, ErrSubmitInFlight
	}
	f.inFlight++
	snapshot := f.values
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	ev.Values = snapshot.Clone()

	errs, err := validation.Run(ctx, f.opts.Validator, snapshot.Clone())
	if err != nil {
		f.logger.Error("formup: validator failed", "error", err)
		return Outcome{}, err
	}

	f.mu.Lock()
	f.errors = errs
	f.touched = touchAll(f.touched)
	f.mu.Unlock()

	if !errs.Valid() {
		f.logger.Debug("formup: submit rejected", "errors", len(errs))
		return Outcome{Errors: errs.Clone()}, nil
	}

	f.logger.Debug("formup: submit accepted")
	if f.opts.OnSubmit != nil {
		if err := f.opts.OnSubmit(ctx, ev); err != nil {
			return Outcome{Submitted: true, Errors: validation.ErrorMap{}}, err
		}
	}
	return Outcome{Submitted: true, Errors: validation.ErrorMap{}}, nil
}

// Settings returns the submit handler and on-demand error accessor.
func (f *Form) Settings() Settings {
	return Settings{
		ID:               f.ID(),
		Submit:           f.Submit,
		ValidationErrors: f.ValidationErrors,
	}
}

// Snapshot captures the serializable state.
func (f *Form) Snapshot() State {
	f.mu.Lock()
	defer f.mu.Unlock()

	st := State{
		Form:    f.opts.Name,
		ID:      f.id,
		Values:  f.values.Clone(),
		Touched: f.touched.Clone(),
	}
	if len(f.errors) > 0 {
		st.Errors = f.errors.Clone()
	}
	return st
}

// Restore replaces the form state with st. The state must come from a form
// with the same name and cover exactly the descriptor's fields.
func (f *Form) Restore(st State) error {
	if st.Form != f.opts.Name {
		return fmt.Errorf("%w: state belongs to form %q", ErrInvalidState, st.Form)
	}
	if len(st.Values) != f.desc.Len() || len(st.Touched) != f.desc.Len() {
		return fmt.Errorf("%w: field set mismatch", ErrInvalidState)
	}
	for _, name := range f.desc.names {
		if _, ok := st.Values[name]; !ok {
			return fmt.Errorf("%w: missing value for %q", ErrInvalidState, name)
		}
		if _, ok := st.Touched[name]; !ok {
			return fmt.Errorf("%w: missing touched flag for %q", ErrInvalidState, name)
		}
	}

	errs := validation.ErrorMap{}
	for name, msg := range st.Errors {
		errs[name] = msg
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if st.ID != "" {
		f.id = st.ID
	}
	f.values = Values(st.Values).Clone()
	f.touched = Touched(st.Touched).Clone()
	f.errors = errs
	return nil
}
