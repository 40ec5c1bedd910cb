package formup

import (
	"fmt"
	"sort"
	"strings"
)

// Kind is a rendering hint for a field. It implies no validation.
type Kind string

const (
	KindText   Kind = "text"
	KindEmail  Kind = "email"
	KindDate   Kind = "date"
	KindSelect Kind = "select"
)

// ParseKind resolves a kind name, case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindText, KindEmail, KindDate, KindSelect:
		return k, nil
	case "":
		return KindText, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Choice is one option of a select field.
type Choice struct {
	Value    string
	Label    string
	Disabled bool
}

// FieldDescriptor declares a field's kind and initial value.
// It is a value type; the With* methods return modified copies.
type FieldDescriptor struct {
	Kind    Kind
	Initial any
	Label   string
	Choices []Choice
}

// Text declares a text input.
func Text(initial any) FieldDescriptor {
	return FieldDescriptor{Kind: KindText, Initial: initial}
}

// Email declares an email input.
func Email(initial any) FieldDescriptor {
	return FieldDescriptor{Kind: KindEmail, Initial: initial}
}

// Date declares a date input.
func Date(initial any) FieldDescriptor {
	return FieldDescriptor{Kind: KindDate, Initial: initial}
}

// Select declares a select field with optional choices.
func Select(initial any, choices ...Choice) FieldDescriptor {
	return FieldDescriptor{Kind: KindSelect, Initial: initial, Choices: cloneChoices(choices)}
}

// WithLabel returns a copy of fd carrying a human readable label.
func (fd FieldDescriptor) WithLabel(label string) FieldDescriptor {
	fd.Label = label
	return fd
}

// WithChoices returns a copy of fd with the given choices.
func (fd FieldDescriptor) WithChoices(choices ...Choice) FieldDescriptor {
	fd.Choices = cloneChoices(choices)
	return fd
}

func cloneChoices(choices []Choice) []Choice {
	if choices == nil {
		return nil
	}
	return append([]Choice(nil), choices...)
}

// Descriptor is the closed, ordered set of fields of one form.
//
// Build it with Describe and chained Field calls:
//
//	desc := formup.Describe().
//	    Field("name", formup.Text("")).
//	    Field("dob", formup.Date(""))
//
// The first construction error is kept and reported by Err (and by New).
// The zero value is an empty descriptor ready for Field.
type Descriptor struct {
	names  []string
	fields map[string]FieldDescriptor
	err    error
}

// Describe starts an empty descriptor.
func Describe() *Descriptor {
	return &Descriptor{fields: make(map[string]FieldDescriptor)}
}

// DescriptorFromMap builds a descriptor with names in sorted order.
func DescriptorFromMap(fields map[string]FieldDescriptor) (*Descriptor, error) {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	d := Describe()
	for _, name := range names {
		d.Field(name, fields[name])
	}
	return d, d.Err()
}

// Field appends a field. Empty or repeated names are recorded as errors.
func (d *Descriptor) Field(name string, fd FieldDescriptor) *Descriptor {
	if d.err != nil {
		return d
	}
	if strings.TrimSpace(name) == "" {
		d.err = ErrEmptyFieldName
		return d
	}
	if _, exists := d.fields[name]; exists {
		d.err = fmt.Errorf("%w: %q", ErrDuplicateField, name)
		return d
	}
	if fd.Kind == "" {
		fd.Kind = KindText
	}
	fd.Choices = cloneChoices(fd.Choices)
	if d.fields == nil {
		d.fields = make(map[string]FieldDescriptor)
	}
	d.names = append(d.names, name)
	d.fields[name] = fd
	return d
}

// Err returns the first construction error, if any.
func (d *Descriptor) Err() error {
	return d.err
}

// Names returns the field names in declaration order.
func (d *Descriptor) Names() []string {
	return append([]string(nil), d.names...)
}

// Len returns the number of fields.
func (d *Descriptor) Len() int {
	return len(d.names)
}

// Lookup returns the descriptor of the named field.
func (d *Descriptor) Lookup(name string) (FieldDescriptor, bool) {
	fd, ok := d.fields[name]
	fd.Choices = cloneChoices(fd.Choices)
	return fd, ok
}

// Has reports whether name belongs to the form.
func (d *Descriptor) Has(name string) bool {
	_, ok := d.fields[name]
	return ok
}

// InitialValues seeds a value store.
func (d *Descriptor) InitialValues() Values {
	out := make(Values, len(d.names))
	for _, name := range d.names {
		out[name] = d.fields[name].Initial
	}
	return out
}

// InitialTouched seeds a touched store: every field untouched.
func (d *Descriptor) InitialTouched() Touched {
	out := make(Touched, len(d.names))
	for _, name := range d.names {
		out[name] = false
	}
	return out
}
