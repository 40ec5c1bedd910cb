package formup

// Field is a read-only view of one field, valid for a single render pass.
// SetValue and SetTouched write through to the owning form; the view itself
// is not updated.
type Field struct {
	Name    string
	Kind    Kind
	Label   string
	Choices []Choice
	Value   any
	Touched bool
	Error   string

	formID string
	form   *Form
}

// SetValue replaces the field's value in the form.
func (fl Field) SetValue(value any) error {
	if fl.form == nil {
		return ErrUnknownField
	}
	return fl.form.SetFieldValue(fl.Name, value)
}

// SetTouched replaces the field's touched flag in the form.
func (fl Field) SetTouched(touched bool) error {
	if fl.form == nil {
		return ErrUnknownField
	}
	return fl.form.SetFieldTouched(fl.Name, touched)
}

// HasError reports whether the last submit left an error on the field.
func (fl Field) HasError() bool {
	return fl.Error != ""
}

// ID returns the DOM id of the field's control.
func (fl Field) ID() string {
	if fl.formID == "" {
		return fl.Name
	}
	return fl.formID + "-" + fl.Name
}

// StringValue formats the value for rendering.
func (fl Field) StringValue() string {
	return stringValue(fl.Value)
}

// DisplayLabel returns the label, falling back to the field name.
func (fl Field) DisplayLabel() string {
	if fl.Label != "" {
		return fl.Label
	}
	return fl.Name
}
