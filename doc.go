// Package formup manages the state of declaratively described forms and
// binds it to server-rendered HTML driven by HTMX.
//
// # Core Concepts
//
// A Descriptor declares the closed set of fields of a form, each with a kind
// (text, email, date, select) and an initial value:
//
//	desc := formup.Describe().
//	    Field("name", formup.Text("")).
//	    Field("dob", formup.Date(""))
//
// A Form built from it tracks three things per field: the current value, a
// touched flag, and the error reported by the last submit. Values and touched
// flags change one field at a time through SetFieldValue and SetFieldTouched
// (or the Field view's SetValue and SetTouched); no field can be added or
// removed once the form exists.
//
// # Validation and Submit
//
// Validation is delegated to a validation.Validator, typically an OpenAPI 3
// schema wrapped by validation.NewSchema. Submit validates a snapshot of the
// values, stores the resulting error map, marks every field touched and, only
// if the form is valid, calls Options.OnSubmit:
//
//	out, err := form.Submit(ctx, &formup.SubmitEvent{})
//	if err != nil {
//	    // validator or OnSubmit failed
//	}
//	if !out.Submitted {
//	    // out.Errors maps field name to message
//	}
//
// Overlapping submits either run independently (SubmitOverlap, the last to
// finish owns the error map) or are refused (SubmitReject).
//
// # Bindings
//
// Input and SelectBox render a Field as a templ component, merging the caller's
// classes with "formup-touched" and "formup-error". Bind.Change and Bind.Blur
// apply a control's change and blur events to the form before calling the
// caller's own handlers.
//
// # Serving Forms
//
// A Registry serves mounted forms over HTTP. Each request rebuilds the form
// from a signed (optionally encrypted) state token embedded in the markup, so
// the server keeps no per-user state:
//
//	reg := formup.NewRegistry(key)
//	reg.MustAdd("signup", formup.Mount{Descriptor: desc, Options: opts})
//	http.Handle(reg.Prefix(), reg.Handler())
package formup
