package validation

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

// Schema extensions recognised when building messages.
const (
	// ExtMessage replaces the validator's reason for any failing keyword.
	ExtMessage = "x-message"
	// ExtMessages maps a keyword (minLength, pattern, required, ...) to a message.
	ExtMessages = "x-messages"
)

// Schema validates form values against an OpenAPI 3 schema, collecting every
// violation instead of stopping at the first one.
type Schema struct {
	schema *openapi3.Schema
	policy Policy
}

// SchemaOption configures a Schema validator.
type SchemaOption func(*Schema)

// WithPolicy selects how several issues on one field are folded.
func WithPolicy(p Policy) SchemaOption {
	return func(s *Schema) {
		s.policy = p
	}
}

// NewSchema wraps s. The schema itself is checked for consistency first; a nil
// schema yields a validator that accepts every value set.
func NewSchema(s *openapi3.Schema, opts ...SchemaOption) (*Schema, error) {
	v := &Schema{schema: s, policy: KeepFirst}
	for _, opt := range opts {
		opt(v)
	}
	if s == nil {
		return v, nil
	}
	if err := s.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("validation: invalid schema: %w", err)
	}
	return v, nil
}

// SchemaFromJSON parses a JSON encoded schema.
func SchemaFromJSON(data []byte) (*openapi3.Schema, error) {
	var s openapi3.Schema
	if err := s.UnmarshalJSON(data); err != nil {
		return nil, fmt.Errorf("validation: parse schema: %w", err)
	}
	return &s, nil
}

// SchemaFromMap converts a decoded document (for example from YAML) into a
// schema.
func SchemaFromMap(doc map[string]any) (*openapi3.Schema, error) {
	if len(doc) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("validation: encode schema: %w", err)
	}
	return SchemaFromJSON(data)
}

// Validate implements Validator.
func (s *Schema) Validate(ctx context.Context, values map[string]any) (ErrorMap, error) {
	if s == nil || s.schema == nil {
		return ErrorMap{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := jsonValue(values)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAdapter, err)
	}

	verr := s.schema.VisitJSON(doc, openapi3.MultiErrors())
	if verr == nil {
		return ErrorMap{}, nil
	}

	issues, err := collectIssues(verr)
	if err != nil {
		return nil, err
	}
	return NormalizeWith(s.policy, issues), nil
}

// jsonValue reduces values to the shapes encoding/json produces, which is
// what VisitJSON understands.
func jsonValue(values map[string]any) (any, error) {
	if values == nil {
		values = map[string]any{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// collectIssues flattens the validator's error tree depth first, preserving
// the order in which violations were reported.
func collectIssues(err error) ([]Issue, error) {
	var issues []Issue

	var walk func(error) error
	walk = func(err error) error {
		switch e := err.(type) {
		case openapi3.MultiError:
			for _, inner := range e {
				if err := walk(inner); err != nil {
					return err
				}
			}
			return nil
		case *openapi3.SchemaError:
			issues = append(issues, Issue{Path: e.JSONPointer(), Message: messageFor(e)})
			return nil
		default:
			return fmt.Errorf("%w: %w", ErrAdapter, err)
		}
	}

	if err := walk(err); err != nil {
		return nil, err
	}
	return issues, nil
}

func messageFor(e *openapi3.SchemaError) string {
	schema := e.Schema
	if e.SchemaField == "required" && schema != nil {
		// The error is raised on the parent object; messages for a missing
		// property live on the property's own schema.
		schema = nil
		if path := e.JSONPointer(); len(path) > 0 {
			if ref := e.Schema.Properties[path[len(path)-1]]; ref != nil {
				schema = ref.Value
			}
		}
	}

	if schema != nil {
		if msg := keywordMessage(schema.Extensions, e.SchemaField); msg != "" {
			return msg
		}
		if e.SchemaField != "required" {
			if msg := extensionString(schema.Extensions[ExtMessage]); msg != "" {
				return msg
			}
		}
	}

	if e.Reason != "" {
		return e.Reason
	}
	return e.Error()
}

func keywordMessage(ext map[string]any, keyword string) string {
	raw, ok := ext[ExtMessages]
	if !ok || keyword == "" {
		return ""
	}

	var messages map[string]any
	switch v := raw.(type) {
	case map[string]any:
		messages = v
	case json.RawMessage:
		if err := json.Unmarshal(v, &messages); err != nil {
			return ""
		}
	default:
		return ""
	}
	return extensionString(messages[keyword])
}

func extensionString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case json.RawMessage:
		var out string
		if err := json.Unmarshal(s, &out); err == nil {
			return out
		}
	}
	return ""
}
