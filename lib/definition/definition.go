// Package definition loads form definitions from YAML or JSON documents.
//
// A definition names a form, lists its fields in order and optionally carries
// an OpenAPI 3 schema used to validate submitted values:
//
//	name: person
//	submit: Save
//	fields:
//	  - name: name
//	    label: Full name
//	  - name: dob
//	    kind: date
//	  - name: color
//	    kind: select
//	    initial: red
//	    choices: [red, green, blue]
//	schema:
//	  type: object
//	  required: [name]
//	  properties:
//	    name:
//	      type: string
//	      minLength: 5
//	      x-message: Name must be at least 5 characters
package definition

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pthm/formup"
	"github.com/pthm/formup/lib/validation"
)

// Definition is a parsed form definition.
type Definition struct {
	Name        string         `yaml:"name"`
	Title       string         `yaml:"title"`
	SubmitLabel string         `yaml:"submit"`
	Fields      []Field        `yaml:"fields"`
	Schema      map[string]any `yaml:"schema"`

	// Source is the file the definition was read from, for messages.
	Source string `yaml:"-"`
}

// Field is one field entry.
type Field struct {
	Name    string   `yaml:"name"`
	Kind    string   `yaml:"kind"`
	Label   string   `yaml:"label"`
	Initial any      `yaml:"initial"`
	Choices []Choice `yaml:"choices"`
}

// Choice is a select option. In YAML it is either a bare scalar, used as both
// value and label, or a mapping.
type Choice struct {
	Value    string `yaml:"value"`
	Label    string `yaml:"label"`
	Disabled bool   `yaml:"disabled"`
}

// UnmarshalYAML accepts the scalar shorthand.
func (c *Choice) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		c.Value = node.Value
		c.Label = node.Value
		return nil
	}
	type plain Choice
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*c = Choice(p)
	return nil
}

// Load parses a definition. source is only used in error messages.
func Load(data []byte, source string) (*Definition, error) {
	if strings.TrimSpace(string(data)) == "" {
		return nil, fmt.Errorf("definition: %s is empty", source)
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("definition: parse %s: %w", source, err)
	}
	def.Source = source
	if def.Name == "" {
		def.Name = nameFromSource(source)
	}
	if len(def.Fields) == 0 {
		return nil, fmt.Errorf("definition: %s declares no fields", source)
	}
	return &def, nil
}

// LoadFile reads and parses the definition at path.
func LoadFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("definition: read %s: %w", path, err)
	}
	return Load(data, path)
}

// LoadFS parses every .yaml, .yml and .json file in fsys, keyed by form name.
func LoadFS(fsys fs.FS) (map[string]*Definition, error) {
	defs := make(map[string]*Definition)
	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isDefinitionFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("definition: read %s: %w", path, err)
		}
		def, err := Load(data, path)
		if err != nil {
			return err
		}
		if prev, exists := defs[def.Name]; exists {
			return fmt.Errorf("definition: form %q defined in both %s and %s", def.Name, prev.Source, path)
		}
		defs[def.Name] = def
		return nil
	})
	if err != nil {
		return nil, err
	}
	return defs, nil
}

// Descriptor builds the form descriptor, in declaration order.
func (d *Definition) Descriptor() (*formup.Descriptor, error) {
	desc := formup.Describe()
	for i, f := range d.Fields {
		kind, err := formup.ParseKind(f.Kind)
		if err != nil {
			return nil, fmt.Errorf("definition: %s field %d (%q): %w", d.Source, i, f.Name, err)
		}
		fd := formup.FieldDescriptor{Kind: kind, Initial: f.Initial, Label: f.Label}
		if fd.Initial == nil {
			fd.Initial = ""
		}
		for _, c := range f.Choices {
			fd.Choices = append(fd.Choices, formup.Choice{Value: c.Value, Label: c.Label, Disabled: c.Disabled})
		}
		desc.Field(f.Name, fd)
	}
	if err := desc.Err(); err != nil {
		return nil, fmt.Errorf("definition: %s: %w", d.Source, err)
	}
	return desc, nil
}

// Validator builds the schema validator. A definition without schema gets
// one that accepts everything.
func (d *Definition) Validator(opts ...validation.SchemaOption) (*validation.Schema, error) {
	s, err := validation.SchemaFromMap(d.Schema)
	if err != nil {
		return nil, fmt.Errorf("definition: %s schema: %w", d.Source, err)
	}
	v, err := validation.NewSchema(s, opts...)
	if err != nil {
		return nil, fmt.Errorf("definition: %s schema: %w", d.Source, err)
	}
	return v, nil
}

// Check reports every problem in the definition: bad fields, an invalid
// schema, schema properties that name no field and select fields without
// choices.
func (d *Definition) Check() error {
	var errs []error
	if _, err := d.Descriptor(); err != nil {
		errs = append(errs, err)
	}
	if _, err := d.Validator(); err != nil {
		errs = append(errs, err)
	}

	for _, f := range d.Fields {
		if kind, err := formup.ParseKind(f.Kind); err == nil && kind == formup.KindSelect && len(f.Choices) == 0 {
			errs = append(errs, fmt.Errorf("definition: %s select field %q has no choices", d.Source, f.Name))
		}
	}
	for _, prop := range d.schemaProperties() {
		if !d.hasField(prop) {
			errs = append(errs, fmt.Errorf("definition: %s schema property %q is not a field", d.Source, prop))
		}
	}
	return errors.Join(errs...)
}

// Mount builds a registry mount for the definition.
func (d *Definition) Mount(opts formup.Options) (formup.Mount, error) {
	desc, err := d.Descriptor()
	if err != nil {
		return formup.Mount{}, err
	}
	if opts.Validator == nil {
		v, err := d.Validator()
		if err != nil {
			return formup.Mount{}, err
		}
		opts.Validator = v
	}
	return formup.Mount{
		Descriptor:  desc,
		Options:     opts,
		SubmitLabel: d.SubmitLabel,
	}, nil
}

func (d *Definition) hasField(name string) bool {
	for _, f := range d.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

func (d *Definition) schemaProperties() []string {
	props, ok := d.Schema["properties"].(map[string]any)
	if !ok {
		return nil
	}
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func isDefinitionFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return true
	default:
		return false
	}
}

func nameFromSource(source string) string {
	base := filepath.Base(source)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
