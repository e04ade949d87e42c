package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/confstore/internal/argv"
)

// ErrInvalidSchema is returned when a schema document violates validation rules.
var ErrInvalidSchema = errors.New("invalid settings schema")

// Setting kinds accepted in a schema document.
const (
	KindParameter = "parameter"
	KindSwitch    = "switch"
	KindCommand   = "command"
)

// Definition declares one setting.
type Definition struct {
	Name    string `yaml:"name"`
	Help    string `yaml:"help"`
	Default string `yaml:"default"`
	Kind    string `yaml:"kind"`
}

// Schema is the list of declared settings in document order.
type Schema struct {
	Settings []Definition `yaml:"settings"`
}

// Load reads and validates a schema file.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a schema document. Unknown fields are rejected.
func Parse(data []byte) (*Schema, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Schema
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Names returns the declared setting names in document order.
func (s *Schema) Names() []string {
	names := make([]string, 0, len(s.Settings))
	for _, d := range s.Settings {
		names = append(names, d.Name)
	}
	return names
}

// Apply registers every declared setting on store with its default as the current
// value and records the defaults. Built-in settings of the store that the schema does
// not mention get their current value as default.
func (s *Schema) Apply(store *argv.Store) {
	for _, d := range s.Settings {
		switch d.kind() {
		case KindSwitch:
			store.SetSwitch(d.Name, d.Help).Assign(d.Default)
			store.SetDefault(d.Name, d.Default)
		case KindCommand:
			store.SetCmd(d.Name, d.Help)
			store.SetDefault(d.Name, "no")
		default:
			store.SetHelp(d.Name, d.Help).Assign(d.Default)
			store.SetDefault(d.Name, d.Default)
		}
	}
	store.SetDefaults()
}

func (d Definition) kind() string {
	if d.Kind == "" {
		return KindParameter
	}
	return strings.ToLower(d.Kind)
}

func (s *Schema) validate() error {
	seen := make(map[string]struct{}, len(s.Settings))
	for i, d := range s.Settings {
		if err := validateName(d.Name); err != nil {
			return fmt.Errorf("%w: setting %d: %v", ErrInvalidSchema, i+1, err)
		}
		if _, dup := seen[d.Name]; dup {
			return fmt.Errorf("%w: setting %q declared twice", ErrInvalidSchema, d.Name)
		}
		seen[d.Name] = struct{}{}

		switch d.kind() {
		case KindParameter, KindSwitch, KindCommand:
		default:
			return fmt.Errorf("%w: setting %q has unknown kind %q", ErrInvalidSchema, d.Name, d.Kind)
		}
		if d.kind() == KindCommand && d.Default != "" {
			return fmt.Errorf("%w: command %q cannot have a default", ErrInvalidSchema, d.Name)
		}
	}
	return nil
}

func validateName(name string) error {
	switch {
	case name == "":
		return errors.New("name is empty")
	case strings.HasPrefix(name, "-"):
		return fmt.Errorf("name %q starts with '-'", name)
	case strings.ContainsAny(name, "=#"):
		return fmt.Errorf("name %q contains '=' or '#'", name)
	case strings.HasSuffix(name, "+"):
		return fmt.Errorf("name %q ends with '+'", name)
	case strings.IndexFunc(name, unicode.IsSpace) >= 0:
		return fmt.Errorf("name %q contains whitespace", name)
	}
	return nil
}
