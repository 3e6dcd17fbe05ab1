package tool

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Registry is the immutable tool catalog. It is constructed once at
// startup and shared read-only between the router, extractor, dispatcher,
// and protocol surfaces.
type Registry struct {
	defs  []*Definition
	index map[Name]*Definition
}

// NewRegistry builds a registry from the given definitions, preserving
// registration order.
func NewRegistry(defs ...*Definition) (*Registry, error) {
	r := &Registry{index: make(map[Name]*Definition, len(defs))}
	for _, def := range defs {
		if _, exists := r.index[def.Name]; exists {
			return nil, fmt.Errorf("tool %s already registered", def.Name)
		}
		r.defs = append(r.defs, def)
		r.index[def.Name] = def
	}
	return r, nil
}

// Default returns a registry holding the static catalog.
func Default() *Registry {
	r, err := NewRegistry(Catalog()...)
	if err != nil {
		// The static catalog has no duplicates; reaching this is a bug.
		panic(err)
	}
	return r
}

// Lookup returns the definition for name.
func (r *Registry) Lookup(name Name) (*Definition, error) {
	def, ok := r.index[name]
	if !ok {
		return nil, fmt.Errorf("tool %s not found", name)
	}
	return def, nil
}

// All returns every definition in registration order.
func (r *Registry) All() []*Definition {
	out := make([]*Definition, len(r.defs))
	copy(out, r.defs)
	return out
}

// Schema renders a definition's parameter contract as a JSON Schema
// document, the form the protocol surfaces advertise.
func Schema(def *Definition) map[string]any {
	properties := make(map[string]any, len(def.Contract))
	var required []string

	for _, f := range def.Contract {
		prop := map[string]any{"description": f.Description}
		switch f.Type {
		case TypeNumber:
			prop["type"] = "number"
			if f.Min != nil {
				prop["minimum"] = *f.Min
			}
			if f.Max != nil {
				prop["maximum"] = *f.Max
			}
		case TypeStringList:
			prop["type"] = "array"
			prop["items"] = map[string]any{"type": "string"}
			if f.MinLen > 0 {
				prop["minItems"] = f.MinLen
			}
			if f.MaxLen > 0 {
				prop["maxItems"] = f.MaxLen
			}
		default:
			prop["type"] = "string"
			if f.MinLen > 0 {
				prop["minLength"] = f.MinLen
			}
			if f.MaxLen > 0 {
				prop["maxLength"] = f.MaxLen
			}
			if f.PatternSrc != "" {
				prop["pattern"] = f.PatternSrc
			}
			if len(f.Enum) > 0 {
				prop["enum"] = f.Enum
			}
		}
		if f.Default != nil {
			prop["default"] = f.Default
		}
		properties[f.Name] = prop
		if f.Required {
			required = append(required, f.Name)
		}
	}

	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// SelfTest compiles every tool's generated schema and validates the
// catalog examples against it. Run once at startup so that a broken
// contract fails loudly instead of surfacing per request.
func (r *Registry) SelfTest() error {
	compiler := jsonschema.NewCompiler()

	for _, def := range r.defs {
		doc, err := schemaDocument(def)
		if err != nil {
			return err
		}
		if err := compiler.AddResource(schemaURL(def.Name), doc); err != nil {
			return fmt.Errorf("tool %s: add schema: %w", def.Name, err)
		}
	}

	for _, def := range r.defs {
		compiled, err := compiler.Compile(schemaURL(def.Name))
		if err != nil {
			return fmt.Errorf("tool %s: compile schema: %w", def.Name, err)
		}
		for i, example := range def.Examples {
			instance, err := roundTrip(example)
			if err != nil {
				return fmt.Errorf("tool %s: example %d: %w", def.Name, i, err)
			}
			if err := compiled.Validate(instance); err != nil {
				return fmt.Errorf("tool %s: example %d does not satisfy its own contract: %w", def.Name, i, err)
			}
		}
	}
	return nil
}

func schemaURL(name Name) string {
	return fmt.Sprintf("aura://tools/%s.json", name)
}

func schemaDocument(def *Definition) (any, error) {
	raw, err := json.Marshal(Schema(def))
	if err != nil {
		return nil, fmt.Errorf("tool %s: marshal schema: %w", def.Name, err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("tool %s: parse schema: %w", def.Name, err)
	}
	return doc, nil
}

// roundTrip normalizes a Go value into the JSON type system the schema
// validator expects (float64 numbers, []any lists).
func roundTrip(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(raw))
}
