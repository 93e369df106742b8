// Package schema generates JSON Schemas from Go types and validates
// documents against them.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	santhosh "github.com/santhosh-tekuri/jsonschema/v5"
)

// Reflector is configured for request document schemas.
// DoNotReference inlines all definitions to avoid $ref, and Anonymous drops
// the package-derived $id.
var Reflector = &jsonschema.Reflector{
	DoNotReference: true,
	Anonymous:      true,
}

// Generate creates a JSON Schema from a Go type.
// Fields without omitempty are required and unknown properties are rejected.
//
// Example:
//
//	type Book struct {
//	    Title  string `json:"title"`
//	    Author string `json:"author"`
//	    Year   int    `json:"year,omitempty"`
//	}
//
//	schema, err := schema.Generate[Book]()
func Generate[T any]() (json.RawMessage, error) {
	var zero T
	schema := Reflector.Reflect(&zero)
	return json.Marshal(schema)
}

// MustGenerate is like Generate but panics on error.
// Useful for package-level schema definitions.
func MustGenerate[T any]() json.RawMessage {
	schema, err := Generate[T]()
	if err != nil {
		panic(err)
	}
	return schema
}

// Compiled is a schema ready to validate documents.
type Compiled struct {
	schema *santhosh.Schema
}

// Compile parses and compiles a JSON Schema document.
func Compile(schemaJSON json.RawMessage) (*Compiled, error) {
	if len(schemaJSON) == 0 {
		return nil, fmt.Errorf("empty schema")
	}

	c := santhosh.NewCompiler()
	if err := c.AddResource("schema.json", bytes.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("schema resource: %w", err)
	}
	s, err := c.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Compiled{schema: s}, nil
}

// Validate checks doc, a value decoded from JSON (maps, slices, float64,
// string, bool or nil), against the schema.
func (c *Compiled) Validate(doc any) error {
	return c.schema.Validate(doc)
}

// ValidateJSON decodes raw and validates it.
func (c *Compiled) ValidateJSON(raw json.RawMessage) error {
	if len(raw) == 0 {
		return fmt.Errorf("empty json")
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse json: %w", err)
	}
	return c.Validate(doc)
}

// Validate compiles schemaJSON and validates raw against it.
func Validate(schemaJSON, raw json.RawMessage) error {
	c, err := Compile(schemaJSON)
	if err != nil {
		return err
	}
	return c.ValidateJSON(raw)
}
