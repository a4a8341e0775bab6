// Package spec models OpenAPI specification documents as read-only JSON trees.
//
// Documents are treated permissively: a spec without paths or component
// schemas is still a valid document, the affected sections just read as
// empty. Key order from the source document is preserved so comparisons
// produce stable, reproducible output.
package spec

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Document is a parsed OpenAPI specification. It is an immutable view over
// the raw JSON; callers retain ownership of the underlying bytes.
type Document struct {
	root gjson.Result
}

// Parse validates and wraps a raw OpenAPI JSON document.
func Parse(raw []byte) (*Document, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("specification document is empty")
	}
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("specification document is not valid JSON")
	}
	result := gjson.ParseBytes(raw)
	if !result.IsObject() {
		return nil, fmt.Errorf("specification document must be a JSON object")
	}
	return &Document{root: result}, nil
}

// MustParse parses a document and panics on error. Intended for tests and
// fixtures only.
func MustParse(raw string) *Document {
	doc, err := Parse([]byte(raw))
	if err != nil {
		panic(err)
	}
	return doc
}

// Paths returns the ordered paths section, or an empty object if the
// document has none.
func (d *Document) Paths() Object {
	return objectOf(d.root.Get("paths"))
}

// HasPaths reports whether the document carries a paths section.
func (d *Document) HasPaths() bool {
	return d.root.Get("paths").Exists()
}

// Schemas returns the ordered components.schemas section, or an empty
// object if the document has none.
func (d *Document) Schemas() Object {
	return objectOf(d.root.Get("components").Get("schemas"))
}

// HasSchemas reports whether the document carries a components.schemas
// section.
func (d *Document) HasSchemas() bool {
	return d.root.Get("components").Get("schemas").Exists()
}

// Object is an order-preserving view of a JSON object. Keys iterate in
// document order; lookups are constant time.
type Object struct {
	keys   []string
	values map[string]gjson.Result
}

// View wraps an arbitrary JSON result as an ordered Object. Non-object
// results view as empty.
func View(r gjson.Result) Object {
	return objectOf(r)
}

func objectOf(r gjson.Result) Object {
	obj := Object{values: make(map[string]gjson.Result)}
	if !r.IsObject() {
		return obj
	}
	r.ForEach(func(key, value gjson.Result) bool {
		k := key.String()
		if _, dup := obj.values[k]; !dup {
			obj.keys = append(obj.keys, k)
		}
		obj.values[k] = value
		return true
	})
	return obj
}

// Keys returns the object's keys in document order.
func (o Object) Keys() []string {
	return o.keys
}

// Len returns the number of entries.
func (o Object) Len() int {
	return len(o.keys)
}

// Has reports whether the object contains the key.
func (o Object) Has(key string) bool {
	_, ok := o.values[key]
	return ok
}

// Get returns the value for key, or an empty result if absent.
func (o Object) Get(key string) gjson.Result {
	return o.values[key]
}

// Child returns the value for key as an ordered Object.
func (o Object) Child(key string) Object {
	return objectOf(o.values[key])
}

// TypeDescriptor resolves a schema property to a comparable type string:
// the "type" value if present, otherwise the last segment of a "$ref"
// pointer, otherwise "unknown".
func TypeDescriptor(property gjson.Result) string {
	if t := property.Get("type"); t.Exists() {
		return t.String()
	}
	if ref := property.Get("$ref"); ref.Exists() {
		r := ref.String()
		if idx := strings.LastIndex(r, "/"); idx >= 0 {
			return r[idx+1:]
		}
		return r
	}
	return "unknown"
}

// RequiredFields returns the set of field names listed in a schema's
// "required" array.
func RequiredFields(schema gjson.Result) map[string]struct{} {
	required := make(map[string]struct{})
	schema.Get("required").ForEach(func(_, field gjson.Result) bool {
		required[field.String()] = struct{}{}
		return true
	})
	return required
}

// Parameter is a single operation parameter.
type Parameter struct {
	Name     string
	Required bool
}

// HasParameters reports whether an operation carries a parameters array.
func HasParameters(operation gjson.Result) bool {
	return operation.Get("parameters").Exists()
}

// Parameters returns an operation's parameter list in document order.
// Operations without a parameters array return an empty slice.
func Parameters(operation gjson.Result) []Parameter {
	var params []Parameter
	operation.Get("parameters").ForEach(func(_, p gjson.Result) bool {
		params = append(params, Parameter{
			Name:     p.Get("name").String(),
			Required: p.Get("required").Bool(),
		})
		return true
	})
	return params
}
