// Package diff detects breaking changes between two versions of an OpenAPI
// contract. The engine is a pure function of the two documents: it performs
// no I/O, holds no state between runs, and emits changes in a deterministic
// order (endpoint pass, schema pass, parameter pass; document key order
// within each pass).
//
// Only breaking differences are reported. Additions of any kind (new
// endpoints, methods, schemas, or optional fields) and relaxations such as
// a required field becoming optional are silent. A pass runs only when both
// documents carry its section: deleting paths or components.schemas
// wholesale is not flattened into per-item removals.
package diff

import (
	"github.com/tidwall/gjson"

	"github.com/contractguard/contractguard/pkg/spec"
)

// Engine compares two specification documents.
type Engine struct{}

// NewEngine creates a diff engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Compare runs all three comparison passes and returns every breaking
// change classified with its severity, description, and baseline migration
// note. Documents with missing sections yield zero findings for the
// affected passes.
func (e *Engine) Compare(oldDoc, newDoc *spec.Document) []Change {
	changes := []Change{}
	changes = append(changes, e.CompareEndpoints(oldDoc, newDoc)...)
	changes = append(changes, e.CompareSchemas(oldDoc, newDoc)...)
	changes = append(changes, e.CompareParameters(oldDoc, newDoc)...)
	return changes
}

// CompareEndpoints reports removed paths and removed methods on surviving
// paths. A path removed outright is reported once as ENDPOINT_REMOVED; its
// methods are not re-reported. If either document lacks a paths section
// the pass reports nothing.
func (e *Engine) CompareEndpoints(oldDoc, newDoc *spec.Document) []Change {
	changes := []Change{}
	if !oldDoc.HasPaths() || !newDoc.HasPaths() {
		return changes
	}

	oldPaths := oldDoc.Paths()
	newPaths := newDoc.Paths()

	for _, endpoint := range oldPaths.Keys() {
		if !newPaths.Has(endpoint) {
			changes = append(changes, classify(Change{
				Type:             EndpointRemoved,
				AffectedEndpoint: endpoint,
			}))
		}
	}

	for _, endpoint := range oldPaths.Keys() {
		if !newPaths.Has(endpoint) {
			continue
		}
		oldMethods := oldPaths.Child(endpoint)
		newMethods := newPaths.Child(endpoint)

		for _, method := range oldMethods.Keys() {
			if !newMethods.Has(method) {
				changes = append(changes, classify(Change{
					Type:             MethodRemoved,
					AffectedEndpoint: endpoint,
					AffectedField:    method,
				}))
			}
		}
	}

	return changes
}

// CompareSchemas reports removed schemas, and for schemas present in both
// documents: removed fields, field type changes, and fields that became
// required. If either document lacks a components.schemas section the
// pass reports nothing.
func (e *Engine) CompareSchemas(oldDoc, newDoc *spec.Document) []Change {
	changes := []Change{}
	if !oldDoc.HasSchemas() || !newDoc.HasSchemas() {
		return changes
	}

	oldSchemas := oldDoc.Schemas()
	newSchemas := newDoc.Schemas()

	for _, name := range oldSchemas.Keys() {
		if !newSchemas.Has(name) {
			changes = append(changes, classify(Change{
				Type:          SchemaRemoved,
				SchemaName:    name,
				AffectedField: name,
			}))
		}
	}

	for _, name := range oldSchemas.Keys() {
		if !newSchemas.Has(name) {
			continue
		}
		changes = append(changes, e.compareSchemaPair(name, oldSchemas.Get(name), newSchemas.Get(name))...)
	}

	return changes
}

func (e *Engine) compareSchemaPair(name string, oldSchema, newSchema gjson.Result) []Change {
	changes := []Change{}

	oldProps := spec.View(oldSchema.Get("properties"))
	newProps := spec.View(newSchema.Get("properties"))

	for _, field := range oldProps.Keys() {
		if !newProps.Has(field) {
			changes = append(changes, classify(Change{
				Type:          FieldRemoved,
				SchemaName:    name,
				AffectedField: field,
			}))
		}
	}

	for _, field := range oldProps.Keys() {
		if !newProps.Has(field) {
			continue
		}
		oldType := spec.TypeDescriptor(oldProps.Get(field))
		newType := spec.TypeDescriptor(newProps.Get(field))

		if oldType != newType {
			changes = append(changes, classify(Change{
				Type:          TypeChanged,
				SchemaName:    name,
				AffectedField: field,
				OldValue:      oldType,
				NewValue:      newType,
			}))
		}
	}

	oldRequired := spec.RequiredFields(oldSchema)

	// Iterate the new document's required array directly so output order
	// follows the document rather than map order.
	newSchema.Get("required").ForEach(func(_, field gjson.Result) bool {
		if _, ok := oldRequired[field.String()]; !ok {
			changes = append(changes, classify(Change{
				Type:          FieldRequired,
				SchemaName:    name,
				AffectedField: field.String(),
			}))
		}
		return true
	})

	return changes
}

// CompareParameters reports required parameters dropped from operations
// present in both documents. Parameters added, or present but no longer
// required, are silent; endpoints or methods that were themselves removed
// are covered by the endpoint pass and skipped here. Both operations must
// carry a parameters array for the comparison to run.
func (e *Engine) CompareParameters(oldDoc, newDoc *spec.Document) []Change {
	changes := []Change{}
	if !oldDoc.HasPaths() || !newDoc.HasPaths() {
		return changes
	}

	oldPaths := oldDoc.Paths()
	newPaths := newDoc.Paths()

	for _, endpoint := range oldPaths.Keys() {
		if !newPaths.Has(endpoint) {
			continue
		}
		oldMethods := oldPaths.Child(endpoint)
		newMethods := newPaths.Child(endpoint)

		for _, method := range oldMethods.Keys() {
			if !newMethods.Has(method) {
				continue
			}
			oldOp := oldMethods.Get(method)
			newOp := newMethods.Get(method)
			if !spec.HasParameters(oldOp) || !spec.HasParameters(newOp) {
				continue
			}
			oldParams := spec.Parameters(oldOp)
			newParams := spec.Parameters(newOp)

			newNames := make(map[string]struct{}, len(newParams))
			for _, p := range newParams {
				newNames[p.Name] = struct{}{}
			}

			for _, p := range oldParams {
				if _, ok := newNames[p.Name]; ok || !p.Required {
					continue
				}
				changes = append(changes, classify(Change{
					Type:             ParameterRemoved,
					AffectedEndpoint: endpoint,
					AffectedField:    p.Name,
					OldValue:         method,
				}))
			}
		}
	}

	return changes
}
