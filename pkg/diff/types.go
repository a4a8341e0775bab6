package diff

import (
	"fmt"
	"strings"
)

// ChangeType identifies the kind of breaking change detected between two
// contract versions. The set is closed: the engine never emits a type
// outside this list.
type ChangeType string

const (
	EndpointRemoved  ChangeType = "ENDPOINT_REMOVED"
	MethodRemoved    ChangeType = "METHOD_REMOVED"
	SchemaRemoved    ChangeType = "SCHEMA_REMOVED"
	FieldRemoved     ChangeType = "FIELD_REMOVED"
	TypeChanged      ChangeType = "TYPE_CHANGED"
	FieldRequired    ChangeType = "FIELD_REQUIRED"
	ParameterRemoved ChangeType = "PARAMETER_REMOVED"
)

// Severity describes the inherent risk of a change independent of any
// consumer, on a four-level ordinal scale.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Rank returns the ordinal position of a severity, lowest first. Unknown
// severities rank below LOW.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	}
	return 0
}

// SeverityFor returns the fixed severity for a change type. The mapping is
// total over the closed taxonomy; unknown types map to MEDIUM.
func SeverityFor(changeType ChangeType) Severity {
	switch changeType {
	case EndpointRemoved, TypeChanged:
		return SeverityCritical
	case MethodRemoved, SchemaRemoved, FieldRemoved, FieldRequired, ParameterRemoved:
		return SeverityHigh
	}
	return SeverityMedium
}

// Change is a single atomic difference between two specification documents.
// Instances are immutable once produced by the engine.
type Change struct {
	Type             ChangeType `json:"changeType"`
	Severity         Severity   `json:"severity"`
	Description      string     `json:"description"`
	AffectedEndpoint string     `json:"affectedEndpoint,omitempty"`
	AffectedField    string     `json:"affectedField,omitempty"`
	SchemaName       string     `json:"schemaName,omitempty"`
	OldValue         string     `json:"oldValue,omitempty"`
	NewValue         string     `json:"newValue,omitempty"`
	MigrationNote    string     `json:"migrationNote,omitempty"`
}

// classify fills in the severity, description, and baseline migration note
// for a change whose structural fields are already set.
func classify(c Change) Change {
	c.Severity = SeverityFor(c.Type)
	c.Description = describe(c)
	c.MigrationNote = baselineNote(c)
	return c
}

func describe(c Change) string {
	switch c.Type {
	case EndpointRemoved:
		return fmt.Sprintf("Endpoint '%s' has been removed", c.AffectedEndpoint)
	case MethodRemoved:
		return fmt.Sprintf("Method '%s' removed from endpoint '%s'",
			strings.ToUpper(c.AffectedField), c.AffectedEndpoint)
	case SchemaRemoved:
		return fmt.Sprintf("Schema '%s' has been removed", c.SchemaName)
	case FieldRemoved:
		return fmt.Sprintf("Field '%s' removed from schema '%s'", c.AffectedField, c.SchemaName)
	case TypeChanged:
		return fmt.Sprintf("Field '%s' type changed from '%s' to '%s'",
			c.AffectedField, c.OldValue, c.NewValue)
	case FieldRequired:
		return fmt.Sprintf("Field '%s' is now required in schema '%s'", c.AffectedField, c.SchemaName)
	case ParameterRemoved:
		return fmt.Sprintf("Required parameter '%s' removed from %s %s",
			c.AffectedField, strings.ToUpper(c.OldValue), c.AffectedEndpoint)
	}
	return fmt.Sprintf("Unrecognized change '%s'", c.Type)
}

func baselineNote(c Change) string {
	switch c.Type {
	case EndpointRemoved:
		return fmt.Sprintf("Endpoint '%s' is no longer available. Please update your integration.", c.AffectedEndpoint)
	case MethodRemoved:
		return fmt.Sprintf("The %s method is no longer supported on %s",
			strings.ToUpper(c.AffectedField), c.AffectedEndpoint)
	case SchemaRemoved:
		return fmt.Sprintf("Schema '%s' is no longer available.", c.SchemaName)
	case FieldRemoved:
		return fmt.Sprintf("Field '%s' in schema '%s' has been removed.", c.AffectedField, c.SchemaName)
	case TypeChanged:
		return fmt.Sprintf("Field '%s' type has changed from %s to %s",
			c.AffectedField, c.OldValue, c.NewValue)
	case FieldRequired:
		return fmt.Sprintf("Field '%s' in schema '%s' is now required.", c.AffectedField, c.SchemaName)
	case ParameterRemoved:
		return fmt.Sprintf("Parameter '%s' is no longer supported.", c.AffectedField)
	}
	return "Review this change and update affected integrations."
}

// CountBySeverity counts changes carrying the given severity.
func CountBySeverity(changes []Change, severity Severity) int {
	count := 0
	for _, c := range changes {
		if c.Severity == severity {
			count++
		}
	}
	return count
}

// FilterByType returns the subset of changes with the given type.
func FilterByType(changes []Change, changeType ChangeType) []Change {
	filtered := []Change{}
	for _, c := range changes {
		if c.Type == changeType {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

// Summarize builds a human-readable one-line summary of a change set.
func Summarize(changes []Change) string {
	if len(changes) == 0 {
		return "No breaking changes detected"
	}

	parts := []string{}
	for _, sev := range []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow} {
		if n := CountBySeverity(changes, sev); n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, sev))
		}
	}

	return fmt.Sprintf("Detected %d breaking change(s): %s", len(changes), strings.Join(parts, ", "))
}
