package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/contractguard/contractguard/pkg/diff"
)

func TestGuideHeader(t *testing.T) {
	g := NewGenerator()
	change := diff.Change{
		Type:        diff.FieldRemoved,
		Severity:    diff.SeverityHigh,
		Description: "Field 'tag' removed from schema 'Pet'",
	}

	guide := g.Guide(change, "")
	assert.Contains(t, guide, "Migration Guide for FIELD_REMOVED")
	assert.Contains(t, guide, "Severity: HIGH")
	assert.Contains(t, guide, "Field 'tag' removed from schema 'Pet'")
}

func TestGuidePerChangeType(t *testing.T) {
	g := NewGenerator()

	tests := []struct {
		name   string
		change diff.Change
		want   []string
	}{
		{
			name: "endpoint removed includes deprecation timeline",
			change: diff.Change{
				Type:             diff.EndpointRemoved,
				AffectedEndpoint: "/api/v1/orders",
			},
			want: []string{
				"Identify all consumers using endpoint /api/v1/orders",
				"Deprecation Timeline:",
				"410 Gone",
			},
		},
		{
			name: "method removed uppercases the verb in the sample",
			change: diff.Change{
				Type:             diff.MethodRemoved,
				AffectedEndpoint: "/api/v1/orders",
				AffectedField:    "put",
			},
			want: []string{
				"the PUT method on /api/v1/orders",
				"method: 'PUT'",
			},
		},
		{
			name: "field removed names the field",
			change: diff.Change{
				Type:          diff.FieldRemoved,
				SchemaName:    "Order",
				AffectedField: "discount",
			},
			want: []string{
				"depends on field 'discount'",
				"const value = response.discount;",
			},
		},
		{
			name: "type changed shows both types",
			change: diff.Change{
				Type:          diff.TypeChanged,
				AffectedField: "total",
				OldValue:      "integer",
				NewValue:      "string",
			},
			want: []string{
				"// Old Code (expects integer):",
				"// New Code (now string):",
				"convert(response.total)",
			},
		},
		{
			name: "field required shows request example",
			change: diff.Change{
				Type:          diff.FieldRequired,
				SchemaName:    "Order",
				AffectedField: "currency",
			},
			want: []string{
				"requests include field 'currency'",
				"currency: 'required_value'",
			},
		},
		{
			name: "schema removed lists migration steps",
			change: diff.Change{
				Type:       diff.SchemaRemoved,
				SchemaName: "LegacyOrder",
			},
			want: []string{
				"Stop using schema 'LegacyOrder'",
				"Search for all imports/uses of LegacyOrder",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			guide := g.Guide(tt.change, "")
			for _, fragment := range tt.want {
				assert.Contains(t, guide, fragment)
			}
		})
	}
}

func TestGuideFallbackIncludesDeprecationPath(t *testing.T) {
	g := NewGenerator()
	change := diff.Change{
		Type:        diff.ChangeType("FUTURE_CHANGE"),
		Description: "Something new",
	}

	guide := g.Guide(change, "Use /api/v2 until 2027-01-01")
	assert.Contains(t, guide, "General Migration Steps:")
	assert.Contains(t, guide, "Deprecation Path: Use /api/v2 until 2027-01-01")

	// Without a path, the fallback omits the section entirely.
	assert.NotContains(t, g.Guide(change, ""), "Deprecation Path:")
}

func TestCodeExample(t *testing.T) {
	g := NewGenerator()

	tests := []struct {
		name   string
		change diff.Change
		want   string
	}{
		{
			name:   "endpoint removed",
			change: diff.Change{Type: diff.EndpointRemoved, AffectedEndpoint: "/api/pets"},
			want:   "// fetch('/api/pets')  // this will fail",
		},
		{
			name:   "field removed",
			change: diff.Change{Type: diff.FieldRemoved, AffectedField: "tag"},
			want:   "tag: 'value'  // this field is removed",
		},
		{
			name:   "type changed with values",
			change: diff.Change{Type: diff.TypeChanged, OldValue: "integer", NewValue: "string"},
			want:   "// Before: integer",
		},
		{
			name:   "type changed without values points at the guide",
			change: diff.Change{Type: diff.TypeChanged},
			want:   "// Check migration guide for type details",
		},
		{
			name:   "other types defer to the guide",
			change: diff.Change{Type: diff.MethodRemoved},
			want:   "See migration guide above",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, g.CodeExample(tt.change), tt.want)
		})
	}
}
