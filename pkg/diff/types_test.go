package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeverityFor(t *testing.T) {
	tests := []struct {
		changeType ChangeType
		want       Severity
	}{
		{EndpointRemoved, SeverityCritical},
		{TypeChanged, SeverityCritical},
		{MethodRemoved, SeverityHigh},
		{SchemaRemoved, SeverityHigh},
		{FieldRemoved, SeverityHigh},
		{FieldRequired, SeverityHigh},
		{ParameterRemoved, SeverityHigh},
		{ChangeType("SOMETHING_ELSE"), SeverityMedium},
	}

	for _, tt := range tests {
		t.Run(string(tt.changeType), func(t *testing.T) {
			assert.Equal(t, tt.want, SeverityFor(tt.changeType))
		})
	}
}

func TestSeverityRank(t *testing.T) {
	assert.Equal(t, 1, SeverityLow.Rank())
	assert.Equal(t, 2, SeverityMedium.Rank())
	assert.Equal(t, 3, SeverityHigh.Rank())
	assert.Equal(t, 4, SeverityCritical.Rank())
	assert.Equal(t, 0, Severity("BOGUS").Rank())
}

func TestClassifyDescriptions(t *testing.T) {
	tests := []struct {
		name   string
		change Change
		want   string
	}{
		{
			name:   "endpoint removed",
			change: Change{Type: EndpointRemoved, AffectedEndpoint: "/api/users"},
			want:   "Endpoint '/api/users' has been removed",
		},
		{
			name:   "method removed uppercases the verb",
			change: Change{Type: MethodRemoved, AffectedEndpoint: "/api/users", AffectedField: "delete"},
			want:   "Method 'DELETE' removed from endpoint '/api/users'",
		},
		{
			name:   "schema removed",
			change: Change{Type: SchemaRemoved, SchemaName: "LegacyUser"},
			want:   "Schema 'LegacyUser' has been removed",
		},
		{
			name:   "field removed",
			change: Change{Type: FieldRemoved, SchemaName: "User", AffectedField: "nickname"},
			want:   "Field 'nickname' removed from schema 'User'",
		},
		{
			name:   "type changed",
			change: Change{Type: TypeChanged, AffectedField: "id", OldValue: "integer", NewValue: "string"},
			want:   "Field 'id' type changed from 'integer' to 'string'",
		},
		{
			name:   "field required",
			change: Change{Type: FieldRequired, SchemaName: "User", AffectedField: "email"},
			want:   "Field 'email' is now required in schema 'User'",
		},
		{
			name:   "parameter removed",
			change: Change{Type: ParameterRemoved, AffectedEndpoint: "/api/users", AffectedField: "limit", OldValue: "get"},
			want:   "Required parameter 'limit' removed from GET /api/users",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.change)
			assert.Equal(t, tt.want, got.Description)
			assert.Equal(t, SeverityFor(tt.change.Type), got.Severity)
			assert.NotEmpty(t, got.MigrationNote)
		})
	}
}

func TestCountBySeverity(t *testing.T) {
	changes := []Change{
		{Severity: SeverityCritical},
		{Severity: SeverityCritical},
		{Severity: SeverityHigh},
		{Severity: SeverityLow},
	}

	assert.Equal(t, 2, CountBySeverity(changes, SeverityCritical))
	assert.Equal(t, 1, CountBySeverity(changes, SeverityHigh))
	assert.Equal(t, 0, CountBySeverity(changes, SeverityMedium))
	assert.Equal(t, 1, CountBySeverity(changes, SeverityLow))
}

func TestFilterByType(t *testing.T) {
	changes := []Change{
		{Type: EndpointRemoved, AffectedEndpoint: "/a"},
		{Type: FieldRemoved, AffectedField: "x"},
		{Type: EndpointRemoved, AffectedEndpoint: "/b"},
	}

	filtered := FilterByType(changes, EndpointRemoved)
	assert.Len(t, filtered, 2)
	assert.Equal(t, "/a", filtered[0].AffectedEndpoint)
	assert.Equal(t, "/b", filtered[1].AffectedEndpoint)

	assert.Empty(t, FilterByType(changes, SchemaRemoved))
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, "No breaking changes detected", Summarize(nil))

	changes := []Change{
		{Severity: SeverityCritical},
		{Severity: SeverityHigh},
		{Severity: SeverityHigh},
	}
	assert.Equal(t, "Detected 3 breaking change(s): 1 CRITICAL, 2 HIGH", Summarize(changes))
}
