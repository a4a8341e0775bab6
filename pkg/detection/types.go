// Package detection orchestrates breaking-change detection runs: it
// resolves two version snapshots of a contract, diffs them, persists the
// resulting change and impact records, and assembles aggregate reports.
package detection

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/contractguard/contractguard/pkg/diff"
)

// ErrNotFound is returned when a breaking change or impact record does
// not exist.
var ErrNotFound = errors.New("not found")

// ImpactStatus tracks how a consumer is responding to a breaking change.
// Detection always creates records as PENDING; the other states are set
// by consumers through the status endpoint.
type ImpactStatus string

const (
	StatusPending      ImpactStatus = "PENDING"
	StatusAcknowledged ImpactStatus = "ACKNOWLEDGED"
	StatusInProgress   ImpactStatus = "IN_PROGRESS"
	StatusMigrated     ImpactStatus = "MIGRATED"
	StatusWontFix      ImpactStatus = "WONT_FIX"
)

// Valid reports whether s is a recognized impact status.
func (s ImpactStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAcknowledged, StatusInProgress, StatusMigrated, StatusWontFix:
		return true
	}
	return false
}

// BreakingChange is a persisted atomic difference between two versions of
// a contract. Records are immutable after creation except for the
// migration guide and code example text attached after generation.
type BreakingChange struct {
	ID               uuid.UUID       `json:"id"`
	ContractID       uuid.UUID       `json:"contractId"`
	OldVersion       string          `json:"oldVersion"`
	NewVersion       string          `json:"newVersion"`
	ChangeType       diff.ChangeType `json:"changeType"`
	Severity         diff.Severity   `json:"severity"`
	Description      string          `json:"description"`
	AffectedEndpoint string          `json:"affectedEndpoint,omitempty"`
	AffectedField    string          `json:"affectedField,omitempty"`
	SchemaName       string          `json:"schemaName,omitempty"`
	OldValue         string          `json:"oldValue,omitempty"`
	NewValue         string          `json:"newValue,omitempty"`
	MigrationGuide   string          `json:"migrationGuide,omitempty"`
	CodeExample      string          `json:"codeExample,omitempty"`
	ImpactLevel      diff.Severity   `json:"impactLevel,omitempty"`
	DeprecationPath  string          `json:"deprecationPath,omitempty"`
	DetectedAt       time.Time       `json:"detectedAt"`
}

// ImpactRecord captures the assessed impact of one breaking change on one
// consumer.
type ImpactRecord struct {
	ID                       uuid.UUID     `json:"id"`
	ContractID               uuid.UUID     `json:"contractId"`
	BreakingChangeID         uuid.UUID     `json:"breakingChangeId"`
	ConsumerID               uuid.UUID     `json:"consumerId"`
	ConsumerName             string        `json:"consumerName"`
	ImpactScore              int           `json:"impactScore"`
	ImpactLevel              diff.Severity `json:"impactLevel"`
	Status                   ImpactStatus  `json:"status"`
	AffectedEndpoints        string        `json:"affectedEndpoints,omitempty"`
	EstimatedMigrationEffort int           `json:"estimatedMigrationEffort"`
	CreatedAt                time.Time     `json:"createdAt"`
	UpdatedAt                time.Time     `json:"updatedAt"`
}

// ChangeDetectionReport aggregates one detection run.
type ChangeDetectionReport struct {
	ContractID            uuid.UUID         `json:"contractId"`
	ContractName          string            `json:"contractName"`
	OldVersion            string            `json:"oldVersion"`
	NewVersion            string            `json:"newVersion"`
	TotalChanges          int               `json:"totalChanges"`
	CriticalChanges       int               `json:"criticalChanges"`
	HighSeverityChanges   int               `json:"highSeverityChanges"`
	MediumSeverityChanges int               `json:"mediumSeverityChanges"`
	LowSeverityChanges    int               `json:"lowSeverityChanges"`
	BreakingChanges       []*BreakingChange `json:"breakingChanges"`
	DetectedAt            time.Time         `json:"detectedAt"`
	Summary               string            `json:"summary"`
}

// ImpactAnalysisReport aggregates the consumer impact of one detection
// run.
type ImpactAnalysisReport struct {
	ContractID                    uuid.UUID       `json:"contractId"`
	ContractName                  string          `json:"contractName"`
	OldVersion                    string          `json:"oldVersion"`
	NewVersion                    string          `json:"newVersion"`
	TotalImpactedConsumers        int             `json:"totalImpactedConsumers"`
	CriticalImpactCount           int             `json:"criticalImpactCount"`
	HighImpactCount               int             `json:"highImpactCount"`
	MediumImpactCount             int             `json:"mediumImpactCount"`
	LowImpactCount                int             `json:"lowImpactCount"`
	EstimatedTotalMigrationEffort int             `json:"estimatedTotalMigrationEffort"`
	ImpactAnalyses                []*ImpactRecord `json:"impactAnalyses"`
	RecommendedDeploymentApproach string          `json:"recommendedDeploymentApproach"`
}

// changeImpactLevel derives the impact level stamped on a persisted
// change. Endpoint removals and critical-severity changes land on
// consumers hardest regardless of their individual scores.
func changeImpactLevel(c diff.Change) diff.Severity {
	if c.Type == diff.EndpointRemoved || c.Severity == diff.SeverityCritical {
		return diff.SeverityCritical
	}
	return diff.SeverityHigh
}
