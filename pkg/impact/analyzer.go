// Package impact scores how severely a breaking change affects each
// registered consumer of a contract. All computations are pure: the base
// score for a change is computed once and shared read-only across the
// per-consumer fan-out.
package impact

import (
	"github.com/google/uuid"

	"github.com/contractguard/contractguard/pkg/diff"
)

// Score and effort bounds. Scores clamp to [0,100], effort to [0,10].
const (
	MaxScore  = 100
	MaxEffort = 10
)

// Consumer is the view of a downstream caller the analyzer needs:
// identity plus how many contract versions it has registered against.
type Consumer struct {
	ID                 uuid.UUID
	Name               string
	RegisteredVersions int
}

// Assessment is the analyzer's verdict for one (change, consumer) pair.
type Assessment struct {
	Consumer          Consumer
	Score             int
	Level             diff.Severity
	EstimatedEffort   int
	AffectedEndpoints string
}

// Analyzer converts classified changes into per-consumer assessments.
type Analyzer struct{}

// NewAnalyzer creates an impact analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Analyze scores one change against every consumer. The base score is
// computed once; each consumer's assessment is an independent pure function
// of it.
func (a *Analyzer) Analyze(change diff.Change, consumers []Consumer) []Assessment {
	base := a.BaseScore(change)

	assessments := make([]Assessment, 0, len(consumers))
	for _, consumer := range consumers {
		score := a.ConsumerScore(base, consumer)
		assessments = append(assessments, Assessment{
			Consumer:          consumer,
			Score:             score,
			Level:             LevelFor(score),
			EstimatedEffort:   a.EstimateEffort(change, consumer),
			AffectedEndpoints: affectedEndpoints(change),
		})
	}
	return assessments
}

// BaseScore computes the consumer-independent score for a change: a
// severity component plus a change-type bonus, clamped to MaxScore.
func (a *Analyzer) BaseScore(change diff.Change) int {
	score := 0

	switch change.Severity {
	case diff.SeverityCritical:
		score = 100
	case diff.SeverityHigh:
		score = 75
	case diff.SeverityMedium:
		score = 50
	case diff.SeverityLow:
		score = 25
	}

	switch change.Type {
	case diff.EndpointRemoved:
		score += 50
	case diff.MethodRemoved:
		score += 40
	case diff.FieldRemoved:
		score += 30
	case diff.TypeChanged:
		score += 35
	case diff.FieldRequired:
		score += 25
	}

	return min(score, MaxScore)
}

// ConsumerScore adjusts the base score for one consumer: any registered
// version history adds 20, clamped to MaxScore.
func (a *Analyzer) ConsumerScore(base int, consumer Consumer) int {
	if consumer.RegisteredVersions > 0 {
		return min(base+20, MaxScore)
	}
	return base
}

// LevelFor maps a score onto the four-level impact scale.
func LevelFor(score int) diff.Severity {
	switch {
	case score >= 80:
		return diff.SeverityCritical
	case score >= 60:
		return diff.SeverityHigh
	case score >= 40:
		return diff.SeverityMedium
	default:
		return diff.SeverityLow
	}
}

// EstimateEffort estimates migration effort in abstract units. Consumers
// spread across more than one contract version pay a coordination surcharge.
func (a *Analyzer) EstimateEffort(change diff.Change, consumer Consumer) int {
	effort := 2

	switch change.Type {
	case diff.EndpointRemoved:
		effort = 8
	case diff.MethodRemoved:
		effort = 6
	case diff.TypeChanged:
		effort = 5
	case diff.FieldRemoved:
		effort = 4
	case diff.FieldRequired:
		effort = 3
	}

	if consumer.RegisteredVersions > 1 {
		effort += 2
	}

	return min(effort, MaxEffort)
}

func affectedEndpoints(change diff.Change) string {
	if change.AffectedEndpoint != "" {
		return change.AffectedEndpoint
	}
	return "Multiple endpoints"
}

// MeanScore averages impact scores across assessments, zero when empty.
func MeanScore(assessments []Assessment) int {
	if len(assessments) == 0 {
		return 0
	}
	total := 0
	for _, a := range assessments {
		total += a.Score
	}
	return total / len(assessments)
}

// CountByLevel counts assessments at a given impact level.
func CountByLevel(assessments []Assessment, level diff.Severity) int {
	count := 0
	for _, a := range assessments {
		if a.Level == level {
			count++
		}
	}
	return count
}

// Recommend derives a deployment posture from the critical and high impact
// counts. Any critical impact short-circuits every other rule.
func Recommend(criticalCount, highCount int) string {
	switch {
	case criticalCount > 0:
		return "BLOCK_DEPLOYMENT - Critical impacts detected. Coordinate with affected consumers before deployment."
	case highCount >= 3:
		return "REQUIRE_APPROVAL - High impacts detected. Requires approval from affected teams and coordinator."
	case highCount > 0:
		return "NOTIFY_CONSUMERS - High impacts detected. Send advance notifications to affected consumers (48 hours)."
	default:
		return "PROCEED_WITH_CAUTION - Minor impacts detected. Proceed but monitor closely and provide support."
	}
}

// RecommendFor is Recommend computed from a set of assessments.
func RecommendFor(assessments []Assessment) string {
	return Recommend(
		CountByLevel(assessments, diff.SeverityCritical),
		CountByLevel(assessments, diff.SeverityHigh),
	)
}
