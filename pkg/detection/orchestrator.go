package detection

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/contractguard/contractguard/pkg/contracts"
	"github.com/contractguard/contractguard/pkg/diff"
	"github.com/contractguard/contractguard/pkg/impact"
	"github.com/contractguard/contractguard/pkg/migration"
	"github.com/contractguard/contractguard/pkg/observability"
	"github.com/contractguard/contractguard/pkg/spec"
)

// Orchestrator runs full detection passes and serves the stored results.
//
// A run resolves two version snapshots, diffs them, bulk-persists the
// change records, fans impact analysis and guide generation out per
// change, and assembles the aggregate report. Impact records and guide
// text are independent writes per change; a failure aborts the run with
// the error but rows already written stay (re-running the pair is safe,
// every row carries its own generated identity).
type Orchestrator struct {
	registry contracts.Service
	changes  ChangeStore
	impacts  ImpactStore
	cache    *ReportCache
	differ   *diff.Engine
	analyzer *impact.Analyzer
	guides   *migration.Generator
	logger   *observability.Logger
	metrics  *observability.Metrics
}

// NewOrchestrator creates an Orchestrator. cache and metrics may be nil.
func NewOrchestrator(registry contracts.Service, changes ChangeStore, impacts ImpactStore, cache *ReportCache, logger *observability.Logger, metrics *observability.Metrics) *Orchestrator {
	return &Orchestrator{
		registry: registry,
		changes:  changes,
		impacts:  impacts,
		cache:    cache,
		differ:   diff.NewEngine(),
		analyzer: impact.NewAnalyzer(),
		guides:   migration.NewGenerator(),
		logger:   logger,
		metrics:  metrics,
	}
}

// Detect runs breaking-change detection between two published versions of
// a contract and returns the assembled report.
func (o *Orchestrator) Detect(ctx context.Context, contractID uuid.UUID, oldVersion, newVersion string) (*ChangeDetectionReport, error) {
	contract, err := o.registry.GetContract(contractID)
	if err != nil {
		return nil, err
	}
	oldSnap, err := o.registry.GetVersion(contractID, oldVersion)
	if err != nil {
		return nil, err
	}
	newSnap, err := o.registry.GetVersion(contractID, newVersion)
	if err != nil {
		return nil, err
	}

	oldDoc, err := spec.Parse(oldSnap.Spec)
	if err != nil {
		return nil, fmt.Errorf("version %s: %w", oldVersion, err)
	}
	newDoc, err := spec.Parse(newSnap.Spec)
	if err != nil {
		return nil, fmt.Errorf("version %s: %w", newVersion, err)
	}

	found := o.differ.Compare(oldDoc, newDoc)
	detectedAt := time.Now().UTC()

	records := make([]*BreakingChange, len(found))
	for i, c := range found {
		records[i] = &BreakingChange{
			ID:               uuid.New(),
			ContractID:       contractID,
			OldVersion:       oldVersion,
			NewVersion:       newVersion,
			ChangeType:       c.Type,
			Severity:         c.Severity,
			Description:      c.Description,
			AffectedEndpoint: c.AffectedEndpoint,
			AffectedField:    c.AffectedField,
			SchemaName:       c.SchemaName,
			OldValue:         c.OldValue,
			NewValue:         c.NewValue,
			MigrationGuide:   c.MigrationNote,
			ImpactLevel:      changeImpactLevel(c),
			DetectedAt:       detectedAt,
		}
	}

	if err := o.changes.BulkCreate(records); err != nil {
		return nil, err
	}

	consumers, err := o.registry.ListContractConsumers(contractID)
	if err != nil {
		return nil, err
	}
	audience := make([]impact.Consumer, len(consumers))
	for i, c := range consumers {
		audience[i] = impact.Consumer{
			ID:                 c.ID,
			Name:               c.Name,
			RegisteredVersions: c.RegisteredVersions,
		}
	}

	// Changes are independent of each other, so impact analysis and
	// guide generation run in parallel across them.
	batches := make([][]*ImpactRecord, len(records))
	var g errgroup.Group
	for i, rec := range records {
		i, rec := i, rec
		g.Go(func() error {
			change := asChange(rec)

			assessments := o.analyzer.Analyze(change, audience)
			batch := make([]*ImpactRecord, len(assessments))
			for j, a := range assessments {
				batch[j] = &ImpactRecord{
					ID:                       uuid.New(),
					ContractID:               contractID,
					BreakingChangeID:         rec.ID,
					ConsumerID:               a.Consumer.ID,
					ConsumerName:             a.Consumer.Name,
					ImpactScore:              a.Score,
					ImpactLevel:              a.Level,
					Status:                   StatusPending,
					AffectedEndpoints:        a.AffectedEndpoints,
					EstimatedMigrationEffort: a.EstimatedEffort,
					CreatedAt:                detectedAt,
					UpdatedAt:                detectedAt,
				}
			}
			batches[i] = batch

			guide := o.guides.Guide(change, rec.DeprecationPath)
			example := o.guides.CodeExample(change)
			if err := o.changes.UpdateGuides(rec.ID, guide, example); err != nil {
				return err
			}
			rec.MigrationGuide = guide
			rec.CodeExample = example
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var impactRecords []*ImpactRecord
	for _, batch := range batches {
		impactRecords = append(impactRecords, batch...)
	}
	if err := o.impacts.BulkCreate(impactRecords); err != nil {
		return nil, err
	}

	report := o.buildDetectionReport(contract, oldVersion, newVersion, records, detectedAt)

	if o.cache != nil {
		if err := o.cache.SetDetectionReport(ctx, report); err != nil {
			o.logger.WithError(err).Warn("failed to cache detection report")
		}
		// A re-detection can change the impact rows for the pair, for
		// example after new consumer registrations.
		if err := o.cache.InvalidateImpactReport(ctx, contractID, oldVersion, newVersion); err != nil {
			o.logger.WithError(err).Warn("failed to invalidate cached impact report")
		}
	}
	if o.metrics != nil {
		o.metrics.RecordDetectionRun(len(records), len(impactRecords))
		for _, rec := range records {
			o.metrics.RecordBreakingChange(string(rec.Severity))
		}
	}
	o.logger.WithFields(map[string]interface{}{
		"contract_id": contractID.String(),
		"old_version": oldVersion,
		"new_version": newVersion,
		"changes":     len(records),
		"impacts":     len(impactRecords),
	}).Info("detection run complete")

	return report, nil
}

func (o *Orchestrator) buildDetectionReport(contract *contracts.Contract, oldVersion, newVersion string, records []*BreakingChange, detectedAt time.Time) *ChangeDetectionReport {
	report := &ChangeDetectionReport{
		ContractID:      contract.ID,
		ContractName:    contract.Name,
		OldVersion:      oldVersion,
		NewVersion:      newVersion,
		TotalChanges:    len(records),
		BreakingChanges: records,
		DetectedAt:      detectedAt,
	}
	asChanges := make([]diff.Change, len(records))
	for i, rec := range records {
		asChanges[i] = asChange(rec)
		switch rec.Severity {
		case diff.SeverityCritical:
			report.CriticalChanges++
		case diff.SeverityHigh:
			report.HighSeverityChanges++
		case diff.SeverityMedium:
			report.MediumSeverityChanges++
		case diff.SeverityLow:
			report.LowSeverityChanges++
		}
	}
	report.Summary = diff.Summarize(asChanges)
	return report
}

// DetectionReport rebuilds the report for a previously detected version
// pair from the stored change records, consulting the cache first.
func (o *Orchestrator) DetectionReport(ctx context.Context, contractID uuid.UUID, oldVersion, newVersion string) (*ChangeDetectionReport, error) {
	if o.cache != nil {
		cached, err := o.cache.GetDetectionReport(ctx, contractID, oldVersion, newVersion)
		if err != nil {
			o.logger.WithError(err).Warn("detection report cache read failed")
		} else if cached != nil {
			return cached, nil
		}
	}

	contract, err := o.registry.GetContract(contractID)
	if err != nil {
		return nil, err
	}
	records, err := o.changes.FindByVersionPair(contractID, oldVersion, newVersion)
	if err != nil {
		return nil, err
	}

	detectedAt := time.Now().UTC()
	if len(records) > 0 {
		detectedAt = records[0].DetectedAt
	}
	report := o.buildDetectionReport(contract, oldVersion, newVersion, records, detectedAt)

	if o.cache != nil {
		if err := o.cache.SetDetectionReport(ctx, report); err != nil {
			o.logger.WithError(err).Warn("failed to cache detection report")
		}
	}
	return report, nil
}

// ImpactReport assembles the consumer impact report for a previously
// detected version pair.
func (o *Orchestrator) ImpactReport(ctx context.Context, contractID uuid.UUID, oldVersion, newVersion string) (*ImpactAnalysisReport, error) {
	if o.cache != nil {
		cached, err := o.cache.GetImpactReport(ctx, contractID, oldVersion, newVersion)
		if err != nil {
			o.logger.WithError(err).Warn("impact report cache read failed")
		} else if cached != nil {
			return cached, nil
		}
	}

	contract, err := o.registry.GetContract(contractID)
	if err != nil {
		return nil, err
	}
	records, err := o.impacts.FindByVersionPair(contractID, oldVersion, newVersion)
	if err != nil {
		return nil, err
	}

	report := &ImpactAnalysisReport{
		ContractID:     contract.ID,
		ContractName:   contract.Name,
		OldVersion:     oldVersion,
		NewVersion:     newVersion,
		ImpactAnalyses: records,
	}
	consumers := map[uuid.UUID]struct{}{}
	for _, r := range records {
		consumers[r.ConsumerID] = struct{}{}
		report.EstimatedTotalMigrationEffort += r.EstimatedMigrationEffort
		switch r.ImpactLevel {
		case diff.SeverityCritical:
			report.CriticalImpactCount++
		case diff.SeverityHigh:
			report.HighImpactCount++
		case diff.SeverityMedium:
			report.MediumImpactCount++
		case diff.SeverityLow:
			report.LowImpactCount++
		}
	}
	report.TotalImpactedConsumers = len(consumers)
	report.RecommendedDeploymentApproach = impact.Recommend(report.CriticalImpactCount, report.HighImpactCount)

	if o.cache != nil {
		if err := o.cache.SetImpactReport(ctx, report); err != nil {
			o.logger.WithError(err).Warn("failed to cache impact report")
		}
	}
	return report, nil
}

// ChangesForContract returns all stored changes for a contract.
func (o *Orchestrator) ChangesForContract(contractID uuid.UUID) ([]*BreakingChange, error) {
	if _, err := o.registry.GetContract(contractID); err != nil {
		return nil, err
	}
	return o.changes.FindByContract(contractID)
}

// ChangesBetweenVersions returns the stored changes of one comparison run.
func (o *Orchestrator) ChangesBetweenVersions(contractID uuid.UUID, oldVersion, newVersion string) ([]*BreakingChange, error) {
	return o.changes.FindByVersionPair(contractID, oldVersion, newVersion)
}

// ChangesBySeverity returns a contract's stored changes at one severity.
func (o *Orchestrator) ChangesBySeverity(contractID uuid.UUID, severity diff.Severity) ([]*BreakingChange, error) {
	return o.changes.FindBySeverity(contractID, severity)
}

// GetChange returns one stored change in full detail.
func (o *Orchestrator) GetChange(id uuid.UUID) (*BreakingChange, error) {
	return o.changes.GetByID(id)
}

// ImpactsForContract returns all impact records for a contract.
func (o *Orchestrator) ImpactsForContract(contractID uuid.UUID) ([]*ImpactRecord, error) {
	if _, err := o.registry.GetContract(contractID); err != nil {
		return nil, err
	}
	return o.impacts.FindByContract(contractID)
}

// ImpactsForConsumer returns a consumer's impact history.
func (o *Orchestrator) ImpactsForConsumer(consumerID uuid.UUID) ([]*ImpactRecord, error) {
	if _, err := o.registry.GetConsumer(consumerID); err != nil {
		return nil, err
	}
	return o.impacts.FindByConsumer(consumerID)
}

// UpdateImpactStatus transitions an impact record's status.
func (o *Orchestrator) UpdateImpactStatus(id uuid.UUID, status ImpactStatus) (*ImpactRecord, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("invalid impact status %q", status)
	}
	return o.impacts.UpdateStatus(id, status)
}

// RegenerateGuides rebuilds migration guide and code example text for all
// of a contract's stored changes and returns the number updated.
func (o *Orchestrator) RegenerateGuides(contractID uuid.UUID) (int, error) {
	records, err := o.ChangesForContract(contractID)
	if err != nil {
		return 0, err
	}
	for _, rec := range records {
		change := asChange(rec)
		guide := o.guides.Guide(change, rec.DeprecationPath)
		example := o.guides.CodeExample(change)
		if err := o.changes.UpdateGuides(rec.ID, guide, example); err != nil {
			return 0, err
		}
	}
	return len(records), nil
}

// PurgeContract deletes all detection history for a contract and
// invalidates its cached reports. Returns the number of change records
// removed.
func (o *Orchestrator) PurgeContract(ctx context.Context, contractID uuid.UUID) (int64, error) {
	if _, err := o.impacts.DeleteByContract(contractID); err != nil {
		return 0, err
	}
	removed, err := o.changes.DeleteByContract(contractID)
	if err != nil {
		return 0, err
	}
	if o.cache != nil {
		if err := o.cache.InvalidateContract(ctx, contractID); err != nil {
			o.logger.WithError(err).Warn("failed to invalidate cached reports")
		}
	}
	return removed, nil
}

// asChange reconstructs the in-memory change a stored record was built
// from, for re-running the pure analysis and generation functions.
func asChange(rec *BreakingChange) diff.Change {
	return diff.Change{
		Type:             rec.ChangeType,
		Severity:         rec.Severity,
		Description:      rec.Description,
		AffectedEndpoint: rec.AffectedEndpoint,
		AffectedField:    rec.AffectedField,
		SchemaName:       rec.SchemaName,
		OldValue:         rec.OldValue,
		NewValue:         rec.NewValue,
	}
}
