package detection

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contractguard/contractguard/pkg/diff"
)

var changeRowColumns = []string{
	"id", "contract_id", "old_version", "new_version", "change_type", "severity",
	"description", "affected_endpoint", "affected_field", "schema_name", "old_value",
	"new_value", "migration_guide", "code_example", "impact_level", "deprecation_path",
	"detected_at",
}

var impactRowColumns = []string{
	"id", "contract_id", "breaking_change_id", "consumer_id", "consumer_name",
	"impact_score", "impact_level", "status", "affected_endpoints",
	"estimated_migration_effort", "created_at", "updated_at",
}

func addChangeRow(rows *sqlmock.Rows, c *BreakingChange) {
	rows.AddRow(c.ID, c.ContractID, c.OldVersion, c.NewVersion, c.ChangeType, c.Severity,
		c.Description, c.AffectedEndpoint, c.AffectedField, c.SchemaName, c.OldValue,
		c.NewValue, c.MigrationGuide, c.CodeExample, c.ImpactLevel, c.DeprecationPath,
		c.DetectedAt)
}

func sampleChange(contractID uuid.UUID) *BreakingChange {
	return &BreakingChange{
		ID:               uuid.New(),
		ContractID:       contractID,
		OldVersion:       "1.0.0",
		NewVersion:       "2.0.0",
		ChangeType:       diff.EndpointRemoved,
		Severity:         diff.SeverityCritical,
		Description:      "Endpoint '/api/orders' has been removed",
		AffectedEndpoint: "/api/orders",
		ImpactLevel:      diff.SeverityCritical,
		DetectedAt:       time.Now().UTC(),
	}
}

func TestChangeStoreBulkCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresChangeStore(db)
	contractID := uuid.New()
	changes := []*BreakingChange{sampleChange(contractID), sampleChange(contractID)}

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO breaking_changes")
	for range changes {
		prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	require.NoError(t, store.BulkCreate(changes))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChangeStoreBulkCreateEmptyIsNoop(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresChangeStore(db)
	require.NoError(t, store.BulkCreate(nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChangeStoreBulkCreateRollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresChangeStore(db)
	changes := []*BreakingChange{sampleChange(uuid.New())}

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO breaking_changes")
	prep.ExpectExec().WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	err = store.BulkCreate(changes)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert breaking change")
}

func TestChangeStoreGetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresChangeStore(db)
	change := sampleChange(uuid.New())

	rows := sqlmock.NewRows(changeRowColumns)
	addChangeRow(rows, change)
	mock.ExpectQuery("SELECT (.+) FROM breaking_changes").
		WithArgs(change.ID).
		WillReturnRows(rows)

	got, err := store.GetByID(change.ID)
	require.NoError(t, err)
	assert.Equal(t, change.ID, got.ID)
	assert.Equal(t, diff.EndpointRemoved, got.ChangeType)
	assert.Equal(t, "/api/orders", got.AffectedEndpoint)
}

func TestChangeStoreGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresChangeStore(db)
	id := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM breaking_changes").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(changeRowColumns))

	_, err = store.GetByID(id)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestChangeStoreFindByVersionPair(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresChangeStore(db)
	contractID := uuid.New()

	rows := sqlmock.NewRows(changeRowColumns)
	addChangeRow(rows, sampleChange(contractID))
	addChangeRow(rows, sampleChange(contractID))
	mock.ExpectQuery("SELECT (.+) FROM breaking_changes").
		WithArgs(contractID, "1.0.0", "2.0.0").
		WillReturnRows(rows)

	changes, err := store.FindByVersionPair(contractID, "1.0.0", "2.0.0")
	require.NoError(t, err)
	assert.Len(t, changes, 2)
}

func TestChangeStoreFindBySeverity(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresChangeStore(db)
	contractID := uuid.New()

	rows := sqlmock.NewRows(changeRowColumns)
	addChangeRow(rows, sampleChange(contractID))
	mock.ExpectQuery("SELECT (.+) FROM breaking_changes").
		WithArgs(contractID, diff.SeverityCritical).
		WillReturnRows(rows)

	changes, err := store.FindBySeverity(contractID, diff.SeverityCritical)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, diff.SeverityCritical, changes[0].Severity)
}

func TestChangeStoreUpdateGuides(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresChangeStore(db)
	id := uuid.New()

	mock.ExpectExec("UPDATE breaking_changes").
		WithArgs(id, "guide text", "example text").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.UpdateGuides(id, "guide text", "example text"))
}

func TestChangeStoreUpdateGuidesNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresChangeStore(db)
	id := uuid.New()

	mock.ExpectExec("UPDATE breaking_changes").
		WithArgs(id, "g", "e").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = store.UpdateGuides(id, "g", "e")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestChangeStoreDeleteByContract(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresChangeStore(db)
	contractID := uuid.New()

	mock.ExpectExec("DELETE FROM breaking_changes").
		WithArgs(contractID).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := store.DeleteByContract(contractID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func sampleRecord(contractID uuid.UUID) *ImpactRecord {
	now := time.Now().UTC()
	return &ImpactRecord{
		ID:                       uuid.New(),
		ContractID:               contractID,
		BreakingChangeID:         uuid.New(),
		ConsumerID:               uuid.New(),
		ConsumerName:             "billing-service",
		ImpactScore:              95,
		ImpactLevel:              diff.SeverityCritical,
		Status:                   StatusPending,
		AffectedEndpoints:        "/api/orders",
		EstimatedMigrationEffort: 8,
		CreatedAt:                now,
		UpdatedAt:                now,
	}
}

func addRecordRow(rows *sqlmock.Rows, r *ImpactRecord) {
	rows.AddRow(r.ID, r.ContractID, r.BreakingChangeID, r.ConsumerID, r.ConsumerName,
		r.ImpactScore, r.ImpactLevel, r.Status, r.AffectedEndpoints,
		r.EstimatedMigrationEffort, r.CreatedAt, r.UpdatedAt)
}

func TestImpactStoreBulkCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresImpactStore(db)
	contractID := uuid.New()
	records := []*ImpactRecord{sampleRecord(contractID), sampleRecord(contractID)}

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO impact_records")
	for range records {
		prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	require.NoError(t, store.BulkCreate(records))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImpactStoreFindByContract(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresImpactStore(db)
	contractID := uuid.New()

	rows := sqlmock.NewRows(impactRowColumns)
	addRecordRow(rows, sampleRecord(contractID))
	mock.ExpectQuery("SELECT (.+) FROM impact_records").
		WithArgs(contractID).
		WillReturnRows(rows)

	records, err := store.FindByContract(contractID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "billing-service", records[0].ConsumerName)
	assert.Equal(t, StatusPending, records[0].Status)
}

func TestImpactStoreFindByVersionPair(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresImpactStore(db)
	contractID := uuid.New()

	rows := sqlmock.NewRows(impactRowColumns)
	addRecordRow(rows, sampleRecord(contractID))
	mock.ExpectQuery("SELECT (.+) FROM impact_records i JOIN breaking_changes c").
		WithArgs(contractID, "1.0.0", "2.0.0").
		WillReturnRows(rows)

	records, err := store.FindByVersionPair(contractID, "1.0.0", "2.0.0")
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestImpactStoreUpdateStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresImpactStore(db)
	record := sampleRecord(uuid.New())
	record.Status = StatusAcknowledged

	rows := sqlmock.NewRows(impactRowColumns)
	addRecordRow(rows, record)
	mock.ExpectQuery("UPDATE impact_records").
		WithArgs(record.ID, StatusAcknowledged).
		WillReturnRows(rows)

	got, err := store.UpdateStatus(record.ID, StatusAcknowledged)
	require.NoError(t, err)
	assert.Equal(t, StatusAcknowledged, got.Status)
}

func TestImpactStoreUpdateStatusNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresImpactStore(db)
	id := uuid.New()

	mock.ExpectQuery("UPDATE impact_records").
		WithArgs(id, StatusMigrated).
		WillReturnRows(sqlmock.NewRows(impactRowColumns))

	_, err = store.UpdateStatus(id, StatusMigrated)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestImpactStoreDeleteByContract(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresImpactStore(db)
	contractID := uuid.New()

	mock.ExpectExec("DELETE FROM impact_records").
		WithArgs(contractID).
		WillReturnResult(sqlmock.NewResult(0, 7))

	n, err := store.DeleteByContract(contractID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
}
