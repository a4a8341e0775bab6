package detection

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/contractguard/contractguard/pkg/diff"
)

// ChangeStore persists breaking-change records.
type ChangeStore interface {
	BulkCreate(changes []*BreakingChange) error
	GetByID(id uuid.UUID) (*BreakingChange, error)
	FindByContract(contractID uuid.UUID) ([]*BreakingChange, error)
	FindByVersionPair(contractID uuid.UUID, oldVersion, newVersion string) ([]*BreakingChange, error)
	FindBySeverity(contractID uuid.UUID, severity diff.Severity) ([]*BreakingChange, error)
	UpdateGuides(id uuid.UUID, guide, example string) error
	DeleteByContract(contractID uuid.UUID) (int64, error)
}

// ImpactStore persists consumer impact records.
type ImpactStore interface {
	BulkCreate(records []*ImpactRecord) error
	FindByContract(contractID uuid.UUID) ([]*ImpactRecord, error)
	FindByConsumer(consumerID uuid.UUID) ([]*ImpactRecord, error)
	FindByVersionPair(contractID uuid.UUID, oldVersion, newVersion string) ([]*ImpactRecord, error)
	UpdateStatus(id uuid.UUID, status ImpactStatus) (*ImpactRecord, error)
	DeleteByContract(contractID uuid.UUID) (int64, error)
}

const changeColumns = `id, contract_id, old_version, new_version, change_type, severity,
	       description, affected_endpoint, affected_field, schema_name, old_value, new_value,
	       migration_guide, code_example, impact_level, deprecation_path, detected_at`

// PostgresChangeStore implements ChangeStore on PostgreSQL.
type PostgresChangeStore struct {
	db *sql.DB
}

// NewPostgresChangeStore creates a new PostgresChangeStore.
func NewPostgresChangeStore(db *sql.DB) *PostgresChangeStore {
	return &PostgresChangeStore{db: db}
}

// BulkCreate inserts all changes from one detection run in a single
// transaction so a run never persists a partial change set.
func (s *PostgresChangeStore) BulkCreate(changes []*BreakingChange) error {
	if len(changes) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO breaking_changes (id, contract_id, old_version, new_version, change_type,
			severity, description, affected_endpoint, affected_field, schema_name, old_value,
			new_value, migration_guide, code_example, impact_level, deprecation_path, detected_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range changes {
		_, err := stmt.Exec(c.ID, c.ContractID, c.OldVersion, c.NewVersion, c.ChangeType,
			c.Severity, c.Description, c.AffectedEndpoint, c.AffectedField, c.SchemaName,
			c.OldValue, c.NewValue, c.MigrationGuide, c.CodeExample, c.ImpactLevel,
			c.DeprecationPath, c.DetectedAt)
		if err != nil {
			return fmt.Errorf("failed to insert breaking change: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit breaking changes: %w", err)
	}
	return nil
}

// GetByID retrieves one breaking change.
func (s *PostgresChangeStore) GetByID(id uuid.UUID) (*BreakingChange, error) {
	query := `
		SELECT ` + changeColumns + `
		FROM breaking_changes
		WHERE id = $1
	`
	change, err := scanChange(s.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("breaking change %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get breaking change: %w", err)
	}
	return change, nil
}

// FindByContract returns all changes recorded for a contract, newest
// first.
func (s *PostgresChangeStore) FindByContract(contractID uuid.UUID) ([]*BreakingChange, error) {
	query := `
		SELECT ` + changeColumns + `
		FROM breaking_changes
		WHERE contract_id = $1
		ORDER BY detected_at DESC
	`
	return s.queryChanges(query, contractID)
}

// FindByVersionPair returns the changes of one comparison run in
// detection order.
func (s *PostgresChangeStore) FindByVersionPair(contractID uuid.UUID, oldVersion, newVersion string) ([]*BreakingChange, error) {
	query := `
		SELECT ` + changeColumns + `
		FROM breaking_changes
		WHERE contract_id = $1 AND old_version = $2 AND new_version = $3
		ORDER BY detected_at, id
	`
	return s.queryChanges(query, contractID, oldVersion, newVersion)
}

// FindBySeverity returns a contract's changes at one severity.
func (s *PostgresChangeStore) FindBySeverity(contractID uuid.UUID, severity diff.Severity) ([]*BreakingChange, error) {
	query := `
		SELECT ` + changeColumns + `
		FROM breaking_changes
		WHERE contract_id = $1 AND severity = $2
		ORDER BY detected_at DESC
	`
	return s.queryChanges(query, contractID, severity)
}

// UpdateGuides attaches generated migration guide and code example text
// to a stored change.
func (s *PostgresChangeStore) UpdateGuides(id uuid.UUID, guide, example string) error {
	result, err := s.db.Exec(`
		UPDATE breaking_changes
		SET migration_guide = $2, code_example = $3
		WHERE id = $1
	`, id, guide, example)
	if err != nil {
		return fmt.Errorf("failed to update migration guide: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("breaking change %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteByContract purges all change records for a contract and returns
// the number deleted.
func (s *PostgresChangeStore) DeleteByContract(contractID uuid.UUID) (int64, error) {
	result, err := s.db.Exec(`DELETE FROM breaking_changes WHERE contract_id = $1`, contractID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete breaking changes: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted breaking changes: %w", err)
	}
	return n, nil
}

func (s *PostgresChangeStore) queryChanges(query string, args ...interface{}) ([]*BreakingChange, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query breaking changes: %w", err)
	}
	defer rows.Close()

	changes := []*BreakingChange{}
	for rows.Next() {
		change, err := scanChange(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan breaking change: %w", err)
		}
		changes = append(changes, change)
	}
	return changes, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanChange(row rowScanner) (*BreakingChange, error) {
	c := &BreakingChange{}
	err := row.Scan(
		&c.ID, &c.ContractID, &c.OldVersion, &c.NewVersion, &c.ChangeType, &c.Severity,
		&c.Description, &c.AffectedEndpoint, &c.AffectedField, &c.SchemaName, &c.OldValue,
		&c.NewValue, &c.MigrationGuide, &c.CodeExample, &c.ImpactLevel, &c.DeprecationPath,
		&c.DetectedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

const impactColumns = `id, contract_id, breaking_change_id, consumer_id, consumer_name,
	       impact_score, impact_level, status, affected_endpoints,
	       estimated_migration_effort, created_at, updated_at`

// PostgresImpactStore implements ImpactStore on PostgreSQL.
type PostgresImpactStore struct {
	db *sql.DB
}

// NewPostgresImpactStore creates a new PostgresImpactStore.
func NewPostgresImpactStore(db *sql.DB) *PostgresImpactStore {
	return &PostgresImpactStore{db: db}
}

// BulkCreate inserts a batch of impact records in one transaction.
func (s *PostgresImpactStore) BulkCreate(records []*ImpactRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO impact_records (id, contract_id, breaking_change_id, consumer_id,
			consumer_name, impact_score, impact_level, status, affected_endpoints,
			estimated_migration_effort, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		_, err := stmt.Exec(r.ID, r.ContractID, r.BreakingChangeID, r.ConsumerID,
			r.ConsumerName, r.ImpactScore, r.ImpactLevel, r.Status, r.AffectedEndpoints,
			r.EstimatedMigrationEffort, r.CreatedAt, r.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert impact record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit impact records: %w", err)
	}
	return nil
}

// FindByContract returns all impact records for a contract, highest score
// first.
func (s *PostgresImpactStore) FindByContract(contractID uuid.UUID) ([]*ImpactRecord, error) {
	query := `
		SELECT ` + impactColumns + `
		FROM impact_records
		WHERE contract_id = $1
		ORDER BY impact_score DESC, created_at DESC
	`
	return s.queryRecords(query, contractID)
}

// FindByConsumer returns a consumer's impact history across all
// contracts.
func (s *PostgresImpactStore) FindByConsumer(consumerID uuid.UUID) ([]*ImpactRecord, error) {
	query := `
		SELECT ` + impactColumns + `
		FROM impact_records
		WHERE consumer_id = $1
		ORDER BY created_at DESC
	`
	return s.queryRecords(query, consumerID)
}

// FindByVersionPair returns the impact records attached to one comparison
// run's changes.
func (s *PostgresImpactStore) FindByVersionPair(contractID uuid.UUID, oldVersion, newVersion string) ([]*ImpactRecord, error) {
	query := `
		SELECT i.id, i.contract_id, i.breaking_change_id, i.consumer_id, i.consumer_name,
		       i.impact_score, i.impact_level, i.status, i.affected_endpoints,
		       i.estimated_migration_effort, i.created_at, i.updated_at
		FROM impact_records i
		JOIN breaking_changes c ON c.id = i.breaking_change_id
		WHERE i.contract_id = $1 AND c.old_version = $2 AND c.new_version = $3
		ORDER BY i.impact_score DESC, i.created_at
	`
	return s.queryRecords(query, contractID, oldVersion, newVersion)
}

// UpdateStatus transitions an impact record's status and returns the
// updated record.
func (s *PostgresImpactStore) UpdateStatus(id uuid.UUID, status ImpactStatus) (*ImpactRecord, error) {
	query := `
		UPDATE impact_records
		SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + impactColumns + `
	`
	record, err := scanRecord(s.db.QueryRow(query, id, status))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("impact record %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update impact status: %w", err)
	}
	return record, nil
}

// DeleteByContract purges all impact records for a contract.
func (s *PostgresImpactStore) DeleteByContract(contractID uuid.UUID) (int64, error) {
	result, err := s.db.Exec(`DELETE FROM impact_records WHERE contract_id = $1`, contractID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete impact records: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted impact records: %w", err)
	}
	return n, nil
}

func (s *PostgresImpactStore) queryRecords(query string, args ...interface{}) ([]*ImpactRecord, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query impact records: %w", err)
	}
	defer rows.Close()

	records := []*ImpactRecord{}
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan impact record: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func scanRecord(row rowScanner) (*ImpactRecord, error) {
	r := &ImpactRecord{}
	err := row.Scan(
		&r.ID, &r.ContractID, &r.BreakingChangeID, &r.ConsumerID, &r.ConsumerName,
		&r.ImpactScore, &r.ImpactLevel, &r.Status, &r.AffectedEndpoints,
		&r.EstimatedMigrationEffort, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return r, nil
}
