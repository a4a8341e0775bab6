package contracts

import (
	"context"
	"database/sql"
	"fmt"
)

// Migration represents a database migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// GetMigrations returns all registry and detection migrations
func GetMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create contracts table",
			SQL: `
				CREATE TABLE IF NOT EXISTS contracts (
					id UUID PRIMARY KEY,
					organization_id UUID NOT NULL,
					name VARCHAR(255) NOT NULL,
					description TEXT,
					version VARCHAR(100) NOT NULL,
					status VARCHAR(50) NOT NULL DEFAULT 'DRAFT',
					base_path VARCHAR(255),
					openapi_spec JSONB NOT NULL,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					UNIQUE(name, organization_id)
				);

				CREATE INDEX IF NOT EXISTS idx_contracts_organization_id ON contracts(organization_id);
				CREATE INDEX IF NOT EXISTS idx_contracts_status ON contracts(status);
			`,
		},
		{
			Version:     2,
			Description: "Create contract_versions table",
			SQL: `
				CREATE TABLE IF NOT EXISTS contract_versions (
					id UUID PRIMARY KEY,
					contract_id UUID NOT NULL REFERENCES contracts(id) ON DELETE CASCADE,
					version VARCHAR(100) NOT NULL,
					openapi_spec JSONB NOT NULL,
					changelog TEXT,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					UNIQUE(contract_id, version)
				);

				CREATE INDEX IF NOT EXISTS idx_contract_versions_contract_id ON contract_versions(contract_id);
			`,
		},
		{
			Version:     3,
			Description: "Create consumers table",
			SQL: `
				CREATE TABLE IF NOT EXISTS consumers (
					id UUID PRIMARY KEY,
					organization_id UUID NOT NULL,
					name VARCHAR(255) NOT NULL,
					description TEXT,
					contact_email VARCHAR(255),
					contact_name VARCHAR(255),
					consumer_type VARCHAR(50) NOT NULL DEFAULT 'SERVICE',
					is_active BOOLEAN NOT NULL DEFAULT TRUE,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					UNIQUE(name, organization_id)
				);

				CREATE INDEX IF NOT EXISTS idx_consumers_organization_id ON consumers(organization_id);
			`,
		},
		{
			Version:     4,
			Description: "Create consumer_registrations table",
			SQL: `
				CREATE TABLE IF NOT EXISTS consumer_registrations (
					id UUID PRIMARY KEY,
					consumer_id UUID NOT NULL REFERENCES consumers(id) ON DELETE CASCADE,
					contract_id UUID NOT NULL REFERENCES contracts(id) ON DELETE CASCADE,
					version_subscribed_to VARCHAR(100) NOT NULL,
					status VARCHAR(50) NOT NULL DEFAULT 'ACTIVE',
					subscribed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					UNIQUE(consumer_id, contract_id, version_subscribed_to)
				);

				CREATE INDEX IF NOT EXISTS idx_consumer_registrations_contract_id ON consumer_registrations(contract_id);
				CREATE INDEX IF NOT EXISTS idx_consumer_registrations_consumer_id ON consumer_registrations(consumer_id);
			`,
		},
		{
			Version:     5,
			Description: "Create breaking_changes table",
			SQL: `
				CREATE TABLE IF NOT EXISTS breaking_changes (
					id UUID PRIMARY KEY,
					contract_id UUID NOT NULL REFERENCES contracts(id) ON DELETE CASCADE,
					old_version VARCHAR(100) NOT NULL,
					new_version VARCHAR(100) NOT NULL,
					change_type VARCHAR(50) NOT NULL,
					severity VARCHAR(50) NOT NULL,
					description TEXT,
					affected_endpoint VARCHAR(1024),
					affected_field VARCHAR(255),
					schema_name VARCHAR(255),
					old_value TEXT,
					new_value TEXT,
					migration_guide TEXT,
					code_example TEXT,
					impact_level VARCHAR(50) NOT NULL,
					deprecation_path TEXT,
					detected_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);

				CREATE INDEX IF NOT EXISTS idx_breaking_changes_contract_id ON breaking_changes(contract_id);
				CREATE INDEX IF NOT EXISTS idx_breaking_changes_versions ON breaking_changes(contract_id, old_version, new_version);
				CREATE INDEX IF NOT EXISTS idx_breaking_changes_severity ON breaking_changes(severity);
			`,
		},
		{
			Version:     6,
			Description: "Create impact_records table",
			SQL: `
				CREATE TABLE IF NOT EXISTS impact_records (
					id UUID PRIMARY KEY,
					contract_id UUID NOT NULL REFERENCES contracts(id) ON DELETE CASCADE,
					breaking_change_id UUID NOT NULL REFERENCES breaking_changes(id) ON DELETE CASCADE,
					consumer_id UUID NOT NULL REFERENCES consumers(id) ON DELETE CASCADE,
					consumer_name VARCHAR(255) NOT NULL,
					impact_score INT NOT NULL,
					impact_level VARCHAR(50) NOT NULL,
					status VARCHAR(50) NOT NULL DEFAULT 'PENDING',
					affected_endpoints TEXT,
					estimated_migration_effort INT NOT NULL,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);

				CREATE INDEX IF NOT EXISTS idx_impact_records_contract_id ON impact_records(contract_id);
				CREATE INDEX IF NOT EXISTS idx_impact_records_consumer_id ON impact_records(consumer_id);
				CREATE INDEX IF NOT EXISTS idx_impact_records_change_id ON impact_records(breaking_change_id);
			`,
		},
	}
}

// RunMigrations executes all pending migrations
func RunMigrations(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS contractguard_migrations (
			version INT PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied := make(map[int]bool)
	rows, err := db.QueryContext(ctx, "SELECT version FROM contractguard_migrations")
	if err != nil {
		return fmt.Errorf("failed to query applied migrations: %w", err)
	}
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read applied migrations: %w", err)
	}

	for _, migration := range GetMigrations() {
		if applied[migration.Version] {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to start transaction: %w", err)
		}

		if _, err := tx.ExecContext(ctx, migration.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %d: %w", migration.Version, err)
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO contractguard_migrations (version, description) VALUES ($1, $2)",
			migration.Version, migration.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}
