// Package contracts implements the contract and consumer registry backed
// by PostgreSQL. Contracts carry their current OpenAPI document; every
// published version also writes an immutable snapshot row so change
// detection can compare real historical documents.
package contracts

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// PostgresService implements Service using PostgreSQL.
type PostgresService struct {
	db *sql.DB
}

// NewPostgresService creates a new PostgresService.
func NewPostgresService(db *sql.DB) *PostgresService {
	return &PostgresService{db: db}
}

// CreateContract registers a contract and records the initial version
// snapshot.
func (s *PostgresService) CreateContract(req *CreateContractRequest) (*Contract, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("contract name is required")
	}
	if req.Version == "" {
		return nil, fmt.Errorf("contract version is required")
	}
	if len(req.Spec) == 0 {
		return nil, fmt.Errorf("openapi_spec is required")
	}

	contract := &Contract{
		ID:             uuid.New(),
		OrganizationID: req.OrganizationID,
		Name:           req.Name,
		Description:    req.Description,
		Version:        req.Version,
		Status:         ContractStatusDraft,
		BasePath:       req.BasePath,
		Spec:           req.Spec,
	}

	query := `
		INSERT INTO contracts (id, organization_id, name, description, version, status, base_path, openapi_spec)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`
	err := s.db.QueryRow(query, contract.ID, contract.OrganizationID, contract.Name,
		contract.Description, contract.Version, contract.Status, contract.BasePath,
		[]byte(contract.Spec)).
		Scan(&contract.CreatedAt, &contract.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create contract: %w", err)
	}

	if _, err := s.insertVersion(contract.ID, contract.Version, contract.Spec, "Initial version"); err != nil {
		return nil, err
	}

	return contract, nil
}

// GetContract retrieves a contract by ID.
func (s *PostgresService) GetContract(id uuid.UUID) (*Contract, error) {
	query := `
		SELECT id, organization_id, name, description, version, status, base_path,
		       openapi_spec, created_at, updated_at
		FROM contracts
		WHERE id = $1
	`
	contract := &Contract{}
	var specBytes []byte
	err := s.db.QueryRow(query, id).Scan(
		&contract.ID, &contract.OrganizationID, &contract.Name, &contract.Description,
		&contract.Version, &contract.Status, &contract.BasePath, &specBytes,
		&contract.CreatedAt, &contract.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("contract %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contract: %w", err)
	}
	contract.Spec = specBytes

	return contract, nil
}

// ListContracts returns all contracts belonging to an organization, newest
// first.
func (s *PostgresService) ListContracts(orgID uuid.UUID) ([]*Contract, error) {
	query := `
		SELECT id, organization_id, name, description, version, status, base_path,
		       openapi_spec, created_at, updated_at
		FROM contracts
		WHERE organization_id = $1
		ORDER BY created_at DESC
	`
	rows, err := s.db.Query(query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contracts: %w", err)
	}
	defer rows.Close()

	contracts := []*Contract{}
	for rows.Next() {
		contract := &Contract{}
		var specBytes []byte
		if err := rows.Scan(
			&contract.ID, &contract.OrganizationID, &contract.Name, &contract.Description,
			&contract.Version, &contract.Status, &contract.BasePath, &specBytes,
			&contract.CreatedAt, &contract.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan contract: %w", err)
		}
		contract.Spec = specBytes
		contracts = append(contracts, contract)
	}
	return contracts, rows.Err()
}

// PublishVersion records a new specification version for a contract: the
// contract row moves to the new version and a snapshot row preserves the
// document for later comparison.
func (s *PostgresService) PublishVersion(contractID uuid.UUID, req *PublishVersionRequest) (*ContractVersion, error) {
	if req.Version == "" {
		return nil, fmt.Errorf("version is required")
	}
	if len(req.Spec) == 0 {
		return nil, fmt.Errorf("openapi_spec is required")
	}

	result, err := s.db.Exec(`
		UPDATE contracts
		SET version = $2, openapi_spec = $3, status = $4, updated_at = NOW()
		WHERE id = $1
	`, contractID, req.Version, []byte(req.Spec), ContractStatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to update contract: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return nil, fmt.Errorf("contract %s: %w", contractID, ErrNotFound)
	}

	return s.insertVersion(contractID, req.Version, req.Spec, req.Changelog)
}

func (s *PostgresService) insertVersion(contractID uuid.UUID, version string, specDoc []byte, changelog string) (*ContractVersion, error) {
	snapshot := &ContractVersion{
		ID:         uuid.New(),
		ContractID: contractID,
		Version:    version,
		Spec:       specDoc,
		Changelog:  changelog,
	}

	query := `
		INSERT INTO contract_versions (id, contract_id, version, openapi_spec, changelog)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	err := s.db.QueryRow(query, snapshot.ID, snapshot.ContractID, snapshot.Version,
		[]byte(snapshot.Spec), snapshot.Changelog).
		Scan(&snapshot.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to record version snapshot: %w", err)
	}
	return snapshot, nil
}

// GetVersion retrieves a contract's specification snapshot for one version
// label.
func (s *PostgresService) GetVersion(contractID uuid.UUID, version string) (*ContractVersion, error) {
	query := `
		SELECT id, contract_id, version, openapi_spec, changelog, created_at
		FROM contract_versions
		WHERE contract_id = $1 AND version = $2
	`
	snapshot := &ContractVersion{}
	var specBytes []byte
	err := s.db.QueryRow(query, contractID, version).Scan(
		&snapshot.ID, &snapshot.ContractID, &snapshot.Version, &specBytes,
		&snapshot.Changelog, &snapshot.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("version %s of contract %s: %w", version, contractID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get version snapshot: %w", err)
	}
	snapshot.Spec = specBytes

	return snapshot, nil
}

// ListVersions returns a contract's version snapshots, newest first.
func (s *PostgresService) ListVersions(contractID uuid.UUID) ([]*ContractVersion, error) {
	query := `
		SELECT id, contract_id, version, openapi_spec, changelog, created_at
		FROM contract_versions
		WHERE contract_id = $1
		ORDER BY created_at DESC
	`
	rows, err := s.db.Query(query, contractID)
	if err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}
	defer rows.Close()

	versions := []*ContractVersion{}
	for rows.Next() {
		snapshot := &ContractVersion{}
		var specBytes []byte
		if err := rows.Scan(
			&snapshot.ID, &snapshot.ContractID, &snapshot.Version, &specBytes,
			&snapshot.Changelog, &snapshot.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan version snapshot: %w", err)
		}
		snapshot.Spec = specBytes
		versions = append(versions, snapshot)
	}
	return versions, rows.Err()
}

// CreateConsumer registers a downstream consumer.
func (s *PostgresService) CreateConsumer(req *CreateConsumerRequest) (*Consumer, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("consumer name is required")
	}

	consumer := &Consumer{
		ID:             uuid.New(),
		OrganizationID: req.OrganizationID,
		Name:           req.Name,
		Description:    req.Description,
		ContactEmail:   req.ContactEmail,
		ContactName:    req.ContactName,
		Type:           req.Type,
		IsActive:       true,
	}
	if consumer.Type == "" {
		consumer.Type = ConsumerTypeService
	}

	query := `
		INSERT INTO consumers (id, organization_id, name, description, contact_email, contact_name, consumer_type, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`
	err := s.db.QueryRow(query, consumer.ID, consumer.OrganizationID, consumer.Name,
		consumer.Description, consumer.ContactEmail, consumer.ContactName,
		consumer.Type, consumer.IsActive).
		Scan(&consumer.CreatedAt, &consumer.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	return consumer, nil
}

// GetConsumer retrieves a consumer by ID.
func (s *PostgresService) GetConsumer(id uuid.UUID) (*Consumer, error) {
	query := `
		SELECT id, organization_id, name, description, contact_email, contact_name,
		       consumer_type, is_active, created_at, updated_at
		FROM consumers
		WHERE id = $1
	`
	consumer := &Consumer{}
	err := s.db.QueryRow(query, id).Scan(
		&consumer.ID, &consumer.OrganizationID, &consumer.Name, &consumer.Description,
		&consumer.ContactEmail, &consumer.ContactName, &consumer.Type,
		&consumer.IsActive, &consumer.CreatedAt, &consumer.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("consumer %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get consumer: %w", err)
	}

	return consumer, nil
}

// ListConsumers returns all consumers belonging to an organization.
func (s *PostgresService) ListConsumers(orgID uuid.UUID) ([]*Consumer, error) {
	query := `
		SELECT id, organization_id, name, description, contact_email, contact_name,
		       consumer_type, is_active, created_at, updated_at
		FROM consumers
		WHERE organization_id = $1
		ORDER BY name
	`
	rows, err := s.db.Query(query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list consumers: %w", err)
	}
	defer rows.Close()

	consumers := []*Consumer{}
	for rows.Next() {
		consumer := &Consumer{}
		if err := rows.Scan(
			&consumer.ID, &consumer.OrganizationID, &consumer.Name, &consumer.Description,
			&consumer.ContactEmail, &consumer.ContactName, &consumer.Type,
			&consumer.IsActive, &consumer.CreatedAt, &consumer.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan consumer: %w", err)
		}
		consumers = append(consumers, consumer)
	}
	return consumers, rows.Err()
}

// RegisterConsumer subscribes a consumer to a contract version.
func (s *PostgresService) RegisterConsumer(contractID uuid.UUID, req *RegisterConsumerRequest) (*Registration, error) {
	if req.Version == "" {
		return nil, fmt.Errorf("version is required")
	}

	registration := &Registration{
		ID:         uuid.New(),
		ConsumerID: req.ConsumerID,
		ContractID: contractID,
		Version:    req.Version,
		Status:     RegistrationActive,
	}

	query := `
		INSERT INTO consumer_registrations (id, consumer_id, contract_id, version_subscribed_to, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING subscribed_at
	`
	err := s.db.QueryRow(query, registration.ID, registration.ConsumerID,
		registration.ContractID, registration.Version, registration.Status).
		Scan(&registration.SubscribedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to register consumer: %w", err)
	}

	return registration, nil
}

// ListContractConsumers returns the consumers registered against a
// contract with the number of distinct versions each is subscribed to.
func (s *PostgresService) ListContractConsumers(contractID uuid.UUID) ([]*ContractConsumer, error) {
	query := `
		SELECT c.id, c.organization_id, c.name, c.description, c.contact_email, c.contact_name,
		       c.consumer_type, c.is_active, c.created_at, c.updated_at,
		       COUNT(DISTINCT r.version_subscribed_to) AS registered_versions
		FROM consumers c
		JOIN consumer_registrations r ON r.consumer_id = c.id
		WHERE r.contract_id = $1
		GROUP BY c.id, c.organization_id, c.name, c.description, c.contact_email, c.contact_name,
		         c.consumer_type, c.is_active, c.created_at, c.updated_at
		ORDER BY c.name
	`
	rows, err := s.db.Query(query, contractID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contract consumers: %w", err)
	}
	defer rows.Close()

	consumers := []*ContractConsumer{}
	for rows.Next() {
		cc := &ContractConsumer{}
		if err := rows.Scan(
			&cc.ID, &cc.OrganizationID, &cc.Name, &cc.Description,
			&cc.ContactEmail, &cc.ContactName, &cc.Type, &cc.IsActive,
			&cc.CreatedAt, &cc.UpdatedAt, &cc.RegisteredVersions,
		); err != nil {
			return nil, fmt.Errorf("failed to scan contract consumer: %w", err)
		}
		consumers = append(consumers, cc)
	}
	return consumers, rows.Err()
}
