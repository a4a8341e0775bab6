package contracts

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a contract, version, consumer, or
// organization identifier does not resolve.
var ErrNotFound = errors.New("not found")

// ContractStatus represents the lifecycle state of a contract.
type ContractStatus string

const (
	ContractStatusDraft      ContractStatus = "DRAFT"
	ContractStatusActive     ContractStatus = "ACTIVE"
	ContractStatusDeprecated ContractStatus = "DEPRECATED"
	ContractStatusRetired    ContractStatus = "RETIRED"
)

// ConsumerType categorizes a downstream caller.
type ConsumerType string

const (
	ConsumerTypeService    ConsumerType = "SERVICE"
	ConsumerTypeWebApp     ConsumerType = "WEB_APP"
	ConsumerTypeMobileApp  ConsumerType = "MOBILE_APP"
	ConsumerTypeThirdParty ConsumerType = "THIRD_PARTY"
)

// RegistrationStatus represents the state of a consumer's subscription to
// a contract version.
type RegistrationStatus string

const (
	RegistrationActive     RegistrationStatus = "ACTIVE"
	RegistrationDeprecated RegistrationStatus = "DEPRECATED"
	RegistrationMigrated   RegistrationStatus = "MIGRATED"
)

// Organization owns contracts and consumers.
type Organization struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Contract is a versioned API specification owned by an organization. Spec
// holds the current version's OpenAPI document; historical documents live
// in version snapshots.
type Contract struct {
	ID             uuid.UUID       `json:"id"`
	OrganizationID uuid.UUID       `json:"organization_id"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	Version        string          `json:"version"`
	Status         ContractStatus  `json:"status"`
	BasePath       string          `json:"base_path,omitempty"`
	Spec           json.RawMessage `json:"openapi_spec"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ContractVersion is an immutable snapshot of a contract's specification at
// a given version label. Change detection always compares two snapshots,
// never the live contract document against itself.
type ContractVersion struct {
	ID         uuid.UUID       `json:"id"`
	ContractID uuid.UUID       `json:"contract_id"`
	Version    string          `json:"version"`
	Spec       json.RawMessage `json:"openapi_spec"`
	Changelog  string          `json:"changelog,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Consumer is a downstream caller registered with an organization.
type Consumer struct {
	ID             uuid.UUID    `json:"id"`
	OrganizationID uuid.UUID    `json:"organization_id"`
	Name           string       `json:"name"`
	Description    string       `json:"description,omitempty"`
	ContactEmail   string       `json:"contact_email,omitempty"`
	ContactName    string       `json:"contact_name,omitempty"`
	Type           ConsumerType `json:"consumer_type"`
	IsActive       bool         `json:"is_active"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// Registration binds a consumer to a specific contract version.
type Registration struct {
	ID           uuid.UUID          `json:"id"`
	ConsumerID   uuid.UUID          `json:"consumer_id"`
	ContractID   uuid.UUID          `json:"contract_id"`
	Version      string             `json:"version_subscribed_to"`
	Status       RegistrationStatus `json:"status"`
	SubscribedAt time.Time          `json:"subscribed_at"`
}

// ContractConsumer is the registry's answer to "who consumes this
// contract": a consumer plus how many of the contract's versions it has
// registered against.
type ContractConsumer struct {
	Consumer
	RegisteredVersions int `json:"registered_versions"`
}

// CreateContractRequest is the payload for registering a new contract.
type CreateContractRequest struct {
	OrganizationID uuid.UUID       `json:"organization_id"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	Version        string          `json:"version"`
	BasePath       string          `json:"base_path,omitempty"`
	Spec           json.RawMessage `json:"openapi_spec"`
}

// PublishVersionRequest is the payload for publishing a new contract
// version with an updated specification.
type PublishVersionRequest struct {
	Version   string          `json:"version"`
	Spec      json.RawMessage `json:"openapi_spec"`
	Changelog string          `json:"changelog,omitempty"`
}

// CreateConsumerRequest is the payload for registering a consumer.
type CreateConsumerRequest struct {
	OrganizationID uuid.UUID    `json:"organization_id"`
	Name           string       `json:"name"`
	Description    string       `json:"description,omitempty"`
	ContactEmail   string       `json:"contact_email,omitempty"`
	ContactName    string       `json:"contact_name,omitempty"`
	Type           ConsumerType `json:"consumer_type,omitempty"`
}

// RegisterConsumerRequest binds a consumer to a contract version.
type RegisterConsumerRequest struct {
	ConsumerID uuid.UUID `json:"consumer_id"`
	Version    string    `json:"version"`
}

// Service defines the contract and consumer registry operations.
type Service interface {
	// Contract operations
	CreateContract(req *CreateContractRequest) (*Contract, error)
	GetContract(id uuid.UUID) (*Contract, error)
	ListContracts(orgID uuid.UUID) ([]*Contract, error)
	PublishVersion(contractID uuid.UUID, req *PublishVersionRequest) (*ContractVersion, error)

	// Version snapshots
	GetVersion(contractID uuid.UUID, version string) (*ContractVersion, error)
	ListVersions(contractID uuid.UUID) ([]*ContractVersion, error)

	// Consumer operations
	CreateConsumer(req *CreateConsumerRequest) (*Consumer, error)
	GetConsumer(id uuid.UUID) (*Consumer, error)
	ListConsumers(orgID uuid.UUID) ([]*Consumer, error)
	RegisterConsumer(contractID uuid.UUID, req *RegisterConsumerRequest) (*Registration, error)
	ListContractConsumers(contractID uuid.UUID) ([]*ContractConsumer, error)
}
