package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/contractguard/contractguard/pkg/contracts"
	"github.com/contractguard/contractguard/pkg/httputil"
	"github.com/contractguard/contractguard/pkg/observability"
)

// ContractHandlers handles contract registry HTTP requests
type ContractHandlers struct {
	registry contracts.Service
	logger   *observability.Logger
}

// NewContractHandlers creates a new ContractHandlers
func NewContractHandlers(registry contracts.Service, logger *observability.Logger) *ContractHandlers {
	return &ContractHandlers{
		registry: registry,
		logger:   logger,
	}
}

// RegisterRoutes registers contract routes
func (h *ContractHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/contracts", h.CreateContract).Methods("POST")
	router.HandleFunc("/contracts/{id}", h.GetContract).Methods("GET")
	router.HandleFunc("/organizations/{orgId}/contracts", h.ListContracts).Methods("GET")

	// Version snapshots
	router.HandleFunc("/contracts/{id}/versions", h.PublishVersion).Methods("POST")
	router.HandleFunc("/contracts/{id}/versions", h.ListVersions).Methods("GET")
	router.HandleFunc("/contracts/{id}/versions/{version}", h.GetVersion).Methods("GET")

	// Consumer registrations
	router.HandleFunc("/contracts/{id}/consumers", h.RegisterConsumer).Methods("POST")
	router.HandleFunc("/contracts/{id}/consumers", h.ListContractConsumers).Methods("GET")
}

// CreateContract handles POST /contracts
func (h *ContractHandlers) CreateContract(w http.ResponseWriter, r *http.Request) {
	var req contracts.CreateContractRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Name, "name") {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Version, "version") {
		return
	}
	if len(req.Spec) == 0 {
		httputil.WriteValidationError(w, "openapi_spec is required")
		return
	}

	contract, err := h.registry.CreateContract(&req)
	if err != nil {
		h.logger.WithError(err).Error("failed to create contract")
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteCreated(w, contract)
}

// GetContract handles GET /contracts/{id}
func (h *ContractHandlers) GetContract(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathUUIDOrError(w, r, "id")
	if !ok {
		return
	}

	contract, err := h.registry.GetContract(id)
	if err != nil {
		writeRegistryError(w, err)
		return
	}

	httputil.WriteSuccess(w, contract)
}

// ListContracts handles GET /organizations/{orgId}/contracts
func (h *ContractHandlers) ListContracts(w http.ResponseWriter, r *http.Request) {
	orgID, ok := httputil.ParsePathUUIDOrError(w, r, "orgId")
	if !ok {
		return
	}

	list, err := h.registry.ListContracts(orgID)
	if err != nil {
		h.logger.WithError(err).Error("failed to list contracts")
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, list)
}

// PublishVersion handles POST /contracts/{id}/versions
func (h *ContractHandlers) PublishVersion(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathUUIDOrError(w, r, "id")
	if !ok {
		return
	}

	var req contracts.PublishVersionRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Version, "version") {
		return
	}
	if len(req.Spec) == 0 {
		httputil.WriteValidationError(w, "openapi_spec is required")
		return
	}

	snapshot, err := h.registry.PublishVersion(id, &req)
	if err != nil {
		writeRegistryError(w, err)
		return
	}

	httputil.WriteCreated(w, snapshot)
}

// ListVersions handles GET /contracts/{id}/versions
func (h *ContractHandlers) ListVersions(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathUUIDOrError(w, r, "id")
	if !ok {
		return
	}

	versions, err := h.registry.ListVersions(id)
	if err != nil {
		h.logger.WithError(err).Error("failed to list versions")
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, versions)
}

// GetVersion handles GET /contracts/{id}/versions/{version}
func (h *ContractHandlers) GetVersion(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathUUIDOrError(w, r, "id")
	if !ok {
		return
	}
	version, ok := httputil.ParsePathStringOrError(w, r, "version")
	if !ok {
		return
	}

	snapshot, err := h.registry.GetVersion(id, version)
	if err != nil {
		writeRegistryError(w, err)
		return
	}

	httputil.WriteSuccess(w, snapshot)
}

// RegisterConsumer handles POST /contracts/{id}/consumers
func (h *ContractHandlers) RegisterConsumer(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathUUIDOrError(w, r, "id")
	if !ok {
		return
	}

	var req contracts.RegisterConsumerRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Version, "version") {
		return
	}

	registration, err := h.registry.RegisterConsumer(id, &req)
	if err != nil {
		writeRegistryError(w, err)
		return
	}

	httputil.WriteCreated(w, registration)
}

// ListContractConsumers handles GET /contracts/{id}/consumers
func (h *ContractHandlers) ListContractConsumers(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathUUIDOrError(w, r, "id")
	if !ok {
		return
	}

	consumers, err := h.registry.ListContractConsumers(id)
	if err != nil {
		h.logger.WithError(err).Error("failed to list contract consumers")
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, consumers)
}

// writeRegistryError maps registry errors onto HTTP responses
func writeRegistryError(w http.ResponseWriter, err error) {
	if errors.Is(err, contracts.ErrNotFound) {
		httputil.WriteNotFoundError(w, err.Error())
		return
	}
	httputil.WriteInternalError(w, err)
}
