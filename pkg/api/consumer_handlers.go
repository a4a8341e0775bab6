package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/contractguard/contractguard/pkg/contracts"
	"github.com/contractguard/contractguard/pkg/httputil"
	"github.com/contractguard/contractguard/pkg/observability"
)

// ConsumerHandlers handles consumer registry HTTP requests
type ConsumerHandlers struct {
	registry contracts.Service
	logger   *observability.Logger
}

// NewConsumerHandlers creates a new ConsumerHandlers
func NewConsumerHandlers(registry contracts.Service, logger *observability.Logger) *ConsumerHandlers {
	return &ConsumerHandlers{
		registry: registry,
		logger:   logger,
	}
}

// RegisterRoutes registers consumer routes
func (h *ConsumerHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/consumers", h.CreateConsumer).Methods("POST")
	router.HandleFunc("/consumers/{id}", h.GetConsumer).Methods("GET")
	router.HandleFunc("/organizations/{orgId}/consumers", h.ListConsumers).Methods("GET")
}

// CreateConsumer handles POST /consumers
func (h *ConsumerHandlers) CreateConsumer(w http.ResponseWriter, r *http.Request) {
	var req contracts.CreateConsumerRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Name, "name") {
		return
	}

	consumer, err := h.registry.CreateConsumer(&req)
	if err != nil {
		h.logger.WithError(err).Error("failed to create consumer")
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteCreated(w, consumer)
}

// GetConsumer handles GET /consumers/{id}
func (h *ConsumerHandlers) GetConsumer(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathUUIDOrError(w, r, "id")
	if !ok {
		return
	}

	consumer, err := h.registry.GetConsumer(id)
	if err != nil {
		writeRegistryError(w, err)
		return
	}

	httputil.WriteSuccess(w, consumer)
}

// ListConsumers handles GET /organizations/{orgId}/consumers
func (h *ConsumerHandlers) ListConsumers(w http.ResponseWriter, r *http.Request) {
	orgID, ok := httputil.ParsePathUUIDOrError(w, r, "orgId")
	if !ok {
		return
	}

	list, err := h.registry.ListConsumers(orgID)
	if err != nil {
		h.logger.WithError(err).Error("failed to list consumers")
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, list)
}
