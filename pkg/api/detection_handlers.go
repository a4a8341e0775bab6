package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/contractguard/contractguard/pkg/contracts"
	"github.com/contractguard/contractguard/pkg/detection"
	"github.com/contractguard/contractguard/pkg/diff"
	"github.com/contractguard/contractguard/pkg/httputil"
	"github.com/contractguard/contractguard/pkg/observability"
)

// DetectionHandlers handles change-detection HTTP requests
type DetectionHandlers struct {
	detector *detection.Orchestrator
	logger   *observability.Logger
}

// NewDetectionHandlers creates a new DetectionHandlers
func NewDetectionHandlers(detector *detection.Orchestrator, logger *observability.Logger) *DetectionHandlers {
	return &DetectionHandlers{
		detector: detector,
		logger:   logger,
	}
}

// RegisterRoutes registers change-detection routes
func (h *DetectionHandlers) RegisterRoutes(router *mux.Router) {
	cd := router.PathPrefix("/change-detection").Subrouter()

	cd.HandleFunc("/detect", h.Detect).Methods("POST")
	cd.HandleFunc("/contracts/{id}", h.GetContractChanges).Methods("GET")
	cd.HandleFunc("/contracts/{id}", h.PurgeContract).Methods("DELETE")
	cd.HandleFunc("/contracts/{id}/versions", h.GetChangesBetweenVersions).Methods("GET")
	cd.HandleFunc("/contracts/{id}/severity/{severity}", h.GetChangesBySeverity).Methods("GET")
	cd.HandleFunc("/contracts/{id}/impact", h.GetContractImpact).Methods("GET")
	cd.HandleFunc("/contracts/{id}/impact/report", h.GetImpactReport).Methods("GET")
	cd.HandleFunc("/contracts/{id}/migration-guides", h.RegenerateGuides).Methods("POST")
	cd.HandleFunc("/changes/{changeId}", h.GetChange).Methods("GET")
	cd.HandleFunc("/consumers/{id}/impact", h.GetConsumerImpact).Methods("GET")
	cd.HandleFunc("/impact/{id}/status", h.UpdateImpactStatus).Methods("PUT")
}

// DetectRequest is the body of POST /change-detection/detect
type DetectRequest struct {
	ContractID uuid.UUID `json:"contractId"`
	OldVersion string    `json:"oldVersion"`
	NewVersion string    `json:"newVersion"`
}

// Detect handles POST /change-detection/detect
func (h *DetectionHandlers) Detect(w http.ResponseWriter, r *http.Request) {
	var req DetectRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.ContractID == uuid.Nil {
		httputil.WriteValidationError(w, "contractId is required")
		return
	}
	if !httputil.RequireNonEmpty(w, req.OldVersion, "oldVersion") {
		return
	}
	if !httputil.RequireNonEmpty(w, req.NewVersion, "newVersion") {
		return
	}
	if req.OldVersion == req.NewVersion {
		httputil.WriteValidationError(w, "oldVersion and newVersion must differ")
		return
	}

	report, err := h.detector.Detect(r.Context(), req.ContractID, req.OldVersion, req.NewVersion)
	if err != nil {
		h.writeDetectionError(w, err, "detection run failed")
		return
	}

	httputil.WriteSuccess(w, report)
}

// GetContractChanges handles GET /change-detection/contracts/{id}
func (h *DetectionHandlers) GetContractChanges(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathUUIDOrError(w, r, "id")
	if !ok {
		return
	}

	changes, err := h.detector.ChangesForContract(id)
	if err != nil {
		h.writeDetectionError(w, err, "failed to list changes")
		return
	}

	httputil.WriteSuccess(w, changes)
}

// GetChangesBetweenVersions handles GET /change-detection/contracts/{id}/versions?old=&new=
func (h *DetectionHandlers) GetChangesBetweenVersions(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathUUIDOrError(w, r, "id")
	if !ok {
		return
	}
	oldVersion := httputil.ParseQueryString(r, "old", "")
	newVersion := httputil.ParseQueryString(r, "new", "")
	if oldVersion == "" || newVersion == "" {
		httputil.WriteValidationError(w, "old and new query parameters are required")
		return
	}

	changes, err := h.detector.ChangesBetweenVersions(id, oldVersion, newVersion)
	if err != nil {
		h.writeDetectionError(w, err, "failed to list changes")
		return
	}

	httputil.WriteSuccess(w, changes)
}

// GetChangesBySeverity handles GET /change-detection/contracts/{id}/severity/{severity}
func (h *DetectionHandlers) GetChangesBySeverity(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathUUIDOrError(w, r, "id")
	if !ok {
		return
	}
	raw, ok := httputil.ParsePathStringOrError(w, r, "severity")
	if !ok {
		return
	}
	severity := diff.Severity(strings.ToUpper(raw))
	if severity.Rank() == 0 {
		httputil.WriteValidationError(w, "invalid severity: "+raw)
		return
	}

	changes, err := h.detector.ChangesBySeverity(id, severity)
	if err != nil {
		h.writeDetectionError(w, err, "failed to list changes")
		return
	}

	httputil.WriteSuccess(w, changes)
}

// GetChange handles GET /change-detection/changes/{changeId}
func (h *DetectionHandlers) GetChange(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathUUIDOrError(w, r, "changeId")
	if !ok {
		return
	}

	change, err := h.detector.GetChange(id)
	if err != nil {
		h.writeDetectionError(w, err, "failed to get change")
		return
	}

	httputil.WriteSuccess(w, change)
}

// GetContractImpact handles GET /change-detection/contracts/{id}/impact
func (h *DetectionHandlers) GetContractImpact(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathUUIDOrError(w, r, "id")
	if !ok {
		return
	}

	records, err := h.detector.ImpactsForContract(id)
	if err != nil {
		h.writeDetectionError(w, err, "failed to list impact records")
		return
	}

	httputil.WriteSuccess(w, records)
}

// GetImpactReport handles GET /change-detection/contracts/{id}/impact/report?old=&new=
func (h *DetectionHandlers) GetImpactReport(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathUUIDOrError(w, r, "id")
	if !ok {
		return
	}
	oldVersion := httputil.ParseQueryString(r, "old", "")
	newVersion := httputil.ParseQueryString(r, "new", "")
	if oldVersion == "" || newVersion == "" {
		httputil.WriteValidationError(w, "old and new query parameters are required")
		return
	}

	report, err := h.detector.ImpactReport(r.Context(), id, oldVersion, newVersion)
	if err != nil {
		h.writeDetectionError(w, err, "failed to build impact report")
		return
	}

	httputil.WriteSuccess(w, report)
}

// GetConsumerImpact handles GET /change-detection/consumers/{id}/impact
func (h *DetectionHandlers) GetConsumerImpact(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathUUIDOrError(w, r, "id")
	if !ok {
		return
	}

	records, err := h.detector.ImpactsForConsumer(id)
	if err != nil {
		h.writeDetectionError(w, err, "failed to list consumer impact")
		return
	}

	httputil.WriteSuccess(w, records)
}

// UpdateImpactStatusRequest is the body of PUT /change-detection/impact/{id}/status
type UpdateImpactStatusRequest struct {
	Status detection.ImpactStatus `json:"status"`
}

// UpdateImpactStatus handles PUT /change-detection/impact/{id}/status
func (h *DetectionHandlers) UpdateImpactStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathUUIDOrError(w, r, "id")
	if !ok {
		return
	}

	var req UpdateImpactStatusRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !req.Status.Valid() {
		httputil.WriteValidationError(w, "invalid status: "+string(req.Status))
		return
	}

	record, err := h.detector.UpdateImpactStatus(id, req.Status)
	if err != nil {
		h.writeDetectionError(w, err, "failed to update impact status")
		return
	}

	httputil.WriteSuccess(w, record)
}

// RegenerateGuides handles POST /change-detection/contracts/{id}/migration-guides
func (h *DetectionHandlers) RegenerateGuides(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathUUIDOrError(w, r, "id")
	if !ok {
		return
	}

	updated, err := h.detector.RegenerateGuides(id)
	if err != nil {
		h.writeDetectionError(w, err, "failed to regenerate migration guides")
		return
	}

	httputil.WriteSuccess(w, map[string]int{"updatedChanges": updated})
}

// PurgeContract handles DELETE /change-detection/contracts/{id}
func (h *DetectionHandlers) PurgeContract(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathUUIDOrError(w, r, "id")
	if !ok {
		return
	}

	removed, err := h.detector.PurgeContract(r.Context(), id)
	if err != nil {
		h.writeDetectionError(w, err, "failed to purge detection history")
		return
	}

	httputil.WriteSuccess(w, map[string]int64{"deletedChanges": removed})
}

// writeDetectionError maps orchestrator errors onto HTTP responses
func (h *DetectionHandlers) writeDetectionError(w http.ResponseWriter, err error, logMessage string) {
	if errors.Is(err, contracts.ErrNotFound) || errors.Is(err, detection.ErrNotFound) {
		httputil.WriteNotFoundError(w, err.Error())
		return
	}
	h.logger.WithError(err).Error(logMessage)
	httputil.WriteInternalError(w, err)
}
