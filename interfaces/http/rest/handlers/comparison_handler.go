package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"graphdiff/application/queries"
	"graphdiff/application/services"
	"graphdiff/domain/comparison"
	"graphdiff/domain/core/aggregates"
	"graphdiff/domain/merging"
	"graphdiff/domain/versioning"
	"graphdiff/pkg/common"
	"graphdiff/pkg/errors"
	"graphdiff/pkg/utils"
)

// ComparisonService is the application surface the handlers drive
type ComparisonService interface {
	Compare(ctx context.Context, req services.CompareRequest) (*services.CompareOutcome, error)
	Merge(ctx context.Context, graph1, graph2 aggregates.Snapshot, strategy string) (*merging.Result, error)
	TrackEvolution(ctx context.Context, versions []aggregates.Snapshot) (*versioning.Report, error)
	GetComparison(ctx context.Context, id string) (*comparison.Result, error)
	ListComparisons(ctx context.Context, page, pageSize int) (*queries.ListComparisonsResult, error)
	DeleteComparison(ctx context.Context, id string) error
}

// Limits bounds request bodies and listing pages
type Limits struct {
	MaxBodyBytes    int64
	DefaultPageSize int
	MaxPageSize     int
}

// CompareRequest is the body of POST /compare
type CompareRequest struct {
	Graph1 aggregates.Snapshot `json:"graph1"`
	Graph2 aggregates.Snapshot `json:"graph2"`
	Name1  string              `json:"name1" validate:"max=256"`
	Name2  string              `json:"name2" validate:"max=256"`
	Save   bool                `json:"save"`
}

// MergeRequest is the body of POST /merge. The strategy may also be sent as
// mergeStrategy or merge_strategy.
type MergeRequest struct {
	Graph1   aggregates.Snapshot `json:"graph1"`
	Graph2   aggregates.Snapshot `json:"graph2"`
	Strategy string              `json:"strategy" validate:"max=64"`
}

// UnmarshalJSON implements json.Unmarshaler
func (m *MergeRequest) UnmarshalJSON(data []byte) error {
	type plain MergeRequest
	var body struct {
		plain
		Camel string `json:"mergeStrategy"`
		Snake string `json:"merge_strategy"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return err
	}

	*m = MergeRequest(body.plain)
	for _, alias := range []string{body.Camel, body.Snake} {
		if alias == "" {
			continue
		}
		if m.Strategy != "" && m.Strategy != alias {
			return fmt.Errorf("conflicting merge strategies %q and %q", m.Strategy, alias)
		}
		m.Strategy = alias
	}
	return nil
}

// TrackEvolutionRequest is the body of POST /evolution/track. A bare array of
// snapshots is accepted as the version list.
type TrackEvolutionRequest struct {
	GraphVersions []aggregates.Snapshot `json:"graphVersions"`
}

// UnmarshalJSON implements json.Unmarshaler
func (t *TrackEvolutionRequest) UnmarshalJSON(data []byte) error {
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		t.GraphVersions = nil
		return json.Unmarshal(trimmed, &t.GraphVersions)
	}

	type plain TrackEvolutionRequest
	return json.Unmarshal(data, (*plain)(t))
}

// ComparisonHandler handles graph comparison HTTP requests
type ComparisonHandler struct {
	service      ComparisonService
	errorHandler *errors.ErrorHandler
	limits       Limits
	logger       *zap.Logger
}

// NewComparisonHandler creates a new comparison handler
func NewComparisonHandler(service ComparisonService, errorHandler *errors.ErrorHandler, limits Limits, logger *zap.Logger) *ComparisonHandler {
	return &ComparisonHandler{
		service:      service,
		errorHandler: errorHandler,
		limits:       limits,
		logger:       logger,
	}
}

// Compare handles POST /compare
func (h *ComparisonHandler) Compare(w http.ResponseWriter, r *http.Request) {
	var req CompareRequest
	if !h.decode(w, r, &req) {
		return
	}

	outcome, err := h.service.Compare(r.Context(), services.CompareRequest{
		Graph1: req.Graph1,
		Graph2: req.Graph2,
		Name1:  req.Name1,
		Name2:  req.Name2,
		Save:   req.Save,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, outcome)
}

// Merge handles POST /merge
func (h *ComparisonHandler) Merge(w http.ResponseWriter, r *http.Request) {
	var req MergeRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.service.Merge(r.Context(), req.Graph1, req.Graph2, req.Strategy)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}

// TrackEvolution handles POST /evolution/track
func (h *ComparisonHandler) TrackEvolution(w http.ResponseWriter, r *http.Request) {
	var req TrackEvolutionRequest
	if !h.decode(w, r, &req) {
		return
	}

	report, err := h.service.TrackEvolution(r.Context(), req.GraphVersions)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, report)
}

// GetComparison handles GET /comparisons/{comparisonID}
func (h *ComparisonHandler) GetComparison(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.GetComparison(r.Context(), chi.URLParam(r, "comparisonID"))
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}

// ListComparisons handles GET /comparisons
func (h *ComparisonHandler) ListComparisons(w http.ResponseWriter, r *http.Request) {
	params := common.ExtractPaginationParams(r, h.limits.DefaultPageSize, h.limits.MaxPageSize)

	result, err := h.service.ListComparisons(r.Context(), params.Page, params.PageSize)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, common.NewPaginatedResult(result.Items, result.Page, result.PageSize, result.Total))
}

// DeleteComparison handles DELETE /comparisons/{comparisonID}
func (h *ComparisonHandler) DeleteComparison(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "comparisonID")
	if err := h.service.DeleteComparison(r.Context(), id); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("Comparison deleted", zap.String("comparisonId", id))
	common.RespondNoContent(w)
}

func (h *ComparisonHandler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := common.ParseJSONBody(w, r, v, h.limits.MaxBodyBytes); err != nil {
		h.errorHandler.Handle(w, r, err)
		return false
	}
	if err := utils.ValidateStruct(v); err != nil {
		h.errorHandler.Handle(w, r, err)
		return false
	}
	return true
}
