package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"graphdiff/application/queries"
	"graphdiff/application/services"
	"graphdiff/domain/comparison"
	"graphdiff/domain/core/aggregates"
	"graphdiff/domain/merging"
	"graphdiff/domain/versioning"
	"graphdiff/interfaces/http/rest/handlers"
	"graphdiff/pkg/auth"
	"graphdiff/pkg/errors"
	"graphdiff/pkg/observability"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) Compare(ctx context.Context, req services.CompareRequest) (*services.CompareOutcome, error) {
	args := m.Called(ctx, req)
	out, _ := args.Get(0).(*services.CompareOutcome)
	return out, args.Error(1)
}

func (m *mockService) Merge(ctx context.Context, graph1, graph2 aggregates.Snapshot, strategy string) (*merging.Result, error) {
	args := m.Called(ctx, graph1, graph2, strategy)
	out, _ := args.Get(0).(*merging.Result)
	return out, args.Error(1)
}

func (m *mockService) TrackEvolution(ctx context.Context, versions []aggregates.Snapshot) (*versioning.Report, error) {
	args := m.Called(ctx, versions)
	out, _ := args.Get(0).(*versioning.Report)
	return out, args.Error(1)
}

func (m *mockService) GetComparison(ctx context.Context, id string) (*comparison.Result, error) {
	args := m.Called(ctx, id)
	out, _ := args.Get(0).(*comparison.Result)
	return out, args.Error(1)
}

func (m *mockService) ListComparisons(ctx context.Context, page, pageSize int) (*queries.ListComparisonsResult, error) {
	args := m.Called(ctx, page, pageSize)
	out, _ := args.Get(0).(*queries.ListComparisonsResult)
	return out, args.Error(1)
}

func (m *mockService) DeleteComparison(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

var testJWT = auth.JWTConfig{SecretKey: "test-secret", Issuer: "graphdiff", Audience: "graphdiff-api"}

const testID = "6f1c1f0e-8f43-4a4c-9a55-0c1c1b0e2a11"

func newTestRouter(t *testing.T, service handlers.ComparisonService, mutate func(*Options)) http.Handler {
	t.Helper()
	opts := Options{
		Limits: handlers.Limits{MaxBodyBytes: 1 << 20, DefaultPageSize: 20, MaxPageSize: 100},
	}
	if mutate != nil {
		mutate(&opts)
	}
	return NewRouter(service, opts, zap.NewNop()).Setup()
}

func send(h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) errors.ErrorResponse {
	t.Helper()
	var resp errors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestRouter_Compare(t *testing.T) {
	// Arrange
	service := new(mockService)
	service.On("Compare", mock.Anything, mock.MatchedBy(func(req services.CompareRequest) bool {
		return req.Name1 == "v1" && req.Save && req.Graph1.NodeCount() == 1
	})).Return(&services.CompareOutcome{
		Result:   &comparison.Result{CreatedAt: "2024-01-01T00:00:00.000Z"},
		Warnings: []string{"comparison was not saved"},
	}, nil)
	h := newTestRouter(t, service, nil)

	// Act
	rec := send(h, http.MethodPost, BasePath+"/compare",
		`{"graph1": {"nodes": [{"id": "a"}]}, "graph2": {}, "name1": "v1", "save": true}`, nil)

	// Assert
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []interface{}{"comparison was not saved"}, body["warnings"])
	assert.NotContains(t, body, "comparisonId")
	service.AssertExpectations(t)
}

func TestRouter_BodyErrors(t *testing.T) {
	service := new(mockService)
	h := newTestRouter(t, service, func(o *Options) { o.Limits.MaxBodyBytes = 64 })

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"malformed", `{"graph1":`, http.StatusBadRequest, "INVALID_JSON"},
		{"empty", ``, http.StatusBadRequest, "EMPTY_BODY"},
		{"too large", `{"name1": "` + strings.Repeat("x", 100) + `"}`, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := send(h, http.MethodPost, BasePath+"/compare", tt.body, nil)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, errorBody(t, rec).Code)
		})
	}
	service.AssertNotCalled(t, "Compare", mock.Anything, mock.Anything)
}

func TestRouter_FieldValidation(t *testing.T) {
	service := new(mockService)
	h := newTestRouter(t, service, nil)

	rec := send(h, http.MethodPost, BasePath+"/compare",
		`{"graph1": {}, "graph2": {}, "name1": "`+strings.Repeat("n", 300)+`"}`, nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := errorBody(t, rec)
	assert.Equal(t, "INVALID_REQUEST", resp.Code)
	assert.Contains(t, resp.Details["fields"], "name1")
}

func TestRouter_ServiceErrors(t *testing.T) {
	service := new(mockService)
	service.On("GetComparison", mock.Anything, testID).
		Return(nil, errors.NewNotFoundError("comparison"))
	service.On("Merge", mock.Anything, mock.Anything, mock.Anything, "bogus").
		Return(nil, errors.NewValidationError("unknown merge strategy").WithCode("INVALID_MERGE_STRATEGY"))
	h := newTestRouter(t, service, nil)

	rec := send(h, http.MethodGet, BasePath+"/comparisons/"+testID, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = send(h, http.MethodPost, BasePath+"/merge", `{"strategy": "bogus"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_MERGE_STRATEGY", errorBody(t, rec).Code)
}

func TestRouter_MergeStrategyAliases(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"strategy", `{"strategy": "intersection"}`},
		{"camel case", `{"mergeStrategy": "intersection"}`},
		{"snake case", `{"merge_strategy": "intersection"}`},
		{"agreeing aliases", `{"strategy": "intersection", "merge_strategy": "intersection"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(mockService)
			service.On("Merge", mock.Anything, mock.Anything, mock.Anything, "intersection").
				Return(&merging.Result{}, nil)
			h := newTestRouter(t, service, nil)

			rec := send(h, http.MethodPost, BasePath+"/merge", tt.body, nil)

			assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			service.AssertExpectations(t)
		})
	}

	t.Run("conflicting aliases", func(t *testing.T) {
		service := new(mockService)
		h := newTestRouter(t, service, nil)

		rec := send(h, http.MethodPost, BasePath+"/merge", `{"strategy": "union", "mergeStrategy": "intersection"}`, nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "INVALID_JSON", errorBody(t, rec).Code)
		service.AssertNotCalled(t, "Merge", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestRouter_TrackEvolutionBodies(t *testing.T) {
	twoVersions := mock.MatchedBy(func(versions []aggregates.Snapshot) bool {
		return len(versions) == 2 && versions[1].NodeCount() == 1
	})

	tests := []struct {
		name string
		body string
	}{
		{"wrapped", `{"graphVersions": [{}, {"nodes": [{"id": "a"}]}]}`},
		{"bare array", ` [{}, {"nodes": [{"id": "a"}]}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(mockService)
			service.On("TrackEvolution", mock.Anything, twoVersions).Return(&versioning.Report{}, nil)
			h := newTestRouter(t, service, nil)

			rec := send(h, http.MethodPost, BasePath+"/evolution/track", tt.body, nil)

			assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			service.AssertExpectations(t)
		})
	}
}

func TestRouter_ListAndDelete(t *testing.T) {
	service := new(mockService)
	service.On("ListComparisons", mock.Anything, 2, 5).Return(&queries.ListComparisonsResult{
		Items:    []comparison.Summary{{ComparisonID: testID, Name1: "a", Name2: "b"}},
		Page:     2,
		PageSize: 5,
		Total:    6,
	}, nil)
	service.On("DeleteComparison", mock.Anything, testID).Return(nil)
	h := newTestRouter(t, service, nil)

	rec := send(h, http.MethodGet, BasePath+"/comparisons?page=2&pageSize=5", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Items      []comparison.Summary `json:"items"`
		Pagination struct {
			Page       int  `json:"page"`
			Total      int  `json:"total"`
			TotalPages int  `json:"totalPages"`
			HasPrev    bool `json:"hasPrev"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Items, 1)
	assert.Equal(t, testID, body.Items[0].ComparisonID)
	assert.Equal(t, 2, body.Pagination.Page)
	assert.Equal(t, 6, body.Pagination.Total)

	rec = send(h, http.MethodDelete, BasePath+"/comparisons/"+testID, "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.Bytes())
	service.AssertExpectations(t)
}

func TestRouter_Authentication(t *testing.T) {
	validator, err := auth.NewJWTValidator(testJWT)
	require.NoError(t, err)

	service := new(mockService)
	service.On("DeleteComparison", mock.Anything, testID).Return(nil)
	h := newTestRouter(t, service, func(o *Options) {
		o.Validator = validator
		o.RateLimitPerMinute = 100
	})

	good, err := auth.IssueToken(testJWT, "user-1", []string{"analyst"}, time.Hour)
	require.NoError(t, err)
	expired, err := auth.IssueToken(testJWT, "user-1", nil, -time.Minute)
	require.NoError(t, err)
	foreign, err := auth.IssueToken(auth.JWTConfig{SecretKey: "other", Issuer: testJWT.Issuer, Audience: testJWT.Audience}, "user-1", nil, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing token", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
		{"wrong key", "Bearer " + foreign, http.StatusUnauthorized},
		{"valid", "Bearer " + good, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.header != "" {
				headers["Authorization"] = tt.header
			}
			rec := send(h, http.MethodDelete, BasePath+"/comparisons/"+testID, "", headers)
			assert.Equal(t, tt.status, rec.Code)
		})
	}

	// Operational endpoints stay open
	assert.Equal(t, http.StatusOK, send(h, http.MethodGet, "/health", "", nil).Code)
}

func TestRouter_RateLimitByIP(t *testing.T) {
	service := new(mockService)
	service.On("GetComparison", mock.Anything, testID).Return(&comparison.Result{ComparisonID: testID}, nil)
	h := newTestRouter(t, service, func(o *Options) { o.RateLimitPerMinute = 2 })

	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusOK, send(h, http.MethodGet, BasePath+"/comparisons/"+testID, "", nil).Code)
	}

	rec := send(h, http.MethodGet, BasePath+"/comparisons/"+testID, "", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "ip", errorBody(t, rec).Details["scope"])
}

func TestRouter_OperationalRoutes(t *testing.T) {
	service := new(mockService)

	t.Run("not ready", func(t *testing.T) {
		h := newTestRouter(t, service, func(o *Options) {
			o.Ready = func(ctx context.Context) error { return errors.NewUnavailableError("store") }
		})
		assert.Equal(t, http.StatusServiceUnavailable, send(h, http.MethodGet, "/ready", "", nil).Code)
	})

	t.Run("metrics only with a collector", func(t *testing.T) {
		h := newTestRouter(t, service, nil)
		assert.Equal(t, http.StatusNotFound, send(h, http.MethodGet, "/metrics", "", nil).Code)

		h = newTestRouter(t, service, func(o *Options) { o.Collector = observability.NewCollector("graphdiff") })
		assert.Equal(t, http.StatusOK, send(h, http.MethodGet, "/metrics", "", nil).Code)
	})

	t.Run("unknown route and method", func(t *testing.T) {
		h := newTestRouter(t, service, nil)

		rec := send(h, http.MethodGet, BasePath+"/unknown", "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "NOT_FOUND", errorBody(t, rec).Type)
		assert.Equal(t, "ROUTE_NOT_FOUND", errorBody(t, rec).Code)

		rec = send(h, http.MethodPut, BasePath+"/compare", "", nil)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		assert.Equal(t, "METHOD_NOT_ALLOWED", errorBody(t, rec).Code)
	})
}
