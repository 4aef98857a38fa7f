package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/longsangforge/payment-reconciler/internal/domain/reconciliation"
)

type MockAuditStore struct {
	mock.Mock
}

func (m *MockAuditStore) Record(ctx context.Context, record *reconciliation.AuditRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockAuditStore) GetByExternalID(ctx context.Context, externalID int64) ([]*reconciliation.AuditRecord, error) {
	args := m.Called(ctx, externalID)
	if recs, ok := args.Get(0).([]*reconciliation.AuditRecord); ok {
		return recs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuditStore) GetByTimeRange(ctx context.Context, startTime, endTime time.Time, limit, offset int) ([]*reconciliation.AuditRecord, error) {
	args := m.Called(ctx, startTime, endTime, limit, offset)
	if recs, ok := args.Get(0).([]*reconciliation.AuditRecord); ok {
		return recs, args.Error(1)
	}
	return nil, args.Error(1)
}

var _ reconciliation.AuditStore = (*MockAuditStore)(nil)

func decodeAuditRecords(t *testing.T, data interface{}) []AuditRecordResponse {
	t.Helper()
	dataBytes, err := json.Marshal(data)
	require.NoError(t, err)
	var records []AuditRecordResponse
	require.NoError(t, json.Unmarshal(dataBytes, &records))
	return records
}

func TestAuditHandler_GetByExternalID(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	t.Run("Success", func(t *testing.T) {
		mockStore := new(MockAuditStore)
		handler := NewAuditHandler(logger, mockStore)

		bookingID := uuid.New()
		records := []*reconciliation.AuditRecord{
			{
				ExternalID:      1001,
				CounterpartyRef: "TID-1",
				Description:     "CK TUVANSANGVOLON20251229",
				Amount:          499000,
				OccurredAt:      "2025-12-20 10:15:00",
				Status:          reconciliation.OutcomeConfirmed,
				BookingID:       bookingID.String(),
				CorrelationID:   "corr-1",
				CreatedAt:       time.Now(),
			},
		}
		mockStore.On("GetByExternalID", mock.Anything, int64(1001)).Return(records, nil)

		router := setupTestRouter()
		router.GET("/api/audit/:external_id", handler.GetByExternalID)

		req, _ := http.NewRequest(http.MethodGet, "/api/audit/1001", nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var response Response
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
		require.NotNil(t, response.Data)

		body := decodeAuditRecords(t, response.Data)
		require.Len(t, body, 1)
		assert.Equal(t, int64(1001), body[0].ExternalID)
		assert.Equal(t, "confirmed", body[0].Status)
		assert.Equal(t, bookingID.String(), body[0].BookingID)
		assert.NotEmpty(t, body[0].CreatedAt)
		mockStore.AssertExpectations(t)
	})

	t.Run("InvalidExternalID", func(t *testing.T) {
		mockStore := new(MockAuditStore)
		handler := NewAuditHandler(logger, mockStore)

		router := setupTestRouter()
		router.GET("/api/audit/:external_id", handler.GetByExternalID)

		req, _ := http.NewRequest(http.MethodGet, "/api/audit/not-a-number", nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockStore.AssertExpectations(t) // No store calls expected
	})

	t.Run("NotFound", func(t *testing.T) {
		mockStore := new(MockAuditStore)
		handler := NewAuditHandler(logger, mockStore)

		mockStore.On("GetByExternalID", mock.Anything, int64(4040)).Return([]*reconciliation.AuditRecord{}, nil)

		router := setupTestRouter()
		router.GET("/api/audit/:external_id", handler.GetByExternalID)

		req, _ := http.NewRequest(http.MethodGet, "/api/audit/4040", nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		mockStore.AssertExpectations(t)
	})

	t.Run("StoreError", func(t *testing.T) {
		mockStore := new(MockAuditStore)
		handler := NewAuditHandler(logger, mockStore)

		mockStore.On("GetByExternalID", mock.Anything, int64(1001)).Return(nil, errors.New("mongo down"))

		router := setupTestRouter()
		router.GET("/api/audit/:external_id", handler.GetByExternalID)

		req, _ := http.NewRequest(http.MethodGet, "/api/audit/1001", nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		mockStore.AssertExpectations(t)
	})
}

func TestAuditHandler_GetByTimeRange(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	gin.SetMode(gin.TestMode)

	from := "2025-12-01T00:00:00Z"
	to := "2025-12-31T23:59:59Z"
	fromTime, _ := time.Parse(time.RFC3339, from)
	toTime, _ := time.Parse(time.RFC3339, to)

	t.Run("Success", func(t *testing.T) {
		mockStore := new(MockAuditStore)
		handler := NewAuditHandler(logger, mockStore)

		records := []*reconciliation.AuditRecord{
			{ExternalID: 1001, Amount: 499000, Status: reconciliation.OutcomeConfirmed, CreatedAt: time.Now()},
			{ExternalID: 1002, Amount: 50000, Status: reconciliation.OutcomeSkipped, Reason: "no payment reference in description", CreatedAt: time.Now()},
		}
		// Defaults: page 1, per_page 20, so offset 0.
		mockStore.On("GetByTimeRange", mock.Anything, fromTime, toTime, 20, 0).Return(records, nil)

		router := setupTestRouter()
		router.GET("/api/audit", handler.GetByTimeRange)

		req, _ := http.NewRequest(http.MethodGet, "/api/audit?from="+from+"&to="+to, nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var response Response
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
		require.NotNil(t, response.Meta)
		assert.Equal(t, 1, response.Meta.Page)
		assert.Equal(t, 20, response.Meta.PerPage)

		body := decodeAuditRecords(t, response.Data)
		require.Len(t, body, 2)
		assert.Equal(t, "skipped", body[1].Status)
		mockStore.AssertExpectations(t)
	})

	t.Run("PaginationOffset", func(t *testing.T) {
		mockStore := new(MockAuditStore)
		handler := NewAuditHandler(logger, mockStore)

		mockStore.On("GetByTimeRange", mock.Anything, fromTime, toTime, 10, 20).Return([]*reconciliation.AuditRecord{}, nil)

		router := setupTestRouter()
		router.GET("/api/audit", handler.GetByTimeRange)

		req, _ := http.NewRequest(http.MethodGet, "/api/audit?from="+from+"&to="+to+"&page=3&per_page=10", nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		mockStore.AssertExpectations(t)
	})

	t.Run("MissingRequiredParams", func(t *testing.T) {
		mockStore := new(MockAuditStore)
		handler := NewAuditHandler(logger, mockStore)

		router := setupTestRouter()
		router.GET("/api/audit", handler.GetByTimeRange)

		req, _ := http.NewRequest(http.MethodGet, "/api/audit?from="+from, nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockStore.AssertExpectations(t)
	})

	t.Run("MalformedTimestamp", func(t *testing.T) {
		mockStore := new(MockAuditStore)
		handler := NewAuditHandler(logger, mockStore)

		router := setupTestRouter()
		router.GET("/api/audit", handler.GetByTimeRange)

		req, _ := http.NewRequest(http.MethodGet, "/api/audit?from=20251201&to="+to, nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockStore.AssertExpectations(t)
	})

	t.Run("StoreError", func(t *testing.T) {
		mockStore := new(MockAuditStore)
		handler := NewAuditHandler(logger, mockStore)

		mockStore.On("GetByTimeRange", mock.Anything, fromTime, toTime, 20, 0).Return(nil, errors.New("mongo down"))

		router := setupTestRouter()
		router.GET("/api/audit", handler.GetByTimeRange)

		req, _ := http.NewRequest(http.MethodGet, "/api/audit?from="+from+"&to="+to, nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		mockStore.AssertExpectations(t)
	})
}
