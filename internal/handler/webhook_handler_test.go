package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchpush/internal/domain/delivery"
	"matchpush/internal/domain/ledger"
	"matchpush/internal/repository"
	"matchpush/internal/services"
	matchpush_errors "matchpush/pkg/errors"
	"matchpush/pkg/logger"
)

type stubLedgerRepo struct {
	byDispatch map[string]ledger.Entry
}

func (r *stubLedgerRepo) Create(ctx context.Context, tx repository.DBTX, e *ledger.Entry) error {
	return nil
}

func (r *stubLedgerRepo) GetActiveByFixture(ctx context.Context, fixtureID uuid.UUID) (ledger.Entry, error) {
	return ledger.Entry{}, matchpush_errors.ErrNotFound
}

func (r *stubLedgerRepo) GetByDispatchID(ctx context.Context, dispatchID string) (ledger.Entry, error) {
	if e, ok := r.byDispatch[dispatchID]; ok {
		return e, nil
	}
	return ledger.Entry{}, matchpush_errors.ErrNotFound
}

func (r *stubLedgerRepo) ListBySendAt(ctx context.Context, sendAt time.Time) ([]ledger.Entry, error) {
	return nil, nil
}

func (r *stubLedgerRepo) ListPendingBetween(ctx context.Context, from, until time.Time) ([]ledger.Entry, error) {
	return nil, nil
}

func (r *stubLedgerRepo) ListActiveBetween(ctx context.Context, from, until time.Time) ([]ledger.Entry, error) {
	return nil, nil
}

func (r *stubLedgerRepo) CountPendingAfter(ctx context.Context, after time.Time) (int, error) {
	return 0, nil
}

func (r *stubLedgerRepo) UpdateRemoteIDs(ctx context.Context, id uuid.UUID, remoteScheduleID string, dispatchID sql.NullString) error {
	return nil
}

func (r *stubLedgerRepo) MarkSent(ctx context.Context, id uuid.UUID, confirmationID string) error {
	return nil
}

func (r *stubLedgerRepo) MarkFailed(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (r *stubLedgerRepo) DeleteByRemoteScheduleID(ctx context.Context, tx repository.DBTX, remoteScheduleID string) error {
	return nil
}

type stubDeliveryRepo struct {
	rows []delivery.Confirmation
}

func (r *stubDeliveryRepo) Create(ctx context.Context, c *delivery.Confirmation) error {
	r.rows = append(r.rows, *c)
	return nil
}

func webhookRouter(entries repository.LedgerRepository, deliveries repository.DeliveryRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	correlator := services.NewCorrelatorService(entries, deliveries, nil, logger.New(logger.DevelopmentMode), 10*time.Minute)
	r := gin.New()
	r.POST("/v1/webhooks/delivery", NewWebhookHandler(correlator).Confirm)
	return r
}

func postConfirmation(t *testing.T, router *gin.Engine, payload map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/delivery", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestConfirmMatchedByDispatchID(t *testing.T) {
	fixtureID := uuid.New()
	entries := &stubLedgerRepo{byDispatch: map[string]ledger.Entry{
		"disp-1": {ID: uuid.New(), FixtureID: fixtureID, Status: ledger.StatusPending},
	}}
	deliveries := &stubDeliveryRepo{}
	router := webhookRouter(entries, deliveries)

	w := postConfirmation(t, router, map[string]interface{}{
		"recipient_id":      "user-1",
		"confirmation_type": "delivered",
		"dispatch_id":       "disp-1",
		"timestamp":         time.Now().UnixMilli(),
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Matched    bool   `json:"matched"`
			Method     string `json:"method"`
			Confidence string `json:"confidence"`
			FixtureID  string `json:"fixture_id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Data.Matched)
	assert.Equal(t, "dispatch_id", resp.Data.Method)
	assert.Equal(t, "high", resp.Data.Confidence)
	assert.Equal(t, fixtureID.String(), resp.Data.FixtureID)
	assert.Len(t, deliveries.rows, 1)
}

func TestConfirmUnmatchedStillAnswers200(t *testing.T) {
	deliveries := &stubDeliveryRepo{}
	router := webhookRouter(&stubLedgerRepo{}, deliveries)

	w := postConfirmation(t, router, map[string]interface{}{
		"recipient_id":      "user-1",
		"confirmation_type": "delivered",
		"timestamp":         time.Now().UnixMilli(),
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Matched bool   `json:"matched"`
			Method  string `json:"method"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Data.Matched)
	assert.Equal(t, "none", resp.Data.Method)
	assert.Len(t, deliveries.rows, 1, "unmatched confirmations are still recorded")
}

func TestConfirmRejectsMissingRequiredFields(t *testing.T) {
	router := webhookRouter(&stubLedgerRepo{}, &stubDeliveryRepo{})

	w := postConfirmation(t, router, map[string]interface{}{
		"confirmation_type": "delivered",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
