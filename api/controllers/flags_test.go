package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kamaucodes/dukapay-backend/internal/webhooks/processor"
	"github.com/kamaucodes/dukapay-backend/pkg/db/models"
	"github.com/kamaucodes/dukapay-backend/pkg/enums"
)

type stubFlagRepo struct {
	mu       sync.Mutex
	flags    []models.ReconciliationFlag
	listErr  error
	resolved []uuid.UUID
	limits   []int
}

func (s *stubFlagRepo) WithTx(tx *gorm.DB) processor.FlagRepository {
	return s
}

func (s *stubFlagRepo) Create(ctx context.Context, flag *models.ReconciliationFlag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags = append(s.flags, *flag)
	return nil
}

func (s *stubFlagRepo) ListUnresolved(ctx context.Context, limit int) ([]models.ReconciliationFlag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limits = append(s.limits, limit)
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]models.ReconciliationFlag, 0, len(s.flags))
	for i := range s.flags {
		if s.flags[i].ResolvedAt == nil {
			out = append(out, s.flags[i])
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *stubFlagRepo) Resolve(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.flags {
		if s.flags[i].ID == id && s.flags[i].ResolvedAt == nil {
			now := time.Now()
			s.flags[i].ResolvedAt = &now
			s.resolved = append(s.resolved, id)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func unresolvedFlag(reason enums.ReconciliationReason) models.ReconciliationFlag {
	return models.ReconciliationFlag{
		ID:         uuid.New(),
		Gateway:    enums.PaymentGatewayStripe,
		Reason:     reason,
		PaymentRef: "pi_" + uuid.NewString()[:8],
		Amount:     decimal.RequireFromString("150.00"),
		Currency:   enums.CurrencyUSD,
		CreatedAt:  time.Now(),
	}
}

func resolveFlagRequest(flagID string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reconciliation-flags/"+flagID+"/resolve", nil)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("flagID", flagID)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestListReconciliationFlagsReturnsBacklog(t *testing.T) {
	repo := &stubFlagRepo{flags: []models.ReconciliationFlag{
		unresolvedFlag(enums.ReconciliationReasonOrderNotFound),
		unresolvedFlag(enums.ReconciliationReasonCurrencyMismatch),
	}}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reconciliation-flags", nil)
	rec := httptest.NewRecorder()

	ListReconciliationFlags(repo, controllerTestLogger())(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data []flagResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 2)
	assert.Equal(t, enums.ReconciliationReasonOrderNotFound, envelope.Data[0].Reason)
	assert.Equal(t, enums.ReconciliationReasonCurrencyMismatch, envelope.Data[1].Reason)
	require.Len(t, repo.limits, 1)
	assert.Equal(t, 50, repo.limits[0])
}

func TestListReconciliationFlagsEmptyBacklog(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/reconciliation-flags", nil)
	rec := httptest.NewRecorder()

	ListReconciliationFlags(&stubFlagRepo{}, controllerTestLogger())(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[]}`, rec.Body.String())
}

func TestListReconciliationFlagsLimit(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		status    int
		wantLimit int
	}{
		{name: "explicit", query: "?limit=5", status: http.StatusOK, wantLimit: 5},
		{name: "capped", query: "?limit=9999", status: http.StatusOK, wantLimit: 200},
		{name: "zero", query: "?limit=0", status: http.StatusBadRequest},
		{name: "junk", query: "?limit=abc", status: http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := &stubFlagRepo{}
			req := httptest.NewRequest(http.MethodGet, "/api/v1/reconciliation-flags"+tc.query, nil)
			rec := httptest.NewRecorder()

			ListReconciliationFlags(repo, controllerTestLogger())(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusOK {
				require.Len(t, repo.limits, 1)
				assert.Equal(t, tc.wantLimit, repo.limits[0])
			} else {
				assert.Empty(t, repo.limits)
			}
		})
	}
}

func TestResolveReconciliationFlagMarksResolved(t *testing.T) {
	flag := unresolvedFlag(enums.ReconciliationReasonOrderNotFound)
	repo := &stubFlagRepo{flags: []models.ReconciliationFlag{flag}}

	rec := httptest.NewRecorder()
	ResolveReconciliationFlag(repo, controllerTestLogger())(rec, resolveFlagRequest(flag.ID.String()))

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data flagResolvedResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, flag.ID, envelope.Data.ID)
	assert.True(t, envelope.Data.Resolved)
	assert.Equal(t, []uuid.UUID{flag.ID}, repo.resolved)
}

func TestResolveReconciliationFlagUnknownID(t *testing.T) {
	rec := httptest.NewRecorder()
	ResolveReconciliationFlag(&stubFlagRepo{}, controllerTestLogger())(rec, resolveFlagRequest(uuid.NewString()))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_FOUND")
}

func TestResolveReconciliationFlagAlreadyResolved(t *testing.T) {
	flag := unresolvedFlag(enums.ReconciliationReasonDuplicatePayment)
	now := time.Now()
	flag.ResolvedAt = &now
	repo := &stubFlagRepo{flags: []models.ReconciliationFlag{flag}}

	rec := httptest.NewRecorder()
	ResolveReconciliationFlag(repo, controllerTestLogger())(rec, resolveFlagRequest(flag.ID.String()))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResolveReconciliationFlagInvalidID(t *testing.T) {
	rec := httptest.NewRecorder()
	ResolveReconciliationFlag(&stubFlagRepo{}, controllerTestLogger())(rec, resolveFlagRequest("not-a-uuid"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid flag id")
}
