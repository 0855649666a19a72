package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kamaucodes/dukapay-backend/api/middleware"
	"github.com/kamaucodes/dukapay-backend/internal/ledger"
	internalorders "github.com/kamaucodes/dukapay-backend/internal/orders"
	"github.com/kamaucodes/dukapay-backend/pkg/db/models"
	"github.com/kamaucodes/dukapay-backend/pkg/enums"
	"github.com/kamaucodes/dukapay-backend/pkg/logger"
	"github.com/kamaucodes/dukapay-backend/pkg/outbox"
)

type stubControllerOrdersRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*models.Order
}

func newStubControllerOrdersRepo(orders ...*models.Order) *stubControllerOrdersRepo {
	repo := &stubControllerOrdersRepo{orders: make(map[uuid.UUID]*models.Order)}
	for _, order := range orders {
		repo.orders[order.ID] = order
	}
	return repo
}

func (s *stubControllerOrdersRepo) WithTx(tx *gorm.DB) internalorders.Repository {
	return s
}

func (s *stubControllerOrdersRepo) Create(ctx context.Context, order *models.Order) error {
	panic("not implemented")
}

func (s *stubControllerOrdersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *order
	return &copied, nil
}

func (s *stubControllerOrdersRepo) FindByReference(ctx context.Context, reference string) (*models.Order, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubControllerOrdersRepo) FindOpenByPhoneSuffix(ctx context.Context, suffix string) (*models.Order, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubControllerOrdersRepo) UpdateFinancials(ctx context.Context, order *models.Order, expectedVersion int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.orders[order.ID]
	if !ok || current.Version != expectedVersion {
		return internalorders.ErrVersionConflict
	}
	copied := *order
	s.orders[order.ID] = &copied
	return nil
}

type stubControllerPaymentsRepo struct {
	mu       sync.Mutex
	payments []models.OrderPayment
	listErr  error
}

func (s *stubControllerPaymentsRepo) WithTx(tx *gorm.DB) ledger.Repository {
	return s
}

func (s *stubControllerPaymentsRepo) Create(ctx context.Context, payment *models.OrderPayment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments = append(s.payments, *payment)
	return nil
}

func (s *stubControllerPaymentsRepo) FindByOrderAndRef(ctx context.Context, orderID uuid.UUID, paymentRef string) (*models.OrderPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.payments {
		if s.payments[i].OrderID == orderID && s.payments[i].PaymentRef == paymentRef {
			copied := s.payments[i]
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubControllerPaymentsRepo) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.OrderPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]models.OrderPayment, 0, len(s.payments))
	for i := range s.payments {
		if s.payments[i].OrderID == orderID {
			out = append(out, s.payments[i])
		}
	}
	return out, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type stubEmitter struct {
	mu     sync.Mutex
	events []outbox.DomainEvent
}

func (s *stubEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func controllerTestLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "controllers-test", Output: io.Discard})
}

func unpaidOrder(total string) *models.Order {
	amount := decimal.RequireFromString(total)
	return &models.Order{
		ID:            uuid.New(),
		StoreID:       uuid.New(),
		Reference:     "ORD-7001",
		Currency:      enums.CurrencyKES,
		TotalAmount:   amount,
		AmountPaid:    decimal.Zero,
		AmountDue:     amount,
		PaymentStatus: enums.PaymentStatusUnpaid,
		Version:       1,
	}
}

func newLedgerService(orders *stubControllerOrdersRepo, payments *stubControllerPaymentsRepo) *ledger.Service {
	return ledger.NewService(orders, payments, stubTxRunner{}, &stubEmitter{}, controllerTestLogger(), 3)
}

func paymentRequest(t *testing.T, orderID uuid.UUID, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/payments", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("orderID", orderID.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
	return req
}

func TestRecordManualPaymentSettlesOrder(t *testing.T) {
	order := unpaidOrder("1200.00")
	ordersRepo := newStubControllerOrdersRepo(order)
	paymentsRepo := &stubControllerPaymentsRepo{}
	svc := newLedgerService(ordersRepo, paymentsRepo)

	userID := uuid.New()
	req := paymentRequest(t, order.ID, `{"payment_ref":"RCPT-001","amount":"1200.00","currency":"KES","method":"cash"}`)
	req = req.WithContext(middleware.WithActor(req.Context(), middleware.Actor{UserID: userID.String()}))
	rec := httptest.NewRecorder()

	RecordManualPayment(svc, controllerTestLogger())(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var envelope struct {
		Data paymentResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, order.ID, envelope.Data.OrderID)
	assert.Equal(t, "RCPT-001", envelope.Data.PaymentRef)
	assert.Equal(t, enums.PaymentGatewayManual, envelope.Data.Gateway)
	assert.Equal(t, enums.PaymentMethodCash, envelope.Data.Method)

	updated, err := ordersRepo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPaid, updated.PaymentStatus)
	assert.True(t, updated.AmountDue.IsZero())
}

func TestRecordManualPaymentInvalidOrderID(t *testing.T) {
	svc := newLedgerService(newStubControllerOrdersRepo(), &stubControllerPaymentsRepo{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/not-a-uuid/payments", strings.NewReader(`{}`))
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("orderID", "not-a-uuid")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
	rec := httptest.NewRecorder()

	RecordManualPayment(svc, controllerTestLogger())(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid order id")
}

func TestRecordManualPaymentValidation(t *testing.T) {
	svc := newLedgerService(newStubControllerOrdersRepo(), &stubControllerPaymentsRepo{})

	cases := []struct {
		name string
		body string
		want string
	}{
		{"missing ref", `{"amount":"10.00","currency":"KES"}`, "payment_ref"},
		{"unsupported currency", `{"payment_ref":"R1","amount":"10.00","currency":"GBP"}`, "currency"},
		{"card method rejected", `{"payment_ref":"R1","amount":"10.00","currency":"KES","method":"card"}`, "method"},
		{"amount not decimal", `{"payment_ref":"R1","amount":"ten","currency":"KES"}`, "decimal"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := paymentRequest(t, uuid.New(), tc.body)
			rec := httptest.NewRecorder()

			RecordManualPayment(svc, controllerTestLogger())(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.want)
		})
	}
}

func TestRecordManualPaymentUnknownOrder(t *testing.T) {
	svc := newLedgerService(newStubControllerOrdersRepo(), &stubControllerPaymentsRepo{})

	req := paymentRequest(t, uuid.New(), `{"payment_ref":"RCPT-002","amount":"100.00","currency":"KES"}`)
	rec := httptest.NewRecorder()

	RecordManualPayment(svc, controllerTestLogger())(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_FOUND")
}

func TestRecordManualPaymentReplayReturnsOriginalRow(t *testing.T) {
	order := unpaidOrder("500.00")
	ordersRepo := newStubControllerOrdersRepo(order)
	paymentsRepo := &stubControllerPaymentsRepo{}
	svc := newLedgerService(ordersRepo, paymentsRepo)

	body := `{"payment_ref":"RCPT-003","amount":"500.00","currency":"KES"}`
	first := httptest.NewRecorder()
	RecordManualPayment(svc, controllerTestLogger())(first, paymentRequest(t, order.ID, body))
	require.Equal(t, http.StatusCreated, first.Code)

	second := httptest.NewRecorder()
	RecordManualPayment(svc, controllerTestLogger())(second, paymentRequest(t, order.ID, body))

	assert.Equal(t, http.StatusCreated, second.Code)
	paymentsRepo.mu.Lock()
	defer paymentsRepo.mu.Unlock()
	assert.Len(t, paymentsRepo.payments, 1)
}

func TestListOrderPayments(t *testing.T) {
	order := unpaidOrder("900.00")
	ordersRepo := newStubControllerOrdersRepo(order)
	paymentsRepo := &stubControllerPaymentsRepo{}
	svc := newLedgerService(ordersRepo, paymentsRepo)

	post := httptest.NewRecorder()
	RecordManualPayment(svc, controllerTestLogger())(post, paymentRequest(t, order.ID, `{"payment_ref":"RCPT-004","amount":"300.00","currency":"KES"}`))
	require.Equal(t, http.StatusCreated, post.Code)

	req := paymentRequest(t, order.ID, "")
	rec := httptest.NewRecorder()
	ListOrderPayments(svc, controllerTestLogger())(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data []paymentResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, "RCPT-004", envelope.Data[0].PaymentRef)
}

func TestListOrderPaymentsEmpty(t *testing.T) {
	svc := newLedgerService(newStubControllerOrdersRepo(), &stubControllerPaymentsRepo{})

	req := paymentRequest(t, uuid.New(), "")
	rec := httptest.NewRecorder()
	ListOrderPayments(svc, controllerTestLogger())(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[]}`, rec.Body.String())
}
