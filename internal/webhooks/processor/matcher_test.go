package processor

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kamaucodes/dukapay-backend/internal/gateways"
	"github.com/kamaucodes/dukapay-backend/internal/orders"
	"github.com/kamaucodes/dukapay-backend/pkg/db/models"
	"github.com/kamaucodes/dukapay-backend/pkg/enums"
	pkgerrors "github.com/kamaucodes/dukapay-backend/pkg/errors"
)

type stubOrdersRepo struct {
	byID        map[uuid.UUID]*models.Order
	byReference map[string]*models.Order
	byPhone     map[string]*models.Order
}

func newStubOrdersRepo() *stubOrdersRepo {
	return &stubOrdersRepo{
		byID:        map[uuid.UUID]*models.Order{},
		byReference: map[string]*models.Order{},
		byPhone:     map[string]*models.Order{},
	}
}

func (s *stubOrdersRepo) add(order *models.Order) {
	s.byID[order.ID] = order
	s.byReference[order.Reference] = order
	if order.CustomerPhone != nil {
		phone := *order.CustomerPhone
		if len(phone) > phoneSuffixLen {
			phone = phone[len(phone)-phoneSuffixLen:]
		}
		s.byPhone[phone] = order
	}
}

func (s *stubOrdersRepo) WithTx(tx *gorm.DB) orders.Repository { return s }

func (s *stubOrdersRepo) Create(ctx context.Context, order *models.Order) error {
	s.add(order)
	return nil
}

func (s *stubOrdersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if order, ok := s.byID[id]; ok {
		return order, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrdersRepo) FindByReference(ctx context.Context, reference string) (*models.Order, error) {
	if order, ok := s.byReference[reference]; ok {
		return order, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrdersRepo) FindOpenByPhoneSuffix(ctx context.Context, suffix string) (*models.Order, error) {
	for phone, order := range s.byPhone {
		if strings.HasSuffix(phone, suffix) && order.AmountDue.IsPositive() {
			return order, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrdersRepo) UpdateFinancials(ctx context.Context, order *models.Order, expectedVersion int) error {
	return nil
}

func openOrder(reference, phone string) *models.Order {
	var phonePtr *string
	if phone != "" {
		phonePtr = &phone
	}
	return &models.Order{
		ID:            uuid.New(),
		StoreID:       uuid.New(),
		Reference:     reference,
		CustomerPhone: phonePtr,
		Currency:      enums.CurrencyKES,
		TotalAmount:   decimal.RequireFromString("1000.00"),
		AmountDue:     decimal.RequireFromString("1000.00"),
		PaymentStatus: enums.PaymentStatusUnpaid,
		Version:       1,
	}
}

func TestMatchByMerchantReference(t *testing.T) {
	repo := newStubOrdersRepo()
	order := openOrder("ORD-1001", "")
	repo.add(order)
	matcher := NewMatcher(repo)

	matched, err := matcher.Match(context.Background(), &gateways.PaymentEvent{
		Gateway:     enums.PaymentGatewayStripe,
		ExternalRef: "cs_test_1",
		OrderRef:    "ORD-1001",
	})
	require.NoError(t, err)
	assert.Equal(t, order.ID, matched.ID)
}

func TestMatchByRawOrderID(t *testing.T) {
	repo := newStubOrdersRepo()
	order := openOrder("ORD-1002", "")
	repo.add(order)
	matcher := NewMatcher(repo)

	matched, err := matcher.Match(context.Background(), &gateways.PaymentEvent{
		Gateway:     enums.PaymentGatewayPaystack,
		ExternalRef: "ps_ref_1",
		OrderRef:    order.ID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, order.ID, matched.ID)
}

func TestMatchExplicitReferenceNeverFallsThrough(t *testing.T) {
	repo := newStubOrdersRepo()
	order := openOrder("ORD-1003", "254712345678")
	repo.add(order)
	matcher := NewMatcher(repo)

	_, err := matcher.Match(context.Background(), &gateways.PaymentEvent{
		Gateway:     enums.PaymentGatewayMpesa,
		ExternalRef: "NLJ000",
		OrderRef:    "ORD-MISSING",
		PayerPhone:  "254712345678",
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestMatchByPhoneSuffix(t *testing.T) {
	repo := newStubOrdersRepo()
	order := openOrder("ORD-1004", "254712345678")
	repo.add(order)
	matcher := NewMatcher(repo)

	matched, err := matcher.Match(context.Background(), &gateways.PaymentEvent{
		Gateway:     enums.PaymentGatewayMpesa,
		ExternalRef: "NLJ7RT61SV",
		PayerPhone:  "+254 712 345 678",
	})
	require.NoError(t, err)
	assert.Equal(t, order.ID, matched.ID)
}

func TestMatchPhoneHeuristicOnlyForMpesa(t *testing.T) {
	repo := newStubOrdersRepo()
	repo.add(openOrder("ORD-1005", "254712345678"))
	matcher := NewMatcher(repo)

	_, err := matcher.Match(context.Background(), &gateways.PaymentEvent{
		Gateway:     enums.PaymentGatewayStripe,
		ExternalRef: "cs_test_2",
		PayerPhone:  "254712345678",
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestPhoneSuffix(t *testing.T) {
	assert.Equal(t, "712345678", phoneSuffix("+254712345678"))
	assert.Equal(t, "712345678", phoneSuffix("0712 345 678"))
	assert.Equal(t, "12345", phoneSuffix("12345"))
	assert.Equal(t, "", phoneSuffix("no digits"))
}
