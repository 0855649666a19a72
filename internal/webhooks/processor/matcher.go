package processor

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kamaucodes/dukapay-backend/internal/gateways"
	"github.com/kamaucodes/dukapay-backend/internal/orders"
	"github.com/kamaucodes/dukapay-backend/pkg/db/models"
	"github.com/kamaucodes/dukapay-backend/pkg/enums"
	pkgerrors "github.com/kamaucodes/dukapay-backend/pkg/errors"
)

const phoneSuffixLen = 9

// Matcher resolves a normalized payment event to the order it pays for.
type Matcher struct {
	orders orders.Repository
}

func NewMatcher(ordersRepo orders.Repository) *Matcher {
	return &Matcher{orders: ordersRepo}
}

// Match resolves the order for an event. An explicit order reference is
// authoritative: when present and unresolvable the match fails without
// falling through to the phone heuristic.
func (m *Matcher) Match(ctx context.Context, event *gateways.PaymentEvent) (*models.Order, error) {
	ref := strings.TrimSpace(event.OrderRef)
	if ref != "" {
		return m.matchByReference(ctx, ref)
	}
	if event.Gateway == enums.PaymentGatewayMpesa && event.PayerPhone != "" {
		return m.matchByPhone(ctx, event.PayerPhone)
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no order matched for payment event")
}

func (m *Matcher) matchByReference(ctx context.Context, ref string) (*models.Order, error) {
	var (
		order *models.Order
		err   error
	)
	if id, parseErr := uuid.Parse(ref); parseErr == nil {
		order, err = m.orders.FindByID(ctx, id)
	} else {
		order, err = m.orders.FindByReference(ctx, ref)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found").
				WithDetails(map[string]interface{}{"order_ref": ref})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "order lookup failed")
	}
	return order, nil
}

func (m *Matcher) matchByPhone(ctx context.Context, phone string) (*models.Order, error) {
	suffix := phoneSuffix(phone)
	if suffix == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payer phone carries no digits")
	}
	order, err := m.orders.FindOpenByPhoneSuffix(ctx, suffix)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no open order for payer phone")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "order lookup failed")
	}
	return order, nil
}

// phoneSuffix normalizes a payer phone to its trailing digits so local and
// international renderings of the same number compare equal.
func phoneSuffix(phone string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	normalized := digits.String()
	if len(normalized) > phoneSuffixLen {
		return normalized[len(normalized)-phoneSuffixLen:]
	}
	return normalized
}
