package stripegateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"

	"github.com/kamaucodes/dukapay-backend/internal/credentials"
	"github.com/kamaucodes/dukapay-backend/internal/gateways"
	"github.com/kamaucodes/dukapay-backend/pkg/enums"
	pkgerrors "github.com/kamaucodes/dukapay-backend/pkg/errors"
	"github.com/kamaucodes/dukapay-backend/pkg/logger"
)

type secretResolver interface {
	Resolve(ctx context.Context, gateway enums.PaymentGateway, storeHint string) (*credentials.Credential, error)
}

// Adapter authenticates Stripe webhook deliveries and maps completed checkout
// sessions to payment events.
type Adapter struct {
	resolver        secretResolver
	defaultCurrency enums.Currency
	logg            *logger.Logger
}

func NewAdapter(resolver secretResolver, defaultCurrency enums.Currency, logg *logger.Logger) (*Adapter, error) {
	if resolver == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "secret resolver required")
	}
	if !defaultCurrency.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "default currency required")
	}
	return &Adapter{resolver: resolver, defaultCurrency: defaultCurrency, logg: logg}, nil
}

func (a *Adapter) Gateway() enums.PaymentGateway {
	return enums.PaymentGatewayStripe
}

// Authenticate verifies the Stripe-Signature envelope against the tenant's
// webhook secret and extracts a payment event from checkout.session.completed.
func (a *Adapter) Authenticate(ctx context.Context, rawBody []byte, header http.Header, storeHint string) (*gateways.PaymentEvent, error) {
	sigHeader := header.Get("Stripe-Signature")
	if sigHeader == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "stripe signature missing")
	}

	cred, err := a.resolver.Resolve(ctx, enums.PaymentGatewayStripe, storeHint)
	if err != nil {
		return nil, err
	}

	event, err := webhook.ConstructEvent(rawBody, sigHeader, cred.WebhookSecret)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "verify stripe signature")
	}

	if event.Type != stripe.EventTypeCheckoutSessionCompleted {
		return nil, nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode checkout session")
	}

	orderRef := session.ClientReferenceID
	if orderRef == "" && session.Metadata != nil {
		orderRef = session.Metadata["orderId"]
	}
	if orderRef == "" && a.logg != nil {
		a.logg.Warn(a.logg.WithGateway(ctx, string(enums.PaymentGatewayStripe)),
			"checkout session completed without order reference")
	}

	currency := a.defaultCurrency
	if session.Currency != "" {
		currency = enums.Currency(strings.ToUpper(string(session.Currency)))
	}

	return &gateways.PaymentEvent{
		Gateway:     enums.PaymentGatewayStripe,
		ExternalRef: session.ID,
		OrderRef:    orderRef,
		// amount_total is in minor units
		Amount:     decimal.NewFromInt(session.AmountTotal).Div(decimal.NewFromInt(100)),
		Currency:   currency,
		RawPayload: rawBody,
		ReceivedAt: time.Now().UTC(),
	}, nil
}
