package paystackgateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kamaucodes/dukapay-backend/internal/credentials"
	"github.com/kamaucodes/dukapay-backend/internal/gateways"
	"github.com/kamaucodes/dukapay-backend/pkg/enums"
	pkgerrors "github.com/kamaucodes/dukapay-backend/pkg/errors"
	"github.com/kamaucodes/dukapay-backend/pkg/logger"
	"github.com/kamaucodes/dukapay-backend/pkg/signature"
)

// SignatureHeader carries the HMAC-SHA512 digest Paystack signs with.
const SignatureHeader = "x-paystack-signature"

const relevantEvent = "charge.success"

type secretResolver interface {
	Resolve(ctx context.Context, gateway enums.PaymentGateway, storeHint string) (*credentials.Credential, error)
}

type webhookPayload struct {
	Event string `json:"event"`
	Data  struct {
		Reference string          `json:"reference"`
		Amount    decimal.Decimal `json:"amount"`
		Currency  string          `json:"currency"`
		Metadata  struct {
			OrderID string `json:"orderId"`
		} `json:"metadata"`
	} `json:"data"`
}

// Adapter authenticates Paystack webhook deliveries via HMAC-SHA512 over the
// raw body, signed with the tenant's secret key.
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
	return enums.PaymentGatewayPaystack
}

func (a *Adapter) Authenticate(ctx context.Context, rawBody []byte, header http.Header, storeHint string) (*gateways.PaymentEvent, error) {
	sig := header.Get(SignatureHeader)
	if sig == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "paystack signature missing")
	}

	cred, err := a.resolver.Resolve(ctx, enums.PaymentGatewayPaystack, storeHint)
	if err != nil {
		return nil, err
	}

	// Paystack signs with the account secret key rather than a dedicated
	// webhook secret.
	secret := cred.APIKey
	if secret == "" {
		secret = cred.WebhookSecret
	}
	ok, err := signature.VerifyHMAC(signature.SchemeHMACSHA512, secret, rawBody, sig)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify paystack signature")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "paystack signature mismatch")
	}

	var payload webhookPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode paystack payload")
	}

	if payload.Event != relevantEvent {
		return nil, nil
	}

	orderRef := payload.Data.Metadata.OrderID
	if orderRef == "" {
		orderRef = payload.Data.Reference
	}
	if orderRef == "" && a.logg != nil {
		a.logg.Warn(a.logg.WithGateway(ctx, string(enums.PaymentGatewayPaystack)),
			"charge.success event missing reference")
	}

	currency := a.defaultCurrency
	if payload.Data.Currency != "" {
		currency = enums.Currency(strings.ToUpper(payload.Data.Currency))
	}

	return &gateways.PaymentEvent{
		Gateway:     enums.PaymentGatewayPaystack,
		ExternalRef: payload.Data.Reference,
		OrderRef:    orderRef,
		// charge amounts arrive in major units
		Amount:     payload.Data.Amount,
		Currency:   currency,
		RawPayload: rawBody,
		ReceivedAt: time.Now().UTC(),
	}, nil
}
