package mpesagateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kamaucodes/dukapay-backend/internal/gateways"
	"github.com/kamaucodes/dukapay-backend/pkg/enums"
	pkgerrors "github.com/kamaucodes/dukapay-backend/pkg/errors"
	"github.com/kamaucodes/dukapay-backend/pkg/logger"
)

type callbackItem struct {
	Name  string          `json:"Name"`
	Value json.RawMessage `json:"Value"`
}

type stkCallback struct {
	MerchantRequestID string `json:"MerchantRequestID"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
	ResultCode        int    `json:"ResultCode"`
	ResultDesc        string `json:"ResultDesc"`
	CallbackMetadata  struct {
		Item []callbackItem `json:"Item"`
	} `json:"CallbackMetadata"`
}

type callbackPayload struct {
	Body struct {
		StkCallback stkCallback `json:"stkCallback"`
	} `json:"Body"`
}

// Adapter maps M-Pesa STK push callbacks to payment events. M-Pesa does not
// sign callbacks; the deployment relies on a pre-shared callback URL, so
// Authenticate only validates shape.
type Adapter struct {
	defaultCurrency enums.Currency
	logg            *logger.Logger
}

func NewAdapter(defaultCurrency enums.Currency, logg *logger.Logger) (*Adapter, error) {
	if !defaultCurrency.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "default currency required")
	}
	return &Adapter{defaultCurrency: defaultCurrency, logg: logg}, nil
}

func (a *Adapter) Gateway() enums.PaymentGateway {
	return enums.PaymentGatewayMpesa
}

func (a *Adapter) Authenticate(ctx context.Context, rawBody []byte, header http.Header, storeHint string) (*gateways.PaymentEvent, error) {
	var payload callbackPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode stk callback")
	}

	callback := payload.Body.StkCallback
	if callback.CheckoutRequestID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stk callback missing checkout request id")
	}

	if callback.ResultCode != 0 {
		if a.logg != nil {
			logCtx := a.logg.WithFields(ctx, map[string]any{
				"gateway":             string(enums.PaymentGatewayMpesa),
				"checkout_request_id": callback.CheckoutRequestID,
				"result_code":         callback.ResultCode,
			})
			a.logg.Warn(logCtx, fmt.Sprintf("stk push failed or canceled: %s", callback.ResultDesc))
		}
		return nil, nil
	}

	amount, err := itemDecimal(callback.CallbackMetadata.Item, "Amount")
	if err != nil {
		return nil, err
	}
	receipt, err := itemString(callback.CallbackMetadata.Item, "MpesaReceiptNumber")
	if err != nil {
		return nil, err
	}
	phone, err := itemString(callback.CallbackMetadata.Item, "PhoneNumber")
	if err != nil {
		return nil, err
	}

	return &gateways.PaymentEvent{
		Gateway:     enums.PaymentGatewayMpesa,
		ExternalRef: receipt,
		Amount:      amount,
		Currency:    a.defaultCurrency,
		PayerPhone:  phone,
		RawPayload:  rawBody,
		ReceivedAt:  time.Now().UTC(),
	}, nil
}

func findItem(items []callbackItem, name string) (json.RawMessage, bool) {
	for _, item := range items {
		if item.Name == name && len(item.Value) > 0 {
			return item.Value, true
		}
	}
	return nil, false
}

func itemDecimal(items []callbackItem, name string) (decimal.Decimal, error) {
	raw, ok := findItem(items, name)
	if !ok {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("stk callback missing %s", name))
	}
	var value decimal.Decimal
	if err := json.Unmarshal(raw, &value); err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("parse %s item", name))
	}
	return value, nil
}

// itemString reads a metadata item that M-Pesa serializes as either a JSON
// string or a bare number.
func itemString(items []callbackItem, name string) (string, error) {
	raw, ok := findItem(items, name)
	if !ok {
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("stk callback missing %s", name))
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString, nil
	}
	var asNumber json.Number
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		return asNumber.String(), nil
	}
	return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unreadable %s item", name))
}
