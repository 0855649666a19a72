package credentials

import (
	"context"
	stdErrors "errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kamaucodes/dukapay-backend/pkg/db/models"
	"github.com/kamaucodes/dukapay-backend/pkg/enums"
	"github.com/kamaucodes/dukapay-backend/pkg/errors"
	"github.com/kamaucodes/dukapay-backend/pkg/secrets"
)

// Credential carries decrypted secret material for a single store gateway.
// Values must never be logged.
type Credential struct {
	StoreID       uuid.UUID
	Gateway       enums.PaymentGateway
	WebhookSecret string
	APIKey        string
}

// Resolver decrypts stored gateway credentials on demand.
type Resolver struct {
	repo   Repository
	cipher *secrets.Cipher
}

// NewResolver validates dependencies and returns a Resolver.
func NewResolver(repo Repository, cipher *secrets.Cipher) (*Resolver, error) {
	if repo == nil {
		return nil, fmt.Errorf("credential repository required")
	}
	if cipher == nil {
		return nil, fmt.Errorf("credential cipher required")
	}
	return &Resolver{repo: repo, cipher: cipher}, nil
}

// Resolve returns the decrypted credential for the gateway. When storeHint is
// a store id the lookup is keyed; otherwise the first configured tenant for
// the gateway is used. The scan fallback is only correct while a single tenant
// per gateway is configured and exists to keep legacy unkeyed webhook URLs
// working.
func (r *Resolver) Resolve(ctx context.Context, gateway enums.PaymentGateway, storeHint string) (*Credential, error) {
	if !gateway.IsValid() {
		return nil, errors.New(errors.CodeValidation, fmt.Sprintf("unknown gateway %q", gateway))
	}

	var (
		row *models.StorePaymentMethod
		err error
	)
	if hint := strings.TrimSpace(storeHint); hint != "" {
		storeID, parseErr := uuid.Parse(hint)
		if parseErr != nil {
			return nil, errors.New(errors.CodeValidation, "store hint is not a valid id")
		}
		row, err = r.repo.FindByStoreAndGateway(ctx, storeID, gateway)
	} else {
		row, err = r.repo.FindFirstActiveByGateway(ctx, gateway)
	}
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.CodeUnauthorized, fmt.Sprintf("no %s credential configured", gateway))
		}
		return nil, errors.Wrap(errors.CodeDependency, err, "loading gateway credential")
	}

	webhookSecret, err := r.cipher.Decrypt(row.WebhookSecret)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "decrypting webhook secret")
	}

	apiKey := ""
	if row.APIKey != nil {
		apiKey, err = r.cipher.Decrypt(*row.APIKey)
		if err != nil {
			return nil, errors.Wrap(errors.CodeInternal, err, "decrypting api key")
		}
	}

	return &Credential{
		StoreID:       row.StoreID,
		Gateway:       row.Gateway,
		WebhookSecret: webhookSecret,
		APIKey:        apiKey,
	}, nil
}
