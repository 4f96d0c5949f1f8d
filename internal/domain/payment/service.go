package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/agroci/agroci-api/internal/domain/plan"
	"github.com/agroci/agroci-api/internal/pkg/apperr"
	"github.com/agroci/agroci-api/internal/pkg/logger"
	"github.com/agroci/agroci-api/internal/pkg/paystack"
	"github.com/agroci/agroci-api/internal/pkg/validator"
)

const gatewayFallbackMessage = "Erreur lors de l'initialisation du paiement"

// Initializer creates a checkout session with the payment provider.
type Initializer interface {
	Initialize(ctx context.Context, req paystack.InitializeRequest) (*paystack.InitializeResponse, error)
}

// AccountOwner reports whether a profile belongs to the authenticated user.
type AccountOwner interface {
	AccountBelongsTo(ctx context.Context, accountID, userID uuid.UUID) (bool, error)
}

// ValidationError carries per-field messages for the checkout form.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	return "validation failed: " + strings.Join(keys, ", ")
}

// Config holds initiation settings
type Config struct {
	Currency    string
	CallbackURL string
}

// Service starts credit purchases.
type Service struct {
	gateway Initializer
	catalog *plan.Catalog
	owners  AccountOwner
	limiter *RateLimiter
	config  Config
}

// NewService creates the initiation service. owners and limiter may be nil.
func NewService(gateway Initializer, catalog *plan.Catalog, owners AccountOwner, limiter *RateLimiter, cfg Config) *Service {
	if cfg.Currency == "" {
		cfg.Currency = catalog.Currency()
	}
	return &Service{
		gateway: gateway,
		catalog: catalog,
		owners:  owners,
		limiter: limiter,
		config:  cfg,
	}
}

// Initiate validates the request, resolves the plan and opens a Paystack
// checkout. Nothing is written locally: the ledger only learns about the
// payment from the webhook. userID is the authenticated caller, uuid.Nil
// when the route is not behind auth.
func (s *Service) Initiate(ctx context.Context, userID uuid.UUID, req InitiateRequest) (*InitiateResponse, error) {
	req.Normalize()

	p, accountID, err := s.validate(req)
	if err != nil {
		return nil, err
	}

	if s.owners != nil && userID != uuid.Nil {
		owned, err := s.owners.AccountBelongsTo(ctx, accountID, userID)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "", fmt.Errorf("check account owner: %w", err))
		}
		if !owned {
			return nil, apperr.New(apperr.KindInvalidRequest, "ID de profil invalide")
		}
	}

	if !s.limiter.Allow(ctx, accountID) {
		return nil, apperr.New(apperr.KindRateLimited, "Trop de tentatives de paiement, réessayez dans une minute")
	}

	resp, err := s.gateway.Initialize(ctx, paystack.InitializeRequest{
		Email:       req.Email,
		Amount:      p.Amount,
		Currency:    s.config.Currency,
		CallbackURL: s.config.CallbackURL,
		Metadata: paystack.Metadata{
			Plan:      p.ID,
			Credits:   p.Credits,
			AccountID: accountID.String(),
			ProfileID: accountID.String(),
			CustomFields: []paystack.CustomField{{
				DisplayName:  "Pack de crédits",
				VariableName: "credit_pack",
				Value:        p.Name,
			}},
		},
	})
	if err != nil {
		message := gatewayFallbackMessage
		if apiErr, ok := paystack.IsAPIError(err); ok && apiErr.Message != "" {
			message = apiErr.Message
		}
		return nil, apperr.Wrap(apperr.KindGateway, message, err)
	}

	logger.LogInfo(ctx, "Payment initialized",
		"reference", resp.Reference,
		"plan", p.ID,
		"account_id", accountID.String(),
		"amount", p.Amount,
	)

	return &InitiateResponse{
		Success:          true,
		AuthorizationURL: resp.AuthorizationURL,
		AccessCode:       resp.AccessCode,
		Reference:        resp.Reference,
	}, nil
}

func (s *Service) validate(req InitiateRequest) (plan.Plan, uuid.UUID, error) {
	fields := validator.Validate(&req)
	if fields == nil {
		fields = map[string]string{}
	}

	p, err := s.catalog.Get(req.Plan)
	if err != nil && req.Plan != "" {
		fields["plan"] = "Unknown plan"
	}

	if len(fields) > 0 {
		return plan.Plan{}, uuid.Nil, apperr.Wrap(apperr.KindInvalidRequest, s.messageFor(fields), &ValidationError{Fields: fields})
	}

	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		return plan.Plan{}, uuid.Nil, apperr.Wrap(apperr.KindInvalidRequest, "ID de profil invalide", err)
	}
	return p, accountID, nil
}

// messageFor picks the message the web client shows, in the order the
// checkout form lists its fields.
func (s *Service) messageFor(fields map[string]string) string {
	switch {
	case fields["email"] != "":
		return "Format d'email invalide"
	case fields["plan"] != "":
		return "Plan invalide. Choisissez " + joinFrench(s.catalog.IDs())
	case fields["accountId"] != "":
		return "ID de profil invalide"
	}
	return "Requête invalide"
}

func joinFrench(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}
	return strings.Join(items[:len(items)-1], ", ") + " ou " + items[len(items)-1]
}

// AsValidationError returns the field errors carried by err, if any.
func AsValidationError(err error) (*ValidationError, bool) {
	var v *ValidationError
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}
