package payment

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agroci/agroci-api/internal/domain/credit"
	"github.com/agroci/agroci-api/internal/domain/plan"
	"github.com/agroci/agroci-api/internal/pkg/apperr"
	"github.com/agroci/agroci-api/internal/pkg/logger"
	"github.com/agroci/agroci-api/internal/pkg/paystack"
	"github.com/agroci/agroci-api/internal/pkg/storage"
	"github.com/agroci/agroci-api/internal/pkg/validator"
)

const archiveTimeout = 5 * time.Second

// Engine credits a verified grant exactly once.
type Engine interface {
	Process(ctx context.Context, grant credit.Grant) (*credit.Result, error)
}

// WebhookVerifier authenticates Paystack deliveries and hands charge
// events to the reconciliation engine.
type WebhookVerifier struct {
	secretKey string
	engine    Engine
	catalog   *plan.Catalog
	archive   storage.Archive
	now       func() time.Time
}

// NewWebhookVerifier creates a verifier. archive may be nil.
func NewWebhookVerifier(secretKey string, engine Engine, catalog *plan.Catalog, archive storage.Archive) *WebhookVerifier {
	if archive == nil {
		archive = storage.Nop{}
	}
	return &WebhookVerifier{
		secretKey: secretKey,
		engine:    engine,
		catalog:   catalog,
		archive:   archive,
		now:       time.Now,
	}
}

// Process handles one delivery. body must be the exact bytes received.
// Nothing is read from the payload before the signature is checked.
func (v *WebhookVerifier) Process(ctx context.Context, body []byte, signature string) (WebhookOutcome, error) {
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return "", apperr.New(apperr.KindUnauthorized, "Missing signature")
	}
	if !paystack.VerifySignature(body, signature, v.secretKey) {
		return "", apperr.New(apperr.KindUnauthorized, "Invalid signature")
	}

	evt, err := paystack.ParseEvent(body)
	if err != nil {
		return "", apperr.Wrap(apperr.KindBadPayload, "Invalid JSON payload", err)
	}

	l := logger.FromContext(ctx).With().
		Str("event", evt.Event).
		Str("reference", evt.Data.Reference).
		Logger()
	ctx = logger.WithContext(ctx, &l)

	v.store(ctx, evt.Data.Reference, body)

	if evt.Event != paystack.EventChargeSuccess {
		l.Info().Msg("Ignoring webhook event")
		return OutcomeIgnored, nil
	}

	grant, err := v.grantFrom(ctx, evt)
	if err != nil {
		return "", err
	}

	res, err := v.engine.Process(ctx, grant)
	if err != nil {
		return "", err
	}
	if res.Outcome == credit.OutcomeDuplicate {
		return OutcomeDuplicate, nil
	}
	return OutcomeGranted, nil
}

func (v *WebhookVerifier) grantFrom(ctx context.Context, evt *paystack.Event) (credit.Grant, error) {
	ref := strings.TrimSpace(evt.Data.Reference)
	if err := validator.ValidateVar(ref, "required,reference"); err != nil {
		return credit.Grant{}, apperr.Wrap(apperr.KindBadPayload, "Missing or invalid reference", err)
	}

	md, err := paystack.ParseMetadata(evt.Data.Metadata)
	if err != nil {
		return credit.Grant{}, apperr.Wrap(apperr.KindBadPayload, "Missing or invalid metadata", err)
	}
	if md.Credits <= 0 {
		return credit.Grant{}, apperr.New(apperr.KindBadPayload, "credits must be a positive integer")
	}
	rawID := NormalizeAccountID(md.AccountID)
	if err := validator.ValidateVar(rawID, "required,uuid"); err != nil {
		return credit.Grant{}, apperr.Wrap(apperr.KindBadPayload, "accountId must be a valid UUID", err)
	}
	accountID, err := uuid.Parse(rawID)
	if err != nil || accountID == uuid.Nil {
		return credit.Grant{}, apperr.New(apperr.KindBadPayload, "accountId must be a valid UUID")
	}

	if v.catalog != nil {
		if p, err := v.catalog.Get(md.Plan); err != nil {
			logger.LogWarn(ctx, "Webhook names a plan outside the catalog", "plan", md.Plan)
		} else if p.Credits != md.Credits || (evt.Data.Amount > 0 && p.Amount != evt.Data.Amount) {
			// Plans may have been repriced since checkout; metadata wins.
			logger.LogWarn(ctx, "Webhook metadata differs from current plan",
				"plan", md.Plan,
				"credits", md.Credits,
				"plan_credits", p.Credits,
				"amount", evt.Data.Amount,
				"plan_amount", p.Amount,
			)
		}
	}

	return credit.Grant{
		Reference: ref,
		AccountID: accountID,
		Credits:   md.Credits,
		Amount:    evt.Data.Amount,
		Currency:  strings.ToUpper(evt.Data.Currency),
		Plan:      md.Plan,
		Email:     strings.ToLower(strings.TrimSpace(evt.Data.Customer.Email)),
	}, nil
}

// store archives the authenticated body. Failures never affect the response.
func (v *WebhookVerifier) store(ctx context.Context, reference string, body []byte) {
	ctx, cancel := context.WithTimeout(ctx, archiveTimeout)
	defer cancel()

	key := storage.WebhookKey("paystack", reference, v.now())
	if err := v.archive.Put(ctx, key, body, "application/json"); err != nil {
		logger.LogWarn(ctx, "Failed to archive webhook", "key", key, "error", err.Error())
	}
}
