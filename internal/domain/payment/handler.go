package payment

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/agroci/agroci-api/internal/middleware"
	"github.com/agroci/agroci-api/internal/pkg/apperr"
	"github.com/agroci/agroci-api/internal/pkg/errorhandler"
	"github.com/agroci/agroci-api/internal/pkg/logger"
	"github.com/agroci/agroci-api/internal/pkg/paystack"
	"github.com/agroci/agroci-api/internal/pkg/response"
)

const (
	maxInitiateBody = 64 << 10
	maxWebhookBody  = 1 << 20
)

// Handler handles payment HTTP requests
type Handler struct {
	service  *Service
	verifier *WebhookVerifier
}

// NewHandler creates payment handler
func NewHandler(service *Service, verifier *WebhookVerifier) *Handler {
	return &Handler{service: service, verifier: verifier}
}

// Initiate handles POST /payments/initiate
// @Summary Start a credit purchase
// @Description Resolves the plan and opens a Paystack checkout for the account
// @Tags Payment
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body InitiateRequest true "Plan, buyer email and account"
// @Success 200 {object} InitiateResponse
// @Failure 400,401,429,500 {object} response.Flat
// @Router /payments/initiate [post]
func (h *Handler) Initiate(w http.ResponseWriter, r *http.Request) {
	var req InitiateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxInitiateBody)).Decode(&req); err != nil {
		response.Fail(w, http.StatusBadRequest, string(apperr.KindInvalidRequest), "Corps de requête invalide")
		return
	}

	out, err := h.service.Initiate(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		if verr, ok := AsValidationError(err); ok {
			response.FailWithDetails(w, http.StatusBadRequest, string(apperr.KindInvalidRequest), apperr.MessageOf(err), verr.Fields)
			return
		}
		errorhandler.Write(r.Context(), w, err)
		return
	}

	response.Raw(w, http.StatusOK, out)
}

// PaystackWebhook handles POST /webhooks/paystack
// @Summary Paystack webhook
// @Description Verifies the x-paystack-signature HMAC and credits the account on charge.success
// @Tags Payment Webhooks
// @Accept json
// @Produce json
// @Param x-paystack-signature header string true "HMAC-SHA512 of the raw body"
// @Success 200 {object} WebhookAck
// @Failure 400,401,500 {object} response.Flat
// @Router /webhooks/paystack [post]
func (h *Handler) PaystackWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		errorhandler.Write(r.Context(), w, apperr.Wrap(apperr.KindBadPayload, "Unreadable request body", err))
		return
	}

	outcome, err := h.verifier.Process(r.Context(), body, r.Header.Get(paystack.SignatureHeader))
	if err != nil {
		errorhandler.Write(r.Context(), w, err)
		return
	}

	logger.LogInfo(r.Context(), "Webhook processed", "outcome", string(outcome))
	response.Raw(w, http.StatusOK, WebhookAck{Received: true})
}

// Routes returns payment router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Post("/initiate", h.Initiate)
	return r
}

// WebhookRoutes returns webhook router (no auth, but signature verification)
func (h *Handler) WebhookRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.PaystackWebhook)
	return r
}
