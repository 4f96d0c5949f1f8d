package authhook

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/agroci/agroci-api/internal/pkg/logger"
	"github.com/agroci/agroci-api/internal/pkg/response"
)

const maxHookBody = 256 << 10

// HookError is the error shape Supabase Auth expects from hooks.
type HookError struct {
	HTTPCode int    `json:"http_code"`
	Message  string `json:"message"`
}

type hookErrorBody struct {
	Error HookError `json:"error"`
}

// Handler serves the Supabase send-email hook
type Handler struct {
	verifier *Verifier
	service  *Service
}

func NewHandler(verifier *Verifier, service *Service) *Handler {
	return &Handler{verifier: verifier, service: service}
}

// SendEmail handles POST /hooks/send-email
func (h *Handler) SendEmail(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxHookBody))
	if err != nil {
		fail(w, r, http.StatusBadRequest, err)
		return
	}

	if err := h.verifier.Verify(body, r.Header); err != nil {
		fail(w, r, http.StatusUnauthorized, err)
		return
	}

	payload, err := ParsePayload(body)
	if err != nil {
		fail(w, r, http.StatusBadRequest, err)
		return
	}

	id, err := h.service.Send(r.Context(), payload)
	if err != nil {
		fail(w, r, http.StatusInternalServerError, err)
		return
	}

	logger.LogInfo(r.Context(), "Auth email sent", "email_id", id)
	response.Raw(w, http.StatusOK, map[string]bool{"success": true})
}

// fail always answers 401: Supabase reads http_code from the body.
func fail(w http.ResponseWriter, r *http.Request, code int, err error) {
	logger.LogError(r.Context(), err, "Send-email hook failed", "http_code", code)
	response.Raw(w, http.StatusUnauthorized, hookErrorBody{Error: HookError{HTTPCode: code, Message: err.Error()}})
}

// Routes returns hook router
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/send-email", h.SendEmail)
	return r
}
