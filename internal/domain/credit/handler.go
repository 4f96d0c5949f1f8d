package credit

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/agroci/agroci-api/internal/middleware"
	"github.com/agroci/agroci-api/internal/pkg/logger"
	"github.com/agroci/agroci-api/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Balance handles GET /credits/balance
func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	balance, err := h.svc.GetBalance(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			response.NotFound(w, "profile not found")
			return
		}
		logger.LogError(r.Context(), err, "Failed to load credit balance", "user_id", userID.String())
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{"balance": balance})
}

// Transactions handles GET /credits/transactions?limit&offset
func (h *Handler) Transactions(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	items, total, page, err := h.svc.ListTransactions(r.Context(), userID, limit, offset)
	if err != nil {
		logger.LogError(r.Context(), err, "Failed to list credit transactions", "user_id", userID.String())
		response.InternalError(w)
		return
	}

	response.WithMeta(w, items, response.Meta{
		Total:   total,
		Limit:   page.Limit,
		Offset:  page.Offset,
		HasNext: page.Offset+len(items) < total,
	})
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/balance", h.Balance)
	r.Get("/transactions", h.Transactions)
	return r
}
