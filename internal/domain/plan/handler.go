package plan

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/agroci/agroci-api/internal/pkg/response"
)

// Handler serves the public plan catalog
type Handler struct {
	catalog *Catalog
}

// PlanResponse is a plan with its display price
type PlanResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Amount   int64  `json:"amount"`
	Price    string `json:"price"`
	Currency string `json:"currency"`
	Credits  int    `json:"credits"`
}

func NewHandler(catalog *Catalog) *Handler {
	return &Handler{catalog: catalog}
}

// List handles GET /plans
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	plans := h.catalog.List()
	items := make([]PlanResponse, 0, len(plans))
	for _, p := range plans {
		items = append(items, PlanResponse{
			ID:       p.ID,
			Name:     p.Name,
			Amount:   p.Amount,
			Price:    h.catalog.FormatAmount(p.Amount),
			Currency: h.catalog.Currency(),
			Credits:  p.Credits,
		})
	}
	response.OK(w, items)
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	return r
}
