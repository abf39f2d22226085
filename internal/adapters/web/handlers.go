package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"order-management/internal/app"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc       app.ApplicationService
	router    chi.Router
	jwtSecret string
	log       zerolog.Logger
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins, jwtSecret string, logger zerolog.Logger) http.Handler {
	h := &Handler{
		svc:       svc,
		jwtSecret: jwtSecret,
		log:       logger,
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(logger))
	r.Use(Recoverer(logger))
	r.Use(CORS(allowedOrigins))

	// ── Health (public) ───────────────────────────────────────────────────────
	r.Get("/api/health", h.health)

	// ── Protected API routes (return 401 JSON if unauthenticated) ────────────
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.Use(RequestBodyLimit(1 << 20)) // 1 MB

		// ── Sales order lines ─────────────────────────────────────────────────
		r.Post("/api/sales-orders/{orderID}/lines", h.apiCreateLine)
		r.Get("/api/sales-orders/{orderID}/lines", h.apiListLines)
		r.Get("/api/sales-order-lines/{lineID}", h.apiGetLine)
		r.Put("/api/sales-order-lines/{lineID}", h.apiUpdateLine)
		r.Delete("/api/sales-order-lines/{lineID}", h.apiDeleteLine)

		// ── Inventory ─────────────────────────────────────────────────────────
		r.Get("/api/products/{productID}/stock", h.apiGetStock)
		r.Get("/api/products/{productID}/movements", h.apiListMovements)

		// ── Purchase orders ───────────────────────────────────────────────────
		r.Get("/api/purchase-orders", h.apiListPurchaseOrders)
		r.Post("/api/purchase-orders", h.apiCreatePurchaseOrder)
		r.Get("/api/purchase-orders/{id}", h.apiGetPurchaseOrder)
		r.Post("/api/purchase-orders/{id}/status", h.apiSetPurchaseOrderStatus)
		r.Post("/api/purchase-orders/{id}/approve", h.apiApprovePurchaseOrder)
	})

	h.router = r
	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// uuidParam parses the named URL parameter. On failure it writes a 400 and returns false.
func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, r, "invalid "+name, "BAD_REQUEST", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}
