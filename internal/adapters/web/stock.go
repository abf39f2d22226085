package web

import (
	"net/http"
	"strconv"
)

// apiGetStock handles GET /api/products/{productID}/stock.
func (h *Handler) apiGetStock(w http.ResponseWriter, r *http.Request) {
	productID, ok := uuidParam(w, r, "productID")
	if !ok {
		return
	}
	result, err := h.svc.GetStock(r.Context(), productID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiListMovements handles GET /api/products/{productID}/movements?limit=N.
func (h *Handler) apiListMovements(w http.ResponseWriter, r *http.Request) {
	productID, ok := uuidParam(w, r, "productID")
	if !ok {
		return
	}
	limit, ok := limitParam(w, r)
	if !ok {
		return
	}
	result, err := h.svc.ListMovements(r.Context(), productID, limit)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// limitParam reads an optional non-negative ?limit; zero means the service default.
func limitParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		writeError(w, r, "limit must be a non-negative integer", "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return n, true
}
