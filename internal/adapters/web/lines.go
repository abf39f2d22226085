package web

import (
	"net/http"

	"order-management/internal/app"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type lineBody struct {
	ProductID uuid.UUID       `json:"product_id" validate:"required"`
	Quantity  int             `json:"quantity" validate:"gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price" validate:"gte=0"`
}

type lineUpdateBody struct {
	Quantity  int             `json:"quantity" validate:"gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price" validate:"gte=0"`
}

// apiCreateLine handles POST /api/sales-orders/{orderID}/lines.
// A line whose backorder could not be replenished is still created (201) and
// carries replenishment_warning.
func (h *Handler) apiCreateLine(w http.ResponseWriter, r *http.Request) {
	orderID, ok := uuidParam(w, r, "orderID")
	if !ok {
		return
	}
	var body lineBody
	if !decodeAndValidate(w, r, &body) {
		return
	}

	result, err := h.svc.CreateSalesOrderLine(r.Context(), app.CreateLineRequest{
		OrderID:   orderID,
		ProductID: body.ProductID,
		Quantity:  body.Quantity,
		UnitPrice: body.UnitPrice,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, result)
}

// apiListLines handles GET /api/sales-orders/{orderID}/lines.
func (h *Handler) apiListLines(w http.ResponseWriter, r *http.Request) {
	orderID, ok := uuidParam(w, r, "orderID")
	if !ok {
		return
	}
	result, err := h.svc.ListSalesOrderLines(r.Context(), orderID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiGetLine handles GET /api/sales-order-lines/{lineID}.
func (h *Handler) apiGetLine(w http.ResponseWriter, r *http.Request) {
	lineID, ok := uuidParam(w, r, "lineID")
	if !ok {
		return
	}
	result, err := h.svc.GetSalesOrderLine(r.Context(), lineID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiUpdateLine handles PUT /api/sales-order-lines/{lineID}.
func (h *Handler) apiUpdateLine(w http.ResponseWriter, r *http.Request) {
	lineID, ok := uuidParam(w, r, "lineID")
	if !ok {
		return
	}
	var body lineUpdateBody
	if !decodeAndValidate(w, r, &body) {
		return
	}
	result, err := h.svc.UpdateSalesOrderLine(r.Context(), lineID, app.UpdateLineRequest{
		Quantity:  body.Quantity,
		UnitPrice: body.UnitPrice,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiDeleteLine handles DELETE /api/sales-order-lines/{lineID}.
func (h *Handler) apiDeleteLine(w http.ResponseWriter, r *http.Request) {
	lineID, ok := uuidParam(w, r, "lineID")
	if !ok {
		return
	}
	if err := h.svc.DeleteSalesOrderLine(r.Context(), lineID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
