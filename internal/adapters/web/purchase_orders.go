package web

import (
	"net/http"
	"time"

	"order-management/internal/app"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type purchaseOrderBody struct {
	SupplierID       uuid.UUID               `json:"supplier_id" validate:"required"`
	Status           string                  `json:"status" validate:"omitempty,oneof=DRAFT CREATED draft created"`
	ExpectedDelivery time.Time               `json:"expected_delivery" validate:"required"`
	Lines            []purchaseOrderLineBody `json:"lines" validate:"required,min=1,dive"`
}

type purchaseOrderLineBody struct {
	ProductID uuid.UUID       `json:"product_id" validate:"required"`
	Quantity  int             `json:"quantity" validate:"gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price" validate:"gte=0"`
}

type statusBody struct {
	Status string `json:"status" validate:"required"`
}

// apiListPurchaseOrders handles GET /api/purchase-orders?status=&product_id=&limit=.
func (h *Handler) apiListPurchaseOrders(w http.ResponseWriter, r *http.Request) {
	req := app.ListPurchaseOrdersRequest{Status: r.URL.Query().Get("status")}
	if raw := r.URL.Query().Get("product_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, r, "invalid product_id", "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		req.ProductID = &id
	}
	limit, ok := limitParam(w, r)
	if !ok {
		return
	}
	req.Limit = limit

	result, err := h.svc.ListPurchaseOrders(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiCreatePurchaseOrder handles POST /api/purchase-orders. The creator is the caller.
func (h *Handler) apiCreatePurchaseOrder(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())
	if claims == nil {
		writeError(w, r, "not authenticated", "UNAUTHORIZED", http.StatusUnauthorized)
		return
	}
	var body purchaseOrderBody
	if !decodeAndValidate(w, r, &body) {
		return
	}

	req := app.CreatePurchaseOrderRequest{
		SupplierID:       body.SupplierID,
		CreatedBy:        claims.UserID,
		Status:           body.Status,
		ExpectedDelivery: body.ExpectedDelivery,
	}
	for _, l := range body.Lines {
		req.Lines = append(req.Lines, app.PurchaseOrderLineInput{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}

	result, err := h.svc.CreatePurchaseOrder(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, result)
}

// apiGetPurchaseOrder handles GET /api/purchase-orders/{id}.
func (h *Handler) apiGetPurchaseOrder(w http.ResponseWriter, r *http.Request) {
	poID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	result, err := h.svc.GetPurchaseOrder(r.Context(), poID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiSetPurchaseOrderStatus handles POST /api/purchase-orders/{id}/status.
// Moving to RECEIVED credits inventory; a second RECEIVED returns 409.
func (h *Handler) apiSetPurchaseOrderStatus(w http.ResponseWriter, r *http.Request) {
	poID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var body statusBody
	if !decodeAndValidate(w, r, &body) {
		return
	}
	result, err := h.svc.SetPurchaseOrderStatus(r.Context(), poID, body.Status)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiApprovePurchaseOrder handles POST /api/purchase-orders/{id}/approve.
func (h *Handler) apiApprovePurchaseOrder(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())
	if claims == nil {
		writeError(w, r, "not authenticated", "UNAUTHORIZED", http.StatusUnauthorized)
		return
	}
	poID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	result, err := h.svc.ApprovePurchaseOrder(r.Context(), poID, claims.UserID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}
