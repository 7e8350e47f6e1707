package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"spotly/models"
)

type OrderHandler struct {
	app *pocketbase.PocketBase
}

func NewOrderHandler(app *pocketbase.PocketBase) *OrderHandler {
	return &OrderHandler{app: app}
}

// List - All orders, superusers only
func (h *OrderHandler) List(e *core.RequestEvent) error {
	if e.Auth == nil || !e.Auth.IsSuperuser() {
		return apis.NewForbiddenError("Access denied", nil)
	}

	records, err := h.app.FindRecordsByFilter("orders", "id != ''", "-created", -1, 0)
	if err != nil {
		return apis.NewInternalServerError("Failed to list orders", err)
	}

	orders := make([]*models.Order, len(records))
	for i, record := range records {
		orders[i] = models.OrderFromRecord(record)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"status": "success",
		"count":  len(orders),
		"orders": orders,
	})
}

// Get - Single order, owner or superuser
func (h *OrderHandler) Get(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	record, err := h.app.FindRecordById("orders", e.Request.PathValue("orderId"))
	if err != nil {
		return apis.NewNotFoundError("Order not found", err)
	}

	if !e.Auth.IsSuperuser() && record.GetString("user_id") != e.Auth.Id {
		return apis.NewForbiddenError("Access denied", nil)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"status": "success",
		"order":  models.OrderFromRecord(record),
	})
}
