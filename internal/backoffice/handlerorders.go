package backoffice

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aquamarinepk/aqm"
	"github.com/go-chi/chi/v5"

	"github.com/appetiteclub/backoffice/internal/orders"
	"github.com/appetiteclub/backoffice/internal/resource"
)

const (
	kitchenFieldPrefix = "kitchen."

	assignedText   = "Items assigned to kitchens successfully!"
	incompleteText = "Please select a kitchen for all items"
)

// Orders displays the order list and the kitchen assignment panel.
func (h *Handler) Orders(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.http.Start(w, r, "Handler.Orders")
	defer finish()

	ws := h.workspace(w, r)
	if err := ws.LoadOrders(r.Context(), r.URL.Query().Get("status")); err != nil {
		h.log(r).Error("unable to load orders", "error", err)
	}

	data := map[string]interface{}{
		"Title":    "Order Management",
		"Template": "orders",
		"Orders":   buildOrdersView(ws.Snapshot()),
	}

	h.renderTemplate(w, "orders.html", "base.html", data)
}

// OrderList reloads the list, applying the status filter.
func (h *Handler) OrderList(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.http.Start(w, r, "Handler.OrderList")
	defer finish()

	ws := h.workspace(w, r)
	if err := ws.LoadOrders(r.Context(), r.URL.Query().Get("status")); err != nil {
		h.log(r).Error("unable to load orders", "error", err)
	}

	h.renderTemplate(w, "orders.html", "order_list", buildOrdersView(ws.Snapshot()))
}

// SelectOrder makes the order the current selection and renders its detail
// and assignment editor.
func (h *Handler) SelectOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.http.Start(w, r, "Handler.SelectOrder")
	defer finish()
	log := h.log(r)

	ws := h.workspace(w, r)
	orderID := chi.URLParam(r, "id")

	err := ws.Select(r.Context(), orderID)
	if errors.Is(err, orders.ErrOrderNotListed) {
		// The workspace may be new; load the list once and retry.
		if loadErr := ws.LoadOrders(r.Context(), ws.Filter()); loadErr == nil {
			err = ws.Select(r.Context(), orderID)
		}
	}
	if err != nil {
		log.Info("order selection failed", "order_id", orderID, "error", err)
		view := buildOrdersView(ws.Snapshot())
		view.DetailError = orders.DetailLoadError
		h.renderOrderPanel(w, view, nil)
		return
	}

	h.renderOrderPanel(w, buildOrdersView(ws.Snapshot()), nil)
}

// SelectKitchen records one row choice without calling the API.
func (h *Handler) SelectKitchen(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.http.Start(w, r, "Handler.SelectKitchen")
	defer finish()

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Could not read the submitted form", http.StatusBadRequest)
		return
	}

	ws := h.workspace(w, r)
	orderID := chi.URLParam(r, "id")
	itemID := chi.URLParam(r, "itemID")
	kitchenID := strings.TrimSpace(r.PostForm.Get(kitchenFieldPrefix + itemID))

	if err := ws.SelectKitchen(orderID, itemID, kitchenID); err != nil {
		h.log(r).Info("kitchen selection rejected", "order_id", orderID, "item_id", itemID, "error", err)
		status := http.StatusBadRequest
		if errors.Is(err, orders.ErrNoSelection) {
			status = http.StatusConflict
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AssignKitchens submits every row of the editor as one batch.
func (h *Handler) AssignKitchens(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.http.Start(w, r, "Handler.AssignKitchens")
	defer finish()
	log := h.log(r)

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Could not read the submitted form", http.StatusBadRequest)
		return
	}

	ws := h.workspace(w, r)
	orderID := chi.URLParam(r, "id")

	selections := make(map[string]string)
	for key, values := range r.PostForm {
		if !strings.HasPrefix(key, kitchenFieldPrefix) || len(values) == 0 {
			continue
		}
		selections[strings.TrimPrefix(key, kitchenFieldPrefix)] = strings.TrimSpace(values[0])
	}

	_, err := ws.Assign(r.Context(), orderID, selections)
	if err != nil {
		log.Info("kitchen assignment not applied", "order_id", orderID, "error", err)
	}

	view := buildOrdersView(ws.Snapshot())

	var incomplete *orders.IncompleteError
	var rejected *resource.RejectedError
	switch {
	case err == nil:
		w.Header().Set("HX-Trigger", changedTrigger)
		if !aqm.IsHTMX(r) {
			aqm.RedirectOrHeader(w, r, "/orders")
			return
		}
		h.renderOrderPanel(w, view, &alertView{Kind: alertSuccess, Message: assignedText})
	case errors.As(err, &incomplete):
		h.renderOrderPanel(w, view, &alertView{Kind: alertWarning, Message: incompleteText})
	case errors.Is(err, orders.ErrNothingToAssign):
		h.renderOrderPanel(w, view, &alertView{Kind: alertWarning, Message: "No items in this order"})
	case errors.Is(err, orders.ErrNoSelection), errors.Is(err, orders.ErrEditorNotReady):
		http.Error(w, "Select the order again before assigning kitchens", http.StatusConflict)
	case errors.As(err, &rejected):
		h.renderOrderPanel(w, view, &alertView{Kind: alertError, Message: "Error: " + rejected.Text(orders.AssignFailedText)})
	default:
		h.renderOrderPanel(w, view, &alertView{Kind: alertError, Message: "Error assigning items: " + err.Error()})
	}
}

// renderOrderPanel answers with the detail panel, an out-of-band order list
// and, when set, an out-of-band alert.
func (h *Handler) renderOrderPanel(w http.ResponseWriter, view ordersView, alert *alertView) {
	h.renderTemplate(w, "orders.html", "order_panel", view)
	if alert != nil {
		h.renderTemplate(w, "alert.html", "alert_oob", *alert)
	}
}
