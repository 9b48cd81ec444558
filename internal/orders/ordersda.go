package orders

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/appetiteclub/backoffice/internal/resource"
)

// API is the slice of the restaurant API the order workflow needs.
type API interface {
	ListOrders(ctx context.Context) ([]Order, error)
	// GetOrder returns nil without error when the payload omits the order.
	GetOrder(ctx context.Context, id string) (*Order, error)
	ListKitchens(ctx context.Context) ([]Kitchen, error)
	GetAssignments(ctx context.Context, orderID string) (map[string]string, error)
	AssignKitchens(ctx context.Context, orderID string, batch []Assignment) error
}

// OrderDataAccess centralizes decoding of order API responses.
type OrderDataAccess struct {
	client *resource.Client
}

func NewOrderDataAccess(client *resource.Client) *OrderDataAccess {
	return &OrderDataAccess{client: client}
}

func (da *OrderDataAccess) ListOrders(ctx context.Context) ([]Order, error) {
	if da == nil || da.client == nil {
		return nil, fmt.Errorf("order client not configured")
	}

	var orders []Order
	if err := da.client.Collection(ctx, "orders", nil, "orders", &orders); err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []Order{}
	}

	return orders, nil
}

func (da *OrderDataAccess) GetOrder(ctx context.Context, id string) (*Order, error) {
	if da == nil || da.client == nil {
		return nil, fmt.Errorf("order client not configured")
	}

	var payload struct {
		Order *Order `json:"order"`
	}
	if err := da.client.Get(ctx, "orders/"+url.PathEscape(id), &payload); err != nil {
		return nil, err
	}

	return payload.Order, nil
}

func (da *OrderDataAccess) ListKitchens(ctx context.Context) ([]Kitchen, error) {
	if da == nil || da.client == nil {
		return nil, fmt.Errorf("kitchen client not configured")
	}

	var kitchens []Kitchen
	if err := da.client.Collection(ctx, "kitchens", nil, "kitchens", &kitchens); err != nil {
		return nil, err
	}
	if kitchens == nil {
		kitchens = []Kitchen{}
	}

	return kitchens, nil
}

func (da *OrderDataAccess) GetAssignments(ctx context.Context, orderID string) (map[string]string, error) {
	if da == nil || da.client == nil {
		return nil, fmt.Errorf("order client not configured")
	}

	var payload struct {
		Assignments map[string]Text `json:"assignments"`
	}
	if err := da.client.Get(ctx, "orders/"+url.PathEscape(orderID)+"/kitchen-assignments", &payload); err != nil {
		return nil, err
	}

	assignments := make(map[string]string, len(payload.Assignments))
	for itemID, kitchenID := range payload.Assignments {
		if kitchenID == "" {
			continue
		}
		assignments[itemID] = kitchenID.String()
	}

	return assignments, nil
}

func (da *OrderDataAccess) AssignKitchens(ctx context.Context, orderID string, batch []Assignment) error {
	if da == nil || da.client == nil {
		return fmt.Errorf("order client not configured")
	}

	path := "orders/" + url.PathEscape(orderID) + "/assign-kitchens"
	body := struct {
		Assignments []Assignment `json:"assignments"`
	}{Assignments: batch}

	var result resource.Result
	if err := da.client.Post(ctx, path, body, &result); err != nil {
		return err
	}
	if !result.Success {
		return &resource.RejectedError{Op: "POST /" + path, Status: http.StatusOK, Message: result.Error}
	}

	return nil
}
