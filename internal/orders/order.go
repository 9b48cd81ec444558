package orders

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Known order statuses. Other values are accepted and rendered with the
// fallback color.
const (
	StatusPending   = "pending"
	StatusPreparing = "preparing"
	StatusReady     = "ready"
	StatusServed    = "served"
	StatusCompleted = "completed"
	StatusConfirmed = "confirmed"
)

// Statuses lists the known statuses in filter order.
var Statuses = []string{
	StatusPending,
	StatusPreparing,
	StatusReady,
	StatusServed,
	StatusCompleted,
	StatusConfirmed,
}

// Text is an opaque identifier or label that the API may send either as a
// JSON string or as a number.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*t = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("text value: %w", err)
	}
	*t = Text(n.String())
	return nil
}

func (t Text) String() string {
	return string(t)
}

// Order is an order summary or, when Items is set, a detail response.
type Order struct {
	ID           Text        `json:"id"`
	OrderNumber  Text        `json:"order_number"`
	CustomerName string      `json:"customer_name"`
	Status       string      `json:"status"`
	ItemsCount   int         `json:"items_count"`
	TotalAmount  Text        `json:"total_amount"`
	CreatedAt    string      `json:"created_at"`
	Items        []OrderItem `json:"items,omitempty"`
}

// Customer returns the customer name or "Guest".
func (o Order) Customer() string {
	if strings.TrimSpace(o.CustomerName) == "" {
		return "Guest"
	}
	return o.CustomerName
}

// Total formats the order total as a dollar amount.
func (o Order) Total() string {
	if o.TotalAmount == "" {
		return "$0"
	}
	f, err := strconv.ParseFloat(string(o.TotalAmount), 64)
	if err != nil {
		return "$" + string(o.TotalAmount)
	}
	return fmt.Sprintf("$%.2f", f)
}

// StatusLabel is the upper-cased status.
func (o Order) StatusLabel() string {
	return strings.ToUpper(o.Status)
}

// StatusColor returns the badge color for the order status.
func (o Order) StatusColor() string {
	return StatusColor(o.Status)
}

// StatusColor maps a status to its badge color.
func StatusColor(status string) string {
	switch status {
	case StatusPending:
		return "#ff6b6b"
	case StatusPreparing:
		return "#ffa502"
	case StatusReady:
		return "#00ff88"
	case StatusServed:
		return "#2ecc71"
	case StatusCompleted:
		return "#667eea"
	case StatusConfirmed:
		return "#3498db"
	default:
		return "#999"
	}
}

// OrderItem is one line of an order.
type OrderItem struct {
	ID       Text   `json:"id"`
	FoodName string `json:"food_name"`
	Quantity *int   `json:"quantity"`
}

// Qty returns the quantity, 1 when absent or zero.
func (i OrderItem) Qty() int {
	if i.Quantity == nil || *i.Quantity == 0 {
		return 1
	}
	return *i.Quantity
}

// Kitchen is a preparation station an item can be assigned to.
type Kitchen struct {
	ID   Text   `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon,omitempty"`
}

// Assignment is one (item, kitchen) pair of a submission batch.
type Assignment struct {
	ItemID    string `json:"item_id"`
	KitchenID string `json:"kitchen_id"`
}
