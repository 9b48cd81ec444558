package orders

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/appetiteclub/backoffice/internal/resource"
)

func newRawServer(t *testing.T, body string, status int) *OrderDataAccess {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return NewOrderDataAccess(resource.NewClient(srv.URL+"/api", time.Second, nil))
}

func TestOrderDataAccessNotConfigured(t *testing.T) {
	var da *OrderDataAccess

	if _, err := da.ListOrders(context.Background()); err == nil {
		t.Error("ListOrders() on nil data access should return error")
	}
	if err := NewOrderDataAccess(nil).AssignKitchens(context.Background(), "o1", nil); err == nil {
		t.Error("AssignKitchens() without client should return error")
	}
}

func TestListOrdersNumericFields(t *testing.T) {
	da := newRawServer(t, `{"orders":[{"id":7,"order_number":1007,"customer_name":null,"status":"ready","items_count":3,"total_amount":"18.75","created_at":"2024-05-01T10:00:00Z"}]}`, http.StatusOK)

	orders, err := da.ListOrders(context.Background())
	if err != nil {
		t.Fatalf("ListOrders() error = %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("len(orders) = %d, want 1", len(orders))
	}

	o := orders[0]
	if o.ID != "7" {
		t.Errorf("ID = %q, want %q", o.ID, "7")
	}
	if o.OrderNumber != "1007" {
		t.Errorf("OrderNumber = %q, want %q", o.OrderNumber, "1007")
	}
	if o.Customer() != "Guest" {
		t.Errorf("Customer() = %q, want %q", o.Customer(), "Guest")
	}
	if o.Total() != "$18.75" {
		t.Errorf("Total() = %q, want %q", o.Total(), "$18.75")
	}
}

func TestListOrdersMissingKey(t *testing.T) {
	da := newRawServer(t, `{}`, http.StatusOK)

	orders, err := da.ListOrders(context.Background())
	if err != nil {
		t.Fatalf("ListOrders() error = %v", err)
	}
	if orders == nil || len(orders) != 0 {
		t.Errorf("orders = %v, want empty slice", orders)
	}
}

func TestGetOrderWithoutOrderField(t *testing.T) {
	da := newRawServer(t, `{"status":"ok"}`, http.StatusOK)

	order, err := da.GetOrder(context.Background(), "o1")
	if err != nil {
		t.Fatalf("GetOrder() error = %v", err)
	}
	if order != nil {
		t.Errorf("GetOrder() = %+v, want nil", order)
	}
}

func TestGetAssignments(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    map[string]string
		wantErr bool
	}{
		{
			name: "stringIDs",
			body: `{"assignments":{"i1":"k1","i2":"k2"}}`,
			want: map[string]string{"i1": "k1", "i2": "k2"},
		},
		{
			name: "numericKitchen",
			body: `{"assignments":{"5":3,"6":null}}`,
			want: map[string]string{"5": "3"},
		},
		{
			name: "missing",
			body: `{}`,
			want: map[string]string{},
		},
		{
			name:    "malformed",
			body:    `{"assignments":["i1","k1"]}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			da := newRawServer(t, tt.body, http.StatusOK)

			got, err := da.GetAssignments(context.Background(), "o1")
			if (err != nil) != tt.wantErr {
				t.Fatalf("GetAssignments() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got = %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("got[%q] = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestAssignKitchensResponses(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantReject bool
		wantMsg    string
	}{
		{name: "success", status: http.StatusOK, body: `{"success":true}`},
		{name: "rejected", status: http.StatusOK, body: `{"success":false,"error":"Item already served"}`, wantReject: true, wantMsg: "Item already served"},
		{name: "serverError", status: http.StatusInternalServerError, body: `{"error":"db down"}`, wantReject: true, wantMsg: "db down"},
		{name: "rejectedNoMessage", status: http.StatusOK, body: `{"success":false}`, wantReject: true, wantMsg: AssignFailedText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			da := newRawServer(t, tt.body, tt.status)

			err := da.AssignKitchens(context.Background(), "o1", []Assignment{{ItemID: "i1", KitchenID: "k1"}})

			var rejected *resource.RejectedError
			if got := errors.As(err, &rejected); got != tt.wantReject {
				t.Fatalf("AssignKitchens() error = %v, wantReject %v", err, tt.wantReject)
			}
			if tt.wantReject {
				if got := resource.Message(err, AssignFailedText); got != tt.wantMsg {
					t.Errorf("Message() = %q, want %q", got, tt.wantMsg)
				}
			}
		})
	}
}

func TestTextUnmarshal(t *testing.T) {
	tests := []struct {
		raw  string
		want Text
	}{
		{raw: `"abc"`, want: "abc"},
		{raw: `42`, want: "42"},
		{raw: `4.5`, want: "4.5"},
		{raw: `null`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			var got Text
			if err := got.UnmarshalJSON([]byte(tt.raw)); err != nil {
				t.Fatalf("UnmarshalJSON(%s) error = %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("UnmarshalJSON(%s) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}

	var bad Text
	if err := bad.UnmarshalJSON([]byte(`{}`)); err == nil {
		t.Error("UnmarshalJSON({}) should return error")
	}
}
