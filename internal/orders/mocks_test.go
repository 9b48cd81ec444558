package orders

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/appetiteclub/backoffice/internal/resource"
)

func intPtr(n int) *int {
	return &n
}

func scenarioOrder() Order {
	return Order{
		ID:           "o1",
		OrderNumber:  "1001",
		CustomerName: "Ana",
		Status:       StatusPending,
		ItemsCount:   2,
		TotalAmount:  "12.5",
		CreatedAt:    "2024-05-01T10:00:00Z",
		Items: []OrderItem{
			{ID: "i1", FoodName: "Soup", Quantity: intPtr(2)},
			{ID: "i2", FoodName: "Salad", Quantity: intPtr(1)},
		},
	}
}

func scenarioKitchens() []Kitchen {
	return []Kitchen{
		{ID: "k1", Name: "Hot"},
		{ID: "k2", Name: "Cold"},
	}
}

// stubAPI is an in-memory API used by unit tests.
type stubAPI struct {
	mu             sync.Mutex
	orders         []Order
	ordersErr      error
	details        map[string]*Order
	detailErr      error
	kitchens       []Kitchen
	kitchensErr    error
	assignments    map[string]string
	assignmentsErr error
	assignErr      error
	batches        [][]Assignment
	listCalls      int
	beforeGetOrder func(id string)
}

func newStubAPI() *stubAPI {
	order := scenarioOrder()
	summary := order
	summary.Items = nil

	return &stubAPI{
		orders:      []Order{summary},
		details:     map[string]*Order{"o1": &order},
		kitchens:    scenarioKitchens(),
		assignments: map[string]string{},
	}
}

func (s *stubAPI) ListOrders(ctx context.Context) ([]Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listCalls++
	if s.ordersErr != nil {
		return nil, s.ordersErr
	}
	return append([]Order(nil), s.orders...), nil
}

func (s *stubAPI) GetOrder(ctx context.Context, id string) (*Order, error) {
	if s.beforeGetOrder != nil {
		s.beforeGetOrder(id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.detailErr != nil {
		return nil, s.detailErr
	}
	detail, ok := s.details[id]
	if !ok {
		return nil, nil
	}
	copied := *detail
	return &copied, nil
}

func (s *stubAPI) ListKitchens(ctx context.Context) ([]Kitchen, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.kitchensErr != nil {
		return nil, s.kitchensErr
	}
	return append([]Kitchen(nil), s.kitchens...), nil
}

func (s *stubAPI) GetAssignments(ctx context.Context, orderID string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.assignmentsErr != nil {
		return nil, s.assignmentsErr
	}
	mapping := make(map[string]string, len(s.assignments))
	for k, v := range s.assignments {
		mapping[k] = v
	}
	return mapping, nil
}

func (s *stubAPI) AssignKitchens(ctx context.Context, orderID string, batch []Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.batches = append(s.batches, append([]Assignment(nil), batch...))
	return s.assignErr
}

func (s *stubAPI) assignCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.batches)
}

// fakeServer emulates the restaurant API over HTTP. Assignments overwrite
// the stored mapping per (order, item).
type fakeServer struct {
	mu           sync.Mutex
	orders       []Order
	kitchens     []Kitchen
	stored       map[string]map[string]string
	assignBodies []string
	reject       *resource.Result
}

func newFakeServer(t *testing.T) (*fakeServer, *httptest.Server) {
	t.Helper()

	fs := &fakeServer{
		orders:   []Order{scenarioOrder()},
		kitchens: scenarioKitchens(),
		stored:   make(map[string]map[string]string),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/orders", func(w http.ResponseWriter, r *http.Request) {
		fs.mu.Lock()
		defer fs.mu.Unlock()

		summaries := make([]Order, 0, len(fs.orders))
		for _, o := range fs.orders {
			o.Items = nil
			summaries = append(summaries, o)
		}
		writeTestJSON(w, http.StatusOK, map[string]interface{}{"orders": summaries})
	})
	mux.HandleFunc("GET /api/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		fs.mu.Lock()
		defer fs.mu.Unlock()

		for _, o := range fs.orders {
			if o.ID.String() == r.PathValue("id") {
				writeTestJSON(w, http.StatusOK, map[string]interface{}{"order": o})
				return
			}
		}
		writeTestJSON(w, http.StatusNotFound, map[string]interface{}{"error": "Order not found"})
	})
	mux.HandleFunc("GET /api/kitchens", func(w http.ResponseWriter, r *http.Request) {
		fs.mu.Lock()
		defer fs.mu.Unlock()
		writeTestJSON(w, http.StatusOK, map[string]interface{}{"kitchens": fs.kitchens})
	})
	mux.HandleFunc("GET /api/orders/{id}/kitchen-assignments", func(w http.ResponseWriter, r *http.Request) {
		fs.mu.Lock()
		defer fs.mu.Unlock()

		mapping := fs.stored[r.PathValue("id")]
		if mapping == nil {
			mapping = map[string]string{}
		}
		writeTestJSON(w, http.StatusOK, map[string]interface{}{"assignments": mapping})
	})
	mux.HandleFunc("POST /api/orders/{id}/assign-kitchens", func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)

		fs.mu.Lock()
		defer fs.mu.Unlock()

		fs.assignBodies = append(fs.assignBodies, string(raw))
		if fs.reject != nil {
			writeTestJSON(w, http.StatusOK, fs.reject)
			return
		}

		var body struct {
			Assignments []Assignment `json:"assignments"`
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			writeTestJSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "error": "bad body"})
			return
		}

		id := r.PathValue("id")
		if fs.stored[id] == nil {
			fs.stored[id] = make(map[string]string)
		}
		for _, a := range body.Assignments {
			fs.stored[id][a.ItemID] = a.KitchenID
		}
		writeTestJSON(w, http.StatusOK, map[string]interface{}{"success": true})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return fs, srv
}

func (fs *fakeServer) bodies() []string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([]string(nil), fs.assignBodies...)
}

func (fs *fakeServer) mapping(orderID string) map[string]string {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	mapping := make(map[string]string)
	for k, v := range fs.stored[orderID] {
		mapping[k] = v
	}
	return mapping
}

func newServerAPI(srv *httptest.Server) *OrderDataAccess {
	return NewOrderDataAccess(resource.NewClient(srv.URL+"/api", time.Second, nil))
}

func writeTestJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
