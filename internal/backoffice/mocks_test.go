package backoffice

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aquamarinepk/aqm"
	aqmtemplate "github.com/aquamarinepk/aqm/template"
	"github.com/go-chi/chi/v5"

	"github.com/appetiteclub/backoffice/internal/events"
	"github.com/appetiteclub/backoffice/internal/orders"
	"github.com/appetiteclub/backoffice/internal/resource"
)

// fakeAPI emulates the restaurant API: generic collections plus the order
// and kitchen assignment endpoints.
type fakeAPI struct {
	mu          sync.Mutex
	records     map[string][]map[string]interface{}
	failing     map[string]bool
	reject      map[string]string
	created     []map[string]interface{}
	deleted     []string
	updated     []map[string]interface{}
	queries     map[string]url.Values
	orderList   []orders.Order
	kitchens    []orders.Kitchen
	stored      map[string]map[string]string
	assignCalls int

	// assignStatus and assignBody replace the assign-kitchens answer when set.
	assignStatus int
	assignBody   string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		records: map[string][]map[string]interface{}{
			"areas": {
				{"id": "a1", "name": "Terrace", "status": "active", "tables_count": 3},
			},
			"daily-production": {
				{"id": "p1", "food_name": "Soup", "planned_quantity": 10, "produced": 4},
				{"id": "p2", "food_name": "Bread", "planned_quantity": 10, "produced": 10},
			},
		},
		failing: make(map[string]bool),
		reject:  make(map[string]string),
		queries: make(map[string]url.Values),
		orderList: []orders.Order{{
			ID:           "o1",
			OrderNumber:  "1001",
			CustomerName: "Ana",
			Status:       orders.StatusPending,
			ItemsCount:   2,
			TotalAmount:  "12.5",
			CreatedAt:    "2024-05-01T10:00:00Z",
			Items: []orders.OrderItem{
				{ID: "i1", FoodName: "Soup"},
				{ID: "i2", FoodName: "Salad"},
			},
		}},
		kitchens: []orders.Kitchen{{ID: "k1", Name: "Hot"}, {ID: "k2", Name: "Cold"}},
		stored:   make(map[string]map[string]string),
	}
}

func (f *fakeAPI) serve(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/{resource}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		res := r.PathValue("resource")
		f.queries[res] = r.URL.Query()
		if f.failing[res] {
			writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"error": "database unavailable"})
			return
		}

		if res == "kitchens" {
			writeJSON(w, http.StatusOK, map[string]interface{}{"kitchens": f.kitchens})
			return
		}

		key := res
		if d, ok := resource.Lookup(res); ok {
			key = d.Key
		}
		rows := f.records[res]
		if rows == nil {
			rows = []map[string]interface{}{}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{key: rows})
	})

	mux.HandleFunc("POST /api/{resource}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		f.created = append(f.created, body)

		if msg, ok := f.reject[r.PathValue("resource")]; ok {
			writeJSON(w, http.StatusOK, map[string]interface{}{"success": false, "error": msg})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
	})

	mux.HandleFunc("DELETE /api/{resource}/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		if f.failing["delete"] {
			writeJSON(w, http.StatusConflict, map[string]interface{}{"error": "record in use"})
			return
		}
		f.deleted = append(f.deleted, r.PathValue("resource")+"/"+r.PathValue("id"))
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
	})

	mux.HandleFunc("PUT /api/{resource}/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		f.updated = append(f.updated, body)
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
	})

	mux.HandleFunc("GET /api/orders", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		if f.failing["orders"] {
			writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"error": "down"})
			return
		}
		summaries := make([]orders.Order, 0, len(f.orderList))
		for _, o := range f.orderList {
			o.Items = nil
			summaries = append(summaries, o)
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"orders": summaries})
	})

	mux.HandleFunc("GET /api/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		for _, o := range f.orderList {
			if o.ID.String() == r.PathValue("id") {
				writeJSON(w, http.StatusOK, map[string]interface{}{"order": o})
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]interface{}{"error": "Order not found"})
	})

	mux.HandleFunc("GET /api/orders/{id}/kitchen-assignments", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		mapping := f.stored[r.PathValue("id")]
		if mapping == nil {
			mapping = map[string]string{}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"assignments": mapping})
	})

	mux.HandleFunc("POST /api/orders/{id}/assign-kitchens", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		var body struct {
			Assignments []orders.Assignment `json:"assignments"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		f.assignCalls++

		id := r.PathValue("id")
		if f.stored[id] == nil {
			f.stored[id] = make(map[string]string)
		}
		if f.assignStatus != 0 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(f.assignStatus)
			w.Write([]byte(f.assignBody))
			return
		}
		for _, a := range body.Assignments {
			f.stored[id][a.ItemID] = a.KitchenID
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// fixture wires a handler against a fakeAPI and records bus events.
type fixture struct {
	api     *fakeAPI
	handler *Handler
	router  chi.Router

	mu      sync.Mutex
	changes []events.ResourceChangedEvent
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	api := newFakeAPI()
	server := api.serve(t)

	client := resource.NewClient(server.URL+"/api", 2*time.Second, nil)
	bus := events.NewBus(nil)
	store := orders.NewWorkspaceStore(time.Hour, func(id string) *orders.Workspace {
		return orders.NewWorkspace(id, orders.NewOrderDataAccess(client), bus, nil)
	}, nil)

	tmplMgr := newTestTemplates(t)

	f := &fixture{api: api}
	bus.Subscribe(context.Background(), events.ResourcesTopic, func(ctx context.Context, msg []byte) error {
		evt, err := events.DecodeChange(msg)
		if err != nil {
			return err
		}
		f.mu.Lock()
		f.changes = append(f.changes, evt)
		f.mu.Unlock()
		return nil
	})

	f.handler = NewHandler(tmplMgr, client, store, bus, nil)
	f.handler.now = func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) }
	f.router = chi.NewRouter()
	f.handler.RegisterRoutes(f.router)
	return f
}

func newTestTemplates(t *testing.T) *aqmtemplate.Manager {
	t.Helper()

	tmplMgr := aqmtemplate.NewManager(AssetsFS, aqmtemplate.WithLogger(aqm.NewNoopLogger()))
	if err := tmplMgr.Start(context.Background()); err != nil {
		t.Fatalf("template manager Start() error = %v", err)
	}
	return tmplMgr
}

func (f *fixture) do(method, target string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.Header.Set("HX-Request", "true")
	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) events() []events.ResourceChangedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]events.ResourceChangedEvent(nil), f.changes...)
}

func workspaceCookieFrom(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()

	for _, c := range w.Result().Cookies() {
		if c.Name == workspaceCookie {
			return c
		}
	}
	t.Fatalf("response did not set the %s cookie", workspaceCookie)
	return nil
}
