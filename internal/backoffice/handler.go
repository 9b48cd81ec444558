package backoffice

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/aquamarinepk/aqm"
	aqmevents "github.com/aquamarinepk/aqm/events"
	"github.com/aquamarinepk/aqm/telemetry"
	aqmtemplate "github.com/aquamarinepk/aqm/template"
	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/appetiteclub/backoffice/internal/events"
	"github.com/appetiteclub/backoffice/internal/orders"
	"github.com/appetiteclub/backoffice/internal/resource"
)

const (
	workspaceCookie = "backoffice_ws"

	// changedTrigger is the client-side event panels listen to for reloads.
	changedTrigger = "resourceChanged"
)

type Handler struct {
	tmplMgr    *aqmtemplate.Manager
	client     *resource.Client
	workspaces *orders.WorkspaceStore
	publisher  aqmevents.Publisher
	logger     aqm.Logger
	http       *telemetry.HTTP
	now        func() time.Time
}

func NewHandler(
	tmplMgr *aqmtemplate.Manager,
	client *resource.Client,
	workspaces *orders.WorkspaceStore,
	publisher aqmevents.Publisher,
	logger aqm.Logger,
) *Handler {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}

	return &Handler{
		tmplMgr:    tmplMgr,
		client:     client,
		workspaces: workspaces,
		publisher:  publisher,
		logger:     logger,
		http:       telemetry.NewHTTP(),
		now:        time.Now,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Home)
	r.Get("/counts", h.Counts)

	r.Get("/panels/{resource}", h.Panel)
	r.Get("/panels/{resource}/rows", h.PanelRows)
	r.Get("/panels/{resource}/new", h.NewRecordForm)
	r.Post("/panels/{resource}", h.CreateRecord)
	r.Post("/panels/{resource}/{id}/delete", h.DeleteRecord)
	r.Post("/panels/{resource}/{id}/produced", h.UpdateProduced)

	r.Get("/orders", h.Orders)
	r.Get("/orders/list", h.OrderList)
	r.Post("/orders/{id}/select", h.SelectOrder)
	r.Post("/orders/{id}/items/{itemID}/kitchen", h.SelectKitchen)
	r.Post("/orders/{id}/assign", h.AssignKitchens)
}

func (h *Handler) log(r *http.Request) aqm.Logger {
	return h.logger.With("request_id", aqm.RequestIDFrom(r.Context()))
}

func (h *Handler) renderTemplate(w http.ResponseWriter, templateName, layout string, data interface{}) {
	tmpl, err := h.tmplMgr.Get(templateName)
	if err != nil {
		h.logger.Error("error loading template", "error", err, "template", templateName)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, layout, data); err != nil {
		h.logger.Error("error rendering template", "error", err, "layout", layout)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func (h *Handler) renderAlert(w http.ResponseWriter, alert alertView) {
	h.renderTemplate(w, "alert.html", "alert", alert)
}

// announce marks the response as a change so listening panels reload, and
// publishes the change on the event bus.
func (h *Handler) announce(w http.ResponseWriter, r *http.Request, evt events.ResourceChangedEvent) {
	w.Header().Set("HX-Trigger", changedTrigger)
	if err := events.PublishChange(r.Context(), h.publisher, evt); err != nil {
		h.log(r).Error("cannot publish resource event", "resource", evt.Resource, "action", evt.Action, "error", err)
	}
}

// workspace returns the order workspace bound to the browser cookie,
// issuing a new cookie when the previous workspace is gone.
func (h *Handler) workspace(w http.ResponseWriter, r *http.Request) *orders.Workspace {
	var id string
	if cookie, err := r.Cookie(workspaceCookie); err == nil {
		id = cookie.Value
	}

	ws, created := h.workspaces.Acquire(id)
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     workspaceCookie,
			Value:    ws.ID(),
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return ws
}

// Home displays the dashboard.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.http.Start(w, r, "Handler.Home")
	defer finish()

	data := map[string]interface{}{
		"Title":    "Restaurant Back Office",
		"Template": "home",
		"Cards":    h.dashboardCards(r.Context()),
	}

	h.renderTemplate(w, "home.html", "base.html", data)
}

// Counts renders the dashboard cards alone so they can refresh after changes.
func (h *Handler) Counts(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.http.Start(w, r, "Handler.Counts")
	defer finish()

	h.renderTemplate(w, "home.html", "counts", h.dashboardCards(r.Context()))
}

// dashboardCards counts every collection concurrently. A failed count shows
// as "-" without affecting the others.
func (h *Handler) dashboardCards(ctx context.Context) []dashboardCard {
	cards := make([]dashboardCard, len(resource.Descriptors)+1)

	g, gctx := errgroup.WithContext(ctx)
	for i, d := range resource.Descriptors {
		cards[i] = dashboardCard{Title: d.Title, Href: "/panels/" + d.Resource, Count: "-"}
		g.Go(func() error {
			records, err := h.client.List(gctx, d.Resource, d.Key, h.listQuery(d, ""))
			if err != nil {
				h.logger.Info("count unavailable", "resource", d.Resource, "error", err)
				return nil
			}
			cards[i].Count = strconv.Itoa(len(records))
			return nil
		})
	}

	last := len(resource.Descriptors)
	cards[last] = dashboardCard{Title: "Orders", Href: "/orders", Count: "-"}
	g.Go(func() error {
		records, err := h.client.List(gctx, "orders", "orders", nil)
		if err != nil {
			h.logger.Info("count unavailable", "resource", "orders", "error", err)
			return nil
		}
		cards[last].Count = strconv.Itoa(len(records))
		return nil
	})

	g.Wait()
	return cards
}

// listQuery adds the day filter for per-day panels, today by default.
func (h *Handler) listQuery(d resource.Descriptor, date string) url.Values {
	if !d.DateFilter {
		return nil
	}
	if date == "" {
		date = h.now().Format("2006-01-02")
	}
	return url.Values{"date": []string{date}}
}
