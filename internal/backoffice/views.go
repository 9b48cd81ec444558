package backoffice

import (
	"strings"

	"github.com/appetiteclub/backoffice/internal/orders"
	"github.com/appetiteclub/backoffice/internal/resource"
)

const (
	alertSuccess = "success"
	alertWarning = "warning"
	alertError   = "error"
)

type alertView struct {
	Kind    string
	Message string
	// ClearForm empties the create form container.
	ClearForm bool
}

type dashboardCard struct {
	Title string
	Href  string
	Count string
}

type recordRowView struct {
	ID       string
	Cells    []resource.Cell
	Planned  int
	Produced int
}

type productionSummary struct {
	Planned    int
	Produced   int
	Remaining  int
	Completion int
}

type fieldView struct {
	resource.Field
	Options      []resource.Option
	OptionsError string
}

type orderRowView struct {
	ID          string
	Number      string
	Customer    string
	ItemsCount  int
	StatusLabel string
	Color       string
	Active      bool
}

type orderDetailView struct {
	ID          string
	Number      string
	Customer    string
	ItemsCount  int
	Total       string
	StatusLabel string
	Color       string
}

type kitchenOption struct {
	ID   string
	Name string
}

type editorView struct {
	OrderID  string
	Loading  bool
	Ready    bool
	Failed   bool
	Empty    bool
	Error    string
	Rows     []orders.Row
	Kitchens []kitchenOption
}

type statusOption struct {
	Value    string
	Label    string
	Selected bool
}

type ordersView struct {
	StatusOptions []statusOption
	Filter        string
	Rows          []orderRowView
	EmptyText     string
	ListError     string
	HasSelection  bool
	Loading       bool
	DetailError   string
	Detail        *orderDetailView
	Editor        *editorView
}

func buildOrdersView(snap orders.Snapshot) ordersView {
	view := ordersView{
		Filter:       snap.Filter,
		EmptyText:    snap.Empty.Text(),
		ListError:    snap.ListError,
		HasSelection: snap.SelectedID != "",
		Loading:      snap.Loading,
		DetailError:  snap.DetailError,
	}

	for _, status := range orders.Statuses {
		view.StatusOptions = append(view.StatusOptions, statusOption{
			Value:    status,
			Label:    titleFirst(status),
			Selected: status == snap.Filter,
		})
	}

	view.Rows = make([]orderRowView, 0, len(snap.Orders))
	for _, o := range snap.Orders {
		view.Rows = append(view.Rows, orderRowView{
			ID:          o.ID.String(),
			Number:      o.OrderNumber.String(),
			Customer:    o.Customer(),
			ItemsCount:  o.ItemsCount,
			StatusLabel: o.StatusLabel(),
			Color:       o.StatusColor(),
			Active:      o.ID.String() == snap.SelectedID,
		})
	}

	if snap.Order != nil {
		o := snap.Order
		count := o.ItemsCount
		if count == 0 {
			count = len(o.Items)
		}
		view.Detail = &orderDetailView{
			ID:          o.ID.String(),
			Number:      o.OrderNumber.String(),
			Customer:    o.Customer(),
			ItemsCount:  count,
			Total:       o.Total(),
			StatusLabel: o.StatusLabel(),
			Color:       o.StatusColor(),
		}
	}

	if e := snap.Editor; e != nil {
		ev := &editorView{
			OrderID: e.OrderID,
			Loading: e.State == orders.EditorLoading || e.State == orders.EditorUnloaded,
			Ready:   e.State == orders.EditorRendered,
			Failed:  e.State == orders.EditorError,
			Empty:   e.Empty,
			Error:   e.Error,
			Rows:    e.Rows,
		}
		for _, k := range e.Kitchens {
			name := k.Name
			if k.Icon != "" {
				name = strings.TrimSpace(k.Icon + " " + k.Name)
			}
			ev.Kitchens = append(ev.Kitchens, kitchenOption{ID: k.ID.String(), Name: name})
		}
		view.Editor = ev
	}

	return view
}

func buildRecordRows(d resource.Descriptor, records []resource.Record) []recordRowView {
	rows := make([]recordRowView, 0, len(records))
	for _, rec := range records {
		rows = append(rows, recordRowView{
			ID:       rec.String("id"),
			Cells:    d.Cells(rec),
			Planned:  rec.Int("planned_quantity"),
			Produced: rec.Int("produced"),
		})
	}
	return rows
}

func summarizeProduction(records []resource.Record) productionSummary {
	var s productionSummary
	for _, rec := range records {
		s.Planned += rec.Int("planned_quantity")
		s.Produced += rec.Int("produced")
	}
	s.Remaining = s.Planned - s.Produced
	if s.Planned > 0 {
		s.Completion = int(float64(s.Produced)/float64(s.Planned)*100 + 0.5)
	}
	return s
}

// choiceOptions lists fixed select choices with capitalized labels.
func choiceOptions(choices []string) []resource.Option {
	options := make([]resource.Option, 0, len(choices))
	for _, c := range choices {
		options = append(options, resource.Option{ID: c, Label: titleFirst(c)})
	}
	return options
}

func titleFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
