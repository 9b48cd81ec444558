package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/aquamarinepk/aqm"
	"golang.org/x/sync/errgroup"
)

// EditorState is the lifecycle of the assignment controls.
type EditorState int

const (
	EditorUnloaded EditorState = iota
	EditorLoading
	EditorRendered
	EditorError
)

func (s EditorState) String() string {
	switch s {
	case EditorUnloaded:
		return "unloaded"
	case EditorLoading:
		return "loading"
	case EditorRendered:
		return "rendered"
	case EditorError:
		return "error"
	default:
		return "unknown"
	}
}

var (
	ErrUnknownItem    = errors.New("item does not belong to this order")
	ErrUnknownKitchen = errors.New("unknown kitchen")
	ErrEditorNotReady = errors.New("assignment editor is not loaded")
)

// Row is the assignment control for one order item.
type Row struct {
	ItemID    string
	Name      string
	Quantity  int
	KitchenID string
	Invalid   bool
}

// Editor holds per-row kitchen selections for one order. It is not safe for
// concurrent use; the owning Workspace serializes access.
type Editor struct {
	order    Order
	state    EditorState
	rows     []Row
	kitchens []Kitchen
	err      error
	logger   aqm.Logger
}

// NewEditor creates an unloaded editor for order.
func NewEditor(order Order, logger aqm.Logger) *Editor {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &Editor{order: order, logger: logger}
}

// Load fetches kitchens and existing assignments concurrently and builds one
// row per item. A failed assignments fetch degrades to no preselection; a
// failed kitchens fetch leaves the editor in EditorError.
func (e *Editor) Load(ctx context.Context, api API) error {
	e.state = EditorLoading
	orderID := e.order.ID.String()

	var kitchens []Kitchen
	var assigned map[string]string

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		list, err := api.ListKitchens(gctx)
		if err != nil {
			return fmt.Errorf("load kitchens: %w", err)
		}
		kitchens = list
		return nil
	})
	g.Go(func() error {
		mapping, err := api.GetAssignments(gctx, orderID)
		if err != nil {
			e.logger.Info("kitchen assignments unavailable, starting empty", "order_id", orderID, "error", err)
			mapping = map[string]string{}
		}
		assigned = mapping
		return nil
	})

	if err := g.Wait(); err != nil {
		e.state = EditorError
		e.err = err
		return err
	}

	known := make(map[string]bool, len(kitchens))
	for _, k := range kitchens {
		known[k.ID.String()] = true
	}

	rows := make([]Row, 0, len(e.order.Items))
	for i, item := range e.order.Items {
		name := item.FoodName
		if name == "" {
			name = fmt.Sprintf("Item %d", i+1)
		}
		row := Row{
			ItemID:   item.ID.String(),
			Name:     name,
			Quantity: item.Qty(),
		}
		if kitchenID, ok := assigned[row.ItemID]; ok && known[kitchenID] {
			row.KitchenID = kitchenID
		}
		rows = append(rows, row)
	}

	e.kitchens = kitchens
	e.rows = rows
	e.err = nil
	e.state = EditorRendered
	return nil
}

func (e *Editor) OrderID() string {
	return e.order.ID.String()
}

func (e *Editor) State() EditorState {
	return e.state
}

// Err is the load failure when State is EditorError.
func (e *Editor) Err() error {
	return e.err
}

// Empty reports a loaded editor whose order has no items.
func (e *Editor) Empty() bool {
	return e.state == EditorRendered && len(e.rows) == 0
}

// Rows returns a copy of the rows in render order.
func (e *Editor) Rows() []Row {
	rows := make([]Row, len(e.rows))
	copy(rows, e.rows)
	return rows
}

// Kitchens returns a copy of the kitchen options.
func (e *Editor) Kitchens() []Kitchen {
	kitchens := make([]Kitchen, len(e.kitchens))
	copy(kitchens, e.kitchens)
	return kitchens
}

// Select records the kitchen chosen for an item. An empty kitchenID clears
// the selection. Nothing is sent to the API.
func (e *Editor) Select(itemID, kitchenID string) error {
	i, err := e.check(itemID, kitchenID)
	if err != nil {
		return err
	}

	e.rows[i].KitchenID = kitchenID
	if kitchenID != "" {
		e.rows[i].Invalid = false
	}
	return nil
}

// Check reports the error Select would return without changing any row.
func (e *Editor) Check(itemID, kitchenID string) error {
	_, err := e.check(itemID, kitchenID)
	return err
}

func (e *Editor) check(itemID, kitchenID string) (int, error) {
	if e.state != EditorRendered {
		return -1, ErrEditorNotReady
	}

	if kitchenID != "" && !e.hasKitchen(kitchenID) {
		return -1, fmt.Errorf("%w: %s", ErrUnknownKitchen, kitchenID)
	}

	for i := range e.rows {
		if e.rows[i].ItemID == itemID {
			return i, nil
		}
	}

	return -1, fmt.Errorf("%w: %s", ErrUnknownItem, itemID)
}

// Batch validates every row. When one or more rows lack a kitchen they are
// flagged and an *IncompleteError is returned; otherwise the assignments are
// returned in row order.
func (e *Editor) Batch() ([]Assignment, error) {
	if e.state != EditorRendered {
		return nil, ErrEditorNotReady
	}
	if len(e.rows) == 0 {
		return nil, ErrNothingToAssign
	}

	var missing []string
	for i := range e.rows {
		e.rows[i].Invalid = e.rows[i].KitchenID == ""
		if e.rows[i].Invalid {
			missing = append(missing, e.rows[i].ItemID)
		}
	}
	if len(missing) > 0 {
		return nil, &IncompleteError{ItemIDs: missing}
	}

	batch := make([]Assignment, 0, len(e.rows))
	for _, row := range e.rows {
		batch = append(batch, Assignment{ItemID: row.ItemID, KitchenID: row.KitchenID})
	}
	return batch, nil
}

func (e *Editor) hasKitchen(id string) bool {
	for _, k := range e.kitchens {
		if k.ID.String() == id {
			return true
		}
	}
	return false
}
