package orders

import (
	"context"
	"errors"
	"sync"

	"github.com/aquamarinepk/aqm"
	aqmevents "github.com/aquamarinepk/aqm/events"

	"github.com/appetiteclub/backoffice/internal/events"
)

var (
	ErrOrderNotListed = errors.New("order is not in the loaded list")
	ErrNoSelection    = errors.New("order is not the current selection")
)

// Workspace is the order-management state of one browser: the loaded list,
// its filter, the single selected order and its assignment editor.
type Workspace struct {
	id        string
	api       API
	loader    *Loader
	submitter *Submitter
	publisher aqmevents.Publisher
	logger    aqm.Logger

	mu         sync.Mutex
	orders     []Order
	filter     string
	empty      EmptyState
	listErr    string
	listGen    uint64
	selected   string
	generation uint64
	loading    bool
	detail     *Detail
}

// NewWorkspace creates an empty workspace. publisher may be nil.
func NewWorkspace(id string, api API, publisher aqmevents.Publisher, logger aqm.Logger) *Workspace {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	logger = logger.With("workspace", id)

	return &Workspace{
		id:        id,
		api:       api,
		loader:    NewLoader(api, logger),
		submitter: NewSubmitter(api, logger),
		publisher: publisher,
		logger:    logger,
	}
}

func (w *Workspace) ID() string {
	return w.id
}

// Filter is the status filter of the last list load.
func (w *Workspace) Filter() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.filter
}

// LoadOrders fetches every order and keeps those matching status, newest
// first. On failure the list is replaced by an inline error and the current
// selection is kept. A response that arrives after a newer load started is
// dropped.
func (w *Workspace) LoadOrders(ctx context.Context, status string) error {
	w.mu.Lock()
	w.listGen++
	gen := w.listGen
	w.mu.Unlock()

	all, err := w.api.ListOrders(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()

	if gen != w.listGen {
		w.logger.Debug("discarding stale order list", "generation", gen)
		return nil
	}

	w.filter = status
	if err != nil {
		w.logger.Error("cannot load orders", "error", err)
		w.orders = nil
		w.empty = EmptyNone
		w.listErr = ListLoadError
		return err
	}

	w.orders, w.empty = FilterAndSort(all, status)
	w.listErr = ""
	return nil
}

// Select makes orderID the single selected order and loads its detail and
// assignment editor. Only the latest selection is applied: a load that
// finishes after another Select started is discarded.
func (w *Workspace) Select(ctx context.Context, orderID string) error {
	w.mu.Lock()
	summary, ok := w.findLocked(orderID)
	if !ok {
		w.mu.Unlock()
		return ErrOrderNotListed
	}
	w.generation++
	gen := w.generation
	w.selected = orderID
	w.loading = true
	w.detail = nil
	w.mu.Unlock()

	detail := w.loader.Load(ctx, summary)

	w.mu.Lock()
	defer w.mu.Unlock()

	if gen != w.generation {
		w.logger.Debug("discarding stale order detail", "order_id", orderID, "generation", gen)
		return nil
	}

	w.loading = false
	w.detail = &detail
	return nil
}

// SelectKitchen records a kitchen choice for one item of the selected order.
func (w *Workspace) SelectKitchen(orderID, itemID, kitchenID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	editor, err := w.editorLocked(orderID)
	if err != nil {
		return err
	}
	return editor.Select(itemID, kitchenID)
}

// Assign applies selections (item id to kitchen id, may be nil) to the editor
// of the selected order and submits the full batch. On success the order list
// is refreshed and a change event is published. It returns the number of
// assigned items.
func (w *Workspace) Assign(ctx context.Context, orderID string, selections map[string]string) (int, error) {
	w.mu.Lock()
	editor, err := w.editorLocked(orderID)
	if err != nil {
		w.mu.Unlock()
		return 0, err
	}

	// Every selection is checked before any is applied.
	for itemID, kitchenID := range selections {
		if err := editor.Check(itemID, kitchenID); err != nil && !errors.Is(err, ErrUnknownItem) {
			w.mu.Unlock()
			return 0, err
		}
	}
	for itemID, kitchenID := range selections {
		editor.Select(itemID, kitchenID)
	}

	batch, err := w.submitter.Submit(ctx, editor)
	filter := w.filter
	w.mu.Unlock()

	if err != nil {
		return 0, err
	}

	evt := events.NewResourceChanged("orders", events.ActionKitchensAssigned, orderID)
	evt.Count = len(batch)
	if err := events.PublishChange(ctx, w.publisher, evt); err != nil {
		w.logger.Error("cannot publish assignment event", "order_id", orderID, "error", err)
	}

	if err := w.LoadOrders(ctx, filter); err != nil {
		w.logger.Error("cannot refresh orders after assignment", "error", err)
	}

	return len(batch), nil
}

// Snapshot is a copy of the workspace state for rendering.
type Snapshot struct {
	Orders      []Order
	Filter      string
	Empty       EmptyState
	ListError   string
	SelectedID  string
	Loading     bool
	Order       *Order
	DetailError string
	Editor      *EditorView
}

// EditorView is a copy of the editor state for rendering.
type EditorView struct {
	OrderID  string
	State    EditorState
	Rows     []Row
	Kitchens []Kitchen
	Empty    bool
	Error    string
}

// Snapshot copies the current state.
func (w *Workspace) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	snap := Snapshot{
		Orders:     append([]Order(nil), w.orders...),
		Filter:     w.filter,
		Empty:      w.empty,
		ListError:  w.listErr,
		SelectedID: w.selected,
		Loading:    w.loading,
	}

	if w.detail == nil {
		return snap
	}

	if w.detail.Err != nil {
		snap.DetailError = DetailLoadError
		return snap
	}

	order := w.detail.Order
	snap.Order = &order

	if e := w.detail.Editor; e != nil {
		view := &EditorView{
			OrderID:  e.OrderID(),
			State:    e.State(),
			Rows:     e.Rows(),
			Kitchens: e.Kitchens(),
			Empty:    e.Empty(),
		}
		if e.Err() != nil {
			view.Error = "Error loading kitchens"
		}
		snap.Editor = view
	}

	return snap
}

func (w *Workspace) findLocked(orderID string) (Order, bool) {
	for _, o := range w.orders {
		if o.ID.String() == orderID {
			return o, true
		}
	}
	return Order{}, false
}

func (w *Workspace) editorLocked(orderID string) (*Editor, error) {
	if w.selected != orderID || w.detail == nil || w.detail.Editor == nil {
		return nil, ErrNoSelection
	}
	return w.detail.Editor, nil
}
