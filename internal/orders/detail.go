package orders

import (
	"context"

	"github.com/aquamarinepk/aqm"
)

// DetailLoadError is shown in the detail panel when the order cannot be fetched.
const DetailLoadError = "Error loading order details"

// Detail is the outcome of loading one selected order.
type Detail struct {
	Order  Order
	Editor *Editor
	Err    error
}

// Loader fetches the authoritative order and prepares its assignment editor.
type Loader struct {
	api    API
	logger aqm.Logger
}

func NewLoader(api API, logger aqm.Logger) *Loader {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &Loader{api: api, logger: logger}
}

// Load fetches the detail of summary. When the payload omits the order the
// summary is used. An editor failure never hides the detail itself.
func (l *Loader) Load(ctx context.Context, summary Order) Detail {
	id := summary.ID.String()

	detail, err := l.api.GetOrder(ctx, id)
	if err != nil {
		l.logger.Error("cannot load order detail", "order_id", id, "error", err)
		return Detail{Order: summary, Err: err}
	}

	order := summary
	if detail != nil {
		order = *detail
		if order.ID == "" {
			order.ID = summary.ID
		}
	}

	editor := NewEditor(order, l.logger)
	if err := editor.Load(ctx, l.api); err != nil {
		l.logger.Error("cannot load assignment editor", "order_id", id, "error", err)
	}

	return Detail{Order: order, Editor: editor}
}
