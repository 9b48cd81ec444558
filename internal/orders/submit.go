package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aquamarinepk/aqm"
)

// AssignFailedText is shown when the API rejects a batch without a message.
const AssignFailedText = "Failed to assign items"

// ErrNothingToAssign is returned for orders without items.
var ErrNothingToAssign = errors.New("order has no items to assign")

// IncompleteError lists the items that still need a kitchen.
type IncompleteError struct {
	ItemIDs []string
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("please select a kitchen for all items (missing: %s)", strings.Join(e.ItemIDs, ", "))
}

// Submitter persists a full assignment batch in one request.
type Submitter struct {
	api    API
	logger aqm.Logger
}

func NewSubmitter(api API, logger aqm.Logger) *Submitter {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &Submitter{api: api, logger: logger}
}

// Submit validates editor and, when every row has a kitchen, sends the batch.
// The server replaces the mapping of every (order, item) pair it receives, so
// sending the same batch twice is harmless. On failure the editor selections
// are left as they were.
func (s *Submitter) Submit(ctx context.Context, editor *Editor) ([]Assignment, error) {
	if editor == nil {
		return nil, ErrEditorNotReady
	}

	batch, err := editor.Batch()
	if err != nil {
		return nil, err
	}

	if err := s.api.AssignKitchens(ctx, editor.OrderID(), batch); err != nil {
		s.logger.Error("assign kitchens failed", "order_id", editor.OrderID(), "items", len(batch), "error", err)
		return nil, err
	}

	s.logger.Info("kitchens assigned", "order_id", editor.OrderID(), "items", len(batch))
	return batch, nil
}
