package orders

import (
	"sort"
	"strings"
	"time"
)

// EmptyState distinguishes "nothing to show" placeholders.
type EmptyState int

const (
	EmptyNone EmptyState = iota
	EmptyNoOrders
	EmptyNoMatch
)

// Text is the placeholder shown for the state.
func (e EmptyState) Text() string {
	switch e {
	case EmptyNoOrders:
		return "No orders yet. Create your first order!"
	case EmptyNoMatch:
		return "No orders match the selected filter"
	default:
		return ""
	}
}

// ListLoadError is shown in place of the list when it cannot be fetched.
const ListLoadError = "Error loading orders. Please try again."

// createdAtLayouts are tried in order when parsing created_at.
var createdAtLayouts = []string{
	time.RFC3339Nano,
	time.RFC1123,
	time.RFC1123Z,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseCreatedAt parses an API timestamp. ok is false when no layout matches.
func ParseCreatedAt(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FilterAndSort keeps the orders whose status equals status (all of them when
// status is empty) and orders them newest first. Ties keep fetch order and
// unparseable timestamps sort last.
func FilterAndSort(all []Order, status string) ([]Order, EmptyState) {
	if len(all) == 0 {
		return []Order{}, EmptyNoOrders
	}

	filtered := make([]Order, 0, len(all))
	for _, o := range all {
		if status == "" || o.Status == status {
			filtered = append(filtered, o)
		}
	}

	if len(filtered) == 0 {
		return filtered, EmptyNoMatch
	}

	stamps := make([]time.Time, len(filtered))
	valid := make([]bool, len(filtered))
	for i, o := range filtered {
		stamps[i], valid[i] = ParseCreatedAt(o.CreatedAt)
	}

	idx := make([]int, len(filtered))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ia, ib := idx[a], idx[b]
		if valid[ia] != valid[ib] {
			return valid[ia]
		}
		return stamps[ia].After(stamps[ib])
	})

	sorted := make([]Order, len(filtered))
	for pos, i := range idx {
		sorted[pos] = filtered[i]
	}

	return sorted, EmptyNone
}
