package resource

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// String returns the attribute as display text. JSON numbers without a
// fractional part are printed as integers.
func (r Record) String(key string) string {
	switch v := r[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

// Int returns the attribute as an integer, 0 when absent or malformed.
func (r Record) Int(key string) int {
	switch v := r[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// Float returns the attribute as a float, 0 when absent or malformed.
func (r Record) Float(key string) float64 {
	switch v := r[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// Cell is a formatted table cell.
type Cell struct {
	Text   string
	Title  string
	Format string
	Class  string
	Value  int
}

// Cells formats record according to the descriptor columns.
func (d Descriptor) Cells(rec Record) []Cell {
	cells := make([]Cell, 0, len(d.Columns))
	for _, col := range d.Columns {
		cells = append(cells, formatCell(rec, col))
	}
	return cells
}

func formatCell(rec Record, col Column) Cell {
	cell := Cell{Format: col.Format}

	switch col.Format {
	case "count":
		cell.Text = strconv.Itoa(rec.Int(col.Key))
	case "money":
		cell.Text = fmt.Sprintf("$%.2f", rec.Float(col.Key))
	case "badge":
		cell.Text = rec.String(col.Key)
		cell.Class = badgeClass(cell.Text)
	case "names":
		cell.Text, cell.Title = kitchenNames(rec)
	case "excerpt":
		cell.Text = excerpt(rec.String(col.Key), 50)
		cell.Title = rec.String(col.Key)
	case "produced":
		cell.Value = rec.Int("produced")
		cell.Text = strconv.Itoa(cell.Value)
	case "remaining":
		cell.Text = strconv.Itoa(rec.Int("planned_quantity") - rec.Int("produced"))
	case "progress":
		if rec.Int("produced") >= rec.Int("planned_quantity") {
			cell.Text, cell.Class = "Complete", "success"
		} else {
			cell.Text, cell.Class = "In Progress", "warning"
		}
	default:
		cell.Text = rec.String(col.Key)
	}

	if cell.Text == "" {
		cell.Text = "-"
	}

	return cell
}

func badgeClass(status string) string {
	switch strings.ToLower(status) {
	case "active", "available":
		return "success"
	default:
		return "warning"
	}
}

func kitchenNames(rec Record) (string, string) {
	var names []string
	if list, ok := rec["kitchens"].([]interface{}); ok {
		for _, entry := range list {
			if m, ok := entry.(map[string]interface{}); ok {
				if name := Record(m).String("name"); name != "" {
					names = append(names, name)
				}
			}
		}
	}

	if len(names) == 0 {
		if name := rec.String("kitchen_name"); name != "" {
			return name, name
		}
		return "Not Assigned", "Not Assigned"
	}

	full := strings.Join(names, ", ")
	if utf8.RuneCountInString(full) > 40 {
		return truncate(full, 37) + "...", full
	}
	return full, full
}

func excerpt(value string, limit int) string {
	value = strings.TrimSpace(value)
	if utf8.RuneCountInString(value) <= limit {
		return value
	}
	return truncate(value, limit) + "..."
}

// truncate keeps the first n characters of s.
func truncate(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
