package resource

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// FieldKind tells the form builder how to read and encode a value.
type FieldKind string

const (
	FieldText   FieldKind = "text"
	FieldInt    FieldKind = "int"
	FieldFloat  FieldKind = "float"
	FieldSelect FieldKind = "select"
	FieldMulti  FieldKind = "multi"
	FieldDate   FieldKind = "date"
	FieldArea   FieldKind = "textarea"
)

// OptionSource points a select field at another panel's collection.
type OptionSource struct {
	Resource string
	Key      string
	// LabelField is the record attribute shown to the user, "name" by default.
	LabelField string
}

// Field describes one input of a create form.
type Field struct {
	Name     string
	Label    string
	Kind     FieldKind
	Required bool
	Choices  []string
	Source   *OptionSource
	// Companion receives the label of the selected option, e.g. area_name
	// next to area_id.
	Companion string
}

// Column describes one cell of the rendered table.
type Column struct {
	Key    string
	Label  string
	Format string
}

// Descriptor binds a back-office panel to one REST collection.
type Descriptor struct {
	Resource  string
	Key       string
	Title     string
	Singular  string
	Columns   []Column
	Fields    []Field
	EmptyText string
	// DateFilter lists the collection per day (?date=YYYY-MM-DD).
	DateFilter bool
	// Producible enables PUT /{resource}/{id} with {produced: n}.
	Producible bool
}

var statusChoices = []string{"active", "inactive"}

// Descriptors lists every CRUD panel of the back office.
var Descriptors = []Descriptor{
	{
		Resource: "areas",
		Key:      "areas",
		Title:    "Areas",
		Singular: "area",
		Columns: []Column{
			{Key: "name", Label: "Name", Format: "strong"},
			{Key: "description", Label: "Description"},
			{Key: "tables_count", Label: "Tables", Format: "count"},
			{Key: "status", Label: "Status", Format: "badge"},
		},
		Fields: []Field{
			{Name: "name", Label: "Name", Kind: FieldText, Required: true},
			{Name: "description", Label: "Description", Kind: FieldArea},
			{Name: "status", Label: "Status", Kind: FieldSelect, Choices: statusChoices},
		},
		EmptyText: "No areas yet. Add your first area!",
	},
	{
		Resource: "categories",
		Key:      "categories",
		Title:    "Categories",
		Singular: "category",
		Columns: []Column{
			{Key: "name", Label: "Name", Format: "strong"},
			{Key: "description", Label: "Description"},
			{Key: "status", Label: "Status", Format: "badge"},
		},
		Fields: []Field{
			{Name: "name", Label: "Name", Kind: FieldText, Required: true},
			{Name: "description", Label: "Description", Kind: FieldArea},
			{Name: "status", Label: "Status", Kind: FieldSelect, Choices: statusChoices},
		},
		EmptyText: "No categories yet. Add your first category!",
	},
	{
		Resource: "kitchens",
		Key:      "kitchens",
		Title:    "Kitchens",
		Singular: "kitchen",
		Columns: []Column{
			{Key: "name", Label: "Name", Format: "strong"},
			{Key: "location", Label: "Location"},
			{Key: "status", Label: "Status", Format: "badge"},
		},
		Fields: []Field{
			{Name: "name", Label: "Name", Kind: FieldText, Required: true},
			{Name: "location", Label: "Location", Kind: FieldText},
			{Name: "status", Label: "Status", Kind: FieldSelect, Choices: statusChoices},
		},
		EmptyText: "No kitchens yet. Add your first kitchen!",
	},
	{
		Resource: "food-items",
		Key:      "food_items",
		Title:    "Food Items",
		Singular: "food item",
		Columns: []Column{
			{Key: "name", Label: "Name", Format: "strong"},
			{Key: "category_name", Label: "Category"},
			{Key: "kitchens", Label: "Kitchens", Format: "names"},
			{Key: "price", Label: "Price", Format: "money"},
			{Key: "specifications", Label: "Specifications", Format: "excerpt"},
			{Key: "status", Label: "Status", Format: "badge"},
		},
		Fields: []Field{
			{Name: "name", Label: "Name", Kind: FieldText, Required: true},
			{Name: "category_id", Label: "Category", Kind: FieldSelect, Required: true,
				Source: &OptionSource{Resource: "categories", Key: "categories"}},
			{Name: "kitchen_ids", Label: "Kitchens", Kind: FieldMulti, Required: true,
				Source: &OptionSource{Resource: "kitchens", Key: "kitchens"}},
			{Name: "price", Label: "Price", Kind: FieldFloat, Required: true},
			{Name: "specifications", Label: "Specifications", Kind: FieldArea},
			{Name: "status", Label: "Status", Kind: FieldSelect, Choices: []string{"available", "unavailable"}},
		},
		EmptyText: "No food items yet. Add your first item!",
	},
	{
		Resource: "tables",
		Key:      "tables",
		Title:    "Tables",
		Singular: "table",
		Columns: []Column{
			{Key: "number", Label: "Number", Format: "strong"},
			{Key: "area_name", Label: "Area"},
			{Key: "capacity", Label: "Capacity", Format: "count"},
			{Key: "status", Label: "Status", Format: "badge"},
		},
		Fields: []Field{
			{Name: "number", Label: "Number", Kind: FieldText, Required: true},
			{Name: "area_id", Label: "Area", Kind: FieldSelect, Required: true, Companion: "area_name",
				Source: &OptionSource{Resource: "areas", Key: "areas"}},
			{Name: "capacity", Label: "Capacity", Kind: FieldInt},
			{Name: "status", Label: "Status", Kind: FieldSelect, Choices: []string{"available", "occupied", "reserved"}},
		},
		EmptyText: "No tables yet. Add your first table!",
	},
	{
		Resource: "order-types",
		Key:      "order_types",
		Title:    "Order Types",
		Singular: "order type",
		Columns: []Column{
			{Key: "name", Label: "Name", Format: "strong"},
			{Key: "description", Label: "Description"},
			{Key: "status", Label: "Status", Format: "badge"},
		},
		Fields: []Field{
			{Name: "name", Label: "Name", Kind: FieldText, Required: true},
			{Name: "description", Label: "Description", Kind: FieldArea},
			{Name: "status", Label: "Status", Kind: FieldSelect, Choices: statusChoices},
		},
		EmptyText: "No order types yet. Add your first order type!",
	},
	{
		Resource: "daily-production",
		Key:      "production_items",
		Title:    "Daily Production",
		Singular: "production item",
		Columns: []Column{
			{Key: "food_name", Label: "Food", Format: "strong"},
			{Key: "category_name", Label: "Category"},
			{Key: "planned_quantity", Label: "Planned", Format: "count"},
			{Key: "produced", Label: "Produced", Format: "produced"},
			{Key: "remaining", Label: "Remaining", Format: "remaining"},
			{Key: "progress", Label: "Status", Format: "progress"},
		},
		Fields: []Field{
			{Name: "food_id", Label: "Food item", Kind: FieldSelect, Required: true, Companion: "food_name",
				Source: &OptionSource{Resource: "food-items", Key: "food_items"}},
			{Name: "date", Label: "Date", Kind: FieldDate, Required: true},
			{Name: "planned_quantity", Label: "Planned quantity", Kind: FieldInt, Required: true},
			{Name: "produced", Label: "Produced", Kind: FieldInt},
			{Name: "notes", Label: "Notes", Kind: FieldArea},
		},
		EmptyText:  "No production items for this date. Add your first production plan!",
		DateFilter: true,
		Producible: true,
	},
}

// Lookup finds the descriptor for resource.
func Lookup(resource string) (Descriptor, bool) {
	for _, d := range Descriptors {
		if d.Resource == resource {
			return d, true
		}
	}
	return Descriptor{}, false
}

// FieldError names the form field that blocked a submission.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Message
}

// FormValues is the subset of url.Values the payload builder needs.
type FormValues interface {
	Get(key string) string
}

// BuildPayload turns submitted form values into the JSON body for Create.
// multi holds the values of FieldMulti inputs; labels maps option ids to
// their display names for companion fields.
func (d Descriptor) BuildPayload(values FormValues, multi map[string][]string, labels map[string]string) (map[string]interface{}, error) {
	payload := make(map[string]interface{}, len(d.Fields))

	for _, field := range d.Fields {
		if field.Kind == FieldMulti {
			selected := compact(multi[field.Name])
			if field.Required && len(selected) == 0 {
				return nil, &FieldError{Field: field.Name, Message: fmt.Sprintf("Please select at least one %s", singular(field.Label))}
			}
			payload[field.Name] = selected
			continue
		}

		raw := strings.TrimSpace(values.Get(field.Name))
		if raw == "" {
			if field.Required {
				return nil, &FieldError{Field: field.Name, Message: requiredMessage(field)}
			}
			switch field.Kind {
			case FieldInt:
				payload[field.Name] = 0
			case FieldFloat:
				payload[field.Name] = 0.0
			default:
				payload[field.Name] = ""
			}
			continue
		}

		switch field.Kind {
		case FieldInt:
			n, err := strconv.Atoi(raw)
			if err != nil {
				return nil, &FieldError{Field: field.Name, Message: fmt.Sprintf("%s must be a whole number", field.Label)}
			}
			payload[field.Name] = n
		case FieldFloat:
			f, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, &FieldError{Field: field.Name, Message: fmt.Sprintf("%s must be a number", field.Label)}
			}
			payload[field.Name] = f
		default:
			payload[field.Name] = raw
		}

		if field.Companion != "" {
			payload[field.Companion] = labels[raw]
		}
	}

	return payload, nil
}

func requiredMessage(field Field) string {
	if field.Kind == FieldSelect {
		return fmt.Sprintf("Please select %s", article(field.Label))
	}
	return fmt.Sprintf("%s is required", field.Label)
}

func article(label string) string {
	lower := strings.ToLower(label)
	if lower == "" {
		return "a value"
	}
	switch lower[0] {
	case 'a', 'e', 'i', 'o', 'u':
		return "an " + lower
	}
	return "a " + lower
}

func singular(label string) string {
	lower := strings.ToLower(label)
	return strings.TrimSuffix(lower, "s")
}

func compact(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// Option is a choice for a select field backed by another collection.
type Option struct {
	ID    string
	Label string
}

// Options converts records into sorted select options.
func Options(records []Record, labelField string) []Option {
	if labelField == "" {
		labelField = "name"
	}

	options := make([]Option, 0, len(records))
	for _, rec := range records {
		id := rec.String("id")
		if id == "" {
			continue
		}
		label := rec.String(labelField)
		if label == "" {
			label = id
		}
		options = append(options, Option{ID: id, Label: label})
	}

	sort.SliceStable(options, func(i, j int) bool {
		return strings.ToLower(options[i].Label) < strings.ToLower(options[j].Label)
	})

	return options
}
