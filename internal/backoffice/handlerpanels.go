package backoffice

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/aquamarinepk/aqm"
	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/appetiteclub/backoffice/internal/events"
	"github.com/appetiteclub/backoffice/internal/resource"
)

func (h *Handler) descriptor(w http.ResponseWriter, r *http.Request) (resource.Descriptor, bool) {
	d, ok := resource.Lookup(chi.URLParam(r, "resource"))
	if !ok {
		http.Error(w, "Unknown panel", http.StatusNotFound)
	}
	return d, ok
}

// Panel displays the management page of one collection.
func (h *Handler) Panel(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.http.Start(w, r, "Handler.Panel")
	defer finish()

	d, ok := h.descriptor(w, r)
	if !ok {
		return
	}

	data := map[string]interface{}{
		"Title":      d.Title,
		"Template":   "panel",
		"Descriptor": d,
		"Date":       h.now().Format("2006-01-02"),
	}

	h.renderTemplate(w, "panel.html", "base.html", data)
}

// PanelRows renders the table body of a collection.
func (h *Handler) PanelRows(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.http.Start(w, r, "Handler.PanelRows")
	defer finish()

	d, ok := h.descriptor(w, r)
	if !ok {
		return
	}

	data := map[string]interface{}{
		"Descriptor": d,
		"Colspan":    len(d.Columns) + 1,
	}

	records, err := h.client.List(r.Context(), d.Resource, d.Key, h.listQuery(d, r.URL.Query().Get("date")))
	if err != nil {
		h.log(r).Error("cannot load panel rows", "resource", d.Resource, "error", err)
		data["Error"] = "Error loading " + strings.ToLower(d.Title)
		h.renderTemplate(w, "panel.html", "panel_rows", data)
		return
	}

	data["Rows"] = buildRecordRows(d, records)
	if d.DateFilter {
		data["Summary"] = summarizeProduction(records)
	}

	h.renderTemplate(w, "panel.html", "panel_rows", data)
}

// NewRecordForm renders the create form with select options loaded from
// their source collections.
func (h *Handler) NewRecordForm(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.http.Start(w, r, "Handler.NewRecordForm")
	defer finish()

	d, ok := h.descriptor(w, r)
	if !ok {
		return
	}

	data := map[string]interface{}{
		"Descriptor": d,
		"Fields":     h.formFields(r.Context(), d),
		"Date":       h.now().Format("2006-01-02"),
	}

	h.renderTemplate(w, "panel.html", "panel_form", data)
}

func (h *Handler) formFields(ctx context.Context, d resource.Descriptor) []fieldView {
	fields := make([]fieldView, len(d.Fields))

	g, gctx := errgroup.WithContext(ctx)
	for i, field := range d.Fields {
		fields[i] = fieldView{Field: field}
		if field.Source == nil {
			fields[i].Options = choiceOptions(field.Choices)
			continue
		}
		g.Go(func() error {
			options, err := h.options(gctx, *field.Source)
			if err != nil {
				h.logger.Error("cannot load options", "field", field.Name, "source", field.Source.Resource, "error", err)
				fields[i].OptionsError = fmt.Sprintf("Could not load %s", strings.ToLower(field.Label))
				return nil
			}
			fields[i].Options = options
			return nil
		})
	}
	g.Wait()

	return fields
}

func (h *Handler) options(ctx context.Context, src resource.OptionSource) ([]resource.Option, error) {
	records, err := h.client.List(ctx, src.Resource, src.Key, nil)
	if err != nil {
		return nil, err
	}
	return resource.Options(records, src.LabelField), nil
}

// CreateRecord validates the submitted form and creates the record.
func (h *Handler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.http.Start(w, r, "Handler.CreateRecord")
	defer finish()
	log := h.log(r)

	d, ok := h.descriptor(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Could not read the submitted form", http.StatusBadRequest)
		return
	}

	multi := make(map[string][]string)
	for _, field := range d.Fields {
		if field.Kind == resource.FieldMulti {
			multi[field.Name] = r.PostForm[field.Name]
		}
	}

	labels, err := h.companionLabels(r.Context(), d, r.PostForm)
	if err != nil {
		log.Error("cannot resolve option labels", "resource", d.Resource, "error", err)
	}

	payload, err := d.BuildPayload(r.PostForm, multi, labels)
	if err != nil {
		h.renderAlert(w, alertView{Kind: alertWarning, Message: err.Error()})
		return
	}

	if err := h.client.Create(r.Context(), d.Resource, payload); err != nil {
		log.Error("record creation failed", "resource", d.Resource, "error", err)
		h.renderAlert(w, alertView{Kind: alertError, Message: saveFailure(d, err)})
		return
	}

	h.announce(w, r, events.NewResourceChanged(d.Resource, events.ActionCreated, ""))

	if !aqm.IsHTMX(r) {
		aqm.RedirectOrHeader(w, r, "/panels/"+d.Resource)
		return
	}

	h.renderAlert(w, alertView{
		Kind:      alertSuccess,
		Message:   titleFirst(d.Singular) + " saved successfully!",
		ClearForm: true,
	})
}

// companionLabels resolves the display names of the options chosen for
// fields that carry a companion attribute.
func (h *Handler) companionLabels(ctx context.Context, d resource.Descriptor, values resource.FormValues) (map[string]string, error) {
	labels := make(map[string]string)
	for _, field := range d.Fields {
		if field.Companion == "" || field.Source == nil {
			continue
		}
		if strings.TrimSpace(values.Get(field.Name)) == "" {
			continue
		}
		options, err := h.options(ctx, *field.Source)
		if err != nil {
			return labels, err
		}
		for _, opt := range options {
			labels[opt.ID] = opt.Label
		}
	}
	return labels, nil
}

func saveFailure(d resource.Descriptor, err error) string {
	var rejected *resource.RejectedError
	if errors.As(err, &rejected) {
		return "Error: " + rejected.Text("Could not save "+d.Singular)
	}
	return fmt.Sprintf("Error saving %s: %v", d.Singular, err)
}

// DeleteRecord removes one record. The browser confirms before sending.
func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.http.Start(w, r, "Handler.DeleteRecord")
	defer finish()
	log := h.log(r)

	d, ok := h.descriptor(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.client.Delete(r.Context(), d.Resource, id); err != nil {
		log.Error("record deletion failed", "resource", d.Resource, "id", id, "error", err)
		h.renderAlert(w, alertView{
			Kind:    alertError,
			Message: fmt.Sprintf("Error deleting %s: %s", d.Singular, resource.Message(err, err.Error())),
		})
		return
	}

	h.announce(w, r, events.NewResourceChanged(d.Resource, events.ActionDeleted, id))

	if !aqm.IsHTMX(r) {
		aqm.RedirectOrHeader(w, r, "/panels/"+d.Resource)
		return
	}

	h.renderAlert(w, alertView{Kind: alertSuccess, Message: titleFirst(d.Singular) + " deleted"})
}

// UpdateProduced records the produced quantity of a daily production item.
func (h *Handler) UpdateProduced(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.http.Start(w, r, "Handler.UpdateProduced")
	defer finish()
	log := h.log(r)

	d, ok := h.descriptor(w, r)
	if !ok {
		return
	}
	if !d.Producible {
		http.Error(w, "Produced quantity is not tracked for this panel", http.StatusNotFound)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Could not read the submitted form", http.StatusBadRequest)
		return
	}

	produced, err := strconv.Atoi(strings.TrimSpace(r.PostForm.Get("produced")))
	if err != nil || produced < 0 {
		h.renderAlert(w, alertView{Kind: alertWarning, Message: "Produced must be a whole number"})
		return
	}

	id := chi.URLParam(r, "id")
	payload := map[string]interface{}{"produced": produced}
	if err := h.client.Update(r.Context(), d.Resource, id, payload); err != nil {
		log.Error("production update failed", "id", id, "error", err)
		h.renderAlert(w, alertView{
			Kind:    alertError,
			Message: "Error updating production: " + resource.Message(err, err.Error()),
		})
		return
	}

	evt := events.NewResourceChanged(d.Resource, events.ActionUpdated, id)
	evt.Count = produced
	h.announce(w, r, evt)

	if !aqm.IsHTMX(r) {
		aqm.RedirectOrHeader(w, r, "/panels/"+d.Resource)
		return
	}

	h.renderAlert(w, alertView{})
}
