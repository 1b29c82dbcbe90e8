package handlers

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"reflect"

	"go.uber.org/zap"

	"churchadmin/internal/models"
	"churchadmin/internal/service"
	"churchadmin/internal/validation"
)

// recordService is the record service a console page needs
type recordService[E models.Entity] interface {
	Kind() models.Kind
	Create(ctx context.Context, e E) error
	Get(ctx context.Context, id string) (E, error)
	List(ctx context.Context, query string) ([]E, error)
	Update(ctx context.Context, e E) error
	Delete(ctx context.Context, id string) error
}

// formHooks customise a record page for one record type
type formHooks[E models.Entity] struct {
	// bind reads values the generic field binding does not cover
	bind func(form url.Values, e E, saving bool)
	// act applies a form action other than save and reports whether it was recognised
	act func(action string, e E) bool
	// prepare adds derived data to a form view before it renders
	prepare func(ctx context.Context, e E, view *RecordFormViewData) error
	// detail adds extra data to the view page
	detail func(e E, view *RecordViewData)
}

// RecordHandler serves the console pages of one record type
type RecordHandler[E models.Entity] struct {
	svc        recordService[E]
	blank      func() E
	hooks      formHooks[E]
	templates  *template.Template
	middleware *Middleware
	logger     *zap.Logger
}

func newRecordHandler[E models.Entity](svc recordService[E], blank func() E, hooks formHooks[E], templates *template.Template, middleware *Middleware, logger *zap.Logger) *RecordHandler[E] {
	return &RecordHandler[E]{
		svc:        svc,
		blank:      blank,
		hooks:      hooks,
		templates:  templates,
		middleware: middleware,
		logger:     logger.With(zap.String("kind", svc.Kind().Slug)),
	}
}

// Register adds the record type's pages to mux
func (h *RecordHandler[E]) Register(mux *http.ServeMux) {
	base := "/records/" + h.svc.Kind().Slug
	m := h.middleware

	mux.HandleFunc("GET "+base, m.RequireAuth(h.List))
	mux.HandleFunc("GET "+base+"/new", m.RequireAuth(h.New))
	mux.HandleFunc("POST "+base, m.RequireAuth(LimitBody(maxFormBytes, m.CSRFProtect(h.Create))))
	mux.HandleFunc("GET "+base+"/{id}", m.RequireAuth(h.View))
	mux.HandleFunc("GET "+base+"/{id}/edit", m.RequireAuth(h.Edit))
	mux.HandleFunc("POST "+base+"/{id}", m.RequireAuth(LimitBody(maxFormBytes, m.CSRFProtect(h.Update))))
	mux.HandleFunc("POST "+base+"/{id}/delete", m.RequireAuth(LimitBody(maxFormBytes, m.CSRFProtect(h.Delete))))
}

func (h *RecordHandler[E]) listURL() string {
	return "/records/" + h.svc.Kind().Slug
}

// List shows the records of this type, filtered by the q search parameter
func (h *RecordHandler[E]) List(w http.ResponseWriter, r *http.Request) {
	kind := h.svc.Kind()
	query := r.URL.Query().Get("q")

	data := RecordListViewData{
		Page:    h.middleware.page(r, kind.Plural, kind.Slug),
		Kind:    kind,
		Query:   query,
		Columns: listColumns(reflect.TypeOf(h.blank())),
	}
	switch r.URL.Query().Get("msg") {
	case "saved":
		data.Flash = kind.Singular + " saved."
	case "deleted":
		data.Flash = kind.Singular + " deleted."
	}

	records, err := h.svc.List(r.Context(), query)
	if err != nil {
		h.logger.Error("failed to list records", zap.Error(err))
		data.Error = "Could not load " + kind.Plural + ". Please try again."
		render(w, h.templates, h.logger, http.StatusInternalServerError, "record_list.tmpl", data)
		return
	}

	data.Rows = make([]RecordRow, 0, len(records))
	for _, e := range records {
		data.Rows = append(data.Rows, RecordRow{
			ID:    e.Meta().ID,
			Name:  e.DisplayName(),
			Cells: listCells(e),
		})
	}
	render(w, h.templates, h.logger, http.StatusOK, "record_list.tmpl", data)
}

// New shows an empty form
func (h *RecordHandler[E]) New(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, h.blank(), nil)
}

// Create handles the new record form
func (h *RecordHandler[E]) Create(w http.ResponseWriter, r *http.Request) {
	e := h.blank()
	h.submit(w, r, e, h.svc.Create)
}

// View shows one record
func (h *RecordHandler[E]) View(w http.ResponseWriter, r *http.Request) {
	e, ok := h.load(w, r)
	if !ok {
		return
	}

	kind := h.svc.Kind()
	meta := e.Meta()
	data := RecordViewData{
		Page:      h.middleware.page(r, e.DisplayName(), kind.Slug),
		Kind:      kind,
		RecordID:  meta.ID,
		Name:      e.DisplayName(),
		Fields:    formFields(e),
		CreatedAt: meta.CreatedAt,
		UpdatedAt: meta.UpdatedAt,
	}
	if h.hooks.detail != nil {
		h.hooks.detail(e, &data)
	}
	render(w, h.templates, h.logger, http.StatusOK, "record_view.tmpl", data)
}

// Edit shows the form for an existing record
func (h *RecordHandler[E]) Edit(w http.ResponseWriter, r *http.Request) {
	e, ok := h.load(w, r)
	if !ok {
		return
	}
	h.renderForm(w, r, http.StatusOK, e, nil)
}

// Update handles the edit form
func (h *RecordHandler[E]) Update(w http.ResponseWriter, r *http.Request) {
	e, ok := h.load(w, r)
	if !ok {
		return
	}
	h.submit(w, r, e, h.svc.Update)
}

// Delete removes a record and returns to the list
func (h *RecordHandler[E]) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.svc.Delete(r.Context(), r.PathValue("id"))
	switch {
	case err == nil:
		http.Redirect(w, r, h.listURL()+"?msg=deleted", http.StatusSeeOther)
	case errors.Is(err, service.ErrRecordNotFound):
		h.notFound(w, r)
	case errors.Is(err, service.ErrLeaderInUse):
		h.renderError(w, r, http.StatusConflict, "This zonal leader still has unit leaders assigned. Move them to another zone first.")
	default:
		h.logger.Error("failed to delete record", zap.String("id", r.PathValue("id")), zap.Error(err))
		h.renderError(w, r, http.StatusInternalServerError, ErrInternalServerError)
	}
}

// submit binds the posted form onto e and either applies a form action or saves
func (h *RecordHandler[E]) submit(w http.ResponseWriter, r *http.Request, e E, save func(context.Context, E) error) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
		return
	}

	action := r.PostForm.Get("action")
	saving := action == "" || action == "save"

	bindForm(e, r.PostForm)
	if h.hooks.bind != nil {
		h.hooks.bind(r.PostForm, e, saving)
	}

	if !saving {
		if h.hooks.act == nil || !h.hooks.act(action, e) {
			http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
			return
		}
		h.renderForm(w, r, http.StatusOK, e, nil)
		return
	}

	if err := save(r.Context(), e); err != nil {
		h.renderSaveError(w, r, e, err)
		return
	}
	http.Redirect(w, r, h.listURL()+"?msg=saved", http.StatusSeeOther)
}

func (h *RecordHandler[E]) renderSaveError(w http.ResponseWriter, r *http.Request, e E, err error) {
	var verr validation.ValidationError
	switch {
	case errors.As(err, &verr):
		h.renderForm(w, r, http.StatusUnprocessableEntity, e, &verr)
	case errors.Is(err, service.ErrZoneTaken):
		h.renderForm(w, r, http.StatusConflict, e, &validation.ValidationError{
			Field:   "zone_number",
			Message: "another zonal leader already leads this zone",
		})
	case errors.Is(err, service.ErrLeaderInUse):
		h.renderForm(w, r, http.StatusConflict, e, &validation.ValidationError{
			Field:   "zone_number",
			Message: "unit leaders are still assigned to the current zone",
		})
	case errors.Is(err, service.ErrRecordNotFound):
		h.notFound(w, r)
	default:
		h.logger.Error("failed to save record", zap.String("id", e.Meta().ID), zap.Error(err))
		h.renderForm(w, r, http.StatusInternalServerError, e, &validation.ValidationError{Message: ErrSaveFailed})
	}
}

func (h *RecordHandler[E]) renderForm(w http.ResponseWriter, r *http.Request, status int, e E, verr *validation.ValidationError) {
	kind := h.svc.Kind()
	id := e.Meta().ID

	title := "New " + kind.Singular
	action := h.listURL()
	if id != "" {
		title = "Edit " + kind.Singular
		action = h.listURL() + "/" + id
	}

	data := RecordFormViewData{
		Page:     h.middleware.page(r, title, kind.Slug),
		Kind:     kind,
		RecordID: id,
		Action:   action,
	}
	if h.hooks.prepare != nil {
		if err := h.hooks.prepare(r.Context(), e, &data); err != nil {
			h.logger.Error("failed to prepare form", zap.Error(err))
			data.Error = "Could not load zonal leaders. Please try again."
			data.SubmitDisabled = true
		}
	}
	data.Fields = formFields(e)
	if verr != nil {
		data.ErrorField = verr.Field
		data.Error = errorMessage(data.Fields, *verr)
	}
	render(w, h.templates, h.logger, status, "record_form.tmpl", data)
}

// errorMessage labels a validation error with the field's form label when there is one
func errorMessage(fields []FieldView, verr validation.ValidationError) string {
	if verr.Field == "" {
		return verr.Message
	}
	for _, f := range fields {
		if f.Name == verr.Field {
			return f.Label + ": " + verr.Message
		}
	}
	return verr.Error()
}

// load fetches the record named by the id path value, rendering not found when it is missing
func (h *RecordHandler[E]) load(w http.ResponseWriter, r *http.Request) (E, bool) {
	e, err := h.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, service.ErrRecordNotFound) {
			h.notFound(w, r)
		} else {
			h.logger.Error("failed to load record", zap.String("id", r.PathValue("id")), zap.Error(err))
			h.renderError(w, r, http.StatusInternalServerError, ErrInternalServerError)
		}
		var zero E
		return zero, false
	}
	return e, true
}

func (h *RecordHandler[E]) notFound(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, r, http.StatusNotFound, h.svc.Kind().Singular+" not found.")
}

func (h *RecordHandler[E]) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	kind := h.svc.Kind()
	data := ErrorViewData{
		Page:    h.middleware.page(r, kind.Plural, kind.Slug),
		Message: message,
		BackURL: h.listURL(),
	}
	render(w, h.templates, h.logger, status, "error.tmpl", data)
}
