package admin

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/showroom-admin/backoffice/internal/shared"
)

const filterPrefix = "flt_"

func (a *Admin) listQuery(v *View, query url.Values, page int) shared.ListQuery {
	fields := v.Resource.Fields()
	q := shared.ListQuery{
		Search:        query.Get("q"),
		SearchColumns: v.Policy.SearchColumns(fields),
		Filters:       make(map[string]string),
		Limit:         shared.DefaultPerPage,
		Offset:        (page - 1) * shared.DefaultPerPage,
	}
	for _, f := range v.Policy.FilterFields(fields) {
		if value := query.Get(filterPrefix + f.Name); value != "" {
			q.Filters[f.Name] = value
		}
	}
	if sortBy := query.Get("sort"); sortBy != "" {
		for _, f := range v.Policy.ListFields(fields) {
			if f.Name == sortBy {
				q.SortBy = sortBy
				q.SortDesc = query.Get("dir") == "desc"
			}
		}
	}
	return q
}

func (a *Admin) list(v *View) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		page, _ := strconv.Atoi(query.Get("page"))
		if page < 1 {
			page = 1
		}
		q := a.listQuery(v, query, page)
		records, total, err := v.Resource.List(r.Context(), q)
		if err != nil {
			a.logger.Error("admin list", slog.String("view", v.Endpoint), slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		fields := v.Resource.Fields()
		listFields := v.Policy.ListFields(fields)
		opts := newOptionCache(r.Context())
		path := v.URL()

		vm := listVM{
			View:       newViewVM(v),
			Search:     q.Search,
			Searchable: len(q.SearchColumns) > 0,
			Pagination: shared.NewPagination(page, shared.DefaultPerPage, total),
			ExportURL:  withParam(query, path+"export.csv", map[string]string{"page": ""}),
			ReturnURL:  r.URL.RequestURI(),
		}
		for _, f := range listFields {
			col := columnVM{Name: f.Name, Label: f.DisplayLabel()}
			dir := "asc"
			if q.SortBy == f.Name {
				col.Sorted = true
				col.Desc = q.SortDesc
				if !q.SortDesc {
					dir = "desc"
				}
			}
			col.SortURL = withParam(query, path, map[string]string{"sort": f.Name, "dir": dir, "page": ""})
			vm.Columns = append(vm.Columns, col)
		}
		for _, rec := range records {
			row := rowVM{ID: rec.ID, Label: rec.Label}
			for _, f := range listFields {
				cell := cellVM{
					Name:     f.Name,
					Display:  rec.DisplayValue(f.Name),
					Value:    rec.Values[f.Name],
					Kind:     string(f.Kind),
					Editable: v.Policy.InlineEditable(fields, f.Name),
				}
				if cell.Editable && f.HasOptions() {
					if cell.Options, err = opts.options(f, rec.Values[f.Name]); err != nil {
						a.logger.Warn("admin options", slog.String("field", f.Name), slog.Any("error", err))
						cell.Editable = false
					}
				}
				row.Cells = append(row.Cells, cell)
			}
			vm.Rows = append(vm.Rows, row)
		}
		for _, f := range v.Policy.FilterFields(fields) {
			param := filterPrefix + f.Name
			fv := filterVM{Name: f.Name, Label: f.DisplayLabel(), Param: param, Value: query.Get(param)}
			switch {
			case f.HasOptions():
				if fv.Options, err = opts.options(f, fv.Value); err != nil {
					a.logger.Warn("admin filter options", slog.String("field", f.Name), slog.Any("error", err))
				}
			case f.Kind == KindBool:
				fv.Options = boolOptions(fv.Value)
			}
			vm.Filters = append(vm.Filters, fv)
		}
		if vm.Pagination.HasPrev() {
			vm.PrevURL = withParam(query, path, map[string]string{"page": strconv.Itoa(page - 1)})
		}
		if vm.Pagination.HasNext() {
			vm.NextURL = withParam(query, path, map[string]string{"page": strconv.Itoa(page + 1)})
		}

		a.render(w, r, v, v.Name, "pages/admin/list.html", vm, http.StatusOK)
	}
}

func (a *Admin) details(v *View) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !v.Policy.CanViewDetails {
			a.forbidden.ServeHTTP(w, r)
			return
		}
		rec, ok := a.load(w, r, v)
		if !ok {
			return
		}
		vm := detailVM{View: newViewVM(v), ID: rec.ID, Label: rec.Label}
		for _, f := range v.Policy.DetailFields(v.Resource.Fields()) {
			vm.Items = append(vm.Items, detailItem{Label: f.DisplayLabel(), Value: rec.DisplayValue(f.Name)})
		}
		a.render(w, r, v, v.Name, "pages/admin/details.html", vm, http.StatusOK)
	}
}

func (a *Admin) createForm(v *View) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !v.Policy.CanCreate {
			a.forbidden.ServeHTTP(w, r)
			return
		}
		a.renderForm(w, r, v, Record{}, false, nil, http.StatusOK)
	}
}

func (a *Admin) create(v *View) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !v.Policy.CanCreate {
			a.forbidden.ServeHTTP(w, r)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		fields := v.Policy.FormFields(v.Resource.Fields(), false)
		values := allowedValues(r.PostForm, fields)
		id, err := v.Resource.Create(r.Context(), values)
		if err != nil {
			a.formFailure(w, r, v, Record{Values: submitted(values, fields)}, false, err)
			return
		}
		a.record(r.Context(), v, shared.AuditCreate, id, map[string]any{"fields": fieldNames(values)})
		a.redirectWithFlash(w, r, v.URL(), "success", "Record was successfully created.")
	}
}

func (a *Admin) editForm(v *View) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !v.Policy.CanEdit {
			a.forbidden.ServeHTTP(w, r)
			return
		}
		rec, ok := a.load(w, r, v)
		if !ok {
			return
		}
		a.renderForm(w, r, v, rec, true, nil, http.StatusOK)
	}
}

func (a *Admin) update(v *View) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !v.Policy.CanEdit {
			a.forbidden.ServeHTTP(w, r)
			return
		}
		id, ok := a.recordID(w, r)
		if !ok {
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		fields := v.Policy.FormFields(v.Resource.Fields(), true)
		values := allowedValues(r.PostForm, fields)
		if err := v.Resource.Update(r.Context(), id, values); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				a.notFound.ServeHTTP(w, r)
				return
			}
			a.formFailure(w, r, v, Record{ID: id, Values: submitted(values, fields)}, true, err)
			return
		}
		a.record(r.Context(), v, shared.AuditUpdate, id, map[string]any{"fields": fieldNames(values)})
		a.redirectWithFlash(w, r, v.URL(), "success", "Record was successfully saved.")
	}
}

func (a *Admin) inline(v *View) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := a.recordID(w, r)
		if !ok {
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		name := r.PostFormValue("name")
		if !v.Policy.InlineEditable(v.Resource.Fields(), name) {
			a.forbidden.ServeHTTP(w, r)
			return
		}
		back := shared.SafeNext(r.PostFormValue("next"), v.URL())
		values := url.Values{name: r.PostForm["value"]}
		if len(values[name]) == 0 {
			values[name] = []string{""}
		}
		if err := v.Resource.Update(r.Context(), id, values); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				a.notFound.ServeHTTP(w, r)
				return
			}
			msg := shared.UserSafeMessage(err)
			var vErr *shared.ValidationError
			if errors.As(err, &vErr) {
				msg = vErr.Error()
			} else {
				a.logger.Error("admin inline update", slog.String("view", v.Endpoint), slog.Any("error", err))
			}
			a.redirectWithFlash(w, r, back, "error", "Failed to update record. "+msg)
			return
		}
		a.record(r.Context(), v, shared.AuditInline, id, map[string]any{"fields": []string{name}})
		a.redirectWithFlash(w, r, back, "success", "Record was successfully saved.")
	}
}

func (a *Admin) delete(v *View) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !v.Policy.CanDelete {
			a.forbidden.ServeHTTP(w, r)
			return
		}
		id, ok := a.recordID(w, r)
		if !ok {
			return
		}
		if err := v.Resource.Delete(r.Context(), id); err != nil {
			if !errors.Is(err, shared.ErrNotFound) && !errors.Is(err, shared.ErrReferenced) {
				a.logger.Error("admin delete", slog.String("view", v.Endpoint), slog.Int64("id", id), slog.Any("error", err))
			}
			a.redirectWithFlash(w, r, v.URL(), "error", "Failed to delete record. "+shared.UserSafeMessage(err))
			return
		}
		a.record(r.Context(), v, shared.AuditDelete, id, nil)
		a.redirectWithFlash(w, r, v.URL(), "success", "Record was successfully deleted.")
	}
}

func (a *Admin) recordID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		a.notFound.ServeHTTP(w, r)
		return 0, false
	}
	return id, true
}

func (a *Admin) load(w http.ResponseWriter, r *http.Request, v *View) (Record, bool) {
	id, ok := a.recordID(w, r)
	if !ok {
		return Record{}, false
	}
	rec, err := v.Resource.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			a.notFound.ServeHTTP(w, r)
			return Record{}, false
		}
		a.logger.Error("admin get", slog.String("view", v.Endpoint), slog.Int64("id", id), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return Record{}, false
	}
	return rec, true
}

func (a *Admin) formFailure(w http.ResponseWriter, r *http.Request, v *View, rec Record, editing bool, err error) {
	var vErr *shared.ValidationError
	if errors.As(err, &vErr) {
		a.renderForm(w, r, v, rec, editing, vErr, http.StatusBadRequest)
		return
	}
	status := http.StatusInternalServerError
	if errors.Is(err, shared.ErrDuplicate) || errors.Is(err, shared.ErrReferenced) {
		status = http.StatusBadRequest
	} else {
		a.logger.Error("admin save", slog.String("view", v.Endpoint), slog.Any("error", err))
	}
	a.renderForm(w, r, v, rec, editing, &shared.ValidationError{Fields: map[string]string{"general": shared.UserSafeMessage(err)}}, status)
}

func (a *Admin) renderForm(w http.ResponseWriter, r *http.Request, v *View, rec Record, editing bool, vErr *shared.ValidationError, status int) {
	opts := newOptionCache(r.Context())
	vm := formVM{View: newViewVM(v), Editing: editing, RecordID: rec.ID, Action: v.URL() + "new"}
	if editing {
		vm.Action = v.URL() + formatInt(rec.ID) + "/edit"
	}
	if vErr != nil {
		vm.General = vErr.Fields["general"]
	}
	for _, f := range v.Policy.FormFields(v.Resource.Fields(), editing) {
		fv := formFieldVM{
			Name:          f.Name,
			Label:         f.DisplayLabel(),
			Kind:          string(f.Kind),
			Value:         rec.Values[f.Name],
			Required:      f.Required,
			MaxLen:        f.MaxLen,
			PresentMarker: PresentMarker(f.Name),
		}
		if f.Kind == KindPassword {
			fv.Value = ""
		}
		selected := []string{fv.Value}
		if f.Kind == KindRefMulti {
			fv.Values = rec.MultiValue(f.Name)
			selected = fv.Values
		}
		if f.HasOptions() {
			var err error
			if fv.Options, err = opts.options(f, selected...); err != nil {
				a.logger.Error("admin form options", slog.String("field", f.Name), slog.Any("error", err))
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
		}
		if vErr != nil {
			fv.Error = vErr.Fields[f.Name]
		}
		vm.Fields = append(vm.Fields, fv)
	}
	if vErr != nil && vm.General == "" {
		// Errors on fields the form does not show are surfaced at the top.
		for name, msg := range vErr.Fields {
			if !slices.ContainsFunc(vm.Fields, func(f formFieldVM) bool { return f.Name == name }) {
				vm.General = name + ": " + msg
				break
			}
		}
	}
	a.render(w, r, v, v.Name, "pages/admin/form.html", vm, status)
}

// allowedValues keeps only the submitted values of the given fields.
func allowedValues(form url.Values, fields []Field) url.Values {
	out := url.Values{}
	for _, f := range fields {
		if vals, ok := form[f.Name]; ok {
			out[f.Name] = vals
		}
		if vals, ok := form[PresentMarker(f.Name)]; ok {
			out[PresentMarker(f.Name)] = vals
		}
	}
	return out
}

// submitted converts posted values back into a record for re-rendering.
func submitted(values url.Values, fields []Field) map[string]string {
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		vals := values[f.Name]
		switch {
		case f.Kind == KindPassword:
		case f.Kind == KindRefMulti:
			out[f.Name] = strings.Join(vals, ",")
		case len(vals) > 0:
			out[f.Name] = vals[0]
		}
	}
	return out
}

func fieldNames(values url.Values) []string {
	names := make([]string, 0, len(values))
	for k := range values {
		if k == "" || strings.HasSuffix(k, PresentMarker("")) {
			continue
		}
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}
