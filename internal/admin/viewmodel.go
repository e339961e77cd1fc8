package admin

import (
	"context"
	"net/url"
	"slices"
	"strconv"

	"github.com/showroom-admin/backoffice/internal/shared"
)

type viewVM struct {
	Name           string
	Endpoint       string
	URL            string
	CanCreate      bool
	CanEdit        bool
	CanDelete      bool
	CanExport      bool
	CanViewDetails bool
}

type optionVM struct {
	Value    string
	Label    string
	Selected bool
}

type columnVM struct {
	Name    string
	Label   string
	SortURL string
	Sorted  bool
	Desc    bool
}

type cellVM struct {
	Name     string
	Display  string
	Value    string
	Kind     string
	Editable bool
	Options  []optionVM
}

type rowVM struct {
	ID    int64
	Label string
	Cells []cellVM
}

type filterVM struct {
	Name    string
	Label   string
	Param   string
	Value   string
	Options []optionVM
}

type listVM struct {
	View       viewVM
	Columns    []columnVM
	Rows       []rowVM
	Search     string
	Searchable bool
	Filters    []filterVM
	Pagination shared.Pagination
	PrevURL    string
	NextURL    string
	ExportURL  string
	ReturnURL  string
}

type detailItem struct {
	Label string
	Value string
}

type detailVM struct {
	View  viewVM
	ID    int64
	Label string
	Items []detailItem
}

type formFieldVM struct {
	Name          string
	Label         string
	Kind          string
	Value         string
	Values        []string
	Required      bool
	MaxLen        int
	Options       []optionVM
	Error         string
	PresentMarker string
}

type formVM struct {
	View     viewVM
	Editing  bool
	RecordID int64
	Action   string
	Fields   []formFieldVM
	General  string
}

func newViewVM(v *View) viewVM {
	return viewVM{
		Name:           v.Name,
		Endpoint:       v.Endpoint,
		URL:            v.URL(),
		CanCreate:      v.Policy.CanCreate,
		CanEdit:        v.Policy.CanEdit,
		CanDelete:      v.Policy.CanDelete,
		CanExport:      v.Policy.CanExport,
		CanViewDetails: v.Policy.CanViewDetails,
	}
}

// optionCache loads reference options at most once per request.
type optionCache struct {
	ctx    context.Context
	loaded map[string][]Option
}

func newOptionCache(ctx context.Context) *optionCache {
	return &optionCache{ctx: ctx, loaded: make(map[string][]Option)}
}

func (c *optionCache) options(f Field, selected ...string) ([]optionVM, error) {
	if !f.HasOptions() {
		return nil, nil
	}
	opts, ok := c.loaded[f.Name]
	if !ok {
		var err error
		opts, err = f.Options(c.ctx)
		if err != nil {
			return nil, err
		}
		c.loaded[f.Name] = opts
	}
	out := make([]optionVM, len(opts))
	for i, o := range opts {
		out[i] = optionVM{Value: o.Value, Label: o.Label, Selected: slices.Contains(selected, o.Value)}
	}
	return out, nil
}

func boolOptions(selected string) []optionVM {
	return []optionVM{
		{Value: "", Label: "Any", Selected: selected == ""},
		{Value: "true", Label: "Yes", Selected: selected == "true"},
		{Value: "false", Label: "No", Selected: selected == "false"},
	}
}

func withParam(base url.Values, path string, changes map[string]string) string {
	q := url.Values{}
	for k, v := range base {
		q[k] = slices.Clone(v)
	}
	for k, v := range changes {
		if v == "" {
			q.Del(k)
			continue
		}
		q.Set(k, v)
	}
	if enc := q.Encode(); enc != "" {
		return path + "?" + enc
	}
	return path
}

func formatInt(id int64) string {
	return strconv.FormatInt(id, 10)
}
