package web

import (
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/erazemk/zaloga/internal/auth"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/store"
	webembed "github.com/erazemk/zaloga/web"
)

// Templates holds parsed HTML templates.
type Templates struct {
	templates map[string]*template.Template
}

// FuncMap returns the template function map.
func FuncMap(lowThreshold int64) template.FuncMap {
	return template.FuncMap{
		"stockStatus": func(stock int64) string {
			return model.StatusFor(stock, lowThreshold)
		},
		"statusClass": func(stock int64) string {
			switch model.StatusFor(stock, lowThreshold) {
			case model.StatusOutOfStock:
				return "status-out"
			case model.StatusLowStock:
				return "status-low"
			default:
				return "status-in"
			}
		},
		"pageLink": func(q url.Values, page int) template.URL {
			v := url.Values{}
			for k, vs := range q {
				v[k] = vs
			}
			v.Set("page", strconv.Itoa(page))
			return template.URL("?" + v.Encode())
		},
	}
}

var pages = []string{
	"login.html",
	"products.html",
	"product_detail.html",
	"movements.html",
	"settings.html",
}

// LoadTemplates parses all page templates with the layout.
func LoadTemplates(lowThreshold int64) (*Templates, error) {
	tfs, err := webembed.TemplatesFS()
	if err != nil {
		return nil, err
	}

	layoutBytes, err := fs.ReadFile(tfs, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("reading layout template: %w", err)
	}

	ts := &Templates{templates: make(map[string]*template.Template)}

	for _, page := range pages {
		pageBytes, err := fs.ReadFile(tfs, page)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", page, err)
		}

		tmpl := template.New(page).Funcs(FuncMap(lowThreshold))
		tmpl, err = tmpl.Parse(string(layoutBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing layout for %s: %w", page, err)
		}
		tmpl, err = tmpl.Parse(string(pageBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}

		ts.templates[page] = tmpl
	}

	return ts, nil
}

// Render renders a template with the given data and status code.
func (ts *Templates) Render(w http.ResponseWriter, status int, name string, data any) {
	tmpl, ok := ts.templates[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		log.Error().Err(err).Str("template", name).Msg("failed to render template")
	}
}

// PageData is the base data passed to all templates.
type PageData struct {
	Title   string
	User    *auth.Claims
	Error   string
	Success string
}

// Pagination describes the page links of a console listing.
type Pagination struct {
	Page     int
	Pages    int
	Total    int
	Query    url.Values
	HasPrev  bool
	HasNext  bool
	PrevPage int
	NextPage int
}

func newPagination(q url.Values, page, size, total int) Pagination {
	pages := max((total+size-1)/size, 1)
	return Pagination{
		Page:     page,
		Pages:    pages,
		Total:    total,
		Query:    q,
		HasPrev:  page > 1,
		HasNext:  page < pages,
		PrevPage: page - 1,
		NextPage: page + 1,
	}
}

// pageParam reads the 1-based page query parameter, defaulting to 1.
// Numbers past store.MaxPageNumber are capped.
func pageParam(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || n < 1 {
		return 1
	}
	return min(n, store.MaxPageNumber)
}
