package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/erazemk/zaloga/internal/inventory"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/store"
)

type movementsPage struct {
	PageData
	Movements  []model.StockMovement
	Products   []model.Product
	Filter     movementFilterForm
	Pagination Pagination
	Form       movementForm
	FieldErrs  []string
}

type movementFilterForm struct {
	ProductID int64
	Kind      string
	From      string
	To        string
	Search    string
}

type movementForm struct {
	ProductID string
	Quantity  string
	Kind      string
	Date      string
	Time      string
}

// parseMovementFilter reads the console filters. Unparsable values are
// dropped rather than refused.
func parseMovementFilter(q url.Values) (store.MovementFilter, movementFilterForm) {
	var f store.MovementFilter
	var form movementFilterForm

	if id, err := strconv.ParseInt(q.Get("product"), 10, 64); err == nil && id > 0 {
		f.ProductID = id
		form.ProductID = id
	}
	if kind, err := model.ParseMovementKind(q.Get("movement_type")); err == nil {
		f.Kind = kind
		form.Kind = string(kind)
	}
	if d, err := model.ParseDate(q.Get("start_date")); err == nil {
		f.From = &d
		form.From = d.String()
	}
	if d, err := model.ParseDate(q.Get("end_date")); err == nil {
		f.To = &d
		form.To = d.String()
	}
	if s := strings.TrimSpace(q.Get("q")); s != "" {
		f.ProductName = s
		form.Search = s
	}
	return f, form
}

// MovementsPage handles GET /movements.
func (s *Server) MovementsPage(w http.ResponseWriter, r *http.Request) {
	form := movementForm{Kind: string(model.Inbound)}
	if id := r.URL.Query().Get("product"); id != "" {
		form.ProductID = id
	}
	s.renderMovements(w, r, http.StatusOK, form, "", nil)
}

func (s *Server) renderMovements(w http.ResponseWriter, r *http.Request, status int, form movementForm, formErr string, fieldErrs []string) {
	log := zerolog.Ctx(r.Context())
	q := r.URL.Query()
	filter, filterForm := parseMovementFilter(q)
	page := pageParam(r)

	movements, total, err := s.Inventory.Movements(r.Context(), filter, store.ParseOrdering(q.Get("ordering")), store.Page{
		Offset: (page - 1) * consolePageSize,
		Limit:  consolePageSize,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to list movements")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	products, err := store.ListProducts(r.Context(), s.DB)
	if err != nil {
		log.Error().Err(err).Msg("failed to list products")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.Templates.Render(w, status, "movements.html", &movementsPage{
		PageData:   PageData{Title: "Movements", User: GetWebClaims(r.Context()), Error: formErr, Success: q.Get("ok")},
		Movements:  movements,
		Products:   products,
		Filter:     filterForm,
		Pagination: newPagination(q, page, consolePageSize, total),
		Form:       form,
		FieldErrs:  fieldErrs,
	})
}

// MovementCreateSubmit handles POST /movements. Movements go through the
// same validation as the API; there is no way to edit or delete one.
func (s *Server) MovementCreateSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	form := movementForm{
		ProductID: r.FormValue("product"),
		Quantity:  r.FormValue("quantity"),
		Kind:      r.FormValue("movement_type"),
		Date:      r.FormValue("movement_date"),
		Time:      r.FormValue("time"),
	}

	m, err := s.Inventory.RecordMovement(r.Context(), inventory.MovementRequest{
		Product:      json.Number(form.ProductID),
		Quantity:     json.Number(form.Quantity),
		MovementType: form.Kind,
		MovementDate: form.Date,
		Time:         form.Time,
	})
	var verr *inventory.ValidationError
	if errors.As(err, &verr) {
		s.renderMovements(w, r, http.StatusBadRequest, form, verr.NonField, fieldMessages(verr))
		return
	}
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to record movement")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	zerolog.Ctx(r.Context()).Info().Str("user", claims.Username).Int64("movement_id", m.ID).Msg("movement recorded from console")
	http.Redirect(w, r, "/movements?ok=Movement+recorded.", http.StatusSeeOther)
}

var fieldLabels = map[string]string{
	"product":       "Product",
	"quantity":      "Quantity",
	"movement_type": "Type",
	"movement_date": "Date",
	"time":          "Time",
}

func fieldMessages(verr *inventory.ValidationError) []string {
	msgs := make([]string, 0, len(verr.Fields))
	for field, msg := range verr.Fields {
		label, ok := fieldLabels[field]
		if !ok {
			label = field
		}
		msgs = append(msgs, label+": "+msg)
	}
	sort.Strings(msgs)
	return msgs
}
