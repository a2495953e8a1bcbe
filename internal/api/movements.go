package api

import (
	"net/http"
	"strconv"

	"github.com/erazemk/zaloga/internal/inventory"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/store"
)

// MovementsHandler lists and records stock movements. There is no route to
// change or delete a movement.
type MovementsHandler struct {
	Inventory *inventory.Service
	Pager     Pager
}

// List handles GET /api/stock-movement/.
func (h *MovementsHandler) List(w http.ResponseWriter, r *http.Request) {
	page, ok := h.Pager.parse(r)
	if !ok {
		jsonError(w, http.StatusNotFound, "Invalid page.")
		return
	}

	q := r.URL.Query()
	var filter store.MovementFilter

	if s := q.Get("product"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil || id < 1 {
			fieldError(w, "product", "Select a valid choice. That choice is not one of the available choices.")
			return
		}
		filter.ProductID = id
	}
	if s := q.Get("movement_type"); s != "" {
		kind, err := model.ParseMovementKind(s)
		if err != nil {
			fieldError(w, "movement_type", "Select a valid choice. "+s+" is not one of the available choices.")
			return
		}
		filter.Kind = kind
	}
	for _, p := range []struct {
		param string
		dst   **model.Date
	}{
		{"start_date", &filter.From},
		{"end_date", &filter.To},
	} {
		s := q.Get(p.param)
		if s == "" {
			continue
		}
		d, err := model.ParseDate(s)
		if err != nil {
			fieldError(w, p.param, "Enter a valid date.")
			return
		}
		*p.dst = &d
	}

	movements, total, err := h.Inventory.Movements(r.Context(), filter, store.ParseOrdering(q.Get("ordering")), page.window())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writePage(w, r, page, total, movements)
}

// Create handles POST /api/stock-movement/.
func (h *MovementsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req inventory.MovementRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	m, err := h.Inventory.RecordMovement(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, m)
}

// Get handles GET /api/stock-movement/{id}/.
func (h *MovementsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusNotFound, "Not found.")
		return
	}

	m, err := h.Inventory.Movement(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, m)
}
