package api

import (
	"net/http"
	"strconv"

	"github.com/erazemk/zaloga/internal/inventory"
	"github.com/erazemk/zaloga/internal/store"
)

// StockHandler serves computed stock levels.
type StockHandler struct {
	Inventory *inventory.Service
	Pager     Pager
}

// List handles GET /api/stock-levels/.
func (h *StockHandler) List(w http.ResponseWriter, r *http.Request) {
	page, ok := h.Pager.parse(r)
	if !ok {
		jsonError(w, http.StatusNotFound, "Invalid page.")
		return
	}

	q := r.URL.Query()
	filter := store.StockLevelFilter{
		ProductType: q.Get("product_type"),
		Search:      q.Get("search"),
	}

	levels, total, err := h.Inventory.StockLevels(r.Context(), filter, page.window())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writePage(w, r, page, total, levels)
}

// Get handles GET /api/stock-levels/{id}/.
func (h *StockHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusNotFound, "Not found.")
		return
	}

	level, err := h.Inventory.StockLevel(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, level)
}
