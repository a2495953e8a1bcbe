package api

import (
	"net/http"

	"github.com/erazemk/zaloga/internal/db"
)

// HealthHandler reports whether the service can reach its database.
type HealthHandler struct {
	DB      *db.DB
	Service string
}

type healthResponse struct {
	Status   string `json:"status"`
	Service  string `json:"service"`
	Database string `json:"database"`
}

// Check handles GET /health.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Service: h.Service, Database: h.DB.Dialect().String()}
	if err := h.DB.PingContext(r.Context()); err != nil {
		resp.Status = "unavailable"
		jsonResponse(w, http.StatusServiceUnavailable, resp)
		return
	}
	jsonResponse(w, http.StatusOK, resp)
}
