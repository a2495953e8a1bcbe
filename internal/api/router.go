package api

import (
	"net/http"

	"github.com/erazemk/zaloga/internal/auth"
	"github.com/erazemk/zaloga/internal/db"
	"github.com/erazemk/zaloga/internal/inventory"
)

// Config wires the API router.
type Config struct {
	DB        *db.DB
	Inventory *inventory.Service
	Tokens    *auth.Tokens
	Service   string

	// RequireAuth puts the stock routes behind bearer token authentication.
	RequireAuth bool
	Pager       Pager
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(cfg Config) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: cfg.DB, Tokens: cfg.Tokens}
	stockHandler := &StockHandler{Inventory: cfg.Inventory, Pager: cfg.Pager}
	movementsHandler := &MovementsHandler{Inventory: cfg.Inventory, Pager: cfg.Pager}
	healthHandler := &HealthHandler{DB: cfg.DB, Service: cfg.Service}

	authMW := AuthMiddleware(cfg.Tokens, cfg.DB)
	stockMW := func(h http.Handler) http.Handler { return h }
	if cfg.RequireAuth {
		stockMW = authMW
	}

	mux.HandleFunc("GET /health", healthHandler.Check)

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated routes.
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))

	// Stock levels, with and without the trailing slash.
	for _, p := range []string{"/api/stock-levels/{$}", "/api/stock-levels"} {
		mux.Handle("GET "+p, stockMW(http.HandlerFunc(stockHandler.List)))
	}
	for _, p := range []string{"/api/stock-levels/{id}/{$}", "/api/stock-levels/{id}"} {
		mux.Handle("GET "+p, stockMW(http.HandlerFunc(stockHandler.Get)))
	}

	// Movements: list, read and append only.
	for _, p := range []string{"/api/stock-movement/{$}", "/api/stock-movement"} {
		mux.Handle("GET "+p, stockMW(http.HandlerFunc(movementsHandler.List)))
		mux.Handle("POST "+p, stockMW(http.HandlerFunc(movementsHandler.Create)))
	}
	for _, p := range []string{"/api/stock-movement/{id}/{$}", "/api/stock-movement/{id}"} {
		mux.Handle("GET "+p, stockMW(http.HandlerFunc(movementsHandler.Get)))
	}

	return mux
}
