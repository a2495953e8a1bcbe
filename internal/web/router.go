package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/erazemk/zaloga/internal/auth"
	"github.com/erazemk/zaloga/internal/db"
	"github.com/erazemk/zaloga/internal/inventory"
	"github.com/erazemk/zaloga/internal/store"
	webembed "github.com/erazemk/zaloga/web"
)

// Server holds the dependencies of the admin console handlers.
type Server struct {
	DB        *db.DB
	Inventory *inventory.Service
	Tokens    *auth.Tokens
	Templates *Templates
}

// Config configures the console router.
type Config struct {
	DB                *db.DB
	Inventory         *inventory.Service
	Tokens            *auth.Tokens
	LowStockThreshold int64
}

// NewRouter creates the web page router with all page routes registered.
func NewRouter(cfg Config) (http.Handler, error) {
	templates, err := LoadTemplates(cfg.LowStockThreshold)
	if err != nil {
		return nil, err
	}
	static, err := webembed.StaticFS()
	if err != nil {
		return nil, err
	}

	s := &Server{
		DB:        cfg.DB,
		Inventory: cfg.Inventory,
		Tokens:    cfg.Tokens,
		Templates: templates,
	}

	mux := http.NewServeMux()
	cookieAuth := CookieAuthMiddleware(cfg.Tokens, cfg.DB)

	// Static assets.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	// Public routes.
	mux.HandleFunc("GET /login", s.LoginPage)
	mux.HandleFunc("POST /login", s.LoginSubmit)
	mux.HandleFunc("POST /logout", s.Logout)

	// Authenticated routes.
	mux.Handle("GET /{$}", cookieAuth(http.RedirectHandler("/products", http.StatusSeeOther)))

	mux.Handle("GET /products", cookieAuth(http.HandlerFunc(s.ProductsPage)))
	mux.Handle("POST /products", cookieAuth(http.HandlerFunc(s.ProductCreateSubmit)))
	mux.Handle("GET /products/{id}", cookieAuth(http.HandlerFunc(s.ProductDetailPage)))
	mux.Handle("POST /products/{id}", cookieAuth(http.HandlerFunc(s.ProductUpdateSubmit)))
	mux.Handle("POST /products/{id}/delete", cookieAuth(http.HandlerFunc(s.ProductDeleteSubmit)))
	mux.Handle("POST /products/{id}/image", cookieAuth(http.HandlerFunc(s.ProductImageSubmit)))
	mux.Handle("GET /products/{id}/image", cookieAuth(http.HandlerFunc(s.ProductImageGet)))

	mux.Handle("GET /movements", cookieAuth(http.HandlerFunc(s.MovementsPage)))
	mux.Handle("POST /movements", cookieAuth(http.HandlerFunc(s.MovementCreateSubmit)))

	mux.Handle("GET /settings", cookieAuth(http.HandlerFunc(s.SettingsPage)))
	mux.Handle("POST /settings", cookieAuth(http.HandlerFunc(s.SettingsSubmit)))

	return mux, nil
}

// validationMessage turns a store validation error into a sentence for a
// form.
func validationMessage(err error) string {
	msg := err.Error()
	if errors.Is(err, store.ErrInvalidArgument) {
		msg = strings.TrimPrefix(msg, store.ErrInvalidArgument.Error()+": ")
	}
	if msg == "" {
		return msg
	}
	return strings.ToUpper(msg[:1]) + msg[1:] + "."
}
