package web

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/erazemk/zaloga/internal/auth"
	"github.com/erazemk/zaloga/internal/store"
)

// LoginPage handles GET /login.
func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, http.StatusOK, "login.html", &PageData{Title: "Log in"})
}

// LoginSubmit handles POST /login.
func (s *Server) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	log := zerolog.Ctx(r.Context())
	username := r.FormValue("username")
	password := r.FormValue("password")

	if username == "" || password == "" {
		s.Templates.Render(w, http.StatusBadRequest, "login.html", &PageData{
			Title: "Log in",
			Error: "Enter your username and password.",
		})
		return
	}

	user, err := store.GetUserByUsername(r.Context(), s.DB, username)
	if err != nil || !auth.CheckPassword(user.PasswordHash, password) {
		log.Warn().Str("username", username).Str("remote", r.RemoteAddr).Msg("console login failed")
		s.Templates.Render(w, http.StatusUnauthorized, "login.html", &PageData{
			Title: "Log in",
			Error: "Wrong username or password.",
		})
		return
	}

	token, err := s.Tokens.Generate(user.ID, user.Username)
	if err != nil {
		log.Error().Err(err).Msg("failed to generate session token")
		s.Templates.Render(w, http.StatusInternalServerError, "login.html", &PageData{
			Title: "Log in",
			Error: "Login failed, try again.",
		})
		return
	}

	setAuthCookie(w, r, token, int(s.Tokens.TTL.Seconds()))
	log.Info().Str("user", user.Username).Msg("console login")
	http.Redirect(w, r, "/products", http.StatusSeeOther)
}

// Logout handles POST /logout. The session token is revoked so that a copy
// of the cookie cannot be reused.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(cookieName); err == nil && cookie.Value != "" {
		if claims, err := s.Tokens.Validate(cookie.Value); err == nil {
			if err := store.RevokeToken(r.Context(), s.DB, claims.ID, claims.ExpiresAt.Time); err != nil {
				zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to revoke session token")
			}
		}
	}
	clearAuthCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
