package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/erazemk/zaloga/internal/auth"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/store"
)

// SettingsPage handles GET /settings.
func (s *Server) SettingsPage(w http.ResponseWriter, r *http.Request) {
	s.renderSettings(w, http.StatusOK, r, "", "")
}

func (s *Server) renderSettings(w http.ResponseWriter, status int, r *http.Request, errMsg, success string) {
	s.Templates.Render(w, status, "settings.html", &PageData{
		Title:   "Settings",
		User:    GetWebClaims(r.Context()),
		Error:   errMsg,
		Success: success,
	})
}

// SettingsSubmit handles POST /settings (change own password).
func (s *Server) SettingsSubmit(w http.ResponseWriter, r *http.Request) {
	log := zerolog.Ctx(r.Context())
	claims := GetWebClaims(r.Context())

	currentPassword := r.FormValue("current_password")
	newPassword := r.FormValue("new_password")

	if currentPassword == "" || newPassword == "" {
		s.renderSettings(w, http.StatusBadRequest, r, "Enter your current and new password.", "")
		return
	}

	user, err := store.GetUser(r.Context(), s.DB, claims.UserID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", claims.UserID).Msg("failed to get user")
		s.renderSettings(w, http.StatusInternalServerError, r, "Could not load your account.", "")
		return
	}

	if !auth.CheckPassword(user.PasswordHash, currentPassword) {
		s.renderSettings(w, http.StatusBadRequest, r, "The current password is wrong.", "")
		return
	}

	hash, err := auth.HashPassword(newPassword)
	if errors.Is(err, model.ErrWeakPassword) {
		msg := fmt.Sprintf("The new password must be at least %d characters.", model.MinPasswordLength)
		s.renderSettings(w, http.StatusBadRequest, r, msg, "")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to hash password")
		s.renderSettings(w, http.StatusInternalServerError, r, "Could not save the password.", "")
		return
	}

	if err := store.UpdateUserPassword(r.Context(), s.DB, claims.UserID, hash); err != nil {
		log.Error().Err(err).Msg("failed to update password")
		s.renderSettings(w, http.StatusInternalServerError, r, "Could not save the password.", "")
		return
	}

	log.Info().Str("user", claims.Username).Msg("password changed")
	s.renderSettings(w, http.StatusOK, r, "", "Password changed.")
}
