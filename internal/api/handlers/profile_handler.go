package handlers

import (
	"net/http"

	"github.com/avelar/taskboard-be/internal/auth"
	"github.com/avelar/taskboard-be/internal/services"
	"github.com/avelar/taskboard-be/internal/storage"
	ws "github.com/avelar/taskboard-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

// maxProfileFormMemory bounds the in-memory part of the multipart parse;
// larger file parts spill to disk.
const maxProfileFormMemory = 8 << 20

// ProfileHandler handles HTTP requests for the authenticated user's profile.
type ProfileHandler struct {
	service services.UserServiceProvider
	avatars *storage.AvatarStore
	hub     *ws.Hub
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(service services.UserServiceProvider, avatars *storage.AvatarStore, hub *ws.Hub) *ProfileHandler {
	return &ProfileHandler{service: service, avatars: avatars, hub: hub}
}

// Get returns the authenticated user's profile.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r.Context())
	respondJSON(w, http.StatusOK, user)
}

// Update modifies name and email, and optionally the password and avatar.
// The body is a multipart form so the avatar image can ride along.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r.Context())

	if err := r.ParseMultipartForm(maxProfileFormMemory); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid form data"})
		return
	}

	update := services.ProfileUpdate{
		Name:     r.FormValue("name"),
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
	}

	var newAvatar string
	if file, _, err := r.FormFile("avatar"); err == nil {
		defer file.Close()

		newAvatar, err = h.avatars.Save(file)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		avatarURL := "/avatars/" + newAvatar
		update.AvatarURL = &avatarURL
	}

	updated, err := h.service.UpdateProfile(user.ID, update)
	if err != nil {
		// The row was not touched; don't leave the fresh file behind.
		if newAvatar != "" {
			h.avatars.Remove(newAvatar)
		}
		log.Warn().Err(err).Str("user_id", user.ID).Msg("Profile update rejected")
		respondServiceError(w, err)
		return
	}

	// The old avatar file is unreferenced once the row points elsewhere.
	if newAvatar != "" && user.AvatarURL != nil {
		if err := h.avatars.Remove(*user.AvatarURL); err != nil {
			log.Warn().Err(err).Str("user_id", user.ID).Msg("Failed to remove replaced avatar")
		}
	}

	h.hub.BroadcastToUser(user.ID, ws.NewMessage(ws.ActionProfileUpdated, updated))
	respondJSON(w, http.StatusOK, updated)
}
