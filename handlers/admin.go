package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/taskfuchs/server/database"
)

// AdminHandler serves the admin-only user management routes. The router
// guards them with the admin middleware.
type AdminHandler struct {
	dataService *database.DataService
}

func NewAdminHandler(dataService *database.DataService) *AdminHandler {
	return &AdminHandler{dataService: dataService}
}

// ListUsers returns every account with per-entity counts and the time of
// its last activity.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.dataService.ListUsers()
	if err != nil {
		log.Printf("Error listing users: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to load users")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	detail, err := h.dataService.GetUserDetail(id)
	if err == database.ErrNotFound {
		respondError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		log.Printf("Error getting user: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to load user")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"user": detail})
}

// DeleteUser removes an account and all of its data. Admins cannot delete
// themselves.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	admin, _ := userFrom(r)
	id := mux.Vars(r)["id"]

	if id == admin.ID {
		respondError(w, http.StatusBadRequest, "Cannot delete your own account")
		return
	}

	err := h.dataService.DeleteUser(id)
	if err == database.ErrNotFound {
		respondError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		log.Printf("Error deleting user: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to delete user")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

// SetAdmin grants or revokes the admin flag.
func (h *AdminHandler) SetAdmin(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req struct {
		IsAdmin *bool `json:"isAdmin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IsAdmin == nil {
		respondError(w, http.StatusBadRequest, "isAdmin must be a boolean")
		return
	}

	err := h.dataService.SetAdmin(id, *req.IsAdmin)
	if err == database.ErrNotFound {
		respondError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		log.Printf("Error updating user: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to update user")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Stats returns instance-wide totals.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dataService.GetStats()
	if err != nil {
		log.Printf("Error loading stats: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to load stats")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"stats": stats})
}
