package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/taskfuchs/server/database"
	"github.com/taskfuchs/server/services"
)

// SyncHandler serves the full-state snapshot endpoints. Sync is a
// whole-account replace: there is no merge, no conflict detection and no
// version check — the last writer wins.
type SyncHandler struct {
	dataService *database.DataService
	hub         *services.Hub
}

func NewSyncHandler(dataService *database.DataService, hub *services.Hub) *SyncHandler {
	return &SyncHandler{
		dataService: dataService,
		hub:         hub,
	}
}

// GetFull returns the user's complete dataset for initial sync.
func (h *SyncHandler) GetFull(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	snap, err := h.dataService.GetSnapshot(user.ID)
	if err != nil {
		log.Printf("Error loading snapshot: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to load data")
		return
	}
	snap.SyncedAt = time.Now().UTC().Format(time.RFC3339)

	respondJSON(w, http.StatusOK, snap)
}

// Sync replaces the user's entire dataset with the posted snapshot, then
// notifies the user's other connected devices.
func (h *SyncHandler) Sync(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var snap database.Snapshot
	if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.dataService.ReplaceSnapshot(user.ID, &snap); err != nil {
		log.Printf("Sync error: %v", err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	syncedAt := time.Now().UTC().Format(time.RFC3339)

	// Push a sync notice so other open tabs and devices refetch.
	h.hub.BroadcastToUser(user.ID, services.WebSocketMessage{
		Type: "sync",
		Data: map[string]string{"syncedAt": syncedAt},
	})

	respondJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"syncedAt": syncedAt,
	})
}
