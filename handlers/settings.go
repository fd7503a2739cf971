package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/taskfuchs/server/database"
)

// SettingsHandler serves the preferences and view state routes. Both are
// stored as opaque JSON documents, one per user.
type SettingsHandler struct {
	dataService *database.DataService
}

func NewSettingsHandler(dataService *database.DataService) *SettingsHandler {
	return &SettingsHandler{dataService: dataService}
}

func (h *SettingsHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r)

	prefs, err := h.dataService.GetPreferences(user.ID)
	if err != nil {
		log.Printf("Error loading preferences: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to load preferences")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"preferences": json.RawMessage(prefs)})
}

func (h *SettingsHandler) PutPreferences(w http.ResponseWriter, r *http.Request) {
	h.savePreferences(w, r, false)
}

// PatchPreferences merges the request body's top-level keys into the stored
// document instead of replacing it.
func (h *SettingsHandler) PatchPreferences(w http.ResponseWriter, r *http.Request) {
	h.savePreferences(w, r, true)
}

func (h *SettingsHandler) savePreferences(w http.ResponseWriter, r *http.Request, merge bool) {
	user, _ := userFrom(r)

	var incoming json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil || !isJSONObject(incoming) {
		respondError(w, http.StatusBadRequest, "Preferences must be an object")
		return
	}

	doc := incoming
	if merge {
		current, err := h.dataService.GetPreferences(user.ID)
		if err != nil {
			log.Printf("Error loading preferences: %v", err)
			respondError(w, http.StatusInternalServerError, "Failed to load preferences")
			return
		}
		doc, err = mergeObjects(current, incoming)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Preferences must be an object")
			return
		}
	}

	if err := h.dataService.SavePreferences(user.ID, doc); err != nil {
		log.Printf("Error saving preferences: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to save preferences")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"preferences": json.RawMessage(doc)})
}

func (h *SettingsHandler) GetViewState(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r)

	state, err := h.dataService.GetViewState(user.ID)
	if err != nil {
		log.Printf("Error loading view state: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to load view state")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"viewState": json.RawMessage(state)})
}

func (h *SettingsHandler) PutViewState(w http.ResponseWriter, r *http.Request) {
	h.saveViewState(w, r, false)
}

func (h *SettingsHandler) PatchViewState(w http.ResponseWriter, r *http.Request) {
	h.saveViewState(w, r, true)
}

func (h *SettingsHandler) saveViewState(w http.ResponseWriter, r *http.Request, merge bool) {
	user, _ := userFrom(r)

	var incoming json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil || !isJSONObject(incoming) {
		respondError(w, http.StatusBadRequest, "View state must be an object")
		return
	}

	doc := incoming
	if merge {
		current, err := h.dataService.GetViewState(user.ID)
		if err != nil {
			log.Printf("Error loading view state: %v", err)
			respondError(w, http.StatusInternalServerError, "Failed to load view state")
			return
		}
		doc, err = mergeObjects(current, incoming)
		if err != nil {
			respondError(w, http.StatusBadRequest, "View state must be an object")
			return
		}
	}

	if err := h.dataService.SaveViewState(user.ID, doc); err != nil {
		log.Printf("Error saving view state: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to save view state")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"viewState": json.RawMessage(doc)})
}

func isJSONObject(raw json.RawMessage) bool {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return b == '{'
	}
	return false
}

// mergeObjects overlays the top-level keys of patch on top of base.
func mergeObjects(base, patch json.RawMessage) (json.RawMessage, error) {
	merged := map[string]json.RawMessage{}
	if len(base) > 0 {
		if err := json.Unmarshal(base, &merged); err != nil {
			return nil, err
		}
	}
	overlay := map[string]json.RawMessage{}
	if err := json.Unmarshal(patch, &overlay); err != nil {
		return nil, err
	}
	for k, v := range overlay {
		merged[k] = v
	}
	return json.Marshal(merged)
}
