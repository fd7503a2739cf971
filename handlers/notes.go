package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/taskfuchs/server/database"
)

// NoteHandler serves the note REST routes.
type NoteHandler struct {
	dataService *database.DataService
}

func NewNoteHandler(dataService *database.DataService) *NoteHandler {
	return &NoteHandler{dataService: dataService}
}

func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r)

	notes, err := h.dataService.ListNotes(user.ID)
	if err != nil {
		log.Printf("Error listing notes: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to load notes")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"notes": notes})
}

func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r)
	id := mux.Vars(r)["id"]

	note, err := h.dataService.GetNote(user.ID, id)
	if err == database.ErrNotFound {
		respondError(w, http.StatusNotFound, "Note not found")
		return
	}
	if err != nil {
		log.Printf("Error getting note: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to load note")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"note": note})
}

func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r)

	var note database.Note
	if err := json.NewDecoder(r.Body).Decode(&note); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	created, err := h.dataService.CreateNote(user.ID, &note)
	if err != nil {
		log.Printf("Error creating note: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to create note")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"note": created})
}

func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r)
	id := mux.Vars(r)["id"]

	var note database.Note
	if err := json.NewDecoder(r.Body).Decode(&note); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	updated, err := h.dataService.UpdateNote(user.ID, id, &note)
	if err == database.ErrNotFound {
		respondError(w, http.StatusNotFound, "Note not found")
		return
	}
	if err != nil {
		log.Printf("Error updating note: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to update note")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"note": updated})
}

func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r)
	id := mux.Vars(r)["id"]

	err := h.dataService.DeleteNote(user.ID, id)
	if err == database.ErrNotFound {
		respondError(w, http.StatusNotFound, "Note not found")
		return
	}
	if err != nil {
		log.Printf("Error deleting note: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to delete note")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *NoteHandler) Bulk(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r)

	var req struct {
		Notes []database.Note `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Notes == nil {
		respondError(w, http.StatusBadRequest, "Notes must be an array")
		return
	}

	results, errs := h.dataService.BulkUpsertNotes(user.ID, req.Notes)
	for _, err := range errs {
		log.Printf("Bulk note error: %v", err)
	}
	respondJSON(w, http.StatusOK, map[string]any{"notes": results})
}
