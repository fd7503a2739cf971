package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/taskfuchs/server/database"
)

// PinColumnHandler serves the pin board column REST routes.
type PinColumnHandler struct {
	dataService *database.DataService
}

func NewPinColumnHandler(dataService *database.DataService) *PinColumnHandler {
	return &PinColumnHandler{dataService: dataService}
}

func (h *PinColumnHandler) List(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r)

	pins, err := h.dataService.ListPinColumns(user.ID)
	if err != nil {
		log.Printf("Error listing pin columns: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to load pin columns")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"pinColumns": pins})
}

func (h *PinColumnHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r)

	var pin database.PinColumn
	if err := json.NewDecoder(r.Body).Decode(&pin); err != nil || pin.Title == "" {
		respondError(w, http.StatusBadRequest, "Pin column title is required")
		return
	}

	created, err := h.dataService.CreatePinColumn(user.ID, &pin)
	if err != nil {
		log.Printf("Error creating pin column: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to create pin column")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"pinColumn": created})
}

func (h *PinColumnHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r)
	id := mux.Vars(r)["id"]

	var pin database.PinColumn
	if err := json.NewDecoder(r.Body).Decode(&pin); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	updated, err := h.dataService.UpdatePinColumn(user.ID, id, &pin)
	if err == database.ErrNotFound {
		respondError(w, http.StatusNotFound, "Pin column not found")
		return
	}
	if err != nil {
		log.Printf("Error updating pin column: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to update pin column")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"pinColumn": updated})
}

func (h *PinColumnHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r)
	id := mux.Vars(r)["id"]

	err := h.dataService.DeletePinColumn(user.ID, id)
	if err == database.ErrNotFound {
		respondError(w, http.StatusNotFound, "Pin column not found")
		return
	}
	if err != nil {
		log.Printf("Error deleting pin column: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to delete pin column")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}
