package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/taskfuchs/server/database"
)

// ColumnHandler serves the planner/project column REST routes.
type ColumnHandler struct {
	dataService *database.DataService
}

func NewColumnHandler(dataService *database.DataService) *ColumnHandler {
	return &ColumnHandler{dataService: dataService}
}

func (h *ColumnHandler) List(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r)

	columns, err := h.dataService.ListColumns(user.ID)
	if err != nil {
		log.Printf("Error listing columns: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to load columns")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"columns": columns})
}

func (h *ColumnHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r)

	var column database.Column
	if err := json.NewDecoder(r.Body).Decode(&column); err != nil || column.Title == "" {
		respondError(w, http.StatusBadRequest, "Column title is required")
		return
	}

	created, err := h.dataService.CreateColumn(user.ID, &column)
	if err != nil {
		log.Printf("Error creating column: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to create column")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"column": created})
}

func (h *ColumnHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r)
	id := mux.Vars(r)["id"]

	var column database.Column
	if err := json.NewDecoder(r.Body).Decode(&column); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	updated, err := h.dataService.UpdateColumn(user.ID, id, &column)
	if err == database.ErrNotFound {
		respondError(w, http.StatusNotFound, "Column not found")
		return
	}
	if err != nil {
		log.Printf("Error updating column: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to update column")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"column": updated})
}

func (h *ColumnHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r)
	id := mux.Vars(r)["id"]

	err := h.dataService.DeleteColumn(user.ID, id)
	if err == database.ErrNotFound {
		respondError(w, http.StatusNotFound, "Column not found")
		return
	}
	if err != nil {
		log.Printf("Error deleting column: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to delete column")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Reorder rewrites column sort order to match the given id sequence.
func (h *ColumnHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r)

	var req struct {
		ColumnIDs []string `json:"columnIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ColumnIDs == nil {
		respondError(w, http.StatusBadRequest, "Column ids must be an array")
		return
	}

	if err := h.dataService.ReorderColumns(user.ID, req.ColumnIDs); err != nil {
		log.Printf("Error reordering columns: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to reorder columns")
		return
	}

	columns, err := h.dataService.ListColumns(user.ID)
	if err != nil {
		log.Printf("Error listing columns: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to load columns")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"columns": columns})
}

func (h *ColumnHandler) Bulk(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r)

	var req struct {
		Columns []database.Column `json:"columns"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Columns == nil {
		respondError(w, http.StatusBadRequest, "Columns must be an array")
		return
	}

	results, errs := h.dataService.BulkUpsertColumns(user.ID, req.Columns)
	for _, err := range errs {
		log.Printf("Bulk column error: %v", err)
	}
	respondJSON(w, http.StatusOK, map[string]any{"columns": results})
}
