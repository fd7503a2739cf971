package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/taskfuchs/server/database"
)

// TagHandler serves the tag REST routes.
type TagHandler struct {
	dataService *database.DataService
}

func NewTagHandler(dataService *database.DataService) *TagHandler {
	return &TagHandler{dataService: dataService}
}

func (h *TagHandler) List(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r)

	tags, err := h.dataService.ListTags(user.ID)
	if err != nil {
		log.Printf("Error listing tags: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to load tags")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"tags": tags})
}

// Create adds a tag. Tag names are unique per user; creating an existing
// name answers 409 with the tag that already holds it.
func (h *TagHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r)

	var tag database.Tag
	if err := json.NewDecoder(r.Body).Decode(&tag); err != nil || tag.Name == "" {
		respondError(w, http.StatusBadRequest, "Tag name is required")
		return
	}

	created, err := h.dataService.CreateTag(user.ID, &tag)
	if err == database.ErrTagExists {
		respondJSON(w, http.StatusConflict, map[string]any{
			"error": "Tag already exists",
			"tag":   created,
		})
		return
	}
	if err != nil {
		log.Printf("Error creating tag: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to create tag")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"tag": created})
}

func (h *TagHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r)
	id := mux.Vars(r)["id"]

	var tag database.Tag
	if err := json.NewDecoder(r.Body).Decode(&tag); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	updated, err := h.dataService.UpdateTag(user.ID, id, &tag)
	if err == database.ErrNotFound {
		respondError(w, http.StatusNotFound, "Tag not found")
		return
	}
	if err != nil {
		log.Printf("Error updating tag: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to update tag")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"tag": updated})
}

func (h *TagHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r)
	id := mux.Vars(r)["id"]

	err := h.dataService.DeleteTag(user.ID, id)
	if err == database.ErrNotFound {
		respondError(w, http.StatusNotFound, "Tag not found")
		return
	}
	if err != nil {
		log.Printf("Error deleting tag: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to delete tag")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Bulk upserts tags by name, returning the stored row for each.
func (h *TagHandler) Bulk(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r)

	var req struct {
		Tags []database.Tag `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Tags == nil {
		respondError(w, http.StatusBadRequest, "Tags must be an array")
		return
	}

	results, errs := h.dataService.BulkUpsertTags(user.ID, req.Tags)
	for _, err := range errs {
		log.Printf("Bulk tag error: %v", err)
	}
	respondJSON(w, http.StatusOK, map[string]any{"tags": results})
}
