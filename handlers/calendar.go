package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/taskfuchs/server/database"
)

// CalendarHandler serves the calendar source and event routes. Events are
// fed from external ICS subscriptions, so writes replace a source's events
// wholesale instead of editing single rows.
type CalendarHandler struct {
	dataService *database.DataService
}

func NewCalendarHandler(dataService *database.DataService) *CalendarHandler {
	return &CalendarHandler{dataService: dataService}
}

func (h *CalendarHandler) ListSources(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r)

	sources, err := h.dataService.ListCalendarSources(user.ID)
	if err != nil {
		log.Printf("Error listing calendar sources: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to load calendar sources")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"sources": sources})
}

func (h *CalendarHandler) CreateSource(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r)

	var source database.CalendarSource
	if err := json.NewDecoder(r.Body).Decode(&source); err != nil || source.URL == "" {
		respondError(w, http.StatusBadRequest, "Calendar source url is required")
		return
	}

	created, err := h.dataService.CreateCalendarSource(user.ID, &source)
	if err != nil {
		log.Printf("Error creating calendar source: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to create calendar source")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"source": created})
}

func (h *CalendarHandler) UpdateSource(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r)
	id := mux.Vars(r)["id"]

	var source database.CalendarSource
	if err := json.NewDecoder(r.Body).Decode(&source); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	updated, err := h.dataService.UpdateCalendarSource(user.ID, id, &source)
	if err == database.ErrNotFound {
		respondError(w, http.StatusNotFound, "Calendar source not found")
		return
	}
	if err != nil {
		log.Printf("Error updating calendar source: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to update calendar source")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"source": updated})
}

// DeleteSource removes a source together with the events it imported.
func (h *CalendarHandler) DeleteSource(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r)
	id := mux.Vars(r)["id"]

	err := h.dataService.DeleteCalendarSource(user.ID, id)
	if err == database.ErrNotFound {
		respondError(w, http.StatusNotFound, "Calendar source not found")
		return
	}
	if err != nil {
		log.Printf("Error deleting calendar source: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to delete calendar source")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *CalendarHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r)

	events, err := h.dataService.ListCalendarEvents(user.ID)
	if err != nil {
		log.Printf("Error listing calendar events: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to load calendar events")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"events": events})
}

// ReplaceEvents swaps out all events of one calendar url for the given set
// and stamps the owning source's last sync time.
func (h *CalendarHandler) ReplaceEvents(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r)

	var req struct {
		CalendarURL string                   `json:"calendarUrl"`
		Events      []database.CalendarEvent `json:"events"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CalendarURL == "" {
		respondError(w, http.StatusBadRequest, "Calendar url is required")
		return
	}

	if err := h.dataService.ReplaceCalendarEvents(user.ID, req.CalendarURL, req.Events); err != nil {
		log.Printf("Error replacing calendar events: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to save calendar events")
		return
	}

	sources, err := h.dataService.ListCalendarSources(user.ID)
	if err == nil {
		for _, src := range sources {
			if src.URL == req.CalendarURL {
				if err := h.dataService.TouchCalendarSourceSync(user.ID, src.ID); err != nil {
					log.Printf("Error stamping calendar source: %v", err)
				}
			}
		}
	}

	events, err := h.dataService.ListCalendarEvents(user.ID)
	if err != nil {
		log.Printf("Error listing calendar events: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to load calendar events")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (h *CalendarHandler) DeleteEvents(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r)

	calendarURL := r.URL.Query().Get("calendarUrl")
	if calendarURL == "" {
		respondError(w, http.StatusBadRequest, "Calendar url is required")
		return
	}

	if err := h.dataService.DeleteCalendarEvents(user.ID, calendarURL); err != nil {
		log.Printf("Error deleting calendar events: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to delete calendar events")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}
