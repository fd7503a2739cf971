package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/taskfuchs/server/board"
	"github.com/taskfuchs/server/database"
)

// TaskHandler serves the per-task REST routes.
type TaskHandler struct {
	dataService *database.DataService
}

func NewTaskHandler(dataService *database.DataService) *TaskHandler {
	return &TaskHandler{dataService: dataService}
}

// List returns all tasks ordered by position; ?includeArchived=true widens
// the result to archived tasks as well.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r)
	includeArchived := r.URL.Query().Get("includeArchived") == "true"

	tasks, err := h.dataService.ListTasks(user.ID, includeArchived)
	if err != nil {
		log.Printf("Error listing tasks: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to load tasks")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

// ListArchived returns only archived tasks, most recently edited first.
func (h *TaskHandler) ListArchived(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r)

	tasks, err := h.dataService.ListArchivedTasks(user.ID)
	if err != nil {
		log.Printf("Error listing archived tasks: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to load tasks")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r)
	id := mux.Vars(r)["id"]

	task, err := h.dataService.GetTask(user.ID, id)
	if err == database.ErrNotFound {
		respondError(w, http.StatusNotFound, "Task not found")
		return
	}
	if err != nil {
		log.Printf("Error getting task: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to load task")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"task": task})
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r)

	var task database.Task
	if err := json.NewDecoder(r.Body).Decode(&task); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	created, err := h.dataService.CreateTask(user.ID, &task)
	if err != nil {
		log.Printf("Error creating task: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to create task")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"task": created})
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r)
	id := mux.Vars(r)["id"]

	var task database.Task
	if err := json.NewDecoder(r.Body).Decode(&task); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	updated, err := h.dataService.UpdateTask(user.ID, id, &task)
	if err == database.ErrNotFound {
		respondError(w, http.StatusNotFound, "Task not found")
		return
	}
	if err != nil {
		log.Printf("Error updating task: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to update task")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"task": updated})
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r)
	id := mux.Vars(r)["id"]

	err := h.dataService.DeleteTask(user.ID, id)
	if err == database.ErrNotFound {
		respondError(w, http.StatusNotFound, "Task not found")
		return
	}
	if err != nil {
		log.Printf("Error deleting task: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to delete task")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *TaskHandler) Archive(w http.ResponseWriter, r *http.Request) {
	h.setArchived(w, r, true)
}

func (h *TaskHandler) Restore(w http.ResponseWriter, r *http.Request) {
	h.setArchived(w, r, false)
}

func (h *TaskHandler) setArchived(w http.ResponseWriter, r *http.Request, archived bool) {
	user, _ := userFrom(r)
	id := mux.Vars(r)["id"]

	task, err := h.dataService.SetTaskArchived(user.ID, id, archived)
	if err == database.ErrNotFound {
		respondError(w, http.StatusNotFound, "Task not found")
		return
	}
	if err != nil {
		log.Printf("Error archiving task: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to update task")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"task": task})
}

// Bulk creates or updates tasks keyed by external id. Per-task failures are
// reported inline rather than failing the batch.
func (h *TaskHandler) Bulk(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r)

	var req struct {
		Tasks []database.Task `json:"tasks"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Tasks == nil {
		respondError(w, http.StatusBadRequest, "Tasks must be an array")
		return
	}

	results, errs := h.dataService.BulkUpsertTasks(user.ID, req.Tasks)
	for _, err := range errs {
		log.Printf("Bulk task error: %v", err)
	}
	respondJSON(w, http.StatusOK, map[string]any{"tasks": results})
}

// reorderRequest describes one drop gesture. Exactly one of targetTaskId,
// top or append decides where the task lands; kanbanColumnId selects the
// project-board scope, columnId the planner scope.
type reorderRequest struct {
	TaskID         string `json:"taskId"`
	TargetTaskID   string `json:"targetTaskId,omitempty"`
	ColumnID       string `json:"columnId,omitempty"`
	KanbanColumnID string `json:"kanbanColumnId,omitempty"`
	Top            bool   `json:"top,omitempty"`
}

// Reorder applies a drag-and-drop move server-side: the moved task takes
// the drop slot, neighbors shift by one, and both affected columns are
// renumbered to a dense 0..N-1 sequence before being persisted.
func (h *TaskHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r)

	var req reorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TaskID == "" {
		respondError(w, http.StatusBadRequest, "Invalid request format")
		return
	}
	if req.TargetTaskID == "" && req.ColumnID == "" && req.KanbanColumnID == "" {
		respondError(w, http.StatusBadRequest, "A target task or column is required")
		return
	}

	tasks, err := h.dataService.ListTasks(user.ID, false)
	if err != nil {
		log.Printf("Error listing tasks: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to load tasks")
		return
	}

	kanban := req.KanbanColumnID != ""
	if req.TargetTaskID != "" {
		for _, t := range tasks {
			if t.ID == req.TargetTaskID && t.KanbanColumnID != nil {
				kanban = true
			}
		}
	}

	scopeOf := func(t database.Task) string {
		if kanban {
			if t.KanbanColumnID != nil {
				return *t.KanbanColumnID
			}
			return ""
		}
		if t.ColumnID != nil {
			return *t.ColumnID
		}
		return ""
	}

	cells := make([]board.Task, len(tasks))
	for i, t := range tasks {
		cells[i] = board.Task{ID: t.ID, Column: scopeOf(t), Position: t.Position}
	}

	var moved []board.Task
	switch {
	case req.TargetTaskID != "":
		moved, err = board.MoveOntoTask(cells, req.TaskID, req.TargetTaskID)
	case req.Top:
		moved, err = board.MoveToTop(cells, req.TaskID, h.scopeColumn(req, kanban))
	default:
		moved, err = board.MoveToColumn(cells, req.TaskID, h.scopeColumn(req, kanban))
	}
	if err == board.ErrTaskNotFound {
		respondError(w, http.StatusNotFound, "Task not found")
		return
	}
	if err != nil {
		log.Printf("Error reordering tasks: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to reorder tasks")
		return
	}

	placements := make(map[string]database.TaskPlacement)
	for i, cell := range moved {
		before := cells[i]
		if cell.Position == before.Position && cell.Column == before.Column {
			continue
		}
		placement := database.TaskPlacement{Position: cell.Position}
		if cell.ID == req.TaskID && cell.Column != before.Column {
			placement.SetColumns = true
			col := cell.Column
			if kanban {
				placement.KanbanColumnID = &col
				placement.ColumnID = tasks[i].ColumnID
			} else {
				placement.ColumnID = &col
				placement.KanbanColumnID = tasks[i].KanbanColumnID
			}
		}
		placements[cell.ID] = placement
	}

	if err := h.dataService.UpdateTaskPositions(user.ID, placements); err != nil {
		log.Printf("Error persisting reorder: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to persist reorder")
		return
	}

	updated, err := h.dataService.ListTasks(user.ID, false)
	if err != nil {
		log.Printf("Error listing tasks: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to load tasks")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"tasks": updated})
}

func (h *TaskHandler) scopeColumn(req reorderRequest, kanban bool) string {
	if kanban {
		return req.KanbanColumnID
	}
	return req.ColumnID
}
