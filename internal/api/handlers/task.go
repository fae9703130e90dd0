package handlers

import (
	"net/http"

	"github.com/dom/task-tracker/internal/api/middleware"
	"github.com/dom/task-tracker/internal/api/response"
	"github.com/dom/task-tracker/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const taskNotFound = "Task not found"

type TaskHandler struct {
	taskService *service.TaskService
}

func NewTaskHandler(taskService *service.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

type TaskRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	tasks, err := h.taskService.List(r.Context(), userID)
	if err != nil {
		writeError(w, r, err, taskNotFound)
		return
	}

	response.JSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	var req TaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	task, err := h.taskService.Create(r.Context(), userID, service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		writeError(w, r, err, taskNotFound)
		return
	}

	response.JSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	taskID, ok := taskIDParam(r)
	if !ok {
		response.Error(w, http.StatusNotFound, taskNotFound)
		return
	}

	task, err := h.taskService.Get(r.Context(), userID, taskID)
	if err != nil {
		writeError(w, r, err, taskNotFound)
		return
	}

	response.JSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	taskID, ok := taskIDParam(r)
	if !ok {
		response.Error(w, http.StatusNotFound, taskNotFound)
		return
	}

	var req TaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	task, err := h.taskService.Update(r.Context(), userID, taskID, service.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		writeError(w, r, err, taskNotFound)
		return
	}

	response.JSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	taskID, ok := taskIDParam(r)
	if !ok {
		response.Error(w, http.StatusNotFound, taskNotFound)
		return
	}

	if err := h.taskService.Delete(r.Context(), userID, taskID); err != nil {
		writeError(w, r, err, taskNotFound)
		return
	}

	response.NoContent(w)
}

// taskIDParam parses the {id} path segment. A malformed ID is reported as
// not found, same as an unknown one.
func taskIDParam(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
