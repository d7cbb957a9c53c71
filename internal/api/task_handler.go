package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/taskr-api/internal/api/shared"
	"github.com/phrazzld/taskr-api/internal/domain"
	"github.com/phrazzld/taskr-api/internal/platform/logger"
	"github.com/phrazzld/taskr-api/internal/redact"
	"github.com/phrazzld/taskr-api/internal/service"
)

// Response messages returned in the envelope of successful task requests.
const (
	MsgTasksRetrieved    = "Tasks Retrieved Successfully"
	MsgTaskRetrieved     = "Task Retrieved Successfully"
	MsgTaskCreated       = "Task Created Successfully"
	MsgTaskUpdated       = "Task Updated Successfully"
	MsgTaskDeleted       = "Task Was Deleted Successfully"
	MsgTaskLogsRetrieved = "Task Logs Retrieved Successfully"
)

// TaskHandler handles task-related HTTP requests
type TaskHandler struct {
	taskService service.TaskService
	logger      *slog.Logger
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(taskService service.TaskService, logger *slog.Logger) *TaskHandler {
	if taskService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("taskService cannot be nil for TaskHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for TaskHandler")
	}

	return &TaskHandler{
		taskService: taskService,
		logger:      logger.With(slog.String("component", "task_handler")),
	}
}

// ListTasks handles GET /tasks requests.
// An empty page is a successful response with an empty data array.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	page, err := h.taskService.FindAll(r.Context(), taskQueryFromRequest(r))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to retrieve tasks")
		return
	}

	log.Debug("listed tasks",
		slog.Int("page", page.Page),
		slog.Int("count", len(page.Data)),
		slog.Int("total", page.Total))
	shared.RespondWithPage(w, r, MsgTasksRetrieved, nonNilTasks(page.Data), page.Total)
}

// ListAllTasks handles GET /tasks/admin requests. Access is restricted to
// administrators by the router.
func (h *TaskHandler) ListAllTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.taskService.FindAllAdmin(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to retrieve tasks")
		return
	}

	shared.RespondWithPage(w, r, MsgTasksRetrieved, nonNilTasks(tasks), len(tasks))
}

// GetTask handles GET /tasks/{id} requests
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	taskID, ok := handlePathUUID(w, r, "id", log)
	if !ok {
		return
	}

	task, err := h.taskService.FindOne(r.Context(), taskID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to retrieve task")
		return
	}

	shared.RespondWithSuccess(w, r, http.StatusOK, MsgTaskRetrieved, task)
}

// GetTaskLogs handles GET /tasks/{id}/logs requests
func (h *TaskHandler) GetTaskLogs(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	taskID, ok := handlePathUUID(w, r, "id", log)
	if !ok {
		return
	}

	logs, err := h.taskService.GetLogsForTask(r.Context(), taskID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to retrieve task logs")
		return
	}

	if logs == nil {
		logs = []*domain.TaskLog{}
	}
	shared.RespondWithPage(w, r, MsgTaskLogsRetrieved, logs, len(logs))
}

// CreateTask handles POST /tasks requests
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req CreateTaskRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		log.Warn("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(&req); err != nil {
		log.Warn("validation error", slog.String("error", redact.Error(err)))
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	params, err := req.ToParams()
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	task, err := h.taskService.Create(r.Context(), params)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create task")
		return
	}

	log.Info("task created", slog.String("task_id", task.ID.String()))
	shared.RespondWithSuccess(w, r, http.StatusCreated, MsgTaskCreated, task)
}

// UpdateTask handles PATCH /tasks/{id} requests
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	taskID, ok := handlePathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		log.Warn("invalid request format",
			slog.String("error", redact.Error(err)),
			slog.String("task_id", taskID.String()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(&req); err != nil {
		log.Warn("validation error",
			slog.String("error", redact.Error(err)),
			slog.String("task_id", taskID.String()))
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	update, err := req.ToUpdate()
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if update.IsEmpty() {
		HandleAPIError(w, r,
			domain.NewValidationError("body", "must contain at least one field", domain.ErrValidation), "")
		return
	}

	task, err := h.taskService.Update(r.Context(), taskID, update)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update task")
		return
	}

	log.Info("task updated", slog.String("task_id", task.ID.String()))
	shared.RespondWithSuccess(w, r, http.StatusOK, MsgTaskUpdated, task)
}

// DeleteTask handles DELETE /tasks/{id} requests
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	taskID, ok := handlePathUUID(w, r, "id", log)
	if !ok {
		return
	}

	if err := h.taskService.Remove(r.Context(), taskID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete task")
		return
	}

	log.Info("task deleted", slog.String("task_id", taskID.String()))
	shared.RespondWithSuccess(w, r, http.StatusOK, MsgTaskDeleted, nil)
}

// ListUserTasks handles GET /users/{id}/tasks requests
func (h *TaskHandler) ListUserTasks(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := handlePathUUID(w, r, "id", log)
	if !ok {
		return
	}

	tasks, err := h.taskService.FindTasksByUser(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to retrieve tasks")
		return
	}

	shared.RespondWithPage(w, r, MsgTasksRetrieved, nonNilTasks(tasks), len(tasks))
}

// nonNilTasks makes an empty listing encode as [] instead of null.
func nonNilTasks(tasks []*domain.Task) []*domain.Task {
	if tasks == nil {
		return []*domain.Task{}
	}
	return tasks
}

// Health handles GET /health requests
func Health(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithSuccess(w, r, http.StatusOK, "OK", HealthResponse{Status: "ok"})
}
