package http

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/DevinWangGZ/DevTeamResourceManager/internal/application/services"
	"github.com/DevinWangGZ/DevTeamResourceManager/internal/domain/entities"
	"github.com/DevinWangGZ/DevTeamResourceManager/internal/infrastructure/logger"
	"github.com/DevinWangGZ/DevTeamResourceManager/internal/ports"
)

// TaskHandler handles task lifecycle and schedule requests
type TaskHandler struct {
	taskService     *services.TaskService
	scheduleService *services.ScheduleService
	logger          *logger.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskService *services.TaskService, scheduleService *services.ScheduleService, logger *logger.Logger) *TaskHandler {
	return &TaskHandler{
		taskService:     taskService,
		scheduleService: scheduleService,
		logger:          logger,
	}
}

// CreateTask handles task creation
func (h *TaskHandler) CreateTask(c echo.Context) error {
	var req ports.CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	task, err := h.taskService.CreateTask(c.Request().Context(), req, getActor(c))
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusCreated, task)
}

// GetTask handles getting a task by ID
func (h *TaskHandler) GetTask(c echo.Context) error {
	id, err := parseIntParam(c, "id")
	if err != nil {
		return err
	}

	task, err := h.taskService.GetTask(c.Request().Context(), id)
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, task)
}

// ListTasks handles listing tasks
func (h *TaskHandler) ListTasks(c echo.Context) error {
	filter := ports.TaskFilter{}

	if status := c.QueryParam("status"); status != "" {
		taskStatus := entities.TaskStatus(status)
		if !taskStatus.IsValid() {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid status parameter")
		}
		filter.Status = &taskStatus
	}
	if projectStr := c.QueryParam("project_id"); projectStr != "" {
		projectID, err := parseIntQuery(projectStr)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid project_id parameter")
		}
		filter.ProjectID = &projectID
	}
	if creatorStr := c.QueryParam("creator_id"); creatorStr != "" {
		creatorID, err := uuid.Parse(creatorStr)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid creator_id parameter")
		}
		filter.CreatorID = &creatorID
	}
	if assigneeStr := c.QueryParam("assignee_id"); assigneeStr != "" {
		assigneeID, err := uuid.Parse(assigneeStr)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid assignee_id parameter")
		}
		filter.AssigneeID = &assigneeID
	}
	if keyword := c.QueryParam("keyword"); keyword != "" {
		filter.Keyword = &keyword
	}

	limit, offset, err := parsePagination(c)
	if err != nil {
		return err
	}
	filter.Limit = limit
	filter.Offset = offset

	tasks, total, err := h.taskService.ListTasks(c.Request().Context(), filter, getActor(c))
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, ports.PaginatedResponse[*entities.Task]{
		Data:   tasks,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// UpdateTask handles task field updates
func (h *TaskHandler) UpdateTask(c echo.Context) error {
	id, err := parseIntParam(c, "id")
	if err != nil {
		return err
	}

	var req ports.UpdateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	task, err := h.taskService.UpdateTask(c.Request().Context(), id, req, getActor(c))
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, task)
}

// DeleteTask handles task deletion
func (h *TaskHandler) DeleteTask(c echo.Context) error {
	id, err := parseIntParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.taskService.DeleteTask(c.Request().Context(), id, getActor(c)); err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, ports.MessageResponse{Message: "Task deleted"})
}

// PublishTask handles opening a draft task for claiming
func (h *TaskHandler) PublishTask(c echo.Context) error {
	return h.lifecycle(c, h.taskService.PublishTask)
}

// ClaimTask handles claiming a published task
func (h *TaskHandler) ClaimTask(c echo.Context) error {
	return h.lifecycle(c, h.taskService.ClaimTask)
}

// StartTask handles moving a claimed task to in-progress
func (h *TaskHandler) StartTask(c echo.Context) error {
	return h.lifecycle(c, h.taskService.StartTask)
}

// ConfirmTask handles management sign-off on a submitted task
func (h *TaskHandler) ConfirmTask(c echo.Context) error {
	return h.lifecycle(c, h.taskService.ConfirmTask)
}

func (h *TaskHandler) lifecycle(c echo.Context, op func(ctx context.Context, id int64, actor entities.Actor) (*entities.Task, error)) error {
	id, err := parseIntParam(c, "id")
	if err != nil {
		return err
	}

	task, err := op(c.Request().Context(), id, getActor(c))
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, task)
}

// AssignTask handles dispatching a task to a developer
func (h *TaskHandler) AssignTask(c echo.Context) error {
	id, err := parseIntParam(c, "id")
	if err != nil {
		return err
	}

	var req ports.AssignTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	task, err := h.taskService.AssignTask(c.Request().Context(), id, req.AssigneeID, getActor(c))
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, task)
}

// EvaluateTask handles the assignee's verdict on a dispatched task
func (h *TaskHandler) EvaluateTask(c echo.Context) error {
	id, err := parseIntParam(c, "id")
	if err != nil {
		return err
	}

	var req ports.EvaluateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	task, err := h.taskService.EvaluateTask(c.Request().Context(), id, req.Accept, getActor(c))
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, task)
}

// SubmitTask handles recording actual effort and handing over for
// confirmation
func (h *TaskHandler) SubmitTask(c echo.Context) error {
	id, err := parseIntParam(c, "id")
	if err != nil {
		return err
	}

	var req ports.SubmitTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	task, err := h.taskService.SubmitTask(c.Request().Context(), id, req.ActualManDays, getActor(c))
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, task)
}

// PinTask handles toggling the pin flag and re-sequencing the queue
func (h *TaskHandler) PinTask(c echo.Context) error {
	id, err := parseIntParam(c, "id")
	if err != nil {
		return err
	}

	var req ports.PinTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	task, err := h.taskService.PinTask(c.Request().Context(), id, req.IsPinned, getActor(c))
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, task)
}

// GetTaskSchedule handles getting a task's schedule
func (h *TaskHandler) GetTaskSchedule(c echo.Context) error {
	id, err := parseIntParam(c, "id")
	if err != nil {
		return err
	}

	schedule, err := h.scheduleService.GetSchedule(c.Request().Context(), id)
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, schedule)
}

// GetUserSchedules handles listing a user's schedules
func (h *TaskHandler) GetUserSchedules(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	var from, to *time.Time
	if fromStr := c.QueryParam("from"); fromStr != "" {
		t, err := time.Parse(time.DateOnly, fromStr)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid from parameter")
		}
		from = &t
	}
	if toStr := c.QueryParam("to"); toStr != "" {
		t, err := time.Parse(time.DateOnly, toStr)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid to parameter")
		}
		to = &t
	}

	schedules, err := h.scheduleService.GetUserSchedules(c.Request().Context(), userID, from, to)
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, schedules)
}
