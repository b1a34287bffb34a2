package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/DevinWangGZ/DevTeamResourceManager/internal/application/services"
	"github.com/DevinWangGZ/DevTeamResourceManager/internal/domain/entities"
	"github.com/DevinWangGZ/DevTeamResourceManager/internal/infrastructure/logger"
	"github.com/DevinWangGZ/DevTeamResourceManager/internal/ports"
)

// ProjectHandler handles project requests
type ProjectHandler struct {
	projectService *services.ProjectService
	logger         *logger.Logger
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(projectService *services.ProjectService, logger *logger.Logger) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
		logger:         logger,
	}
}

// CreateProject handles project creation
func (h *ProjectHandler) CreateProject(c echo.Context) error {
	var req ports.CreateProjectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	project, err := h.projectService.CreateProject(c.Request().Context(), req, getActor(c))
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusCreated, project)
}

// GetProject handles getting a project by ID
func (h *ProjectHandler) GetProject(c echo.Context) error {
	id, err := parseIntParam(c, "id")
	if err != nil {
		return err
	}

	project, err := h.projectService.GetProject(c.Request().Context(), id)
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, project)
}

// ListProjects handles listing projects
func (h *ProjectHandler) ListProjects(c echo.Context) error {
	filter := ports.ProjectFilter{}

	if search := c.QueryParam("search"); search != "" {
		filter.Search = &search
	}
	if createdByStr := c.QueryParam("created_by"); createdByStr != "" {
		createdBy, err := uuid.Parse(createdByStr)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid created_by parameter")
		}
		filter.CreatedBy = &createdBy
	}

	limit, offset, err := parsePagination(c)
	if err != nil {
		return err
	}
	filter.Limit = limit
	filter.Offset = offset

	projects, total, err := h.projectService.ListProjects(c.Request().Context(), filter)
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, ports.PaginatedResponse[*entities.Project]{
		Data:   projects,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// UpdateProject handles project updates
func (h *ProjectHandler) UpdateProject(c echo.Context) error {
	id, err := parseIntParam(c, "id")
	if err != nil {
		return err
	}

	var req ports.UpdateProjectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	project, err := h.projectService.UpdateProject(c.Request().Context(), id, req, getActor(c))
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, project)
}

// DeleteProject handles project deletion
func (h *ProjectHandler) DeleteProject(c echo.Context) error {
	id, err := parseIntParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.projectService.DeleteProject(c.Request().Context(), id, getActor(c)); err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, ports.MessageResponse{Message: "Project deleted"})
}

// GetProjectTasks handles listing a project's tasks
func (h *ProjectHandler) GetProjectTasks(c echo.Context) error {
	id, err := parseIntParam(c, "id")
	if err != nil {
		return err
	}

	tasks, err := h.projectService.GetProjectTasks(c.Request().Context(), id)
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, tasks)
}

// GetOutputValue handles reading a project's output value
func (h *ProjectHandler) GetOutputValue(c echo.Context) error {
	id, err := parseIntParam(c, "id")
	if err != nil {
		return err
	}

	value, err := h.projectService.GetOutputValue(c.Request().Context(), id)
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, value)
}

// RecalculateOutputValue handles forcing a fresh output value computation
func (h *ProjectHandler) RecalculateOutputValue(c echo.Context) error {
	id, err := parseIntParam(c, "id")
	if err != nil {
		return err
	}

	value, err := h.projectService.RecalculateOutputValue(c.Request().Context(), id, getActor(c))
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, value)
}

// HolidayHandler handles holiday calendar requests
type HolidayHandler struct {
	holidayService *services.HolidayService
	logger         *logger.Logger
}

// NewHolidayHandler creates a new holiday handler
func NewHolidayHandler(holidayService *services.HolidayService, logger *logger.Logger) *HolidayHandler {
	return &HolidayHandler{
		holidayService: holidayService,
		logger:         logger,
	}
}

// CreateHoliday handles marking a date as non-working
func (h *HolidayHandler) CreateHoliday(c echo.Context) error {
	var req ports.CreateHolidayRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	holiday, err := h.holidayService.CreateHoliday(c.Request().Context(), req, getActor(c))
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusCreated, holiday)
}

// ListHolidays handles listing holidays in a date range
func (h *HolidayHandler) ListHolidays(c echo.Context) error {
	now := time.Now().UTC()
	from := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(now.Year(), 12, 31, 0, 0, 0, 0, time.UTC)

	if fromStr := c.QueryParam("from"); fromStr != "" {
		t, err := time.Parse(time.DateOnly, fromStr)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid from parameter")
		}
		from = t
	}
	if toStr := c.QueryParam("to"); toStr != "" {
		t, err := time.Parse(time.DateOnly, toStr)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid to parameter")
		}
		to = t
	}

	holidays, err := h.holidayService.ListHolidays(c.Request().Context(), from, to)
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, holidays)
}

// DeleteHoliday handles removing a holiday override
func (h *HolidayHandler) DeleteHoliday(c echo.Context) error {
	id, err := parseIntParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.holidayService.DeleteHoliday(c.Request().Context(), id, getActor(c)); err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, ports.MessageResponse{Message: "Holiday deleted"})
}
