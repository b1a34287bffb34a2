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

// WorkloadHandler handles workload statistic requests
type WorkloadHandler struct {
	workloadService *services.WorkloadService
	logger          *logger.Logger
}

// NewWorkloadHandler creates a new workload handler
func NewWorkloadHandler(workloadService *services.WorkloadService, logger *logger.Logger) *WorkloadHandler {
	return &WorkloadHandler{
		workloadService: workloadService,
		logger:          logger,
	}
}

// ListStatistics handles listing workload buckets
func (h *WorkloadHandler) ListStatistics(c echo.Context) error {
	filter := ports.WorkloadFilter{}

	if userStr := c.QueryParam("user_id"); userStr != "" {
		userID, err := uuid.Parse(userStr)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid user_id parameter")
		}
		filter.UserID = &userID
	}
	if projectStr := c.QueryParam("project_id"); projectStr != "" {
		projectID, err := parseIntQuery(projectStr)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid project_id parameter")
		}
		filter.ProjectID = &projectID
	}
	if fromStr := c.QueryParam("from"); fromStr != "" {
		t, err := time.Parse(time.DateOnly, fromStr)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid from parameter")
		}
		filter.PeriodStart = &t
	}
	if toStr := c.QueryParam("to"); toStr != "" {
		t, err := time.Parse(time.DateOnly, toStr)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid to parameter")
		}
		filter.PeriodEnd = &t
	}

	limit, offset, err := parsePagination(c)
	if err != nil {
		return err
	}
	filter.Limit = limit
	filter.Offset = offset

	stats, total, err := h.workloadService.ListStatistics(c.Request().Context(), filter)
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, ports.PaginatedResponse[*entities.WorkloadStatistic]{
		Data:   stats,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// GetUserSummary handles a user's aggregate workload
func (h *WorkloadHandler) GetUserSummary(c echo.Context) error {
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

	summary, err := h.workloadService.GetUserSummary(c.Request().Context(), userID, from, to)
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, summary)
}

// MessageHandler handles notification inbox requests
type MessageHandler struct {
	messageService *services.MessageService
	logger         *logger.Logger
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(messageService *services.MessageService, logger *logger.Logger) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
		logger:         logger,
	}
}

// ListMessages handles listing the caller's notifications
func (h *MessageHandler) ListMessages(c echo.Context) error {
	unreadOnly := c.QueryParam("unread") == "true"

	limit, offset, err := parsePagination(c)
	if err != nil {
		return err
	}

	messages, err := h.messageService.ListMessages(c.Request().Context(), getActor(c).ID, unreadOnly, limit, offset)
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, messages)
}

// CountUnread handles the caller's unread notification count
func (h *MessageHandler) CountUnread(c echo.Context) error {
	count, err := h.messageService.CountUnread(c.Request().Context(), getActor(c).ID)
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, map[string]int64{"unread": count})
}

// MarkRead handles marking one notification as read
func (h *MessageHandler) MarkRead(c echo.Context) error {
	id, err := parseIntParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.messageService.MarkRead(c.Request().Context(), id, getActor(c).ID); err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, ports.MessageResponse{Message: "Message marked read"})
}

// MarkAllRead handles marking all notifications as read
func (h *MessageHandler) MarkAllRead(c echo.Context) error {
	if err := h.messageService.MarkAllRead(c.Request().Context(), getActor(c).ID); err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, ports.MessageResponse{Message: "All messages marked read"})
}
