package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/DevinWangGZ/DevTeamResourceManager/internal/application/services"
	"github.com/DevinWangGZ/DevTeamResourceManager/internal/domain/entities"
	"github.com/DevinWangGZ/DevTeamResourceManager/internal/infrastructure/logger"
	"github.com/DevinWangGZ/DevTeamResourceManager/internal/ports"
)

// actorContextKey is where the auth middleware stores the authenticated
// caller.
const actorContextKey = "actor"

// getActor returns the authenticated caller from the request context.
func getActor(c echo.Context) entities.Actor {
	if actor, ok := c.Get(actorContextKey).(entities.Actor); ok {
		return actor
	}
	return entities.Actor{}
}

// domainError converts service errors to HTTP errors: missing entities map to
// 404, authorization failures to 403 and precondition failures to 400.
func domainError(err error) error {
	switch {
	case errors.Is(err, entities.ErrTaskNotFound),
		errors.Is(err, entities.ErrProjectNotFound),
		errors.Is(err, entities.ErrUserNotFound),
		errors.Is(err, entities.ErrScheduleNotFound),
		errors.Is(err, entities.ErrHolidayNotFound),
		errors.Is(err, entities.ErrSequenceNotFound),
		errors.Is(err, entities.ErrMessageNotFound),
		errors.Is(err, entities.ErrOutputValueNotFound),
		errors.Is(err, entities.ErrWorkloadNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, entities.ErrPermissionDenied):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, entities.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}
}

func parseIntParam(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+name+" parameter")
	}
	return id, nil
}

func parseIntQuery(value string) (int64, error) {
	return strconv.ParseInt(value, 10, 64)
}

func parsePagination(c echo.Context) (limit, offset int, err error) {
	limit = 20
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit < 1 || limit > 100 {
			return 0, 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid limit parameter")
		}
	}
	if offsetStr := c.QueryParam("offset"); offsetStr != "" {
		offset, err = strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			return 0, 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid offset parameter")
		}
	}
	return limit, offset, nil
}

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	authService *services.AuthService
	logger      *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService, logger *logger.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// Login handles user login
func (h *AuthHandler) Login(c echo.Context) error {
	var req ports.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	response, err := h.authService.Login(c.Request().Context(), req)
	if err != nil {
		h.logger.Warnw("Login failed", "username", req.Username, "ip", c.RealIP())
		return domainError(err)
	}

	return c.JSON(http.StatusOK, response)
}

// UserHandler handles user and sequence requests
type UserHandler struct {
	userService *services.UserService
	logger      *logger.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService, logger *logger.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// CreateUser handles user creation
func (h *UserHandler) CreateUser(c echo.Context) error {
	var req ports.CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.userService.CreateUser(c.Request().Context(), req, getActor(c))
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusCreated, user)
}

// GetCurrentUser handles getting current user info
func (h *UserHandler) GetCurrentUser(c echo.Context) error {
	user, err := h.userService.GetUser(c.Request().Context(), getActor(c).ID)
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, user)
}

// GetUser handles getting user by ID
func (h *UserHandler) GetUser(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	user, err := h.userService.GetUser(c.Request().Context(), userID)
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, user)
}

// ListUsers handles listing users
func (h *UserHandler) ListUsers(c echo.Context) error {
	filter := ports.UserFilter{}

	if role := c.QueryParam("role"); role != "" {
		userRole := entities.UserRole(role)
		if !userRole.IsValid() {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid role parameter")
		}
		filter.Role = &userRole
	}
	if search := c.QueryParam("search"); search != "" {
		filter.Search = &search
	}

	limit, offset, err := parsePagination(c)
	if err != nil {
		return err
	}
	filter.Limit = limit
	filter.Offset = offset

	users, total, err := h.userService.ListUsers(c.Request().Context(), filter)
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, ports.PaginatedResponse[*entities.User]{
		Data:   users,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// UpdateCurrentUser handles updating the caller's own account
func (h *UserHandler) UpdateCurrentUser(c echo.Context) error {
	return h.updateUser(c, getActor(c).ID)
}

// UpdateUser handles updating a user by ID
func (h *UserHandler) UpdateUser(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}
	return h.updateUser(c, userID)
}

func (h *UserHandler) updateUser(c echo.Context, userID uuid.UUID) error {
	var req ports.UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.userService.UpdateUser(c.Request().Context(), userID, req, getActor(c))
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, user)
}

// DeleteUser handles user deletion
func (h *UserHandler) DeleteUser(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	if err := h.userService.DeleteUser(c.Request().Context(), userID, getActor(c)); err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, ports.MessageResponse{Message: "User deleted"})
}

type roleRequest struct {
	Role entities.UserRole `json:"role" validate:"required"`
}

// GrantRole handles granting a role to a user
func (h *UserHandler) GrantRole(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	var req roleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := h.userService.GrantRole(c.Request().Context(), userID, req.Role, getActor(c)); err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, ports.MessageResponse{Message: "Role granted"})
}

// RevokeRole handles revoking a role from a user
func (h *UserHandler) RevokeRole(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	role := entities.UserRole(c.Param("role"))
	if !role.IsValid() {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid role")
	}

	if err := h.userService.RevokeRole(c.Request().Context(), userID, role, getActor(c)); err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, ports.MessageResponse{Message: "Role revoked"})
}

// CreateSequence handles recording a seniority level for a user
func (h *UserHandler) CreateSequence(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	var req ports.CreateSequenceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	seq, err := h.userService.CreateSequence(c.Request().Context(), userID, req, getActor(c))
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusCreated, seq)
}

// ListSequences handles listing a user's sequences
func (h *UserHandler) ListSequences(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	seqs, err := h.userService.ListSequences(c.Request().Context(), userID)
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, seqs)
}

// UpdateSequence handles changing a sequence's level or rate
func (h *UserHandler) UpdateSequence(c echo.Context) error {
	id, err := parseIntParam(c, "seqId")
	if err != nil {
		return err
	}

	var req ports.UpdateSequenceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	seq, err := h.userService.UpdateSequence(c.Request().Context(), id, req, getActor(c))
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, seq)
}

// DeleteSequence handles removing a sequence
func (h *UserHandler) DeleteSequence(c echo.Context) error {
	id, err := parseIntParam(c, "seqId")
	if err != nil {
		return err
	}

	if err := h.userService.DeleteSequence(c.Request().Context(), id, getActor(c)); err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, ports.MessageResponse{Message: "Sequence deleted"})
}
