package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/DevinWangGZ/DevTeamResourceManager/internal/domain/entities"
	"github.com/DevinWangGZ/DevTeamResourceManager/internal/infrastructure/logger"
	"github.com/DevinWangGZ/DevTeamResourceManager/internal/ports"
)

// UserService handles user accounts, role grants and seniority sequences.
type UserService struct {
	userRepo ports.UserRepository
	seqRepo  ports.UserSequenceRepository
	logger   *logger.Logger
}

// NewUserService creates a new user service
func NewUserService(userRepo ports.UserRepository, seqRepo ports.UserSequenceRepository, logger *logger.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		seqRepo:  seqRepo,
		logger:   logger,
	}
}

// CreateUser creates a new account with the given roles. Admin only.
func (s *UserService) CreateUser(ctx context.Context, req ports.CreateUserRequest, actor entities.Actor) (*entities.User, error) {
	if !actor.HasRole(entities.UserRoleSystemAdmin) {
		return nil, fmt.Errorf("%w: only an admin may create users", entities.ErrPermissionDenied)
	}

	for _, role := range req.Roles {
		if !role.IsValid() {
			return nil, fmt.Errorf("%w: unknown role %q", entities.ErrValidation, role)
		}
	}

	if existing, err := s.userRepo.GetByUsername(ctx, req.Username); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: username %q is taken", entities.ErrValidation, req.Username)
	}
	if existing, err := s.userRepo.GetByEmail(ctx, req.Email); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: email %q is taken", entities.ErrValidation, req.Email)
	}

	hashed, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &entities.User{
		ID:           uuid.New(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hashed,
		FullName:     req.FullName,
		Roles:        req.Roles,
		IsActive:     true,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	for _, role := range req.Roles {
		if err := s.userRepo.GrantRole(ctx, user.ID, role); err != nil {
			return nil, fmt.Errorf("grant role %s: %w", role, err)
		}
	}

	s.logger.Infow("User created", "user_id", user.ID, "username", user.Username, "roles", req.Roles)

	user.PasswordHash = ""
	return user, nil
}

// GetUser retrieves a user with their roles.
func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	roles, err := s.userRepo.GetRoles(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load roles: %w", err)
	}
	user.Roles = roles
	user.PasswordHash = ""

	return user, nil
}

// ListUsers retrieves users with filtering and pagination.
func (s *UserService) ListUsers(ctx context.Context, filter ports.UserFilter) ([]*entities.User, int64, error) {
	users, err := s.userRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	total, err := s.userRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	for _, u := range users {
		u.PasswordHash = ""
	}

	return users, total, nil
}

// UpdateUser merges the given fields into the account. Users may edit
// themselves; admins may edit anyone. Only admins may toggle activation.
func (s *UserService) UpdateUser(ctx context.Context, id uuid.UUID, req ports.UpdateUserRequest, actor entities.Actor) (*entities.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	isAdmin := actor.HasRole(entities.UserRoleSystemAdmin)
	if actor.ID != id && !isAdmin {
		return nil, fmt.Errorf("%w: only the account owner or an admin may update it", entities.ErrPermissionDenied)
	}

	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.FullName != nil {
		user.FullName = req.FullName
	}
	if req.StatusTag != nil {
		user.StatusTag = req.StatusTag
	}
	if req.IsActive != nil {
		if !isAdmin {
			return nil, fmt.Errorf("%w: only an admin may change account activation", entities.ErrPermissionDenied)
		}
		user.IsActive = *req.IsActive
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	user.PasswordHash = ""
	return user, nil
}

// DeleteUser removes an account. Admin only.
func (s *UserService) DeleteUser(ctx context.Context, id uuid.UUID, actor entities.Actor) error {
	if !actor.HasRole(entities.UserRoleSystemAdmin) {
		return fmt.Errorf("%w: only an admin may delete users", entities.ErrPermissionDenied)
	}

	if _, err := s.userRepo.GetByID(ctx, id); err != nil {
		return err
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	s.logger.Infow("User deleted", "user_id", id, "actor_id", actor.ID)
	return nil
}

// GrantRole adds a role to a user's role set. Admin only.
func (s *UserService) GrantRole(ctx context.Context, userID uuid.UUID, role entities.UserRole, actor entities.Actor) error {
	if !actor.HasRole(entities.UserRoleSystemAdmin) {
		return fmt.Errorf("%w: only an admin may grant roles", entities.ErrPermissionDenied)
	}

	if !role.IsValid() {
		return fmt.Errorf("%w: unknown role %q", entities.ErrValidation, role)
	}

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return err
	}

	if err := s.userRepo.GrantRole(ctx, userID, role); err != nil {
		return fmt.Errorf("grant role: %w", err)
	}

	s.logger.Infow("Role granted", "user_id", userID, "role", role, "actor_id", actor.ID)
	return nil
}

// RevokeRole removes a role from a user's role set. Admin only.
func (s *UserService) RevokeRole(ctx context.Context, userID uuid.UUID, role entities.UserRole, actor entities.Actor) error {
	if !actor.HasRole(entities.UserRoleSystemAdmin) {
		return fmt.Errorf("%w: only an admin may revoke roles", entities.ErrPermissionDenied)
	}

	if err := s.userRepo.RevokeRole(ctx, userID, role); err != nil {
		return fmt.Errorf("revoke role: %w", err)
	}

	s.logger.Infow("Role revoked", "user_id", userID, "role", role, "actor_id", actor.ID)
	return nil
}

// CreateSequence records a seniority level and daily rate for a user.
// Management only; a user may not hold the same level twice.
func (s *UserService) CreateSequence(ctx context.Context, userID uuid.UUID, req ports.CreateSequenceRequest, actor entities.Actor) (*entities.UserSequence, error) {
	if !actor.HasAnyRole(entities.UserRoleProjectManager, entities.UserRoleSystemAdmin) {
		return nil, fmt.Errorf("%w: only management may set rates", entities.ErrPermissionDenied)
	}

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	if _, err := s.seqRepo.GetByUserAndLevel(ctx, userID, req.Level); err == nil {
		return nil, entities.ErrDuplicateLevel
	} else if !isNotFound(err) {
		return nil, fmt.Errorf("check level: %w", err)
	}

	seq := &entities.UserSequence{
		UserID:    userID,
		Level:     req.Level,
		UnitPrice: req.UnitPrice,
	}
	if err := s.seqRepo.Create(ctx, seq); err != nil {
		return nil, fmt.Errorf("create sequence: %w", err)
	}

	s.logger.Infow("Sequence created", "user_id", userID, "level", req.Level, "unit_price", req.UnitPrice)
	return seq, nil
}

// ListSequences returns a user's sequences.
func (s *UserService) ListSequences(ctx context.Context, userID uuid.UUID) ([]*entities.UserSequence, error) {
	return s.seqRepo.ListByUser(ctx, userID)
}

// UpdateSequence changes a sequence's level or rate. Management only.
func (s *UserService) UpdateSequence(ctx context.Context, id int64, req ports.UpdateSequenceRequest, actor entities.Actor) (*entities.UserSequence, error) {
	if !actor.HasAnyRole(entities.UserRoleProjectManager, entities.UserRoleSystemAdmin) {
		return nil, fmt.Errorf("%w: only management may set rates", entities.ErrPermissionDenied)
	}

	seq, err := s.seqRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Level != nil && *req.Level != seq.Level {
		if _, err := s.seqRepo.GetByUserAndLevel(ctx, seq.UserID, *req.Level); err == nil {
			return nil, entities.ErrDuplicateLevel
		} else if !isNotFound(err) {
			return nil, fmt.Errorf("check level: %w", err)
		}
		seq.Level = *req.Level
	}
	if req.UnitPrice != nil {
		seq.UnitPrice = *req.UnitPrice
	}

	if err := s.seqRepo.Update(ctx, seq); err != nil {
		return nil, fmt.Errorf("update sequence: %w", err)
	}

	return seq, nil
}

// DeleteSequence removes a sequence. Management only.
func (s *UserService) DeleteSequence(ctx context.Context, id int64, actor entities.Actor) error {
	if !actor.HasAnyRole(entities.UserRoleProjectManager, entities.UserRoleSystemAdmin) {
		return fmt.Errorf("%w: only management may set rates", entities.ErrPermissionDenied)
	}

	if _, err := s.seqRepo.GetByID(ctx, id); err != nil {
		return err
	}

	if err := s.seqRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete sequence: %w", err)
	}

	return nil
}
