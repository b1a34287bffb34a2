package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/DevinWangGZ/DevTeamResourceManager/internal/domain/entities"
	"github.com/DevinWangGZ/DevTeamResourceManager/internal/infrastructure/logger"
	"github.com/DevinWangGZ/DevTeamResourceManager/internal/ports"
)

// MessageService raises in-app notifications from task status transitions and
// serves each user's inbox.
type MessageService struct {
	messageRepo ports.MessageRepository
	logger      *logger.Logger
}

// NewMessageService creates a new message service
func NewMessageService(messageRepo ports.MessageRepository, logger *logger.Logger) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		logger:      logger,
	}
}

// NotifyTaskStatusChange notifies the party who needs to act on or hear about
// the transition: the assignee when work is dispatched or confirmed, the
// creator when their task is picked up, handed back or submitted.
func (s *MessageService) NotifyTaskStatusChange(ctx context.Context, task *entities.Task, oldStatus, newStatus entities.TaskStatus) error {
	var recipient *uuid.UUID
	var title string

	switch newStatus {
	case entities.TaskStatusPendingEval:
		recipient = task.AssigneeID
		title = fmt.Sprintf("Task %q has been dispatched to you", task.Title)
	case entities.TaskStatusClaimed:
		recipient = &task.CreatorID
		title = fmt.Sprintf("Task %q has been claimed", task.Title)
	case entities.TaskStatusPublished:
		if oldStatus != entities.TaskStatusPendingEval {
			return nil
		}
		recipient = &task.CreatorID
		title = fmt.Sprintf("Task %q was declined and is published again", task.Title)
	case entities.TaskStatusSubmitted:
		recipient = &task.CreatorID
		title = fmt.Sprintf("Task %q has been submitted for confirmation", task.Title)
	case entities.TaskStatusConfirmed:
		recipient = task.AssigneeID
		title = fmt.Sprintf("Task %q has been confirmed", task.Title)
	default:
		return nil
	}

	if recipient == nil {
		return nil
	}

	content := fmt.Sprintf("Status changed from %s to %s.", oldStatus, newStatus)
	message := &entities.Message{
		UserID:        *recipient,
		Title:         title,
		Content:       &content,
		Type:          entities.MessageTypeTaskStatusChange,
		RelatedTaskID: &task.ID,
	}

	if err := s.messageRepo.Create(ctx, message); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}

	s.logger.Debugw("Notification created",
		"user_id", recipient, "task_id", task.ID, "status", newStatus)

	return nil
}

// ListMessages returns a page of the user's notifications.
func (s *MessageService) ListMessages(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]*entities.Message, error) {
	return s.messageRepo.ListByUser(ctx, userID, unreadOnly, limit, offset)
}

// CountUnread returns the user's unread notification count.
func (s *MessageService) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.messageRepo.CountUnread(ctx, userID)
}

// MarkRead marks one of the user's notifications as read.
func (s *MessageService) MarkRead(ctx context.Context, id int64, userID uuid.UUID) error {
	return s.messageRepo.MarkRead(ctx, id, userID)
}

// MarkAllRead marks all of the user's notifications as read.
func (s *MessageService) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return s.messageRepo.MarkAllRead(ctx, userID)
}
