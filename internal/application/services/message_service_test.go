package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/DevinWangGZ/DevTeamResourceManager/internal/domain/entities"
	"github.com/DevinWangGZ/DevTeamResourceManager/internal/infrastructure/logger"
)

func TestNotifyTaskStatusChangeRecipient(t *testing.T) {
	creator := uuid.New()
	assignee := uuid.New()

	tests := []struct {
		name      string
		oldStatus entities.TaskStatus
		newStatus entities.TaskStatus
		want      *uuid.UUID
	}{
		{name: "dispatch notifies the assignee", oldStatus: entities.TaskStatusPublished, newStatus: entities.TaskStatusPendingEval, want: &assignee},
		{name: "claim notifies the creator", oldStatus: entities.TaskStatusPublished, newStatus: entities.TaskStatusClaimed, want: &creator},
		{name: "decline notifies the creator", oldStatus: entities.TaskStatusPendingEval, newStatus: entities.TaskStatusPublished, want: &creator},
		{name: "submission notifies the creator", oldStatus: entities.TaskStatusInProgress, newStatus: entities.TaskStatusSubmitted, want: &creator},
		{name: "confirmation notifies the assignee", oldStatus: entities.TaskStatusSubmitted, newStatus: entities.TaskStatusConfirmed, want: &assignee},
		{name: "plain publish is silent", oldStatus: entities.TaskStatusDraft, newStatus: entities.TaskStatusPublished, want: nil},
		{name: "start is silent", oldStatus: entities.TaskStatusClaimed, newStatus: entities.TaskStatusInProgress, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeMessageRepo()
			svc := NewMessageService(repo, logger.NewNop())

			task := &entities.Task{
				ID:         1,
				Title:      "fix the importer",
				Status:     tt.newStatus,
				CreatorID:  creator,
				AssigneeID: &assignee,
			}

			if err := svc.NotifyTaskStatusChange(context.Background(), task, tt.oldStatus, tt.newStatus); err != nil {
				t.Fatalf("NotifyTaskStatusChange() error = %v", err)
			}

			if tt.want == nil {
				if len(repo.messages) != 0 {
					t.Fatalf("got %d messages, want none", len(repo.messages))
				}
				return
			}

			if len(repo.messages) != 1 {
				t.Fatalf("got %d messages, want 1", len(repo.messages))
			}
			msg := repo.messages[0]
			if msg.UserID != *tt.want {
				t.Errorf("recipient = %s, want %s", msg.UserID, *tt.want)
			}
			if msg.Type != entities.MessageTypeTaskStatusChange {
				t.Errorf("type = %s, want task status change", msg.Type)
			}
			if msg.RelatedTaskID == nil || *msg.RelatedTaskID != task.ID {
				t.Errorf("related task = %v, want %d", msg.RelatedTaskID, task.ID)
			}
		})
	}
}

func TestInbox(t *testing.T) {
	repo := newFakeMessageRepo()
	svc := NewMessageService(repo, logger.NewNop())
	user := uuid.New()
	other := uuid.New()

	for _, m := range []*entities.Message{
		{UserID: user, Title: "one", Type: entities.MessageTypeTaskStatusChange},
		{UserID: user, Title: "two", Type: entities.MessageTypeTaskStatusChange},
		{UserID: other, Title: "elsewhere", Type: entities.MessageTypeTaskStatusChange},
	} {
		if err := repo.Create(context.Background(), m); err != nil {
			t.Fatalf("seed message: %v", err)
		}
	}

	unread, err := svc.CountUnread(context.Background(), user)
	if err != nil {
		t.Fatalf("CountUnread() error = %v", err)
	}
	if unread != 2 {
		t.Errorf("unread = %d, want 2", unread)
	}

	messages, err := svc.ListMessages(context.Background(), user, true, 20, 0)
	if err != nil {
		t.Fatalf("ListMessages() error = %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(messages))
	}

	if err := svc.MarkRead(context.Background(), messages[0].ID, user); err != nil {
		t.Fatalf("MarkRead() error = %v", err)
	}
	unread, _ = svc.CountUnread(context.Background(), user)
	if unread != 1 {
		t.Errorf("unread after MarkRead = %d, want 1", unread)
	}

	if err := svc.MarkAllRead(context.Background(), user); err != nil {
		t.Fatalf("MarkAllRead() error = %v", err)
	}
	unread, _ = svc.CountUnread(context.Background(), user)
	if unread != 0 {
		t.Errorf("unread after MarkAllRead = %d, want 0", unread)
	}

	// Another user's inbox is untouched.
	otherUnread, _ := svc.CountUnread(context.Background(), other)
	if otherUnread != 1 {
		t.Errorf("other user's unread = %d, want 1", otherUnread)
	}
}
