package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/DevinWangGZ/DevTeamResourceManager/internal/domain/entities"
	"github.com/DevinWangGZ/DevTeamResourceManager/internal/infrastructure/logger"
)

func TestMonthBounds(t *testing.T) {
	tests := []struct {
		in        time.Time
		wantStart time.Time
		wantEnd   time.Time
	}{
		{in: time.Date(2024, 3, 15, 18, 42, 0, 0, time.UTC), wantStart: date(2024, 3, 1), wantEnd: date(2024, 3, 31)},
		{in: date(2024, 2, 1), wantStart: date(2024, 2, 1), wantEnd: date(2024, 2, 29)},
		{in: date(2023, 2, 28), wantStart: date(2023, 2, 1), wantEnd: date(2023, 2, 28)},
		{in: date(2024, 12, 31), wantStart: date(2024, 12, 1), wantEnd: date(2024, 12, 31)},
	}

	for _, tt := range tests {
		start, end := monthBounds(tt.in)
		if !start.Equal(tt.wantStart) || !end.Equal(tt.wantEnd) {
			t.Errorf("monthBounds(%s) = %s..%s, want %s..%s",
				tt.in.Format(time.DateOnly),
				start.Format(time.DateOnly), end.Format(time.DateOnly),
				tt.wantStart.Format(time.DateOnly), tt.wantEnd.Format(time.DateOnly))
		}
	}
}

func confirmedTask(assignee uuid.UUID, projectID *int64, actual float64, updatedAt time.Time) *entities.Task {
	return &entities.Task{
		ID:            1,
		Status:        entities.TaskStatusConfirmed,
		AssigneeID:    &assignee,
		ProjectID:     projectID,
		ActualManDays: &actual,
		UpdatedAt:     updatedAt,
	}
}

func TestUpdateStatisticCreatesMonthBucket(t *testing.T) {
	repo := newFakeWorkloadRepo()
	svc := NewWorkloadService(repo, logger.NewNop())
	assignee := uuid.New()
	projectID := int64(7)

	task := confirmedTask(assignee, &projectID, 2.5, time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC))

	stat, err := svc.UpdateStatisticOnTaskConfirmation(context.Background(), task, nil, nil)
	if err != nil {
		t.Fatalf("UpdateStatisticOnTaskConfirmation() error = %v", err)
	}

	if stat.TotalManDays != 2.5 {
		t.Errorf("total = %v, want 2.5", stat.TotalManDays)
	}
	if !stat.PeriodStart.Equal(date(2024, 3, 1)) || !stat.PeriodEnd.Equal(date(2024, 3, 31)) {
		t.Errorf("period = %s..%s, want calendar month of confirmation",
			stat.PeriodStart.Format(time.DateOnly), stat.PeriodEnd.Format(time.DateOnly))
	}
}

func TestUpdateStatisticAccumulates(t *testing.T) {
	repo := newFakeWorkloadRepo()
	svc := NewWorkloadService(repo, logger.NewNop())
	assignee := uuid.New()
	projectID := int64(7)
	confirmed := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

	first := confirmedTask(assignee, &projectID, 2, confirmed)
	if _, err := svc.UpdateStatisticOnTaskConfirmation(context.Background(), first, nil, nil); err != nil {
		t.Fatalf("first confirmation: %v", err)
	}

	second := confirmedTask(assignee, &projectID, 1.5, confirmed.AddDate(0, 0, 5))
	stat, err := svc.UpdateStatisticOnTaskConfirmation(context.Background(), second, nil, nil)
	if err != nil {
		t.Fatalf("second confirmation: %v", err)
	}

	if stat.TotalManDays != 3.5 {
		t.Errorf("total = %v, want 3.5 after accumulation", stat.TotalManDays)
	}
	if len(repo.stats) != 1 {
		t.Errorf("bucket count = %d, want 1", len(repo.stats))
	}
}

func TestUpdateStatisticSeparatesMonths(t *testing.T) {
	repo := newFakeWorkloadRepo()
	svc := NewWorkloadService(repo, logger.NewNop())
	assignee := uuid.New()
	projectID := int64(7)

	march := confirmedTask(assignee, &projectID, 2, date(2024, 3, 10))
	april := confirmedTask(assignee, &projectID, 3, date(2024, 4, 2))

	if _, err := svc.UpdateStatisticOnTaskConfirmation(context.Background(), march, nil, nil); err != nil {
		t.Fatalf("march: %v", err)
	}
	if _, err := svc.UpdateStatisticOnTaskConfirmation(context.Background(), april, nil, nil); err != nil {
		t.Fatalf("april: %v", err)
	}

	if len(repo.stats) != 2 {
		t.Errorf("bucket count = %d, want one per month", len(repo.stats))
	}
}

func TestUpdateStatisticKeepsProjectlessBucketApart(t *testing.T) {
	repo := newFakeWorkloadRepo()
	svc := NewWorkloadService(repo, logger.NewNop())
	assignee := uuid.New()
	projectID := int64(7)
	confirmed := date(2024, 3, 10)

	withProject := confirmedTask(assignee, &projectID, 2, confirmed)
	without := confirmedTask(assignee, nil, 1, confirmed)

	if _, err := svc.UpdateStatisticOnTaskConfirmation(context.Background(), withProject, nil, nil); err != nil {
		t.Fatalf("with project: %v", err)
	}
	stat, err := svc.UpdateStatisticOnTaskConfirmation(context.Background(), without, nil, nil)
	if err != nil {
		t.Fatalf("without project: %v", err)
	}

	if len(repo.stats) != 2 {
		t.Fatalf("bucket count = %d, want separate bucket for project-less work", len(repo.stats))
	}
	if stat.ProjectID != nil {
		t.Errorf("project-less bucket got project %v", *stat.ProjectID)
	}
	if stat.TotalManDays != 1 {
		t.Errorf("project-less total = %v, want 1", stat.TotalManDays)
	}
}

func TestUpdateStatisticExplicitPeriod(t *testing.T) {
	repo := newFakeWorkloadRepo()
	svc := NewWorkloadService(repo, logger.NewNop())
	assignee := uuid.New()

	task := confirmedTask(assignee, nil, 2, date(2024, 3, 10))
	start := date(2024, 1, 1)
	end := date(2024, 3, 31)

	stat, err := svc.UpdateStatisticOnTaskConfirmation(context.Background(), task, &start, &end)
	if err != nil {
		t.Fatalf("UpdateStatisticOnTaskConfirmation() error = %v", err)
	}

	if !stat.PeriodStart.Equal(start) || !stat.PeriodEnd.Equal(end) {
		t.Errorf("period = %s..%s, want the explicit window",
			stat.PeriodStart.Format(time.DateOnly), stat.PeriodEnd.Format(time.DateOnly))
	}
}

func TestUpdateStatisticGuards(t *testing.T) {
	repo := newFakeWorkloadRepo()
	svc := NewWorkloadService(repo, logger.NewNop())
	assignee := uuid.New()
	actual := 2.0

	t.Run("missing assignee", func(t *testing.T) {
		task := &entities.Task{ID: 1, ActualManDays: &actual, UpdatedAt: date(2024, 3, 10)}
		_, err := svc.UpdateStatisticOnTaskConfirmation(context.Background(), task, nil, nil)
		if !errors.Is(err, entities.ErrMissingAssignee) {
			t.Errorf("error = %v, want ErrMissingAssignee", err)
		}
	})

	t.Run("missing actual effort", func(t *testing.T) {
		task := &entities.Task{ID: 1, AssigneeID: &assignee, UpdatedAt: date(2024, 3, 10)}
		_, err := svc.UpdateStatisticOnTaskConfirmation(context.Background(), task, nil, nil)
		if !errors.Is(err, entities.ErrMissingActualEffort) {
			t.Errorf("error = %v, want ErrMissingActualEffort", err)
		}
	})

	if len(repo.stats) != 0 {
		t.Errorf("bucket count = %d, want no buckets after rejected updates", len(repo.stats))
	}
}

func TestGetUserSummary(t *testing.T) {
	repo := newFakeWorkloadRepo()
	svc := NewWorkloadService(repo, logger.NewNop())
	assignee := uuid.New()
	p1, p2 := int64(1), int64(2)

	for _, task := range []*entities.Task{
		confirmedTask(assignee, &p1, 2, date(2024, 3, 10)),
		confirmedTask(assignee, &p2, 3, date(2024, 3, 12)),
		confirmedTask(assignee, nil, 1, date(2024, 4, 1)),
		confirmedTask(uuid.New(), &p1, 9, date(2024, 3, 10)),
	} {
		if _, err := svc.UpdateStatisticOnTaskConfirmation(context.Background(), task, nil, nil); err != nil {
			t.Fatalf("seed confirmation: %v", err)
		}
	}

	summary, err := svc.GetUserSummary(context.Background(), assignee, nil, nil)
	if err != nil {
		t.Fatalf("GetUserSummary() error = %v", err)
	}

	if summary.TotalManDays != 6 {
		t.Errorf("total = %v, want 6", summary.TotalManDays)
	}
	if summary.ProjectCount != 2 {
		t.Errorf("project count = %d, want 2", summary.ProjectCount)
	}
}
