package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/DevinWangGZ/DevTeamResourceManager/internal/domain/entities"
	"github.com/DevinWangGZ/DevTeamResourceManager/internal/infrastructure/logger"
)

type outputValueFixture struct {
	service  *OutputValueService
	tasks    *fakeTaskRepo
	projects *fakeProjectRepo
	seqs     *fakeSequenceRepo
	values   *fakeOutputValueRepo

	projectID int64
}

func newOutputValueFixture(t *testing.T) *outputValueFixture {
	t.Helper()

	f := &outputValueFixture{
		tasks:    newFakeTaskRepo(),
		projects: newFakeProjectRepo(),
		seqs:     newFakeSequenceRepo(),
		values:   newFakeOutputValueRepo(),
	}
	f.service = NewOutputValueService(f.tasks, f.projects, f.seqs, f.values, logger.NewNop())
	f.service.now = func() time.Time { return date(2024, 6, 1) }

	project := &entities.Project{Name: "alpha"}
	if err := f.projects.Create(context.Background(), project); err != nil {
		t.Fatalf("create project: %v", err)
	}
	f.projectID = project.ID

	return f
}

func (f *outputValueFixture) addRatedUser(t *testing.T, prices ...float64) uuid.UUID {
	t.Helper()
	userID := uuid.New()
	for i, price := range prices {
		seq := &entities.UserSequence{
			UserID:    userID,
			Level:     fmt.Sprintf("P%d", i+1),
			UnitPrice: price,
			CreatedAt: date(2024, 1, 1).Add(time.Duration(i) * time.Hour),
		}
		if err := f.seqs.Create(context.Background(), seq); err != nil {
			t.Fatalf("create sequence: %v", err)
		}
	}
	return userID
}

func (f *outputValueFixture) addProjectTask(t *testing.T, status entities.TaskStatus, assignee *uuid.UUID, estimated float64, actual *float64) {
	t.Helper()
	task := &entities.Task{
		Title:            "task",
		Status:           status,
		ProjectID:        &f.projectID,
		CreatorID:        uuid.New(),
		AssigneeID:       assignee,
		EstimatedManDays: estimated,
		ActualManDays:    actual,
	}
	if err := f.tasks.Create(context.Background(), task); err != nil {
		t.Fatalf("create task: %v", err)
	}
}

func floatPtr(v float64) *float64 { return &v }

func TestUpdateProjectOutputValue(t *testing.T) {
	f := newOutputValueFixture(t)
	dev := f.addRatedUser(t, 100)

	// Confirmed at actual 2: 200 to both totals.
	f.addProjectTask(t, entities.TaskStatusConfirmed, &dev, 3, floatPtr(2))
	// Submitted with actual 1.5: 150 to the task total only.
	f.addProjectTask(t, entities.TaskStatusSubmitted, &dev, 1, floatPtr(1.5))
	// Submitted without actual falls back to the estimate: 100.
	f.addProjectTask(t, entities.TaskStatusSubmitted, &dev, 1, nil)
	// In progress prices the estimate: 400.
	f.addProjectTask(t, entities.TaskStatusInProgress, &dev, 4, nil)

	value, err := f.service.UpdateProjectOutputValue(context.Background(), f.projectID)
	if err != nil {
		t.Fatalf("UpdateProjectOutputValue() error = %v", err)
	}

	if value.TaskOutputValue != 850 {
		t.Errorf("task output value = %v, want 850", value.TaskOutputValue)
	}
	if value.AllocatedOutputValue != 200 {
		t.Errorf("allocated output value = %v, want 200", value.AllocatedOutputValue)
	}
	if !value.CalculatedAt.Equal(date(2024, 6, 1)) {
		t.Errorf("calculated at = %v, want fixture clock", value.CalculatedAt)
	}
}

func TestUpdateProjectOutputValueUsesLatestSequence(t *testing.T) {
	f := newOutputValueFixture(t)
	dev := f.addRatedUser(t, 100, 250)

	f.addProjectTask(t, entities.TaskStatusConfirmed, &dev, 1, floatPtr(1))

	value, err := f.service.UpdateProjectOutputValue(context.Background(), f.projectID)
	if err != nil {
		t.Fatalf("UpdateProjectOutputValue() error = %v", err)
	}

	if value.TaskOutputValue != 250 {
		t.Errorf("task output value = %v, want the most recent rate", value.TaskOutputValue)
	}
}

func TestUpdateProjectOutputValueZeroPrice(t *testing.T) {
	f := newOutputValueFixture(t)
	unrated := uuid.New()

	// Unassigned and unrated work both price at zero.
	f.addProjectTask(t, entities.TaskStatusPublished, nil, 5, nil)
	f.addProjectTask(t, entities.TaskStatusConfirmed, &unrated, 2, floatPtr(2))

	value, err := f.service.UpdateProjectOutputValue(context.Background(), f.projectID)
	if err != nil {
		t.Fatalf("UpdateProjectOutputValue() error = %v", err)
	}

	if value.TaskOutputValue != 0 || value.AllocatedOutputValue != 0 {
		t.Errorf("output value = %v/%v, want 0/0",
			value.TaskOutputValue, value.AllocatedOutputValue)
	}
}

func TestUpdateProjectOutputValueSkipsConfirmedWithoutActual(t *testing.T) {
	f := newOutputValueFixture(t)
	dev := f.addRatedUser(t, 100)

	f.addProjectTask(t, entities.TaskStatusConfirmed, &dev, 3, nil)

	value, err := f.service.UpdateProjectOutputValue(context.Background(), f.projectID)
	if err != nil {
		t.Fatalf("UpdateProjectOutputValue() error = %v", err)
	}

	if value.TaskOutputValue != 0 {
		t.Errorf("task output value = %v, want 0 for confirmed task without actual effort", value.TaskOutputValue)
	}
}

func TestUpdateProjectOutputValueIdempotent(t *testing.T) {
	f := newOutputValueFixture(t)
	dev := f.addRatedUser(t, 100)
	f.addProjectTask(t, entities.TaskStatusConfirmed, &dev, 2, floatPtr(2))

	first, err := f.service.UpdateProjectOutputValue(context.Background(), f.projectID)
	if err != nil {
		t.Fatalf("first recalculation: %v", err)
	}
	second, err := f.service.UpdateProjectOutputValue(context.Background(), f.projectID)
	if err != nil {
		t.Fatalf("second recalculation: %v", err)
	}

	if second.TaskOutputValue != first.TaskOutputValue || second.AllocatedOutputValue != first.AllocatedOutputValue {
		t.Errorf("recalculation drifted: %v/%v then %v/%v",
			first.TaskOutputValue, first.AllocatedOutputValue,
			second.TaskOutputValue, second.AllocatedOutputValue)
	}
	if second.ID != first.ID {
		t.Errorf("recalculation created a new row: id %d then %d", first.ID, second.ID)
	}
}

func TestUpdateProjectOutputValueUnknownProject(t *testing.T) {
	f := newOutputValueFixture(t)

	_, err := f.service.UpdateProjectOutputValue(context.Background(), 999)
	if !errors.Is(err, entities.ErrProjectNotFound) {
		t.Errorf("error = %v, want ErrProjectNotFound", err)
	}
}

func TestGetProjectOutputValue(t *testing.T) {
	f := newOutputValueFixture(t)

	if _, err := f.service.GetProjectOutputValue(context.Background(), f.projectID); !errors.Is(err, entities.ErrOutputValueNotFound) {
		t.Errorf("error = %v, want ErrOutputValueNotFound before first calculation", err)
	}

	dev := f.addRatedUser(t, 50)
	f.addProjectTask(t, entities.TaskStatusPublished, &dev, 2, nil)
	if _, err := f.service.UpdateProjectOutputValue(context.Background(), f.projectID); err != nil {
		t.Fatalf("recalculate: %v", err)
	}

	stored, err := f.service.GetProjectOutputValue(context.Background(), f.projectID)
	if err != nil {
		t.Fatalf("GetProjectOutputValue() error = %v", err)
	}
	if stored.TaskOutputValue != 100 {
		t.Errorf("stored task output value = %v, want 100", stored.TaskOutputValue)
	}
}
