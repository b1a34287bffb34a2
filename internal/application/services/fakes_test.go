package services

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/DevinWangGZ/DevTeamResourceManager/internal/domain/entities"
	"github.com/DevinWangGZ/DevTeamResourceManager/internal/ports"
)

// In-memory fakes for the repository ports. Each fake keeps insertion order
// where the production queries guarantee an ordering.

type fakeTaskRepo struct {
	tasks  map[int64]*entities.Task
	nextID int64
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: make(map[int64]*entities.Task), nextID: 1}
}

func (r *fakeTaskRepo) Create(ctx context.Context, task *entities.Task) error {
	task.ID = r.nextID
	r.nextID++
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now()
	}
	task.UpdatedAt = task.CreatedAt
	clone := *task
	r.tasks[task.ID] = &clone
	return nil
}

func (r *fakeTaskRepo) GetByID(ctx context.Context, id int64) (*entities.Task, error) {
	task, ok := r.tasks[id]
	if !ok {
		return nil, entities.ErrTaskNotFound
	}
	clone := *task
	return &clone, nil
}

func (r *fakeTaskRepo) Update(ctx context.Context, task *entities.Task) error {
	if _, ok := r.tasks[task.ID]; !ok {
		return entities.ErrTaskNotFound
	}
	task.UpdatedAt = time.Now()
	clone := *task
	r.tasks[task.ID] = &clone
	return nil
}

func (r *fakeTaskRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.tasks[id]; !ok {
		return entities.ErrTaskNotFound
	}
	delete(r.tasks, id)
	return nil
}

func (r *fakeTaskRepo) List(ctx context.Context, filter ports.TaskFilter) ([]*entities.Task, error) {
	var out []*entities.Task
	for _, t := range r.sorted() {
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.AssigneeID != nil && (t.AssigneeID == nil || *t.AssigneeID != *filter.AssigneeID) {
			continue
		}
		if filter.VisibleTo != nil {
			visible := t.Status == entities.TaskStatusPublished ||
				t.CreatorID == *filter.VisibleTo ||
				(t.AssigneeID != nil && *t.AssigneeID == *filter.VisibleTo)
			if !visible {
				continue
			}
		}
		clone := *t
		out = append(out, &clone)
	}
	return out, nil
}

func (r *fakeTaskRepo) Count(ctx context.Context, filter ports.TaskFilter) (int64, error) {
	tasks, _ := r.List(ctx, filter)
	return int64(len(tasks)), nil
}

func (r *fakeTaskRepo) GetByProject(ctx context.Context, projectID int64) ([]*entities.Task, error) {
	var out []*entities.Task
	for _, t := range r.sorted() {
		if t.ProjectID != nil && *t.ProjectID == projectID {
			clone := *t
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeTaskRepo) GetActiveByAssignee(ctx context.Context, assigneeID uuid.UUID, excludeTaskID int64) ([]*entities.Task, error) {
	var out []*entities.Task
	for _, t := range r.sorted() {
		if t.ID == excludeTaskID {
			continue
		}
		if t.AssigneeID == nil || *t.AssigneeID != assigneeID {
			continue
		}
		if !t.IsActive() {
			continue
		}
		clone := *t
		out = append(out, &clone)
	}
	return out, nil
}

func (r *fakeTaskRepo) sorted() []*entities.Task {
	out := make([]*entities.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

type fakeScheduleRepo struct {
	schedules map[int64]*entities.TaskSchedule
	nextID    int64
}

func newFakeScheduleRepo() *fakeScheduleRepo {
	return &fakeScheduleRepo{schedules: make(map[int64]*entities.TaskSchedule), nextID: 1}
}

func (r *fakeScheduleRepo) GetByTaskID(ctx context.Context, taskID int64) (*entities.TaskSchedule, error) {
	s, ok := r.schedules[taskID]
	if !ok {
		return nil, entities.ErrScheduleNotFound
	}
	clone := *s
	return &clone, nil
}

func (r *fakeScheduleRepo) Upsert(ctx context.Context, schedule *entities.TaskSchedule) error {
	if existing, ok := r.schedules[schedule.TaskID]; ok {
		existing.StartDate = schedule.StartDate
		existing.EndDate = schedule.EndDate
		schedule.ID = existing.ID
		schedule.IsPinned = existing.IsPinned
		return nil
	}
	schedule.ID = r.nextID
	r.nextID++
	clone := *schedule
	r.schedules[schedule.TaskID] = &clone
	return nil
}

func (r *fakeScheduleRepo) SetPinned(ctx context.Context, taskID int64, isPinned bool) error {
	s, ok := r.schedules[taskID]
	if !ok {
		return entities.ErrScheduleNotFound
	}
	s.IsPinned = isPinned
	return nil
}

func (r *fakeScheduleRepo) DeleteByTaskID(ctx context.Context, taskID int64) error {
	delete(r.schedules, taskID)
	return nil
}

func (r *fakeScheduleRepo) ListByAssignee(ctx context.Context, assigneeID uuid.UUID, from, to *time.Time) ([]*entities.TaskSchedule, error) {
	var out []*entities.TaskSchedule
	for _, s := range r.schedules {
		clone := *s
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

type fakeHolidayRepo struct {
	holidays map[string]*entities.Holiday
	nextID   int64
}

func newFakeHolidayRepo(dates ...time.Time) *fakeHolidayRepo {
	r := &fakeHolidayRepo{holidays: make(map[string]*entities.Holiday), nextID: 1}
	for _, d := range dates {
		r.Create(context.Background(), &entities.Holiday{Date: DateOnly(d)})
	}
	return r
}

func (r *fakeHolidayRepo) Create(ctx context.Context, holiday *entities.Holiday) error {
	holiday.ID = r.nextID
	r.nextID++
	r.holidays[DateOnly(holiday.Date).Format(time.DateOnly)] = holiday
	return nil
}

func (r *fakeHolidayRepo) GetByDate(ctx context.Context, date time.Time) (*entities.Holiday, error) {
	h, ok := r.holidays[DateOnly(date).Format(time.DateOnly)]
	if !ok {
		return nil, entities.ErrHolidayNotFound
	}
	return h, nil
}

func (r *fakeHolidayRepo) ListBetween(ctx context.Context, from, to time.Time) ([]*entities.Holiday, error) {
	var out []*entities.Holiday
	for _, h := range r.holidays {
		if !h.Date.Before(from) && !h.Date.After(to) {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *fakeHolidayRepo) Delete(ctx context.Context, id int64) error {
	for k, h := range r.holidays {
		if h.ID == id {
			delete(r.holidays, k)
			return nil
		}
	}
	return entities.ErrHolidayNotFound
}

type fakeWorkloadRepo struct {
	stats  []*entities.WorkloadStatistic
	nextID int64
}

func newFakeWorkloadRepo() *fakeWorkloadRepo {
	return &fakeWorkloadRepo{nextID: 1}
}

func (r *fakeWorkloadRepo) Create(ctx context.Context, stat *entities.WorkloadStatistic) error {
	stat.ID = r.nextID
	r.nextID++
	clone := *stat
	r.stats = append(r.stats, &clone)
	return nil
}

func (r *fakeWorkloadRepo) Find(ctx context.Context, userID uuid.UUID, projectID *int64, periodStart, periodEnd time.Time) (*entities.WorkloadStatistic, error) {
	for _, s := range r.stats {
		if s.UserID != userID {
			continue
		}
		if (s.ProjectID == nil) != (projectID == nil) {
			continue
		}
		if s.ProjectID != nil && *s.ProjectID != *projectID {
			continue
		}
		if !s.PeriodStart.Equal(periodStart) || !s.PeriodEnd.Equal(periodEnd) {
			continue
		}
		clone := *s
		return &clone, nil
	}
	return nil, entities.ErrWorkloadNotFound
}

func (r *fakeWorkloadRepo) Update(ctx context.Context, stat *entities.WorkloadStatistic) error {
	for i, s := range r.stats {
		if s.ID == stat.ID {
			clone := *stat
			r.stats[i] = &clone
			return nil
		}
	}
	return entities.ErrWorkloadNotFound
}

func (r *fakeWorkloadRepo) List(ctx context.Context, filter ports.WorkloadFilter) ([]*entities.WorkloadStatistic, error) {
	var out []*entities.WorkloadStatistic
	for _, s := range r.stats {
		if filter.UserID != nil && s.UserID != *filter.UserID {
			continue
		}
		clone := *s
		out = append(out, &clone)
	}
	return out, nil
}

func (r *fakeWorkloadRepo) Count(ctx context.Context, filter ports.WorkloadFilter) (int64, error) {
	stats, _ := r.List(ctx, filter)
	return int64(len(stats)), nil
}

func (r *fakeWorkloadRepo) SummarizeUser(ctx context.Context, userID uuid.UUID, from, to *time.Time) (*ports.WorkloadSummary, error) {
	summary := &ports.WorkloadSummary{UserID: userID}
	projects := make(map[int64]struct{})
	for _, s := range r.stats {
		if s.UserID != userID {
			continue
		}
		summary.TotalManDays += s.TotalManDays
		if s.ProjectID != nil {
			projects[*s.ProjectID] = struct{}{}
		}
	}
	summary.ProjectCount = int64(len(projects))
	return summary, nil
}

type fakeProjectRepo struct {
	projects map[int64]*entities.Project
	nextID   int64
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{projects: make(map[int64]*entities.Project), nextID: 1}
}

func (r *fakeProjectRepo) Create(ctx context.Context, project *entities.Project) error {
	project.ID = r.nextID
	r.nextID++
	clone := *project
	r.projects[project.ID] = &clone
	return nil
}

func (r *fakeProjectRepo) GetByID(ctx context.Context, id int64) (*entities.Project, error) {
	p, ok := r.projects[id]
	if !ok {
		return nil, entities.ErrProjectNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *fakeProjectRepo) GetByName(ctx context.Context, name string) (*entities.Project, error) {
	for _, p := range r.projects {
		if p.Name == name {
			clone := *p
			return &clone, nil
		}
	}
	return nil, entities.ErrProjectNotFound
}

func (r *fakeProjectRepo) Update(ctx context.Context, project *entities.Project) error {
	if _, ok := r.projects[project.ID]; !ok {
		return entities.ErrProjectNotFound
	}
	clone := *project
	r.projects[project.ID] = &clone
	return nil
}

func (r *fakeProjectRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.projects[id]; !ok {
		return entities.ErrProjectNotFound
	}
	delete(r.projects, id)
	return nil
}

func (r *fakeProjectRepo) List(ctx context.Context, filter ports.ProjectFilter) ([]*entities.Project, error) {
	var out []*entities.Project
	for _, p := range r.projects {
		clone := *p
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeProjectRepo) Count(ctx context.Context, filter ports.ProjectFilter) (int64, error) {
	return int64(len(r.projects)), nil
}

type fakeUserRepo struct {
	users map[uuid.UUID]*entities.User
	roles map[uuid.UUID][]entities.UserRole
}

func newFakeUserRepo(users ...*entities.User) *fakeUserRepo {
	r := &fakeUserRepo{
		users: make(map[uuid.UUID]*entities.User),
		roles: make(map[uuid.UUID][]entities.UserRole),
	}
	for _, u := range users {
		r.users[u.ID] = u
		r.roles[u.ID] = u.Roles
	}
	return r
}

func (r *fakeUserRepo) Create(ctx context.Context, user *entities.User) error {
	r.users[user.ID] = user
	return nil
}

// Lookups return role-less users: roles live in their own table and only
// GetRoles reads it, matching the SQL queries.
func (r *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, entities.ErrUserNotFound
	}
	clone := *u
	clone.Roles = nil
	return &clone, nil
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*entities.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			clone := *u
			clone.Roles = nil
			return &clone, nil
		}
	}
	return nil, entities.ErrUserNotFound
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			clone := *u
			clone.Roles = nil
			return &clone, nil
		}
	}
	return nil, entities.ErrUserNotFound
}

func (r *fakeUserRepo) Update(ctx context.Context, user *entities.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return entities.ErrUserNotFound
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.users[id]; !ok {
		return entities.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) List(ctx context.Context, filter ports.UserFilter) ([]*entities.User, error) {
	var out []*entities.User
	for _, u := range r.users {
		clone := *u
		clone.Roles = nil
		out = append(out, &clone)
	}
	return out, nil
}

func (r *fakeUserRepo) Count(ctx context.Context, filter ports.UserFilter) (int64, error) {
	return int64(len(r.users)), nil
}

func (r *fakeUserRepo) GetRoles(ctx context.Context, userID uuid.UUID) ([]entities.UserRole, error) {
	return r.roles[userID], nil
}

func (r *fakeUserRepo) GrantRole(ctx context.Context, userID uuid.UUID, role entities.UserRole) error {
	for _, existing := range r.roles[userID] {
		if existing == role {
			return nil
		}
	}
	r.roles[userID] = append(r.roles[userID], role)
	return nil
}

func (r *fakeUserRepo) RevokeRole(ctx context.Context, userID uuid.UUID, role entities.UserRole) error {
	roles := r.roles[userID]
	for i, existing := range roles {
		if existing == role {
			r.roles[userID] = append(roles[:i], roles[i+1:]...)
			return nil
		}
	}
	return entities.ErrUserNotFound
}

type fakeSequenceRepo struct {
	seqs   []*entities.UserSequence
	nextID int64
}

func newFakeSequenceRepo() *fakeSequenceRepo {
	return &fakeSequenceRepo{nextID: 1}
}

func (r *fakeSequenceRepo) Create(ctx context.Context, seq *entities.UserSequence) error {
	seq.ID = r.nextID
	r.nextID++
	if seq.CreatedAt.IsZero() {
		seq.CreatedAt = time.Now()
	}
	clone := *seq
	r.seqs = append(r.seqs, &clone)
	return nil
}

func (r *fakeSequenceRepo) GetByID(ctx context.Context, id int64) (*entities.UserSequence, error) {
	for _, s := range r.seqs {
		if s.ID == id {
			clone := *s
			return &clone, nil
		}
	}
	return nil, entities.ErrSequenceNotFound
}

func (r *fakeSequenceRepo) GetByUserAndLevel(ctx context.Context, userID uuid.UUID, level string) (*entities.UserSequence, error) {
	for _, s := range r.seqs {
		if s.UserID == userID && s.Level == level {
			clone := *s
			return &clone, nil
		}
	}
	return nil, entities.ErrSequenceNotFound
}

func (r *fakeSequenceRepo) GetLatestByUser(ctx context.Context, userID uuid.UUID) (*entities.UserSequence, error) {
	var latest *entities.UserSequence
	for _, s := range r.seqs {
		if s.UserID != userID {
			continue
		}
		if latest == nil || s.CreatedAt.After(latest.CreatedAt) {
			latest = s
		}
	}
	if latest == nil {
		return nil, entities.ErrSequenceNotFound
	}
	clone := *latest
	return &clone, nil
}

func (r *fakeSequenceRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.UserSequence, error) {
	var out []*entities.UserSequence
	for _, s := range r.seqs {
		if s.UserID == userID {
			clone := *s
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeSequenceRepo) Update(ctx context.Context, seq *entities.UserSequence) error {
	for i, s := range r.seqs {
		if s.ID == seq.ID {
			clone := *seq
			r.seqs[i] = &clone
			return nil
		}
	}
	return entities.ErrSequenceNotFound
}

func (r *fakeSequenceRepo) Delete(ctx context.Context, id int64) error {
	for i, s := range r.seqs {
		if s.ID == id {
			r.seqs = append(r.seqs[:i], r.seqs[i+1:]...)
			return nil
		}
	}
	return entities.ErrSequenceNotFound
}

type fakeOutputValueRepo struct {
	values map[int64]*entities.ProjectOutputValue
	nextID int64
}

func newFakeOutputValueRepo() *fakeOutputValueRepo {
	return &fakeOutputValueRepo{values: make(map[int64]*entities.ProjectOutputValue), nextID: 1}
}

func (r *fakeOutputValueRepo) GetByProjectID(ctx context.Context, projectID int64) (*entities.ProjectOutputValue, error) {
	v, ok := r.values[projectID]
	if !ok {
		return nil, entities.ErrOutputValueNotFound
	}
	clone := *v
	return &clone, nil
}

func (r *fakeOutputValueRepo) Upsert(ctx context.Context, value *entities.ProjectOutputValue) error {
	if existing, ok := r.values[value.ProjectID]; ok {
		value.ID = existing.ID
	} else {
		value.ID = r.nextID
		r.nextID++
	}
	clone := *value
	r.values[value.ProjectID] = &clone
	return nil
}

type fakeMessageRepo struct {
	messages []*entities.Message
	nextID   int64
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{nextID: 1}
}

func (r *fakeMessageRepo) Create(ctx context.Context, message *entities.Message) error {
	message.ID = r.nextID
	r.nextID++
	clone := *message
	r.messages = append(r.messages, &clone)
	return nil
}

func (r *fakeMessageRepo) GetByID(ctx context.Context, id int64) (*entities.Message, error) {
	for _, m := range r.messages {
		if m.ID == id {
			clone := *m
			return &clone, nil
		}
	}
	return nil, entities.ErrMessageNotFound
}

func (r *fakeMessageRepo) ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]*entities.Message, error) {
	var out []*entities.Message
	for _, m := range r.messages {
		if m.UserID != userID {
			continue
		}
		if unreadOnly && m.IsRead {
			continue
		}
		clone := *m
		out = append(out, &clone)
	}
	return out, nil
}

func (r *fakeMessageRepo) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	for _, m := range r.messages {
		if m.UserID == userID && !m.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *fakeMessageRepo) MarkRead(ctx context.Context, id int64, userID uuid.UUID) error {
	for _, m := range r.messages {
		if m.ID == id && m.UserID == userID {
			m.IsRead = true
			return nil
		}
	}
	return entities.ErrMessageNotFound
}

func (r *fakeMessageRepo) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	for _, m := range r.messages {
		if m.UserID == userID {
			m.IsRead = true
		}
	}
	return nil
}

// Stubs for the task service's side-effect collaborators.

type stubScheduler struct {
	calculateCalls int
	pinCalls       int
	err            error
}

func (s *stubScheduler) CalculateSchedule(ctx context.Context, taskID int64, estimatedManDays float64, assigneeID uuid.UUID, startFrom *time.Time) (*entities.TaskSchedule, error) {
	s.calculateCalls++
	if s.err != nil {
		return nil, s.err
	}
	return &entities.TaskSchedule{TaskID: taskID}, nil
}

func (s *stubScheduler) PinTaskAndReschedule(ctx context.Context, taskID int64, isPinned bool, actorID uuid.UUID) (*entities.TaskSchedule, error) {
	s.pinCalls++
	if s.err != nil {
		return nil, s.err
	}
	return &entities.TaskSchedule{TaskID: taskID, IsPinned: isPinned}, nil
}

type stubWorkloadRecorder struct {
	calls int
	err   error
	last  *entities.Task
}

func (s *stubWorkloadRecorder) UpdateStatisticOnTaskConfirmation(ctx context.Context, task *entities.Task, periodStart, periodEnd *time.Time) (*entities.WorkloadStatistic, error) {
	s.calls++
	s.last = task
	if s.err != nil {
		return nil, s.err
	}
	return &entities.WorkloadStatistic{UserID: *task.AssigneeID}, nil
}

type stubNotifier struct {
	notifications []entities.TaskStatus
	err           error
}

func (s *stubNotifier) NotifyTaskStatusChange(ctx context.Context, task *entities.Task, oldStatus, newStatus entities.TaskStatus) error {
	s.notifications = append(s.notifications, newStatus)
	return s.err
}
