package services

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"task-manager.com/task-manager/internal/constants"
	apperrors "task-manager.com/task-manager/internal/errors"
	model "task-manager.com/task-manager/internal/models"
	"task-manager.com/task-manager/internal/pagination"
	repository "task-manager.com/task-manager/internal/repositories"
)

// TaskCriteria is a sparse filter. Every set field narrows the result.
type TaskCriteria struct {
	WorkspaceID string
	State       *constants.TaskState
	StartDate   *time.Time
	EndDate     *time.Time
	// UserID matches tasks where the user is principal or side user.
	UserID string
	// TagIDs keeps tasks carrying at least one of the tags. It is applied to
	// the fetched page only, so page totals ignore it.
	TagIDs []string
	Search string
}

type TaskStatistics struct {
	CountByState  map[constants.TaskState]int64 `json:"countByState"`
	TotalTasks    int64                         `json:"totalTasks"`
	TodayTasks    int64                         `json:"todayTasks"`
	UpcomingTasks int64                         `json:"upcomingTasks"`
}

// KanbanBoard always holds one entry per known task state.
type KanbanBoard map[constants.TaskState][]model.Task

const upcomingWindowDays = 7

var (
	sortDayAsc        = pagination.Sort{Column: "tasks.day", Direction: pagination.Asc}
	sortDayDesc       = pagination.Sort{Column: "tasks.day", Direction: pagination.Desc}
	sortStartTimeAsc  = pagination.Sort{Column: "tasks.start_time", Direction: pagination.Asc}
	sortTitleAsc      = pagination.Sort{Column: "tasks.title", Direction: pagination.Asc}
)

// TaskQueryService holds every read-only task operation. Each call checks
// the caller's membership before touching tasks.
type TaskQueryService struct {
	tasks      TaskReader
	users      UserStore
	workspaces WorkspaceStore
	guard      *Guard

	Now func() time.Time
}

func NewTaskQueryService(tasks TaskReader, users UserStore, workspaces WorkspaceStore, guard *Guard) *TaskQueryService {
	return &TaskQueryService{
		tasks:      tasks,
		users:      users,
		workspaces: workspaces,
		guard:      guard,
		Now:        time.Now,
	}
}

func (s *TaskQueryService) Get(ctx context.Context, taskID, userID string) (*model.Task, error) {
	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, err
	}

	if err := s.guard.RequireMembership(ctx, userID, task.WorkspaceID); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskQueryService) ListByWorkspace(ctx context.Context, workspaceID, userID string, req pagination.Request) (pagination.Page[model.Task], error) {
	if err := s.authorize(ctx, workspaceID, userID); err != nil {
		return pagination.Page[model.Task]{}, err
	}

	p, err := pagination.Resolve(req, repository.TaskSortColumns)
	if err != nil {
		return pagination.Page[model.Task]{}, err
	}

	return s.page(ctx, repository.TaskFilter{WorkspaceID: workspaceID}, p)
}

// ListAll is the unpaged workspace listing.
func (s *TaskQueryService) ListAll(ctx context.Context, workspaceID, userID string) ([]model.Task, error) {
	if err := s.authorize(ctx, workspaceID, userID); err != nil {
		return nil, err
	}

	return s.tasks.FindAll(ctx, repository.TaskFilter{WorkspaceID: workspaceID})
}

func (s *TaskQueryService) Filter(ctx context.Context, criteria TaskCriteria, userID string, req pagination.Request) (pagination.Page[model.Task], error) {
	if err := s.authorize(ctx, criteria.WorkspaceID, userID); err != nil {
		return pagination.Page[model.Task]{}, err
	}

	p, err := pagination.Resolve(req, repository.TaskSortColumns)
	if err != nil {
		return pagination.Page[model.Task]{}, err
	}

	filter := repository.TaskFilter{
		WorkspaceID: criteria.WorkspaceID,
		State:       criteria.State,
		DayFrom:     normalizeDay(criteria.StartDate),
		DayTo:       normalizeDay(criteria.EndDate),
		UserID:      criteria.UserID,
		Search:      strings.TrimSpace(criteria.Search),
	}

	page, err := s.page(ctx, filter, p)
	if err != nil {
		return page, err
	}

	if len(criteria.TagIDs) > 0 {
		page = pagination.Refilter(page, func(t model.Task) bool {
			return t.HasAnyTag(criteria.TagIDs)
		})
	}
	return page, nil
}

func (s *TaskQueryService) Search(ctx context.Context, workspaceID, query, userID string, req pagination.Request) (pagination.Page[model.Task], error) {
	if err := s.authorize(ctx, workspaceID, userID); err != nil {
		return pagination.Page[model.Task]{}, err
	}

	p, err := pagination.ResolveFixed(req, sortTitleAsc)
	if err != nil {
		return pagination.Page[model.Task]{}, err
	}

	return s.page(ctx, repository.TaskFilter{WorkspaceID: workspaceID, Search: strings.TrimSpace(query)}, p)
}

// ByUser lists tasks where targetUserID is principal or side user.
func (s *TaskQueryService) ByUser(ctx context.Context, workspaceID, targetUserID, userID string, req pagination.Request) (pagination.Page[model.Task], error) {
	if err := s.authorize(ctx, workspaceID, userID); err != nil {
		return pagination.Page[model.Task]{}, err
	}

	if _, err := s.users.FindByID(ctx, targetUserID); err != nil {
		if apperrors.KindOf(err) == apperrors.KindNotFound {
			return pagination.Page[model.Task]{}, apperrors.ErrTargetUserNotFound
		}
		return pagination.Page[model.Task]{}, err
	}

	p, err := pagination.Resolve(req, repository.TaskSortColumns)
	if err != nil {
		return pagination.Page[model.Task]{}, err
	}

	return s.page(ctx, repository.TaskFilter{WorkspaceID: workspaceID, UserID: targetUserID}, p)
}

func (s *TaskQueryService) ByState(ctx context.Context, workspaceID string, state constants.TaskState, userID string, req pagination.Request) (pagination.Page[model.Task], error) {
	if err := s.authorize(ctx, workspaceID, userID); err != nil {
		return pagination.Page[model.Task]{}, err
	}

	if !state.Valid() {
		return pagination.Page[model.Task]{}, apperrors.InvalidArgument("unknown task state %q", state)
	}

	p, err := pagination.ResolveFixed(req, sortDayAsc)
	if err != nil {
		return pagination.Page[model.Task]{}, err
	}

	return s.page(ctx, repository.TaskFilter{WorkspaceID: workspaceID, State: &state}, p)
}

// WeeklyView covers weekStart through weekStart+6, day ascending. ONLY_MINE
// trims the fetched page without changing its totals.
func (s *TaskQueryService) WeeklyView(ctx context.Context, workspaceID string, weekStart time.Time, userID string, filter constants.MemberFilter, req pagination.Request) (pagination.Page[model.Task], error) {
	if err := s.authorize(ctx, workspaceID, userID); err != nil {
		return pagination.Page[model.Task]{}, err
	}

	p, err := pagination.ResolveFixed(req, sortDayAsc)
	if err != nil {
		return pagination.Page[model.Task]{}, err
	}

	from := dateOf(weekStart)
	to := from.AddDate(0, 0, 6)

	page, err := s.page(ctx, repository.TaskFilter{WorkspaceID: workspaceID, DayFrom: &from, DayTo: &to}, p)
	if err != nil {
		return page, err
	}
	return applyMemberFilter(page, userID, filter), nil
}

// DailyView lists one day by start time, tasks without a start time first.
func (s *TaskQueryService) DailyView(ctx context.Context, workspaceID string, date time.Time, userID string, filter constants.MemberFilter, req pagination.Request) (pagination.Page[model.Task], error) {
	if err := s.authorize(ctx, workspaceID, userID); err != nil {
		return pagination.Page[model.Task]{}, err
	}

	p, err := pagination.ResolveFixed(req, sortStartTimeAsc)
	if err != nil {
		return pagination.Page[model.Task]{}, err
	}

	day := dateOf(date)

	page, err := s.page(ctx, repository.TaskFilter{WorkspaceID: workspaceID, DayFrom: &day, DayTo: &day}, p)
	if err != nil {
		return page, err
	}

	page = applyMemberFilter(page, userID, filter)
	slices.SortStableFunc(page.Content, func(a, b model.Task) int {
		return compareNilsFirst(a.StartTime, b.StartTime)
	})
	return page, nil
}

// WeeklyList is the unpaged content of WeeklyView.
func (s *TaskQueryService) WeeklyList(ctx context.Context, workspaceID string, weekStart time.Time, userID string, filter constants.MemberFilter) ([]model.Task, error) {
	return s.unpaged(func(req pagination.Request) (pagination.Page[model.Task], error) {
		return s.WeeklyView(ctx, workspaceID, weekStart, userID, filter, req)
	})
}

// DailyList is the unpaged content of DailyView.
func (s *TaskQueryService) DailyList(ctx context.Context, workspaceID string, date time.Time, userID string, filter constants.MemberFilter) ([]model.Task, error) {
	return s.unpaged(func(req pagination.Request) (pagination.Page[model.Task], error) {
		return s.DailyView(ctx, workspaceID, date, userID, filter, req)
	})
}

func (s *TaskQueryService) KanbanView(ctx context.Context, workspaceID, userID string) (KanbanBoard, error) {
	if err := s.authorize(ctx, workspaceID, userID); err != nil {
		return nil, err
	}

	tasks, err := s.tasks.FindAll(ctx, repository.TaskFilter{WorkspaceID: workspaceID})
	if err != nil {
		return nil, err
	}

	board := make(KanbanBoard, len(constants.AllTaskStates))
	for _, state := range constants.AllTaskStates {
		board[state] = []model.Task{}
	}

	for _, task := range tasks {
		if _, known := board[task.State]; known {
			board[task.State] = append(board[task.State], task)
		}
	}

	for _, state := range constants.AllTaskStates {
		slices.SortStableFunc(board[state], compareSchedule)
	}
	return board, nil
}

// Upcoming covers today through today+daysAhead inclusive.
func (s *TaskQueryService) Upcoming(ctx context.Context, workspaceID string, daysAhead int, userID string, req pagination.Request) (pagination.Page[model.Task], error) {
	if err := s.authorize(ctx, workspaceID, userID); err != nil {
		return pagination.Page[model.Task]{}, err
	}

	if daysAhead < 0 {
		return pagination.Page[model.Task]{}, apperrors.ErrNegativeDaysAhead
	}

	p, err := pagination.ResolveFixed(req, sortDayAsc, sortStartTimeAsc)
	if err != nil {
		return pagination.Page[model.Task]{}, err
	}

	today := dateOf(s.Now())
	until := today.AddDate(0, 0, daysAhead)

	return s.page(ctx, repository.TaskFilter{WorkspaceID: workspaceID, DayFrom: &today, DayTo: &until}, p)
}

// Overdue lists unfinished tasks scheduled before today, latest day first.
// Tasks on the same day keep creation order.
func (s *TaskQueryService) Overdue(ctx context.Context, workspaceID, userID string, req pagination.Request) (pagination.Page[model.Task], error) {
	if err := s.authorize(ctx, workspaceID, userID); err != nil {
		return pagination.Page[model.Task]{}, err
	}

	p, err := pagination.ResolveFixed(req, sortDayDesc)
	if err != nil {
		return pagination.Page[model.Task]{}, err
	}

	today := dateOf(s.Now())
	done := constants.StateDone

	return s.page(ctx, repository.TaskFilter{WorkspaceID: workspaceID, DayBefore: &today, ExcludeState: &done}, p)
}

func (s *TaskQueryService) Statistics(ctx context.Context, workspaceID, userID string) (*TaskStatistics, error) {
	if err := s.authorize(ctx, workspaceID, userID); err != nil {
		return nil, err
	}

	counts, err := s.tasks.CountByState(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	stats := &TaskStatistics{CountByState: make(map[constants.TaskState]int64, len(constants.AllTaskStates))}
	for _, state := range constants.AllTaskStates {
		stats.CountByState[state] = counts[state]
	}
	for _, n := range counts {
		stats.TotalTasks += n
	}

	today := dateOf(s.Now())
	days, err := s.tasks.CountByDay(ctx, workspaceID, today, today.AddDate(0, 0, upcomingWindowDays-1))
	if err != nil {
		return nil, err
	}

	for _, d := range days {
		if d.Day.Equal(today) {
			stats.TodayTasks = d.Count
		}
		stats.UpcomingTasks += d.Count
	}
	return stats, nil
}

// DayLoad reports how many tasks fall on each day of [from, to].
func (s *TaskQueryService) DayLoad(ctx context.Context, workspaceID string, from, to time.Time, userID string) ([]repository.DayCount, error) {
	if err := s.authorize(ctx, workspaceID, userID); err != nil {
		return nil, err
	}

	from, to = dateOf(from), dateOf(to)
	if to.Before(from) {
		return nil, apperrors.InvalidArgument("end date %s is before start date %s", to.Format(time.DateOnly), from.Format(time.DateOnly))
	}

	return s.tasks.CountByDay(ctx, workspaceID, from, to)
}

func (s *TaskQueryService) authorize(ctx context.Context, workspaceID, userID string) error {
	if _, err := s.workspaces.FindByID(ctx, workspaceID); err != nil {
		return err
	}

	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return err
	}

	return s.guard.RequireMembership(ctx, userID, workspaceID)
}

func (s *TaskQueryService) page(ctx context.Context, filter repository.TaskFilter, p pagination.Pageable) (pagination.Page[model.Task], error) {
	tasks, total, err := s.tasks.Find(ctx, filter, p)
	if err != nil {
		return pagination.Page[model.Task]{}, err
	}
	return pagination.NewPage(tasks, p, total), nil
}

// unpaged walks every page of view and concatenates the contents.
func (s *TaskQueryService) unpaged(view func(pagination.Request) (pagination.Page[model.Task], error)) ([]model.Task, error) {
	size := pagination.MaxSize
	var all []model.Task

	for pageNo := 0; ; pageNo++ {
		n := pageNo
		page, err := view(pagination.Request{Page: &n, Size: &size})
		if err != nil {
			return nil, err
		}
		all = append(all, page.Content...)
		if page.Last {
			break
		}
	}

	if all == nil {
		all = []model.Task{}
	}
	return all, nil
}

func applyMemberFilter(page pagination.Page[model.Task], userID string, filter constants.MemberFilter) pagination.Page[model.Task] {
	if filter != constants.MemberFilterOnlyMine {
		return page
	}
	return pagination.Refilter(page, func(t model.Task) bool {
		return t.Involves(userID)
	})
}

// compareSchedule orders by day then start time, nil values first.
func compareSchedule(a, b model.Task) int {
	if c := compareNilsFirstTime(a.Day, b.Day); c != 0 {
		return c
	}
	return compareNilsFirst(a.StartTime, b.StartTime)
}

func compareNilsFirst[T cmp.Ordered](a, b *T) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return cmp.Compare(*a, *b)
	}
}

func compareNilsFirstTime(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return a.Compare(*b)
	}
}
