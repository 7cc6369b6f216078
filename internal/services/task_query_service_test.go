package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-manager.com/task-manager/internal/constants"
	apperrors "task-manager.com/task-manager/internal/errors"
	"task-manager.com/task-manager/internal/pagination"
)

func intPtr(v int) *int { return &v }

func statePtr(s constants.TaskState) *constants.TaskState { return &s }

func TestTaskQueryService_WeeklyViewOnlyMine(t *testing.T) {
	env := newTestEnv(t)
	me := env.newMember(t, "me", constants.RoleEditor)
	other := env.newMember(t, "other", constants.RoleEditor)

	env.createTask(t, me, TaskDraft{Title: "mine", Day: day(2024, 1, 2)})
	env.createTask(t, other, TaskDraft{Title: "shared", Day: day(2024, 1, 4), SideUserIDs: []string{me.ID}})
	env.createTask(t, other, TaskDraft{Title: "o1", Day: day(2024, 1, 1)})
	env.createTask(t, other, TaskDraft{Title: "o2", Day: day(2024, 1, 5)})
	env.createTask(t, other, TaskDraft{Title: "o3", Day: day(2024, 1, 7)})
	env.createTask(t, me, TaskDraft{Title: "next week", Day: day(2024, 1, 8)})

	weekStart := time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC)

	all, err := env.queries.WeeklyView(env.ctx, env.workspace.ID, weekStart, me.ID, constants.MemberFilterAll, pagination.Request{})
	require.NoError(t, err)
	assert.Equal(t, []string{"o1", "mine", "shared", "o2", "o3"}, titles(all.Content))
	assert.Equal(t, int64(5), all.TotalElements)

	mine, err := env.queries.WeeklyView(env.ctx, env.workspace.ID, weekStart, me.ID, constants.MemberFilterOnlyMine, pagination.Request{})
	require.NoError(t, err)
	assert.Equal(t, []string{"mine", "shared"}, titles(mine.Content))
	assert.Equal(t, 2, mine.NumberOfElements)
	assert.Equal(t, int64(5), mine.TotalElements)
	assert.Equal(t, 1, mine.TotalPages)
}

func TestTaskQueryService_WeeklyList(t *testing.T) {
	env := newTestEnv(t)
	me := env.newMember(t, "me", constants.RoleEditor)
	other := env.newMember(t, "other", constants.RoleEditor)

	env.createTask(t, me, TaskDraft{Title: "mine", Day: day(2024, 1, 3)})
	env.createTask(t, other, TaskDraft{Title: "theirs", Day: day(2024, 1, 2)})

	tasks, err := env.queries.WeeklyList(env.ctx, env.workspace.ID, *day(2024, 1, 1), me.ID, constants.MemberFilterOnlyMine)
	require.NoError(t, err)
	assert.Equal(t, []string{"mine"}, titles(tasks))

	empty, err := env.queries.WeeklyList(env.ctx, env.workspace.ID, *day(2025, 1, 1), me.ID, constants.MemberFilterAll)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestTaskQueryService_DailyViewNilStartFirst(t *testing.T) {
	env := newTestEnv(t)
	me := env.newMember(t, "me", constants.RoleEditor)

	env.createTask(t, me, TaskDraft{Title: "late", Day: day(2024, 1, 3), StartTime: clock("10:00")})
	env.createTask(t, me, TaskDraft{Title: "anytime", Day: day(2024, 1, 3)})
	env.createTask(t, me, TaskDraft{Title: "early", Day: day(2024, 1, 3), StartTime: clock("08:00")})
	env.createTask(t, me, TaskDraft{Title: "tomorrow", Day: day(2024, 1, 4), StartTime: clock("07:00")})

	page, err := env.queries.DailyView(env.ctx, env.workspace.ID, fixedNow, me.ID, constants.MemberFilterAll, pagination.Request{})
	require.NoError(t, err)
	assert.Equal(t, []string{"anytime", "early", "late"}, titles(page.Content))

	list, err := env.queries.DailyList(env.ctx, env.workspace.ID, fixedNow, me.ID, constants.MemberFilterOnlyMine)
	require.NoError(t, err)
	assert.Equal(t, []string{"anytime", "early", "late"}, titles(list))
}

func TestTaskQueryService_KanbanEmptyWorkspace(t *testing.T) {
	env := newTestEnv(t)
	me := env.newMember(t, "me", constants.RoleViewer)

	board, err := env.queries.KanbanView(env.ctx, env.workspace.ID, me.ID)
	require.NoError(t, err)

	require.Len(t, board, 3)
	for _, state := range constants.AllTaskStates {
		tasks, ok := board[state]
		assert.True(t, ok, "missing %s", state)
		assert.NotNil(t, tasks)
		assert.Empty(t, tasks)
	}
}

func TestTaskQueryService_KanbanGroupsAndOrders(t *testing.T) {
	env := newTestEnv(t)
	me := env.newMember(t, "me", constants.RoleEditor)

	env.createTask(t, me, TaskDraft{Title: "later", Day: day(2024, 1, 5)})
	env.createTask(t, me, TaskDraft{Title: "afternoon", Day: day(2024, 1, 4), StartTime: clock("14:00")})
	env.createTask(t, me, TaskDraft{Title: "morning", Day: day(2024, 1, 4), StartTime: clock("09:00")})
	env.createTask(t, me, TaskDraft{Title: "unscheduled"})
	env.createTask(t, me, TaskDraft{Title: "working", State: statePtr(constants.StateInProgress), Day: day(2024, 1, 1)})

	board, err := env.queries.KanbanView(env.ctx, env.workspace.ID, me.ID)
	require.NoError(t, err)

	assert.Equal(t, []string{"unscheduled", "morning", "afternoon", "later"}, titles(board[constants.StateToDo]))
	assert.Equal(t, []string{"working"}, titles(board[constants.StateInProgress]))
	assert.Empty(t, board[constants.StateDone])
}

func TestTaskQueryService_OverdueExcludesDone(t *testing.T) {
	env := newTestEnv(t)
	me := env.newMember(t, "me", constants.RoleEditor)

	env.tickCreation()

	env.createTask(t, me, TaskDraft{Title: "first", Day: day(2024, 1, 1), StartTime: clock("08:00")})
	env.createTask(t, me, TaskDraft{Title: "finished", Day: day(2024, 1, 2), State: statePtr(constants.StateDone)})
	env.createTask(t, me, TaskDraft{Title: "stuck", Day: day(2024, 1, 2), State: statePtr(constants.StateInProgress)})
	env.createTask(t, me, TaskDraft{Title: "today", Day: day(2024, 1, 3)})
	env.createTask(t, me, TaskDraft{Title: "undated"})
	env.createTask(t, me, TaskDraft{Title: "second", Day: day(2024, 1, 1), StartTime: clock("17:00")})

	page, err := env.queries.Overdue(env.ctx, env.workspace.ID, me.ID, pagination.Request{})
	require.NoError(t, err)

	// same-day tasks stay in creation order whatever their start time
	assert.Equal(t, []string{"stuck", "first", "second"}, titles(page.Content))
	assert.Equal(t, int64(3), page.TotalElements)
	for _, task := range page.Content {
		assert.NotEqual(t, constants.StateDone, task.State)
	}
}

func TestTaskQueryService_Upcoming(t *testing.T) {
	env := newTestEnv(t)
	me := env.newMember(t, "me", constants.RoleEditor)

	env.createTask(t, me, TaskDraft{Title: "yesterday", Day: day(2024, 1, 2)})
	env.createTask(t, me, TaskDraft{Title: "today late", Day: day(2024, 1, 3), StartTime: clock("17:00")})
	env.createTask(t, me, TaskDraft{Title: "today early", Day: day(2024, 1, 3), StartTime: clock("08:00")})
	env.createTask(t, me, TaskDraft{Title: "in two days", Day: day(2024, 1, 5)})
	env.createTask(t, me, TaskDraft{Title: "in three days", Day: day(2024, 1, 6)})

	page, err := env.queries.Upcoming(env.ctx, env.workspace.ID, 2, me.ID, pagination.Request{})
	require.NoError(t, err)
	assert.Equal(t, []string{"today early", "today late", "in two days"}, titles(page.Content))

	page, err = env.queries.Upcoming(env.ctx, env.workspace.ID, 0, me.ID, pagination.Request{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.TotalElements)

	_, err = env.queries.Upcoming(env.ctx, env.workspace.ID, -1, me.ID, pagination.Request{})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidArgument))
}

func TestTaskQueryService_Statistics(t *testing.T) {
	env := newTestEnv(t)
	me := env.newMember(t, "me", constants.RoleEditor)

	env.createTask(t, me, TaskDraft{Day: day(2024, 1, 3)})
	env.createTask(t, me, TaskDraft{Day: day(2024, 1, 3), State: statePtr(constants.StateDone)})
	env.createTask(t, me, TaskDraft{Day: day(2024, 1, 5), State: statePtr(constants.StateInProgress)})
	env.createTask(t, me, TaskDraft{Day: day(2024, 1, 9)})
	env.createTask(t, me, TaskDraft{Day: day(2024, 1, 10)})
	env.createTask(t, me, TaskDraft{Day: day(2024, 1, 1), State: statePtr(constants.StateDone)})
	env.createTask(t, me, TaskDraft{})

	stats, err := env.queries.Statistics(env.ctx, env.workspace.ID, me.ID)
	require.NoError(t, err)

	assert.Equal(t, map[constants.TaskState]int64{
		constants.StateToDo:       4,
		constants.StateInProgress: 1,
		constants.StateDone:       2,
	}, stats.CountByState)
	assert.Equal(t, int64(7), stats.TotalTasks)
	assert.Equal(t, int64(2), stats.TodayTasks)
	assert.Equal(t, int64(4), stats.UpcomingTasks)
}

func TestTaskQueryService_StatisticsEmptyWorkspace(t *testing.T) {
	env := newTestEnv(t)
	me := env.newMember(t, "me", constants.RoleViewer)

	stats, err := env.queries.Statistics(env.ctx, env.workspace.ID, me.ID)
	require.NoError(t, err)

	assert.Len(t, stats.CountByState, 3)
	for _, state := range constants.AllTaskStates {
		assert.Zero(t, stats.CountByState[state])
	}
	assert.Zero(t, stats.TotalTasks)
}

func TestTaskQueryService_FilterTagPostFilterKeepsTotals(t *testing.T) {
	env := newTestEnv(t)
	me := env.newMember(t, "me", constants.RoleEditor)
	urgent := env.newTag(t, env.workspace, "urgent")

	env.createTask(t, me, TaskDraft{Title: "a"})
	env.createTask(t, me, TaskDraft{Title: "b", TagIDs: []string{urgent.ID}})
	env.createTask(t, me, TaskDraft{Title: "c"})

	page, err := env.queries.Filter(env.ctx, TaskCriteria{
		WorkspaceID: env.workspace.ID,
		TagIDs:      []string{urgent.ID, "unknown"},
	}, me.ID, pagination.Request{SortBy: "title", Direction: "asc"})
	require.NoError(t, err)

	assert.Equal(t, []string{"b"}, titles(page.Content))
	assert.Equal(t, 1, page.NumberOfElements)
	assert.Equal(t, int64(3), page.TotalElements)
}

func TestTaskQueryService_FilterConjunction(t *testing.T) {
	env := newTestEnv(t)
	me := env.newMember(t, "me", constants.RoleEditor)
	other := env.newMember(t, "other", constants.RoleEditor)

	env.createTask(t, me, TaskDraft{Title: "Write report", Day: day(2024, 1, 2)})
	env.createTask(t, me, TaskDraft{Title: "Review", Description: "the REPORT draft", Day: day(2024, 1, 4), State: statePtr(constants.StateInProgress)})
	env.createTask(t, other, TaskDraft{Title: "Report 100%", Day: day(2024, 1, 3), SideUserIDs: []string{me.ID}})
	env.createTask(t, other, TaskDraft{Title: "Other report", Day: day(2024, 1, 3)})
	env.createTask(t, me, TaskDraft{Title: "Groceries", Day: day(2024, 1, 3)})

	asc := pagination.Request{SortBy: "title", Direction: "ASC"}

	page, err := env.queries.Filter(env.ctx, TaskCriteria{
		WorkspaceID: env.workspace.ID,
		UserID:      me.ID,
		Search:      " report ",
	}, me.ID, asc)
	require.NoError(t, err)
	assert.Equal(t, []string{"Report 100%", "Review", "Write report"}, titles(page.Content))

	page, err = env.queries.Filter(env.ctx, TaskCriteria{
		WorkspaceID: env.workspace.ID,
		StartDate:   day(2024, 1, 3),
		EndDate:     day(2024, 1, 4),
		Search:      "report",
	}, me.ID, asc)
	require.NoError(t, err)
	assert.Equal(t, []string{"Other report", "Report 100%", "Review"}, titles(page.Content))

	page, err = env.queries.Filter(env.ctx, TaskCriteria{
		WorkspaceID: env.workspace.ID,
		State:       statePtr(constants.StateInProgress),
	}, me.ID, asc)
	require.NoError(t, err)
	assert.Equal(t, []string{"Review"}, titles(page.Content))

	page, err = env.queries.Filter(env.ctx, TaskCriteria{
		WorkspaceID: env.workspace.ID,
		Search:      "100%",
	}, me.ID, asc)
	require.NoError(t, err)
	assert.Equal(t, []string{"Report 100%"}, titles(page.Content))
}

func TestTaskQueryService_SearchSortsByTitle(t *testing.T) {
	env := newTestEnv(t)
	me := env.newMember(t, "me", constants.RoleEditor)

	env.createTask(t, me, TaskDraft{Title: "beta plan"})
	env.createTask(t, me, TaskDraft{Title: "alpha plan"})
	env.createTask(t, me, TaskDraft{Title: "gamma"})

	page, err := env.queries.Search(env.ctx, env.workspace.ID, "PLAN", me.ID, pagination.Request{SortBy: "day"})
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha plan", "beta plan"}, titles(page.Content))
}

func TestTaskQueryService_SearchIgnoresCaseBeyondASCII(t *testing.T) {
	env := newTestEnv(t)
	me := env.newMember(t, "me", constants.RoleEditor)

	env.createTask(t, me, TaskDraft{Title: "ÉTÉ PLAN"})
	env.createTask(t, me, TaskDraft{Title: "Winter", Description: "Ölwechsel"})

	page, err := env.queries.Search(env.ctx, env.workspace.ID, "été", me.ID, pagination.Request{})
	require.NoError(t, err)
	assert.Equal(t, []string{"ÉTÉ PLAN"}, titles(page.Content))

	page, err = env.queries.Filter(env.ctx, TaskCriteria{WorkspaceID: env.workspace.ID, Search: "été"}, me.ID, pagination.Request{})
	require.NoError(t, err)
	assert.Equal(t, []string{"ÉTÉ PLAN"}, titles(page.Content))

	page, err = env.queries.Search(env.ctx, env.workspace.ID, "ÖLWECHSEL", me.ID, pagination.Request{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Winter"}, titles(page.Content))
}

func TestTaskQueryService_ByUserAndByState(t *testing.T) {
	env := newTestEnv(t)
	me := env.newMember(t, "me", constants.RoleEditor)
	other := env.newMember(t, "other", constants.RoleEditor)

	env.createTask(t, other, TaskDraft{Title: "theirs", Day: day(2024, 1, 4)})
	env.createTask(t, other, TaskDraft{Title: "helping", Day: day(2024, 1, 2), SideUserIDs: []string{me.ID}})
	env.createTask(t, me, TaskDraft{Title: "done", Day: day(2024, 1, 1), State: statePtr(constants.StateDone)})

	page, err := env.queries.ByUser(env.ctx, env.workspace.ID, me.ID, other.ID, pagination.Request{SortBy: "day", Direction: "asc"})
	require.NoError(t, err)
	assert.Equal(t, []string{"done", "helping"}, titles(page.Content))

	_, err = env.queries.ByUser(env.ctx, env.workspace.ID, "ghost", me.ID, pagination.Request{})
	assert.True(t, errors.Is(err, apperrors.ErrTargetUserNotFound))

	page, err = env.queries.ByState(env.ctx, env.workspace.ID, constants.StateToDo, me.ID, pagination.Request{})
	require.NoError(t, err)
	assert.Equal(t, []string{"helping", "theirs"}, titles(page.Content))

	_, err = env.queries.ByState(env.ctx, env.workspace.ID, constants.TaskState("LATER"), me.ID, pagination.Request{})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidArgument))
}

func TestTaskQueryService_ListByWorkspacePaging(t *testing.T) {
	env := newTestEnv(t)
	me := env.newMember(t, "me", constants.RoleEditor)
	for _, title := range []string{"c", "a", "b"} {
		env.createTask(t, me, TaskDraft{Title: title})
	}

	page, err := env.queries.ListByWorkspace(env.ctx, env.workspace.ID, me.ID, pagination.Request{
		Page: intPtr(1), Size: intPtr(2), SortBy: "title",
	})
	require.NoError(t, err)
	// no direction means descending
	assert.Equal(t, []string{"a"}, titles(page.Content))
	assert.Equal(t, int64(3), page.TotalElements)
	assert.Equal(t, 2, page.TotalPages)
	assert.True(t, page.Last)
	assert.False(t, page.First)

	page, err = env.queries.ListByWorkspace(env.ctx, env.workspace.ID, me.ID, pagination.Request{Size: intPtr(500)})
	require.NoError(t, err)
	assert.Equal(t, pagination.MaxSize, page.PageSize)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, titles(page.Content))

	_, err = env.queries.ListByWorkspace(env.ctx, env.workspace.ID, me.ID, pagination.Request{Page: intPtr(-1)})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidArgument))

	_, err = env.queries.ListByWorkspace(env.ctx, env.workspace.ID, me.ID, pagination.Request{SortBy: "password"})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidArgument))

	all, err := env.queries.ListAll(env.ctx, env.workspace.ID, me.ID)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestTaskQueryService_DayLoad(t *testing.T) {
	env := newTestEnv(t)
	me := env.newMember(t, "me", constants.RoleEditor)

	env.createTask(t, me, TaskDraft{Day: day(2024, 1, 2)})
	env.createTask(t, me, TaskDraft{Day: day(2024, 1, 2)})
	env.createTask(t, me, TaskDraft{Day: day(2024, 1, 4)})
	env.createTask(t, me, TaskDraft{Day: day(2024, 1, 9)})

	load, err := env.queries.DayLoad(env.ctx, env.workspace.ID, *day(2024, 1, 1), *day(2024, 1, 7), me.ID)
	require.NoError(t, err)
	require.Len(t, load, 2)
	assert.True(t, load[0].Day.Equal(*day(2024, 1, 2)))
	assert.Equal(t, int64(2), load[0].Count)
	assert.True(t, load[1].Day.Equal(*day(2024, 1, 4)))
	assert.Equal(t, int64(1), load[1].Count)

	_, err = env.queries.DayLoad(env.ctx, env.workspace.ID, *day(2024, 1, 7), *day(2024, 1, 1), me.ID)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidArgument))
}

func TestTaskQueryService_NonMemberDeniedEverywhere(t *testing.T) {
	env := newTestEnv(t)
	owner := env.newMember(t, "owner", constants.RoleAdmin)
	task := env.createTask(t, owner, TaskDraft{Day: day(2024, 1, 3)})
	stranger := env.newUser(t, "stranger")
	ws := env.workspace.ID
	req := pagination.Request{}

	ops := map[string]func() error{
		"get": func() error {
			_, err := env.queries.Get(env.ctx, task.ID, stranger.ID)
			return err
		},
		"list": func() error {
			_, err := env.queries.ListByWorkspace(env.ctx, ws, stranger.ID, req)
			return err
		},
		"list all": func() error {
			_, err := env.queries.ListAll(env.ctx, ws, stranger.ID)
			return err
		},
		"filter": func() error {
			_, err := env.queries.Filter(env.ctx, TaskCriteria{WorkspaceID: ws}, stranger.ID, req)
			return err
		},
		"search": func() error {
			_, err := env.queries.Search(env.ctx, ws, "x", stranger.ID, req)
			return err
		},
		"by user": func() error {
			_, err := env.queries.ByUser(env.ctx, ws, owner.ID, stranger.ID, req)
			return err
		},
		"by state": func() error {
			_, err := env.queries.ByState(env.ctx, ws, constants.StateToDo, stranger.ID, req)
			return err
		},
		"weekly": func() error {
			_, err := env.queries.WeeklyView(env.ctx, ws, fixedNow, stranger.ID, constants.MemberFilterAll, req)
			return err
		},
		"weekly list": func() error {
			_, err := env.queries.WeeklyList(env.ctx, ws, fixedNow, stranger.ID, constants.MemberFilterAll)
			return err
		},
		"daily": func() error {
			_, err := env.queries.DailyView(env.ctx, ws, fixedNow, stranger.ID, constants.MemberFilterAll, req)
			return err
		},
		"daily list": func() error {
			_, err := env.queries.DailyList(env.ctx, ws, fixedNow, stranger.ID, constants.MemberFilterAll)
			return err
		},
		"kanban": func() error {
			_, err := env.queries.KanbanView(env.ctx, ws, stranger.ID)
			return err
		},
		"upcoming": func() error {
			_, err := env.queries.Upcoming(env.ctx, ws, 7, stranger.ID, req)
			return err
		},
		"overdue": func() error {
			_, err := env.queries.Overdue(env.ctx, ws, stranger.ID, req)
			return err
		},
		"statistics": func() error {
			_, err := env.queries.Statistics(env.ctx, ws, stranger.ID)
			return err
		},
		"day load": func() error {
			_, err := env.queries.DayLoad(env.ctx, ws, fixedNow, fixedNow, stranger.ID)
			return err
		},
	}

	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			err := op()
			assert.True(t, errors.Is(err, &apperrors.Exception{
				Kind:   apperrors.KindPermissionDenied,
				Reason: string(ReasonNotAMember),
			}), "got %v", err)
		})
	}
}

func TestTaskQueryService_UnknownWorkspaceOrUser(t *testing.T) {
	env := newTestEnv(t)
	me := env.newMember(t, "me", constants.RoleViewer)

	_, err := env.queries.KanbanView(env.ctx, "missing", me.ID)
	assert.True(t, errors.Is(err, apperrors.ErrWorkspaceNotFound))

	_, err = env.queries.KanbanView(env.ctx, env.workspace.ID, "ghost")
	assert.True(t, errors.Is(err, apperrors.ErrUserNotFound))
}

func TestTaskQueryService_GetReturnsRelations(t *testing.T) {
	env := newTestEnv(t)
	me := env.newMember(t, "me", constants.RoleEditor)
	viewer := env.newMember(t, "viewer", constants.RoleViewer)
	tag := env.newTag(t, env.workspace, "t")
	created := env.createTask(t, me, TaskDraft{SideUserIDs: []string{viewer.ID}, TagIDs: []string{tag.ID}})

	got, err := env.queries.Get(env.ctx, created.ID, viewer.ID)
	require.NoError(t, err)
	assert.Equal(t, "me", got.PrincipalUser.Username)
	require.Len(t, got.SideUsers, 1)
	assert.Equal(t, viewer.ID, got.SideUsers[0].ID)
	require.Len(t, got.Tags, 1)
	assert.Equal(t, "t", got.Tags[0].Name)
}
