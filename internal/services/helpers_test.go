package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"task-manager.com/task-manager/internal/constants"
	model "task-manager.com/task-manager/internal/models"
	repository "task-manager.com/task-manager/internal/repositories"
)

var fixedNow = time.Date(2024, 1, 3, 10, 30, 0, 0, time.UTC)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	if err := db.AutoMigrate(model.AllModels()...); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

type testEnv struct {
	ctx         context.Context
	db          *gorm.DB
	users       *repository.UserRepository
	workspaces  *repository.WorkspaceRepository
	memberships *repository.MembershipRepository
	tags        *repository.TagRepository
	tasks       *repository.TaskRepository
	guard       *Guard
	mutations   *TaskService
	queries     *TaskQueryService
	workspace   *model.Workspace
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := setupTestDB(t)
	env := &testEnv{
		ctx:         context.Background(),
		db:          db,
		users:       repository.NewUserRepository(db),
		workspaces:  repository.NewWorkspaceRepository(db),
		memberships: repository.NewMembershipRepository(db),
		tags:        repository.NewTagRepository(db),
		tasks:       repository.NewTaskRepository(db),
	}

	env.guard = NewGuard(env.memberships)
	env.mutations = NewTaskService(env.tasks, env.users, env.workspaces, env.tags, env.guard, nil)
	env.mutations.Now = func() time.Time { return fixedNow }
	env.queries = NewTaskQueryService(env.tasks, env.users, env.workspaces, env.guard)
	env.queries.Now = func() time.Time { return fixedNow }

	env.workspace = env.newWorkspace(t, "Team")
	return env
}

// tickCreation makes every later task creation one minute after the previous
// one, so creation order is observable.
func (e *testEnv) tickCreation() {
	next := fixedNow.Add(-24 * time.Hour)
	e.mutations.Now = func() time.Time {
		next = next.Add(time.Minute)
		return next
	}
}

func (e *testEnv) newWorkspace(t *testing.T, name string) *model.Workspace {
	t.Helper()

	ws := &model.Workspace{Name: name}
	require.NoError(t, e.workspaces.Create(e.ctx, ws))
	return ws
}

func (e *testEnv) newUser(t *testing.T, username string) *model.User {
	t.Helper()

	u := &model.User{Username: username, Email: username + "@example.com"}
	require.NoError(t, e.users.Create(e.ctx, u))
	return u
}

// newMember creates a user with an active, accepted membership in the
// default workspace.
func (e *testEnv) newMember(t *testing.T, username string, role constants.WorkspaceRole) *model.User {
	t.Helper()

	u := e.newUser(t, username)
	e.join(t, u, e.workspace, role, constants.InvitationActive, constants.AccountActive)
	return u
}

func (e *testEnv) join(
	t *testing.T,
	u *model.User,
	ws *model.Workspace,
	role constants.WorkspaceRole,
	invitation constants.InvitationStatus,
	account constants.AccountState,
) *model.WorkspaceMembership {
	t.Helper()

	m := &model.WorkspaceMembership{
		UserID:           u.ID,
		WorkspaceID:      ws.ID,
		Role:             role,
		InvitationStatus: invitation,
		AccountState:     account,
	}
	require.NoError(t, e.memberships.Create(e.ctx, m))
	return m
}

func (e *testEnv) newTag(t *testing.T, ws *model.Workspace, name string) *model.Tag {
	t.Helper()

	tag := &model.Tag{Name: name, Color: "#00ff00", WorkspaceID: ws.ID}
	require.NoError(t, e.tags.Create(e.ctx, tag))
	return tag
}

func (e *testEnv) createTask(t *testing.T, creator *model.User, draft TaskDraft) *model.Task {
	t.Helper()

	if draft.WorkspaceID == "" {
		draft.WorkspaceID = e.workspace.ID
	}
	if draft.PrincipalUserID == "" {
		draft.PrincipalUserID = creator.ID
	}
	if draft.Title == "" {
		draft.Title = "Task"
	}

	task, err := e.mutations.Create(e.ctx, draft, creator.ID)
	require.NoError(t, err)
	return task
}

func day(y int, m time.Month, d int) *time.Time {
	v := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &v
}

func clock(v string) *string {
	return &v
}

func titles(tasks []model.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Title)
	}
	return out
}
