package services

import (
	"context"
	"time"

	"task-manager.com/task-manager/internal/constants"
	model "task-manager.com/task-manager/internal/models"
	"task-manager.com/task-manager/internal/pagination"
	repository "task-manager.com/task-manager/internal/repositories"
)

type UserStore interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByIDs(ctx context.Context, ids []string) ([]model.User, error)
}

type WorkspaceStore interface {
	FindByID(ctx context.Context, id string) (*model.Workspace, error)
}

type MembershipStore interface {
	// Find returns repository.ErrMembershipNotFound when no row exists.
	Find(ctx context.Context, userID, workspaceID string) (*model.WorkspaceMembership, error)
}

type TagStore interface {
	FindByIDs(ctx context.Context, ids []string) ([]model.Tag, error)
}

// TaskReader is everything the read-only operations need. It may be backed by
// a replica connection.
type TaskReader interface {
	FindByID(ctx context.Context, id string) (*model.Task, error)
	Find(ctx context.Context, filter repository.TaskFilter, p pagination.Pageable) ([]model.Task, int64, error)
	FindAll(ctx context.Context, filter repository.TaskFilter, sorts ...pagination.Sort) ([]model.Task, error)
	CountByState(ctx context.Context, workspaceID string) (map[constants.TaskState]int64, error)
	CountByDay(ctx context.Context, workspaceID string, from, to time.Time) ([]repository.DayCount, error)
}

type TaskStore interface {
	TaskReader
	Create(ctx context.Context, task *model.Task) error
	Update(ctx context.Context, task *model.Task, replaceSideUsers, replaceTags bool) error
	Delete(ctx context.Context, id string) error
}

// dateOf drops the clock part of t, keeping its calendar date, at UTC midnight.
func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
