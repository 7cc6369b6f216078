package services

import (
	"context"
	"fmt"
	"log"
	"slices"
	"time"

	"task-manager.com/task-manager/internal/constants"
	apperrors "task-manager.com/task-manager/internal/errors"
	model "task-manager.com/task-manager/internal/models"
)

// TaskDraft is a validated create request. A nil State means TO_DO.
type TaskDraft struct {
	WorkspaceID     string
	PrincipalUserID string
	Title           string
	Description     string
	Color           string
	State           *constants.TaskState
	Day             *time.Time
	StartTime       *string
	EndTime         *string
	SideUserIDs     []string
	TagIDs          []string
}

// TaskPatch carries a partial update. Nil fields leave the task untouched; a
// non-nil empty SideUserIDs or TagIDs clears the set.
type TaskPatch struct {
	Title           *string
	Description     *string
	Color           *string
	State           *constants.TaskState
	Day             *time.Time
	StartTime       *string
	EndTime         *string
	PrincipalUserID *string
	SideUserIDs     *[]string
	TagIDs          *[]string
	// ExpectedVersion, when set, must equal the stored version.
	ExpectedVersion *uint
}

type TaskService struct {
	tasks      TaskStore
	users      UserStore
	workspaces WorkspaceStore
	tags       TagStore
	guard      *Guard
	transition TransitionPolicy

	Now func() time.Time
}

func NewTaskService(
	tasks TaskStore,
	users UserStore,
	workspaces WorkspaceStore,
	tags TagStore,
	guard *Guard,
	transition TransitionPolicy,
) *TaskService {
	if transition == nil {
		transition = AllowAllTransitions{}
	}

	return &TaskService{
		tasks:      tasks,
		users:      users,
		workspaces: workspaces,
		tags:       tags,
		guard:      guard,
		transition: transition,
		Now:        time.Now,
	}
}

func (s *TaskService) Create(ctx context.Context, draft TaskDraft, creatorID string) (*model.Task, error) {
	log.Printf("creating task in workspace %s by %s", draft.WorkspaceID, creatorID)

	if _, err := s.users.FindByID(ctx, creatorID); err != nil {
		return nil, err
	}

	workspace, err := s.workspaces.FindByID(ctx, draft.WorkspaceID)
	if err != nil {
		return nil, err
	}

	if err := s.guard.RequireRole(ctx, creatorID, workspace.ID, constants.RoleEditor); err != nil {
		return nil, err
	}

	principal, err := s.resolvePrincipal(ctx, draft.PrincipalUserID, workspace.ID)
	if err != nil {
		return nil, err
	}

	sideUsers, err := s.resolveSideUsers(ctx, draft.SideUserIDs, workspace.ID)
	if err != nil {
		return nil, err
	}

	tags, err := s.resolveTags(ctx, draft.TagIDs, workspace.ID)
	if err != nil {
		return nil, err
	}

	state := constants.StateToDo
	if draft.State != nil {
		if !draft.State.Valid() {
			return nil, apperrors.InvalidArgument("unknown task state %q", *draft.State)
		}
		state = *draft.State
	}

	now := s.Now().UTC()
	task := &model.Task{
		Title:           draft.Title,
		Description:     draft.Description,
		Color:           draft.Color,
		State:           state,
		Day:             normalizeDay(draft.Day),
		StartTime:       draft.StartTime,
		EndTime:         draft.EndTime,
		WorkspaceID:     workspace.ID,
		PrincipalUserID: principal.ID,
		PrincipalUser:   *principal,
		SideUsers:       sideUsers,
		Tags:            tags,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}

	log.Printf("task %s created in workspace %s", task.ID, workspace.ID)
	return s.tasks.FindByID(ctx, task.ID)
}

func (s *TaskService) Update(ctx context.Context, taskID string, patch TaskPatch, editorID string) (*model.Task, error) {
	log.Printf("updating task %s by %s", taskID, editorID)

	task, err := s.loadEditable(ctx, taskID, editorID)
	if err != nil {
		return nil, err
	}

	if patch.ExpectedVersion != nil && *patch.ExpectedVersion != task.Version {
		return nil, apperrors.ErrOptimisticLock
	}

	if patch.Title != nil {
		task.Title = *patch.Title
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Color != nil {
		task.Color = *patch.Color
	}
	if patch.State != nil {
		if !patch.State.Valid() {
			return nil, apperrors.InvalidArgument("unknown task state %q", *patch.State)
		}
		if err := s.transition.Validate(task.State, *patch.State); err != nil {
			return nil, err
		}
		task.State = *patch.State
	}
	if patch.Day != nil {
		task.Day = normalizeDay(patch.Day)
	}
	if patch.StartTime != nil {
		task.StartTime = patch.StartTime
	}
	if patch.EndTime != nil {
		task.EndTime = patch.EndTime
	}

	if patch.PrincipalUserID != nil {
		principal, err := s.resolvePrincipal(ctx, *patch.PrincipalUserID, task.WorkspaceID)
		if err != nil {
			return nil, err
		}
		task.PrincipalUserID = principal.ID
		task.PrincipalUser = *principal
	}

	if patch.SideUserIDs != nil {
		sideUsers, err := s.resolveSideUsers(ctx, *patch.SideUserIDs, task.WorkspaceID)
		if err != nil {
			return nil, err
		}
		task.SideUsers = sideUsers
	}

	if patch.TagIDs != nil {
		tags, err := s.resolveTags(ctx, *patch.TagIDs, task.WorkspaceID)
		if err != nil {
			return nil, err
		}
		task.Tags = tags
	}

	task.UpdatedAt = s.Now().UTC()

	if err := s.tasks.Update(ctx, task, patch.SideUserIDs != nil, patch.TagIDs != nil); err != nil {
		return nil, err
	}

	log.Printf("task %s updated to version %d", task.ID, task.Version)
	return s.tasks.FindByID(ctx, task.ID)
}

func (s *TaskService) Delete(ctx context.Context, taskID, userID string) error {
	log.Printf("deleting task %s by %s", taskID, userID)

	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return err
	}

	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return err
	}

	if err := s.guard.RequireMembership(ctx, userID, task.WorkspaceID); err != nil {
		return err
	}

	ok, err := s.guard.CanDeleteTask(ctx, task, userID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.PermissionDenied(string(ReasonInsufficientRole), "only the principal user or an admin can delete this task")
	}

	if err := s.tasks.Delete(ctx, task.ID); err != nil {
		return err
	}

	log.Printf("task %s deleted", task.ID)
	return nil
}

func (s *TaskService) ChangeState(ctx context.Context, taskID string, state constants.TaskState, userID string) (*model.Task, error) {
	log.Printf("changing state of task %s to %s by %s", taskID, state, userID)

	if !state.Valid() {
		return nil, apperrors.InvalidArgument("unknown task state %q", state)
	}

	task, err := s.loadEditable(ctx, taskID, userID)
	if err != nil {
		return nil, err
	}

	if err := s.transition.Validate(task.State, state); err != nil {
		return nil, err
	}

	task.State = state
	task.UpdatedAt = s.Now().UTC()

	if err := s.tasks.Update(ctx, task, false, false); err != nil {
		return nil, err
	}

	return task, nil
}

func (s *TaskService) loadEditable(ctx context.Context, taskID, userID string) (*model.Task, error) {
	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, err
	}

	// Principal and side-user grants only apply to active members.
	if err := s.guard.RequireMembership(ctx, userID, task.WorkspaceID); err != nil {
		return nil, err
	}

	ok, err := s.guard.CanEditTask(ctx, task, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.PermissionDenied(string(ReasonInsufficientRole), "user cannot edit this task")
	}

	return task, nil
}

func (s *TaskService) resolvePrincipal(ctx context.Context, userID, workspaceID string) (*model.User, error) {
	principal, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindNotFound {
			return nil, apperrors.ErrPrincipalUserNotFound
		}
		return nil, err
	}

	if err := s.requireActiveMember(ctx, principal, workspaceID); err != nil {
		return nil, err
	}
	return principal, nil
}

func (s *TaskService) resolveSideUsers(ctx context.Context, ids []string, workspaceID string) ([]model.User, error) {
	ids = uniqueIDs(ids)

	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(users) != len(ids) {
		return nil, apperrors.ErrUserNotFound
	}

	for i := range users {
		if err := s.requireActiveMember(ctx, &users[i], workspaceID); err != nil {
			return nil, err
		}
	}
	return users, nil
}

func (s *TaskService) resolveTags(ctx context.Context, ids []string, workspaceID string) ([]model.Tag, error) {
	ids = uniqueIDs(ids)

	tags, err := s.tags.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(tags) != len(ids) {
		return nil, apperrors.ErrTagNotFound
	}

	for _, tag := range tags {
		if tag.WorkspaceID != workspaceID {
			return nil, apperrors.BusinessRule("tag '%s' does not belong to the workspace", tag.Name)
		}
	}
	return tags, nil
}

func (s *TaskService) requireActiveMember(ctx context.Context, user *model.User, workspaceID string) error {
	d, err := s.guard.CheckMembership(ctx, user.ID, workspaceID)
	if err != nil {
		return err
	}
	if !d.Allowed {
		return apperrors.PermissionDenied(
			string(d.Reason),
			fmt.Sprintf("user %s is not an active member of the workspace", user.Username),
		)
	}
	return nil
}

func normalizeDay(day *time.Time) *time.Time {
	if day == nil {
		return nil
	}
	d := dateOf(*day)
	return &d
}

func uniqueIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
