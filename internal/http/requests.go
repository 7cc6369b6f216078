package http

import (
	"strings"
	"time"

	"task-manager.com/task-manager/internal/constants"
	dto "task-manager.com/task-manager/internal/data_models"
	"task-manager.com/task-manager/internal/http/validators"
	"task-manager.com/task-manager/internal/services"
)

func newTaskDraft(r *dto.TaskRequestData) (services.TaskDraft, error) {
	if err := validators.ValidateCreateTaskRequest(r); err != nil {
		return services.TaskDraft{}, err
	}

	draft := services.TaskDraft{
		WorkspaceID:     r.WorkspaceID,
		PrincipalUserID: r.PrincipalUserID,
		Title:           strings.TrimSpace(r.Title),
		Description:     r.Description,
		Color:           r.Color,
		SideUserIDs:     r.SideUserIDs,
		TagIDs:          r.TagIDs,
	}

	var err error
	if r.State != "" {
		if draft.State, err = statePtr(r.State); err != nil {
			return services.TaskDraft{}, err
		}
	}
	if r.Day != "" {
		if draft.Day, err = datePtr("day", r.Day); err != nil {
			return services.TaskDraft{}, err
		}
	}
	if r.StartTime != "" {
		if draft.StartTime, err = clockPtr("start_time", r.StartTime); err != nil {
			return services.TaskDraft{}, err
		}
	}
	if r.EndTime != "" {
		if draft.EndTime, err = clockPtr("end_time", r.EndTime); err != nil {
			return services.TaskDraft{}, err
		}
	}
	return draft, nil
}

func newTaskPatch(r *dto.UpdateTaskRequest) (services.TaskPatch, error) {
	if err := validators.ValidateUpdateTaskRequest(r); err != nil {
		return services.TaskPatch{}, err
	}

	patch := services.TaskPatch{
		Description:     r.Description,
		Color:           r.Color,
		PrincipalUserID: r.PrincipalUserID,
		SideUserIDs:     r.SideUserIDs,
		TagIDs:          r.TagIDs,
		ExpectedVersion: r.Version,
	}

	if r.Title != nil {
		title := strings.TrimSpace(*r.Title)
		patch.Title = &title
	}

	var err error
	if r.State != nil {
		if patch.State, err = statePtr(*r.State); err != nil {
			return services.TaskPatch{}, err
		}
	}
	if r.Day != nil && *r.Day != "" {
		if patch.Day, err = datePtr("day", *r.Day); err != nil {
			return services.TaskPatch{}, err
		}
	}
	if r.StartTime != nil && *r.StartTime != "" {
		if patch.StartTime, err = clockPtr("start_time", *r.StartTime); err != nil {
			return services.TaskPatch{}, err
		}
	}
	if r.EndTime != nil && *r.EndTime != "" {
		if patch.EndTime, err = clockPtr("end_time", *r.EndTime); err != nil {
			return services.TaskPatch{}, err
		}
	}
	return patch, nil
}

func newTaskCriteria(r *dto.FilterTaskRequest) (services.TaskCriteria, error) {
	if err := validators.ValidateFilterTaskRequest(r); err != nil {
		return services.TaskCriteria{}, err
	}

	criteria := services.TaskCriteria{
		WorkspaceID: r.WorkspaceID,
		UserID:      r.UserID,
		TagIDs:      r.TagIDs,
		Search:      r.Search,
	}

	var err error
	if r.State != "" {
		if criteria.State, err = statePtr(r.State); err != nil {
			return services.TaskCriteria{}, err
		}
	}
	if r.StartDate != "" {
		if criteria.StartDate, err = datePtr("start_date", r.StartDate); err != nil {
			return services.TaskCriteria{}, err
		}
	}
	if r.EndDate != "" {
		if criteria.EndDate, err = datePtr("end_date", r.EndDate); err != nil {
			return services.TaskCriteria{}, err
		}
	}
	return criteria, nil
}

func statePtr(v string) (*constants.TaskState, error) {
	state, err := validators.ParseState(v)
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func datePtr(field, v string) (*time.Time, error) {
	day, err := validators.ParseDate(field, v)
	if err != nil {
		return nil, err
	}
	return &day, nil
}

func clockPtr(field, v string) (*string, error) {
	c, err := validators.ParseClock(field, v)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
