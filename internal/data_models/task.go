package dto

import (
	"time"

	model "task-manager.com/task-manager/internal/models"
)

// TaskRequestData is the create payload. Dates are "YYYY-MM-DD" and times
// "HH:MM".
type TaskRequestData struct {
	WorkspaceID     string   `json:"workspace_id"`
	PrincipalUserID string   `json:"principal_user_id"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Color           string   `json:"color"`
	State           string   `json:"state"`
	Day             string   `json:"day"`
	StartTime       string   `json:"start_time"`
	EndTime         string   `json:"end_time"`
	SideUserIDs     []string `json:"side_user_ids"`
	TagIDs          []string `json:"tag_ids"`
}

// UpdateTaskRequest only touches the fields present in the payload.
type UpdateTaskRequest struct {
	Title           *string   `json:"title"`
	Description     *string   `json:"description"`
	Color           *string   `json:"color"`
	State           *string   `json:"state"`
	Day             *string   `json:"day"`
	StartTime       *string   `json:"start_time"`
	EndTime         *string   `json:"end_time"`
	PrincipalUserID *string   `json:"principal_user_id"`
	SideUserIDs     *[]string `json:"side_user_ids"`
	TagIDs          *[]string `json:"tag_ids"`
	Version         *uint     `json:"version"`
}

type ChangeStateRequest struct {
	State string `json:"state"`
}

type FilterTaskRequest struct {
	WorkspaceID string   `json:"workspace_id"`
	State       string   `json:"state"`
	StartDate   string   `json:"start_date"`
	EndDate     string   `json:"end_date"`
	UserID      string   `json:"user_id"`
	TagIDs      []string `json:"tag_ids"`
	Search      string   `json:"search"`
}

type UserSummary struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

type TagSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type TaskResponse struct {
	ID            string        `json:"id"`
	WorkspaceID   string        `json:"workspace_id"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	Color         string        `json:"color"`
	State         string        `json:"state"`
	Day           *string       `json:"day"`
	StartTime     *string       `json:"start_time"`
	EndTime       *string       `json:"end_time"`
	PrincipalUser UserSummary   `json:"principal_user"`
	SideUsers     []UserSummary `json:"side_users"`
	Tags          []TagSummary  `json:"tags"`
	Version       uint          `json:"version"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

type DayCountResponse struct {
	Day   string `json:"day"`
	Count int64  `json:"count"`
}

func NewUserSummary(u model.User) UserSummary {
	return UserSummary{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName(),
		Email:       u.Email,
	}
}

func NewTaskResponse(t model.Task) TaskResponse {
	resp := TaskResponse{
		ID:            t.ID,
		WorkspaceID:   t.WorkspaceID,
		Title:         t.Title,
		Description:   t.Description,
		Color:         t.Color,
		State:         string(t.State),
		StartTime:     t.StartTime,
		EndTime:       t.EndTime,
		PrincipalUser: NewUserSummary(t.PrincipalUser),
		SideUsers:     make([]UserSummary, 0, len(t.SideUsers)),
		Tags:          make([]TagSummary, 0, len(t.Tags)),
		Version:       t.Version,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}

	if t.Day != nil {
		day := t.Day.UTC().Format(time.DateOnly)
		resp.Day = &day
	}
	for _, u := range t.SideUsers {
		resp.SideUsers = append(resp.SideUsers, NewUserSummary(u))
	}
	for _, tag := range t.Tags {
		resp.Tags = append(resp.Tags, TagSummary{ID: tag.ID, Name: tag.Name, Color: tag.Color})
	}
	return resp
}

func NewTaskResponses(tasks []model.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, NewTaskResponse(t))
	}
	return out
}
