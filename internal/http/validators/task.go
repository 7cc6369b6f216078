package validators

import (
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	"task-manager.com/task-manager/internal/constants"
	dto "task-manager.com/task-manager/internal/data_models"
)

const (
	minTitleLength       = 3
	maxTitleLength       = 20
	maxDescriptionLength = 255
	clockLayout          = "15:04"
)

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

func ValidateCreateTaskRequest(r *dto.TaskRequestData) error {
	if strings.TrimSpace(r.WorkspaceID) == "" {
		return badRequest("workspace_id is required")
	}
	if strings.TrimSpace(r.PrincipalUserID) == "" {
		return badRequest("principal_user_id is required")
	}
	if err := validateTitle(r.Title); err != nil {
		return err
	}
	if err := validateDescription(r.Description); err != nil {
		return err
	}
	if err := validateColor(r.Color); err != nil {
		return err
	}
	if r.State != "" {
		if _, err := ParseState(r.State); err != nil {
			return err
		}
	}
	if r.Day != "" {
		if _, err := ParseDate("day", r.Day); err != nil {
			return err
		}
	}
	if r.StartTime != "" {
		if _, err := ParseClock("start_time", r.StartTime); err != nil {
			return err
		}
	}
	if r.EndTime != "" {
		if _, err := ParseClock("end_time", r.EndTime); err != nil {
			return err
		}
	}
	return nil
}

// ValidateUpdateTaskRequest checks only the fields the caller sent. Empty day
// and time values are ignored.
func ValidateUpdateTaskRequest(r *dto.UpdateTaskRequest) error {
	if r.Title != nil {
		if err := validateTitle(*r.Title); err != nil {
			return err
		}
	}
	if r.Description != nil {
		if err := validateDescription(*r.Description); err != nil {
			return err
		}
	}
	if r.Color != nil {
		if err := validateColor(*r.Color); err != nil {
			return err
		}
	}
	if r.State != nil {
		if _, err := ParseState(*r.State); err != nil {
			return err
		}
	}
	if r.Day != nil && *r.Day != "" {
		if _, err := ParseDate("day", *r.Day); err != nil {
			return err
		}
	}
	if r.StartTime != nil && *r.StartTime != "" {
		if _, err := ParseClock("start_time", *r.StartTime); err != nil {
			return err
		}
	}
	if r.EndTime != nil && *r.EndTime != "" {
		if _, err := ParseClock("end_time", *r.EndTime); err != nil {
			return err
		}
	}
	return nil
}

func ValidateFilterTaskRequest(r *dto.FilterTaskRequest) error {
	if strings.TrimSpace(r.WorkspaceID) == "" {
		return badRequest("workspace_id is required")
	}
	if r.State != "" {
		if _, err := ParseState(r.State); err != nil {
			return err
		}
	}
	if r.StartDate != "" {
		if _, err := ParseDate("start_date", r.StartDate); err != nil {
			return err
		}
	}
	if r.EndDate != "" {
		if _, err := ParseDate("end_date", r.EndDate); err != nil {
			return err
		}
	}
	return nil
}

func ParseState(v string) (constants.TaskState, error) {
	state, err := constants.ParseTaskState(v)
	if err != nil {
		return "", badRequest("state must be one of TO_DO, IN_PROGRESS, DONE")
	}
	return state, nil
}

// ParseDate parses a required "YYYY-MM-DD" value named field.
func ParseDate(field, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, badRequest(field + " is required")
	}
	day, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return time.Time{}, badRequest(field + " must use the YYYY-MM-DD format")
	}
	return day, nil
}

// ParseClock parses "H:MM" or "HH:MM" and returns it zero-padded.
func ParseClock(field, v string) (string, error) {
	t, err := time.Parse(clockLayout, v)
	if err != nil {
		return "", badRequest(field + " must use the HH:MM format")
	}
	return t.Format(clockLayout), nil
}

func validateTitle(title string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(title))
	if n == 0 {
		return badRequest("title is required")
	}
	if n < minTitleLength || n > maxTitleLength {
		return badRequest("title must be between 3 and 20 characters")
	}
	return nil
}

func validateDescription(description string) error {
	if utf8.RuneCountInString(description) > maxDescriptionLength {
		return badRequest("description must be at most 255 characters")
	}
	return nil
}

func validateColor(color string) error {
	if color != "" && !colorPattern.MatchString(color) {
		return badRequest("color must be a hex value like #1a2b3c")
	}
	return nil
}

func badRequest(msg string) error {
	return echo.NewHTTPError(http.StatusBadRequest, msg)
}
