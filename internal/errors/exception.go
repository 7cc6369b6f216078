package errors

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindNotFound              Kind = "NOT_FOUND"
	KindPermissionDenied      Kind = "PERMISSION_DENIED"
	KindBusinessRuleViolation Kind = "BUSINESS_RULE_VIOLATION"
	KindInvalidArgument       Kind = "INVALID_ARGUMENT"
	KindConflict              Kind = "CONFLICT"
)

var kindStatus = map[Kind]int{
	KindNotFound:              http.StatusNotFound,
	KindPermissionDenied:      http.StatusForbidden,
	KindBusinessRuleViolation: http.StatusUnprocessableEntity,
	KindInvalidArgument:       http.StatusBadRequest,
	KindConflict:              http.StatusConflict,
}

type Exception struct {
	Kind       Kind
	Message    string
	StatusCode int
	// Reason narrows a PermissionDenied down to why access was refused.
	Reason string
}

func (e *Exception) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s (%s)", e.Message, e.Reason)
	}
	return e.Message
}

// Is matches on kind. Empty Message or Reason on the target act as wildcards,
// so the kind-level values below match every exception of that kind.
func (e *Exception) Is(target error) bool {
	t, ok := target.(*Exception)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	if t.Message != "" && t.Message != e.Message {
		return false
	}
	return t.Reason == "" || t.Reason == e.Reason
}

var (
	ErrNotFound              = &Exception{Kind: KindNotFound}
	ErrPermissionDenied      = &Exception{Kind: KindPermissionDenied}
	ErrBusinessRuleViolation = &Exception{Kind: KindBusinessRuleViolation}
	ErrInvalidArgument       = &Exception{Kind: KindInvalidArgument}
	ErrConflict              = &Exception{Kind: KindConflict}
)

func newException(kind Kind, message string) *Exception {
	return &Exception{
		Kind:       kind,
		Message:    message,
		StatusCode: kindStatus[kind],
	}
}

func StatusCode(err error) int {
	var appErr *Exception
	if errors.As(err, &appErr) {
		if appErr.StatusCode != 0 {
			return appErr.StatusCode
		}
		if status, ok := kindStatus[appErr.Kind]; ok {
			return status
		}
	}
	return http.StatusInternalServerError
}

// KindOf returns the exception kind of err, or "" for infrastructure errors.
func KindOf(err error) Kind {
	var appErr *Exception
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}
