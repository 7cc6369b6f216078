package constants

import (
	"fmt"
	"strings"
)

type TaskState string

const (
	StateToDo       TaskState = "TO_DO"
	StateInProgress TaskState = "IN_PROGRESS"
	StateDone       TaskState = "DONE"
)

// AllTaskStates is the board order. Views that must report every state
// iterate this slice rather than whatever keys a query happened to return.
var AllTaskStates = []TaskState{
	StateToDo,
	StateInProgress,
	StateDone,
}

func (s TaskState) Valid() bool {
	for _, known := range AllTaskStates {
		if s == known {
			return true
		}
	}
	return false
}

func ParseTaskState(v string) (TaskState, error) {
	s := TaskState(strings.ToUpper(strings.TrimSpace(v)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown task state %q", v)
	}
	return s, nil
}
