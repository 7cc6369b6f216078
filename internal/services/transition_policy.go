package services

import (
	"fmt"
	"slices"

	"task-manager.com/task-manager/internal/constants"
	apperrors "task-manager.com/task-manager/internal/errors"
)

// TransitionPolicy decides whether a task may move between two states.
type TransitionPolicy interface {
	Validate(from, to constants.TaskState) error
}

type AllowAllTransitions struct{}

func (AllowAllTransitions) Validate(from, to constants.TaskState) error {
	return nil
}

// TransitionTable lists the target states reachable from each state. Staying
// in the same state is always allowed.
type TransitionTable map[constants.TaskState][]constants.TaskState

func (t TransitionTable) Validate(from, to constants.TaskState) error {
	if from == to {
		return nil
	}
	if slices.Contains(t[from], to) {
		return nil
	}
	return apperrors.BusinessRule("task cannot move from %s to %s", from, to)
}

// SequentialTransitions only allows stepping one column at a time on the board.
func SequentialTransitions() TransitionTable {
	return TransitionTable{
		constants.StateToDo:       {constants.StateInProgress},
		constants.StateInProgress: {constants.StateToDo, constants.StateDone},
		constants.StateDone:       {constants.StateInProgress},
	}
}

func NewTransitionPolicy(name string) (TransitionPolicy, error) {
	switch name {
	case "", "any":
		return AllowAllTransitions{}, nil
	case "sequential":
		return SequentialTransitions(), nil
	default:
		return nil, fmt.Errorf("unknown transition policy %q", name)
	}
}
