package constants

import (
	"fmt"
	"strings"
)

type WorkspaceRole string

const (
	RoleAdmin  WorkspaceRole = "ADMIN"
	RoleEditor WorkspaceRole = "EDITOR"
	RoleViewer WorkspaceRole = "VIEWER"
)

// Lower rank means more privilege. Unknown roles rank below every known one.
var roleRanks = map[WorkspaceRole]int{
	RoleAdmin:  0,
	RoleEditor: 1,
	RoleViewer: 2,
}

const unknownRoleRank = 1 << 16

func (r WorkspaceRole) Rank() int {
	if rank, ok := roleRanks[r]; ok {
		return rank
	}
	return unknownRoleRank
}

// AtLeast reports whether r is as privileged as min or more.
func (r WorkspaceRole) AtLeast(min WorkspaceRole) bool {
	return r.Rank() <= min.Rank()
}

func (r WorkspaceRole) Valid() bool {
	_, ok := roleRanks[r]
	return ok
}

func ParseWorkspaceRole(v string) (WorkspaceRole, error) {
	r := WorkspaceRole(strings.ToUpper(strings.TrimSpace(v)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown workspace role %q", v)
	}
	return r, nil
}
