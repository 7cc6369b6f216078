package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"task-manager.com/task-manager/internal/constants"
	apperrors "task-manager.com/task-manager/internal/errors"
	model "task-manager.com/task-manager/internal/models"
	repository "task-manager.com/task-manager/internal/repositories"
)

type DenialReason string

const (
	ReasonNotAMember        DenialReason = "NOT_A_MEMBER"
	ReasonBanned            DenialReason = "BANNED"
	ReasonInvitationPending DenialReason = "INVITATION_PENDING"
	ReasonInsufficientRole  DenialReason = "INSUFFICIENT_ROLE"
)

// Decision is the outcome of a membership or role check. Reason is empty when
// Allowed is true.
type Decision struct {
	Allowed    bool
	Reason     DenialReason
	Membership *model.WorkspaceMembership
}

func allow(m *model.WorkspaceMembership) Decision {
	return Decision{Allowed: true, Membership: m}
}

func deny(reason DenialReason, m *model.WorkspaceMembership) Decision {
	return Decision{Reason: reason, Membership: m}
}

// Err converts a denial into a PermissionDenied exception.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}

	var msg string
	switch d.Reason {
	case ReasonNotAMember:
		msg = "user does not belong to the workspace"
	case ReasonBanned:
		msg = "user is not active in the workspace"
	case ReasonInvitationPending:
		msg = "workspace invitation is pending acceptance"
	case ReasonInsufficientRole:
		msg = "workspace role is not sufficient"
	default:
		msg = "permission denied"
	}
	return apperrors.PermissionDenied(string(d.Reason), msg)
}

// Guard answers whether a user may act inside a workspace or on a task. It
// keeps no state: every check reads the membership row again.
type Guard struct {
	memberships MembershipStore
}

func NewGuard(memberships MembershipStore) *Guard {
	return &Guard{memberships: memberships}
}

func (g *Guard) CheckMembership(ctx context.Context, userID, workspaceID string) (Decision, error) {
	m, err := g.memberships.Find(ctx, userID, workspaceID)
	if err != nil {
		if errors.Is(err, repository.ErrMembershipNotFound) {
			return deny(ReasonNotAMember, nil), nil
		}
		return Decision{}, fmt.Errorf("membership lookup: %w", err)
	}

	if m.AccountState != constants.AccountActive {
		return deny(ReasonBanned, m), nil
	}
	if m.InvitationStatus != constants.InvitationActive {
		return deny(ReasonInvitationPending, m), nil
	}
	return allow(m), nil
}

func (g *Guard) CheckRole(ctx context.Context, userID, workspaceID string, minimum constants.WorkspaceRole) (Decision, error) {
	d, err := g.CheckMembership(ctx, userID, workspaceID)
	if err != nil || !d.Allowed {
		return d, err
	}

	if !d.Membership.Role.AtLeast(minimum) {
		return deny(ReasonInsufficientRole, d.Membership), nil
	}
	return d, nil
}

func (g *Guard) RequireMembership(ctx context.Context, userID, workspaceID string) error {
	d, err := g.CheckMembership(ctx, userID, workspaceID)
	if err != nil {
		return err
	}
	return g.enforce(d, userID, workspaceID)
}

func (g *Guard) RequireRole(ctx context.Context, userID, workspaceID string, minimum constants.WorkspaceRole) error {
	d, err := g.CheckRole(ctx, userID, workspaceID, minimum)
	if err != nil {
		return err
	}
	return g.enforce(d, userID, workspaceID)
}

// CanEditTask grants the principal, any side user, or an EDITOR-or-better
// member. The role lookup runs only when the cheaper checks fail.
func (g *Guard) CanEditTask(ctx context.Context, task *model.Task, userID string) (bool, error) {
	if task.PrincipalUserID == userID || task.HasSideUser(userID) {
		return true, nil
	}

	d, err := g.CheckRole(ctx, userID, task.WorkspaceID, constants.RoleEditor)
	if err != nil {
		return false, err
	}
	return d.Allowed, nil
}

// CanDeleteTask grants the principal or an ADMIN. Side users never qualify.
func (g *Guard) CanDeleteTask(ctx context.Context, task *model.Task, userID string) (bool, error) {
	if task.PrincipalUserID == userID {
		return true, nil
	}

	d, err := g.CheckRole(ctx, userID, task.WorkspaceID, constants.RoleAdmin)
	if err != nil {
		return false, err
	}
	return d.Allowed, nil
}

func (g *Guard) enforce(d Decision, userID, workspaceID string) error {
	if d.Allowed {
		return nil
	}
	log.Printf("guard: user %s denied in workspace %s: %s", userID, workspaceID, d.Reason)
	return d.Err()
}
