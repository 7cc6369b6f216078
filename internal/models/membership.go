package model

import (
	"time"

	"task-manager.com/task-manager/internal/constants"
)

// WorkspaceMembership is written by the invitation flow and only read here.
type WorkspaceMembership struct {
	ID               string                     `gorm:"primaryKey;size:36" json:"id"`
	UserID           string                     `gorm:"size:36;not null;uniqueIndex:idx_membership_user_workspace" json:"user_id"`
	WorkspaceID      string                     `gorm:"size:36;not null;uniqueIndex:idx_membership_user_workspace" json:"workspace_id"`
	Role             constants.WorkspaceRole    `gorm:"type:varchar(20);not null" json:"role"`
	InvitationStatus constants.InvitationStatus `gorm:"type:varchar(20);not null" json:"invitation_status"`
	AccountState     constants.AccountState     `gorm:"type:varchar(20);not null" json:"account_state"`
	RegisteredAt     time.Time                  `json:"registered_at"`
}

func (WorkspaceMembership) TableName() string {
	return "workspace_memberships"
}
