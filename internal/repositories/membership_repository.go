package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"task-manager.com/task-manager/internal/constants"
	model "task-manager.com/task-manager/internal/models"
)

// ErrMembershipNotFound is not an API-level NotFound: callers turn it into a
// permission decision.
var ErrMembershipNotFound = errors.New("membership not found")

type MembershipRepository struct {
	db *gorm.DB
}

func NewMembershipRepository(db *gorm.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

func (r *MembershipRepository) Create(ctx context.Context, m *model.WorkspaceMembership) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.InvitationStatus == "" {
		m.InvitationStatus = constants.InvitationInvited
	}
	if m.AccountState == "" {
		m.AccountState = constants.AccountActive
	}
	if m.RegisteredAt.IsZero() {
		m.RegisteredAt = time.Now().UTC()
	}

	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("failed to create membership: %w", err)
	}
	return nil
}

func (r *MembershipRepository) Find(ctx context.Context, userID, workspaceID string) (*model.WorkspaceMembership, error) {
	var m model.WorkspaceMembership
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND workspace_id = ?", userID, workspaceID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMembershipNotFound
		}
		return nil, fmt.Errorf("failed to find membership: %w", err)
	}
	return &m, nil
}

// Update is used by tests and admin tooling to flip role, invitation or ban
// state on an existing row.
func (r *MembershipRepository) Update(ctx context.Context, m *model.WorkspaceMembership) error {
	res := r.db.WithContext(ctx).Model(&model.WorkspaceMembership{}).
		Where("id = ?", m.ID).
		Updates(map[string]interface{}{
			"role":              m.Role,
			"invitation_status": m.InvitationStatus,
			"account_state":     m.AccountState,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update membership: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrMembershipNotFound
	}
	return nil
}
