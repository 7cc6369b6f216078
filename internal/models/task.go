package model

import (
	"strings"
	"time"

	"task-manager.com/task-manager/internal/constants"
)

type Task struct {
	ID          string              `gorm:"primaryKey;size:36" json:"id"`
	Title       string              `gorm:"not null" json:"title"`
	Description string              `json:"description"`
	Color       string              `gorm:"size:7" json:"color"`
	State       constants.TaskState `gorm:"type:varchar(20);not null;index" json:"state"`
	// Day is a calendar date stored at UTC midnight.
	Day *time.Time `gorm:"index" json:"day,omitempty"`
	// StartTime and EndTime are wall-clock "HH:MM" values.
	StartTime *string `gorm:"size:5" json:"start_time,omitempty"`
	EndTime   *string `gorm:"size:5" json:"end_time,omitempty"`

	// TitleFolded and DescriptionFolded are the Unicode-lowercased search
	// copies of Title and Description.
	TitleFolded       string `gorm:"index" json:"-"`
	DescriptionFolded string `json:"-"`

	WorkspaceID     string `gorm:"size:36;not null;index" json:"workspace_id"`
	PrincipalUserID string `gorm:"size:36;not null;index" json:"principal_user_id"`

	PrincipalUser User   `gorm:"foreignKey:PrincipalUserID" json:"principal_user"`
	SideUsers     []User `gorm:"many2many:task_side_users" json:"side_users"`
	Tags          []Tag  `gorm:"many2many:task_tags" json:"tags"`

	Version   uint      `gorm:"not null;default:1" json:"version"`
	CreatedAt time.Time `gorm:"autoCreateTime:false;not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false" json:"updated_at"`
}

// FoldText refreshes the search copies from Title and Description.
func (t *Task) FoldText() {
	t.TitleFolded = FoldCase(t.Title)
	t.DescriptionFolded = FoldCase(t.Description)
}

// FoldCase is the single case-folding rule shared by stored search columns
// and search patterns.
func FoldCase(v string) string {
	return strings.ToLower(v)
}

// Involves reports whether userID is the principal or one of the side users.
func (t *Task) Involves(userID string) bool {
	return t.PrincipalUserID == userID || t.HasSideUser(userID)
}

func (t *Task) HasSideUser(userID string) bool {
	for _, u := range t.SideUsers {
		if u.ID == userID {
			return true
		}
	}
	return false
}

func (t *Task) HasAnyTag(tagIDs []string) bool {
	for _, tag := range t.Tags {
		for _, id := range tagIDs {
			if tag.ID == id {
				return true
			}
		}
	}
	return false
}

// AllModels is the AutoMigrate set.
func AllModels() []any {
	return []any{
		&User{},
		&Workspace{},
		&WorkspaceMembership{},
		&Tag{},
		&Task{},
	}
}
