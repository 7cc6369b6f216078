package model

type Tag struct {
	ID          string `gorm:"primaryKey;size:36" json:"id"`
	Name        string `gorm:"not null;uniqueIndex:idx_tag_workspace_name" json:"name"`
	Color       string `gorm:"size:7" json:"color"`
	WorkspaceID string `gorm:"size:36;not null;uniqueIndex:idx_tag_workspace_name" json:"workspace_id"`
}
