package models

import (
	"time"

	"gorm.io/datatypes"
)

// ProjectRecord stores one project document. Document holds the full JSON;
// the other columns are copies used for listing.
type ProjectRecord struct {
	ID          uint           `gorm:"primaryKey" json:"-"`
	ProjectID   string         `gorm:"uniqueIndex;size:64;not null" json:"project_id"`
	Name        string         `gorm:"size:255" json:"project_name"`
	Document    datatypes.JSON `gorm:"not null" json:"-"`
	CreatedBy   string         `gorm:"size:64" json:"created_by"`
	UpdatedBy   string         `gorm:"size:64" json:"updated_by"`
	PublishedAt *time.Time     `json:"published_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`
}

// TableName keeps the table name short.
func (ProjectRecord) TableName() string { return "projects" }
