package models

import (
	"time"

	"gorm.io/datatypes"
)

// Audit actions.
const (
	ActionLoginSuccess      = "login_success"
	ActionLoginFailed       = "login_failed"
	ActionLogout            = "logout"
	ActionFirstAdminCreated = "first_admin_created"
	ActionUserCreated       = "user_created"
	ActionProjectCreate     = "project_create"
	ActionProjectLoad       = "project_load"
	ActionProjectSave       = "project_save"
	ActionProjectDelete     = "project_delete"
	ActionProjectPublish    = "project_publish"
	ActionHelpAutoLogin     = "help_auto_login"
)

// AuditLog is one append-only audit entry. UserID is nil for anonymous
// events such as failed logins for unknown users.
type AuditLog struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    *uint          `gorm:"index" json:"user_id,omitempty"`
	Username  string         `gorm:"size:64" json:"username"`
	Role      Role           `gorm:"size:16" json:"role"`
	Action    string         `gorm:"index;size:64;not null" json:"action"`
	Details   datatypes.JSON `json:"details"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
}
