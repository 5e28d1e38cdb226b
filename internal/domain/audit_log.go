package domain

import "time"

// AuditAction enumerates administrative actions on accounts.
type AuditAction string

const (
	AuditActionCreate        AuditAction = "CREATE"
	AuditActionUpdate        AuditAction = "UPDATE"
	AuditActionDelete        AuditAction = "DELETE"
	AuditActionActivate      AuditAction = "ACTIVATE"
	AuditActionDeactivate    AuditAction = "DEACTIVATE"
	AuditActionSuspend       AuditAction = "SUSPEND"
	AuditActionResetPassword AuditAction = "RESET_PASSWORD"
	AuditActionChangeRole    AuditAction = "CHANGE_ROLE"
)

// AuditEntityUser is the only entity type audited today.
const AuditEntityUser = "USER"

// AuditLog is an append-only record of an administrative change. OldValues and
// NewValues hold serialized snapshots.
type AuditLog struct {
	ID          int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      string      `gorm:"type:uuid;not null;index:ix_audit_logs_user_id" json:"user_id"`
	PerformedBy string      `gorm:"type:uuid;not null;index:ix_audit_logs_performed_by" json:"performed_by"`
	Action      AuditAction `gorm:"size:100;not null;index:ix_audit_logs_action" json:"action"`
	EntityType  string      `gorm:"size:50;not null;index:ix_audit_logs_entity_type" json:"entity_type"`
	OldValues   *string     `gorm:"type:text" json:"old_values"`
	NewValues   *string     `gorm:"type:text" json:"new_values"`
	Description *string     `gorm:"size:500" json:"description"`
	IPAddress   *string     `gorm:"size:50" json:"ip_address"`
	PerformedAt time.Time   `gorm:"not null;index:ix_audit_logs_performed_at" json:"performed_at"`
}

// TableName pins the audit log table name.
func (AuditLog) TableName() string {
	return "user_audit_logs"
}
