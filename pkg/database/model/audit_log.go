package model

import (
	"encoding/json"
	"time"
)

const TableNameAuditLog = "audit_log"

// AuditLog mapped from table <audit_log>. Best-effort trail of job status
// transitions; rows age out after 180 days.
type AuditLog struct {
	ID        string          `gorm:"column:id;primaryKey;size:64" json:"id"`
	JobID     string          `gorm:"column:job_id;size:64;index" json:"job_id"`
	Action    string          `gorm:"column:action;not null;size:64" json:"action"`
	Actor     string          `gorm:"column:actor;size:128" json:"actor"`
	Detail    json.RawMessage `gorm:"column:detail;type:jsonb" json:"detail,omitempty"`
	Timestamp time.Time       `gorm:"column:timestamp;not null" json:"timestamp"`
}

// TableName AuditLog's table name
func (*AuditLog) TableName() string {
	return TableNameAuditLog
}
