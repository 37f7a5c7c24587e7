package model

import "time"

const TableNameWorkerHeartbeat = "worker_heartbeats"

const (
	WorkerStatusIdle       = "IDLE"
	WorkerStatusProcessing = "PROCESSING"
)

// WorkerHeartbeat mapped from table <worker_heartbeats>. One row per worker,
// last-writer-wins on the observational fields.
type WorkerHeartbeat struct {
	WorkerID        string    `gorm:"column:worker_id;primaryKey;size:128" json:"worker_id"`
	LastHeartbeatAt time.Time `gorm:"column:last_heartbeat_at;not null" json:"last_heartbeat_at"`
	Status          string    `gorm:"column:status;not null;size:16;default:'IDLE'" json:"status"`
	CurrentJobID    *string   `gorm:"column:current_job_id;size:64" json:"current_job_id,omitempty"`
	MemoryUsageMB   float64   `gorm:"column:memory_usage_mb" json:"memory_usage_mb"`
	DiskUsagePct    float64   `gorm:"column:disk_usage_pct" json:"disk_usage_pct"`
	UpdatedAt       time.Time `gorm:"column:updated_at;not null" json:"updated_at"`
}

// TableName WorkerHeartbeat's table name
func (*WorkerHeartbeat) TableName() string {
	return TableNameWorkerHeartbeat
}
