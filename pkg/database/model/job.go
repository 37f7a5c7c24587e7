package model

import (
	"encoding/json"
	"time"
)

const TableNameJob = "jobs"

// Job statuses. The worker only ever claims jobs in UPLOADED, REVIEWED or
// PRICED; the remaining states are owned by the API side or are transient
// while a stage runs.
const (
	JobStatusCreated     = "CREATED"
	JobStatusUploading   = "UPLOADING"
	JobStatusUploaded    = "UPLOADED"
	JobStatusIndexing    = "INDEXING"
	JobStatusIndexed     = "INDEXED"
	JobStatusRouting     = "ROUTING"
	JobStatusRouted      = "ROUTED"
	JobStatusExtracting  = "EXTRACTING"
	JobStatusExtracted   = "EXTRACTED"
	JobStatusNeedsReview = "NEEDS_REVIEW"
	JobStatusReviewed    = "REVIEWED"
	JobStatusPricing     = "PRICING"
	JobStatusPriced      = "PRICED"
	JobStatusGenerating  = "GENERATING"
	JobStatusDone        = "DONE"
	JobStatusFailed      = "FAILED"
)

// LockHorizon is the window after locked_at during which a job is owned.
const LockHorizon = 10 * time.Minute

// Job mapped from table <jobs>. The schema is owned by the API side; the
// worker must tolerate extra columns.
type Job struct {
	ID            string          `gorm:"column:id;primaryKey;size:64" json:"id"`
	ProjectID     string          `gorm:"column:project_id;size:64" json:"project_id"`
	Status        string          `gorm:"column:status;not null;size:32;default:'CREATED'" json:"status"`
	SSOT          json.RawMessage `gorm:"column:ssot;type:jsonb;default:'{}'" json:"ssot"`
	StageProgress json.RawMessage `gorm:"column:stage_progress;type:jsonb" json:"stage_progress,omitempty"`
	LockedAt      *time.Time      `gorm:"column:locked_at" json:"locked_at,omitempty"`
	LockedBy      *string         `gorm:"column:locked_by;size:128" json:"locked_by,omitempty"`
	NextRunAt     *time.Time      `gorm:"column:next_run_at" json:"next_run_at,omitempty"`
	RetryCount    int             `gorm:"column:retry_count;default:0" json:"retry_count"`
	MaxRetries    int             `gorm:"column:max_retries;default:3" json:"max_retries"`
	ErrorCode     string          `gorm:"column:error_code;size:64" json:"error_code,omitempty"`
	ErrorMessage  string          `gorm:"column:error_message;size:1024" json:"error_message,omitempty"`
	CreatedAt     time.Time       `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;not null" json:"updated_at"`
}

// TableName Job's table name
func (*Job) TableName() string {
	return TableNameJob
}

// IsTerminal reports whether no further worker processing applies.
func (j *Job) IsTerminal() bool {
	return j.Status == JobStatusDone || j.Status == JobStatusFailed
}
