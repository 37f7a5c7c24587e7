package model

import "time"

const TableNameRenderRequest = "render_requests"

// Render request kinds and statuses.
const (
	RenderKindThumb   = "THUMB"
	RenderKindMeasure = "MEASURE"

	RenderStatusPending = "PENDING"
	RenderStatusDone    = "DONE"
	RenderStatusFailed  = "FAILED"
)

// RenderRequest mapped from table <render_requests>. At most one PENDING row
// may exist per (job_id, page_num, kind); inserts rely on the unique index.
type RenderRequest struct {
	ID          string     `gorm:"column:id;primaryKey;size:64" json:"id"`
	JobID       string     `gorm:"column:job_id;not null;size:64;uniqueIndex:idx_render_job_page_kind" json:"job_id"`
	PageNum     int        `gorm:"column:page_num;not null;uniqueIndex:idx_render_job_page_kind" json:"page_num"`
	Kind        string     `gorm:"column:kind;not null;size:16;uniqueIndex:idx_render_job_page_kind" json:"kind"`
	DPI         int        `gorm:"column:dpi;not null" json:"dpi"`
	Status      string     `gorm:"column:status;not null;size:16;default:'PENDING'" json:"status"`
	OutputKey   string     `gorm:"column:output_key;size:512" json:"output_key,omitempty"`
	CreatedAt   time.Time  `gorm:"column:created_at;not null" json:"created_at"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
}

// TableName RenderRequest's table name
func (*RenderRequest) TableName() string {
	return TableNameRenderRequest
}
