package model

import "time"

const TableNameMeasurementTask = "measurement_tasks"

const (
	MeasurementStatusPending = "PENDING"
	MeasurementStatusDone    = "DONE"
)

// MeasurementTask mapped from table <measurement_tasks>. Created by the
// extraction stage for items missing width or height; resolved by humans.
type MeasurementTask struct {
	ID            string     `gorm:"column:id;primaryKey;size:64" json:"id"`
	JobID         string     `gorm:"column:job_id;not null;size:64;index" json:"job_id"`
	ItemID        string     `gorm:"column:item_id;not null;size:64" json:"item_id"`
	DimensionKey  string     `gorm:"column:dimension_key;not null;size:16" json:"dimension_key"`
	PageNum       int        `gorm:"column:page_num" json:"page_num"`
	Status        string     `gorm:"column:status;not null;size:16;default:'PENDING'" json:"status"`
	MeasuredValue *float64   `gorm:"column:measured_value" json:"measured_value,omitempty"`
	MeasuredBy    string     `gorm:"column:measured_by;size:128" json:"measured_by,omitempty"`
	MeasuredAt    *time.Time `gorm:"column:measured_at" json:"measured_at,omitempty"`
	CreatedAt     time.Time  `gorm:"column:created_at;not null" json:"created_at"`
}

// TableName MeasurementTask's table name
func (*MeasurementTask) TableName() string {
	return TableNameMeasurementTask
}
