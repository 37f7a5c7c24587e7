package model

import "time"

const TableNameStorageObject = "storage_objects"

// StorageObject mapped from table <storage_objects>. The row is the source
// of truth for a blob's TTL; a blob without a row is an orphan.
type StorageObject struct {
	ID          string     `gorm:"column:id;primaryKey;size:64" json:"id"`
	JobID       string     `gorm:"column:job_id;size:64;index" json:"job_id"`
	Bucket      string     `gorm:"column:bucket;not null;size:64" json:"bucket"`
	Key         string     `gorm:"column:key;not null;size:512" json:"key"`
	SizeBytes   int64      `gorm:"column:size_bytes" json:"size_bytes"`
	SHA256      string     `gorm:"column:sha256;size:64" json:"sha256,omitempty"`
	ContentType string     `gorm:"column:content_type;size:128" json:"content_type,omitempty"`
	TTLPolicy   string     `gorm:"column:ttl_policy;size:32" json:"ttl_policy,omitempty"`
	ExpiresAt   *time.Time `gorm:"column:expires_at" json:"expires_at,omitempty"`
	CreatedAt   time.Time  `gorm:"column:created_at;not null" json:"created_at"`
}

// TableName StorageObject's table name
func (*StorageObject) TableName() string {
	return TableNameStorageObject
}
