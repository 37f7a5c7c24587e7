package database

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/database/model"
)

type AuditFacadeInterface interface {
	AppendAudit(ctx context.Context, jobID, action, actor string, detail json.RawMessage) error
	ListByJob(ctx context.Context, jobID string) ([]*model.AuditLog, error)
	// DeleteOlderThan drops audit rows past the retention window.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type AuditFacade struct {
	BaseFacade
}

func NewAuditFacade() AuditFacadeInterface {
	return &AuditFacade{}
}

func (f *AuditFacade) AppendAudit(ctx context.Context, jobID, action, actor string, detail json.RawMessage) error {
	db := f.getDB().WithContext(ctx)
	entry := &model.AuditLog{
		ID:        uuid.NewString(),
		JobID:     jobID,
		Action:    action,
		Actor:     actor,
		Detail:    detail,
		Timestamp: time.Now().UTC(),
	}
	return db.Create(entry).Error
}

func (f *AuditFacade) ListByJob(ctx context.Context, jobID string) ([]*model.AuditLog, error) {
	db := f.getDB().WithContext(ctx)
	var entries []*model.AuditLog
	result := db.Where("job_id = ?", jobID).Order("timestamp ASC").Find(&entries)
	if result.Error != nil {
		return nil, result.Error
	}
	return entries, nil
}

func (f *AuditFacade) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	db := f.getDB().WithContext(ctx)
	result := db.Where("timestamp < ?", cutoff).Delete(&model.AuditLog{})
	return result.RowsAffected, result.Error
}
