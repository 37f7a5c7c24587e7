package database

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/database/model"
)

type HeartbeatFacadeInterface interface {
	// UpsertHeartbeat writes the worker's liveness row, inserting on first
	// contact and overwriting the observational fields after that.
	UpsertHeartbeat(ctx context.Context, hb *model.WorkerHeartbeat) error
	GetHeartbeat(ctx context.Context, workerID string) (*model.WorkerHeartbeat, error)
}

type HeartbeatFacade struct {
	BaseFacade
}

func NewHeartbeatFacade() HeartbeatFacadeInterface {
	return &HeartbeatFacade{}
}

func (f *HeartbeatFacade) UpsertHeartbeat(ctx context.Context, hb *model.WorkerHeartbeat) error {
	db := f.getDB().WithContext(ctx)
	now := time.Now().UTC()
	hb.LastHeartbeatAt = now
	hb.UpdatedAt = now
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "worker_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"last_heartbeat_at", "status", "current_job_id",
			"memory_usage_mb", "disk_usage_pct", "updated_at",
		}),
	}).Create(hb).Error
}

func (f *HeartbeatFacade) GetHeartbeat(ctx context.Context, workerID string) (*model.WorkerHeartbeat, error) {
	db := f.getDB().WithContext(ctx)
	var hb model.WorkerHeartbeat
	result := db.Where("worker_id = ?", workerID).First(&hb)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, result.Error
	}
	return &hb, nil
}
