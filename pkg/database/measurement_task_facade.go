package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"

	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/database/model"
)

type MeasurementTaskFacadeInterface interface {
	// CreateMeasurementTasks persists the field-measurement work items the
	// extraction stage produced. Re-runs of the stage re-submit the same
	// (job, item, dimension) triples, so duplicates are dropped.
	CreateMeasurementTasks(ctx context.Context, tasks []*model.MeasurementTask) error
	ListPendingByJob(ctx context.Context, jobID string) ([]*model.MeasurementTask, error)
	DeleteByJob(ctx context.Context, jobID string) error
}

type MeasurementTaskFacade struct {
	BaseFacade
}

func NewMeasurementTaskFacade() MeasurementTaskFacadeInterface {
	return &MeasurementTaskFacade{}
}

func (f *MeasurementTaskFacade) CreateMeasurementTasks(ctx context.Context, tasks []*model.MeasurementTask) error {
	if len(tasks) == 0 {
		return nil
	}
	db := f.getDB().WithContext(ctx)
	now := time.Now().UTC()
	for _, t := range tasks {
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		if t.Status == "" {
			t.Status = model.MeasurementStatusPending
		}
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}
	}
	return dbErr("create measurement tasks", db.Clauses(clause.OnConflict{DoNothing: true}).Create(tasks).Error)
}

func (f *MeasurementTaskFacade) ListPendingByJob(ctx context.Context, jobID string) ([]*model.MeasurementTask, error) {
	db := f.getDB().WithContext(ctx)
	var tasks []*model.MeasurementTask
	result := db.
		Where("job_id = ? AND status = ?", jobID, model.MeasurementStatusPending).
		Order("created_at ASC").
		Find(&tasks)
	if result.Error != nil {
		return nil, result.Error
	}
	return tasks, nil
}

func (f *MeasurementTaskFacade) DeleteByJob(ctx context.Context, jobID string) error {
	db := f.getDB().WithContext(ctx)
	return db.Where("job_id = ?", jobID).Delete(&model.MeasurementTask{}).Error
}
