package database

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/database/model"
)

// ExpiredBatchSize bounds a single expiry sweep so one oversized backlog
// cannot monopolize the cleanup pass.
const ExpiredBatchSize = 500

type StorageObjectFacadeInterface interface {
	CreateStorageObject(ctx context.Context, obj *model.StorageObject) error
	// ListExpired returns at most ExpiredBatchSize rows whose expires_at
	// has passed, oldest expiry first.
	ListExpired(ctx context.Context, now time.Time) ([]*model.StorageObject, error)
	DeleteStorageObject(ctx context.Context, id string) error
	// FindSourcePDF locates the raw upload for a job. It first matches by
	// job_id, then falls back to a key prefix scan for rows written before
	// job_id was recorded.
	FindSourcePDF(ctx context.Context, jobID, bucket string) (*model.StorageObject, error)
	ListByJob(ctx context.Context, jobID string) ([]*model.StorageObject, error)
	// ListOldestInBucket returns the oldest rows of a bucket, used by the
	// emergency eviction path.
	ListOldestInBucket(ctx context.Context, bucket string, limit int) ([]*model.StorageObject, error)
}

type StorageObjectFacade struct {
	BaseFacade
}

func NewStorageObjectFacade() StorageObjectFacadeInterface {
	return &StorageObjectFacade{}
}

func (f *StorageObjectFacade) CreateStorageObject(ctx context.Context, obj *model.StorageObject) error {
	db := f.getDB().WithContext(ctx)
	if obj.CreatedAt.IsZero() {
		obj.CreatedAt = time.Now().UTC()
	}
	return dbErr("create storage object", db.Create(obj).Error)
}

func (f *StorageObjectFacade) ListExpired(ctx context.Context, now time.Time) ([]*model.StorageObject, error) {
	db := f.getDB().WithContext(ctx)
	var objs []*model.StorageObject
	result := db.
		Where("expires_at IS NOT NULL AND expires_at < ?", now).
		Order("expires_at ASC").
		Limit(ExpiredBatchSize).
		Find(&objs)
	if result.Error != nil {
		return nil, result.Error
	}
	return objs, nil
}

func (f *StorageObjectFacade) DeleteStorageObject(ctx context.Context, id string) error {
	db := f.getDB().WithContext(ctx)
	return db.Where("id = ?", id).Delete(&model.StorageObject{}).Error
}

func (f *StorageObjectFacade) FindSourcePDF(ctx context.Context, jobID, bucket string) (*model.StorageObject, error) {
	db := f.getDB().WithContext(ctx)
	var obj model.StorageObject
	result := db.
		Where("job_id = ? AND bucket = ?", jobID, bucket).
		Order("created_at DESC").
		First(&obj)
	if result.Error == nil {
		return &obj, nil
	}
	if result.Error != gorm.ErrRecordNotFound {
		return nil, result.Error
	}
	// Keys follow <project_id>/<job_id>/<name>.
	result = db.
		Where("bucket = ? AND key LIKE ?", bucket, "%/"+jobID+"/%").
		Order("created_at DESC").
		First(&obj)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, result.Error
	}
	return &obj, nil
}

func (f *StorageObjectFacade) ListByJob(ctx context.Context, jobID string) ([]*model.StorageObject, error) {
	db := f.getDB().WithContext(ctx)
	var objs []*model.StorageObject
	result := db.Where("job_id = ?", jobID).Find(&objs)
	if result.Error != nil {
		return nil, result.Error
	}
	return objs, nil
}

func (f *StorageObjectFacade) ListOldestInBucket(ctx context.Context, bucket string, limit int) ([]*model.StorageObject, error) {
	db := f.getDB().WithContext(ctx)
	var objs []*model.StorageObject
	result := db.
		Where("bucket = ?", bucket).
		Order("created_at ASC").
		Limit(limit).
		Find(&objs)
	if result.Error != nil {
		return nil, result.Error
	}
	return objs, nil
}
