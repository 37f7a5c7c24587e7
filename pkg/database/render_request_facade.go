package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/database/model"
)

type RenderRequestFacadeInterface interface {
	// ClaimRenderRequest picks the next PENDING request, MEASURE before
	// THUMB, oldest first within a kind. Returns (nil, nil) when the queue
	// is empty. The claim does not lock the row; losing a race only means
	// a page gets rendered twice, which is harmless.
	ClaimRenderRequest(ctx context.Context) (*model.RenderRequest, error)
	// EnqueueRenderRequest inserts a PENDING request, silently dropping
	// the insert when a request for (job, page, kind) already exists.
	EnqueueRenderRequest(ctx context.Context, jobID string, pageNum int, kind string, dpi int) error
	CompleteRenderRequest(ctx context.Context, id, outputKey string) error
	FailRenderRequest(ctx context.Context, id string) error
	// ExpireStaleThumbs deletes PENDING THUMB requests older than cutoff.
	// Deleting (not failing) frees the (job, page, kind) slot so a later
	// enqueue for the same page is not swallowed by the unique index.
	ExpireStaleThumbs(ctx context.Context, cutoff time.Time) (int64, error)
	// TrimPendingThumbs deletes the oldest PENDING THUMB requests of any
	// job holding more than maxPerJob of them, keeping the newest maxPerJob.
	TrimPendingThumbs(ctx context.Context, maxPerJob int) (int64, error)
	CountPending(ctx context.Context) (int64, error)
}

type RenderRequestFacade struct {
	BaseFacade
}

func NewRenderRequestFacade() RenderRequestFacadeInterface {
	return &RenderRequestFacade{}
}

func (f *RenderRequestFacade) ClaimRenderRequest(ctx context.Context) (*model.RenderRequest, error) {
	db := f.getDB().WithContext(ctx)
	var req model.RenderRequest
	query := db.Model(&model.RenderRequest{})
	if supportsSkipLocked(db) {
		query = query.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
	}
	result := query.
		Where("status = ?", model.RenderStatusPending).
		Order("CASE WHEN kind = 'MEASURE' THEN 0 ELSE 1 END, created_at ASC").
		First(&req)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, dbErr("claim render request", result.Error)
	}
	return &req, nil
}

func (f *RenderRequestFacade) EnqueueRenderRequest(ctx context.Context, jobID string, pageNum int, kind string, dpi int) error {
	db := f.getDB().WithContext(ctx)
	req := &model.RenderRequest{
		ID:        uuid.NewString(),
		JobID:     jobID,
		PageNum:   pageNum,
		Kind:      kind,
		DPI:       dpi,
		Status:    model.RenderStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	return dbErr("enqueue render request", db.Clauses(clause.OnConflict{DoNothing: true}).Create(req).Error)
}

func (f *RenderRequestFacade) CompleteRenderRequest(ctx context.Context, id, outputKey string) error {
	db := f.getDB().WithContext(ctx)
	now := time.Now().UTC()
	result := db.Model(&model.RenderRequest{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":       model.RenderStatusDone,
		"output_key":   outputKey,
		"completed_at": now,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRequestNotFound
	}
	return nil
}

func (f *RenderRequestFacade) FailRenderRequest(ctx context.Context, id string) error {
	db := f.getDB().WithContext(ctx)
	now := time.Now().UTC()
	result := db.Model(&model.RenderRequest{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":       model.RenderStatusFailed,
		"completed_at": now,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRequestNotFound
	}
	return nil
}

func (f *RenderRequestFacade) ExpireStaleThumbs(ctx context.Context, cutoff time.Time) (int64, error) {
	db := f.getDB().WithContext(ctx)
	result := db.
		Where("status = ?", model.RenderStatusPending).
		Where("kind = ?", model.RenderKindThumb).
		Where("created_at < ?", cutoff).
		Delete(&model.RenderRequest{})
	return result.RowsAffected, result.Error
}

func (f *RenderRequestFacade) TrimPendingThumbs(ctx context.Context, maxPerJob int) (int64, error) {
	db := f.getDB().WithContext(ctx)

	type jobCount struct {
		JobID string
		N     int
	}
	var over []jobCount
	err := db.Model(&model.RenderRequest{}).
		Select("job_id, COUNT(*) AS n").
		Where("status = ? AND kind = ?", model.RenderStatusPending, model.RenderKindThumb).
		Group("job_id").
		Having("COUNT(*) > ?", maxPerJob).
		Scan(&over).Error
	if err != nil {
		return 0, err
	}

	var trimmed int64
	for _, jc := range over {
		var ids []string
		err := db.Model(&model.RenderRequest{}).
			Select("id").
			Where("job_id = ? AND status = ? AND kind = ?", jc.JobID, model.RenderStatusPending, model.RenderKindThumb).
			Order("created_at ASC").
			Limit(jc.N - maxPerJob).
			Scan(&ids).Error
		if err != nil {
			return trimmed, err
		}
		if len(ids) == 0 {
			continue
		}
		result := db.
			Where("id IN ?", ids).
			Delete(&model.RenderRequest{})
		if result.Error != nil {
			return trimmed, result.Error
		}
		trimmed += result.RowsAffected
	}
	return trimmed, nil
}

func (f *RenderRequestFacade) CountPending(ctx context.Context) (int64, error) {
	db := f.getDB().WithContext(ctx)
	var count int64
	result := db.Model(&model.RenderRequest{}).
		Where("status = ?", model.RenderStatusPending).
		Count(&count)
	return count, result.Error
}
