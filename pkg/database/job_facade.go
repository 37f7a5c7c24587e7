package database

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/database/model"
	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/logger/log"
)

// claimableStatuses are the only statuses the main loop may pick up.
var claimableStatuses = []string{
	model.JobStatusUploaded,
	model.JobStatusReviewed,
	model.JobStatusPriced,
}

// JobUpdate carries the optional fields of a status transition. Nil pointers
// leave the column untouched.
type JobUpdate struct {
	SSOT          json.RawMessage
	StageProgress json.RawMessage
	ErrorCode     *string
	ErrorMessage  *string
	NextRunAt     *time.Time
	ClearLock     bool
	Actor         string
}

type JobFacadeInterface interface {
	// ClaimJob atomically picks the oldest eligible job and stamps the
	// worker's lock on it. Returns (nil, nil) when the queue is empty.
	ClaimJob(ctx context.Context, workerID string) (*model.Job, error)
	GetJob(ctx context.Context, id string) (*model.Job, error)
	// UpdateJobStatus moves the job to status and applies the optional
	// fields in upd. When upd.Actor is set an audit row is written in the
	// same transaction.
	UpdateJobStatus(ctx context.Context, id, status string, upd *JobUpdate) error
	// ScheduleRetry increments retry_count and pushes next_run_at out by
	// backoff, releasing the lock so any worker can pick the job up again.
	ScheduleRetry(ctx context.Context, id string, backoff time.Duration, errCode, errMsg string) error
	// MarkJobFailed moves the job to FAILED, records the error and releases
	// the lock.
	MarkJobFailed(ctx context.Context, id, errCode, errMsg string, actor string) error
	// ReleaseLock clears locked_at/locked_by without touching status.
	ReleaseLock(ctx context.Context, id string) error
	// ListLockedJobIDs returns the ids of all currently locked jobs. Used
	// at startup to decide which temp directories are orphans.
	ListLockedJobIDs(ctx context.Context) ([]string, error)
	// ListStaleUploads returns jobs stuck in CREATED or UPLOADING whose
	// upload never progressed past cutoff.
	ListStaleUploads(ctx context.Context, cutoff time.Time, limit int) ([]*model.Job, error)
	// PurgeOldSSOT blanks the ssot column of terminal jobs whose last
	// update predates cutoff. Returns the number of jobs purged.
	PurgeOldSSOT(ctx context.Context, cutoff time.Time) (int64, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
}

type JobFacade struct {
	BaseFacade
}

func NewJobFacade() JobFacadeInterface {
	return &JobFacade{}
}

func (f *JobFacade) ClaimJob(ctx context.Context, workerID string) (*model.Job, error) {
	db := f.getDB().WithContext(ctx)
	var claimed *model.Job
	now := time.Now().UTC()
	err := db.Transaction(func(tx *gorm.DB) error {
		query := tx.Model(&model.Job{})
		if supportsSkipLocked(tx) {
			query = query.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		}
		var job model.Job
		result := query.
			Where("status IN ?", claimableStatuses).
			Where("locked_at IS NULL OR locked_at < ?", now.Add(-model.LockHorizon)).
			Where("next_run_at IS NULL OR next_run_at <= ?", now).
			Order("created_at ASC").
			First(&job)
		if result.Error != nil {
			if result.Error == gorm.ErrRecordNotFound {
				return nil
			}
			return result.Error
		}
		if job.LockedAt != nil {
			log.Warnf("reclaiming job %s from stale lock held by %v since %v",
				job.ID, job.LockedBy, job.LockedAt)
		}
		job.LockedAt = &now
		job.LockedBy = &workerID
		if err := tx.Save(&job).Error; err != nil {
			return err
		}
		claimed = &job
		return nil
	})
	if err != nil {
		return nil, dbErr("claim job", err)
	}
	return claimed, nil
}

func (f *JobFacade) GetJob(ctx context.Context, id string) (*model.Job, error) {
	db := f.getDB().WithContext(ctx)
	var job model.Job
	result := db.Where("id = ?", id).First(&job)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, result.Error
	}
	return &job, nil
}

func (f *JobFacade) UpdateJobStatus(ctx context.Context, id, status string, upd *JobUpdate) error {
	db := f.getDB().WithContext(ctx)
	return db.Transaction(func(tx *gorm.DB) error {
		values := map[string]interface{}{
			"status":     status,
			"updated_at": time.Now().UTC(),
		}
		if upd != nil {
			if upd.SSOT != nil {
				values["ssot"] = upd.SSOT
			}
			if upd.StageProgress != nil {
				values["stage_progress"] = upd.StageProgress
			}
			if upd.ErrorCode != nil {
				values["error_code"] = *upd.ErrorCode
			}
			if upd.ErrorMessage != nil {
				values["error_message"] = *upd.ErrorMessage
			}
			if upd.NextRunAt != nil {
				values["next_run_at"] = *upd.NextRunAt
			}
			if upd.ClearLock {
				values["locked_at"] = nil
				values["locked_by"] = nil
			}
		}
		result := tx.Model(&model.Job{}).Where("id = ?", id).Updates(values)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrJobNotFound
		}
		if upd != nil && upd.Actor != "" {
			audit := &model.AuditLog{
				ID:        uuid.NewString(),
				JobID:     id,
				Action:    "STATUS_" + status,
				Actor:     upd.Actor,
				Timestamp: time.Now().UTC(),
			}
			if err := tx.Create(audit).Error; err != nil {
				// Audit is best effort; the transition itself must land.
				log.Warnf("audit write for job %s failed: %v", id, err)
			}
		}
		return nil
	})
}

func (f *JobFacade) ScheduleRetry(ctx context.Context, id string, backoff time.Duration, errCode, errMsg string) error {
	db := f.getDB().WithContext(ctx)
	nextRun := time.Now().UTC().Add(backoff)
	result := db.Model(&model.Job{}).Where("id = ?", id).Updates(map[string]interface{}{
		"retry_count":   gorm.Expr("retry_count + 1"),
		"next_run_at":   nextRun,
		"error_code":    errCode,
		"error_message": errMsg,
		"locked_at":     nil,
		"locked_by":     nil,
		"updated_at":    time.Now().UTC(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrJobNotFound
	}
	return nil
}

func (f *JobFacade) MarkJobFailed(ctx context.Context, id, errCode, errMsg string, actor string) error {
	return f.UpdateJobStatus(ctx, id, model.JobStatusFailed, &JobUpdate{
		ErrorCode:    &errCode,
		ErrorMessage: &errMsg,
		ClearLock:    true,
		Actor:        actor,
	})
}

func (f *JobFacade) ReleaseLock(ctx context.Context, id string) error {
	db := f.getDB().WithContext(ctx)
	return db.Model(&model.Job{}).Where("id = ?", id).Updates(map[string]interface{}{
		"locked_at": nil,
		"locked_by": nil,
	}).Error
}

func (f *JobFacade) ListLockedJobIDs(ctx context.Context) ([]string, error) {
	db := f.getDB().WithContext(ctx)
	var ids []string
	result := db.Model(&model.Job{}).
		Where("locked_at IS NOT NULL").
		Pluck("id", &ids)
	if result.Error != nil {
		return nil, result.Error
	}
	return ids, nil
}

func (f *JobFacade) ListStaleUploads(ctx context.Context, cutoff time.Time, limit int) ([]*model.Job, error) {
	db := f.getDB().WithContext(ctx)
	var jobs []*model.Job
	result := db.
		Where("status IN ?", []string{model.JobStatusCreated, model.JobStatusUploading}).
		Where("created_at < ?", cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&jobs)
	if result.Error != nil {
		return nil, result.Error
	}
	return jobs, nil
}

func (f *JobFacade) PurgeOldSSOT(ctx context.Context, cutoff time.Time) (int64, error) {
	db := f.getDB().WithContext(ctx)
	result := db.Model(&model.Job{}).
		Where("status = ?", model.JobStatusDone).
		Where("updated_at < ?", cutoff).
		Where("ssot <> ?", "{}").
		Update("ssot", json.RawMessage("{}"))
	return result.RowsAffected, result.Error
}

func (f *JobFacade) CountByStatus(ctx context.Context, status string) (int64, error) {
	db := f.getDB().WithContext(ctx)
	var count int64
	result := db.Model(&model.Job{}).Where("status = ?", status).Count(&count)
	return count, result.Error
}
