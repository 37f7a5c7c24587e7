package database

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/database/model"
)

func seedJob(t *testing.T, h *TestHelper, status string, mutate func(*model.Job)) *model.Job {
	job := &model.Job{
		ID:         uuid.NewString(),
		ProjectID:  "proj-1",
		Status:     status,
		SSOT:       json.RawMessage(`{}`),
		MaxRetries: 3,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
	if mutate != nil {
		mutate(job)
	}
	require.NoError(t, h.DB.Create(job).Error)
	return job
}

func TestJobFacade_ClaimJob(t *testing.T) {
	h := NewTestHelper(t)
	defer h.Cleanup()
	ctx := h.CreateTestContext()
	facade := NewJobFacade()

	t.Run("empty queue returns nil nil", func(t *testing.T) {
		job, err := facade.ClaimJob(ctx, "worker-1")
		require.NoError(t, err)
		assert.Nil(t, job)
	})

	t.Run("claims oldest eligible job and stamps lock", func(t *testing.T) {
		newer := seedJob(t, h, model.JobStatusUploaded, func(j *model.Job) {
			j.CreatedAt = time.Now().UTC()
		})
		older := seedJob(t, h, model.JobStatusReviewed, func(j *model.Job) {
			j.CreatedAt = time.Now().UTC().Add(-time.Hour)
		})

		job, err := facade.ClaimJob(ctx, "worker-1")
		require.NoError(t, err)
		require.NotNil(t, job)
		assert.Equal(t, older.ID, job.ID)
		require.NotNil(t, job.LockedAt)
		require.NotNil(t, job.LockedBy)
		assert.Equal(t, "worker-1", *job.LockedBy)

		// The newer job is still there for the next claim.
		job2, err := facade.ClaimJob(ctx, "worker-2")
		require.NoError(t, err)
		require.NotNil(t, job2)
		assert.Equal(t, newer.ID, job2.ID)

		h.TruncateTable(model.TableNameJob)
	})

	t.Run("skips non claimable statuses", func(t *testing.T) {
		for _, status := range []string{
			model.JobStatusCreated, model.JobStatusUploading,
			model.JobStatusIndexing, model.JobStatusNeedsReview,
			model.JobStatusDone, model.JobStatusFailed,
		} {
			seedJob(t, h, status, nil)
		}
		job, err := facade.ClaimJob(ctx, "worker-1")
		require.NoError(t, err)
		assert.Nil(t, job)
		h.TruncateTable(model.TableNameJob)
	})

	t.Run("skips freshly locked job", func(t *testing.T) {
		lockedAt := time.Now().UTC().Add(-2 * time.Minute)
		owner := "worker-2"
		seedJob(t, h, model.JobStatusUploaded, func(j *model.Job) {
			j.LockedAt = &lockedAt
			j.LockedBy = &owner
		})
		job, err := facade.ClaimJob(ctx, "worker-1")
		require.NoError(t, err)
		assert.Nil(t, job)
		h.TruncateTable(model.TableNameJob)
	})

	t.Run("reclaims job whose lock is past the horizon", func(t *testing.T) {
		lockedAt := time.Now().UTC().Add(-model.LockHorizon - time.Minute)
		owner := "worker-dead"
		stale := seedJob(t, h, model.JobStatusPriced, func(j *model.Job) {
			j.LockedAt = &lockedAt
			j.LockedBy = &owner
		})
		job, err := facade.ClaimJob(ctx, "worker-1")
		require.NoError(t, err)
		require.NotNil(t, job)
		assert.Equal(t, stale.ID, job.ID)
		assert.Equal(t, "worker-1", *job.LockedBy)
		h.TruncateTable(model.TableNameJob)
	})

	t.Run("respects next_run_at backoff window", func(t *testing.T) {
		future := time.Now().UTC().Add(time.Hour)
		seedJob(t, h, model.JobStatusUploaded, func(j *model.Job) {
			j.NextRunAt = &future
		})
		job, err := facade.ClaimJob(ctx, "worker-1")
		require.NoError(t, err)
		assert.Nil(t, job)

		past := time.Now().UTC().Add(-time.Second)
		due := seedJob(t, h, model.JobStatusUploaded, func(j *model.Job) {
			j.NextRunAt = &past
		})
		job, err = facade.ClaimJob(ctx, "worker-1")
		require.NoError(t, err)
		require.NotNil(t, job)
		assert.Equal(t, due.ID, job.ID)
		h.TruncateTable(model.TableNameJob)
	})
}

func TestJobFacade_UpdateJobStatus(t *testing.T) {
	h := NewTestHelper(t)
	defer h.Cleanup()
	ctx := h.CreateTestContext()
	facade := NewJobFacade()

	t.Run("applies ssot and clears lock", func(t *testing.T) {
		lockedAt := time.Now().UTC()
		owner := "worker-1"
		job := seedJob(t, h, model.JobStatusUploaded, func(j *model.Job) {
			j.LockedAt = &lockedAt
			j.LockedBy = &owner
		})

		ssot := json.RawMessage(`{"metadata":{"page_count":3}}`)
		err := facade.UpdateJobStatus(ctx, job.ID, model.JobStatusIndexed, &JobUpdate{
			SSOT:      ssot,
			ClearLock: true,
			Actor:     "worker-1",
		})
		require.NoError(t, err)

		got, err := facade.GetJob(ctx, job.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, model.JobStatusIndexed, got.Status)
		assert.JSONEq(t, string(ssot), string(got.SSOT))
		assert.Nil(t, got.LockedAt)
		assert.Nil(t, got.LockedBy)

		// Transition wrote an audit row.
		assert.Equal(t, int64(1), h.Count(model.TableNameAuditLog))
		h.TruncateTable(model.TableNameJob)
		h.TruncateTable(model.TableNameAuditLog)
	})

	t.Run("unknown job id", func(t *testing.T) {
		err := facade.UpdateJobStatus(ctx, "missing", model.JobStatusIndexed, nil)
		assert.ErrorIs(t, err, ErrJobNotFound)
	})
}

func TestJobFacade_ScheduleRetry(t *testing.T) {
	h := NewTestHelper(t)
	defer h.Cleanup()
	ctx := h.CreateTestContext()
	facade := NewJobFacade()

	lockedAt := time.Now().UTC()
	owner := "worker-1"
	job := seedJob(t, h, model.JobStatusUploaded, func(j *model.Job) {
		j.LockedAt = &lockedAt
		j.LockedBy = &owner
	})

	before := time.Now().UTC()
	err := facade.ScheduleRetry(ctx, job.ID, 30*time.Second, "RenderError", "page 2 raster failed")
	require.NoError(t, err)

	got, err := facade.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.RetryCount)
	assert.Equal(t, "RenderError", got.ErrorCode)
	assert.Nil(t, got.LockedAt)
	assert.Nil(t, got.LockedBy)
	require.NotNil(t, got.NextRunAt)
	assert.True(t, got.NextRunAt.After(before.Add(29*time.Second)))
	// Status untouched; the job retries the same stage.
	assert.Equal(t, model.JobStatusUploaded, got.Status)
}

func TestJobFacade_MarkJobFailed(t *testing.T) {
	h := NewTestHelper(t)
	defer h.Cleanup()
	ctx := h.CreateTestContext()
	facade := NewJobFacade()

	job := seedJob(t, h, model.JobStatusUploaded, nil)
	err := facade.MarkJobFailed(ctx, job.ID, "ValueError", "corrupt source PDF", "worker-1")
	require.NoError(t, err)

	got, err := facade.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusFailed, got.Status)
	assert.Equal(t, "ValueError", got.ErrorCode)
	assert.Equal(t, "corrupt source PDF", got.ErrorMessage)
	assert.True(t, got.IsTerminal())
}

func TestJobFacade_Cleanup(t *testing.T) {
	h := NewTestHelper(t)
	defer h.Cleanup()
	ctx := h.CreateTestContext()
	facade := NewJobFacade()

	t.Run("lists stale uploads only", func(t *testing.T) {
		cutoff := time.Now().UTC().Add(-24 * time.Hour)
		stale := seedJob(t, h, model.JobStatusUploading, func(j *model.Job) {
			j.CreatedAt = cutoff.Add(-time.Hour)
		})
		seedJob(t, h, model.JobStatusUploading, nil) // recent
		seedJob(t, h, model.JobStatusUploaded, func(j *model.Job) {
			j.CreatedAt = cutoff.Add(-time.Hour)
		})

		jobs, err := facade.ListStaleUploads(ctx, cutoff, 100)
		require.NoError(t, err)
		require.Len(t, jobs, 1)
		assert.Equal(t, stale.ID, jobs[0].ID)
		h.TruncateTable(model.TableNameJob)
	})

	t.Run("purges ssot of old terminal jobs", func(t *testing.T) {
		cutoff := time.Now().UTC().Add(-180 * 24 * time.Hour)
		old := seedJob(t, h, model.JobStatusDone, func(j *model.Job) {
			j.SSOT = json.RawMessage(`{"items":[{"id":"i1"}]}`)
			j.UpdatedAt = cutoff.Add(-time.Hour)
		})
		fresh := seedJob(t, h, model.JobStatusDone, func(j *model.Job) {
			j.SSOT = json.RawMessage(`{"items":[]}`)
		})

		n, err := facade.PurgeOldSSOT(ctx, cutoff)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		got, _ := facade.GetJob(ctx, old.ID)
		assert.JSONEq(t, `{}`, string(got.SSOT))
		got, _ = facade.GetJob(ctx, fresh.ID)
		assert.JSONEq(t, `{"items":[]}`, string(got.SSOT))
		h.TruncateTable(model.TableNameJob)
	})
}
