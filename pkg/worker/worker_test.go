package worker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/config"
	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/database"
	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/database/model"
	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/objstore"
)

func testWorker(t *testing.T) *Worker {
	return New(&config.Config{
		WorkerID:   "worker-test",
		WorkerMode: config.ModeFull,
		TempDir:    t.TempDir(),
		// 99%: the guard must never trip on a test machine.
		DiskPressureThreshold: 99,
		PollInterval:          10 * time.Millisecond,
		CleanupInterval:       24 * time.Hour,
		ThumbDPI:              72,
		MeasureDPI:            200,
		MaxRenderPixels:       8000,
		MaxRenderDPI:          400,
	}, objstore.NewMemStore())
}

func TestTickWritesHeartbeat(t *testing.T) {
	h := database.NewTestHelper(t)
	defer h.Cleanup()
	ctx := h.CreateTestContext()
	w := testWorker(t)

	sleep := w.tick(ctx)
	assert.Equal(t, w.cfg.PollInterval, sleep)

	hb, err := database.NewHeartbeatFacade().GetHeartbeat(ctx, "worker-test")
	require.NoError(t, err)
	require.NotNil(t, hb)
	assert.Equal(t, model.WorkerStatusIdle, hb.Status)
}

func TestTickDiskPressureSkipsCycle(t *testing.T) {
	h := database.NewTestHelper(t)
	defer h.Cleanup()
	ctx := h.CreateTestContext()
	w := testWorker(t)
	// Any real volume has at least some usage.
	w.cfg.DiskPressureThreshold = 0.1

	// Seed a claimable job; the guard must leave it alone.
	require.NoError(t, h.DB.Create(&model.Job{
		ID: "job-1", Status: model.JobStatusUploaded,
		SSOT: json.RawMessage("{}"), CreatedAt: time.Now().UTC(),
	}).Error)

	sleep := w.tick(ctx)
	assert.Equal(t, pressureBackoffFactor*w.cfg.PollInterval, sleep)

	var job model.Job
	require.NoError(t, h.DB.Where("id = ?", "job-1").First(&job).Error)
	assert.Nil(t, job.LockedAt)
}

func TestTickRenderTakesPriorityOverMainJob(t *testing.T) {
	h := database.NewTestHelper(t)
	defer h.Cleanup()
	ctx := h.CreateTestContext()
	w := testWorker(t)

	require.NoError(t, h.DB.Create(&model.Job{
		ID: "job-1", Status: model.JobStatusUploaded,
		SSOT: json.RawMessage("{}"), CreatedAt: time.Now().UTC(),
	}).Error)
	// The render will fail (no source pdf) but still counts as the cycle's
	// unit of work.
	require.NoError(t, h.DB.Create(&model.RenderRequest{
		ID: "req-1", JobID: "job-1", PageNum: 0,
		Kind: model.RenderKindThumb, Status: model.RenderStatusPending,
		CreatedAt: time.Now().UTC(),
	}).Error)

	w.tick(ctx)

	var req model.RenderRequest
	require.NoError(t, h.DB.Where("id = ?", "req-1").First(&req).Error)
	assert.NotEqual(t, model.RenderStatusPending, req.Status, "render was handled")

	var job model.Job
	require.NoError(t, h.DB.Where("id = ?", "job-1").First(&job).Error)
	assert.Equal(t, model.JobStatusUploaded, job.Status, "main job deferred to next cycle")

	// The heartbeat was flipped to PROCESSING with the render's job.
	hb, err := database.NewHeartbeatFacade().GetHeartbeat(ctx, "worker-test")
	require.NoError(t, err)
	require.NotNil(t, hb)
	assert.Equal(t, model.WorkerStatusProcessing, hb.Status)
	require.NotNil(t, hb.CurrentJobID)
	assert.Equal(t, "job-1", *hb.CurrentJobID)
}

func TestFirstTickRunsCleanup(t *testing.T) {
	for _, mode := range []string{config.ModeFull, config.ModeRenderOnly} {
		t.Run(mode, func(t *testing.T) {
			h := database.NewTestHelper(t)
			defer h.Cleanup()
			ctx := h.CreateTestContext()
			w := testWorker(t)
			w.cfg.WorkerMode = mode

			past := time.Now().UTC().Add(-time.Hour)
			require.NoError(t, h.DB.Create(&model.StorageObject{
				ID: "exp-1", Bucket: config.BucketPageCache,
				Key: "j1/thumb-0000.png", ExpiresAt: &past,
			}).Error)

			// CleanupInterval is 24h, but lastCleanup starts at zero, so the
			// very first cycle sweeps.
			w.tick(ctx)
			assert.EqualValues(t, 0, h.Count(model.TableNameStorageObject))
			assert.False(t, w.lastCleanup.IsZero())
		})
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	h := database.NewTestHelper(t)
	defer h.Cleanup()
	w := testWorker(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop on cancel")
	}
}

func TestSleepCtx(t *testing.T) {
	assert.True(t, sleepCtx(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, sleepCtx(ctx, time.Hour))
}
