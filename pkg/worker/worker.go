// Package worker is the poll loop tying the queues together: heartbeat,
// disk admission, render requests first, then one main-queue job per cycle,
// with a periodic cleanup pass.
package worker

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/cleanup"
	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/config"
	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/database"
	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/database/model"
	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/disk"
	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/logger/log"
	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/objstore"
	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/pipeline"
	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/renderer"
)

// pressureBackoffFactor stretches the poll interval while the disk guard
// keeps the worker out of new work.
const pressureBackoffFactor = 5

// Worker runs one poll loop. A deployment scales by running more workers;
// the SKIP LOCKED claim keeps them from stepping on each other.
type Worker struct {
	cfg        *config.Config
	store      objstore.Store
	runner     *pipeline.Runner
	renderer   *renderer.Renderer
	cleaner    *cleanup.Cleaner
	jobs       database.JobFacadeInterface
	requests   database.RenderRequestFacadeInterface
	heartbeats database.HeartbeatFacadeInterface

	// lastCleanup starts at the zero time so the first tick runs a sweep.
	lastCleanup time.Time
}

func New(cfg *config.Config, store objstore.Store) *Worker {
	return &Worker{
		cfg:        cfg,
		store:      store,
		runner:     pipeline.New(cfg, store),
		renderer:   renderer.New(cfg, store),
		cleaner:    cleanup.New(cfg, store),
		jobs:       database.NewJobFacade(),
		requests:   database.NewRenderRequestFacade(),
		heartbeats: database.NewHeartbeatFacade(),
	}
}

// Run blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if w.cfg.MetricsPort > 0 {
		serveMetrics(w.cfg.MetricsPort)
	}

	if w.cfg.WorkerMode == config.ModeCleanupOnly {
		return w.runCleanupOnly(ctx)
	}

	log.Infof("worker %s starting in %s mode, poll interval %s",
		w.cfg.WorkerID, w.cfg.WorkerMode, w.cfg.PollInterval)
	for {
		if ctx.Err() != nil {
			log.Infof("worker %s shutting down", w.cfg.WorkerID)
			return nil
		}
		sleep := w.tick(ctx)
		if !sleepCtx(ctx, sleep) {
			log.Infof("worker %s shutting down", w.cfg.WorkerID)
			return nil
		}
	}
}

// runCleanupOnly schedules the cleanup pass on the configured cron spec
// after one immediate pass, then waits for shutdown.
func (w *Worker) runCleanupOnly(ctx context.Context) error {
	log.Infof("worker %s starting in cleanup_only mode, cron %q", w.cfg.WorkerID, w.cfg.CleanupCron)
	w.heartbeat(ctx, model.WorkerStatusProcessing, nil)
	w.cleaner.RunOnce(ctx)

	c := cron.New()
	if _, err := c.AddFunc(w.cfg.CleanupCron, func() {
		w.cleaner.RunOnce(context.Background())
	}); err != nil {
		return err
	}
	c.Start()
	defer c.Stop()

	for {
		if !sleepCtx(ctx, w.cfg.PollInterval) {
			log.Infof("worker %s shutting down", w.cfg.WorkerID)
			return nil
		}
		w.heartbeat(ctx, model.WorkerStatusIdle, nil)
	}
}

// tick runs one poll cycle and returns how long to sleep before the next.
func (w *Worker) tick(ctx context.Context) time.Duration {
	w.heartbeat(ctx, model.WorkerStatusIdle, nil)

	// Admission control: no new work while the scratch volume is tight.
	// Cleanup still runs so pressure can resolve itself.
	if disk.IsPressure(w.cfg.TempDir, w.cfg.DiskPressureThreshold) {
		cyclesSkipped.Inc()
		w.maybeCleanup(ctx)
		return time.Duration(pressureBackoffFactor) * w.cfg.PollInterval
	}

	// Renders come first: a pending render is a user staring at a spinner.
	renderedAny := w.processRenders(ctx)

	if w.cfg.WorkerMode == config.ModeFull && !renderedAny {
		w.processMainJob(ctx)
	}

	w.maybeCleanup(ctx)
	return w.cfg.PollInterval
}

// processRenders drains one render request. Returns true when a request was
// handled, successfully or not.
func (w *Worker) processRenders(ctx context.Context) bool {
	req, err := w.requests.ClaimRenderRequest(ctx)
	if err != nil {
		log.Errorf("render claim failed: %v", err)
		return false
	}
	if req == nil {
		return false
	}
	w.heartbeat(ctx, model.WorkerStatusProcessing, &req.JobID)

	result := "ok"
	if err := w.renderer.ProcessRenderRequest(ctx, req); err != nil {
		result = "error"
	}
	rendersProcessed.WithLabelValues(req.Kind, result).Inc()

	if pending, err := w.requests.CountPending(ctx); err == nil {
		pendingRenders.Set(float64(pending))
	}
	return true
}

func (w *Worker) processMainJob(ctx context.Context) {
	job, err := w.jobs.ClaimJob(ctx, w.cfg.WorkerID)
	if err != nil {
		log.Errorf("job claim failed: %v", err)
		return
	}
	if job == nil {
		return
	}

	log.Infof("claimed job %s (status %s)", job.ID, job.Status)
	w.heartbeat(ctx, model.WorkerStatusProcessing, &job.ID)

	if err := w.runner.ProcessMainJob(ctx, job); err != nil {
		jobsProcessed.WithLabelValues("error").Inc()
		return
	}
	jobsProcessed.WithLabelValues("ok").Inc()
}

func (w *Worker) maybeCleanup(ctx context.Context) {
	if time.Since(w.lastCleanup) < w.cfg.CleanupInterval {
		return
	}
	w.cleaner.RunOnce(ctx)
	w.lastCleanup = time.Now()
}

// heartbeat writes the liveness row. Failures are logged and swallowed; a
// missed heartbeat must never stall the loop.
func (w *Worker) heartbeat(ctx context.Context, status string, currentJobID *string) {
	diskPct := disk.UsagePct(w.cfg.TempDir)
	memMB := disk.ProcessRSSMB()
	diskUsagePct.Set(diskPct)
	memoryUsageMB.Set(memMB)

	if err := w.heartbeats.UpsertHeartbeat(ctx, &model.WorkerHeartbeat{
		WorkerID:      w.cfg.WorkerID,
		Status:        status,
		CurrentJobID:  currentJobID,
		MemoryUsageMB: memMB,
		DiskUsagePct:  diskPct,
	}); err != nil {
		log.Warnf("heartbeat failed: %v", err)
	}
}

// sleepCtx sleeps for d, returning false when ctx was cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
