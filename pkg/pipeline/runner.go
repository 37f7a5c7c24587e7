// Package pipeline drives a claimed job through its stage chain: indexing,
// routing and extraction for fresh uploads, pricing after review, artifact
// generation after pricing. Every stage is idempotent so a reclaimed job can
// be replayed from its last committed status.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"

	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/config"
	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/database"
	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/database/model"
	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/disk"
	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/logger/log"
	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/objstore"
	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/pdfdoc"
)

// backoffSchedule is the retry backoff ladder, indexed by retry count and
// capped at the last entry.
var backoffSchedule = []time.Duration{
	30 * time.Second,
	2 * time.Minute,
	10 * time.Minute,
}

const pricebookCacheTTL = 5 * time.Minute

// OpenFunc opens a local PDF. Tests substitute a fake.
type OpenFunc func(path string) (pdfdoc.Document, error)

// stage is one step of a chain, named for error messages and progress rows.
type stage struct {
	name string
	run  func(ctx context.Context, job *model.Job) error
}

// Runner executes stage chains for claimed main-queue jobs.
type Runner struct {
	cfg        *config.Config
	store      objstore.Store
	jobs       database.JobFacadeInterface
	requests   database.RenderRequestFacadeInterface
	objects    database.StorageObjectFacadeInterface
	tasks      database.MeasurementTaskFacadeInterface
	pricebooks database.PricebookFacadeInterface
	openPDF    OpenFunc
	priceCache *cache.Cache
}

func New(cfg *config.Config, store objstore.Store) *Runner {
	return &Runner{
		cfg:        cfg,
		store:      store,
		jobs:       database.NewJobFacade(),
		requests:   database.NewRenderRequestFacade(),
		objects:    database.NewStorageObjectFacade(),
		tasks:      database.NewMeasurementTaskFacade(),
		pricebooks: database.NewPricebookFacade(),
		openPDF:    pdfdoc.Open,
		priceCache: cache.New(pricebookCacheTTL, 10*time.Minute),
	}
}

// WithOpenFunc overrides PDF opening, for tests.
func (r *Runner) WithOpenFunc(open OpenFunc) *Runner {
	r.openPDF = open
	return r
}

// stagesFor maps a claimable status to its chain. Anything else yields nil;
// the claim query should never hand such a job over.
func (r *Runner) stagesFor(status string) []stage {
	switch status {
	case model.JobStatusUploaded:
		return []stage{
			{"indexing", r.runIndexing},
			{"routing", r.runRouting},
			{"extracting", r.runExtraction},
		}
	case model.JobStatusReviewed:
		return []stage{{"pricing", r.runPricing}}
	case model.JobStatusPriced:
		return []stage{{"generation", r.runGeneration}}
	}
	return nil
}

// ProcessMainJob runs the stage chain for the job's entry status. The chain
// stops early when a stage parks the job in NEEDS_REVIEW or a terminal
// status; stage failures schedule a retry or fail the job for good.
func (r *Runner) ProcessMainJob(ctx context.Context, job *model.Job) error {
	entryStatus := job.Status
	defer disk.CleanupJobTemp(r.cfg.TempDir, job.ID)

	stages := r.stagesFor(entryStatus)
	if len(stages) == 0 {
		log.Warnf("claimed job %s in unexpected status %s, releasing", job.ID, entryStatus)
		return r.jobs.ReleaseLock(ctx, job.ID)
	}

	for _, st := range stages {
		if ctx.Err() != nil {
			// Shutdown mid-chain: release so another worker resumes from the
			// last committed status.
			log.Warnf("shutdown during job %s, releasing lock", job.ID)
			if err := r.jobs.ReleaseLock(ctx, job.ID); err != nil {
				log.Errorf("could not release lock for job %s: %v", job.ID, err)
			}
			return ctx.Err()
		}

		if err := st.run(ctx, job); err != nil {
			r.handleStageError(ctx, job, entryStatus, st.name, err)
			return err
		}

		fresh, err := r.jobs.GetJob(ctx, job.ID)
		if err != nil {
			return err
		}
		if fresh == nil {
			log.Warnf("job %s disappeared mid-chain", job.ID)
			return nil
		}
		job = fresh

		if job.Status == model.JobStatusNeedsReview {
			log.Infof("job %s parked in NEEDS_REVIEW, stopping chain", job.ID)
			return nil
		}
		if job.IsTerminal() {
			log.Infof("job %s reached %s", job.ID, job.Status)
			return nil
		}
	}

	// The chain ended in a waiting state (EXTRACTED, PRICED). Hand the lock
	// back so review and the next claim are not blocked on the horizon.
	return r.jobs.ReleaseLock(ctx, job.ID)
}

// handleStageError schedules a retry with backoff, or fails the job outright
// once retries are exhausted. Retried jobs get their entry status back so
// the claim query can see them again.
func (r *Runner) handleStageError(ctx context.Context, job *model.Job, entryStatus, stageName string, stageErr error) {
	code := errorCode(stageErr)
	msg := fmt.Sprintf("%s stage failed: %v", stageName, stageErr)

	maxRetries := job.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if job.RetryCount >= maxRetries {
		log.Errorf("job %s exhausted %d retries: %s", job.ID, job.RetryCount, msg)
		if err := r.jobs.MarkJobFailed(ctx, job.ID, code, msg, r.cfg.WorkerID); err != nil {
			log.Errorf("could not mark job %s failed: %v", job.ID, err)
		}
		return
	}

	idx := job.RetryCount
	if idx >= len(backoffSchedule) {
		idx = len(backoffSchedule) - 1
	}
	backoff := backoffSchedule[idx]
	log.Warnf("job %s stage %s failed (attempt %d/%d), retrying in %s: %v",
		job.ID, stageName, job.RetryCount+1, maxRetries, backoff, stageErr)

	if err := r.jobs.ScheduleRetry(ctx, job.ID, backoff, code, msg); err != nil {
		log.Errorf("could not schedule retry for job %s: %v", job.ID, err)
		return
	}
	// The row may be sitting in the stage's in-flight status; claim
	// eligibility needs the entry status back.
	if err := r.jobs.UpdateJobStatus(ctx, job.ID, entryStatus, nil); err != nil {
		log.Errorf("could not restore status %s on job %s: %v", entryStatus, job.ID, err)
	}
}

// errorCode classifies a stage error for the jobs.error_code column.
func errorCode(err error) string {
	cause := errors.Cause(err)
	switch {
	case cause == context.DeadlineExceeded:
		return "TIMEOUT"
	case cause == database.ErrJobNotFound:
		return "JOB_NOT_FOUND"
	case os.IsNotExist(cause):
		return "FILE_NOT_FOUND"
	}
	return "PIPELINE_ERROR"
}

// stageProgress marshals a progress snapshot for the stage_progress column.
func stageProgress(fields map[string]interface{}) json.RawMessage {
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil
	}
	return raw
}

// sourcePDFPath returns the local path of the job's source PDF, downloading
// it into the job's temp dir when no previous stage left a copy behind.
func (r *Runner) sourcePDFPath(ctx context.Context, job *model.Job) (string, error) {
	tempDir := disk.JobTempDir(r.cfg.TempDir, job.ID)
	localPDF := filepath.Join(tempDir, "source.pdf")
	if _, err := os.Stat(localPDF); err == nil {
		return localPDF, nil
	}

	sourceKey := ""
	obj, err := r.objects.FindSourcePDF(ctx, job.ID, config.BucketRawUploads)
	if err != nil {
		log.Warnf("storage object lookup for job %s failed: %v", job.ID, err)
	}
	if obj != nil {
		sourceKey = obj.Key
	}
	if sourceKey == "" {
		sourceKey = fmt.Sprintf("%s/%s/source.pdf", job.ProjectID, job.ID)
	}

	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return "", err
	}
	if err := r.store.DownloadToFile(ctx, config.BucketRawUploads, sourceKey, localPDF); err != nil {
		return "", err
	}
	return localPDF, nil
}
