// Package cleanup owns the retention sweeps: expired blobs, abandoned
// uploads, old SSOT payloads and audit rows, plus the emergency page-cache
// eviction when the disk crosses the hard limit.
package cleanup

import (
	"context"
	"time"

	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/config"
	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/database"
	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/database/model"
	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/disk"
	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/logger/log"
	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/objstore"
)

const (
	// StaleUploadAge is how long a job may sit in CREATED or UPLOADING
	// before it is written off as abandoned.
	StaleUploadAge = 24 * time.Hour
	// staleUploadBatch bounds one abandoned-upload sweep.
	staleUploadBatch = 100

	// RetentionAge is the SSOT and audit retention window.
	RetentionAge = 180 * 24 * time.Hour

	// StaleThumbAge is how long a PENDING thumb render may wait before it
	// is dropped; the review UI will re-request what it still needs.
	StaleThumbAge = 1 * time.Hour
	// maxPendingThumbsPerJob caps the thumb backlog a single job may hold.
	maxPendingThumbsPerJob = 50

	// EmergencyEvictionPct is the disk usage at which the page cache gets
	// force-evicted regardless of TTLs.
	EmergencyEvictionPct = 90.0
	// emergencyEvictionBatch is how many page-cache objects one eviction
	// pass removes, oldest first.
	emergencyEvictionBatch = 200
)

// Cleaner runs the retention sweeps. All sweeps are safe to repeat; a sweep
// interrupted halfway simply leaves work for the next pass.
type Cleaner struct {
	cfg      *config.Config
	store    objstore.Store
	jobs     database.JobFacadeInterface
	objects  database.StorageObjectFacadeInterface
	requests database.RenderRequestFacadeInterface
	audits   database.AuditFacadeInterface
}

func New(cfg *config.Config, store objstore.Store) *Cleaner {
	return &Cleaner{
		cfg:      cfg,
		store:    store,
		jobs:     database.NewJobFacade(),
		objects:  database.NewStorageObjectFacade(),
		requests: database.NewRenderRequestFacade(),
		audits:   database.NewAuditFacade(),
	}
}

// removeObject deletes a blob and its row. The blob delete is best effort;
// the row delete must land or the object would never be retried.
func (c *Cleaner) removeObject(ctx context.Context, obj *model.StorageObject) error {
	if err := c.store.Remove(ctx, obj.Bucket, obj.Key); err != nil {
		log.Warnf("could not delete blob %s/%s: %v", obj.Bucket, obj.Key, err)
	}
	return c.objects.DeleteStorageObject(ctx, obj.ID)
}

// SweepExpiredObjects deletes storage objects whose TTL has passed, at most
// ExpiredBatchSize per call.
func (c *Cleaner) SweepExpiredObjects(ctx context.Context) (int, error) {
	expired, err := c.objects.ListExpired(ctx, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	deleted := 0
	for _, obj := range expired {
		if err := c.removeObject(ctx, obj); err != nil {
			log.Errorf("could not delete storage object row %s: %v", obj.ID, err)
			continue
		}
		deleted++
	}
	if deleted > 0 {
		log.Infof("expired object sweep: %d of %d deleted", deleted, len(expired))
	}
	return deleted, nil
}

// FailStaleUploads fails jobs whose upload never completed, deleting
// whatever partial blobs they left behind.
func (c *Cleaner) FailStaleUploads(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-StaleUploadAge)
	stale, err := c.jobs.ListStaleUploads(ctx, cutoff, staleUploadBatch)
	if err != nil {
		return 0, err
	}
	failed := 0
	for _, job := range stale {
		objs, err := c.objects.ListByJob(ctx, job.ID)
		if err != nil {
			log.Warnf("could not list objects for stale upload %s: %v", job.ID, err)
		}
		for _, obj := range objs {
			if err := c.removeObject(ctx, obj); err != nil {
				log.Warnf("could not delete object %s of stale upload %s: %v", obj.ID, job.ID, err)
			}
		}
		if err := c.jobs.MarkJobFailed(ctx, job.ID, "UPLOAD_ABANDONED",
			"Upload abandoned after 24h of inactivity", c.cfg.WorkerID); err != nil {
			log.Errorf("could not fail stale upload %s: %v", job.ID, err)
			continue
		}
		failed++
	}
	if failed > 0 {
		log.Infof("stale upload sweep: %d job(s) failed as abandoned", failed)
	}
	return failed, nil
}

// PurgeOldData blanks the SSOT of long-done jobs and drops audit rows past
// the retention window.
func (c *Cleaner) PurgeOldData(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-RetentionAge)

	purged, err := c.jobs.PurgeOldSSOT(ctx, cutoff)
	if err != nil {
		return err
	}
	if purged > 0 {
		log.Infof("ssot retention: %d job(s) purged", purged)
	}

	dropped, err := c.audits.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}
	if dropped > 0 {
		log.Infof("audit retention: %d row(s) deleted", dropped)
	}
	return nil
}

// ThumbHygiene drops thumb render requests nobody is waiting on anymore:
// stale PENDING requests and per-job backlogs over the cap.
func (c *Cleaner) ThumbHygiene(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-StaleThumbAge)
	expired, err := c.requests.ExpireStaleThumbs(ctx, cutoff)
	if err != nil {
		return err
	}
	trimmed, err := c.requests.TrimPendingThumbs(ctx, maxPendingThumbsPerJob)
	if err != nil {
		return err
	}
	if expired > 0 || trimmed > 0 {
		log.Infof("thumb hygiene: %d expired, %d trimmed", expired, trimmed)
	}
	return nil
}

// EmergencyEvict force-deletes the oldest page-cache objects when the disk
// is nearly full. Evicted renders regenerate on demand.
func (c *Cleaner) EmergencyEvict(ctx context.Context) (int, error) {
	pct := disk.UsagePct(c.cfg.TempDir)
	if pct < EmergencyEvictionPct {
		return 0, nil
	}
	log.Warnf("emergency eviction: disk at %.1f%%, evicting oldest page-cache objects", pct)

	oldest, err := c.objects.ListOldestInBucket(ctx, config.BucketPageCache, emergencyEvictionBatch)
	if err != nil {
		return 0, err
	}
	evicted := 0
	for _, obj := range oldest {
		if err := c.removeObject(ctx, obj); err != nil {
			log.Warnf("could not evict %s/%s: %v", obj.Bucket, obj.Key, err)
			continue
		}
		evicted++
	}
	log.Warnf("emergency eviction: %d object(s) evicted", evicted)
	return evicted, nil
}

// RunOnce executes the full cleanup pass. Sweeps are independent; one
// failing does not stop the rest.
func (c *Cleaner) RunOnce(ctx context.Context) {
	log.Infof("starting cleanup pass")
	if _, err := c.SweepExpiredObjects(ctx); err != nil {
		log.Errorf("expired object sweep failed: %v", err)
	}
	if _, err := c.FailStaleUploads(ctx); err != nil {
		log.Errorf("stale upload sweep failed: %v", err)
	}
	if err := c.PurgeOldData(ctx); err != nil {
		log.Errorf("retention purge failed: %v", err)
	}
	if err := c.ThumbHygiene(ctx); err != nil {
		log.Errorf("thumb hygiene failed: %v", err)
	}
	if _, err := c.EmergencyEvict(ctx); err != nil {
		log.Errorf("emergency eviction failed: %v", err)
	}
	log.Infof("cleanup pass finished")
}
