package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/config"
	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/database"
	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/database/model"
	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/disk"
	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/generators"
	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/logger/log"
	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/ssot"
)

// outputTTL is how long generated artifacts live before the cleanup sweep
// reclaims them. Regeneration always produces a fresh version.
const outputTTL = 30 * 24 * time.Hour

// nextOutputVersion returns one past the highest recorded version of an
// output type, starting at 1.
func nextOutputVersion(outputs []ssot.Output, outputType string) int {
	version := 0
	for _, out := range outputs {
		if out.Type == outputType && out.Version > version {
			version = out.Version
		}
	}
	return version + 1
}

// publishOutput uploads a generated file and records it both as an SSOT
// output entry and as a storage_objects row with a 30 day TTL.
func (r *Runner) publishOutput(ctx context.Context, job *model.Job, localPath, outputType string, version int) (*ssot.Output, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(data)
	digest := hex.EncodeToString(sum[:])

	key := fmt.Sprintf("%s/%s/%s", job.ProjectID, job.ID, filepath.Base(localPath))
	if err := r.store.PutBytes(ctx, config.BucketOutputs, key, data, "application/pdf"); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	expires := now.Add(outputTTL)
	if err := r.objects.CreateStorageObject(ctx, &model.StorageObject{
		ID:          uuid.NewString(),
		JobID:       job.ID,
		Bucket:      config.BucketOutputs,
		Key:         key,
		SizeBytes:   int64(len(data)),
		SHA256:      digest,
		ContentType: "application/pdf",
		TTLPolicy:   "30d",
		ExpiresAt:   &expires,
	}); err != nil {
		// The blob is up; a missing row only delays its expiry sweep.
		log.Warnf("could not record storage object for %s: %v", key, err)
	}

	return &ssot.Output{
		OutputID:    uuid.NewString(),
		Type:        outputType,
		Version:     version,
		Bucket:      config.BucketOutputs,
		Key:         key,
		GeneratedAt: now.Format(time.RFC3339),
		SHA256:      digest,
	}, nil
}

// runGeneration validates the SSOT and, when clean, produces the bid PDF and
// the shop drawing set. Blocking validation findings push the job back to
// PRICED for another review round instead of burning a retry.
func (r *Runner) runGeneration(ctx context.Context, job *model.Job) error {
	log.Infof("starting GENERATING stage for job %s", job.ID)
	if err := r.jobs.UpdateJobStatus(ctx, job.ID, model.JobStatusGenerating, &database.JobUpdate{Actor: r.cfg.WorkerID}); err != nil {
		return err
	}

	doc, err := ssot.Load(job.SSOT)
	if err != nil {
		return err
	}

	findings := generators.ValidateForGeneration(doc)
	if blocking := generators.BlockingErrors(findings); len(blocking) > 0 {
		log.Warnf("generation blocked for job %s: %d blocking finding(s)", job.ID, len(blocking))
		code := "VALIDATION_ERROR"
		msg := fmt.Sprintf("Validation failed: %d error(s)", len(blocking))
		// Cooldown keeps the queue from re-claiming an unfixed job every
		// poll; a review round resets next_run_at on the platform side.
		nextRun := time.Now().UTC().Add(time.Hour)
		return r.jobs.UpdateJobStatus(ctx, job.ID, model.JobStatusPriced, &database.JobUpdate{
			ErrorCode:    &code,
			ErrorMessage: &msg,
			NextRunAt:    &nextRun,
			ClearLock:    true,
			StageProgress: stageProgress(map[string]interface{}{
				"stage":  "generation",
				"status": "validation_failed",
				// Platform review renders these; warnings stay out.
				"errors": blocking,
			}),
			Actor: r.cfg.WorkerID,
		})
	}

	tempDir := disk.JobTempDir(r.cfg.TempDir, job.ID)
	var newOutputs []ssot.Output

	bidVersion := nextOutputVersion(doc.Outputs, ssot.OutputBidPDF)
	bidPath := filepath.Join(tempDir, fmt.Sprintf("bid-v%d.pdf", bidVersion))
	if err := generators.GenerateBidPDF(doc, bidPath); err != nil {
		return err
	}
	bidOut, err := r.publishOutput(ctx, job, bidPath, ssot.OutputBidPDF, bidVersion)
	if err != nil {
		return err
	}
	newOutputs = append(newOutputs, *bidOut)

	// Shop drawings are best effort: a bid without drawings still ships.
	sdVersion := nextOutputVersion(doc.Outputs, ssot.OutputShopDrawingsPDF)
	sdPath := filepath.Join(tempDir, fmt.Sprintf("shop-drawings-v%d.pdf", sdVersion))
	if err := generators.GenerateShopDrawingsPDF(doc, sdPath); err != nil {
		log.Errorf("shop drawings generation failed for job %s: %v", job.ID, err)
	} else {
		sdOut, err := r.publishOutput(ctx, job, sdPath, ssot.OutputShopDrawingsPDF, sdVersion)
		if err != nil {
			log.Errorf("shop drawings upload failed for job %s: %v", job.ID, err)
		} else {
			newOutputs = append(newOutputs, *sdOut)
		}
	}

	// Supersede prior entries of the regenerated types, keep the rest.
	kept := doc.Outputs[:0:0]
	for _, out := range doc.Outputs {
		if out.Type == ssot.OutputBidPDF || out.Type == ssot.OutputShopDrawingsPDF {
			continue
		}
		kept = append(kept, out)
	}
	doc.Outputs = append(kept, newOutputs...)

	raw, err := doc.Dump()
	if err != nil {
		return err
	}
	if err := r.jobs.UpdateJobStatus(ctx, job.ID, model.JobStatusDone, &database.JobUpdate{
		SSOT:      raw,
		ClearLock: true,
		StageProgress: stageProgress(map[string]interface{}{
			"stage":   "generation",
			"status":  "complete",
			"outputs": len(newOutputs),
		}),
		Actor: r.cfg.WorkerID,
	}); err != nil {
		return err
	}
	log.Infof("GENERATING complete for job %s: %d output(s)", job.ID, len(newOutputs))
	return nil
}
