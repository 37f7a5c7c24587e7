package pipeline

import (
	"context"

	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/database"
	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/database/model"
	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/logger/log"
	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/ssot"
)

// runRouting marks the pages worth extracting from and enqueues eager THUMB
// renders for them so the review UI has images before the user arrives.
func (r *Runner) runRouting(ctx context.Context, job *model.Job) error {
	log.Infof("starting ROUTING stage for job %s", job.ID)
	if err := r.jobs.UpdateJobStatus(ctx, job.ID, model.JobStatusRouting, &database.JobUpdate{Actor: r.cfg.WorkerID}); err != nil {
		return err
	}

	doc, err := ssot.Load(job.SSOT)
	if err != nil {
		return err
	}

	if len(doc.PageIndex) == 0 {
		log.Warnf("no page index for job %s, nothing to route", job.ID)
		raw, err := doc.Dump()
		if err != nil {
			return err
		}
		return r.jobs.UpdateJobStatus(ctx, job.ID, model.JobStatusRouted, &database.JobUpdate{
			SSOT: raw,
			StageProgress: stageProgress(map[string]interface{}{
				"stage": "routing", "status": "complete", "relevant_pages": 0,
			}),
			Actor: r.cfg.WorkerID,
		})
	}

	var relevantPages []int
	for _, page := range doc.PageIndex {
		relevant := relevantClassifications[page.Classification] ||
			len(page.RelevantTo) > 0
		if relevant {
			relevantPages = append(relevantPages, page.PageNum)
		}
	}
	log.Infof("routing complete for job %s: %d of %d pages relevant",
		job.ID, len(relevantPages), len(doc.PageIndex))

	for _, pageNum := range relevantPages {
		if err := r.requests.EnqueueRenderRequest(ctx, job.ID, pageNum, model.RenderKindThumb, r.cfg.ThumbDPI); err != nil {
			// Renders are a convenience; routing itself must not fail on them.
			log.Warnf("could not enqueue thumb render for job %s page %d: %v", job.ID, pageNum, err)
		}
	}

	doc.Routing = &ssot.Routing{
		RelevantPages: relevantPages,
		TotalPages:    len(doc.PageIndex),
	}
	raw, err := doc.Dump()
	if err != nil {
		return err
	}
	return r.jobs.UpdateJobStatus(ctx, job.ID, model.JobStatusRouted, &database.JobUpdate{
		SSOT: raw,
		StageProgress: stageProgress(map[string]interface{}{
			"stage":          "routing",
			"status":         "complete",
			"relevant_pages": len(relevantPages),
		}),
		Actor: r.cfg.WorkerID,
	})
}
