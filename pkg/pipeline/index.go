package pipeline

import (
	"context"
	"math"
	"strings"

	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/database"
	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/database/model"
	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/logger/log"
	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/ssot"
)

// progressEvery is how many pages go by between stage_progress writes while
// indexing a large set.
const progressEvery = 50

// ClassifyPage scores a page's text against the classification keyword
// tables. pageNum and totalPages feed the title-sheet heuristic.
func ClassifyPage(text string, pageNum, totalPages int) (string, float64) {
	lower := strings.ToLower(text)

	// Title sheets live at the front of the set.
	if pageNum <= 1 {
		for _, kw := range classificationKeywords["TITLE"] {
			if strings.Contains(lower, kw) {
				return ssot.ClassTitle, 0.85
			}
		}
	}

	bestClass := ssot.ClassIrrelevant
	bestScore := 0.0
	for _, cls := range classificationOrder {
		keywords := classificationKeywords[cls]
		score := 0.0
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				score += 1.0 / float64(len(keywords))
			}
		}
		if score > bestScore {
			bestScore = score
			bestClass = cls
		}
	}

	if bestScore < 0.1 {
		return ssot.ClassIrrelevant, 0.3
	}
	confidence := math.Min(0.95, 0.4+bestScore*0.6)
	return bestClass, math.Round(confidence*100) / 100
}

// DetectRelevance reports which subjects (showers, mirrors, assumptions) a
// page's text touches.
func DetectRelevance(text string) []string {
	lower := strings.ToLower(text)
	var relevant []string
	for _, category := range relevanceOrder {
		for _, kw := range relevanceKeywords[category] {
			if strings.Contains(lower, kw) {
				relevant = append(relevant, category)
				break
			}
		}
	}
	return relevant
}

// runIndexing classifies every page of the source PDF and writes the page
// index into the SSOT. Skips outright when a previous run already indexed.
func (r *Runner) runIndexing(ctx context.Context, job *model.Job) error {
	log.Infof("starting INDEXING stage for job %s", job.ID)
	if err := r.jobs.UpdateJobStatus(ctx, job.ID, model.JobStatusIndexing, &database.JobUpdate{Actor: r.cfg.WorkerID}); err != nil {
		return err
	}

	doc, err := ssot.Load(job.SSOT)
	if err != nil {
		return err
	}
	if len(doc.PageIndex) > 0 {
		log.Infof("INDEXING: page index already exists for job %s, skipping", job.ID)
		return r.jobs.UpdateJobStatus(ctx, job.ID, model.JobStatusIndexed, &database.JobUpdate{
			StageProgress: stageProgress(map[string]interface{}{
				"stage": "indexing", "status": "complete_skipped",
			}),
			Actor: r.cfg.WorkerID,
		})
	}

	localPDF, err := r.sourcePDFPath(ctx, job)
	if err != nil {
		log.Errorf("failed to fetch source PDF for job %s: %v", job.ID, err)
		return err
	}
	pdf, err := r.openPDF(localPDF)
	if err != nil {
		return err
	}
	defer pdf.Close()

	totalPages := pdf.NumPages()
	log.Infof("PDF opened for job %s: %d pages", job.ID, totalPages)

	if doc.Metadata == nil {
		doc.Metadata = &ssot.Metadata{}
	}
	doc.Metadata.PageCount = totalPages

	pageIndex := make([]ssot.PageEntry, 0, totalPages)
	for pageNum := 0; pageNum < totalPages; pageNum++ {
		text, err := pdf.PageText(pageNum)
		if err != nil {
			return err
		}
		classification, confidence := ClassifyPage(text, pageNum, totalPages)
		pageIndex = append(pageIndex, ssot.PageEntry{
			PageNum:        pageNum,
			Classification: classification,
			Confidence:     confidence,
			RelevantTo:     DetectRelevance(text),
		})

		if (pageNum+1)%progressEvery == 0 {
			if err := r.jobs.UpdateJobStatus(ctx, job.ID, model.JobStatusIndexing, &database.JobUpdate{
				StageProgress: stageProgress(map[string]interface{}{
					"stage":        "indexing",
					"current_page": pageNum + 1,
					"total_pages":  totalPages,
				}),
			}); err != nil {
				return err
			}
			log.Debugf("indexing progress for job %s: %d/%d", job.ID, pageNum+1, totalPages)
		}
	}

	doc.PageIndex = pageIndex
	raw, err := doc.Dump()
	if err != nil {
		return err
	}
	if err := r.jobs.UpdateJobStatus(ctx, job.ID, model.JobStatusIndexed, &database.JobUpdate{
		SSOT: raw,
		StageProgress: stageProgress(map[string]interface{}{
			"stage":       "indexing",
			"status":      "complete",
			"total_pages": len(pageIndex),
		}),
		Actor: r.cfg.WorkerID,
	}); err != nil {
		return err
	}
	log.Infof("INDEXING complete for job %s: %d pages indexed", job.ID, len(pageIndex))
	return nil
}
