package pipeline

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/database"
	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/database/model"
	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/logger/log"
	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/ssot"
)

// DetectCategory reports whether a text block describes a shower enclosure
// or a vanity mirror. Shower keywords win on overlap ("shower door" over
// "mirror" elsewhere in the block).
func DetectCategory(text string) string {
	lower := strings.ToLower(text)
	for _, kw := range showerKeywords {
		if strings.Contains(lower, kw) {
			return ssot.CategoryShowerEnclosure
		}
	}
	for _, kw := range mirrorKeywords {
		if strings.Contains(lower, kw) {
			return ssot.CategoryVanityMirror
		}
	}
	return ""
}

// DetectConfiguration maps a text block to a template configuration slug,
// empty when nothing matches.
func DetectConfiguration(text string) string {
	lower := strings.ToLower(text)
	for _, slug := range configurationOrder {
		for _, kw := range configurationKeywords[slug] {
			if strings.Contains(lower, kw) {
				return slug
			}
		}
	}
	return ""
}

// DetectGlassType reads glass spec hints out of a block. 3/8" clear
// tempered is the shop default.
func DetectGlassType(text string) string {
	lower := strings.ToLower(text)
	glassType := "3/8 clear tempered"
	if strings.Contains(lower, "1/2") {
		glassType = "1/2 clear tempered"
	}
	if strings.Contains(lower, "frosted") {
		glassType = strings.Replace(glassType, "clear", "frosted", 1)
	}
	if strings.Contains(lower, "low iron") || strings.Contains(lower, "starphire") {
		glassType = strings.Replace(glassType, "clear", "low iron", 1)
	}
	return glassType
}

// extractItemsFromPage splits a page's text into blocks and builds a scope
// item from every block that names a shower or mirror.
func extractItemsFromPage(pageNum int, text string) []ssot.Item {
	var items []ssot.Item

	blocks := strings.Split(text, "\n\n")
	if len(blocks) == 0 {
		blocks = []string{text}
	}

	for _, block := range blocks {
		category := DetectCategory(block)
		if category == "" {
			continue
		}

		configuration := DetectConfiguration(block)
		if configuration == "" {
			configuration = "unknown"
		}
		dims := ExtractDimensions(block)

		dimEntries := make(map[string]ssot.Dimension, 3)
		for _, key := range []string{"width", "height", "depth"} {
			if val := dims[key]; val != nil {
				dimEntries[key] = ssot.Dimension{
					Value:      val,
					Unit:       "in",
					Source:     ssot.SourceDimensionCallout,
					Confidence: 0.7,
				}
			} else {
				dimEntries[key] = ssot.Dimension{
					Value:      nil,
					Unit:       "in",
					Source:     ssot.SourceFieldVerify,
					Confidence: 0.0,
				}
			}
		}

		var flags []string
		if dimEntries["width"].Value == nil || dimEntries["height"].Value == nil {
			flags = append(flags, ssot.FlagNeedsReview)
		}

		items = append(items, ssot.Item{
			ItemID:          uuid.NewString(),
			Category:        category,
			Configuration:   configuration,
			Dimensions:      dimEntries,
			GlassType:       DetectGlassType(block),
			Hardware:        []string{},
			Flags:           flags,
			SourcePages:     []int{pageNum},
			QuantityPerUnit: 1,
		})
	}
	return items
}

// runExtraction pulls scope items, dimensions and note bullets out of the
// relevant pages, opens measurement tasks for missing dimensions and sends
// the job to NEEDS_REVIEW when any exist.
func (r *Runner) runExtraction(ctx context.Context, job *model.Job) error {
	log.Infof("starting EXTRACTING stage for job %s", job.ID)
	if err := r.jobs.UpdateJobStatus(ctx, job.ID, model.JobStatusExtracting, &database.JobUpdate{Actor: r.cfg.WorkerID}); err != nil {
		return err
	}

	doc, err := ssot.Load(job.SSOT)
	if err != nil {
		return err
	}

	// Idempotency: a previous run's items are authoritative.
	if len(doc.Items) > 0 {
		log.Infof("EXTRACTING: items already exist for job %s, skipping", job.ID)
		hasFlags := false
		for _, item := range doc.Items {
			if item.HasFlag(ssot.FlagNeedsReview) {
				hasFlags = true
				break
			}
		}
		nextStatus := model.JobStatusExtracted
		if hasFlags {
			nextStatus = model.JobStatusNeedsReview
		}
		return r.jobs.UpdateJobStatus(ctx, job.ID, nextStatus, &database.JobUpdate{
			ClearLock: hasFlags,
			StageProgress: stageProgress(map[string]interface{}{
				"stage": "extracting", "status": "complete_skipped",
			}),
			Actor: r.cfg.WorkerID,
		})
	}

	relevantPages := []int{}
	if doc.Routing != nil {
		relevantPages = doc.Routing.RelevantPages
	}
	if len(relevantPages) == 0 {
		// No routing info: fall back to every classified page.
		for _, p := range doc.PageIndex {
			if p.Classification != ssot.ClassIrrelevant {
				relevantPages = append(relevantPages, p.PageNum)
			}
		}
	}

	localPDF, err := r.sourcePDFPath(ctx, job)
	if err != nil {
		return err
	}
	pdf, err := r.openPDF(localPDF)
	if err != nil {
		return err
	}
	defer pdf.Close()

	classByPage := make(map[int]string, len(doc.PageIndex))
	for _, p := range doc.PageIndex {
		classByPage[p.PageNum] = p.Classification
	}

	var allItems []ssot.Item
	var allAssumptions, allExclusions []string

	for i, pageNum := range relevantPages {
		if pageNum >= pdf.NumPages() {
			continue
		}
		text, err := pdf.PageText(pageNum)
		if err != nil {
			return err
		}

		allItems = append(allItems, extractItemsFromPage(pageNum, text)...)

		if classByPage[pageNum] == ssot.ClassNotes {
			assumptions, exclusions := ExtractAssumptions(text)
			allAssumptions = append(allAssumptions, assumptions...)
			allExclusions = append(allExclusions, exclusions...)
		}

		if err := r.jobs.UpdateJobStatus(ctx, job.ID, model.JobStatusExtracting, &database.JobUpdate{
			StageProgress: stageProgress(map[string]interface{}{
				"stage":           "extracting",
				"pages_processed": i + 1,
				"total_pages":     len(relevantPages),
				"items_found":     len(allItems),
			}),
		}); err != nil {
			return err
		}
	}

	doc.Items = allItems
	doc.Assumptions = dedupe(allAssumptions)
	doc.Exclusions = dedupe(allExclusions)

	// Open measurement tasks for items missing width or height. Depth is
	// optional for most configurations.
	var measurementTasks []ssot.MeasurementTask
	var taskRows []*model.MeasurementTask
	hasFlags := false
	for i := range doc.Items {
		item := &doc.Items[i]
		for _, dimKey := range []string{"width", "height"} {
			dim := item.Dimensions[dimKey]
			if dim.Value != nil {
				continue
			}
			pageNum := 0
			if len(item.SourcePages) > 0 {
				pageNum = item.SourcePages[0]
			}
			task := ssot.MeasurementTask{
				TaskID:       uuid.NewString(),
				ItemID:       item.ItemID,
				DimensionKey: dimKey,
				Status:       model.MeasurementStatusPending,
				PageNum:      pageNum,
			}
			measurementTasks = append(measurementTasks, task)
			taskRows = append(taskRows, &model.MeasurementTask{
				ID:           task.TaskID,
				JobID:        job.ID,
				ItemID:       task.ItemID,
				DimensionKey: dimKey,
				PageNum:      pageNum,
				Status:       model.MeasurementStatusPending,
			})
			item.AddFlag(ssot.FlagNeedsReview)
			hasFlags = true
		}
	}
	doc.MeasurementTasks = measurementTasks

	if err := r.tasks.CreateMeasurementTasks(ctx, taskRows); err != nil {
		log.Warnf("could not persist measurement tasks for job %s: %v", job.ID, err)
	}

	// High-DPI renders for the pages the measurement overlay needs.
	taskPages := make(map[int]struct{})
	for _, task := range measurementTasks {
		taskPages[task.PageNum] = struct{}{}
	}
	for pageNum := range taskPages {
		if err := r.requests.EnqueueRenderRequest(ctx, job.ID, pageNum, model.RenderKindMeasure, r.cfg.MeasureDPI); err != nil {
			log.Warnf("could not enqueue measure render for job %s page %d: %v", job.ID, pageNum, err)
		}
	}

	nextStatus := model.JobStatusExtracted
	if hasFlags {
		nextStatus = model.JobStatusNeedsReview
	}
	raw, err := doc.Dump()
	if err != nil {
		return err
	}
	if err := r.jobs.UpdateJobStatus(ctx, job.ID, nextStatus, &database.JobUpdate{
		SSOT: raw,
		// Waiting on human review releases the lock.
		ClearLock: hasFlags,
		StageProgress: stageProgress(map[string]interface{}{
			"stage":             "extracting",
			"status":            "complete",
			"items_found":       len(allItems),
			"measurement_tasks": len(measurementTasks),
		}),
		Actor: r.cfg.WorkerID,
	}); err != nil {
		return err
	}
	log.Infof("EXTRACTING complete for job %s: %d items, %d tasks, next status %s",
		job.ID, len(allItems), len(measurementTasks), nextStatus)
	return nil
}
