// Package renderer turns PDF pages into page-cache images for the review UI
// and the measurement overlay.
package renderer

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/config"
	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/database"
	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/database/model"
	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/disk"
	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/logger/log"
	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/objstore"
	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/pdfdoc"
	"github.com/pkg/errors"
)

// MaxPNGSizeBytes is the upper bound for a PNG render; larger pages fall
// back to JPEG.
const MaxPNGSizeBytes = 10 * 1024 * 1024

// MinDPI is the floor after clamping. Anything lower is unreadable.
const MinDPI = 36

const jpegQuality = 90

// jpegMagic is the SOI marker plus the first marker byte.
var jpegMagic = []byte{0xff, 0xd8, 0xff}

// ClampDPI lowers the requested DPI so the longest image edge stays within
// maxPixels and the DPI itself within maxDPI. Page dimensions are in points.
func ClampDPI(pageWidthPts, pageHeightPts float64, requestedDPI, maxDPI, maxPixels int) int {
	dpi := requestedDPI
	if dpi > maxDPI {
		dpi = maxDPI
	}

	widthPx := pageWidthPts / 72.0 * float64(dpi)
	heightPx := pageHeightPts / 72.0 * float64(dpi)
	longest := widthPx
	if heightPx > longest {
		longest = heightPx
	}

	if longest > float64(maxPixels) {
		scale := float64(maxPixels) / longest
		dpi = int(float64(dpi) * scale)
		log.Infof("dpi clamped: requested %d, clamped %d, max pixels %d",
			requestedDPI, dpi, maxPixels)
	}

	if dpi < MinDPI {
		dpi = MinDPI
	}
	return dpi
}

// OpenFunc opens a local PDF. Tests substitute a fake.
type OpenFunc func(path string) (pdfdoc.Document, error)

// Renderer serves render requests against the source PDFs in raw-uploads.
type Renderer struct {
	cfg      *config.Config
	store    objstore.Store
	jobs     database.JobFacadeInterface
	requests database.RenderRequestFacadeInterface
	objects  database.StorageObjectFacadeInterface
	open     OpenFunc
}

func New(cfg *config.Config, store objstore.Store) *Renderer {
	return &Renderer{
		cfg:      cfg,
		store:    store,
		jobs:     database.NewJobFacade(),
		requests: database.NewRenderRequestFacade(),
		objects:  database.NewStorageObjectFacade(),
		open:     pdfdoc.Open,
	}
}

// WithOpenFunc overrides PDF opening, for tests.
func (r *Renderer) WithOpenFunc(open OpenFunc) *Renderer {
	r.open = open
	return r
}

// sourcePDFPath returns the local path of the job's source PDF, downloading
// it into the job's temp dir when the previous stage's copy is gone.
func (r *Renderer) sourcePDFPath(ctx context.Context, jobID string) (string, error) {
	tempDir := disk.JobTempDir(r.cfg.TempDir, jobID)
	localPDF := filepath.Join(tempDir, "source.pdf")
	if _, err := os.Stat(localPDF); err == nil {
		return localPDF, nil
	}

	sourceKey := ""
	obj, err := r.objects.FindSourcePDF(ctx, jobID, config.BucketRawUploads)
	if err != nil {
		log.Warnf("storage object lookup for job %s failed: %v", jobID, err)
	}
	if obj != nil {
		sourceKey = obj.Key
	}
	if sourceKey == "" {
		// Conventional key built from the owning project.
		job, err := r.jobs.GetJob(ctx, jobID)
		if err != nil {
			return "", err
		}
		projectID := ""
		if job != nil {
			projectID = job.ProjectID
		}
		sourceKey = fmt.Sprintf("%s/%s/source.pdf", projectID, jobID)
	}

	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return "", err
	}
	if err := r.store.DownloadToFile(ctx, config.BucketRawUploads, sourceKey, localPDF); err != nil {
		return "", err
	}
	return localPDF, nil
}

// RenderPage rasterizes one page and encodes it, PNG first with a JPEG
// fallback when the PNG crosses MaxPNGSizeBytes.
func (r *Renderer) RenderPage(ctx context.Context, jobID string, pageNum, dpi int, kind string) ([]byte, error) {
	localPDF, err := r.sourcePDFPath(ctx, jobID)
	if err != nil {
		return nil, err
	}
	doc, err := r.open(localPDF)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	if pageNum >= doc.NumPages() {
		return nil, errors.Errorf("page %d out of range (total: %d)", pageNum, doc.NumPages())
	}

	width, height, err := doc.PageSize(pageNum)
	if err != nil {
		return nil, err
	}
	actualDPI := ClampDPI(width, height, dpi, r.cfg.MaxRenderDPI, r.cfg.MaxRenderPixels)

	img, err := doc.RenderImage(pageNum, actualDPI)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, errors.Wrap(err, "png encode failed")
	}
	if buf.Len() > MaxPNGSizeBytes {
		log.Warnf("png too large for page %d of job %s (%d bytes at %d dpi), falling back to jpeg",
			pageNum, jobID, buf.Len(), actualDPI)
		buf.Reset()
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return nil, errors.Wrap(err, "jpeg encode failed")
		}
	}

	log.Infof("rendered page %d of job %s at %d dpi (%s, %d bytes)",
		pageNum, jobID, actualDPI, kind, buf.Len())
	return buf.Bytes(), nil
}

// ProcessRenderRequest serves one claimed request end to end and records the
// outcome on the request row.
func (r *Renderer) ProcessRenderRequest(ctx context.Context, req *model.RenderRequest) error {
	dpi := req.DPI
	if dpi == 0 {
		if req.Kind == model.RenderKindThumb {
			dpi = r.cfg.ThumbDPI
		} else {
			dpi = r.cfg.MeasureDPI
		}
	}
	log.Infof("processing render request %s: job %s page %d kind %s dpi %d",
		req.ID, req.JobID, req.PageNum, req.Kind, dpi)

	data, err := r.RenderPage(ctx, req.JobID, req.PageNum, dpi, req.Kind)
	if err != nil {
		log.Errorf("render request %s failed: %v", req.ID, err)
		if failErr := r.requests.FailRenderRequest(ctx, req.ID); failErr != nil {
			log.Warnf("could not mark render request %s failed: %v", req.ID, failErr)
		}
		return err
	}

	prefix := "measure"
	if req.Kind == model.RenderKindThumb {
		prefix = "thumb"
	}
	ext, contentType := "png", "image/png"
	if bytes.HasPrefix(data, jpegMagic) {
		ext, contentType = "jpg", "image/jpeg"
	}
	outputKey := fmt.Sprintf("%s/%s-%04d.%s", req.JobID, prefix, req.PageNum, ext)

	if err := r.store.PutBytes(ctx, config.BucketPageCache, outputKey, data, contentType); err != nil {
		log.Errorf("render request %s upload failed: %v", req.ID, err)
		if failErr := r.requests.FailRenderRequest(ctx, req.ID); failErr != nil {
			log.Warnf("could not mark render request %s failed: %v", req.ID, failErr)
		}
		return err
	}

	if err := r.requests.CompleteRenderRequest(ctx, req.ID, outputKey); err != nil {
		return err
	}
	log.Infof("render request %s complete: %s", req.ID, outputKey)
	return nil
}
