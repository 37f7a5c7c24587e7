// Package pdfdoc exposes the narrow slice of PDF functionality the pipeline
// needs. The production implementation sits on MuPDF via go-fitz.
package pdfdoc

import (
	"image"

	"github.com/gen2brain/go-fitz"
	"github.com/pkg/errors"
)

// Document is an open PDF. Pages are zero-indexed. Implementations are not
// safe for concurrent use; the worker processes one page at a time.
type Document interface {
	NumPages() int
	// PageText returns the embedded text layer of a page, empty for pure
	// raster scans.
	PageText(page int) (string, error)
	// PageSize returns the page media box in points (1/72 inch).
	PageSize(page int) (width, height float64, err error)
	// RenderImage rasterizes a page at the given DPI.
	RenderImage(page int, dpi int) (image.Image, error)
	Close() error
}

type fitzDocument struct {
	doc *fitz.Document
}

// Open opens a PDF from a local path. The error covers both missing files
// and files MuPDF cannot parse.
func Open(path string) (Document, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open PDF %s", path)
	}
	return &fitzDocument{doc: doc}, nil
}

// OpenBytes opens a PDF held in memory.
func OpenBytes(data []byte) (Document, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open PDF from memory")
	}
	return &fitzDocument{doc: doc}, nil
}

func (d *fitzDocument) NumPages() int {
	return d.doc.NumPage()
}

func (d *fitzDocument) PageText(page int) (string, error) {
	text, err := d.doc.Text(page)
	if err != nil {
		return "", errors.Wrapf(err, "failed to extract text from page %d", page)
	}
	return text, nil
}

func (d *fitzDocument) PageSize(page int) (float64, float64, error) {
	// Bound reports the media box at 72 DPI, so pixels equal points.
	bounds, err := d.doc.Bound(page)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "failed to read bounds of page %d", page)
	}
	return float64(bounds.Dx()), float64(bounds.Dy()), nil
}

func (d *fitzDocument) RenderImage(page int, dpi int) (image.Image, error) {
	img, err := d.doc.ImageDPI(page, float64(dpi))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to render page %d at %d dpi", page, dpi)
	}
	return img, nil
}

func (d *fitzDocument) Close() error {
	return d.doc.Close()
}
