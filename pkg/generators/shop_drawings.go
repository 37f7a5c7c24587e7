package generators

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/pkg/errors"

	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/logger/log"
	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/ssot"
)

// drawingEntry pairs an item with its assigned drawing number.
type drawingEntry struct {
	number string
	item   *ssot.Item
}

// assignDrawingNumbers numbers the items SD-{unit}-{seq} in document order,
// with a per-unit sequence.
func assignDrawingNumbers(items []ssot.Item) []drawingEntry {
	entries := make([]drawingEntry, 0, len(items))
	seqByUnit := map[string]int{}
	for i := range items {
		item := &items[i]
		unitID := item.UnitID
		if unitID == "" {
			unitID = "GEN"
		}
		seqByUnit[unitID]++
		entries = append(entries, drawingEntry{
			number: fmt.Sprintf("SD-%s-%03d", unitID, seqByUnit[unitID]),
			item:   item,
		})
	}
	return entries
}

func buildDrawingCoverSheet(pdf *gofpdf.Fpdf, doc *ssot.Document, entries []drawingEntry, date string) {
	pdf.AddPage()
	pdf.Ln(1.5)

	pdf.SetFont("Helvetica", "B", 26)
	setText(pdf, colorPrimary)
	pdf.CellFormat(0, 0.5, companyName, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 14)
	setText(pdf, colorSecondary)
	pdf.CellFormat(0, 0.3, "Shop Drawings", "", 1, "C", false, 0, "")
	pdf.Ln(0.2)

	projectName := "Untitled Project"
	if doc.Metadata != nil && doc.Metadata.ProjectName != "" {
		projectName = doc.Metadata.ProjectName
	}
	resetText(pdf)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 0.25, projectName, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 0.2, date, "", 1, "C", false, 0, "")
	pdf.Ln(0.4)

	sectionTitle(pdf, "Drawing Index")
	widths := []float64{1.5, 2.0, 2.0, 1.5}
	tableHeaderRow(pdf, widths, []string{"Drawing No.", "Unit / Location", "Category", "Configuration"})
	pdf.SetFont("Helvetica", "", 9)
	for i, entry := range entries {
		location := entry.item.UnitID
		if entry.item.Location != "" {
			if location != "" {
				location += " / "
			}
			location += entry.item.Location
		}
		fill := i%2 == 1
		setFill(pdf, colorLightBG)
		pdf.CellFormat(widths[0], 0.24, entry.number, "1", 0, "L", fill, 0, "")
		pdf.CellFormat(widths[1], 0.24, location, "1", 0, "L", fill, 0, "")
		pdf.CellFormat(widths[2], 0.24, humanize(entry.item.Category, "_"), "1", 0, "L", fill, 0, "")
		pdf.CellFormat(widths[3], 0.24, humanize(entry.item.Configuration, "-"), "1", 1, "L", fill, 0, "")
	}

	pdf.Ln(0.3)
	pdf.SetFont("Helvetica", "I", 8)
	setText(pdf, colorNote)
	pdf.MultiCell(0, 0.16,
		"Drawings are not to scale. All dimensions marked TBV require field "+
			"verification prior to fabrication.", "", "L", false)
	resetText(pdf)
}

func buildItemDrawingPage(pdf *gofpdf.Fpdf, entry drawingEntry, projectName, clientName, date string) {
	pdf.AddPage()
	item := entry.item

	// Drawing border.
	setDraw(pdf, colorLine)
	pdf.SetLineWidth(0.01)
	pdf.Rect(margin-0.15, margin-0.15, pageWidth-2*(margin-0.15), pageHeight-2*(margin-0.15), "D")

	// Header strip with the item summary.
	setText(pdf, colorLine)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.Text(margin, margin+0.15, humanize(item.Category, "_")+" - "+humanize(item.Configuration, "-"))
	pdf.SetFont("Helvetica", "", 8)
	if item.Location != "" {
		pdf.Text(margin, margin+0.35, "Location: "+item.Location)
	}
	resetText(pdf)

	drawRevisionBox(pdf, date)
	templateForItem(item)(pdf, item)

	// Hardware and notes callouts below the drawing area.
	notesY := pageHeight - margin - titleBlockHeight - 0.6
	setText(pdf, colorLine)
	pdf.SetFont("Helvetica", "B", 7)
	pdf.Text(margin, notesY, "NOTES:")
	pdf.SetFont("Helvetica", "", 7)
	line := notesY + 0.15
	pdf.Text(margin, line, "1. Glass: "+item.GlassType)
	line += 0.13
	for i, hw := range item.Hardware {
		pdf.Text(margin, line, fmt.Sprintf("%d. Hardware: %s", i+2, hw))
		line += 0.13
	}
	if item.HasFlag(ssot.FlagToBeVerifiedInField) {
		setText(pdf, colorDim)
		pdf.SetFont("Helvetica", "B", 7)
		pdf.Text(margin, line, "FIELD VERIFY ALL DIMENSIONS MARKED TBV")
	}
	resetText(pdf)

	drawTitleBlock(pdf, entry.number, projectName, clientName, date, "0")
}

func buildNoItemsPage(pdf *gofpdf.Fpdf, projectName, clientName, date string) {
	pdf.AddPage()
	pdf.Ln(3.5)
	pdf.SetFont("Helvetica", "B", 14)
	setText(pdf, colorNote)
	pdf.CellFormat(0, 0.3, "No items to draw", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 0.25, "No scope items were extracted for this project.", "", 1, "C", false, 0, "")
	resetText(pdf)
	drawTitleBlock(pdf, "SD-000", projectName, clientName, date, "0")
}

// GenerateShopDrawingsPDF writes the shop drawing set to outputPath: a
// cover sheet with the drawing index followed by one templated page per
// scope item.
func GenerateShopDrawingsPDF(doc *ssot.Document, outputPath string) error {
	log.Infof("generating shop drawings PDF at %s", outputPath)
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}

	projectName, clientName := "Untitled Project", ""
	date := time.Now().Format("2006-01-02")
	if doc.Metadata != nil {
		if doc.Metadata.ProjectName != "" {
			projectName = doc.Metadata.ProjectName
		}
		clientName = doc.Metadata.ClientName
		if len(doc.Metadata.UpdatedAt) >= 10 {
			date = doc.Metadata.UpdatedAt[:10]
		}
	}

	pdf := newLetterPDF("Shop Drawings - " + projectName)
	entries := assignDrawingNumbers(doc.Items)

	buildDrawingCoverSheet(pdf, doc, entries, date)
	if len(entries) == 0 {
		buildNoItemsPage(pdf, projectName, clientName, date)
	}
	for _, entry := range entries {
		buildItemDrawingPage(pdf, entry, projectName, clientName, date)
	}

	if err := pdf.OutputFileAndClose(outputPath); err != nil {
		return errors.Wrap(err, "failed to write shop drawings PDF")
	}
	log.Infof("shop drawings PDF generated: %d drawing(s)", len(entries))
	return nil
}
