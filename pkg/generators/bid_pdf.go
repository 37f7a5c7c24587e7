package generators

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/pkg/errors"

	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/logger/log"
	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/ssot"
)

const companyName = "LUXURIUS GLASS"

// Brand palette.
var (
	colorPrimary   = rgb{0x1a, 0x36, 0x5d}
	colorSecondary = rgb{0x2b, 0x6c, 0xb0}
	colorLightBG   = rgb{0xf7, 0xfa, 0xfc}
	colorBorder    = rgb{0xcb, 0xd5, 0xe0}
	colorNote      = rgb{0x71, 0x80, 0x96}
)

type rgb struct{ r, g, b int }

func setFill(pdf *gofpdf.Fpdf, c rgb) { pdf.SetFillColor(c.r, c.g, c.b) }
func setText(pdf *gofpdf.Fpdf, c rgb) { pdf.SetTextColor(c.r, c.g, c.b) }
func setDraw(pdf *gofpdf.Fpdf, c rgb) { pdf.SetDrawColor(c.r, c.g, c.b) }
func resetText(pdf *gofpdf.Fpdf)      { pdf.SetTextColor(0, 0, 0) }

func newLetterPDF(title string) *gofpdf.Fpdf {
	pdf := gofpdf.New("P", "in", "Letter", "")
	pdf.SetTitle(title, true)
	pdf.SetAuthor(companyName, true)
	pdf.SetMargins(0.75, 0.75, 0.75)
	pdf.SetAutoPageBreak(true, 0.75)
	return pdf
}

func sectionTitle(pdf *gofpdf.Fpdf, text string) {
	pdf.SetFont("Helvetica", "B", 16)
	setText(pdf, colorPrimary)
	pdf.CellFormat(0, 0.3, text, "", 1, "L", false, 0, "")
	setDraw(pdf, colorBorder)
	pdf.SetLineWidth(0.01)
	y := pdf.GetY()
	pdf.Line(0.75, y, 7.75, y)
	pdf.Ln(0.1)
	resetText(pdf)
}

func tableHeaderRow(pdf *gofpdf.Fpdf, widths []float64, headers []string) {
	setFill(pdf, colorPrimary)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 9)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 0.25, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	resetText(pdf)
}

func buildCoverPage(pdf *gofpdf.Fpdf, doc *ssot.Document, subtitle string) {
	pdf.AddPage()
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 28)
	setText(pdf, colorPrimary)
	pdf.CellFormat(0, 0.5, companyName, "", 1, "C", false, 0, "")
	pdf.Ln(0.1)

	pdf.SetFont("Helvetica", "", 14)
	setText(pdf, colorSecondary)
	pdf.CellFormat(0, 0.3, subtitle, "", 1, "C", false, 0, "")
	pdf.Ln(0.3)

	setDraw(pdf, colorPrimary)
	pdf.SetLineWidth(0.02)
	pdf.Line(2, pdf.GetY(), 6.5, pdf.GetY())
	pdf.Ln(0.3)

	projectName := "Untitled Project"
	clientName, address, date := "", "", time.Now().Format("2006-01-02")
	if doc.Metadata != nil {
		if doc.Metadata.ProjectName != "" {
			projectName = doc.Metadata.ProjectName
		}
		clientName = doc.Metadata.ClientName
		address = doc.Metadata.Address
		if len(doc.Metadata.UpdatedAt) >= 10 {
			date = doc.Metadata.UpdatedAt[:10]
		}
	}

	resetText(pdf)
	for _, row := range [][2]string{
		{"Project:", projectName},
		{"Client:", clientName},
		{"Address:", address},
		{"Date:", date},
	} {
		pdf.SetFont("Helvetica", "B", 11)
		setText(pdf, colorSecondary)
		pdf.CellFormat(1.5, 0.25, row[0], "", 0, "R", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		resetText(pdf)
		pdf.CellFormat(4, 0.25, row[1], "", 1, "L", false, 0, "")
	}
}

func buildExecutiveSummary(pdf *gofpdf.Fpdf, doc *ssot.Document) {
	sectionTitle(pdf, "1. Executive Summary")

	total := 0.0
	if doc.Pricing != nil {
		total = doc.Pricing.Total
	}
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(0, 0.2, fmt.Sprintf(
		"This proposal covers the supply and installation of frameless glass "+
			"enclosures and mirrors for the referenced project. The scope includes "+
			"%d item(s) with a total project value of $%.2f.",
		len(doc.Items), total), "", "L", false)
	pdf.Ln(0.15)

	// Category quantity summary.
	categories := map[string]int{}
	var order []string
	for _, item := range doc.Items {
		cat := humanize(item.Category, "_")
		if _, ok := categories[cat]; !ok {
			order = append(order, cat)
		}
		qty := item.QuantityPerUnit
		if qty == 0 {
			qty = 1
		}
		categories[cat] += qty
	}
	if len(order) > 0 {
		widths := []float64{4, 1.5}
		tableHeaderRow(pdf, widths, []string{"Category", "Quantity"})
		pdf.SetFont("Helvetica", "", 10)
		for i, cat := range order {
			fill := i%2 == 1
			setFill(pdf, colorLightBG)
			pdf.CellFormat(widths[0], 0.25, cat, "1", 0, "L", fill, 0, "")
			pdf.CellFormat(widths[1], 0.25, fmt.Sprintf("%d", categories[cat]), "1", 1, "C", fill, 0, "")
		}
	}
	pdf.Ln(0.2)
}

func buildScopeOfWork(pdf *gofpdf.Fpdf, doc *ssot.Document) {
	sectionTitle(pdf, "2. Scope of Work")

	if len(doc.Items) == 0 {
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 0.2, "No items extracted.", "", 1, "L", false, 0, "")
		return
	}

	byUnit := map[string][]ssot.Item{}
	var unitOrder []string
	for _, item := range doc.Items {
		unitID := item.UnitID
		if unitID == "" {
			unitID = "General"
		}
		if _, ok := byUnit[unitID]; !ok {
			unitOrder = append(unitOrder, unitID)
		}
		byUnit[unitID] = append(byUnit[unitID], item)
	}

	widths := []float64{0.4, 1.5, 1.5, 1.2, 1.5, 0.5}
	for _, unitID := range unitOrder {
		pdf.SetFont("Helvetica", "B", 12)
		setText(pdf, colorSecondary)
		pdf.CellFormat(0, 0.25, "Unit: "+unitID, "", 1, "L", false, 0, "")
		resetText(pdf)

		tableHeaderRow(pdf, widths, []string{"#", "Category", "Configuration", "Dimensions", "Glass", "Qty"})
		pdf.SetFont("Helvetica", "", 8)
		for i, item := range byUnit[unitID] {
			dimStr := scopeDimensions(&item)
			qty := item.QuantityPerUnit
			if qty == 0 {
				qty = 1
			}
			fill := i%2 == 1
			setFill(pdf, colorLightBG)
			pdf.CellFormat(widths[0], 0.22, fmt.Sprintf("%d", i+1), "1", 0, "C", fill, 0, "")
			pdf.CellFormat(widths[1], 0.22, humanize(item.Category, "_"), "1", 0, "L", fill, 0, "")
			pdf.CellFormat(widths[2], 0.22, humanize(item.Configuration, "-"), "1", 0, "L", fill, 0, "")
			pdf.CellFormat(widths[3], 0.22, dimStr, "1", 0, "L", fill, 0, "")
			pdf.CellFormat(widths[4], 0.22, item.GlassType, "1", 0, "L", fill, 0, "")
			pdf.CellFormat(widths[5], 0.22, fmt.Sprintf("%d", qty), "1", 1, "C", fill, 0, "")
		}
		pdf.Ln(0.1)
	}

	pdf.SetFont("Helvetica", "I", 9)
	setText(pdf, colorNote)
	pdf.CellFormat(0, 0.2, "* TBV = To Be Verified In Field", "", 1, "L", false, 0, "")
	resetText(pdf)
	pdf.Ln(0.15)
}

func scopeDimensions(item *ssot.Item) string {
	var w, h *float64
	if dim, ok := item.Dimensions["width"]; ok {
		w = dim.Value
	}
	if dim, ok := item.Dimensions["height"]; ok {
		h = dim.Value
	}
	var dimStr string
	switch {
	case w != nil && h != nil:
		dimStr = fmt.Sprintf(`%.0f" x %.0f"`, *w, *h)
	case w != nil:
		dimStr = fmt.Sprintf(`%.0f" W`, *w)
	case h != nil:
		dimStr = fmt.Sprintf(`%.0f" H`, *h)
	default:
		dimStr = "TBV"
	}
	if item.HasFlag(ssot.FlagToBeVerifiedInField) {
		dimStr += " *"
	}
	return dimStr
}

func buildPricingTable(pdf *gofpdf.Fpdf, doc *ssot.Document) {
	sectionTitle(pdf, "3. Pricing Breakdown")

	var lineItems []ssot.LineItem
	subtotal, tax, total := 0.0, 0.0, 0.0
	if doc.Pricing != nil {
		lineItems = doc.Pricing.LineItems
		subtotal, tax, total = doc.Pricing.Subtotal, doc.Pricing.Tax, doc.Pricing.Total
	}

	widths := []float64{0.4, 3.2, 0.5, 1.2, 1.2}
	tableHeaderRow(pdf, widths, []string{"#", "Description", "Qty", "Unit Price", "Total"})
	pdf.SetFont("Helvetica", "", 9)
	for i, li := range lineItems {
		fill := i%2 == 1
		setFill(pdf, colorLightBG)
		pdf.CellFormat(widths[0], 0.24, fmt.Sprintf("%d", i+1), "1", 0, "C", fill, 0, "")
		pdf.CellFormat(widths[1], 0.24, li.Description, "1", 0, "L", fill, 0, "")
		pdf.CellFormat(widths[2], 0.24, fmt.Sprintf("%d", li.Quantity), "1", 0, "C", fill, 0, "")
		pdf.CellFormat(widths[3], 0.24, fmt.Sprintf("$%.2f", li.UnitPrice), "1", 0, "R", fill, 0, "")
		pdf.CellFormat(widths[4], 0.24, fmt.Sprintf("$%.2f", li.TotalPrice), "1", 1, "R", fill, 0, "")
	}

	totalsRow := func(label, value string, size float64) {
		pdf.SetFont("Helvetica", "B", size)
		pdf.CellFormat(widths[0]+widths[1]+widths[2], 0.24, "", "", 0, "L", false, 0, "")
		pdf.CellFormat(widths[3], 0.24, label, "", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 0.24, value, "", 1, "R", false, 0, "")
	}
	totalsRow("Subtotal:", fmt.Sprintf("$%.2f", subtotal), 9)
	if tax > 0 {
		totalsRow("Tax:", fmt.Sprintf("$%.2f", tax), 9)
	}
	totalsRow("TOTAL:", fmt.Sprintf("$%.2f", total), 11)
	pdf.Ln(0.2)
}

func buildAssumptions(pdf *gofpdf.Fpdf, doc *ssot.Document) {
	sectionTitle(pdf, "4. Assumptions and Exclusions")

	bulletList := func(title string, lines []string) {
		pdf.SetFont("Helvetica", "B", 12)
		setText(pdf, colorSecondary)
		pdf.CellFormat(0, 0.25, title, "", 1, "L", false, 0, "")
		resetText(pdf)
		pdf.SetFont("Helvetica", "", 10)
		for _, line := range lines {
			pdf.MultiCell(0, 0.2, "- "+line, "", "L", false)
		}
		pdf.Ln(0.1)
	}

	if len(doc.Assumptions) > 0 {
		bulletList("Assumptions:", doc.Assumptions)
	}
	if len(doc.Exclusions) > 0 {
		bulletList("Exclusions:", doc.Exclusions)
	}
	if len(doc.Assumptions) == 0 && len(doc.Exclusions) == 0 {
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 0.2, "No assumptions or exclusions noted.", "", 1, "L", false, 0, "")
	}
	pdf.Ln(0.15)
}

func buildTerms(pdf *gofpdf.Fpdf) {
	sectionTitle(pdf, "Terms and Conditions")

	terms := []string{
		"This proposal is valid for 30 days from the date of issue.",
		"Prices are based on standard glass types and hardware finishes as specified.",
		"Any changes to scope, dimensions, or specifications after acceptance may result in price adjustments.",
		"Payment terms: 50% deposit upon acceptance, balance due upon completion of installation.",
		"Lead time: 4-6 weeks from deposit and approved shop drawings.",
		"Warranty: 1-year limited warranty on materials and workmanship.",
		"Field measurements to be taken and confirmed prior to fabrication.",
		"Building access and site conditions must be suitable for installation.",
	}
	pdf.SetFont("Helvetica", "", 10)
	for i, term := range terms {
		pdf.MultiCell(0, 0.2, fmt.Sprintf("%d. %s", i+1, term), "", "L", false)
		pdf.Ln(0.03)
	}
}

func humanize(s, sep string) string {
	words := strings.Fields(strings.ToLower(strings.ReplaceAll(s, sep, " ")))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// GenerateBidPDF writes the bid/breakdown document to outputPath.
func GenerateBidPDF(doc *ssot.Document, outputPath string) error {
	log.Infof("generating bid PDF at %s", outputPath)
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}

	projectName := "Untitled"
	if doc.Metadata != nil && doc.Metadata.ProjectName != "" {
		projectName = doc.Metadata.ProjectName
	}
	pdf := newLetterPDF("Bid Breakdown - " + projectName)

	buildCoverPage(pdf, doc, "Bid / Breakdown")

	pdf.AddPage()
	buildExecutiveSummary(pdf, doc)
	buildScopeOfWork(pdf, doc)

	pdf.AddPage()
	buildPricingTable(pdf, doc)
	buildAssumptions(pdf, doc)

	pdf.AddPage()
	buildTerms(pdf)

	if err := pdf.OutputFileAndClose(outputPath); err != nil {
		return errors.Wrap(err, "failed to write bid PDF")
	}
	log.Infof("bid PDF generated at %s", outputPath)
	return nil
}

// formatDim is shared with the shop drawings pages.
func formatDim(value *float64) string {
	return ssot.FormatDimension(value)
}
