package generators

import (
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/ssot"
)

// Drawing layout constants, US Letter in inches.
const (
	pageWidth  = 8.5
	pageHeight = 11.0
	margin     = 0.5

	titleBlockHeight = 1.2
	titleBlockWidth  = 4.0
	revisionBoxW     = 2.0
	revisionBoxH     = 0.8

	drawAreaLeft   = margin
	drawAreaBottom = margin + titleBlockHeight + 0.2
	drawAreaRight  = pageWidth - margin
	drawAreaTop    = margin + revisionBoxH + 0.2 // from the top edge
	drawAreaWidth  = drawAreaRight - drawAreaLeft
	drawAreaHeight = pageHeight - drawAreaBottom - drawAreaTop
)

var (
	colorLine = rgb{0x2d, 0x37, 0x48}
	colorDim  = rgb{0xe5, 0x3e, 0x3e}
	colorHint = rgb{0xa0, 0xae, 0xc0}
)

// templateFunc draws one item's views into the current page.
type templateFunc func(pdf *gofpdf.Fpdf, item *ssot.Item)

// templateRegistry maps configuration slugs to drawing templates. Slugs
// without an entry fall back by category.
var templateRegistry = map[string]templateFunc{
	"inline-panel":          drawInlinePanelDoor,
	"inline-panel-door":     drawInlinePanelDoor,
	"90-degree-corner":      drawCornerEnclosure,
	"90-degree-corner-door": drawCornerEnclosure,
	"frameless-sliding":     drawInlinePanelDoor,
	"bathtub-fixed-panel":   drawBathtubPanel,
	"bathtub-panel-door":    drawBathtubPanel,
	"vanity-mirror":         drawVanityMirror,
	"vanity-mirror-custom":  drawVanityMirror,
}

// templateForItem resolves an item's drawing template, falling back by
// category the way the drafting room does when a configuration is odd.
func templateForItem(item *ssot.Item) templateFunc {
	if tpl, ok := templateRegistry[item.Configuration]; ok {
		return tpl
	}
	if item.Category == ssot.CategoryVanityMirror {
		return drawVanityMirror
	}
	return drawInlinePanelDoor
}

// drawTitleBlock renders the bottom-right title block.
func drawTitleBlock(pdf *gofpdf.Fpdf, drawingNum, projectName, clientName, date, revision string) {
	x := pageWidth - margin - titleBlockWidth
	// gofpdf's y axis grows downward.
	y := pageHeight - margin - titleBlockHeight

	setFill(pdf, colorPrimary)
	pdf.Rect(x, y, titleBlockWidth, titleBlockHeight, "F")

	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(x+0.15, y+0.25, companyName)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Text(x+titleBlockWidth-0.15-pdf.GetStringWidth(drawingNum), y+0.25, drawingNum)

	pdf.SetDrawColor(255, 255, 255)
	pdf.SetLineWidth(0.005)
	pdf.Line(x+0.1, y+0.35, x+titleBlockWidth-0.1, y+0.35)

	fields := [][2]string{
		{"PROJECT:", projectName},
		{"CLIENT:", clientName},
		{"DATE:", date},
		{"SCALE:", "NTS"},
		{"DRAWN:", "System"},
		{"REV:", revision},
	}
	col1 := x + 0.15
	col2 := x + 2.0
	rowY := y + 0.55
	for i, field := range fields {
		col := col1
		if i%2 == 1 {
			col = col2
		}
		row := rowY + float64(i/2)*0.22
		pdf.SetFont("Helvetica", "B", 6)
		pdf.Text(col, row, field[0])
		pdf.SetFont("Helvetica", "", 7)
		value := field[1]
		if len(value) > 30 {
			value = value[:30]
		}
		pdf.Text(col+0.55, row, value)
	}
	resetText(pdf)
}

// drawRevisionBox renders the top-right revision history box.
func drawRevisionBox(pdf *gofpdf.Fpdf, date string) {
	x := pageWidth - margin - revisionBoxW
	y := margin

	setDraw(pdf, colorLine)
	pdf.SetLineWidth(0.0075)
	pdf.Rect(x, y, revisionBoxW, revisionBoxH, "D")

	setFill(pdf, colorPrimary)
	pdf.Rect(x, y, revisionBoxW, 0.2, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 7)
	pdf.Text(x+revisionBoxW/2-pdf.GetStringWidth("REVISIONS")/2, y+0.15, "REVISIONS")

	setText(pdf, colorLine)
	pdf.SetFont("Helvetica", "B", 5)
	pdf.Text(x+0.05, y+0.35, "REV")
	pdf.Text(x+0.35, y+0.35, "DATE")
	pdf.Text(x+1.0, y+0.35, "DESCRIPTION")

	pdf.SetFont("Helvetica", "", 5)
	pdf.Text(x+0.05, y+0.5, "0")
	pdf.Text(x+0.35, y+0.5, date)
	pdf.Text(x+1.0, y+0.5, "Initial")
	resetText(pdf)
}

// drawDimLabel draws a horizontal dimension line with tick marks and a
// centered label. TBV dimensions render dashed in the accent color.
func drawDimLabel(pdf *gofpdf.Fpdf, x1, x2, y float64, label string, tbv bool) {
	setDraw(pdf, colorDim)
	setText(pdf, colorDim)
	pdf.SetLineWidth(0.005)
	if tbv {
		pdf.SetDashPattern([]float64{0.04, 0.04}, 0)
	}
	pdf.Line(x1, y, x2, y)
	pdf.Line(x1, y-0.04, x1, y+0.04)
	pdf.Line(x2, y-0.04, x2, y+0.04)
	if tbv {
		pdf.SetDashPattern([]float64{}, 0)
	}
	pdf.SetFont("Helvetica", "B", 7)
	pdf.Text((x1+x2)/2-pdf.GetStringWidth(label)/2, y-0.05, label)
	resetText(pdf)
}

// drawVerticalDimLabel is drawDimLabel turned 90 degrees.
func drawVerticalDimLabel(pdf *gofpdf.Fpdf, x, y1, y2 float64, label string, tbv bool) {
	setDraw(pdf, colorDim)
	setText(pdf, colorDim)
	pdf.SetLineWidth(0.005)
	if tbv {
		pdf.SetDashPattern([]float64{0.04, 0.04}, 0)
	}
	pdf.Line(x, y1, x, y2)
	pdf.Line(x-0.04, y1, x+0.04, y1)
	pdf.Line(x-0.04, y2, x+0.04, y2)
	if tbv {
		pdf.SetDashPattern([]float64{}, 0)
	}
	pdf.SetFont("Helvetica", "B", 7)
	pdf.Text(x+0.06, (y1+y2)/2, label)
	resetText(pdf)
}

func drawGlassAnnotation(pdf *gofpdf.Fpdf, x, y float64, glassType string) {
	setText(pdf, colorNote)
	pdf.SetFont("Helvetica", "", 6)
	pdf.Text(x, y, glassType)
	resetText(pdf)
}

func viewTitle(pdf *gofpdf.Fpdf, cx, y float64, title string) {
	setText(pdf, colorLine)
	pdf.SetFont("Helvetica", "B", 9)
	pdf.Text(cx-pdf.GetStringWidth(title)/2, y, title)
	resetText(pdf)
}

func dimOr(item *ssot.Item, key string, fallback float64) (float64, bool) {
	if dim, ok := item.Dimensions[key]; ok && dim.Value != nil {
		return *dim.Value, true
	}
	return fallback, false
}

// drawInlinePanelDoor draws the elevation of a fixed panel plus swing door.
// Depth doubles as the door width when called out separately.
func drawInlinePanelDoor(pdf *gofpdf.Fpdf, item *ssot.Item) {
	panelW, panelKnown := dimOr(item, "width", 36)
	height, heightKnown := dimOr(item, "height", 72)
	doorW, doorKnown := dimOr(item, "depth", 0)
	if !doorKnown {
		doorW = panelW * 0.55
		if doorW > 36 {
			doorW = 36
		}
	}
	isTBV := item.HasFlag(ssot.FlagToBeVerifiedInField)

	totalW := panelW + doorW
	scale := minF((drawAreaWidth*0.6)/totalW, (drawAreaHeight*0.5)/height)

	cx := drawAreaLeft + drawAreaWidth/2
	cy := drawAreaTop + drawAreaHeight*0.45

	pw, dw, h := panelW*scale, doorW*scale, height*scale
	panelX := cx - (pw+dw)/2
	panelY := cy - h/2

	viewTitle(pdf, cx, panelY-0.2, "ELEVATION VIEW")

	setDraw(pdf, colorLine)
	pdf.SetLineWidth(0.015)
	pdf.Rect(panelX, panelY, pw, h, "D")
	pdf.Rect(panelX+pw, panelY, dw, h, "D")

	// Hatch the fixed panel so it reads as glass.
	setDraw(pdf, colorHint)
	pdf.SetLineWidth(0.003)
	for off := 0.1; off < pw+h; off += 0.15 {
		x1, y1 := panelX+minF(off, pw), panelY+maxF(0, off-pw)
		x2, y2 := panelX+maxF(0, off-h), panelY+minF(off, h)
		pdf.Line(x1, y1, x2, y2)
	}

	// Door swing arc.
	doorX := panelX + pw
	setDraw(pdf, colorLine)
	pdf.SetLineWidth(0.005)
	pdf.SetDashPattern([]float64{0.06, 0.03}, 0)
	pdf.Arc(doorX, panelY+h, dw, dw, 0, 270, 360, "D")
	pdf.SetDashPattern([]float64{}, 0)

	drawDimLabel(pdf, panelX, panelX+pw, panelY+h+0.25, FormatDimForDrawing(panelKnown, panelW), !panelKnown && isTBV)
	drawDimLabel(pdf, doorX, doorX+dw, panelY+h+0.25, FormatDimForDrawing(doorKnown, doorW), !doorKnown && isTBV)
	drawVerticalDimLabel(pdf, panelX-0.25, panelY, panelY+h, FormatDimForDrawing(heightKnown, height), !heightKnown && isTBV)

	drawGlassAnnotation(pdf, panelX, panelY+h+0.5, item.GlassType)
}

// drawCornerEnclosure draws a plan view of a 90 degree corner unit.
func drawCornerEnclosure(pdf *gofpdf.Fpdf, item *ssot.Item) {
	width, widthKnown := dimOr(item, "width", 36)
	depth, depthKnown := dimOr(item, "depth", 36)
	height, heightKnown := dimOr(item, "height", 72)
	isTBV := item.HasFlag(ssot.FlagToBeVerifiedInField)

	scale := minF((drawAreaWidth*0.4)/width, (drawAreaHeight*0.35)/depth)
	cx := drawAreaLeft + drawAreaWidth/2
	cy := drawAreaTop + drawAreaHeight*0.4

	w, d := width*scale, depth*scale
	x, y := cx-w/2, cy-d/2

	viewTitle(pdf, cx, y-0.2, "PLAN VIEW")

	// Two glass runs meeting at the corner; walls on the other sides.
	setDraw(pdf, colorLine)
	pdf.SetLineWidth(0.02)
	pdf.Line(x, y, x+w, y)
	pdf.Line(x+w, y, x+w, y+d)
	pdf.SetLineWidth(0.0075)
	setDraw(pdf, colorHint)
	pdf.Line(x, y, x, y+d)
	pdf.Line(x, y+d, x+w, y+d)

	drawDimLabel(pdf, x, x+w, y-0.25, FormatDimForDrawing(widthKnown, width), !widthKnown && isTBV)
	drawVerticalDimLabel(pdf, x+w+0.25, y, y+d, FormatDimForDrawing(depthKnown, depth), !depthKnown && isTBV)

	setText(pdf, colorNote)
	pdf.SetFont("Helvetica", "", 7)
	pdf.Text(x, y+d+0.4, fmt.Sprintf("PANEL HEIGHT: %s", FormatDimForDrawing(heightKnown, height)))
	resetText(pdf)

	drawGlassAnnotation(pdf, x, y+d+0.55, item.GlassType)
}

// drawBathtubPanel draws the elevation of a fixed tub panel.
func drawBathtubPanel(pdf *gofpdf.Fpdf, item *ssot.Item) {
	width, widthKnown := dimOr(item, "width", 30)
	height, heightKnown := dimOr(item, "height", 58)
	isTBV := item.HasFlag(ssot.FlagToBeVerifiedInField)

	tubHeight := 18.0
	scale := minF((drawAreaWidth*0.5)/width, (drawAreaHeight*0.5)/(height+tubHeight))
	cx := drawAreaLeft + drawAreaWidth/2
	cy := drawAreaTop + drawAreaHeight*0.45

	w, h, th := width*scale, height*scale, tubHeight*scale
	x := cx - w/2
	y := cy - (h+th)/2

	viewTitle(pdf, cx, y-0.2, "ELEVATION VIEW")

	setDraw(pdf, colorLine)
	pdf.SetLineWidth(0.015)
	pdf.Rect(x, y, w, h, "D")
	// Tub below the panel.
	setDraw(pdf, colorHint)
	pdf.SetLineWidth(0.0075)
	pdf.Rect(x-0.2, y+h, w+0.4, th, "D")

	drawDimLabel(pdf, x, x+w, y-0.25, FormatDimForDrawing(widthKnown, width), !widthKnown && isTBV)
	drawVerticalDimLabel(pdf, x-0.25, y, y+h, FormatDimForDrawing(heightKnown, height), !heightKnown && isTBV)

	drawGlassAnnotation(pdf, x, y+h+th+0.25, item.GlassType)
}

// drawVanityMirror draws a rectangular mirror elevation.
func drawVanityMirror(pdf *gofpdf.Fpdf, item *ssot.Item) {
	width, widthKnown := dimOr(item, "width", 30)
	height, heightKnown := dimOr(item, "height", 36)
	isTBV := item.HasFlag(ssot.FlagToBeVerifiedInField)

	scale := minF((drawAreaWidth*0.4)/width, (drawAreaHeight*0.45)/height)
	cx := drawAreaLeft + drawAreaWidth/2
	cy := drawAreaTop + drawAreaHeight*0.45

	w, h := width*scale, height*scale
	x, y := cx-w/2, cy-h/2

	viewTitle(pdf, cx, y-0.2, "MIRROR ELEVATION")

	setDraw(pdf, colorLine)
	pdf.SetLineWidth(0.02)
	pdf.Rect(x, y, w, h, "D")

	// Reflection hint lines.
	setDraw(pdf, rgb{0xe2, 0xe8, 0xf0})
	pdf.SetLineWidth(0.003)
	for off := 0.15; off < w+h; off += 0.25 {
		x1, y1 := x+minF(off, w), y+maxF(0, off-w)
		x2, y2 := x+maxF(0, off-h), y+minF(off, h)
		pdf.Line(x1, y1, x2, y2)
	}

	drawDimLabel(pdf, x, x+w, y+h+0.25, FormatDimForDrawing(widthKnown, width), !widthKnown && isTBV)
	drawVerticalDimLabel(pdf, x-0.25, y, y+h, FormatDimForDrawing(heightKnown, height), !heightKnown && isTBV)

	drawGlassAnnotation(pdf, x, y+h+0.45, item.GlassType)
}

// FormatDimForDrawing renders a drawing label, "TBV" when the value came
// from a fallback rather than a callout.
func FormatDimForDrawing(known bool, value float64) string {
	if !known {
		return "TBV"
	}
	return formatDim(&value)
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
