package report

import (
	"bytes"

	"github.com/jung-kurt/gofpdf"
)

// A4, millimetres.
const (
	pageWidth    = 210.0
	pageHeight   = 297.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 20.0
	marginBottom = 20.0

	lineHeight   = 5.5
	bodySize     = 10.0
	subTitleSize = 11.0
	headingSize  = 14.0

	fontFamily = "Helvetica"
)

// doc wraps a gofpdf canvas with a vertical cursor and manual page breaks.
// Every primitive measures first and breaks the page before drawing, so no
// line is ever placed below the bottom margin.
type doc struct {
	pdf *gofpdf.Fpdf
	y   float64
}

func newDoc() *doc {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	pdf.SetFont(fontFamily, "", bodySize)
	return &doc{pdf: pdf, y: marginTop}
}

func (d *doc) contentWidth() float64 { return pageWidth - marginLeft - marginRight }

func (d *doc) maxY() float64 { return pageHeight - marginBottom }

// breakIfNeeded starts a new page when h would not fit below the cursor.
func (d *doc) breakIfNeeded(h float64) {
	if d.y+h > d.maxY() {
		d.newPage()
	}
}

func (d *doc) newPage() {
	d.pdf.AddPage()
	d.y = marginTop
}

func (d *doc) spacer(h float64) {
	d.breakIfNeeded(h)
	d.y += h
}

// heading renders a centered section title in a larger bold face.
func (d *doc) heading(text string) {
	text = Sanitize(text)
	d.pdf.SetFont(fontFamily, "B", headingSize)
	h := lineHeight * 2
	d.breakIfNeeded(h)
	w := d.pdf.GetStringWidth(text)
	x := marginLeft + (d.contentWidth()-w)/2
	if x < marginLeft {
		x = marginLeft
	}
	d.pdf.Text(x, d.y+lineHeight, text)
	d.y += h
	d.pdf.SetFont(fontFamily, "", bodySize)
}

// subTitle renders a left-aligned bold sub-heading, wrapped to the content
// width.
func (d *doc) subTitle(text string) {
	text = Sanitize(text)
	if text == "" {
		return
	}
	d.pdf.SetFont(fontFamily, "B", subTitleSize)
	lines := d.pdf.SplitText(text, d.contentWidth())
	d.drawLines(lines, marginLeft)
	d.pdf.SetFont(fontFamily, "", bodySize)
}

// labelValue renders a bold label followed by a word-wrapped value, with a
// hanging indent under the label.
func (d *doc) labelValue(label, value string) {
	label = Sanitize(label)
	value = Sanitize(value)
	if label != "" && value != "" {
		label += " : "
	}

	d.pdf.SetFont(fontFamily, "B", bodySize)
	labelW := d.pdf.GetStringWidth(label)
	// never reserve more than half the line for the label
	if max := d.contentWidth() / 2; labelW > max {
		labelW = max
	}

	d.pdf.SetFont(fontFamily, "", bodySize)
	avail := d.contentWidth() - labelW
	lines := d.pdf.SplitText(value, avail)
	if len(lines) == 0 {
		lines = []string{""}
	}

	// the whole pair moves to a new page when it would cross the margin,
	// unless it is taller than a full page
	block := float64(len(lines)) * lineHeight
	if block <= d.maxY()-marginTop {
		d.breakIfNeeded(block)
	}

	for i, line := range lines {
		d.breakIfNeeded(lineHeight)
		if i == 0 {
			d.pdf.SetFont(fontFamily, "B", bodySize)
			d.pdf.Text(marginLeft, d.y+lineHeight-1, label)
			d.pdf.SetFont(fontFamily, "", bodySize)
		}
		d.pdf.Text(marginLeft+labelW, d.y+lineHeight-1, line)
		d.y += lineHeight
	}
}

// paragraph renders freeform text wrapped to the full content width.
func (d *doc) paragraph(text string) {
	text = Sanitize(text)
	if text == "" {
		return
	}
	d.pdf.SetFont(fontFamily, "", bodySize)
	lines := d.pdf.SplitText(text, d.contentWidth())
	d.drawLines(lines, marginLeft)
}

func (d *doc) drawLines(lines []string, x float64) {
	block := float64(len(lines)) * lineHeight
	if block <= d.maxY()-marginTop {
		d.breakIfNeeded(block)
	}
	for _, line := range lines {
		d.breakIfNeeded(lineHeight)
		d.pdf.Text(x, d.y+lineHeight-1, line)
		d.y += lineHeight
	}
}

func (d *doc) bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
