package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLabelValueBreaksBeforeBottomMargin(t *testing.T) {
	d := newDoc()
	// park the cursor one line above the bottom margin
	d.y = d.maxY() - lineHeight

	long := strings.Repeat("une valeur assez longue pour etre repliee sur plusieurs lignes ", 4)
	d.labelValue("Publications", long)

	// the whole pair moved to page 2; nothing was drawn on page 1 below the
	// margin and the cursor restarted from the top
	assert.Equal(t, 2, d.pdf.PageCount())
	assert.LessOrEqual(t, d.y, d.maxY())
	assert.Greater(t, d.y, marginTop)
}

func TestShortPairStaysOnPage(t *testing.T) {
	d := newDoc()
	d.labelValue("Nom", "Doe")
	assert.Equal(t, 1, d.pdf.PageCount())
	assert.Equal(t, marginTop+lineHeight, d.y)
}

func TestOverlongParagraphSpansPages(t *testing.T) {
	d := newDoc()
	// taller than a full page: falls back to per-line breaking instead of
	// pushing an un-fittable block forever
	huge := strings.Repeat("beaucoup de texte libre dans le commentaire du comite ", 300)
	d.paragraph(huge)
	assert.GreaterOrEqual(t, d.pdf.PageCount(), 2)
	assert.LessOrEqual(t, d.y, d.maxY())
}

func TestHeadingResetsBodyFont(t *testing.T) {
	d := newDoc()
	d.heading("Evaluation")
	ptSize, _ := d.pdf.GetFontSize()
	assert.InDelta(t, bodySize, ptSize, 0.01)
}
