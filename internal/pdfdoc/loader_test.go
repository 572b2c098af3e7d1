package pdfdoc

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pdfBuilder assembles a minimal classic-xref PDF with correct byte offsets.
type pdfBuilder struct {
	buf     bytes.Buffer
	offsets []int
}

func newPDFBuilder() *pdfBuilder {
	b := &pdfBuilder{}
	b.buf.WriteString("%PDF-1.4\n")
	return b
}

// add appends the next numbered indirect object and returns its reference.
func (b *pdfBuilder) add(body string) string {
	num := len(b.offsets) + 1
	b.offsets = append(b.offsets, b.buf.Len())
	fmt.Fprintf(&b.buf, "%d 0 obj\n%s\nendobj\n", num, body)
	return fmt.Sprintf("%d 0 R", num)
}

func (b *pdfBuilder) finish() []byte {
	xrefPos := b.buf.Len()
	fmt.Fprintf(&b.buf, "xref\n0 %d\n", len(b.offsets)+1)
	b.buf.WriteString("0000000000 65535 f \n")
	for _, off := range b.offsets {
		fmt.Fprintf(&b.buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b.buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(b.offsets)+1, xrefPos)
	return b.buf.Bytes()
}

// makePDF builds a document whose pages carry the given MediaBox entries.
func makePDF(pageDicts ...string) []byte {
	b := newPDFBuilder()
	b.add("<< /Type /Catalog /Pages 2 0 R >>")

	kids := ""
	for i := range pageDicts {
		if i > 0 {
			kids += " "
		}
		kids += fmt.Sprintf("%d 0 R", 3+i)
	}
	b.add(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, len(pageDicts)))

	for _, d := range pageDicts {
		b.add(fmt.Sprintf("<< /Type /Page /Parent 2 0 R %s >>", d))
	}
	return b.finish()
}

func TestLoadSinglePage(t *testing.T) {
	raw := makePDF("/MediaBox [0 0 612 792]")

	doc, err := Load(raw)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.PageCount())

	page, err := doc.PageSize(0)
	require.NoError(t, err)
	assert.InDelta(t, 612.0, page.Width, 0.001)
	assert.InDelta(t, 792.0, page.Height, 0.001)
}

func TestLoadMultiplePages(t *testing.T) {
	raw := makePDF(
		"/MediaBox [0 0 612 792]",
		"/MediaBox [0 0 283.5 425.2]", // A6-ish label
	)

	doc, err := Load(raw)
	require.NoError(t, err)
	require.Equal(t, 2, doc.PageCount())

	page, err := doc.PageSize(1)
	require.NoError(t, err)
	assert.InDelta(t, 283.5, page.Width, 0.001)
	assert.InDelta(t, 425.2, page.Height, 0.001)
}

func TestLoadRotatedPageSwapsDimensions(t *testing.T) {
	raw := makePDF("/MediaBox [0 0 612 792] /Rotate 90")

	doc, err := Load(raw)
	require.NoError(t, err)

	page, err := doc.PageSize(0)
	require.NoError(t, err)
	assert.InDelta(t, 792.0, page.Width, 0.001)
	assert.InDelta(t, 612.0, page.Height, 0.001)
}

func TestLoadNonZeroOriginMediaBox(t *testing.T) {
	raw := makePDF("/MediaBox [10 20 622 812]")

	doc, err := Load(raw)
	require.NoError(t, err)

	page, err := doc.PageSize(0)
	require.NoError(t, err)
	assert.InDelta(t, 612.0, page.Width, 0.001)
	assert.InDelta(t, 792.0, page.Height, 0.001)
}

func TestLoadZeroPagesFails(t *testing.T) {
	raw := makePDF() // Pages node with Count 0 and no Kids

	_, err := Load(raw)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLoad)
	assert.Contains(t, err.Error(), "no pages")
}

func TestLoadGarbageFails(t *testing.T) {
	_, err := Load([]byte("this is not a pdf"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLoad)
}

func TestLoadEmptyInputFails(t *testing.T) {
	_, err := Load(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLoad)
}

func TestPageSizeOutOfRange(t *testing.T) {
	doc, err := Load(makePDF("/MediaBox [0 0 612 792]"))
	require.NoError(t, err)

	_, err = doc.PageSize(1)
	assert.Error(t, err)
	_, err = doc.PageSize(-1)
	assert.Error(t, err)
}
