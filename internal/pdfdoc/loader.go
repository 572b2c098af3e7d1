// Package pdfdoc loads a PDF document from raw bytes and exposes page count
// and intrinsic page sizes. Loading is a pure parse with no side effects.
package pdfdoc

import (
	"bytes"
	"errors"
	"fmt"

	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/pagetree"
)

var ErrLoad = errors.New("document load failed")

// Page holds the intrinsic size of one page in PDF points (1/72 inch),
// already adjusted for the page's /Rotate entry.
type Page struct {
	Width  float64
	Height float64
}

// Document is a loaded PDF. It always has at least one page.
type Document struct {
	pages []Page
}

// Letter-size default used when a page carries no usable MediaBox.
const (
	defaultPageWidth  = 612.0
	defaultPageHeight = 792.0
)

// Load parses raw PDF bytes. Documents that are malformed, encrypted with an
// unknown password, or have zero pages fail with an error wrapping ErrLoad.
// The zero-page check happens here so rasterization is never attempted on an
// empty document.
func Load(raw []byte) (*Document, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrLoad)
	}

	data, err := pdf.Read(bytes.NewReader(raw), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}

	n, err := pagetree.NumPages(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}
	if n < 1 {
		return nil, fmt.Errorf("%w: document has no pages", ErrLoad)
	}

	pages := make([]Page, n)
	for i := 0; i < n; i++ {
		page, err := readPage(data, i)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", ErrLoad, i, err)
		}
		pages[i] = page
	}

	return &Document{pages: pages}, nil
}

func (d *Document) PageCount() int {
	return len(d.pages)
}

// PageSize returns the intrinsic size of the given zero-based page.
func (d *Document) PageSize(i int) (Page, error) {
	if i < 0 || i >= len(d.pages) {
		return Page{}, fmt.Errorf("page index %d out of range [0,%d)", i, len(d.pages))
	}
	return d.pages[i], nil
}

func readPage(r pdf.Getter, i int) (Page, error) {
	dict, err := pagetree.GetPage(r, i)
	if err != nil {
		return Page{}, err
	}

	w, h, err := mediaBoxSize(r, dict)
	if err != nil {
		return Page{}, err
	}

	rotate, err := pdf.GetInteger(r, dict["Rotate"])
	if err != nil {
		return Page{}, err
	}
	if rot := ((int(rotate) % 360) + 360) % 360; rot == 90 || rot == 270 {
		w, h = h, w
	}

	return Page{Width: w, Height: h}, nil
}

func mediaBoxSize(r pdf.Getter, dict pdf.Dict) (float64, float64, error) {
	box, err := pdf.GetArray(r, dict["MediaBox"])
	if err != nil {
		return 0, 0, err
	}
	if len(box) != 4 {
		return defaultPageWidth, defaultPageHeight, nil
	}

	coords := make([]float64, 4)
	for j, obj := range box {
		num, err := pdf.GetNumber(r, obj)
		if err != nil {
			return 0, 0, err
		}
		coords[j] = float64(num)
	}

	w := coords[2] - coords[0]
	h := coords[3] - coords[1]
	if w < 0 {
		w = -w
	}
	if h < 0 {
		h = -h
	}
	if w == 0 || h == 0 {
		return defaultPageWidth, defaultPageHeight, nil
	}
	return w, h, nil
}
