// Package raster renders a single PDF page into a fixed-format pixel buffer
// and owns every pixel-format conversion the downstream submission protocol
// needs: channel order, row order and scanline alignment.
package raster

import (
	"errors"
	"image"
	"math"

	"golang.org/x/image/draw"
)

var ErrRender = errors.New("rasterization failed")

// Buffer is a rasterized page: 8-bit RGB, 3 bytes per pixel, row-major,
// top-down, no row padding. A Buffer is produced once and consumed once.
type Buffer struct {
	Width  int
	Height int
	Pix    []byte
}

// FitBox scales a source of srcW x srcH units to fit inside maxW x maxH
// pixels, preserving the aspect ratio. The result never exceeds the box and
// both dimensions are at least 1.
func FitBox(srcW, srcH float64, maxW, maxH int) (int, int) {
	if srcW <= 0 || srcH <= 0 || maxW < 1 || maxH < 1 {
		return 1, 1
	}

	scale := math.Min(float64(maxW)/srcW, float64(maxH)/srcH)
	w := int(math.Round(srcW * scale))
	h := int(math.Round(srcH * scale))

	// Rounding may push one dimension past the box by a pixel.
	if w > maxW {
		w = maxW
	}
	if h > maxH {
		h = maxH
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

// dibAlign is the scanline alignment the device-context protocol mandates.
const dibAlign = 4

// DIBStride returns the padded byte width of one 24-bit DIB scanline.
func DIBStride(width int) int {
	return (width*3 + dibAlign - 1) &^ (dibAlign - 1)
}

// ToDIB converts the buffer to the layout a 24-bit device-independent bitmap
// expects: BGR channel order, bottom-up rows, each scanline padded to a
// four-byte boundary. The returned slice is stride*Height bytes.
func (b *Buffer) ToDIB() []byte {
	stride := DIBStride(b.Width)
	out := make([]byte, stride*b.Height)

	for y := 0; y < b.Height; y++ {
		src := b.Pix[y*b.Width*3 : (y+1)*b.Width*3]
		dst := out[(b.Height-1-y)*stride:]
		for x := 0; x < b.Width; x++ {
			dst[x*3+0] = src[x*3+2]
			dst[x*3+1] = src[x*3+1]
			dst[x*3+2] = src[x*3+0]
		}
	}
	return out
}

// Resample scales the buffer to exactly w x h pixels. Used when the backend
// produces dimensions that differ from the requested fit by a pixel or two.
func Resample(src *Buffer, w, h int) *Buffer {
	if src.Width == w && src.Height == h {
		return src
	}

	srcImg := image.NewRGBA(image.Rect(0, 0, src.Width, src.Height))
	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			si := (y*src.Width + x) * 3
			di := srcImg.PixOffset(x, y)
			srcImg.Pix[di+0] = src.Pix[si+0]
			srcImg.Pix[di+1] = src.Pix[si+1]
			srcImg.Pix[di+2] = src.Pix[si+2]
			srcImg.Pix[di+3] = 0xff
		}
	}

	dstImg := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dstImg, dstImg.Bounds(), srcImg, srcImg.Bounds(), draw.Src, nil)

	dst := &Buffer{Width: w, Height: h, Pix: make([]byte, w*h*3)}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			si := dstImg.PixOffset(x, y)
			di := (y*w + x) * 3
			dst.Pix[di+0] = dstImg.Pix[si+0]
			dst.Pix[di+1] = dstImg.Pix[si+1]
			dst.Pix[di+2] = dstImg.Pix[si+2]
		}
	}
	return dst
}
