package printer

import (
	"context"
	"fmt"

	"github.com/printbridge/agent/internal/raster"
)

// Rect is a destination rectangle in device pixels.
type Rect struct {
	X, Y, W, H int
}

// Device is an open handle to a printing device driven through a strict
// page-oriented protocol: Open, StartDoc, StartPage, Blit, EndPage, EndDoc,
// Close. Exactly one Device is in use per job; devices are never pooled.
type Device interface {
	Open(ctx context.Context, printerName string) error

	// PrintableArea reports the device's printable width and height in
	// device pixels. Valid only between Open and Close.
	PrintableArea() (w, h int, err error)

	StartDoc(label string) error
	StartPage() error

	// Blit draws a 24-bit DIB (BGR, bottom-up, 4-byte-aligned scanlines)
	// scaled into dest.
	Blit(dib []byte, width, height int, dest Rect) error

	EndPage() error
	EndDoc() error
	Close() error
}

// DestRect computes where the raster lands on the device: scaled to fit the
// printable bounds with the aspect ratio preserved, anchored at the
// printable-area origin. Device bounds vary per printer, which is why this is
// computed at submission time rather than at rasterization time.
func DestRect(printableW, printableH, bufW, bufH int) Rect {
	w, h := raster.FitBox(float64(bufW), float64(bufH), printableW, printableH)
	return Rect{X: 0, Y: 0, W: w, H: h}
}

// RunSession drives one complete print job through the device protocol.
// When any transition fails, every resource acquired so far is released in
// reverse acquisition order before the error is surfaced; no transition is
// retried. Release errors during an abort are dropped in favor of the
// original failure.
func RunSession(ctx context.Context, dev Device, printerName, label string, buf *raster.Buffer) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrDevice, err)
	}

	if err := dev.Open(ctx, printerName); err != nil {
		return fmt.Errorf("%w: failed to open printer %q: %v", ErrDevice, printerName, err)
	}

	pw, ph, err := dev.PrintableArea()
	if err != nil {
		_ = dev.Close()
		return fmt.Errorf("%w: failed to query printable area of %q: %v", ErrDevice, printerName, err)
	}
	dest := DestRect(pw, ph, buf.Width, buf.Height)

	if err := dev.StartDoc(label); err != nil {
		_ = dev.Close()
		return fmt.Errorf("%w: failed to start document: %v", ErrDevice, err)
	}

	if err := dev.StartPage(); err != nil {
		_ = dev.EndDoc()
		_ = dev.Close()
		return fmt.Errorf("%w: failed to start page: %v", ErrDevice, err)
	}

	if err := dev.Blit(buf.ToDIB(), buf.Width, buf.Height, dest); err != nil {
		_ = dev.EndPage()
		_ = dev.EndDoc()
		_ = dev.Close()
		return fmt.Errorf("%w: failed to blit page raster: %v", ErrDevice, err)
	}

	if err := dev.EndPage(); err != nil {
		_ = dev.EndDoc()
		_ = dev.Close()
		return fmt.Errorf("%w: failed to end page: %v", ErrDevice, err)
	}

	if err := dev.EndDoc(); err != nil {
		_ = dev.Close()
		return fmt.Errorf("%w: failed to end document: %v", ErrDevice, err)
	}

	if err := dev.Close(); err != nil {
		return fmt.Errorf("%w: failed to close device: %v", ErrDevice, err)
	}
	return nil
}
