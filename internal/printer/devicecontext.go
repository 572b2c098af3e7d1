package printer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/printbridge/agent/internal/raster"
)

// DeviceBackend rasterizes page 0 of the document and drives it through the
// device-context protocol. Rasterization resolution is fixed ahead of time
// for image quality; the fit to the device's printable bounds happens inside
// RunSession because device capabilities vary by selected printer.
type DeviceBackend struct {
	NewDevice    func() (Device, error)
	Raster       raster.Backend
	TargetWidth  int
	TargetHeight int
	Log          *zap.Logger
}

func (b *DeviceBackend) Submit(ctx context.Context, req *Request) (*SubmissionOutcome, error) {
	page, err := req.Doc.PageSize(0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", raster.ErrRender, err)
	}

	w, h := raster.FitBox(page.Width, page.Height, b.TargetWidth, b.TargetHeight)
	b.Log.Debug("rasterizing page",
		zap.Float64("page_width_pt", page.Width),
		zap.Float64("page_height_pt", page.Height),
		zap.Int("raster_width", w),
		zap.Int("raster_height", h))

	buf, err := b.Raster.RenderPage(ctx, req.PDFPath, 0, w, h)
	if err != nil {
		return nil, err
	}

	dev, err := b.NewDevice()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDevice, err)
	}

	if err := RunSession(ctx, dev, req.Printer, req.Label, buf); err != nil {
		return nil, err
	}

	return &SubmissionOutcome{
		Message: fmt.Sprintf("Printed via device context to %s", req.Printer),
	}, nil
}
