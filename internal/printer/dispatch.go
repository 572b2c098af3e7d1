package printer

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/printbridge/agent/internal/raster"
)

// Dispatcher owns the platform-specific submission strategy. Shell-print
// platforms hand the document file to lp; the device-context platform
// rasterizes and drives the device protocol, degrading to the fallback chain
// when the rasterization backend is missing or the page cannot be rendered.
type Dispatcher struct {
	platform Platform
	shell    Backend
	device   Backend
	fallback Backend
	log      *zap.Logger
}

func NewDispatcher(platform Platform, device *DeviceBackend, fallback *Chain, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		platform: platform,
		shell:    &ShellBackend{},
		device:   device,
		fallback: fallback,
		log:      log,
	}
}

func (d *Dispatcher) Submit(ctx context.Context, req *Request) (*SubmissionOutcome, error) {
	if d.platform != PlatformWindows {
		return d.shell.Submit(ctx, req)
	}

	outcome, err := d.device.Submit(ctx, req)
	if err == nil {
		return outcome, nil
	}
	if !errors.Is(err, raster.ErrRender) {
		return nil, err
	}

	// Rasterization is unavailable; a different strategy may still work.
	d.log.Warn("rasterization unavailable, trying fallback chain",
		zap.String("printer", req.Printer),
		zap.Error(err))
	return d.fallback.Submit(ctx, req)
}
