package raster

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/printbridge/agent/internal/execx"
)

// Backend converts one page of a PDF file into a pixel buffer at an exact
// target size. Implementations hold no state across calls.
type Backend interface {
	// RenderPage rasterizes the zero-based page to exactly width x height
	// pixels. The caller has already computed the aspect-correct fit.
	RenderPage(ctx context.Context, pdfPath string, page, width, height int) (*Buffer, error)

	// Available reports whether the backend's rendering engine can be
	// located. When false, RenderPage fails with ErrRender and the
	// dispatcher may fall back to external viewers.
	Available() bool
}

// PopplerBackend rasterizes through the pdftoppm utility from poppler.
type PopplerBackend struct {
	path string
}

// NewPopplerBackend returns a backend using the pdftoppm executable at path,
// or the one found on PATH when path is empty.
func NewPopplerBackend(path string) *PopplerBackend {
	if path == "" {
		path, _ = execx.LookPath("pdftoppm")
	}
	return &PopplerBackend{path: path}
}

func (p *PopplerBackend) Available() bool {
	if p.path == "" {
		return false
	}
	_, err := os.Stat(p.path)
	return err == nil
}

func (p *PopplerBackend) RenderPage(ctx context.Context, pdfPath string, page, width, height int) (*Buffer, error) {
	if !p.Available() {
		return nil, fmt.Errorf("%w: pdftoppm not found (install poppler or set raster.backend_path)", ErrRender)
	}

	tmpDir, err := os.MkdirTemp("", "agent-raster-*")
	if err != nil {
		return nil, fmt.Errorf("%w: temp dir: %v", ErrRender, err)
	}
	defer os.RemoveAll(tmpDir)

	outBase := filepath.Join(tmpDir, "page")
	pageNo := strconv.Itoa(page + 1)

	cmd := &execx.Command{
		Name: p.path,
		Args: []string{
			"-f", pageNo,
			"-l", pageNo,
			"-scale-to-x", strconv.Itoa(width),
			"-scale-to-y", strconv.Itoa(height),
			"-singlefile",
			pdfPath,
			outBase,
		},
	}
	if err := execx.Run(ctx, cmd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}

	f, err := os.Open(outBase + ".ppm")
	if err != nil {
		return nil, fmt.Errorf("%w: backend produced no output: %v", ErrRender, err)
	}
	defer f.Close()

	buf, err := decodePPM(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}

	// pdftoppm occasionally rounds the output size by a pixel.
	if buf.Width != width || buf.Height != height {
		buf = Resample(buf, width, height)
	}
	return buf, nil
}
