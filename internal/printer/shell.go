package printer

import (
	"context"
	"fmt"
	"strings"

	"github.com/printbridge/agent/internal/execx"
)

// ShellBackend submits jobs through the system print command (lp on CUPS
// platforms). The spooler handles rasterization, so the document file goes
// out unchanged.
type ShellBackend struct{}

func (s *ShellBackend) Submit(ctx context.Context, req *Request) (*SubmissionOutcome, error) {
	cmd := &execx.Command{
		Name: "lp",
		Args: []string{"-d", req.Printer, "-t", req.Label, req.PDFPath},
	}
	if err := execx.Run(ctx, cmd); err != nil {
		stderr := strings.TrimSpace(cmd.Stderr.String())
		if stderr != "" {
			return nil, fmt.Errorf("%w: lp rejected job for printer %q: %s", ErrDevice, req.Printer, stderr)
		}
		return nil, fmt.Errorf("%w: lp failed for printer %q: %v", ErrDevice, req.Printer, err)
	}

	return &SubmissionOutcome{
		Message: fmt.Sprintf("Printed via lp to %s", req.Printer),
	}, nil
}
