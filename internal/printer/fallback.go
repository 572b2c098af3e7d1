package printer

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/printbridge/agent/internal/execx"
)

// Candidate is one external viewer tried by the fallback chain. Args may use
// the placeholders {{printer}} and {{file}}. WaitForSpool is the fixed delay
// imposed after a viewer that returns control before the OS spool finishes.
type Candidate struct {
	Path         string
	Args         []string
	WaitForSpool time.Duration
}

// Chain tries external viewer executables in priority order until one
// submits the document. It exists only as a degraded-mode path when no
// rasterization backend is available and carries weaker guarantees: no
// structured error detail from the external process, and timing-based
// success heuristics.
type Chain struct {
	Candidates []Candidate
	Log        *zap.Logger

	// WaitForSpool pauses before declaring success for viewers that exit
	// early. Injected so tests do not sleep.
	WaitForSpool func(ctx context.Context, d time.Duration) error
}

func (c *Chain) Submit(ctx context.Context, req *Request) (*SubmissionOutcome, error) {
	wait := c.WaitForSpool
	if wait == nil {
		wait = waitForSpoolCompletion
	}

	var attempted []string
	for _, cand := range c.Candidates {
		attempted = append(attempted, cand.Path)

		if _, err := os.Stat(cand.Path); err != nil {
			c.Log.Debug("fallback candidate absent", zap.String("path", cand.Path))
			continue
		}

		args := expandArgs(cand.Args, map[string]string{
			"printer": req.Printer,
			"file":    req.PDFPath,
		})
		cmd := &execx.Command{Name: cand.Path, Args: args}
		if err := execx.Run(ctx, cmd); err != nil {
			c.Log.Warn("fallback candidate failed",
				zap.String("path", cand.Path),
				zap.Int("exit_code", cmd.ExitCode),
				zap.Error(err))
			continue
		}

		if cand.WaitForSpool > 0 {
			if err := wait(ctx, cand.WaitForSpool); err != nil {
				return nil, fmt.Errorf("%w: interrupted while waiting for spool: %v", ErrDevice, err)
			}
		}

		return &SubmissionOutcome{
			Message: fmt.Sprintf("Printed via %s to %s", cand.Path, req.Printer),
		}, nil
	}

	if len(attempted) == 0 {
		return nil, fmt.Errorf("%w: no fallback viewers configured", ErrNoBackend)
	}
	return nil, fmt.Errorf("%w: tried %s", ErrNoBackend, strings.Join(attempted, ", "))
}

func waitForSpoolCompletion(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

var placeholderRe = regexp.MustCompile(`\{\{(\w+)\}\}`)

func expandArgs(args []string, vars map[string]string) []string {
	out := make([]string, len(args))
	for i, arg := range args {
		out[i] = placeholderRe.ReplaceAllStringFunc(arg, func(m string) string {
			name := placeholderRe.FindStringSubmatch(m)[1]
			if v, ok := vars[name]; ok {
				return v
			}
			return m
		})
	}
	return out
}
