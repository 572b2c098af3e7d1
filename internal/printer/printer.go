// Package printer enumerates installed printers and submits rasterized
// documents to them. Submission strategies are modeled as backends: a shell
// backend for platforms with a print command, a device-context backend that
// drives a page-oriented device protocol, and a fallback chain of external
// viewers for when no rasterization backend is available.
package printer

import (
	"context"
	"errors"
	"runtime"
	"strings"

	"github.com/printbridge/agent/internal/execx"
	"github.com/printbridge/agent/internal/pdfdoc"
)

var (
	ErrDevice    = errors.New("printing device error")
	ErrNoBackend = errors.New("no print backend available")
)

// Platform selects the submission strategy. Detected once at process start.
type Platform string

const (
	PlatformDarwin  Platform = "darwin"
	PlatformLinux   Platform = "linux"
	PlatformWindows Platform = "windows"
)

func DetectPlatform() Platform {
	switch runtime.GOOS {
	case "windows":
		return PlatformWindows
	case "darwin":
		return PlatformDarwin
	default:
		return PlatformLinux
	}
}

// Request carries everything a backend needs to submit one job. The document
// has already been decoded, loaded and written to PDFPath; the temp file is
// owned by the caller and outlives the submission.
type Request struct {
	Doc     *pdfdoc.Document
	PDFPath string
	Printer string
	Label   string
}

// SubmissionOutcome is the success report of a backend.
type SubmissionOutcome struct {
	Message string
}

// Backend is one submission strategy.
type Backend interface {
	Submit(ctx context.Context, req *Request) (*SubmissionOutcome, error)
}

// List returns the names of the installed printers: deduplicated, order
// preserving, whitespace trimmed, empty lines dropped. A system with no
// printers yields an empty list, not an error.
func List(ctx context.Context, platform Platform) ([]string, error) {
	name, args := listCommand(platform)
	out, err := execx.Output(ctx, name, args...)
	if err != nil {
		return nil, err
	}
	return parsePrinterNames(out), nil
}

func listCommand(platform Platform) (string, []string) {
	if platform == PlatformWindows {
		return "powershell.exe", []string{
			"-NoProfile",
			"-Command",
			"Get-WmiObject -Class Win32_Printer | Select-Object -ExpandProperty Name",
		}
	}
	return "lpstat", []string{"-e"}
}

func parsePrinterNames(out string) []string {
	seen := make(map[string]bool)
	names := make([]string, 0)
	for _, line := range strings.Split(out, "\n") {
		name := strings.TrimSpace(line)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}
