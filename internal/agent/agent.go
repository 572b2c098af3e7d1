// Package agent exposes the two operations the host surface calls: printer
// enumeration and synchronous single-page PDF printing.
package agent

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/printbridge/agent/internal/db"
	"github.com/printbridge/agent/internal/pdfdoc"
	"github.com/printbridge/agent/internal/printer"
	"github.com/printbridge/agent/internal/webhook"
)

var ErrDecode = errors.New("document decode failed")

// PrintResult is the sole value surfaced to the caller on success.
type PrintResult struct {
	Success bool   `json:"success"`
	SizeKB  int    `json:"size_kb"`
	Message string `json:"message"`
}

// Submitter hands a prepared job to the platform's print backend.
type Submitter interface {
	Submit(ctx context.Context, req *printer.Request) (*printer.SubmissionOutcome, error)
}

// JobStore records finished jobs for operator diagnostics.
type JobStore interface {
	RecordJob(ctx context.Context, j *db.PrintJob) error
	ListJobs(ctx context.Context, status string, limit, offset int) ([]*db.PrintJob, error)
}

// Lister enumerates installed printers.
type Lister func(ctx context.Context) ([]string, error)

type Agent struct {
	dispatcher Submitter
	store      JobStore
	hooks      *webhook.Sender
	list       Lister
	log        *zap.Logger
}

func New(dispatcher Submitter, store JobStore, hooks *webhook.Sender, list Lister, log *zap.Logger) *Agent {
	return &Agent{
		dispatcher: dispatcher,
		store:      store,
		hooks:      hooks,
		list:       list,
		log:        log,
	}
}

// Printers returns the installed printer names. A machine with no printers
// yields an empty list, not an error.
func (a *Agent) Printers(ctx context.Context) ([]string, error) {
	return a.list(ctx)
}

// Jobs lists recorded history rows, newest first.
func (a *Agent) Jobs(ctx context.Context, status string, limit, offset int) ([]*db.PrintJob, error) {
	return a.store.ListJobs(ctx, status, limit, offset)
}

// PrintPDF decodes the transport blob, loads it, and submits exactly one page
// to the named printer. The call is synchronous; the returned result is fully
// populated on success and replaced by an error otherwise.
func (a *Agent) PrintPDF(ctx context.Context, encoded, printerName, label string) (*PrintResult, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrDecode)
	}
	sizeKB := len(raw) / 1024

	doc, err := pdfdoc.Load(raw)
	if err != nil {
		return nil, err
	}

	tmpDir, err := os.MkdirTemp("", "agent-print-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	pdfPath := filepath.Join(tmpDir, sanitizeLabel(label)+".pdf")
	if err := os.WriteFile(pdfPath, raw, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write document: %w", err)
	}

	req := &printer.Request{
		Doc:     doc,
		PDFPath: pdfPath,
		Printer: printerName,
		Label:   label,
	}

	start := time.Now()
	outcome, err := a.dispatcher.Submit(ctx, req)
	duration := time.Since(start)

	if err != nil {
		a.record(printerName, label, sizeKB, db.JobStatusFailed, err.Error(), duration)
		return nil, err
	}

	message := outcome.Message
	if n := doc.PageCount(); n > 1 {
		message = fmt.Sprintf("%s (first page of %d; multi-page jobs are not supported)", message, n)
	}
	a.record(printerName, label, sizeKB, db.JobStatusCompleted, message, duration)

	return &PrintResult{
		Success: true,
		SizeKB:  sizeKB,
		Message: message,
	}, nil
}

// record writes the history row and fires the webhook. Neither may fail the
// print call itself.
func (a *Agent) record(printerName, label string, sizeKB int, status, message string, duration time.Duration) {
	job := &db.PrintJob{
		ID:          uuid.NewString(),
		PrinterName: printerName,
		Label:       label,
		SizeKB:      sizeKB,
		Status:      status,
		Message:     message,
		DurationMS:  duration.Milliseconds(),
		CreatedAt:   time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.store.RecordJob(ctx, job); err != nil {
		a.log.Error("failed to record job history", zap.String("job_id", job.ID), zap.Error(err))
	}

	event := webhook.EventJobCompleted
	if status == db.JobStatusFailed {
		event = webhook.EventJobFailed
	}
	a.hooks.SendJobEvent(event, job)
}

// sanitizeLabel makes a job label safe for use as a file name.
func sanitizeLabel(label string) string {
	name := filepath.Base(strings.ReplaceAll(label, " ", "_"))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "document"
	}
	return name
}
