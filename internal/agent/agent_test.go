package agent

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/printbridge/agent/internal/db"
	"github.com/printbridge/agent/internal/printer"
)

// minimalPDF builds a valid classic-xref document with the given page count.
func minimalPDF(t *testing.T, pages int) []byte {
	t.Helper()

	var body bytes.Buffer
	body.WriteString("%PDF-1.4\n")
	var offsets []int
	add := func(s string) {
		offsets = append(offsets, body.Len())
		fmt.Fprintf(&body, "%d 0 obj\n%s\nendobj\n", len(offsets), s)
	}

	add("<< /Type /Catalog /Pages 2 0 R >>")
	kids := ""
	for i := 0; i < pages; i++ {
		if i > 0 {
			kids += " "
		}
		kids += fmt.Sprintf("%d 0 R", 3+i)
	}
	add(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, pages))
	for i := 0; i < pages; i++ {
		add("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>")
	}

	xrefPos := body.Len()
	fmt.Fprintf(&body, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&body, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&body, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(offsets)+1, xrefPos)
	return body.Bytes()
}

type fakeSubmitter struct {
	req     *printer.Request
	outcome *printer.SubmissionOutcome
	err     error
}

func (f *fakeSubmitter) Submit(ctx context.Context, req *printer.Request) (*printer.SubmissionOutcome, error) {
	f.req = req
	return f.outcome, f.err
}

type fakeStore struct {
	recorded []*db.PrintJob
	listed   []*db.PrintJob
}

func (f *fakeStore) RecordJob(ctx context.Context, j *db.PrintJob) error {
	f.recorded = append(f.recorded, j)
	return nil
}

func (f *fakeStore) ListJobs(ctx context.Context, status string, limit, offset int) ([]*db.PrintJob, error) {
	return f.listed, nil
}

func newTestAgent(sub *fakeSubmitter, store *fakeStore, names []string) *Agent {
	return New(sub, store, nil,
		func(ctx context.Context) ([]string, error) { return names, nil },
		zap.NewNop())
}

func TestPrintPDFSuccess(t *testing.T) {
	raw := minimalPDF(t, 1)
	sub := &fakeSubmitter{outcome: &printer.SubmissionOutcome{Message: "Printed via lp to Office"}}
	store := &fakeStore{}
	a := newTestAgent(sub, store, nil)

	res, err := a.PrintPDF(context.Background(),
		base64.StdEncoding.EncodeToString(raw), "Office", "invoice 42")
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, len(raw)/1024, res.SizeKB)
	assert.Equal(t, "Printed via lp to Office", res.Message)

	require.NotNil(t, sub.req)
	assert.Equal(t, "Office", sub.req.Printer)
	assert.Equal(t, "invoice 42", sub.req.Label)
	assert.Contains(t, sub.req.PDFPath, "invoice_42.pdf")

	require.Len(t, store.recorded, 1)
	job := store.recorded[0]
	assert.Equal(t, db.JobStatusCompleted, job.Status)
	assert.Equal(t, "Office", job.PrinterName)
	assert.NotEmpty(t, job.ID)
}

func TestPrintPDFReportsSizeOfDecodedBytes(t *testing.T) {
	// Pad the document past 2 KiB so the reported size is non-zero.
	raw := minimalPDF(t, 1)
	raw = append(raw, bytes.Repeat([]byte{'%'}, 2048)...)

	sub := &fakeSubmitter{outcome: &printer.SubmissionOutcome{Message: "ok"}}
	a := newTestAgent(sub, &fakeStore{}, nil)

	res, err := a.PrintPDF(context.Background(),
		base64.StdEncoding.EncodeToString(raw), "Office", "doc")
	require.NoError(t, err)
	assert.Equal(t, len(raw)/1024, res.SizeKB)
}

func TestPrintPDFInvalidBase64(t *testing.T) {
	a := newTestAgent(&fakeSubmitter{}, &fakeStore{}, nil)

	_, err := a.PrintPDF(context.Background(), "not*base64*", "Office", "doc")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestPrintPDFEmptyDocument(t *testing.T) {
	a := newTestAgent(&fakeSubmitter{}, &fakeStore{}, nil)

	_, err := a.PrintPDF(context.Background(), "", "Office", "doc")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDecode)
	assert.Contains(t, err.Error(), "empty document")
}

func TestPrintPDFMalformedDocument(t *testing.T) {
	sub := &fakeSubmitter{}
	a := newTestAgent(sub, &fakeStore{}, nil)

	_, err := a.PrintPDF(context.Background(),
		base64.StdEncoding.EncodeToString([]byte("not a pdf")), "Office", "doc")
	require.Error(t, err)
	assert.Nil(t, sub.req, "malformed documents must not reach the dispatcher")
}

func TestPrintPDFSubmitFailureRecordsJob(t *testing.T) {
	raw := minimalPDF(t, 1)
	sub := &fakeSubmitter{
		err: fmt.Errorf("%w: failed to open printer %q", printer.ErrDevice, "Ghost"),
	}
	store := &fakeStore{}
	a := newTestAgent(sub, store, nil)

	_, err := a.PrintPDF(context.Background(),
		base64.StdEncoding.EncodeToString(raw), "Ghost", "doc")
	require.Error(t, err)
	assert.ErrorIs(t, err, printer.ErrDevice)
	assert.Contains(t, err.Error(), "Ghost")

	require.Len(t, store.recorded, 1)
	assert.Equal(t, db.JobStatusFailed, store.recorded[0].Status)
}

func TestPrintPDFMultiPageNote(t *testing.T) {
	raw := minimalPDF(t, 3)
	sub := &fakeSubmitter{outcome: &printer.SubmissionOutcome{Message: "Printed via lp to Office"}}
	a := newTestAgent(sub, &fakeStore{}, nil)

	res, err := a.PrintPDF(context.Background(),
		base64.StdEncoding.EncodeToString(raw), "Office", "doc")
	require.NoError(t, err)
	assert.Contains(t, res.Message, "first page of 3")
	assert.Contains(t, res.Message, "multi-page jobs are not supported")
}

func TestPrintPDFCleansUpTempFile(t *testing.T) {
	raw := minimalPDF(t, 1)
	sub := &fakeSubmitter{outcome: &printer.SubmissionOutcome{Message: "ok"}}
	a := newTestAgent(sub, &fakeStore{}, nil)

	_, err := a.PrintPDF(context.Background(),
		base64.StdEncoding.EncodeToString(raw), "Office", "doc")
	require.NoError(t, err)

	require.NotNil(t, sub.req)
	_, statErr := os.Stat(sub.req.PDFPath)
	assert.True(t, os.IsNotExist(statErr), "temp document should be removed after submission")
}

func TestPrinters(t *testing.T) {
	a := newTestAgent(&fakeSubmitter{}, &fakeStore{}, []string{"A", "B"})

	names, err := a.Printers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, names)
}

func TestSanitizeLabel(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"invoice 42", "invoice_42"},
		{"../../etc/passwd", "passwd"},
		{"", "document"},
		{"label", "label"},
		{"a b c", "a_b_c"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, sanitizeLabel(tc.in), "input %q", tc.in)
	}
}
