package db

import "time"

const (
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// PrintJob is the after-the-fact record of one print invocation. Rows are
// written once when the call finishes; nothing is ever scheduled from this
// table.
type PrintJob struct {
	ID          string    `json:"id"`
	PrinterName string    `json:"printer_name"`
	Label       string    `json:"label"`
	SizeKB      int       `json:"size_kb"`
	Status      string    `json:"status"`
	Message     string    `json:"message"`
	DurationMS  int64     `json:"duration_ms"`
	CreatedAt   time.Time `json:"created_at"`
}
