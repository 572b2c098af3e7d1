package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type JobOperations struct{}

// Jobs is the package-level accessor for print-job history rows.
var Jobs = &JobOperations{}

func (o *JobOperations) RecordJob(ctx context.Context, j *PrintJob) error {
	_, err := GetDB().ExecContext(ctx, InsertJob,
		j.ID, j.PrinterName, j.Label, j.SizeKB, j.Status, j.Message, j.DurationMS)
	if err != nil {
		return fmt.Errorf("failed to record job: %w", err)
	}
	return nil
}

func (o *JobOperations) GetJobByID(ctx context.Context, id string) (*PrintJob, error) {
	j := &PrintJob{}
	err := GetDB().QueryRowContext(ctx, GetJobByID, id).Scan(
		&j.ID, &j.PrinterName, &j.Label, &j.SizeKB, &j.Status, &j.Message,
		&j.DurationMS, &j.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return j, nil
}

func (o *JobOperations) ListJobs(ctx context.Context, status string, limit, offset int) ([]*PrintJob, error) {
	if limit < 1 {
		limit = 50
	}

	var rows *sql.Rows
	var err error
	if status != "" {
		rows, err = GetDB().QueryContext(ctx, ListJobsByStatus, status, limit, offset)
	} else {
		rows, err = GetDB().QueryContext(ctx, ListJobs, limit, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*PrintJob
	for rows.Next() {
		j := &PrintJob{}
		if err := rows.Scan(
			&j.ID, &j.PrinterName, &j.Label, &j.SizeKB, &j.Status, &j.Message,
			&j.DurationMS, &j.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (o *JobOperations) CountJobsByStatus(ctx context.Context, status string) (int, error) {
	var count int
	err := GetDB().QueryRowContext(ctx, CountJobsByStatus, status).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count jobs: %w", err)
	}
	return count, nil
}

// PurgeOlderThan removes history rows past the retention window. Called once
// at startup; history is diagnostic, not operational.
func (o *JobOperations) PurgeOlderThan(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	result, err := GetDB().ExecContext(ctx, PurgeJobsBefore, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge jobs: %w", err)
	}
	return result.RowsAffected()
}
