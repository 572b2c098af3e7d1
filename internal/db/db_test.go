package db

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var setupOnce sync.Once

// openTestDB initializes the package singleton against a throwaway file.
// Init guards itself with sync.Once, so every test shares one database.
func openTestDB(t *testing.T) {
	t.Helper()
	setupOnce.Do(func() {
		// Not t.TempDir: its cleanup is tied to whichever test ran first,
		// while the database handle outlives it.
		dir, err := os.MkdirTemp("", "agent-db-test-*")
		require.NoError(t, err)
		require.NoError(t, Init(Config{Path: filepath.Join(dir, "agent_test.db")}))
	})
}

func newJob(status string) *PrintJob {
	return &PrintJob{
		ID:          uuid.NewString(),
		PrinterName: "Office",
		Label:       "invoice",
		SizeKB:      12,
		Status:      status,
		Message:     "Printed via lp to Office",
		DurationMS:  340,
	}
}

// backdate pushes a row's created_at into the past.
func backdate(t *testing.T, id string, when time.Time) {
	t.Helper()
	_, err := GetDB().Exec("UPDATE print_jobs SET created_at = ? WHERE id = ?", when, id)
	require.NoError(t, err)
}

func TestRecordAndGetJob(t *testing.T) {
	openTestDB(t)
	ctx := context.Background()

	job := newJob(JobStatusCompleted)
	require.NoError(t, Jobs.RecordJob(ctx, job))

	got, err := Jobs.GetJobByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, "Office", got.PrinterName)
	assert.Equal(t, "invoice", got.Label)
	assert.Equal(t, 12, got.SizeKB)
	assert.Equal(t, JobStatusCompleted, got.Status)
	assert.Equal(t, int64(340), got.DurationMS)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestGetJobByIDNotFound(t *testing.T) {
	openTestDB(t)

	_, err := Jobs.GetJobByID(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestListJobsNewestFirstAndFiltered(t *testing.T) {
	openTestDB(t)
	ctx := context.Background()

	older := newJob(JobStatusFailed)
	newer := newJob(JobStatusFailed)
	require.NoError(t, Jobs.RecordJob(ctx, older))
	require.NoError(t, Jobs.RecordJob(ctx, newer))
	backdate(t, older.ID, time.Now().Add(-time.Hour))

	jobs, err := Jobs.ListJobs(ctx, JobStatusFailed, 10, 0)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(jobs), 2)

	var gotNewer, gotOlder int
	for i, j := range jobs {
		assert.Equal(t, JobStatusFailed, j.Status)
		switch j.ID {
		case newer.ID:
			gotNewer = i
		case older.ID:
			gotOlder = i
		}
	}
	assert.Less(t, gotNewer, gotOlder, "newer rows come first")
}

func TestListJobsDefaultsLimit(t *testing.T) {
	openTestDB(t)
	ctx := context.Background()

	require.NoError(t, Jobs.RecordJob(ctx, newJob(JobStatusCompleted)))

	jobs, err := Jobs.ListJobs(ctx, "", 0, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, jobs)
	assert.LessOrEqual(t, len(jobs), 50)
}

func TestCountJobsByStatus(t *testing.T) {
	openTestDB(t)
	ctx := context.Background()

	before, err := Jobs.CountJobsByStatus(ctx, JobStatusCompleted)
	require.NoError(t, err)

	require.NoError(t, Jobs.RecordJob(ctx, newJob(JobStatusCompleted)))

	after, err := Jobs.CountJobsByStatus(ctx, JobStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, before+1, after)
}

func TestPurgeOlderThan(t *testing.T) {
	openTestDB(t)
	ctx := context.Background()

	stale := newJob(JobStatusCompleted)
	fresh := newJob(JobStatusCompleted)
	require.NoError(t, Jobs.RecordJob(ctx, stale))
	require.NoError(t, Jobs.RecordJob(ctx, fresh))
	backdate(t, stale.ID, time.Now().AddDate(0, 0, -60))

	purged, err := Jobs.PurgeOlderThan(ctx, 30)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, purged, int64(1))

	_, err = Jobs.GetJobByID(ctx, stale.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	_, err = Jobs.GetJobByID(ctx, fresh.ID)
	assert.NoError(t, err)
}

func TestPurgeDisabledRetention(t *testing.T) {
	openTestDB(t)

	purged, err := Jobs.PurgeOlderThan(context.Background(), 0)
	require.NoError(t, err)
	assert.Zero(t, purged)
}
