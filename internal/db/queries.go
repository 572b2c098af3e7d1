package db

const (
	InsertJob = `
		INSERT INTO print_jobs (id, printer_name, label, size_kb, status, message, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	GetJobByID = `
		SELECT id, printer_name, label, size_kb, status, message, duration_ms, created_at
		FROM print_jobs WHERE id = ?
	`

	ListJobs = `
		SELECT id, printer_name, label, size_kb, status, message, duration_ms, created_at
		FROM print_jobs ORDER BY created_at DESC LIMIT ? OFFSET ?
	`

	ListJobsByStatus = `
		SELECT id, printer_name, label, size_kb, status, message, duration_ms, created_at
		FROM print_jobs WHERE status = ? ORDER BY created_at DESC LIMIT ? OFFSET ?
	`

	CountJobsByStatus = `
		SELECT COUNT(*) FROM print_jobs WHERE status = ?
	`

	PurgeJobsBefore = `
		DELETE FROM print_jobs WHERE created_at < ?
	`
)
