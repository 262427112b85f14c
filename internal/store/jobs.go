package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/scaffold/internal/domain"
)

// normalizeText trims and NFC-normalises free text typed by users so that
// visually identical titles compare equal.
func normalizeText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// CreateJob inserts a job. Title and site address are NFC-normalised.
// An empty Status defaults to draft.
func (s *Store) CreateJob(ctx context.Context, j domain.Job) (domain.Job, error) {
	j.Title = normalizeText(j.Title)
	j.SiteAddress = normalizeText(j.SiteAddress)
	if j.Title == "" {
		return domain.Job{}, fmt.Errorf("create job: title is required")
	}
	if j.Status == "" {
		j.Status = domain.JobDraft
	}
	if !j.Status.Valid() {
		return domain.Job{}, fmt.Errorf("create job: invalid status %q", j.Status)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO jobs (id, title, site_address, status, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, j.ID, j.Title, j.SiteAddress, string(j.Status), formatTime(j.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Job{}, fmt.Errorf("create job %s: %w", j.ID, domain.ErrConflict)
		}
		return domain.Job{}, fmt.Errorf("create job: %w", err)
	}

	j.CreatedAt = j.CreatedAt.UTC()
	return j, nil
}

// GetJob retrieves a job by id.
func (s *Store) GetJob(ctx context.Context, id string) (domain.Job, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, site_address, status, created_at FROM jobs WHERE id = ?
	`, id)
	j, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Job{}, fmt.Errorf("job %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Job{}, fmt.Errorf("get job %s: %w", id, err)
	}
	return j, nil
}

// ListJobs returns every job, newest first.
func (s *Store) ListJobs(ctx context.Context) ([]domain.Job, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, site_address, status, created_at FROM jobs ORDER BY seq DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()

	jobs := []domain.Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return jobs, nil
}

// UpdateJobStatus sets the status of a job.
func (s *Store) UpdateJobStatus(ctx context.Context, id string, status domain.JobStatus) (domain.Job, error) {
	if !status.Valid() {
		return domain.Job{}, fmt.Errorf("update job: invalid status %q", status)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE jobs SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return domain.Job{}, fmt.Errorf("update job %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.Job{}, fmt.Errorf("update job %s: rows affected: %w", id, err)
	}
	if n == 0 {
		return domain.Job{}, fmt.Errorf("job %s: %w", id, domain.ErrNotFound)
	}
	return s.GetJob(ctx, id)
}

func scanJob(row rowScanner) (domain.Job, error) {
	var (
		j         domain.Job
		status    string
		createdAt string
	)
	if err := row.Scan(&j.ID, &j.Title, &j.SiteAddress, &status, &createdAt); err != nil {
		return domain.Job{}, err
	}
	j.Status = domain.JobStatus(status)
	t, err := parseTime(createdAt)
	if err != nil {
		return domain.Job{}, err
	}
	j.CreatedAt = t
	return j, nil
}

// UpsertDimensions records the building dimensions of a job, replacing any
// previous measurement. The dimensions are validated (after defaults) before
// anything is written. Returns domain.ErrNotFound if the job does not exist.
func (s *Store) UpsertDimensions(ctx context.Context, d domain.Dimensions) (domain.Dimensions, error) {
	d.Dimensions = d.Dimensions.WithDefaults()
	if err := d.Dimensions.Validate(); err != nil {
		return domain.Dimensions{}, fmt.Errorf("upsert dimensions: %w", err)
	}
	if d.Source == "" {
		d.Source = "manual"
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO dimensions (job_id, length_m, height_m, lift_m, bay_length_m, meta_source, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(job_id) DO UPDATE SET
			length_m = excluded.length_m,
			height_m = excluded.height_m,
			lift_m = excluded.lift_m,
			bay_length_m = excluded.bay_length_m,
			meta_source = excluded.meta_source,
			updated_at = excluded.updated_at
	`, d.JobID, d.LengthM, d.HeightM, d.LiftM, d.BayLengthM, d.Source, formatTime(d.UpdatedAt))
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.Dimensions{}, fmt.Errorf("upsert dimensions: job %s: %w", d.JobID, domain.ErrNotFound)
		}
		return domain.Dimensions{}, fmt.Errorf("upsert dimensions: %w", err)
	}

	d.UpdatedAt = d.UpdatedAt.UTC()
	return d, nil
}

// GetDimensions returns the recorded dimensions of a job.
func (s *Store) GetDimensions(ctx context.Context, jobID string) (domain.Dimensions, error) {
	var (
		d         domain.Dimensions
		updatedAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT job_id, length_m, height_m, lift_m, bay_length_m, meta_source, updated_at
		FROM dimensions WHERE job_id = ?
	`, jobID).Scan(&d.JobID, &d.LengthM, &d.HeightM, &d.LiftM, &d.BayLengthM, &d.Source, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Dimensions{}, fmt.Errorf("dimensions for job %s: %w", jobID, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Dimensions{}, fmt.Errorf("get dimensions %s: %w", jobID, err)
	}
	if d.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return domain.Dimensions{}, err
	}
	return d, nil
}
