package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/scaffold/internal/domain"
	"github.com/roach88/scaffold/internal/takeoff"
)

const modelColumns = `seq, id, job_id, version, model_json, graph_hash, load_class, is_published, created_at, published_at`

// InsertModel appends a model and its takeoff lines in one transaction.
// The returned model carries the assigned Seq and GraphHash.
//
// A duplicate (job_id, version) or id returns an error wrapping
// domain.ErrConflict; nothing is written in that case.
func (s *Store) InsertModel(ctx context.Context, m domain.Model, lines []takeoff.Line) (domain.Model, error) {
	graphJSON, hash, err := marshalGraph(m.Graph)
	if err != nil {
		return domain.Model{}, fmt.Errorf("insert model: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Model{}, fmt.Errorf("insert model: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	result, err := tx.ExecContext(ctx, `
		INSERT INTO scaffold_models
		(id, job_id, version, model_json, graph_hash, load_class, is_published, created_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?)
	`,
		m.ID,
		m.JobID,
		m.Version,
		graphJSON,
		hash,
		m.LoadClass,
		formatTime(m.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Model{}, fmt.Errorf("insert model %s %q: %w", m.JobID, m.Version, domain.ErrConflict)
		}
		return domain.Model{}, fmt.Errorf("insert model: %w", err)
	}

	seq, err := result.LastInsertId()
	if err != nil {
		return domain.Model{}, fmt.Errorf("insert model: last insert id: %w", err)
	}

	if err := replaceTakeoffLines(ctx, tx, m.ID, lines); err != nil {
		return domain.Model{}, fmt.Errorf("insert model: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.Model{}, fmt.Errorf("insert model: commit: %w", err)
	}

	m.Seq = seq
	m.GraphHash = hash
	m.Published = false
	m.PublishedAt = nil
	m.CreatedAt = m.CreatedAt.UTC()
	return m, nil
}

// GetModel retrieves a model by id.
// Returns an error wrapping domain.ErrNotFound if it does not exist.
func (s *Store) GetModel(ctx context.Context, id string) (domain.Model, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+modelColumns+` FROM scaffold_models WHERE id = ?`, id)
	m, err := scanModel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Model{}, fmt.Errorf("model %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Model{}, fmt.Errorf("get model %s: %w", id, err)
	}
	return m, nil
}

// LatestModel returns the most recently inserted model for a job.
// The boolean is false when the job has no models.
func (s *Store) LatestModel(ctx context.Context, jobID string) (domain.Model, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+modelColumns+`
		FROM scaffold_models
		WHERE job_id = ?
		ORDER BY seq DESC
		LIMIT 1
	`, jobID)
	m, err := scanModel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Model{}, false, nil
	}
	if err != nil {
		return domain.Model{}, false, fmt.Errorf("latest model for %s: %w", jobID, err)
	}
	return m, true, nil
}

// ListModels returns every model of a job, newest first.
// Returns an empty slice (not nil) if the job has none.
func (s *Store) ListModels(ctx context.Context, jobID string) ([]domain.Model, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+modelColumns+`
		FROM scaffold_models
		WHERE job_id = ?
		ORDER BY seq DESC
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("query models: %w", err)
	}
	defer rows.Close()

	models := []domain.Model{}
	for rows.Next() {
		m, err := scanModel(rows)
		if err != nil {
			return nil, fmt.Errorf("scan model: %w", err)
		}
		models = append(models, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate models: %w", err)
	}
	return models, nil
}

// MarkPublished flips is_published to true and stamps published_at.
// Publishing an already-published model leaves it untouched and returns it.
func (s *Store) MarkPublished(ctx context.Context, id string, at time.Time) (domain.Model, error) {
	_, err := s.db.ExecContext(ctx, `
		UPDATE scaffold_models
		SET is_published = 1, published_at = ?
		WHERE id = ? AND is_published = 0
	`, formatTime(at), id)
	if err != nil {
		return domain.Model{}, fmt.Errorf("mark published %s: %w", id, err)
	}
	return s.GetModel(ctx, id)
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanModel(row rowScanner) (domain.Model, error) {
	var (
		m           domain.Model
		graphJSON   string
		published   int
		createdAt   string
		publishedAt sql.NullString
	)
	err := row.Scan(
		&m.Seq,
		&m.ID,
		&m.JobID,
		&m.Version,
		&graphJSON,
		&m.GraphHash,
		&m.LoadClass,
		&published,
		&createdAt,
		&publishedAt,
	)
	if err != nil {
		return domain.Model{}, err
	}

	if m.Graph, err = unmarshalGraph(graphJSON, m.GraphHash); err != nil {
		return domain.Model{}, fmt.Errorf("model %s: %w", m.ID, err)
	}
	if m.CreatedAt, err = parseTime(createdAt); err != nil {
		return domain.Model{}, err
	}
	if m.PublishedAt, err = parseNullTime(publishedAt); err != nil {
		return domain.Model{}, err
	}
	m.Published = published == 1
	return m, nil
}
