package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/scaffold/internal/domain"
	"github.com/roach88/scaffold/internal/takeoff"
)

// ReplaceTakeoffLines deletes every material of a model and inserts lines in
// their place. Lines keep their slice order in the position column.
// Returns an error wrapping domain.ErrNotFound if the model does not exist.
func (s *Store) ReplaceTakeoffLines(ctx context.Context, modelID string, lines []takeoff.Line) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("replace takeoff: begin tx: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM scaffold_models WHERE id = ?`, modelID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("replace takeoff: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("replace takeoff: model %s: %w", modelID, domain.ErrNotFound)
	}

	if err := replaceTakeoffLines(ctx, tx, modelID, lines); err != nil {
		return fmt.Errorf("replace takeoff: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("replace takeoff: commit: %w", err)
	}
	return nil
}

func replaceTakeoffLines(ctx context.Context, tx *sql.Tx, modelID string, lines []takeoff.Line) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM materials WHERE scaffold_model_id = ?`, modelID); err != nil {
		return fmt.Errorf("delete materials: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO materials (scaffold_model_id, position, item_code, name, qty)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare materials insert: %w", err)
	}
	defer stmt.Close()

	for i, l := range lines {
		if _, err := stmt.ExecContext(ctx, modelID, i, l.ItemCode, l.Name, l.Qty); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("insert material %s: %w", l.ItemCode, domain.ErrConflict)
			}
			return fmt.Errorf("insert material %s: %w", l.ItemCode, err)
		}
	}
	return nil
}

// ListMaterials returns the takeoff lines of a model in takeoff order, the
// position each line had when it was written. Lines are not sorted by name;
// callers that want an alphabetical bill of materials sort the result.
// Returns an empty slice (not nil) if the model has none.
func (s *Store) ListMaterials(ctx context.Context, modelID string) ([]domain.Material, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT scaffold_model_id, position, item_code, name, qty
		FROM materials
		WHERE scaffold_model_id = ?
		ORDER BY position ASC
	`, modelID)
	if err != nil {
		return nil, fmt.Errorf("query materials: %w", err)
	}
	defer rows.Close()

	materials := []domain.Material{}
	for rows.Next() {
		var m domain.Material
		if err := rows.Scan(&m.ModelID, &m.Position, &m.ItemCode, &m.Name, &m.Qty); err != nil {
			return nil, fmt.Errorf("scan material: %w", err)
		}
		materials = append(materials, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate materials: %w", err)
	}
	return materials, nil
}
