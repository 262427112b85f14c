package store

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/scaffold/internal/domain"
	"github.com/roach88/scaffold/internal/graph"
)

var testTime = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestModel creates an unpublished model with a generated graph.
func createTestModel(t *testing.T, id, jobID, version string) domain.Model {
	t.Helper()
	g, err := graph.Generate(graph.Dimensions{LengthM: 10, HeightM: 6, LiftM: 2})
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}
	return domain.Model{
		ID:        id,
		JobID:     jobID,
		Version:   version,
		Graph:     g,
		LoadClass: "Class 3",
		CreatedAt: testTime,
	}
}

// getTableColumns returns the column names of a table.
func getTableColumns(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()
	rows, err := db.Query("SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		t.Fatalf("pragma_table_info(%s) failed: %v", table, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("scan column: %v", err)
		}
		cols = append(cols, name)
	}
	return cols
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
