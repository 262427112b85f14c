package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/scaffold/internal/graph"
)

// timeLayout is used for every TEXT timestamp column. Values are stored in UTC.
const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}

func parseNullTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// marshalGraph encodes g for the model_json column and returns its fingerprint.
func marshalGraph(g *graph.Graph) (string, string, error) {
	if g == nil {
		return "", "", fmt.Errorf("marshal graph: graph is nil")
	}
	data, err := json.Marshal(g)
	if err != nil {
		return "", "", fmt.Errorf("marshal graph: %w", err)
	}
	hash, err := graph.Fingerprint(g)
	if err != nil {
		return "", "", fmt.Errorf("marshal graph: %w", err)
	}
	return string(data), hash, nil
}

// unmarshalGraph decodes model_json and checks it against the stored hash.
func unmarshalGraph(data, wantHash string) (*graph.Graph, error) {
	var g graph.Graph
	if err := json.Unmarshal([]byte(data), &g); err != nil {
		return nil, fmt.Errorf("unmarshal graph: %w", err)
	}
	hash, err := graph.Fingerprint(&g)
	if err != nil {
		return nil, fmt.Errorf("unmarshal graph: %w", err)
	}
	if hash != wantHash {
		return nil, fmt.Errorf("unmarshal graph: %w (have %s, stored %s)", ErrCorrupt, hash, wantHash)
	}
	return &g, nil
}
