package prov

import (
	"context"
	"database/sql"
	"encoding/json"

	_ "github.com/mattn/go-sqlite3"

	"github.com/clinpipe/clinpipe/errors"
	"github.com/clinpipe/clinpipe/op"
)

// SQLStore persists a provenance graph to SQLite so a later process can
// replay lineage for audit or incremental reprocessing. This is the only
// persistence the core owns; document and annotation serialization belong
// to external writers.
type SQLStore struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database at the given path.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open provenance database %s", path)
	}
	return db, nil
}

// NewSQLStore wraps an open database handle.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Init creates the provenance schema if it does not exist.
func (s *SQLStore) Init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS prov_records (
			output_id TEXT PRIMARY KEY,
			op_descriptor TEXT NOT NULL,
			input_ids TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`)
	if err != nil {
		return errors.Wrap(err, "failed to create provenance schema")
	}
	return nil
}

// Save appends the graph's records. The table mirrors the graph's
// append-only discipline: an existing output_id is never overwritten, and a
// conflicting insert surfaces as an integrity error.
func (s *SQLStore) Save(ctx context.Context, g *Graph) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin provenance transaction")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO prov_records (output_id, op_descriptor, input_ids) VALUES (?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "failed to prepare provenance insert")
	}
	defer stmt.Close()

	for _, rec := range g.Records() {
		descJSON, err := json.Marshal(rec.Op)
		if err != nil {
			return errors.Wrapf(err, "failed to marshal descriptor for %s", rec.OutputID)
		}
		inputsJSON, err := json.Marshal(rec.InputIDs)
		if err != nil {
			return errors.Wrapf(err, "failed to marshal inputs for %s", rec.OutputID)
		}
		if _, err := stmt.ExecContext(ctx, rec.OutputID, string(descJSON), string(inputsJSON)); err != nil {
			return errors.Wrapf(err, "failed to insert provenance record for %s", rec.OutputID)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit provenance records")
	}
	return nil
}

// Load rebuilds a graph from persisted records, replaying them in insertion
// order so integrity checks re-run on load.
func (s *SQLStore) Load(ctx context.Context) (*Graph, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT output_id, op_descriptor, input_ids FROM prov_records ORDER BY rowid`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query provenance records")
	}
	defer rows.Close()

	g := NewGraph()
	for rows.Next() {
		var outputID, descJSON, inputsJSON string
		if err := rows.Scan(&outputID, &descJSON, &inputsJSON); err != nil {
			return nil, errors.Wrap(err, "failed to scan provenance record")
		}
		var desc op.Descriptor
		if err := json.Unmarshal([]byte(descJSON), &desc); err != nil {
			return nil, errors.Wrapf(err, "corrupt descriptor for %s", outputID)
		}
		var inputIDs []string
		if err := json.Unmarshal([]byte(inputsJSON), &inputIDs); err != nil {
			return nil, errors.Wrapf(err, "corrupt inputs for %s", outputID)
		}
		if err := g.Add(outputID, desc, inputIDs); err != nil {
			return nil, errors.Wrapf(err, "failed to replay record for %s", outputID)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate provenance records")
	}
	return g, nil
}
