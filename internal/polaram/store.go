package polaram

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id            TEXT PRIMARY KEY,
	source        TEXT NOT NULL,
	fingerprint   TEXT NOT NULL DEFAULT '',
	total_samples INTEGER NOT NULL,
	batch_samples INTEGER NOT NULL,
	next_chunk    INTEGER NOT NULL,
	seed          INTEGER NOT NULL,
	precision     INTEGER NOT NULL,
	batches       INTEGER NOT NULL,
	status        TEXT NOT NULL,
	created_at    TEXT NOT NULL,
	updated_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS modes (
	run_id   TEXT NOT NULL,
	idx      INTEGER NOT NULL,
	head     TEXT NOT NULL,
	n        INTEGER NOT NULL,
	mueller  BLOB NOT NULL,
	tensor   BLOB NOT NULL,
	PRIMARY KEY (run_id, idx),
	FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS validations (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id     TEXT NOT NULL,
	batch      INTEGER NOT NULL,
	samples    INTEGER NOT NULL,
	head       TEXT NOT NULL,
	analytic   REAL,
	empirical  REAL,
	digits     INTEGER NOT NULL,
	passed     INTEGER NOT NULL,
	created_at TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
);
`

// fixed width, so text order is time order
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store checkpoints runs in SQLite so they can be resumed by a later process.
type Store struct {
	db *sql.DB
}

// OpenStore opens (creating if needed) the database at path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun upserts the run row and replaces its per-mode means.
func (s *Store) SaveRun(ctx context.Context, st *RunState) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, source, fingerprint, total_samples, batch_samples, next_chunk, seed, precision, batches, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			total_samples = excluded.total_samples,
			batch_samples = excluded.batch_samples,
			next_chunk    = excluded.next_chunk,
			precision     = excluded.precision,
			batches       = excluded.batches,
			status        = excluded.status,
			updated_at    = excluded.updated_at`,
		st.ID, st.Source, st.Fingerprint, st.TotalSamples, st.BatchSamples, st.NextChunk, st.Seed, st.Precision, st.Batches,
		string(st.Status), st.CreatedAt.UTC().Format(timeLayout), st.UpdatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("upsert run: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM modes WHERE run_id = ?`, st.ID); err != nil {
		return fmt.Errorf("clear modes: %w", err)
	}
	for i, m := range st.Means {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO modes (run_id, idx, head, n, mueller, tensor) VALUES (?, ?, ?, ?, ?, ?)`,
			st.ID, i, m.Head, m.N, encodeMat4(m.Mueller), encodeMat3(m.Tensor),
		)
		if err != nil {
			return fmt.Errorf("insert mode %q: %w", m.Head, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// LoadRun returns the stored state of run id, or ErrRunNotFound.
func (s *Store) LoadRun(ctx context.Context, id string) (*RunState, error) {
	st := &RunState{ID: id}
	var status, created, updated string
	err := s.db.QueryRowContext(ctx,
		`SELECT source, fingerprint, total_samples, batch_samples, next_chunk, seed, precision, batches, status, created_at, updated_at
		 FROM runs WHERE id = ?`, id,
	).Scan(&st.Source, &st.Fingerprint, &st.TotalSamples, &st.BatchSamples, &st.NextChunk, &st.Seed, &st.Precision, &st.Batches, &status, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}
	st.Status = Status(status)
	st.CreatedAt, _ = time.Parse(timeLayout, created)
	st.UpdatedAt, _ = time.Parse(timeLayout, updated)

	rows, err := s.db.QueryContext(ctx,
		`SELECT head, n, mueller, tensor FROM modes WHERE run_id = ? ORDER BY idx`, id)
	if err != nil {
		return nil, fmt.Errorf("query modes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			m      RunningMean
			mb, tb []byte
		)
		if err := rows.Scan(&m.Head, &m.N, &mb, &tb); err != nil {
			return nil, fmt.Errorf("scan mode: %w", err)
		}
		if m.Mueller, err = decodeMat4(mb); err != nil {
			return nil, fmt.Errorf("mode %q: %w", m.Head, err)
		}
		if m.Tensor, err = decodeMat3(tb); err != nil {
			return nil, fmt.Errorf("mode %q: %w", m.Head, err)
		}
		st.Means = append(st.Means, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate modes: %w", err)
	}
	return st, nil
}

// RunSummary is one line of ListRuns.
type RunSummary struct {
	ID           string
	Source       string
	Status       Status
	TotalSamples int64
	Batches      int
	Modes        int
	UpdatedAt    time.Time
}

// ListRuns returns stored runs, most recently updated first.
func (s *Store) ListRuns(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.source, r.status, r.total_samples, r.batches, r.updated_at,
		        (SELECT COUNT(*) FROM modes m WHERE m.run_id = r.id)
		 FROM runs r ORDER BY r.updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()
	var out []RunSummary
	for rows.Next() {
		var (
			r       RunSummary
			status  string
			updated string
		)
		if err := rows.Scan(&r.ID, &r.Source, &status, &r.TotalSamples, &r.Batches, &updated, &r.Modes); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Status = Status(status)
		r.UpdatedAt, _ = time.Parse(timeLayout, updated)
		out = append(out, r)
	}
	return out, rows.Err()
}

// RecordValidation appends one batch of reports to the validation history.
// The run row must exist, so the controller checkpoints before the first call.
func (s *Store) RecordValidation(ctx context.Context, runID string, batch int, samples int64, reports []ConvergenceReport) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()
	now := time.Now().UTC().Format(timeLayout)
	for _, r := range reports {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO validations (run_id, batch, samples, head, analytic, empirical, digits, passed, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, batch, samples, r.Head, nullableFloat(r.Analytic), nullableFloat(r.Empirical), r.Digits, r.Passed, now,
		)
		if err != nil {
			return fmt.Errorf("insert validation %q: %w", r.Head, err)
		}
	}
	return tx.Commit()
}

// Validations returns the recorded history of a run as a History.
func (s *Store) Validations(ctx context.Context, runID string) (*History, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT batch, samples, head, analytic, empirical, digits, passed
		 FROM validations WHERE run_id = ? ORDER BY batch, id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query validations: %w", err)
	}
	defer rows.Close()
	h := NewHistory()
	for rows.Next() {
		var (
			batch   int
			samples int64
			r       ConvergenceReport
			a, e    sql.NullFloat64
		)
		if err := rows.Scan(&batch, &samples, &r.Head, &a, &e, &r.Digits, &r.Passed); err != nil {
			return nil, fmt.Errorf("scan validation: %w", err)
		}
		r.Analytic, r.Empirical = math.NaN(), math.NaN()
		if a.Valid {
			r.Analytic = a.Float64
		}
		if e.Valid {
			r.Empirical = e.Float64
		}
		h.Record(batch, samples, []ConvergenceReport{r})
	}
	return h, rows.Err()
}

// SQLite stores NaN as NULL.
func nullableFloat(x float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: x, Valid: !math.IsNaN(x)}
}

func encodeFloats(v []float64) []byte {
	buf := make([]byte, len(v)*8)
	for i, f := range v {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(f))
	}
	return buf
}

func decodeFloats(b []byte, n int) ([]float64, error) {
	if len(b) != n*8 {
		return nil, fmt.Errorf("blob length %d, want %d", len(b), n*8)
	}
	v := make([]float64, n)
	for i := range v {
		v[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return v, nil
}

func encodeMat3(m Mat3) []byte {
	flat := make([]float64, 0, 9)
	for r := 0; r < 3; r++ {
		flat = append(flat, m.M[r][:]...)
	}
	return encodeFloats(flat)
}

func decodeMat3(b []byte) (Mat3, error) {
	var m Mat3
	v, err := decodeFloats(b, 9)
	if err != nil {
		return m, err
	}
	for r := 0; r < 3; r++ {
		copy(m.M[r][:], v[r*3:r*3+3])
	}
	return m, nil
}

func encodeMat4(m Mat4) []byte {
	flat := make([]float64, 0, 16)
	for r := 0; r < 4; r++ {
		flat = append(flat, m.M[r][:]...)
	}
	return encodeFloats(flat)
}

func decodeMat4(b []byte) (Mat4, error) {
	var m Mat4
	v, err := decodeFloats(b, 16)
	if err != nil {
		return m, err
	}
	for r := 0; r < 4; r++ {
		copy(m.M[r][:], v[r*4:r*4+4])
	}
	return m, nil
}
