package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/relive/internal/ir"
)

// ErrRunNotFound is returned when no run has the requested id.
var ErrRunNotFound = errors.New("run not found")

// RunInfo is the listing form of a stored run.
type RunInfo struct {
	Seq           int64
	ID            string
	Seed          int64
	Selected      []int
	MaxAge        *int // nil when the run was not ended
	Overall       *int
	Ticks         int
	Digest        string
	TablesDigest  string
	EngineVersion string
}

// WriteRun stores a run record and sets rec.Seq.
//
// Writing a run id that already exists is a no-op: the stored copy is kept
// and rec.Seq is set to its seq.
func (s *Store) WriteRun(ctx context.Context, rec *ir.RunRecord) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return writeRun(ctx, tx, rec)
	})
}

// CommitRun stores a run record and the statistics it produced atomically.
func (s *Store) CommitRun(ctx context.Context, rec *ir.RunRecord, stats *ir.Statistics) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := writeRun(ctx, tx, rec); err != nil {
			return err
		}
		return saveStatistics(ctx, tx, stats)
	})
}

func writeRun(ctx context.Context, tx *sql.Tx, rec *ir.RunRecord) error {
	if rec.Before == nil {
		return fmt.Errorf("write run %s: missing statistics snapshot", rec.ID)
	}
	selected, err := marshal("selected", nonNil(rec.Selected))
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	active, err := marshal("active", nonNil(rec.Active))
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	start, err := marshal("start", rec.Start)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	before, err := marshal("before", storableStatistics(rec.Before))
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	var summary sql.NullString
	var maxAge, overall sql.NullInt64
	if rec.Summary != nil {
		data, err := marshal("summary", rec.Summary)
		if err != nil {
			return fmt.Errorf("write run: %w", err)
		}
		summary = sql.NullString{String: data, Valid: true}
		maxAge = sql.NullInt64{Int64: int64(rec.Summary.MaxAge), Valid: true}
		overall = sql.NullInt64{Int64: int64(rec.Summary.Overall), Valid: true}
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, seed, selected, active, start, before, summary, max_age, overall,
		 digest, tables_digest, engine_version, record_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rec.ID, rec.Seed, selected, active, start, before, summary, maxAge, overall,
		rec.Digest, rec.TablesDigest, rec.EngineVersion, ir.RecordVersion,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	if err := tx.QueryRowContext(ctx, `SELECT seq FROM runs WHERE id = ?`, rec.ID).Scan(&rec.Seq); err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	if inserted == 0 {
		return nil
	}

	for i, tick := range rec.Ticks {
		data, err := marshal("tick", tick)
		if err != nil {
			return fmt.Errorf("write run: tick %d: %w", i, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO run_ticks (run_id, idx, age, data) VALUES (?, ?, ?, ?)
		`, rec.ID, i, tick.Age, data); err != nil {
			return fmt.Errorf("write run: tick %d: %w", i, err)
		}
	}
	return nil
}

const runColumns = `seq, id, seed, selected, active, start, before, summary,
	digest, tables_digest, engine_version`

// ReadRun returns the run with the given id, ticks included.
func (s *Store) ReadRun(ctx context.Context, id string) (*ir.RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	return s.readRun(ctx, row, id)
}

// LatestRun returns the most recently stored run.
func (s *Store) LatestRun(ctx context.Context) (*ir.RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY seq DESC LIMIT 1`)
	return s.readRun(ctx, row, "latest")
}

func (s *Store) readRun(ctx context.Context, row *sql.Row, what string) (*ir.RunRecord, error) {
	rec, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("read run %s: %w", what, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read run %s: %w", what, err)
	}
	ticks, err := s.readTicks(ctx, rec.ID)
	if err != nil {
		return nil, fmt.Errorf("read run %s: %w", what, err)
	}
	rec.Ticks = ticks
	return rec, nil
}

func scanRun(row *sql.Row) (*ir.RunRecord, error) {
	var rec ir.RunRecord
	var selected, active, start, before string
	var summary sql.NullString
	if err := row.Scan(
		&rec.Seq, &rec.ID, &rec.Seed, &selected, &active, &start, &before, &summary,
		&rec.Digest, &rec.TablesDigest, &rec.EngineVersion,
	); err != nil {
		return nil, err
	}

	if err := unmarshal("selected", selected, &rec.Selected); err != nil {
		return nil, err
	}
	if err := unmarshal("active", active, &rec.Active); err != nil {
		return nil, err
	}
	if err := unmarshal("start", start, &rec.Start); err != nil {
		return nil, err
	}
	rec.Before = ir.NewStatistics()
	if err := unmarshal("before", before, rec.Before); err != nil {
		return nil, err
	}
	rec.Before.Normalize()
	if summary.Valid {
		rec.Summary = &ir.SummaryRecord{}
		if err := unmarshal("summary", summary.String, rec.Summary); err != nil {
			return nil, err
		}
	}
	return &rec, nil
}

func (s *Store) readTicks(ctx context.Context, runID string) ([]ir.TickRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT data FROM run_ticks WHERE run_id = ? ORDER BY idx ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("read ticks: %w", err)
	}
	defer rows.Close()

	ticks := []ir.TickRecord{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan tick: %w", err)
		}
		var tick ir.TickRecord
		if err := unmarshal("tick", data, &tick); err != nil {
			return nil, err
		}
		ticks = append(ticks, tick)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read ticks: %w", err)
	}
	return ticks, nil
}
