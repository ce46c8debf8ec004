package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/relive/internal/ir"
)

// LoadStatistics returns the stored player statistics. A store that never
// saved any returns fresh statistics.
func (s *Store) LoadStatistics(ctx context.Context) (*ir.Statistics, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM statistics WHERE id = 1`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.NewStatistics(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load statistics: %w", err)
	}

	stats := ir.NewStatistics()
	if err := unmarshal("statistics", data, stats); err != nil {
		return nil, fmt.Errorf("load statistics: %w", err)
	}
	stats.Normalize()
	return stats, nil
}

// SaveStatistics replaces the stored player statistics.
func (s *Store) SaveStatistics(ctx context.Context, stats *ir.Statistics) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return saveStatistics(ctx, tx, stats)
	})
}

func saveStatistics(ctx context.Context, tx *sql.Tx, stats *ir.Statistics) error {
	data, err := marshal("statistics", storableStatistics(stats))
	if err != nil {
		return fmt.Errorf("save statistics: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO statistics (id, data, record_version)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data, record_version = excluded.record_version
	`, data, ir.RecordVersion)
	if err != nil {
		return fmt.Errorf("save statistics: %w", err)
	}
	return nil
}
