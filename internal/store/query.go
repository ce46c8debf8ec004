package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/roach88/relive/internal/condition"
	"github.com/roach88/relive/internal/ir"
)

// RunFilter is the SQL form of the part of a run condition the runs table
// can answer on its own.
//
// Only comparisons of HAGE and SUM joined by & are pushed down. The filter
// never drops a run the full condition could accept: runs without a
// summary always pass, so callers still evaluate the whole condition on
// every returned run.
type RunFilter struct {
	Where  string // empty when nothing could be pushed down
	Params []any
}

// runColumn maps pushable variables to their runs column.
var runColumn = map[string]string{
	ir.VarMaxAge:  "max_age",
	ir.VarOverall: "overall",
}

var sqlOps = map[condition.CompareOp]string{
	condition.OpLt: "<",
	condition.OpLe: "<=",
	condition.OpEq: "=",
	condition.OpGe: ">=",
	condition.OpGt: ">",
	condition.OpNe: "<>",
}

// CompileRunFilter extracts the pushable conjuncts of e. Values are always
// bound as parameters, never interpolated.
func CompileRunFilter(e condition.Expr) RunFilter {
	var parts []string
	var params []any
	var walk func(condition.Expr)
	walk = func(e condition.Expr) {
		switch n := e.(type) {
		case *condition.Logic:
			if n.Op == condition.And {
				walk(n.Left)
				walk(n.Right)
			}
		case *condition.Compare:
			col, ok := runColumn[n.Var]
			op, known := sqlOps[n.Op]
			if !ok || !known {
				return
			}
			parts = append(parts, fmt.Sprintf("(r.%s IS NULL OR r.%s %s ?)", col, col, op))
			params = append(params, n.Operand)
		}
	}
	if e != nil {
		walk(e)
	}
	return RunFilter{Where: strings.Join(parts, " AND "), Params: params}
}

// ListRuns returns every stored run in seq order.
func (s *Store) ListRuns(ctx context.Context) ([]RunInfo, error) {
	return s.FindRuns(ctx, RunFilter{})
}

// FindRuns returns the stored runs passing f, in seq order.
func (s *Store) FindRuns(ctx context.Context, f RunFilter) ([]RunInfo, error) {
	where := ""
	if f.Where != "" {
		where = "WHERE " + f.Where
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.seq, r.id, r.seed, r.selected, r.max_age, r.overall,
		       (SELECT COUNT(*) FROM run_ticks t WHERE t.run_id = r.id),
		       r.digest, r.tables_digest, r.engine_version
		FROM runs r
		`+where+`
		ORDER BY r.seq ASC
	`, f.Params...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		var info RunInfo
		var selected string
		var maxAge, overall sql.NullInt64
		if err := rows.Scan(
			&info.Seq, &info.ID, &info.Seed, &selected, &maxAge, &overall,
			&info.Ticks, &info.Digest, &info.TablesDigest, &info.EngineVersion,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if err := unmarshal("selected", selected, &info.Selected); err != nil {
			return nil, err
		}
		if maxAge.Valid {
			v := int(maxAge.Int64)
			info.MaxAge = &v
		}
		if overall.Valid {
			v := int(overall.Int64)
			info.Overall = &v
		}
		runs = append(runs, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}
