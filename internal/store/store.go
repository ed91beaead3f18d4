// 包 store：PostgreSQL 指标表的读写，作为 CSV 之外的另一种指标行来源
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"choromap/internal/logger"
	"choromap/internal/measure"

	_ "github.com/lib/pq"
)

// Store：数据库访问入口
type Store struct {
	db *sql.DB
}

func AttachDB(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

// MeasureRows：读取全部指标行，NULL 转为空串（由 measure.Store 解析为缺失）
func (s *Store) MeasureRows(ctx context.Context) ([]measure.Row, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT region_id, forgotten_voters, low_trust, pessimism FROM _region_measures ORDER BY region_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []measure.Row
	for rows.Next() {
		var id string
		var fv, lt, pe sql.NullFloat64
		if err := rows.Scan(&id, &fv, &lt, &pe); err != nil {
			return nil, err
		}
		out = append(out, measure.Row{
			measure.IDColumn:                id,
			string(measure.ForgottenVoters): nullString(fv),
			string(measure.LowTrust):        nullString(lt),
			string(measure.Pessimism):       nullString(pe),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	logger.L().Debug("db_measure_rows", "rows", len(out))
	return out, nil
}

func nullString(v sql.NullFloat64) string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatFloat(v.Float64, 'f', -1, 64)
}

// 文档注释：批量写入指标行（整行替换）
// 背景：每 batch 行提交一次，降低锁持有；缺少编码的行跳过；缺失值写 NULL
// 返回：写入行数；数据库错误直接返回，已提交的批次保留
func (s *Store) UpsertRows(ctx context.Context, rows []measure.Row, batch int) (int, error) {
	if batch <= 0 {
		batch = 500
	}
	const q = `INSERT INTO _region_measures(region_id, forgotten_voters, low_trust, pessimism, updated_at)
        VALUES($1,$2,$3,$4,now())
        ON CONFLICT (region_id) DO UPDATE SET forgotten_voters=EXCLUDED.forgotten_voters, low_trust=EXCLUDED.low_trust, pessimism=EXCLUDED.pessimism, updated_at=now()`
	count := 0
	for start := 0; start < len(rows); start += batch {
		end := min(start+batch, len(rows))
		n, err := s.upsertBatch(ctx, q, rows[start:end])
		count += n
		if err != nil {
			return count, err
		}
		logger.L().Info("db_measure_upsert_progress", "count", count)
	}
	return count, nil
}

func (s *Store) upsertBatch(ctx context.Context, q string, rows []measure.Row) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()
	n := 0
	for _, r := range rows {
		args, ok := upsertArgs(r)
		if !ok {
			continue
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("upsert %s: %w", args[0], err)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

// upsertArgs：行 → SQL 参数；缺少编码返回 false
func upsertArgs(r measure.Row) ([]any, bool) {
	id := strings.TrimSpace(r[measure.IDColumn])
	if id == "" {
		return nil, false
	}
	args := []any{id}
	for _, k := range measure.Keys {
		if f, ok := measure.Parse(r[string(k)]).Float(); ok {
			args = append(args, f)
		} else {
			args = append(args, nil)
		}
	}
	return args, true
}

// CountRows：指标表行数
func (s *Store) CountRows(ctx context.Context) (int64, error) {
	var c int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM _region_measures").Scan(&c)
	return c, err
}
