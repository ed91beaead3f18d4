package migrate

import (
	"database/sql"

	"choromap/internal/logger"
)

// 背景：首次运行自动创建指标表；缺失值以 NULL 存储，不与 0 混淆
// 约束：使用 IF NOT EXISTS，可重复执行
func EnsureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS _region_measures (
            region_id TEXT PRIMARY KEY,
            forgotten_voters DOUBLE PRECISION NULL,
            low_trust DOUBLE PRECISION NULL,
            pessimism DOUBLE PRECISION NULL,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_region_measures_updated ON _region_measures(updated_at)`,
	}
	for i, s := range stmts {
		logger.L().Debug("schema_exec", "idx", i)
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	logger.L().Debug("schema_done")
	return nil
}
