// 数据导入工具：读取指标 CSV（本地文件或 URL）并批量写入 PostgreSQL 的 _region_measures
package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"choromap/internal/config"
	"choromap/internal/ingest"
	"choromap/internal/logger"
	"choromap/internal/measure"
	"choromap/internal/migrate"
	"choromap/internal/source"
	"choromap/internal/store"
	"choromap/internal/utils"
)

// 用法：measures-ingest [path|url]；未给参数时依次读取 SRC_URL、MEASURES_URL
func main() {
	config.LoadEnv()
	l := logger.Setup()
	cfg := config.Load()

	src := os.Getenv("SRC_URL")
	if src == "" {
		src = cfg.MeasuresURL
	}
	if len(os.Args) > 1 && os.Args[1] != "" {
		src = os.Args[1]
	}
	batch := 500
	if v := os.Getenv("INGEST_BATCH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			batch = n
		}
	}
	dry := os.Getenv("INGEST_DRY_RUN") == "true"

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	f := source.NewFetcher(nil, nil)
	var sink ingest.RowSink = discard{}
	if !dry {
		db, err := utils.OpenPostgresFromEnv(ctx)
		if err != nil {
			l.Error("db_open_error", "err", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := migrate.EnsureSchema(db); err != nil {
			l.Error("schema_error", "err", err)
			os.Exit(1)
		}
		sink = store.AttachDB(db)
	}
	res, err := ingest.FetchAndImport(ctx, sink, f, src, ingest.Options{Batch: batch, DryRun: dry})
	if err != nil {
		l.Error("ingest_error", "src", src, "written", res.Written, "err", err)
		os.Exit(1)
	}
	l.Info("ingest_summary", "parsed", res.Parsed, "skipped", res.Skipped, "written", res.Written)
}

type discard struct{}

func (discard) UpsertRows(context.Context, []measure.Row, int) (int, error) { return 0, nil }
