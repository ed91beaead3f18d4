// 包 ingest：指标 CSV 导入 PostgreSQL 的离线通道（cmd/measures-ingest 与服务启动时的初始化共用）
package ingest

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"choromap/internal/logger"
	"choromap/internal/measure"
	"choromap/internal/source"
)

// RowSink：指标行写入目标，由 store.Store 实现
type RowSink interface {
	UpsertRows(ctx context.Context, rows []measure.Row, batch int) (int, error)
}

// RowCounter：用于判断目标表是否为空
type RowCounter interface {
	CountRows(ctx context.Context) (int64, error)
}

// Options：导入参数；Batch 为每批提交行数，DryRun 只解析不写库
type Options struct {
	Batch  int
	DryRun bool
}

// Result：导入结果统计
type Result struct {
	Parsed  int
	Skipped int
	Written int
}

// FetchAndImport：拉取 CSV 并批量写入
// 背景：解析失败的行与缺少编码的行计入 Skipped，不中断导入
// 异常：拉取或数据库错误直接返回，不做重试
func FetchAndImport(ctx context.Context, sink RowSink, f *source.Fetcher, loc string, opt Options) (Result, error) {
	l := logger.Component("ingest")
	l.Info("ingest_start", "src", loc, "dry_run", opt.DryRun)
	b, err := f.Fetch(ctx, "measures", loc)
	if err != nil {
		return Result{}, err
	}
	rows, err := source.ParseCSV(bytes.NewReader(b))
	if err != nil {
		return Result{}, fmt.Errorf("parse %s: %w", loc, err)
	}
	res := Result{Parsed: len(rows)}
	valid := rows[:0]
	for _, r := range rows {
		id := strings.TrimSpace(r[measure.IDColumn])
		if id == "" {
			res.Skipped++
			continue
		}
		r[measure.IDColumn] = id
		valid = append(valid, r)
	}
	if opt.DryRun {
		l.Info("ingest_dry_run", "parsed", res.Parsed, "skipped", res.Skipped)
		return res, nil
	}
	n, err := sink.UpsertRows(ctx, valid, opt.Batch)
	res.Written = n
	if err != nil {
		return res, err
	}
	l.Info("ingest_done", "written", n, "skipped", res.Skipped)
	return res, nil
}

// EnsureInitialized：目标表为空时执行一次导入；loc 为空时跳过
func EnsureInitialized(ctx context.Context, db interface {
	RowSink
	RowCounter
}, f *source.Fetcher, loc string) error {
	if loc == "" {
		return nil
	}
	c, err := db.CountRows(ctx)
	if err != nil {
		return err
	}
	if c > 0 {
		logger.L().Debug("ingest_skip_initialized", "rows", c)
		return nil
	}
	_, err = FetchAndImport(ctx, db, f, loc, Options{})
	return err
}
