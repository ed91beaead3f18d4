package source

import (
	"bytes"
	"context"

	"choromap/internal/logger"
	"choromap/internal/measure"
	"choromap/internal/metrics"
	"choromap/internal/region"
)

// Loader：两个外部数据源的加载入口
// 约束：只在启动时各调用一次；失败返回 ErrUnavailable 包装的错误，由调用方统一提示
type Loader struct {
	Fetcher  *Fetcher
	IDProp   string
	NameProp string
}

// Measures：拉取并解析指标 CSV
func (l *Loader) Measures(ctx context.Context, loc string) ([]measure.Row, error) {
	b, err := l.Fetcher.Fetch(ctx, "measures", loc)
	if err != nil {
		metrics.SourceLoadsTotal.WithLabelValues("measures", "unavailable").Inc()
		return nil, err
	}
	rows, err := ParseCSV(bytes.NewReader(b))
	if err != nil {
		metrics.SourceLoadsTotal.WithLabelValues("measures", "malformed").Inc()
		return nil, err
	}
	metrics.SourceLoadsTotal.WithLabelValues("measures", "ok").Inc()
	logger.L().Info("source_load_ok", "source", "measures", "rows", len(rows))
	return rows, nil
}

// Regions：拉取并解析区域 GeoJSON
func (l *Loader) Regions(ctx context.Context, loc string) ([]region.Feature, error) {
	b, err := l.Fetcher.Fetch(ctx, "regions", loc)
	if err != nil {
		metrics.SourceLoadsTotal.WithLabelValues("regions", "unavailable").Inc()
		return nil, err
	}
	fs, err := ParseGeoJSON(b, l.IDProp, l.NameProp)
	if err != nil {
		metrics.SourceLoadsTotal.WithLabelValues("regions", "malformed").Inc()
		return nil, err
	}
	metrics.SourceLoadsTotal.WithLabelValues("regions", "ok").Inc()
	logger.L().Info("source_load_ok", "source", "regions", "features", len(fs))
	return fs, nil
}
