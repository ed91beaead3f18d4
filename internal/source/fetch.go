// 包 source：外部数据源的拉取、缓存与解析（CSV 指标行、GeoJSON 区域要素）
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"choromap/internal/logger"
	"choromap/internal/metrics"
)

// ErrUnavailable：数据源不可用（网络错误、非 2xx 状态、文件缺失）
var ErrUnavailable = errors.New("source unavailable")

// Fetcher：按位置拉取原始载荷；http(s) 地址走 HTTP 并缓存，其余视为本地文件
type Fetcher struct {
	client *http.Client
	cache  Cache
}

// NewFetcher：client 为空时使用 10s 超时的默认客户端；cache 可为空
func NewFetcher(client *http.Client, cache Cache) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Fetcher{client: client, cache: cache}
}

func isRemote(loc string) bool {
	l := strings.ToLower(loc)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

// Fetch：拉取载荷；name 仅用于日志与指标
func (f *Fetcher) Fetch(ctx context.Context, name, loc string) ([]byte, error) {
	if loc == "" {
		return nil, fmt.Errorf("%w: %s location not configured", ErrUnavailable, name)
	}
	t0 := time.Now()
	defer func() {
		metrics.SourceFetchDurationMs.WithLabelValues(name).Observe(float64(time.Since(t0).Milliseconds()))
	}()
	if !isRemote(loc) {
		b, err := os.ReadFile(loc)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, name, err)
		}
		return b, nil
	}
	if f.cache != nil {
		if b, ok := f.cache.Get(ctx, loc); ok {
			logger.L().Debug("source_cache_hit", "source", name, "loc", loc)
			return b, nil
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, name, err)
	}
	logger.L().Debug("source_fetch", "source", name, "loc", loc)
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s: status %d", ErrUnavailable, name, resp.StatusCode)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, name, err)
	}
	if f.cache != nil {
		f.cache.Set(ctx, loc, b)
	}
	return b, nil
}
