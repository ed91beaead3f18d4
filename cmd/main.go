// 程序入口：读取配置、装配数据源与状态循环并启动 HTTP 服务；路由注册在 internal/api
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"choromap/internal/api"
	"choromap/internal/app"
	"choromap/internal/config"
	"choromap/internal/ingest"
	"choromap/internal/logger"
	"choromap/internal/measure"
	"choromap/internal/metrics"
	"choromap/internal/middleware"
	"choromap/internal/migrate"
	"choromap/internal/region"
	"choromap/internal/source"
	"choromap/internal/store"
	"choromap/internal/utils"
)

func main() {
	config.LoadEnv()
	l := logger.Setup()
	l.Debug("log_init_ok")
	cfg := config.Load()
	l.Debug("config_loaded", "addr", cfg.Addr, "api_base", cfg.APIBase, "ui", cfg.UIDist, "measures_source", cfg.MeasuresSource)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 远程载荷缓存：Redis 可用时使用 Redis，否则进程内 LRU
	var cache source.Cache
	if rc := utils.OpenRedisFromEnv(ctx); rc != nil {
		defer rc.Close()
		cache = source.NewRedisCache(rc, cfg.SourceCacheTTL)
		l.Info("source_cache", "tier", "redis")
	} else {
		cache = source.NewMemCache(16, cfg.SourceCacheTTL)
		l.Info("source_cache", "tier", "memory")
	}
	fetcher := source.NewFetcher(&http.Client{Timeout: cfg.SourceTimeout}, cache)
	loader := &source.Loader{Fetcher: fetcher, IDProp: cfg.RegionIDProp, NameProp: cfg.RegionNameProp}

	measures := func(ctx context.Context) ([]measure.Row, error) { return loader.Measures(ctx, cfg.MeasuresURL) }
	if cfg.MeasuresSource == config.MeasuresFromPostgres {
		st, err := openStore(ctx, fetcher, cfg.MeasuresURL)
		if err != nil {
			l.Error("db_open_error", "err", err)
			measures = func(context.Context) ([]measure.Row, error) { return nil, err }
		} else {
			defer st.Close()
			measures = func(ctx context.Context) ([]measure.Row, error) {
				rows, err := st.MeasureRows(ctx)
				status := "ok"
				if err != nil {
					status = "unavailable"
				}
				metrics.SourceLoadsTotal.WithLabelValues("measures_db", status).Inc()
				return rows, err
			}
		}
	}
	regions := func(ctx context.Context) ([]region.Feature, error) { return loader.Regions(ctx, cfg.RegionsURL) }

	loop := app.NewLoop(0)
	go loop.Run(ctx)
	hub := api.NewHub()
	hub.SetInitialMeasure(cfg.DefaultMeasure)
	a := app.New(loop, hub, app.Options{
		DefaultMeasure: cfg.DefaultMeasure,
		SearchDebounce: cfg.SearchDebounce,
		SearchLimit:    cfg.SearchLimit,
	})
	a.Load(ctx, measures, regions)

	srv := api.NewServer(a, hub, cfg.RegionIDProp, cfg.RegionNameProp)
	mux := http.NewServeMux()
	mux.Handle(cfg.APIBase+"/", http.StripPrefix(cfg.APIBase, srv.BuildRoutes()))
	mux.Handle(cfg.APIBase+"/metrics", metrics.Handler())
	mux.Handle("/", http.FileServer(http.Dir(cfg.UIDist)))
	// 向前端暴露 API 基础路径与 websocket 地址，避免硬编码
	mux.HandleFunc("/config.js", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "application/javascript; charset=utf-8")
		w.Header().Set("cache-control", "no-store")
		_, _ = w.Write([]byte("window.__API_BASE__='" + cfg.APIBase + "'\n"))
		_, _ = w.Write([]byte("window.__WS_PATH__='" + cfg.APIBase + "/ws'\n"))
	})

	handler := logger.AccessMiddleware(l)(mux)
	handler = middleware.RateLimit(cfg.RateLimitEnabled, cfg.RateLimitQPS)(handler)
	s := &http.Server{Addr: cfg.Addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(sctx)
	}()

	var err error
	if cfg.TLSEnable {
		if err := utils.EnsureSelfSignedCert(cfg.TLSCertPath, cfg.TLSKeyPath, "choromap.local"); err != nil {
			l.Error("tls_cert_error", "err", err)
			os.Exit(1)
		}
		l.Info("listening_tls", "addr", cfg.Addr, "cert", cfg.TLSCertPath)
		err = s.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
	} else {
		l.Info("listening", "addr", cfg.Addr)
		err = s.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.Error("server_error", "err", err)
		os.Exit(1)
	}
	l.Info("server_stopped")
}

// openStore：连接数据库、确保表结构；表为空且配置了 CSV 位置时先导入一次
func openStore(ctx context.Context, f *source.Fetcher, seed string) (*store.Store, error) {
	db, err := utils.OpenPostgresFromEnv(ctx)
	if err != nil {
		return nil, err
	}
	if err := migrate.EnsureSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	st := store.AttachDB(db)
	if err := ingest.EnsureInitialized(ctx, st, f, seed); err != nil {
		logger.L().Warn("ingest_seed_error", "err", err)
	}
	return st, nil
}
