package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	EventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "choromap_events_total",
		Help: "Events consumed by the state loop, by type",
	}, []string{"type"})
	StyleDirectivesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "choromap_style_directives_total",
		Help: "Style directives emitted to the rendering surface, by highlight state",
	}, []string{"state"})
	StyleRecomputesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "choromap_style_recomputes_total",
		Help: "Full style recomputes (base style or refresh)",
	})
	SearchEvaluationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "choromap_search_evaluations_total",
		Help: "Debounced search evaluations that actually ran",
	})
	SearchCancelledTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "choromap_search_cancelled_total",
		Help: "Pending search evaluations superseded before running",
	})
	SearchMatches = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "choromap_search_matches",
		Help:    "Number of region names matched per evaluation",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100, 500},
	})
	SourceLoadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "choromap_source_loads_total",
		Help: "Data source loads by source and status",
	}, []string{"source", "status"})
	SourceFetchDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "choromap_source_fetch_duration_ms",
		Help:    "Data source fetch duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 5000},
	}, []string{"source"})
	CacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "choromap_cache_hits_total",
		Help: "Source payload cache hits by tier",
	}, []string{"tier"})
	CacheMissesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "choromap_cache_misses_total",
		Help: "Source payload cache misses by tier",
	}, []string{"tier"})
	MalformedRecordsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "choromap_malformed_records_total",
		Help: "Rows or features dropped for missing fields",
	}, []string{"kind"})
	WSClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "choromap_ws_clients",
		Help: "Connected websocket rendering clients",
	})
)

func init() {
	prometheus.MustRegister(EventsTotal)
	prometheus.MustRegister(StyleDirectivesTotal)
	prometheus.MustRegister(StyleRecomputesTotal)
	prometheus.MustRegister(SearchEvaluationsTotal)
	prometheus.MustRegister(SearchCancelledTotal)
	prometheus.MustRegister(SearchMatches)
	prometheus.MustRegister(SourceLoadsTotal)
	prometheus.MustRegister(SourceFetchDurationMs)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
	prometheus.MustRegister(MalformedRecordsTotal)
	prometheus.MustRegister(WSClients)
}

// 文档注释：返回 Prometheus 指标处理器，由主入口挂载到 API 前缀下
func Handler() http.Handler { return promhttp.Handler() }
