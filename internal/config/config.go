// 包 config：进程配置；.env 与 data/env/.env 先载入环境变量，再按键读取并套用默认值
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"choromap/internal/measure"
	"choromap/internal/source"

	"github.com/joho/godotenv"
)

// 指标行来源
const (
	MeasuresFromCSV      = "csv"
	MeasuresFromPostgres = "postgres"
)

type Config struct {
	Addr    string
	APIBase string
	UIDist  string

	MeasuresSource string
	MeasuresURL    string
	RegionsURL     string
	RegionIDProp   string
	RegionNameProp string
	DefaultMeasure measure.Key

	SearchDebounce time.Duration
	SearchLimit    int

	SourceCacheTTL time.Duration
	SourceTimeout  time.Duration

	TLSEnable   bool
	TLSCertPath string
	TLSKeyPath  string

	RateLimitEnabled bool
	RateLimitQPS     int
}

// LoadEnv：载入 .env 文件；文件不存在时忽略
func LoadEnv() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
}

// Load：读取配置
// 约束：数值解析失败回退默认值；非法的 DEFAULT_MEASURE 回退到第一个指标；MEASURES_SOURCE 仅识别 postgres，其余按 csv
func Load() Config {
	c := Config{
		Addr:             str("ADDR", ":8080"),
		APIBase:          strings.TrimRight(str("API_BASE", "/api"), "/"),
		UIDist:           str("UI_DIST", filepath.Join("ui", "dist")),
		MeasuresSource:   MeasuresFromCSV,
		MeasuresURL:      str("MEASURES_URL", filepath.Join("data", "measures.csv")),
		RegionsURL:       str("REGIONS_URL", filepath.Join("data", "regions.geojson")),
		RegionIDProp:     str("REGION_ID_PROP", source.DefaultIDProp),
		RegionNameProp:   str("REGION_NAME_PROP", source.DefaultNameProp),
		DefaultMeasure:   measure.Key(str("DEFAULT_MEASURE", string(measure.Keys[0]))),
		SearchDebounce:   time.Duration(num("SEARCH_DEBOUNCE_MS", 80)) * time.Millisecond,
		SearchLimit:      num("SEARCH_LIMIT", 50),
		SourceCacheTTL:   time.Duration(num("SOURCE_CACHE_TTL_S", 3600)) * time.Second,
		SourceTimeout:    time.Duration(num("SOURCE_TIMEOUT_S", 10)) * time.Second,
		TLSEnable:        os.Getenv("TLS_ENABLE") == "true",
		TLSCertPath:      str("TLS_CERT_PATH", filepath.Join("data", "certs", "server.crt")),
		TLSKeyPath:       str("TLS_KEY_PATH", filepath.Join("data", "certs", "server.key")),
		RateLimitEnabled: os.Getenv("RATE_LIMIT_ENABLED") == "true",
		RateLimitQPS:     num("RATE_LIMIT_QPS", 200),
	}
	if c.APIBase == "" {
		c.APIBase = "/api"
	}
	if strings.EqualFold(os.Getenv("MEASURES_SOURCE"), MeasuresFromPostgres) {
		c.MeasuresSource = MeasuresFromPostgres
	}
	if !measure.Valid(c.DefaultMeasure) {
		c.DefaultMeasure = measure.Keys[0]
	}
	if c.SearchDebounce < 0 {
		c.SearchDebounce = 0
	}
	return c
}

func str(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func num(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}
