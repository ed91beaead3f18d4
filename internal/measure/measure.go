// 包 measure：按区域编码保存各指标数值；解析宽松，缺失值显式标记而非记为 0
package measure

import (
	"math"
	"strconv"
	"strings"
	"sync"

	"choromap/internal/logger"
	"choromap/internal/metrics"
)

// Key：指标键，取值为固定枚举
type Key string

const (
	ForgottenVoters Key = "forgottenVoters"
	LowTrust        Key = "lowTrust"
	Pessimism       Key = "pessimism"
)

// IDColumn：行数据中的区域编码列
const IDColumn = "NUTS_ID"

// Keys：全部指标，顺序即前端下拉框顺序
var Keys = []Key{ForgottenVoters, LowTrust, Pessimism}

// 指标展示名；新增指标时需同步补充
var labels = map[Key]string{
	ForgottenVoters: "Forgotten voters (%)",
	LowTrust:        "Low institutional trust (%)",
	Pessimism:       "Economic pessimism (%)",
}

// Valid：是否为已知指标
func Valid(k Key) bool {
	_, ok := labels[k]
	return ok
}

// Label：指标展示名，未知指标返回键本身
func Label(k Key) string {
	if s, ok := labels[k]; ok {
		return s
	}
	return string(k)
}

// Value：数值或缺失标记
type Value struct {
	v  float64
	ok bool
}

// Missing：缺失标记（未提供、无法解析或非有限数）
var Missing = Value{}

// Of：构造数值；NaN 与 ±Inf 视为缺失
func Of(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Missing
	}
	return Value{v: f, ok: true}
}

// Parse：宽松解析原始字符串，失败返回 Missing
func Parse(raw string) Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Missing
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Missing
	}
	return Of(f)
}

func (v Value) Float() (float64, bool) { return v.v, v.ok }
func (v Value) Valid() bool            { return v.ok }

func (v Value) String() string {
	if !v.ok {
		return "no data"
	}
	return strconv.FormatFloat(v.v, 'f', 1, 64)
}

// Row：一行原始数据，列名 → 原始字符串
type Row map[string]string

// Record：单个区域的完整指标记录
type Record map[Key]Value

// Store：区域编码 → 指标记录
// 约束：读路径可被 API 处理器并发访问，写入仅发生在状态循环内
type Store struct {
	mu   sync.RWMutex
	recs map[string]Record
}

func NewStore() *Store { return &Store{recs: make(map[string]Record)} }

// Ingest：批量写入行数据，返回实际写入的区域数
// 背景：缺少编码的行直接丢弃，不中断批次；每行整体替换该区域的记录
func (s *Store) Ingest(rows []Row) int {
	n := 0
	for _, r := range rows {
		id := strings.TrimSpace(r[IDColumn])
		if id == "" {
			metrics.MalformedRecordsTotal.WithLabelValues("row").Inc()
			continue
		}
		rec := make(Record, len(Keys))
		for _, k := range Keys {
			rec[k] = Parse(r[string(k)])
		}
		s.mu.Lock()
		s.recs[id] = rec
		s.mu.Unlock()
		n++
	}
	logger.L().Debug("measure_ingest", "rows", len(rows), "stored", n)
	return n
}

// Get：读取数值；未知区域或指标返回 Missing
func (s *Store) Get(regionID string, k Key) Value {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.recs[regionID]
	if !ok {
		return Missing
	}
	v, ok := rec[k]
	if !ok {
		return Missing
	}
	return v
}

// Len：已写入的区域数
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.recs)
}
