// 包 api：HTTP 与 websocket 接口；渲染端通过 websocket 接收样式指令并回报指针与输入事件
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"choromap/internal/app"
	"choromap/internal/logger"
	"choromap/internal/measure"
	"choromap/internal/source"
)

// Server：接口层，持有应用与 hub
type Server struct {
	app      *app.App
	hub      *Hub
	idProp   string
	nameProp string

	mu      sync.Mutex
	regions []byte
}

func NewServer(a *app.App, hub *Hub, idProp, nameProp string) *Server {
	return &Server{app: a, hub: hub, idProp: idProp, nameProp: nameProp}
}

func (s *Server) dispatch(m Message) error {
	ev, err := m.Event()
	if err != nil {
		return err
	}
	if !s.app.Dispatch(ev) {
		return app.ErrStopped
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type measureInfo struct {
	Key   measure.Key `json:"key"`
	Label string      `json:"label"`
}

// BuildRoutes：API 路由，由主入口挂载到 API 前缀下
func (s *Server) BuildRoutes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWS)

	mux.HandleFunc("/measures", func(w http.ResponseWriter, r *http.Request) {
		snap, err := s.app.Snapshot(r.Context())
		if err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
			return
		}
		keys := make([]measureInfo, 0, len(measure.Keys))
		for _, k := range measure.Keys {
			keys = append(keys, measureInfo{Key: k, Label: measure.Label(k)})
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"keys":    keys,
			"active":  snap.Measure,
			"regions": s.app.Measures().Len(),
		})
	})

	mux.HandleFunc("/regions", func(w http.ResponseWriter, r *http.Request) {
		b, err := s.regionsJSON(r)
		if err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
			return
		}
		w.Header().Set("content-type", "application/geo+json; charset=utf-8")
		_, _ = w.Write(b)
	})

	mux.HandleFunc("/state", func(w http.ResponseWriter, r *http.Request) {
		snap, err := s.app.Snapshot(r.Context())
		if err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, snap)
	})

	mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var m Message
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessage)).Decode(&m); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		if err := s.dispatch(m); err != nil {
			code := http.StatusBadRequest
			if errors.Is(err, app.ErrStopped) {
				code = http.StatusServiceUnavailable
			}
			writeJSON(w, code, map[string]string{"error": err.Error()})
			return
		}
		logger.L().Debug("api_event", "type", m.Type)
		w.WriteHeader(http.StatusAccepted)
	})
	return mux
}

var errRegionsPending = errors.New("regions not loaded")

// regionsJSON：形状编码后缓存；索引建成后不再变化
func (s *Server) regionsJSON(r *http.Request) ([]byte, error) {
	s.mu.Lock()
	b := s.regions
	s.mu.Unlock()
	if b != nil {
		return b, nil
	}
	ix, err := s.app.Regions(r.Context())
	if err != nil {
		return nil, err
	}
	if ix == nil {
		return nil, errRegionsPending
	}
	b, err = source.EncodeShapes(ix.Shapes(), s.idProp, s.nameProp)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.regions = b
	s.mu.Unlock()
	return b, nil
}
