package api

import (
	"sync"

	"choromap/internal/highlight"
	"choromap/internal/logger"
	"choromap/internal/measure"
	"choromap/internal/metrics"
	"choromap/internal/region"
)

// Hub：websocket 渲染端集合，实现 app.Renderer
// 背景：状态循环调用 Hub 的方法下发指令；Hub 同时缓存最近状态，新客户端接入时先收到一条 sync 消息
// 约束：方法不阻塞状态循环；发送队列满的客户端直接断开
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}

	styles      map[region.Handle]highlight.Style
	info        *highlight.Info
	suggestions []string
	cursor      int
	visible     bool
	query       string
	measure     measure.Key
	regions     int
	notices     []string
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		styles:  make(map[region.Handle]highlight.Style),
		cursor:  -1,
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	metrics.WSClients.Set(float64(len(h.clients)))
	for _, m := range h.syncLocked() {
		c.send <- m
	}
	logger.L().Debug("ws_client_join", "id", c.id, "clients", len(h.clients))
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(c)
}

func (h *Hub) dropLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	metrics.WSClients.Set(float64(len(h.clients)))
	logger.L().Debug("ws_client_leave", "id", c.id, "clients", len(h.clients))
}

// syncLocked：新客户端的初始消息，条数固定，不超过发送队列容量
func (h *Hub) syncLocked() []Message {
	styles := make(map[region.Handle]highlight.Style, len(h.styles))
	for k, v := range h.styles {
		styles[k] = v
	}
	out := []Message{
		{Type: TypeMeasure, Key: string(h.measure), Label: measure.Label(h.measure)},
		{Type: TypeSync, Styles: styles, Count: h.regions, Text: h.query},
	}
	if h.visible {
		cur := h.cursor
		out = append(out, Message{Type: TypeSuggestions, Names: append([]string(nil), h.suggestions...), Cursor: &cur})
	}
	if h.info != nil {
		i := *h.info
		out = append(out, Message{Type: TypeInfo, Region: &i})
	}
	for _, n := range h.notices {
		out = append(out, Message{Type: TypeNotice, Message: n})
	}
	return out
}

func (h *Hub) broadcastLocked(m Message) {
	for c := range h.clients {
		select {
		case c.send <- m:
		default:
			logger.L().Warn("ws_client_slow", "id", c.id)
			h.dropLocked(c)
		}
	}
}

func (h *Hub) SetStyle(hd region.Handle, s highlight.Style) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.styles[hd] = s
	h.broadcastLocked(Message{Type: TypeStyle, Handle: &hd, Style: &s})
}

func (h *Hub) BringToFront(hd region.Handle) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcastLocked(Message{Type: TypeFront, Handle: &hd})
}

func (h *Hub) FitBounds(b region.BBox) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcastLocked(Message{Type: TypeFit, Bounds: &b})
}

func (h *Hub) ShowInfo(i highlight.Info) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.info = &i
	h.broadcastLocked(Message{Type: TypeInfo, Region: &i})
}

func (h *Hub) ClearInfo() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.info = nil
	h.broadcastLocked(Message{Type: TypeInfoClear})
}

func (h *Hub) ShowSuggestions(names []string, cursor int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.suggestions = append(h.suggestions[:0], names...)
	h.cursor = cursor
	h.visible = true
	h.broadcastLocked(Message{Type: TypeSuggestions, Names: append([]string(nil), names...), Cursor: &cursor})
}

func (h *Hub) HideSuggestions() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.suggestions = h.suggestions[:0]
	h.cursor = -1
	h.visible = false
	h.broadcastLocked(Message{Type: TypeSuggestionsHide})
}

func (h *Hub) SetQuery(text string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.query = text
	h.broadcastLocked(Message{Type: TypeQuery, Text: text})
}

func (h *Hub) Notice(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.notices = append(h.notices, msg)
	h.broadcastLocked(Message{Type: TypeNotice, Message: msg})
}

func (h *Hub) RegionsReady(n int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.regions = n
	h.broadcastLocked(Message{Type: TypeRegionsReady, Count: n})
}

func (h *Hub) MeasureSelected(k measure.Key, label string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.measure = k
	h.broadcastLocked(Message{Type: TypeMeasure, Key: string(k), Label: label})
}

// SetInitialMeasure：启动时同步默认指标，不广播
func (h *Hub) SetInitialMeasure(k measure.Key) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.measure = k
}

// Clients：当前连接数
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// reply：只发给单个客户端；队列满时丢弃
func (h *Hub) reply(c *client, m Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.send <- m:
	default:
	}
}
