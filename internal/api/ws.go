package api

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"choromap/internal/logger"

	"github.com/gorilla/websocket"
)

const (
	sendQueue  = 256
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	maxMessage = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// 渲染端与服务同源部署；跨域预览环境由反向代理控制
	CheckOrigin: func(r *http.Request) bool { return true },
}

var clientSeq atomic.Int64

type client struct {
	id   string
	conn *websocket.Conn
	send chan Message
}

// serveWS：升级连接并启动读写协程；读到的消息转成事件投递到状态循环
func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.L().Debug("ws_upgrade_error", "err", err)
		return
	}
	c := &client{
		id:   strconv.FormatInt(clientSeq.Add(1), 10),
		conn: conn,
		send: make(chan Message, sendQueue),
	}
	s.hub.register(c)
	go c.writePump()
	go s.readPump(c)
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case m, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(m); err != nil {
				logger.L().Debug("ws_write_error", "id", c.id, "err", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) readPump(c *client) {
	defer func() {
		s.hub.unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessage)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		var m Message
		if err := c.conn.ReadJSON(&m); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.L().Debug("ws_read_error", "id", c.id, "err", err)
			}
			return
		}
		if err := s.dispatch(m); err != nil {
			s.hub.reply(c, Message{Type: TypeError, Message: err.Error()})
		}
	}
}
