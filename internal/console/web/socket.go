package web

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"gradedesk/internal/console/view"
	"gradedesk/pkg/utils/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = pongWait * 9 / 10
)

// Message types sent on the socket.
const (
	MessageSnapshot = "snapshot"
	MessageUpdate   = "update"
	MessageResync   = "resync"
)

// SocketMessage is one frame of the panel stream. A client starts from the
// snapshot and applies updates whose seq is newer. On resync it reconnects.
type SocketMessage struct {
	Type   string                     `json:"type"`
	Seq    uint64                     `json:"seq"`
	Panels map[view.Target]view.Panel `json:"panels,omitempty"`
	Update *view.Update               `json:"update,omitempty"`
}

func (s *Server) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
}

// checkOrigin accepts same-host origins and, with CORS enabled, the configured ones.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err == nil && strings.EqualFold(u.Host, r.Host) {
		return true
	}
	return s.cfg.CORS.Enabled && isOriginAllowed(origin, s.cfg.CORS.AllowedOrigins)
}

func (s *Server) socket(c *gin.Context) {
	ctx := c.Request.Context()
	conn, err := s.upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn(ctx, "websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	updates, cancel := s.board.Subscribe(s.cfg.SocketBuffer)
	defer cancel()

	panels, seq := s.board.Snapshot()
	if err := writeJSON(conn, SocketMessage{Type: MessageSnapshot, Seq: seq, Panels: panels}); err != nil {
		logger.Debug(ctx, "websocket snapshot write failed", zap.Error(err))
		return
	}
	logger.Debug(ctx, "websocket connected", zap.Uint64("seq", seq))

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(1024)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					logger.Debug(ctx, "websocket read error", zap.Error(err))
				}
				return
			}
		}
	}()

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case u, ok := <-updates:
			if !ok {
				_ = writeJSON(conn, SocketMessage{Type: MessageResync})
				return
			}
			if u.Seq <= seq {
				continue
			}
			if err := writeJSON(conn, SocketMessage{Type: MessageUpdate, Seq: u.Seq, Update: &u}); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-closed:
			return
		case <-s.base.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			return
		}
	}
}

func writeJSON(conn *websocket.Conn, msg SocketMessage) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}
