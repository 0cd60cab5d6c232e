package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/eduard256/imgable/gallery/internal/viewer"
)

const (
	streamReadLimit    = 4096
	streamPongWait     = 60 * time.Second
	streamPingInterval = 30 * time.Second
	streamWriteWait    = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// TouchMessage is one touch event sent by the client.
type TouchMessage struct {
	// start, move, end, cancel or tap
	Type      string  `json:"type"`
	Target    string  `json:"target,omitempty"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	ScrollTop float64 `json:"scroll_top,omitempty"`
}

// StreamMessage is sent back after every touch message.
type StreamMessage struct {
	Type           string          `json:"type"`
	State          *ViewerResponse `json:"state,omitempty"`
	PreventDefault bool            `json:"prevent_default,omitempty"`
	Error          string          `json:"error,omitempty"`
}

// handleViewerStream handles GET /api/v1/viewer/ws. Each touch message is
// applied to the viewer and answered with the resulting state.
func (s *Server) handleViewerStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	log := s.logger.WithField("remote", r.RemoteAddr)
	log.Debug("touch stream connected")

	conn.SetReadLimit(streamReadLimit)
	conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go pingLoop(conn, done)

	stream := &touchStream{server: s}
	for {
		var msg TouchMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.WithError(err).Debug("touch stream closed")
			}
			// A cut sequence must not leave the viewer mid-gesture
			stream.abort()
			return
		}
		conn.SetReadDeadline(time.Now().Add(streamPongWait))

		reply := stream.apply(msg)
		conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
		if err := conn.WriteJSON(reply); err != nil {
			log.WithError(err).Debug("touch stream write failed")
			stream.abort()
			return
		}
	}
}

// touchStream is the touch state of one connection. The viewer is shared,
// so a connection only cancels a sequence it started itself.
type touchStream struct {
	server *Server
	// Sequence started by this connection, 0 when none
	seq uint64
}

func (t *touchStream) apply(msg TouchMessage) StreamMessage {
	c := t.server.app.Viewer()
	p := viewer.Point{X: msg.X, Y: msg.Y}
	reply := StreamMessage{Type: "state"}

	switch msg.Type {
	case "start":
		t.seq = c.TouchStart(viewer.Touch{
			Target:    viewer.ParseTarget(msg.Target),
			Point:     p,
			ScrollTop: msg.ScrollTop,
		})
	case "move":
		reply.PreventDefault = c.TouchMove(p)
	case "end":
		c.TouchEnd(p)
		t.seq = 0
	case "cancel":
		t.abort()
	case "tap":
		c.Tap(viewer.ParseTarget(msg.Target))
	default:
		return StreamMessage{Type: "error", Error: "unknown message type " + msg.Type}
	}

	state := t.server.viewerState()
	reply.State = &state
	return reply
}

// abort cancels the sequence this connection started, if still active.
func (t *touchStream) abort() {
	if t.seq != 0 {
		t.server.app.Viewer().CancelSequence(t.seq)
		t.seq = 0
	}
}

// pingLoop keeps the connection alive until done is closed.
func pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(streamPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
				return
			}
		}
	}
}
