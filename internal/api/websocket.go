package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/gray-logic-autopilot/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-autopilot/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-autopilot/internal/session"
)

// Frame types exchanged over /api/v1/ws.
const (
	WSTypeSubscribe   = "subscribe"
	WSTypeUnsubscribe = "unsubscribe"
	WSTypePing        = "ping"
	WSTypePong        = "pong"
	WSTypeEvent       = "event"
	WSTypeResponse    = "response"
	WSTypeError       = "error"

	// wsQueueLen bounds frames waiting for a slow client.
	wsQueueLen = 64
)

// WSMessage is one frame in either direction.
type WSMessage struct {
	Type      string `json:"type"`
	ID        string `json:"id,omitempty"`
	EventType string `json:"event_type,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Payload   any    `json:"payload,omitempty"`
}

// WSSubscribePayload lists the broadcast channels a client wants.
type WSSubscribePayload struct {
	Channels []string `json:"channels"`
}

// inbound is WSMessage with the payload decoded for subscription frames.
type inbound struct {
	Type    string             `json:"type"`
	ID      string             `json:"id"`
	Payload WSSubscribePayload `json:"payload"`
}

// Hub fans session broadcasts out to connected WebSocket peers.
// It implements session.Broadcaster.
type Hub struct {
	cfg    config.WebSocketConfig
	logger *logging.Logger

	mu    sync.RWMutex
	peers map[*wsPeer]struct{}
}

// wsPeer is one connection. Frames are queued on out and written by a
// single writer goroutine; stop is closed exactly once when the peer leaves.
type wsPeer struct {
	conn *websocket.Conn
	out  chan []byte
	stop chan struct{}
	once sync.Once

	mu       sync.RWMutex
	channels map[string]bool
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// CORS middleware already filtered the origin.
	CheckOrigin: func(*http.Request) bool { return true },
}

// NewHub creates an empty hub.
func NewHub(cfg config.WebSocketConfig, logger *logging.Logger) *Hub {
	return &Hub{cfg: cfg, logger: logger, peers: make(map[*wsPeer]struct{})}
}

// Run waits for ctx and then drops every peer.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()

	h.mu.Lock()
	peers := h.peers
	h.peers = make(map[*wsPeer]struct{})
	h.mu.Unlock()

	for p := range peers {
		p.close()
	}
}

// ClientCount returns the number of connected peers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}

// Broadcast queues an event frame for every peer listening on channel.
// Peers with a full queue miss the frame.
func (h *Hub) Broadcast(channel string, payload any) {
	frame, err := encodeFrame(WSMessage{Type: WSTypeEvent, EventType: channel, Payload: payload})
	if err != nil {
		h.logger.Error("encoding websocket event", "channel", channel, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for p := range h.peers {
		if p.listening(channel) {
			p.queue(frame)
		}
	}
}

func (h *Hub) add(p *wsPeer) {
	h.mu.Lock()
	h.peers[p] = struct{}{}
	n := len(h.peers)
	h.mu.Unlock()
	h.logger.Debug("websocket peer joined", "peers", n)
}

func (h *Hub) remove(p *wsPeer) {
	h.mu.Lock()
	delete(h.peers, p)
	n := len(h.peers)
	h.mu.Unlock()
	p.close()
	h.logger.Debug("websocket peer left", "peers", n)
}

// encodeFrame stamps msg and marshals it.
func encodeFrame(msg WSMessage) ([]byte, error) {
	msg.Timestamp = time.Now().UTC().Format(time.RFC3339)
	return json.Marshal(msg)
}

// handleWebSocket upgrades the request. Peers start out listening on the
// autopilot state channel and get the current status as their first frame.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	p := &wsPeer{
		conn:     conn,
		out:      make(chan []byte, wsQueueLen),
		stop:     make(chan struct{}),
		channels: map[string]bool{session.StateChannel: true},
	}
	s.hub.add(p)

	if frame, err := encodeFrame(WSMessage{
		Type:      WSTypeEvent,
		EventType: session.StateChannel,
		Payload:   s.session.Status(),
	}); err == nil {
		p.queue(frame)
	}

	go p.writeLoop(s.wsCfg)
	go s.readLoop(p)
}

func (s *Server) readLoop(p *wsPeer) {
	defer s.hub.remove(p)

	idle := time.Duration(s.wsCfg.PingInterval+s.wsCfg.PongTimeout) * time.Second
	extend := func(string) error { return p.conn.SetReadDeadline(time.Now().Add(idle)) }

	p.conn.SetReadLimit(int64(s.wsCfg.MaxMessageSize))
	p.conn.SetPongHandler(extend)
	//nolint:errcheck // a failed deadline surfaces on the next read
	extend("")

	for {
		_, data, err := p.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read failed", "error", err)
			}
			return
		}
		//nolint:errcheck // a failed deadline surfaces on the next read
		extend("")
		p.handle(data)
	}
}

func (p *wsPeer) writeLoop(cfg config.WebSocketConfig) {
	ping := time.NewTicker(time.Duration(cfg.PingInterval) * time.Second)
	defer ping.Stop()
	defer p.conn.Close()

	grace := time.Duration(cfg.PongTimeout) * time.Second
	send := func(kind int, data []byte) error {
		//nolint:errcheck // write error reported by WriteMessage
		p.conn.SetWriteDeadline(time.Now().Add(grace))
		return p.conn.WriteMessage(kind, data)
	}

	for {
		select {
		case <-p.stop:
			//nolint:errcheck // peer is going away regardless
			send(websocket.CloseMessage, nil)
			return
		case frame := <-p.out:
			if send(websocket.TextMessage, frame) != nil {
				return
			}
		case <-ping.C:
			if send(websocket.PingMessage, nil) != nil {
				return
			}
		}
	}
}

func (p *wsPeer) handle(data []byte) {
	var in inbound
	if err := json.Unmarshal(data, &in); err != nil {
		p.reply(WSMessage{Type: WSTypeError, Payload: map[string]string{"message": "invalid JSON message"}})
		return
	}

	switch in.Type {
	case WSTypeSubscribe, WSTypeUnsubscribe:
		on := in.Type == WSTypeSubscribe
		p.mu.Lock()
		for _, ch := range in.Payload.Channels {
			if on {
				p.channels[ch] = true
			} else {
				delete(p.channels, ch)
			}
		}
		p.mu.Unlock()
		p.reply(WSMessage{Type: WSTypeResponse, ID: in.ID, Payload: map[string]any{in.Type + "d": in.Payload.Channels}})
	case WSTypePing:
		p.reply(WSMessage{Type: WSTypePong, ID: in.ID})
	default:
		p.reply(WSMessage{Type: WSTypeError, ID: in.ID, Payload: map[string]string{"message": "unknown message type: " + in.Type}})
	}
}

func (p *wsPeer) reply(msg WSMessage) {
	if frame, err := encodeFrame(msg); err == nil {
		p.queue(frame)
	}
}

func (p *wsPeer) listening(channel string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.channels[channel]
}

// queue never blocks; frames for a full or departed peer are dropped.
func (p *wsPeer) queue(frame []byte) {
	select {
	case <-p.stop:
	case p.out <- frame:
	default:
	}
}

func (p *wsPeer) close() {
	p.once.Do(func() { close(p.stop) })
}
