package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	sendBuffer     = 16
	controlReserve = 4
)

// Message types exchanged over the websocket.
const (
	TypeLayout  = "layout"
	TypeFrame   = "frame"
	TypeStarted = "started"
	TypeStopped = "stopped"
	TypeStart   = "start"
	TypeStop    = "stop"
	TypeError   = "error"
)

// Msg is one websocket message. Field frames fill Step and Field; layout
// messages fill the position lists.
type Msg struct {
	Type       string    `json:"type"`
	Step       int       `json:"step,omitempty"`
	Field      []float64 `json:"field,omitempty"`
	Probes     []int     `json:"probes,omitempty"`
	Sources    []int     `json:"sources,omitempty"`
	Boundaries []int     `json:"boundaries,omitempty"`
	Content    string    `json:"content,omitempty"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans engine output out to websocket clients. It implements
// fdtd.Display; a client that cannot keep up misses frames.
type Hub struct {
	upgrader websocket.Upgrader
	metrics  *Metrics
	onMsg    func(Msg)

	mu      sync.Mutex
	clients map[*client]struct{}
	layout  Msg
}

func NewHub(metrics *Metrics, onMsg func(Msg)) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		metrics: metrics,
		onMsg:   onMsg,
		clients: make(map[*client]struct{}),
		layout:  Msg{Type: TypeLayout},
	}
}

// ServeWS upgrades the request and registers the connection.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	if layout, err := json.Marshal(h.layout); err == nil {
		c.send <- layout
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.metrics.clients.Inc()
	log.WithFields(log.Fields{"remote": r.RemoteAddr}).Info("websocket client connected")

	go h.writePump(c)
	go h.readPump(c)
}

func (h *Hub) readPump(c *client) {
	defer h.unregister(c)
	for {
		var msg Msg
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).Warn("websocket read")
			}
			return
		}
		if h.onMsg != nil {
			h.onMsg(msg)
		}
	}
}

func (h *Hub) writePump(c *client) {
	defer c.conn.Close()
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.WithError(err).Debug("websocket write")
			return
		}
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
		h.metrics.clients.Dec()
	}
	h.mu.Unlock()
}

// Clients reports the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast queues msg to every client. Frames leave controlReserve slots
// free so that layout and lifecycle messages are never dropped behind them.
func (h *Hub) Broadcast(msg Msg) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.WithError(err).Error("encode websocket message")
		return
	}

	frame := msg.Type == TypeFrame
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if frame && len(c.send) >= cap(c.send)-controlReserve {
			h.metrics.framesDropped.Inc()
			continue
		}
		select {
		case c.send <- data:
			if frame {
				h.metrics.framesSent.Inc()
			}
		default:
			log.WithField("type", msg.Type).Warn("websocket client queue full")
		}
	}
}

// Close disconnects all clients.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
		h.metrics.clients.Dec()
	}
}

func (h *Hub) Activate() {
	h.mu.Lock()
	h.layout = Msg{Type: TypeLayout}
	h.mu.Unlock()
	h.Broadcast(Msg{Type: TypeStarted})
}

func (h *Hub) DrawProbes(positions []int) {
	h.mu.Lock()
	h.layout.Probes = append(h.layout.Probes, positions...)
	h.mu.Unlock()
}

func (h *Hub) DrawSources(positions []int) {
	h.mu.Lock()
	h.layout.Sources = append(h.layout.Sources, positions...)
	h.mu.Unlock()
}

func (h *Hub) DrawBoundary(index int) {
	h.mu.Lock()
	h.layout.Boundaries = append(h.layout.Boundaries, index)
	h.mu.Unlock()
}

// UpdateData sends the layout ahead of the first frame of a run, then the frame.
func (h *Hub) UpdateData(field []float64, step int) {
	if step == 0 {
		h.mu.Lock()
		layout := h.layout
		h.mu.Unlock()
		h.Broadcast(layout)
	}
	h.Broadcast(Msg{Type: TypeFrame, Step: step, Field: field})
}

func (h *Hub) Stop() {
	h.Broadcast(Msg{Type: TypeStopped})
}
