package server

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/entanglegraph/entanglegraph/internal/app/dto"
	"github.com/entanglegraph/entanglegraph/internal/app/services"
	inframetrics "github.com/entanglegraph/entanglegraph/internal/infrastructure/metrics"
	"github.com/entanglegraph/entanglegraph/pkg/metrics"
)

const (
	// writeWait bounds a single websocket write.
	writeWait = 10 * time.Second

	// pongWait is how long a client may stay silent before it is dropped.
	pongWait = 60 * time.Second

	// pingPeriod must be shorter than pongWait so pings land in time.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize caps inbound frames; clients only send pongs and closes.
	maxMessageSize = 512

	// clientSendBuffer is the per-client event backlog. A client that falls
	// further behind starts losing events instead of stalling the hub.
	clientSendBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one websocket subscriber. A non-empty Graph narrows its feed to
// that instance; an empty Graph receives events from every graph.
type Client struct {
	ID    string
	Graph string

	hub  *Hub
	conn *websocket.Conn
	send chan dto.ObservationEvent
}

// Hub fans observation events out to websocket clients.
// PRINCIPLES:
// - Single owner: only the Run goroutine touches the client set
// - Never block the stream: full client buffers drop, full hub buffer drops
type Hub struct {
	logger *slog.Logger

	register   chan *Client
	unregister chan *Client
	broadcast  chan services.Event
	clients    map[*Client]struct{}

	done     chan struct{}
	stopOnce sync.Once
}

// NewHub creates a hub. Run must be started before clients attach.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger:     logger,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan services.Event, 256),
		clients:    make(map[*Client]struct{}),
		done:       make(chan struct{}),
	}
}

// Run owns the client set; all membership changes and broadcasts flow
// through the hub's channels. Returns when Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = struct{}{}
			metrics.StreamClients.Inc()
			h.logger.Debug("stream client connected", "client", client.ID, "graph", client.Graph)

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				metrics.StreamClients.Dec()
				h.logger.Debug("stream client disconnected", "client", client.ID)
			}

		case e := <-h.broadcast:
			ev := dto.NewObservationEvent(e.Graph, e.Observation)
			for client := range h.clients {
				if client.Graph != "" && client.Graph != e.Graph {
					continue
				}
				select {
				case client.send <- ev:
				default:
					h.dropEvent()
				}
			}

		case <-h.done:
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
				metrics.StreamClients.Dec()
			}
			return
		}
	}
}

// Stop disconnects every client and ends the Run loop. Safe to call more
// than once.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// HandleObservation implements services.ObservationHandler, bridging the
// stream dispatcher into the hub. It never blocks: if the hub cannot keep
// up the event is dropped and counted.
func (h *Hub) HandleObservation(e services.Event) error {
	select {
	case <-h.done:
		return nil
	default:
	}
	select {
	case h.broadcast <- e:
	default:
		h.dropEvent()
	}
	return nil
}

func (h *Hub) dropEvent() {
	inframetrics.AddStreamDropped(1)
	metrics.StreamDroppedTotal.Inc()
}

// ServeWS upgrades the request and attaches the client to the hub. The
// graph query parameter narrows the subscription to one instance.
func (h *Hub) ServeWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := &Client{
		ID:    uuid.NewString(),
		Graph: c.Query("graph"),
		hub:   h,
		conn:  conn,
		send:  make(chan dto.ObservationEvent, clientSendBuffer),
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// writePump pushes events and keepalive pings to the peer. It exits when the
// hub closes the send channel or a write fails.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(ev); err != nil {
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

// readPump discards inbound frames and watches for disconnects. Pongs reset
// the read deadline; anything else ending the read tears the client down.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
