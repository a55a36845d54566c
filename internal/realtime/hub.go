package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wms-platform/slotting-service/internal/domain"
	"github.com/wms-platform/slotting-service/pkg/logging"
	"github.com/wms-platform/slotting-service/pkg/metrics"
)

// Realtime event names pushed to warehouse rooms
const (
	EventSpikeDetected = "replen:spike-detected"
	EventMoveCompleted = "replen:move-completed"
	EventCountdown     = "replen:countdown"
)

// Client control messages
const (
	msgJoinRoom  = "join-replen-room"
	msgLeaveRoom = "leave-replen-room"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WarehouseRoom returns the room name for a warehouse
func WarehouseRoom(warehouseID string) string {
	return "replen:warehouse:" + warehouseID
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	done chan struct{}

	mu    sync.Mutex
	rooms map[string]struct{}
}

func (c *client) join(room string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rooms[room] = struct{}{}
}

func (c *client) leave(room string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.rooms, room)
}

func (c *client) in(room string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.rooms[room]
	return ok
}

// Hub fans realtime events out to WebSocket clients grouped into warehouse
// rooms. All emits are fire and forget; a slow client drops frames rather
// than blocking the emitter.
type Hub struct {
	logger  *logging.Logger
	metrics *metrics.Metrics

	mu      sync.RWMutex
	clients map[string]*client
}

var _ domain.EventBroadcaster = (*Hub)(nil)

// NewHub creates a Hub
func NewHub(logger *logging.Logger, m *metrics.Metrics) *Hub {
	return &Hub{
		logger:  logger.WithComponent("realtime"),
		metrics: m,
		clients: make(map[string]*client),
	}
}

// frame is the wire format for pushed events
type frame struct {
	Event     string      `json:"event"`
	Room      string      `json:"room"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// controlMessage is the wire format for client room commands
type controlMessage struct {
	Type        string `json:"type"`
	WarehouseID string `json:"warehouseId"`
}

// ServeWS upgrades the request and runs the client pumps
func (h *Hub) ServeWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	cl := &client{
		id:    uuid.New().String(),
		conn:  conn,
		send:  make(chan []byte, 16),
		done:  make(chan struct{}),
		rooms: make(map[string]struct{}),
	}

	h.mu.Lock()
	h.clients[cl.id] = cl
	h.mu.Unlock()
	h.metrics.WebSocketConnections.Inc()

	go h.readPump(cl)
	go h.writePump(cl)
}

func (h *Hub) readPump(cl *client) {
	defer func() {
		h.mu.Lock()
		delete(h.clients, cl.id)
		h.mu.Unlock()
		h.metrics.WebSocketConnections.Dec()
		close(cl.done)
		cl.conn.Close()
	}()

	for {
		_, message, err := cl.conn.ReadMessage()
		if err != nil {
			return
		}
		h.handleMessage(cl, message)
	}
}

func (h *Hub) writePump(cl *client) {
	for {
		select {
		case message := <-cl.send:
			if err := cl.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-cl.done:
			return
		}
	}
}

func (h *Hub) handleMessage(cl *client, message []byte) {
	var msg controlMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		return
	}
	if msg.WarehouseID == "" {
		return
	}

	switch msg.Type {
	case msgJoinRoom:
		cl.join(WarehouseRoom(msg.WarehouseID))
	case msgLeaveRoom:
		cl.leave(WarehouseRoom(msg.WarehouseID))
	}
}

// Broadcast pushes an event to every client in a room
func (h *Hub) Broadcast(room, event string, data interface{}) {
	h.broadcast(room, event, data)
}

func (h *Hub) broadcast(room, event string, data interface{}) {
	payload, err := json.Marshal(frame{
		Event:     event,
		Room:      room,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		h.logger.WithError(err).Warn("Dropping realtime event, marshal failed", "event", event)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for _, cl := range h.clients {
		if !cl.in(room) {
			continue
		}
		select {
		case cl.send <- payload:
			delivered++
		default:
			// Slow consumer, drop the frame
		}
	}

	h.metrics.RecordWebSocketEvent(event)
	h.logger.Debug("Broadcast realtime event", "event", event, "room", room, "delivered", delivered)
}

// EmitSpikeDetected implements domain.EventBroadcaster
func (h *Hub) EmitSpikeDetected(warehouseID string, event *domain.SpikeDetectedEvent) {
	h.broadcast(WarehouseRoom(warehouseID), EventSpikeDetected, event)
}

// EmitMoveCompleted implements domain.EventBroadcaster
func (h *Hub) EmitMoveCompleted(warehouseID string, event *domain.MoveCompletedEvent) {
	h.broadcast(WarehouseRoom(warehouseID), EventMoveCompleted, event)
}

// EmitCountdown implements domain.EventBroadcaster
func (h *Hub) EmitCountdown(warehouseID string, payload domain.CountdownPayload) {
	h.broadcast(WarehouseRoom(warehouseID), EventCountdown, payload)
}
