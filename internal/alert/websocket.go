package alert

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/spoofwatch/internal/detect"
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // dashboard is served same-origin or behind a trusted proxy
	},
}

// wsAlert is the JSON frame broadcast to every connected dashboard
// client.
type wsAlert struct {
	DeviceID          string    `json:"device_id"`
	Time              time.Time `json:"time"`
	SpoofingIndicator float64   `json:"spoofing_indicator"`
	Method            string    `json:"method"`
}

// WebSocketSink broadcasts every alert as JSON to all connected
// websocket clients. Register its HandleUpgrade method on an HTTP
// route to let dashboards subscribe.
type WebSocketSink struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	logger  *log.Logger
}

func NewWebSocketSink(logger *log.Logger) *WebSocketSink {
	if logger == nil {
		logger = log.Default()
	}
	return &WebSocketSink{clients: make(map[*websocket.Conn]struct{}), logger: logger}
}

// HandleUpgrade upgrades an incoming HTTP request to a websocket
// connection and registers it for broadcast. It blocks, reading (and
// discarding) frames until the client disconnects, at which point the
// connection is deregistered.
func (s *WebSocketSink) HandleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("alert: websocket upgrade error: %v", err)
		return
	}

	s.mu.Lock()
	s.clients[conn] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *WebSocketSink) Alert(a detect.Alert) {
	msg := wsAlert{
		DeviceID:          a.DeviceID,
		Time:              a.Time,
		SpoofingIndicator: a.SpoofingIndicator,
		Method:            methodName(a.Method),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.clients {
		if err := conn.WriteJSON(msg); err != nil {
			s.logger.Printf("alert: websocket write error: %v", err)
			conn.Close()
			delete(s.clients, conn)
		}
	}
}
