package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"beat-chaser/internal/game"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const wsWriteTimeout = 5 * time.Second

type wsMessage struct {
	Type      string    `json:"type"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// wsClient serializes writes; gorilla connections allow one writer at a time.
type wsClient struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsClient) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// wsHub groups websocket subscribers by session and is the game.Notifier
// for live clients.
type wsHub struct {
	mu     sync.Mutex
	groups map[string]map[*wsClient]struct{}
}

func newWSHub() *wsHub {
	return &wsHub{
		groups: make(map[string]map[*wsClient]struct{}),
	}
}

func (h *wsHub) Add(sessionID string, client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[sessionID]
	if group == nil {
		group = make(map[*wsClient]struct{})
		h.groups[sessionID] = group
	}
	group[client] = struct{}{}
}

func (h *wsHub) Remove(sessionID string, client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[sessionID]
	if group == nil {
		return
	}
	delete(group, client)
	_ = client.conn.Close()
	if len(group) == 0 {
		delete(h.groups, sessionID)
	}
}

func (h *wsHub) Count(sessionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.groups[sessionID])
}

func (h *wsHub) Send(client *wsClient, message wsMessage) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return client.write(data)
}

func (h *wsHub) Broadcast(sessionID string, message wsMessage) error {
	h.mu.Lock()
	group := h.groups[sessionID]
	clients := make([]*wsClient, 0, len(group))
	for client := range group {
		clients = append(clients, client)
	}
	h.mu.Unlock()

	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	for _, client := range clients {
		if err := client.write(data); err != nil {
			h.Remove(sessionID, client)
		}
	}
	return nil
}

func (h *wsHub) Publish(topic, eventType string, payload any) error {
	sessionID, ok := game.SessionIDFromTopic(topic)
	if !ok {
		return nil
	}
	return h.Broadcast(sessionID, wsMessage{
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	})
}

func (h *wsHub) CloseAll() {
	h.mu.Lock()
	groups := h.groups
	h.groups = make(map[string]map[*wsClient]struct{})
	h.mu.Unlock()
	for _, group := range groups {
		for client := range group {
			_ = client.conn.Close()
		}
	}
}

func (s *Server) handleWebsocket(c *gin.Context) {
	sessionID, ok := bindSession(c)
	if !ok {
		return
	}
	snapshot, err := s.engine.Snapshot(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	log.Printf("ws connected session_id=%s remote=%s", sessionID, c.Request.RemoteAddr)
	client := &wsClient{conn: conn}
	s.ws.Add(sessionID, client)
	_ = s.ws.Send(client, wsMessage{
		Type:      "snapshot",
		Payload:   newSnapshotView(snapshot),
		Timestamp: time.Now().UTC(),
	})
	go s.readWS(sessionID, client)
}

func (s *Server) readWS(sessionID string, client *wsClient) {
	defer s.ws.Remove(sessionID, client)
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			log.Printf("ws disconnected session_id=%s error=%v", sessionID, err)
			return
		}
	}
}
