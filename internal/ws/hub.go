package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

const (
	MessageState    = "state"
	MessageTick     = "tick"
	MessageFinished = "finished"
)

type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub fans messages out to the websocket clients watching an exam.
type Hub struct {
	mu    sync.RWMutex
	exams map[string]map[*websocket.Conn]bool
}

func NewHub() *Hub {
	return &Hub{
		exams: make(map[string]map[*websocket.Conn]bool),
	}
}

func (h *Hub) AddConnection(examID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.exams[examID] == nil {
		h.exams[examID] = make(map[*websocket.Conn]bool)
	}
	h.exams[examID][conn] = true
	log.Printf("ws: client connected to exam %s (total: %d)", examID, len(h.exams[examID]))
}

func (h *Hub) RemoveConnection(examID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conns, ok := h.exams[examID]; ok {
		delete(conns, conn)
		conn.Close()
		if len(conns) == 0 {
			delete(h.exams, examID)
		}
		log.Printf("ws: client disconnected from exam %s", examID)
	}
}

// Broadcast writes message to every client of examID, dropping clients
// whose write fails.
func (h *Hub) Broadcast(examID string, message WSMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.exams[examID]
	if !ok {
		return
	}

	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("ws: marshal error: %v", err)
		return
	}

	for conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("ws: write error: %v", err)
			conn.Close()
			delete(conns, conn)
		}
	}
	if len(conns) == 0 {
		delete(h.exams, examID)
	}
}

func (h *Hub) Clients(examID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.exams[examID])
}
