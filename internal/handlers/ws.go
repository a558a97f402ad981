package handlers

import (
	"log"
	"net/http"

	"github.com/atenciaj/Vib-Test/internal/services"
	"github.com/atenciaj/Vib-Test/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	hub     *ws.Hub
	manager *services.ExamManager
}

func NewWSHandler(hub *ws.Hub, manager *services.ExamManager) *WSHandler {
	return &WSHandler{hub: hub, manager: manager}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleWebSocket godoc
// @Summary      WebSocket connection for exam updates
// @Description  Receive exam state changes and countdown ticks in real time
// @Tags         websocket
// @Param        id path string true "Exam ID"
// @Router       /ws/exams/{id} [get]
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	examID := c.Param("id")
	session, err := h.manager.Get(examID)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}

	h.hub.AddConnection(examID, conn)
	defer h.hub.RemoveConnection(examID, conn)

	h.hub.Broadcast(examID, ws.WSMessage{Type: ws.MessageState, Data: newExamView(session.Snapshot())})

	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			break
		}
	}
}
