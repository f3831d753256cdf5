package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/timera-ai/timera-api/common/logger"
	"github.com/timera-ai/timera-api/service"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WatchJobs pushes job status transitions over a websocket. Polling the list
// endpoints remains the baseline; this just saves the poll loop for clients
// that keep a connection open.
func WatchJobs(c *gin.Context) {
	userId := c.GetInt("id")
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Errorf(c.Request.Context(), "websocket upgrade failed: %s", err.Error())
		return
	}
	defer conn.Close()

	updates, cancel := service.SubscribeJobUpdates(userId)
	defer cancel()

	// reader goroutine only surfaces disconnects
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	pingTicker := time.NewTicker(30 * time.Second)
	defer pingTicker.Stop()

	for {
		select {
		case update := <-updates:
			if err := conn.WriteJSON(update); err != nil {
				return
			}
		case <-pingTicker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
