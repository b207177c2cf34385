package main

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// hubWriteWait bounds each write so a stalled client cannot hold up a run
var hubWriteWait = 5 * time.Second

// Hub fans run events out to connected websocket clients
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]struct{})}
}

func (h *Hub) Add(ws *websocket.Conn) {
	h.mu.Lock()
	h.clients[ws] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) Remove(ws *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, ws)
	h.mu.Unlock()
	_ = ws.Close()
}

func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// BroadcastJSON sends v to every client, dropping clients that fail
func (h *Hub) BroadcastJSON(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for ws := range h.clients {
		_ = ws.SetWriteDeadline(time.Now().Add(hubWriteWait))
		if err := ws.WriteMessage(websocket.TextMessage, b); err != nil {
			log.Printf("[ws] dropping client: %v", err)
			_ = ws.Close()
			delete(h.clients, ws)
		}
	}
}

// Forward broadcasts every event until events is closed
func (h *Hub) Forward(events <-chan Event) {
	for ev := range events {
		h.BroadcastJSON(ev)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler upgrades the request and keeps the client registered until it
// disconnects
func WSHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}

		_ = ws.SetWriteDeadline(time.Now().Add(hubWriteWait))
		_ = ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"welcome"}`))

		hub.Add(ws)
		log.Printf("[ws] client connected (%d)", hub.Count())

		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				break
			}
		}

		hub.Remove(ws)
		log.Println("[ws] client disconnected")
	}
}
