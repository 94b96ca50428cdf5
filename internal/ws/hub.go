// Package ws pushes import-job progress to connected browsers so the
// "loading" state stays live while the chunked build runs.
package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/dagingaa/bank-transaction-review/internal/jobs"
)

// Hub fans job updates out to every connected websocket client.
type Hub struct {
	mu       sync.Mutex
	log      zerolog.Logger
	clients  map[*websocket.Conn]bool
	upgrader websocket.Upgrader
}

// NewHub creates a hub with no connected clients.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		log:     log,
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The API already answers CORS for the single-user UI.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// HandleWS upgrades the request and keeps the connection registered until
// the client goes away. Clients only listen; inbound messages are drained
// and dropped.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	count := len(h.clients)
	h.mu.Unlock()
	h.log.Info().Int("clients", count).Msg("Websocket client connected")

	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// BroadcastJobUpdate sends a progress snapshot of the job to all clients.
func (h *Hub) BroadcastJobUpdate(job *jobs.ImportJob) {
	update := map[string]interface{}{
		"type":      "job_update",
		"job_id":    job.JobID,
		"status":    job.Status,
		"processed": job.Processed,
		"total":     job.Total,
		"timestamp": time.Now().Format(time.RFC3339),
	}
	if job.Status == jobs.JobStatusFailed && job.Error != "" {
		update["error"] = job.Error
	}

	payload, err := json.Marshal(update)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to marshal job update")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.log.Warn().Err(err).Msg("Dropping unresponsive websocket client")
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[conn] {
		delete(h.clients, conn)
		conn.Close()
		h.log.Info().Int("clients", len(h.clients)).Msg("Websocket client disconnected")
	}
}
