package server

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"stock-watcher/src/models"
)

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// handleWebsockets is the main Hub loop
func (s *APIServer) handleWebsockets() {
	for {
		select {
		case client := <-s.register:
			s.clientsMutex.Lock()
			s.clients[client] = struct{}{}
			s.clientsMutex.Unlock()

			// Send initial state on connect
			s.stateMutex.RLock()
			if s.latestState != nil {
				client.send <- s.latestState
			}
			s.stateMutex.RUnlock()

		case client := <-s.unregister:
			s.clientsMutex.Lock()
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				close(client.send)
			}
			s.clientsMutex.Unlock()

		case message := <-s.broadcast:
			// Update state and broadcast
			s.stateMutex.Lock()
			s.latestState = message
			s.stateMutex.Unlock()

			s.clientsMutex.Lock()
			for client := range s.clients {
				select {
				case client.send <- message:
					// Message sent successfully
				default:
					// Client too slow, disconnect to prevent Hub blocking
					delete(s.clients, client)
					close(client.send)
				}
			}
			s.clientsMutex.Unlock()
		}
	}
}

// -----------------------------------------------------------------------------
// Data Exchange Interface Implementation
// -----------------------------------------------------------------------------

// UpdateAllDatas merges a pipeline pass into the cached state without pushing
// to clients. Symbols absent from the payload keep their previous values.
func (s *APIServer) UpdateAllDatas(payload *models.MLatestData) {
	if payload == nil {
		return
	}

	s.stateMutex.Lock()
	defer s.stateMutex.Unlock()

	if s.latestState.Bars == nil {
		s.latestState.Bars = make(map[string]models.MBar)
	}
	for sym, bar := range payload.Bars {
		s.latestState.Bars[sym] = bar
	}

	if s.latestState.Signals == nil {
		s.latestState.Signals = make(map[string]models.MSignal)
	}
	for sym, sig := range payload.Signals {
		s.latestState.Signals[sym] = sig
	}

	if s.latestState.Backtests == nil {
		s.latestState.Backtests = make(map[string]models.MBacktestSummary)
	}
	for sym, summary := range payload.Backtests {
		s.latestState.Backtests[sym] = summary
	}

	s.latestState.Timestamp = payload.Timestamp
	s.latestState.ProcessingMetrics = payload.ProcessingMetrics
	s.latestState.Type = "UPDATE"
}

// -----------------------------------------------------------------------------

// Broadcast queues a full state snapshot for the Hub loop. The payload must
// be complete; the Hub replaces the cached state with it.
func (s *APIServer) Broadcast(payload *models.MLatestData) {
	if payload == nil {
		return
	}
	payload.Type = "UPDATE"
	s.broadcast <- payload
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *APIServer) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := &Client{
		hub:  s,
		conn: conn,
		// Buffered channel to prevent blocking the Hub loop
		send: make(chan interface{}, 256),
	}

	s.register <- client

	go client.writePump()
	go client.readPump()
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

func (s *APIServer) HandleClientMessage(client *Client, message []byte) {
	var cmd models.MSubscribeCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		s.Logger.Info("Failed to parse client command: %v, disconnecting client", err)
		client.conn.Close()
		return
	}

	if cmd.Command != "subscribe" {
		return
	}

	s.stateMutex.RLock()
	response := s.filteredSnapshot(cmd.Symbols)
	s.stateMutex.RUnlock()

	// Use select to avoid blocking if client's send buffer is full
	select {
	case client.send <- response:
	default:
	}
}

// -----------------------------------------------------------------------------
// Response Filtering
// -----------------------------------------------------------------------------

// filteredSnapshot returns the current state limited to the requested symbols.
// An empty symbol list means everything. Caller holds stateMutex.
func (s *APIServer) filteredSnapshot(symbols []string) *models.MLatestData {
	if len(symbols) == 0 {
		snapshot := *s.latestState
		snapshot.Type = "INITIAL"
		return &snapshot
	}

	filtered := &models.MLatestData{
		Type:              "INITIAL",
		Bars:              make(map[string]models.MBar),
		Signals:           make(map[string]models.MSignal),
		Backtests:         make(map[string]models.MBacktestSummary),
		Timestamp:         s.latestState.Timestamp,
		ProcessingMetrics: s.latestState.ProcessingMetrics,
	}

	for _, sym := range symbols {
		if bar, ok := s.latestState.Bars[sym]; ok {
			filtered.Bars[sym] = bar
		}
		if sig, ok := s.latestState.Signals[sym]; ok {
			filtered.Signals[sym] = sig
		}
		if summary, ok := s.latestState.Backtests[sym]; ok {
			filtered.Backtests[sym] = summary
		}
	}

	return filtered
}
