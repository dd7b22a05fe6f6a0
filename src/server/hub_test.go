package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-watcher/src/logger"
	"stock-watcher/src/models"
	"stock-watcher/src/signal"
)

// -----------------------------------------------------------------------------

func newTestServer() *APIServer {
	cfg := &models.MConfig{
		Name:     "test",
		Host:     "127.0.0.1",
		Port:     0,
		LogLevel: "ERROR",
	}
	facade := signal.NewSignalFacade(models.MPipelineConfig{PeriodMinutes: 15}, signal.NewLinearScorer(), nil)
	return NewAPIServer(cfg, facade, nil, nil, logger.NewLogger("ERROR", "test"))
}

// -----------------------------------------------------------------------------

func TestHubClientCount(t *testing.T) {
	srv := newTestServer()
	go srv.handleWebsockets()

	c1 := &Client{hub: srv, send: make(chan interface{}, 1)}
	srv.register <- c1
	// Initial state delivery means the hub processed the registration
	<-c1.send
	assert.Equal(t, 1, srv.ClientCount())

	c2 := &Client{hub: srv, send: make(chan interface{}, 1)}
	srv.register <- c2
	<-c2.send
	assert.Equal(t, 2, srv.ClientCount())

	srv.unregister <- c1
	require.Eventually(t, func() bool { return srv.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)

	_, open := <-c1.send
	assert.False(t, open)
}

// -----------------------------------------------------------------------------

func TestHubBroadcastPrunesSlowClients(t *testing.T) {
	srv := newTestServer()
	go srv.handleWebsockets()

	fast := &Client{hub: srv, send: make(chan interface{}, 4)}
	srv.register <- fast
	<-fast.send

	slow := &Client{hub: srv, send: make(chan interface{}, 1)}
	srv.register <- slow
	<-slow.send
	// Fill the slow client's buffer so the next broadcast cannot be queued
	slow.send <- "stuck"

	payload := &models.MLatestData{
		Bars:      map[string]models.MBar{"AAPL": {Symbol: "AAPL", Close: 101}},
		Signals:   map[string]models.MSignal{},
		Backtests: map[string]models.MBacktestSummary{},
		Timestamp: 42,
	}
	srv.Broadcast(payload)

	got := <-fast.send
	state, ok := got.(*models.MLatestData)
	require.True(t, ok)
	assert.Equal(t, "UPDATE", state.Type)
	assert.Equal(t, int64(42), state.Timestamp)

	require.Eventually(t, func() bool { return srv.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)
}
