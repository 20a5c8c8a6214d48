package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/cpatton716/collectors-catalog/configs"
	"github.com/cpatton716/collectors-catalog/pkg/types"
)

func newTestHub() *Hub {
	cfg := &configs.Config{}
	cfg.WebSocket.RateLimit = 1
	cfg.WebSocket.RateBurst = 3
	cfg.Features.AllowCrossOrigin = true
	return NewHub(cfg)
}

func dialTestHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/ws/live", func(c *gin.Context) {
		c.Set("profile", types.Profile{ID: "p1", Username: "watcher-1a2b3c4d"})
		hub.HandleLive(c)
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/live"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool {
		hub.mu.Lock()
		defer hub.mu.Unlock()
		return len(hub.clients) == 1
	}, time.Second, 10*time.Millisecond, "client never registered")

	return conn
}

func TestHubBroadcastsBidEvents(t *testing.T) {
	hub := newTestHub()
	conn := dialTestHub(t, hub)

	hub.BidAccepted(types.Bid{ID: "b1", AuctionID: "a1", BidderID: "p2", Amount: 7500})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var event Event
	require.NoError(t, json.Unmarshal(raw, &event))
	require.Equal(t, "bid", event.Type)

	data, ok := event.Data.(map[string]any)
	require.True(t, ok)
	require.Equal(t, "b1", data["id"])
	require.EqualValues(t, 7500, data["amount"])
}

func TestHubBroadcastsSaleAndAuctionEnd(t *testing.T) {
	hub := newTestHub()
	conn := dialTestHub(t, hub)

	hub.ItemSold(types.Transaction{ID: "t1", ItemType: types.ItemListing, ItemID: "l1", Price: 350000})
	hub.AuctionEnded("a1", types.AuctionEndedUnsold)

	conn.SetReadDeadline(time.Now().Add(time.Second))

	var sale Event
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &sale))
	require.Equal(t, "sale", sale.Type)

	var ended Event
	_, raw, err = conn.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &ended))
	require.Equal(t, "auction_end", ended.Type)
}

func TestHubRemovesClientOnDisconnect(t *testing.T) {
	hub := newTestHub()
	conn := dialTestHub(t, hub)

	conn.Close()

	require.Eventually(t, func() bool {
		hub.mu.Lock()
		defer hub.mu.Unlock()
		return len(hub.clients) == 0
	}, time.Second, 10*time.Millisecond, "client never removed after disconnect")
}
