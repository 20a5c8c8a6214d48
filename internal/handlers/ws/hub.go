// Package ws fans settlement events out to connected marketplace clients.
package ws

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/cpatton716/collectors-catalog/configs"
	"github.com/cpatton716/collectors-catalog/pkg/types"
)

// Event is the wire shape of a live marketplace notification.
type Event struct {
	Type string `json:"type"` // "bid", "sale", "auction_end"
	Data any    `json:"data"`
}

type Hub struct {
	mu        sync.Mutex
	clients   map[*Client]bool
	rateLimit rate.Limit
	rateBurst int
	upgrader  websocket.Upgrader
}

func NewHub(cfg *configs.Config) *Hub {
	return &Hub{
		clients:   make(map[*Client]bool),
		rateLimit: rate.Limit(cfg.WebSocket.RateLimit),
		rateBurst: cfg.WebSocket.RateBurst,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return cfg.Features.AllowCrossOrigin || r.Header.Get("Origin") == "" },
		},
	}
}

// HandleLive upgrades an authenticated request to a live event connection.
// The auth middleware has already resolved the caller's profile.
func (h *Hub) HandleLive(c *gin.Context) {
	profile, _ := c.Get("profile")
	p, _ := profile.(types.Profile)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Infof("Failed to upgrade connection: %v", err)
		return
	}

	client := &Client{
		ID:          p.ID,
		Conn:        conn,
		Send:        make(chan []byte, 16),
		RateLimiter: rate.NewLimiter(h.rateLimit, h.rateBurst),
	}

	h.mu.Lock()
	h.clients[client] = true
	h.mu.Unlock()

	go client.ReadMessages(h)
	go client.WriteMessages()
}

// Broadcast sends a message to all connected clients.
func (h *Hub) Broadcast(message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		select {
		case client.Send <- message:
		default:
			// Drop clients that stopped draining their queue.
			delete(h.clients, client)
			go client.Disconnect(nil)
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	delete(h.clients, client)
	h.mu.Unlock()
}

func (h *Hub) broadcastEvent(eventType string, data any) {
	raw, err := json.Marshal(Event{Type: eventType, Data: data})
	if err != nil {
		log.Error("Error marshalling event: ", err)
		return
	}
	h.Broadcast(raw)
}

// ItemSold implements settlement.Notifier.
func (h *Hub) ItemSold(txn types.Transaction) {
	h.broadcastEvent("sale", txn)
}

// BidAccepted implements settlement.Notifier.
func (h *Hub) BidAccepted(bid types.Bid) {
	h.broadcastEvent("bid", bid)
}

// AuctionEnded implements settlement.Notifier.
func (h *Hub) AuctionEnded(auctionID, status string) {
	h.broadcastEvent("auction_end", map[string]string{"auctionId": auctionID, "status": status})
}
