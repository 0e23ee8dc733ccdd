package websocket

import (
	"log"
	"sync"
)

// Hub tracks connected clients by player id and by lobby channel. Lobby
// render events fan out to everyone watching a channel; replies to a
// player's own commands go over SendToPlayer.
type Hub struct {
	mu       sync.Mutex
	clients  map[string]*Client
	channels map[string]map[string]*Client
}

func NewHub() *Hub {
	return &Hub{
		clients:  make(map[string]*Client),
		channels: make(map[string]map[string]*Client),
	}
}

func (h *Hub) Add(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// A reconnect replaces any stale socket for the same player.
	if old, ok := h.clients[client.ID]; ok {
		h.detach(old)
	}

	h.clients[client.ID] = client
	if _, ok := h.channels[client.Channel]; !ok {
		h.channels[client.Channel] = make(map[string]*Client)
	}
	h.channels[client.Channel][client.ID] = client
	log.Printf("Client %s connected on channel %s", client.ID, client.Channel)
}

func (h *Hub) Remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, ok := h.clients[client.ID]; !ok || current != client {
		return
	}
	h.detach(client)
	log.Printf("Client %s disconnected", client.ID)
}

// detach must be called with h.mu held.
func (h *Hub) detach(client *Client) {
	delete(h.clients, client.ID)
	if members, ok := h.channels[client.Channel]; ok {
		delete(members, client.ID)
		if len(members) == 0 {
			delete(h.channels, client.Channel)
		}
	}
	close(client.Send)
}

// Broadcast queues a message for every client subscribed to the channel.
// Clients with a full queue are skipped rather than blocking the caller.
func (h *Hub) Broadcast(channel string, message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.channels[channel] {
		select {
		case client.Send <- message:
		default:
			log.Printf("Dropping broadcast to slow client %s", client.ID)
		}
	}
}

// SendToPlayer queues a message for a single player. Returns false if the
// player has no live connection.
func (h *Hub) SendToPlayer(playerID string, message []byte) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[playerID]
	if !ok {
		return false
	}
	select {
	case client.Send <- message:
		return true
	default:
		return false
	}
}
