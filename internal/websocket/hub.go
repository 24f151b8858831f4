package websocket

import (
	"context"

	"github.com/rs/zerolog/log"
)

type envelope struct {
	sessionID string
	// client, when set, limits delivery to that one connection.
	client  *Client
	message []byte
}

// Hub keeps the live clients of every session and fans published events out
// to them. All state is owned by the Run loop.
type Hub struct {
	// Registered clients, grouped by session ID.
	sessions map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	publish    chan envelope

	// done is closed when Run returns.
	done chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		sessions:   make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		publish:    make(chan envelope, 64),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and published events until ctx is cancelled,
// then closes every client's Send channel.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for _, clients := range h.sessions {
				for client := range clients {
					close(client.Send)
				}
			}
			h.sessions = make(map[string]map[*Client]bool)
			return

		case client := <-h.register:
			if h.sessions[client.SessionID] == nil {
				h.sessions[client.SessionID] = make(map[*Client]bool)
			}
			h.sessions[client.SessionID][client] = true
			log.Debug().Str("session_id", client.SessionID).Int("connections", len(h.sessions[client.SessionID])).Msg("Client connected")

		case client := <-h.unregister:
			h.remove(client)

		case env := <-h.publish:
			for client := range h.sessions[env.sessionID] {
				if env.client != nil && env.client != client {
					continue
				}
				select {
				case client.Send <- env.message:
				default:
					// slow consumer
					h.remove(client)
				}
			}
		}
	}
}

// Register adds a client. It is a no-op once the hub has stopped.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish sends an event to every live connection of sessionID.
func (h *Hub) Publish(sessionID, action string, payload interface{}) {
	message := Encode(action, payload)
	if message == nil {
		return
	}
	select {
	case h.publish <- envelope{sessionID: sessionID, message: message}:
	case <-h.done:
	}
}

// Reply sends an event to a single client if it is still registered.
func (h *Hub) Reply(client *Client, action string, payload interface{}) {
	message := Encode(action, payload)
	if message == nil {
		return
	}
	select {
	case h.publish <- envelope{sessionID: client.SessionID, client: client, message: message}:
	case <-h.done:
	}
}

func (h *Hub) remove(client *Client) {
	clients, ok := h.sessions[client.SessionID]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	close(client.Send)
	if len(clients) == 0 {
		delete(h.sessions, client.SessionID)
	}
	log.Debug().Str("session_id", client.SessionID).Msg("Client disconnected")
}
