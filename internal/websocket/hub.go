package websocket

import "github.com/rs/zerolog/log"

// userMessage targets a message at every connection of a single user.
type userMessage struct {
	userID string
	data   []byte
}

// Hub maintains the set of active clients, grouped by the user that opened
// them, and fans user-scoped messages out to the right connections.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client

	// Outbound user-scoped messages.
	broadcast chan userMessage

	// A map of user IDs to the set of that user's open connections.
	sessions map[string]map[*Client]bool
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		broadcast:  make(chan userMessage),
		sessions:   make(map[string]map[*Client]bool),
	}
}

// Run starts the Hub's message processing loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.clients[client] = true
			h.addSession(client)
			log.Info().Int("total_clients", len(h.clients)).Msg("Client connected")
		case client := <-h.Unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				log.Info().Int("total_clients", len(h.clients)).Msg("Client disconnected")
			}
		case message := <-h.broadcast:
			for client := range h.sessions[message.userID] {
				select {
				case client.Send <- message.data:
				default:
					// Slow consumer; drop the connection rather than block.
					h.drop(client)
				}
			}
		}
	}
}

// BroadcastToUser sends a message to all open connections of a user.
func (h *Hub) BroadcastToUser(userID string, message []byte) {
	if message == nil {
		return
	}
	h.broadcast <- userMessage{userID: userID, data: message}
}

func (h *Hub) addSession(client *Client) {
	if h.sessions[client.UserID] == nil {
		h.sessions[client.UserID] = make(map[*Client]bool)
	}
	h.sessions[client.UserID][client] = true
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.Send)
	if subs, ok := h.sessions[client.UserID]; ok {
		delete(subs, client)
		if len(subs) == 0 {
			delete(h.sessions, client.UserID)
		}
	}
}
