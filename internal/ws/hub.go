package ws

// Hub tracks active websocket clients and routes per-user events. Adapted
// for string user IDs (the auth provider's opaque uid) with one client per
// browser session.
type Hub struct {
	Clients     map[*Client]bool
	Register    chan *Client
	Unregister  chan *Client
	UserClients map[string][]*Client

	send chan userMessage
}

type userMessage struct {
	userID  string
	payload []byte
}

// NewHub creates a Hub; call Run in a goroutine before registering clients.
func NewHub() *Hub {
	return &Hub{
		Clients:     make(map[*Client]bool),
		Register:    make(chan *Client),
		Unregister:  make(chan *Client),
		UserClients: make(map[string][]*Client),
		send:        make(chan userMessage),
	}
}

// Run owns all hub state; every mutation goes through its channels.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.Clients[client] = true
			if client.UserID != "" {
				h.UserClients[client.UserID] = append(h.UserClients[client.UserID], client)
			}

		case client := <-h.Unregister:
			if _, ok := h.Clients[client]; ok {
				delete(h.Clients, client)
				close(client.done)
				h.dropUserClient(client)
			}

		case msg := <-h.send:
			// iterate a copy: dropping a client shifts the live slice
			sessions := append([]*Client(nil), h.UserClients[msg.userID]...)
			for _, client := range sessions {
				if _, ok := h.Clients[client]; !ok {
					continue
				}
				select {
				case client.Send <- msg.payload:
				default:
					// slow consumer: drop the connection, not the hub
					delete(h.Clients, client)
					close(client.done)
					h.dropUserClient(client)
				}
			}
		}
	}
}

func (h *Hub) dropUserClient(client *Client) {
	if client.UserID == "" {
		return
	}
	clients := h.UserClients[client.UserID]
	for i, c := range clients {
		if c == client {
			h.UserClients[client.UserID] = append(clients[:i], clients[i+1:]...)
			break
		}
	}
	if len(h.UserClients[client.UserID]) == 0 {
		delete(h.UserClients, client.UserID)
	}
}

// SendToUser delivers payload to every open session of userID.
func (h *Hub) SendToUser(userID string, payload []byte) {
	h.send <- userMessage{userID: userID, payload: payload}
}
