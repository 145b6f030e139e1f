package websocket

import (
	"context"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	jww "github.com/spf13/jwalterweatherman"
	"vault/feed"
	"vault/location"
	"vault/models"
	"vault/presence"
	"vault/utils"
)

type Sessions interface {
	Authenticate(ctx context.Context, token string) (*models.Session, error)
	ObserveSession(ctx context.Context, sess *models.Session) (*feed.Feed[*models.Session], error)
}

type Presence interface {
	Heartbeat(ctx context.Context, userID string) error
	Watch(ctx context.Context, userID string) (*feed.Feed[presence.Status], error)
}

type Chats interface {
	ChannelFor(ctx context.Context, userID, peerID string) (*models.Channel, error)
	Open(ctx context.Context, channelID models.ChannelID) (*feed.Feed[[]models.Message], error)
	Send(ctx context.Context, channelID models.ChannelID, senderID string, content models.Content) (*models.Message, error)
}

type Locations interface {
	Run(ctx context.Context, userID string, sampler location.Sampler)
}

// Message is an outbound event.
type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// ClientMessage is an inbound action.
type ClientMessage struct {
	Action   string             `json:"action"`
	PeerID   string             `json:"peer_id,omitempty"`
	UserID   string             `json:"user_id,omitempty"`
	Type     models.MessageKind `json:"type,omitempty"`
	Text     string             `json:"text,omitempty"`
	MediaURL string             `json:"media_url,omitempty"`
	Location *models.Location   `json:"location,omitempty"`
}

// Hub owns every live connection so they can be torn down together.
type Hub struct {
	sessions  Sessions
	presence  Presence
	chats     Chats
	locations Locations
	upgrader  websocket.Upgrader

	mu      sync.Mutex
	clients map[*Client]struct{}
	wg      sync.WaitGroup
}

func NewHub(sessions Sessions, p Presence, chats Chats, locations Locations) *Hub {
	return &Hub{
		sessions:  sessions,
		presence:  p,
		chats:     chats,
		locations: locations,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clients: make(map[*Client]struct{}),
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

// Connections reports how many clients are connected.
func (h *Hub) Connections() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Serve upgrades an authenticated request (token in the query string).
func (h *Hub) Serve(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		utils.Unauthorized(c, "missing token")
		return
	}
	sess, err := h.sessions.Authenticate(c.Request.Context(), token)
	if err != nil {
		utils.Error(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		jww.WARN.Printf("[ws] upgrade: %v", err)
		return
	}

	client := newClient(h, conn, sess)
	h.register(client)
	if err := client.start(); err != nil {
		jww.ERROR.Printf("[ws] start %s: %+v", sess.UserID, err)
		client.close()
		conn.Close()
		return
	}
	jww.DEBUG.Printf("[ws] %s connected", sess.UserID)
}

// Close disconnects every client and waits for their goroutines.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
	h.wg.Wait()
}
