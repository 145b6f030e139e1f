package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	jww "github.com/spf13/jwalterweatherman"
	"vault/apperr"
	"vault/feed"
	"vault/location"
	"vault/messaging"
	"vault/models"
	"vault/presence"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024
)

// subscription forwards one feed to the client until stopped.
type subscription struct {
	stop func()
	done chan struct{}
}

func (s *subscription) close() {
	if s == nil {
		return
	}
	s.stop()
	<-s.done
}

func follow[T any](c *Client, f *feed.Feed[T], each func(T)) *subscription {
	sub := &subscription{stop: f.Close, done: make(chan struct{})}
	c.hub.wg.Add(1)
	go func() {
		defer c.hub.wg.Done()
		defer close(sub.done)
		for v := range f.C() {
			each(v)
		}
	}()
	return sub
}

type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	session *models.Session
	send    chan []byte

	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once

	mu       sync.Mutex
	sessSub  *subscription
	chat     *subscription
	channel  models.ChannelID
	watching *subscription
	sampler  *location.PushSampler
}

func newClient(h *Hub, conn *websocket.Conn, sess *models.Session) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		hub:     h,
		conn:    conn,
		session: sess,
		send:    make(chan []byte, 256),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (c *Client) start() error {
	f, err := c.hub.sessions.ObserveSession(c.ctx, c.session)
	if err != nil {
		return err
	}

	c.hub.wg.Add(2)
	go c.writePump()
	go c.readPump()

	c.mu.Lock()
	c.sessSub = follow(c, f, c.onSession)
	c.mu.Unlock()
	return nil
}

// onSession forwards the session and counts it as activity. A nil session
// means the user signed out or the session expired.
func (c *Client) onSession(s *models.Session) {
	c.emit("session", s)
	if s == nil {
		go c.close()
		return
	}
	if err := c.hub.presence.Heartbeat(c.ctx, c.session.UserID); err != nil {
		jww.WARN.Printf("[ws] heartbeat %s: %v", c.session.UserID, err)
	}
}

func (c *Client) emit(event string, data interface{}) {
	payload, err := json.Marshal(&Message{Event: event, Data: data})
	if err != nil {
		jww.ERROR.Printf("[ws] encode %s: %v", event, err)
		return
	}
	select {
	case c.send <- payload:
	case <-c.ctx.Done():
	}
}

func (c *Client) emitError(err error) {
	pub := apperr.Public(err)
	if apperr.CodeOf(err) == apperr.CodeUnknown {
		jww.ERROR.Printf("[ws] %s: %+v", c.session.UserID, err)
	}
	c.emit("error", pub)
}

func (c *Client) readPump() {
	defer c.hub.wg.Done()
	defer c.close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				jww.WARN.Printf("[ws] read %s: %v", c.session.UserID, err)
			}
			return
		}
		c.handleMessage(message)
	}
}

func (c *Client) writePump() {
	defer c.hub.wg.Done()
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			c.flush()
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				c.close()
				return
			}
			w.Write(message)
			if err := w.Close(); err != nil {
				c.close()
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		}
	}
}

func (c *Client) handleMessage(raw []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.emitError(apperr.InvalidArg("malformed message"))
		return
	}

	switch msg.Action {
	case "ping":
		c.emit("pong", nil)
	case "open_chat":
		c.openChat(msg.PeerID)
	case "close_chat":
		c.closeChat()
	case "watch_presence":
		c.watchPresence(msg.UserID)
	case "unwatch_presence":
		c.unwatchPresence()
	case "send_message":
		c.sendMessage(&msg)
	case "location":
		c.reportLocation(msg.Location)
	default:
		c.emitError(apperr.InvalidArg("unknown action"))
	}
}

func (c *Client) openChat(peerID string) {
	ch, err := c.hub.chats.ChannelFor(c.ctx, c.session.UserID, peerID)
	if err != nil {
		c.emitError(err)
		return
	}
	f, err := c.hub.chats.Open(c.ctx, ch.ID)
	if err != nil {
		c.emitError(err)
		return
	}

	c.closeChat()
	channelID := ch.ID
	c.mu.Lock()
	c.channel = channelID
	c.chat = follow(c, f, func(msgs []models.Message) {
		c.emit("messages", map[string]interface{}{"channel_id": channelID, "messages": msgs})
	})
	c.mu.Unlock()
}

func (c *Client) closeChat() {
	c.mu.Lock()
	sub := c.chat
	c.chat, c.channel = nil, ""
	c.mu.Unlock()
	sub.close()
}

func (c *Client) watchPresence(userID string) {
	if userID == "" {
		c.emitError(apperr.InvalidArg("user_id is required"))
		return
	}
	f, err := c.hub.presence.Watch(c.ctx, userID)
	if err != nil {
		c.emitError(err)
		return
	}

	c.unwatchPresence()
	c.mu.Lock()
	c.watching = follow(c, f, func(st presence.Status) {
		c.emit("presence", st)
	})
	c.mu.Unlock()
}

func (c *Client) unwatchPresence() {
	c.mu.Lock()
	sub := c.watching
	c.watching = nil
	c.mu.Unlock()
	sub.close()
}

func (c *Client) sendMessage(msg *ClientMessage) {
	c.mu.Lock()
	channelID := c.channel
	c.mu.Unlock()
	if channelID == "" {
		c.emitError(apperr.InvalidArg("no chat is open"))
		return
	}

	content, err := messaging.ParseContent(msg.Type, msg.Text, msg.MediaURL)
	if err != nil {
		c.emitError(err)
		return
	}
	if _, err := c.hub.chats.Send(c.ctx, channelID, c.session.UserID, content); err != nil {
		c.emitError(err)
	}
}

// reportLocation feeds the connection's sampler, starting the reporter loop
// on the first position.
func (c *Client) reportLocation(loc *models.Location) {
	if loc == nil {
		c.emitError(apperr.InvalidArg("location is required"))
		return
	}
	c.mu.Lock()
	if c.sampler == nil {
		c.sampler = location.NewPushSampler()
		sampler := c.sampler
		c.hub.wg.Add(1)
		go func() {
			defer c.hub.wg.Done()
			c.hub.locations.Run(c.ctx, c.session.UserID, sampler)
		}()
	}
	sampler := c.sampler
	c.mu.Unlock()
	sampler.Push(*loc)
}

// flush writes whatever is still queued, such as the final nil session.
func (c *Client) flush() {
	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		default:
			return
		}
	}
}

// close tears down every subscription of the connection. Safe to call more
// than once.
func (c *Client) close() {
	c.once.Do(func() {
		c.cancel()

		c.mu.Lock()
		subs := []*subscription{c.sessSub, c.chat, c.watching}
		c.sessSub, c.chat, c.watching, c.channel = nil, nil, nil, ""
		sampler := c.sampler
		c.mu.Unlock()

		for _, s := range subs {
			s.close()
		}
		if sampler != nil {
			sampler.Stop()
		}
		c.hub.unregister(c)
		jww.DEBUG.Printf("[ws] %s disconnected", c.session.UserID)
	})
}
