package chat

import (
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second

	maxFrameSize   = 8 * 1024
	sendBufferSize = 256
)

// Client is one live bidirectional connection bound to a user.
// The hub owns the subs set and the closed flag under its mutex.
type Client struct {
	UserID   string
	UserName string

	conn   *websocket.Conn
	send   chan []byte
	subs   map[uuid.UUID]struct{}
	closed bool
}

// NewClient wraps an upgraded connection. conn may be nil in tests that
// never run the pumps.
func NewClient(conn *websocket.Conn, userID, userName string) *Client {
	return &Client{
		UserID:   userID,
		UserName: userName,
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
		subs:     make(map[uuid.UUID]struct{}),
	}
}

// readPump reads client events from the connection and hands them to the
// gateway until the connection drops.
func (c *Client) readPump(g *Gateway) {
	defer func() {
		g.HandleDisconnect(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxFrameSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				g.log.Warn().Err(err).Str("user_id", c.UserID).Msg("websocket read error")
			}
			return
		}
		g.HandleEvent(c, data)
	}
}

// writePump drains the send channel onto the connection and keeps the
// connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel: replaced binding or dropped client.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
