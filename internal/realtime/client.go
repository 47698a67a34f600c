package realtime

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/campus-eats/internal/config"
)

const maxMessageSize = 4096

// Client is one websocket connection. A single writer goroutine drains send;
// send is never closed, shutdown is signalled through done.
type Client struct {
	id        uuid.UUID
	conn      *websocket.Conn
	cfg       config.RealtimeConfig
	send      chan OrderUpdateMessage
	done      chan struct{}
	closeOnce sync.Once
}

func newClient(conn *websocket.Conn, cfg config.RealtimeConfig) *Client {
	return &Client{
		id:   uuid.Must(uuid.NewV4()),
		conn: conn,
		cfg:  cfg,
		send: make(chan OrderUpdateMessage, cfg.SendBuffer),
		done: make(chan struct{}),
	}
}

func (c *Client) Open() bool {
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}

func (c *Client) Deliver(msg OrderUpdateMessage) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// writePump owns all writes to the connection and closes it on exit.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.close()
		if err := c.conn.Close(); err != nil {
			log.Debug().Err(err).Stringer("client_id", c.id).Msg("realtime: close connection")
		}
	}()

	for {
		select {
		case msg := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait)); err != nil {
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				log.Warn().Err(err).Stringer("client_id", c.id).Stringer("order_id", msg.OrderID).Msg("realtime: failed to write update")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.cfg.WriteWait)); err != nil {
				log.Debug().Err(err).Stringer("client_id", c.id).Msg("realtime: ping failed")
				return
			}
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(c.cfg.WriteWait))
			return
		}
	}
}

// readPump handles inbound frames until the peer goes away. It always
// leaves the registry clean for this client.
func (c *Client) readPump(registry *Registry) {
	defer func() {
		registry.Disconnect(c)
		c.close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Stringer("client_id", c.id).Msg("realtime: connection closed unexpectedly")
			}
			return
		}
		if err := c.handle(registry, data); err != nil {
			log.Warn().Err(err).Stringer("client_id", c.id).Msg("realtime: ignoring malformed message")
		}
	}
}

var (
	errUnknownType    = errors.New("unknown message type")
	errInvalidOrderID = errors.New("invalid order id")
)

func (c *Client) handle(registry *Registry, data []byte) error {
	var msg InboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return err
	}

	orderID, err := uuid.FromString(msg.OrderID)
	if err != nil {
		return errInvalidOrderID
	}

	switch msg.Type {
	case TypeSubscribeOrder:
		registry.Subscribe(orderID, c)
		log.Debug().Stringer("client_id", c.id).Stringer("order_id", orderID).Msg("realtime: subscribed")
	case TypeUnsubscribeOrder:
		registry.Unsubscribe(orderID, c)
		log.Debug().Stringer("client_id", c.id).Stringer("order_id", orderID).Msg("realtime: unsubscribed")
	default:
		return errUnknownType
	}
	return nil
}
