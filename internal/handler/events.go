package handler

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/address"
	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/wishlist"
	"github.com/xenking/storefront/internal/navigate"
	"github.com/xenking/storefront/internal/notify"
)

// Frame types pushed on the event stream.
const (
	FrameCart            = "cart"
	FrameWishlist        = "wishlist"
	FrameAddresses       = "addresses"
	FrameSelectedAddress = "selectedAddress"
	FrameNotification    = "notification"
	FrameNavigate        = "navigate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 512
	sendBuffer     = 64
)

var (
	_ notify.Sink        = (*Hub)(nil)
	_ navigate.Navigator = (*Hub)(nil)
)

// HubConfig configures the event stream.
type HubConfig struct {
	// AllowOrigins lists origins allowed to open the stream. Empty or "*"
	// allows any origin.
	AllowOrigins []string
}

// Hub tracks event stream connections. It is the notification sink and the
// navigator of the process: both broadcast a frame to every connection.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

// NewHub creates an empty Hub.
func NewHub(cfg HubConfig) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(cfg.AllowOrigins),
		},
		clients: make(map[*client]struct{}),
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[strings.ToLower(o)] = struct{}{}
	}
	if len(set) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[strings.ToLower(origin)]
		return ok
	}
}

// Notify broadcasts a notification frame.
func (h *Hub) Notify(_ context.Context, e notify.Event) {
	h.broadcast(frame(FrameNotification, e.Encode))
}

// Navigate broadcasts a navigate frame. Delivery is best effort.
func (h *Hub) Navigate(_ context.Context, r navigate.Request) error {
	h.broadcast(frame(FrameNavigate, func(e *jx.Encoder) { encodeNavigation(e, r) }))
	return nil
}

// Len returns the number of open connections.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and rejects new ones. Hijacked connections
// are not covered by http.Server.Shutdown, so the server calls Close while
// draining.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
}

func (h *Hub) broadcast(msg []byte) {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.enqueue(msg)
	}
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.close()
}

// frame renders {"type":typ,"data":...}.
func frame(typ string, data func(e *jx.Encoder)) []byte {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("type")
	e.Str(typ)
	e.FieldStart("data")
	data(&e)
	e.ObjEnd()
	return e.Bytes()
}

// client is one event stream connection. Frames are queued on send and
// written by a single goroutine; a client that falls behind is dropped.
type client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func newClient(conn *websocket.Conn) *client {
	return &client{
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
}

func (c *client) enqueue(msg []byte) {
	select {
	case <-c.done:
	case c.send <- msg:
	default:
		c.drop()
	}
}

// drop closes the connection without a close frame. It runs on the
// publishing goroutine and must not wait on the peer.
func (c *client) drop() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeWait))
		_ = c.conn.Close()
	})
}

func (c *client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		}
	}
}

// readLoop discards client messages and returns when the connection fails
// or the peer goes away.
func (c *client) readLoop() {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// events upgrades the request to a WebSocket and streams store changes.
// The current cart, wishlist, addresses and selected address are sent first.
func (h *Handler) events(w http.ResponseWriter, r *http.Request) {
	conn, err := h.hub.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		zctx.From(r.Context()).Debug("Upgrade event stream", zap.Error(err))
		return
	}
	c := newClient(conn)
	if !h.hub.register(c) {
		c.close()
		return
	}
	defer h.hub.unregister(c)

	unsubscribe := []func(){
		h.cart.Subscribe(func(lines []cart.Line) {
			c.enqueue(frame(FrameCart, func(e *jx.Encoder) { h.present.cart(e, lines) }))
		}),
		h.wishlist.Subscribe(func(entries []wishlist.Entry) {
			c.enqueue(frame(FrameWishlist, func(e *jx.Encoder) { h.present.wishlist(e, entries) }))
		}),
		h.book.Subscribe(func(list []address.Address) {
			c.enqueue(frame(FrameAddresses, func(e *jx.Encoder) { encodeAddresses(e, list) }))
		}),
		h.book.SubscribeSelected(func(a *address.Address) {
			c.enqueue(frame(FrameSelectedAddress, func(e *jx.Encoder) { encodeSelected(e, a) }))
		}),
	}
	defer func() {
		for _, fn := range unsubscribe {
			fn()
		}
	}()

	go c.writeLoop()
	c.readLoop()
}
