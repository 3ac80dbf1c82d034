package app

import (
	"sync"
	"time"

	"github.com/haierkeys/note-registry-service/pkg/code"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/lxzan/gws"
	"go.uber.org/zap"
)

const (
	WebSocketServerPingInterval = 25 * time.Second
	WebSocketServerPingWait     = 40 * time.Second

	// ActionNoteEvent frames carry one registry event
	ActionNoteEvent = "NoteEvent"
	// ActionSubscribed is sent once after the connection is registered
	ActionSubscribed = "Subscribed"
)

// Scoped is implemented by messages that only concern some identities.
// Subscribers that asked for their own events only receive a Scoped message when they are a party to it.
// Scoped 由只涉及部分身份的消息实现
type Scoped interface {
	Parties() []string
}

type EventHubConfig struct {
	GWSOption    gws.ServerOption
	PingInterval time.Duration
	PingWait     time.Duration
}

// EventClient 一个事件流订阅连接
type EventClient struct {
	conn     *gws.Conn
	done     chan struct{}
	closeMu  sync.Once
	Identity string
	// OnlyOwn 只推送与自己相关的事件
	OnlyOwn bool
}

func (c *EventClient) wants(msg any) bool {
	if !c.OnlyOwn {
		return true
	}
	s, ok := msg.(Scoped)
	if !ok {
		return true
	}
	for _, p := range s.Parties() {
		if p == c.Identity {
			return true
		}
	}
	return false
}

func (c *EventClient) stop() {
	c.closeMu.Do(func() { close(c.done) })
}

// PingLoop 定期发送 Ping 消息
func (c *EventClient) PingLoop(interval time.Duration, lg *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if err := c.conn.WritePing(nil); err != nil {
				lg.Debug("event stream ping failed", zap.String("identity", c.Identity), zap.Error(err))
				return
			}
		}
	}
}

// EventHub fans registry events out to websocket subscribers
// EventHub 将注册表事件广播给 websocket 订阅者
type EventHub struct {
	clients map[*gws.Conn]*EventClient
	mu      sync.RWMutex
	up      *gws.Upgrader
	config  EventHubConfig
	logger  *zap.Logger
	closed  bool
}

func NewEventHub(c EventHubConfig, lg *zap.Logger) *EventHub {
	if c.PingInterval <= 0 {
		c.PingInterval = WebSocketServerPingInterval
	}
	if c.PingWait <= 0 {
		c.PingWait = WebSocketServerPingWait
	}
	if lg == nil {
		lg = zap.NewNop()
	}
	h := &EventHub{
		clients: make(map[*gws.Conn]*EventClient),
		config:  c,
		logger:  lg,
	}
	h.up = gws.NewUpgrader(h, &h.config.GWSOption)
	return h
}

// Handler upgrades an authenticated request into an event stream.
// The identity must already be in the context, set by the auth middleware.
// Query "scope=own" limits the stream to events the caller is a party to.
// Handler 将已认证的请求升级为事件流
func (h *EventHub) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := GetIdentity(c)
		if identity == "" {
			NewResponse(c).ToResponse(code.ErrorUnauthorized)
			return
		}

		h.mu.RLock()
		closed := h.closed
		h.mu.RUnlock()
		if closed {
			NewResponse(c).ToResponse(code.ErrorServerInternal.WithDetails("event hub closed"))
			return
		}

		socket, err := h.up.Upgrade(c.Writer, c.Request)
		if err != nil {
			h.logger.Error("event stream upgrade failed", zap.Error(err))
			return
		}
		client := &EventClient{
			conn:     socket,
			done:     make(chan struct{}),
			Identity: identity,
			OnlyOwn:  c.Query("scope") == "own",
		}
		h.addClient(client)
		h.logger.Info("event stream subscriber joined",
			zap.String("identity", identity),
			zap.Bool("onlyOwn", client.OnlyOwn),
			zap.Int("count", h.ClientCount()))

		_ = socket.WriteMessage(gws.OpcodeText, frame(ActionSubscribed, map[string]any{"identity": identity}))
		go client.PingLoop(h.config.PingInterval, h.logger)
		go socket.ReadLoop()
	}
}

// Broadcast sends msg to every subscriber interested in it
// Broadcast 将消息发送给所有关注它的订阅者
func (h *EventHub) Broadcast(msg any) {
	payload := frame(ActionNoteEvent, msg)
	if payload == nil {
		h.logger.Warn("event hub marshal failed")
		return
	}

	b := gws.NewBroadcaster(gws.OpcodeText, payload)
	defer b.Close()

	h.mu.RLock()
	defer h.mu.RUnlock()
	for conn, client := range h.clients {
		if !client.wants(msg) {
			continue
		}
		_ = b.Broadcast(conn)
	}
}

// ClientCount 当前订阅者数量
func (h *EventHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Shutdown closes every subscriber connection and refuses new ones
// Shutdown 关闭所有订阅连接
func (h *EventHub) Shutdown() {
	h.mu.Lock()
	h.closed = true
	conns := make([]*gws.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		_ = conn.WriteClose(1001, []byte("ServerShutdown"))
	}
}

func (h *EventHub) addClient(c *EventClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.conn] = c
}

func (h *EventHub) removeClient(conn *gws.Conn) *EventClient {
	h.mu.Lock()
	defer h.mu.Unlock()
	c := h.clients[conn]
	delete(h.clients, conn)
	return c
}

func (h *EventHub) OnOpen(conn *gws.Conn) {
	_ = conn.SetDeadline(time.Now().Add(h.config.PingWait))
}

func (h *EventHub) OnClose(conn *gws.Conn, err error) {
	c := h.removeClient(conn)
	if c == nil {
		return
	}
	c.stop()
	h.logger.Info("event stream subscriber left", zap.String("identity", c.Identity), zap.Int("count", h.ClientCount()))
}

func (h *EventHub) OnPing(socket *gws.Conn, payload []byte) {
	_ = socket.SetDeadline(time.Now().Add(h.config.PingWait))
	_ = socket.WritePong(nil)
}

func (h *EventHub) OnPong(socket *gws.Conn, payload []byte) {
	_ = socket.SetDeadline(time.Now().Add(h.config.PingWait))
}

// OnMessage 订阅流只接受 "close" 和文本 "ping"
func (h *EventHub) OnMessage(conn *gws.Conn, message *gws.Message) {
	defer message.Close()
	_ = conn.SetDeadline(time.Now().Add(h.config.PingWait))
	if message.Opcode != gws.OpcodeText {
		return
	}
	switch message.Data.String() {
	case "close":
		_ = conn.WriteClose(1000, []byte("ClientClose"))
	case "ping":
		_ = conn.WriteMessage(gws.OpcodeText, []byte("pong"))
	}
}

// frame 编码为 "action|json"
func frame(action string, v any) []byte {
	data, err := sonic.Marshal(v)
	if err != nil {
		return nil
	}
	out := make([]byte, 0, len(action)+1+len(data))
	out = append(out, action...)
	out = append(out, '|')
	return append(out, data...)
}
