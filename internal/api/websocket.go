package api

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Mandykamble/indian-combat-backend/internal/game"
)

const (
	// MaxWSConnectionsTotal caps total WebSocket connections.
	MaxWSConnectionsTotal = 500

	// MaxWSConnectionsPerIP caps WebSocket connections per IP.
	MaxWSConnectionsPerIP = 10

	sendQueueSize  = 64
	maxMessageSize = 4096

	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

// Inbound event names.
const (
	eventJoinRoom     = "joinRoom"
	eventMove         = "move"
	eventAttack       = "attack"
	eventBlock        = "block"
	eventUpdateHealth = "updateHealth"
)

// envelope frames every message in both directions:
// {"event": "...", "data": {...}}.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type outEnvelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type joinRoomPayload struct {
	RoomID string `json:"roomId"`
}

type movePayload struct {
	RoomID   string    `json:"roomId"`
	Position game.Vec3 `json:"position"`
	Rotation game.Vec3 `json:"rotation"`
}

type attackPayload struct {
	RoomID string `json:"roomId"`
}

type blockPayload struct {
	RoomID     string `json:"roomId"`
	IsBlocking bool   `json:"isBlocking"`
}

type updateHealthPayload struct {
	RoomID   string  `json:"roomId"`
	TargetID string  `json:"targetId"`
	Damage   float64 `json:"damage"`
}

// Gateway owns the WebSocket side of the engine: it upgrades connections,
// assigns them identities, routes inbound events to the engine and pushes
// engine broadcasts back out. A connection is a participant of at most one
// room; the engine enforces that from the identity the gateway assigns.
type Gateway struct {
	engine    *game.Engine
	log       *zap.SugaredLogger
	upgrader  websocket.Upgrader
	wsLimiter *WebSocketRateLimiter
	connCount int64 // atomic
}

// NewGateway creates a gateway. Origins are matched against allowedOrigins;
// a trailing '*' in a pattern matches any suffix. A nil logger disables
// logging.
func NewGateway(engine *game.Engine, allowedOrigins []string, log *zap.SugaredLogger) *Gateway {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	g := &Gateway{
		engine:    engine,
		log:       log,
		wsLimiter: NewWebSocketRateLimiter(MaxWSConnectionsPerIP),
	}
	g.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if originAllowed(origin, allowedOrigins) {
				return true
			}
			g.log.Warnw("websocket rejected", "origin", origin)
			RecordConnectionRejected("origin")
			return false
		},
	}
	return g
}

// originAllowed accepts requests without an Origin header (non-browser
// clients) and origins matching any pattern.
func originAllowed(origin string, patterns []string) bool {
	if origin == "" {
		return true
	}
	for _, p := range patterns {
		if strings.HasSuffix(p, "*") {
			if strings.HasPrefix(origin, strings.TrimSuffix(p, "*")) {
				return true
			}
		} else if origin == p {
			return true
		}
	}
	return false
}

// ConnectionCount returns the number of live WebSocket connections.
func (g *Gateway) ConnectionCount() int {
	return int(atomic.LoadInt64(&g.connCount))
}

// HandleWS upgrades the connection and serves it until disconnect.
func (g *Gateway) HandleWS(w http.ResponseWriter, r *http.Request) {
	ip := GetClientIP(r)

	if g.ConnectionCount() >= MaxWSConnectionsTotal {
		RecordConnectionRejected("ws_total_limit")
		http.Error(w, "too many connections", http.StatusServiceUnavailable)
		return
	}
	if !g.wsLimiter.Allow(ip) {
		RecordConnectionRejected("ws_ip_limit")
		http.Error(w, "too many connections from your address", http.StatusTooManyRequests)
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warnw("websocket upgrade failed", "ip", ip, "err", err)
		g.wsLimiter.Release(ip)
		return
	}

	c := &client{
		id:   newConnID(),
		conn: conn,
		send: make(chan []byte, sendQueueSize),
	}
	count := atomic.AddInt64(&g.connCount, 1)
	wsConnectionsActive.Set(float64(count))
	g.log.Infow("connected", "conn", c.id, "ip", ip, "total", count)

	go c.writePump()
	g.readPump(c, ip)
}

// readPump reads inbound events until the connection drops, then runs the
// full disconnect cleanup before releasing the connection's resources.
func (g *Gateway) readPump(c *client, ip string) {
	defer func() {
		g.engine.Disconnect(c.id)
		c.close()
		g.wsLimiter.Release(ip)
		count := atomic.AddInt64(&g.connCount, -1)
		wsConnectionsActive.Set(float64(count))
		g.log.Infow("disconnected", "conn", c.id, "remaining", count)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var env envelope
		if err := json.Unmarshal(payload, &env); err != nil {
			g.log.Debugw("malformed message", "conn", c.id, "err", err)
			continue
		}
		g.dispatch(c, env)
	}
}

// dispatch routes one inbound event to the engine. Join failures are
// reported to the requester only; everything else follows the engine's
// silent no-op rules.
func (g *Gateway) dispatch(c *client, env envelope) {
	switch env.Event {
	case eventJoinRoom:
		var p joinRoomPayload
		if json.Unmarshal(env.Data, &p) != nil {
			return
		}
		switch err := g.engine.Join(p.RoomID, c.id, c); {
		case errors.Is(err, game.ErrRoomFull):
			c.Send(game.EventRoomFull, game.RoomFullPayload{Message: "room " + p.RoomID + " is full"})
		case errors.Is(err, game.ErrInvalidRoomID):
			c.Send(game.EventError, game.ErrorPayload{Message: "invalid room id"})
		}

	case eventMove:
		var p movePayload
		if json.Unmarshal(env.Data, &p) != nil {
			return
		}
		g.engine.Move(p.RoomID, c.id, p.Position, p.Rotation)

	case eventAttack:
		var p attackPayload
		if json.Unmarshal(env.Data, &p) != nil {
			return
		}
		g.engine.Attack(p.RoomID, c.id)

	case eventBlock:
		var p blockPayload
		if json.Unmarshal(env.Data, &p) != nil {
			return
		}
		g.engine.SetBlocking(p.RoomID, c.id, p.IsBlocking)

	case eventUpdateHealth:
		var p updateHealthPayload
		if json.Unmarshal(env.Data, &p) != nil {
			return
		}
		g.engine.ApplyDamage(p.RoomID, c.id, p.TargetID, int(p.Damage))

	default:
		g.log.Debugw("unknown event", "conn", c.id, "event", env.Event)
	}
}

// client is one WebSocket connection. It implements game.Sink: sends are
// queued and a full queue drops the message rather than block the engine.
type client struct {
	id     string
	conn   *websocket.Conn
	send   chan []byte
	closed int32 // atomic
}

// Send implements game.Sink.
func (c *client) Send(event string, data interface{}) {
	if atomic.LoadInt32(&c.closed) != 0 {
		return
	}
	b, err := json.Marshal(outEnvelope{Event: event, Data: data})
	if err != nil {
		return
	}
	select {
	case c.send <- b:
		wsMessagesTotal.Inc()
	default:
		wsMessagesDropped.Inc()
	}
}

// close ends the write pump. Called only after the engine has removed this
// connection, so no further Send can race the channel close.
func (c *client) close() {
	if atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		close(c.send)
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// newConnID generates an opaque connection identity, stable for the
// connection's lifetime.
func newConnID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "conn-" + hex.EncodeToString([]byte(time.Now().String()))[:16]
	}
	return "conn-" + hex.EncodeToString(b[:])
}
