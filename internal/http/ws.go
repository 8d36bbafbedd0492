package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/example/taxi-dispatch/internal/models"
	"github.com/example/taxi-dispatch/internal/observability"
)

// wsConn adapts a gorilla websocket to the registry's send/close
// capability. Writes are serialized by a mutex and bounded by a
// deadline; a timed-out write is a failed send, which the registry
// treats as a disconnect.
type wsConn struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
	mu           sync.Mutex
}

func (c *wsConn) Send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.conn.WriteJSON(v)
}

func (c *wsConn) Close() error { return c.conn.Close() }

func (c *wsConn) ping() error {
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.writeTimeout))
}

// handleWS upgrades the connection, performs the identification
// handshake, registers the party and runs its read loop until the
// connection drops.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	raw, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("ws_upgrade_failed", "error", err)
		return
	}
	conn := &wsConn{conn: raw, writeTimeout: s.cfg.WSWriteTimeout}

	// The first message must identify the party within the handshake
	// deadline.
	_ = raw.SetReadDeadline(time.Now().Add(s.cfg.WSHandshakeTimeout))
	var hello models.HelloEvent
	if err := raw.ReadJSON(&hello); err != nil {
		_ = conn.Send(models.ErrorNotice{Type: models.TypeError, Message: "userId and userType required for connection"})
		_ = conn.Close()
		return
	}
	kind := models.PartyKind(hello.UserType)
	if hello.UserID == "" || (kind != models.KindDriver && kind != models.KindClient) {
		_ = conn.Send(models.ErrorNotice{Type: models.TypeError, Message: "userId and userType required for connection"})
		_ = conn.Close()
		return
	}

	s.reg.Register(hello.UserID, kind, conn)
	_ = conn.Send(models.ConnectedNotice{
		Type:      models.TypeConnected,
		Message:   fmt.Sprintf("Connected as %s: %s", kind, hello.UserID),
		Timestamp: time.Now(),
	})
	s.logger.Info("ws_connected", "party_id", hello.UserID, "kind", kind)

	sess := &session{srv: s, raw: raw, conn: conn, partyID: hello.UserID, kind: kind}
	sess.run()
}

// session is one connected party's read loop.
type session struct {
	srv     *Server
	raw     *websocket.Conn
	conn    *wsConn
	partyID string
	kind    models.PartyKind
}

func (s *session) run() {
	// Identity-checked removal: if a re-register replaced this
	// connection, the deferred cleanup must not evict the replacement.
	defer s.srv.reg.RemoveConn(s.partyID, s.conn)

	_ = s.raw.SetReadDeadline(time.Now().Add(s.srv.cfg.WSPongWait))
	s.raw.SetPongHandler(func(string) error {
		s.srv.reg.Touch(s.partyID)
		return s.raw.SetReadDeadline(time.Now().Add(s.srv.cfg.WSPongWait))
	})

	stopPing := make(chan struct{})
	defer close(stopPing)
	go s.pingLoop(stopPing)

	for {
		_, payload, err := s.raw.ReadMessage()
		if err != nil {
			s.srv.logger.Info("ws_disconnect", "party_id", s.partyID, "reason", err)
			return
		}
		s.srv.reg.Touch(s.partyID)
		_ = s.raw.SetReadDeadline(time.Now().Add(s.srv.cfg.WSPongWait))
		if !s.handle(payload) {
			return
		}
	}
}

func (s *session) pingLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(s.srv.cfg.WSPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := s.conn.ping(); err != nil {
				return
			}
		case <-stop:
			return
		}
	}
}

// handle dispatches one inbound message. It returns false when the
// session should end. A malformed or unknown message only ever affects
// this connection.
func (s *session) handle(payload []byte) bool {
	var env models.Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		s.reply(models.ErrorNotice{Type: models.TypeError, Message: "Invalid JSON format"})
		return true
	}
	observability.WSMessagesTotal.WithLabelValues(env.Type).Inc()

	switch env.Type {
	case models.TypeHeartbeat:
		s.reply(models.HeartbeatNotice{Type: models.TypeHeartbeat, Timestamp: time.Now()})

	case models.TypeUpdateLocation:
		var ev models.LocationUpdateEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			s.reply(models.ErrorNotice{Type: models.TypeError, Message: "Invalid JSON format"})
			return true
		}
		if s.kind == models.KindDriver {
			s.srv.pool.UpdateLocation(s.partyID, ev.Location.Coord())
		}
		s.reply(models.LocationUpdatedNotice{Type: models.TypeLocationUpdated, Success: true})

	case models.TypeRequestRide:
		var ev models.RideRequestEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			s.reply(models.ErrorNotice{Type: models.TypeError, Message: "Invalid JSON format"})
			return true
		}
		s.ack(s.srv.coord.RideRequested(ev))

	case models.TypeAcceptRide:
		var ev models.RideAcceptEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			s.reply(models.ErrorNotice{Type: models.TypeError, Message: "Invalid JSON format"})
			return true
		}
		s.ack(s.srv.coord.RideAccepted(ev))

	case models.TypeRejectRide:
		var ev models.RideRejectEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			s.reply(models.ErrorNotice{Type: models.TypeError, Message: "Invalid JSON format"})
			return true
		}
		s.ack(s.srv.coord.RideRejected(ev))

	case models.TypeCancelRide:
		var ev models.RideCancelEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			s.reply(models.ErrorNotice{Type: models.TypeError, Message: "Invalid JSON format"})
			return true
		}
		s.ack(s.srv.coord.RideCancelled(ev))

	case models.TypeDisconnect:
		s.srv.coord.PartyDisconnected(s.partyID)
		return false

	default:
		s.reply(models.ErrorNotice{Type: models.TypeUnknownCommand, Message: "Unknown command: " + env.Type})
	}
	return true
}

func (s *session) ack(a models.Ack, err error) {
	if err != nil {
		s.reply(models.Ack{Error: err.Error()})
		return
	}
	s.reply(a)
}

func (s *session) reply(v any) {
	if err := s.conn.Send(v); err != nil {
		s.srv.logger.Warn("ws_reply_failed", "party_id", s.partyID, "error", err)
	}
}
