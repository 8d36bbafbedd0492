package registry

import (
	"log/slog"
	"sync"
	"time"

	"github.com/example/taxi-dispatch/internal/models"
	"github.com/example/taxi-dispatch/internal/observability"
)

// Conn is the send/close capability installed for a party. The
// transport layer supplies the implementation; the registry never sees
// raw sockets.
type Conn interface {
	Send(v any) error
	Close() error
}

// Connection is one live channel to a party.
type Connection struct {
	PartyID     string
	Kind        models.PartyKind
	ConnectedAt time.Time

	conn       Conn
	lastActive time.Time
}

// Stats is a point-in-time census of live connections.
type Stats struct {
	Total   int `json:"total_connections"`
	Drivers int `json:"driver_connections"`
	Clients int `json:"client_connections"`
}

// Registry owns the mapping from party identifier to live connection.
// It is the sole mutator of connection membership; all methods are safe
// for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	conns  map[string]*Connection
	logger *slog.Logger

	now func() time.Time
}

func New(logger *slog.Logger) *Registry {
	return &Registry{
		conns:  make(map[string]*Connection),
		logger: logger,
		now:    time.Now,
	}
}

// Register installs a connection for partyID, replacing and closing any
// prior one. A close failure on the stale handle is logged and
// swallowed; the replacement proceeds regardless.
func (r *Registry) Register(partyID string, kind models.PartyKind, c Conn) *Connection {
	now := r.now()
	conn := &Connection{
		PartyID:     partyID,
		Kind:        kind,
		ConnectedAt: now,
		conn:        c,
		lastActive:  now,
	}

	r.mu.Lock()
	prev, replaced := r.conns[partyID]
	r.conns[partyID] = conn
	total := len(r.conns)
	r.mu.Unlock()

	if replaced {
		if err := prev.conn.Close(); err != nil {
			r.logger.Warn("stale_conn_close_failed", "party_id", partyID, "error", err)
		}
		observability.ConnectionsReplaced.Inc()
		if prev.Kind != kind {
			observability.ConnectionsActive.WithLabelValues(string(prev.Kind)).Dec()
			observability.ConnectionsActive.WithLabelValues(string(kind)).Inc()
		}
	} else {
		observability.ConnectionsActive.WithLabelValues(string(kind)).Inc()
	}

	r.logger.Info("party_connected", "party_id", partyID, "kind", kind, "total_connections", total)
	return conn
}

// Remove closes and drops the connection for partyID if present and
// reports whether one existed. Removing an unknown id is a no-op.
func (r *Registry) Remove(partyID string) bool {
	r.mu.Lock()
	conn, ok := r.conns[partyID]
	if ok {
		delete(r.conns, partyID)
	}
	total := len(r.conns)
	r.mu.Unlock()

	if !ok {
		return false
	}
	if err := conn.conn.Close(); err != nil {
		r.logger.Warn("conn_close_failed", "party_id", partyID, "error", err)
	}
	observability.ConnectionsActive.WithLabelValues(string(conn.Kind)).Dec()
	r.logger.Info("party_disconnected", "party_id", partyID, "kind", conn.Kind, "total_connections", total)
	return true
}

// RemoveConn removes partyID only while c is still its installed
// connection. A reader goroutine whose connection was replaced by a
// fresh register must not evict its replacement on the way out.
func (r *Registry) RemoveConn(partyID string, c Conn) bool {
	r.mu.Lock()
	conn, ok := r.conns[partyID]
	if !ok || conn.conn != c {
		r.mu.Unlock()
		return false
	}
	delete(r.conns, partyID)
	total := len(r.conns)
	r.mu.Unlock()

	if err := conn.conn.Close(); err != nil {
		r.logger.Warn("conn_close_failed", "party_id", partyID, "error", err)
	}
	observability.ConnectionsActive.WithLabelValues(string(conn.Kind)).Dec()
	r.logger.Info("party_disconnected", "party_id", partyID, "kind", conn.Kind, "total_connections", total)
	return true
}

// Send delivers one message to partyID. A missing connection returns
// false; a failed send evicts the connection (send failure is an
// implicit disconnect) and returns false. On success the party's
// last-activity is refreshed.
func (r *Registry) Send(partyID string, msg any) bool {
	r.mu.RLock()
	conn, ok := r.conns[partyID]
	r.mu.RUnlock()
	if !ok {
		return false
	}

	if err := conn.conn.Send(msg); err != nil {
		r.logger.Error("send_failed", "party_id", partyID, "error", err)
		observability.SendFailures.Inc()
		r.Remove(partyID)
		return false
	}
	r.Touch(partyID)
	return true
}

// Touch refreshes the last-activity timestamp, for inbound heartbeats
// and successful deliveries.
func (r *Registry) Touch(partyID string) {
	now := r.now()
	r.mu.Lock()
	if conn, ok := r.conns[partyID]; ok {
		conn.lastActive = now
	}
	r.mu.Unlock()
}

// Broadcast delivers msg to every live connection of the given kind
// (KindAll targets everyone) and returns the number of successful
// deliveries. Membership is snapshotted first so sends that evict
// connections cannot perturb the iteration.
func (r *Registry) Broadcast(kind models.PartyKind, msg any) int {
	targets := r.snapshot(kind)
	sent := 0
	for _, id := range targets {
		if r.Send(id, msg) {
			sent++
		}
	}
	observability.BroadcastsTotal.Inc()
	r.logger.Debug("broadcast", "kind", kind, "sent", sent, "targets", len(targets))
	return sent
}

// IsReachable reports whether a live connection exists for partyID.
// This backs the driver-pool "can I push to this driver" capability.
func (r *Registry) IsReachable(partyID string) bool {
	r.mu.RLock()
	_, ok := r.conns[partyID]
	r.mu.RUnlock()
	return ok
}

func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := Stats{Total: len(r.conns)}
	for _, conn := range r.conns {
		switch conn.Kind {
		case models.KindDriver:
			s.Drivers++
		case models.KindClient:
			s.Clients++
		}
	}
	return s
}

// IdleParties returns the ids of connections whose last activity is
// older than idleAfter.
func (r *Registry) IdleParties(idleAfter time.Duration) []string {
	cutoff := r.now().Add(-idleAfter)
	r.mu.RLock()
	defer r.mu.RUnlock()
	var idle []string
	for id, conn := range r.conns {
		if conn.lastActive.Before(cutoff) {
			idle = append(idle, id)
		}
	}
	return idle
}

func (r *Registry) snapshot(kind models.PartyKind) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.conns))
	for id, conn := range r.conns {
		if kind == models.KindAll || conn.Kind == kind {
			ids = append(ids, id)
		}
	}
	return ids
}
