package ledger

import (
	"log/slog"
	"sync"
	"time"

	"github.com/example/taxi-dispatch/internal/models"
	"github.com/example/taxi-dispatch/internal/observability"
)

// DefaultRejectionLimit cancels a pending ride once this many drivers
// have turned it down.
const DefaultRejectionLimit = 3

// Ledger owns ride records through their lifecycle. Pending rides live
// apart from settled (accepted or cancelled) ones so pending
// enumeration stays proportional to the pending count. Rides are never
// deleted, only status-transitioned; all methods are safe for
// concurrent use and hand out copies, never the owned record.
type Ledger struct {
	mu           sync.Mutex
	pending      map[string]*models.Ride
	settled      map[string]*models.Ride
	pendingOrder []string
	settledOrder []string

	rejectionLimit int
	logger         *slog.Logger
	now            func() time.Time
}

func New(rejectionLimit int, logger *slog.Logger) *Ledger {
	if rejectionLimit <= 0 {
		rejectionLimit = DefaultRejectionLimit
	}
	return &Ledger{
		pending:        make(map[string]*models.Ride),
		settled:        make(map[string]*models.Ride),
		rejectionLimit: rejectionLimit,
		logger:         logger,
		now:            time.Now,
	}
}

// CreatePending inserts a new pending ride. A ride id already known in
// any status is rejected with ErrRideExists.
func (l *Ledger) CreatePending(rideID, clientID string, pickup, destination models.Coord) (models.Ride, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.pending[rideID]; ok {
		return models.Ride{}, ErrRideExists
	}
	if _, ok := l.settled[rideID]; ok {
		return models.Ride{}, ErrRideExists
	}

	ride := &models.Ride{
		ID:          rideID,
		ClientID:    clientID,
		Pickup:      pickup,
		Destination: destination,
		Status:      models.StatusPending,
		CreatedAt:   l.now(),
	}
	l.pending[rideID] = ride
	l.pendingOrder = append(l.pendingOrder, rideID)

	observability.RidesRequested.Inc()
	l.logger.Info("ride_created", "ride_id", rideID, "client_id", clientID)
	return clone(ride), nil
}

// Accept transitions a pending ride to accepted and assigns the driver.
// The driver is set exactly once; a ride that is already settled yields
// ErrInvalidState so replays and lost races are caller-visible.
func (l *Ledger) Accept(rideID, driverID string) (models.Ride, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ride, ok := l.pending[rideID]
	if !ok {
		if _, settled := l.settled[rideID]; settled {
			return models.Ride{}, ErrInvalidState
		}
		return models.Ride{}, ErrRideNotFound
	}

	ride.Status = models.StatusAccepted
	ride.DriverID = driverID
	ride.AcceptedAt = l.now()
	l.settle(rideID, ride)

	observability.RidesSettled.WithLabelValues(string(models.StatusAccepted)).Inc()
	l.logger.Info("ride_accepted", "ride_id", rideID, "driver_id", driverID)
	return clone(ride), nil
}

// RecordRejection appends a rejection record to a pending ride. When
// the rejection count reaches the limit the ride is cancelled in the
// same critical section, so no further rejection can land on it. The
// returned bool reports whether this rejection cancelled the ride.
func (l *Ledger) RecordRejection(rideID, driverID, reason string) (models.Ride, bool, error) {
	if reason == "" {
		reason = models.ReasonDriverRejected
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	ride, ok := l.pending[rideID]
	if !ok {
		return models.Ride{}, false, ErrRideNotFound
	}

	ride.Rejections = append(ride.Rejections, models.Rejection{
		DriverID:   driverID,
		Reason:     reason,
		RejectedAt: l.now(),
	})
	observability.RejectionsTotal.Inc()

	if len(ride.Rejections) < l.rejectionLimit {
		l.logger.Info("ride_rejected", "ride_id", rideID, "driver_id", driverID, "rejections", len(ride.Rejections))
		return clone(ride), false, nil
	}

	ride.Status = models.StatusCancelled
	l.settle(rideID, ride)
	observability.RidesSettled.WithLabelValues(string(models.StatusCancelled)).Inc()
	l.logger.Info("ride_cancelled", "ride_id", rideID, "reason", models.ReasonTooManyRejections)
	return clone(ride), true, nil
}

// CancelByRequester cancels a pending ride on behalf of its requester.
// It reports false when the ride is absent, already settled, or owned
// by a different requester; callers cannot tell these apart.
func (l *Ledger) CancelByRequester(rideID, clientID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	ride, ok := l.pending[rideID]
	if !ok || ride.ClientID != clientID {
		return false
	}

	ride.Status = models.StatusCancelled
	l.settle(rideID, ride)
	observability.RidesSettled.WithLabelValues(string(models.StatusCancelled)).Inc()
	l.logger.Info("ride_cancelled", "ride_id", rideID, "reason", models.ReasonClientCancelled)
	return true
}

func (l *Ledger) Get(rideID string) (models.Ride, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if ride, ok := l.pending[rideID]; ok {
		return clone(ride), true
	}
	if ride, ok := l.settled[rideID]; ok {
		return clone(ride), true
	}
	return models.Ride{}, false
}

// ListByStatus returns rides in insertion order within each underlying
// collection. An empty status concatenates pending then accepted, so
// the result is not globally chronological across the seam.
func (l *Ledger) ListByStatus(status models.RideStatus, limit int) []models.Ride {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []models.Ride
	appendFrom := func(order []string, store map[string]*models.Ride, want models.RideStatus) {
		for _, id := range order {
			if limit > 0 && len(out) >= limit {
				return
			}
			ride := store[id]
			if want == "" || ride.Status == want {
				out = append(out, clone(ride))
			}
		}
	}

	switch status {
	case models.StatusPending:
		appendFrom(l.pendingOrder, l.pending, models.StatusPending)
	case models.StatusAccepted, models.StatusCancelled:
		appendFrom(l.settledOrder, l.settled, status)
	default:
		appendFrom(l.pendingOrder, l.pending, "")
		appendFrom(l.settledOrder, l.settled, models.StatusAccepted)
	}
	return out
}

// Counts reports ride totals per status for the stats surface.
func (l *Ledger) Counts() (pending, accepted, cancelled int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	pending = len(l.pending)
	for _, ride := range l.settled {
		if ride.Status == models.StatusAccepted {
			accepted++
		} else {
			cancelled++
		}
	}
	return pending, accepted, cancelled
}

// settle moves a ride out of the pending collection. Caller holds l.mu.
func (l *Ledger) settle(rideID string, ride *models.Ride) {
	delete(l.pending, rideID)
	for i, id := range l.pendingOrder {
		if id == rideID {
			l.pendingOrder = append(l.pendingOrder[:i], l.pendingOrder[i+1:]...)
			break
		}
	}
	l.settled[rideID] = ride
	l.settledOrder = append(l.settledOrder, rideID)
}

func clone(r *models.Ride) models.Ride {
	out := *r
	if len(r.Rejections) > 0 {
		out.Rejections = append([]models.Rejection(nil), r.Rejections...)
	}
	return out
}
