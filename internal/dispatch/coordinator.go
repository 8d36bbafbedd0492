package dispatch

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/example/taxi-dispatch/internal/eta"
	"github.com/example/taxi-dispatch/internal/ledger"
	"github.com/example/taxi-dispatch/internal/models"
)

// Connections is the slice of the registry the coordinator needs.
type Connections interface {
	Send(partyID string, msg any) bool
	Broadcast(kind models.PartyKind, msg any) int
	Remove(partyID string) bool
}

// DriverPool resolves driver metadata for acceptance notices.
type DriverPool interface {
	Describe(driverID string) (models.Driver, bool)
}

// Journal receives ride lifecycle events, best-effort.
type Journal interface {
	Publish(ev models.RideEvent) error
}

// Archive receives settled rides, best-effort.
type Archive interface {
	SaveRide(r models.Ride) error
}

// Coordinator drives the ride state machine: it validates inbound
// events against the ledger and registry, applies the mutation, and
// fans out the resulting notifications. Journal, Archive and Pool are
// optional collaborators; a nil field disables that side effect.
type Coordinator struct {
	Conns   Connections
	Ledger  *ledger.Ledger
	Pool    DriverPool
	Journal Journal
	Archive Archive
	Logger  *slog.Logger

	// Now is swappable for tests.
	Now func() time.Time
}

func (c *Coordinator) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// RideRequested creates a pending ride and broadcasts it to every
// connected driver.
func (c *Coordinator) RideRequested(ev models.RideRequestEvent) (models.Ack, error) {
	if ev.RideID == "" || ev.UserID == "" {
		return models.Ack{}, fmt.Errorf("%w: rideId and userId", ErrMissingFields)
	}

	ride, err := c.Ledger.CreatePending(ev.RideID, ev.UserID, ev.Pickup.Coord(), ev.Destination.Coord())
	if err != nil {
		return models.Ack{}, err
	}

	c.Conns.Broadcast(models.KindDriver, models.RideRequestNotice{
		Type:        models.TypeRideRequest,
		RideID:      ride.ID,
		UserID:      ride.ClientID,
		Pickup:      formatCoord(ride.Pickup),
		Destination: formatCoord(ride.Destination),
		Location:    ride.Pickup.LatLng(),
		Timestamp:   c.now(),
	})
	c.journal(models.RideEvent{Event: "requested", RideID: ride.ID, ClientID: ride.ClientID, Status: string(ride.Status), Timestamp: c.now()})

	return models.Ack{Success: true, RideID: ride.ID}, nil
}

// RideAccepted assigns the driver to a pending ride and notifies both
// parties. Replayed or raced accepts surface the ledger's state error
// and change nothing.
func (c *Coordinator) RideAccepted(ev models.RideAcceptEvent) (models.Ack, error) {
	if ev.RideID == "" || ev.DriverID == "" || ev.ClientID == "" {
		return models.Ack{}, fmt.Errorf("%w: rideId, driverId and clientId", ErrMissingFields)
	}

	ride, err := c.Ledger.Accept(ev.RideID, ev.DriverID)
	if err != nil {
		return models.Ack{}, err
	}

	estimate := eta.Estimate(c.now())

	// Driver metadata comes from the pool when the accepting driver is
	// a known pool member; manual test drivers get placeholders.
	name := "Driver " + shortID(ev.DriverID)
	vehicle, plate := "sedan", "AUTO001"
	loc := ride.Pickup
	if c.Pool != nil {
		if d, ok := c.Pool.Describe(ev.DriverID); ok {
			name, vehicle, plate, loc = d.Name, d.VehicleType, d.LicensePlate, d.Loc
		}
	}

	c.Conns.Send(ev.ClientID, models.RideAcceptedNotice{
		Type:           models.TypeRideAccepted,
		RideID:         ride.ID,
		DriverID:       ride.DriverID,
		DriverName:     name,
		DriverLocation: loc.LatLng(),
		VehicleType:    vehicle,
		LicensePlate:   plate,
		Pickup:         ride.Pickup.LatLng(),
		Destination:    ride.Destination.LatLng(),
		AcceptedAt:     ride.AcceptedAt,
		ETA:            estimate,
	})
	c.Conns.Send(ev.DriverID, models.RideAssignedNotice{
		Type:        models.TypeRideAssigned,
		RideID:      ride.ID,
		ClientID:    ride.ClientID,
		Pickup:      ride.Pickup.LatLng(),
		Destination: ride.Destination.LatLng(),
		AcceptedAt:  ride.AcceptedAt,
	})

	c.archive(ride)
	c.journal(models.RideEvent{Event: "accepted", RideID: ride.ID, ClientID: ride.ClientID, DriverID: ride.DriverID, Status: string(ride.Status), Timestamp: c.now()})

	return models.Ack{Success: true, RideID: ride.ID, ETA: &estimate}, nil
}

// RideRejected records a driver rejection. The third rejection cancels
// the ride and informs the requester.
func (c *Coordinator) RideRejected(ev models.RideRejectEvent) (models.Ack, error) {
	if ev.RideID == "" || ev.DriverID == "" {
		return models.Ack{}, fmt.Errorf("%w: rideId and driverId", ErrMissingFields)
	}

	ride, cancelled, err := c.Ledger.RecordRejection(ev.RideID, ev.DriverID, ev.Reason)
	if err != nil {
		return models.Ack{}, err
	}

	if cancelled {
		c.Conns.Send(ride.ClientID, models.RideCancelledNotice{
			Type:    models.TypeRideCancelled,
			RideID:  ride.ID,
			Reason:  models.ReasonTooManyRejections,
			Message: "Your ride has been cancelled due to multiple driver rejections.",
		})
		c.archive(ride)
		c.journal(models.RideEvent{Event: "cancelled", RideID: ride.ID, ClientID: ride.ClientID, Status: string(ride.Status), Reason: models.ReasonTooManyRejections, Timestamp: c.now()})
	}

	return models.Ack{Success: true, Message: "Ride rejection recorded"}, nil
}

// RideCancelled cancels a pending ride on the requester's behalf and
// tells the drivers to stand down. Unknown ride and wrong requester are
// deliberately indistinguishable.
func (c *Coordinator) RideCancelled(ev models.RideCancelEvent) (models.Ack, error) {
	if ev.RideID == "" || ev.UserID == "" {
		return models.Ack{}, fmt.Errorf("%w: rideId and userId", ErrMissingFields)
	}

	if !c.Ledger.CancelByRequester(ev.RideID, ev.UserID) {
		return models.Ack{}, ErrNotAuthorized
	}

	c.Conns.Broadcast(models.KindDriver, models.RideCancelledNotice{
		Type:   models.TypeRideCancelled,
		RideID: ev.RideID,
		Reason: models.ReasonClientCancelled,
	})
	if ride, ok := c.Ledger.Get(ev.RideID); ok {
		c.archive(ride)
	}
	c.journal(models.RideEvent{Event: "cancelled", RideID: ev.RideID, ClientID: ev.UserID, Status: string(models.StatusCancelled), Reason: models.ReasonClientCancelled, Timestamp: c.now()})

	return models.Ack{Success: true, Message: "Ride cancelled successfully"}, nil
}

// PartyDisconnected drops the party's connection. Rides owned by the
// party are left untouched; a disconnect does not cancel or reassign
// them.
func (c *Coordinator) PartyDisconnected(partyID string) {
	c.Conns.Remove(partyID)
}

func (c *Coordinator) journal(ev models.RideEvent) {
	if c.Journal == nil {
		return
	}
	if err := c.Journal.Publish(ev); err != nil {
		c.Logger.Warn("journal_publish_failed", "ride_id", ev.RideID, "event", ev.Event, "error", err)
	}
}

func (c *Coordinator) archive(ride models.Ride) {
	if c.Archive == nil {
		return
	}
	if err := c.Archive.SaveRide(ride); err != nil {
		c.Logger.Warn("ride_archive_failed", "ride_id", ride.ID, "error", err)
	}
}

func formatCoord(c models.Coord) string {
	return fmt.Sprintf("%.4f, %.4f", c.Lat, c.Lng)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
