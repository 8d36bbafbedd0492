package models

import "time"

// Wire message type discriminators. Inbound and outbound messages share
// the same envelope shape: a JSON object with a "type" field.
const (
	TypeConnect         = "connect"
	TypeRequestRide     = "requestRide"
	TypeAcceptRide      = "acceptRide"
	TypeRejectRide      = "rejectRide"
	TypeCancelRide      = "cancelRide"
	TypeHeartbeat       = "heartbeat"
	TypeDisconnect      = "disconnect"
	TypeUpdateLocation  = "updateLocation"
	TypeConnected       = "connected"
	TypeRideRequest     = "rideRequest"
	TypeRideAccepted    = "rideAccepted"
	TypeRideAssigned    = "rideAssigned"
	TypeRideCancelled   = "rideCancelled"
	TypeLocationUpdated = "locationUpdated"
	TypeError           = "error"
	TypeUnknownCommand  = "unknown_command"
	TypeServerShutdown  = "server_shutdown"
)

// Cancellation reasons carried on rideCancelled notices.
const (
	ReasonTooManyRejections = "too_many_rejections"
	ReasonClientCancelled   = "client_cancelled"
	ReasonDriverRejected    = "driver_rejected"
)

// LatLng is the wire form of a coordinate: a [lat, lng] pair.
type LatLng [2]float64

func (p LatLng) Coord() Coord { return Coord{Lat: p[0], Lng: p[1]} }

func (c Coord) LatLng() LatLng { return LatLng{c.Lat, c.Lng} }

// Envelope carries only the discriminator; the payload is re-decoded
// into the concrete event type once the kind is known.
type Envelope struct {
	Type string `json:"type"`
}

// Inbound events.

type HelloEvent struct {
	UserID   string `json:"userId"`
	UserType string `json:"userType"`
}

type RideRequestEvent struct {
	RideID      string `json:"rideId"`
	UserID      string `json:"userId"`
	Pickup      LatLng `json:"pickupLocation"`
	Destination LatLng `json:"destinationLocation"`
}

type RideAcceptEvent struct {
	RideID   string `json:"rideId"`
	DriverID string `json:"driverId"`
	ClientID string `json:"clientId"`
}

type RideRejectEvent struct {
	RideID   string `json:"rideId"`
	DriverID string `json:"driverId"`
	Reason   string `json:"reason"`
}

type RideCancelEvent struct {
	RideID string `json:"rideId"`
	UserID string `json:"userId"`
}

type LocationUpdateEvent struct {
	UserID   string `json:"userId"`
	Location LatLng `json:"location"`
}

// Outbound notifications.

type ConnectedNotice struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type RideRequestNotice struct {
	Type        string    `json:"type"`
	RideID      string    `json:"rideId"`
	UserID      string    `json:"userId"`
	Pickup      string    `json:"pickup"`
	Destination string    `json:"destination"`
	Location    LatLng    `json:"location"`
	Timestamp   time.Time `json:"timestamp"`
}

type RideAcceptedNotice struct {
	Type           string    `json:"type"`
	RideID         string    `json:"rideId"`
	DriverID       string    `json:"driverId"`
	DriverName     string    `json:"driverName"`
	DriverLocation LatLng    `json:"driverLocation"`
	VehicleType    string    `json:"vehicleType"`
	LicensePlate   string    `json:"licensePlate"`
	Pickup         LatLng    `json:"pickupLocation"`
	Destination    LatLng    `json:"destinationLocation"`
	AcceptedAt     time.Time `json:"acceptedAt"`
	ETA            ETA       `json:"estimatedArrivalTime"`
}

type RideAssignedNotice struct {
	Type        string    `json:"type"`
	RideID      string    `json:"rideId"`
	ClientID    string    `json:"clientId"`
	Pickup      LatLng    `json:"pickupLocation"`
	Destination LatLng    `json:"destinationLocation"`
	AcceptedAt  time.Time `json:"acceptedAt"`
}

type RideCancelledNotice struct {
	Type    string `json:"type"`
	RideID  string `json:"rideId"`
	Reason  string `json:"reason"`
	Message string `json:"message,omitempty"`
}

type LocationUpdatedNotice struct {
	Type    string `json:"type"`
	Success bool   `json:"success"`
}

type HeartbeatNotice struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

type ErrorNotice struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type ShutdownNotice struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// RideEvent is the journal record published to Kafka on every ride
// lifecycle transition.
type RideEvent struct {
	Event     string    `json:"event"` // requested, accepted, cancelled
	RideID    string    `json:"rideId"`
	ClientID  string    `json:"clientId"`
	DriverID  string    `json:"driverId,omitempty"`
	Status    string    `json:"status"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Ack is the synchronous reply sent back on the connection that issued
// an event.
type Ack struct {
	Success bool   `json:"success,omitempty"`
	RideID  string `json:"rideId,omitempty"`
	ETA     *ETA   `json:"eta,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
