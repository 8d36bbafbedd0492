package models

import "time"

type Coord struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// PartyKind distinguishes the two sides of a ride connection.
type PartyKind string

const (
	KindDriver PartyKind = "driver"
	KindClient PartyKind = "client"
	// KindAll is accepted by broadcast-style operations only.
	KindAll PartyKind = "all"
)

type RideStatus string

const (
	StatusPending   RideStatus = "pending"
	StatusAccepted  RideStatus = "accepted"
	StatusCancelled RideStatus = "cancelled"
)

// Rejection records one driver's refusal of a pending ride.
type Rejection struct {
	DriverID   string    `json:"driverId"`
	Reason     string    `json:"reason"`
	RejectedAt time.Time `json:"rejectedAt"`
}

// Ride is one requester-to-driver matching transaction. Rides are owned
// by the ledger; callers only ever see copies.
type Ride struct {
	ID          string      `json:"rideId"`
	ClientID    string      `json:"clientId"`
	DriverID    string      `json:"driverId,omitempty"`
	Pickup      Coord       `json:"pickupLocation"`
	Destination Coord       `json:"destinationLocation"`
	Status      RideStatus  `json:"status"`
	CreatedAt   time.Time   `json:"createdAt"`
	AcceptedAt  time.Time   `json:"acceptedAt,omitzero"`
	Rejections  []Rejection `json:"rejections,omitempty"`
}

// ETA is the synthetic arrival estimate attached to an acceptance.
type ETA struct {
	DistanceKm       float64 `json:"distance"`
	EstimatedMinutes int     `json:"estimatedMinutes"`
	// EstimatedArrival is a Unix timestamp in milliseconds.
	EstimatedArrival int64 `json:"estimatedArrival"`
}

// Driver is a simulated pool member, not a connection; pool membership
// and live connections are tracked independently.
type Driver struct {
	ID           string    `json:"driverId"`
	Name         string    `json:"name"`
	Loc          Coord     `json:"location"`
	SpeedKmh     float64   `json:"spd"`
	Heading      float64   `json:"azm"`
	VehicleType  string    `json:"vehicleType"`
	LicensePlate string    `json:"licensePlate"`
	Rating       float64   `json:"rating"`
	Online       bool      `json:"online"`
	TotalRides   int       `json:"totalRides"`
	LastUpdate   time.Time `json:"lastUpdate"`
}
