package storage

import (
	"sync"

	"github.com/example/taxi-dispatch/internal/models"
)

// RideArchive persists settled rides for later inspection. The dispatch
// core treats it as best-effort; a failed save never fails the ride.
type RideArchive interface {
	SaveRide(r models.Ride) error
}

// MemoryArchive is the default archive when no database is configured.
type MemoryArchive struct {
	mu    sync.RWMutex
	rides map[string]models.Ride
}

func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{rides: make(map[string]models.Ride)}
}

func (m *MemoryArchive) SaveRide(r models.Ride) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides[r.ID] = r
	return nil
}

func (m *MemoryArchive) Get(id string) (models.Ride, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rides[id]
	return r, ok
}
