package drivers

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/example/taxi-dispatch/internal/models"
	"github.com/example/taxi-dispatch/internal/observability"
)

// Mirror receives driver position updates, typically into Redis. A nil
// mirror disables mirroring.
type Mirror interface {
	Upsert(d models.Driver) error
}

var (
	driverNames = []string{
		"Aibek", "Daulet", "Erlan", "Farid", "Gulnar", "Halil", "Ilyas", "Jasmin", "Kairat", "Laila",
		"Madina", "Nazar", "Omar", "Patima", "Qasim", "Raisa", "Sultan", "Tahir", "Ulpan", "Viktor",
	}
	vehicleTypes    = []string{"sedan", "SUV", "hatchback", "coupe", "wagon"}
	licensePrefixes = []string{"KZ", "AST", "ALA", "KAR", "PAV"}
)

// Pool is the simulated driver supply: it generates synthetic driver
// accounts scattered around a city center and drifts their positions on
// a fixed interval. It stands in for a real fleet feed; the dispatch
// core only reads from it.
type Pool struct {
	mu      sync.RWMutex
	drivers map[string]*models.Driver
	order   []string

	center   models.Coord
	interval time.Duration
	mirror   Mirror
	logger   *slog.Logger
	rng      *rand.Rand
	now      func() time.Time

	stop chan struct{}
	done chan struct{}
}

func NewPool(center models.Coord, interval time.Duration, mirror Mirror, logger *slog.Logger) *Pool {
	return &Pool{
		drivers:  make(map[string]*models.Driver),
		center:   center,
		interval: interval,
		mirror:   mirror,
		logger:   logger,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		now:      time.Now,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Generate creates count synthetic drivers around the center, roughly
// 70% of them online.
func (p *Pool) Generate(count int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := 0; i < count; i++ {
		d := p.newDriver(i)
		p.drivers[d.ID] = d
		p.order = append(p.order, d.ID)
		if d.Online {
			observability.DriversOnline.Inc()
		}
	}
	p.logger.Info("drivers_generated", "count", count, "total", len(p.drivers))
}

// AddOne generates a single extra driver and returns it.
func (p *Pool) AddOne() models.Driver {
	p.mu.Lock()
	d := p.newDriver(len(p.order))
	p.drivers[d.ID] = d
	p.order = append(p.order, d.ID)
	if d.Online {
		observability.DriversOnline.Inc()
	}
	p.mu.Unlock()
	p.logger.Info("driver_added", "driver_id", d.ID, "name", d.Name)
	return *d
}

// newDriver builds one synthetic driver. Caller holds p.mu.
func (p *Pool) newDriver(seq int) *models.Driver {
	id := fmt.Sprintf("driver_%d", 1000+p.rng.Intn(9000))
	for _, taken := p.drivers[id]; taken; _, taken = p.drivers[id] {
		id = fmt.Sprintf("driver_%d", 1000+p.rng.Intn(9000))
	}
	return &models.Driver{
		ID:   id,
		Name: fmt.Sprintf("%s %c", driverNames[p.rng.Intn(len(driverNames))], 'A'+seq%26),
		Loc: models.Coord{
			Lat: p.center.Lat + p.rng.Float64()*0.1 - 0.05,
			Lng: p.center.Lng + p.rng.Float64()*0.1 - 0.05,
		},
		VehicleType: vehicleTypes[p.rng.Intn(len(vehicleTypes))],
		LicensePlate: fmt.Sprintf("%s%d%c%c",
			licensePrefixes[p.rng.Intn(len(licensePrefixes))],
			100+p.rng.Intn(900), 'A'+rune(p.rng.Intn(26)), 'A'+rune(p.rng.Intn(26))),
		Rating:     4.0 + p.rng.Float64(),
		Online:     p.rng.Float64() > 0.3,
		TotalRides: 50 + p.rng.Intn(450),
		LastUpdate: p.now(),
	}
}

// Start launches the periodic position-drift loop.
func (p *Pool) Start() {
	go p.run()
}

// Stop tears the loop down and waits for it to exit.
func (p *Pool) Stop() {
	close(p.stop)
	<-p.done
}

func (p *Pool) run() {
	defer close(p.done)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.DriftPositions()
		case <-p.stop:
			return
		}
	}
}

// DriftPositions applies a small random movement to every online driver
// and pushes the new positions to the mirror when one is configured.
func (p *Pool) DriftPositions() {
	p.mu.Lock()
	updated := make([]models.Driver, 0, len(p.order))
	for _, id := range p.order {
		d := p.drivers[id]
		if !d.Online {
			continue
		}
		d.Loc.Lat += p.rng.Float64()*0.002 - 0.001
		d.Loc.Lng += p.rng.Float64()*0.002 - 0.001
		d.SpeedKmh = p.rng.Float64() * 60
		d.Heading = p.rng.Float64() * 360
		d.LastUpdate = p.now()
		updated = append(updated, *d)
	}
	p.mu.Unlock()

	if p.mirror != nil {
		for _, d := range updated {
			if err := p.mirror.Upsert(d); err != nil {
				p.logger.Warn("driver_mirror_failed", "driver_id", d.ID, "error", err)
			}
		}
	}
	p.logger.Debug("driver_positions_updated", "online", len(updated))
}

// UpdateLocation applies a position reported by a connected driver, for
// drivers that are pool members.
func (p *Pool) UpdateLocation(driverID string, loc models.Coord) bool {
	p.mu.Lock()
	d, ok := p.drivers[driverID]
	if ok {
		d.Loc = loc
		d.LastUpdate = p.now()
	}
	p.mu.Unlock()
	return ok
}

func (p *Pool) Describe(driverID string) (models.Driver, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if d, ok := p.drivers[driverID]; ok {
		return *d, true
	}
	return models.Driver{}, false
}

// All returns every driver in generation order.
func (p *Pool) All() []models.Driver {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]models.Driver, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, *p.drivers[id])
	}
	return out
}

// Online returns only the drivers currently marked online.
func (p *Pool) Online() []models.Driver {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]models.Driver, 0, len(p.order))
	for _, id := range p.order {
		if d := p.drivers[id]; d.Online {
			out = append(out, *d)
		}
	}
	return out
}

// SetStatus flips a driver's online flag and reports whether the driver
// exists.
func (p *Pool) SetStatus(driverID string, online bool) bool {
	p.mu.Lock()
	d, ok := p.drivers[driverID]
	if ok && d.Online != online {
		d.Online = online
		d.LastUpdate = p.now()
		if online {
			observability.DriversOnline.Inc()
		} else {
			observability.DriversOnline.Dec()
		}
	}
	p.mu.Unlock()
	if ok {
		p.logger.Info("driver_status", "driver_id", driverID, "online", online)
	}
	return ok
}

// PoolStats summarises the simulated fleet.
type PoolStats struct {
	Total   int `json:"total_drivers"`
	Online  int `json:"online_drivers"`
	Offline int `json:"offline_drivers"`
}

func (p *Pool) Stats() PoolStats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s := PoolStats{Total: len(p.drivers)}
	for _, d := range p.drivers {
		if d.Online {
			s.Online++
		}
	}
	s.Offline = s.Total - s.Online
	return s
}
