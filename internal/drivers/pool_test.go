package drivers

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/example/taxi-dispatch/internal/models"
)

var testCenter = models.Coord{Lat: 51.1694, Lng: 71.4491}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeMirror struct {
	upserts []models.Driver
	err     error
}

func (f *fakeMirror) Upsert(d models.Driver) error {
	f.upserts = append(f.upserts, d)
	return f.err
}

func TestGeneratePopulatesFleet(t *testing.T) {
	p := NewPool(testCenter, time.Minute, nil, testLogger())
	p.Generate(50)

	all := p.All()
	if len(all) != 50 {
		t.Fatalf("drivers: %d, want 50", len(all))
	}
	ids := make(map[string]bool)
	for _, d := range all {
		if ids[d.ID] {
			t.Fatalf("duplicate driver id %s", d.ID)
		}
		ids[d.ID] = true
		if !strings.HasPrefix(d.ID, "driver_") {
			t.Fatalf("unexpected id %q", d.ID)
		}
		if d.Name == "" || d.VehicleType == "" || d.LicensePlate == "" {
			t.Fatalf("incomplete driver: %+v", d)
		}
		if d.Loc.Lat < testCenter.Lat-0.05 || d.Loc.Lat > testCenter.Lat+0.05 {
			t.Fatalf("latitude out of range: %f", d.Loc.Lat)
		}
		if d.Rating < 4.0 || d.Rating > 5.0 {
			t.Fatalf("rating out of range: %f", d.Rating)
		}
	}

	stats := p.Stats()
	if stats.Total != 50 || stats.Online+stats.Offline != 50 {
		t.Fatalf("stats: %+v", stats)
	}
	if stats.Online == 0 {
		t.Fatal("no drivers online out of 50")
	}
}

func TestAddOne(t *testing.T) {
	p := NewPool(testCenter, time.Minute, nil, testLogger())
	d := p.AddOne()

	got, ok := p.Describe(d.ID)
	if !ok || got.ID != d.ID || got.Name != d.Name {
		t.Fatalf("Describe(%s): ok=%v got=%+v", d.ID, ok, got)
	}
}

func TestDescribeUnknownDriver(t *testing.T) {
	p := NewPool(testCenter, time.Minute, nil, testLogger())
	if _, ok := p.Describe("driver_0"); ok {
		t.Fatal("unknown driver described")
	}
}

func TestDriftMovesOnlineDriversAndMirrors(t *testing.T) {
	mirror := &fakeMirror{}
	p := NewPool(testCenter, time.Minute, mirror, testLogger())
	p.Generate(30)

	before := make(map[string]models.Coord)
	online := 0
	for _, d := range p.All() {
		before[d.ID] = d.Loc
		if d.Online {
			online++
		}
	}

	p.DriftPositions()

	if len(mirror.upserts) != online {
		t.Fatalf("mirrored %d drivers, want %d", len(mirror.upserts), online)
	}
	for _, d := range p.All() {
		prev := before[d.ID]
		if !d.Online {
			if d.Loc != prev {
				t.Fatalf("offline driver %s moved", d.ID)
			}
			continue
		}
		if d.Loc.Lat < prev.Lat-0.001 || d.Loc.Lat > prev.Lat+0.001 {
			t.Fatalf("driver %s jumped: %f -> %f", d.ID, prev.Lat, d.Loc.Lat)
		}
	}
}

func TestDriftToleratesMirrorFailure(t *testing.T) {
	mirror := &fakeMirror{err: errors.New("redis down")}
	p := NewPool(testCenter, time.Minute, mirror, testLogger())
	p.Generate(10)

	p.DriftPositions()
	// failures are logged, not fatal
	p.DriftPositions()
}

func TestUpdateLocation(t *testing.T) {
	p := NewPool(testCenter, time.Minute, nil, testLogger())
	d := p.AddOne()

	loc := models.Coord{Lat: 51.2, Lng: 71.5}
	if !p.UpdateLocation(d.ID, loc) {
		t.Fatal("update for known driver refused")
	}
	got, _ := p.Describe(d.ID)
	if got.Loc != loc {
		t.Fatalf("location: %+v, want %+v", got.Loc, loc)
	}
	if p.UpdateLocation("driver_0", loc) {
		t.Fatal("update for unknown driver accepted")
	}
}

func TestSetStatus(t *testing.T) {
	p := NewPool(testCenter, time.Minute, nil, testLogger())
	d := p.AddOne()

	if !p.SetStatus(d.ID, false) {
		t.Fatal("status change for known driver refused")
	}
	if got, _ := p.Describe(d.ID); got.Online {
		t.Fatal("driver still online")
	}
	if len(p.Online()) != 0 {
		t.Fatalf("online list: %v", p.Online())
	}
	if !p.SetStatus(d.ID, true) {
		t.Fatal("second status change refused")
	}
	if len(p.Online()) != 1 {
		t.Fatalf("online list after re-enable: %v", p.Online())
	}
	if p.SetStatus("driver_0", true) {
		t.Fatal("status change for unknown driver accepted")
	}
}

func TestStartStop(t *testing.T) {
	p := NewPool(testCenter, 5*time.Millisecond, nil, testLogger())
	p.Generate(3)
	p.Start()
	time.Sleep(20 * time.Millisecond)
	p.Stop()
}
