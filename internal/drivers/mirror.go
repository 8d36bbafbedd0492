package drivers

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/taxi-dispatch/internal/models"
)

// RedisMirror publishes simulated driver positions into Redis so other
// processes can query the fleet without touching this one: a GEO set of
// positions plus a metadata hash per driver.
type RedisMirror struct {
	client *redis.Client
	geoKey string
}

func NewRedisMirror(addr, password, geoKey string) *RedisMirror {
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	return &RedisMirror{client: c, geoKey: geoKey}
}

func (m *RedisMirror) Upsert(d models.Driver) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := m.client.GeoAdd(ctx, m.geoKey, &redis.GeoLocation{
		Longitude: d.Loc.Lng,
		Latitude:  d.Loc.Lat,
		Name:      d.ID,
	}).Result(); err != nil {
		return err
	}
	return m.client.HSet(ctx, metaKey(d.ID), map[string]interface{}{
		"name":    d.Name,
		"rating":  fmt.Sprintf("%.1f", d.Rating),
		"online":  strconv.FormatBool(d.Online),
		"vehicle": d.VehicleType,
		"updated": d.LastUpdate.Format(time.RFC3339),
	}).Err()
}

func (m *RedisMirror) Close() error { return m.client.Close() }

func metaKey(id string) string { return "driver:meta:" + id }
