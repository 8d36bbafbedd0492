package eta

import (
	"time"

	"github.com/example/taxi-dispatch/internal/models"
)

// Stub values returned for every acceptance. There is no routing
// subsystem in scope, so the estimate is a fixed synthetic placeholder
// rather than a routed calculation.
const (
	stubDistanceKm = 2.5
	stubMinutes    = 8
)

// Estimate returns the placeholder arrival estimate attached to a ride
// acceptance.
func Estimate(now time.Time) models.ETA {
	return models.ETA{
		DistanceKm:       stubDistanceKm,
		EstimatedMinutes: stubMinutes,
		EstimatedArrival: now.Add(stubMinutes * time.Minute).UnixMilli(),
	}
}
