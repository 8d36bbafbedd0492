package eta

import (
	"testing"
	"time"
)

func TestEstimate(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	got := Estimate(now)

	if got.DistanceKm != 2.5 {
		t.Fatalf("distance: %f, want 2.5", got.DistanceKm)
	}
	if got.EstimatedMinutes != 8 {
		t.Fatalf("minutes: %d, want 8", got.EstimatedMinutes)
	}
	want := now.Add(8 * time.Minute).UnixMilli()
	if got.EstimatedArrival != want {
		t.Fatalf("arrival: %d, want %d", got.EstimatedArrival, want)
	}
}
