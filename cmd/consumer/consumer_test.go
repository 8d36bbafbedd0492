package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/taxi-dispatch/internal/models"
)

// fakeUpdater implements RedisUpdater for tests
type fakeUpdater struct {
	failHSet  int // number of times to fail HSet before succeeding
	failIncr  int // number of times to fail Incr before succeeding
	hCalls    int
	incrCalls int
	lastKey   string
	lastVals  map[string]interface{}
}

func (f *fakeUpdater) HSet(ctx context.Context, key string, values map[string]interface{}) error {
	f.hCalls++
	if f.hCalls <= f.failHSet {
		return errors.New("hset fail")
	}
	f.lastKey = key
	f.lastVals = values
	return nil
}

func (f *fakeUpdater) Incr(ctx context.Context, key string) error {
	f.incrCalls++
	if f.incrCalls <= f.failIncr {
		return errors.New("incr fail")
	}
	return nil
}

func TestMirrorWithRetry_SucceedsAfterRetries(t *testing.T) {
	f := &fakeUpdater{failHSet: 1, failIncr: 1}
	ev := &models.RideEvent{Event: "accepted", RideID: "r1", ClientID: "c1", DriverID: "d1", Status: "accepted", Timestamp: time.Now()}
	ctx := context.Background()
	start := time.Now()
	if err := mirrorWithRetry(ctx, f, ev, 3, 10*time.Millisecond); err != nil {
		t.Fatalf("expected success, got err=%v", err)
	}
	if f.hCalls < 2 || f.incrCalls < 2 {
		t.Fatalf("expected retries, got hset=%d incr=%d", f.hCalls, f.incrCalls)
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Fatalf("expected at least one backoff")
	}
	if f.lastKey != "ride:state:r1" {
		t.Fatalf("unexpected key %q", f.lastKey)
	}
	if f.lastVals["driverId"] != "d1" {
		t.Fatalf("expected driverId in hash, got %v", f.lastVals)
	}
}

func TestMirrorWithRetry_FailsWhenExhausted(t *testing.T) {
	f := &fakeUpdater{failHSet: 5}
	ev := &models.RideEvent{Event: "requested", RideID: "r1", ClientID: "c1", Status: "pending", Timestamp: time.Now()}
	ctx := context.Background()
	if err := mirrorWithRetry(ctx, f, ev, 3, 5*time.Millisecond); err == nil {
		t.Fatalf("expected error after retries")
	}
}

func TestMirrorWithRetry_OmitsEmptyFields(t *testing.T) {
	f := &fakeUpdater{}
	ev := &models.RideEvent{Event: "requested", RideID: "r2", ClientID: "c2", Status: "pending", Timestamp: time.Now()}
	if err := mirrorWithRetry(context.Background(), f, ev, 1, time.Millisecond); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, ok := f.lastVals["driverId"]; ok {
		t.Fatalf("driverId should be absent for a requested event")
	}
	if _, ok := f.lastVals["reason"]; ok {
		t.Fatalf("reason should be absent for a requested event")
	}
}
