package registry

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/example/taxi-dispatch/internal/models"
)

// fakeConn implements Conn for tests
type fakeConn struct {
	sent     []any
	sendErr  error
	closes   int
	closeErr error
}

func (f *fakeConn) Send(v any) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, v)
	return nil
}

func (f *fakeConn) Close() error {
	f.closes++
	return f.closeErr
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRegisterReplacesAndClosesPrior(t *testing.T) {
	r := New(testLogger())
	old := &fakeConn{}
	fresh := &fakeConn{}

	r.Register("d1", models.KindDriver, old)
	r.Register("d1", models.KindDriver, fresh)

	if old.closes != 1 {
		t.Fatalf("prior connection closed %d times, want 1", old.closes)
	}
	if s := r.Stats(); s.Total != 1 || s.Drivers != 1 {
		t.Fatalf("unexpected stats after replace: %+v", s)
	}
	if !r.Send("d1", "hello") {
		t.Fatal("send to replaced party failed")
	}
	if len(fresh.sent) != 1 || len(old.sent) != 0 {
		t.Fatalf("message went to wrong connection: fresh=%d old=%d", len(fresh.sent), len(old.sent))
	}
}

func TestRegisterReplaceProceedsWhenCloseFails(t *testing.T) {
	r := New(testLogger())
	old := &fakeConn{closeErr: errors.New("already closed")}
	r.Register("c1", models.KindClient, old)
	r.Register("c1", models.KindClient, &fakeConn{})
	if s := r.Stats(); s.Total != 1 || s.Clients != 1 {
		t.Fatalf("replacement did not proceed: %+v", s)
	}
}

func TestRemove(t *testing.T) {
	r := New(testLogger())
	c := &fakeConn{}
	r.Register("d1", models.KindDriver, c)

	if !r.Remove("d1") {
		t.Fatal("remove of known party returned false")
	}
	if c.closes != 1 {
		t.Fatalf("connection closed %d times, want 1", c.closes)
	}
	if r.Remove("d1") {
		t.Fatal("second remove returned true")
	}
	if r.Remove("never-seen") {
		t.Fatal("remove of unknown party returned true")
	}
}

func TestRemoveConnIgnoresStaleHandle(t *testing.T) {
	r := New(testLogger())
	old := &fakeConn{}
	fresh := &fakeConn{}
	r.Register("d1", models.KindDriver, old)
	r.Register("d1", models.KindDriver, fresh)

	// A reader goroutine holding the replaced connection exits and runs
	// its cleanup; the replacement must survive.
	if r.RemoveConn("d1", old) {
		t.Fatal("stale handle removed the live connection")
	}
	if !r.IsReachable("d1") {
		t.Fatal("live connection was evicted")
	}
	if !r.RemoveConn("d1", fresh) {
		t.Fatal("live handle could not remove its own connection")
	}
}

func TestSendMissReturnsFalse(t *testing.T) {
	r := New(testLogger())
	if r.Send("ghost", "msg") {
		t.Fatal("send to unknown party returned true")
	}
}

func TestSendFailureEvictsConnection(t *testing.T) {
	r := New(testLogger())
	c := &fakeConn{sendErr: errors.New("broken pipe")}
	r.Register("c1", models.KindClient, c)

	if r.Send("c1", "msg") {
		t.Fatal("failed send returned true")
	}
	if r.IsReachable("c1") {
		t.Fatal("connection not evicted after failed send")
	}
	if c.closes != 1 {
		t.Fatalf("evicted connection closed %d times, want 1", c.closes)
	}
}

func TestSendRefreshesActivity(t *testing.T) {
	r := New(testLogger())
	now := time.Now()
	r.now = func() time.Time { return now }
	r.Register("d1", models.KindDriver, &fakeConn{})

	now = now.Add(10 * time.Minute)
	if idle := r.IdleParties(5 * time.Minute); len(idle) != 1 {
		t.Fatalf("expected 1 idle party, got %d", len(idle))
	}

	r.Send("d1", "msg")
	if idle := r.IdleParties(5 * time.Minute); len(idle) != 0 {
		t.Fatalf("send did not refresh activity, idle=%v", idle)
	}
}

func TestBroadcastFiltersByKind(t *testing.T) {
	r := New(testLogger())
	d1, d2, c1 := &fakeConn{}, &fakeConn{}, &fakeConn{}
	r.Register("d1", models.KindDriver, d1)
	r.Register("d2", models.KindDriver, d2)
	r.Register("c1", models.KindClient, c1)

	if n := r.Broadcast(models.KindDriver, "offer"); n != 2 {
		t.Fatalf("driver broadcast delivered %d, want 2", n)
	}
	if len(c1.sent) != 0 {
		t.Fatal("client received a driver broadcast")
	}
	if n := r.Broadcast(models.KindAll, "shutdown"); n != 3 {
		t.Fatalf("all broadcast delivered %d, want 3", n)
	}
}

func TestBroadcastCountsOnlySuccessfulDeliveries(t *testing.T) {
	r := New(testLogger())
	r.Register("d1", models.KindDriver, &fakeConn{})
	r.Register("d2", models.KindDriver, &fakeConn{sendErr: errors.New("gone")})

	if n := r.Broadcast(models.KindDriver, "offer"); n != 1 {
		t.Fatalf("broadcast counted %d deliveries, want 1", n)
	}
	if r.IsReachable("d2") {
		t.Fatal("dead connection survived the broadcast")
	}
}

func TestStats(t *testing.T) {
	r := New(testLogger())
	r.Register("d1", models.KindDriver, &fakeConn{})
	r.Register("c1", models.KindClient, &fakeConn{})
	r.Register("c2", models.KindClient, &fakeConn{})

	s := r.Stats()
	if s.Total != 3 || s.Drivers != 1 || s.Clients != 2 {
		t.Fatalf("unexpected stats: %+v", s)
	}
}
