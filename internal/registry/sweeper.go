package registry

import (
	"log/slog"
	"time"

	"github.com/example/taxi-dispatch/internal/observability"
)

// Sweeper periodically evicts connections idle past a threshold. It is
// an owned background task: Start launches the loop, Stop tears it down
// and waits for it to exit.
type Sweeper struct {
	reg       *Registry
	interval  time.Duration
	idleAfter time.Duration
	logger    *slog.Logger

	stop chan struct{}
	done chan struct{}
}

func NewSweeper(reg *Registry, interval, idleAfter time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		reg:       reg,
		interval:  interval,
		idleAfter: idleAfter,
		logger:    logger,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

func (s *Sweeper) Start() {
	go s.run()
}

func (s *Sweeper) Stop() {
	close(s.stop)
	<-s.done
}

func (s *Sweeper) run() {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-s.stop:
			return
		}
	}
}

// Sweep evicts every connection idle past the threshold. Each eviction
// is independent; a failure closing one connection never aborts the
// rest of the pass.
func (s *Sweeper) Sweep() int {
	idle := s.reg.IdleParties(s.idleAfter)
	evicted := 0
	for _, id := range idle {
		if s.reg.Remove(id) {
			evicted++
			observability.ConnectionsEvicted.Inc()
		}
	}
	if evicted > 0 {
		s.logger.Info("idle_sweep", "evicted", evicted)
	}
	return evicted
}
