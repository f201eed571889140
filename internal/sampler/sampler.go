// Package sampler drives periodic snapshot collection: a tracker for
// counter deltas, an engine that assembles snapshots, a store that
// publishes them, and the background loop that ties them together.
package sampler

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"procscope/internal/model"
)

// stopGrace bounds how long Stop waits for the loop to finish its
// in-flight cycle before giving up on the join.
const stopGrace = 2 * time.Second

// Builder produces one snapshot per call. *Engine is the production
// implementation; tests substitute stubs.
type Builder interface {
	BuildSnapshot() model.Snapshot
}

// Sampler runs a Builder on a fixed interval from a single background
// goroutine and publishes every snapshot to the store. The zero value
// is not usable; construct with NewSampler.
type Sampler struct {
	Interval time.Duration

	builder Builder
	store   *Store
	log     zerolog.Logger

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewSampler wires a sampling loop. It does not start it.
func NewSampler(builder Builder, store *Store, interval time.Duration, log zerolog.Logger) *Sampler {
	return &Sampler{
		Interval: interval,
		builder:  builder,
		store:    store,
		log:      log,
	}
}

// Start launches the sampling goroutine. Starting a running sampler is
// a no-op. The first cycle runs immediately so the store serves real
// data as soon as one pass completes, then the ticker takes over.
func (s *Sampler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	s.log.Info().Dur("interval", s.Interval).Msg("sampling started")
	go s.run(s.stop, s.done)
}

func (s *Sampler) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.store.Replace(s.builder.BuildSnapshot())
	for {
		select {
		case <-ticker.C:
			s.store.Replace(s.builder.BuildSnapshot())
		case <-stop:
			return
		}
	}
}

// Stop signals the loop and waits up to stopGrace for it to exit.
// Stopping a stopped sampler is a no-op. The join is best effort: a
// cycle stuck in a slow read is abandoned rather than interrupted, and
// may still publish its snapshot when it eventually completes.
func (s *Sampler) Stop() {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()
	if stop == nil {
		return
	}

	close(stop)
	select {
	case <-done:
		s.log.Info().Msg("sampling stopped")
	case <-time.After(stopGrace):
		s.log.Warn().Dur("grace", stopGrace).Msg("sampling loop still busy after stop")
	}
}

// Running reports whether the sampling goroutine is live.
func (s *Sampler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stop != nil
}
