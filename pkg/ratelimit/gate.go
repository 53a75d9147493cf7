// Package ratelimit implements the request gate that bounds how many
// requests may start within any rolling time window.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for request gating.
var (
	permitsGrantedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "intra_rate_permits_granted_total",
		Help: "Total number of request permits granted by the gate",
	})

	permitWaiters = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "intra_rate_permit_waiters",
		Help: "Number of callers currently waiting for a permit",
	})

	permitWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "intra_rate_permit_wait_seconds",
		Help:    "Time callers spent waiting for a permit",
		Buckets: []float64{0.01, 0.05, 0.125, 0.25, 0.5, 1, 2, 5},
	})
)

// DefaultWindow is the rolling window the request limit applies to.
const DefaultWindow = 1 * time.Second

// Gate bounds the number of requests that may start within any rolling
// window. Grants are handed out in arrival order, so a burst of callers
// drains in FIFO order and none of them starves.
//
// The gate works by reservation: each caller is assigned the earliest
// start time that keeps the window bound intact, then sleeps until that
// time. Only the assignment needs the lock, so waiting callers do not
// block each other.
type Gate struct {
	limit  int
	window time.Duration
	clock  Clock
	logger zerolog.Logger

	mu sync.Mutex
	// grants holds the start times of reservations that can still
	// constrain a new caller, oldest first. The next caller may start no
	// earlier than one full window after the limit-th most recent entry.
	grants []time.Time
}

// New creates a gate allowing at most limit request starts per window.
// A nil clock defaults to the system clock.
func New(limit int, window time.Duration, clock Clock) (*Gate, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("rate limit must be positive (got %d)", limit)
	}
	if window <= 0 {
		window = DefaultWindow
	}
	if clock == nil {
		clock = SystemClock{}
	}

	return &Gate{
		limit:  limit,
		window: window,
		clock:  clock,
		logger: log.With().Str("component", "rate-gate").Logger(),
		grants: make([]time.Time, 0, limit),
	}, nil
}

// Limit returns the configured number of permits per window.
func (g *Gate) Limit() int { return g.limit }

// Window returns the configured rolling window length.
func (g *Gate) Window() time.Duration { return g.window }

// Acquire blocks until starting a request would not put more than the
// configured limit of starts into any rolling window, then returns.
// The permit is consumed whether or not the request succeeds.
//
// Acquire only fails when ctx is cancelled during the wait.
func (g *Gate) Acquire(ctx context.Context) error {
	g.mu.Lock()
	now := g.clock.Now()
	// Grants that aged a full window into the past cannot constrain
	// anyone anymore.
	for len(g.grants) > 0 && !g.grants[0].Add(g.window).After(now) {
		g.grants = g.grants[1:]
	}
	at := now
	if n := len(g.grants); n >= g.limit {
		// Window is full: the caller starts when the limit-th most
		// recent reservation ages out.
		if earliest := g.grants[n-g.limit].Add(g.window); earliest.After(at) {
			at = earliest
		}
	}
	g.grants = append(g.grants, at)
	g.mu.Unlock()

	delay := at.Sub(now)
	if delay > 0 {
		permitWaiters.Inc()
		g.logger.Debug().
			Dur("wait", delay).
			Msg("Gate full, waiting for permit")

		select {
		case <-ctx.Done():
			g.release(at)
			permitWaiters.Dec()
			return fmt.Errorf("waiting for rate permit: %w", ctx.Err())
		case <-g.clock.After(delay):
		}
		permitWaiters.Dec()
	}

	permitsGrantedTotal.Inc()
	permitWaitSeconds.Observe(delay.Seconds())
	return nil
}

// release drops a reservation whose caller gave up before its start
// time, so the abandoned slot does not delay later callers. Reservations
// already made on top of it keep their (conservative) start times.
func (g *Gate) release(at time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := len(g.grants) - 1; i >= 0; i-- {
		if g.grants[i].Equal(at) {
			g.grants = append(g.grants[:i], g.grants[i+1:]...)
			return
		}
	}
}
