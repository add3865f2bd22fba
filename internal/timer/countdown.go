package timer

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/placement-client/internal/storage"
)

// Countdown is a restartable one-second countdown with persisted remaining
// time. Both timed screens construct their own instance over the same storage
// key, so remaining time carries over between them. Stopping is final for an
// instance; a new instance restores from the key.
type Countdown struct {
	mu        sync.Mutex
	remaining int

	key      string
	fallback int
	store    storage.Store
	log      zerolog.Logger

	ticks    chan int
	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a countdown over the given storage key. defaultSeconds is used
// when no usable value is persisted; call Restore before Start.
func New(store storage.Store, key string, defaultSeconds int, log zerolog.Logger) *Countdown {
	return &Countdown{
		remaining: defaultSeconds,
		key:       key,
		fallback:  defaultSeconds,
		store:     store,
		log:       log.With().Str("component", "countdown").Logger(),
		ticks:     make(chan int, 1),
		stop:      make(chan struct{}),
	}
}

// Restore loads the persisted remaining time. Absent or non-numeric values
// fall back to the configured default; a non-numeric value is logged, never
// surfaced as an error.
func (c *Countdown) Restore(ctx context.Context) {
	raw, ok, err := c.store.Get(ctx, c.key)
	if err != nil {
		c.log.Warn().Err(err).Str("key", c.key).Msg("Timer restore failed, using default")
		return
	}
	if !ok {
		return
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		c.log.Warn().Str("key", c.key).Str("value", raw).Msg("Non-numeric timer value, using default")
		return
	}

	c.mu.Lock()
	c.remaining = n
	c.mu.Unlock()
}

// Start launches the tick loop. It decrements once per second, persisting
// after every tick, until zero (terminal, no underflow), Stop, or context
// cancellation. Call at most once per instance.
func (c *Countdown) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-c.stop:
				return
			case <-ticker.C:
				if !c.tick(ctx) {
					return
				}
			}
		}
	}()
}

// tick performs one decrement and persist. Returns false once the countdown
// has reached zero and no further ticks should run.
func (c *Countdown) tick(ctx context.Context) bool {
	c.mu.Lock()
	if c.remaining <= 0 {
		c.mu.Unlock()
		return false
	}
	c.remaining--
	remaining := c.remaining
	c.mu.Unlock()

	if err := c.store.Set(ctx, c.key, strconv.Itoa(remaining)); err != nil {
		c.log.Warn().Err(err).Msg("Timer persist failed")
	}

	// Re-render signal, fire-and-forget: a slow consumer drops ticks
	// instead of stalling the countdown.
	select {
	case c.ticks <- remaining:
	default:
	}

	return remaining > 0
}

// Stop cancels the tick loop. Idempotent and safe on every teardown path.
func (c *Countdown) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// Persist writes the current remaining time. Called by the hosting screen on
// every suspension (navigation away, shutdown).
func (c *Countdown) Persist(ctx context.Context) {
	c.mu.Lock()
	remaining := c.remaining
	c.mu.Unlock()

	if err := c.store.Set(ctx, c.key, strconv.Itoa(remaining)); err != nil {
		c.log.Warn().Err(err).Msg("Timer persist failed")
	}
}

// Remaining returns the current value in seconds. Never negative.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Formatted renders the remaining time as zero-padded MM:SS.
func (c *Countdown) Formatted() string {
	return Format(c.Remaining())
}

// Ticks exposes the per-tick re-render signal carrying the new remaining
// value.
func (c *Countdown) Ticks() <-chan int {
	return c.ticks
}

// Format renders a second count as zero-padded MM:SS.
func Format(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
