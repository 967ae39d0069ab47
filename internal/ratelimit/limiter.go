package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/loom-academy/loom-go-api/internal/observability"
)

// backendTimeout bounds a single counter round trip. A slow backend must
// resolve to the fail-open policy, not stall the request it guards.
const backendTimeout = 500 * time.Millisecond

// Config customises a Limiter instance.
type Config struct {
	MaxRequests int
	Window      time.Duration
	KeyPrefix   string
}

// Result is the outcome of a single limit check.
type Result struct {
	Allowed   bool
	Remaining int
	// Degraded marks a check that was resolved by the fail-open policy
	// because the counter backend was unreachable, as opposed to a check
	// that actually passed.
	Degraded bool
}

// incrWithExpiry atomically increments the window counter and starts the
// window on the first hit. Running both steps in a single script avoids the
// race where two callers both observe a stale count with one slot left.
var incrWithExpiry = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

// Limiter enforces a per-identifier request ceiling over a rolling window
// backed by a shared redis counter. A nil client is the explicit disabled
// mode: every check is allowed and no state is kept anywhere.
type Limiter struct {
	client *redis.Client
	cfg    Config
	logger zerolog.Logger
}

// New constructs a limiter. Zero or negative config values fall back to
// 20 requests per rolling hour under the "ratelimit" prefix.
func New(client *redis.Client, cfg Config, logger zerolog.Logger) *Limiter {
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = 20
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Hour
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "ratelimit"
	}

	return &Limiter{
		client: client,
		cfg:    cfg,
		logger: logger.With().Str("component", "rate_limiter").Logger(),
	}
}

// Allow reports whether the identifier may proceed. It never returns an
// error: a backend failure resolves to allowed with Degraded set, so
// legitimate traffic is not blocked by an outage of the limiter itself.
func (l *Limiter) Allow(ctx context.Context, identifier string) Result {
	if l.client == nil {
		return Result{Allowed: true, Remaining: l.cfg.MaxRequests}
	}

	key := fmt.Sprintf("%s:%s", l.cfg.KeyPrefix, identifier)

	ctx, cancel := context.WithTimeout(ctx, backendTimeout)
	defer cancel()

	count, err := incrWithExpiry.Run(ctx, l.client, []string{key}, l.cfg.Window.Milliseconds()).Int()
	if err != nil {
		l.logger.Warn().Err(err).Str("identifier", identifier).Msg("counter backend unavailable, failing open")
		observability.RateLimitDegraded().Inc()
		return Result{Allowed: true, Remaining: l.cfg.MaxRequests, Degraded: true}
	}

	remaining := l.cfg.MaxRequests - count
	if remaining < 0 {
		remaining = 0
	}

	if count > l.cfg.MaxRequests {
		observability.RateLimitDecisions().WithLabelValues("denied").Inc()
		return Result{Allowed: false, Remaining: 0}
	}

	observability.RateLimitDecisions().WithLabelValues("allowed").Inc()
	return Result{Allowed: true, Remaining: remaining}
}
