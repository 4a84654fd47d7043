package throttle

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Prometheus metrics for throttle tracking.
var (
	throttleBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "busadmin_throttle_blocks_total",
		Help: "Total number of requests blocked by the shared throttle window",
	})

	throttleResponsesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "busadmin_throttled_responses_total",
		Help: "Total number of 429 responses observed",
	})

	throttleBlockedSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "busadmin_throttle_blocked_seconds",
		Help: "Remaining backoff window imposed by the last throttled response",
	})
)

// Tracker gates outbound requests on the shared throttle window.
type Tracker struct {
	redis  *redis.Client
	logger zerolog.Logger
}

// NewTracker creates a throttle tracker backed by redisClient.
func NewTracker(redisClient *redis.Client, logger zerolog.Logger) *Tracker {
	return &Tracker{
		redis:  redisClient,
		logger: logger,
	}
}

// GetState retrieves the shared state from Redis. With no stored state the
// namespace is assumed unthrottled.
func (t *Tracker) GetState(ctx context.Context) (*State, error) {
	blockedUnix, err := t.redis.Get(ctx, RedisKeyBlockedUntil).Int64()
	if err == redis.Nil {
		t.logger.Debug().Msg("No throttle state in Redis, assuming unthrottled")
		return &State{LastUpdate: time.Now()}, nil
	}
	if err != nil {
		return nil, err
	}

	lastStatus, err := t.redis.Get(ctx, RedisKeyLastStatus).Int()
	if err != nil && err != redis.Nil {
		return nil, err
	}

	lastUpdateUnix, err := t.redis.Get(ctx, RedisKeyLastUpdate).Int64()
	if err != nil && err != redis.Nil {
		return nil, err
	}

	return &State{
		BlockedUntil: time.Unix(blockedUnix, 0),
		LastStatus:   lastStatus,
		LastUpdate:   time.Unix(lastUpdateUnix, 0),
	}, nil
}

// UpdateFromResponse records throttle information from a response. Only 429
// responses extend the backoff window; anything else clears it.
func (t *Tracker) UpdateFromResponse(ctx context.Context, resp *http.Response) error {
	if resp.StatusCode != http.StatusTooManyRequests {
		// A successful round trip ends any stale window early.
		state, err := t.GetState(ctx)
		if err != nil || !state.IsBlocked() {
			return err
		}
		return t.clear(ctx)
	}

	throttleResponsesTotal.Inc()

	retryAfter := parseRetryAfter(resp.Header)
	now := time.Now()
	blockedUntil := now.Add(retryAfter)

	pipe := t.redis.Pipeline()
	pipe.Set(ctx, RedisKeyBlockedUntil, blockedUntil.Unix(), retryAfter+time.Minute)
	pipe.Set(ctx, RedisKeyLastStatus, resp.StatusCode, retryAfter+time.Minute)
	pipe.Set(ctx, RedisKeyLastUpdate, now.Unix(), retryAfter+time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}

	throttleBlockedSeconds.Set(retryAfter.Seconds())

	t.logger.Warn().
		Dur("retry_after", retryAfter).
		Time("blocked_until", blockedUntil).
		Msg("Namespace throttled, sharing backoff window")

	return nil
}

// ShouldAllowRequest checks the shared window before an outbound request.
// Returns false while the namespace is inside a throttle window.
func (t *Tracker) ShouldAllowRequest(ctx context.Context) (bool, error) {
	state, err := t.GetState(ctx)
	if err != nil {
		return false, err
	}

	if state.IsBlocked() {
		throttleBlocksTotal.Inc()
		t.logger.Warn().
			Dur("wait", state.TimeUntilUnblocked()).
			Msg("Request blocked by shared throttle window")
		return false, nil
	}

	return true, nil
}

func (t *Tracker) clear(ctx context.Context) error {
	pipe := t.redis.Pipeline()
	pipe.Del(ctx, RedisKeyBlockedUntil)
	pipe.Del(ctx, RedisKeyLastStatus)
	pipe.Del(ctx, RedisKeyLastUpdate)
	_, err := pipe.Exec(ctx)
	if err == nil {
		throttleBlockedSeconds.Set(0)
	}
	return err
}

// parseRetryAfter reads a Retry-After header given either as delta seconds or
// as an HTTP date.
func parseRetryAfter(headers http.Header) time.Duration {
	value := headers.Get("Retry-After")
	if value == "" {
		return DefaultRetryAfter
	}

	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds <= 0 {
			return DefaultRetryAfter
		}
		return time.Duration(seconds) * time.Second
	}

	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}

	return DefaultRetryAfter
}
