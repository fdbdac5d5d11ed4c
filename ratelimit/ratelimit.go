// Package ratelimit paces outbound requests toward the upstream
// catalog and search services. The limiter converges on a safe
// throughput by multiplicative decrease on 429-class failures and
// additive increase after sustained success, so no per-service rate
// needs manual tuning.
package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

type Options struct {
	Rate              float64 // initial requests per second
	Floor             float64 // lowest rate decrease can reach
	Ceiling           float64 // highest rate recovery can reach
	Step              float64 // additive increase per recovery
	RecoveryThreshold int     // consecutive successes per recovery step
	CooldownBase      time.Duration
	CooldownMax       time.Duration
}

func (options Options) withDefaults() Options {
	if options.Rate <= 0 {
		options.Rate = 4
	}
	if options.Floor <= 0 {
		options.Floor = 0.25
	}
	if options.Ceiling <= 0 {
		options.Ceiling = 8
	}
	if options.Step <= 0 {
		options.Step = 0.5
	}
	if options.RecoveryThreshold <= 0 {
		options.RecoveryThreshold = 5
	}
	if options.CooldownBase <= 0 {
		options.CooldownBase = time.Second
	}
	if options.CooldownMax <= 0 {
		options.CooldownMax = 2 * time.Minute
	}
	return options
}

// Limiter is safe for concurrent use: it is the single
// synchronization point shared by resolver and matcher workers.
type Limiter struct {
	mutex         sync.Mutex
	options       Options
	rate          float64
	failures      int
	successes     int
	nextSlot      time.Time
	cooldownUntil time.Time
	jitter        *rand.Rand
}

func New(options Options) *Limiter {
	options = options.withDefaults()
	return &Limiter{
		options: options,
		rate:    options.Rate,
		jitter:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Acquire suspends the caller until it is safe to issue one request.
// It only fails on context cancellation; rate-limit pressure delays,
// never errors.
func (limiter *Limiter) Acquire(ctx context.Context) error {
	limiter.mutex.Lock()
	at := time.Now()
	if limiter.nextSlot.After(at) {
		at = limiter.nextSlot
	}
	if limiter.cooldownUntil.After(at) {
		at = limiter.cooldownUntil
	}
	limiter.nextSlot = at.Add(time.Duration(float64(time.Second) / limiter.rate))
	limiter.mutex.Unlock()

	wait := time.Until(at)
	if wait <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// OnRateLimited records a 429-class failure: the allowed rate is
// halved (never below the floor) and a cooldown window opens, sized
// by the remote's Retry-After when provided, exponentially in the
// consecutive-failure count otherwise, with jitter so concurrent
// workers do not retry in lockstep.
func (limiter *Limiter) OnRateLimited(retryAfter time.Duration) {
	limiter.mutex.Lock()
	defer limiter.mutex.Unlock()

	limiter.failures++
	limiter.successes = 0

	limiter.rate /= 2
	if limiter.rate < limiter.options.Floor {
		limiter.rate = limiter.options.Floor
	}

	cooldown := retryAfter
	if cooldown <= 0 {
		cooldown = limiter.options.CooldownBase << uint(limiter.failures-1)
		if cooldown > limiter.options.CooldownMax || cooldown <= 0 {
			cooldown = limiter.options.CooldownMax
		}
	}
	cooldown += time.Duration(limiter.jitter.Int63n(int64(cooldown)/4 + 1))

	until := time.Now().Add(cooldown)
	if until.After(limiter.cooldownUntil) {
		limiter.cooldownUntil = until
	}
}

// OnSuccess decays the failure count and, after enough consecutive
// successes, raises the rate back toward the ceiling.
func (limiter *Limiter) OnSuccess() {
	limiter.mutex.Lock()
	defer limiter.mutex.Unlock()

	if limiter.failures > 0 {
		limiter.failures--
	}

	limiter.successes++
	if limiter.successes < limiter.options.RecoveryThreshold {
		return
	}
	limiter.successes = 0

	limiter.rate += limiter.options.Step
	if limiter.rate > limiter.options.Ceiling {
		limiter.rate = limiter.options.Ceiling
	}
}

// Rate reports the currently allowed requests per second.
func (limiter *Limiter) Rate() float64 {
	limiter.mutex.Lock()
	defer limiter.mutex.Unlock()
	return limiter.rate
}
