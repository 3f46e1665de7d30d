// Package backoff computes the pause between two attempts of a call.
package backoff

import (
	"math/rand"
	"time"
)

// Strategy returns the delay to wait after the given failed attempt
// (1-based) before the next one.
type Strategy interface {
	Delay(attempt int) time.Duration
}

// Fixed waits the same duration after every attempt.
type Fixed time.Duration

// Delay implements Strategy.
func (f Fixed) Delay(int) time.Duration {
	if f < 0 {
		return 0
	}
	return time.Duration(f)
}

// Exponential grows the delay by Multiplier after every attempt, capped at
// Max, plus up to Jitter (0..1) of the delay at random.
type Exponential struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
	Jitter     float64
}

// Delay implements Strategy.
func (e Exponential) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	// Prevent overflow by limiting attempt
	if attempt > 30 {
		attempt = 30
	}

	multiplier := e.Multiplier
	if multiplier <= 0 {
		multiplier = 2
	}

	backoff := time.Duration(float64(e.Initial) * pow(multiplier, attempt-1))
	if e.Max > 0 && (backoff < 0 || backoff > e.Max) {
		backoff = e.Max
	}

	jitter := clampJitter(e.Jitter)
	if jitter > 0 {
		jitterAmount := time.Duration(float64(backoff) * jitter * rand.Float64())
		if e.Max > 0 && backoff+jitterAmount > e.Max {
			backoff = e.Max
		} else {
			backoff += jitterAmount
		}
	}
	return backoff
}

// clampJitter ensures jitter is within valid bounds [0, 1].
func clampJitter(jitter float64) float64 {
	if jitter < 0 {
		return 0
	}
	if jitter > 1 {
		return 1
	}
	return jitter
}

func pow(base float64, exponent int) float64 {
	result := 1.0
	for i := 0; i < exponent; i++ {
		result *= base
	}
	return result
}
