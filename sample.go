package treatz

import (
	"context"
	"crypto/rand"
	"encoding/binary"

	"github.com/zoobzio/treatz/rx"
)

// Sample keeps each element independently with probability rate.
// It uses cryptographically secure randomness so the selection is unbiased.
// Failures always pass.
//
// When to use:
//   - Reducing data volume for analysis or monitoring
//   - Trace sampling in observability pipelines
//
// Example:
//
//	// Trace 1% of requests
//	traced := treatz.Sample(requests, 0.01)
//
// Parameters:
//   - rate: Sampling rate between 0.0 and 1.0 (0.1 = 10%, 1.0 = 100%)
func Sample[T any, F error](s Treatable[T, F], rate float64) Treatable[T, F] {
	return wrap[ShapeContinuous, T, F](rx.Create(func(ctx context.Context, e *rx.Emitter[T]) {
		s.source.Subscribe(ctx, rx.Observer[T]{
			OnNext: func(v T) {
				if shouldSample(rate) {
					e.Next(v)
				}
			},
			OnError:     e.Error,
			OnCompleted: e.Complete,
		})
	}))
}

func shouldSample(rate float64) bool {
	switch {
	case rate <= 0:
		return false
	case rate >= 1:
		return true
	}

	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		// On error, default to not sampling
		return false
	}

	// Convert to float64 in range [0, 1)
	val := binary.BigEndian.Uint64(b[:]) >> 11 // Use 53 bits for mantissa
	return float64(val)/(1<<53) < rate
}
