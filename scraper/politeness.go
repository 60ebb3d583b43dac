package scraper

import (
	"context"
	"math/rand"
	"time"

	"golang.org/x/time/rate"
)

// Politeness enforces the mandatory pause between consecutive requests to one
// external source: a hard minimum interval plus a random jitter up to the
// configured maximum.
type Politeness struct {
	limiter *rate.Limiter
	jitter  time.Duration
}

// NewPoliteness builds a pacer that spaces requests by at least min and at
// most roughly max.
func NewPoliteness(min, max time.Duration) *Politeness {
	if min <= 0 {
		min = time.Second
	}
	if max < min {
		max = min
	}
	return &Politeness{
		limiter: rate.NewLimiter(rate.Every(min), 1),
		jitter:  max - min,
	}
}

// Wait blocks until the next request is allowed or the context is done.
func (p *Politeness) Wait(ctx context.Context) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}

	if p.jitter > 0 {
		d := time.Duration(rand.Int63n(int64(p.jitter)))
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
