package fetch

import (
	"context"
	"log"
	"time"

	"golang.org/x/time/rate"
)

// Resilient retries a Getter with linearly increasing backoff
// (base delay times the attempt number). Exhaustion is a soft failure:
// callers get ok=false, never an error to propagate.
type Resilient struct {
	getter  Getter
	retries int
	backoff time.Duration
}

func NewResilient(g Getter, retries int, backoff time.Duration) *Resilient {
	if retries <= 0 {
		retries = 3
	}
	if backoff <= 0 {
		backoff = 1500 * time.Millisecond
	}
	return &Resilient{getter: g, retries: retries, backoff: backoff}
}

func (r *Resilient) Fetch(ctx context.Context, url string) (string, bool) {
	for attempt := 1; attempt <= r.retries; attempt++ {
		body, err := r.getter.Get(ctx, url)
		if err == nil {
			return body, true
		}
		log.Printf("[fetch fail %d/%d] %s :: %v", attempt, r.retries, url, err)

		if attempt == r.retries {
			break
		}
		select {
		case <-time.After(r.backoff * time.Duration(attempt)):
		case <-ctx.Done():
			return "", false
		}
	}
	return "", false
}

// NewPoliteLimiter paces listing-page fetches so the crawl stays polite.
// One token per interval, no burst beyond the first page.
func NewPoliteLimiter(minInterval time.Duration) *rate.Limiter {
	return rate.NewLimiter(rate.Every(minInterval), 1)
}
