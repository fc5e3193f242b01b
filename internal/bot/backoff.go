package bot

import "time"

// backoff is the reconnect delay for the update poll loop: exponential
// from base to max, reset after any successful poll.
type backoff struct {
	base    time.Duration
	max     time.Duration
	attempt int
}

func (b *backoff) next() time.Duration {
	d := b.base << b.attempt
	if d > b.max {
		return b.max
	}
	b.attempt++
	return d
}

func (b *backoff) reset() {
	b.attempt = 0
}
