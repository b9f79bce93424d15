package notification

import (
	"context"
	"sync"
	"time"
)

// DefaultPollInterval is the position sampling period.
const DefaultPollInterval = time.Second

// Sampler is the part of a player the poller reads.
type Sampler interface {
	CurrentPositionMs() int64
	IsPlaying() bool
}

// Poller periodically samples a playback position while playing.
// At most one loop runs at a time.
type Poller struct {
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewPoller creates a poller. A non-positive interval means DefaultPollInterval.
func NewPoller(interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{interval: interval}
}

// Arm starts sampling: every interval it publishes the sampler position and
// keeps going only while the sampler reports playing. A running loop is
// replaced, never stacked.
func (p *Poller) Arm(s Sampler, publish func(positionMs int64)) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel

	go p.loop(ctx, s, publish)
}

// Disarm stops the running loop, if any. Safe to call repeatedly.
func (p *Poller) Disarm() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

// Armed reports whether a loop was armed and not disarmed since.
func (p *Poller) Armed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

func (p *Poller) loop(ctx context.Context, s Sampler, publish func(int64)) {
	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		// Disarmed while the timer fired
		if ctx.Err() != nil {
			return
		}
		publish(s.CurrentPositionMs())
		if !s.IsPlaying() {
			return
		}
		timer.Reset(p.interval)
	}
}
