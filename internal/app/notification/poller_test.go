package notification

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeSampler struct {
	position atomic.Int64
	playing  atomic.Bool
}

func (s *fakeSampler) CurrentPositionMs() int64 { return s.position.Load() }
func (s *fakeSampler) IsPlaying() bool          { return s.playing.Load() }

type recorder struct {
	mu      sync.Mutex
	samples []int64
}

func (r *recorder) publish(ms int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = append(r.samples, ms)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.samples)
}

func TestPoller_PublishesWhilePlaying(t *testing.T) {
	s := &fakeSampler{}
	s.position.Store(1500)
	s.playing.Store(true)
	rec := &recorder{}
	p := NewPoller(5 * time.Millisecond)

	p.Arm(s, rec.publish)
	defer p.Disarm()

	assert.Eventually(t, func() bool { return rec.count() >= 3 }, time.Second, time.Millisecond)
	rec.mu.Lock()
	assert.Equal(t, int64(1500), rec.samples[0])
	rec.mu.Unlock()
}

func TestPoller_StopsWhenNotPlaying(t *testing.T) {
	s := &fakeSampler{}
	s.position.Store(42)
	rec := &recorder{}
	p := NewPoller(5 * time.Millisecond)

	p.Arm(s, rec.publish)

	assert.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 1, rec.count())
}

func TestPoller_DisarmIsIdempotent(t *testing.T) {
	s := &fakeSampler{}
	s.playing.Store(true)
	rec := &recorder{}
	p := NewPoller(20 * time.Millisecond)

	p.Disarm()
	p.Arm(s, rec.publish)
	assert.True(t, p.Armed())
	p.Disarm()
	p.Disarm()

	assert.False(t, p.Armed())
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, rec.count())
}

func TestPoller_ArmReplacesRunningLoop(t *testing.T) {
	s := &fakeSampler{}
	s.playing.Store(true)
	first := &recorder{}
	second := &recorder{}
	p := NewPoller(5 * time.Millisecond)

	p.Arm(s, first.publish)
	p.Arm(s, second.publish)
	defer p.Disarm()

	assert.Eventually(t, func() bool { return second.count() >= 3 }, time.Second, time.Millisecond)
	assert.Equal(t, 0, first.count())
}

func TestNewPoller_DefaultInterval(t *testing.T) {
	assert.Equal(t, DefaultPollInterval, NewPoller(0).interval)
	assert.Equal(t, time.Second, DefaultPollInterval)
}
