package audio

import (
	"sync"
	"sync/atomic"
)

// MockPlayer records everything written to it, for tests and for
// running without an audio device. InterruptAfter, when positive,
// triggers an interrupt once that many Write calls have landed,
// simulating a user cutting the announcement off mid-stream.
type MockPlayer struct {
	// InterruptAfter is the number of writes to accept before
	// self-interrupting. Zero means never.
	InterruptAfter int

	mu          sync.Mutex
	open        bool
	writes      int
	samples     []int16
	utterances  int
	interrupted atomic.Bool
}

func (p *MockPlayer) Begin() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.open {
		return ErrBusy
	}
	p.open = true
	p.writes = 0
	p.samples = nil
	p.utterances++
	p.interrupted.Store(false)
	return nil
}

func (p *MockPlayer) Write(samples []int16) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.open || p.interrupted.Load() {
		return ErrNotPlaying
	}
	p.samples = append(p.samples, samples...)
	p.writes++
	if p.InterruptAfter > 0 && p.writes >= p.InterruptAfter {
		p.interrupted.Store(true)
	}
	return nil
}

func (p *MockPlayer) End() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.open {
		return ErrNotPlaying
	}
	p.open = false
	return nil
}

func (p *MockPlayer) Interrupt() {
	p.interrupted.Store(true)
}

func (p *MockPlayer) IsInterrupted() bool {
	return p.interrupted.Load()
}

func (p *MockPlayer) Close() error { return nil }

// Played returns a copy of the samples written so far in the current
// or most recent utterance.
func (p *MockPlayer) Played() []int16 {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]int16, len(p.samples))
	copy(out, p.samples)
	return out
}

// Utterances reports how many times Begin succeeded.
func (p *MockPlayer) Utterances() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.utterances
}
