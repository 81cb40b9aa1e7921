package synth

import (
	"context"
	"sync/atomic"
	"time"
)

// Mock is a deterministic in-process engine for tests and the device
// simulator. The rendered audio is a pure function of the text, so two
// syntheses of the same phrase produce identical PCM.
type Mock struct {
	// Delay is the simulated rendering time per chunk.
	Delay time.Duration

	// Chunks is how many full chunks to emit per phrase. Zero means 3.
	Chunks int

	// Err, when set, is returned from Synthesize immediately.
	Err error

	calls int64
}

// Calls reports how many syntheses were started.
func (m *Mock) Calls() int64 { return atomic.LoadInt64(&m.calls) }

func (m *Mock) Name() string { return "mock" }

// Render produces the full deterministic waveform for text, exactly as
// a completed Synthesize stream would concatenate it.
func (m *Mock) Render(text string) []int16 {
	chunks := m.Chunks
	if chunks == 0 {
		chunks = 3
	}
	samples := make([]int16, chunks*ChunkSamples)
	seed := int16(1)
	for _, b := range []byte(text) {
		seed = seed*31 + int16(b)
	}
	for i := range samples {
		samples[i] = seed + int16(i%251)
	}
	return samples
}

func (m *Mock) Synthesize(ctx context.Context, text string) (<-chan Chunk, error) {
	atomic.AddInt64(&m.calls, 1)
	if m.Err != nil {
		return nil, m.Err
	}

	all := m.Render(text)

	out := make(chan Chunk)
	go func() {
		defer close(out)
		for off := 0; off < len(all); off += ChunkSamples {
			if m.Delay > 0 {
				select {
				case <-time.After(m.Delay):
				case <-ctx.Done():
					return
				}
			}
			end := off + ChunkSamples
			if end > len(all) {
				end = len(all)
			}
			chunk := Chunk{
				Samples: all[off:end:end],
				Final:   end == len(all),
			}
			select {
			case out <- chunk:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
