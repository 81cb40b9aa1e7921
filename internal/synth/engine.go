// Package synth defines the speech synthesis engine interface and its
// implementations. Engines stream fixed-size PCM chunks so playback can
// start before the full phrase is rendered.
package synth

import (
	"context"
	"errors"
)

// ChunkSamples is the number of 16-bit samples per streamed chunk:
// 50ms of audio at 16kHz.
const ChunkSamples = 800

// DefaultSampleRate is the PCM sample rate engines are expected to
// produce.
const DefaultSampleRate = 16000

// ErrNoAudio is returned when an engine produced no output for a
// non-empty phrase.
var ErrNoAudio = errors.New("synth: engine produced no audio")

// Chunk is one streamed piece of synthesized audio. Final is set on the
// last chunk of a completed synthesis; a stream that closes without a
// Final chunk was cut short and its audio must not be treated as a
// complete phrase.
type Chunk struct {
	Samples []int16
	Final   bool
}

// Engine converts text to streamed PCM audio.
type Engine interface {
	// Name identifies the engine in logs.
	Name() string

	// Synthesize starts rendering text and returns a channel of audio
	// chunks. The channel is closed when the stream ends, whether it
	// completed or not. Cancelling ctx stops synthesis; the stream then
	// closes without a Final chunk.
	Synthesize(ctx context.Context, text string) (<-chan Chunk, error)
}
