package audio

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Speaker plays PCM through the system audio device via oto. The oto
// context is created once; each utterance gets a fresh oto player fed
// through a pipe so chunks reach the device as they arrive.
type Speaker struct {
	context    *oto.Context
	sampleRate int

	mu          sync.Mutex
	player      *oto.Player
	pipe        *io.PipeWriter
	interrupted atomic.Bool
}

// NewSpeaker opens the audio device for mono 16-bit playback at
// sampleRate and waits until it is ready.
func NewSpeaker(sampleRate int) (*Speaker, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return nil, fmt.Errorf("open audio device: %w", err)
	}
	<-ready

	return &Speaker{context: ctx, sampleRate: sampleRate}, nil
}

func (s *Speaker) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.player != nil {
		return ErrBusy
	}

	pr, pw := io.Pipe()
	s.pipe = pw
	s.player = s.context.NewPlayer(pr)
	s.interrupted.Store(false)
	s.player.Play()
	return nil
}

func (s *Speaker) Write(samples []int16) error {
	s.mu.Lock()
	pipe := s.pipe
	s.mu.Unlock()

	if pipe == nil || s.interrupted.Load() {
		return ErrNotPlaying
	}

	buf := make([]byte, len(samples)*2)
	for i, v := range samples {
		buf[i*2] = byte(v)
		buf[i*2+1] = byte(uint16(v) >> 8)
	}
	if _, err := pipe.Write(buf); err != nil {
		// The read side closes on interrupt; report it as such.
		return ErrNotPlaying
	}
	return nil
}

func (s *Speaker) End() error {
	s.mu.Lock()
	player := s.player
	pipe := s.pipe
	s.mu.Unlock()

	if player == nil {
		return ErrNotPlaying
	}

	// No more input; the player drains what is buffered.
	pipe.Close()
	for player.IsPlaying() && !s.interrupted.Load() {
		time.Sleep(10 * time.Millisecond)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.player = nil
	s.pipe = nil
	return player.Close()
}

func (s *Speaker) Interrupt() {
	if s.interrupted.Swap(true) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pipe != nil {
		s.pipe.CloseWithError(ErrNotPlaying)
	}
	if s.player != nil {
		s.player.Pause()
	}
}

func (s *Speaker) IsInterrupted() bool {
	return s.interrupted.Load()
}

// Close releases the utterance state. The oto context itself has no
// close; it lives for the process.
func (s *Speaker) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.player != nil {
		s.pipe.CloseWithError(io.ErrClosedPipe)
		s.player.Close()
		s.player = nil
		s.pipe = nil
	}
	return nil
}
