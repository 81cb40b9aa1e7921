// Package speech ties the cache, the synthesis engine, and the audio
// player together: one call speaks a phrase, serving it from the cache
// when possible and synthesizing, playing, and caching it otherwise.
package speech

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/hampod/speech/internal/audio"
	"github.com/hampod/speech/internal/cache"
	"github.com/hampod/speech/internal/synth"
)

// ErrInterrupted is returned when the utterance was cut off before it
// finished.
var ErrInterrupted = cache.ErrInterrupted

// Speaker speaks phrases. Concurrent requests for the same phrase are
// collapsed: one synthesis runs, and the duplicates replay the result
// from the cache once it lands.
type Speaker struct {
	cache  *cache.Manager
	engine synth.Engine
	player audio.Player
	logger *log.Logger

	flight singleflight.Group

	// utterMu serializes utterances on the one physical player.
	utterMu sync.Mutex
}

// New builds a Speaker from its three parts.
func New(c *cache.Manager, engine synth.Engine, player audio.Player, logger *log.Logger) *Speaker {
	if logger == nil {
		logger = log.Default()
	}
	return &Speaker{cache: c, engine: engine, player: player, logger: logger}
}

// Speak plays text, from the cache when it can. On a miss the phrase
// is synthesized, streamed to the player chunk by chunk, and committed
// to the cache once it completes uninterrupted. Returns how the phrase
// was served.
func (s *Speaker) Speak(ctx context.Context, text string) (cache.Outcome, error) {
	res := s.cache.TryPlay(text)
	if res.Hit() {
		err := s.play(res.Samples)
		s.cache.Release(res.Samples)
		s.logger.Debug("spoke from cache", "key", res.Key, "tier", res.Outcome)
		return res.Outcome, err
	}

	// One synthesis per key at a time; duplicates wait for the leader.
	// The closure flag marks leadership: Do reports shared=true to the
	// leader as well whenever anyone waited, but only the leader's own
	// goroutine runs the closure, and the leader already heard the
	// phrase inside it.
	leader := false
	v, err, _ := s.flight.Do(res.Key.String(), func() (any, error) {
		leader = true
		// Another caller may have committed this phrase between our
		// probe and now; serve it rather than synthesizing twice.
		if r := s.cache.TryPlay(text); r.Hit() {
			perr := s.play(r.Samples)
			s.cache.Release(r.Samples)
			return r.Outcome, perr
		}
		return cache.OutcomeMiss, s.synthesize(ctx, text, res.Key)
	})
	if err != nil {
		return cache.OutcomeMiss, err
	}
	if leader {
		return v.(cache.Outcome), nil
	}

	// This call rode on another's synthesis; its audio went to that
	// caller's utterance, so replay from the cache.
	replay := s.cache.TryPlay(text)
	if !replay.Hit() {
		return cache.OutcomeMiss, fmt.Errorf("phrase not cached after synthesis")
	}
	perr := s.play(replay.Samples)
	s.cache.Release(replay.Samples)
	return replay.Outcome, perr
}

// Interrupt cuts off the current utterance. The in-flight synthesis
// discards its audio rather than caching a phrase that was never fully
// confirmed to the user.
func (s *Speaker) Interrupt() {
	s.player.Interrupt()
}

// Stats exposes the cache counters.
func (s *Speaker) Stats() cache.Stats {
	return s.cache.Stats()
}

// Close stops playback and releases the cache's in-memory state.
func (s *Speaker) Close() error {
	s.cache.Cleanup()
	return s.player.Close()
}

// play sends a fully decoded phrase through one player utterance.
func (s *Speaker) play(samples []int16) error {
	s.utterMu.Lock()
	defer s.utterMu.Unlock()

	if err := s.player.Begin(); err != nil {
		return err
	}
	werr := s.player.Write(samples)
	if err := s.player.End(); err != nil && werr == nil {
		werr = err
	}
	if s.player.IsInterrupted() {
		return ErrInterrupted
	}
	return werr
}

// synthesize renders text, streaming each chunk to the player and into
// a capture. The capture commits only if the stream delivered its
// final chunk and the player was never interrupted; anything less is
// abandoned so a half-spoken phrase cannot poison the cache.
func (s *Speaker) synthesize(ctx context.Context, text string, key cache.Key) error {
	s.utterMu.Lock()
	defer s.utterMu.Unlock()

	if err := s.player.Begin(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	chunks, err := s.engine.Synthesize(ctx, text)
	if err != nil {
		s.player.End()
		return fmt.Errorf("synthesize %q: %w", text, err)
	}

	capture := s.cache.BeginCapture(key, s.player.IsInterrupted)
	complete := false

	for chunk := range chunks {
		if len(chunk.Samples) > 0 {
			if err := s.player.Write(chunk.Samples); err != nil {
				// Interrupted mid-stream; stop the engine and drain.
				cancel()
				continue
			}
			capture.Append(chunk.Samples)
		}
		if chunk.Final {
			complete = true
		}
	}

	s.player.End()

	if !complete || s.player.IsInterrupted() {
		capture.Abandon()
		s.logger.Debug("synthesis discarded", "key", key, "engine", s.engine.Name())
		return ErrInterrupted
	}

	switch err := capture.Commit(); err {
	case nil:
	case cache.ErrInterrupted:
		return ErrInterrupted
	case cache.ErrDisabled:
		// Pass-through mode: the phrase was spoken, just not cached.
	default:
		s.logger.Warn("commit failed", "key", key, "error", err)
	}
	return nil
}
