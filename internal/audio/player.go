// Package audio provides mono 16-bit PCM playback. The Player
// interface is streaming: an utterance begins, chunks are written as
// synthesis produces them, and the utterance ends or is interrupted.
package audio

import "errors"

// ErrBusy is returned when an utterance is begun while another is
// still open.
var ErrBusy = errors.New("audio: utterance already in progress")

// ErrNotPlaying is returned when Write or End is called with no open
// utterance.
var ErrNotPlaying = errors.New("audio: no utterance in progress")

// Player sinks streamed PCM. Implementations are used from a single
// speaking goroutine, except Interrupt and IsInterrupted which may be
// called from anywhere.
type Player interface {
	// Begin opens a new utterance and clears the interrupt flag.
	Begin() error

	// Write queues samples for playback. After an interrupt it returns
	// ErrNotPlaying so the producer stops early.
	Write(samples []int16) error

	// End marks the utterance complete and blocks until the queued
	// audio has drained or the utterance is interrupted.
	End() error

	// Interrupt cuts the current utterance off. Safe to call at any
	// time, from any goroutine, and idempotent.
	Interrupt()

	// IsInterrupted reports whether the current utterance was cut off.
	// The flag holds until the next Begin.
	IsInterrupted() bool

	// Close releases the audio device.
	Close() error
}
