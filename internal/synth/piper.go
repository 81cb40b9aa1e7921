package synth

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"
)

// PiperConfig configures the piper engine.
type PiperConfig struct {
	// Binary is the path to the piper executable. Empty means look it
	// up on PATH.
	Binary string

	// Model is the path to the voice model (.onnx).
	Model string

	// SampleRate piper renders at. Zero means DefaultSampleRate.
	SampleRate int
}

// Piper runs the piper text-to-speech binary, one fresh process per
// phrase. A fresh process costs startup time but can never leave a
// wedged long-running child behind, which matters more on an embedded
// box than the latency does.
type Piper struct {
	binary     string
	model      string
	sampleRate int
	logger     *log.Logger
}

// NewPiper validates the binary location and returns a ready engine.
func NewPiper(cfg PiperConfig, logger *log.Logger) (*Piper, error) {
	if logger == nil {
		logger = log.Default()
	}

	binary := cfg.Binary
	if binary == "" {
		binary = "piper"
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("piper binary not found: %w", err)
	}

	if cfg.Model == "" {
		return nil, fmt.Errorf("piper model path is required")
	}

	sampleRate := cfg.SampleRate
	if sampleRate == 0 {
		sampleRate = DefaultSampleRate
	}

	return &Piper{
		binary:     path,
		model:      cfg.Model,
		sampleRate: sampleRate,
		logger:     logger,
	}, nil
}

func (p *Piper) Name() string { return "piper" }

// SampleRate returns the rate the configured model renders at.
func (p *Piper) SampleRate() int { return p.sampleRate }

// Synthesize spawns piper with --output-raw and streams its stdout as
// fixed-size chunks. The final short chunk carries the Final mark; if
// ctx is cancelled or piper exits badly, the stream closes without it.
func (p *Piper) Synthesize(ctx context.Context, text string) (<-chan Chunk, error) {
	cmd := exec.CommandContext(ctx, p.binary,
		"--model", p.model,
		"--output-raw",
	)
	cmd.Stdin = strings.NewReader(text + "\n")

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("piper stdout: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start piper: %w", err)
	}

	p.logger.Debug("piper started", "model", p.model, "chars", len(text))

	out := make(chan Chunk)
	go func() {
		defer close(out)

		complete := p.stream(ctx, stdout, out)

		err := cmd.Wait()
		if err != nil && ctx.Err() == nil {
			p.logger.Warn("piper exited abnormally", "error", err)
			return
		}
		if !complete || ctx.Err() != nil {
			return
		}

		// Everything drained and the process exited cleanly: the last
		// chunk already went out, so confirm completion with an empty
		// Final marker.
		select {
		case out <- Chunk{Final: true}:
		case <-ctx.Done():
		}
	}()
	return out, nil
}

// stream copies stdout into out in ChunkSamples-size pieces. It reports
// whether the stream drained to a clean EOF.
func (p *Piper) stream(ctx context.Context, r io.Reader, out chan<- Chunk) bool {
	buf := make([]byte, ChunkSamples*2)
	for {
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			// A trailing odd byte cannot form a sample; drop it.
			samples := make([]int16, n/2)
			for i := range samples {
				samples[i] = int16(binary.LittleEndian.Uint16(buf[i*2:]))
			}
			select {
			case out <- Chunk{Samples: samples}:
			case <-ctx.Done():
				return false
			}
		}
		switch err {
		case nil:
		case io.EOF, io.ErrUnexpectedEOF:
			return true
		default:
			p.logger.Warn("piper read failed", "error", err)
			return false
		}
	}
}
