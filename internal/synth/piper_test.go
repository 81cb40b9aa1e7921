package synth

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"testing"

	"github.com/charmbracelet/log"
)

func testPiper() *Piper {
	return &Piper{logger: log.New(io.Discard)}
}

func pcmBytes(samples []int16) []byte {
	b := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(b[i*2:], uint16(s))
	}
	return b
}

func TestPiper_StreamChunking(t *testing.T) {
	// Two full chunks plus a short tail.
	total := ChunkSamples*2 + 37
	want := make([]int16, total)
	for i := range want {
		want[i] = int16(i - 5000)
	}

	out := make(chan Chunk, 8)
	done := make(chan bool, 1)
	go func() {
		done <- testPiper().stream(context.Background(), bytes.NewReader(pcmBytes(want)), out)
		close(out)
	}()

	var got []int16
	var sizes []int
	for chunk := range out {
		got = append(got, chunk.Samples...)
		sizes = append(sizes, len(chunk.Samples))
	}

	if !<-done {
		t.Fatal("stream did not report a clean EOF")
	}
	if len(sizes) != 3 || sizes[0] != ChunkSamples || sizes[1] != ChunkSamples || sizes[2] != 37 {
		t.Fatalf("chunk sizes = %v, want [%d %d 37]", sizes, ChunkSamples, ChunkSamples)
	}
	if len(got) != total {
		t.Fatalf("got %d samples, want %d", len(got), total)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestPiper_StreamEmptyOutput(t *testing.T) {
	out := make(chan Chunk, 1)
	done := make(chan bool, 1)
	go func() {
		done <- testPiper().stream(context.Background(), bytes.NewReader(nil), out)
		close(out)
	}()

	for range out {
		t.Error("empty output produced a chunk")
	}
	if !<-done {
		t.Error("empty output is still a clean EOF")
	}
}

func TestPiper_StreamCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Unbuffered channel with no reader: send must bail out on ctx.
	out := make(chan Chunk)
	data := pcmBytes(make([]int16, ChunkSamples*4))

	if testPiper().stream(ctx, bytes.NewReader(data), out) {
		t.Error("cancelled stream reported completion")
	}
}
