package cache

import (
	"math"
	"testing"
)

func TestULaw_RoundTripError(t *testing.T) {
	// Sweep the full sample range; mu-law quantization error grows with
	// magnitude but stays well under the top segment's step size.
	const maxError = 1024

	for s := -32768; s <= 32767; s += 7 {
		in := int16(s)
		out := ulawDecode[encodeULawSample(in)]
		if diff := math.Abs(float64(out) - float64(in)); diff > maxError {
			t.Fatalf("sample %d decoded to %d, error %.0f exceeds %d", in, out, diff, maxError)
		}
	}
}

func TestULaw_SmallSamplesPrecise(t *testing.T) {
	// Near silence the segments are fine-grained; error stays tiny.
	for s := -100; s <= 100; s++ {
		in := int16(s)
		out := ulawDecode[encodeULawSample(in)]
		if diff := math.Abs(float64(out) - float64(in)); diff > 8 {
			t.Fatalf("sample %d decoded to %d, error %.0f exceeds 8", in, out, diff)
		}
	}
}

func TestULaw_SignSymmetry(t *testing.T) {
	for _, s := range []int16{1, 100, 1000, 10000, 32000} {
		pos := ulawDecode[encodeULawSample(s)]
		neg := ulawDecode[encodeULawSample(-s)]
		if pos != -neg {
			t.Errorf("asymmetric decode for %d: +%d vs %d", s, pos, neg)
		}
	}
}

func TestEncodeULaw_HalvesSize(t *testing.T) {
	samples := make([]int16, 800)
	for i := range samples {
		samples[i] = int16(math.Sin(float64(i)/10) * 20000)
	}

	encoded := encodeULaw(samples)
	if len(encoded) != len(samples) {
		t.Fatalf("encoded length %d, want %d", len(encoded), len(samples))
	}
	// One byte per sample vs two raw.
	if raw := samplesToBytes(samples); len(encoded)*2 != len(raw) {
		t.Errorf("expected 2:1 compaction, got %d vs %d raw", len(encoded), len(raw))
	}

	decoded := decodeULaw(encoded)
	if len(decoded) != len(samples) {
		t.Fatalf("decoded length %d, want %d", len(decoded), len(samples))
	}
	for i := range samples {
		if diff := math.Abs(float64(decoded[i]) - float64(samples[i])); diff > 1024 {
			t.Fatalf("sample %d: error %.0f too large", i, diff)
		}
	}
}

func TestDecodePayload_Encodings(t *testing.T) {
	samples := []int16{0, 500, -500, 16000, -16000}

	for _, enc := range []encoding{encPCM, encULaw} {
		payload := encodePayload(samples, enc)
		out, err := decodePayload(payload, enc)
		if err != nil {
			t.Fatalf("decodePayload(%d) failed: %v", enc, err)
		}
		if len(out) != len(samples) {
			t.Fatalf("encoding %d: length %d, want %d", enc, len(out), len(samples))
		}
	}
}

func BenchmarkEncodeULaw(b *testing.B) {
	samples := make([]int16, 16000)
	for i := range samples {
		samples[i] = int16(i * 3)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		encodeULaw(samples)
	}
}

func BenchmarkDecodeULaw(b *testing.B) {
	data := make([]byte, 16000)
	for i := range data {
		data[i] = byte(i)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		decodeULaw(data)
	}
}
