package cache

import (
	"testing"
)

func TestFingerprint_KnownValues(t *testing.T) {
	tests := []struct {
		text string
		want Key
	}{
		{"", 5381},
		{"a", 0x0002b606},
		{"hello", 0x0f923099},
	}

	for _, tt := range tests {
		got := Fingerprint(tt.text)
		if got != tt.want {
			t.Errorf("Fingerprint(%q) = %08x, want %08x", tt.text, uint32(got), uint32(tt.want))
		}
	}
}

func TestFingerprint_Deterministic(t *testing.T) {
	phrases := []string{"frequency 14.250", "mode upper sideband", "power 100 watts"}

	for _, p := range phrases {
		if Fingerprint(p) != Fingerprint(p) {
			t.Errorf("Fingerprint(%q) not deterministic", p)
		}
	}
}

func TestFingerprint_OrderSensitive(t *testing.T) {
	if Fingerprint("ab") == Fingerprint("ba") {
		t.Error("expected different keys for reordered bytes")
	}
}

func TestFingerprint_NoNormalization(t *testing.T) {
	if Fingerprint("Hello") == Fingerprint("hello") {
		t.Error("case must affect the key")
	}
	if Fingerprint("hello ") == Fingerprint("hello") {
		t.Error("whitespace must affect the key")
	}
}

func TestKey_String(t *testing.T) {
	if got := Key(0xdeadbeef).String(); got != "deadbeef" {
		t.Errorf("String() = %q, want %q", got, "deadbeef")
	}
	if got := Key(0x2b606).String(); got != "0002b606" {
		t.Errorf("String() = %q, want %q", got, "0002b606")
	}
}

func TestSamplesToBytes_RoundTrip(t *testing.T) {
	in := []int16{0, 1, -1, 32767, -32768, 12345, -12345}

	out, err := bytesToSamples(samplesToBytes(in))
	if err != nil {
		t.Fatalf("bytesToSamples failed: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("length mismatch: got %d, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("sample %d: got %d, want %d", i, out[i], in[i])
		}
	}
}

func TestBytesToSamples_OddLength(t *testing.T) {
	if _, err := bytesToSamples([]byte{0x01, 0x02, 0x03}); err != ErrCorruptEntry {
		t.Errorf("expected ErrCorruptEntry for odd payload, got %v", err)
	}
}
