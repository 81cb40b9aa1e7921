package cache

import (
	"encoding/binary"
	"fmt"
)

// Key is the 32-bit cache address derived from the request text. Two
// distinct phrases that hash identically are indistinguishable to the
// cache; the collision risk is accepted and the later store wins.
type Key uint32

// Fingerprint hashes the UTF-8 bytes of text with the DJB2 function:
// an accumulator seeded with 5381, then acc = acc*33 + byte for every
// byte. It is deterministic across process restarts and performs no
// case or whitespace normalization.
func Fingerprint(text string) Key {
	h := uint32(5381)
	for i := 0; i < len(text); i++ {
		h = h*33 + uint32(text[i])
	}
	return Key(h)
}

// String renders the key as fixed-width lowercase hex, the same form
// used for entry filenames.
func (k Key) String() string {
	return fmt.Sprintf("%08x", uint32(k))
}

// samplesToBytes serializes 16-bit samples as little-endian PCM.
func samplesToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

// bytesToSamples parses little-endian PCM. An odd-length payload is a
// truncated entry and must never surface as valid audio.
func bytesToSamples(data []byte) ([]int16, error) {
	if len(data)%2 != 0 {
		return nil, ErrCorruptEntry
	}
	out := make([]int16, len(data)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return out, nil
}
