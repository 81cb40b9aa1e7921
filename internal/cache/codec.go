package cache

// Mu-law companding constants (G.711-style).
const (
	ulawBias = 0x84
	ulawClip = 32635
)

// ulawDecode maps every encoded byte back to its 16-bit sample. Built
// once at startup so decode is a single table lookup per sample.
var ulawDecode [256]int16

func init() {
	for i := 0; i < 256; i++ {
		u := ^uint8(i)
		exponent := (u >> 4) & 0x07
		mantissa := u & 0x0F
		magnitude := ((int32(mantissa)<<3 + ulawBias) << exponent) - ulawBias
		if u&0x80 != 0 {
			magnitude = -magnitude
		}
		ulawDecode[i] = int16(magnitude)
	}
}

// encodeULawSample compands one 16-bit sample into 8 bits. Lossy: the
// mantissa keeps 4 bits per logarithmic segment, which is intelligible
// for speech.
func encodeULawSample(s int16) byte {
	var sign byte
	v := int32(s)
	if v < 0 {
		v = -v
		sign = 0x80
	}
	if v > ulawClip {
		v = ulawClip
	}
	v += ulawBias

	exponent := byte(7)
	for mask := int32(0x4000); mask != 0 && v&mask == 0; mask >>= 1 {
		exponent--
	}
	mantissa := byte((v >> (exponent + 3)) & 0x0F)
	return ^(sign | exponent<<4 | mantissa)
}

// encodeULaw compands samples 2:1 into mu-law bytes.
func encodeULaw(samples []int16) []byte {
	out := make([]byte, len(samples))
	for i, s := range samples {
		out[i] = encodeULawSample(s)
	}
	return out
}

// decodeULaw expands mu-law bytes back to 16-bit samples. The result
// approximates the original within the codec's quantization error, not
// bit-exactly.
func decodeULaw(data []byte) []int16 {
	out := make([]int16, len(data))
	for i, b := range data {
		out[i] = ulawDecode[b]
	}
	return out
}

// encodePayload serializes samples into the tier payload representation.
func encodePayload(samples []int16, enc encoding) []byte {
	if enc == encULaw {
		return encodeULaw(samples)
	}
	return samplesToBytes(samples)
}

// decodePayload parses a tier payload back into samples.
func decodePayload(payload []byte, enc encoding) ([]int16, error) {
	if enc == encULaw {
		return decodeULaw(payload), nil
	}
	return bytesToSamples(payload)
}
