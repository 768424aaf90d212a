package embedding

import (
	"encoding/binary"
	"fmt"
	"math"
)

// VectorToBytes packs a vector as little-endian float32 values, the layout
// the Redis vector index expects for FLOAT32 fields.
func VectorToBytes(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// BytesToVector unpacks a little-endian float32 byte string.
func BytesToVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("vector payload length %d is not a multiple of 4", len(b))
	}
	vec := make([]float32, len(b)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return vec, nil
}
