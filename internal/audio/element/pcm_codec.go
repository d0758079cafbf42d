package element

import (
	"encoding/binary"
	"math"
)

// encodeF32 packs float32 samples little-endian into dst.
func encodeF32(samples []float32, dst []byte) {
	for i, v := range samples {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v))
	}
}

// encodeI16 packs int16 samples little-endian into dst.
func encodeI16(samples []int16, dst []byte) {
	for i, v := range samples {
		binary.LittleEndian.PutUint16(dst[i*2:], uint16(v))
	}
}

// encodeI32 packs int32 samples little-endian into dst.
func encodeI32(samples []int32, dst []byte) {
	for i, v := range samples {
		binary.LittleEndian.PutUint32(dst[i*4:], uint32(v))
	}
}
