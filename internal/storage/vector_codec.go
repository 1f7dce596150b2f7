package storage

import (
	"bytes"
	"encoding/binary"
)

// encodeVector serializes a float32 embedding into the little-endian byte
// blob sqlite-vec's vec0 module expects, in codenerd's
// encodeFloat32Slice style (vector_store.go).
func encodeVector(vec []float32) ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Grow(len(vec) * 4)
	if err := binary.Write(buf, binary.LittleEndian, vec); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
