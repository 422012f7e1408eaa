package scene

import (
	"crypto/md5"
	"encoding/binary"
	"encoding/hex"
	"math"
)

// Compute an MD5 checksum of the vertex positions of a triangle list. The
// positions are hashed as consecutive little endian float32 triples so the
// checksum only changes when the geometry does.
func Checksum(triangles []Triangle) string {
	h := md5.New()
	var buf [36]byte
	for i := range triangles {
		off := 0
		for _, vert := range triangles[i].Vertices {
			for axis := 0; axis < 3; axis++ {
				binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(vert.Position[axis]))
				off += 4
			}
		}
		h.Write(buf[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}
