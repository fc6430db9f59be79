// Package mesh decodes STL files into triangle meshes.
package mesh

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"

	"github.com/soypat/glgl/math/ms3"
)

// Mesh is the parsed surface of a 3D model.
type Mesh struct {
	// Name is the solid name of ASCII STL files. Empty for binary files.
	Name      string
	Triangles []ms3.Triangle
	// Skipped counts degenerate triangles dropped during parsing.
	Skipped int
}

// Bounds returns the axis aligned bounding box of all mesh vertices.
// The zero Box is returned for an empty mesh.
func (m Mesh) Bounds() ms3.Box {
	if len(m.Triangles) == 0 {
		return ms3.Box{}
	}
	inf := float32(math.Inf(1))
	bb := ms3.Box{
		Min: ms3.Vec{X: inf, Y: inf, Z: inf},
		Max: ms3.Vec{X: -inf, Y: -inf, Z: -inf},
	}
	for _, t := range m.Triangles {
		for _, v := range t {
			bb.Min = ms3.MinElem(bb.Min, v)
			bb.Max = ms3.MaxElem(bb.Max, v)
		}
	}
	return bb
}

// ErrEmpty is returned when a file holds no usable triangles.
var ErrEmpty = errors.New("mesh has no triangles")

// Parse decodes an STL file held in memory. Both the binary and ASCII
// encodings are accepted. Malformed input returns an error.
func Parse(b []byte) (Mesh, error) {
	var (
		m   Mesh
		err error
	)
	if isASCII(b) {
		m, err = ReadASCIISTL(bytes.NewReader(b))
	} else {
		m, err = ReadBinarySTL(bytes.NewReader(b))
		if errors.Is(err, ErrNormalMismatch) {
			// Normals are recalculated by the renderer.
			err = nil
		}
	}
	if err != nil {
		return Mesh{}, err
	}
	if len(m.Triangles) == 0 {
		return Mesh{}, ErrEmpty
	}
	return m, nil
}

// isASCII reports whether b looks like an ASCII STL file. Binary files may
// also begin with "solid" so the binary size is checked first.
func isASCII(b []byte) bool {
	if len(b) >= sizeOfSTLHeader {
		count := binary.LittleEndian.Uint32(b[80:])
		if int64(sizeOfSTLHeader)+int64(count)*stlTriangleSize == int64(len(b)) {
			return false
		}
	}
	trimmed := bytes.TrimLeft(b, " \t\r\n")
	return bytes.HasPrefix(trimmed, []byte("solid")) && bytes.Contains(trimmed, []byte("facet"))
}
