package mesh

import (
	"bytes"
	"errors"
	"testing"

	"github.com/soypat/glgl/math/ms3"
)

// cube returns the 12 triangles of an axis aligned cube of side s
// with its minimum corner at the origin.
func cube(s float32) []ms3.Triangle {
	v := func(x, y, z float32) ms3.Vec { return ms3.Vec{X: x * s, Y: y * s, Z: z * s} }
	return []ms3.Triangle{
		{v(0, 0, 0), v(0, 1, 0), v(1, 1, 0)}, {v(0, 0, 0), v(1, 1, 0), v(1, 0, 0)}, // bottom
		{v(0, 0, 1), v(1, 0, 1), v(1, 1, 1)}, {v(0, 0, 1), v(1, 1, 1), v(0, 1, 1)}, // top
		{v(0, 0, 0), v(1, 0, 0), v(1, 0, 1)}, {v(0, 0, 0), v(1, 0, 1), v(0, 0, 1)}, // front
		{v(0, 1, 0), v(0, 1, 1), v(1, 1, 1)}, {v(0, 1, 0), v(1, 1, 1), v(1, 1, 0)}, // back
		{v(0, 0, 0), v(0, 0, 1), v(0, 1, 1)}, {v(0, 0, 0), v(0, 1, 1), v(0, 1, 0)}, // left
		{v(1, 0, 0), v(1, 1, 0), v(1, 1, 1)}, {v(1, 0, 0), v(1, 1, 1), v(1, 0, 1)}, // right
	}
}

func TestSTLWriteReadback(t *testing.T) {
	const tol = 1e-6
	input := cube(2)
	var b bytes.Buffer
	n, err := WriteBinarySTL(&b, input)
	if err != nil {
		t.Fatal(err)
	}
	if n != sizeOfSTLHeader+len(input)*stlTriangleSize || n != b.Len() {
		t.Fatalf("wrote %d bytes, buffer has %d", n, b.Len())
	}
	m, err := Parse(b.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Triangles) != len(input) {
		t.Fatalf("length of triangles written/read not equal. got %d, want %d", len(m.Triangles), len(input))
	}
	for iface, expect := range input {
		got := m.Triangles[iface]
		for i := range expect {
			if !ms3.EqualElem(got[i], expect[i], tol) {
				t.Errorf("%dth triangle equality out of tolerance. got vertex %v, want %v", iface, got[i], expect[i])
			}
		}
	}
	bb := m.Bounds()
	if bb.Min != (ms3.Vec{}) || bb.Max != (ms3.Vec{X: 2, Y: 2, Z: 2}) {
		t.Errorf("unexpected bounds %+v", bb)
	}
}

func TestReadBinarySTLNormalMismatch(t *testing.T) {
	var b bytes.Buffer
	if _, err := WriteBinarySTL(&b, cube(1)); err != nil {
		t.Fatal(err)
	}
	raw := b.Bytes()
	// Zero out all stored normals like many exporters do.
	for i := sizeOfSTLHeader; i < len(raw); i += stlTriangleSize {
		copy(raw[i:i+12], make([]byte, 12))
	}
	m, err := ReadBinarySTL(bytes.NewReader(raw))
	if !errors.Is(err, ErrNormalMismatch) {
		t.Fatalf("expected normal mismatch, got %v", err)
	}
	if len(m.Triangles) != 12 {
		t.Fatalf("expected all triangles returned with mismatch, got %d", len(m.Triangles))
	}
	if _, err := Parse(raw); err != nil {
		t.Fatal("Parse should tolerate normal mismatches:", err)
	}
}

func TestReadBinarySTLBadNormal(t *testing.T) {
	var b bytes.Buffer
	if _, err := WriteBinarySTL(&b, cube(1)); err != nil {
		t.Fatal(err)
	}
	raw := b.Bytes()
	copy(raw[sizeOfSTLHeader:], []byte{0, 0, 0xc0, 0x7f})                   // NaN normal x.
	copy(raw[sizeOfSTLHeader+stlTriangleSize+4:], []byte{0, 0, 0x80, 0x7f}) // +Inf normal y.
	m, err := ReadBinarySTL(bytes.NewReader(raw))
	if !errors.Is(err, ErrNormalMismatch) {
		t.Fatalf("expected normal mismatch, got %v", err)
	}
	if len(m.Triangles) != 12 {
		t.Fatalf("got %d triangles, want 12", len(m.Triangles))
	}
	if _, err := Parse(raw); err != nil {
		t.Fatal("Parse should tolerate non-finite normals:", err)
	}
}

func TestReadBinarySTLDegenerate(t *testing.T) {
	model := cube(1)
	p := ms3.Vec{X: 5, Y: 5, Z: 5}
	model = append(model, ms3.Triangle{p, p, ms3.Vec{X: 6, Y: 5, Z: 5}})
	var b bytes.Buffer
	if _, err := WriteBinarySTL(&b, model); err != nil {
		t.Fatal(err)
	}
	m, err := Parse(b.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if m.Skipped != 1 || len(m.Triangles) != 12 {
		t.Errorf("got %d triangles, %d skipped", len(m.Triangles), m.Skipped)
	}
}

func TestParseMalformed(t *testing.T) {
	var good bytes.Buffer
	if _, err := WriteBinarySTL(&good, cube(1)); err != nil {
		t.Fatal(err)
	}
	zeroCount := make([]byte, sizeOfSTLHeader)
	nanTri := append([]byte(nil), good.Bytes()...)
	copy(nanTri[sizeOfSTLHeader+12:], []byte{0, 0, 0xc0, 0x7f}) // float32 NaN
	for _, test := range []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "short header", data: []byte("solid")},
		{name: "garbage", data: bytes.Repeat([]byte{0xff}, 200)},
		{name: "zero count", data: zeroCount},
		{name: "truncated", data: good.Bytes()[:good.Len()-10]},
		{name: "nan vertex", data: nanTri},
		{name: "ascii no endsolid", data: []byte("solid x\nfacet normal 0 0 1\nouter loop\nvertex 0 0 0\n")},
		{name: "ascii bad number", data: []byte("solid x\nfacet normal 0 0 1\nouter loop\nvertex 0 a 0\nvertex 1 0 0\nvertex 0 1 0\nendloop\nendfacet\nendsolid x\n")},
		{name: "ascii two vertices", data: []byte("solid x\nfacet normal 0 0 1\nouter loop\nvertex 0 0 0\nvertex 1 0 0\nendloop\nendfacet\nendsolid x\n")},
		{name: "ascii empty solid", data: []byte("solid facetless\nendsolid facetless\n")},
	} {
		_, err := Parse(test.data)
		if err == nil {
			t.Errorf("%s: expected error", test.name)
		}
	}
}

func TestParseASCII(t *testing.T) {
	const src = `solid tetra
  facet normal 0 0 -1
    outer loop
      vertex 0 0 0
      vertex 0 1 0
      vertex 1 0 0
    endloop
  endfacet
  facet normal 0 -1 0
    outer loop
      vertex 0 0 0
      vertex 1 0 0
      vertex 0 0 1
    endloop
  endfacet
  facet normal -1 0 0
    outer loop
      vertex 0 0 0
      vertex 0 0 1
      vertex 0 1 0
    endloop
  endfacet
  facet normal 1 1 1
    outer loop
      vertex 1 0 0
      vertex 0 1 0
      vertex 0 0 1.5e0
    endloop
  endfacet
endsolid tetra
`
	m, err := Parse([]byte(src))
	if err != nil {
		t.Fatal(err)
	}
	if m.Name != "tetra" {
		t.Errorf("got name %q", m.Name)
	}
	if len(m.Triangles) != 4 {
		t.Fatalf("got %d triangles, want 4", len(m.Triangles))
	}
	if got := m.Triangles[3][2].Z; got != 1.5 {
		t.Errorf("got vertex z %v, want 1.5", got)
	}
}

func TestBinaryWithSolidHeader(t *testing.T) {
	var b bytes.Buffer
	if _, err := WriteBinarySTL(&b, cube(1)); err != nil {
		t.Fatal(err)
	}
	raw := b.Bytes()
	// Exporters often write "solid" into the binary header.
	copy(raw, "solid facet exporter")
	m, err := Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Triangles) != 12 {
		t.Fatalf("got %d triangles", len(m.Triangles))
	}
}

func TestWriteBinarySTLEmpty(t *testing.T) {
	var b bytes.Buffer
	if _, err := WriteBinarySTL(&b, nil); err == nil {
		t.Fatal("expected error writing empty model")
	}
}
