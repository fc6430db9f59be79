package mesh

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/soypat/glgl/math/ms3"
)

// ReadASCIISTL reads an ASCII STL file of the form
//
//	solid name
//	  facet normal nx ny nz
//	    outer loop
//	      vertex x y z
//	      vertex x y z
//	      vertex x y z
//	    endloop
//	  endfacet
//	endsolid name
//
// Stored normals are ignored. Degenerate facets are dropped and counted.
func ReadASCIISTL(r io.Reader) (Mesh, error) {
	var (
		m     Mesh
		tri   ms3.Triangle
		nv    int // vertices read in current facet
		line  int
		state = asciiSolid
	)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		kw := fields[0]
		switch {
		case state == asciiSolid && kw == "solid":
			m.Name = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(sc.Text()), "solid"))
			state = asciiFacet
		case state == asciiFacet && kw == "facet":
			state = asciiLoop
		case state == asciiFacet && kw == "endsolid":
			state = asciiDone
		case state == asciiLoop && kw == "outer":
			nv = 0
			state = asciiVertex
		case state == asciiVertex && kw == "vertex":
			if nv == 3 {
				return Mesh{}, fmt.Errorf("line %d: facet has more than 3 vertices", line)
			}
			v, err := parseVertex(fields[1:])
			if err != nil {
				return Mesh{}, fmt.Errorf("line %d: %w", line, err)
			}
			tri[nv] = v
			nv++
		case state == asciiVertex && kw == "endloop":
			if nv != 3 {
				return Mesh{}, fmt.Errorf("line %d: facet has %d vertices, want 3", line, nv)
			}
			state = asciiEndFacet
		case state == asciiEndFacet && kw == "endfacet":
			if tri.IsDegenerate(1e-12) {
				m.Skipped++
			} else {
				m.Triangles = append(m.Triangles, tri)
			}
			state = asciiFacet
		default:
			return Mesh{}, fmt.Errorf("line %d: unexpected %q", line, kw)
		}
		if state == asciiDone {
			break
		}
	}
	if err := sc.Err(); err != nil {
		return Mesh{}, err
	}
	if state != asciiDone {
		return Mesh{}, errors.New("unexpected end of ASCII STL, missing endsolid")
	}
	return m, nil
}

type asciiState int

const (
	asciiSolid asciiState = iota
	asciiFacet
	asciiLoop
	asciiVertex
	asciiEndFacet
	asciiDone
)

func parseVertex(fields []string) (ms3.Vec, error) {
	if len(fields) != 3 {
		return ms3.Vec{}, fmt.Errorf("vertex needs 3 coordinates, got %d", len(fields))
	}
	var f [3]float32
	for i, s := range fields {
		v, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return ms3.Vec{}, err
		}
		f[i] = float32(v)
	}
	if bad3F32(f) {
		return ms3.Vec{}, errors.New("inf/NaN STL triangle vertex")
	}
	return vecFromArray(f), nil
}
