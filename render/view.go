package render

import (
	"math"

	"github.com/soypat/glgl/math/ms3"
	"github.com/soypat/stlview"
	"gonum.org/v1/gonum/spatial/r3"
)

// halfDiagonal is the distance from the origin to a corner of the bi-unit
// cube the mesh is fitted into.
var halfDiagonal = math.Sqrt(3)

// View is a perspective camera.
type View struct {
	// what position (point) to look at
	LookAt r3.Vec
	// which way is up (direction)
	Up r3.Vec
	// where the camera/eye located at (point)
	Eye  r3.Vec
	Near float64
	Far  float64
}

// ViewFromOptions builds the camera for a render. The up direction is +Z
// unless the line of sight is parallel to Z, in which case +Y is used.
// Clipping planes enclose the whole bi-unit cube.
func ViewFromOptions(o stlview.Options) View {
	eye := r3From(o.From)
	lookat := r3From(o.To)
	dir := r3.Sub(lookat, eye)
	dist := r3.Norm(dir)
	up := r3.Vec{Z: 1}
	if dist > 0 && r3.Norm(r3.Cross(r3.Scale(1/dist, dir), up)) < 1e-6 {
		up = r3.Vec{Y: 1}
	}
	eyeToOrigin := r3.Norm(eye)
	return View{
		LookAt: lookat,
		Up:     up,
		Eye:    eye,
		Near:   math.Max(1e-3, eyeToOrigin-halfDiagonal),
		Far:    eyeToOrigin + halfDiagonal + 1,
	}
}

func r3From(v ms3.Vec) r3.Vec {
	return r3.Vec{X: float64(v.X), Y: float64(v.Y), Z: float64(v.Z)}
}
