// Package stlview holds the render parameters and resource types shared by
// the mesh viewer packages.
//
// The viewer itself is driven by controller.Controller: STL files are loaded
// asynchronously into a single buffer, the [Options] below are edited field by
// field and a render converts the buffer into a displayable image handle.
package stlview

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms3"
)

// Default render parameters. The camera looks at the origin of the
// normalized model frame from the positive octant, the resolution is
// Full HD scaled down by 0.4.
const (
	DefaultWidth  = 768
	DefaultHeight = 432
)

// Options are the user-configurable parameters for a single render.
// From and To are the camera position and the point it looks at, expressed
// in the frame where the model is fitted into the bi-unit cube centered at
// the origin.
type Options struct {
	From   ms3.Vec
	To     ms3.Vec
	Width  int // Output width in pixels.
	Height int // Output height in pixels.
}

// DefaultOptions returns the options a fresh session starts with and
// the value controller.Params.Reset restores.
func DefaultOptions() Options {
	return Options{
		From:   ms3.Vec{X: 3, Y: 3, Z: 3},
		To:     ms3.Vec{},
		Width:  DefaultWidth,
		Height: DefaultHeight,
	}
}

// Validate checks the options can be rendered: finite camera points that
// do not coincide and a positive resolution.
func (o Options) Validate() error {
	if !finite3(o.From) || !finite3(o.To) {
		return errors.New("inf/NaN camera vector")
	}
	if o.From == o.To {
		return errors.New("camera position and target coincide")
	}
	if o.Width <= 0 || o.Height <= 0 {
		return fmt.Errorf("invalid image dimensions %dx%d", o.Width, o.Height)
	}
	return nil
}

// Finite reports whether f is neither NaN nor an infinity.
func Finite(f float32) bool {
	return !math32.IsNaN(f) && !math32.IsInf(f, 0)
}

func finite3(v ms3.Vec) bool {
	return Finite(v.X) && Finite(v.Y) && Finite(v.Z)
}
