// Package render turns a parsed mesh and a set of render options into
// encoded image bytes.
package render

import (
	"context"

	"github.com/soypat/stlview"
	"github.com/soypat/stlview/mesh"
)

// Renderer is a single-shot image renderer. Implementations must not retain
// the mesh after Render returns.
type Renderer interface {
	Render(ctx context.Context, m mesh.Mesh, opts stlview.Options) ([]byte, error)
}

// Func adapts an ordinary function to the Renderer interface.
type Func func(ctx context.Context, m mesh.Mesh, opts stlview.Options) ([]byte, error)

// Render calls f(ctx, m, opts).
func (f Func) Render(ctx context.Context, m mesh.Mesh, opts stlview.Options) ([]byte, error) {
	return f(ctx, m, opts)
}
