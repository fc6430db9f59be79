package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/jpeg"

	"github.com/fogleman/fauxgl"
	"github.com/nfnt/resize"
	"github.com/soypat/glgl/math/ms3"
	"github.com/soypat/stlview"
	"github.com/soypat/stlview/mesh"
)

// Config configures the software renderer.
type Config struct {
	// Supersample renders at Supersample times the requested resolution
	// and downsamples the result for antialiasing. Values below 2 disable it.
	Supersample int `yaml:"supersample"`
	// Quality is the JPEG quality in range 1..100.
	Quality int `yaml:"quality"`
	// FieldOfView is the vertical field of view in degrees.
	FieldOfView float64 `yaml:"fov"`
	// MaxPixels limits the pixels rasterized per render, that is
	// Width*Height*Supersample². Zero means no limit.
	MaxPixels int `yaml:"max_pixels"`
	// Background and Object are hex colors, i.e: "#FFF8E3".
	Background string `yaml:"background"`
	Object     string `yaml:"object"`
}

// DefaultConfig returns the configuration used by NewFauxGL for zero fields.
func DefaultConfig() Config {
	return Config{
		Supersample: 1,
		Quality:     90,
		FieldOfView: 30,
		MaxPixels:   4096 * 4096,
		Background:  "#FFF8E3",
		Object:      "#468966",
	}
}

// FauxGL rasterizes meshes on the CPU with a Phong shader and encodes the
// result as JPEG.
type FauxGL struct {
	cfg        Config
	background fauxgl.Color
	object     fauxgl.Color
	light      fauxgl.Vector
}

var _ Renderer = (*FauxGL)(nil)

// NewFauxGL returns a software renderer. Zero fields of cfg take the
// value of DefaultConfig.
func NewFauxGL(cfg Config) *FauxGL {
	def := DefaultConfig()
	if cfg.Supersample < 1 {
		cfg.Supersample = def.Supersample
	}
	if cfg.Quality < 1 || cfg.Quality > 100 {
		cfg.Quality = def.Quality
	}
	if cfg.FieldOfView <= 0 || cfg.FieldOfView >= 180 {
		cfg.FieldOfView = def.FieldOfView
	}
	if cfg.MaxPixels < 0 {
		cfg.MaxPixels = 0
	}
	if cfg.Background == "" {
		cfg.Background = def.Background
	}
	if cfg.Object == "" {
		cfg.Object = def.Object
	}
	return &FauxGL{
		cfg:        cfg,
		background: fauxgl.HexColor(cfg.Background),
		object:     fauxgl.HexColor(cfg.Object),
		light:      fauxgl.V(-0.75, 1, 0.25).Normalize(),
	}
}

// Config returns the effective configuration.
func (f *FauxGL) Config() Config { return f.cfg }

// Render draws m as seen from opts.From looking at opts.To. The mesh is
// first fitted into the bi-unit cube centered at the origin.
func (f *FauxGL) Render(ctx context.Context, m mesh.Mesh, opts stlview.Options) ([]byte, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	ss := int64(f.cfg.Supersample)
	if f.cfg.MaxPixels > 0 && int64(opts.Width)*ss*int64(opts.Height)*ss > int64(f.cfg.MaxPixels) {
		return nil, fmt.Errorf("image of %dx%d pixels at supersample %d exceeds limit of %d pixels", opts.Width, opts.Height, ss, f.cfg.MaxPixels)
	}
	if len(m.Triangles) == 0 {
		return nil, errors.New("nothing to render: empty mesh")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var (
		view   = ViewFromOptions(opts)
		width  = opts.Width
		height = opts.Height
		scale  = f.cfg.Supersample
		eye    = fauxgl.V(view.Eye.X, view.Eye.Y, view.Eye.Z)          // camera position
		center = fauxgl.V(view.LookAt.X, view.LookAt.Y, view.LookAt.Z) // view center position
		up     = fauxgl.V(view.Up.X, view.Up.Y, view.Up.Z)             // up vector
	)
	fmesh := fauxMesh(m)
	// fit mesh in a bi-unit cube centered at the origin
	fmesh.BiUnitCube()
	context := fauxgl.NewContext(width*scale, height*scale)
	context.ClearColorBufferWith(f.background)
	aspect := float64(width) / float64(height)
	matrix := fauxgl.LookAt(eye, center, up).Perspective(f.cfg.FieldOfView, aspect, view.Near, view.Far)
	shader := fauxgl.NewPhongShader(matrix, f.light, eye)
	shader.ObjectColor = f.object
	context.Shader = shader
	context.DrawMesh(fmesh)

	image := context.Image()
	if scale > 1 {
		// downsample image for antialiasing
		image = resize.Resize(uint(width), uint(height), image, resize.Bilinear)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image, &jpeg.Options{Quality: f.cfg.Quality}); err != nil {
		return nil, fmt.Errorf("encoding jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

func fauxMesh(m mesh.Mesh) *fauxgl.Mesh {
	triangles := make([]*fauxgl.Triangle, len(m.Triangles))
	for i, t := range m.Triangles {
		triangles[i] = fauxgl.NewTriangleForPoints(fauxV(t[0]), fauxV(t[1]), fauxV(t[2]))
	}
	return fauxgl.NewTriangleMesh(triangles)
}

func fauxV(v ms3.Vec) fauxgl.Vector {
	return fauxgl.V(float64(v.X), float64(v.Y), float64(v.Z))
}
