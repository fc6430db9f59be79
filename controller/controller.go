// Package controller implements the viewer's state machine: it owns the
// render options, the buffer of the last loaded file and what is displayed,
// and processes one Msg at a time.
package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/soypat/stlview"
	"github.com/soypat/stlview/mesh"
	"github.com/soypat/stlview/objurl"
	"github.com/soypat/stlview/render"
	"go.uber.org/zap"
)

// State of the controller.
type State uint8

const (
	Idle     State = iota // No file loaded.
	Ready                 // File loaded, not rendered since.
	Rendered              // Last render succeeded.
	Failed                // Last render failed.
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Ready:
		return "ready"
	case Rendered:
		return "rendered"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// Config configures a Controller. Only Post is required.
type Config struct {
	// Post delivers completion events of file reads back to the goroutine
	// calling Update. It may be called from any goroutine.
	Post func(Msg)
	// ParseMesh decodes the loaded file. Defaults to mesh.Parse.
	ParseMesh func([]byte) (mesh.Mesh, error)
	// Renderer defaults to a render.FauxGL with default configuration.
	Renderer render.Renderer
	// Converter turns rendered bytes into a displayable handle.
	// Defaults to objurl.DataURL.
	Converter objurl.Converter
	// MaxFileSize limits the size of loaded files. Zero means no limit.
	MaxFileSize int64
	Logger      *zap.Logger
}

// revoker is implemented by converters whose handles hold resources,
// such as *objurl.Store.
type revoker interface {
	Revoke(handle string)
}

// Controller coordinates file ingestion, parameter edits and rendering.
// It is not safe for concurrent use; Session serializes access to it.
type Controller struct {
	params    *Params
	ingest    *Ingestor
	display   Display
	state     State
	parse     func([]byte) (mesh.Mesh, error)
	renderer  render.Renderer
	converter objurl.Converter
	logger    *zap.Logger
}

// New returns a Controller in the Idle state holding default options.
// It panics if cfg.Post is nil.
func New(cfg Config) *Controller {
	if cfg.Post == nil {
		panic("controller: nil Post function")
	}
	if cfg.ParseMesh == nil {
		cfg.ParseMesh = mesh.Parse
	}
	if cfg.Renderer == nil {
		cfg.Renderer = render.NewFauxGL(render.DefaultConfig())
	}
	if cfg.Converter == nil {
		cfg.Converter = objurl.DataURL{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	logger := cfg.Logger.With(zap.String("component", "controller"))
	return &Controller{
		params:    NewParams(),
		ingest:    newIngestor(cfg.Post, cfg.MaxFileSize, logger),
		parse:     cfg.ParseMesh,
		renderer:  cfg.Renderer,
		converter: cfg.Converter,
		logger:    logger,
	}
}

// Update processes msg to completion and reports whether the presenter
// should redraw. ctx is handed to the renderer.
func (c *Controller) Update(ctx context.Context, msg Msg) (redraw bool) {
	switch m := msg.(type) {
	case SelectFiles:
		c.ingest.Select(m.Files)
	case FileLoaded:
		if err := c.ingest.Complete(m); err != nil {
			c.fail(err)
			c.logger.Warn("file load failed", zap.String("name", m.Name), zap.Error(m.Err))
			break
		}
		c.state = Ready
	case UpdateAxis:
		c.edit(c.params.UpdateAxis(m.Vector, m.Axis, m.Text))
	case UpdateWidth:
		c.edit(c.params.UpdateWidth(m.Text))
	case UpdateHeight:
		c.edit(c.params.UpdateHeight(m.Text))
	case Reset:
		c.params.Reset()
	case Render:
		return c.render(ctx)
	default:
		panic(fmt.Sprintf("controller: unknown message %T", msg))
	}
	return true
}

func (c *Controller) edit(err error) {
	if err != nil {
		c.fail(err)
		return
	}
	c.display.clearErr()
}

func (c *Controller) fail(err error) {
	c.display.setErr(err.Error(), err)
}

// render runs parse, render and conversion without yielding. It is a no-op
// returning false if no file has been loaded.
func (c *Controller) render(ctx context.Context) bool {
	name, data, ok := c.ingest.Buffer()
	if !ok {
		return false
	}
	opts := c.params.Options()
	start := time.Now()
	m, err := c.parse(data)
	if err != nil {
		c.fail(fmt.Errorf("%w: %s: %w", ErrMeshParse, name, err))
		c.logger.Warn("mesh parse failed", zap.String("name", name), zap.Error(err))
		return true
	}
	rendered, err := c.renderer.Render(ctx, m, opts)
	if err != nil {
		// The renderer's own message is displayed.
		c.display.setErr(err.Error(), fmt.Errorf("%w: %w", ErrRender, err))
		c.state = Failed
		c.logger.Warn("render failed", zap.Error(err))
		return true
	}
	c.logger.Info("rendered",
		zap.String("name", name),
		zap.Int("triangles", len(m.Triangles)),
		zap.Duration("elapsed", time.Since(start)),
	)

	start = time.Now()
	handle, err := c.converter.ToHandle(rendered, stlview.JPEG)
	if err != nil {
		c.fail(fmt.Errorf("%w: %w", ErrConvert, err))
		c.state = Failed
		return true
	}
	c.logger.Debug("converted to handle", zap.Duration("elapsed", time.Since(start)))
	old := c.display.setArtifact(handle)
	if rv, ok := c.converter.(revoker); ok && old != "" {
		rv.Revoke(old)
	}
	c.display.clearErr()
	c.state = Rendered
	return true
}

// View is a read-only snapshot of everything a presenter displays.
type View struct {
	Options  stlview.Options
	Err      string
	Artifact string
	State    State
	// FileName and FileSize describe the loaded buffer, if any.
	FileName string
	FileSize int
	Pending  int
	Version  string
}

// View returns a snapshot of the controller state.
func (c *Controller) View() View {
	name, data, _ := c.ingest.Buffer()
	return View{
		Options:  c.params.Options(),
		Err:      c.display.Err(),
		Artifact: c.display.Artifact(),
		State:    c.state,
		FileName: name,
		FileSize: len(data),
		Pending:  c.ingest.Pending(),
		Version:  stlview.Version,
	}
}

// State returns the current state.
func (c *Controller) State() State { return c.state }

// Display returns the error and artifact holder.
func (c *Controller) Display() *Display { return &c.display }

// Options returns the current render options.
func (c *Controller) Options() stlview.Options { return c.params.Options() }
