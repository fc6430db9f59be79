// Command stlview renders an STL model to a JPEG image.
//
// Usage:
//
//	stlview [flags] model.stl
//
// The file is loaded, the camera and resolution edits given by flags or the
// configuration file are applied in order and the model is rendered once.
// When several files are given they are loaded concurrently and the one
// that finishes loading last is rendered.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"

	"github.com/soypat/stlview"
	"github.com/soypat/stlview/controller"
	"github.com/soypat/stlview/internal/config"
	"github.com/soypat/stlview/objurl"
	"github.com/soypat/stlview/render"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "stlview:", err)
		os.Exit(1)
	}
}

type flags struct {
	config  string
	from    string
	to      string
	width   string
	height  string
	output  string
	ss      int
	quality int
	dataURL bool
	verbose bool
	version bool
}

func run() error {
	var f flags
	flag.StringVar(&f.config, "config", "", "YAML configuration file")
	flag.StringVar(&f.from, "from", "", "camera position as x,y,z")
	flag.StringVar(&f.to, "to", "", "camera target as x,y,z")
	flag.StringVar(&f.width, "width", "", "image width in pixels")
	flag.StringVar(&f.height, "height", "", "image height in pixels")
	flag.StringVar(&f.output, "o", "", "output JPEG path")
	flag.IntVar(&f.ss, "supersample", 0, "supersampling factor for antialiasing")
	flag.IntVar(&f.quality, "quality", 0, "JPEG quality 1..100")
	flag.BoolVar(&f.dataURL, "dataurl", false, "print the image as a data URL")
	flag.BoolVar(&f.verbose, "v", false, "verbose development logging")
	flag.BoolVar(&f.version, "version", false, "print version and exit")
	flag.Parse()
	if f.version {
		printVersion(os.Stdout)
		return nil
	}
	if flag.NArg() == 0 {
		flag.Usage()
		return errors.New("no STL file given")
	}

	cfg, err := config.Load(f.config)
	if err != nil {
		return err
	}
	if err := applyFlags(&cfg, f); err != nil {
		return err
	}
	logger, err := cfg.Log.Logger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	store := objurl.NewStore()
	var conv objurl.Converter = store
	if cfg.DataURL {
		conv = objurl.DataURL{}
	}
	sess := controller.NewSession(controller.Config{
		Renderer:    render.NewFauxGL(cfg.Render),
		Converter:   conv,
		MaxFileSize: cfg.MaxFileSize,
		Logger:      logger,
	})
	obs := make(chan observation, 64)
	sess.Observe(func(msg controller.Msg, v controller.View, _ bool) {
		obs <- observation{msg: msg, view: v}
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runCtx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		err := sess.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	var result controller.View
	g.Go(func() error {
		defer cancel()
		var err error
		result, err = drive(gctx, sess, obs, cfg, flag.Args(), logger)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return output(result, cfg, store)
}

type observation struct {
	msg  controller.Msg
	view controller.View
}

// drive plays the part of the user: it selects the files, waits for them to
// load, applies the parameter edits and requests a render.
func drive(ctx context.Context, sess *controller.Session, obs <-chan observation, cfg config.Config, paths []string, logger *zap.Logger) (controller.View, error) {
	files := make([]controller.File, len(paths))
	for i, p := range paths {
		files[i] = controller.OSFile(p)
	}
	sess.Send(controller.SelectFiles{Files: files})
	loaded := 0
	var v controller.View
	for loaded < len(files) {
		o, err := await(ctx, obs)
		if err != nil {
			return v, err
		}
		if ev, ok := o.msg.(controller.FileLoaded); ok {
			loaded++
			v = o.view
			if ev.Err != nil {
				logger.Warn("skipping file", zap.String("name", ev.Name), zap.Error(ev.Err))
			}
		}
	}
	if v.FileName == "" {
		return v, fmt.Errorf("no file loaded: %s", v.Err)
	}

	for _, edit := range cameraEdits(cfg.Camera) {
		sess.Send(edit)
		o, err := await(ctx, obs)
		if err != nil {
			return v, err
		}
		if o.view.Err != "" {
			return o.view, fmt.Errorf("invalid parameter: %s", o.view.Err)
		}
	}

	sess.Send(controller.Render{})
	o, err := await(ctx, obs)
	if err != nil {
		return v, err
	}
	if o.view.State != controller.Rendered {
		return o.view, fmt.Errorf("rendering %s: %s", o.view.FileName, o.view.Err)
	}
	return o.view, nil
}

func await(ctx context.Context, obs <-chan observation) (observation, error) {
	select {
	case o := <-obs:
		return o, nil
	case <-ctx.Done():
		return observation{}, ctx.Err()
	}
}

// cameraEdits returns the edit commands for all camera fields that are set.
func cameraEdits(c config.Camera) []controller.Msg {
	var msgs []controller.Msg
	axes := []controller.Axis{controller.X, controller.Y, controller.Z}
	for i, text := range c.From {
		msgs = append(msgs, controller.UpdateAxis{Vector: controller.From, Axis: axes[i], Text: text})
	}
	for i, text := range c.To {
		msgs = append(msgs, controller.UpdateAxis{Vector: controller.To, Axis: axes[i], Text: text})
	}
	if c.Width != "" {
		msgs = append(msgs, controller.UpdateWidth{Text: c.Width})
	}
	if c.Height != "" {
		msgs = append(msgs, controller.UpdateHeight{Text: c.Height})
	}
	return msgs
}

// applyFlags overrides cfg with the flags set on the command line.
func applyFlags(cfg *config.Config, f flags) error {
	var err error
	flag.Visit(func(fl *flag.Flag) {
		var verr error
		switch fl.Name {
		case "from":
			cfg.Camera.From, verr = splitVector(f.from)
		case "to":
			cfg.Camera.To, verr = splitVector(f.to)
		case "width":
			cfg.Camera.Width = f.width
		case "height":
			cfg.Camera.Height = f.height
		case "o":
			cfg.Output = f.output
		case "supersample":
			cfg.Render.Supersample = f.ss
		case "quality":
			cfg.Render.Quality = f.quality
		case "dataurl":
			cfg.DataURL = f.dataURL
		case "v":
			cfg.Log.Development = f.verbose
			if f.verbose {
				cfg.Log.Level = "debug"
			}
		}
		if err == nil {
			err = verr
		}
	})
	if err != nil {
		return err
	}
	return cfg.Validate()
}

func splitVector(s string) ([]string, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return nil, fmt.Errorf("vector %q needs 3 comma separated components", s)
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts, nil
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "stlview %s %s/%s\n", stlview.Version, runtime.GOOS, runtime.GOARCH)
}

// output writes the rendered image and prints its handle.
func output(v controller.View, cfg config.Config, store *objurl.Store) error {
	var (
		b  []byte
		ok bool
	)
	if cfg.DataURL {
		var err error
		_, b, err = objurl.DecodeDataURL(v.Artifact)
		ok = err == nil
	} else {
		b, _, ok = store.Get(v.Artifact)
	}
	if !ok {
		return fmt.Errorf("rendered image %q not available", v.Artifact)
	}
	if err := os.WriteFile(cfg.Output, b, 0o644); err != nil {
		return err
	}
	fmt.Println(v.Artifact)
	fmt.Fprintf(os.Stderr, "%s: %dx%d image written to %s (stlview %s)\n", v.FileName, v.Options.Width, v.Options.Height, cfg.Output, v.Version)
	return nil
}
