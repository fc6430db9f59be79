package controller

import (
	"strconv"

	"github.com/soypat/glgl/math/ms3"
	"github.com/soypat/stlview"
)

// Vector selects one of the two camera points.
type Vector uint8

const (
	From Vector = iota
	To
)

func (v Vector) String() string {
	if v == From {
		return "from"
	}
	return "to"
}

// Axis selects a component of a Vector.
type Axis uint8

const (
	X Axis = iota
	Y
	Z
)

func (a Axis) String() string {
	switch a {
	case X:
		return "x"
	case Y:
		return "y"
	}
	return "z"
}

// Params holds the render options being edited. Every update either
// replaces exactly one field or leaves all of them untouched.
type Params struct {
	opts stlview.Options
}

// NewParams returns Params holding stlview.DefaultOptions.
func NewParams() *Params {
	return &Params{opts: stlview.DefaultOptions()}
}

// Options returns a snapshot of the current options.
func (p *Params) Options() stlview.Options { return p.opts }

// UpdateAxis parses text as a 32 bit float and writes it to one component
// of a camera point. NaN and infinities are rejected.
func (p *Params) UpdateAxis(v Vector, a Axis, text string) error {
	field := v.String() + "." + a.String()
	f, err := strconv.ParseFloat(text, 32)
	if err != nil {
		return &ParseError{Field: field, Text: text, Err: err}
	}
	f32 := float32(f)
	if !stlview.Finite(f32) {
		return &ParseError{Field: field, Text: text, Err: ErrNotFinite}
	}
	vec := &p.opts.From
	if v == To {
		vec = &p.opts.To
	}
	setAxis(vec, a, f32)
	return nil
}

// UpdateWidth parses text as a non-negative integer and sets the output width.
func (p *Params) UpdateWidth(text string) error {
	w, err := parseDimension("width", text)
	if err != nil {
		return err
	}
	p.opts.Width = w
	return nil
}

// UpdateHeight parses text as a non-negative integer and sets the output height.
func (p *Params) UpdateHeight(text string) error {
	h, err := parseDimension("height", text)
	if err != nil {
		return err
	}
	p.opts.Height = h
	return nil
}

// Reset restores stlview.DefaultOptions.
func (p *Params) Reset() {
	p.opts = stlview.DefaultOptions()
}

func parseDimension(field, text string) (int, error) {
	// 31 bits so the result fits an int on 32 bit platforms.
	u, err := strconv.ParseUint(text, 10, 31)
	if err != nil {
		return 0, &ParseError{Field: field, Text: text, Err: err}
	}
	return int(u), nil
}

func setAxis(v *ms3.Vec, a Axis, f float32) {
	switch a {
	case X:
		v.X = f
	case Y:
		v.Y = f
	case Z:
		v.Z = f
	}
}
