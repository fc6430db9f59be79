package controller

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFinite is wrapped by a ParseError when text parses as NaN or an infinity.
	ErrNotFinite = errors.New("value is not a finite number")
	// ErrMeshParse wraps failures to decode the loaded file.
	ErrMeshParse = errors.New("mesh parse failed")
	// ErrRender wraps failures reported by the renderer.
	ErrRender = errors.New("render failed")
	// ErrConvert wraps failures converting rendered bytes into a handle.
	ErrConvert = errors.New("image conversion failed")
)

// ParseError is returned when the text of a parameter edit could not be
// parsed. The edited parameter is left unchanged.
type ParseError struct {
	Field string // i.e: "from.x", "width"
	Text  string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// LoadError is returned when a selected file could not be read.
type LoadError struct {
	Name string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading %q: %v", e.Name, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
