package controller

import (
	"errors"
	"math"
	"strconv"
	"testing"

	"github.com/soypat/stlview"
	"pgregory.net/rapid"
)

func axisOf(o stlview.Options, v Vector, a Axis) float32 {
	vec := o.From
	if v == To {
		vec = o.To
	}
	switch a {
	case X:
		return vec.X
	case Y:
		return vec.Y
	}
	return vec.Z
}

// sameBits compares options bit for bit so NaN payloads and signed zeros count.
func sameBits(a, b stlview.Options) bool {
	fa := [6]float32{a.From.X, a.From.Y, a.From.Z, a.To.X, a.To.Y, a.To.Z}
	fb := [6]float32{b.From.X, b.From.Y, b.From.Z, b.To.X, b.To.Y, b.To.Z}
	for i := range fa {
		if math.Float32bits(fa[i]) != math.Float32bits(fb[i]) {
			return false
		}
	}
	return a.Width == b.Width && a.Height == b.Height
}

func drawVectorAxis(rt *rapid.T) (Vector, Axis) {
	v := rapid.SampledFrom([]Vector{From, To}).Draw(rt, "vector")
	a := rapid.SampledFrom([]Axis{X, Y, Z}).Draw(rt, "axis")
	return v, a
}

func TestUpdateAxisValid(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		c := newTestController(t, nil)
		// Leave a pending error so the update has to clear it.
		c.Update(ctx, UpdateWidth{Text: "not a number"})
		v, a := drawVectorAxis(rt)
		f := rapid.Float32Range(-1e30, 1e30).Draw(rt, "value")
		text := strconv.FormatFloat(float64(f), 'g', -1, 32)
		before := c.Options()

		c.Update(ctx, UpdateAxis{Vector: v, Axis: a, Text: text})

		after := c.Options()
		if got := axisOf(after, v, a); math.Float32bits(got) != math.Float32bits(f) {
			rt.Fatalf("%s.%s: got %v, want %v", v, a, got, f)
		}
		if c.Display().Err() != "" {
			rt.Fatalf("error not cleared: %q", c.Display().Err())
		}
		// Writing the old value back must restore the original options exactly.
		c.Update(ctx, UpdateAxis{Vector: v, Axis: a, Text: strconv.FormatFloat(float64(axisOf(before, v, a)), 'g', -1, 32)})
		if !sameBits(c.Options(), before) {
			rt.Fatalf("other fields touched: before %+v, after %+v", before, c.Options())
		}
	})
}

func TestUpdateAxisInvalid(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		c := newTestController(t, nil)
		v, a := drawVectorAxis(rt)
		text := rapid.StringMatching(`[a-zA-Z ,;_]{0,8}`).Draw(rt, "text")
		before := c.Options()

		c.Update(ctx, UpdateAxis{Vector: v, Axis: a, Text: text})

		if !sameBits(c.Options(), before) {
			rt.Fatalf("options changed on invalid input %q", text)
		}
		if c.Display().Err() == "" {
			rt.Fatalf("no error for invalid input %q", text)
		}
		var perr *ParseError
		if !errors.As(c.Display().Cause(), &perr) || perr.Text != text {
			rt.Fatalf("expected ParseError for %q, got %v", text, c.Display().Cause())
		}
	})
}

func TestUpdateAxisRejects(t *testing.T) {
	for _, text := range []string{"", " 1", "1,5", "NaN", "inf", "-Infinity", "1e39", "0x"} {
		p := NewParams()
		before := p.Options()
		err := p.UpdateAxis(From, X, text)
		if err == nil {
			t.Errorf("%q: expected error", text)
		}
		if !sameBits(p.Options(), before) {
			t.Errorf("%q: options changed", text)
		}
	}
	p := NewParams()
	if err := p.UpdateAxis(To, Z, "inf"); !errors.Is(err, ErrNotFinite) {
		t.Errorf("expected ErrNotFinite, got %v", err)
	}
}

func TestUpdateDimension(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		c := newTestController(t, nil)
		width := rapid.Bool().Draw(rt, "width")
		valid := rapid.Bool().Draw(rt, "valid")
		var text string
		var want int
		if valid {
			want = rapid.IntRange(0, math.MaxInt32).Draw(rt, "pixels")
			text = strconv.Itoa(want)
		} else {
			text = rapid.SampledFrom([]string{"", "-1", "1.5", "abc", "1e3", "99999999999", " 10"}).Draw(rt, "text")
		}
		before := c.Options()
		var msg Msg = UpdateHeight{Text: text}
		if width {
			msg = UpdateWidth{Text: text}
		}

		if !c.Update(ctx, msg) {
			rt.Fatal("dimension edit must redraw")
		}

		after := c.Options()
		if !valid {
			if !sameBits(after, before) || c.Display().Err() == "" {
				rt.Fatalf("invalid %q: options %+v, error %q", text, after, c.Display().Err())
			}
			return
		}
		got := after.Height
		if width {
			got = after.Width
		}
		if got != want || c.Display().Err() != "" {
			rt.Fatalf("valid %q: got %d, error %q", text, got, c.Display().Err())
		}
	})
}

func TestResetAfterEdits(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		c := newTestController(t, nil)
		edits := rapid.SliceOfN(rapid.StringMatching(`-?[0-9]{1,4}(\.[0-9]{1,3})?|[a-z]{1,3}`), 0, 20).Draw(rt, "edits")
		for i, text := range edits {
			switch i % 4 {
			case 0:
				c.Update(ctx, UpdateWidth{Text: text})
			case 1:
				c.Update(ctx, UpdateHeight{Text: text})
			case 2:
				c.Update(ctx, UpdateAxis{Vector: From, Axis: Axis(i % 3), Text: text})
			default:
				c.Update(ctx, UpdateAxis{Vector: To, Axis: Axis(i % 3), Text: text})
			}
		}
		c.Update(ctx, Reset{})
		if !sameBits(c.Options(), stlview.DefaultOptions()) {
			rt.Fatalf("reset gave %+v", c.Options())
		}
	})
}
