package raster

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/example/battlemap/internal/geom"
	"golang.org/x/image/vector"
)

// Tool selects how a stroke is composited.
type Tool string

const (
	ToolBrush  Tool = "brush"
	ToolEraser Tool = "eraser"
	ToolPan    Tool = "pan"
)

// Draws reports whether t paints onto the drawing layer.
func (t Tool) Draws() bool { return t == ToolBrush || t == ToolEraser }

// ParseTool maps s to a Tool, defaulting to ToolBrush.
func ParseTool(s string) Tool {
	switch Tool(s) {
	case ToolEraser:
		return ToolEraser
	case ToolPan:
		return ToolPan
	default:
		return ToolBrush
	}
}

// Brush describes one stamp: eraser ignores Color.
type Brush struct {
	Tool  Tool
	Size  float64
	Color color.RGBA
}

// kappa places cubic control points for a quarter circle.
const kappa = 0.5522847498

// DrawDot stamps a filled disc of diameter b.Size centred on p.
func DrawDot(layer *image.RGBA, p geom.Point, b Brush) image.Rectangle {
	return stamp(layer, p, p, b)
}

// DrawLine stamps a segment with round caps, so consecutive segments of a
// sampled stroke join without gaps or square corners.
func DrawLine(layer *image.RGBA, from, to geom.Point, b Brush) image.Rectangle {
	return stamp(layer, from, to, b)
}

func stamp(layer *image.RGBA, from, to geom.Point, b Brush) image.Rectangle {
	if layer == nil || !b.Tool.Draws() {
		return image.Rectangle{}
	}
	r := b.Size / 2
	if r < 0.5 {
		r = 0.5
	}
	rect := image.Rect(
		int(math.Floor(math.Min(from.X, to.X)-r))-1,
		int(math.Floor(math.Min(from.Y, to.Y)-r))-1,
		int(math.Ceil(math.Max(from.X, to.X)+r))+1,
		int(math.Ceil(math.Max(from.Y, to.Y)+r))+1,
	).Intersect(layer.Bounds())
	if rect.Empty() {
		return image.Rectangle{}
	}

	off := geom.FromImage(rect.Min)
	z := vector.NewRasterizer(rect.Dx(), rect.Dy())
	capsule(z, from.Sub(off), to.Sub(off), r)
	mask := image.NewAlpha(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	z.DrawOp = draw.Src
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})

	if b.Tool == ToolEraser {
		destinationOut(layer, rect, mask)
	} else {
		draw.DrawMask(layer, rect, image.NewUniform(b.Color), image.Point{}, mask, image.Point{}, draw.Over)
	}
	return rect
}

// destinationOut removes coverage of mask from dst. image/draw has no such
// operator, so the premultiplied channels are scaled directly.
func destinationOut(dst *image.RGBA, rect image.Rectangle, mask *image.Alpha) {
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		mrow := mask.Pix[(y-rect.Min.Y)*mask.Stride:]
		off := dst.PixOffset(rect.Min.X, y)
		for x := 0; x < rect.Dx(); x++ {
			m := uint32(mrow[x])
			if m == 0 {
				off += 4
				continue
			}
			keep := 255 - m
			for i := 0; i < 4; i++ {
				dst.Pix[off+i] = uint8((uint32(dst.Pix[off+i])*keep + 127) / 255)
			}
			off += 4
		}
	}
}

func capsule(z *vector.Rasterizer, a, b geom.Point, r float64) {
	d := b.Sub(a)
	l := d.Len()
	if l < 1e-3 {
		circle(z, a, r)
		return
	}
	u := d.Div(l)
	n := geom.Pt(-u.Y, u.X)
	k := kappa * r

	p1 := a.Add(n.Mul(r))
	p2 := b.Add(n.Mul(r))
	tip := b.Add(u.Mul(r))
	q := b.Sub(n.Mul(r))
	p3 := a.Sub(n.Mul(r))
	tail := a.Sub(u.Mul(r))

	moveTo(z, p1)
	lineTo(z, p2)
	cubeTo(z, p2.Add(u.Mul(k)), tip.Add(n.Mul(k)), tip)
	cubeTo(z, tip.Sub(n.Mul(k)), q.Add(u.Mul(k)), q)
	lineTo(z, p3)
	cubeTo(z, p3.Sub(u.Mul(k)), tail.Sub(n.Mul(k)), tail)
	cubeTo(z, tail.Add(n.Mul(k)), p1.Sub(u.Mul(k)), p1)
	z.ClosePath()
}

func circle(z *vector.Rasterizer, c geom.Point, r float64) {
	k := kappa * r
	right := c.Add(geom.Pt(r, 0))
	bottom := c.Add(geom.Pt(0, r))
	left := c.Add(geom.Pt(-r, 0))
	top := c.Add(geom.Pt(0, -r))
	moveTo(z, right)
	cubeTo(z, right.Add(geom.Pt(0, k)), bottom.Add(geom.Pt(k, 0)), bottom)
	cubeTo(z, bottom.Add(geom.Pt(-k, 0)), left.Add(geom.Pt(0, k)), left)
	cubeTo(z, left.Add(geom.Pt(0, -k)), top.Add(geom.Pt(-k, 0)), top)
	cubeTo(z, top.Add(geom.Pt(k, 0)), right.Add(geom.Pt(0, -k)), right)
	z.ClosePath()
}

func moveTo(z *vector.Rasterizer, p geom.Point) { z.MoveTo(float32(p.X), float32(p.Y)) }

func lineTo(z *vector.Rasterizer, p geom.Point) { z.LineTo(float32(p.X), float32(p.Y)) }

func cubeTo(z *vector.Rasterizer, c1, c2, p geom.Point) {
	z.CubeTo(float32(c1.X), float32(c1.Y), float32(c2.X), float32(c2.Y), float32(p.X), float32(p.Y))
}
