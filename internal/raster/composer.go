// Package raster owns the visible canvas and the off-screen drawing layer
// of a map and the primitives that paint onto that layer.
package raster

import (
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"
)

// Composer holds two surfaces of identical size. Drawing is the only
// surface that is ever mutated by strokes, undone or persisted; Visible is
// rebuilt from scratch by Render.
type Composer struct {
	Visible *image.RGBA
	Drawing *image.RGBA

	empty      *image.Uniform
	background *image.RGBA
	onRender   func()
}

// NewComposer allocates both surfaces. empty is painted where no
// background image is loaded.
func NewComposer(width, height int, empty color.Color) *Composer {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	r := image.Rect(0, 0, width, height)
	return &Composer{
		Visible: image.NewRGBA(r),
		Drawing: image.NewRGBA(r),
		empty:   image.NewUniform(empty),
	}
}

// OnRender registers fn to run after every Render. Only one callback is
// kept.
func (c *Composer) OnRender(fn func()) {
	if c != nil {
		c.onRender = fn
	}
}

// Size returns the canvas dimensions, or zero after Release.
func (c *Composer) Size() image.Point {
	if c == nil || c.Drawing == nil {
		return image.Point{}
	}
	return c.Drawing.Bounds().Size()
}

// Render composes empty color or background, then the drawing layer, onto
// the visible canvas. It never touches the drawing layer.
func (c *Composer) Render() {
	if c == nil || c.Visible == nil || c.Drawing == nil {
		return
	}
	b := c.Visible.Bounds()
	draw.Draw(c.Visible, b, c.empty, image.Point{}, draw.Src)
	if c.background != nil {
		draw.Draw(c.Visible, b, c.background, image.Point{}, draw.Over)
	}
	draw.Draw(c.Visible, b, c.Drawing, image.Point{}, draw.Over)
	if c.onRender != nil {
		c.onRender()
	}
}

// SetBackground scales img to fit the canvas, keeping its aspect ratio, and
// keeps the scaled copy for later renders. A nil img removes the background.
func (c *Composer) SetBackground(img image.Image) {
	if c == nil || c.Drawing == nil {
		return
	}
	if img == nil || img.Bounds().Empty() {
		c.background = nil
		return
	}
	canvas := c.Drawing.Bounds()
	src := img.Bounds()
	scale := float64(canvas.Dx()) / float64(src.Dx())
	if sy := float64(canvas.Dy()) / float64(src.Dy()); sy < scale {
		scale = sy
	}
	w := int(float64(src.Dx())*scale + 0.5)
	h := int(float64(src.Dy())*scale + 0.5)
	x0 := (canvas.Dx() - w) / 2
	y0 := (canvas.Dy() - h) / 2
	bg := image.NewRGBA(canvas)
	xdraw.CatmullRom.Scale(bg, image.Rect(x0, y0, x0+w, y0+h), img, src, draw.Src, nil)
	c.background = bg
}

// HasBackground reports whether a background image is loaded.
func (c *Composer) HasBackground() bool {
	return c != nil && c.background != nil
}

// ClearDrawing makes the drawing layer fully transparent.
func (c *Composer) ClearDrawing() {
	if c == nil || c.Drawing == nil {
		return
	}
	draw.Draw(c.Drawing, c.Drawing.Bounds(), image.Transparent, image.Point{}, draw.Src)
}

// Release drops both surfaces. Every method stays callable afterwards and
// becomes a no-op, so late callbacks cannot panic.
func (c *Composer) Release() {
	if c == nil {
		return
	}
	c.Visible = nil
	c.Drawing = nil
	c.background = nil
	c.onRender = nil
}
