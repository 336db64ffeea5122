package viewer

import (
	"image"
	"image/color"
	"image/draw"
	"log"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/example/battlemap/internal/geom"
	"github.com/example/battlemap/internal/render"
	"github.com/example/battlemap/internal/theme"
)

var messageFace font.Face = basicfont.Face7x13

func init() {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		log.Printf("parse font: %v", err)
		return
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: 15, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		log.Printf("font face: %v", err)
		return
	}
	messageFace = face
}

func measureMessage(s string) int {
	d := &font.Drawer{Face: messageFace}
	return d.MeasureString(s).Ceil()
}

// frame is everything one paint needs.
type frame struct {
	theme  *theme.Theme
	layout Layout
	state  Snapshot
	canvas *image.RGBA
	scroll geom.Point
	scale  float64
	modal  *modal
}

// painter keeps caches between frames. It is used from the UI goroutine.
type painter struct {
	backdrop *image.RGBA
}

func fill(dst *image.RGBA, r image.Rectangle, c color.Color) {
	draw.Draw(dst, r, &image.Uniform{c}, image.Point{}, draw.Src)
}

func blend(dst *image.RGBA, r image.Rectangle, c color.Color) {
	draw.Draw(dst, r, &image.Uniform{c}, image.Point{}, draw.Over)
}

func drawRect(dst *image.RGBA, r image.Rectangle, c color.Color, width int) {
	fill(dst, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+width), c)
	fill(dst, image.Rect(r.Min.X, r.Max.Y-width, r.Max.X, r.Max.Y), c)
	fill(dst, image.Rect(r.Min.X, r.Min.Y, r.Min.X+width, r.Max.Y), c)
	fill(dst, image.Rect(r.Max.X-width, r.Min.Y, r.Max.X, r.Max.Y), c)
}

func drawLabel(dst *image.RGBA, face font.Face, r image.Rectangle, s string, c color.Color) {
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(c), Face: face}
	m := face.Metrics()
	asc, desc := m.Ascent.Ceil(), m.Descent.Ceil()
	x := r.Min.X + (r.Dx()-d.MeasureString(s).Ceil())/2
	y := r.Min.Y + (r.Dy()-asc-desc)/2 + asc
	d.Dot = fixed.P(x, y)
	d.DrawString(s)
}

// drawCheckerboard fills rect of dst with a checkerboard of the given
// colors. size controls the checker square size.
func drawCheckerboard(dst *image.RGBA, rect image.Rectangle, size int, light, dark color.Color) {
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			if ((x/size)+(y/size))%2 == 0 {
				dst.Set(x, y, light)
			} else {
				dst.Set(x, y, dark)
			}
		}
	}
}

// canvasRect is where the whole canvas lands in window coordinates.
func canvasRect(area image.Rectangle, size image.Point, scroll geom.Point, scale float64) image.Rectangle {
	min := geom.FromImage(area.Min).Sub(scroll)
	max := min.Add(geom.FromImage(size).Mul(scale))
	return image.Rectangle{Min: min.Image(), Max: max.Image()}
}

func (p *painter) paint(dst *image.RGBA, f frame) {
	th := f.theme
	l := f.layout
	fill(dst, dst.Bounds(), th.Background)

	if !l.Canvas.Empty() {
		if p.backdrop == nil || p.backdrop.Bounds().Size() != l.Canvas.Size() {
			p.backdrop = image.NewRGBA(image.Rectangle{Max: l.Canvas.Size()})
			drawCheckerboard(p.backdrop, p.backdrop.Bounds(), 8, th.CheckerLight, th.CheckerDark)
		}
		draw.Draw(dst, l.Canvas, p.backdrop, image.Point{}, draw.Src)
		if f.canvas != nil {
			area := dst.SubImage(l.Canvas).(*image.RGBA)
			r := canvasRect(l.Canvas, f.canvas.Bounds().Size(), f.scroll, f.scale)
			xdraw.NearestNeighbor.Scale(area, r, f.canvas, f.canvas.Bounds(), draw.Over, nil)
		}
	}

	fill(dst, l.Tabs, th.TabBackground)
	fill(dst, l.Toolbar, th.ToolbarBackground)
	blend(dst, l.Status, th.StatusBackground)
	if !l.Popover.Empty() {
		render.DropShadow(dst, l.Popover, render.DefaultShadowOptions())
		fill(dst, l.Popover, th.PopoverBackground)
		drawRect(dst, l.Popover, th.ButtonBorder, 1)
	}
	for _, c := range l.Controls {
		p.control(dst, th, c, f.state.Hover.In(c.Rect))
	}

	status := f.state.Status
	if status == "" {
		status = "B brush  E eraser  H pan  [ ] size  Ctrl+Z undo  Ctrl+V paste background"
	}
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(th.StatusText), Face: messageFace}
	asc := messageFace.Metrics().Ascent.Ceil()
	d.Dot = fixed.P(l.Status.Min.X+2*padding, l.Status.Min.Y+(l.Status.Dy()+asc)/2-1)
	d.DrawString(status)

	if f.modal != nil {
		p.modal(dst, th, f.modal)
	}
}

func (p *painter) control(dst *image.RGBA, th *theme.Theme, c Control, hover bool) {
	bg := th.ButtonBackground
	fg := th.ButtonText
	switch {
	case c.Disabled:
		fg = th.ButtonTextDisabled
	case c.Selected:
		bg = th.ButtonBackgroundPress
	case hover:
		bg = th.ButtonBackgroundHover
	}
	if c.Tab {
		bg, fg = th.TabBackground, th.TabText
		if c.Selected {
			bg, fg = th.TabActive, th.TabTextActive
		}
	}
	fill(dst, c.Rect, bg)
	drawRect(dst, c.Rect, th.ButtonBorder, 1)
	label := c.Rect
	if c.HasSwatch {
		sw := image.Rect(c.Rect.Min.X+3, c.Rect.Min.Y+3, c.Rect.Min.X+c.Rect.Dy()-3, c.Rect.Max.Y-3)
		if c.Label == "" {
			sw = c.Rect.Inset(3)
		}
		fill(dst, sw, c.Swatch)
		drawRect(dst, sw, th.ButtonBorder, 1)
		label.Min.X = sw.Max.X
	}
	if c.Label != "" {
		drawLabel(dst, basicfont.Face7x13, label, c.Label, fg)
	}
}

func (p *painter) modal(dst *image.RGBA, th *theme.Theme, m *modal) {
	b := dst.Bounds()
	blend(dst, b, color.RGBA{0, 0, 0, 96})
	r := m.layout(b.Dx(), b.Dy())
	render.DropShadow(dst, r.box, render.ShadowOptions{Radius: 10, Offset: image.Pt(4, 6), Opacity: 0.45})
	fill(dst, r.box, th.PopoverBackground)
	drawRect(dst, r.box, th.ButtonBorder, 2)

	d := &font.Drawer{Dst: dst, Src: image.NewUniform(th.Foreground), Face: messageFace}
	d.Dot = fixed.P(r.box.Min.X+3*padding, r.box.Min.Y+3*padding+messageFace.Metrics().Ascent.Ceil())
	d.DrawString(m.message)

	if m.kind == modalPrompt {
		fill(dst, r.input, th.CanvasEmpty)
		drawRect(dst, r.input, th.ButtonBorder, 1)
		d := &font.Drawer{Dst: dst, Src: image.NewUniform(th.Foreground), Face: basicfont.Face7x13}
		d.Dot = fixed.P(r.input.Min.X+padding, r.input.Min.Y+16)
		d.DrawString(string(m.input) + "|")
	}
	p.control(dst, th, Control{Rect: r.ok, Label: "OK"}, false)
	if !r.cancel.Empty() {
		p.control(dst, th, Control{Rect: r.cancel, Label: "Cancel"}, false)
	}
}
