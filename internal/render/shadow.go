// Package render draws soft drop shadows under the floating panels of the
// editor window.
package render

import (
	"image"
	"image/color"
	"image/draw"
)

// ShadowOptions configures the drop shadow under a panel.
type ShadowOptions struct {
	Radius  int
	Offset  image.Point
	Opacity float64
}

// DefaultShadowOptions returns the shadow used for popovers.
func DefaultShadowOptions() ShadowOptions {
	return ShadowOptions{
		Radius:  6,
		Offset:  image.Pt(3, 4),
		Opacity: 0.35,
	}
}

// DropShadow darkens dst under box, shifted by opts.Offset and blurred by
// opts.Radius. Callers paint the panel itself afterwards. Anything outside
// dst is clipped.
func DropShadow(dst *image.RGBA, box image.Rectangle, opts ShadowOptions) {
	if dst == nil || box.Empty() || opts.Opacity <= 0 {
		return
	}
	opacity := opts.Opacity
	if opacity > 1 {
		opacity = 1
	}
	radius := opts.Radius
	if radius < 0 {
		radius = 0
	}

	padded := box.Inset(-radius)
	mask := image.NewAlpha(padded.Sub(padded.Min))
	draw.Draw(mask, box.Sub(padded.Min), image.Opaque, image.Point{}, draw.Src)
	blurred := blurAlpha(mask, radius)

	at := padded.Add(opts.Offset)
	clip := at.Intersect(dst.Bounds())
	if clip.Empty() {
		return
	}
	shade := image.NewUniform(color.RGBA{0, 0, 0, uint8(opacity*255 + 0.5)})
	draw.DrawMask(dst, clip, shade, image.Point{}, blurred, clip.Min.Sub(at.Min), draw.Over)
}

// blurAlpha is a separable box blur of the given radius.
func blurAlpha(src *image.Alpha, radius int) *image.Alpha {
	if radius <= 0 {
		return src
	}
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	tmp := image.NewAlpha(src.Bounds())
	dst := image.NewAlpha(src.Bounds())

	prefix := make([]int, max(w, h)+1)
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride:]
		for x := 0; x < w; x++ {
			prefix[x+1] = prefix[x] + int(row[x])
		}
		for x := 0; x < w; x++ {
			x0, x1 := max(x-radius, 0), min(x+radius, w-1)
			tmp.Pix[y*tmp.Stride+x] = uint8((prefix[x1+1] - prefix[x0]) / (x1 - x0 + 1))
		}
	}
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			prefix[y+1] = prefix[y] + int(tmp.Pix[y*tmp.Stride+x])
		}
		for y := 0; y < h; y++ {
			y0, y1 := max(y-radius, 0), min(y+radius, h-1)
			dst.Pix[y*dst.Stride+x] = uint8((prefix[y1+1] - prefix[y0]) / (y1 - y0 + 1))
		}
	}
	return dst
}
