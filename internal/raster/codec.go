package raster

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"github.com/example/battlemap/internal/history"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// BlobType is the content type of encoded drawing layers.
const BlobType = "image/png"

var encoder = png.Encoder{CompressionLevel: png.BestSpeed}

// EncodePNG losslessly encodes img.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := encoder.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Snapshot captures the drawing layer as a history entry.
func Snapshot(layer *image.RGBA) (history.Snapshot, error) {
	if layer == nil {
		return "", errors.New("snapshot: no drawing layer")
	}
	data, err := EncodePNG(layer)
	if err != nil {
		return "", err
	}
	return history.FromPNG(data), nil
}

// Restore replaces the layer contents with the pixels of s.
func Restore(layer *image.RGBA, s history.Snapshot) error {
	raw, ok := s.Bytes()
	if !ok {
		return errors.New("restore: malformed snapshot")
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	Replace(layer, img)
	return nil
}

// Replace clears layer and copies img onto it at the origin.
func Replace(layer *image.RGBA, img image.Image) {
	if layer == nil {
		return
	}
	draw.Draw(layer, layer.Bounds(), image.Transparent, image.Point{}, draw.Src)
	if img != nil {
		draw.Draw(layer, layer.Bounds(), img, img.Bounds().Min, draw.Src)
	}
}

// Decode decodes any registered image format: png, jpeg, gif, bmp, tiff or
// webp.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, errors.New("decode: empty image")
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return img, nil
}

// ContentType reports the MIME type of encoded image data, or "" when the
// format is not one Decode understands.
func ContentType(data []byte) string {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return ""
	}
	return "image/" + format
}

// Clone returns a copy of img with its own pixel buffer.
func Clone(img *image.RGBA) *image.RGBA {
	if img == nil {
		return nil
	}
	out := &image.RGBA{
		Pix:    make([]uint8, len(img.Pix)),
		Stride: img.Stride,
		Rect:   img.Rect,
	}
	copy(out.Pix, img.Pix)
	return out
}

// Compose flattens background and drawing into a new image the size of
// c's canvas, the same way Render does for the visible canvas.
func (c *Composer) Compose() *image.RGBA {
	if c == nil || c.Drawing == nil {
		return nil
	}
	out := image.NewRGBA(c.Drawing.Bounds())
	draw.Draw(out, out.Bounds(), c.empty, image.Point{}, draw.Src)
	if c.background != nil {
		draw.Draw(out, out.Bounds(), c.background, image.Point{}, draw.Over)
	}
	draw.Draw(out, out.Bounds(), c.Drawing, image.Point{}, draw.Over)
	return out
}
