// Package pdfimport pulls embedded raster images out of PDF pages. Battle
// maps are often distributed as PDFs with the map as one large image per
// page.
package pdfimport

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/example/battlemap/internal/raster"
)

// ErrNoImage is returned when a page holds no image this editor can decode.
var ErrNoImage = errors.New("pdfimport: no usable image on page")

// Image is one embedded image of a page.
type Image struct {
	Name   string
	Width  int
	Height int
	Data   []byte
}

// PageImages returns the decodable images of page (1-based), largest
// first by pixel area.
func PageImages(rs io.ReadSeeker, page int) ([]Image, error) {
	if page < 1 {
		return nil, fmt.Errorf("page %d: pages start at 1", page)
	}
	conf := model.NewDefaultConfiguration()
	pages, err := api.ExtractImagesRaw(rs, []string{strconv.Itoa(page)}, conf)
	if err != nil {
		return nil, fmt.Errorf("pdfcpu extract: %w", err)
	}
	var out []Image
	for _, byObj := range pages {
		for _, img := range byObj {
			if img.Reader == nil {
				continue
			}
			data, err := io.ReadAll(img)
			if err != nil {
				return nil, fmt.Errorf("read image %s: %w", img.Name, err)
			}
			if raster.ContentType(data) == "" {
				continue
			}
			out = append(out, Image{Name: img.Name, Width: img.Width, Height: img.Height, Data: data})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return area(out[i]) > area(out[j]) })
	return out, nil
}

// Largest returns the encoded bytes of the biggest image on page.
func Largest(rs io.ReadSeeker, page int) ([]byte, error) {
	imgs, err := PageImages(rs, page)
	if err != nil {
		return nil, err
	}
	if len(imgs) == 0 {
		return nil, fmt.Errorf("page %d: %w", page, ErrNoImage)
	}
	return imgs[0].Data, nil
}

func area(img Image) int { return img.Width * img.Height }
