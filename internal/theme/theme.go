// Package theme holds the editor window colors.
package theme

import (
	"image/color"
)

// Theme defines the color palette for the editor window.
type Theme struct {
	Name string

	// General
	Background color.RGBA // Window area around the canvas
	Foreground color.RGBA // Main text color

	// Toolbar & map tabs
	ToolbarBackground color.RGBA
	TabBackground     color.RGBA // Inactive map tab
	TabActive         color.RGBA // Active map tab
	TabText           color.RGBA
	TabTextActive     color.RGBA

	// Toolbar buttons
	ButtonBackground      color.RGBA
	ButtonBackgroundHover color.RGBA
	ButtonBackgroundPress color.RGBA // Selected tool, color or size
	ButtonText            color.RGBA
	ButtonTextDisabled    color.RGBA
	ButtonBorder          color.RGBA

	PopoverBackground color.RGBA
	StatusBackground  color.RGBA
	StatusText        color.RGBA

	// Canvas
	CanvasEmpty  color.RGBA // Fill of a map without a background
	CheckerLight color.RGBA
	CheckerDark  color.RGBA
}

// Default returns the built-in light theme.
func Default() *Theme {
	return &Theme{
		Name:                  "Default",
		Background:            color.RGBA{220, 220, 220, 255},
		Foreground:            color.RGBA{0, 0, 0, 255},
		ToolbarBackground:     color.RGBA{220, 220, 220, 255},
		TabBackground:         color.RGBA{220, 220, 220, 255},
		TabActive:             color.RGBA{200, 200, 200, 255},
		TabText:               color.RGBA{0, 0, 0, 255},
		TabTextActive:         color.RGBA{0, 0, 0, 255},
		ButtonBackground:      color.RGBA{200, 200, 200, 255},
		ButtonBackgroundHover: color.RGBA{180, 180, 180, 255},
		ButtonBackgroundPress: color.RGBA{150, 150, 150, 255},
		ButtonText:            color.RGBA{0, 0, 0, 255},
		ButtonTextDisabled:    color.RGBA{120, 120, 120, 255},
		ButtonBorder:          color.RGBA{0, 0, 0, 255},
		PopoverBackground:     color.RGBA{240, 240, 240, 255},
		StatusBackground:      color.RGBA{255, 255, 255, 230},
		StatusText:            color.RGBA{0, 0, 0, 255},
		CanvasEmpty:           color.RGBA{255, 255, 255, 255},
		CheckerLight:          color.RGBA{220, 220, 220, 255},
		CheckerDark:           color.RGBA{192, 192, 192, 255},
	}
}
