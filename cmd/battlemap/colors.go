package main

import (
	"flag"
	"fmt"
	"image/color"
	"io"
	"os"

	"github.com/example/battlemap/internal/palette"
)

type colorsCmd struct {
	*root
	fs     *flag.FlagSet
	stdout io.Writer
}

func parseColorsCmd(args []string, r *root) (*colorsCmd, error) {
	fs := flag.NewFlagSet("colors", flag.ExitOnError)
	cmd := &colorsCmd{root: r, fs: fs, stdout: os.Stdout}
	fs.Usage = usageFunc(cmd)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 0 {
		return nil, &UsageError{of: cmd}
	}
	return cmd, nil
}

func (c *colorsCmd) Run() error {
	entries := palette.Entries()
	if len(entries) == 0 {
		fmt.Fprintln(c.stdout, "no colors available")
		return nil
	}
	fmt.Fprintln(c.stdout, "available palette colors (* marks the color of new maps):")
	for idx, entry := range entries {
		marker := " "
		if entry.Key == palette.DefaultKey {
			marker = "*"
		}
		hex := fmt.Sprintf("#%02X%02X%02X", entry.Color.R, entry.Color.G, entry.Color.B)
		fmt.Fprintf(c.stdout, "%s %2d: %-8s %-8s %s %s\n", marker, idx, entry.Key, entry.Name, hex, swatch(entry.Color))
	}
	fmt.Fprintln(c.stdout, "any SVG color name or #RRGGBB value is also accepted")
	return nil
}

func (c *colorsCmd) FlagSet() *flag.FlagSet { return c.fs }

func (c *colorsCmd) Template() string { return "colors.txt" }

// swatch renders c as a two-cell truecolor block.
func swatch(c color.RGBA) string {
	return fmt.Sprintf("\x1b[48;2;%d;%d;%dm  \x1b[0m", c.R, c.G, c.B)
}
