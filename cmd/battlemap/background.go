package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/example/battlemap/internal/capture"
	"github.com/example/battlemap/internal/clipboard"
	"github.com/example/battlemap/internal/mapstate"
	"github.com/example/battlemap/internal/pdfimport"
	"github.com/example/battlemap/internal/persist"
	"github.com/example/battlemap/internal/raster"
	"github.com/example/battlemap/internal/storage"
)

var (
	readClipboardFn = clipboard.ReadPNG
	captureRegionFn = capture.Region
)

type backgroundCmd struct {
	mutateCmd
	sel           string
	clear         bool
	fromClipboard bool
	fromScreen    bool
	page          int
	file          string
	stdin         io.Reader
}

func parseBackgroundCmd(args []string, r *root) (*backgroundCmd, error) {
	fs := flag.NewFlagSet("background", flag.ExitOnError)
	cmd := &backgroundCmd{mutateCmd: mutateCmd{root: r, fs: fs, tmpl: "background.txt", stdout: os.Stdout}, stdin: os.Stdin}
	fs.StringVar(&cmd.sel, "map", "", "map to change (id, position or name); default is the active map")
	fs.BoolVar(&cmd.clear, "clear", false, "remove the background instead of setting one")
	fs.BoolVar(&cmd.fromClipboard, "from-clipboard", false, "read the image from the clipboard")
	fs.BoolVar(&cmd.fromScreen, "from-screen", false, "pick a screen region through the desktop portal")
	fs.IntVar(&cmd.page, "page", 1, "page to take the largest image from when the input is a PDF")
	fs.Usage = usageFunc(cmd)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if cmd.page < 1 {
		return nil, &UsageError{of: cmd, msg: "-page starts at 1"}
	}
	sources := 0
	for _, set := range []bool{cmd.clear, cmd.fromClipboard, cmd.fromScreen, fs.NArg() > 0} {
		if set {
			sources++
		}
	}
	switch {
	case sources > 1:
		return nil, &UsageError{of: cmd, msg: "choose one of a file, -from-clipboard, -from-screen or -clear"}
	case sources == 0 || fs.NArg() > 1:
		return nil, &UsageError{of: cmd, msg: "an image file is required"}
	}
	cmd.file = fs.Arg(0)
	return cmd, nil
}

var pdfMagic = []byte("%PDF-")

// readImage returns the encoded background. A PDF input is replaced by the
// largest image on the selected page.
func (c *backgroundCmd) readImage() ([]byte, error) {
	data, err := c.readInput()
	if err != nil || !bytes.HasPrefix(data, pdfMagic) {
		return data, err
	}
	img, err := pdfimport.Largest(bytes.NewReader(data), c.page)
	if err != nil {
		return nil, fmt.Errorf("pdf page %d: %w", c.page, err)
	}
	return img, nil
}

func (c *backgroundCmd) readInput() ([]byte, error) {
	switch {
	case c.fromScreen:
		data, err := captureRegionFn(context.Background())
		if errors.Is(err, capture.ErrCancelled) {
			return nil, fmt.Errorf("screen capture cancelled")
		}
		if err != nil {
			return nil, fmt.Errorf("capture screen: %w", err)
		}
		return data, nil
	case c.fromClipboard:
		data, err := readClipboardFn()
		if err != nil {
			return nil, fmt.Errorf("read clipboard: %w", err)
		}
		if len(data) == 0 {
			return nil, fmt.Errorf("the clipboard holds no image")
		}
		return data, nil
	case c.file == "-":
		data, err := io.ReadAll(c.stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	default:
		data, err := os.ReadFile(c.file)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", c.file, err)
		}
		return data, nil
	}
}

func (c *backgroundCmd) Run() error {
	var data []byte
	if !c.clear {
		var err error
		if data, err = c.readImage(); err != nil {
			return err
		}
		if _, err := raster.Decode(data); err != nil {
			return fmt.Errorf("background: %w", err)
		}
	}
	return c.update(func(maps *mapstate.Collection, a *persist.Adapter) error {
		m, err := findMap(maps.State(), c.sel)
		if err != nil {
			return err
		}
		if c.clear {
			if err := <-a.ClearBackground(m.ID); err != nil {
				return err
			}
			fmt.Fprintf(c.stdout, "cleared the background of %s\n", m.Name)
			return nil
		}
		blob := storage.Blob{Type: raster.ContentType(data), Data: data}
		if err := <-a.SetBackground(m.ID, blob); err != nil {
			return err
		}
		fmt.Fprintf(c.stdout, "set the background of %s (%s, %d bytes)\n", m.Name, blob.Type, len(data))
		return nil
	})
}
