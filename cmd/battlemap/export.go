package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/example/battlemap/internal/clipboard"
	"github.com/example/battlemap/internal/mapstate"
	"github.com/example/battlemap/internal/persist"
	"github.com/example/battlemap/internal/raster"
)

var writeClipboardFn = clipboard.WritePNG

type exportCmd struct {
	*root
	fs          *flag.FlagSet
	sel         string
	output      string
	toClipboard bool
	stdout      io.Writer
}

func parseExportCmd(args []string, r *root) (*exportCmd, error) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	cmd := &exportCmd{root: r, fs: fs, stdout: os.Stdout}
	fs.StringVar(&cmd.sel, "map", "", "map to export (id, position or name); default is the active map")
	fs.StringVar(&cmd.output, "o", "", "output PNG file, or - for stdout")
	fs.BoolVar(&cmd.toClipboard, "to-clipboard", false, "copy the PNG to the clipboard")
	fs.Usage = usageFunc(cmd)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 0 {
		return nil, &UsageError{of: cmd}
	}
	if cmd.output == "" && !cmd.toClipboard {
		return nil, &UsageError{of: cmd, msg: "an output file (-o) or -to-clipboard is required"}
	}
	return cmd, nil
}

func (c *exportCmd) FlagSet() *flag.FlagSet { return c.fs }

func (c *exportCmd) Template() string { return "export.txt" }

func (c *exportCmd) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	doc, err := openDocument(ctx, c.dbPath(), c.docName)
	if err != nil {
		return err
	}
	defer closeWithLog("store", doc)

	m, err := findMap(doc.state, c.sel)
	if err != nil {
		return err
	}
	data, err := c.render(ctx, doc, m)
	if err != nil {
		return err
	}

	if c.toClipboard {
		if err := writeClipboardFn(data); err != nil {
			return fmt.Errorf("copy to clipboard: %w", err)
		}
	}
	switch c.output {
	case "":
	case "-":
		if _, err := c.stdout.Write(data); err != nil {
			return fmt.Errorf("write stdout: %w", err)
		}
	default:
		if err := os.WriteFile(c.output, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", c.output, err)
		}
		fmt.Fprintf(os.Stderr, "exported %s to %s\n", m.Name, c.output)
	}
	return nil
}

// render flattens one map the way the editor shows it.
func (c *exportCmd) render(ctx context.Context, doc *document, m mapstate.MapEntry) ([]byte, error) {
	maps := mapstate.NewCollection(doc.state)
	a := persist.New(doc.store, maps, persist.WithErrorHandler(c.notifyStorage))
	defer closeWithLog("persist", a)

	comp := raster.NewComposer(c.config.CanvasWidth, c.config.CanvasHeight, c.activeTheme.CanvasEmpty)
	defer comp.Release()
	bg, err := a.LoadBackground(ctx, m.ID)
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", m.Name, err)
	}
	comp.SetBackground(bg)
	if err := a.LoadDrawingLayer(ctx, m.ID, comp.Drawing); err != nil {
		return nil, fmt.Errorf("export %s: %w", m.Name, err)
	}
	return raster.EncodePNG(comp.Compose())
}
