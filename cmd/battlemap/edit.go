package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/example/battlemap/internal/autosave"
	"github.com/example/battlemap/internal/editor"
	"github.com/example/battlemap/internal/raster"
	"github.com/example/battlemap/internal/viewer"
)

type editCmd struct {
	*root
	fs     *flag.FlagSet
	mapSel string
	width  int
	height int
}

func parseEditCmd(args []string, r *root) (*editCmd, error) {
	fs := flag.NewFlagSet("edit", flag.ExitOnError)
	cmd := &editCmd{root: r, fs: fs}
	fs.StringVar(&cmd.mapSel, "map", "", "map to open (id, position or name); default is the last active map")
	fs.IntVar(&cmd.width, "width", 0, "initial window width")
	fs.IntVar(&cmd.height, "height", 0, "initial window height")
	fs.Usage = usageFunc(cmd)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 0 {
		return nil, &UsageError{of: cmd}
	}
	return cmd, nil
}

func (c *editCmd) FlagSet() *flag.FlagSet { return c.fs }

func (c *editCmd) Template() string { return "edit.txt" }

func (c *editCmd) Run() error {
	ctx := context.Background()
	doc, err := openDocument(ctx, c.dbPath(), c.docName)
	if err != nil {
		return err
	}
	state := doc.state
	if c.mapSel != "" {
		m, err := findMap(state, c.mapSel)
		if err != nil {
			closeWithLog("store", doc)
			return err
		}
		state.ActiveMapID = m.ID
	}

	var ed *editor.Editor
	saver := autosave.New(func(ctx context.Context) error {
		if err := ed.Flush(ctx); err != nil {
			return err
		}
		return doc.save(ctx, ed.Maps().State())
	},
		autosave.WithDelay(c.config.AutosaveWait),
		autosave.WithResult(func(err error) {
			if err != nil {
				c.notifyStorage("the map document", err)
			}
		}),
	)

	winOpts := []viewer.Option{
		viewer.WithTheme(c.activeTheme),
		viewer.WithTitle(fmt.Sprintf("Battlemap - %s", doc.name)),
		viewer.WithSave(func() error {
			saver.MarkDirty()
			if err := saver.Flush(ctx); err != nil {
				return err
			}
			c.notifySave(doc.name, raster.Clone(ed.Visible()))
			return nil
		}),
	}
	if c.width > 0 && c.height > 0 {
		winOpts = append(winOpts, viewer.WithSize(c.width, c.height))
	}
	win := viewer.New(winOpts...)

	cfg := c.config
	ed, err = editor.New(win.Document(),
		editor.WithStore(doc.store),
		editor.WithState(state),
		editor.WithMarkDirty(saver.MarkDirty),
		editor.WithDialogs(win),
		editor.WithDevMode(c.dev),
		editor.WithCanvasSize(cfg.CanvasWidth, cfg.CanvasHeight),
		editor.WithEmptyColor(c.activeTheme.CanvasEmpty),
		editor.WithGesture(cfg.Gesture.Config),
		editor.WithDragThreshold(cfg.Gesture.DragThreshold),
		editor.WithHistoryLimit(cfg.HistoryLimit),
		editor.WithRender(win.Invalidate),
		editor.WithStatus(func(string) { win.Invalidate() }),
		editor.WithStoreErrors(c.notifyStorage),
	)
	if err != nil {
		closeWithLog("store", doc)
		return err
	}
	if !ed.Active() {
		fmt.Fprintln(os.Stderr, ed.Status())
	}
	win.Attach(ed)
	win.Run()

	// the save drains the store queue, so it runs before Destroy closes it
	if err := saver.Close(ctx); err != nil {
		log.Printf("final save: %v", err)
	}
	ed.Destroy()
	pctx, cancel := context.WithTimeout(ctx, storeTimeout)
	doc.prune(pctx, ed.Maps().State())
	cancel()
	return doc.Close()
}
