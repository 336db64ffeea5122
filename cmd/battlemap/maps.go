package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/example/battlemap/internal/mapstate"
	"github.com/example/battlemap/internal/palette"
	"github.com/example/battlemap/internal/persist"
)

type mapsCmd struct {
	*root
	fs     *flag.FlagSet
	stdout io.Writer
}

func parseMapsCmd(args []string, r *root) (*mapsCmd, error) {
	fs := flag.NewFlagSet("maps", flag.ExitOnError)
	cmd := &mapsCmd{root: r, fs: fs, stdout: os.Stdout}
	fs.Usage = usageFunc(cmd)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 0 {
		return nil, &UsageError{of: cmd}
	}
	return cmd, nil
}

func (c *mapsCmd) FlagSet() *flag.FlagSet { return c.fs }

func (c *mapsCmd) Template() string { return "maps.txt" }

func (c *mapsCmd) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	doc, err := openDocument(ctx, c.dbPath(), c.docName)
	if err != nil {
		return err
	}
	defer closeWithLog("store", doc)
	writeMaps(c.stdout, doc.state)
	return nil
}

func writeMaps(w io.Writer, s mapstate.State) {
	fmt.Fprintln(w, "maps (* marks the active map):")
	for i, m := range s.Maps {
		marker := " "
		if m.ID == s.ActiveMapID {
			marker = "*"
		}
		var flags []string
		if m.BackgroundBlobID != "" {
			flags = append(flags, "background")
		}
		if m.DrawingBlobID != "" {
			flags = append(flags, "drawing")
		}
		detail := "empty"
		if len(flags) > 0 {
			detail = strings.Join(flags, "+")
		}
		fmt.Fprintf(w, "%s %2d: %-20s %s  size %-2d %s %-8s %s\n", marker, i+1, m.Name, m.ID, m.BrushSize, swatch(palette.Color(m.ColorKey)), m.ColorKey, detail)
	}
}

// mutateCmd is the shared shape of the commands that change the map list
// without opening a window.
type mutateCmd struct {
	*root
	fs     *flag.FlagSet
	name   string
	tmpl   string
	stdout io.Writer
}

func (c *mutateCmd) FlagSet() *flag.FlagSet { return c.fs }

func (c *mutateCmd) Template() string { return c.tmpl }

// update opens the document, runs fn against a live collection and store
// queue, then saves the result.
func (c *mutateCmd) update(fn func(maps *mapstate.Collection, a *persist.Adapter) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	doc, err := openDocument(ctx, c.dbPath(), c.docName)
	if err != nil {
		return err
	}
	defer closeWithLog("store", doc)

	maps := mapstate.NewCollection(doc.state)
	a := persist.New(doc.store, maps, persist.WithErrorHandler(c.notifyStorage))
	ferr := fn(maps, a)
	if err := a.Flush(ctx); err != nil && ferr == nil {
		ferr = err
	}
	closeWithLog("persist", a)
	if ferr != nil {
		return ferr
	}
	if err := doc.save(ctx, maps.State()); err != nil {
		return err
	}
	c.notifySave(doc.name, nil)
	return nil
}

type addMapCmd struct {
	mutateCmd
	activate bool
}

func parseAddMapCmd(args []string, r *root) (*addMapCmd, error) {
	fs := flag.NewFlagSet("add-map", flag.ExitOnError)
	cmd := &addMapCmd{mutateCmd: mutateCmd{root: r, fs: fs, tmpl: "add-map.txt", stdout: os.Stdout}}
	fs.BoolVar(&cmd.activate, "activate", true, "make the new map the active map")
	fs.Usage = usageFunc(cmd)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 1 {
		return nil, &UsageError{of: cmd}
	}
	cmd.name = fs.Arg(0)
	return cmd, nil
}

func (c *addMapCmd) Run() error {
	return c.update(func(maps *mapstate.Collection, _ *persist.Adapter) error {
		m := maps.Add(c.name)
		if c.activate {
			maps.SetActive(m.ID)
		}
		fmt.Fprintf(c.stdout, "added %s (%s)\n", m.Name, m.ID)
		return nil
	})
}

type renameMapCmd struct {
	mutateCmd
	sel string
}

func parseRenameMapCmd(args []string, r *root) (*renameMapCmd, error) {
	fs := flag.NewFlagSet("rename-map", flag.ExitOnError)
	cmd := &renameMapCmd{mutateCmd: mutateCmd{root: r, fs: fs, tmpl: "rename-map.txt", stdout: os.Stdout}}
	fs.StringVar(&cmd.sel, "map", "", "map to rename (id, position or name); default is the active map")
	fs.Usage = usageFunc(cmd)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		return nil, &UsageError{of: cmd, msg: "a new name is required"}
	}
	cmd.name = strings.TrimSpace(fs.Arg(0))
	if cmd.name == "" {
		return nil, &UsageError{of: cmd, msg: "the new name is empty"}
	}
	return cmd, nil
}

func (c *renameMapCmd) Run() error {
	return c.update(func(maps *mapstate.Collection, _ *persist.Adapter) error {
		m, err := findMap(maps.State(), c.sel)
		if err != nil {
			return err
		}
		maps.Update(m.ID, func(e *mapstate.MapEntry) { e.Name = c.name })
		fmt.Fprintf(c.stdout, "renamed %s to %s\n", m.Name, c.name)
		return nil
	})
}

type removeMapCmd struct {
	mutateCmd
	sel string
}

func parseRemoveMapCmd(args []string, r *root) (*removeMapCmd, error) {
	fs := flag.NewFlagSet("remove-map", flag.ExitOnError)
	cmd := &removeMapCmd{mutateCmd: mutateCmd{root: r, fs: fs, tmpl: "remove-map.txt", stdout: os.Stdout}}
	fs.Usage = usageFunc(cmd)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		return nil, &UsageError{of: cmd, msg: "a map selector is required"}
	}
	cmd.sel = fs.Arg(0)
	return cmd, nil
}

func (c *removeMapCmd) Run() error {
	return c.update(func(maps *mapstate.Collection, a *persist.Adapter) error {
		m, err := findMap(maps.State(), c.sel)
		if err != nil {
			return err
		}
		removed, ok := maps.Remove(m.ID)
		if !ok {
			return fmt.Errorf("map %s disappeared", m.ID)
		}
		if err := <-a.DeleteBlobs(removed); err != nil {
			return err
		}
		fmt.Fprintf(c.stdout, "removed %s (%s)\n", removed.Name, removed.ID)
		return nil
	})
}
