// Package maplist adds, renames, deletes and switches between the named
// maps of a document. At least one map always exists.
package maplist

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/example/battlemap/internal/events"
	"github.com/example/battlemap/internal/mapstate"
)

var (
	ErrLastMap   = errors.New("maplist: cannot delete the last map")
	ErrNotFound  = errors.New("maplist: map not found")
	ErrCancelled = errors.New("maplist: cancelled")
	ErrBlankName = errors.New("maplist: name is blank")
)

// Click actions understood by HandleClick. Value carries the map id where
// one is needed; an empty id means the active map.
const (
	ActionSwitch = "map-switch"
	ActionAdd    = "map-add"
	ActionRename = "map-rename"
	ActionDelete = "map-delete"
)

// Dialogs are the blocking modal primitives.
type Dialogs interface {
	Confirm(message string) bool
	// Prompt returns false when the user dismissed the dialog.
	Prompt(message, initial string) (string, bool)
	Alert(message string)
}

// Workspace is the editor side of a map switch.
type Workspace interface {
	// Leave stops editing the active map, committing its drawing layer
	// first when commit is set, and forgets its history.
	Leave(commit bool)
	// Enter loads the background and drawing of the now active map and
	// renders it.
	Enter(mapID string)
	// DeleteBlobs removes the stored blobs of a deleted map.
	DeleteBlobs(m mapstate.MapEntry)
	MarkDirty()
}

// Controller is used from the UI goroutine.
type Controller struct {
	maps    *mapstate.Collection
	ws      Workspace
	dialogs Dialogs
}

// New returns a controller over maps.
func New(maps *mapstate.Collection, ws Workspace, dialogs Dialogs) *Controller {
	return &Controller{maps: maps, ws: ws, dialogs: dialogs}
}

// List returns every map in order.
func (c *Controller) List() []mapstate.MapEntry { return c.maps.List() }

// Active returns the active map.
func (c *Controller) Active() mapstate.MapEntry { return c.maps.Active() }

// Add prompts for a name, appends a map and switches to it.
func (c *Controller) Add() (mapstate.MapEntry, error) {
	name, err := c.askName("Name for the new map:", mapstate.DefaultName(c.maps.Len()+1))
	if err != nil {
		return mapstate.MapEntry{}, err
	}
	m := c.maps.Add(name)
	if err := c.Switch(m.ID); err != nil {
		return m, err
	}
	return m, nil
}

// Rename prompts for a new name for id.
func (c *Controller) Rename(id string) error {
	m, ok := c.maps.Entry(c.resolve(id))
	if !ok {
		return ErrNotFound
	}
	name, err := c.askName("Rename map:", m.Name)
	if err != nil {
		return err
	}
	if name == m.Name {
		return nil
	}
	c.maps.Update(m.ID, func(e *mapstate.MapEntry) { e.Name = name })
	c.ws.MarkDirty()
	return nil
}

// Delete removes id after confirmation. The last map cannot be deleted.
func (c *Controller) Delete(id string) error {
	m, ok := c.maps.Entry(c.resolve(id))
	if !ok {
		return ErrNotFound
	}
	if c.maps.Len() <= 1 {
		c.dialogs.Alert("A campaign needs at least one map.")
		return ErrLastMap
	}
	if !c.dialogs.Confirm(fmt.Sprintf("Delete map %q and its drawing?", m.Name)) {
		return ErrCancelled
	}
	wasActive := m.ID == c.maps.ActiveID()
	if wasActive {
		c.ws.Leave(false)
	}
	removed, ok := c.maps.Remove(m.ID)
	if !ok {
		return ErrNotFound
	}
	c.ws.DeleteBlobs(removed)
	if wasActive {
		c.ws.Enter(c.maps.ActiveID())
	}
	c.ws.MarkDirty()
	return nil
}

// Switch makes id the active map: the outgoing drawing is committed, the
// history cleared, and the incoming map loaded and rendered.
func (c *Controller) Switch(id string) error {
	if _, ok := c.maps.Entry(id); !ok {
		return ErrNotFound
	}
	if id == c.maps.ActiveID() {
		return nil
	}
	c.ws.Leave(true)
	c.maps.SetActive(id)
	c.ws.Enter(id)
	c.ws.MarkDirty()
	return nil
}

// HandleClick runs a map list action and reports whether it owned e.
func (c *Controller) HandleClick(e events.Event) bool {
	var err error
	switch e.Action {
	case ActionSwitch:
		err = c.Switch(e.Value)
	case ActionAdd:
		_, err = c.Add()
	case ActionRename:
		err = c.Rename(e.Value)
	case ActionDelete:
		err = c.Delete(e.Value)
	default:
		return false
	}
	switch {
	case err == nil, errors.Is(err, ErrCancelled), errors.Is(err, ErrLastMap), errors.Is(err, ErrBlankName):
	default:
		log.Printf("%s: %v", e.Action, err)
	}
	return true
}

func (c *Controller) resolve(id string) string {
	if strings.TrimSpace(id) == "" {
		return c.maps.ActiveID()
	}
	return id
}

func (c *Controller) askName(message, initial string) (string, error) {
	name, ok := c.dialogs.Prompt(message, initial)
	if !ok {
		return "", ErrCancelled
	}
	name = strings.TrimSpace(name)
	if name == "" {
		c.dialogs.Alert("Map name cannot be blank.")
		return "", ErrBlankName
	}
	return name, nil
}
