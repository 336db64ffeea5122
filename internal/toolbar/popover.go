package toolbar

import "sort"

// Popovers tracks the toolbar menus. At most one is open at a time.
type Popovers struct {
	names map[string]bool
	open  string
	// OnChange runs whenever the open popover changes.
	OnChange func(open string)
}

// NewPopovers registers names.
func NewPopovers(names ...string) *Popovers {
	p := &Popovers{names: map[string]bool{}}
	for _, n := range names {
		p.Register(n)
	}
	return p
}

// Register adds a popover name.
func (p *Popovers) Register(name string) { p.names[name] = true }

// Names returns the registered names in sorted order.
func (p *Popovers) Names() []string {
	out := make([]string, 0, len(p.names))
	for n := range p.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Open shows name and closes any other popover.
func (p *Popovers) Open(name string) bool {
	if !p.names[name] {
		return false
	}
	p.set(name)
	return true
}

// Toggle opens name, or closes it when it is already open.
func (p *Popovers) Toggle(name string) bool {
	if p.open == name {
		p.set("")
		return true
	}
	return p.Open(name)
}

// Close closes name if it is open.
func (p *Popovers) Close(name string) {
	if p.open == name {
		p.set("")
	}
}

// CloseAll closes whatever is open.
func (p *Popovers) CloseAll() { p.set("") }

// Current returns the open popover or "".
func (p *Popovers) Current() string { return p.open }

// IsOpen reports whether name is open.
func (p *Popovers) IsOpen(name string) bool { return name != "" && p.open == name }

// Outside handles a click that landed outside every popover and its
// trigger.
func (p *Popovers) Outside() { p.CloseAll() }

func (p *Popovers) set(name string) {
	if p.open == name {
		return
	}
	p.open = name
	if p.OnChange != nil {
		p.OnChange(name)
	}
}
