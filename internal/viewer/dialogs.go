package viewer

import (
	"image"
	"unicode"

	"golang.org/x/mobile/event/key"
)

type modalKind int

const (
	modalConfirm modalKind = iota
	modalPrompt
	modalAlert
)

// maxInput bounds prompt input in runes.
const maxInput = 120

// modal is an open dialog. While one is open the window routes all input
// to it.
type modal struct {
	kind    modalKind
	message string
	input   []rune
}

type modalRects struct {
	box, input, ok, cancel image.Rectangle
}

func (m *modal) layout(w, h int) modalRects {
	bw := measureMessage(m.message) + 6*padding
	if m.kind == modalPrompt && bw < 320 {
		bw = 320
	}
	if bw < 220 {
		bw = 220
	}
	if bw > w-2*padding {
		bw = w - 2*padding
	}
	bh := 3*padding + 20 + buttonHeight + 2*padding
	if m.kind == modalPrompt {
		bh += buttonHeight + padding
	}
	x0, y0 := (w-bw)/2, (h-bh)/2
	r := modalRects{box: image.Rect(x0, y0, x0+bw, y0+bh)}
	y := y0 + 3*padding + 20
	if m.kind == modalPrompt {
		r.input = image.Rect(x0+2*padding, y, x0+bw-2*padding, y+buttonHeight)
		y += buttonHeight + padding
	}
	const btnW = 72
	r.ok = image.Rect(x0+bw-2*padding-btnW, y, x0+bw-2*padding, y+buttonHeight)
	if m.kind != modalAlert {
		r.cancel = r.ok.Sub(image.Pt(btnW+padding, 0))
	}
	return r
}

// key applies a key press. done is set when the dialog closes and ok when
// it was accepted.
func (m *modal) key(e key.Event) (done, ok bool) {
	if e.Direction == key.DirRelease {
		return false, false
	}
	switch e.Code {
	case key.CodeReturnEnter, key.CodeKeypadEnter:
		return true, true
	case key.CodeEscape:
		return true, m.kind == modalAlert
	case key.CodeDeleteBackspace:
		if m.kind == modalPrompt && len(m.input) > 0 {
			m.input = m.input[:len(m.input)-1]
		}
		return false, false
	}
	if m.kind == modalPrompt && e.Modifiers&(key.ModControl|key.ModMeta) == 0 &&
		e.Rune > 0 && unicode.IsPrint(e.Rune) && len(m.input) < maxInput {
		m.input = append(m.input, e.Rune)
	}
	return false, false
}

// press applies a click at p in a w by h window.
func (m *modal) press(p image.Point, w, h int) (done, ok bool) {
	r := m.layout(w, h)
	switch {
	case p.In(r.ok):
		return true, true
	case p.In(r.cancel):
		return true, false
	}
	return false, false
}
