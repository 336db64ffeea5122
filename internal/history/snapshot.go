package history

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"strings"
)

// SnapshotPrefix starts every valid Snapshot.
const SnapshotPrefix = "data:image/png;base64,"

// Snapshot is a self-contained PNG data URL of the drawing layer. It never
// references another snapshot.
type Snapshot string

// Valid reports whether s decodes to a PNG header. Pixel data is not
// decoded here.
func (s Snapshot) Valid() bool {
	raw, ok := s.Bytes()
	if !ok {
		return false
	}
	_, err := png.DecodeConfig(bytes.NewReader(raw))
	return err == nil
}

// Bytes returns the PNG bytes carried by s.
func (s Snapshot) Bytes() ([]byte, bool) {
	str := string(s)
	if !strings.HasPrefix(str, SnapshotPrefix) {
		return nil, false
	}
	raw, err := base64.StdEncoding.DecodeString(str[len(SnapshotPrefix):])
	if err != nil || len(raw) == 0 {
		return nil, false
	}
	return raw, true
}

// FromPNG wraps encoded PNG bytes.
func FromPNG(data []byte) Snapshot {
	return Snapshot(SnapshotPrefix + base64.StdEncoding.EncodeToString(data))
}

// SnapshotsFrom converts untrusted values, typically from a decoded save
// file, keeping only valid string entries.
func SnapshotsFrom(v any) []Snapshot {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]Snapshot, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			continue
		}
		if snap := Snapshot(s); snap.Valid() {
			out = append(out, snap)
		}
	}
	return out
}
