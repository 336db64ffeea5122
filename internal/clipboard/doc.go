// Package clipboard moves map images between the editor and the system
// clipboard. Builds with cgo use golang.design/x/clipboard; builds without
// cgo talk to the X server directly.
package clipboard
