// Package capture asks the desktop for a screenshot of a region the user
// picks, so a map drawn in another program can become a background.
package capture

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"
)

// ErrCancelled is returned when the user dismisses the picker.
var ErrCancelled = errors.New("capture: cancelled")

// DefaultTimeout bounds how long the picker may stay open.
const DefaultTimeout = 2 * time.Minute

// Region lets the user select part of the screen and returns the encoded
// image exactly as the desktop produced it.
func Region(ctx context.Context) ([]byte, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultTimeout)
		defer cancel()
	}
	return portalScreenshot(ctx, true)
}

// pathFromURI turns the portal's file:// result into a local path.
func pathFromURI(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", uri, err)
	}
	if u.Scheme != "file" || u.Path == "" {
		return "", fmt.Errorf("unsupported screenshot location %q", uri)
	}
	return u.Path, nil
}
