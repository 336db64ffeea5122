//go:build !(linux || freebsd || openbsd || netbsd || dragonfly)

package capture

import (
	"context"
	"fmt"
)

func portalScreenshot(context.Context, bool) ([]byte, error) {
	return nil, fmt.Errorf("portal screenshot is not supported on this platform")
}
