//go:build !darwin && !linux && !windows

package auth

import (
	"fmt"
)

func openBrowser(url string) error {
	return fmt.Errorf("no browser for this platform")
}
