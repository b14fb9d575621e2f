//go:build !disablegpio

package hal

import "periph.io/x/host/v3"

// initHost loads the periph host drivers. host.Init can safely be called
// multiple times; later calls are no-ops.
func initHost() error {
	_, err := host.Init()
	return err
}
