//go:build disablegpio

package hal

// initHost does nothing when GPIO support is compiled out, so the tools can
// be built and run on a desktop machine. Only pins registered by the caller
// in gpioreg will resolve.
func initHost() error {
	return nil
}
