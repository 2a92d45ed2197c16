// Package device describes the display the rendered frame is produced for.
package device

// Vertical is the orientation value for a display mounted in portrait.
const Vertical = "vertical"

// Config holds the display configuration.
//
// It is organized to take advantage of TOML parsing, however this package does
// not handle parsing and has no expectation on how it will be initialized.
type Config struct {
	// Resolution is the native [width, height] of the display.
	Resolution [2]int
	// Orientation is "horizontal" or "vertical".
	Orientation string
}

// Dimensions returns the configured display size. ok is false if it is unset
// or not positive.
func (c Config) Dimensions() (width, height int, ok bool) {
	w, h := c.Resolution[0], c.Resolution[1]
	if w <= 0 || h <= 0 {
		return 0, 0, false
	}
	return w, h, true
}

// IsVertical reports whether the display is mounted in portrait.
func (c Config) IsVertical() bool { return c.Orientation == Vertical }
