package formatter

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// AdjustBrightness scales every RGB channel of a "#rrggbb" color by percent, computing
// channel + channel*percent/100, clamping to [0, 255] and rounding to the nearest integer.
// Negative percentages darken the color. A color that cannot be parsed is returned as-is.
func AdjustBrightness(hex string, percent float64) string {
	c, err := colorful.Hex(hex)
	if err != nil {
		return hex
	}

	r, g, b := c.RGB255()
	return fmt.Sprintf("#%02x%02x%02x",
		scaleChannel(r, percent),
		scaleChannel(g, percent),
		scaleChannel(b, percent))
}

func scaleChannel(v uint8, percent float64) uint8 {
	c := float64(v)
	c = math.Max(0, math.Min(255, c+c*percent/100))
	return uint8(math.Round(c))
}
