// Package detector provides the typography and component detectors used by the analysis
// pipeline.
//
// Static is a placeholder: it reports the same values for every image. A detector backed
// by font recognition or object detection can replace it by implementing
// extractor.TypographyDetector and extractor.ComponentDetector and being passed through
// designrule.Options.
package detector

import (
	"context"
	"image"

	"github.com/kataras/design-rule/pkg/extractor"
)

// Static returns fixed typography and component lists regardless of the input image.
type Static struct{}

var (
	_ extractor.TypographyDetector = Static{}
	_ extractor.ComponentDetector  = Static{}
)

// DetectTypography returns a plausible type scale. The image is ignored.
func (Static) DetectTypography(ctx context.Context, _ image.Image) (extractor.Typography, error) {
	if err := ctx.Err(); err != nil {
		return extractor.Typography{}, err
	}

	return extractor.Typography{
		FontFamily:  []string{"Roboto", "Inter", "Open Sans"},
		FontSizes:   []float64{12, 14, 16, 18, 24, 32, 48},
		FontWeights: []float64{400, 500, 700},
	}, nil
}

// DetectComponents returns the common UI component kinds. The image is ignored.
func (Static) DetectComponents(ctx context.Context, _ image.Image) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return []string{
		"Button",
		"Card",
		"Input",
		"Navbar",
		"Modal",
		"Table",
		"Dropdown",
		"Tabs",
	}, nil
}
