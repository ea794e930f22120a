package extractor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"sort"

	"golang.org/x/sync/errgroup"
)

// DesignElements represents the complete set of design values extracted from a single image.
// It is the only contract between extraction and rendering. A record is produced fresh
// for every image and must be treated as read-only once returned.
type DesignElements struct {
	Colors       []string   `json:"colors"`
	Typography   Typography `json:"typography"`
	Spacing      []float64  `json:"spacing"`
	BorderRadius []float64  `json:"borderRadius"`
	Components   []string   `json:"components"`
}

// Typography holds the font families, sizes (px) and weights detected for a design.
type Typography struct {
	FontFamily  []string  `json:"fontFamily"`
	FontSizes   []float64 `json:"fontSizes"`
	FontWeights []float64 `json:"fontWeights"`
}

// ColorSample is a packed 24-bit RGB value together with the number of sampled pixels
// that matched it exactly.
type ColorSample struct {
	RGB   uint32
	Count int
}

// Hex returns the sample color as a lower-case, zero-padded "#rrggbb" string.
func (s ColorSample) Hex() string {
	return fmt.Sprintf("#%06x", s.RGB&0xFFFFFF)
}

// Options controls the pixel sampling of the color extractor.
type Options struct {
	Stride         int // sample every Nth pixel, default 10
	AlphaThreshold int // samples with a lower alpha are skipped, default 128
	MaxColors      int // number of colors kept, default 6
}

const (
	DefaultStride         = 10
	DefaultAlphaThreshold = 128
	DefaultMaxColors      = 6
)

// FallbackPalette is returned when an image cannot be decoded.
var FallbackPalette = []string{"#3498db", "#2ecc71", "#e74c3c", "#f39c12", "#9b59b6"}

// Fixed spacing and border radius scales attached to every record.
var (
	DefaultSpacing      = []float64{4, 8, 16, 24, 32, 48}
	DefaultBorderRadius = []float64{0, 4, 8, 16, 24}
)

// TypographyDetector detects font information from a design image.
// Implementations must not retain or modify img.
type TypographyDetector interface {
	DetectTypography(ctx context.Context, img image.Image) (Typography, error)
}

// ComponentDetector detects the UI component kinds present in a design image.
type ComponentDetector interface {
	DetectComponents(ctx context.Context, img image.Image) ([]string, error)
}

func (o Options) withDefaults() Options {
	if o.Stride <= 0 {
		o.Stride = DefaultStride
	}
	if o.AlphaThreshold <= 0 {
		o.AlphaThreshold = DefaultAlphaThreshold
	}
	if o.MaxColors <= 0 {
		o.MaxColors = DefaultMaxColors
	}
	return o
}

// SampleColors walks the image pixels in row-major order, taking one pixel every
// opts.Stride pixels, and counts exact RGB matches among the samples whose alpha is at
// least opts.AlphaThreshold. The result is sorted by descending count; equal counts keep
// the order in which the colors were first seen. All distinct colors are returned.
func SampleColors(img image.Image, opts Options) []ColorSample {
	if img == nil {
		return nil
	}
	opts = opts.withDefaults()

	px := toNRGBA(img)
	w, h := px.Rect.Dx(), px.Rect.Dy()
	total := w * h

	counts := make(map[uint32]int)
	var order []uint32 // first-seen order

	for i := 0; i < total; i += opts.Stride {
		x, y := i%w, i/w
		off := y*px.Stride + x*4
		if int(px.Pix[off+3]) < opts.AlphaThreshold {
			continue
		}

		rgb := uint32(px.Pix[off])<<16 | uint32(px.Pix[off+1])<<8 | uint32(px.Pix[off+2])
		if _, seen := counts[rgb]; !seen {
			order = append(order, rgb)
		}
		counts[rgb]++
	}

	samples := make([]ColorSample, len(order))
	for i, rgb := range order {
		samples[i] = ColorSample{RGB: rgb, Count: counts[rgb]}
	}

	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].Count > samples[j].Count
	})

	return samples
}

// ExtractColors returns up to opts.MaxColors dominant colors of img as hex strings,
// most frequent first. A nil image yields a copy of FallbackPalette. An image without
// any opaque sample yields an empty slice.
//
// Colors are counted by exact value; no clustering is applied.
func ExtractColors(img image.Image, opts Options) []string {
	if img == nil {
		return append([]string(nil), FallbackPalette...)
	}
	opts = opts.withDefaults()

	samples := SampleColors(img, opts)
	if len(samples) > opts.MaxColors {
		samples = samples[:opts.MaxColors]
	}

	colors := make([]string, len(samples))
	for i, s := range samples {
		colors[i] = s.Hex()
	}
	return colors
}

// Analyze extracts colors, typography and components from img in parallel and waits for
// all three before assembling the design elements. Color extraction never fails; an error
// is returned only when a detector fails or is missing.
func Analyze(ctx context.Context, img image.Image, opts Options, typo TypographyDetector, comps ComponentDetector) (*DesignElements, error) {
	if typo == nil || comps == nil {
		return nil, errors.New("typography and component detectors are required")
	}

	var (
		colors     []string
		typography Typography
		components []string
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		colors = ExtractColors(img, opts)
		return nil
	})

	g.Go(func() error {
		var err error
		typography, err = typo.DetectTypography(gctx, img)
		if err != nil {
			return fmt.Errorf("detect typography: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		var err error
		components, err = comps.DetectComponents(gctx, img)
		if err != nil {
			return fmt.Errorf("detect components: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &DesignElements{
		Colors: colors,
		Typography: Typography{
			FontFamily:  cloneStrings(typography.FontFamily),
			FontSizes:   cloneFloats(typography.FontSizes),
			FontWeights: cloneFloats(typography.FontWeights),
		},
		Spacing:      cloneFloats(DefaultSpacing),
		BorderRadius: cloneFloats(DefaultBorderRadius),
		Components:   cloneStrings(components),
	}, nil
}

// toNRGBA returns the image as a non-premultiplied RGBA raster with its origin at (0,0),
// the same layout a canvas pixel buffer has.
func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}

	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

func cloneStrings(s []string) []string {
	return append([]string(nil), s...)
}

func cloneFloats(f []float64) []float64 {
	return append([]float64(nil), f...)
}
