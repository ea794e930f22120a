package extractor

import (
	"context"
	"errors"
	"image"
	"image/color"
	"reflect"
	"testing"
)

var (
	red   = color.NRGBA{R: 255, A: 255}
	green = color.NRGBA{G: 255, A: 255}
	blue  = color.NRGBA{B: 255, A: 255}
)

// newImage builds a w*h image whose pixels are taken row by row from px.
func newImage(w, h int, px ...color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i, c := range px {
		img.SetNRGBA(i%w, i/w, c)
	}
	return img
}

// fill returns n copies of c.
func fill(n int, c color.NRGBA) []color.NRGBA {
	px := make([]color.NRGBA, n)
	for i := range px {
		px[i] = c
	}
	return px
}

func TestExtractColors(t *testing.T) {
	tests := []struct {
		name string
		img  image.Image
		opts Options
		want []string
	}{
		{
			name: "every pixel, most frequent first then first seen",
			img:  newImage(2, 2, red, red, blue, green),
			opts: Options{Stride: 1},
			want: []string{"#ff0000", "#0000ff", "#00ff00"},
		},
		{
			name: "default stride only samples every 10th pixel",
			img:  newImage(2, 2, red, red, blue, green),
			want: []string{"#ff0000"},
		},
		{
			name: "stride crosses row boundaries",
			// 7x3: samples are pixel 0 (0,0), 10 (3,1) and 20 (6,2).
			img: func() image.Image {
				img := newImage(7, 3, fill(21, red)...)
				img.SetNRGBA(3, 1, blue)
				img.SetNRGBA(6, 2, blue)
				return img
			}(),
			want: []string{"#0000ff", "#ff0000"},
		},
		{
			name: "zero padded lower case hex",
			img:  newImage(1, 1, color.NRGBA{R: 0x01, G: 0x0A, B: 0xBC, A: 255}),
			want: []string{"#010abc"},
		},
		{
			name: "fully transparent image has no colors",
			img:  newImage(2, 2, color.NRGBA{}, color.NRGBA{}, color.NRGBA{}, color.NRGBA{}),
			opts: Options{Stride: 1},
			want: []string{},
		},
		{
			name: "empty image has no colors",
			img:  image.NewNRGBA(image.Rect(0, 0, 0, 0)),
			want: []string{},
		},
		{
			name: "nil image falls back",
			img:  nil,
			want: FallbackPalette,
		},
		{
			name: "no padding with few colors",
			img:  newImage(3, 1, red, red, red),
			opts: Options{Stride: 1},
			want: []string{"#ff0000"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractColors(tt.img, tt.opts)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractColors() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtractColors_AlphaThreshold(t *testing.T) {
	unique := color.NRGBA{R: 0x12, G: 0x34, B: 0x56}

	tests := []struct {
		name    string
		alpha   uint8
		wantHit bool
	}{
		{name: "fully transparent", alpha: 0, wantHit: false},
		{name: "just below threshold", alpha: 127, wantHit: false},
		{name: "at threshold", alpha: 128, wantHit: true},
		{name: "opaque", alpha: 255, wantHit: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := unique
			c.A = tt.alpha
			img := newImage(4, 1, red, c, c, green)

			got := ExtractColors(img, Options{Stride: 1})
			hit := false
			for _, hex := range got {
				if hex == "#123456" {
					hit = true
				}
			}
			if hit != tt.wantHit {
				t.Errorf("alpha %d: #123456 present = %v, want %v (got %v)", tt.alpha, hit, tt.wantHit, got)
			}
		})
	}
}

func TestExtractColors_Truncates(t *testing.T) {
	var px []color.NRGBA
	// Color i appears 10-i times, so the ranking is 0..9.
	for i := 0; i < 10; i++ {
		px = append(px, fill(10-i, color.NRGBA{R: uint8(i), A: 255})...)
	}
	img := newImage(len(px), 1, px...)

	got := ExtractColors(img, Options{Stride: 1})
	want := []string{"#000000", "#010000", "#020000", "#030000", "#040000", "#050000"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractColors() = %v, want %v", got, want)
	}

	got = ExtractColors(img, Options{Stride: 1, MaxColors: 2})
	if len(got) != 2 {
		t.Errorf("ExtractColors() with MaxColors 2 returned %d colors", len(got))
	}
}

func TestSampleColors_Ordering(t *testing.T) {
	// Interleave colors so first-seen order differs from count order.
	px := []color.NRGBA{blue, red, green, red, green, red, blue, green}
	img := newImage(len(px), 1, px...)

	samples := SampleColors(img, Options{Stride: 1})
	for i := 1; i < len(samples); i++ {
		if samples[i-1].Count < samples[i].Count {
			t.Fatalf("samples not sorted by count: %+v", samples)
		}
	}

	// red and green tie at 3; red was seen first.
	want := []ColorSample{
		{RGB: 0xFF0000, Count: 3},
		{RGB: 0x00FF00, Count: 3},
		{RGB: 0x0000FF, Count: 2},
	}
	if !reflect.DeepEqual(samples, want) {
		t.Errorf("SampleColors() = %+v, want %+v", samples, want)
	}
}

func TestSampleColors_NonZeroOrigin(t *testing.T) {
	full := newImage(4, 4, fill(16, green)...)
	full.SetNRGBA(2, 2, red)
	sub := full.SubImage(image.Rect(2, 2, 4, 4))

	samples := SampleColors(sub, Options{Stride: 1})
	if len(samples) != 2 || samples[0].RGB != 0x00FF00 || samples[0].Count != 3 || samples[1].RGB != 0xFF0000 {
		t.Errorf("SampleColors(sub image) = %+v", samples)
	}
}

func TestExtractColors_Deterministic(t *testing.T) {
	var px []color.NRGBA
	for i := 0; i < 400; i++ {
		px = append(px, color.NRGBA{R: uint8(i % 7), G: uint8(i % 13), B: uint8(i % 3), A: 255})
	}
	img := newImage(20, 20, px...)

	first := ExtractColors(img, Options{Stride: 1})
	for i := 0; i < 5; i++ {
		if got := ExtractColors(img, Options{Stride: 1}); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d: ExtractColors() = %v, want %v", i, got, first)
		}
	}
}

type stubDetector struct {
	typo     Typography
	comps    []string
	typoErr  error
	compsErr error
}

func (s stubDetector) DetectTypography(context.Context, image.Image) (Typography, error) {
	return s.typo, s.typoErr
}

func (s stubDetector) DetectComponents(context.Context, image.Image) ([]string, error) {
	return s.comps, s.compsErr
}

func TestAnalyze(t *testing.T) {
	det := stubDetector{
		typo:  Typography{FontFamily: []string{"Inter"}, FontSizes: []float64{14}, FontWeights: []float64{400}},
		comps: []string{"Button"},
	}
	img := newImage(2, 2, red, red, blue, green)

	got, err := Analyze(context.Background(), img, Options{Stride: 1}, det, det)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	want := &DesignElements{
		Colors:       []string{"#ff0000", "#0000ff", "#00ff00"},
		Typography:   det.typo,
		Spacing:      []float64{4, 8, 16, 24, 32, 48},
		BorderRadius: []float64{0, 4, 8, 16, 24},
		Components:   []string{"Button"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Analyze() = %+v, want %+v", got, want)
	}

	// Records must not share the package level scales.
	got.Spacing[0] = 99
	if DefaultSpacing[0] != 4 {
		t.Errorf("Analyze() shares DefaultSpacing with the record")
	}
}

func TestAnalyze_NilImageFallsBack(t *testing.T) {
	det := stubDetector{}
	got, err := Analyze(context.Background(), nil, Options{}, det, det)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if !reflect.DeepEqual(got.Colors, FallbackPalette) {
		t.Errorf("Analyze(nil).Colors = %v, want %v", got.Colors, FallbackPalette)
	}
}

func TestAnalyze_DetectorError(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name string
		det  stubDetector
	}{
		{name: "typography", det: stubDetector{typoErr: boom}},
		{name: "components", det: stubDetector{compsErr: boom}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Analyze(context.Background(), newImage(1, 1, red), Options{}, tt.det, tt.det)
			if !errors.Is(err, boom) {
				t.Errorf("Analyze() error = %v, want %v", err, boom)
			}
		})
	}

	if _, err := Analyze(context.Background(), nil, Options{}, nil, nil); err == nil {
		t.Error("Analyze() without detectors should fail")
	}
}
