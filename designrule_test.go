package designrule

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/kataras/design-rule/pkg/extractor"
	"github.com/kataras/design-rule/pkg/imager"
)

type recordingLogger struct {
	infos, warns, errs []string
}

func (l *recordingLogger) Infof(f string, a ...any)  { l.infos = append(l.infos, fmt.Sprintf(f, a...)) }
func (l *recordingLogger) Warnf(f string, a ...any)  { l.warns = append(l.warns, fmt.Sprintf(f, a...)) }
func (l *recordingLogger) Errorf(f string, a ...any) { l.errs = append(l.errs, fmt.Sprintf(f, a...)) }

func encodePNG(t *testing.T, w, h int, px ...color.NRGBA) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i, c := range px {
		img.SetNRGBA(i%w, i/w, c)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

var (
	red   = color.NRGBA{R: 255, A: 255}
	green = color.NRGBA{G: 255, A: 255}
	blue  = color.NRGBA{B: 255, A: 255}
)

func TestRun_File(t *testing.T) {
	p := filepath.Join(t.TempDir(), "design.png")
	if err := os.WriteFile(p, encodePNG(t, 2, 2, red, red, blue, green), 0644); err != nil {
		t.Fatal(err)
	}

	log := &recordingLogger{}
	result, err := Run(context.Background(), Options{
		ImagePath:  p,
		Extraction: extractor.Options{Stride: 1},
		Logger:     log,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	wantColors := []string{"#ff0000", "#0000ff", "#00ff00"}
	if !reflect.DeepEqual(result.Elements.Colors, wantColors) {
		t.Errorf("Colors = %v, want %v", result.Elements.Colors, wantColors)
	}
	if result.Fallback || result.Format != "png" || result.Source != p {
		t.Errorf("unexpected result metadata %+v", result)
	}
	if len(result.Elements.Components) != 8 || result.Elements.Typography.FontFamily[0] != "Roboto" {
		t.Errorf("static detectors not applied: %+v", result.Elements)
	}
	if !strings.Contains(result.Markdown, `"primary": "#ff0000"`) {
		t.Errorf("markdown does not use the extracted palette:\n%s", result.Markdown)
	}
	if len(log.infos) == 0 || len(log.warns) != 0 {
		t.Errorf("unexpected log output: %+v", log)
	}
}

func TestRun_UndecodableFallsBack(t *testing.T) {
	log := &recordingLogger{}
	result, err := Run(context.Background(), Options{
		Image:     strings.NewReader("definitely not a png"),
		ImageName: "broken.png",
		Logger:    log,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !reflect.DeepEqual(result.Elements.Colors, extractor.FallbackPalette) {
		t.Errorf("Colors = %v, want fallback %v", result.Elements.Colors, extractor.FallbackPalette)
	}
	if !result.Fallback {
		t.Error("Fallback = false, want true")
	}
	if len(log.warns) != 1 {
		t.Errorf("expected one warning, got %v", log.warns)
	}
}

// headerOnlyPNG is a PNG whose IHDR claims w x h pixels with no usable pixel data.
func headerOnlyPNG(w, h uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")

	chunk := func(typ string, data []byte) {
		binary.Write(&buf, binary.BigEndian, uint32(len(data)))
		buf.WriteString(typ)
		buf.Write(data)
		binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(append([]byte(typ), data...)))
	}

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:], w)
	binary.BigEndian.PutUint32(ihdr[4:], h)
	ihdr[8], ihdr[9] = 8, 6
	chunk("IHDR", ihdr)
	chunk("IDAT", []byte{0x78, 0x9c, 0x03, 0x00, 0x00, 0x00, 0x00, 0x01})
	chunk("IEND", nil)
	return buf.Bytes()
}

func TestRun_OversizedImageFallsBack(t *testing.T) {
	tests := []struct {
		name string
		w, h uint32
	}{
		{name: "dimensions beyond memory", w: 1 << 28, h: 1 << 28},
		{name: "large but plausible header", w: 20000, h: 20000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := &recordingLogger{}
			result, err := Run(context.Background(), Options{
				Image:     bytes.NewReader(headerOnlyPNG(tt.w, tt.h)),
				ImageName: "huge.png",
				Logger:    log,
			})
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if !result.Fallback {
				t.Error("Fallback = false, want true")
			}
			if !reflect.DeepEqual(result.Elements.Colors, extractor.FallbackPalette) {
				t.Errorf("Colors = %v, want fallback %v", result.Elements.Colors, extractor.FallbackPalette)
			}
			if len(log.warns) != 1 || !strings.Contains(log.warns[0], "too large") {
				t.Errorf("expected one size warning, got %v", log.warns)
			}
		})
	}
}

func TestRun_TransparentImage(t *testing.T) {
	transparent := color.NRGBA{R: 9, G: 9, B: 9, A: 0}
	result, err := Run(context.Background(), Options{
		Image:     bytes.NewReader(encodePNG(t, 2, 1, transparent, transparent)),
		ImageName: "clear.png",
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(result.Elements.Colors) != 0 || result.Fallback {
		t.Errorf("transparent image: colors %v, fallback %v", result.Elements.Colors, result.Fallback)
	}
	// Missing palette entries render with role defaults.
	if !strings.Contains(result.Markdown, `"primary": "#3498db"`) {
		t.Error("empty palette should render default roles")
	}
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		is   error
	}{
		{name: "no image", opts: Options{}},
		{name: "missing file", opts: Options{ImagePath: filepath.Join(t.TempDir(), "nope.png")}},
		{name: "unsupported path", opts: Options{ImagePath: "design.bmp"}, is: imager.ErrUnsupportedFormat},
		{name: "unsupported upload", opts: Options{Image: strings.NewReader(""), ImageName: "a.gif"}, is: imager.ErrUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Run(context.Background(), tt.opts)
			if err == nil {
				t.Fatal("Run() should fail")
			}
			if tt.is != nil && !errors.Is(err, tt.is) {
				t.Errorf("Run() error = %v, want %v", err, tt.is)
			}
		})
	}
}

type failingDetector struct{}

func (failingDetector) DetectTypography(context.Context, image.Image) (extractor.Typography, error) {
	return extractor.Typography{}, errors.New("model unavailable")
}

func TestRun_CustomDetector(t *testing.T) {
	_, err := Run(context.Background(), Options{
		Image:      bytes.NewReader(encodePNG(t, 1, 1, red)),
		ImageName:  "a.png",
		Typography: failingDetector{},
	})
	if err == nil || !strings.Contains(err.Error(), "model unavailable") {
		t.Errorf("Run() error = %v, want detector error", err)
	}
}

func TestRun_Deterministic(t *testing.T) {
	data := encodePNG(t, 3, 3, red, blue, blue, green, red, red, blue, green, green)

	run := func() string {
		result, err := Run(context.Background(), Options{
			Image:      bytes.NewReader(data),
			ImageName:  "a.png",
			Extraction: extractor.Options{Stride: 1},
		})
		if err != nil {
			t.Fatal(err)
		}
		return result.Markdown
	}

	if first, second := run(), run(); first != second {
		t.Error("Run() is not deterministic")
	}
}
