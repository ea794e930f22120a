package designrule

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/kataras/design-rule/pkg/detector"
	"github.com/kataras/design-rule/pkg/extractor"
	"github.com/kataras/design-rule/pkg/formatter"
	"github.com/kataras/design-rule/pkg/imager"
)

// Version is the release of the design-rule module and CLI.
const Version = "0.1.0"

// Options configures the analysis.
type Options struct {
	ImagePath  string    // local path or http(s) URL; ignored when Image is set
	Image      io.Reader // already opened image, e.g. an upload
	ImageName  string    // file name of Image, used for the extension check
	Extraction extractor.Options
	Typography extractor.TypographyDetector // nil = detector.Static
	Components extractor.ComponentDetector  // nil = detector.Static
	Logger     Logger                       // nil = no logging
}

// Logger receives progress messages. A nil Logger means silent operation.
type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Result contains the analysis output.
type Result struct {
	Elements *extractor.DesignElements
	Source   string // image path, URL or upload name
	Format   string // decoded image format, empty when decoding failed
	Fallback bool   // true when the fallback palette replaced extracted colors
	Markdown string // rendered design rule
}

func (o *Options) logInfo(f string, a ...any) {
	if o.Logger != nil {
		o.Logger.Infof(f, a...)
	}
}

func (o *Options) logWarn(f string, a ...any) {
	if o.Logger != nil {
		o.Logger.Warnf(f, a...)
	}
}

func (o *Options) logError(f string, a ...any) {
	if o.Logger != nil {
		o.Logger.Errorf(f, a...)
	}
}

// Run loads the image, analyzes it and renders the design rule.
//
// An image that cannot be decoded is not an error: the fallback palette is used and a
// warning is logged. Errors are returned only when the image source cannot be read or
// has an unsupported extension, or when a detector fails.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Typography == nil {
		opts.Typography = detector.Static{}
	}
	if opts.Components == nil {
		opts.Components = detector.Static{}
	}

	source, data, err := readSource(ctx, &opts)
	if err != nil {
		return nil, err
	}

	opts.logInfo("Decoding %s (%d bytes)...", source, len(data))
	img, format, err := imager.DecodeBytes(data)
	if err != nil {
		opts.logWarn("Could not decode %s, using the fallback palette: %v", source, err)
	} else {
		b := img.Bounds()
		opts.logInfo("Decoded %s image, %dx%d", format, b.Dx(), b.Dy())
	}

	opts.logInfo("Extracting colors, typography and components...")
	elements, err := extractor.Analyze(ctx, img, opts.Extraction, opts.Typography, opts.Components)
	if err != nil {
		opts.logError("Analysis failed: %v", err)
		return nil, fmt.Errorf("analyze %s: %w", source, err)
	}

	if img != nil && len(elements.Colors) == 0 {
		opts.logWarn("No opaque pixels sampled, the palette is empty")
	} else {
		opts.logInfo("Found %d color(s)", len(elements.Colors))
	}

	opts.logInfo("Generating design rule...")
	markdown := formatter.ToMarkdown(elements)

	return &Result{
		Elements: elements,
		Source:   source,
		Format:   format,
		Fallback: img == nil,
		Markdown: markdown,
	}, nil
}

func readSource(ctx context.Context, opts *Options) (string, []byte, error) {
	if opts.Image != nil {
		name := opts.ImageName
		if name == "" {
			name = "upload"
		} else if err := imager.CheckExtension(name); err != nil {
			return name, nil, err
		}

		opts.logInfo("Reading %s...", name)
		data, err := io.ReadAll(io.LimitReader(opts.Image, imager.MaxImageBytes+1))
		if err != nil {
			return name, nil, fmt.Errorf("read %s: %w", name, err)
		}
		if len(data) > imager.MaxImageBytes {
			return name, nil, fmt.Errorf("read %s: image exceeds %d bytes", name, imager.MaxImageBytes)
		}
		return name, data, nil
	}

	if opts.ImagePath == "" {
		return "", nil, errors.New("no image given")
	}

	if imager.IsRemote(opts.ImagePath) {
		opts.logInfo("Downloading %s...", opts.ImagePath)
	} else {
		opts.logInfo("Reading %s...", opts.ImagePath)
	}
	data, err := imager.Read(ctx, opts.ImagePath)
	if err != nil {
		return opts.ImagePath, nil, fmt.Errorf("load image: %w", err)
	}
	return opts.ImagePath, data, nil
}
