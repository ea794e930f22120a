// Package designrule turns an image of a UI design into a starter "design rule"
// document: a ranked color palette, a type scale, spacing and border radius scales and
// boilerplate component CSS, wrapped in Markdown guidance.
//
// The CLI lives in cmd/design-rule; this root package exposes the same pipeline as a Go
// API so that callers can embed it in their own tools or servers.
//
// # Import
//
// The module path contains a hyphen but Go package names cannot, so the package is
// named designrule:
//
//	import "github.com/kataras/design-rule" // package designrule
//
// # Quick start
//
//	result, err := designrule.Run(ctx, designrule.Options{
//	    ImagePath: "mockups/home.png",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("DESIGN_RULE.md", []byte(result.Markdown), 0644)
//
// # Colors
//
// Colors are found by sampling every 10th pixel, skipping samples with alpha below 128
// and counting exact RGB matches. The six most frequent colors are kept, ties in the
// order they were first seen. An image that cannot be decoded yields a fixed fallback
// palette instead of an error; see [extractor.FallbackPalette].
//
// # Detectors
//
// Typography and component detection are placeholders returning fixed values
// ([detector.Static]). Set [Options.Typography] or [Options.Components] to plug in a
// real implementation.
//
// # Logging
//
// Pass a [Logger] implementation in [Options.Logger] to receive progress messages. A
// nil Logger silences all output.
package designrule
