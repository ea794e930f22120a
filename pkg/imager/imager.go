package imager

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	_ "golang.org/x/image/webp" // register WebP decoder
)

// ErrUnsupportedFormat is returned when an image source does not carry one of the
// accepted file extensions.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// AcceptedExtensions lists the file extensions a design image may have.
var AcceptedExtensions = []string{".png", ".jpg", ".jpeg", ".webp"}

// ErrImageTooLarge is returned when an image header declares more than MaxImagePixels
// pixels.
var ErrImageTooLarge = errors.New("image dimensions too large")

// MaxImageBytes caps how much of a single image source is read.
const MaxImageBytes = 32 << 20

// MaxImagePixels caps width*height of a decoded raster. The header is checked before
// any pixel buffer is allocated.
const MaxImagePixels = 32 << 20

const maxRetries = 3

// retryDelay is multiplied by the attempt number between download retries.
var retryDelay = 2 * time.Second

var httpClient = &http.Client{
	Timeout: 2 * time.Minute,
	Transport: &http.Transport{
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		MaxIdleConnsPerHost: 10,
	},
}

// IsRemote reports whether source is an http(s) URL.
func IsRemote(source string) bool {
	u, err := url.Parse(source)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Extension returns the lower-case extension (with the leading dot) of a file name or URL
// path. Query strings and fragments of URLs are ignored.
func Extension(source string) string {
	if IsRemote(source) {
		u, _ := url.Parse(source)
		return strings.ToLower(path.Ext(u.Path))
	}
	return strings.ToLower(filepath.Ext(source))
}

// CheckExtension returns ErrUnsupportedFormat unless name ends with one of
// AcceptedExtensions. URLs without an extension are allowed since the decoder sniffs the
// content anyway.
func CheckExtension(name string) error {
	ext := Extension(name)
	if ext == "" && IsRemote(name) {
		return nil
	}
	for _, accepted := range AcceptedExtensions {
		if ext == accepted {
			return nil
		}
	}
	return fmt.Errorf("%w: %q (must be one of %s)", ErrUnsupportedFormat, name, strings.Join(AcceptedExtensions, ", "))
}

// Read loads the raw bytes of an image from a local path or an http(s) URL.
func Read(ctx context.Context, source string) ([]byte, error) {
	if err := CheckExtension(source); err != nil {
		return nil, err
	}

	if IsRemote(source) {
		return download(ctx, source)
	}

	f, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("failed to open image %q: %w", source, err)
	}
	defer f.Close()

	return readLimited(f)
}

// Decode decodes an image from r, returning the image and the detected format name.
func Decode(r io.Reader) (image.Image, string, error) {
	data, err := readLimited(r)
	if err != nil {
		return nil, "", err
	}
	return DecodeBytes(data)
}

// DecodeBytes decodes an in-memory image. The header is read first and rasters larger
// than MaxImagePixels are rejected with ErrImageTooLarge. A panicking decoder is
// reported as an error.
func DecodeBytes(data []byte) (img image.Image, format string, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxImagePixels {
		return nil, "", fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrImageTooLarge, cfg.Width, cfg.Height, MaxImagePixels)
	}

	defer func() {
		if r := recover(); r != nil {
			img, format, err = nil, "", fmt.Errorf("failed to decode image: %v", r)
		}
	}()

	img, format, err = image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return img, format, nil
}

// download performs an HTTP GET with retries on transport errors, 429 and 5xx responses.
func download(ctx context.Context, rawURL string) ([]byte, error) {
	var lastErr error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		data, retry, err := fetch(ctx, rawURL)
		if err == nil {
			return data, nil
		}

		lastErr = fmt.Errorf("attempt %d: %w", attempt, err)
		if !retry || attempt == maxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * retryDelay):
		}
	}

	return nil, lastErr
}

func fetch(ctx context.Context, rawURL string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, fmt.Errorf("HTTP GET failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		retry := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, retry, fmt.Errorf("unexpected status %d downloading image", resp.StatusCode)
	}

	data, err := readLimited(resp.Body)
	if err != nil {
		return nil, true, err
	}
	return data, false, nil
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) > MaxImageBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", MaxImageBytes)
	}
	return data, nil
}
