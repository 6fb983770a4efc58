// Package imageservice validates, decodes, resizes, and re-encodes images
// fetched for article headers and body content (spec.md §4.5). It wraps
// golang.org/x/image/webp for WebP decode, github.com/HugoSmits86/nativewebp
// for WebP encode, and github.com/disintegration/imaging for Lanczos
// resize, the same stack an image-heavy component in the pack (see
// DESIGN.md) pulls in.
package imageservice

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"

	"github.com/HugoSmits86/nativewebp"
	"github.com/disintegration/imaging"
	"golang.org/x/image/webp"
)

// HeaderBudget is the default max dimensions a header image is resized to
// (spec.md §4.5); body images are never resized.
const HeaderBudget = 1200

// MinProcessableBytes is the minimum input size worth decoding at all;
// below it the bytes are assumed to already be a tiny icon.
const MinProcessableBytes = 100

// SkipCompressionBelowBytes: inputs smaller than this pass through
// unmodified except for the data-URI wrap (spec.md §4.5).
const SkipCompressionBelowBytes = 5 * 1024

// acceptedMIMETypes is the validation allow-list (spec.md §4.5).
var acceptedMIMETypes = map[string]bool{
	"image/jpeg": true, "image/jpg": true, "image/png": true,
	"image/gif": true, "image/webp": true, "image/svg+xml": true,
	"image/x-icon": true, "image/vnd.microsoft.icon": true,
	"image/bmp": true, "image/tiff": true,
}

// Result is the processed image returned to callers; a nil *Result means
// "no header" and callers must treat that as non-fatal.
type Result struct {
	Bytes       []byte
	ContentType string
	Width       int
	Height      int
	DataURI     string
}

// Process validates, optionally resizes, and re-encodes raw image bytes.
// isHeader controls whether HeaderBudget resizing applies. A validation or
// decode failure returns a non-nil error; callers treating a nil *Result as
// absent should check for err == nil and result == nil, which never
// happens here — Process either returns a populated *Result or an error.
func Process(data []byte, contentType string, isHeader bool) (*Result, error) {
	if len(data) < MinProcessableBytes {
		return nil, fmt.Errorf("imageservice: body too small (%d bytes)", len(data))
	}
	if !acceptedMIMETypes[contentType] {
		return nil, fmt.Errorf("imageservice: unsupported content-type %q", contentType)
	}

	if contentType == "image/svg+xml" {
		return svgResult(data), nil
	}

	if len(data) < SkipCompressionBelowBytes {
		return passthroughResult(data, contentType)
	}

	img, hasAlpha, err := decode(data, contentType)
	if err != nil {
		return nil, fmt.Errorf("imageservice: decode: %w", err)
	}

	if isHeader {
		img = resizeWithinBudget(img, HeaderBudget, HeaderBudget)
	}

	return encode(img, hasAlpha)
}

func passthroughResult(data []byte, contentType string) (*Result, error) {
	img, _, err := decode(data, contentType)
	if err != nil {
		return nil, fmt.Errorf("imageservice: decode (passthrough): %w", err)
	}
	bounds := img.Bounds()
	return &Result{
		Bytes:       data,
		ContentType: contentType,
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		DataURI:     dataURI(contentType, data),
	}, nil
}

func svgResult(data []byte) *Result {
	return &Result{
		Bytes:       data,
		ContentType: "image/svg+xml",
		DataURI:     dataURI("image/svg+xml", data),
	}
}

func decode(data []byte, contentType string) (image.Image, bool, error) {
	reader := bytes.NewReader(data)
	var img image.Image
	var err error

	switch contentType {
	case "image/webp":
		img, err = webp.Decode(reader)
	case "image/png":
		img, err = png.Decode(reader)
	case "image/gif":
		img, err = gif.Decode(reader)
	case "image/jpeg", "image/jpg":
		img, err = jpeg.Decode(reader)
	default:
		img, _, err = image.Decode(reader)
	}
	if err != nil {
		return nil, false, err
	}
	return img, hasTransparency(img), nil
}

func hasTransparency(img image.Image) bool {
	switch v := img.(type) {
	case *image.NRGBA:
		return nrgbaHasAlpha(v)
	case *image.RGBA:
		return rgbaHasAlpha(v)
	}
	bounds := img.Bounds()
	// Sampling the four corners and center is cheap and catches the common
	// case (a PNG/GIF with a transparent background) without a full scan.
	points := []image.Point{
		bounds.Min,
		{X: bounds.Max.X - 1, Y: bounds.Min.Y},
		{X: bounds.Min.X, Y: bounds.Max.Y - 1},
		{X: bounds.Max.X - 1, Y: bounds.Max.Y - 1},
		{X: (bounds.Min.X + bounds.Max.X) / 2, Y: (bounds.Min.Y + bounds.Max.Y) / 2},
	}
	for _, p := range points {
		_, _, _, a := img.At(p.X, p.Y).RGBA()
		if a < 0xffff {
			return true
		}
	}
	return false
}

func nrgbaHasAlpha(img *image.NRGBA) bool {
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 0xff {
			return true
		}
	}
	return false
}

func rgbaHasAlpha(img *image.RGBA) bool {
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 0xff {
			return true
		}
	}
	return false
}

// resizeWithinBudget downscales img to fit maxW x maxH, preserving aspect
// ratio via Lanczos resampling, and never upscales (spec.md §4.5).
func resizeWithinBudget(img image.Image, maxW, maxH int) image.Image {
	bounds := img.Bounds()
	if bounds.Dx() <= maxW && bounds.Dy() <= maxH {
		return img
	}
	return imaging.Fit(img, maxW, maxH, imaging.Lanczos)
}

// encode re-encodes img, preferring WebP, flattening onto white when the
// image has no transparency to preserve and the target format needs it.
func encode(img image.Image, hasAlpha bool) (*Result, error) {
	bounds := img.Bounds()
	var buf bytes.Buffer
	var contentType string

	if hasAlpha {
		if err := nativewebp.Encode(&buf, img, nil); err != nil {
			return nil, fmt.Errorf("imageservice: webp encode: %w", err)
		}
		contentType = "image/webp"
	} else {
		flattened := flattenOnWhite(img)
		if err := jpeg.Encode(&buf, flattened, &jpeg.Options{Quality: 65}); err != nil {
			return nil, fmt.Errorf("imageservice: jpeg encode: %w", err)
		}
		contentType = "image/jpeg"
	}

	out := buf.Bytes()
	return &Result{
		Bytes:       out,
		ContentType: contentType,
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		DataURI:     dataURI(contentType, out),
	}, nil
}

// flattenOnWhite composites img over an opaque white background, since
// JPEG has no alpha channel.
func flattenOnWhite(img image.Image) image.Image {
	bounds := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Over)
	return dst
}

func dataURI(contentType string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data))
}
