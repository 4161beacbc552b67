package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/disintegration/imaging"
)

// RenderResult contains a rendered image ready for transport to the client.
type RenderResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Overlay marker colors. Contours in green, detected centroids in red,
// operator reference points in blue, matching the conventional display.
var (
	contourColor  = color.NRGBA{R: 0, G: 220, B: 60, A: 255}
	centroidColor = color.NRGBA{R: 255, G: 40, B: 40, A: 255}
	refPointColor = color.NRGBA{R: 60, G: 120, B: 255, A: 255}
)

// crossArm is the half-length in pixels of centroid/reference cross marks.
const crossArm = 4

// RenderPosterized renders a posterized label grid as a palette-colored
// image, for previewing the effect of the level count before running the
// full pipeline.
//
// Parameters:
//   - p: Posterized labels and palette.
//   - scale: Optional scale factor (e.g., 0.5 to halve size). Values <= 0
//     or equal to 1.0 leave the size unchanged.
func RenderPosterized(p *Posterized, scale float64) (*RenderResult, error) {
	img := image.NewRGBA(image.Rect(0, 0, p.Width, p.Height))
	idx := 0
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			c := p.Palette[p.Labels[idx]]
			img.SetRGBA(x, y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 255})
			idx++
		}
	}
	return encodePNGBase64(scaled(img, scale))
}

// RenderOverlay draws detection results over a copy of the source image:
// boundary contours as outlines, centroids as crosses, and operator
// reference points as crosses in a distinct color. The source image is not
// modified.
//
// Points outside the image bounds are silently skipped so overlays built at
// one working resolution degrade gracefully against another.
func RenderOverlay(img image.Image, contours [][]image.Point, centroids, refPoints []image.Point, scale float64) (*RenderResult, error) {
	canvas := imaging.Clone(img)
	bounds := canvas.Bounds()

	for _, contour := range contours {
		for _, pt := range contour {
			setIfInside(canvas, bounds, pt.X, pt.Y, contourColor)
		}
	}
	for _, pt := range centroids {
		drawCross(canvas, bounds, pt, centroidColor)
	}
	for _, pt := range refPoints {
		drawCross(canvas, bounds, pt, refPointColor)
	}

	return encodePNGBase64(scaled(canvas, scale))
}

// drawCross draws a small plus-shaped marker centered on pt.
func drawCross(canvas *image.NRGBA, bounds image.Rectangle, pt image.Point, c color.NRGBA) {
	for d := -crossArm; d <= crossArm; d++ {
		setIfInside(canvas, bounds, pt.X+d, pt.Y, c)
		setIfInside(canvas, bounds, pt.X, pt.Y+d, c)
	}
}

func setIfInside(canvas *image.NRGBA, bounds image.Rectangle, x, y int, c color.NRGBA) {
	if x < bounds.Min.X || x >= bounds.Max.X || y < bounds.Min.Y || y >= bounds.Max.Y {
		return
	}
	canvas.SetNRGBA(x, y, c)
}

// scaled resizes img by the given factor using Lanczos resampling.
func scaled(img image.Image, scale float64) image.Image {
	if scale <= 0 || scale == 1.0 {
		return img
	}
	newWidth := int(float64(img.Bounds().Dx()) * scale)
	newHeight := int(float64(img.Bounds().Dy()) * scale)
	return imaging.Resize(img, newWidth, newHeight, imaging.Lanczos)
}

// encodePNGBase64 packages an image as base64 PNG for MCP transport.
func encodePNGBase64(img image.Image) (*RenderResult, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return &RenderResult{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}
