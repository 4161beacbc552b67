package imaging

import (
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	"github.com/cenkalti/dominantcolor"
	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
)

// QuantizeMethod selects how Posterize reduces an image to discrete levels.
type QuantizeMethod string

const (
	// QuantizeUniform partitions the grayscale intensity range into K
	// equal-width bins. This is the default and is fully deterministic.
	QuantizeUniform QuantizeMethod = "uniform"

	// QuantizeDominant extracts a K-color palette from the image's most
	// frequent colors and assigns each pixel to the nearest palette color
	// in CIE Lab space. Deterministic.
	QuantizeDominant QuantizeMethod = "dominant"

	// QuantizeKMeans clusters subsampled pixel colors with k-means and
	// assigns each pixel to the nearest cluster center in CIE Lab space.
	// Cluster seeding is randomized, so exact palettes may vary between
	// runs; the palette is sorted darkest-to-brightest so level labels
	// remain position-stable.
	QuantizeKMeans QuantizeMethod = "kmeans"
)

// ParseQuantizeMethod converts a method name to a QuantizeMethod.
// An empty string selects QuantizeUniform.
func ParseQuantizeMethod(name string) (QuantizeMethod, error) {
	switch QuantizeMethod(name) {
	case "", QuantizeUniform:
		return QuantizeUniform, nil
	case QuantizeDominant:
		return QuantizeDominant, nil
	case QuantizeKMeans:
		return QuantizeKMeans, nil
	}
	return "", fmt.Errorf("unknown quantize method: %q", name)
}

// Posterized is an image quantized into a fixed number of discrete levels.
//
// Labels holds one level index per pixel in row-major order. Level indices
// run from 0 (darkest palette entry) to Levels-1 (brightest). The palette
// entry for a level is its representative display color, not ground truth:
// downstream stages operate on the labels only.
type Posterized struct {
	// Width and Height are the label grid dimensions in pixels.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Levels is the number of quantization levels (K).
	Levels int `json:"levels"`

	// Labels contains the level index of each pixel, row-major,
	// len = Width*Height.
	Labels []int `json:"-"`

	// Palette holds the representative color of each level,
	// sorted darkest to brightest. len = Levels.
	Palette []RGBColor `json:"palette"`

	// Counts holds the number of pixels assigned to each level.
	// len = Levels. Levels with zero pixels are legal (a palette color
	// may win no pixels).
	Counts []int `json:"counts"`
}

// Mask returns the binary mask of one level: true where the pixel's label
// equals level. The slice is freshly allocated, row-major, len Width*Height.
func (p *Posterized) Mask(level int) []bool {
	mask := make([]bool, len(p.Labels))
	for i, lab := range p.Labels {
		if lab == level {
			mask[i] = true
		}
	}
	return mask
}

// PreSmooth applies Gaussian smoothing before posterization to suppress
// speckle noise in micrographs. A sigma of 0 (or below) returns the input
// unchanged, so callers can pass the parameter through unconditionally.
func PreSmooth(img image.Image, sigma float64) image.Image {
	if sigma <= 0 {
		return img
	}
	return blur.Gaussian(img, sigma)
}

// Posterize quantizes an image into levels discrete labels.
//
// Parameters:
//   - img: Source image. Not modified.
//   - levels: Number of quantization levels, must be >= 2.
//   - method: Quantization method. See QuantizeMethod constants.
//
// Returns:
//   - *Posterized: Per-pixel level labels plus palette and level counts.
//   - error: Non-nil if levels < 2 or the method is unknown.
//
// Identical input and parameters always yield identical output for
// QuantizeUniform and QuantizeDominant. QuantizeKMeans may produce slightly
// different palettes between runs due to randomized seeding.
func Posterize(img image.Image, levels int, method QuantizeMethod) (*Posterized, error) {
	if levels < 2 {
		return nil, fmt.Errorf("posterize levels must be >= 2, got %d", levels)
	}

	switch method {
	case "", QuantizeUniform:
		return posterizeUniform(img, levels), nil
	case QuantizeDominant, QuantizeKMeans:
		return posterizePalette(img, levels, method)
	default:
		return nil, fmt.Errorf("unknown quantize method: %q", method)
	}
}

// posterizeUniform maps each pixel's grayscale intensity into one of K
// equal-width bins. Bin i covers intensities [i*256/K, (i+1)*256/K).
func posterizeUniform(img image.Image, levels int) *Posterized {
	gray := effect.Grayscale(img)
	bounds := gray.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	p := &Posterized{
		Width:   w,
		Height:  h,
		Levels:  levels,
		Labels:  make([]int, w*h),
		Palette: make([]RGBColor, levels),
		Counts:  make([]int, levels),
	}

	for i := 0; i < levels; i++ {
		// Representative color: midpoint intensity of the bin.
		mid := uint8((2*i + 1) * 256 / (2 * levels))
		p.Palette[i] = RGBColor{R: mid, G: mid, B: mid}
	}

	idx := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			v := int(gray.RGBAAt(x, y).R)
			lab := v * levels / 256
			p.Labels[idx] = lab
			p.Counts[lab]++
			idx++
		}
	}
	return p
}

// posterizePalette extracts a K-color palette and assigns every pixel to
// its nearest palette color in CIE Lab space.
func posterizePalette(img image.Image, levels int, method QuantizeMethod) (*Posterized, error) {
	palette := extractPalette(img, levels, method)
	if len(palette) == 0 {
		return nil, fmt.Errorf("palette extraction produced no colors")
	}
	// Fewer distinct colors than requested levels is legal: the image may
	// simply not have K separable colors. Unfilled levels keep zero counts.
	for len(palette) < levels {
		palette = append(palette, palette[len(palette)-1])
	}
	sortPaletteByBrightness(palette)

	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	p := &Posterized{
		Width:   w,
		Height:  h,
		Levels:  levels,
		Labels:  make([]int, w*h),
		Palette: make([]RGBColor, levels),
		Counts:  make([]int, levels),
	}
	for i, c := range palette {
		p.Palette[i] = RGBColor{
			R: uint8(clamp01(c.R) * 255),
			G: uint8(clamp01(c.G) * 255),
			B: uint8(clamp01(c.B) * 255),
		}
	}

	// Micrographs contain few distinct colors, so nearest-palette results
	// are memoized per exact 8-bit RGB value.
	assigned := make(map[uint32]int)
	idx := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			r8 := uint32(r >> 8)
			g8 := uint32(g >> 8)
			b8 := uint32(b >> 8)
			key := r8<<16 | g8<<8 | b8

			lab, ok := assigned[key]
			if !ok {
				c := colorful.Color{
					R: float64(r8) / 255.0,
					G: float64(g8) / 255.0,
					B: float64(b8) / 255.0,
				}
				lab = nearestPaletteIndex(c, palette)
				assigned[key] = lab
			}
			p.Labels[idx] = lab
			p.Counts[lab]++
			idx++
		}
	}
	return p, nil
}

// nearestPaletteIndex returns the palette index with minimum CIE Lab
// distance to c. Ties resolve to the lowest index for determinism.
func nearestPaletteIndex(c colorful.Color, palette []colorful.Color) int {
	best := 0
	bestDist := math.MaxFloat64
	for i, pc := range palette {
		d := c.DistanceLab(pc)
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

// extractPalette builds a K-color palette from the image. The k-means
// method falls back to dominant-color extraction when clustering fails.
func extractPalette(img image.Image, k int, method QuantizeMethod) []colorful.Color {
	if method == QuantizeKMeans {
		if p := kmeansPalette(img, k); len(p) > 0 {
			return p
		}
	}
	return dominantPalette(img, k)
}

// dominantPalette selects K diverse colors from the image's dominant-color
// candidates. Candidates are greedily picked by maximum minimum Lab
// distance to already-selected colors, seeded with the heaviest candidate,
// which keeps the palette anchored to the image's actual tones.
func dominantPalette(img image.Image, k int) []colorful.Color {
	candidates := dominantcolor.FindWeight(img, max(24, k*8))
	if len(candidates) == 0 {
		return nil
	}

	cols := make([]colorful.Color, 0, len(candidates))
	for _, cand := range candidates {
		c, _ := colorful.MakeColor(cand.RGBA)
		cols = append(cols, c.Clamped())
	}
	if k > len(cols) {
		k = len(cols)
	}

	selected := make([]colorful.Color, 0, k)
	used := make([]bool, len(cols))
	// FindWeight returns candidates heaviest-first.
	selected = append(selected, cols[0])
	used[0] = true

	for len(selected) < k {
		bestIdx := -1
		bestDist := -1.0
		for i, c := range cols {
			if used[i] {
				continue
			}
			minD := math.MaxFloat64
			for _, s := range selected {
				if d := c.DistanceLab(s); d < minD {
					minD = d
				}
			}
			if minD > bestDist {
				bestDist = minD
				bestIdx = i
			}
		}
		if bestIdx < 0 {
			break
		}
		used[bestIdx] = true
		selected = append(selected, cols[bestIdx])
	}
	return selected
}

// kmeansPalette clusters subsampled pixel colors and returns the cluster
// centers as a palette. Returns nil when clustering fails or the image is
// empty, letting the caller fall back to dominant-color extraction.
func kmeansPalette(img image.Image, k int) []colorful.Color {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if width == 0 || height == 0 || k <= 0 {
		return nil
	}

	// Subsample to keep kmeans tractable on large images.
	const maxSamples = 12000
	step := 1
	if width*height > maxSamples {
		step = int(math.Sqrt(float64(width*height)/float64(maxSamples))) + 1
	}

	dataset := make(clusters.Observations, 0, min(width*height, maxSamples))
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			r16, g16, b16, a16 := img.At(x, y).RGBA()
			if a16 == 0 {
				continue
			}
			dataset = append(dataset, clusters.Coordinates{
				float64(r16) / 65535.0,
				float64(g16) / 65535.0,
				float64(b16) / 65535.0,
			})
		}
	}
	if len(dataset) < k {
		return nil
	}

	km := kmeans.New()
	cc, err := km.Partition(dataset, k)
	if err != nil || len(cc) == 0 {
		return nil
	}

	palette := make([]colorful.Color, 0, len(cc))
	for _, c := range cc {
		center := c.Center
		if len(center) < 3 {
			continue
		}
		palette = append(palette, colorful.Color{
			R: center[0],
			G: center[1],
			B: center[2],
		}.Clamped())
	}
	return palette
}

// sortPaletteByBrightness orders colors darkest to brightest so level 0 is
// always the darkest tone regardless of extraction order.
func sortPaletteByBrightness(palette []colorful.Color) {
	sort.SliceStable(palette, func(i, j int) bool {
		return linearLuminance(palette[i]) < linearLuminance(palette[j])
	})
}

func linearLuminance(c colorful.Color) float64 {
	r, g, b := c.LinearRgb()
	return 0.2126*r + 0.7152*g + 0.0722*b
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
