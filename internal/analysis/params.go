package analysis

import (
	"fmt"

	"github.com/ironsheep/centroid-tools-mcp/internal/detection"
	"github.com/ironsheep/centroid-tools-mcp/internal/imaging"
)

// ParameterError reports a rejected pipeline parameter. The Field name
// matches the JSON tag of the offending Params field so clients can point
// the operator at the right control.
type ParameterError struct {
	Field  string
	Reason string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s: %s", e.Field, e.Reason)
}

// Params is the full tunable parameter set of the pipeline.
//
// Operators adjust these interactively until the detected centroids look
// right; the pipeline itself never solves for them.
type Params struct {
	// PosterLevels is the posterization level count K. Must be >= 2.
	PosterLevels int `json:"poster_levels"`

	// MinArea is the minimum accepted component pixel area. Must be >= 0.
	MinArea int `json:"min_area"`

	// MaxArea is the maximum accepted component pixel area.
	// 0 means unbounded; otherwise must be >= MinArea.
	MaxArea int `json:"max_area"`

	// TrimPx is the neck-detection erosion depth in pixels. 0 disables
	// splitting. Must be >= 0.
	TrimPx int `json:"trim_px"`

	// Connectivity is the component adjacency rule: 4 or 8.
	// 0 selects the default of 8.
	Connectivity int `json:"connectivity"`

	// Method selects the posterization method. Empty selects uniform
	// equal-width binning.
	Method imaging.QuantizeMethod `json:"method"`

	// SmoothSigma is the Gaussian pre-smoothing sigma applied before
	// posterization. 0 disables smoothing. Must be >= 0.
	SmoothSigma float64 `json:"smooth_sigma"`
}

// Validate checks all fields and returns a *ParameterError for the first
// violation found. A nil return means the parameter set is usable as-is.
func (p Params) Validate() error {
	if p.PosterLevels < 2 {
		return &ParameterError{Field: "poster_levels", Reason: fmt.Sprintf("must be >= 2, got %d", p.PosterLevels)}
	}
	if p.MinArea < 0 {
		return &ParameterError{Field: "min_area", Reason: fmt.Sprintf("must be >= 0, got %d", p.MinArea)}
	}
	if p.MaxArea < 0 {
		return &ParameterError{Field: "max_area", Reason: fmt.Sprintf("must be >= 0, got %d", p.MaxArea)}
	}
	if p.MaxArea > 0 && p.MaxArea < p.MinArea {
		return &ParameterError{Field: "max_area", Reason: fmt.Sprintf("must be >= min_area (%d), got %d", p.MinArea, p.MaxArea)}
	}
	if p.TrimPx < 0 {
		return &ParameterError{Field: "trim_px", Reason: fmt.Sprintf("must be >= 0, got %d", p.TrimPx)}
	}
	if _, err := detection.ParseConnectivity(p.Connectivity); err != nil {
		return &ParameterError{Field: "connectivity", Reason: err.Error()}
	}
	if _, err := imaging.ParseQuantizeMethod(string(p.Method)); err != nil {
		return &ParameterError{Field: "method", Reason: err.Error()}
	}
	if p.SmoothSigma < 0 {
		return &ParameterError{Field: "smooth_sigma", Reason: fmt.Sprintf("must be >= 0, got %g", p.SmoothSigma)}
	}
	return nil
}

// connectivity returns the validated adjacency rule, defaulting to 8.
func (p Params) connectivity() detection.Connectivity {
	c, err := detection.ParseConnectivity(p.Connectivity)
	if err != nil {
		return detection.Connect8
	}
	return c
}

// method returns the validated quantize method, defaulting to uniform.
func (p Params) method() imaging.QuantizeMethod {
	m, err := imaging.ParseQuantizeMethod(string(p.Method))
	if err != nil {
		return imaging.QuantizeUniform
	}
	return m
}

// Key returns a stable string identifying this parameter set, suitable as
// a cache key: unchanged parameters never trigger a recompute.
func (p Params) Key() string {
	return fmt.Sprintf("k=%d;min=%d;max=%d;trim=%d;conn=%d;m=%s;sigma=%g",
		p.PosterLevels, p.MinArea, p.MaxArea, p.TrimPx, p.Connectivity, p.method(), p.SmoothSigma)
}
