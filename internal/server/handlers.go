package server

import (
	"encoding/json"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/ironsheep/centroid-tools-mcp/internal/analysis"
	"github.com/ironsheep/centroid-tools-mcp/internal/imaging"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "centroid_analyze").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Loads images from cache as needed
//  4. Calls the appropriate imaging/analysis function
//  5. Returns the result or error
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Basic Image Information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)
	case "image_sample_color":
		return s.handleImageSampleColor(args)

	// Pipeline Tuning
	case "posterize_preview":
		return s.handlePosterizePreview(args)
	case "centroid_analyze":
		return s.handleCentroidAnalyze(args)
	case "centroid_overlay":
		return s.handleCentroidOverlay(args)
	case "centroid_export_csv":
		return s.handleCentroidExportCSV(args)
	case "area_histogram":
		return s.handleAreaHistogram(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Basic Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	// Explicit load means the file may have changed on disk: drop the
	// decoded image and every analysis derived from it.
	s.cache.Evict(a.Path)
	s.evictResults(a.Path)
	return imaging.LoadImageInfo(s.cache, a.Path)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

type imageSampleColorArgs struct {
	Path string `json:"path"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

func (s *Server) handleImageSampleColor(args json.RawMessage) (interface{}, error) {
	var a imageSampleColorArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.SampleColor(img, a.X, a.Y)
}

// === Pipeline Handlers ===

// pipelineArgs is the shared argument set for every tool that runs the
// centroid pipeline. The analysis parameters are embedded so their JSON
// names match the Params type exactly.
type pipelineArgs struct {
	Path string `json:"path"`
	analysis.Params
	ProcWidth      int  `json:"proc_width"`
	FullResolution bool `json:"full_resolution"`
}

func (a *pipelineArgs) applyDefaults() {
	if a.PosterLevels == 0 {
		a.PosterLevels = 4
	}
	if a.ProcWidth == 0 {
		a.ProcWidth = 640
	}
}

// resultKey identifies one pipeline run for caching. The key covers
// everything that influences the output: image path, working width, and the
// full parameter set.
func (a *pipelineArgs) resultKey() string {
	w := a.ProcWidth
	if a.FullResolution {
		w = -1
	}
	return fmt.Sprintf("%s|w=%d|%s", a.Path, w, a.Params.Key())
}

// evictResults drops all cached analyses for a path.
func (s *Server) evictResults(path string) {
	s.mu.Lock()
	for key := range s.results {
		if strings.HasPrefix(key, path+"|") {
			delete(s.results, key)
		}
	}
	s.mu.Unlock()
}

// runPipeline loads the image, reduces it to working resolution, and runs
// the analysis — or returns the cached run for identical inputs. The
// returned result is in working-resolution coordinates; workImg is the image
// the analysis actually saw, for overlay rendering.
//
// TrimPx arrives in full-resolution pixels and is converted to the working
// resolution before analysis, so the same erosion depth means the same
// physical distance regardless of proc_width.
func (s *Server) runPipeline(a *pipelineArgs) (work *analysis.Result, workImg image.Image, scale float64, err error) {
	if err := a.Params.Validate(); err != nil {
		return nil, nil, 0, err
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, nil, 0, err
	}

	procWidth := a.ProcWidth
	if a.FullResolution {
		procWidth = 0
	}
	workImg, scale = imaging.DownscaleForProcessing(img, procWidth)

	key := a.resultKey()
	s.mu.Lock()
	cached, ok := s.results[key]
	s.mu.Unlock()
	if ok {
		return cached.work, workImg, cached.scale, nil
	}

	workParams := a.Params
	if workParams.TrimPx > 0 && scale > 1.0 {
		trimmed := int(math.Round(float64(workParams.TrimPx) / scale))
		if trimmed < 1 {
			trimmed = 1
		}
		workParams.TrimPx = trimmed
	}

	work, err = analysis.Analyze(workImg, workParams)
	if err != nil {
		return nil, nil, 0, err
	}

	s.mu.Lock()
	s.results[key] = cachedAnalysis{work: work, scale: scale}
	s.mu.Unlock()
	return work, workImg, scale, nil
}

type posterizePreviewArgs struct {
	pipelineArgs
	Scale float64 `json:"scale"`
}

type posterizeLevelInfo struct {
	Level      int    `json:"level"`
	Color      string `json:"color"`
	PixelCount int    `json:"pixel_count"`
}

type posterizePreviewResult struct {
	Render *imaging.RenderResult `json:"render"`
	Levels []posterizeLevelInfo  `json:"levels"`
}

func (s *Server) handlePosterizePreview(args json.RawMessage) (interface{}, error) {
	var a posterizePreviewArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	a.applyDefaults()
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	if err := a.Params.Validate(); err != nil {
		return nil, err
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	procWidth := a.ProcWidth
	if a.FullResolution {
		procWidth = 0
	}
	workImg, _ := imaging.DownscaleForProcessing(img, procWidth)

	smoothed := imaging.PreSmooth(workImg, a.SmoothSigma)
	poster, err := imaging.Posterize(smoothed, a.PosterLevels, a.Params.Method)
	if err != nil {
		return nil, err
	}

	render, err := imaging.RenderPosterized(poster, a.Scale)
	if err != nil {
		return nil, err
	}

	levels := make([]posterizeLevelInfo, poster.Levels)
	for i := 0; i < poster.Levels; i++ {
		levels[i] = posterizeLevelInfo{
			Level:      i,
			Color:      poster.Palette[i].Hex(),
			PixelCount: poster.Counts[i],
		}
	}
	return &posterizePreviewResult{Render: render, Levels: levels}, nil
}

type analyzeResponse struct {
	*analysis.Result

	// Scale maps working-resolution values back to full resolution; the
	// coordinates in the response are already scaled.
	Scale float64 `json:"scale"`
}

func (s *Server) handleCentroidAnalyze(args json.RawMessage) (interface{}, error) {
	var a pipelineArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	a.applyDefaults()

	work, _, scale, err := s.runPipeline(&a)
	if err != nil {
		return nil, err
	}
	return &analyzeResponse{Result: analysis.ScaleToFull(work, scale), Scale: scale}, nil
}

type centroidOverlayArgs struct {
	pipelineArgs
	ReferencePoints []analysis.ReferencePoint `json:"reference_points"`
	Scale           float64                   `json:"scale"`
}

func (s *Server) handleCentroidOverlay(args json.RawMessage) (interface{}, error) {
	var a centroidOverlayArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	a.applyDefaults()
	if a.Scale == 0 {
		a.Scale = 1.0
	}

	work, workImg, scale, err := s.runPipeline(&a.pipelineArgs)
	if err != nil {
		return nil, err
	}

	contours := make([][]image.Point, len(work.Contours))
	for i, ct := range work.Contours {
		pts := make([]image.Point, len(ct.Points))
		for j, p := range ct.Points {
			pts[j] = image.Point{X: p.X, Y: p.Y}
		}
		contours[i] = pts
	}

	centroids := make([]image.Point, len(work.Centroids))
	for i, c := range work.Centroids {
		centroids[i] = image.Point{
			X: int(math.Round(c.X)),
			Y: int(math.Round(c.Y)),
		}
	}

	// Reference points arrive in full-resolution coordinates and must be
	// mapped down to the working image they are drawn on.
	refPoints := make([]image.Point, len(a.ReferencePoints))
	for i, p := range a.ReferencePoints {
		refPoints[i] = image.Point{
			X: int(math.Round(p.X / scale)),
			Y: int(math.Round(p.Y / scale)),
		}
	}

	return imaging.RenderOverlay(workImg, contours, centroids, refPoints, a.Scale)
}

type centroidExportArgs struct {
	pipelineArgs
	OutPath         string                    `json:"out_path"`
	ReferencePoints []analysis.ReferencePoint `json:"reference_points"`
}

type centroidExportResult struct {
	Count               int    `json:"count"`
	CSV                 string `json:"csv"`
	Path                string `json:"path,omitempty"`
	ReferencePointsCSV  string `json:"reference_points_csv,omitempty"`
	ReferencePointsPath string `json:"reference_points_path,omitempty"`
}

func (s *Server) handleCentroidExportCSV(args json.RawMessage) (interface{}, error) {
	var a centroidExportArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	a.applyDefaults()

	work, _, scale, err := s.runPipeline(&a.pipelineArgs)
	if err != nil {
		return nil, err
	}
	full := analysis.ScaleToFull(work, scale)

	csvText, err := analysis.CentroidsCSV(full.Centroids)
	if err != nil {
		return nil, err
	}

	result := &centroidExportResult{
		Count: len(full.Centroids),
		CSV:   csvText,
	}
	if a.OutPath != "" {
		if err := os.WriteFile(a.OutPath, []byte(csvText), 0o644); err != nil {
			return nil, fmt.Errorf("write csv file: %w", err)
		}
		result.Path = a.OutPath
	}

	if len(a.ReferencePoints) > 0 {
		var b strings.Builder
		if err := analysis.WriteReferencePointsCSV(&b, a.ReferencePoints); err != nil {
			return nil, err
		}
		result.ReferencePointsCSV = b.String()
		if a.OutPath != "" {
			ext := filepath.Ext(a.OutPath)
			refPath := strings.TrimSuffix(a.OutPath, ext) + "_refs" + ext
			if err := os.WriteFile(refPath, []byte(result.ReferencePointsCSV), 0o644); err != nil {
				return nil, fmt.Errorf("write reference points csv file: %w", err)
			}
			result.ReferencePointsPath = refPath
		}
	}
	return result, nil
}

type areaHistogramResult struct {
	Levels     []analysis.LevelSummary   `json:"levels"`
	Histograms []analysis.LevelHistogram `json:"histograms"`
}

func (s *Server) handleAreaHistogram(args json.RawMessage) (interface{}, error) {
	var a pipelineArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	a.applyDefaults()

	// Histogram areas are reported in working-resolution pixels: the same
	// units the operator will set min_area and max_area in.
	work, _, _, err := s.runPipeline(&a)
	if err != nil {
		return nil, err
	}
	return &areaHistogramResult{Levels: work.Levels, Histograms: work.Histograms}, nil
}
