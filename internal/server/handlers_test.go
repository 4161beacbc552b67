package server

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ironsheep/centroid-tools-mcp/internal/imaging"
)

// createParticleImage writes a white PNG with black rectangles and returns
// its path. The file lives in the test's temp directory.
func createParticleImage(t *testing.T, width, height int, rects ...image.Rectangle) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{255, 255, 255, 255})
		}
	}
	for _, r := range rects {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				img.Set(x, y, color.RGBA{0, 0, 0, 255})
			}
		}
	}

	path := filepath.Join(t.TempDir(), "particles.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create temp image: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

func TestHandleImageLoad(t *testing.T) {
	s := New()
	path := createParticleImage(t, 80, 60)

	result, err := s.executeTool("image_load", json.RawMessage(fmt.Sprintf(`{"path":%q}`, path)))
	if err != nil {
		t.Fatalf("image_load failed: %v", err)
	}

	info, ok := result.(*imaging.ImageInfo)
	if !ok {
		t.Fatalf("result type: got %T, want *imaging.ImageInfo", result)
	}
	if info.Width != 80 || info.Height != 60 {
		t.Errorf("dimensions: got %dx%d, want 80x60", info.Width, info.Height)
	}
}

func TestHandleImageDimensions(t *testing.T) {
	s := New()
	path := createParticleImage(t, 40, 30)

	result, err := s.executeTool("image_dimensions", json.RawMessage(fmt.Sprintf(`{"path":%q}`, path)))
	if err != nil {
		t.Fatalf("image_dimensions failed: %v", err)
	}

	dims, ok := result.(*imaging.DimensionsResult)
	if !ok {
		t.Fatalf("result type: got %T, want *imaging.DimensionsResult", result)
	}
	if dims.Width != 40 || dims.Height != 30 {
		t.Errorf("dimensions: got %dx%d, want 40x30", dims.Width, dims.Height)
	}
}

func TestHandleImageSampleColor(t *testing.T) {
	s := New()
	path := createParticleImage(t, 32, 32, image.Rect(10, 10, 20, 20))

	result, err := s.executeTool("image_sample_color",
		json.RawMessage(fmt.Sprintf(`{"path":%q,"x":15,"y":15}`, path)))
	if err != nil {
		t.Fatalf("image_sample_color failed: %v", err)
	}

	c, ok := result.(*imaging.ColorResult)
	if !ok {
		t.Fatalf("result type: got %T, want *imaging.ColorResult", result)
	}
	if c.Hex != "#000000" {
		t.Errorf("sampled color: got %s, want #000000", c.Hex)
	}
}

func TestHandleCentroidAnalyze(t *testing.T) {
	s := New()
	path := createParticleImage(t, 64, 64, image.Rect(20, 20, 30, 30))

	args := json.RawMessage(fmt.Sprintf(`{"path":%q,"poster_levels":2,"min_area":50,"max_area":500}`, path))
	result, err := s.executeTool("centroid_analyze", args)
	if err != nil {
		t.Fatalf("centroid_analyze failed: %v", err)
	}

	resp, ok := result.(*analyzeResponse)
	if !ok {
		t.Fatalf("result type: got %T, want *analyzeResponse", result)
	}
	// Image is narrower than the default proc width, so no downscaling.
	if resp.Scale != 1.0 {
		t.Errorf("scale: got %v, want 1.0", resp.Scale)
	}
	if len(resp.Centroids) != 1 {
		t.Fatalf("got %d centroids, want 1", len(resp.Centroids))
	}
	c := resp.Centroids[0]
	if c.Area != 100 {
		t.Errorf("area: got %d, want 100", c.Area)
	}
	if c.X != 24.5 || c.Y != 24.5 {
		t.Errorf("centroid: got (%v,%v), want (24.5,24.5)", c.X, c.Y)
	}
}

func TestHandleCentroidAnalyze_InvalidParams(t *testing.T) {
	s := New()
	path := createParticleImage(t, 32, 32)

	args := json.RawMessage(fmt.Sprintf(`{"path":%q,"poster_levels":2,"min_area":-4}`, path))
	if _, err := s.executeTool("centroid_analyze", args); err == nil {
		t.Fatal("negative min_area should fail")
	} else if !strings.Contains(err.Error(), "min_area") {
		t.Errorf("error should name the field, got: %v", err)
	}
}

func TestHandleCentroidAnalyze_ResultCache(t *testing.T) {
	s := New()
	path := createParticleImage(t, 64, 64, image.Rect(20, 20, 30, 30))
	args := json.RawMessage(fmt.Sprintf(`{"path":%q,"poster_levels":2}`, path))

	if _, err := s.executeTool("centroid_analyze", args); err != nil {
		t.Fatalf("first centroid_analyze failed: %v", err)
	}
	if _, err := s.executeTool("centroid_analyze", args); err != nil {
		t.Fatalf("second centroid_analyze failed: %v", err)
	}

	s.mu.Lock()
	entries := len(s.results)
	s.mu.Unlock()
	if entries != 1 {
		t.Errorf("result cache entries: got %d, want 1", entries)
	}

	// Different parameters get a separate entry.
	args2 := json.RawMessage(fmt.Sprintf(`{"path":%q,"poster_levels":3}`, path))
	if _, err := s.executeTool("centroid_analyze", args2); err != nil {
		t.Fatalf("third centroid_analyze failed: %v", err)
	}
	s.mu.Lock()
	entries = len(s.results)
	s.mu.Unlock()
	if entries != 2 {
		t.Errorf("result cache entries: got %d, want 2", entries)
	}

	// Reloading the image drops its cached analyses.
	if _, err := s.executeTool("image_load", json.RawMessage(fmt.Sprintf(`{"path":%q}`, path))); err != nil {
		t.Fatalf("image_load failed: %v", err)
	}
	s.mu.Lock()
	entries = len(s.results)
	s.mu.Unlock()
	if entries != 0 {
		t.Errorf("result cache entries after reload: got %d, want 0", entries)
	}
}

func TestHandlePosterizePreview(t *testing.T) {
	s := New()
	path := createParticleImage(t, 48, 48, image.Rect(10, 10, 30, 30))

	args := json.RawMessage(fmt.Sprintf(`{"path":%q,"poster_levels":2}`, path))
	result, err := s.executeTool("posterize_preview", args)
	if err != nil {
		t.Fatalf("posterize_preview failed: %v", err)
	}

	preview, ok := result.(*posterizePreviewResult)
	if !ok {
		t.Fatalf("result type: got %T, want *posterizePreviewResult", result)
	}
	if preview.Render == nil || preview.Render.ImageBase64 == "" {
		t.Fatal("preview render is empty")
	}
	if len(preview.Levels) != 2 {
		t.Fatalf("got %d levels, want 2", len(preview.Levels))
	}

	total := 0
	for _, lv := range preview.Levels {
		total += lv.PixelCount
	}
	if total != 48*48 {
		t.Errorf("level pixel counts sum to %d, want %d", total, 48*48)
	}
}

func TestHandleCentroidOverlay(t *testing.T) {
	s := New()
	path := createParticleImage(t, 64, 64, image.Rect(20, 20, 30, 30))

	args := json.RawMessage(fmt.Sprintf(
		`{"path":%q,"poster_levels":2,"min_area":50,"max_area":500,"reference_points":[{"x":5,"y":5}]}`, path))
	result, err := s.executeTool("centroid_overlay", args)
	if err != nil {
		t.Fatalf("centroid_overlay failed: %v", err)
	}

	render, ok := result.(*imaging.RenderResult)
	if !ok {
		t.Fatalf("result type: got %T, want *imaging.RenderResult", result)
	}
	if render.Width != 64 || render.Height != 64 {
		t.Errorf("overlay dimensions: got %dx%d, want 64x64", render.Width, render.Height)
	}
	if render.ImageBase64 == "" {
		t.Error("overlay image is empty")
	}
}

func TestHandleCentroidExportCSV(t *testing.T) {
	s := New()
	path := createParticleImage(t, 64, 64, image.Rect(20, 20, 30, 30))
	outPath := filepath.Join(t.TempDir(), "centroids.csv")

	args := json.RawMessage(fmt.Sprintf(
		`{"path":%q,"poster_levels":2,"min_area":50,"max_area":500,"out_path":%q,"reference_points":[{"x":1,"y":2}]}`,
		path, outPath))
	result, err := s.executeTool("centroid_export_csv", args)
	if err != nil {
		t.Fatalf("centroid_export_csv failed: %v", err)
	}

	export, ok := result.(*centroidExportResult)
	if !ok {
		t.Fatalf("result type: got %T, want *centroidExportResult", result)
	}
	if export.Count != 1 {
		t.Errorf("count: got %d, want 1", export.Count)
	}
	if !strings.HasPrefix(export.CSV, "id,x,y,level,area\n") {
		t.Errorf("CSV missing header: %q", export.CSV)
	}
	if !strings.Contains(export.CSV, "1,24.50,24.50,0,100") {
		t.Errorf("CSV missing centroid row: %q", export.CSV)
	}

	written, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("reading exported file failed: %v", err)
	}
	if string(written) != export.CSV {
		t.Error("file contents differ from returned CSV")
	}

	if export.ReferencePointsCSV == "" {
		t.Fatal("reference points CSV is empty")
	}
	if !strings.Contains(export.ReferencePointsCSV, "1,1.00,2.00") {
		t.Errorf("reference CSV missing row: %q", export.ReferencePointsCSV)
	}
	if export.ReferencePointsPath == "" {
		t.Fatal("reference points path is empty")
	}
	if _, err := os.Stat(export.ReferencePointsPath); err != nil {
		t.Errorf("reference points file missing: %v", err)
	}
}

func TestHandleAreaHistogram(t *testing.T) {
	s := New()
	path := createParticleImage(t, 64, 64,
		image.Rect(5, 5, 10, 10),
		image.Rect(20, 20, 35, 35),
	)

	args := json.RawMessage(fmt.Sprintf(`{"path":%q,"poster_levels":2}`, path))
	result, err := s.executeTool("area_histogram", args)
	if err != nil {
		t.Fatalf("area_histogram failed: %v", err)
	}

	hist, ok := result.(*areaHistogramResult)
	if !ok {
		t.Fatalf("result type: got %T, want *areaHistogramResult", result)
	}
	if len(hist.Levels) != 2 {
		t.Fatalf("got %d level summaries, want 2", len(hist.Levels))
	}
	if hist.Levels[0].ComponentCount != 2 {
		t.Errorf("level 0 components: got %d, want 2", hist.Levels[0].ComponentCount)
	}

	for _, h := range hist.Histograms {
		sum := 0
		for _, b := range h.Buckets {
			sum += b.Count
		}
		if sum != h.Components {
			t.Errorf("level %d: bucket counts sum to %d, want %d", h.Level, sum, h.Components)
		}
	}
}

func TestHandleToolsCall_EndToEnd(t *testing.T) {
	s := New()
	path := createParticleImage(t, 64, 64, image.Rect(20, 20, 30, 30))

	params, _ := json.Marshal(ToolCallParams{
		Name: "centroid_analyze",
		Arguments: json.RawMessage(fmt.Sprintf(
			`{"path":%q,"poster_levels":2,"min_area":50,"max_area":500}`, path)),
	})
	resp := s.handleRequest(&MCPRequest{JSONRPC: "2.0", ID: 9, Method: "tools/call", Params: params})

	if resp == nil {
		t.Fatal("tools/call returned nil response")
	}
	if resp.Error != nil {
		t.Fatalf("tools/call returned error: %+v", resp.Error)
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatalf("result type: got %T, want map", resp.Result)
	}
	content, ok := result["content"].([]map[string]interface{})
	if !ok || len(content) != 1 {
		t.Fatalf("unexpected content shape: %#v", result["content"])
	}
	text, _ := content[0]["text"].(string)
	if !strings.Contains(text, `"centroids"`) {
		t.Errorf("response text missing centroids: %s", text)
	}
}
