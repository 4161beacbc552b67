package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// analysisParamProperties is the shared parameter schema for every tool
// that runs the centroid pipeline. Keeping it in one place guarantees the
// tuning tools all accept the identical parameter set.
func analysisParamProperties() map[string]interface{} {
	return map[string]interface{}{
		"path": map[string]interface{}{
			"type":        "string",
			"description": "Absolute path to the image file",
		},
		"poster_levels": map[string]interface{}{
			"type":        "integer",
			"description": "Number of posterization levels K (minimum 2, default 4)",
			"default":     4,
		},
		"min_area": map[string]interface{}{
			"type":        "integer",
			"description": "Minimum accepted component area in pixels (default 0)",
			"default":     0,
		},
		"max_area": map[string]interface{}{
			"type":        "integer",
			"description": "Maximum accepted component area in pixels, 0 = unbounded (default 0)",
			"default":     0,
		},
		"trim_px": map[string]interface{}{
			"type":        "integer",
			"description": "Neck-split erosion depth in full-resolution pixels, 0 = no splitting (default 0)",
			"default":     0,
		},
		"connectivity": map[string]interface{}{
			"type":        "integer",
			"enum":        []int{4, 8},
			"description": "Pixel adjacency rule for components (default 8)",
			"default":     8,
		},
		"method": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"uniform", "dominant", "kmeans"},
			"description": "Posterization method (default 'uniform'; 'kmeans' is not deterministic across runs)",
			"default":     "uniform",
		},
		"smooth_sigma": map[string]interface{}{
			"type":        "number",
			"description": "Gaussian pre-smoothing sigma, 0 = no smoothing (default 0)",
			"default":     0,
		},
		"proc_width": map[string]interface{}{
			"type":        "integer",
			"description": "Working-resolution width the pipeline runs at (default 640)",
			"default":     640,
		},
		"full_resolution": map[string]interface{}{
			"type":        "boolean",
			"description": "Analyze at native resolution, ignoring proc_width",
			"default":     false,
		},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions and format. Reloading a path drops any cached analysis results for it.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_sample_color",
			Description: "Get the exact color value at a specific pixel coordinate.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"x": map[string]interface{}{
						"type":        "integer",
						"description": "X coordinate (0-based, from left)",
					},
					"y": map[string]interface{}{
						"type":        "integer",
						"description": "Y coordinate (0-based, from top)",
					},
				},
				"required": []string{"path", "x", "y"},
			},
		},

		// Pipeline Tuning
		{
			Name:        "posterize_preview",
			Description: "Posterize an image into K levels and return the quantized image as base64 PNG plus the palette and per-level pixel counts. Use this to pick poster_levels before running the full analysis.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": mergeProperties(analysisParamProperties(), map[string]interface{}{
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Display scale factor for the returned preview (default 1.0)",
						"default":     1.0,
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "centroid_analyze",
			Description: "Run the full centroid pipeline: posterize, extract connected components per level, split neck-joined components, filter by area, and return centroids with contours, per-level summaries, and area histograms. Coordinates are full-resolution; areas are working-resolution pixels.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": analysisParamProperties(),
				"required":   []string{"path"},
			},
		},
		{
			Name:        "centroid_overlay",
			Description: "Run the centroid pipeline and return the image with detected contours, centroid markers, and any operator reference points drawn on top, as base64 PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": mergeProperties(analysisParamProperties(), map[string]interface{}{
					"reference_points": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"x": map[string]interface{}{"type": "number"},
								"y": map[string]interface{}{"type": "number"},
							},
							"required": []string{"x", "y"},
						},
						"description": "Fixed reference markers in full-resolution coordinates, drawn but never analyzed",
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Display scale factor for the returned overlay (default 1.0)",
						"default":     1.0,
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "centroid_export_csv",
			Description: "Run the centroid pipeline and export the accepted centroids as CSV (columns id,x,y,level,area). Optionally writes the CSV to a file and exports reference points alongside.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": mergeProperties(analysisParamProperties(), map[string]interface{}{
					"out_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional absolute path to write the CSV file to",
					},
					"reference_points": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"x": map[string]interface{}{"type": "number"},
								"y": map[string]interface{}{"type": "number"},
							},
							"required": []string{"x", "y"},
						},
						"description": "Optional reference points to export as a second CSV (columns id,x,y)",
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "area_histogram",
			Description: "Run the centroid pipeline and return per-level component area histograms (post-split, pre-filter). Use this to choose min_area and max_area cutoffs.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": analysisParamProperties(),
				"required":   []string{"path"},
			},
		},
	}
}

// mergeProperties combines the shared analysis parameter schema with
// tool-specific additions.
func mergeProperties(base, extra map[string]interface{}) map[string]interface{} {
	for k, v := range extra {
		base[k] = v
	}
	return base
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
