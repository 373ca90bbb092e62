package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the image file (png, jpg, jpeg, bmp, tga or hdr)",
	}
}

func regionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"description": "Optional region of interest. Detection runs on the crop; reported coordinates are in full-image pixels.",
		"properties": map[string]interface{}{
			"x1": map[string]interface{}{"type": "integer", "description": "Left edge X coordinate (inclusive)"},
			"y1": map[string]interface{}{"type": "integer", "description": "Top edge Y coordinate (inclusive)"},
			"x2": map[string]interface{}{"type": "integer", "description": "Right edge X coordinate (exclusive)"},
			"y2": map[string]interface{}{"type": "integer", "description": "Bottom edge Y coordinate (exclusive)"},
		},
		"required": []string{"x1", "y1", "x2", "y2"},
	}
}

func detectorProperties(extra map[string]interface{}) map[string]interface{} {
	props := map[string]interface{}{
		"path": pathProperty(),
		"patch_size": map[string]interface{}{
			"type":        "integer",
			"description": "Odd side length of the non-overlapping patches; at most one feature is reported per patch. Default from IMAGE_MCP_PATCH_SIZE (11)",
		},
		"threshold": map[string]interface{}{
			"type":        "number",
			"description": "Minimum absolute response of a patch maximum. Default from IMAGE_MCP_THRESHOLD (0.1)",
		},
		"region": regionProperty(),
	}
	for k, v := range extra {
		props[k] = v
	}
	return props
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions, channel count, format and native pixel depth.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},

		// Image Operations
		{
			Name:        "image_grayscale",
			Description: "Reduce an image to one gray channel as a weighted mean of its channels and return it as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"weights": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "number"},
						"minItems":    4,
						"maxItems":    4,
						"description": "Optional per-channel weights [r, g, b, a]. Default equal weights",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_convolve",
			Description: "Convolve an image with a named filter or custom 1D kernel and return the result as base64-encoded PNG with the output value range.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"filter": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"simple_edge", "laplace_x", "box", "stackblur", "gauss", "sobel_h", "sobel_v", "scharr_h", "scharr_v", "laplace", "laplace_xy"},
						"description": "Named filter. 1D filters run in the given mode; 2D filters always run as full 2D convolution",
					},
					"kernel": map[string]interface{}{
						"type":        "string",
						"description": "Custom odd-length 1D kernel as comma separated weights, e.g. \"1,2,1\". Overrides filter",
					},
					"size": map[string]interface{}{
						"type":        "integer",
						"description": "Kernel size for box, stackblur and gauss. Even sizes round up. Default 3",
						"default":     3,
					},
					"sigma": map[string]interface{}{
						"type":        "number",
						"description": "Gaussian sigma for gauss. Default 1.0",
						"default":     1.0,
					},
					"mode": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"separable", "horizontal", "vertical", "2d"},
						"description": "How a 1D kernel is applied. 2d uses the outer product. Default separable",
						"default":     "separable",
					},
					"boundary": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"clamp", "repeat", "black_edge"},
						"description": "How reads outside the image are resolved. Default clamp",
						"default":     "clamp",
					},
					"absolute": map[string]interface{}{
						"type":        "boolean",
						"description": "Render the absolute value, useful for derivative filters. Default false",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},

		// Feature Detection
		{
			Name:        "image_corner_response",
			Description: "Compute the Harris corner response map (ad - bc)/(a + d) of the structure tensor. Returns min/max, the number of flat (undefined) pixels and a normalized PNG of the absolute response.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"sigma": map[string]interface{}{
						"type":        "number",
						"description": "Structure tensor smoothing sigma. Default from IMAGE_MCP_TENSOR_SIGMA (1.0)",
					},
					"region": regionProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_detect_harris",
			Description: "Detect corners with the Harris detector and patch-wise non-maximum suppression. Returns features with position, scale and response.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": detectorProperties(map[string]interface{}{
					"sigma": map[string]interface{}{
						"type":        "number",
						"description": "Structure tensor smoothing sigma. Default from IMAGE_MCP_TENSOR_SIGMA (1.0)",
					},
					"adaptive": map[string]interface{}{
						"type":        "boolean",
						"description": "Search each pixel for the Gaussian scale with the strongest response. Slow on large images; use region. Default false",
						"default":     false,
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_detect_hessian",
			Description: "Detect blobs and saddle points as patch maxima of the Hessian determinant.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": detectorProperties(nil),
				"required":   []string{"path"},
			},
		},
		{
			Name:        "image_mark_features",
			Description: "Paint feature positions onto the image and return it as base64-encoded PNG. Pass explicit features or name a detector to run.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": detectorProperties(map[string]interface{}{
					"features": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"x": map[string]interface{}{"type": "integer"},
								"y": map[string]interface{}{"type": "integer"},
							},
							"required": []string{"x", "y"},
						},
						"description": "Feature positions in full-image pixels",
					},
					"detector": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"harris", "adaptive_harris", "hessian"},
						"description": "Detector to run when features is omitted. Default harris",
						"default":     "harris",
					},
					"color": map[string]interface{}{
						"type":        "string",
						"description": "Marker color as hex \"#RRGGBB\". Default \"#ff00ff\"",
						"default":     "#ff00ff",
					},
				}),
				"required": []string{"path"},
			},
		},

		// Compute Backend
		{
			Name:        "backend_info",
			Description: "Describe the compute backend the server runs on and list the registered devices.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}
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
