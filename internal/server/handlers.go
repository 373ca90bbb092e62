package server

import (
	"encoding/json"
	"fmt"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/image-features-mcp/internal/codec"
	"github.com/ironsheep/image-features-mcp/internal/compute"
	"github.com/ironsheep/image-features-mcp/internal/convolution"
	"github.com/ironsheep/image-features-mcp/internal/detection"
	"github.com/ironsheep/image-features-mcp/internal/kernel"
	"github.com/ironsheep/image-features-mcp/internal/pixel"
	"github.com/ironsheep/image-features-mcp/internal/raster"
	"github.com/ironsheep/image-features-mcp/internal/sampler"
	"github.com/ironsheep/image-features-mcp/internal/tensor"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "image_detect_harris").
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
		s.log.Warn().Err(err).Str("tool", params.Name).Msg("tool execution failed")
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
//  4. Calls the raster, convolution, tensor or detection operation
//  5. Returns the result or error
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Basic Image Information
	case "image_load":
		return s.handleImageLoad(args)

	// Image Operations
	case "image_grayscale":
		return s.handleImageGrayscale(args)
	case "image_convolve":
		return s.handleImageConvolve(args)

	// Feature Detection
	case "image_corner_response":
		return s.handleImageCornerResponse(args)
	case "image_detect_harris":
		return s.handleImageDetectHarris(args)
	case "image_detect_hessian":
		return s.handleImageDetectHessian(args)
	case "image_mark_features":
		return s.handleImageMarkFeatures(args)

	// Compute Backend
	case "backend_info":
		return s.handleBackendInfo()

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
	return codec.LoadInfo(s.cache, s.backend, a.Path)
}

// === Image Operation Handlers ===

type imageGrayscaleArgs struct {
	Path    string    `json:"path"`
	Weights []float32 `json:"weights"`
}

func (s *Server) handleImageGrayscale(args json.RawMessage) (interface{}, error) {
	var a imageGrayscaleArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	weights := raster.EqualWeights
	if a.Weights != nil {
		if len(a.Weights) != 4 {
			return nil, fmt.Errorf("weights must have 4 entries, got %d", len(a.Weights))
		}
		copy(weights[:], a.Weights)
	}

	img, err := s.cache.Load(s.backend, a.Path, pixel.F32)
	if err != nil {
		return nil, err
	}
	gray, err := raster.GrayscaleWeighted(s.backend, img, weights)
	if err != nil {
		return nil, err
	}
	return s.encodeResult(gray)
}

type imageConvolveArgs struct {
	Path     string  `json:"path"`
	Filter   string  `json:"filter"`
	Kernel   string  `json:"kernel"`
	Size     int     `json:"size"`
	Sigma    float32 `json:"sigma"`
	Mode     string  `json:"mode"`
	Boundary string  `json:"boundary"`
	Absolute bool    `json:"absolute"`
}

// ConvolveResult is a filtered image with the value range of the float
// output before it was quantized for display.
type ConvolveResult struct {
	ImageResult
	Min float32 `json:"min"`
	Max float32 `json:"max"`
}

func (s *Server) handleImageConvolve(args json.RawMessage) (interface{}, error) {
	var a imageConvolveArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Size == 0 {
		a.Size = 3
	}
	if a.Sigma == 0 {
		a.Sigma = 1.0
	}
	if a.Mode == "" {
		a.Mode = "separable"
	}
	if a.Boundary == "" {
		a.Boundary = "clamp"
	}

	var (
		vec kernel.Vector
		mat kernel.Matrix
		err error
	)
	switch {
	case a.Kernel != "":
		vec, err = kernel.ParseVector(a.Kernel)
	case a.Filter != "":
		vec, mat, err = kernel.Named(a.Filter, a.Size, a.Sigma)
	default:
		err = fmt.Errorf("either filter or kernel is required")
	}
	if err != nil {
		return nil, err
	}

	policy, err := sampler.ParsePolicy(a.Boundary)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(s.backend, a.Path, pixel.F32)
	if err != nil {
		return nil, err
	}
	smp := sampler.New(img, policy)

	var out *raster.Image
	switch {
	case mat.Size() > 0:
		out, err = convolution.Convolute2D(s.backend, smp, mat)
	case a.Mode == "separable":
		out, err = convolution.ConvoluteSeparable(s.backend, smp, vec)
	case a.Mode == "2d":
		if mat, err = kernel.Outer(vec, vec); err == nil {
			out, err = convolution.Convolute2D(s.backend, smp, mat)
		}
	default:
		var dir convolution.Direction
		if dir, err = convolution.ParseDirection(a.Mode); err == nil {
			out, err = convolution.Convolute1D(s.backend, smp, vec, dir)
		}
	}
	if err != nil {
		return nil, err
	}

	lo, hi, _ := valueRange(out)
	if a.Absolute {
		if out, err = raster.Transform(s.backend, out, pixel.F32, abs32); err != nil {
			return nil, err
		}
	}
	res, err := s.encodeResult(out)
	if err != nil {
		return nil, err
	}
	return &ConvolveResult{ImageResult: *res, Min: lo, Max: hi}, nil
}

// === Feature Detection Handlers ===

type cornerResponseArgs struct {
	Path   string  `json:"path"`
	Sigma  float32 `json:"sigma"`
	Region *Region `json:"region"`
}

// CornerResponseResult summarizes a Harris response map.
type CornerResponseResult struct {
	ImageResult
	Min        float32 `json:"min"`
	Max        float32 `json:"max"`
	FlatPixels int     `json:"flat_pixels"`
}

func (s *Server) handleImageCornerResponse(args json.RawMessage) (interface{}, error) {
	var a cornerResponseArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	opts := s.defaults.Tensor
	if a.Sigma != 0 {
		opts.Sigma = a.Sigma
	}

	img, _, err := s.loadRegion(a.Path, a.Region)
	if err != nil {
		return nil, err
	}
	resp, err := tensor.HarrisResponse(s.backend, img, opts)
	if err != nil {
		return nil, err
	}

	lo, hi, flat := valueRange(resp)
	peak := max(float32(math.Abs(float64(lo))), float32(math.Abs(float64(hi))))
	display, err := raster.Transform(s.backend, resp, pixel.F32, func(v float32) float32 {
		if peak == 0 {
			return 0
		}
		return abs32(v) / peak
	})
	if err != nil {
		return nil, err
	}
	res, err := s.encodeResult(display)
	if err != nil {
		return nil, err
	}
	return &CornerResponseResult{ImageResult: *res, Min: lo, Max: hi, FlatPixels: flat}, nil
}

type detectArgs struct {
	Path      string   `json:"path"`
	PatchSize int      `json:"patch_size"`
	Threshold *float32 `json:"threshold"`
	Sigma     float32  `json:"sigma"`
	Adaptive  bool     `json:"adaptive"`
	Region    *Region  `json:"region"`
}

// params merges the call arguments over the server defaults.
func (s *Server) params(a detectArgs) detection.Params {
	p := s.defaults
	if a.PatchSize != 0 {
		p.PatchSize = a.PatchSize
	}
	if a.Threshold != nil {
		p.Threshold = *a.Threshold
	}
	if a.Sigma != 0 {
		p.Tensor.Sigma = a.Sigma
	}
	return p
}

// DetectionResult lists the features found by one detector run.
type DetectionResult struct {
	Detector  string              `json:"detector"`
	Width     int                 `json:"width"`
	Height    int                 `json:"height"`
	PatchSize int                 `json:"patch_size"`
	Threshold float32             `json:"threshold"`
	Count     int                 `json:"count"`
	Features  []detection.Feature `json:"features"`
}

func (s *Server) handleImageDetectHarris(args json.RawMessage) (interface{}, error) {
	var a detectArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	name := "harris"
	if a.Adaptive {
		name = "adaptive_harris"
	}
	return s.detect(name, a)
}

func (s *Server) handleImageDetectHessian(args json.RawMessage) (interface{}, error) {
	var a detectArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return s.detect("hessian", a)
}

// detect runs the named detector on the requested region and reports feature
// positions in full-image coordinates.
func (s *Server) detect(name string, a detectArgs) (*DetectionResult, error) {
	img, origin, err := s.loadRegion(a.Path, a.Region)
	if err != nil {
		return nil, err
	}

	p := s.params(a)
	var features []detection.Feature
	switch name {
	case "harris":
		features, err = detection.Harris(s.backend, img, p)
	case "adaptive_harris":
		features, err = detection.AdaptiveHarris(s.backend, img, p)
	case "hessian":
		features, err = detection.Hessian(s.backend, img, p)
	default:
		err = fmt.Errorf("unknown detector %q (want harris, adaptive_harris or hessian)", name)
	}
	if err != nil {
		return nil, err
	}

	for i := range features {
		features[i].X += origin.X
		features[i].Y += origin.Y
	}
	if features == nil {
		features = []detection.Feature{}
	}
	s.log.Debug().Str("detector", name).Int("features", len(features)).Str("path", a.Path).Msg("detection finished")

	return &DetectionResult{
		Detector:  name,
		Width:     img.Width,
		Height:    img.Height,
		PatchSize: p.PatchSize,
		Threshold: p.Threshold,
		Count:     len(features),
		Features:  features,
	}, nil
}

type markFeaturesArgs struct {
	detectArgs
	Features []detection.Feature `json:"features"`
	Detector string              `json:"detector"`
	Color    string              `json:"color"`
}

// MarkResult is the marked image and the number of features painted.
type MarkResult struct {
	ImageResult
	Count int `json:"count"`
}

func (s *Server) handleImageMarkFeatures(args json.RawMessage) (interface{}, error) {
	var a markFeaturesArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Color == "" {
		a.Color = "#ff00ff"
	}
	if a.Detector == "" {
		a.Detector = "harris"
	}
	c, err := colorful.Hex(a.Color)
	if err != nil {
		return nil, fmt.Errorf("invalid color %q: %w", a.Color, err)
	}
	r, g, b := c.Clamped().RGB255()
	marker := sampler.Color{float32(r) / 255, float32(g) / 255, float32(b) / 255, 1}

	features := a.Features
	if features == nil {
		res, err := s.detect(a.Detector, a.detectArgs)
		if err != nil {
			return nil, err
		}
		features = res.Features
	}

	img, err := s.cache.Load(s.backend, a.Path, pixel.U8)
	if err != nil {
		return nil, err
	}
	// Painting is in place, so work on an RGB copy of the cached raster.
	canvas, err := raster.MakeRGB(s.backend, img)
	if err != nil {
		return nil, err
	}
	if err := detection.MarkFeatures(s.backend, canvas, marker, features); err != nil {
		return nil, err
	}

	res, err := s.encodeResult(canvas)
	if err != nil {
		return nil, err
	}
	return &MarkResult{ImageResult: *res, Count: len(features)}, nil
}

// === Compute Backend Handlers ===

// BackendInfoResult describes the active device and the detector defaults.
type BackendInfoResult struct {
	Device    compute.DeviceInfo `json:"device"`
	Available []string           `json:"available"`
	Defaults  map[string]float32 `json:"defaults"`
}

func (s *Server) handleBackendInfo() (interface{}, error) {
	return &BackendInfoResult{
		Device:    s.backend.Info(),
		Available: compute.Available(),
		Defaults: map[string]float32{
			"patch_size":   float32(s.defaults.PatchSize),
			"threshold":    s.defaults.Threshold,
			"tensor_sigma": s.defaults.Tensor.Sigma,
		},
	}, nil
}

func abs32(v float32) float32 {
	return float32(math.Abs(float64(v)))
}
