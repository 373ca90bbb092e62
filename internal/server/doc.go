// Package server implements the MCP (Model Context Protocol) server for feature
// detection tools.
//
// This package provides a JSON-RPC 2.0 server that exposes the convolution,
// structure tensor and detector packages through the MCP protocol, so that
// MCP-compatible clients can locate corners and blobs in image files.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Basic Image Information:
//   - image_load: Load image and get metadata
//
// Image Operations:
//   - image_grayscale: Weighted channel mean
//   - image_convolve: Named or custom kernel under a boundary policy
//
// Feature Detection:
//   - image_corner_response: Harris response map with value range
//   - image_detect_harris: Corners, optionally with per-pixel scale search
//   - image_detect_hessian: Blobs and saddles
//   - image_mark_features: Paint features onto the image
//
// Compute Backend:
//   - backend_info: Active device and registered backends
//
// Detector tools accept an optional region; detection runs on the crop and
// feature coordinates are reported in full-image pixels. Image outputs are
// base64-encoded PNGs; float results are clamped to [0, 1] before encoding.
//
// # Image Caching
//
// The server keeps decoded images in a codec.Cache keyed by path and depth.
// The cache persists for the lifetime of the server process.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// # Usage
//
// The server is typically started by an MCP client:
//
//	backend, _ := compute.Open(cfg.Backend, log)
//	srv := server.New(cfg, backend, log)
//	if err := srv.Run(); err != nil {
//	    log.Fatal().Err(err).Msg("server error")
//	}
package server
