// Package sampler provides boundary-aware read access to raster images.
//
// A Sampler pairs an image with one of three boundary policies:
//
//   - Clamp: coordinates outside the image read the nearest edge pixel.
//   - Repeat: coordinates wrap around, using a modulo that is never negative.
//   - BlackEdge: coordinates outside [0, 1) read transparent black.
//
// Every read returns a four channel float Color. Missing channels default to
// (0, 0, 0, 1), so a gray image samples as (g, 0, 0, 1).
//
// Coordinates are either normalized (Sample, u and v in [0, 1]) or integer
// pixel positions (SampleXY). Texel reads a pixel with no boundary handling and
// is only safe for coordinates known to be inside the image.
//
// Gaussian is a separate view that returns a Gaussian-weighted neighbourhood
// average whose sigma can be changed between reads.
package sampler
