// Package detection finds interest points (corners and blobs) in raster images.
//
// The detectors turn a per-pixel response map into a sparse list of features
// by patch-wise non-maximum suppression. They are designed to be run on the
// compute backend passed as the first argument; every stage is a data
// parallel pass over the image.
//
// # Detectors
//
//   - Harris: trace-normalized structure tensor response (ad - bc)/(a + d)
//   - AdaptiveHarris: Harris with a per-pixel search for the best Gaussian scale
//   - Hessian: determinant of the second derivative (Hessian) tensor
//
// # Algorithm Overview
//
// Every detector follows the same pipeline:
//
//  1. Response: Build the tensor field with package tensor and reduce it to one
//     float response per pixel
//  2. Suppression: Tile the response into non-overlapping patchSize x patchSize
//     windows and keep the pixel with the largest absolute response per window
//  3. Thresholding: Report the window maximum when it is positive and at least
//     the threshold
//
// Windows are centered on pixels 0, patchSize, 2*patchSize, .. and read the
// response under Clamp. Reported coordinates are clamped to the image. The
// patch size must be odd so that neighbouring windows do not share pixels.
//
// The last window along an axis of length n is centered on
// (ceil(n/patchSize)-1)*patchSize and reaches patchSize/2 pixels past it.
// Pixels beyond that are never examined: with n = 20 and patchSize = 11 the
// windows cover 0..5 and 6..16, and columns 17..19 cannot hold a feature.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//
// # Flat Regions
//
// The Harris ratio divides by the tensor trace, which is zero wherever the
// image has no gradient. Those pixels have a NaN response and never become a
// feature, so a uniformly flat image yields no features at any threshold.
//
// # Performance Considerations
//
// Harris and Hessian cost a fixed number of small convolutions per pixel.
// AdaptiveHarris re-samples three Gaussian windows per scale step, and the
// window grows with sigma; crop large images to a region of interest first.
package detection
