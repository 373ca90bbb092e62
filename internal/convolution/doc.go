// Package convolution implements linear convolution and windowed reductions
// over a sampler.
//
// Convolute2D, Convolute1D and ConvoluteSeparable compute weighted sums of the
// samples around each pixel and store the result at the input image's depth,
// so integer images saturate and float images keep negative values. Sums are
// accumulated in float64, so a derivative kernel over a constant neighbourhood
// yields exactly zero. All three require an odd kernel size.
//
// NonLinearConv2D is the general form: a caller supplied accumulate function
// sees every tap of a window, and a finish function sees the final accumulator
// of each window. With a stride equal to the window size the image is tiled
// into non-overlapping patches, which is how the detectors perform patch-wise
// non-maximum suppression. Convolute2D uses the same tap order as its windows.
//
// Every output pixel is independent of the others, so each operation is a
// single dispatch on the compute backend.
package convolution
