// Package kernel defines convolution kernels and a bank of common filters.
//
// A Vector is a one dimensional kernel used for directional and separable
// convolution. A Matrix is a square kernel for full 2D convolution. Both must
// have an odd size so the center tap is well defined; constructors and
// Validate report violations as invalid_kernel_shape errors.
//
// Filter constructors return fresh values the caller may modify. Sized filters
// (Box, StackBlur, Gauss) round even sizes up to the next odd size.
package kernel
