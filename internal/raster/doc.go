// Package raster provides the image buffer used by every processing stage.
//
// An Image owns a dense, row-major, channel-interleaved buffer of
// Width*Height*Channels values stored at one of the pixel depths (8-bit,
// 16-bit or float). Operations never modify their inputs: each one allocates
// and returns a new Image, so images behave like values and can be shared
// freely between goroutines as long as nobody writes to them.
//
// # Arithmetic
//
// Elementwise operations (Add, Sub, Mul, Div, Negate, Transform) read both
// operands in normalized float space and convert the result back to the
// output depth. Integer outputs saturate to [0, 1]; float outputs keep the
// full range, which is why intermediate results of a pipeline should be
// converted to float first with ConvertDepth.
//
// Binary operations require identical width, height and channel count and
// fail with a dimension_mismatch error otherwise.
//
// # Execution
//
// Every operation takes the compute.Backend it dispatches on as its first
// argument and returns only after the backend has finished writing the result.
package raster
