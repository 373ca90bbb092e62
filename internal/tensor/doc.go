// Package tensor builds per-pixel 2x2 tensors from image derivatives.
//
// The structure tensor pipeline converts the image to float grayscale, takes
// Scharr derivatives Dx and Dy, forms the products Dx², Dy² and Dx·Dy and
// smooths each with a separable Gaussian (size and sigma from Options). The
// Hessian tensor instead applies second derivative Laplace kernels to the
// lightly smoothed grayscale image.
//
// A Field holds one Mat2 per pixel and reduces to a scalar image with
// Transform. HarrisResponse uses the trace-normalized ratio
// (ad - bc)/(a + d); HessianResponse uses the determinant.
//
// ScaledHarris is an experimental variant that searches, per pixel, for the
// Gaussian window sigma that maximizes the Harris ratio.
//
// All intermediate images are float so no precision is lost between stages.
package tensor
