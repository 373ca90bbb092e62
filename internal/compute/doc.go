// Package compute executes data-parallel kernels on a device.
//
// A Backend accepts named kernels grouped into Programs, builds each program
// at most once, and dispatches kernels over a 1, 2 or 3 dimensional work
// range. Dispatch is asynchronous: Enqueue returns an Event the caller waits
// on before reading any image the kernel writes. The image processing
// packages express every operation once against this interface, so a new
// device only needs a Backend implementation.
//
// # Devices
//
// Backends are registered by device class with Register and opened with Open.
// The package registers a CPU backend that splits the work range across
// goroutines with bild's parallel helpers. No GPU backend ships with this
// module; opening the gpu class fails with a device_unavailable error.
//
// # Programs
//
// A Program is identified by its ID. Adding a program whose ID is already
// built is a no-op, so callers add their program before every dispatch.
// Building fails with a backend_build_failure error when the program has no
// entry points, an entry is nil or unnamed, or an entry name is already owned
// by a different program. The diagnostics are logged and returned.
//
// # Thread Safety
//
// Backends are safe for concurrent use. Kernels run concurrently over work
// items and must only write to locations owned by their own work item, or
// synchronize shared state themselves.
package compute
