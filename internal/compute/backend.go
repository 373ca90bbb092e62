package compute

import (
	"fmt"
)

// DeviceClass selects the kind of device a backend runs on.
type DeviceClass string

const (
	ClassCPU     DeviceClass = "cpu"
	ClassGPU     DeviceClass = "gpu"
	ClassDefault DeviceClass = "default"
)

// ParseClass parses "cpu", "gpu" or "default".
func ParseClass(s string) (DeviceClass, error) {
	switch DeviceClass(s) {
	case ClassCPU, ClassGPU, ClassDefault:
		return DeviceClass(s), nil
	}
	return "", fmt.Errorf("unknown device class %q (want cpu, gpu or default)", s)
}

// Index identifies one work item.
type Index struct {
	X, Y, Z int
}

// Range is the size of a dispatch in up to three dimensions.
// Unused dimensions are 1.
type Range struct {
	X, Y, Z int
}

// Range1 returns a one dimensional work range.
func Range1(x int) Range { return Range{X: x, Y: 1, Z: 1} }

// Range2 returns a two dimensional work range.
func Range2(x, y int) Range { return Range{X: x, Y: y, Z: 1} }

// Range3 returns a three dimensional work range.
func Range3(x, y, z int) Range { return Range{X: x, Y: y, Z: z} }

// Len returns the number of work items.
func (r Range) Len() int {
	return r.X * r.Y * r.Z
}

// Dims returns how many dimensions are in use.
func (r Range) Dims() int {
	switch {
	case r.Z > 1:
		return 3
	case r.Y > 1:
		return 2
	default:
		return 1
	}
}

func (r Range) valid() bool {
	return r.X >= 0 && r.Y >= 0 && r.Z >= 0
}

// Args is the typed argument list passed to every work item of a dispatch.
type Args []interface{}

// Arg returns argument i converted to T. It panics if the argument has a
// different type, as a mismatched kernel signature would on any device.
func Arg[T any](args Args, i int) T {
	v, ok := args[i].(T)
	if !ok {
		var zero T
		panic(fmt.Sprintf("compute: argument %d is %T, kernel expects %T", i, args[i], zero))
	}
	return v
}

// KernelFunc is executed once per work item.
type KernelFunc func(id Index, args Args)

// Program is a named bundle of kernel entry points.
type Program struct {
	// ID is the stable identity used for build caching.
	ID string

	// Source describes the program for diagnostics.
	Source string

	// Entries maps kernel names to their implementation.
	Entries map[string]KernelFunc
}

// DeviceInfo describes the device behind a backend.
type DeviceInfo struct {
	Name     string      `json:"name"`
	Class    DeviceClass `json:"class"`
	Workers  int         `json:"workers"`
	Features []string    `json:"features,omitempty"`
}

// Backend dispatches kernels on one device.
type Backend interface {
	// Info describes the device.
	Info() DeviceInfo

	// AddProgram builds p unless a program with the same ID is already built.
	AddProgram(p *Program) error

	// Enqueue dispatches a kernel over size and returns immediately.
	Enqueue(kernel string, size Range, args ...interface{}) (*Event, error)

	// Flush blocks until every enqueued dispatch has completed.
	Flush()
}

// Run adds p to the backend, dispatches kernel and waits for it to complete.
func Run(b Backend, p *Program, kernel string, size Range, args ...interface{}) error {
	if err := b.AddProgram(p); err != nil {
		return err
	}
	ev, err := b.Enqueue(kernel, size, args...)
	if err != nil {
		return err
	}
	ev.Wait()
	return nil
}
