package compute

import (
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/anthonynsimon/bild/parallel"
	"github.com/rs/zerolog"
	"golang.org/x/sys/cpu"

	cverrors "github.com/ironsheep/image-features-mcp/internal/errors"
)

// CPU runs kernels on the host, splitting the work range across goroutines.
type CPU struct {
	log zerolog.Logger

	mu       sync.RWMutex
	programs map[string]*Program
	kernels  map[string]KernelFunc
	owners   map[string]string

	pending sync.WaitGroup
}

// Option configures a CPU backend.
type Option func(*CPU)

// WithLogger sets the logger used for program build diagnostics.
func WithLogger(log zerolog.Logger) Option {
	return func(c *CPU) {
		c.log = log
	}
}

// NewCPU creates a CPU backend with no programs built.
func NewCPU(opts ...Option) *CPU {
	c := &CPU{
		log:      zerolog.Nop(),
		programs: make(map[string]*Program),
		kernels:  make(map[string]KernelFunc),
		owners:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Info describes the host CPU.
func (c *CPU) Info() DeviceInfo {
	return DeviceInfo{
		Name:     fmt.Sprintf("CPU %s/%s", runtime.GOOS, runtime.GOARCH),
		Class:    ClassCPU,
		Workers:  runtime.GOMAXPROCS(0),
		Features: cpuFeatures(),
	}
}

// AddProgram builds p once. Later calls with the same ID are no-ops.
func (c *CPU) AddProgram(p *Program) error {
	if p == nil || p.ID == "" {
		return cverrors.New(cverrors.KindBackendBuildFailure, "compute.AddProgram", "program has no identity")
	}

	c.mu.RLock()
	_, built := c.programs[p.ID]
	c.mu.RUnlock()
	if built {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, built := c.programs[p.ID]; built {
		return nil
	}

	if diags := c.diagnose(p); len(diags) > 0 {
		for _, d := range diags {
			c.log.Error().Str("program", p.ID).Msg(d)
		}
		return cverrors.New(cverrors.KindBackendBuildFailure, "compute.AddProgram",
			"could not build program %q: %s", p.ID, strings.Join(diags, "; "))
	}

	names := make([]string, 0, len(p.Entries))
	for name, fn := range p.Entries {
		c.kernels[name] = fn
		c.owners[name] = p.ID
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c.log.Debug().Str("program", p.ID).Str("kernel", name).Msg("loaded kernel")
	}
	c.programs[p.ID] = p
	return nil
}

// diagnose returns build errors for p. Must be called with mu held.
func (c *CPU) diagnose(p *Program) []string {
	if len(p.Entries) == 0 {
		return []string{"program has no entry points"}
	}
	var diags []string
	for name, fn := range p.Entries {
		switch {
		case name == "":
			diags = append(diags, "entry point without a name")
		case fn == nil:
			diags = append(diags, fmt.Sprintf("entry point %q has no body", name))
		default:
			if owner, ok := c.owners[name]; ok && owner != p.ID {
				diags = append(diags, fmt.Sprintf("kernel %q already defined by program %q", name, owner))
			}
		}
	}
	sort.Strings(diags)
	return diags
}

// Built reports whether a program with the given ID has been built.
func (c *CPU) Built(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.programs[id]
	return ok
}

// Enqueue dispatches kernel over size on a background goroutine.
func (c *CPU) Enqueue(kernel string, size Range, args ...interface{}) (*Event, error) {
	c.mu.RLock()
	fn, ok := c.kernels[kernel]
	c.mu.RUnlock()
	if !ok {
		return nil, cverrors.New(cverrors.KindBackendBuildFailure, "compute.Enqueue", "unknown kernel: %s", kernel)
	}
	if !size.valid() {
		return nil, cverrors.New(cverrors.KindInvalidArgument, "compute.Enqueue", "negative work size %+v", size)
	}

	ev := newEvent()
	c.pending.Add(1)
	go func() {
		defer c.pending.Done()
		defer ev.complete()
		dispatch(fn, size, Args(args))
	}()
	return ev, nil
}

// Flush blocks until every enqueued dispatch has completed.
func (c *CPU) Flush() {
	c.pending.Wait()
}

// dispatch runs fn for every work item. Rows of the Y/Z plane are split across
// goroutines; a one dimensional range is split along X instead.
func dispatch(fn KernelFunc, size Range, args Args) {
	if size.Len() == 0 {
		return
	}

	rows := size.Y * size.Z
	if rows == 1 {
		parallel.Line(size.X, func(start, end int) {
			for x := start; x < end; x++ {
				fn(Index{X: x}, args)
			}
		})
		return
	}

	parallel.Line(rows, func(start, end int) {
		for r := start; r < end; r++ {
			z, y := r/size.Y, r%size.Y
			for x := 0; x < size.X; x++ {
				fn(Index{X: x, Y: y, Z: z}, args)
			}
		}
	})
}

func cpuFeatures() []string {
	var features []string
	switch runtime.GOARCH {
	case "amd64", "386":
		flags := []struct {
			name string
			has  bool
		}{
			{"sse4.1", cpu.X86.HasSSE41},
			{"avx", cpu.X86.HasAVX},
			{"avx2", cpu.X86.HasAVX2},
			{"fma", cpu.X86.HasFMA},
			{"avx512f", cpu.X86.HasAVX512F},
		}
		for _, f := range flags {
			if f.has {
				features = append(features, f.name)
			}
		}
	case "arm64":
		if cpu.ARM64.HasASIMD {
			features = append(features, "asimd")
		}
		if cpu.ARM64.HasSVE {
			features = append(features, "sve")
		}
	}
	return features
}
