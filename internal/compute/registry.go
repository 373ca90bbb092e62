package compute

import (
	"sort"
	"sync"

	"github.com/rs/zerolog"

	cverrors "github.com/ironsheep/image-features-mcp/internal/errors"
)

// Factory creates a backend on a concrete device.
type Factory func(log zerolog.Logger) (Backend, error)

type registration struct {
	name    string
	factory Factory
}

var (
	registryMu sync.RWMutex
	registry   = make(map[DeviceClass][]registration)

	// Priority order for the default class (first available wins).
	defaultPriority = []DeviceClass{ClassGPU, ClassCPU}
)

func init() {
	Register(ClassCPU, "cpu", func(log zerolog.Logger) (Backend, error) {
		return NewCPU(WithLogger(log)), nil
	})
}

// Register adds a backend factory for a device class. Registering a name that
// already exists in the class replaces it.
func Register(class DeviceClass, name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	regs := registry[class]
	for i, r := range regs {
		if r.name == name {
			regs[i].factory = factory
			return
		}
	}
	registry[class] = append(regs, registration{name: name, factory: factory})
}

// Unregister removes a backend factory. This is useful for testing.
func Unregister(class DeviceClass, name string) {
	registryMu.Lock()
	defer registryMu.Unlock()

	regs := registry[class]
	for i, r := range regs {
		if r.name == name {
			registry[class] = append(regs[:i], regs[i+1:]...)
			return
		}
	}
}

// Available returns the registered backends as "class/name" strings.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	var names []string
	for class, regs := range registry {
		for _, r := range regs {
			names = append(names, string(class)+"/"+r.name)
		}
	}
	sort.Strings(names)
	return names
}

// Open creates a backend on the first device of the requested class that
// initializes. The default class prefers a GPU and falls back to the CPU.
func Open(class DeviceClass, log zerolog.Logger) (Backend, error) {
	classes := []DeviceClass{class}
	if class == ClassDefault {
		classes = defaultPriority
	}

	registryMu.RLock()
	var candidates []registration
	for _, c := range classes {
		candidates = append(candidates, registry[c]...)
	}
	registryMu.RUnlock()

	var lastErr error
	for _, r := range candidates {
		b, err := r.factory(log)
		if err != nil {
			log.Warn().Err(err).Str("backend", r.name).Msg("backend failed to initialize")
			lastErr = err
			continue
		}
		return b, nil
	}

	e := cverrors.New(cverrors.KindDeviceUnavailable, "compute.Open", "no %s device found", class)
	e.Cause = lastErr
	return nil, e
}
