package photron

import (
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/nasa-jpl/photron/pdc"
)

// Registry owns the SDK and every camera made from it.  The SDK is
// initialized once, before the first camera is added.
type Registry struct {
	sdk pdc.SDK

	once    sync.Once
	initErr error

	mu      sync.Mutex
	cameras map[string]*Camera
}

// NewRegistry returns a registry over sdk
func NewRegistry(sdk pdc.SDK) *Registry {
	return &Registry{sdk: sdk, cameras: map[string]*Camera{}}
}

// Init initializes the SDK.  Only the first call does anything; later calls
// return its result.
func (r *Registry) Init() error {
	r.once.Do(func() {
		if err := r.sdk.Init(); err != nil {
			r.initErr = fmt.Errorf("photron: could not initialize PDC library: %w", err)
		}
	})
	return r.initErr
}

// Add creates a camera and, if Connect is true, connects it.  A camera that
// fails to connect is still added; it can be connected later.
func (r *Registry) Add(cfg Config, msg *log.Logger, connect bool) (*Camera, error) {
	if err := r.Init(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.cameras[cfg.PortName]; ok {
		return nil, fmt.Errorf("photron: camera %q already exists", cfg.PortName)
	}
	c, err := New(r.sdk, cfg, msg)
	if err != nil {
		return nil, err
	}
	r.cameras[cfg.PortName] = c
	if connect {
		err = c.Connect()
	}
	return c, err
}

// Get returns a camera by port name
func (r *Registry) Get(port string) (*Camera, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cameras[port]
	return c, ok
}

// Names returns the port names of every camera, sorted
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.cameras))
	for k := range r.cameras {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Shutdown closes every camera.  The first error is returned after all are closed.
func (r *Registry) Shutdown() error {
	r.mu.Lock()
	cams := make([]*Camera, 0, len(r.cameras))
	for _, c := range r.cameras {
		cams = append(cams, c)
	}
	r.cameras = map[string]*Camera{}
	r.mu.Unlock()
	var first error
	for _, c := range cams {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
