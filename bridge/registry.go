package bridge

import (
	"context"
	"fmt"
	"sync"

	"github.com/viant/mcp-protocol/schema"
)

// DurationClass declares a tool's expected completion profile. Fast tools run
// inline on the serving goroutine; long-running tools run on a worker with a
// keepalive clock.
type DurationClass string

const (
	DurationFast DurationClass = "fast"
	DurationLong DurationClass = "long-running"
)

// Handler executes one tool invocation and returns its structured result
// payload. Implementations must observe ctx between host calls so that
// cooperative cancellation and the invocation ceiling take effect.
type Handler func(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error)

// Descriptor binds a tool name to its input schema, duration class and
// handler. Descriptors are immutable after registration.
type Descriptor struct {
	Name        string
	Description string
	InputSchema schema.ToolInputSchema
	Duration    DurationClass
	Handler     Handler
}

// Registry holds the process-wide tool set. Registration happens once at
// assembly; lookups are concurrent.
type Registry struct {
	mux         sync.RWMutex
	descriptors map[string]*Descriptor
	names       []string
}

// Register adds a descriptor. A duplicate name, missing handler or missing
// duration class is a configuration error.
func (r *Registry) Register(descriptor *Descriptor) error {
	if descriptor == nil || descriptor.Name == "" {
		return fmt.Errorf("descriptor name was empty")
	}
	if descriptor.Handler == nil {
		return fmt.Errorf("tool %q: handler was nil", descriptor.Name)
	}
	switch descriptor.Duration {
	case DurationFast, DurationLong:
	default:
		return fmt.Errorf("tool %q: invalid duration class %q", descriptor.Name, descriptor.Duration)
	}
	r.mux.Lock()
	defer r.mux.Unlock()
	if _, ok := r.descriptors[descriptor.Name]; ok {
		return fmt.Errorf("tool %q: already registered", descriptor.Name)
	}
	r.descriptors[descriptor.Name] = descriptor
	r.names = append(r.names, descriptor.Name)
	return nil
}

// Resolve returns the descriptor registered under name.
func (r *Registry) Resolve(name string) (*Descriptor, bool) {
	r.mux.RLock()
	defer r.mux.RUnlock()
	descriptor, ok := r.descriptors[name]
	return descriptor, ok
}

// Tools returns schema entries for tools/list in registration order.
func (r *Registry) Tools() []schema.Tool {
	r.mux.RLock()
	defer r.mux.RUnlock()
	result := make([]schema.Tool, 0, len(r.names))
	for _, name := range r.names {
		descriptor := r.descriptors[name]
		description := descriptor.Description
		result = append(result, schema.Tool{
			Name:        descriptor.Name,
			Description: &description,
			InputSchema: descriptor.InputSchema,
		})
	}
	return result
}

// Size returns the number of registered tools.
func (r *Registry) Size() int {
	r.mux.RLock()
	defer r.mux.RUnlock()
	return len(r.descriptors)
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{descriptors: make(map[string]*Descriptor)}
}
