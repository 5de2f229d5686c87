package action

import (
	"fmt"
	"sync"
)

// Constructor builds one lifecycle for a descriptor.
type Constructor func(host Host, desc *Descriptor, req Request) (Action, error)

// Lookup resolves a type tag to its descriptor.
type Lookup interface {
	Lookup(t Type) (*Descriptor, bool)
}

// Builder turns a request into a lifecycle that has not started yet.
type Builder interface {
	Build(host Host, req Request) (Action, error)
}

// Factory maps descriptor logic to constructors. Descriptors can be swapped
// at runtime (catalog reload) without touching lifecycles already built.
type Factory struct {
	mu          sync.RWMutex
	descriptors Lookup
	logics      map[Logic]Constructor
}

// NewFactory returns a factory with the built-in logics registered.
func NewFactory(descriptors Lookup) *Factory {
	f := &Factory{
		descriptors: descriptors,
		logics:      map[Logic]Constructor{},
	}
	f.Register(LogicStealthMode, NewStealthMode)
	f.Register(LogicEmote, NewEmote)
	f.Register(LogicScripted, newScriptedConstructor(newScriptCache()))
	return f
}

// Register adds or replaces the constructor for logic.
func (f *Factory) Register(logic Logic, c Constructor) {
	if f == nil || c == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logics[logic] = c
}

// SetDescriptors swaps the descriptor source used for new requests.
func (f *Factory) SetDescriptors(descriptors Lookup) {
	if f == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.descriptors = descriptors
}

// Descriptor resolves t against the current descriptor source.
func (f *Factory) Descriptor(t Type) (*Descriptor, bool) {
	if f == nil {
		return nil, false
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.descriptors == nil {
		return nil, false
	}
	return f.descriptors.Lookup(t)
}

func (f *Factory) Build(host Host, req Request) (Action, error) {
	desc, ok := f.Descriptor(req.Type)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, req.Type)
	}
	f.mu.RLock()
	ctor, ok := f.logics[desc.Logic]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q for %s", ErrUnknownLogic, desc.Logic, desc.Type)
	}
	a, err := ctor(host, desc, req)
	if err != nil {
		return nil, fmt.Errorf("action: build %s: %w", desc.Type, err)
	}
	return a, nil
}
