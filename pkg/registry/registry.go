package registry

import (
	"sync"

	"github.com/aretw0/lattice/pkg/ports"
)

// Registry manages the available callables and their declared signatures.
// It implements ports.CallableRegistry and is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	callables map[string]entry
}

type entry struct {
	fn  ports.CallableFunc
	sig ports.Signature
}

// New creates a new empty registry.
func New() *Registry {
	return &Registry{
		callables: make(map[string]entry),
	}
}

// Register adds a callable with its calling convention. The signature is
// determined once, here, never re-inspected per call. If a callable with the
// same name exists, it is overwritten.
func (r *Registry) Register(name string, sig ports.Signature, fn ports.CallableFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callables[name] = entry{fn: fn, sig: sig}
}

// RegisterNullary is a convenience for zero-argument callables.
func (r *Registry) RegisterNullary(name string, fn ports.CallableFunc) {
	r.Register(name, ports.Signature{Kind: ports.SignatureNullary}, fn)
}

// RegisterUnary is a convenience for single-parameter callables that unwrap
// a matching argument key.
func (r *Registry) RegisterUnary(name, param string, fn ports.CallableFunc) {
	r.Register(name, ports.Signature{Kind: ports.SignatureUnaryUnwrap, Param: param}, fn)
}

// RegisterKeyword is a convenience for callables taking spread keyword
// parameters.
func (r *Registry) RegisterKeyword(name string, params []string, fn ports.CallableFunc) {
	r.Register(name, ports.Signature{Kind: ports.SignatureKeyword, Params: params}, fn)
}

// Resolve looks up a callable by name.
func (r *Registry) Resolve(name string) (ports.CallableFunc, ports.Signature, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.callables[name]
	if !ok {
		return nil, ports.Signature{}, false
	}
	return e.fn, e.sig, true
}

// Names returns the registered callable names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.callables))
	for name := range r.callables {
		names = append(names, name)
	}
	return names
}
