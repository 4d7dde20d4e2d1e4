// Package memory defines the custom allocator capability a decoder engine
// accepts at construction time. Engines call the allocator through a fixed
// pair of callbacks plus an opaque context value; this package is the only
// place those signatures appear.
package memory

// AllocFn allocates size bytes on behalf of the engine. opaque is the
// context value the manager registered alongside its callbacks.
type AllocFn func(opaque any, size int) ([]byte, error)

// FreeFn releases a buffer previously returned by the paired AllocFn.
type FreeFn func(opaque any, buf []byte)

// Funcs is the callback record handed to an engine when it is created.
// The zero value means the engine uses its own default allocator.
type Funcs struct {
	Opaque any
	Alloc  AllocFn
	Free   FreeFn
}

// Manager supplies custom allocation behaviour. Each capability is
// independently optional: a nil return means the engine falls back to its
// default for that operation.
type Manager interface {
	AllocFunc() AllocFn
	FreeFunc() FreeFn
	Opaque() any
}

// AsFuncs bridges a Manager to the Funcs record an engine factory consumes.
// A nil Manager yields the zero Funcs.
func AsFuncs(m Manager) Funcs {
	if m == nil {
		return Funcs{}
	}
	return Funcs{
		Opaque: m.Opaque(),
		Alloc:  m.AllocFunc(),
		Free:   m.FreeFunc(),
	}
}
