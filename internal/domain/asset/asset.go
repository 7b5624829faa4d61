package asset

import "sync"

// Asset is the common capability every loaded asset exposes: a name,
// stamped by the manager once on first successful load if the loader
// didn't already set one.
type Asset interface {
	Name() *ID
	SetNameIfEmpty(id *ID)
}

// Base is embedded by concrete asset types (textures, shader programs,
// ...) to get Asset for free.
type Base struct {
	mu   sync.RWMutex
	name *ID
}

func (b *Base) Name() *ID {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.name
}

func (b *Base) SetNameIfEmpty(id *ID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.name == nil {
		b.name = id
	}
}

// Ref is the strong handle to a loaded asset. The asset manager's cache
// holds only a weak.Pointer to a Ref; as long as at least one *Ref is
// reachable somewhere else, the weak pointer resolves and the cache entry
// stays valid. Once every *Ref a caller held is dropped, the Go garbage
// collector is free to reclaim it, and the manager's next GC pass evicts
// the now-dead weak entry.
type Ref struct {
	Asset Asset
}
