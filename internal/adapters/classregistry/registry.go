// Package classregistry is the capability lookup standing in for the
// host engine's reflection registry. Paks use it to turn the symbolic
// class/loader names in their YAML or database rows into the bound
// descriptors and loader instances AssetMeta requires.
package classregistry

import (
	"sync"

	"github.com/kestrelengine/assetpipe/internal/domain/asset"
)

// Registry is a shared, name-keyed lookup for class descriptors and
// loader instances. It is constructed once and handed to every pak and
// to the asset manager, so RegisterLoader and a pak's FindLoader agree on
// the same instances.
type Registry struct {
	mu      sync.RWMutex
	classes map[string]*asset.ClassDescriptor
	loaders map[string]asset.Loader
}

func New() *Registry {
	return &Registry{
		classes: make(map[string]*asset.ClassDescriptor),
		loaders: make(map[string]asset.Loader),
	}
}

func (r *Registry) RegisterClass(name string, desc *asset.ClassDescriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.classes[name] = desc
}

func (r *Registry) RegisterLoader(name string, loader asset.Loader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaders[name] = loader
}

func (r *Registry) FindClass(name string) (*asset.ClassDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.classes[name]
	return d, ok
}

func (r *Registry) FindLoader(name string) (asset.Loader, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.loaders[name]
	return l, ok
}
