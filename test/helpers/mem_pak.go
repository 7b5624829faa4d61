package helpers

import (
	"sync"

	"github.com/kestrelengine/assetpipe/internal/domain/asset"
)

// MemPak is an in-memory asset.Pak for tests: metas are registered up
// front with Put and served back verbatim, with the pak back-reference
// filled in.
type MemPak struct {
	name  string
	mu    sync.Mutex
	metas map[*asset.ID]asset.Meta
}

func NewMemPak(name string) *MemPak {
	return &MemPak{name: name, metas: make(map[*asset.ID]asset.Meta)}
}

func (p *MemPak) Name() string { return p.name }

// Put registers meta for id. The meta's Pak field is overwritten with p.
func (p *MemPak) Put(id *asset.ID, meta asset.Meta) {
	meta.Pak = p
	p.mu.Lock()
	p.metas[id] = meta
	p.mu.Unlock()
}

func (p *MemPak) GetMeta(id *asset.ID) (asset.Meta, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	meta, ok := p.metas[id]
	if !ok {
		return asset.Meta{}, asset.New(asset.StatusCodeNotFound, id.String())
	}
	return meta, nil
}

// MetaFor builds a fully-bound Meta (minus the Pak back-reference, which
// Put fills in) for loader with the given dependency ids.
func MetaFor(loader asset.Loader, deps ...string) asset.Meta {
	ids := make([]*asset.ID, 0, len(deps))
	for _, d := range deps {
		ids = append(ids, asset.InternID(d))
	}
	return asset.Meta{
		Class:  &asset.ClassDescriptor{Name: "test_asset"},
		Loader: loader,
		Deps:   ids,
	}
}
