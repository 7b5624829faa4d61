// Package fspak is the canonical AssetPak: a filesystem namespace with
// one YAML descriptor per asset, resolving class and loader names
// through a shared classregistry.Registry.
package fspak

import (
	"context"
	"os"
	"path/filepath"

	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	"github.com/kestrelengine/assetpipe/internal/adapters/classregistry"
	"github.com/kestrelengine/assetpipe/internal/domain/asset"
)

// descriptor is the YAML shape of one asset's recipe: class, loader,
// deps, and an opaque params subtree. Unknown top-level keys are
// ignored, which yaml.v3's default unmarshal-into-struct behavior
// already does.
type descriptor struct {
	Class  string         `yaml:"class"`
	Loader string         `yaml:"loader"`
	Deps   []string       `yaml:"deps"`
	Params map[string]any `yaml:"params"`
}

// Pak reads "<root>/<id>.asset.yaml" descriptors. A non-zero ioQPS
// throttles reads through golang.org/x/time/rate, modeling a pak backed
// by a slower or shared storage tier.
type Pak struct {
	name     string
	root     string
	registry *classregistry.Registry
	limiter  *rate.Limiter
}

func New(name, root string, registry *classregistry.Registry, ioQPS float64) *Pak {
	var limiter *rate.Limiter
	if ioQPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(ioQPS), 1)
	}
	return &Pak{name: name, root: root, registry: registry, limiter: limiter}
}

func (p *Pak) Name() string { return p.name }

func (p *Pak) descriptorPath(id *asset.ID) string {
	return filepath.Join(p.root, id.String()+".asset.yaml")
}

func (p *Pak) GetMeta(id *asset.ID) (asset.Meta, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(context.Background()); err != nil {
			return asset.Meta{}, asset.New(asset.StatusCodeError, err.Error())
		}
	}

	path := p.descriptorPath(id)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return asset.Meta{}, asset.New(asset.StatusCodeNotFound, path)
		}
		return asset.Meta{}, asset.New(asset.StatusCodeFailedRead, err.Error())
	}

	var d descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return asset.Meta{}, asset.New(asset.StatusCodeInvalidData, err.Error())
	}

	classDesc, ok := p.registry.FindClass(d.Class)
	if !ok {
		return asset.Meta{}, asset.New(asset.StatusCodeInvalidData, "unknown class "+d.Class)
	}
	loaderImpl, ok := p.registry.FindLoader(d.Loader)
	if !ok {
		return asset.Meta{}, asset.New(asset.StatusCodeInvalidData, "unknown loader "+d.Loader)
	}

	deps := make([]*asset.ID, 0, len(d.Deps))
	for _, dep := range d.Deps {
		deps = append(deps, asset.InternID(dep))
	}

	return asset.Meta{
		Class:         classDesc,
		Loader:        loaderImpl,
		Pak:           p,
		Deps:          deps,
		ImportOptions: d.Params,
	}, nil
}
