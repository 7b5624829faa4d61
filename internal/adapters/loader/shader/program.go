package shader

import (
	"github.com/kestrelengine/assetpipe/internal/adapters/gfxstub"
	"github.com/kestrelengine/assetpipe/internal/domain/asset"
)

// Program is the shader-program asset the builder produces: a named
// wrapper around the GPU module backing it, whether that module came
// from a fresh compile or a cache hit.
type Program struct {
	asset.Base
	module gfxstub.Module
}

func (p *Program) Module() gfxstub.Module { return p.module }

// Bundle is the decoded shape of a shader's import options: one source
// module per stage, the active defines, and the permutation selectors
// that distinguish it in the cache.
type Bundle struct {
	ClassName        string            `mapstructure:"class_name"`
	Modules          []ModuleSource    `mapstructure:"modules"`
	Defines          map[string]string `mapstructure:"defines"`
	VertexAttribMask uint32            `mapstructure:"vertex_attrib_mask"`
	VariantBits      uint32            `mapstructure:"variant_bits"`
}

// ModuleSource is one stage's raw GLSL source, before include expansion.
type ModuleSource struct {
	Stage  string `mapstructure:"stage"`
	Source string `mapstructure:"source"`
}
