// Package shader implements the shader program builder, the most
// involved AssetLoader in the pipeline. It resolves #include
// directives, derives a deterministic cache key, probes the shader
// bytecode cache, and on a miss compiles each module as a sub-task on
// the shared worker pool before assembling the final GPU module.
package shader

import (
	"fmt"
	"sync"

	"github.com/go-viper/mapstructure/v2"

	"github.com/kestrelengine/assetpipe/internal/adapters/gfxstub"
	"github.com/kestrelengine/assetpipe/internal/adapters/glslstub"
	"github.com/kestrelengine/assetpipe/internal/adapters/shadercache"
	"github.com/kestrelengine/assetpipe/internal/application/taskmanager"
	"github.com/kestrelengine/assetpipe/internal/domain/async"
	"github.com/kestrelengine/assetpipe/internal/domain/asset"
	"github.com/kestrelengine/assetpipe/internal/domain/task"
)

// Builder is the ShaderProgramBuilder. It is registered on the asset
// manager as an AssetLoader the same way any other loader is.
type Builder struct {
	cache    *shadercache.Cache
	includes *IncludeResolver
	compiler glslstub.Compiler
	driver   gfxstub.Driver
	tasks    *taskmanager.TaskManager
}

func NewBuilder(cache *shadercache.Cache, includes *IncludeResolver, compiler glslstub.Compiler, driver gfxstub.Driver, tasks *taskmanager.TaskManager) *Builder {
	return &Builder{cache: cache, includes: includes, compiler: compiler, driver: driver, tasks: tasks}
}

// Load implements asset.Loader. It decodes the Bundle out of
// meta.ImportOptions and delegates to Build.
func (b *Builder) Load(id *asset.ID, meta asset.Meta) (asset.Asset, error) {
	var bundle Bundle
	if err := mapstructure.Decode(meta.ImportOptions, &bundle); err != nil {
		return nil, asset.New(asset.StatusCodeInvalidData, err.Error())
	}
	return b.Build(bundle)
}

type resolvedModule struct {
	stage  string
	source string
}

// Build runs the full pipeline for one shader permutation: include
// expansion, cache probe, compile, assemble, cache insert.
func (b *Builder) Build(bundle Bundle) (asset.Asset, error) {
	resolved := make([]resolvedModule, len(bundle.Modules))
	var allIncludes []IncludeInfo
	seen := map[string]bool{}

	for i, m := range bundle.Modules {
		src, incs, err := b.includes.Resolve(m.Source)
		if err != nil {
			return nil, err
		}
		resolved[i] = resolvedModule{stage: m.Stage, source: src}
		for _, inc := range incs {
			if !seen[inc.Name] {
				allIncludes = append(allIncludes, inc)
				seen[inc.Name] = true
			}
		}
	}

	stages := make([]string, len(resolved))
	for i, rm := range resolved {
		stages[i] = rm.stage
	}
	key := computeCacheKey(bundle.ClassName, stages, allIncludes, bundle.Defines, bundle.VertexAttribMask, bundle.VariantBits)

	if mod, ok := b.cache.Find(key); ok {
		return &Program{module: mod}, nil
	}

	mod, err := b.compileAndAssemble(bundle.ClassName, resolved)
	if err != nil {
		return nil, err
	}

	b.cache.Cache(key, bundle.ClassName, mod)
	return &Program{module: mod}, nil
}

// compileAndAssemble schedules each module as a sub-task on the worker
// pool, joins them, and on success asks the driver to assemble the final
// module from the per-stage bytecode. The wait below requires a second
// worker to be available: sub-tasks are queued behind the builder's own
// task, so a single-worker pool would never reach them.
func (b *Builder) compileAndAssemble(className string, modules []resolvedModule) (gfxstub.Module, error) {
	compiled := make([]*glslstub.Compiled, len(modules))
	var mu sync.Mutex
	var firstErr error

	handles := make([]async.Async, len(modules))
	for i, rm := range modules {
		i, rm := i, rm
		t := task.New(fmt.Sprintf("%s:%s", className, rm.stage), func(ctx *task.Context) int {
			out, err := b.compiler.Compile(rm.stage, rm.source)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return 1
			}
			compiled[i] = out
			return 0
		})
		handles[i] = b.tasks.Schedule(t).AsAsync()
	}

	joined := async.Join(handles)
	joined.WaitCompleted()
	if joined.IsFailed() {
		return nil, asset.New(asset.StatusCodeFailedCompile, fmt.Sprintf("shader compile failed for %s: %v", className, firstErr))
	}

	stageBytecode := make(map[string][]byte, len(compiled))
	for _, c := range compiled {
		stageBytecode[c.Stage] = c.Bytecode
	}
	mod, err := b.driver.CreateModule(className, stageBytecode)
	if err != nil {
		return nil, asset.New(asset.StatusCodeError, err.Error())
	}
	return mod, nil
}
