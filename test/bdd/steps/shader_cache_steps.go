package steps

import (
	"bytes"
	"context"
	"fmt"
	"sync/atomic"

	"github.com/cucumber/godog"

	"github.com/kestrelengine/assetpipe/internal/adapters/gfxstub"
	"github.com/kestrelengine/assetpipe/internal/adapters/glslstub"
	"github.com/kestrelengine/assetpipe/internal/adapters/loader/shader"
	"github.com/kestrelengine/assetpipe/internal/adapters/shadercache"
	"github.com/kestrelengine/assetpipe/internal/application/taskmanager"
)

// countingCompiler wraps the stub GLSL compiler with an invocation
// counter so scenarios can tell a cache hit from a recompile.
type countingCompiler struct {
	inner glslstub.Compiler
	calls atomic.Int64
}

func (c *countingCompiler) Compile(stage, source string) (*glslstub.Compiled, error) {
	c.calls.Add(1)
	return c.inner.Compile(stage, source)
}

// ShaderCacheContext holds state for shader cache scenarios.
type ShaderCacheContext struct {
	tasks    *taskmanager.TaskManager
	driver   gfxstub.Driver
	compiler *countingCompiler
	cache    *shadercache.Cache
	fresh    *shadercache.Cache

	bytecodes [][]byte
}

func InitializeShaderCacheScenario(ctx *godog.ScenarioContext) {
	c := &ShaderCacheContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		if c.tasks != nil {
			c.tasks.Close()
		}
		*c = ShaderCacheContext{}
		return ctx, nil
	})
	ctx.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if c.tasks != nil {
			c.tasks.Close()
			c.tasks = nil
		}
		return ctx, nil
	})

	ctx.Step(`^a shader builder over an empty cache$`, c.aShaderBuilderOverAnEmptyCache)
	ctx.Step(`^I build the "([^"]*)" program with define "([^"]*)=([^"]*)"$`, c.iBuildTheProgramWithDefine)
	ctx.Step(`^I build the "([^"]*)" program with define "([^"]*)=([^"]*)" again$`, c.iBuildTheProgramWithDefine)
	ctx.Step(`^I save the cache and load it into a fresh cache$`, c.iSaveAndLoadIntoFreshCache)
	ctx.Step(`^I build the "([^"]*)" program with define "([^"]*)=([^"]*)" against the fresh cache$`, c.iBuildAgainstTheFreshCache)
	ctx.Step(`^the compiler ran (\d+) times$`, c.theCompilerRanTimes)
	ctx.Step(`^both builds produced the same bytecode$`, c.bothBuildsProducedTheSameBytecode)
}

func (c *ShaderCacheContext) aShaderBuilderOverAnEmptyCache() error {
	c.tasks = taskmanager.New(4)
	c.driver = gfxstub.NewFakeDriver()
	c.compiler = &countingCompiler{inner: glslstub.NewFakeCompiler()}
	c.cache = shadercache.New(c.driver)
	return nil
}

func (c *ShaderCacheContext) bundleFor(class, define, value string) shader.Bundle {
	return shader.Bundle{
		ClassName: class,
		Modules: []shader.ModuleSource{
			{Stage: "vertex", Source: "void main() { gl_Position = pos; }"},
			{Stage: "fragment", Source: "void main() { color = albedo; }"},
		},
		Defines: map[string]string{define: value},
	}
}

func (c *ShaderCacheContext) buildWith(cache *shadercache.Cache, class, define, value string) error {
	includes := shader.NewIncludeResolver("", func(string) ([]byte, error) {
		return nil, fmt.Errorf("no includes in this scenario")
	})
	b := shader.NewBuilder(cache, includes, c.compiler, c.driver, c.tasks)

	built, err := b.Build(c.bundleFor(class, define, value))
	if err != nil {
		return err
	}
	bc, err := built.(*shader.Program).Module().Bytecode()
	if err != nil {
		return err
	}
	c.bytecodes = append(c.bytecodes, bc)
	return nil
}

func (c *ShaderCacheContext) iBuildTheProgramWithDefine(class, define, value string) error {
	return c.buildWith(c.cache, class, define, value)
}

func (c *ShaderCacheContext) iSaveAndLoadIntoFreshCache() error {
	var buf bytes.Buffer
	if err := c.cache.Save(&buf); err != nil {
		return err
	}
	c.fresh = shadercache.New(c.driver)
	return c.fresh.Load(&buf)
}

func (c *ShaderCacheContext) iBuildAgainstTheFreshCache(class, define, value string) error {
	if c.fresh == nil {
		return fmt.Errorf("no fresh cache was loaded")
	}
	return c.buildWith(c.fresh, class, define, value)
}

func (c *ShaderCacheContext) theCompilerRanTimes(count int) error {
	if got := int(c.compiler.calls.Load()); got != count {
		return fmt.Errorf("compiler ran %d times, want %d", got, count)
	}
	return nil
}

func (c *ShaderCacheContext) bothBuildsProducedTheSameBytecode() error {
	if len(c.bytecodes) < 2 {
		return fmt.Errorf("need at least two builds, got %d", len(c.bytecodes))
	}
	first := c.bytecodes[0]
	for i, bc := range c.bytecodes[1:] {
		if !bytes.Equal(first, bc) {
			return fmt.Errorf("build %d produced different bytecode", i+1)
		}
	}
	return nil
}
