package steps

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cucumber/godog"

	"github.com/kestrelengine/assetpipe/internal/application/assetmanager"
	"github.com/kestrelengine/assetpipe/internal/application/eventbus"
	"github.com/kestrelengine/assetpipe/internal/application/taskmanager"
	"github.com/kestrelengine/assetpipe/internal/domain/async"
	"github.com/kestrelengine/assetpipe/internal/domain/asset"
	"github.com/kestrelengine/assetpipe/test/helpers"
)

// AssetPipelineContext holds state for asset loading scenarios.
type AssetPipelineContext struct {
	tasks   *taskmanager.TaskManager
	bus     *eventbus.Bus
	manager *assetmanager.Manager
	pak     *helpers.MemPak
	loader  *helpers.RecordingLoader

	op   async.AsyncResult[*asset.Ref]
	ref  *asset.Ref
	refs []*asset.Ref

	mu        sync.Mutex
	delivered []eventbus.Event
}

func InitializeAssetPipelineScenario(ctx *godog.ScenarioContext) {
	c := &AssetPipelineContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		c.reset()
		return ctx, nil
	})
	ctx.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if c.tasks != nil {
			c.tasks.Close()
			c.tasks = nil
		}
		return ctx, nil
	})

	// Background steps
	ctx.Step(`^an asset pipeline with (\d+) workers$`, c.anAssetPipelineWithWorkers)

	// Given steps
	ctx.Step(`^the pak provides "([^"]*)" with no dependencies$`, c.thePakProvidesWithNoDependencies)
	ctx.Step(`^the pak provides "([^"]*)" depending on "([^"]*)" and "([^"]*)"$`, c.thePakProvidesDependingOn)
	ctx.Step(`^the loader fails for "([^"]*)"$`, c.theLoaderFailsFor)

	// When steps
	ctx.Step(`^I request "([^"]*)" and wait for it to complete$`, c.iRequestAndWait)
	ctx.Step(`^(\d+) goroutines request "([^"]*)" at the same time$`, c.goroutinesRequestAtTheSameTime)
	ctx.Step(`^I request "([^"]*)", drop the reference, and run a garbage collection pass$`, c.iRequestDropAndGC)

	// Then steps
	ctx.Step(`^the request resolves ok$`, c.theRequestResolvesOk)
	ctx.Step(`^the request fails$`, c.theRequestFails)
	ctx.Step(`^the loaded asset is named "([^"]*)"$`, c.theLoadedAssetIsNamed)
	ctx.Step(`^the loader ran (\d+) times? for "([^"]*)"$`, c.theLoaderRanTimesFor)
	ctx.Step(`^every request resolved to the same asset$`, c.everyRequestResolvedToTheSameAsset)
	ctx.Step(`^the loader for "([^"]*)" started after the loader for "([^"]*)" finished$`, c.theLoaderStartedAfterFinished)
	ctx.Step(`^pumping events delivers a loaded notification for "([^"]*)"$`, c.pumpingDeliversLoadedFor)
	ctx.Step(`^pumping events delivers a failed notification for "([^"]*)"$`, c.pumpingDeliversFailedFor)
	ctx.Step(`^"([^"]*)" is no longer findable in the cache$`, c.isNoLongerFindable)
}

func (c *AssetPipelineContext) reset() {
	if c.tasks != nil {
		c.tasks.Close()
	}
	c.tasks = nil
	c.bus = nil
	c.manager = nil
	c.pak = helpers.NewMemPak("mem")
	c.loader = helpers.NewRecordingLoader()
	c.op = async.AsyncResult[*asset.Ref]{}
	c.ref = nil
	c.refs = nil
	c.delivered = nil
}

func (c *AssetPipelineContext) anAssetPipelineWithWorkers(workers int) error {
	c.tasks = taskmanager.New(workers)
	c.bus = eventbus.New()
	c.manager = assetmanager.New(c.tasks, c.bus, nil, nil)
	c.manager.AddPak(c.pak)
	c.bus.Subscribe(func(e eventbus.Event) {
		c.mu.Lock()
		c.delivered = append(c.delivered, e)
		c.mu.Unlock()
	})
	return nil
}

func (c *AssetPipelineContext) thePakProvidesWithNoDependencies(name string) error {
	c.pak.Put(asset.InternID(name), helpers.MetaFor(c.loader))
	return nil
}

func (c *AssetPipelineContext) thePakProvidesDependingOn(name, depA, depB string) error {
	c.pak.Put(asset.InternID(name), helpers.MetaFor(c.loader, depA, depB))
	return nil
}

func (c *AssetPipelineContext) theLoaderFailsFor(name string) error {
	c.loader.FailWith(asset.InternID(name), asset.New(asset.StatusCodeFailedRead, "configured to fail"))
	return nil
}

func (c *AssetPipelineContext) iRequestAndWait(name string) error {
	c.op = c.manager.LoadAsync(asset.InternID(name), nil)
	c.op.WaitCompleted()
	c.ref, _ = c.op.Result()
	return nil
}

func (c *AssetPipelineContext) goroutinesRequestAtTheSameTime(count int, name string) error {
	c.loader.Delay = 20 * time.Millisecond // stretch the load so every request lands in-flight

	id := asset.InternID(name)
	c.refs = make([]*asset.Ref, count)
	var wg sync.WaitGroup
	for i := 0; i < count; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			op := c.manager.LoadAsync(id, nil)
			op.WaitCompleted()
			c.refs[i], _ = op.Result()
		}(i)
	}
	wg.Wait()
	return nil
}

func (c *AssetPipelineContext) iRequestDropAndGC(name string) error {
	id := asset.InternID(name)
	op := c.manager.LoadAsync(id, nil)
	op.WaitCompleted()
	if !op.IsOk() {
		return fmt.Errorf("load of %q failed", name)
	}

	// Drop every strong ref this scenario holds: the handle, and the
	// queued Loaded event (pumped into delivered, then discarded).
	op = async.AsyncResult[*asset.Ref]{}
	c.op = async.AsyncResult[*asset.Ref]{}
	c.ref = nil
	c.bus.Pump()
	c.mu.Lock()
	c.delivered = nil
	c.mu.Unlock()

	c.manager.GC()
	return nil
}

func (c *AssetPipelineContext) theRequestResolvesOk() error {
	if !c.op.IsOk() {
		return fmt.Errorf("request resolved %s, want ok", c.op.Status())
	}
	return nil
}

func (c *AssetPipelineContext) theRequestFails() error {
	if !c.op.IsFailed() {
		return fmt.Errorf("request resolved %s, want failed", c.op.Status())
	}
	return nil
}

func (c *AssetPipelineContext) theLoadedAssetIsNamed(name string) error {
	if c.ref == nil {
		return fmt.Errorf("no asset was loaded")
	}
	if got := c.ref.Asset.Name(); got != asset.InternID(name) {
		return fmt.Errorf("asset is named %q, want %q", got, name)
	}
	return nil
}

func (c *AssetPipelineContext) theLoaderRanTimesFor(count int, name string) error {
	if got := c.loader.Invocations(asset.InternID(name)); got != count {
		return fmt.Errorf("loader ran %d times for %q, want %d", got, name, count)
	}
	return nil
}

func (c *AssetPipelineContext) everyRequestResolvedToTheSameAsset() error {
	if len(c.refs) == 0 {
		return fmt.Errorf("no concurrent requests were made")
	}
	for i, r := range c.refs {
		if r == nil {
			return fmt.Errorf("request %d resolved with no asset", i)
		}
		if r != c.refs[0] {
			return fmt.Errorf("request %d resolved to a different asset pointer", i)
		}
	}
	return nil
}

func (c *AssetPipelineContext) theLoaderStartedAfterFinished(dependent, dep string) error {
	start, ok := c.loader.Started(asset.InternID(dependent))
	if !ok {
		return fmt.Errorf("loader for %q never started", dependent)
	}
	end, ok := c.loader.Finished(asset.InternID(dep))
	if !ok {
		return fmt.Errorf("loader for %q never finished", dep)
	}
	if start.Before(end) {
		return fmt.Errorf("loader for %q started %v before %q finished", dependent, end.Sub(start), dep)
	}
	return nil
}

func (c *AssetPipelineContext) pumpingDeliversLoadedFor(name string) error {
	c.bus.Pump()
	id := asset.InternID(name)
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.delivered {
		if l, ok := e.(eventbus.Loaded); ok && l.ID == id {
			return nil
		}
	}
	return fmt.Errorf("no loaded notification delivered for %q (saw %d events)", name, len(c.delivered))
}

func (c *AssetPipelineContext) pumpingDeliversFailedFor(name string) error {
	c.bus.Pump()
	id := asset.InternID(name)
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.delivered {
		if f, ok := e.(eventbus.FailedLoad); ok && f.ID == id {
			return nil
		}
	}
	return fmt.Errorf("no failed notification delivered for %q (saw %d events)", name, len(c.delivered))
}

func (c *AssetPipelineContext) isNoLongerFindable(name string) error {
	if _, found := c.manager.Find(asset.InternID(name)); found {
		return fmt.Errorf("%q is still findable in the cache", name)
	}
	return nil
}
