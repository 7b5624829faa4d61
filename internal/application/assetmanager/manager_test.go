package assetmanager_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelengine/assetpipe/internal/adapters/classregistry"
	"github.com/kestrelengine/assetpipe/internal/application/assetmanager"
	"github.com/kestrelengine/assetpipe/internal/application/eventbus"
	"github.com/kestrelengine/assetpipe/internal/application/taskmanager"
	"github.com/kestrelengine/assetpipe/internal/domain/async"
	"github.com/kestrelengine/assetpipe/internal/domain/asset"
	"github.com/kestrelengine/assetpipe/test/helpers"
)

type fixture struct {
	tasks   *taskmanager.TaskManager
	bus     *eventbus.Bus
	manager *assetmanager.Manager
	pak     *helpers.MemPak
	loader  *helpers.RecordingLoader
}

func newFixture(t *testing.T, workers int) *fixture {
	t.Helper()
	f := &fixture{
		tasks:  taskmanager.New(workers),
		bus:    eventbus.New(),
		pak:    helpers.NewMemPak("mem"),
		loader: helpers.NewRecordingLoader(),
	}
	f.manager = assetmanager.New(f.tasks, f.bus, nil, nil)
	f.manager.AddPak(f.pak)
	t.Cleanup(f.tasks.Close)
	return f
}

// pumped drains the bus and returns everything delivered so far.
func (f *fixture) pumped() []eventbus.Event {
	var events []eventbus.Event
	var mu sync.Mutex
	f.bus.Subscribe(func(e eventbus.Event) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	})
	f.bus.Pump()
	return events
}

func TestLoadAsync_SimpleLoad(t *testing.T) {
	// Arrange
	f := newFixture(t, 4)
	id := asset.InternID("a")
	f.pak.Put(id, helpers.MetaFor(f.loader))

	// Act
	op := f.manager.LoadAsync(id, nil)
	op.WaitCompleted()

	// Assert
	require.True(t, op.IsOk())
	ref, ok := op.Result()
	require.True(t, ok)
	assert.Same(t, id, ref.Asset.Name(), "manager must stamp the asset's name")
	assert.Equal(t, 1, f.loader.Invocations(id))

	events := f.pumped()
	require.Len(t, events, 1)
	loaded, ok := events[0].(eventbus.Loaded)
	require.True(t, ok)
	assert.Same(t, id, loaded.ID)
	assert.Same(t, ref, loaded.Ref)
}

func TestLoadAsync_ConcurrentRequestsCoalesce(t *testing.T) {
	// Arrange
	f := newFixture(t, 4)
	f.loader.Delay = 20 * time.Millisecond
	id := asset.InternID("a")
	f.pak.Put(id, helpers.MetaFor(f.loader))

	// Act: 16 goroutines request the same id before any completes.
	const n = 16
	refs := make([]*asset.Ref, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			op := f.manager.LoadAsync(id, nil)
			op.WaitCompleted()
			refs[i], _ = op.Result()
		}(i)
	}
	wg.Wait()

	// Assert: one loader invocation, every handle sees the same pointer.
	assert.Equal(t, 1, f.loader.Invocations(id))
	for i := 1; i < n; i++ {
		require.NotNil(t, refs[i])
		assert.Same(t, refs[0], refs[i])
	}
}

func TestLoadAsync_CacheHitReturnsSamePointer(t *testing.T) {
	// Arrange
	f := newFixture(t, 2)
	id := asset.InternID("a")
	f.pak.Put(id, helpers.MetaFor(f.loader))

	ref, ok := f.manager.Load(id)
	require.True(t, ok)

	// Act: a second request while ref is still strongly held.
	op := f.manager.LoadAsync(id, nil)

	// Assert: immediately completed, pointer-equal, no second invocation.
	require.True(t, op.IsCompleted())
	again, _ := op.Result()
	assert.Same(t, ref, again)
	assert.Equal(t, 1, f.loader.Invocations(id))
}

func TestLoadAsync_DependenciesCompleteFirst(t *testing.T) {
	// Arrange
	f := newFixture(t, 4)
	f.loader.Delay = 10 * time.Millisecond
	albedo := asset.InternID("tex_albedo")
	normal := asset.InternID("tex_normal")
	mat := asset.InternID("mat")
	f.pak.Put(albedo, helpers.MetaFor(f.loader))
	f.pak.Put(normal, helpers.MetaFor(f.loader))
	f.pak.Put(mat, helpers.MetaFor(f.loader, "tex_albedo", "tex_normal"))

	// Act
	op := f.manager.LoadAsync(mat, nil)
	op.WaitCompleted()

	// Assert
	require.True(t, op.IsOk())
	matStart, ok := f.loader.Started(mat)
	require.True(t, ok)
	for _, dep := range []*asset.ID{albedo, normal} {
		depEnd, ok := f.loader.Finished(dep)
		require.True(t, ok, "dep %s must have finished", dep)
		assert.False(t, matStart.Before(depEnd), "mat's loader started before %s finished", dep)
	}
}

func TestLoadAsync_DependencyFailurePropagates(t *testing.T) {
	// Arrange
	f := newFixture(t, 4)
	albedo := asset.InternID("tex_albedo")
	normal := asset.InternID("tex_normal")
	mat := asset.InternID("mat")
	f.pak.Put(albedo, helpers.MetaFor(f.loader))
	f.pak.Put(normal, helpers.MetaFor(f.loader))
	f.pak.Put(mat, helpers.MetaFor(f.loader, "tex_albedo", "tex_normal"))
	f.loader.FailWith(albedo, asset.New(asset.StatusCodeFailedRead, "disk on fire"))

	// Act
	op := f.manager.LoadAsync(mat, nil)
	op.WaitCompleted()

	// Assert
	assert.True(t, op.IsFailed())
	assert.Equal(t, 0, f.loader.Invocations(mat), "mat's loader must never run")

	var failedIDs []*asset.ID
	for _, e := range f.pumped() {
		if fl, ok := e.(eventbus.FailedLoad); ok {
			failedIDs = append(failedIDs, fl.ID)
		}
	}
	assert.Contains(t, failedIDs, albedo)
	assert.Contains(t, failedIDs, mat)
}

func TestLoadAsync_MetaMissFailsImmediately(t *testing.T) {
	// Arrange
	f := newFixture(t, 1)

	// Act: cb must fire synchronously with the already-failed status.
	var cbStatus async.Status = async.StatusInProcess
	op := f.manager.LoadAsync(asset.InternID("nobody-has-this"), func(s async.Status, _ *asset.Ref) {
		cbStatus = s
	})

	// Assert
	assert.True(t, op.IsFailed())
	assert.Equal(t, async.StatusFailed, cbStatus)
}

func TestLoadAsync_CallbackOnCompletedLoadFiresSynchronously(t *testing.T) {
	// Arrange
	f := newFixture(t, 2)
	id := asset.InternID("a")
	f.pak.Put(id, helpers.MetaFor(f.loader))
	ref, ok := f.manager.Load(id)
	require.True(t, ok)

	// Act
	var got *asset.Ref
	f.manager.LoadAsync(id, func(s async.Status, r *asset.Ref) { got = r })

	// Assert
	assert.Same(t, ref, got)
}

func TestLoad_ReturnsFalseOnFailure(t *testing.T) {
	f := newFixture(t, 1)
	id := asset.InternID("bad")
	f.pak.Put(id, helpers.MetaFor(f.loader))
	f.loader.FailWith(id, asset.New(asset.StatusCodeFailedParse, "garbage"))

	ref, ok := f.manager.Load(id)

	assert.False(t, ok)
	assert.Nil(t, ref)
}

func TestGC_EvictsAssetsWithNoStrongRefs(t *testing.T) {
	// Arrange
	f := newFixture(t, 2)
	id := asset.InternID("a")
	f.pak.Put(id, helpers.MetaFor(f.loader))

	// Load in a helper so the only strong refs die with its frame. The
	// queued Loaded event also holds one until the bus is pumped.
	func() {
		_, ok := f.manager.Load(id)
		require.True(t, ok)
	}()
	f.bus.Pump()

	// Act
	f.manager.GC()

	// Assert: evicted, and a fresh request rebuilds.
	_, found := f.manager.Find(id)
	assert.False(t, found)

	_, ok := f.manager.Load(id)
	require.True(t, ok)
	assert.Equal(t, 2, f.loader.Invocations(id))
}

func TestGC_KeepsStronglyHeldAssets(t *testing.T) {
	// Arrange
	f := newFixture(t, 2)
	id := asset.InternID("a")
	f.pak.Put(id, helpers.MetaFor(f.loader))
	ref, ok := f.manager.Load(id)
	require.True(t, ok)
	f.bus.Pump()

	// Act
	f.manager.GC()

	// Assert
	found, stillThere := f.manager.Find(id)
	assert.True(t, stillThere)
	assert.Same(t, ref, found)
}

func TestClear_ForgetsWeakEntriesOnly(t *testing.T) {
	f := newFixture(t, 2)
	id := asset.InternID("a")
	f.pak.Put(id, helpers.MetaFor(f.loader))
	ref, ok := f.manager.Load(id)
	require.True(t, ok)

	f.manager.Clear()

	_, found := f.manager.Find(id)
	assert.False(t, found)
	// The asset itself is untouched; only the cache forgot it.
	assert.Same(t, id, ref.Asset.Name())
}

func TestAddLoader_RegistersThroughSharedRegistry(t *testing.T) {
	// Arrange
	reg := classregistry.New()
	tasks := taskmanager.New(1)
	defer tasks.Close()
	m := assetmanager.New(tasks, eventbus.New(), reg, nil)
	loader := helpers.NewRecordingLoader()

	// Act
	m.AddLoader("tex2d", loader)

	// Assert: paks resolving through the registry see the registration.
	got, ok := reg.FindLoader("tex2d")
	require.True(t, ok)
	assert.Same(t, asset.Loader(loader), got)
}
