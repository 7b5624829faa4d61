// Package assetmanager implements the request dedup, dependency-aware
// scheduling, weak-reference cache and eviction described for the asset
// manager: the component that turns a stream of LoadAsync calls into a
// minimal set of loader invocations.
package assetmanager

import (
	"runtime"
	"sync"
	"time"
	"weak"

	"github.com/google/uuid"

	"github.com/kestrelengine/assetpipe/internal/application/eventbus"
	"github.com/kestrelengine/assetpipe/internal/application/taskmanager"
	"github.com/kestrelengine/assetpipe/internal/domain/async"
	"github.com/kestrelengine/assetpipe/internal/domain/asset"
	"github.com/kestrelengine/assetpipe/internal/domain/task"
)

// Logger is the narrow sink loaders and the manager log through. Callers
// supply the concrete backend; see infrastructure/logging.
type Logger interface {
	Log(level, message string, fields map[string]any)
}

type noopLogger struct{}

func (noopLogger) Log(string, string, map[string]any) {}

// LoaderRegistrar is where AddLoader registrations land: the shared
// class/loader registry the paks resolve symbolic loader names through.
// Routing registration through the manager keeps one source of truth
// between "what the manager accepts" and "what a pak can resolve".
type LoaderRegistrar interface {
	RegisterLoader(name string, loader asset.Loader)
}

// LoadState is the per-in-flight-id bookkeeping record: presence in
// Manager.loading is the dedup key.
type LoadState struct {
	Deps    []async.Async
	AsyncOp async.AsyncResult[*asset.Ref]
	TaskHnd task.Handle
}

// Manager is the asset manager. Its cache maps an asset ID to a weak
// pointer at a *asset.Ref; the dep-collection phase releases the manager's
// own mutex before recursing into LoadAsync for each dependency, so no
// reentrant mutex is needed.
type Manager struct {
	mu      sync.Mutex
	cache   map[*asset.ID]weak.Pointer[asset.Ref]
	loading map[*asset.ID]*LoadState
	paks    []asset.Pak

	registrar LoaderRegistrar
	tasks     *taskmanager.TaskManager
	events    *eventbus.Bus
	log       Logger
}

// New builds a manager that schedules loader tasks onto tasks and
// publishes lifecycle events onto events. A nil logger installs a no-op;
// a nil registrar makes AddLoader a no-op for managers whose paks bind
// loaders some other way.
func New(tasks *taskmanager.TaskManager, events *eventbus.Bus, registrar LoaderRegistrar, log Logger) *Manager {
	if log == nil {
		log = noopLogger{}
	}
	return &Manager{
		cache:     make(map[*asset.ID]weak.Pointer[asset.Ref]),
		loading:   make(map[*asset.ID]*LoadState),
		registrar: registrar,
		tasks:     tasks,
		events:    events,
		log:       log,
	}
}

// AddPak registers pak. Paks are consulted in registration order.
func (m *Manager) AddPak(pak asset.Pak) {
	m.mu.Lock()
	m.paks = append(m.paks, pak)
	m.mu.Unlock()
}

// AddLoader registers loader under name, the symbolic key a pak's
// descriptor names and resolves through the shared registry.
func (m *Manager) AddLoader(name string, loader asset.Loader) {
	if m.registrar != nil {
		m.registrar.RegisterLoader(name, loader)
	}
}

// Find is a non-blocking cache probe: it upgrades the weak ref if the
// asset is still strongly held somewhere, without touching the loading
// map or invoking any loader.
func (m *Manager) Find(id *asset.ID) (*asset.Ref, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wp, ok := m.cache[id]
	if !ok {
		return nil, false
	}
	r := wp.Value()
	if r == nil {
		delete(m.cache, id)
		return nil, false
	}
	return r, true
}

// Load is a blocking convenience wrapper around LoadAsync.
func (m *Manager) Load(id *asset.ID) (*asset.Ref, bool) {
	op := m.LoadAsync(id, nil)
	op.WaitCompleted()
	return op.Result()
}

// LoadAsync issues or joins a load for id. If cb is non-nil it is
// registered on the returned handle (firing synchronously if the handle
// is already terminal, per the async package's late-registration rule).
func (m *Manager) LoadAsync(id *asset.ID, cb func(async.Status, *asset.Ref)) async.AsyncResult[*asset.Ref] {
	m.mu.Lock()

	if op, ok := m.cacheHitLocked(id); ok {
		m.mu.Unlock()
		op.AddOnCompletion(cb)
		return op
	}
	if ls, ok := m.loading[id]; ok {
		op := ls.AsyncOp
		m.mu.Unlock()
		op.AddOnCompletion(cb)
		return op
	}

	meta, err := m.resolveMetaLocked(id)
	if err != nil {
		m.mu.Unlock()
		m.log.Log("error", "meta resolution failed", map[string]any{"id": id.String(), "err": err.Error()})
		op := async.NewAsyncResult[*asset.Ref]()
		op.SetFailed()
		op.AddOnCompletion(cb)
		return op
	}
	depIDs := append([]*asset.ID(nil), meta.Deps...)
	m.mu.Unlock()

	// Recurse to load each dependency without holding our own lock.
	// Concurrent callers may race us to id below; we re-check.
	deps := make([]async.Async, 0, len(depIDs))
	for _, depID := range depIDs {
		deps = append(deps, m.LoadAsync(depID, nil).AsAsync())
	}

	m.mu.Lock()
	if op, ok := m.cacheHitLocked(id); ok {
		m.mu.Unlock()
		op.AddOnCompletion(cb)
		return op
	}
	if ls, ok := m.loading[id]; ok {
		op := ls.AsyncOp
		m.mu.Unlock()
		op.AddOnCompletion(cb)
		return op
	}

	asyncOp := async.NewAsyncResult[*asset.Ref]()
	ls := &LoadState{Deps: deps, AsyncOp: asyncOp}
	m.loading[id] = ls
	m.mu.Unlock()

	// Schedule and register the cleanup callback without holding m.mu: a
	// dependency that has already failed makes the handle terminal inside
	// ScheduleAfter, which fires the callback synchronously on this
	// goroutine, and the callback needs the lock itself.
	loadID := uuid.New()
	t := task.New(id.String()+"#"+loadID.String(), m.newLoadRunnable(id, meta, asyncOp))
	handle := m.tasks.ScheduleAfter(t, async.Join(deps))

	m.mu.Lock()
	ls.TaskHnd = handle
	m.mu.Unlock()

	handle.AddOnCompletion(func(status async.Status, _ int) {
		if status == async.StatusFailed {
			m.events.Publish(eventbus.FailedLoad{ID: id})
			asyncOp.SetFailed()
		}
		m.mu.Lock()
		if cur, ok := m.loading[id]; ok && cur == ls {
			delete(m.loading, id)
		}
		m.mu.Unlock()
	})

	asyncOp.AddOnCompletion(cb)
	return asyncOp
}

// cacheHitLocked must be called with m.mu held. It returns an
// already-resolved handle on a live cache hit, cleaning up a stale weak
// entry otherwise.
func (m *Manager) cacheHitLocked(id *asset.ID) (async.AsyncResult[*asset.Ref], bool) {
	wp, ok := m.cache[id]
	if !ok {
		return async.AsyncResult[*asset.Ref]{}, false
	}
	r := wp.Value()
	if r == nil {
		delete(m.cache, id)
		return async.AsyncResult[*asset.Ref]{}, false
	}
	op := async.NewAsyncResult[*asset.Ref]()
	op.SetResult(r)
	return op, true
}

// resolveMetaLocked must be called with m.mu held; it only reads the pak
// list, never recurses into LoadAsync, so it needs no special treatment
// for reentrancy.
func (m *Manager) resolveMetaLocked(id *asset.ID) (asset.Meta, error) {
	for _, pak := range m.paks {
		meta, err := pak.GetMeta(id)
		if err != nil {
			continue
		}
		if verr := meta.Validate(); verr != nil {
			m.log.Log("error", "pak produced an unusable meta", map[string]any{
				"id": id.String(), "pak": pak.Name(), "err": verr.Error(),
			})
			continue
		}
		return meta, nil
	}
	return asset.Meta{}, asset.New(asset.StatusCodeNotFound, "no pak provided meta for "+id.String())
}

// newLoadRunnable builds the task.Runnable that actually invokes the
// loader, stamps the asset's name, publishes the Loaded event, writes the
// weak cache entry and resolves asyncOp: the body of the "new request"
// branch of the request flow.
func (m *Manager) newLoadRunnable(id *asset.ID, meta asset.Meta, asyncOp async.AsyncResult[*asset.Ref]) task.Runnable {
	return func(ctx *task.Context) int {
		started := time.Now()
		built, err := meta.Loader.Load(id, meta)
		if err != nil {
			m.log.Log("error", "loader failed", map[string]any{
				"id": id.String(), "err": err.Error(), "elapsed_ms": time.Since(started).Milliseconds(),
			})
			return 1
		}
		built.SetNameIfEmpty(id)
		ref := &asset.Ref{Asset: built}

		m.events.Publish(eventbus.Loaded{ID: id, Ref: ref})

		m.mu.Lock()
		m.cache[id] = weak.Make(ref)
		m.mu.Unlock()

		asyncOp.SetResult(ref)
		m.log.Log("info", "asset loaded", map[string]any{
			"id": id.String(), "elapsed_ms": time.Since(started).Milliseconds(),
		})
		return 0
	}
}

// GC performs a single-pass eviction of cache entries whose only strong
// referent was the cache itself. It forces a garbage collection cycle so
// that weak pointers reflect current reachability, then drops every entry
// that no longer resolves. It is intended for coarse boundaries (scene
// change, streaming chunk rotation), not a hot path.
func (m *Manager) GC() {
	runtime.GC()

	m.mu.Lock()
	defer m.mu.Unlock()
	for id, wp := range m.cache {
		if wp.Value() == nil {
			delete(m.cache, id)
		}
	}
}

// Cached reports how many weak entries the cache currently holds, live or
// dead. Diagnostic only; the count includes entries a future GC would
// evict.
func (m *Manager) Cached() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.cache)
}

// Clear drops every weak cache entry. It does not free assets currently
// strongly held elsewhere; it simply forgets the cache's own pointers to
// them.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache = make(map[*asset.ID]weak.Pointer[asset.Ref])
}
