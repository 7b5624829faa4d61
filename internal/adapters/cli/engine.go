package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kestrelengine/assetpipe/internal/adapters/classregistry"
	"github.com/kestrelengine/assetpipe/internal/adapters/gfxstub"
	"github.com/kestrelengine/assetpipe/internal/adapters/glslstub"
	"github.com/kestrelengine/assetpipe/internal/adapters/loader/shader"
	"github.com/kestrelengine/assetpipe/internal/adapters/loader/texture"
	"github.com/kestrelengine/assetpipe/internal/adapters/pak/dbpak"
	"github.com/kestrelengine/assetpipe/internal/adapters/pak/fspak"
	"github.com/kestrelengine/assetpipe/internal/adapters/shadercache"
	"github.com/kestrelengine/assetpipe/internal/application/assetmanager"
	"github.com/kestrelengine/assetpipe/internal/application/eventbus"
	"github.com/kestrelengine/assetpipe/internal/application/taskmanager"
	"github.com/kestrelengine/assetpipe/internal/domain/asset"
	"github.com/kestrelengine/assetpipe/internal/infrastructure/config"
	"github.com/kestrelengine/assetpipe/internal/infrastructure/logging"
)

// Engine is the composition root every subcommand builds: the worker
// pool, event bus, class registry, asset manager, shader cache and the
// paks named in the configuration, wired together the same way the
// host engine wires them at startup.
type Engine struct {
	Config      *config.Config
	Registry    *classregistry.Registry
	Tasks       *taskmanager.TaskManager
	Events      *eventbus.Bus
	Manager     *assetmanager.Manager
	ShaderCache *shadercache.Cache
	Driver      gfxstub.Driver
}

// decodeRaw stands in for the host engine's image codec, which the
// pipeline treats as an external pure function. It passes the source
// bytes through as a single-row pixel payload.
func decodeRaw(data []byte, channels int) (texture.Image, error) {
	if channels <= 0 {
		channels = 4
	}
	if len(data)%channels != 0 {
		return texture.Image{}, fmt.Errorf("payload of %d bytes is not a whole number of %d-channel pixels", len(data), channels)
	}
	return texture.Image{Width: len(data) / channels, Height: 1, Channels: channels, Pixels: data}, nil
}

// NewEngine builds and wires every component from cfg. The returned
// engine owns the worker pool; callers must Close it.
func NewEngine(cfg *config.Config) (*Engine, error) {
	var logger assetmanager.Logger
	if verbose {
		logger = logging.NewStdLogger()
	}

	tasks := taskmanager.New(cfg.Workers.Count)
	events := eventbus.New()
	registry := classregistry.New()
	manager := assetmanager.New(tasks, events, registry, logger)

	driver := gfxstub.NewFakeDriver()
	cache := shadercache.New(driver)
	if f, err := os.Open(cfg.Shaders.CachePath); err == nil {
		loadErr := cache.Load(f)
		f.Close()
		if loadErr != nil {
			tasks.Close()
			return nil, fmt.Errorf("failed to load shader cache %s: %w", cfg.Shaders.CachePath, loadErr)
		}
	}

	includes := shader.NewIncludeResolver(cfg.Shaders.SourceRoot, os.ReadFile)
	builder := shader.NewBuilder(cache, includes, glslstub.NewFakeCompiler(), driver, tasks)

	registry.RegisterClass("texture_2d", &asset.ClassDescriptor{Name: "texture_2d"})
	registry.RegisterClass("shader_program", &asset.ClassDescriptor{Name: "shader_program"})
	manager.AddLoader("tex2d", texture.New(decodeRaw, os.ReadFile))
	manager.AddLoader("shader_program", builder)

	for _, root := range cfg.Paks.FSRoots {
		manager.AddPak(fspak.New("fs:"+filepath.Base(root), root, registry, cfg.Paks.IOQPS))
	}
	if cfg.Paks.DBDSN != "" {
		db, err := gorm.Open(sqlite.Open(cfg.Paks.DBDSN), &gorm.Config{})
		if err != nil {
			tasks.Close()
			return nil, fmt.Errorf("failed to open asset database: %w", err)
		}
		if err := dbpak.Migrate(db); err != nil {
			tasks.Close()
			return nil, fmt.Errorf("failed to migrate asset database: %w", err)
		}
		manager.AddPak(dbpak.New("db", db, registry))
	}

	return &Engine{
		Config:      cfg,
		Registry:    registry,
		Tasks:       tasks,
		Events:      events,
		Manager:     manager,
		ShaderCache: cache,
		Driver:      driver,
	}, nil
}

// SaveShaderCache persists the shader cache to the configured path,
// creating parent directories as needed.
func (e *Engine) SaveShaderCache() error {
	if err := os.MkdirAll(filepath.Dir(e.Config.Shaders.CachePath), 0o755); err != nil {
		return err
	}
	f, err := os.Create(e.Config.Shaders.CachePath)
	if err != nil {
		return err
	}
	defer f.Close()
	return e.ShaderCache.Save(f)
}

// Close drains the worker pool. Queued tasks run out; nothing is
// cancelled.
func (e *Engine) Close() {
	e.Tasks.Close()
}
