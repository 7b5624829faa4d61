// Package shadercache implements the two-tiered compiled-shader cache:
// an in-memory gfx module tier backed by a persisted bytecode tier,
// with lazy GPU upload on first lookup after a load.
package shadercache

import (
	"io"
	"sync"

	"github.com/kestrelengine/assetpipe/internal/adapters/gfxstub"
)

// entry holds one compiled permutation. At least one of module and
// bytecode is always populated.
type entry struct {
	name     string
	module   gfxstub.Module
	bytecode []byte
}

// Cache is the shader program builder's backing store. Its mutex is
// independent of the asset manager's.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	driver  gfxstub.Driver
}

func New(driver gfxstub.Driver) *Cache {
	return &Cache{entries: make(map[string]*entry), driver: driver}
}

// Find looks up key. A live module is returned directly; bytecode-only
// entries are uploaded to the driver on first lookup and the resulting
// module is cached in place. A miss (or an upload failure) returns false.
func (c *Cache) Find(key string) (gfxstub.Module, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if e.module != nil {
		return e.module, true
	}
	if e.bytecode == nil {
		return nil, false
	}
	mod, err := c.driver.UploadBytecode(e.name, e.bytecode)
	if err != nil {
		return nil, false
	}
	e.module = mod
	return mod, true
}

// Cache stores module under key, with name as its display name. Bytecode
// is not extracted until Save.
func (c *Cache) Cache(key, name string, module gfxstub.Module) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &entry{name: name, module: module}
}

// Save extracts bytecode from every module that doesn't already have it,
// drops entries whose module can't yield bytecode, and writes the
// remaining records to w.
func (c *Cache) Save(w io.Writer) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	records := make([]record, 0, len(c.entries))
	for key, e := range c.entries {
		if e.bytecode == nil {
			if e.module == nil {
				delete(c.entries, key)
				continue
			}
			bc, err := e.module.Bytecode()
			if err != nil || bc == nil {
				delete(c.entries, key)
				continue
			}
			e.bytecode = bc
		}
		records = append(records, record{Key: key, Name: e.name, Bytecode: e.bytecode})
	}

	_, err := w.Write(encodeRecords(records))
	return err
}

// Load replaces the in-memory map with the records read from r. Modules
// are not materialized until the next Find.
func (c *Cache) Load(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	records, err := decodeRecords(data)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry, len(records))
	for _, rec := range records {
		c.entries[rec.Key] = &entry{name: rec.Name, bytecode: rec.Bytecode}
	}
	return nil
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
}

// Info is a diagnostic snapshot used by the CLI's "cache info" command.
type Info struct {
	Entries       int
	BytecodeBytes int
}

func (c *Cache) Info() Info {
	c.mu.Lock()
	defer c.mu.Unlock()
	info := Info{Entries: len(c.entries)}
	for _, e := range c.entries {
		info.BytecodeBytes += len(e.bytecode)
	}
	return info
}
