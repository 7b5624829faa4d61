// Package gfxstub is the boundary to the GPU driver, cut at the
// shader-module level; the device/queue/descriptor machinery below it
// belongs to the host engine. Module and Driver are the narrow surface
// the shader cache and builder need; the fake implementation here is
// deterministic so bytecode round trips are directly assertable in
// tests.
package gfxstub

import (
	"bytes"
	"sort"
)

// Module is a compiled, GPU-resident shader module (or, in the fake, a
// content-addressed stand-in for one).
type Module interface {
	Name() string
	Bytecode() ([]byte, error)
}

// Driver is the subset of the GPU backend the shader cache and builder
// depend on: turning saved bytecode back into a Module, and assembling a
// fresh Module from per-stage compiled bytecode.
type Driver interface {
	UploadBytecode(name string, bytecode []byte) (Module, error)
	CreateModule(name string, stageBytecode map[string][]byte) (Module, error)
}

type fakeModule struct {
	name     string
	bytecode []byte
}

func (m *fakeModule) Name() string               { return m.name }
func (m *fakeModule) Bytecode() ([]byte, error)   { return m.bytecode, nil }

// FakeDriver is an in-memory Driver with no real GPU backing. Uploading
// bytecode simply wraps it; creating a module concatenates the sorted
// per-stage bytecode, so the same stage set always produces the same
// bytecode hash regardless of map iteration order.
type FakeDriver struct{}

func NewFakeDriver() *FakeDriver { return &FakeDriver{} }

func (d *FakeDriver) UploadBytecode(name string, bytecode []byte) (Module, error) {
	cp := make([]byte, len(bytecode))
	copy(cp, bytecode)
	return &fakeModule{name: name, bytecode: cp}, nil
}

func (d *FakeDriver) CreateModule(name string, stageBytecode map[string][]byte) (Module, error) {
	stages := make([]string, 0, len(stageBytecode))
	for stage := range stageBytecode {
		stages = append(stages, stage)
	}
	sort.Strings(stages)

	var buf bytes.Buffer
	for _, stage := range stages {
		buf.WriteString(stage)
		buf.WriteByte(0)
		buf.Write(stageBytecode[stage])
	}
	return &fakeModule{name: name, bytecode: buf.Bytes()}, nil
}
