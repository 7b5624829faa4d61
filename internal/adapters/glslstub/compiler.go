// Package glslstub is the embedded GLSL→SPIR-V compiler the shader
// builder drives. Like gfxstub, a real implementation is out of scope;
// the fake compiler here produces a deterministic digest per stage so
// compile failures and cache-key inputs are exercisable in tests without
// a real shader toolchain.
package glslstub

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// Compiled is one compiled shader stage.
type Compiled struct {
	Stage    string
	Bytecode []byte
}

// Compiler turns GLSL source for a single stage into compiled bytecode.
type Compiler interface {
	Compile(stage, source string) (*Compiled, error)
}

// FakeCompiler treats empty (or whitespace-only) source as a compile
// error, and otherwise hashes stage+source into a stand-in bytecode blob.
type FakeCompiler struct{}

func NewFakeCompiler() *FakeCompiler { return &FakeCompiler{} }

func (c *FakeCompiler) Compile(stage, source string) (*Compiled, error) {
	if strings.TrimSpace(source) == "" {
		return nil, fmt.Errorf("glslstub: empty source for stage %q", stage)
	}
	sum := sha256.Sum256([]byte(stage + "\x00" + source))
	return &Compiled{Stage: stage, Bytecode: sum[:]}, nil
}
