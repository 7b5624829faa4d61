package fspak_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelengine/assetpipe/internal/adapters/classregistry"
	"github.com/kestrelengine/assetpipe/internal/adapters/pak/fspak"
	"github.com/kestrelengine/assetpipe/internal/domain/asset"
)

type fakeLoader struct{}

func (fakeLoader) Load(*asset.ID, asset.Meta) (asset.Asset, error) { return nil, nil }

func TestGetMeta_Success(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.asset.yaml"), []byte(`
class: texture_2d
loader: tex2d
deps: ["b", "c"]
params:
  source_file: a.png
`), 0o644))

	reg := classregistry.New()
	reg.RegisterClass("texture_2d", &asset.ClassDescriptor{Name: "texture_2d"})
	reg.RegisterLoader("tex2d", fakeLoader{})

	p := fspak.New("fs", dir, reg, 0)

	// Act
	meta, err := p.GetMeta(asset.InternID("a"))

	// Assert
	require.NoError(t, err)
	require.NoError(t, meta.Validate())
	assert.Equal(t, "texture_2d", meta.Class.Name)
	assert.Len(t, meta.Deps, 2)
	assert.Equal(t, "a.png", meta.ImportOptions["source_file"])
}

func TestGetMeta_NotFound(t *testing.T) {
	dir := t.TempDir()
	reg := classregistry.New()
	p := fspak.New("fs", dir, reg, 0)

	_, err := p.GetMeta(asset.InternID("missing"))

	assert.Equal(t, asset.StatusCodeNotFound, asset.CodeOf(err))
}

func TestGetMeta_UnknownClassIsInvalidData(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.asset.yaml"), []byte(`
class: nope
loader: tex2d
`), 0o644))
	reg := classregistry.New()
	reg.RegisterLoader("tex2d", fakeLoader{})
	p := fspak.New("fs", dir, reg, 0)

	_, err := p.GetMeta(asset.InternID("a"))

	assert.Equal(t, asset.StatusCodeInvalidData, asset.CodeOf(err))
}
