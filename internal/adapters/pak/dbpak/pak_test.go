package dbpak_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kestrelengine/assetpipe/internal/adapters/classregistry"
	"github.com/kestrelengine/assetpipe/internal/adapters/pak/dbpak"
	"github.com/kestrelengine/assetpipe/internal/domain/asset"
)

type fakeLoader struct{}

func (fakeLoader) Load(*asset.ID, asset.Meta) (asset.Asset, error) { return nil, nil }

func newTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, dbpak.Migrate(db))
	return db
}

func TestGetMeta_Success(t *testing.T) {
	// Arrange
	db := newTestDB(t)
	reg := classregistry.New()
	reg.RegisterClass("texture_2d", &asset.ClassDescriptor{Name: "texture_2d"})
	reg.RegisterLoader("tex2d", fakeLoader{})

	id := asset.InternID("a")
	require.NoError(t, dbpak.Put(db, id, "texture_2d", "tex2d", []string{"b", "c"}, map[string]any{"source_file": "a.png"}))

	p := dbpak.New("db", db, reg)

	// Act
	meta, err := p.GetMeta(id)

	// Assert
	require.NoError(t, err)
	require.NoError(t, meta.Validate())
	assert.Equal(t, "texture_2d", meta.Class.Name)
	assert.Len(t, meta.Deps, 2)
	assert.Equal(t, "a.png", meta.ImportOptions["source_file"])
}

func TestGetMeta_NotFound(t *testing.T) {
	db := newTestDB(t)
	reg := classregistry.New()
	p := dbpak.New("db", db, reg)

	_, err := p.GetMeta(asset.InternID("missing"))

	assert.Equal(t, asset.StatusCodeNotFound, asset.CodeOf(err))
}

func TestGetMeta_UnknownLoaderIsInvalidData(t *testing.T) {
	db := newTestDB(t)
	reg := classregistry.New()
	reg.RegisterClass("texture_2d", &asset.ClassDescriptor{Name: "texture_2d"})

	id := asset.InternID("a")
	require.NoError(t, dbpak.Put(db, id, "texture_2d", "missing_loader", nil, nil))

	p := dbpak.New("db", db, reg)

	_, err := p.GetMeta(id)

	assert.Equal(t, asset.StatusCodeInvalidData, asset.CodeOf(err))
}

func TestGetMeta_NoDepsOrParams(t *testing.T) {
	db := newTestDB(t)
	reg := classregistry.New()
	reg.RegisterClass("texture_2d", &asset.ClassDescriptor{Name: "texture_2d"})
	reg.RegisterLoader("tex2d", fakeLoader{})

	id := asset.InternID("solo")
	require.NoError(t, dbpak.Put(db, id, "texture_2d", "tex2d", nil, nil))

	p := dbpak.New("db", db, reg)

	meta, err := p.GetMeta(id)

	require.NoError(t, err)
	assert.Empty(t, meta.Deps)
	assert.Empty(t, meta.ImportOptions)
}
