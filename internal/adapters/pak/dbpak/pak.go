// Package dbpak is an AssetPak backed by a relational table instead of
// per-asset files on disk, for dev-build setups where asset metadata is
// indexed in a database. Rows carry the same class/loader/deps/params
// shape fspak reads out of YAML, resolved through the same
// classregistry.Registry.
package dbpak

import (
	"encoding/json"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/kestrelengine/assetpipe/internal/adapters/classregistry"
	"github.com/kestrelengine/assetpipe/internal/domain/asset"
)

// AssetRow is the gorm model backing one asset's descriptor. Deps is
// comma-joined and Params is JSON-encoded rather than normalized into
// their own tables; one row fully describes one asset.
type AssetRow struct {
	ID     string `gorm:"primaryKey"`
	Class  string
	Loader string
	Deps   string
	Params string
}

func (AssetRow) TableName() string { return "asset_rows" }

// Migrate creates or updates the asset_rows table. Callers run it once
// against a fresh *gorm.DB before constructing a Pak.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&AssetRow{})
}

// Pak reads asset descriptors from a gorm-backed table, resolving class
// and loader names through registry the same way fspak does.
type Pak struct {
	name     string
	db       *gorm.DB
	registry *classregistry.Registry
}

func New(name string, db *gorm.DB, registry *classregistry.Registry) *Pak {
	return &Pak{name: name, db: db, registry: registry}
}

func (p *Pak) Name() string { return p.name }

func (p *Pak) GetMeta(id *asset.ID) (asset.Meta, error) {
	var row AssetRow
	err := p.db.Where("id = ?", id.String()).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return asset.Meta{}, asset.New(asset.StatusCodeNotFound, id.String())
	}
	if err != nil {
		return asset.Meta{}, asset.New(asset.StatusCodeFailedRead, err.Error())
	}

	classDesc, ok := p.registry.FindClass(row.Class)
	if !ok {
		return asset.Meta{}, asset.New(asset.StatusCodeInvalidData, "unknown class "+row.Class)
	}
	loaderImpl, ok := p.registry.FindLoader(row.Loader)
	if !ok {
		return asset.Meta{}, asset.New(asset.StatusCodeInvalidData, "unknown loader "+row.Loader)
	}

	var deps []*asset.ID
	for _, name := range strings.Split(row.Deps, ",") {
		if name == "" {
			continue
		}
		deps = append(deps, asset.InternID(name))
	}

	var params map[string]any
	if row.Params != "" {
		if err := json.Unmarshal([]byte(row.Params), &params); err != nil {
			return asset.Meta{}, asset.New(asset.StatusCodeInvalidData, err.Error())
		}
	}

	return asset.Meta{
		Class:         classDesc,
		Loader:        loaderImpl,
		Pak:           p,
		Deps:          deps,
		ImportOptions: params,
	}, nil
}

// Put inserts or replaces one asset's row. It exists for tests and for
// tooling that seeds a db pak; production tables are populated by a
// separate import step.
func Put(db *gorm.DB, id *asset.ID, class, loader string, deps []string, params map[string]any) error {
	var paramsJSON string
	if len(params) > 0 {
		b, err := json.Marshal(params)
		if err != nil {
			return err
		}
		paramsJSON = string(b)
	}
	row := AssetRow{
		ID:     id.String(),
		Class:  class,
		Loader: loader,
		Deps:   strings.Join(deps, ","),
		Params: paramsJSON,
	}
	return db.Save(&row).Error
}
