// Package texture is the simplest concrete AssetLoader in the
// pipeline. Image decoding and resizing live behind an injected pure
// function; this package only wires that function into the loader
// contract.
package texture

import (
	"github.com/kestrelengine/assetpipe/internal/domain/asset"
)

// Image is the decoded pixel buffer handed back by the loader's DecodeFunc.
type Image struct {
	Width, Height int
	Channels      int
	Pixels        []byte
}

// Texture2D is the loaded asset. Width/Height mirror the image that
// produced it post-resize.
type Texture2D struct {
	asset.Base
	Width, Height int
	Format        string
	Source        Image
}

// ImportOptions is the parsed shape of the YAML "params" subtree this
// loader expects.
type ImportOptions struct {
	SourceFile string `mapstructure:"source_file"`
	Channels   int    `mapstructure:"channels"`
	Format     string `mapstructure:"format"`
	MaxWidth   int    `mapstructure:"max_width"`
	MaxHeight  int    `mapstructure:"max_height"`
}
