package texture

import (
	"github.com/go-viper/mapstructure/v2"

	"github.com/kestrelengine/assetpipe/internal/domain/asset"
)

// DecodeFunc is the image codec boundary: a pure function from raw
// source bytes and the requested channel count to a decoded, resized
// Image. Production wiring supplies a real codec; tests supply a fake.
type DecodeFunc func(data []byte, channels int) (Image, error)

// ReadFunc abstracts file/archive I/O.
type ReadFunc func(path string) ([]byte, error)

// Loader is the AssetLoader for texture_2d assets.
type Loader struct {
	Decode DecodeFunc
	Read   ReadFunc
}

func New(decode DecodeFunc, read ReadFunc) *Loader {
	return &Loader{Decode: decode, Read: read}
}

func (l *Loader) Load(id *asset.ID, meta asset.Meta) (asset.Asset, error) {
	if meta.ImportOptions == nil {
		return nil, asset.New(asset.StatusCodeInvalidData, "no import options to load texture "+id.String())
	}

	var opts ImportOptions
	if err := mapstructure.Decode(meta.ImportOptions, &opts); err != nil {
		return nil, asset.New(asset.StatusCodeInvalidData, err.Error())
	}

	data, err := l.Read(opts.SourceFile)
	if err != nil {
		return nil, asset.New(asset.StatusCodeFailedRead, "failed to load source image "+opts.SourceFile)
	}

	img, err := l.Decode(data, opts.Channels)
	if err != nil {
		return nil, asset.New(asset.StatusCodeFailedResize, "failed to resize source image "+opts.SourceFile)
	}

	tex := &Texture2D{
		Width:  img.Width,
		Height: img.Height,
		Format: opts.Format,
		Source: img,
	}
	return tex, nil
}
