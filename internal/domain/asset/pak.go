package asset

// Pak is a source of asset metadata: something that knows, for a given
// ID, what class/loader/dependencies/import options describe it. The
// asset manager asks its registered paks in registration order and uses
// the first one that produces a usable Meta.
type Pak interface {
	// Name identifies the pak for diagnostics.
	Name() string

	// GetMeta resolves id to a fully-bound Meta, or returns a
	// *StatusError (StatusCodeNotFound if this pak simply doesn't know
	// the id, any other code if it does but the entry is malformed).
	GetMeta(id *ID) (Meta, error)
}
