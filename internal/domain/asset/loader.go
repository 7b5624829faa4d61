package asset

// Loader decodes the bytes/rows a Pak points at into a live Asset. Load
// runs on a worker task, never on the caller's goroutine.
type Loader interface {
	Load(id *ID, meta Meta) (Asset, error)
}
