package asset

import "sync"

// ID is an interned asset name. Two IDs constructed from the same string
// are always the same pointer, so equality and map keys are pointer
// identity rather than string comparison.
type ID struct {
	name string
}

var internTable sync.Map // string -> *ID

// InternID returns the canonical *ID for name, creating it on first use.
func InternID(name string) *ID {
	if v, ok := internTable.Load(name); ok {
		return v.(*ID)
	}
	candidate := &ID{name: name}
	actual, _ := internTable.LoadOrStore(name, candidate)
	return actual.(*ID)
}

func (id *ID) String() string {
	if id == nil {
		return ""
	}
	return id.name
}

func (id *ID) Less(other *ID) bool {
	return id.String() < other.String()
}
