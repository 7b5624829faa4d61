package asset

// ClassDescriptor is the RTTI-style capability the class registry resolves
// a symbolic class name to. It carries only what the asset pipeline needs
// to know about a class; the full reflection model is out of scope.
type ClassDescriptor struct {
	Name string
}

// Meta describes a single asset's load recipe, as resolved by whichever
// AssetPak owns it. Class, Loader and Pak must all be bound for the meta
// to be usable; Deps lists the asset IDs that must load before this one
// can run its loader.
type Meta struct {
	Class         *ClassDescriptor
	Loader        Loader
	Pak           Pak
	Deps          []*ID
	ImportOptions map[string]any
}

// Validate enforces the binding invariant: a meta with any of Class,
// Loader or Pak unset is rejected during resolution rather than used.
func (m Meta) Validate() error {
	if m.Class == nil {
		return New(StatusCodeInvalidState, "meta is missing a resolved class")
	}
	if m.Loader == nil {
		return New(StatusCodeInvalidState, "meta is missing a resolved loader")
	}
	if m.Pak == nil {
		return New(StatusCodeInvalidState, "meta is missing its owning pak")
	}
	return nil
}
