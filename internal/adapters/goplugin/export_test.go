package goplugin

// NewModuleFromLookup creates a module over an arbitrary symbol table.
func NewModuleFromLookup(lookup func(name string) (any, error)) *Module {
	return newModule(lookup)
}
