package entity

// defaultRegistry answers PluginFor by checking whether gotreesitter's
// grammar table recognizes the path's extension; one stateless
// TreeSitterPlugin instance serves every language, since grammars.ParseFile
// itself dispatches on the file path.
type defaultRegistry struct {
	plugin *TreeSitterPlugin
}

// DefaultRegistry returns the tree-sitter-backed Registry concord uses when a
// caller doesn't supply its own.
func DefaultRegistry() Registry {
	return &defaultRegistry{plugin: &TreeSitterPlugin{}}
}

func (r *defaultRegistry) PluginFor(path string) (Plugin, bool) {
	if _, ok := detectLanguage(path); !ok {
		return nil, false
	}
	return r.plugin, true
}
