package language

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_lua "github.com/tree-sitter-grammars/tree-sitter-lua/bindings/go"
)

// Lua returns the tree-sitter language for Lua 5.4 sources.
func Lua() *sitter.Language {
	return sitter.NewLanguage(tree_sitter_lua.Language())
}
