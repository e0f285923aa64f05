package parser

import (
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"minilua/interpreter-go/pkg/ast"
	"minilua/interpreter-go/pkg/parser/language"
)

// ChunkParser wraps a tree-sitter parser configured for Lua chunks.
type ChunkParser struct {
	parser *sitter.Parser
}

// NewChunkParser constructs a parser with the Lua language loaded.
func NewChunkParser() (*ChunkParser, error) {
	lang := language.Lua()
	if lang == nil {
		return nil, fmt.Errorf("parser: lua language not available")
	}

	p := sitter.NewParser()
	if err := p.SetLanguage(lang); err != nil {
		p.Close()
		return nil, fmt.Errorf("parser: %w", err)
	}

	return &ChunkParser{parser: p}, nil
}

// Close releases parser resources.
func (p *ChunkParser) Close() {
	if p == nil || p.parser == nil {
		return
	}
	p.parser.Close()
	p.parser = nil
}

// ParseChunk parses source into an AST chunk.
func (p *ChunkParser) ParseChunk(source []byte) (*ast.Chunk, error) {
	tree, err := p.parseTree(source, nil)
	if err != nil {
		return nil, err
	}
	defer tree.Close()
	return lowerChunk(tree.RootNode(), source)
}

// parseTree runs tree-sitter, reusing oldTree when it has been edited to
// match source.
func (p *ChunkParser) parseTree(source []byte, oldTree *sitter.Tree) (*sitter.Tree, error) {
	if p == nil || p.parser == nil {
		return nil, fmt.Errorf("parser: nil parser")
	}
	tree := p.parser.Parse(source, oldTree)
	if tree == nil {
		return nil, fmt.Errorf("parser: parse failed")
	}
	return tree, nil
}

// ParseChunk is a one-shot helper that builds and closes its own parser.
func ParseChunk(source []byte) (*ast.Chunk, error) {
	p, err := NewChunkParser()
	if err != nil {
		return nil, err
	}
	defer p.Close()
	return p.ParseChunk(source)
}

func lowerChunk(root *sitter.Node, source []byte) (*ast.Chunk, error) {
	if root == nil || root.Kind() != "chunk" {
		return nil, fmt.Errorf("parser: unexpected root node")
	}
	if root.HasError() {
		return nil, syntaxError(root, source)
	}

	body, err := parseBlockChildren(root, source)
	if err != nil {
		return nil, err
	}
	ast.SetRange(body, rangeFromNode(root))
	chunk := ast.NewChunk(body)
	ast.SetRange(chunk, rangeFromNode(root))
	return chunk, nil
}
