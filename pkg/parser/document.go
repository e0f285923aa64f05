package parser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"minilua/interpreter-go/pkg/ast"
	"minilua/interpreter-go/pkg/sourcechange"
)

// Document owns a source buffer and its syntax tree. Edits are recorded on
// the tree so the next Parse reuses the unchanged parts.
type Document struct {
	parser *ChunkParser
	source []byte
	tree   *sitter.Tree
	chunk  *ast.Chunk
	edited bool
}

func NewDocument(source string) (*Document, error) {
	p, err := NewChunkParser()
	if err != nil {
		return nil, err
	}
	return &Document{parser: p, source: []byte(source)}, nil
}

func (d *Document) Source() string {
	return string(d.source)
}

// Chunk returns the AST of the last successful Parse.
func (d *Document) Chunk() *ast.Chunk {
	return d.chunk
}

// Parse re-parses the current source, incrementally when the document has
// been edited since the last parse.
func (d *Document) Parse() (*ast.Chunk, error) {
	if d.chunk != nil && !d.edited && d.tree != nil {
		return d.chunk, nil
	}
	tree, err := d.parser.parseTree(d.source, d.tree)
	if err != nil {
		return nil, err
	}
	if d.tree != nil {
		d.tree.Close()
	}
	d.tree = tree
	d.edited = false

	chunk, err := lowerChunk(tree.RootNode(), d.source)
	if err != nil {
		d.chunk = nil
		return nil, err
	}
	d.chunk = chunk
	return chunk, nil
}

// ApplyChanges rewrites the buffer with changes, all or nothing, and records
// each replacement on the syntax tree. It returns the changes in the order
// they were applied.
func (d *Document) ApplyChanges(changes []*sourcechange.Change) ([]*sourcechange.Change, error) {
	next, applied, err := sourcechange.Apply(string(d.source), changes)
	if err != nil {
		return nil, err
	}
	// Applied in descending order, so each range is still valid in the
	// buffer the tree currently describes.
	current := string(d.source)
	for _, c := range applied {
		d.recordEdit(current, c)
		current = current[:c.Range.Start.Byte] + c.Replacement + current[c.Range.End.Byte:]
	}
	d.source = []byte(next)
	return applied, nil
}

// SetSource replaces the whole buffer.
func (d *Document) SetSource(source string) {
	whole := &sourcechange.Change{
		Range: ast.Range{
			Start: ast.Location{Line: 1, Column: 1, Byte: 0},
			End:   endLocation(string(d.source)),
		},
		Replacement: source,
	}
	d.recordEdit(string(d.source), whole)
	d.source = []byte(source)
}

func (d *Document) recordEdit(before string, c *sourcechange.Change) {
	d.edited = true
	if d.tree == nil {
		return
	}
	start := locationAt(before, c.Range.Start.Byte)
	oldEnd := locationAt(before, c.Range.End.Byte)
	newEnd := advance(start, c.Replacement)
	d.tree.Edit(&sitter.InputEdit{
		StartByte:      uint(start.Byte),
		OldEndByte:     uint(oldEnd.Byte),
		NewEndByte:     uint(newEnd.Byte),
		StartPosition:  pointFromLocation(start),
		OldEndPosition: pointFromLocation(oldEnd),
		NewEndPosition: pointFromLocation(newEnd),
	})
}

// Close releases the parser and tree.
func (d *Document) Close() {
	if d.tree != nil {
		d.tree.Close()
		d.tree = nil
	}
	d.parser.Close()
}

// locationAt computes line and column of a byte offset in text.
func locationAt(text string, offset int) ast.Location {
	if offset > len(text) {
		offset = len(text)
	}
	prefix := text[:offset]
	line := strings.Count(prefix, "\n") + 1
	col := offset - (strings.LastIndexByte(prefix, '\n') + 1) + 1
	return ast.Location{Line: line, Column: col, Byte: offset}
}

func endLocation(text string) ast.Location {
	return locationAt(text, len(text))
}

// advance moves loc past inserted text.
func advance(loc ast.Location, text string) ast.Location {
	out := loc
	out.Byte += len(text)
	if n := strings.Count(text, "\n"); n > 0 {
		out.Line += n
		out.Column = len(text) - strings.LastIndexByte(text, '\n')
	} else {
		out.Column += len(text)
	}
	return out
}
