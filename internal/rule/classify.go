// Package rule implements RSpec/ExampleWithoutDescription: classification of
// example declarations and the enforcement-style decision table.
package rule

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/rspeclint/internal/lang"
	"github.com/phobologic/rspeclint/internal/model"
)

// Kind is the closed set of call classifications.
type Kind int

const (
	NotAnExample Kind = iota
	ItExample
	SpecifyExample
)

func (k Kind) String() string {
	switch k {
	case ItExample:
		return "it"
	case SpecifyExample:
		return "specify"
	default:
		return "none"
	}
}

var exampleKinds = map[string]Kind{
	"it":      ItExample,
	"specify": SpecifyExample,
}

// Argument node types that make the argument list shape unknowable.
var spreadArguments = map[string]struct{}{
	"splat_argument":      {},
	"hash_splat_argument": {},
	"block_argument":      {},
	"forward_argument":    {},
}

// Classification describes an example declaration. Ranges other than
// CalleeRange and CallRange are zero unless the corresponding part exists.
type Classification struct {
	Kind                     Kind
	HasDescription           bool
	DescriptionIsEmptyString bool
	SingleLineBlock          bool

	CalleeRange        model.Range
	CallRange          model.Range // callee and arguments, without the block
	FirstArgumentRange model.Range
	BlockRange         model.Range
}

// Classify inspects a tree-sitter call node. Anything that is not a receiverless
// it/specify call with an attached block, or whose shape cannot be determined,
// classifies as NotAnExample.
func Classify(call *sitter.Node, source []byte) Classification {
	none := Classification{Kind: NotAnExample}

	if call == nil || call.Type() != "call" || call.HasError() || call.IsMissing() {
		return none
	}
	if call.ChildByFieldName("receiver") != nil {
		return none
	}

	method := call.ChildByFieldName("method")
	if method == nil || method.Type() != "identifier" {
		return none
	}
	kind, ok := exampleKinds[lang.NodeText(method, source)]
	if !ok {
		return none
	}

	block := call.ChildByFieldName("block")
	if block == nil || (block.Type() != "block" && block.Type() != "do_block") {
		return none
	}

	c := Classification{
		Kind:            kind,
		CalleeRange:     nodeRange(method),
		BlockRange:      nodeRange(block),
		SingleLineBlock: block.StartPoint().Row == block.EndPoint().Row,
	}
	c.CallRange = spanRange(call, method)

	argList := call.ChildByFieldName("arguments")
	if argList == nil {
		return c
	}
	c.CallRange = spanRange(call, argList)

	args := arguments(argList)
	for _, a := range args {
		if _, spread := spreadArguments[a.Type()]; spread {
			return none
		}
	}
	if len(args) == 0 {
		return c
	}

	first := args[0]
	c.HasDescription = true
	c.FirstArgumentRange = nodeRange(first)
	c.DescriptionIsEmptyString = isEmptyString(first)
	return c
}

// arguments returns the named children of an argument list, skipping comments.
func arguments(argList *sitter.Node) []*sitter.Node {
	var args []*sitter.Node
	for i := 0; i < int(argList.NamedChildCount()); i++ {
		child := argList.NamedChild(i)
		if child.Type() == "comment" {
			continue
		}
		args = append(args, child)
	}
	return args
}

// isEmptyString reports whether node is a plain string literal with no content.
// Interpolations, escapes and concatenations all count as content.
func isEmptyString(node *sitter.Node) bool {
	return node.Type() == "string" && node.NamedChildCount() == 0
}

func nodeRange(n *sitter.Node) model.Range {
	return spanRange(n, n)
}

// spanRange covers from the start of first to the end of last.
func spanRange(first, last *sitter.Node) model.Range {
	return model.Range{
		Start:     toPoint(first.StartPoint()),
		End:       toPoint(last.EndPoint()),
		StartByte: int(first.StartByte()),
		EndByte:   int(last.EndByte()),
	}
}

func toPoint(p sitter.Point) model.Point {
	return model.Point{Line: int(p.Row) + 1, Column: int(p.Column) + 1}
}
