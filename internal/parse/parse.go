// Package parse runs the call query over Ruby sources using tree-sitter.
package parse

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/rspeclint/internal/lang"
)

// CallFunc receives a captured call node and its method identifier. Nodes are
// only valid for the duration of the callback; the tree is closed afterwards.
type CallFunc func(call, name *sitter.Node)

// Calls parses source and invokes fn for every call captured by query, in
// source order. The parser must be created for Ruby.
func Calls(ctx context.Context, parser *sitter.Parser, query *sitter.Query, source []byte, fn CallFunc) error {
	if len(source) == 0 {
		return nil
	}

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return fmt.Errorf("parsing: %w", err)
	}
	defer tree.Close()

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(query, tree.RootNode())

	for {
		match, ok := qc.NextMatch()
		if !ok {
			break
		}
		match = qc.FilterPredicates(match, source)

		var call, name *sitter.Node
		for _, c := range match.Captures {
			switch query.CaptureNameForId(c.Index) {
			case lang.CaptureCall:
				call = c.Node
			case lang.CaptureName:
				name = c.Node
			}
		}

		if call == nil || name == nil {
			continue
		}
		fn(call, name)
	}

	return ctx.Err()
}
