package javafe

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

func text(n *sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	start, end := n.StartByte(), n.EndByte()
	if start >= end || end > uint(len(src)) {
		return ""
	}
	return string(src[start:end])
}

func lineOf(n *sitter.Node) int { return int(n.StartPosition().Row) + 1 }

func columnOf(n *sitter.Node) int { return int(n.StartPosition().Column) + 1 }

// namedChildren skips comments.
func namedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, n.NamedChildCount())
	for i := uint(0); i < n.NamedChildCount(); i++ {
		if c := n.NamedChild(i); c != nil && !isComment(c) {
			out = append(out, c)
		}
	}
	return out
}

func isComment(n *sitter.Node) bool {
	switch n.Kind() {
	case "line_comment", "block_comment", "comment":
		return true
	}
	return false
}

// children includes anonymous tokens such as operators and keywords.
func children(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, n.ChildCount())
	for i := uint(0); i < n.ChildCount(); i++ {
		if c := n.Child(i); c != nil {
			out = append(out, c)
		}
	}
	return out
}

func childOfKind(n *sitter.Node, kinds ...string) *sitter.Node {
	for _, c := range namedChildren(n) {
		for _, k := range kinds {
			if c.Kind() == k {
				return c
			}
		}
	}
	return nil
}

func childrenOfKind(n *sitter.Node, kind string) []*sitter.Node {
	var out []*sitter.Node
	for _, c := range namedChildren(n) {
		if c.Kind() == kind {
			out = append(out, c)
		}
	}
	return out
}

// syntaxErrors returns the ERROR and MISSING nodes below n.
func syntaxErrors(n *sitter.Node) []*sitter.Node {
	if n == nil || !n.HasError() {
		return nil
	}
	if n.IsError() || n.IsMissing() {
		return []*sitter.Node{n}
	}
	var out []*sitter.Node
	for _, c := range children(n) {
		out = append(out, syntaxErrors(c)...)
	}
	return out
}
