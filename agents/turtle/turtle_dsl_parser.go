package turtle

import (
	"strconv"
	"strings"
)

// NodeKind distinguishes literal text from bracketed groups.
type NodeKind int

const (
	NodeLiteral NodeKind = iota
	NodeGroup
)

// Node is one element of an instruction tree: either literal text or an
// ordered group of child nodes that came from a matched pair of brackets.
type Node struct {
	Kind     NodeKind
	Text     string
	Children []Node
}

// Literal builds a literal node.
func Literal(text string) Node {
	return Node{Kind: NodeLiteral, Text: text}
}

// Group builds a group node.
func Group(children ...Node) Node {
	return Node{Kind: NodeGroup, Children: children}
}

// ParseBrackets turns movement instructions such as "(r m3)4" into a tree.
// The returned root is always a group. Only matched bracket pairs become
// groups; an unmatched "(" or ")" stays in the literal text where it was.
func ParseBrackets(instructions string) Node {
	type frame struct {
		children []Node
	}

	stack := []frame{{}}
	var text strings.Builder

	flush := func() {
		if text.Len() == 0 {
			return
		}
		top := &stack[len(stack)-1]
		top.children = appendLiteral(top.children, text.String())
		text.Reset()
	}

	for _, r := range instructions {
		switch {
		case r == '(':
			flush()
			stack = append(stack, frame{})
		case r == ')' && len(stack) > 1:
			flush()
			closed := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			top := &stack[len(stack)-1]
			top.children = append(top.children, Group(closed.children...))
		default:
			text.WriteRune(r)
		}
	}
	flush()

	// Unclosed frames fold back into their parent as literal "(" followed by
	// whatever they collected, including any groups closed inside them.
	for len(stack) > 1 {
		open := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		top := &stack[len(stack)-1]
		top.children = appendLiteral(top.children, "(")
		for _, child := range open.children {
			if child.Kind == NodeLiteral {
				top.children = appendLiteral(top.children, child.Text)
			} else {
				top.children = append(top.children, child)
			}
		}
	}

	root := stack[0]
	if len(root.children) == 0 {
		return Group(Literal(instructions))
	}
	return Group(root.children...)
}

// appendLiteral merges adjacent literal text so that the tree never holds two
// literals side by side.
func appendLiteral(nodes []Node, text string) []Node {
	if n := len(nodes); n > 0 && nodes[n-1].Kind == NodeLiteral {
		nodes[n-1] = Literal(nodes[n-1].Text + text)
		return nodes
	}
	return append(nodes, Literal(text))
}

// MaxExpandedTokens bounds the output of the repeat expander.
const MaxExpandedTokens = 1 << 16

// ExpandTokens flattens a tree into its instruction tokens. A group followed
// by a literal whose first token is an integer N is emitted N times and the
// count is consumed; any other group is emitted once. Output stops at
// MaxExpandedTokens.
func ExpandTokens(root Node) []string {
	tokens, _ := ExpandLimited(root, MaxExpandedTokens)
	return tokens
}

// ExpandLimited is ExpandTokens with an explicit cap. It reports true when
// the expansion was cut short.
func ExpandLimited(root Node, limit int) ([]string, bool) {
	var out []string
	truncated := false

	emit := func(tokens []string) {
		if room := limit - len(out); len(tokens) > room {
			out = append(out, tokens[:max(room, 0)]...)
			truncated = true
			return
		}
		out = append(out, tokens...)
	}

	if root.Kind == NodeLiteral {
		emit(strings.Fields(root.Text))
		return out, truncated
	}

	var pending []string
	hasPending := false

	for _, child := range root.Children {
		if truncated {
			break
		}
		if child.Kind == NodeGroup {
			if hasPending {
				emit(pending)
			}
			var cut bool
			pending, cut = ExpandLimited(child, limit)
			truncated = truncated || cut
			hasPending = true
			continue
		}

		tokens := strings.Fields(child.Text)
		if hasPending {
			copies := 1
			if len(tokens) > 0 {
				if n, err := strconv.Atoi(tokens[0]); err == nil {
					copies = max(n, 0)
					tokens = tokens[1:]
				}
			}
			for i := 0; i < copies && len(pending) > 0 && !truncated; i++ {
				emit(pending)
			}
			hasPending = false
			pending = nil
		}
		emit(tokens)
	}

	if hasPending {
		emit(pending)
	}
	return out, truncated
}

// Expand flattens a tree into a single space-joined instruction string.
func Expand(root Node) string {
	return strings.Join(ExpandTokens(root), " ")
}

// ExpandInstructions parses and expands raw instructions in one step.
func ExpandInstructions(instructions string) []string {
	return ExpandTokens(ParseBrackets(instructions))
}
