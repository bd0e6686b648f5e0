package render

import (
	"fmt"
	"strings"

	"kifu/pkg/kifu"
)

// Expansion records which variation lines are unfolded in a tree view. It is
// keyed by line ID and lives next to the tree, never inside it, so the tree
// can be rebuilt at any time without losing UI state.
type Expansion map[int]bool

func (e Expansion) Toggle(lineID int) {
	e[lineID] = !e[lineID]
}

func (e Expansion) Expanded(lineID int) bool {
	return e[lineID]
}

// Tree renders t as indented text. Branches are folded unless expanded or on
// the active path; nodes on the active path are marked with "*".
func Tree(t kifu.MoveTree, exp Expansion, active []int) string {
	if len(t.Nodes) == 0 {
		return ""
	}
	onPath := make(map[int]bool, len(active))
	for _, id := range active {
		onPath[id] = true
	}
	var b strings.Builder
	writeChain(&b, t, t.RootID, 0, exp, onPath)
	return b.String()
}

func writeChain(b *strings.Builder, t kifu.MoveTree, id, depth int, exp Expansion, onPath map[int]bool) {
	for {
		node := t.Nodes[id]
		mark := " "
		if onPath[id] {
			mark = "*"
		}
		fmt.Fprintf(b, "%s%s %s\n", indent(depth), mark, node.Label)

		next := -1
		for _, c := range node.Children {
			child := t.Nodes[c]
			if next < 0 && child.Jump.LineID == node.Jump.LineID {
				next = c
				continue
			}
			if exp.Expanded(child.Jump.LineID) || onPath[c] {
				fmt.Fprintf(b, "%s[変化 %d]\n", indent(depth+1), child.Jump.LineID)
				writeChain(b, t, c, depth+1, exp, onPath)
				continue
			}
			fmt.Fprintf(b, "%s+ %s ... [変化 %d]\n", indent(depth+1), child.Label, child.Jump.LineID)
		}
		if next < 0 {
			return
		}
		id = next
	}
}

func indent(depth int) string {
	return strings.Repeat("  ", depth)
}
