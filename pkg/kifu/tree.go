package kifu

// StartLabel is the label of the synthetic root node.
const StartLabel = "開始局面"

// JumpRef points at a cursor: MoveCount moves played on line LineID.
type JumpRef struct {
	LineID    int
	MoveCount int
}

// TreeNode is one node of the flattened move tree.
type TreeNode struct {
	ID  int
	Ply int
	// Label is the move label, or StartLabel for the root.
	Label    string
	Parent   int // -1 for the root
	Children []int
	Jump     JumpRef
	Move     *Move // nil for the root
}

// MoveTree is a read-only projection of a record's lines into one node
// graph. Node IDs are indexes into Nodes.
type MoveTree struct {
	RootID int
	Nodes  []TreeNode
}

// BuildTree flattens the line tree under root. Moves of a line are chained
// parent to child; a move's variations hang off its node as extra children,
// after the main continuation; a line's lead variations hang off the node the
// line starts from.
func BuildTree(root *VariationLine) MoveTree {
	t := MoveTree{}
	t.RootID = t.add(TreeNode{Label: StartLabel, Parent: -1, Jump: JumpRef{}})
	if root != nil {
		t.Nodes[t.RootID].Jump.LineID = root.ID
		t.addLine(root, t.RootID)
	}
	return t
}

func (t *MoveTree) add(node TreeNode) int {
	node.ID = len(t.Nodes)
	t.Nodes = append(t.Nodes, node)
	if node.Parent >= 0 {
		t.Nodes[node.Parent].Children = append(t.Nodes[node.Parent].Children, node.ID)
	}
	return node.ID
}

func (t *MoveTree) addLine(line *VariationLine, entry int) {
	// The whole chain goes in first so the main continuation is always a
	// node's first child.
	ids := make([]int, len(line.Moves))
	parent := entry
	for i, m := range line.Moves {
		ids[i] = t.add(TreeNode{
			Ply:    m.N,
			Label:  m.Label(),
			Parent: parent,
			Jump:   JumpRef{LineID: line.ID, MoveCount: i + 1},
			Move:   m,
		})
		parent = ids[i]
	}
	for i, m := range line.Moves {
		for _, v := range m.Variations {
			t.addLine(v, ids[i])
		}
	}
	for _, v := range line.LeadVariations {
		t.addLine(v, entry)
	}
}

// Find returns the node for a jump reference.
func (t MoveTree) Find(ref JumpRef) (int, bool) {
	for _, n := range t.Nodes {
		if n.Jump == ref {
			return n.ID, true
		}
	}
	return 0, false
}

// ActivePath returns the node IDs from the root to the node at the cursor
// (line, index). A cursor at the start of a variation maps to the node the
// variation branches from.
func (t MoveTree) ActivePath(line *VariationLine, index int) []int {
	for line != nil && index == 0 && line.Parent != nil {
		line, index = line.Parent.Line, line.Parent.MoveCount
	}
	target := t.RootID
	if line != nil && index > 0 {
		if id, ok := t.Find(JumpRef{LineID: line.ID, MoveCount: index}); ok {
			target = id
		}
	}
	var path []int
	for id := target; id >= 0; id = t.Nodes[id].Parent {
		path = append(path, id)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
