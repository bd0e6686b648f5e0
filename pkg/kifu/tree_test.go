package kifu_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kifu/pkg/kifu"
)

func TestBuildTree(t *testing.T) {
	rec := kifu.Parse(branchingKIF)
	tree := kifu.BuildTree(rec.Root)

	require.Len(t, tree.Nodes, 12)
	root := tree.Nodes[tree.RootID]
	assert.Equal(t, kifu.StartLabel, root.Label)
	assert.Equal(t, 0, root.Ply)
	assert.Equal(t, -1, root.Parent)
	require.Len(t, root.Children, 1)

	m1 := tree.Nodes[root.Children[0]]
	assert.Equal(t, "▲７六歩(77)", m1.Label)
	assert.Equal(t, kifu.JumpRef{LineID: 0, MoveCount: 1}, m1.Jump)
	require.Len(t, m1.Children, 2)
	// Main continuation first, then the branch.
	assert.Equal(t, kifu.JumpRef{LineID: 0, MoveCount: 2}, tree.Nodes[m1.Children[0]].Jump)
	assert.Equal(t, kifu.JumpRef{LineID: 3, MoveCount: 1}, tree.Nodes[m1.Children[1]].Jump)

	m2 := tree.Nodes[m1.Children[0]]
	require.Len(t, m2.Children, 2)
	branch := tree.Nodes[m2.Children[1]]
	assert.Equal(t, 3, branch.Ply)
	assert.Equal(t, kifu.JumpRef{LineID: 1, MoveCount: 1}, branch.Jump)
	require.Len(t, branch.Children, 2)

	for _, n := range tree.Nodes {
		for _, c := range n.Children {
			assert.Equal(t, n.ID, tree.Nodes[c].Parent)
			assert.Equal(t, n.Ply+1, tree.Nodes[c].Ply)
		}
	}
}

func TestBuildTreeLeadVariations(t *testing.T) {
	rec := kifu.Parse(`   1 ７六歩(77)
変化：1手
   1 ２六歩(27)
`)
	tree := kifu.BuildTree(rec.Root)
	root := tree.Nodes[tree.RootID]
	require.Len(t, root.Children, 2)
	assert.Equal(t, kifu.JumpRef{LineID: 1, MoveCount: 1}, tree.Nodes[root.Children[1]].Jump)
}

func TestBuildTreeEmpty(t *testing.T) {
	tree := kifu.BuildTree(kifu.Parse("").Root)
	require.Len(t, tree.Nodes, 1)
	assert.Empty(t, tree.Nodes[0].Children)
}

func TestActivePath(t *testing.T) {
	rec := kifu.Parse(branchingKIF)
	line1 := rec.Root.Moves[1].Variations[0]
	line2 := line1.Moves[0].Variations[0]
	tree := kifu.BuildTree(rec.Root)

	path := tree.ActivePath(line2, 2)
	require.Len(t, path, 6)
	assert.Equal(t, tree.RootID, path[0])
	assert.Equal(t, kifu.JumpRef{LineID: line2.ID, MoveCount: 2}, tree.Nodes[path[5]].Jump)

	// The start of a branch is the node it branches from.
	path = tree.ActivePath(line2, 0)
	require.Len(t, path, 4)
	assert.Equal(t, kifu.JumpRef{LineID: line1.ID, MoveCount: 1}, tree.Nodes[path[3]].Jump)

	assert.Equal(t, []int{tree.RootID}, tree.ActivePath(rec.Root, 0))

	id, ok := tree.Find(kifu.JumpRef{LineID: 0, MoveCount: 5})
	require.True(t, ok)
	assert.Equal(t, 5, tree.Nodes[id].Ply)
	_, ok = tree.Find(kifu.JumpRef{LineID: 9, MoveCount: 1})
	assert.False(t, ok)
}
