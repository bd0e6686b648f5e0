package kifu_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kifu/pkg/kifu"
)

const threeMoveKIF = `   1 ７六歩(77)
   2 ３四歩(33)
   3 ２二角成(88)
`

func TestNavigatorSteps(t *testing.T) {
	nav := kifu.NewNavigator(kifu.Parse(threeMoveKIF))

	line, idx := nav.Cursor()
	assert.True(t, line.IsRoot())
	assert.Equal(t, 0, idx)
	assert.False(t, nav.StepBack())

	assert.True(t, nav.StepForward())
	assert.Equal(t, 1, nav.Position().Latest.N)
	assert.True(t, nav.StepLast())
	_, idx = nav.Cursor()
	assert.Equal(t, 3, idx)
	assert.False(t, nav.StepForward())
	assert.True(t, nav.StepBack())
	assert.True(t, nav.StepFirst())
	assert.Equal(t, kifu.StandardSFEN, nav.Position().SFEN(1))

	pos := nav.ApplyCurrent(42)
	_, idx = nav.Cursor()
	assert.Equal(t, 3, idx)
	assert.Equal(t, 3, pos.Latest.N)
}

func TestNavigatorJumpThenStepMatchesDirectJump(t *testing.T) {
	rec := kifu.Parse(threeMoveKIF)

	stepped := kifu.NewNavigator(rec)
	require.True(t, stepped.JumpToMoveNumber(2))
	require.True(t, stepped.StepForward())

	direct := kifu.NewNavigator(rec)
	require.True(t, direct.JumpToMoveNumber(3))

	assert.Equal(t, direct.Position(), stepped.Position())
	assert.Equal(t, kifu.Horse, direct.Position().PieceAt(kifu.Square{File: 2, Rank: 2}).Kind)
}

func TestNavigatorJumpMiss(t *testing.T) {
	nav := kifu.NewNavigator(kifu.Parse(threeMoveKIF))
	require.True(t, nav.JumpToMoveNumber(2))

	assert.False(t, nav.JumpToMoveNumber(99))
	assert.False(t, nav.JumpToMoveNumber(0))
	_, idx := nav.Cursor()
	assert.Equal(t, 2, idx)
}

func TestNavigatorJumpIntoVariation(t *testing.T) {
	rec := kifu.Parse(`   1 ７六歩(77)
   2 ３四歩(33)
変化：2手
   2 ８四歩(83)
   3 ２六歩(27)
   4 ８五歩(84)
`)
	nav := kifu.NewNavigator(rec)
	require.True(t, nav.StepLast())

	require.True(t, nav.JumpToMoveNumber(4))
	line, idx := nav.Cursor()
	assert.Equal(t, 1, line.ID)
	assert.Equal(t, 3, idx)

	// The main line kept its position.
	require.True(t, nav.GoToParent())
	line, idx = nav.Cursor()
	assert.True(t, line.IsRoot())
	assert.Equal(t, 2, idx)
}

func TestNavigatorRemembersLinePositions(t *testing.T) {
	rec := kifu.Parse(branchingKIF)
	line1 := rec.Root.Moves[1].Variations[0]
	nav := kifu.NewNavigator(rec)

	require.True(t, nav.JumpToMoveNumber(4))
	require.True(t, nav.SwitchTo(line1))
	line, idx := nav.Cursor()
	assert.Same(t, line1, line)
	assert.Equal(t, 0, idx)

	nav.StepLast()
	require.True(t, nav.GoToParent())
	line, idx = nav.Cursor()
	assert.Same(t, rec.Root, line)
	assert.Equal(t, 4, idx)

	require.True(t, nav.SwitchTo(line1))
	_, idx = nav.Cursor()
	assert.Equal(t, 2, idx)

	pos := nav.Position()
	assert.Equal(t, kifu.Square{File: 8, Rank: 4}, *pos.LastTo)
	assert.NotNil(t, pos.PieceAt(kifu.Square{File: 6, Rank: 6}))
}

func TestNavigatorGoToParentUsesAnchor(t *testing.T) {
	rec := kifu.Parse(branchingKIF)
	line1 := rec.Root.Moves[1].Variations[0]
	line2 := line1.Moves[0].Variations[0]
	nav := kifu.NewNavigator(rec)

	require.True(t, nav.SwitchTo(line2))
	require.True(t, nav.GoToParent())
	line, idx := nav.Cursor()
	assert.Same(t, line1, line)
	assert.Equal(t, 1, idx)
	assert.Equal(t, []*kifu.VariationLine{line2}, nav.Variations())

	require.True(t, nav.GoToParent())
	require.False(t, nav.GoToParent())
}

func TestNavigatorVariationAtFirstMove(t *testing.T) {
	rec := kifu.Parse(`   1 ７六歩(77)
   2 ３四歩(33)
変化：1手
   1 ２六歩(27)
`)
	require.Len(t, rec.Root.LeadVariations, 1)
	lead := rec.Root.LeadVariations[0]
	assert.Equal(t, 0, lead.Parent.MoveCount)
	assert.Empty(t, rec.Root.Moves[0].Variations)

	nav := kifu.NewNavigator(rec)
	assert.Equal(t, []*kifu.VariationLine{lead}, nav.Variations())
	require.True(t, nav.SwitchTo(lead))
	require.True(t, nav.StepForward())
	assert.Equal(t, kifu.Square{File: 2, Rank: 6}, *nav.Position().LastTo)

	require.True(t, nav.GoToParent())
	line, idx := nav.Cursor()
	assert.Same(t, rec.Root, line)
	assert.Equal(t, 0, idx)
}

func TestNavigatorSwitchToForeignLine(t *testing.T) {
	nav := kifu.NewNavigator(kifu.Parse(threeMoveKIF))
	other := kifu.Parse(branchingKIF)

	assert.False(t, nav.SwitchTo(nil))
	assert.False(t, nav.SwitchTo(other.Root.Moves[1].Variations[0]))
}

func TestNavigatorAutoplayRunsToEnd(t *testing.T) {
	nav := kifu.NewNavigator(kifu.Parse(threeMoveKIF))
	ticks := make(chan kifu.Position, 8)

	require.True(t, nav.StartAutoplay(20*time.Millisecond, func(p kifu.Position) { ticks <- p }))
	assert.False(t, nav.StartAutoplay(20*time.Millisecond, nil))

	for want := 1; want <= 3; want++ {
		select {
		case pos := <-ticks:
			assert.Equal(t, want, pos.Latest.N)
		case <-time.After(2 * time.Second):
			t.Fatalf("autoplay did not reach move %d", want)
		}
	}
	require.Eventually(t, func() bool { return !nav.Autoplaying() }, time.Second, 5*time.Millisecond)
	_, idx := nav.Cursor()
	assert.Equal(t, 3, idx)

	// Nothing left to play.
	assert.False(t, nav.StartAutoplay(20*time.Millisecond, nil))
}

func TestNavigatorStopAutoplay(t *testing.T) {
	nav := kifu.NewNavigator(kifu.Parse(threeMoveKIF))

	require.True(t, nav.StartAutoplay(10*time.Millisecond, nil))
	nav.StopAutoplay()
	assert.False(t, nav.Autoplaying())

	time.Sleep(50 * time.Millisecond)
	_, idx := nav.Cursor()
	assert.Equal(t, 0, idx)

	// Stopping twice is fine.
	nav.StopAutoplay()
}
