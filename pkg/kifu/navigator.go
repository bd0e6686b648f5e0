package kifu

import (
	"sync"
	"time"
)

// DefaultAutoplayInterval is used when StartAutoplay gets a non-positive interval.
const DefaultAutoplayInterval = time.Second

// Navigator holds a cursor (line, index) over a record and the position
// replayed at that cursor. It remembers the last index visited on every
// line so returning to a branch restores where it was left.
//
// All methods are safe for concurrent use; autoplay ticks run on their own
// goroutine and take the same lock as manual navigation.
type Navigator struct {
	mu     sync.Mutex
	rec    *Record
	line   *VariationLine
	index  int
	memory map[int]int
	pos    Position

	autoGen  uint64
	autoStop chan struct{}
}

// NewNavigator returns a navigator at the start of rec's main line.
func NewNavigator(rec *Record) *Navigator {
	n := &Navigator{
		rec:    rec,
		line:   rec.Root,
		memory: make(map[int]int),
	}
	n.applyLocked(0)
	return n
}

// Record returns the record being navigated.
func (n *Navigator) Record() *Record {
	return n.rec
}

// Cursor returns the current line and move index.
func (n *Navigator) Cursor() (*VariationLine, int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.line, n.index
}

// Position returns a copy of the position at the cursor.
func (n *Navigator) Position() Position {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.pos.Clone()
}

// Snapshot returns the cursor and the position at it under one lock.
func (n *Navigator) Snapshot() (*VariationLine, int, Position) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.line, n.index, n.pos.Clone()
}

// ApplyCurrent moves the cursor to target on the current line, clamped to
// the line's bounds, and rebuilds the position.
func (n *Navigator) ApplyCurrent(target int) Position {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.applyLocked(target)
	return n.pos.Clone()
}

func (n *Navigator) applyLocked(target int) {
	n.index = clamp(target, 0, len(n.line.Moves))
	n.memory[n.line.ID] = n.index
	n.pos = PositionAt(n.rec, n.line, n.index)
}

// StepFirst moves to the start of the current line.
func (n *Navigator) StepFirst() bool {
	return n.step(func(int) int { return 0 })
}

// StepBack moves one move back on the current line.
func (n *Navigator) StepBack() bool {
	return n.step(func(i int) int { return i - 1 })
}

// StepForward moves one move forward on the current line.
func (n *Navigator) StepForward() bool {
	return n.step(func(i int) int { return i + 1 })
}

// StepLast moves to the end of the current line.
func (n *Navigator) StepLast() bool {
	return n.step(func(int) int { return len(n.line.Moves) })
}

// step reports whether the cursor moved.
func (n *Navigator) step(next func(int) int) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	before := n.index
	n.applyLocked(next(n.index))
	return n.index != before
}

// JumpToMoveNumber moves the cursor to just after move number num, searching
// the whole tree. It reports false and leaves the cursor unchanged when no
// line holds that move.
func (n *Navigator) JumpToMoveNumber(num int) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	line, idx, ok := FindMoveNumber(n.rec.Root, num)
	if !ok {
		return false
	}
	if line != n.line {
		n.memory[n.line.ID] = n.index
		n.line = line
	}
	n.applyLocked(idx + 1)
	return true
}

// SwitchTo adopts line, restoring its remembered index or starting at 0.
// It reports false when line does not belong to the record.
func (n *Navigator) SwitchTo(line *VariationLine) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.owns(line) {
		return false
	}
	n.switchLocked(line, 0)
	return true
}

// GoToParent returns to the line the current one branched from, restoring
// its remembered index or the branch point. It reports false on the main line.
func (n *Navigator) GoToParent() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.line.Parent == nil {
		return false
	}
	n.switchLocked(n.line.Parent.Line, n.line.Parent.MoveCount)
	return true
}

func (n *Navigator) switchLocked(line *VariationLine, fallback int) {
	n.memory[n.line.ID] = n.index
	n.line = line
	target, ok := n.memory[line.ID]
	if !ok {
		target = fallback
	}
	n.applyLocked(target)
}

func (n *Navigator) owns(line *VariationLine) bool {
	if line == nil {
		return false
	}
	known, ok := n.rec.Line(line.ID)
	return ok && known == line
}

// Variations lists the branches available at the cursor.
func (n *Navigator) Variations() []*VariationLine {
	n.mu.Lock()
	defer n.mu.Unlock()
	return AvailableVariations(n.line, n.index)
}

// StartAutoplay steps forward every interval until the end of the current
// line, calling onTick with each new position. It reports false when
// autoplay is already running or the cursor is at the end of its line.
func (n *Navigator) StartAutoplay(interval time.Duration, onTick func(Position)) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.autoStop != nil || n.index >= len(n.line.Moves) {
		return false
	}
	if interval <= 0 {
		interval = DefaultAutoplayInterval
	}
	n.autoGen++
	stop := make(chan struct{})
	n.autoStop = stop
	go n.autoplay(n.autoGen, stop, interval, onTick)
	return true
}

// StopAutoplay stops a running autoplay. No tick advances the cursor after
// it returns.
func (n *Navigator) StopAutoplay() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stopAutoplayLocked()
}

// Autoplaying reports whether autoplay is running.
func (n *Navigator) Autoplaying() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.autoStop != nil
}

func (n *Navigator) stopAutoplayLocked() {
	if n.autoStop == nil {
		return
	}
	n.autoGen++
	close(n.autoStop)
	n.autoStop = nil
}

func (n *Navigator) autoplay(gen uint64, stop <-chan struct{}, interval time.Duration, onTick func(Position)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		n.mu.Lock()
		if n.autoGen != gen {
			n.mu.Unlock()
			return
		}
		n.applyLocked(n.index + 1)
		pos := n.pos.Clone()
		done := n.index >= len(n.line.Moves)
		if done {
			n.stopAutoplayLocked()
		}
		n.mu.Unlock()

		if onTick != nil {
			onTick(pos)
		}
		if done {
			return
		}
	}
}
