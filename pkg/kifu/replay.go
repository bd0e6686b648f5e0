package kifu

// GatherMoves returns the moves played to reach move k of line: each
// ancestor's moves up to its anchor, then line.Moves[:k]. k is clamped.
func GatherMoves(line *VariationLine, k int) []*Move {
	if line == nil {
		return nil
	}
	k = clamp(k, 0, len(line.Moves))
	var prefix []*Move
	if line.Parent != nil {
		prefix = GatherMoves(line.Parent.Line, line.Parent.MoveCount)
	}
	moves := make([]*Move, 0, len(prefix)+k)
	moves = append(moves, prefix...)
	return append(moves, line.Moves[:k]...)
}

// Replay plays moves over a copy of start and returns the result.
func Replay(start Position, moves []*Move) Position {
	pos := start.Clone()
	for _, m := range moves {
		pos.Apply(m)
	}
	return pos
}

// PositionAt replays the record up to move k of line.
func PositionAt(rec *Record, line *VariationLine, k int) Position {
	return Replay(rec.StartPosition(), GatherMoves(line, k))
}

// Apply plays m on the position. Moves whose preconditions do not hold
// (missing source piece, empty hand) are applied as far as they can be
// and still become the latest move.
func (p *Position) Apply(m *Move) {
	side := m.Side()
	to := m.To
	defer func() {
		p.LastTo = &to
		p.Latest = m
	}()

	var moving *Piece
	if m.Drop {
		kind := Demote(m.Kind)
		p.takeFromHand(side, kind)
		moving = &Piece{Side: side, Kind: kind}
		p.LastFrom = nil
	} else {
		if m.From != nil {
			from := *m.From
			p.LastFrom = &from
		} else {
			p.LastFrom = nil
		}
		if m.From == nil || p.PieceAt(*m.From) == nil {
			return
		}
		lifted := *p.PieceAt(*m.From)
		p.setPiece(*m.From, nil)
		moving = &lifted
	}

	if target := p.PieceAt(to); target != nil && target.Side != side {
		p.Hands[side] = append(p.Hands[side], Demote(target.Kind))
	}

	if !m.Drop {
		switch {
		case m.Promoted:
			moving.Kind = Promote(moving.Kind)
		case m.PromotionDeclined && m.Kind == NoKind:
			moving.Kind = Demote(moving.Kind)
		}
		if m.Kind != NoKind {
			moving.Kind = m.Kind
		}
	}
	p.setPiece(to, moving)
}

// AvailableVariations lists the branches that can be entered at index of
// line: the variations of the move just played, or the line's lead
// variations at its start.
func AvailableVariations(line *VariationLine, index int) []*VariationLine {
	if line == nil {
		return nil
	}
	if index <= 0 {
		return line.LeadVariations
	}
	if index > len(line.Moves) {
		index = len(line.Moves)
	}
	return line.Moves[index-1].Variations
}

// FindMoveNumber searches the tree under root depth first for move number n.
// It checks the line itself, then each move's variations in order, then the
// line's lead variations. The first match wins.
func FindMoveNumber(root *VariationLine, n int) (*VariationLine, int, bool) {
	if root == nil || n <= 0 {
		return nil, 0, false
	}
	if idx, ok := root.IndexOf(n); ok {
		return root, idx, true
	}
	for _, m := range root.Moves {
		for _, v := range m.Variations {
			if line, idx, ok := FindMoveNumber(v, n); ok {
				return line, idx, true
			}
		}
	}
	for _, v := range root.LeadVariations {
		if line, idx, ok := FindMoveNumber(v, n); ok {
			return line, idx, true
		}
	}
	return nil, 0, false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
