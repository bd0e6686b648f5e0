package kifu

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// StandardSFEN is the hirate starting position.
const StandardSFEN = "lnsgkgsnl/1r5b1/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL b - 1"

// Position is a board snapshot derived by replaying moves. It is never
// updated in place across cursor changes; every replay builds a new one.
type Position struct {
	Board [9][9]*Piece
	// Hands holds captured base kinds per side in capture order.
	Hands [2][]PieceKind
	// LastFrom and LastTo highlight the latest move; LastFrom is nil after a drop.
	LastFrom *Square
	LastTo   *Square
	// Latest is the last move replayed, nil at the start position.
	Latest *Move
}

var hirate = mustParseSFEN(StandardSFEN)

// InitialPosition returns the standard starting layout.
func InitialPosition() Position {
	return hirate.Clone()
}

func mustParseSFEN(sfen string) Position {
	pos, err := ParseSFEN(sfen)
	if err != nil {
		panic(err)
	}
	return pos
}

// PieceAt returns the piece on s, or nil.
func (p Position) PieceAt(s Square) *Piece {
	if !s.valid() {
		return nil
	}
	return p.Board[s.Rank-1][s.File-1]
}

func (p *Position) setPiece(s Square, piece *Piece) {
	if !s.valid() {
		return
	}
	if piece == nil {
		p.Board[s.Rank-1][s.File-1] = nil
		return
	}
	placed := *piece
	p.Board[s.Rank-1][s.File-1] = &placed
}

// Clone returns a deep copy. Latest is shared since moves are immutable.
func (p Position) Clone() Position {
	clone := Position{Latest: p.Latest}
	for r := 0; r < 9; r++ {
		for f := 0; f < 9; f++ {
			if p.Board[r][f] == nil {
				continue
			}
			piece := *p.Board[r][f]
			clone.Board[r][f] = &piece
		}
	}
	for side := range p.Hands {
		clone.Hands[side] = append([]PieceKind(nil), p.Hands[side]...)
	}
	if p.LastFrom != nil {
		from := *p.LastFrom
		clone.LastFrom = &from
	}
	if p.LastTo != nil {
		to := *p.LastTo
		clone.LastTo = &to
	}
	return clone
}

// PieceCount returns the number of pieces on the board.
func (p Position) PieceCount() int {
	count := 0
	for r := 0; r < 9; r++ {
		for f := 0; f < 9; f++ {
			if p.Board[r][f] != nil {
				count++
			}
		}
	}
	return count
}

// HandCounts returns how many of each kind side holds.
func (p Position) HandCounts(side Side) map[PieceKind]int {
	counts := make(map[PieceKind]int)
	for _, kind := range p.Hands[side] {
		counts[kind]++
	}
	return counts
}

func (p *Position) takeFromHand(side Side, kind PieceKind) bool {
	hand := p.Hands[side]
	for i, k := range hand {
		if k == kind {
			p.Hands[side] = append(hand[:i:i], hand[i+1:]...)
			return true
		}
	}
	return false
}

// SFEN renders the position with moveNumber as the number of the next move.
// The side to move follows move-number parity.
func (p Position) SFEN(moveNumber int) string {
	rows := make([]string, 0, 9)
	for rank := 1; rank <= 9; rank++ {
		rows = append(rows, p.rankToSFEN(rank))
	}
	turn := "b"
	if SideOf(moveNumber) == Second {
		turn = "w"
	}
	hand := p.handsToSFEN()
	if hand == "" {
		hand = "-"
	}
	return fmt.Sprintf("%s %s %s %d", strings.Join(rows, "/"), turn, hand, moveNumber)
}

func (p Position) rankToSFEN(rank int) string {
	var b strings.Builder
	empty := 0
	flushEmpty := func() {
		if empty > 0 {
			b.WriteString(strconv.Itoa(empty))
			empty = 0
		}
	}
	for file := 9; file >= 1; file-- {
		piece := p.Board[rank-1][file-1]
		if piece == nil {
			empty++
			continue
		}
		flushEmpty()
		text := string(piece.Kind.Letter())
		if piece.Kind.IsPromoted() {
			text = "+" + text
		}
		if piece.Side == Second {
			text = strings.ToLower(text)
		}
		b.WriteString(text)
	}
	flushEmpty()
	return b.String()
}

func (p Position) handsToSFEN() string {
	var b strings.Builder
	for _, side := range []Side{First, Second} {
		counts := p.HandCounts(side)
		for _, kind := range handOrder {
			count := counts[kind]
			if count == 0 {
				continue
			}
			if count > 1 {
				b.WriteString(strconv.Itoa(count))
			}
			letter := string(kind.Letter())
			if side == Second {
				letter = strings.ToLower(letter)
			}
			b.WriteString(letter)
		}
	}
	return b.String()
}

// ErrInvalidSFEN wraps every ParseSFEN failure.
var ErrInvalidSFEN = errors.New("kifu: invalid sfen")

// ParseSFEN builds a position from the board and hand fields of an SFEN
// string. The turn and move-number fields are ignored.
func ParseSFEN(sfen string) (Position, error) {
	fields := strings.Fields(sfen)
	if len(fields) < 3 {
		return Position{}, fmt.Errorf("%w: want at least 3 fields, got %d", ErrInvalidSFEN, len(fields))
	}
	var pos Position
	if err := pos.placeSFENBoard(fields[0]); err != nil {
		return Position{}, fmt.Errorf("%w: board: %v", ErrInvalidSFEN, err)
	}
	if err := pos.fillSFENHands(fields[2]); err != nil {
		return Position{}, fmt.Errorf("%w: hand: %v", ErrInvalidSFEN, err)
	}
	return pos, nil
}

// sfenLetter decodes one piece letter. Lower case belongs to Second.
func sfenLetter(c byte) (Side, PieceKind, error) {
	side := First
	if 'a' <= c && c <= 'z' {
		side, c = Second, c-('a'-'A')
	}
	kind, ok := kindFromLetter(rune(c))
	if !ok {
		return side, NoKind, fmt.Errorf("unknown piece %q", c)
	}
	return side, kind, nil
}

// placeSFENBoard walks the board field once, rank 1 first and file 9 to 1
// within a rank.
func (p *Position) placeSFENBoard(field string) error {
	rank, file := 0, 9
	promote := false
	for i := 0; i < len(field); i++ {
		c := field[i]
		if promote && (c == '/' || c == '+' || '0' <= c && c <= '9') {
			return fmt.Errorf("promotion marker before %q", c)
		}
		switch {
		case c == '/':
			if file != 0 {
				return fmt.Errorf("rank %d has %d files", rank+1, 9-file)
			}
			rank, file = rank+1, 9
			if rank > 8 {
				return errors.New("more than 9 ranks")
			}
		case '1' <= c && c <= '9':
			file -= int(c - '0')
			if file < 0 {
				return fmt.Errorf("rank %d overflows", rank+1)
			}
		case c == '+':
			promote = true
		default:
			side, kind, err := sfenLetter(c)
			if err != nil {
				return err
			}
			if file < 1 {
				return fmt.Errorf("rank %d overflows", rank+1)
			}
			if promote {
				kind, promote = Promote(kind), false
			}
			p.Board[rank][file-1] = &Piece{Side: side, Kind: kind}
			file--
		}
	}
	switch {
	case promote:
		return errors.New("dangling promotion marker")
	case rank != 8:
		return fmt.Errorf("want 9 ranks, got %d", rank+1)
	case file != 0:
		return fmt.Errorf("rank 9 has %d files", 9-file)
	}
	return nil
}

// fillSFENHands reads the hand field, where a count prefixes a letter and
// defaults to one.
func (p *Position) fillSFENHands(field string) error {
	if field == "-" {
		return nil
	}
	n := 0
	for i := 0; i < len(field); i++ {
		c := field[i]
		if '0' <= c && c <= '9' {
			n = n*10 + int(c-'0')
			continue
		}
		side, kind, err := sfenLetter(c)
		if err != nil {
			return err
		}
		if kind == King {
			return errors.New("king in hand")
		}
		p.Hands[side] = append(p.Hands[side], slices.Repeat([]PieceKind{kind}, max(n, 1))...)
		n = 0
	}
	if n != 0 {
		return errors.New("trailing hand count")
	}
	return nil
}

// finishBoard turns collected board diagram rows into the record's starting
// position. A broken diagram leaves the standard layout in place.
func (p *parser) finishBoard() {
	if len(p.board) == 0 {
		return
	}
	pos, err := parseBoardDiagram(p.board, p.rec.Header)
	if err != nil {
		p.skip(0, strings.Join(p.board, "\n"), "invalid board diagram: "+err.Error())
		return
	}
	p.rec.Initial = &pos
}

func parseBoardDiagram(rows []string, header map[string]string) (Position, error) {
	if len(rows) != 9 {
		return Position{}, fmt.Errorf("board must have 9 rows, got %d", len(rows))
	}
	var pos Position
	for i, row := range rows {
		cells, err := parseBoardRow(row)
		if err != nil {
			return Position{}, fmt.Errorf("row %d: %w", i+1, err)
		}
		for col, piece := range cells {
			// Columns run from file 9 down to file 1.
			pos.Board[i][8-col] = piece
		}
	}
	for side, key := range map[Side]string{First: "先手の持駒", Second: "後手の持駒"} {
		value, ok := header[key]
		if !ok {
			continue
		}
		kinds, err := parseHandLine(value)
		if err != nil {
			return Position{}, fmt.Errorf("%s: %w", key, err)
		}
		pos.Hands[side] = kinds
	}
	return pos, nil
}

func parseBoardRow(line string) ([]*Piece, error) {
	trim := strings.TrimSpace(line)
	trim = strings.TrimPrefix(trim, "|")
	if end := strings.LastIndex(trim, "|"); end >= 0 {
		trim = trim[:end]
	}
	runes := []rune(trim)
	var cells []*Piece
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == ' ' || r == '\t' || r == '　' {
			continue
		}
		if r == '・' {
			cells = append(cells, nil)
			continue
		}
		side := First
		if r == 'v' || r == 'V' {
			side = Second
			i++
			if i >= len(runes) {
				return nil, errors.New("dangling gote marker")
			}
			r = runes[i]
		}
		kind, ok := lookupPiece(string(r))
		if !ok {
			return nil, fmt.Errorf("unknown piece %c", r)
		}
		cells = append(cells, &Piece{Side: side, Kind: kind})
	}
	if len(cells) != 9 {
		return nil, fmt.Errorf("expected 9 cells, got %d", len(cells))
	}
	return cells, nil
}

// parseHandLine parses a hand such as "角　歩十二" or "なし".
func parseHandLine(text string) ([]PieceKind, error) {
	text = strings.TrimSpace(text)
	if text == "" || text == "なし" {
		return nil, nil
	}
	var kinds []PieceKind
	runes := []rune(text)
	for i := 0; i < len(runes); {
		r := runes[i]
		if r == ' ' || r == '　' {
			i++
			continue
		}
		kind, ok := lookupPiece(string(r))
		if !ok || kind.IsPromoted() || kind == King {
			return nil, fmt.Errorf("unknown hand piece %c", r)
		}
		count, consumed := parseKanjiCount(runes[i+1:])
		if consumed == 0 {
			count = 1
		}
		for n := 0; n < count; n++ {
			kinds = append(kinds, kind)
		}
		i += 1 + consumed
	}
	return kinds, nil
}

// parseKanjiCount reads a count such as "三", "十" or "十八".
func parseKanjiCount(runes []rune) (int, int) {
	value := 0
	consumed := 0
	for consumed < len(runes) {
		r := runes[consumed]
		if r == '十' {
			if value == 0 {
				value = 10
			} else {
				value *= 10
			}
			consumed++
			continue
		}
		n, ok := DecodeNumeral(r)
		if !ok {
			break
		}
		if value >= 10 {
			value += n
		} else {
			value = value*10 + n
		}
		consumed++
	}
	return value, consumed
}
