package kifu

import (
	"os"
	"regexp"
	"strconv"
	"strings"
)

// Move is one parsed move of a line.
type Move struct {
	N    int
	To   Square
	From *Square // nil for drops
	Kind PieceKind
	// Raw is the piece text as written, e.g. "歩成" or "銀右".
	Raw               string
	Promoted          bool
	PromotionDeclined bool
	Drop              bool
	// SameAsPrevious is set when the destination was written as 同.
	SameAsPrevious bool
	Comment        string
	Timestamp      string
	Variations     []*VariationLine
}

// Side returns the side that played the move.
func (m *Move) Side() Side {
	return SideOf(m.N)
}

// Label renders the move the way a KIF move list shows it, e.g. "▲７六歩(77)".
func (m *Move) Label() string {
	var b strings.Builder
	b.WriteString(m.Side().Mark())
	if m.SameAsPrevious {
		b.WriteString("同　")
	} else {
		b.WriteString(m.To.String())
	}
	b.WriteString(m.Raw)
	if m.Drop {
		b.WriteString("打")
	}
	if m.From != nil {
		b.WriteString("(")
		b.WriteString(strconv.Itoa(m.From.File))
		b.WriteString(strconv.Itoa(m.From.Rank))
		b.WriteString(")")
	}
	return b.String()
}

// Anchor is the point a variation branches from: the first MoveCount moves of
// Line are played before the variation's first move.
type Anchor struct {
	Line      *VariationLine
	MoveCount int
}

// VariationLine is one straight run of moves.
type VariationLine struct {
	ID              int
	StartMoveNumber int
	Moves           []*Move
	Parent          *Anchor
	// LeadVariations branch from the line's starting point rather than from
	// one of its moves.
	LeadVariations []*VariationLine
	// Terminal holds an end-of-game marker such as 投了 when the line has one.
	Terminal string
}

// IsRoot reports whether the line is the main line of its record.
func (l *VariationLine) IsRoot() bool {
	return l.Parent == nil
}

// EndMoveNumber returns the number of the line's last move, or
// StartMoveNumber-1 for an empty line.
func (l *VariationLine) EndMoveNumber() int {
	return l.StartMoveNumber + len(l.Moves) - 1
}

// IndexOf returns the index of move number n in the line.
func (l *VariationLine) IndexOf(n int) (int, bool) {
	idx := n - l.StartMoveNumber
	if idx < 0 || idx >= len(l.Moves) {
		return 0, false
	}
	return idx, true
}

// SkippedLine records an input line the parser dropped.
type SkippedLine struct {
	Line   int
	Text   string
	Reason string
}

// Record is the result of parsing one KIF document.
type Record struct {
	Header map[string]string
	Root   *VariationLine
	// Initial is the starting position from a board diagram, or nil for the
	// standard layout.
	Initial *Position
	Skipped []SkippedLine

	lines []*VariationLine
}

// Line returns the line with the given ID.
func (r *Record) Line(id int) (*VariationLine, bool) {
	if id < 0 || id >= len(r.lines) {
		return nil, false
	}
	return r.lines[id], true
}

// Lines returns every line in creation order; index equals ID.
func (r *Record) Lines() []*VariationLine {
	return r.lines
}

// StartPosition returns a fresh copy of the record's starting position.
func (r *Record) StartPosition() Position {
	if r.Initial != nil {
		return r.Initial.Clone()
	}
	return InitialPosition()
}

var (
	variationRe = regexp.MustCompile(`^変化[：:]\s*(\d+)手`)
	moveLineRe  = regexp.MustCompile(`^\s*(\d+)\s+(同|[^\s\x{3000}(]{2})[\s\x{3000}]*([^\s\x{3000}(打]+)(打)?\s*(?:\((\d{2})\))?\s*(?:\(\s*([^)]*?)\s*\))?`)
	numberedRe  = regexp.MustCompile(`^\s*(\d+)\s+(\S+)`)
)

const (
	headerSep     = "："
	commentMarker = "*"
)

var directionGlyphs = "右左上引寄直行入"

type parseContext struct {
	line *VariationLine
	prev *Move
	// lastTo is the destination 同 refers to. A new variation starts with
	// its anchor move's destination.
	lastTo *Square
}

type parser struct {
	rec   *Record
	stack []*parseContext
	board []string
}

// Parse builds a record from KIF text. Lines it cannot understand are
// dropped and listed in Record.Skipped.
func Parse(text string) *Record {
	root := &VariationLine{StartMoveNumber: 1}
	p := &parser{
		rec: &Record{
			Header: make(map[string]string),
			Root:   root,
			lines:  []*VariationLine{root},
		},
		stack: []*parseContext{{line: root}},
	}
	lines := strings.Split(text, "\n")
	for i, raw := range lines {
		p.parseLine(i+1, strings.TrimRight(raw, "\r"))
	}
	p.finishBoard()
	return p.rec
}

// ParseBytes decodes raw file contents (UTF-8 with optional BOM, or
// Shift-JIS) and parses them.
func ParseBytes(data []byte) (*Record, error) {
	text, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return Parse(text), nil
}

// ParseFile reads and parses a KIF file.
func ParseFile(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseBytes(data)
}

func (p *parser) top() *parseContext {
	return p.stack[len(p.stack)-1]
}

func (p *parser) skip(lineNo int, text, reason string) {
	p.rec.Skipped = append(p.rec.Skipped, SkippedLine{Line: lineNo, Text: text, Reason: reason})
}

func (p *parser) parseLine(lineNo int, raw string) {
	line := strings.TrimSpace(raw)
	if line == "" || isIgnorable(line) {
		return
	}
	if strings.HasPrefix(line, "|") {
		p.board = append(p.board, line)
		return
	}
	if match := variationRe.FindStringSubmatch(line); match != nil {
		n, err := strconv.Atoi(match[1])
		if err != nil || n < 1 {
			p.skip(lineNo, raw, "invalid variation marker")
			return
		}
		p.openVariation(n)
		return
	}
	if strings.HasPrefix(line, commentMarker) {
		p.addComment(strings.TrimSpace(strings.TrimPrefix(line, commentMarker)))
		return
	}
	if strings.Contains(line, headerSep) {
		parts := strings.SplitN(line, headerSep, 2)
		p.rec.Header[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		return
	}
	numbered := numberedRe.FindStringSubmatch(raw)
	// Markers such as 千日手 would otherwise match the move pattern as a
	// two-character destination plus a piece.
	if numbered != nil && isTerminalMove(numbered[2]) {
		p.top().line.Terminal = numbered[2]
		return
	}
	if match := moveLineRe.FindStringSubmatch(raw); match != nil {
		if !p.addMove(match) {
			p.skip(lineNo, raw, "invalid move")
		}
		return
	}
	if numbered != nil {
		p.skip(lineNo, raw, "invalid move")
		return
	}
	p.skip(lineNo, raw, "unrecognized line")
}

func isIgnorable(line string) bool {
	switch {
	case strings.HasPrefix(line, "#"), strings.HasPrefix(line, "&"):
		return true
	case strings.HasPrefix(line, "手数") && strings.Contains(line, "----"):
		return true
	case strings.HasPrefix(line, "+") && strings.Contains(line, "---"):
		return true
	case strings.HasPrefix(line, "９ ８ ７") || strings.HasPrefix(line, "9 8 7"):
		return true
	case line == "先手番" || line == "後手番" || line == "下手番" || line == "上手番":
		return true
	case strings.HasPrefix(line, "まで") && strings.Contains(line, "手"):
		return true
	}
	return false
}

func (p *parser) openVariation(n int) {
	target := n - 1
	depth := 0
	anchorLine := p.rec.Root
	var anchorMove *Move
	anchorCount := 0
	if n > 1 {
		for i := len(p.stack) - 1; i >= 0; i-- {
			idx, ok := p.stack[i].line.IndexOf(target)
			if !ok {
				continue
			}
			depth = i
			anchorLine = p.stack[i].line
			anchorMove = anchorLine.Moves[idx]
			anchorCount = idx + 1
			break
		}
	}
	p.stack = p.stack[:depth+1]

	line := &VariationLine{
		ID:              len(p.rec.lines),
		StartMoveNumber: n,
		Parent:          &Anchor{Line: anchorLine, MoveCount: anchorCount},
	}
	p.rec.lines = append(p.rec.lines, line)
	ctx := &parseContext{line: line}
	if anchorMove != nil {
		anchorMove.Variations = append(anchorMove.Variations, line)
		to := anchorMove.To
		ctx.lastTo = &to
	} else {
		anchorLine.LeadVariations = append(anchorLine.LeadVariations, line)
	}
	p.stack = append(p.stack, ctx)
}

func (p *parser) addComment(text string) {
	ctx := p.top()
	if ctx.prev == nil {
		return
	}
	if ctx.prev.Comment == "" {
		ctx.prev.Comment = text
		return
	}
	ctx.prev.Comment += "\n" + text
}

// addMove decodes a matched move line and appends it to the active line.
// Groups: 1 number, 2 destination, 3 piece, 4 drop, 5 source, 6 timestamp.
func (p *parser) addMove(match []string) bool {
	ctx := p.top()
	n, err := strconv.Atoi(match[1])
	if err != nil || n != ctx.line.StartMoveNumber+len(ctx.line.Moves) {
		return false
	}
	move := &Move{N: n, Raw: match[3], Drop: match[4] != "", Timestamp: strings.TrimSpace(match[6])}

	if match[2] == "同" {
		if ctx.lastTo == nil {
			return false
		}
		move.To = *ctx.lastTo
		move.SameAsPrevious = true
	} else {
		to, ok := DecodeSquare(match[2])
		if !ok {
			return false
		}
		move.To = to
	}

	kind, promoted, declined, ok := decodePiece(match[3])
	if !ok {
		return false
	}
	move.Kind = kind
	move.Promoted = promoted
	move.PromotionDeclined = declined

	if match[5] != "" {
		from, ok := decodeSource(match[5])
		if !ok {
			return false
		}
		move.From = &from
	}

	ctx.line.Moves = append(ctx.line.Moves, move)
	ctx.prev = move
	to := move.To
	ctx.lastTo = &to
	return true
}

// decodePiece resolves a piece token such as "歩成", "銀不成" or "金右".
func decodePiece(token string) (kind PieceKind, promoted, declined, ok bool) {
	work := token
	switch {
	case strings.HasSuffix(work, "不成"):
		declined = true
		work = strings.TrimSuffix(work, "不成")
	case strings.HasSuffix(work, "成"):
		promoted = true
		work = strings.TrimSuffix(work, "成")
	}
	work = strings.Map(func(r rune) rune {
		if strings.ContainsRune(directionGlyphs, r) {
			return -1
		}
		return r
	}, work)
	base, found := lookupPiece(work)
	if !found {
		return NoKind, false, false, false
	}
	kind = base
	if promoted {
		kind = Promote(base)
		if kind == base {
			promoted = false
		}
	}
	return kind, promoted, declined, true
}

func isTerminalMove(token string) bool {
	switch token {
	case "投了", "中断", "持将棋", "千日手", "詰み", "切れ負け", "反則勝ち", "反則負け", "入玉勝ち", "勝ち宣言", "不詰":
		return true
	default:
		return false
	}
}
