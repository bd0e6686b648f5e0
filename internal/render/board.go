package render

import (
	"strings"

	"kifu/internal/config"
	"kifu/pkg/kifu"
)

// Options hold the cosmetic display settings.
type Options struct {
	CaptionMode string
	// CellWidth spaces the board cells; 2 is the standard KIF layout and
	// anything lower renders the same.
	CellWidth int
}

func FromConfig(cfg config.DisplayConfig) Options {
	return Options{CaptionMode: cfg.CaptionMode, CellWidth: cfg.CellWidth}
}

func DefaultOptions() Options {
	return Options{CaptionMode: config.CaptionVerbose, CellWidth: 2}
}

func (o Options) pad() int {
	if o.CellWidth < 2 {
		return 1
	}
	return o.CellWidth - 1
}

var rankNames = []string{"一", "二", "三", "四", "五", "六", "七", "八", "九"}

var handOrder = []kifu.PieceKind{
	kifu.Rook, kifu.Bishop, kifu.Gold, kifu.Silver, kifu.Knight, kifu.Lance, kifu.Pawn,
}

// Board renders pos as a KIF board diagram with both hands. With the default
// options the output parses back to the same position.
func Board(pos kifu.Position, opts Options) string {
	pad := opts.pad()
	spacer := strings.Repeat(" ", pad)

	var b strings.Builder
	b.WriteString("後手の持駒：")
	b.WriteString(Hand(pos, kifu.Second))
	b.WriteString("\n ")
	for file := 9; file >= 1; file-- {
		b.WriteString(spacer)
		b.WriteRune('１' + rune(file-1))
	}
	border := "+" + strings.Repeat("-", 9*(pad+2)) + "+\n"
	b.WriteString("\n")
	b.WriteString(border)
	for rank := 1; rank <= 9; rank++ {
		b.WriteString("|")
		for file := 9; file >= 1; file-- {
			b.WriteString(cell(pos.PieceAt(kifu.Square{File: file, Rank: rank}), pad))
		}
		b.WriteString("|")
		b.WriteString(rankNames[rank-1])
		b.WriteString("\n")
	}
	b.WriteString(border)
	b.WriteString("先手の持駒：")
	b.WriteString(Hand(pos, kifu.First))
	b.WriteString("\n")
	return b.String()
}

func cell(piece *kifu.Piece, pad int) string {
	lead := strings.Repeat(" ", pad-1)
	if piece == nil {
		return lead + " ・"
	}
	marker := " "
	if piece.Side == kifu.Second {
		marker = "v"
	}
	return lead + marker + piece.Kind.String()
}

// Hand renders one side's pieces in hand, e.g. "飛　歩三", or "なし".
func Hand(pos kifu.Position, side kifu.Side) string {
	counts := pos.HandCounts(side)
	var parts []string
	for _, kind := range handOrder {
		n := counts[kind]
		if n == 0 {
			continue
		}
		parts = append(parts, kind.String()+kanjiCount(n))
	}
	if len(parts) == 0 {
		return "なし"
	}
	return strings.Join(parts, "　")
}

// kanjiCount writes hand counts the way KIF does: nothing for one, "二" for
// two, "十八" for eighteen.
func kanjiCount(n int) string {
	if n <= 1 {
		return ""
	}
	var s string
	if n >= 10 {
		s = "十"
		n -= 10
	}
	if n > 0 {
		s += rankNames[n-1]
	}
	return s
}
