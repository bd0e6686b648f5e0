package render

import (
	"fmt"
	"strings"

	"kifu/internal/config"
	"kifu/pkg/kifu"
)

// Caption describes the cursor: which move was just played and on which line.
//
//	verbose: "3手目 ▲２六歩(27) [変化 2]"
//	compact: "3 ▲２六歩(27)"
func Caption(line *kifu.VariationLine, index int, opts Options) string {
	if line == nil || index <= 0 || index > len(line.Moves) {
		return kifu.StartLabel
	}
	m := line.Moves[index-1]
	if opts.CaptionMode == config.CaptionCompact {
		return fmt.Sprintf("%d %s", m.N, m.Label())
	}
	s := fmt.Sprintf("%d手目 %s", m.N, m.Label())
	if !line.IsRoot() {
		s += fmt.Sprintf(" [変化 %d]", line.ID)
	}
	return s
}

// Notes returns the comment and timestamp of the latest move, verbose mode
// only.
func Notes(pos kifu.Position, opts Options) string {
	if opts.CaptionMode == config.CaptionCompact || pos.Latest == nil {
		return ""
	}
	var parts []string
	if pos.Latest.Timestamp != "" {
		parts = append(parts, "("+pos.Latest.Timestamp+")")
	}
	if pos.Latest.Comment != "" {
		parts = append(parts, pos.Latest.Comment)
	}
	return strings.Join(parts, "\n")
}

// MoveList renders a line the way a KIF move section reads. Moves with
// variations carry a trailing "+", and the cursor move is marked with ">".
func MoveList(line *kifu.VariationLine, index int) string {
	if line == nil {
		return ""
	}
	var b strings.Builder
	for i, m := range line.Moves {
		mark := " "
		if i+1 == index {
			mark = ">"
		}
		fmt.Fprintf(&b, "%s%4d %s", mark, m.N, m.Label())
		if len(m.Variations) > 0 {
			b.WriteString(" +")
		}
		b.WriteString("\n")
	}
	if line.Terminal != "" {
		fmt.Fprintf(&b, " %4d %s\n", line.EndMoveNumber()+1, line.Terminal)
	}
	return b.String()
}
