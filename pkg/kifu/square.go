package kifu

import "fmt"

// Square is a board coordinate. Files run 9..1 from left to right as seen by
// sente, ranks 1..9 from top to bottom.
type Square struct {
	File int
	Rank int
}

func (s Square) valid() bool {
	return s.File >= 1 && s.File <= 9 && s.Rank >= 1 && s.Rank <= 9
}

// String formats the square the way KIF writes destinations, e.g. "７六".
func (s Square) String() string {
	if !s.valid() {
		return fmt.Sprintf("%d%d", s.File, s.Rank)
	}
	return string(rune('１'+s.File-1)) + kanjiDigits[s.Rank-1]
}

var kanjiDigits = []string{"一", "二", "三", "四", "五", "六", "七", "八", "九"}

// DecodeNumeral maps one digit glyph in ASCII, full-width or kanji form to
// 1..9. Anything else reports false.
func DecodeNumeral(r rune) (int, bool) {
	switch {
	case r >= '1' && r <= '9':
		return int(r - '0'), true
	case r >= '１' && r <= '９':
		return int(r-'１') + 1, true
	}
	switch r {
	case '一':
		return 1, true
	case '二':
		return 2, true
	case '三':
		return 3, true
	case '四':
		return 4, true
	case '五':
		return 5, true
	case '六':
		return 6, true
	case '七':
		return 7, true
	case '八':
		return 8, true
	case '九':
		return 9, true
	default:
		return 0, false
	}
}

// DecodeSquare decodes a two-glyph destination token such as "７六" or "76".
func DecodeSquare(token string) (Square, bool) {
	runes := []rune(token)
	if len(runes) != 2 {
		return Square{}, false
	}
	file, ok := DecodeNumeral(runes[0])
	if !ok {
		return Square{}, false
	}
	rank, ok := DecodeNumeral(runes[1])
	if !ok {
		return Square{}, false
	}
	return Square{File: file, Rank: rank}, true
}

// decodeSource decodes the parenthesised source square, which KIF always
// writes as two ASCII digits.
func decodeSource(token string) (Square, bool) {
	if len(token) != 2 {
		return Square{}, false
	}
	file := int(token[0] - '0')
	rank := int(token[1] - '0')
	sq := Square{File: file, Rank: rank}
	if !sq.valid() {
		return Square{}, false
	}
	return sq, true
}
