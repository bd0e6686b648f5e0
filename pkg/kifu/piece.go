package kifu

// Side identifies which player owns a piece. First moves on odd move numbers.
type Side int

const (
	First Side = iota
	Second
)

// Opponent returns the other side.
func (s Side) Opponent() Side {
	if s == First {
		return Second
	}
	return First
}

// Mark returns the KIF side glyph (▲ for sente, △ for gote).
func (s Side) Mark() string {
	if s == First {
		return "▲"
	}
	return "△"
}

// SideOf returns the side that plays move number n.
func SideOf(n int) Side {
	if n%2 == 1 {
		return First
	}
	return Second
}

type PieceKind int

const (
	NoKind PieceKind = iota
	Pawn
	Lance
	Knight
	Silver
	Gold
	Bishop
	Rook
	King
	ProPawn
	ProLance
	ProKnight
	ProSilver
	Horse
	Dragon
)

var promotions = map[PieceKind]PieceKind{
	Pawn:   ProPawn,
	Lance:  ProLance,
	Knight: ProKnight,
	Silver: ProSilver,
	Bishop: Horse,
	Rook:   Dragon,
}

var demotions = map[PieceKind]PieceKind{
	ProPawn:   Pawn,
	ProLance:  Lance,
	ProKnight: Knight,
	ProSilver: Silver,
	Horse:     Bishop,
	Dragon:    Rook,
}

// Promote returns the promoted form of k, or k itself when none exists.
func Promote(k PieceKind) PieceKind {
	if p, ok := promotions[k]; ok {
		return p
	}
	return k
}

// Demote returns the base form of k, or k itself when k is already a base kind.
func Demote(k PieceKind) PieceKind {
	if d, ok := demotions[k]; ok {
		return d
	}
	return k
}

// IsPromoted reports whether k is a promoted kind.
func (k PieceKind) IsPromoted() bool {
	_, ok := demotions[k]
	return ok
}

var kindNames = map[PieceKind]string{
	Pawn:      "歩",
	Lance:     "香",
	Knight:    "桂",
	Silver:    "銀",
	Gold:      "金",
	Bishop:    "角",
	Rook:      "飛",
	King:      "玉",
	ProPawn:   "と",
	ProLance:  "杏",
	ProKnight: "圭",
	ProSilver: "全",
	Horse:     "馬",
	Dragon:    "龍",
}

// String returns the one-glyph board name of the kind.
func (k PieceKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "?"
}

var sfenLetters = map[PieceKind]byte{
	Pawn:   'P',
	Lance:  'L',
	Knight: 'N',
	Silver: 'S',
	Gold:   'G',
	Bishop: 'B',
	Rook:   'R',
	King:   'K',
}

// Letter returns the SFEN letter of the kind's base form.
func (k PieceKind) Letter() byte {
	return sfenLetters[Demote(k)]
}

func kindFromLetter(r rune) (PieceKind, bool) {
	for kind, letter := range sfenLetters {
		if rune(letter) == r {
			return kind, true
		}
	}
	return NoKind, false
}

// Piece is a piece on the board.
type Piece struct {
	Side Side
	Kind PieceKind
}

// pieceNames lists every piece token accepted in move text. Longer names come
// first so prefix matching never splits a two-glyph name.
var pieceNames = []struct {
	name string
	kind PieceKind
}{
	{"成銀", ProSilver},
	{"成桂", ProKnight},
	{"成香", ProLance},
	{"成歩", ProPawn},
	{"歩", Pawn},
	{"香", Lance},
	{"桂", Knight},
	{"銀", Silver},
	{"金", Gold},
	{"角", Bishop},
	{"飛", Rook},
	{"玉", King},
	{"王", King},
	{"と", ProPawn},
	{"杏", ProLance},
	{"圭", ProKnight},
	{"全", ProSilver},
	{"馬", Horse},
	{"龍", Dragon},
	{"竜", Dragon},
}

func lookupPiece(token string) (PieceKind, bool) {
	for _, def := range pieceNames {
		if token == def.name {
			return def.kind, true
		}
	}
	return NoKind, false
}

// handOrder is the display and SFEN order for pieces in hand.
var handOrder = []PieceKind{Rook, Bishop, Gold, Silver, Knight, Lance, Pawn}
