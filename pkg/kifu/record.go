package kifu

import (
	"regexp"
	"strconv"
	"strings"
)

// Outcome values reported by Record.Result.
const (
	OutcomeUnknown  = "unknown"
	OutcomeSenteWin = "sente_win"
	OutcomeGoteWin  = "gote_win"
	OutcomeDraw     = "draw"
	OutcomeAbort    = "abort"
)

// Result is the outcome of the main line.
type Result struct {
	Outcome string
	// Reason is the terminal token, e.g. 投了.
	Reason string
	// MoveNumber is the number the terminal marker was written under.
	MoveNumber int
}

// Result derives the game outcome from the main line's terminal marker.
func (r *Record) Result() Result {
	term := r.Root.Terminal
	if term == "" {
		return Result{Outcome: OutcomeUnknown}
	}
	ply := r.Root.EndMoveNumber() + 1
	return Result{Outcome: outcomeFromTerminal(term, ply), Reason: term, MoveNumber: ply}
}

func outcomeFromTerminal(token string, ply int) string {
	switch token {
	case "中断":
		return OutcomeAbort
	case "持将棋", "千日手":
		return OutcomeDraw
	case "反則勝ち", "詰み", "入玉勝ち", "勝ち宣言":
		return winnerFromPly(ply)
	case "投了", "切れ負け", "反則負け":
		return winnerFromPly(ply + 1)
	default:
		return OutcomeUnknown
	}
}

func winnerFromPly(ply int) string {
	if SideOf(ply) == First {
		return OutcomeSenteWin
	}
	return OutcomeGoteWin
}

// Player is a name and optional rating taken from the 先手/後手 headers.
type Player struct {
	Name   string
	Rating int
}

var nameRatingRe = regexp.MustCompile(`^(.+?)\((\d+)\)$`)

// Players returns the sente and gote players.
func (r *Record) Players() (sente, gote Player) {
	return parsePlayer(r.headerValue("先手", "下手")), parsePlayer(r.headerValue("後手", "上手"))
}

func (r *Record) headerValue(keys ...string) string {
	for _, key := range keys {
		if v, ok := r.Header[key]; ok {
			return v
		}
	}
	return ""
}

func parsePlayer(raw string) Player {
	raw = strings.TrimSpace(raw)
	if match := nameRatingRe.FindStringSubmatch(raw); match != nil {
		rating, _ := strconv.Atoi(match[2])
		return Player{Name: strings.TrimSpace(match[1]), Rating: rating}
	}
	return Player{Name: raw}
}
