package service

import (
	"time"

	"kifu/internal/render"
	"kifu/internal/store"
	"kifu/pkg/kifu"
)

type SquareView struct {
	File int `json:"file"`
	Rank int `json:"rank"`
}

type MoveView struct {
	Number    int    `json:"number"`
	Label     string `json:"label"`
	Side      string `json:"side"`
	Comment   string `json:"comment,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Branches  int    `json:"branches,omitempty"`
}

type VariationView struct {
	LineID          int    `json:"line_id"`
	StartMoveNumber int    `json:"start_move_number"`
	FirstMove       string `json:"first_move"`
}

// PositionView is the JSON form of a cursor and the position replayed at it.
type PositionView struct {
	LineID     int             `json:"line_id"`
	Index      int             `json:"index"`
	SFEN       string          `json:"sfen"`
	Board      string          `json:"board"`
	Caption    string          `json:"caption"`
	Notes      string          `json:"notes,omitempty"`
	LastFrom   *SquareView     `json:"last_from,omitempty"`
	LastTo     *SquareView     `json:"last_to,omitempty"`
	Move       *MoveView       `json:"move,omitempty"`
	Variations []VariationView `json:"variations"`
	Autoplay   bool            `json:"autoplay,omitempty"`
}

type PlayerView struct {
	Name   string `json:"name"`
	Rating int    `json:"rating,omitempty"`
}

type SkippedView struct {
	Line   int    `json:"line"`
	Text   string `json:"text"`
	Reason string `json:"reason"`
}

// LineView describes one variation line and where it branches from.
type LineView struct {
	ID              int    `json:"id"`
	StartMoveNumber int    `json:"start_move_number"`
	EndMoveNumber   int    `json:"end_move_number"`
	ParentLine      int    `json:"parent_line"`
	ParentMoves     int    `json:"parent_moves"`
	FirstMove       string `json:"first_move,omitempty"`
	Terminal        string `json:"terminal,omitempty"`
}

// RecordSummary describes a stored record without its moves.
type RecordSummary struct {
	ID         string            `json:"id,omitempty"`
	Name       string            `json:"name,omitempty"`
	Header     map[string]string `json:"header"`
	Moves      int               `json:"moves"`
	Lines      int               `json:"lines"`
	Variations []LineView        `json:"variations,omitempty"`
	Sente      PlayerView        `json:"sente"`
	Gote       PlayerView        `json:"gote"`
	Outcome    string            `json:"outcome"`
	Reason     string            `json:"reason,omitempty"`
	StartSFEN  string            `json:"start_sfen"`
	Skipped    []SkippedView     `json:"skipped,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

type TreeNodeView struct {
	ID       int    `json:"id"`
	Ply      int    `json:"ply"`
	Label    string `json:"label"`
	Parent   int    `json:"parent"`
	Children []int  `json:"children,omitempty"`
	LineID   int    `json:"line_id"`
	Index    int    `json:"index"`
}

type TreeView struct {
	RootID int            `json:"root_id"`
	Nodes  []TreeNodeView `json:"nodes"`
	Active []int          `json:"active"`
	Text   string         `json:"text"`
}

func squareView(s *kifu.Square) *SquareView {
	if s == nil {
		return nil
	}
	return &SquareView{File: s.File, Rank: s.Rank}
}

func moveView(m *kifu.Move) *MoveView {
	if m == nil {
		return nil
	}
	side := "sente"
	if m.Side() == kifu.Second {
		side = "gote"
	}
	return &MoveView{
		Number:    m.N,
		Label:     m.Label(),
		Side:      side,
		Comment:   m.Comment,
		Timestamp: m.Timestamp,
		Branches:  len(m.Variations),
	}
}

func variationViews(lines []*kifu.VariationLine) []VariationView {
	out := make([]VariationView, 0, len(lines))
	for _, v := range lines {
		view := VariationView{LineID: v.ID, StartMoveNumber: v.StartMoveNumber}
		if len(v.Moves) > 0 {
			view.FirstMove = v.Moves[0].Label()
		}
		out = append(out, view)
	}
	return out
}

func positionView(line *kifu.VariationLine, index int, pos kifu.Position, opts render.Options) PositionView {
	return PositionView{
		LineID:     line.ID,
		Index:      index,
		SFEN:       pos.SFEN(line.StartMoveNumber + index),
		Board:      render.Board(pos, opts),
		Caption:    render.Caption(line, index, opts),
		Notes:      render.Notes(pos, opts),
		LastFrom:   squareView(pos.LastFrom),
		LastTo:     squareView(pos.LastTo),
		Move:       moveView(pos.Latest),
		Variations: variationViews(kifu.AvailableVariations(line, index)),
	}
}

func summarize(stored store.StoredRecord, rec *kifu.Record) RecordSummary {
	sente, gote := rec.Players()
	result := rec.Result()
	summary := RecordSummary{
		ID:        stored.ID,
		Name:      stored.Name,
		Header:    rec.Header,
		Moves:     len(rec.Root.Moves),
		Lines:     len(rec.Lines()),
		Sente:     PlayerView{Name: sente.Name, Rating: sente.Rating},
		Gote:      PlayerView{Name: gote.Name, Rating: gote.Rating},
		Outcome:   result.Outcome,
		Reason:    result.Reason,
		StartSFEN: rec.StartPosition().SFEN(rec.Root.StartMoveNumber),
		CreatedAt: stored.CreatedAt,
	}
	for _, line := range rec.Lines() {
		if line.IsRoot() {
			continue
		}
		view := LineView{
			ID:              line.ID,
			StartMoveNumber: line.StartMoveNumber,
			EndMoveNumber:   line.EndMoveNumber(),
			ParentLine:      line.Parent.Line.ID,
			ParentMoves:     line.Parent.MoveCount,
			Terminal:        line.Terminal,
		}
		if len(line.Moves) > 0 {
			view.FirstMove = line.Moves[0].Label()
		}
		summary.Variations = append(summary.Variations, view)
	}
	for _, s := range rec.Skipped {
		summary.Skipped = append(summary.Skipped, SkippedView{Line: s.Line, Text: s.Text, Reason: s.Reason})
	}
	return summary
}

// Describe summarizes a record that was parsed but not stored.
func Describe(rec *kifu.Record) RecordSummary {
	return summarize(store.StoredRecord{}, rec)
}

// DescribePosition renders the cursor (line, index) of a record. The index
// is clamped to the line.
func DescribePosition(rec *kifu.Record, line *kifu.VariationLine, index int, opts render.Options) PositionView {
	index = min(max(index, 0), len(line.Moves))
	return positionView(line, index, kifu.PositionAt(rec, line, index), opts)
}

// DescribeTree projects a record's tree with the cursor (line, index) active.
func DescribeTree(rec *kifu.Record, line *kifu.VariationLine, index int, exp render.Expansion) TreeView {
	t := kifu.BuildTree(rec.Root)
	return treeView(t, t.ActivePath(line, min(max(index, 0), len(line.Moves))), exp)
}

func treeView(t kifu.MoveTree, active []int, exp render.Expansion) TreeView {
	view := TreeView{RootID: t.RootID, Active: active, Text: render.Tree(t, exp, active)}
	for _, n := range t.Nodes {
		view.Nodes = append(view.Nodes, TreeNodeView{
			ID:       n.ID,
			Ply:      n.Ply,
			Label:    n.Label,
			Parent:   n.Parent,
			Children: n.Children,
			LineID:   n.Jump.LineID,
			Index:    n.Jump.MoveCount,
		})
	}
	return view
}
