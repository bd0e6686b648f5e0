package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "kifu/internal/errors"
	"kifu/internal/render"
	"kifu/pkg/kifu"
)

// Session is one viewer's navigator over a record plus its tree view state.
type Session struct {
	ID        string
	RecordID  string
	CreatedAt time.Time

	nav *kifu.Navigator

	mu        sync.Mutex
	expansion render.Expansion
}

// Navigator exposes the session's cursor.
func (s *Session) Navigator() *kifu.Navigator {
	return s.nav
}

// Navigation commands accepted by Execute.
const (
	OpState   = "state"
	OpFirst   = "first"
	OpBack    = "back"
	OpForward = "forward"
	OpLast    = "last"
	OpJump    = "jump"
	OpSwitch  = "switch"
	OpParent  = "parent"
	OpPlay    = "play"
	OpStop    = "stop"
	OpExpand  = "expand"
	OpTree    = "tree"

	// OpTick marks replies pushed by autoplay.
	OpTick = "tick"
)

// Command is a navigation request, as sent over the session socket.
type Command struct {
	Op string `json:"op"`
	// N is the move number for jump.
	N int `json:"n,omitempty"`
	// Line is the line ID for switch and expand.
	Line int `json:"line,omitempty"`
	// IntervalMs overrides the autoplay interval for play.
	IntervalMs int `json:"interval_ms,omitempty"`
}

// Reply answers a command. Moved is false when the cursor could not move,
// e.g. stepping back at the start.
type Reply struct {
	Session  string       `json:"session,omitempty"`
	Op       string       `json:"op"`
	Moved    bool         `json:"moved"`
	Position PositionView `json:"position"`
	Tree     *TreeView    `json:"tree,omitempty"`
	Error    string       `json:"error,omitempty"`
}

// OpenSession starts a navigator at the beginning of record id.
func (l *Library) OpenSession(ctx context.Context, recordID string) (*Session, error) {
	rec, err := l.Record(ctx, recordID)
	if err != nil {
		return nil, err
	}
	s := &Session{
		ID:        uuid.New().String(),
		RecordID:  recordID,
		CreatedAt: time.Now().UTC(),
		nav:       kifu.NewNavigator(rec),
		expansion: render.Expansion{},
	}
	l.mu.Lock()
	l.sessions[s.ID] = s
	l.mu.Unlock()
	l.observeSession(true)
	l.log.Debugw("session opened", "session", s.ID, "record", recordID)
	return s, nil
}

// Session looks up an open session by ID.
func (l *Library) Session(id string) (*Session, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.sessions[id]
	if !ok {
		return nil, apperrors.ErrSessionNotFound
	}
	return s, nil
}

// CloseSession stops the session's autoplay and forgets it.
func (l *Library) CloseSession(id string) error {
	l.mu.Lock()
	s, ok := l.sessions[id]
	delete(l.sessions, id)
	l.mu.Unlock()
	if !ok {
		return apperrors.ErrSessionNotFound
	}
	s.nav.StopAutoplay()
	l.observeSession(false)
	l.log.Debugw("session closed", "session", id)
	return nil
}

// View renders the session's current cursor.
func (l *Library) View(s *Session) PositionView {
	line, index, pos := s.nav.Snapshot()
	view := positionView(line, index, pos, l.display)
	view.Autoplay = s.nav.Autoplaying()
	return view
}

// SessionTree renders the tree with the session's expansion state and cursor.
func (l *Library) SessionTree(s *Session) TreeView {
	line, index := s.nav.Cursor()
	t := kifu.BuildTree(s.nav.Record().Root)
	s.mu.Lock()
	defer s.mu.Unlock()
	return treeView(t, t.ActivePath(line, index), s.expansion)
}

// Execute applies cmd to the session. For play, onTick receives every
// autoplay step until the end of the line or a stop.
func (l *Library) Execute(s *Session, cmd Command, onTick func(PositionView)) (Reply, error) {
	nav := s.nav
	var moved bool
	switch cmd.Op {
	case OpState:
	case OpFirst:
		moved = nav.StepFirst()
	case OpBack:
		moved = nav.StepBack()
	case OpForward:
		moved = nav.StepForward()
	case OpLast:
		moved = nav.StepLast()
	case OpJump:
		moved = nav.JumpToMoveNumber(cmd.N)
	case OpSwitch:
		line, ok := nav.Record().Line(cmd.Line)
		if !ok {
			return Reply{}, fmt.Errorf("%w: %d", apperrors.ErrLineNotFound, cmd.Line)
		}
		moved = nav.SwitchTo(line)
	case OpParent:
		moved = nav.GoToParent()
	case OpPlay:
		interval := l.interval
		if cmd.IntervalMs > 0 {
			interval = time.Duration(cmd.IntervalMs) * time.Millisecond
		}
		moved = nav.StartAutoplay(interval, func(kifu.Position) {
			if onTick != nil {
				onTick(l.View(s))
			}
		})
	case OpStop:
		moved = nav.Autoplaying()
		nav.StopAutoplay()
	case OpExpand:
		if _, ok := nav.Record().Line(cmd.Line); !ok {
			return Reply{}, fmt.Errorf("%w: %d", apperrors.ErrLineNotFound, cmd.Line)
		}
		s.mu.Lock()
		s.expansion.Toggle(cmd.Line)
		s.mu.Unlock()
		tree := l.SessionTree(s)
		return Reply{Op: cmd.Op, Position: l.View(s), Tree: &tree}, nil
	case OpTree:
		tree := l.SessionTree(s)
		return Reply{Op: cmd.Op, Position: l.View(s), Tree: &tree}, nil
	default:
		return Reply{}, fmt.Errorf("%w: %q", apperrors.ErrInvalidCommand, cmd.Op)
	}
	return Reply{Op: cmd.Op, Moved: moved, Position: l.View(s)}, nil
}
