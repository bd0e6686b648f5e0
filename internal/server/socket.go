package server

import (
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"kifu/internal/service"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleSocket opens a navigation session for the record and serves it over
// a websocket: each incoming Command gets one Reply, and autoplay pushes a
// Reply with op "tick" per step.
func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	sess, err := s.lib.OpenSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer func() { _ = s.lib.CloseSession(sess.ID) }()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnw("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	var writeMu sync.Mutex
	send := func(reply service.Reply) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteJSON(reply)
	}

	hello := service.Reply{Session: sess.ID, Op: service.OpState, Position: s.lib.View(sess)}
	if err := send(hello); err != nil {
		return
	}

	onTick := func(view service.PositionView) {
		if err := send(service.Reply{Op: service.OpTick, Moved: true, Position: view}); err != nil {
			s.log.Debugw("autoplay push failed", "session", sess.ID, "error", err)
		}
	}

	for {
		var cmd service.Command
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warnw("websocket read failed", "session", sess.ID, "error", err)
			}
			return
		}
		reply, err := s.lib.Execute(sess, cmd, onTick)
		if err != nil {
			reply = service.Reply{Op: cmd.Op, Position: s.lib.View(sess), Error: err.Error()}
		}
		if err := send(reply); err != nil {
			s.log.Debugw("websocket write failed", "session", sess.ID, "error", err)
			return
		}
	}
}
