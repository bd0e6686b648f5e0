package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"kifu/internal/cache"
	"kifu/internal/httpresponse"
)

var errBadParam = errors.New("invalid query parameter")

type healthView struct {
	Status   string      `json:"status"`
	Sessions int         `json:"sessions"`
	Cache    cache.Stats `json:"cache"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, healthView{
		Status:   "ok",
		Sessions: s.lib.SessionCount(),
		Cache:    s.lib.CacheStats(),
	})
}

// handleSession reports the cursor of a session opened over the socket.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.lib.Session(chi.URLParam(r, "sid"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, s.lib.View(sess))
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := s.lib.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, list)
}

// handleUpload stores the raw KIF body. The optional name query parameter
// names the record.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	summary, err := s.lib.Upload(r.Context(), r.URL.Query().Get("name"), data)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusCreated, summary)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.lib.Summary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, summary)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.lib.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	line, move, err := cursorParams(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	tree, err := s.lib.Tree(r.Context(), chi.URLParam(r, "id"), line, move)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, tree)
}

func (s *Server) handlePosition(w http.ResponseWriter, r *http.Request) {
	line, move, err := cursorParams(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	view, err := s.lib.PositionAt(r.Context(), chi.URLParam(r, "id"), line, move)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, view)
}

func (s *Server) handleJump(w http.ResponseWriter, r *http.Request) {
	n, err := intParam(r, "n", -1)
	if err == nil && n < 0 {
		err = fmt.Errorf("%w: n is required", errBadParam)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	view, err := s.lib.Jump(r.Context(), chi.URLParam(r, "id"), n)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, view)
}

func cursorParams(r *http.Request) (int, int, error) {
	line, err := intParam(r, "line", 0)
	if err != nil {
		return 0, 0, err
	}
	move, err := intParam(r, "move", 0)
	if err != nil {
		return 0, 0, err
	}
	return line, move, nil
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", errBadParam, name, raw)
	}
	return v, nil
}
