package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"kifu/internal/cache"
	"kifu/internal/config"
	apperrors "kifu/internal/errors"
	"kifu/internal/metrics"
	"kifu/internal/render"
	"kifu/internal/store"
	"kifu/pkg/kifu"
)

// Library owns the stored records, a cache of their parsed trees and the
// open navigation sessions.
type Library struct {
	store    store.Store
	parsed   *cache.LRU[*kifu.Record]
	metrics  *metrics.Collector
	log      *zap.SugaredLogger
	display  render.Options
	interval time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

// New builds a library over st. m may be nil.
func New(st store.Store, cfg *config.Config, log *zap.SugaredLogger, m *metrics.Collector) *Library {
	return &Library{
		store:    st,
		parsed:   cache.NewLRU[*kifu.Record](cfg.Cache.MaxRecords),
		metrics:  m,
		log:      log,
		display:  render.FromConfig(cfg.Display),
		interval: cfg.Autoplay.Interval,
		sessions: make(map[string]*Session),
	}
}

// CacheStats reports the parsed-record cache counters.
func (l *Library) CacheStats() cache.Stats {
	return l.parsed.Stats()
}

// SessionCount returns the number of open sessions.
func (l *Library) SessionCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.sessions)
}

// Upload decodes, parses and stores a KIF document under a new ID.
func (l *Library) Upload(ctx context.Context, name string, data []byte) (RecordSummary, error) {
	text, err := kifu.Decode(data)
	if err != nil {
		return RecordSummary{}, fmt.Errorf("%w: %w", apperrors.ErrInvalidEncoding, err)
	}
	rec := kifu.Parse(text)
	l.observeParse("upload", rec)
	if isEmpty(rec) {
		return RecordSummary{}, apperrors.ErrEmptyRecord
	}

	stored := store.StoredRecord{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(name),
		Text:      text,
		Header:    rec.Header,
		Moves:     len(rec.Root.Moves),
		CreatedAt: time.Now().UTC(),
	}
	if err := l.store.Put(ctx, stored); err != nil {
		return RecordSummary{}, err
	}
	l.parsed.Put(stored.ID, rec)
	l.logSkipped(stored.ID, rec)
	l.log.Infow("record uploaded", "id", stored.ID, "name", stored.Name, "moves", stored.Moves, "lines", len(rec.Lines()))
	return summarize(stored, rec), nil
}

func isEmpty(rec *kifu.Record) bool {
	return len(rec.Root.Moves) == 0 && len(rec.Root.LeadVariations) == 0 &&
		len(rec.Header) == 0 && rec.Initial == nil
}

// Record returns the parsed record for id, parsing the stored text on a
// cache miss.
func (l *Library) Record(ctx context.Context, id string) (*kifu.Record, error) {
	if rec, ok := l.parsed.Get(id); ok {
		l.observeCache(true)
		return rec, nil
	}
	l.observeCache(false)
	stored, err := l.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	rec := kifu.Parse(stored.Text)
	l.observeParse("store", rec)
	l.parsed.Put(id, rec)
	return rec, nil
}

func (l *Library) Summary(ctx context.Context, id string) (RecordSummary, error) {
	stored, err := l.store.Get(ctx, id)
	if err != nil {
		return RecordSummary{}, err
	}
	rec, err := l.Record(ctx, id)
	if err != nil {
		return RecordSummary{}, err
	}
	return summarize(stored, rec), nil
}

// List returns the stored records, oldest first, without parsing them.
func (l *Library) List(ctx context.Context) ([]RecordSummary, error) {
	stored, err := l.store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]RecordSummary, 0, len(stored))
	for _, s := range stored {
		out = append(out, RecordSummary{
			ID:        s.ID,
			Name:      s.Name,
			Header:    s.Header,
			Moves:     s.Moves,
			CreatedAt: s.CreatedAt,
		})
	}
	return out, nil
}

func (l *Library) Delete(ctx context.Context, id string) error {
	if err := l.store.Delete(ctx, id); err != nil {
		return err
	}
	l.parsed.Delete(id)
	return nil
}

// PositionAt replays move moves of line lineID. The move count is clamped to
// the line.
func (l *Library) PositionAt(ctx context.Context, id string, lineID, move int) (PositionView, error) {
	rec, err := l.Record(ctx, id)
	if err != nil {
		return PositionView{}, err
	}
	line, ok := rec.Line(lineID)
	if !ok {
		return PositionView{}, fmt.Errorf("%w: %d", apperrors.ErrLineNotFound, lineID)
	}
	return DescribePosition(rec, line, move, l.display), nil
}

// Jump finds move number n anywhere in the tree and returns the position
// just after it.
func (l *Library) Jump(ctx context.Context, id string, n int) (PositionView, error) {
	rec, err := l.Record(ctx, id)
	if err != nil {
		return PositionView{}, err
	}
	line, idx, ok := kifu.FindMoveNumber(rec.Root, n)
	if !ok {
		return PositionView{}, fmt.Errorf("%w: %d", apperrors.ErrMoveNotFound, n)
	}
	return DescribePosition(rec, line, idx+1, l.display), nil
}

// Tree projects the record's variation tree with the cursor (lineID, move)
// highlighted.
func (l *Library) Tree(ctx context.Context, id string, lineID, move int) (TreeView, error) {
	rec, err := l.Record(ctx, id)
	if err != nil {
		return TreeView{}, err
	}
	line, ok := rec.Line(lineID)
	if !ok {
		return TreeView{}, fmt.Errorf("%w: %d", apperrors.ErrLineNotFound, lineID)
	}
	return DescribeTree(rec, line, move, render.Expansion{}), nil
}

// Close stops every session and closes the store.
func (l *Library) Close(ctx context.Context) error {
	l.mu.Lock()
	for id, s := range l.sessions {
		s.nav.StopAutoplay()
		delete(l.sessions, id)
		l.observeSession(false)
	}
	l.mu.Unlock()
	return l.store.Close(ctx)
}

func (l *Library) logSkipped(id string, rec *kifu.Record) {
	for _, s := range rec.Skipped {
		l.log.Debugw("skipped line", "record", id, "line", s.Line, "reason", s.Reason, "text", s.Text)
	}
}

func (l *Library) observeParse(source string, rec *kifu.Record) {
	if l.metrics != nil {
		l.metrics.RecordParse(source, len(rec.Skipped))
	}
}

func (l *Library) observeCache(hit bool) {
	if l.metrics != nil {
		l.metrics.RecordCache(hit)
	}
}

func (l *Library) observeSession(opened bool) {
	if l.metrics == nil {
		return
	}
	if opened {
		l.metrics.SessionOpened()
	} else {
		l.metrics.SessionClosed()
	}
}
