package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"kifu/internal/config"
	"kifu/internal/logging"
	"kifu/internal/render"
	"kifu/pkg/kifu"
)

type options struct {
	line      int
	move      int
	find      int
	sfen      bool
	tree      bool
	expandAll bool
	list      bool
	play      bool
}

func main() {
	configPath := flag.String("config", "", "config file (default: KIFU_CONFIG or nearest kifu.yaml)")
	var opts options
	flag.IntVar(&opts.line, "line", 0, "variation line to show")
	flag.IntVar(&opts.move, "move", -1, "moves of the line to play (-1=all)")
	flag.IntVar(&opts.find, "find", 0, "jump to the first line holding this move number")
	flag.BoolVar(&opts.sfen, "sfen", false, "print only the SFEN of the position")
	flag.BoolVar(&opts.tree, "tree", false, "print the variation tree")
	flag.BoolVar(&opts.expandAll, "expand-all", false, "unfold every variation in -tree output")
	flag.BoolVar(&opts.list, "list", false, "print the move list of the line")
	flag.BoolVar(&opts.play, "play", false, "replay the line from the cursor at the autoplay interval")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: kifu [flags] <file.kif>\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(config.Resolve(*configPath))
	if err != nil {
		fatal(err)
	}
	logger := logging.Must(cfg.Log)
	defer func() { _ = logger.Sync() }()

	rec, err := kifu.ParseFile(flag.Arg(0))
	if err != nil {
		fatal(err)
	}
	for _, s := range rec.Skipped {
		logger.Debugw("skipped line", "line", s.Line, "reason", s.Reason, "text", s.Text)
	}

	if opts.play {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := play(ctx, os.Stdout, rec, opts, cfg); err != nil {
			fatal(err)
		}
		return
	}
	if err := inspect(os.Stdout, rec, opts, render.FromConfig(cfg.Display)); err != nil {
		fatal(err)
	}
}

// cursor resolves the flags to a line and move count.
func cursor(rec *kifu.Record, opts options) (*kifu.VariationLine, int, error) {
	if opts.find > 0 {
		line, idx, ok := kifu.FindMoveNumber(rec.Root, opts.find)
		if !ok {
			return nil, 0, fmt.Errorf("move %d is not in any line", opts.find)
		}
		return line, idx + 1, nil
	}
	line, ok := rec.Line(opts.line)
	if !ok {
		return nil, 0, fmt.Errorf("line %d does not exist; the record has %d lines", opts.line, len(rec.Lines()))
	}
	index := opts.move
	if index < 0 || index > len(line.Moves) {
		index = len(line.Moves)
	}
	return line, index, nil
}

func inspect(w io.Writer, rec *kifu.Record, opts options, display render.Options) error {
	line, index, err := cursor(rec, opts)
	if err != nil {
		return err
	}
	pos := kifu.PositionAt(rec, line, index)

	switch {
	case opts.sfen:
		fmt.Fprintln(w, pos.SFEN(line.StartMoveNumber+index))
	case opts.tree:
		t := kifu.BuildTree(rec.Root)
		exp := render.Expansion{}
		if opts.expandAll {
			for _, l := range rec.Lines() {
				exp[l.ID] = true
			}
		}
		fmt.Fprint(w, render.Tree(t, exp, t.ActivePath(line, index)))
	case opts.list:
		fmt.Fprint(w, render.MoveList(line, index))
	default:
		writeSummary(w, rec)
		writePosition(w, line, index, pos, display)
	}
	return nil
}

func writeSummary(w io.Writer, rec *kifu.Record) {
	sente, gote := rec.Players()
	fmt.Fprintf(w, "先手：%s\n後手：%s\n", playerName(sente), playerName(gote))
	if res := rec.Result(); res.Outcome != kifu.OutcomeUnknown {
		fmt.Fprintf(w, "結果：%s (%s)\n", res.Outcome, res.Reason)
	}
	if n := len(rec.Lines()) - 1; n > 0 {
		fmt.Fprintf(w, "変化：%d\n", n)
	}
	fmt.Fprintln(w)
}

func playerName(p kifu.Player) string {
	if p.Name == "" {
		return "-"
	}
	if p.Rating > 0 {
		return fmt.Sprintf("%s(%d)", p.Name, p.Rating)
	}
	return p.Name
}

func writePosition(w io.Writer, line *kifu.VariationLine, index int, pos kifu.Position, display render.Options) {
	fmt.Fprintln(w, render.Caption(line, index, display))
	fmt.Fprint(w, render.Board(pos, display))
	if notes := render.Notes(pos, display); notes != "" {
		fmt.Fprintln(w, notes)
	}
	if vars := kifu.AvailableVariations(line, index); len(vars) > 0 {
		ids := make([]string, 0, len(vars))
		for _, v := range vars {
			ids = append(ids, fmt.Sprintf("%d", v.ID))
		}
		fmt.Fprintf(w, "変化: %s\n", strings.Join(ids, ", "))
	}
}

// play steps a navigator from the cursor to the end of its line, printing
// every position, until the line ends or ctx is cancelled.
func play(ctx context.Context, w io.Writer, rec *kifu.Record, opts options, cfg *config.Config) error {
	line, index, err := cursor(rec, opts)
	if err != nil {
		return err
	}
	if opts.move < 0 && opts.find == 0 {
		index = 0
	}
	display := render.FromConfig(cfg.Display)

	nav := kifu.NewNavigator(rec)
	nav.SwitchTo(line)
	nav.ApplyCurrent(index)
	l, i, pos := nav.Snapshot()
	writePosition(w, l, i, pos, display)

	done := make(chan struct{})
	started := nav.StartAutoplay(cfg.Autoplay.Interval, func(pos kifu.Position) {
		l, i := nav.Cursor()
		fmt.Fprintln(w)
		writePosition(w, l, i, pos, display)
		if i >= len(l.Moves) {
			close(done)
		}
	})
	if !started {
		return nil
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		nav.StopAutoplay()
		return nil
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
