package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kifu/internal/config"
	"kifu/internal/render"
	"kifu/pkg/kifu"
)

const sampleKIF = `先手：Alice(1800)
後手：Bob
   1 ７六歩(77)
   2 ３四歩(33)
   3 ２六歩(27)
   4 投了

変化：2手
   2 ８四歩(83)
`

func TestInspectSFEN(t *testing.T) {
	rec := kifu.Parse(sampleKIF)
	var out bytes.Buffer
	require.NoError(t, inspect(&out, rec, options{move: 1, sfen: true}, render.DefaultOptions()))
	assert.Equal(t, "lnsgkgsnl/1r5b1/ppppppppp/9/9/2P6/PP1PPPPPP/1B5R1/LNSGKGSNL w - 2\n", out.String())

	out.Reset()
	require.NoError(t, inspect(&out, rec, options{line: 1, move: -1, sfen: true}, render.DefaultOptions()))
	assert.Equal(t, "lnsgkgsnl/1r5b1/p1ppppppp/1p7/9/2P6/PP1PPPPPP/1B5R1/LNSGKGSNL b - 3\n", out.String())
}

func TestInspectDefault(t *testing.T) {
	rec := kifu.Parse(sampleKIF)
	var out bytes.Buffer
	require.NoError(t, inspect(&out, rec, options{move: 1}, render.DefaultOptions()))
	s := out.String()
	assert.Contains(t, s, "先手：Alice(1800)\n")
	assert.Contains(t, s, "結果："+kifu.OutcomeSenteWin)
	assert.Contains(t, s, "1手目 ▲７六歩(77)\n")
	assert.Contains(t, s, "変化: 1\n")
}

func TestInspectTreeAndList(t *testing.T) {
	rec := kifu.Parse(sampleKIF)
	var out bytes.Buffer
	require.NoError(t, inspect(&out, rec, options{move: -1, tree: true, expandAll: true}, render.DefaultOptions()))
	assert.Contains(t, out.String(), "[変化 1]")
	assert.Contains(t, out.String(), "△８四歩(83)")

	out.Reset()
	require.NoError(t, inspect(&out, rec, options{move: 2, list: true}, render.DefaultOptions()))
	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.GreaterOrEqual(t, len(lines), 3)
	assert.True(t, strings.HasPrefix(lines[1], ">"))
}

func TestCursor(t *testing.T) {
	rec := kifu.Parse(sampleKIF)

	line, index, err := cursor(rec, options{find: 2})
	require.NoError(t, err)
	assert.Equal(t, 0, line.ID)
	assert.Equal(t, 2, index)

	_, _, err = cursor(rec, options{find: 9})
	assert.Error(t, err)

	_, _, err = cursor(rec, options{line: 5})
	assert.Error(t, err)

	line, index, err = cursor(rec, options{move: 99})
	require.NoError(t, err)
	assert.Equal(t, 3, index)
	assert.Equal(t, 0, line.ID)
}

func TestPlay(t *testing.T) {
	rec := kifu.Parse(sampleKIF)
	cfg := config.Default()
	cfg.Autoplay.Interval = 5 * time.Millisecond

	var out bytes.Buffer
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	require.NoError(t, play(ctx, &out, rec, options{move: -1}, cfg))

	s := out.String()
	assert.Contains(t, s, kifu.StartLabel)
	assert.Contains(t, s, "3手目 ▲２六歩(27)")
	assert.Equal(t, 4, strings.Count(s, "後手の持駒"))
}
