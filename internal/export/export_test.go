package export

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kifu/internal/config"
	"kifu/internal/metrics"
	"kifu/pkg/kifu"
)

const gameKIF = `先手：Alice
後手：Bob
   1 ７六歩(77)
*角道を開ける
   2 ３四歩(33)
   3 ２二角成(88)

変化：2手
   2 ８四歩(83)
`

func TestRows(t *testing.T) {
	rows := Rows("g1", kifu.Parse(gameKIF))
	require.Len(t, rows, 4)

	assert.Equal(t, MoveRow{
		RecordID:     "g1",
		LineID:       0,
		ParentLineID: -1,
		MoveNumber:   1,
		Side:         "sente",
		Label:        "▲７六歩(77)",
		SFEN:         "lnsgkgsnl/1r5b1/ppppppppp/9/9/2P6/PP1PPPPPP/1B5R1/LNSGKGSNL w - 2",
		Comment:      "角道を開ける",
	}, rows[0])
	assert.Equal(t, "gote", rows[1].Side)
	assert.Equal(t, int32(3), rows[2].MoveNumber)

	v := rows[3]
	assert.Equal(t, int32(1), v.LineID)
	assert.Equal(t, int32(0), v.ParentLineID)
	assert.Equal(t, int32(2), v.MoveNumber)
	assert.Equal(t, "lnsgkgsnl/1r5b1/p1ppppppp/1p7/9/2P6/PP1PPPPPP/1B5R1/LNSGKGSNL b - 3", v.SFEN)
}

func TestValidateSchema(t *testing.T) {
	schema, err := loadParquetSchema(schemaJSON)
	require.NoError(t, err)
	assert.NoError(t, validateSchema(schema, MoveRow{}))

	schema.Fields = append(schema.Fields, ParquetField{Name: "eval"})
	err = validateSchema(schema, MoveRow{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing=[eval]")
}

func TestParseParquetName(t *testing.T) {
	assert.Equal(t, "line_id", parseParquetName("name=line_id, type=INT32"))
	assert.Equal(t, "", parseParquetName(""))
	assert.Equal(t, "", parseParquetName("type=INT32"))
}

func TestWriteAndReadParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "moves.parquet")
	rows := Rows("g1", kifu.Parse(gameKIF))

	ch := make(chan MoveRow)
	go func() {
		for _, r := range rows {
			ch <- r
		}
		close(ch)
	}()
	n, err := WriteParquet(path, ch, 1)
	require.NoError(t, err)
	assert.Equal(t, len(rows), n)

	got, err := ReadParquet(path, 1)
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestWriteParquetDrainsOnError(t *testing.T) {
	ch := make(chan MoveRow, 1)
	go func() {
		for i := 0; i < 10; i++ {
			ch <- MoveRow{MoveNumber: int32(i)}
		}
		close(ch)
	}()
	_, err := WriteParquet(filepath.Join(t.TempDir(), "missing", "moves.parquet"), ch, 1)
	assert.Error(t, err)
	_, open := <-ch
	assert.False(t, open)
}

func TestExportDir(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.kif", "nested/b.kif"} {
		path := filepath.Join(dir, "games", name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(gameKIF), 0o644))
	}
	out := filepath.Join(dir, "moves.parquet")

	e := NewExporter(config.ExportConfig{Workers: 2, Parallel: 1}, zap.NewNop().Sugar(), metrics.NewCollector())
	stats, err := e.ExportDir(filepath.Join(dir, "games"), out, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Files)
	assert.Equal(t, 0, stats.Failed)
	assert.Equal(t, 8, stats.Rows)

	got, err := ReadParquet(out, 1)
	require.NoError(t, err)
	ids := map[string]int{}
	for _, r := range got {
		ids[r.RecordID]++
	}
	keys := make([]string, 0, len(ids))
	for k := range ids {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	assert.Equal(t, []string{"a.kif", "nested/b.kif"}, keys)
	assert.Equal(t, 4, ids["a.kif"])
}

func TestExportDirLimits(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(config.ExportConfig{}, zap.NewNop().Sugar(), nil)

	_, err := e.ExportDir(dir, filepath.Join(dir, "out.parquet"), 0)
	assert.Error(t, err)

	for _, name := range []string{"a.kif", "b.kif", "c.kif"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(gameKIF), 0o644))
	}
	stats, err := e.ExportDir(dir, filepath.Join(dir, "out.parquet"), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Files)
	assert.Equal(t, 8, stats.Rows)
}

func TestFeedFilesReportsWalkError(t *testing.T) {
	ch := make(chan string, 4)
	err := feedFiles(filepath.Join(t.TempDir(), "gone"), 0, ch)
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
	_, open := <-ch
	assert.False(t, open)
}

func TestFeedFilesStopsAtLimit(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.kif", "b.kif", "c.kif"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(gameKIF), 0o644))
	}
	ch := make(chan string, 4)
	require.NoError(t, feedFiles(dir, 2, ch))
	var got []string
	for p := range ch {
		got = append(got, filepath.Base(p))
	}
	assert.Equal(t, []string{"a.kif", "b.kif"}, got)
}
