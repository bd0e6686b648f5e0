package export

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"

	"kifu/pkg/kifu"
)

// MoveRow is one replayed move of one variation line.
type MoveRow struct {
	RecordID     string `parquet:"name=record_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	LineID       int32  `parquet:"name=line_id, type=INT32"`
	ParentLineID int32  `parquet:"name=parent_line_id, type=INT32"`
	MoveNumber   int32  `parquet:"name=move_number, type=INT32"`
	Side         string `parquet:"name=side, type=BYTE_ARRAY, convertedtype=UTF8"`
	Label        string `parquet:"name=label, type=BYTE_ARRAY, convertedtype=UTF8"`
	SFEN         string `parquet:"name=sfen, type=BYTE_ARRAY, convertedtype=UTF8"`
	Comment      string `parquet:"name=comment, type=BYTE_ARRAY, convertedtype=UTF8"`
	Timestamp    string `parquet:"name=timestamp, type=BYTE_ARRAY, convertedtype=UTF8"`
}

type ParquetSchema struct {
	Name   string         `json:"name"`
	Fields []ParquetField `json:"fields"`
}

type ParquetField struct {
	Name     string      `json:"name"`
	Type     interface{} `json:"type"`
	Nullable bool        `json:"nullable"`
}

//go:embed schema/move_rows.json
var schemaJSON []byte

// Rows replays every line of rec and returns one row per move, lines in
// ID order. ParentLineID is -1 on the main line.
func Rows(recordID string, rec *kifu.Record) []MoveRow {
	var rows []MoveRow
	for _, line := range rec.Lines() {
		parent := int32(-1)
		if !line.IsRoot() {
			parent = int32(line.Parent.Line.ID)
		}
		pos := kifu.PositionAt(rec, line, 0)
		for i, m := range line.Moves {
			pos.Apply(m)
			side := "sente"
			if m.Side() == kifu.Second {
				side = "gote"
			}
			rows = append(rows, MoveRow{
				RecordID:     recordID,
				LineID:       int32(line.ID),
				ParentLineID: parent,
				MoveNumber:   int32(m.N),
				Side:         side,
				Label:        m.Label(),
				SFEN:         pos.SFEN(line.StartMoveNumber + i + 1),
				Comment:      m.Comment,
				Timestamp:    m.Timestamp,
			})
		}
	}
	return rows
}

// WriteParquet drains rows into a snappy-compressed parquet file at path and
// returns the number of rows written. rows is always drained, even on error.
func WriteParquet(path string, rows <-chan MoveRow, parallel int64) (int, error) {
	defer drain(rows)

	schema, err := loadParquetSchema(schemaJSON)
	if err != nil {
		return 0, err
	}
	if err := validateSchema(schema, MoveRow{}); err != nil {
		return 0, err
	}

	fileWriter, err := local.NewLocalFileWriter(path)
	if err != nil {
		return 0, err
	}
	defer fileWriter.Close()

	parquetWriter, err := writer.NewParquetWriter(fileWriter, new(MoveRow), parallel)
	if err != nil {
		return 0, err
	}
	parquetWriter.CompressionType = parquet.CompressionCodec_SNAPPY

	n := 0
	for row := range rows {
		if err := parquetWriter.Write(row); err != nil {
			return n, err
		}
		n++
	}
	if err := parquetWriter.WriteStop(); err != nil {
		return n, err
	}
	return n, fileWriter.Close()
}

func drain(rows <-chan MoveRow) {
	for range rows {
	}
}

// ReadParquet loads every row of a file written by WriteParquet.
func ReadParquet(path string, parallel int64) ([]MoveRow, error) {
	fileReader, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, err
	}
	defer fileReader.Close()

	parquetReader, err := reader.NewParquetReader(fileReader, new(MoveRow), parallel)
	if err != nil {
		return nil, err
	}
	defer parquetReader.ReadStop()

	rows := make([]MoveRow, parquetReader.GetNumRows())
	if err := parquetReader.Read(&rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func loadParquetSchema(data []byte) (ParquetSchema, error) {
	var schema ParquetSchema
	if err := json.Unmarshal(data, &schema); err != nil {
		return ParquetSchema{}, err
	}
	return schema, nil
}

func validateSchema(schema ParquetSchema, sample any) error {
	schemaFields := make(map[string]struct{}, len(schema.Fields))
	for _, field := range schema.Fields {
		schemaFields[field.Name] = struct{}{}
	}
	structFields := structParquetFieldNames(sample)
	missing := diffKeys(schemaFields, structFields)
	extra := diffKeys(structFields, schemaFields)
	if len(missing) > 0 || len(extra) > 0 {
		return fmt.Errorf("parquet schema mismatch: missing=%v extra=%v", missing, extra)
	}
	return nil
}

func structParquetFieldNames(sample any) map[string]struct{} {
	fields := map[string]struct{}{}
	v := reflect.TypeOf(sample)
	for i := 0; i < v.NumField(); i++ {
		name := parseParquetName(v.Field(i).Tag.Get("parquet"))
		if name != "" {
			fields[name] = struct{}{}
		}
	}
	return fields
}

func parseParquetName(tag string) string {
	for _, part := range strings.Split(tag, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) == 2 && kv[0] == "name" {
			return kv[1]
		}
	}
	return ""
}

func diffKeys(a, b map[string]struct{}) []string {
	var diff []string
	for key := range a {
		if _, ok := b[key]; !ok {
			diff = append(diff, key)
		}
	}
	return diff
}
