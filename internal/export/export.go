package export

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Lumos-Labs-HQ/datagen/internal/generator"
	"github.com/Lumos-Labs-HQ/datagen/internal/sink"
)

const (
	FormatJSON   = "json"
	FormatCSV    = "csv"
	FormatSQLite = "sqlite"
)

var Formats = []string{FormatJSON, FormatCSV, FormatSQLite}

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// WriteJSON writes records as a JSON array, keeping each record's key order.
func WriteJSON(w io.Writer, records []generator.Record, indent bool) error {
	if records == nil {
		records = []generator.Record{}
	}

	var (
		data []byte
		err  error
	)
	if indent {
		data, err = json.MarshalIndent(records, "", "  ")
	} else {
		data, err = json.Marshal(records)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	if indent {
		_, err = io.WriteString(w, "\n")
	}
	return err
}

// WriteCSV writes a header taken from the first record's keys followed by one
// line per record. Every cell is quoted. An empty dataset writes nothing.
func WriteCSV(w io.Writer, records []generator.Record) error {
	if len(records) == 0 {
		return nil
	}

	bw := bufio.NewWriter(w)
	headers := records[0].Keys()
	writeLine(bw, headers)

	cells := make([]string, len(headers))
	for _, rec := range records {
		for i, key := range headers {
			v, _ := rec.Get(key)
			cell, err := CellValue(v)
			if err != nil {
				return fmt.Errorf("failed to encode %s: %w", key, err)
			}
			cells[i] = cell
		}
		writeLine(bw, cells)
	}
	return bw.Flush()
}

func writeLine(w *bufio.Writer, cells []string) {
	for i, cell := range cells {
		if i > 0 {
			w.WriteByte(',')
		}
		w.WriteByte('"')
		w.WriteString(strings.ReplaceAll(cell, `"`, `""`))
		w.WriteByte('"')
	}
	w.WriteByte('\n')
}

// CellValue renders one record value as CSV text.
func CellValue(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case bool:
		return strconv.FormatBool(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano), nil
	default:
		data, err := json.Marshal(x)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}

// ToFile writes records to dir as <name>_<timestamp>.<ext> and returns the
// path. The sqlite format creates a table named after the file.
func ToFile(ctx context.Context, dir, name, format string, fields []generator.FieldSpec, records []generator.Record) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	base := unsafeNameChars.ReplaceAllString(name, "_")
	if base == "" || base == "_" {
		base = "dataset"
	}
	timestamp := time.Now().Format("2006-01-02_15-04-05")

	switch format {
	case FormatJSON, "":
		path := filepath.Join(dir, fmt.Sprintf("%s_%s.json", base, timestamp))
		return path, writeFile(path, func(w io.Writer) error { return WriteJSON(w, records, true) })
	case FormatCSV:
		path := filepath.Join(dir, fmt.Sprintf("%s_%s.csv", base, timestamp))
		return path, writeFile(path, func(w io.Writer) error { return WriteCSV(w, records) })
	case FormatSQLite:
		path := filepath.Join(dir, fmt.Sprintf("%s_%s.db", base, timestamp))
		return path, exportToSQLite(ctx, path, tableName(base), fields, records)
	default:
		return "", fmt.Errorf("unsupported export format: %s", format)
	}
}

func writeFile(path string, write func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(file); err != nil {
		file.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return file.Close()
}

func tableName(base string) string {
	name := strings.ReplaceAll(base, "-", "_")
	if name[0] >= '0' && name[0] <= '9' {
		name = "t_" + name
	}
	return name
}

func exportToSQLite(ctx context.Context, path, table string, fields []generator.FieldSpec, records []generator.Record) error {
	s, err := sink.Open(ctx, "sqlite3", path)
	if err != nil {
		return fmt.Errorf("failed to create SQLite database: %w", err)
	}
	defer s.Close()

	if err := s.CreateTable(ctx, table, fields); err != nil {
		return err
	}
	return s.Insert(ctx, table, fields, records, 0, nil)
}
