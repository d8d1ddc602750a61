package export

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Lumos-Labs-HQ/datagen/internal/generator"
)

func sampleRecords() []generator.Record {
	var a, b generator.Record
	a.Set("name", `Ada "Countess" Lovelace`)
	a.Set("age", int64(36))
	a.Set("born", time.Date(1815, 12, 10, 0, 0, 0, 0, time.UTC))
	a.Set("home", generator.Address{City: "London", Country: "United Kingdom"})
	b.Set("name", "Grace")
	b.Set("age", nil)
	b.Set("born", time.Date(1906, 12, 9, 12, 30, 0, 500000000, time.UTC))
	b.Set("home", nil)
	return []generator.Record{a, b}
}

func TestWriteJSONKeepsOrder(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleRecords(), false); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, `[{"name":`) {
		t.Errorf("Expected name first, got %s", out)
	}
	if strings.Index(out, `"age"`) > strings.Index(out, `"born"`) {
		t.Errorf("Expected age before born, got %s", out)
	}
}

func TestWriteJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, nil, false); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	if buf.String() != "[]" {
		t.Errorf("Expected [], got %s", buf.String())
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleRecords()); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected 3 lines, got %d: %q", len(lines), buf.String())
	}
	if lines[0] != `"name","age","born","home"` {
		t.Errorf("Unexpected header %s", lines[0])
	}
	if !strings.HasPrefix(lines[1], `"Ada ""Countess"" Lovelace","36","1815-12-10T00:00:00Z","{`) {
		t.Errorf("Unexpected first row %s", lines[1])
	}
	if !strings.Contains(lines[1], `""city"":""London""`) {
		t.Errorf("Expected address as escaped JSON, got %s", lines[1])
	}
	if lines[2] != `"Grace","","1906-12-09T12:30:00.5Z",""` {
		t.Errorf("Unexpected second row %s", lines[2])
	}
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("Expected empty output, got %q", buf.String())
	}
}

func TestCellValue(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{true, "true"},
		{int64(-7), "-7"},
		{1.5, "1.5"},
		{"x", "x"},
		{[]any{int64(1), "a"}, `[1,"a"]`},
	}
	for _, c := range cases {
		got, err := CellValue(c.in)
		if err != nil {
			t.Errorf("CellValue(%v) failed: %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("CellValue(%v): expected %q, got %q", c.in, c.want, got)
		}
	}
}

func TestToFile(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	fields := []generator.FieldSpec{
		{Name: "name", DataType: generator.TypeName},
		{Name: "age", DataType: generator.TypeNumber},
		{Name: "born", DataType: generator.TypeDate},
		{Name: "home", DataType: generator.TypeAddress},
	}

	for _, format := range Formats {
		t.Run(format, func(t *testing.T) {
			path, err := ToFile(ctx, dir, "my data/set", format, fields, sampleRecords())
			if err != nil {
				t.Fatalf("ToFile failed: %v", err)
			}
			if filepath.Dir(path) != dir {
				t.Errorf("Expected file in %s, got %s", dir, path)
			}
			if !strings.HasPrefix(filepath.Base(path), "my_data_set_") {
				t.Errorf("Expected sanitized name, got %s", filepath.Base(path))
			}
			info, err := os.Stat(path)
			if err != nil {
				t.Fatalf("Expected file to exist: %v", err)
			}
			if info.Size() == 0 {
				t.Error("Expected non-empty file")
			}
		})
	}

	if _, err := ToFile(ctx, dir, "x", "xml", fields, nil); err == nil {
		t.Error("Expected error for unsupported format")
	}
}
