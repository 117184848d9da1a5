package output

import (
	"bytes"
	"strconv"
	"strings"
	"testing"
)

type record struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type records []record

func (r records) Table() Table {
	t := Table{Headers: []string{"ID", "NAME"}}
	for _, rec := range r {
		t.AddRow(strconv.Itoa(rec.ID), rec.Name)
	}
	return t
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatTable, "JSON": FormatJSON, " yaml ": FormatYAML, "table": FormatTable} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Fatalf("expected error for xml")
	}
}

func TestRender_TableAlignsColumns(t *testing.T) {
	var buf bytes.Buffer
	data := records{{ID: 1, Name: "Alice"}, {ID: 2, Name: "Bo\tb"}}
	if err := Render(&buf, FormatTable, data); err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %q, want header plus 2 rows", lines)
	}
	if !strings.HasPrefix(lines[0], "ID  NAME") {
		t.Fatalf("header = %q", lines[0])
	}
	if !strings.HasSuffix(lines[2], "Bo b") {
		t.Fatalf("row = %q, want tab replaced", lines[2])
	}
}

func TestRender_TableFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, FormatTable, record{ID: 1, Name: "x"}); err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if !strings.Contains(buf.String(), `"name": "x"`) {
		t.Fatalf("output = %q, want indented json", buf.String())
	}
}

func TestRender_YAMLUsesJSONKeys(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, FormatYAML, []record{{ID: 7, Name: "张三"}}); err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	want := "- id: 7\n  name: 张三\n"
	if buf.String() != want {
		t.Fatalf("yaml = %q, want %q", buf.String(), want)
	}
}

func TestRender_EmptyTableWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, FormatTable, Table{}); err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("output = %q, want empty", buf.String())
	}
}
