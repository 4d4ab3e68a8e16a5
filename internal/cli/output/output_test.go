package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	Name string `json:"name" yaml:"name"`
	Size int64  `json:"size" yaml:"size"`
}

type entries []entry

func (e entries) Headers() []string { return []string{"NAME", "SIZE"} }

func (e entries) Rows() [][]string {
	rows := make([][]string, 0, len(e))
	for _, x := range e {
		rows = append(rows, []string{x.Name, HumanSize(x.Size)})
	}
	return rows
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Format
		wantErr bool
	}{
		{name: "table", input: "table", want: FormatTable},
		{name: "empty defaults to table", input: "", want: FormatTable},
		{name: "json", input: "json", want: FormatJSON},
		{name: "JSON uppercase", input: "JSON", want: FormatJSON},
		{name: "yaml", input: "yaml", want: FormatYAML},
		{name: "yml alias", input: "yml", want: FormatYAML},
		{name: "whitespace trimmed", input: "  table  ", want: FormatTable},
		{name: "invalid format", input: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrinter(t *testing.T) {
	data := entries{{Name: "a.txt", Size: 12}, {Name: "b.bin", Size: 2048}}

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewPrinter(&buf, FormatTable).Print(data))
		out := buf.String()
		assert.Contains(t, out, "NAME")
		assert.Contains(t, out, "a.txt")
		assert.Contains(t, out, "2.0 KiB")
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewPrinter(&buf, FormatJSON).Print(data))
		assert.Contains(t, buf.String(), `"name": "b.bin"`)
		assert.Contains(t, buf.String(), `"size": 2048`)
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewPrinter(&buf, FormatYAML).Print(data))
		assert.Contains(t, buf.String(), "- name: a.txt")
		assert.Contains(t, buf.String(), "  size: 12")
	})

	t.Run("table falls back to json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewPrinter(&buf, FormatTable).Print(map[string]int{"n": 1}))
		assert.Contains(t, buf.String(), `"n": 1`)
	})
}

func TestPrinterMessage(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf, FormatTable).Message("created %s", "/a")
	assert.Equal(t, "created /a\n", buf.String())

	buf.Reset()
	NewPrinter(&buf, FormatJSON).Message("created %s", "/a")
	assert.Empty(t, buf.String())
}

func TestKeyValues(t *testing.T) {
	kv := KeyValues{{"path", "/a"}, {"size", "3"}}
	assert.Equal(t, []string{"FIELD", "VALUE"}, kv.Headers())
	assert.Equal(t, [][]string{{"path", "/a"}, {"size", "3"}}, kv.Rows())
}

func TestHumanSize(t *testing.T) {
	tests := map[int64]string{
		0:         "0 B",
		1023:      "1023 B",
		1024:      "1.0 KiB",
		1536:      "1.5 KiB",
		1 << 20:   "1.0 MiB",
		128 << 20: "128.0 MiB",
		5 << 40:   "5.0 TiB",
	}
	for in, want := range tests {
		assert.Equal(t, want, HumanSize(in), "HumanSize(%d)", in)
	}
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "50.0%", Percent(1, 2))
	assert.Equal(t, "0.0%", Percent(0, 10))
	assert.Equal(t, "33.3%", Percent(1, 3))
}
