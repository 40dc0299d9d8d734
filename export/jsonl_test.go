package export_test

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dot5enko/paradox-reader/bits"
	"github.com/dot5enko/paradox-reader/compression"
	"github.com/dot5enko/paradox-reader/export"
	"github.com/dot5enko/paradox-reader/internal/fixture"
	"github.com/dot5enko/paradox-reader/schema"
	"github.com/dot5enko/paradox-reader/table"
)

func openPeople(t *testing.T) *table.Table {
	t.Helper()

	path := fixture.Table{
		Name: "people.db",
		Fields: []fixture.Field{
			{Name: "Name", Type: schema.AlphaFieldType, Size: 8},
			{Name: "Born", Type: schema.DateFieldType, Size: 4},
			{Name: "Wakes", Type: schema.TimeFieldType, Size: 4},
			{Name: "Active", Type: schema.LogicalFieldType, Size: 1},
			{Name: "Score", Type: schema.NumberFieldType, Size: 8},
		},
		Blocks: [][][]byte{
			{
				fixture.Record(
					fixture.Alpha("zed", 8),
					bits.EncodeInt(int32(2), 4),
					bits.EncodeInt(int32(7*3600000+30*60000+250), 4),
					fixture.Logical(true),
					fixture.Number(1.5),
				),
				fixture.Record(fixture.Alpha("amy", 8), fixture.Null(4), fixture.Null(4), fixture.Logical(false), fixture.Null(8)),
			},
			{
				fixture.Record(fixture.Alpha("bo", 8), fixture.Null(4), fixture.Null(4), fixture.Null(1), fixture.Number(-2)),
			},
		},
	}.WriteFile(t, t.TempDir(), "people.db")

	tbl, err := table.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { tbl.Close() })
	return tbl
}

func TestExportTable(t *testing.T) {
	tbl := openPeople(t)

	var out bytes.Buffer
	n, err := export.Table(tbl, &out, false, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(t, lines, 3)

	// keys keep the field order
	assert.Equal(t,
		`{"Name":"zed","Born":"0001-01-02T00:00:00Z","Wakes":"07:30:00.250","Active":true,"Score":1.5}`,
		lines[0])
	assert.Equal(t, `{"Name":"bo","Born":null,"Wakes":null,"Active":null,"Score":-2}`, lines[2])

	var row map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &row))
	assert.Equal(t, "amy", row["Name"])
	assert.Equal(t, false, row["Active"])
}

func TestExportLimitAndCompression(t *testing.T) {
	tbl := openPeople(t)

	var out bytes.Buffer
	n, err := export.Table(tbl, &out, true, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	scanner := bufio.NewScanner(compression.NewLz4Reader(&out))
	var names []string
	for scanner.Scan() {
		var row map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &row))
		names = append(names, row["Name"].(string))
	}
	require.NoError(t, scanner.Err())
	assert.Equal(t, []string{"zed", "amy"}, names)
}

func TestFileNameAndClock(t *testing.T) {
	assert.Equal(t, "orders.jsonl", export.FileName("orders", false))
	assert.Equal(t, "orders.jsonl.lz4", export.FileName("orders", true))

	assert.Equal(t, "00:00:00.000", export.ClockString(0))
	assert.Equal(t, "23:59:59.999", export.ClockString(24*time.Hour-time.Millisecond))
}
