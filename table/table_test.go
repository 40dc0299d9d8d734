package table_test

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dot5enko/paradox-reader/bits"
	"github.com/dot5enko/paradox-reader/index"
	"github.com/dot5enko/paradox-reader/internal/fixture"
	"github.com/dot5enko/paradox-reader/metrics"
	"github.com/dot5enko/paradox-reader/record"
	"github.com/dot5enko/paradox-reader/schema"
	"github.com/dot5enko/paradox-reader/table"
)

const memoWidth = 14

var ordersFields = []fixture.Field{
	{Name: "Id", Type: schema.LongFieldType, Size: 4},
	{Name: "Name", Type: schema.AlphaFieldType, Size: 10},
	{Name: "Notes", Type: schema.MemoBLObFieldType, Size: memoWidth},
	{Name: "Amount", Type: schema.BCDFieldType, Size: 2},
}

func order(id int32, name string, notes []byte, amount []byte) []byte {
	if notes == nil {
		notes = fixture.Null(memoWidth)
	}
	if amount == nil {
		amount = fixture.Null(bits.BCDDataSize)
	}
	return fixture.Record(fixture.Long(id), fixture.Alpha(name, 10), notes, amount)
}

type ordersFiles struct {
	dir  string
	path string
	memo string
}

// writeOrders lays out orders.db with six records over four blocks, the
// second block being free, plus its .PX and .MB companions.
func writeOrders(t *testing.T, mutate func(db, px *fixture.Table)) ordersFiles {
	t.Helper()

	dir := t.TempDir()
	memo := "first order, handle with care"

	mb := fixture.NewBlobFile()
	memoAt := mb.AddSingle([]byte(memo), 1, 9)

	amount, err := decimal.NewFromString("12.34")
	require.NoError(t, err)

	db := fixture.Table{
		Name:             "orders.db",
		Fields:           ordersFields,
		PrimaryKeyFields: 1,
		Blocks: [][][]byte{
			{
				order(1, "ann", fixture.BlobField(memoWidth, memoAt, 0xFF, uint32(len(memo)), 1),
					bits.EncodeBCD(amount, bits.BCDDataSize, 2)),
				order(2, "bob", nil, nil),
			},
			nil,
			{order(3, "cid", nil, nil), order(4, "dan", nil, nil)},
			{order(5, "eve", nil, nil), order(6, "fay", nil, nil)},
		},
	}

	px := fixture.Table{
		FileType:         schema.PxFile,
		Name:             "orders.px",
		Fields:           []fixture.Field{{Type: schema.LongFieldType, Size: 4}},
		PrimaryKeyFields: 1,
		LevelCount:       1,
		Blocks: [][][]byte{{
			fixture.Record(fixture.Long(1), fixture.Short(1), fixture.Short(2), fixture.Short(0)),
			fixture.Record(fixture.Long(3), fixture.Short(3), fixture.Short(2), fixture.Short(0)),
			fixture.Record(fixture.Long(5), fixture.Short(4), fixture.Short(2), fixture.Short(0)),
		}},
	}

	if mutate != nil {
		mutate(&db, &px)
	}

	files := ordersFiles{dir: dir, memo: memo}
	files.path = db.WriteFile(t, dir, "ORDERS.DB")
	px.WriteFile(t, dir, "ORDERS.PX")
	fixture.WriteFile(t, dir, "ORDERS.MB", mb.Bytes())

	return files
}

func ids(t *testing.T, rows func(yield func(*record.Record, error) bool)) []int32 {
	t.Helper()
	var out []int32
	for rec, err := range rows {
		require.NoError(t, err)
		out = append(out, rec.Value(0).(int32))
	}
	return out
}

func TestOpenTable(t *testing.T) {
	files := writeOrders(t, nil)

	tbl, err := table.OpenTable(files.dir, "orders", table.Options{})
	require.NoError(t, err)
	defer tbl.Close()

	assert.NotEqual(t, uuid.Nil, tbl.ID())
	assert.Equal(t, "ORDERS", tbl.Name())
	assert.Equal(t, files.path, tbl.Path())
	assert.Equal(t, []string{"Id", "Name", "Notes", "Amount"}, tbl.FieldNames())
	assert.Equal(t, 4, tbl.FieldCount())
	assert.Equal(t, 6, tbl.RecordCount())
	assert.Equal(t, "orders.db", tbl.Schema().TableName)

	assert.Equal(t, filepath.Join(files.dir, "ORDERS.PX"), tbl.Companions().Index)
	assert.Equal(t, filepath.Join(files.dir, "ORDERS.MB"), tbl.Companions().Blob)
	assert.True(t, tbl.HasBlobFile())
	require.NotNil(t, tbl.Index())
	assert.Equal(t, "Id", tbl.Index().KeyField())
}

func TestOpenMissingTable(t *testing.T) {
	_, err := table.OpenTable(t.TempDir(), "nothing", table.Options{})
	assert.Error(t, err)

	_, err = table.Open(filepath.Join(t.TempDir(), "nothing.db"))
	assert.Error(t, err)
}

func TestOpenTruncatedHeader(t *testing.T) {
	files := writeOrders(t, nil)
	raw, err := os.ReadFile(files.path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(files.path, raw[:40], 0o644))

	_, err = table.Open(files.path)
	assert.ErrorIs(t, err, schema.ErrFormat)
}

func TestRowsYieldsEveryRecordInOrder(t *testing.T) {
	for _, mmap := range []bool{false, true} {
		files := writeOrders(t, nil)

		tbl, err := table.OpenWithOptions(files.path, table.Options{Mmap: mmap})
		require.NoError(t, err)

		assert.Equal(t, []int32{1, 2, 3, 4, 5, 6}, ids(t, tbl.Rows(nil)), "mmap %v", mmap)
		require.NoError(t, tbl.Close())
	}
}

func TestRowsWithRejectingPredicate(t *testing.T) {
	tbl, err := table.Open(writeOrders(t, nil).path)
	require.NoError(t, err)
	defer tbl.Close()

	count := 0
	for _, err := range tbl.Rows(func(*record.Record) bool { return false }) {
		require.NoError(t, err)
		count++
	}
	assert.Zero(t, count)

	odd := func(r *record.Record) bool { return r.Value(0).(int32)%2 == 1 }
	assert.Equal(t, []int32{1, 3, 5}, ids(t, tbl.Rows(odd)))
}

func TestRowsIsRestartableAndCursorsAreIndependent(t *testing.T) {
	tbl, err := table.Open(writeOrders(t, nil).path)
	require.NoError(t, err)
	defer tbl.Close()

	rows := tbl.Rows(nil)
	assert.Equal(t, ids(t, rows), ids(t, rows))

	a := tbl.Cursor(nil)
	b := tbl.Cursor(nil)
	var fromA, fromB []int32
	for a.Next() {
		fromA = append(fromA, a.Record().Value(0).(int32))
		if b.Next() {
			fromB = append(fromB, b.Record().Value(0).(int32))
		}
	}
	require.NoError(t, a.Err())
	require.NoError(t, b.Err())
	assert.Equal(t, fromA, fromB)
	assert.Len(t, fromA, 6)
	assert.False(t, a.Next())
	assert.Nil(t, a.Record())
}

func TestRecordValues(t *testing.T) {
	files := writeOrders(t, nil)
	tbl, err := table.Open(files.path)
	require.NoError(t, err)
	defer tbl.Close()

	cursor := tbl.Cursor(nil)
	require.True(t, cursor.Next())
	first := cursor.Record()

	assert.Equal(t, []any{int32(1), "ann", files.memo, 12.34}, first.Values())
	assert.Equal(t, 0, first.Block())

	require.True(t, cursor.Next())
	name, ok := cursor.Record().Get("name")
	assert.True(t, ok)
	assert.Equal(t, "bob", name)
	assert.Nil(t, cursor.Record().Value(2))
	assert.Nil(t, cursor.Record().Value(3))

	require.True(t, cursor.Next())
	assert.Equal(t, 2, cursor.Record().Block(), "free block is skipped")
}

func TestBlobFileIsOptional(t *testing.T) {
	files := writeOrders(t, nil)
	require.NoError(t, os.Remove(filepath.Join(files.dir, "ORDERS.MB")))

	tbl, err := table.Open(files.path)
	require.NoError(t, err)
	defer tbl.Close()

	assert.False(t, tbl.HasBlobFile())
	for rec, err := range tbl.Rows(nil) {
		require.NoError(t, err)
		assert.Nil(t, rec.Value(2))
	}
}

func TestBCDAsDecimal(t *testing.T) {
	tbl, err := table.OpenWithOptions(writeOrders(t, nil).path, table.Options{BCDAsDecimal: true})
	require.NoError(t, err)
	defer tbl.Close()

	cursor := tbl.Cursor(nil)
	require.True(t, cursor.Next())

	d, ok := cursor.Record().Value(3).(decimal.Decimal)
	require.True(t, ok)
	assert.Equal(t, "12.34", d.String())
}

func TestRowsByIndexUsesPrimaryKey(t *testing.T) {
	reg := metrics.NewRegistry()
	tbl, err := table.OpenWithOptions(writeOrders(t, nil).path, table.Options{Metrics: reg})
	require.NoError(t, err)
	defer tbl.Close()

	got := ids(t, tbl.RowsByIndex(index.Compare{Field: "Id", Op: index.Equal, Value: 4}))
	assert.Equal(t, []int32{4}, got)
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.BlocksRead.WithLabelValues("ORDERS")))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.IndexQueries.WithLabelValues(metrics.IndexPruned)))

	assert.Equal(t, []int32{3, 4, 5}, ids(t, tbl.RowsByIndex(index.Between("Id", 3, 5))))

	nameCond := index.LogicalAnd{
		Left:  index.Compare{Field: "Id", Op: index.Greater, Value: 1},
		Right: index.Compare{Field: "Name", Op: index.Equal, Value: "eve"},
	}
	assert.Equal(t, []int32{5}, ids(t, tbl.RowsByIndex(nameCond)))

	assert.Empty(t, ids(t, tbl.RowsByIndex(index.Compare{Field: "Id", Op: index.Less, Value: 0})))
}

func TestRowsByIndexWithoutIndex(t *testing.T) {
	files := writeOrders(t, nil)
	require.NoError(t, os.Remove(filepath.Join(files.dir, "ORDERS.PX")))

	reg := metrics.NewRegistry()
	tbl, err := table.OpenWithOptions(files.path, table.Options{Metrics: reg})
	require.NoError(t, err)
	defer tbl.Close()

	assert.Nil(t, tbl.Index())
	assert.Equal(t, []int32{3, 4, 5}, ids(t, tbl.RowsByIndex(index.Between("Id", 3, 5))))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.IndexQueries.WithLabelValues(metrics.IndexFullScan)))
}

func TestRowsByIndexFallsBackOnDeepIndex(t *testing.T) {
	files := writeOrders(t, func(_, px *fixture.Table) {
		px.LevelCount = 3
	})

	var logs bytes.Buffer
	reg := metrics.NewRegistry()
	tbl, err := table.OpenWithOptions(files.path, table.Options{
		Metrics: reg,
		Logger:  slog.New(slog.NewTextHandler(&logs, nil)),
	})
	require.NoError(t, err)
	defer tbl.Close()

	require.NotNil(t, tbl.Index())
	assert.Equal(t, []int32{2}, ids(t, tbl.RowsByIndex(index.Compare{Field: "Id", Op: index.Equal, Value: 2})))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.IndexQueries.WithLabelValues(metrics.IndexFullScan)))
	assert.Contains(t, logs.String(), "full scan")
}

func TestUnreadableIndexIsIgnored(t *testing.T) {
	files := writeOrders(t, nil)
	require.NoError(t, os.WriteFile(filepath.Join(files.dir, "ORDERS.PX"), []byte("junk"), 0o644))

	tbl, err := table.Open(files.path)
	require.NoError(t, err)
	defer tbl.Close()

	assert.Nil(t, tbl.Index())
	assert.Equal(t, []int32{6}, ids(t, tbl.RowsByIndex(index.Compare{Field: "Id", Op: index.Equal, Value: 6})))
}

func TestTruncatedBlockSurfacesFormatError(t *testing.T) {
	files := writeOrders(t, nil)
	raw, err := os.ReadFile(files.path)
	require.NoError(t, err)
	// keep block 0, cut into the header of block 1
	require.NoError(t, os.WriteFile(files.path, raw[:0x0800+1024+3], 0o644))

	tbl, err := table.Open(files.path)
	require.NoError(t, err)
	defer tbl.Close()

	var got []int32
	var rowsErr error
	for rec, err := range tbl.Rows(nil) {
		if err != nil {
			rowsErr = err
			continue
		}
		got = append(got, rec.Value(0).(int32))
	}

	assert.Equal(t, []int32{1, 2}, got)
	assert.True(t, errors.Is(rowsErr, schema.ErrFormat), "got %v", rowsErr)
}

func TestHeaderCodePage(t *testing.T) {
	privet := []byte{0x8F, 0xE0, 0xA8, 0xA2, 0xA5, 0xE2}

	dir := t.TempDir()
	path := fixture.Table{
		Version:  0x0C,
		CodePage: 866,
		Name:     "cities.db",
		Fields:   []fixture.Field{{Name: "City", Type: schema.AlphaFieldType, Size: 8}},
		Blocks:   [][][]byte{{fixture.Alpha(string(privet), 8)}},
	}.WriteFile(t, dir, "cities.db")

	read := func(opts table.Options) string {
		tbl, err := table.OpenWithOptions(path, opts)
		require.NoError(t, err)
		defer tbl.Close()

		cursor := tbl.Cursor(nil)
		require.True(t, cursor.Next())
		return cursor.Record().Value(0).(string)
	}

	assert.Equal(t, "Привет", read(table.Options{UseHeaderCodePage: true}))
	assert.NotEqual(t, "Привет", read(table.Options{}))
}

func TestEncryptedTableIsReported(t *testing.T) {
	files := writeOrders(t, func(db, _ *fixture.Table) {
		db.Encryption = 0x1234
	})

	var logs bytes.Buffer
	tbl, err := table.OpenWithOptions(files.path, table.Options{
		Logger: slog.New(slog.NewTextHandler(&logs, nil)),
	})
	require.NoError(t, err)
	defer tbl.Close()

	assert.Contains(t, logs.String(), "encrypted")
	assert.Contains(t, logs.String(), tbl.ID().String())
}
