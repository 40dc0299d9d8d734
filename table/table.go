// Package table opens Paradox tables and enumerates their records.
package table

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/encoding"

	"github.com/dot5enko/paradox-reader/blob"
	"github.com/dot5enko/paradox-reader/block"
	"github.com/dot5enko/paradox-reader/codepage"
	"github.com/dot5enko/paradox-reader/index"
	pio "github.com/dot5enko/paradox-reader/io"
	"github.com/dot5enko/paradox-reader/metrics"
	"github.com/dot5enko/paradox-reader/record"
	"github.com/dot5enko/paradox-reader/schema"
)

// Options configures how a table is opened. The zero value reads with the
// default code page, BCD as float64 and plain file reads.
type Options struct {
	Logger  *slog.Logger
	Metrics *metrics.Registry

	// Charset decodes text, nil meaning codepage.Default.
	Charset encoding.Encoding
	// UseHeaderCodePage picks the code page recorded in the file header
	// when Charset is nil and the code page is known.
	UseHeaderCodePage bool

	BCDAsDecimal bool
	Mmap         bool
}

// Table is an open Paradox table with its optional index and blob
// companions. Any number of cursors may read one Table concurrently.
type Table struct {
	id   uuid.UUID
	name string
	path string

	file   *pio.FileReader
	schema *schema.TableSchema
	store  *block.Store
	codec  *record.Codec

	companions pio.Companions
	blobFile   *pio.FileReader
	index      *index.PrimaryKey

	metrics *metrics.Registry
	logger  *slog.Logger
}

func Open(path string) (*Table, error) {
	return OpenWithOptions(path, Options{})
}

// OpenTable opens <dir>/<name>.db, matching the file name ignoring case.
func OpenTable(dir, name string, opts Options) (*Table, error) {
	path, err := pio.FindTable(dir, name)
	if err != nil {
		return nil, err
	}
	return OpenWithOptions(path, opts)
}

func OpenWithOptions(path string, opts Options) (*Table, error) {
	id := uuid.New()
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "table", "table", name, "table_id", id.String())

	t := &Table{
		id:      id,
		name:    name,
		path:    path,
		metrics: opts.Metrics,
		logger:  logger,
	}

	t.file = pio.NewFileReader(path)
	if err := t.file.Open(opts.Mmap); err != nil {
		return nil, fmt.Errorf("unable to open table %s: %w", path, err)
	}

	if err := t.init(opts); err != nil {
		t.Close()
		return nil, fmt.Errorf("unable to open table %s: %w", path, err)
	}

	opts.Metrics.RecordTableOpened()
	return t, nil
}

func (t *Table) init(opts Options) error {
	charset := opts.Charset
	if charset == nil {
		charset = codepage.Default
	}

	s, err := schema.Decode(t.file.Section(), charset)
	if err != nil {
		return err
	}

	if opts.Charset == nil && opts.UseHeaderCodePage {
		if cp, ok := s.CodePage(); ok {
			if enc, known := codepage.Lookup(cp); known {
				charset = enc
				// names were decoded with the default code page
				if s, err = schema.Decode(t.file.Section(), charset); err != nil {
					return err
				}
			} else {
				t.logger.Debug("unknown header code page, using default", slog.Int("code_page", int(cp)))
			}
		}
	}
	t.schema = s

	if s.Encrypted() {
		t.logger.Warn("table is encrypted, values will not be readable")
	}

	t.companions, err = pio.FindCompanions(t.path)
	if err != nil {
		t.logger.Warn("unable to look for companion files", slog.String("error", err.Error()))
	}
	t.logger.Debug("companion files",
		slog.String("index", t.companions.Index),
		slog.String("blob", t.companions.Blob),
		slog.Bool("mmap", t.file.Mapped()),
	)

	codecOpts := record.Options{
		Charset:      charset,
		BCDAsDecimal: opts.BCDAsDecimal,
		Table:        t.name,
		Metrics:      opts.Metrics,
		Logger:       t.logger,
	}

	if t.companions.Blob != "" {
		blobFile := pio.NewFileReader(t.companions.Blob)
		if err := blobFile.Open(opts.Mmap); err != nil {
			t.logger.Warn("unable to open blob file, blob fields will be null",
				slog.String("path", t.companions.Blob), slog.String("error", err.Error()))
		} else {
			t.blobFile = blobFile
			codecOpts.Blobs = blob.NewFile(blobFile)
		}
	}

	if t.companions.Index != "" && s.PrimaryKeyFields > 0 && len(s.FieldNames) > 0 {
		pk, err := index.Open(t.companions.Index, s.FieldNames[0], index.Options{
			Charset: charset,
			Mmap:    opts.Mmap,
			Logger:  t.logger,
		})
		if err != nil {
			t.logger.Warn("unable to read primary index, indexed queries will scan",
				slog.String("path", t.companions.Index), slog.String("error", err.Error()))
		} else {
			t.index = pk
		}
	}

	t.store = block.NewStore(t.file, s)
	t.codec = record.NewCodec(s, codecOpts)

	return nil
}

// ID identifies this open instance of the table in logs.
func (t *Table) ID() uuid.UUID {
	return t.id
}

// Name is the file name without extension.
func (t *Table) Name() string {
	return t.name
}

func (t *Table) Path() string {
	return t.path
}

func (t *Table) Schema() *schema.TableSchema {
	return t.schema
}

func (t *Table) FieldNames() []string {
	return append([]string(nil), t.schema.FieldNames...)
}

func (t *Table) FieldCount() int {
	return len(t.schema.Fields)
}

// RecordCount is the record count declared in the header.
func (t *Table) RecordCount() int {
	return int(t.schema.RecordCount)
}

func (t *Table) Companions() pio.Companions {
	return t.companions
}

// Index returns the primary index, nil when the table has none.
func (t *Table) Index() *index.PrimaryKey {
	return t.index
}

func (t *Table) HasBlobFile() bool {
	return t.blobFile != nil
}

// Block fetches block i with its record cache.
func (t *Table) Block(i int) (*record.Block, error) {
	b, err := t.store.Fetch(i)
	if err != nil {
		return nil, err
	}
	t.metrics.RecordBlockRead(t.name)
	return record.NewBlock(b, t.codec), nil
}

func (t *Table) Close() error {
	var errs []error

	if t.index != nil {
		errs = append(errs, t.index.Close())
		t.index = nil
	}
	if t.blobFile != nil {
		errs = append(errs, t.blobFile.Close())
		t.blobFile = nil
	}
	if t.file != nil {
		errs = append(errs, t.file.Close())
	}

	return errors.Join(errs...)
}
