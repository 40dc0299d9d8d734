package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/fatih/color"
	"golang.org/x/sync/errgroup"

	"github.com/dot5enko/paradox-reader/config"
	"github.com/dot5enko/paradox-reader/export"
	"github.com/dot5enko/paradox-reader/index"
	pio "github.com/dot5enko/paradox-reader/io"
	"github.com/dot5enko/paradox-reader/metrics"
	"github.com/dot5enko/paradox-reader/record"
	"github.com/dot5enko/paradox-reader/table"
)

type runFlags struct {
	configPath string
	dir        string
	tables     string
	limit      int
	out        string
	lz4        bool
	from       string
	to         string
	debug      bool
}

func main() {
	var f runFlags

	flag.StringVar(&f.configPath, "config", "paradox-reader.yaml", "configuration file")
	flag.StringVar(&f.dir, "dir", "", "directory holding the tables")
	flag.StringVar(&f.tables, "table", "", "comma separated table names, all tables when empty")
	flag.IntVar(&f.limit, "limit", 0, "records to print per table, 0 for all")
	flag.StringVar(&f.out, "out", "", "export JSON lines into this directory instead of printing")
	flag.BoolVar(&f.lz4, "lz4", false, "lz4 compress exports")
	flag.StringVar(&f.from, "from", "", "lower primary key bound of a range query")
	flag.StringVar(&f.to, "to", "", "upper primary key bound of a range query")
	flag.BoolVar(&f.debug, "debug", false, "dump raw record bytes")
	flag.Parse()

	cfg, err := config.LoadConfig(f.configPath)
	if err != nil {
		log.Fatalf("unable to load config: %s", err.Error())
	}
	applyFlags(cfg, f)

	level := config.ParseLevel(cfg.Logging.Level, nil)
	if f.debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	charset, err := cfg.Reader.Charset()
	if err != nil {
		log.Fatalf("invalid reader config: %s", err.Error())
	}

	var registry *metrics.Registry
	if cfg.Metrics.Enabled {
		registry = metrics.NewRegistry()
	}

	opts := table.Options{
		Logger:            logger,
		Metrics:           registry,
		Charset:           charset,
		UseHeaderCodePage: cfg.Reader.UseHeaderCodePage,
		BCDAsDecimal:      cfg.Reader.BCDAsDecimal,
		Mmap:              cfg.Reader.Mmap,
	}

	names := cfg.Tables
	if len(names) == 0 {
		if names, err = listTables(cfg.DataDir); err != nil {
			log.Fatalf("unable to list tables in %s: %s", cfg.DataDir, err.Error())
		}
	}
	if len(names) == 0 {
		log.Printf("no tables found in %s", cfg.DataDir)
		return
	}

	if cfg.Output.Dir != "" {
		if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
			log.Fatalf("unable to create output dir: %s", err.Error())
		}
	}

	before := time.Now()

	var stdout sync.Mutex
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(cfg.Workers)

	for _, name := range names {
		g.Go(func() error {
			var buf bytes.Buffer

			err := processTable(ctx, &buf, cfg, f, name, opts)

			stdout.Lock()
			os.Stdout.Write(buf.Bytes())
			stdout.Unlock()

			if err != nil {
				color.Red("table %s failed: %s", name, err.Error())
				return fmt.Errorf("table %s: %w", name, err)
			}
			return nil
		})
	}

	waitErr := g.Wait()

	log.Printf("processed %d tables in %s", len(names), time.Since(before))
	printSummary(registry)

	if waitErr != nil {
		os.Exit(1)
	}
}

func applyFlags(cfg *config.Config, f runFlags) {
	if f.dir != "" {
		cfg.DataDir = f.dir
	}
	if f.tables != "" {
		cfg.Tables = strings.Split(f.tables, ",")
	}
	if f.out != "" {
		cfg.Output.Dir = f.out
	}
	if f.lz4 {
		cfg.Output.Compression = "lz4"
	}
}

func listTables(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if !entry.IsDir() && strings.EqualFold(ext, pio.TableExtension) {
			names = append(names, strings.TrimSuffix(entry.Name(), ext))
		}
	}
	sort.Strings(names)
	return names, nil
}

func processTable(ctx context.Context, out io.Writer, cfg *config.Config, f runFlags, name string, opts table.Options) error {
	tbl, err := table.OpenTable(cfg.DataDir, strings.TrimSpace(name), opts)
	if err != nil {
		return err
	}
	defer tbl.Close()

	heading := color.New(color.FgCyan, color.Bold)
	heading.Fprintf(out, "%s: %d records, %d fields %v\n", tbl.Name(), tbl.RecordCount(), tbl.FieldCount(), tbl.FieldNames())

	if cfg.Output.Dir != "" {
		if err := exportTable(tbl, cfg, f.limit); err != nil {
			return err
		}
	} else if err := printRows(ctx, out, tbl, tbl.Rows(nil), f); err != nil {
		return err
	}

	if f.from == "" && f.to == "" {
		return nil
	}

	names := tbl.FieldNames()
	if len(names) == 0 {
		return nil
	}

	cond := rangeCondition(names[0], f.from, f.to)
	heading.Fprintf(out, "%s: %s\n", tbl.Name(), cond)

	return printRows(ctx, out, tbl, tbl.RowsByIndex(cond), f)
}

func rangeCondition(field, from, to string) index.Condition {
	switch {
	case from != "" && to != "":
		return index.Between(field, parseKey(from), parseKey(to))
	case from != "":
		return index.Compare{Field: field, Op: index.GreaterOrEqual, Value: parseKey(from)}
	default:
		return index.Compare{Field: field, Op: index.LessOrEqual, Value: parseKey(to)}
	}
}

// parseKey reads a command line key as a number when it looks like one.
func parseKey(s string) any {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

func printRows(ctx context.Context, out io.Writer, tbl *table.Table, rows func(func(*record.Record, error) bool), f runFlags) error {
	names := tbl.FieldNames()
	label := color.New(color.FgGreen)

	n := 0
	for rec, err := range rows {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		n++
		label.Fprintf(out, "Record #%d\n", n)
		for i, value := range rec.Values() {
			name := strconv.Itoa(i)
			if i < len(names) {
				name = names[i]
			}
			fmt.Fprintf(out, "  %s = %s\n", name, formatValue(value))
		}
		if f.debug {
			fmt.Fprint(out, spew.Sdump(rec.Raw()))
		}

		if f.limit > 0 && n >= f.limit {
			break
		}
	}
	return nil
}

func formatValue(v any) string {
	switch value := v.(type) {
	case nil:
		return "<null>"
	case string:
		return strconv.Quote(value)
	case time.Time:
		return value.Format("2006-01-02 15:04:05.000")
	case time.Duration:
		return export.ClockString(value)
	case []byte:
		if value == nil {
			return "<absent>"
		}
		return fmt.Sprintf("<%d bytes>", len(value))
	default:
		return fmt.Sprint(value)
	}
}

func exportTable(tbl *table.Table, cfg *config.Config, limit int) error {
	compressed := cfg.Output.Compressed()
	path := filepath.Join(cfg.Output.Dir, export.FileName(tbl.Name(), compressed))

	file, err := os.Create(path)
	if err != nil {
		return err
	}

	n, exportErr := export.Table(tbl, file, compressed, limit)
	closeErr := file.Close()
	if exportErr != nil {
		return exportErr
	}
	if closeErr != nil {
		return closeErr
	}

	log.Printf("exported %d records of %s to %s", n, tbl.Name(), path)
	return nil
}

func printSummary(registry *metrics.Registry) {
	summary, err := registry.Summary()
	if err != nil {
		color.Red("unable to gather metrics: %s", err.Error())
		return
	}

	keys := make([]string, 0, len(summary))
	for key := range summary {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		color.Yellow(" %s %v", key, summary[key])
	}
}
