// Package lister streams a trace file to an output writer, one line or
// msgpack document per record. It is the pipeline behind the CLI and
// carries the error-handling policy the decoder core leaves open:
// abort on an unknown record tag, skip and keep streaming on an
// unrepresentable cycle value.
package lister

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"bptrace/common"
	"bptrace/meta"
	"bptrace/printer"
	"bptrace/source"
	"bptrace/trace"
)

// Output formats.
const (
	FormatText    = "text"
	FormatMsgpack = "msgpack"
)

// RunMetaName is the sidecar metadata filename looked up next to the
// trace when no explicit path is given.
const RunMetaName = "run.toml"

// Config selects the trace to stream and how to render it.
type Config struct {
	TracePath string
	MetaPath  string // explicit run.toml; "" = auto-discover next to the trace
	Format    string // FormatText (default) or FormatMsgpack
	Limit     int    // stop after this many records; 0 = all
	ChunkSize int    // load granularity; 0 = source.DefaultChunkSize
	Output    io.Writer
	Logger    common.Logger
}

// recordExport is the msgpack shape of one decoded record.
type recordExport struct {
	Kind     string                `msgpack:"kind"`
	Training *trace.TrainingRecord `msgpack:"training,omitempty"`
	Weight   *trace.WeightRecord   `msgpack:"weight,omitempty"`
	Advisory string                `msgpack:"advisory,omitempty"`
}

// Run streams the configured trace until end of stream, the record
// limit, or a fatal decode error.
func Run(ctx context.Context, cfg Config) error {
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	if cfg.Logger == nil {
		cfg.Logger = common.NewNoOpLogger()
	}
	switch cfg.Format {
	case "", FormatText, FormatMsgpack:
	default:
		return fmt.Errorf("unknown output format %q", cfg.Format)
	}

	f, err := os.Open(cfg.TracePath)
	if err != nil {
		return fmt.Errorf("open trace: %w", err)
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat trace: %w", err)
	}

	loader := source.NewLoaderWithChunkSize(source.NewReaderAtSource(f, fi.Size()), cfg.ChunkSize)
	reader := trace.NewReaderWithLogger(loader, cfg.Logger)
	if err := reader.Init(ctx); err != nil {
		return err
	}

	if err := checkRunMeta(cfg, reader.Header()); err != nil {
		return err
	}

	if cfg.Format != FormatMsgpack {
		fmt.Fprintln(cfg.Output, printer.FormatHeaderLine(reader.Header()))
	}

	var enc *msgpack.Encoder
	if cfg.Format == FormatMsgpack {
		enc = msgpack.NewEncoder(cfg.Output)
	}

	produced := 0
	weights := 0
	skipped := 0
	for cfg.Limit == 0 || produced < cfg.Limit {
		if err := reader.AwaitRecord(ctx); err != nil {
			return err
		}
		offset := reader.Offset()
		rec, err := reader.NextRecord()
		if err == io.EOF {
			break
		}
		var uve *trace.UnsupportedValueError
		if errors.As(err, &uve) {
			skipped++
			cfg.Logger.Logf(common.SeverityWarning, "record at offset %d skipped: %v", offset, uve)
			continue
		}
		if err != nil {
			// Unknown tags included: past one the framing is undefined,
			// so the run aborts rather than guessing a resync point.
			return err
		}

		if rec.Kind == trace.KindWeight {
			weights++
		}
		produced++

		if enc != nil {
			if err := enc.Encode(exportRecord(rec)); err != nil {
				return fmt.Errorf("encode record at offset %d: %w", offset, err)
			}
			continue
		}
		fmt.Fprintln(cfg.Output, printer.FormatRecordLine(offset, rec))
	}

	cfg.Logger.Logf(common.SeverityInfo, "%d records (%d training, %d weight), %d skipped",
		produced, reader.TrainingCount(), weights, skipped)
	if n := reader.TruncatedTailBytes(); n > 0 {
		cfg.Logger.Logf(common.SeverityWarning, "trace ends mid-record: %d trailing bytes dropped", n)
	}
	return nil
}

func checkRunMeta(cfg Config, h trace.Header) error {
	path := cfg.MetaPath
	if path == "" {
		path = filepath.Join(filepath.Dir(cfg.TracePath), RunMetaName)
		if _, err := os.Stat(path); err != nil {
			return nil // no sidecar, nothing to check
		}
	}
	info, err := meta.Load(path)
	if err != nil {
		return err
	}
	if err := info.CheckHeader(h); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if info.Run.Description != "" {
		cfg.Logger.Logf(common.SeverityInfo, "run: %s", info.Run.Description)
	}
	return nil
}

func exportRecord(rec trace.Record) recordExport {
	out := recordExport{Kind: rec.Kind.String(), Advisory: rec.Advisory}
	switch rec.Kind {
	case trace.KindTraining:
		tr := rec.Training
		out.Training = &tr
	case trace.KindWeight:
		wr := rec.Weight
		out.Weight = &wr
	}
	return out
}
