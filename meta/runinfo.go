// Package meta reads the run.toml sidecar file the simulator writes
// next to a trace. The sidecar duplicates the trace header's geometry
// in human-readable form; cross-checking the two catches mismatched
// trace/metadata pairs before any records are decoded.
package meta

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"bptrace/trace"
)

// RunInfo is the parsed run.toml contents.
type RunInfo struct {
	Run struct {
		FormatVersion int8   `toml:"format_version"`
		Simulator     string `toml:"simulator"`
		Description   string `toml:"description"`
	} `toml:"run"`
	Predictor struct {
		Tables uint32 `toml:"tables"`
		Rows   uint32 `toml:"rows"`
		Banks  uint32 `toml:"banks"`
	} `toml:"predictor"`
}

// Load parses a run.toml file. The [run] section with a format_version
// is required; [predictor] geometry is optional but, when present,
// must be complete.
func Load(path string) (RunInfo, error) {
	var info RunInfo
	md, err := toml.DecodeFile(path, &info)
	if err != nil {
		return RunInfo{}, fmt.Errorf("%s: parse run metadata: %w", path, err)
	}
	if !md.IsDefined("run", "format_version") {
		return RunInfo{}, fmt.Errorf("%s: missing [run] format_version", path)
	}
	if md.IsDefined("predictor") {
		for _, key := range []string{"tables", "rows", "banks"} {
			if !md.IsDefined("predictor", key) {
				return RunInfo{}, fmt.Errorf("%s: [predictor] missing %s", path, key)
			}
		}
	}
	return info, nil
}

// CheckHeader verifies the sidecar agrees with the decoded trace
// header. Zero predictor geometry means the sidecar carried none and
// only the version is checked.
func (info RunInfo) CheckHeader(h trace.Header) error {
	if info.Run.FormatVersion != h.Version {
		return fmt.Errorf("run metadata format version %d does not match trace header %d",
			info.Run.FormatVersion, h.Version)
	}
	if info.Predictor.Tables == 0 && info.Predictor.Rows == 0 && info.Predictor.Banks == 0 {
		return nil
	}
	if info.Predictor.Tables != h.TableCount ||
		info.Predictor.Rows != h.RowCount ||
		info.Predictor.Banks != h.BankCount {
		return fmt.Errorf("run metadata geometry %d/%d/%d does not match trace header %d/%d/%d",
			info.Predictor.Tables, info.Predictor.Rows, info.Predictor.Banks,
			h.TableCount, h.RowCount, h.BankCount)
	}
	return nil
}
