// Package scenario reads SMAC scenario files and resolves where a scenario
// keeps its per-run output.
package scenario

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cast"
)

const (
	DefaultOutputDir = "smac-output"
	DefaultObjective = "MEAN10"
)

var (
	ErrFileNotFound  = errors.New("scenario file not found")
	ErrMalformedLine = errors.New("malformed scenario line")
)

// Descriptor holds the scenario settings smacview cares about. It is built
// once by Load and not modified afterwards.
type Descriptor struct {
	ScenarioPath     string
	OutputDir        string
	PCSFile          string
	Validation       bool
	OverallObjective string
	RunObjective     string
	CutoffTime       *float64
}

// PenaltyCutoff is the cutoff used to penalize timed-out evaluations. Only
// runtime scenarios have one; for quality objectives the measured values
// stand as they are.
func (d *Descriptor) PenaltyCutoff() *float64 {
	if !strings.EqualFold(d.RunObjective, "RUNTIME") {
		return nil
	}
	return d.CutoffTime
}

// ScenarioOutputDir is the directory SMAC writes this scenario's runs to:
// the output directory joined with the scenario file name minus extension.
func (d *Descriptor) ScenarioOutputDir() string {
	base := filepath.Base(d.ScenarioPath)
	if stem := strings.TrimSuffix(base, filepath.Ext(base)); stem != "" {
		base = stem
	}
	return filepath.Join(d.OutputDir, base)
}

type setting int

const (
	settingOutputDir setting = iota
	settingPCSFile
	settingValidation
	settingObjective
	settingRunObjective
	settingCutoff
)

var settingKeys = map[string]setting{
	"output-dir":      settingOutputDir,
	"outputDirectory": settingOutputDir,
	"outdir":          settingOutputDir,

	"pcs-file": settingPCSFile,

	"validation": settingValidation,

	"intra-obj":          settingObjective,
	"intra-instance-obj": settingObjective,
	"overall-obj":        settingObjective,
	"intraInstanceObj":   settingObjective,
	"overallObj":         settingObjective,
	"overall_obj":        settingObjective,
	"intra_instance_obj": settingObjective,

	"run-obj": settingRunObjective,
	"runObj":  settingRunObjective,
	"run_obj": settingRunObjective,

	"algo-cutoff-time":         settingCutoff,
	"target-run-cputime-limit": settingCutoff,
	"target_run_cputime_limit": settingCutoff,
	"cutoff-time":              settingCutoff,
	"cutoffTime":               settingCutoff,
	"cutoff_time":              settingCutoff,
}

// Parse reads scenario settings line by line. Keys it does not know are
// skipped; a key repeated later in the file overrides the earlier value.
// The returned descriptor has no ScenarioPath and an unresolved OutputDir.
func Parse(r io.Reader) (*Descriptor, error) {
	d := &Descriptor{
		Validation:       true,
		OverallObjective: DefaultObjective,
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		tokens := strings.Fields(sc.Text())
		if len(tokens) == 0 {
			continue
		}
		key, ok := settingKeys[tokens[0]]
		if !ok {
			continue
		}
		values := tokens[1:]
		// SMAC also accepts "key = value".
		if len(values) > 0 && values[0] == "=" {
			values = values[1:]
		}
		if len(values) == 0 {
			return nil, fmt.Errorf("line %d: %s has no value: %w", lineNo, tokens[0], ErrMalformedLine)
		}
		if err := d.apply(key, values[0]); err != nil {
			return nil, fmt.Errorf("line %d: %s: %v: %w", lineNo, tokens[0], err, ErrMalformedLine)
		}
	}
	if err := sc.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, fmt.Errorf("line %d: %v: %w", lineNo+1, err, ErrMalformedLine)
		}
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	return d, nil
}

func (d *Descriptor) apply(key setting, value string) error {
	switch key {
	case settingOutputDir:
		d.OutputDir = value
	case settingPCSFile:
		d.PCSFile = value
	case settingValidation:
		b, err := parseBool(value)
		if err != nil {
			return err
		}
		d.Validation = b
	case settingObjective:
		d.OverallObjective = value
	case settingRunObjective:
		d.RunObjective = value
	case settingCutoff:
		f, err := cast.ToFloat64E(value)
		if err != nil {
			return err
		}
		d.CutoffTime = &f
	}
	return nil
}

// parseBool accepts the yes/no and on/off spellings scenario files use on
// top of the tokens cast understands.
func parseBool(value string) (bool, error) {
	switch strings.ToLower(value) {
	case "yes", "y", "on":
		return true, nil
	case "no", "n", "off":
		return false, nil
	}
	return cast.ToBoolE(strings.ToLower(value))
}

// Load resolves src, parses the scenario file and anchors relative paths at
// the scenario file's directory, which is where SMAC is started from.
func Load(src Source) (*Descriptor, error) {
	path, err := src.Resolve()
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening scenario %s: %w", path, err)
	}
	defer f.Close()

	d, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing scenario %s: %w", path, err)
	}
	d.ScenarioPath = path
	if d.OutputDir == "" {
		d.OutputDir = DefaultOutputDir
	}
	d.OutputDir = anchor(filepath.Dir(path), d.OutputDir)
	if d.PCSFile != "" {
		d.PCSFile = anchor(filepath.Dir(path), d.PCSFile)
	}
	return d, nil
}

func anchor(dir, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(dir, p)
}
