// Package rundata loads the validated configurations and performance of every
// run in a scenario's output directory.
package rundata

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"

	"github.com/signalnine/smacview/internal/incumbent"
	"github.com/signalnine/smacview/internal/objective"
	"github.com/signalnine/smacview/internal/runner"
	"github.com/signalnine/smacview/internal/scenario"
	"github.com/signalnine/smacview/internal/smacfile"
)

var (
	ErrNotImplemented = errors.New("loading runs without validation data is not implemented")
	ErrMismatch       = errors.New("configuration and performance counts differ")
)

// Record is one run's validated configurations and their performance, in
// evaluation order. Configurations, Objectives and Performance always have
// the same length.
type Record struct {
	RunID          int                      `json:"run_id"`
	Configurations []smacfile.Configuration `json:"configurations"`
	Objectives     [][]float64              `json:"-"`
	Performance    []float64                `json:"performance"`
}

// Len is the number of validated configurations.
func (r *Record) Len() int {
	return len(r.Performance)
}

// Incumbent computes the run's best-so-far curve over Performance.
func (r *Record) Incumbent() (incumbent.Curve, error) {
	return incumbent.Compute(r.Performance)
}

// Dataset maps run ids to their records. It is not modified after Build
// returns.
type Dataset map[int]*Record

// IDs returns the run ids in ascending order.
func (d Dataset) IDs() []int {
	ids := make([]int, 0, len(d))
	for id := range d {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Kind classifies why a run failed to load.
type Kind int

const (
	KindOther Kind = iota
	KindFileNotFound
	KindParse
	KindMismatch
)

func (k Kind) String() string {
	switch k {
	case KindFileNotFound:
		return "file-not-found"
	case KindParse:
		return "parse-error"
	case KindMismatch:
		return "mismatch"
	default:
		return "other"
	}
}

// KindOf maps a run loading error to its Kind.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return KindFileNotFound
	case errors.Is(err, smacfile.ErrParse):
		return KindParse
	case errors.Is(err, ErrMismatch):
		return KindMismatch
	default:
		return KindOther
	}
}

// Outcome is the result of loading a single run: a Record or an Err.
type Outcome struct {
	RunID  int
	Record *Record
	Err    error
}

func (o Outcome) Kind() Kind {
	return KindOf(o.Err)
}

type Options struct {
	// Parallel is the number of runs loaded concurrently; below 2 loads
	// sequentially.
	Parallel int
	Logger   *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}

// Load parses the scenario named by src and builds its dataset.
func Load(src scenario.Source, opts Options) (*scenario.Descriptor, Dataset, error) {
	desc, err := scenario.Load(src)
	if err != nil {
		return nil, nil, err
	}
	ds, err := Build(desc, opts)
	if err != nil {
		return nil, nil, err
	}
	return desc, ds, nil
}

// Build loads every run found in the scenario's output directory. A run that
// fails to load is logged and left out; it never fails the whole build, so
// an empty dataset is a valid result.
func Build(desc *scenario.Descriptor, opts Options) (Dataset, error) {
	log := opts.logger()
	if !desc.Validation {
		return nil, fmt.Errorf("scenario %s: %w", desc.ScenarioPath, ErrNotImplemented)
	}
	mode, err := objective.ParseMode(desc.OverallObjective)
	if err != nil {
		log.Warn("unsupported objective, averaging instead", "objective", desc.OverallObjective, "error", err)
		mode = objective.Mean
	}
	cutoff := desc.PenaltyCutoff()

	dir := desc.ScenarioOutputDir()
	ids, err := Discover(dir)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		log.Warn("no runs found", "dir", dir)
	}

	jobs := make([]runner.Job[Outcome], len(ids))
	for i, id := range ids {
		jobs[i] = func() Outcome {
			return LoadRun(dir, id, mode, cutoff)
		}
	}
	var outcomes []Outcome
	if opts.Parallel > 1 {
		outcomes = runner.RunPool(opts.Parallel, jobs)
	} else {
		outcomes = make([]Outcome, len(jobs))
		for i, job := range jobs {
			outcomes[i] = job()
		}
	}

	ds := make(Dataset, len(outcomes))
	for _, o := range outcomes {
		if o.Err != nil {
			log.Warn("failed to load run, make sure it finished properly; dropping it",
				"run", o.RunID, "kind", o.Kind().String(), "error", o.Err)
			continue
		}
		ds[o.RunID] = o.Record
	}
	log.Info("loaded runs", "dir", dir, "found", len(ids), "loaded", len(ds))
	return ds, nil
}

// LoadRun reads the validation call strings and objective matrix of run id
// and aggregates each configuration's objective values with mode. A nil
// cutoff leaves the values unpenalized.
func LoadRun(dir string, id int, mode objective.Mode, cutoff *float64) Outcome {
	rec, err := loadRecord(dir, id, mode, cutoff)
	if err != nil {
		return Outcome{RunID: id, Err: fmt.Errorf("run %d: %w", id, err)}
	}
	return Outcome{RunID: id, Record: rec}
}

func loadRecord(dir string, id int, mode objective.Mode, cutoff *float64) (*Record, error) {
	configs, err := smacfile.ReadCallStrings(CallStringsFile(dir, id))
	if err != nil {
		return nil, err
	}
	matrix, err := smacfile.ReadObjectiveMatrix(ObjectiveMatrixFile(dir, id))
	if err != nil {
		return nil, err
	}
	if matrix.NumConfigs() != len(configs) {
		return nil, fmt.Errorf("%d configurations, %d objective columns: %w",
			len(configs), matrix.NumConfigs(), ErrMismatch)
	}
	objectives := matrix.Columns()
	perf := make([]float64, len(objectives))
	for j, col := range objectives {
		perf[j] = mode.Aggregate(col, cutoff)
	}
	return &Record{
		RunID:          id,
		Configurations: configs,
		Objectives:     objectives,
		Performance:    perf,
	}, nil
}
