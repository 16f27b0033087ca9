package rundata_test

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/signalnine/smacview/internal/objective"
	"github.com/signalnine/smacview/internal/rundata"
	"github.com/signalnine/smacview/internal/scenario"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	dir    string
	outDir string
}

// newFixture writes a scenario file whose output lands in <dir>/out/scen.
func newFixture(t *testing.T, settings string) *fixture {
	t.Helper()
	dir := t.TempDir()
	content := "outdir out\n" + settings
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scen.txt"), []byte(content), 0o644))
	f := &fixture{dir: dir, outDir: filepath.Join(dir, "out", "scen")}
	require.NoError(t, os.MkdirAll(f.outDir, 0o755))
	return f
}

func (f *fixture) source() scenario.Source {
	return scenario.FromFile(filepath.Join(f.dir, "scen.txt"))
}

func (f *fixture) write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// addRun writes a complete run whose configurations have the given
// single-instance objective values.
func (f *fixture) addRun(t *testing.T, id int, values ...float64) {
	t.Helper()
	f.write(t, rundata.TrajectoryFile(f.outDir, id), "\"CPU Time Used\",\"Estimated Training Performance\"\n")

	var calls, header, row strings.Builder
	calls.WriteString("\"Validation Configuration ID\",\"Full Configuration\"\n")
	header.WriteString("\"Problem Instance\",\"Seed\"")
	row.WriteString("\"inst-a\",\"1\"")
	for i, v := range values {
		fmt.Fprintf(&calls, "\"%d\",\" -x '%d' -run '%d'\"\n", i+1, i, id)
		fmt.Fprintf(&header, ",\"Config %d\"", i+1)
		fmt.Fprintf(&row, ",\"%g\"", v)
	}
	f.write(t, rundata.CallStringsFile(f.outDir, id), calls.String())
	f.write(t, rundata.ObjectiveMatrixFile(f.outDir, id), header.String()+"\n"+row.String()+"\n")
}

func TestBuild(t *testing.T) {
	f := newFixture(t, "")
	f.addRun(t, 0, 5, 3, 3, 1, 4, 1)
	f.addRun(t, 2, 2, 1)

	desc, ds, err := rundata.Load(f.source(), rundata.Options{})
	require.NoError(t, err)
	assert.Equal(t, f.outDir, desc.ScenarioOutputDir())
	assert.Equal(t, []int{0, 2}, ds.IDs())

	rec := ds[0]
	assert.Equal(t, 0, rec.RunID)
	assert.Equal(t, 6, rec.Len())
	assert.Equal(t, []float64{5, 3, 3, 1, 4, 1}, rec.Performance)
	assert.Len(t, rec.Configurations, 6)
	assert.Len(t, rec.Objectives, 6)
	assert.Equal(t, "3", rec.Configurations[3].Values["x"])

	curve, err := rec.Incumbent()
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 5}, curve.Indices)
	assert.Equal(t, []float64{3, 1, 1}, curve.Values)
}

func TestBuildDropsRunWithMissingMatrix(t *testing.T) {
	f := newFixture(t, "")
	f.addRun(t, 0, 1, 2)
	f.addRun(t, 1, 3, 4)
	f.addRun(t, 2, 5, 6)
	require.NoError(t, os.Remove(rundata.ObjectiveMatrixFile(f.outDir, 1)))

	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))

	_, ds, err := rundata.Load(f.source(), rundata.Options{Logger: logger})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, ds.IDs())
	assert.Contains(t, logs.String(), `"run":1`)
	assert.Contains(t, logs.String(), `"kind":"file-not-found"`)
	assert.NotContains(t, logs.String(), `"run":0`)
}

func TestBuildDropsBrokenRuns(t *testing.T) {
	f := newFixture(t, "")
	f.addRun(t, 0, 1, 2)
	f.addRun(t, 1, 3, 4)
	f.addRun(t, 2, 5, 6)
	f.addRun(t, 3, 7, 8)
	// run 1: one call string too many
	f.write(t, rundata.CallStringsFile(f.outDir, 1),
		"\"ID\",\"Config\"\n\"1\",\"-x '1'\"\n\"2\",\"-x '2'\"\n\"3\",\"-x '3'\"\n")
	// run 2: garbage objective value
	f.write(t, rundata.ObjectiveMatrixFile(f.outDir, 2),
		"\"Problem Instance\",\"Seed\",\"Config 1\",\"Config 2\"\n\"a\",\"1\",\"x\",\"1\"\n")

	alone := newFixture(t, "")
	alone.addRun(t, 0, 1, 2)
	alone.addRun(t, 3, 7, 8)
	_, want, err := rundata.Load(alone.source(), rundata.Options{})
	require.NoError(t, err)

	_, ds, err := rundata.Load(f.source(), rundata.Options{})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 3}, ds.IDs())
	assert.Equal(t, want[0], ds[0])
	assert.Equal(t, want[3], ds[3])
	for _, rec := range ds {
		assert.Equal(t, len(rec.Configurations), len(rec.Performance))
	}
}

func TestBuildParallelMatchesSequential(t *testing.T) {
	f := newFixture(t, "")
	for id := 0; id < 12; id++ {
		f.addRun(t, id, float64(id), float64(id)/2)
	}
	require.NoError(t, os.Remove(rundata.CallStringsFile(f.outDir, 4)))
	require.NoError(t, os.Remove(rundata.ObjectiveMatrixFile(f.outDir, 9)))

	_, seq, err := rundata.Load(f.source(), rundata.Options{})
	require.NoError(t, err)
	_, par, err := rundata.Load(f.source(), rundata.Options{Parallel: 4})
	require.NoError(t, err)
	assert.Equal(t, seq, par)
	assert.NotContains(t, par.IDs(), 4)
	assert.NotContains(t, par.IDs(), 9)
	assert.Len(t, par, 10)
}

func TestBuildAllRunsFail(t *testing.T) {
	f := newFixture(t, "")
	f.addRun(t, 0, 1)
	require.NoError(t, os.Remove(rundata.CallStringsFile(f.outDir, 0)))

	_, ds, err := rundata.Load(f.source(), rundata.Options{})
	require.NoError(t, err)
	assert.Empty(t, ds)
}

func TestBuildMissingOutputDir(t *testing.T) {
	f := newFixture(t, "")
	require.NoError(t, os.RemoveAll(f.outDir))
	_, ds, err := rundata.Load(f.source(), rundata.Options{})
	require.NoError(t, err)
	assert.Empty(t, ds)
}

func TestBuildWithoutValidation(t *testing.T) {
	f := newFixture(t, "validation false\n")
	f.addRun(t, 0, 1)
	desc, ds, err := rundata.Load(f.source(), rundata.Options{})
	require.ErrorIs(t, err, rundata.ErrNotImplemented)
	assert.Nil(t, ds)
	assert.Nil(t, desc)
}

func TestBuildUnknownObjectiveFallsBackToMean(t *testing.T) {
	f := newFixture(t, "intra-obj Q90\nrun_obj runtime\ncutoff_time 5\n")
	f.addRun(t, 0, 7, 3)

	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))
	_, ds, err := rundata.Load(f.source(), rundata.Options{Logger: logger})
	require.NoError(t, err)
	require.Contains(t, ds, 0)
	assert.Equal(t, []float64{7, 3}, ds[0].Performance)
	assert.Contains(t, logs.String(), `"objective":"Q90"`)
}

func TestBuildMissingScenario(t *testing.T) {
	_, _, err := rundata.Load(scenario.FromDirectory(t.TempDir()), rundata.Options{})
	assert.ErrorIs(t, err, scenario.ErrFileNotFound)
}

func TestBuildAppliesObjective(t *testing.T) {
	f := newFixture(t, "run_obj RUNTIME\noverall_obj MEAN10\ncutoff_time 10\n")
	f.write(t, rundata.TrajectoryFile(f.outDir, 0), "")
	f.write(t, rundata.CallStringsFile(f.outDir, 0), "\"ID\",\"Config\"\n\"1\",\"-x '1'\"\n\"2\",\"-x '2'\"\n")
	f.write(t, rundata.ObjectiveMatrixFile(f.outDir, 0),
		"\"Problem Instance\",\"Seed\",\"Config 1\",\"Config 2\"\n\"a\",\"1\",\"2\",\"10\"\n\"b\",\"1\",\"4\",\"2\"\n")

	_, ds, err := rundata.Load(f.source(), rundata.Options{})
	require.NoError(t, err)
	require.Contains(t, ds, 0)
	assert.Equal(t, []float64{3, 51}, ds[0].Performance)
	assert.Equal(t, [][]float64{{2, 4}, {10, 2}}, ds[0].Objectives)
}

func TestBuildQualityObjectiveKeepsValues(t *testing.T) {
	f := newFixture(t, "run_obj quality\ncutoff_time 5\n")
	f.addRun(t, 0, 7, 3)

	_, ds, err := rundata.Load(f.source(), rundata.Options{})
	require.NoError(t, err)
	require.Contains(t, ds, 0)
	assert.Equal(t, []float64{7, 3}, ds[0].Performance)
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"traj-run-3.txt", "traj-run-1.txt", "traj-run-01.txt", "traj-run-10.txt",
		"traj-run-x.txt", "traj-run-2-walltime.csv", "detailed-traj-run-7.csv", "notes.txt",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "traj-run-5.txt"), 0o755))

	ids, err := rundata.Discover(dir)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 10}, ids)

	ids, err = rundata.Discover(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestKindOf(t *testing.T) {
	f := newFixture(t, "")
	f.addRun(t, 0, 1)
	require.NoError(t, os.Remove(rundata.CallStringsFile(f.outDir, 0)))
	o := rundata.LoadRun(f.outDir, 0, objective.Mean, nil)
	assert.Nil(t, o.Record)
	assert.Equal(t, rundata.KindFileNotFound, o.Kind())
	assert.Contains(t, o.Err.Error(), "run 0")

	assert.Equal(t, rundata.KindOther, rundata.KindOf(fmt.Errorf("boom")))
	assert.Equal(t, rundata.KindMismatch, rundata.KindOf(fmt.Errorf("x: %w", rundata.ErrMismatch)))
}
