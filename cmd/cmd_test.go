package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/signalnine/smacview/internal/config"
	"github.com/signalnine/smacview/internal/merge"
	"github.com/signalnine/smacview/internal/rundata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newExperiment writes a scenario directory with one complete run whose
// configurations scored the given values.
func newExperiment(t *testing.T, id int, values ...float64) string {
	t.Helper()
	dir := t.TempDir()
	write := func(path, content string) {
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	write(filepath.Join(dir, "scenario.dat"), "outdir out\nrunObj QUALITY\noverall_obj MEAN\n")

	out := filepath.Join(dir, "out", "scenario")
	var calls, header, row strings.Builder
	calls.WriteString("\"Validation Configuration ID\",\"Full Configuration\"\n")
	header.WriteString("\"Problem Instance\",\"Seed\"")
	row.WriteString("\"inst-a\",\"1\"")
	for i, v := range values {
		fmt.Fprintf(&calls, "\"%d\",\" -x '%d'\"\n", i+1, i)
		fmt.Fprintf(&header, ",\"Config %d\"", i+1)
		fmt.Fprintf(&row, ",\"%g\"", v)
	}
	write(rundata.TrajectoryFile(out, id), "\"CPU Time Used\"\n")
	write(rundata.CallStringsFile(out, id), calls.String())
	write(rundata.ObjectiveMatrixFile(out, id), header.String()+"\n"+row.String()+"\n")
	return dir
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "smacview.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRunsCommand(t *testing.T) {
	dir := newExperiment(t, 3, 5, 3, 1)
	cfg := writeConfig(t, "load:\n  parallel: 2\n")

	out, _, err := execute(t, "runs", dir, "--config", cfg)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"3", "3", "1"}, strings.Fields(lines[2]))
}

func TestReportCommandJSON(t *testing.T) {
	dir := newExperiment(t, 0, 5, 3, 3, 1, 4, 1)
	cfg := writeConfig(t, "report:\n  format: markdown\n")

	out, _, err := execute(t, "report", dir, "--config", cfg, "--format", "json")
	require.NoError(t, err)
	var got struct {
		BestRun int `json:"best_run"`
		Runs    []struct {
			Incumbent struct {
				Indices []int `json:"indices"`
			} `json:"incumbent"`
		} `json:"runs"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 0, got.BestRun)
	require.Len(t, got.Runs, 1)
	assert.Equal(t, []int{2, 3, 5}, got.Runs[0].Incumbent.Indices)
}

func TestReportCommandUsesConfiguredFormat(t *testing.T) {
	dir := newExperiment(t, 0, 2, 1)
	cfg := writeConfig(t, "report:\n  format: markdown\n")

	out, _, err := execute(t, "report", dir, "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "| Run | Evaluations |")
}

func TestIncumbentCommand(t *testing.T) {
	dir := newExperiment(t, 7, 5, 3, 1)
	cfg := writeConfig(t, "{}\n")

	out, _, err := execute(t, "incumbent", dir, "--config", cfg, "--run", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "-x '1'")
	assert.Contains(t, out, "-x '2'")

	_, _, err = execute(t, "incumbent", dir, "--config", cfg, "--run", "8")
	assert.ErrorContains(t, err, "run 8 was not loaded")
}

func TestLogsGoToStderr(t *testing.T) {
	dir := newExperiment(t, 1, 4)
	// run 2 has a trajectory but nothing to validate against
	out := filepath.Join(dir, "out", "scenario")
	require.NoError(t, os.WriteFile(rundata.TrajectoryFile(out, 2), nil, 0o644))
	cfg := writeConfig(t, "{}\n")

	stdout, stderr, err := execute(t, "runs", dir, "--config", cfg, "--log-format", "json", "--log-level", "debug")
	require.NoError(t, err)
	assert.NotContains(t, stdout, "level")
	assert.Contains(t, stderr, `"run":2`)
}

func TestMissingScenario(t *testing.T) {
	cfg := writeConfig(t, "{}\n")
	_, _, err := execute(t, "report", filepath.Join(t.TempDir(), "nope.dat"), "--config", cfg)
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := loadConfig(config.DefaultPath)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	_, err = loadConfig("elsewhere.yaml")
	assert.Error(t, err)
}

func TestNewMerger(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(home, "lib"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(home, "lib", "aeatk.jar"), nil, 0o644))

	tests := []struct {
		name    string
		cfg     config.Merge
		backend string
		wantErr bool
	}{
		{"exec with classpath", config.Merge{Classpath: []string{"/cp"}}, "exec", false},
		{"exec with smac home", config.Merge{SMACHome: home}, "exec", false},
		{"exec without classpath", config.Merge{}, "exec", true},
		{"exec with empty smac home lib", config.Merge{SMACHome: t.TempDir()}, "exec", true},
		{"docker", config.Merge{SMACHome: home, Image: "img", TimeoutMinutes: 1}, "docker", false},
		{"docker without smac home", config.Merge{Image: "img"}, "docker", true},
		{"unknown", config.Merge{}, "ssh", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := newMerger(tt.cfg, tt.backend, nil)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			switch tt.backend {
			case "exec":
				assert.IsType(t, &merge.ExecMerger{}, m)
			case "docker":
				assert.IsType(t, &merge.DockerMerger{}, m)
			}
		})
	}
}

func TestMergeCommandExec(t *testing.T) {
	dir := newExperiment(t, 0, 1)
	java := filepath.Join(t.TempDir(), "java")
	script := "#!/bin/sh\nwhile [ $# -gt 0 ]; do\n  if [ \"$1\" = \"--outdir\" ]; then mkdir -p \"$2\"; fi\n  shift\ndone\n"
	require.NoError(t, os.WriteFile(java, []byte(script), 0o755))
	cfg := writeConfig(t, fmt.Sprintf("merge:\n  java: %s\n  classpath: [/smac/conf]\n", java))

	out, _, err := execute(t, "merge", dir, "--config", cfg)
	require.NoError(t, err)
	merged := filepath.Join(dir, "out", merge.MergedDirName)
	assert.Contains(t, out, merged)
	assert.DirExists(t, merged)
}
