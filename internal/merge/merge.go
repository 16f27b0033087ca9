// Package merge combines the runs of a scenario into a single SMAC state
// directory with the AEATK StateMergeExecutor, the input format expected by
// fANOVA parameter importance analysis.
package merge

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/signalnine/smacview/internal/scenario"
)

const (
	launcherClass = "ca.ubc.cs.beta.aeatk.ant.execscript.Launcher"
	executorClass = "ca.ubc.cs.beta.aeatk.example.statemerge.StateMergeExecutor"

	MergedDirName = "merged_run"
)

var ErrMergeFailed = errors.New("state merge failed")

// Request names everything the merge tool reads and writes.
type Request struct {
	ScenarioPath string
	OutputDir    string
	MergedDir    string
}

func NewRequest(desc *scenario.Descriptor) Request {
	return Request{
		ScenarioPath: desc.ScenarioPath,
		OutputDir:    desc.OutputDir,
		MergedDir:    filepath.Join(desc.OutputDir, MergedDirName),
	}
}

type Result struct {
	MergedDir string
	Output    string
}

// Merger runs the state merge for a request.
type Merger interface {
	Merge(ctx context.Context, req Request) (*Result, error)
}

// Arguments returns the java arguments after the classpath.
func Arguments(req Request) []string {
	return []string{
		launcherClass,
		executorClass,
		"--directories", req.OutputDir,
		"--scenario-file", req.ScenarioPath,
		"--outdir", req.MergedDir,
	}
}

// Command is the full command line for a local java binary.
func Command(java string, classpath []string, req Request) []string {
	cmd := []string{java, "-cp", strings.Join(classpath, string(os.PathListSeparator))}
	return append(cmd, Arguments(req)...)
}

// DebugCommand is Command with debug logging enabled, for rerunning a failed
// merge by hand.
func DebugCommand(java string, classpath []string, req Request) []string {
	return append(Command(java, classpath, req), "--log-level", "DEBUG")
}

// Classpath lists a SMAC installation's patches and conf directories
// followed by every jar in lib/, which is how SMAC's own launcher builds it.
func Classpath(smacHome string) ([]string, error) {
	if smacHome == "" {
		return nil, fmt.Errorf("no SMAC installation configured")
	}
	jars, err := filepath.Glob(filepath.Join(smacHome, "lib", "*.jar"))
	if err != nil {
		return nil, fmt.Errorf("listing SMAC jars: %w", err)
	}
	if len(jars) == 0 {
		return nil, fmt.Errorf("no jars in %s", filepath.Join(smacHome, "lib"))
	}
	sort.Strings(jars)
	cp := []string{filepath.Join(smacHome, "patches"), filepath.Join(smacHome, "conf")}
	return append(cp, jars...), nil
}

// prepare removes a merged directory left by a previous merge; the merge
// tool refuses to write into an existing one.
func prepare(req Request) error {
	if req.ScenarioPath == "" || req.OutputDir == "" || req.MergedDir == "" {
		return fmt.Errorf("incomplete merge request %+v", req)
	}
	if within(req.MergedDir, req.OutputDir) {
		return fmt.Errorf("merged dir %s would replace output dir %s", req.MergedDir, req.OutputDir)
	}
	if err := os.RemoveAll(req.MergedDir); err != nil {
		return fmt.Errorf("removing old merged dir: %w", err)
	}
	return nil
}

// within reports whether p is dir or lies below it.
func within(dir, p string) bool {
	rel, err := filepath.Rel(dir, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func failure(exitCode int, output string, debug []string) error {
	msg := fmt.Sprintf("exit code %d; run the following command and check its output: %s",
		exitCode, strings.Join(debug, " "))
	if tail := lastLines(output, 20); tail != "" {
		msg += "\n" + tail
	}
	return fmt.Errorf("%w: %s", ErrMergeFailed, msg)
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
