package merge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
)

// ExecMerger runs the merge with a java binary on the host.
type ExecMerger struct {
	Java      string
	Classpath []string
	Logger    *slog.Logger
}

func (m *ExecMerger) Merge(ctx context.Context, req Request) (*Result, error) {
	if len(m.Classpath) == 0 {
		return nil, fmt.Errorf("no classpath for the merge tool")
	}
	if err := prepare(req); err != nil {
		return nil, err
	}
	java := m.Java
	if java == "" {
		java = "java"
	}
	args := Command(java, m.Classpath, req)
	if m.Logger != nil {
		m.Logger.Info("merging runs", "backend", "exec", "outdir", req.MergedDir)
		m.Logger.Debug("merge command", "args", args)
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, failure(exitErr.ExitCode(), string(out), DebugCommand(java, m.Classpath, req))
		}
		return nil, fmt.Errorf("running %s: %w", java, err)
	}
	return &Result{MergedDir: req.MergedDir, Output: string(out)}, nil
}
