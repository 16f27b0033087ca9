package merge

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/signalnine/smacview/internal/docker"
)

// container-side locations of the bind mounts
const (
	containerSMACHome = "/opt/smac"
	containerOutput   = "/smac/output"
	containerScenario = "/smac/scenario"
)

// DockerMerger runs the merge inside a JRE container, so the host needs
// only Docker and an unpacked SMAC distribution.
type DockerMerger struct {
	Image    string
	SMACHome string
	Timeout  time.Duration
	Logger   *slog.Logger

	run func(context.Context, *docker.RunOpts) (*docker.RunResult, error)
}

func NewDockerMerger(image, smacHome string, timeout time.Duration, logger *slog.Logger) *DockerMerger {
	return &DockerMerger{
		Image:    image,
		SMACHome: smacHome,
		Timeout:  timeout,
		Logger:   logger,
		run:      docker.RunContainer,
	}
}

func (m *DockerMerger) Merge(ctx context.Context, req Request) (*Result, error) {
	inner, err := m.containerRequest(req)
	if err != nil {
		return nil, err
	}
	hostCP, err := Classpath(m.SMACHome)
	if err != nil {
		return nil, err
	}
	if err := prepare(req); err != nil {
		return nil, err
	}
	cp := make([]string, len(hostCP))
	for i, p := range hostCP {
		rel, err := filepath.Rel(m.SMACHome, p)
		if err != nil {
			return nil, fmt.Errorf("relocating classpath entry %s: %w", p, err)
		}
		cp[i] = path.Join(containerSMACHome, filepath.ToSlash(rel))
	}
	// the container is always Linux, so join with ':' whatever the host is
	command := append([]string{"java", "-cp", strings.Join(cp, ":")}, Arguments(inner)...)

	if m.Logger != nil {
		m.Logger.Info("merging runs", "backend", "docker", "image", m.Image, "outdir", req.MergedDir)
		m.Logger.Debug("merge command", "args", command)
	}

	run := m.run
	if run == nil {
		run = docker.RunContainer
	}
	res, err := run(ctx, &docker.RunOpts{
		Image:   m.Image,
		Command: command,
		WorkDir: containerScenario,
		Mounts: []docker.Mount{
			{Source: m.SMACHome, Target: containerSMACHome, ReadOnly: true},
			{Source: filepath.Dir(req.ScenarioPath), Target: containerScenario, ReadOnly: true},
			{Source: req.OutputDir, Target: containerOutput},
		},
		Timeout: m.Timeout,
		UserID:  fmt.Sprintf("%d:%d", os.Getuid(), os.Getgid()),
	})
	if err != nil {
		return nil, fmt.Errorf("running merge container: %w", err)
	}
	if res.TimedOut {
		return nil, fmt.Errorf("%w: timed out after %s", ErrMergeFailed, res.Duration.Round(time.Second))
	}
	if res.ExitCode != 0 {
		return nil, failure(res.ExitCode, res.Logs, append(command, "--log-level", "DEBUG"))
	}
	return &Result{MergedDir: req.MergedDir, Output: res.Logs}, nil
}

// containerRequest maps req onto the container mounts. The merged directory
// has to live under the output directory, which is the only writable mount.
func (m *DockerMerger) containerRequest(req Request) (Request, error) {
	if !within(req.OutputDir, req.MergedDir) {
		return Request{}, fmt.Errorf("merged dir %s is outside output dir %s", req.MergedDir, req.OutputDir)
	}
	rel, _ := filepath.Rel(req.OutputDir, req.MergedDir)
	return Request{
		ScenarioPath: path.Join(containerScenario, filepath.Base(req.ScenarioPath)),
		OutputDir:    containerOutput,
		MergedDir:    path.Join(containerOutput, filepath.ToSlash(rel)),
	}, nil
}
