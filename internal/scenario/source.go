package scenario

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DefaultFileName is the scenario file expected inside a scenario directory.
const DefaultFileName = "scenario.dat"

// SourceKind tells how a Source names its scenario file.
type SourceKind int

const (
	KindFile SourceKind = iota
	KindDirectory
	KindWorkingDirectory
)

func (k SourceKind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	case KindWorkingDirectory:
		return "working-directory"
	default:
		return "unknown"
	}
}

// Source says where a scenario file comes from. It is resolved exactly once
// into a canonical file path before any parsing happens.
type Source struct {
	Kind SourceKind
	Path string
}

// FromFile names the scenario file directly.
func FromFile(path string) Source {
	return Source{Kind: KindFile, Path: path}
}

// FromDirectory names a directory holding DefaultFileName.
func FromDirectory(dir string) Source {
	return Source{Kind: KindDirectory, Path: dir}
}

// FromWorkingDirectory points at the working directory of a live optimizer,
// which writes its scenario file under DefaultFileName.
func FromWorkingDirectory(dir string) Source {
	return Source{Kind: KindWorkingDirectory, Path: dir}
}

// Detect picks FromDirectory for existing directories and FromFile for
// anything else, so a missing path is reported against the path as given.
func Detect(path string) Source {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return FromDirectory(path)
	}
	return FromFile(path)
}

// Resolve returns the absolute path of the scenario file named by s.
func (s Source) Resolve() (string, error) {
	if s.Path == "" {
		return "", fmt.Errorf("empty %s path: %w", s.Kind, ErrFileNotFound)
	}
	path := s.Path
	if s.Kind != KindFile {
		path = filepath.Join(s.Path, DefaultFileName)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving scenario path %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%s: %w", abs, ErrFileNotFound)
		}
		return "", fmt.Errorf("stat scenario %s: %w", abs, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory: %w", abs, ErrFileNotFound)
	}
	return abs, nil
}
