package rundata

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
)

var trajectoryName = regexp.MustCompile(`^traj-run-(\d+)\.txt$`)

func TrajectoryFile(dir string, id int) string {
	return filepath.Join(dir, fmt.Sprintf("traj-run-%d.txt", id))
}

func CallStringsFile(dir string, id int) string {
	return filepath.Join(dir, fmt.Sprintf("validationCallStrings-traj-run-%d-walltime.csv", id))
}

func ObjectiveMatrixFile(dir string, id int) string {
	return filepath.Join(dir, fmt.Sprintf("validationObjectiveMatrix-traj-run-%d-walltime.csv", id))
}

// Discover returns the ids of all runs with a trajectory file in dir, in
// ascending order. A directory that does not exist holds no runs.
func Discover(dir string) ([]int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	seen := map[int]struct{}{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := trajectoryName.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		id, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		seen[id] = struct{}{}
	}
	ids := make([]int, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}
