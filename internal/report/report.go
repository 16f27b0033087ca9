package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/signalnine/smacview/internal/incumbent"
	"github.com/signalnine/smacview/internal/rundata"
	"github.com/signalnine/smacview/internal/scenario"
	"github.com/signalnine/smacview/internal/smacfile"
)

// Float is a float64 that encodes non-finite values as JSON null.
type Float float64

func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

type Curve struct {
	Indices []int   `json:"indices"`
	Values  []Float `json:"values"`
}

func newCurve(c incumbent.Curve) Curve {
	out := Curve{Indices: c.Indices, Values: make([]Float, len(c.Values))}
	for i, v := range c.Values {
		out.Values[i] = Float(v)
	}
	return out
}

type RunSummary struct {
	RunID       int                    `json:"run_id"`
	Evaluations int                    `json:"evaluations"`
	Best        Float                  `json:"best"`
	BestIndex   int                    `json:"best_index"`
	BestConfig  smacfile.Configuration `json:"best_configuration"`
	Incumbent   Curve                  `json:"incumbent"`
}

// Summary describes every loaded run of a scenario. BestRun is the run
// holding the overall best value, or -1 when there are no runs.
type Summary struct {
	Scenario  string       `json:"scenario"`
	OutputDir string       `json:"output_dir"`
	Objective string       `json:"objective"`
	BestRun   int          `json:"best_run"`
	Runs      []RunSummary `json:"runs"`
}

// Summarize computes a summary per run in ascending run order.
func Summarize(desc *scenario.Descriptor, ds rundata.Dataset) (*Summary, error) {
	s := &Summary{
		Scenario:  desc.ScenarioPath,
		OutputDir: desc.ScenarioOutputDir(),
		Objective: desc.OverallObjective,
		BestRun:   -1,
	}
	overall := math.Inf(1)
	for _, id := range ds.IDs() {
		rec := ds[id]
		curve, err := rec.Incumbent()
		if err != nil {
			return nil, fmt.Errorf("run %d: %w", id, err)
		}
		idx, best := incumbent.Best(rec.Performance)
		s.Runs = append(s.Runs, RunSummary{
			RunID:       id,
			Evaluations: rec.Len(),
			Best:        Float(best),
			BestIndex:   idx,
			BestConfig:  rec.Configurations[idx],
			Incumbent:   newCurve(curve),
		})
		if best < overall || s.BestRun < 0 {
			overall = best
			s.BestRun = id
		}
	}
	return s, nil
}

// Generate writes the summary of ds in format: table, markdown or json.
func Generate(desc *scenario.Descriptor, ds rundata.Dataset, format string, w io.Writer) error {
	s, err := Summarize(desc, ds)
	if err != nil {
		return err
	}
	switch format {
	case "markdown":
		return writeMarkdown(s, w)
	case "json":
		return writeJSON(s, w)
	case "table", "":
		return writeTable(s, w)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

func formatFloat(f Float) string {
	return strconv.FormatFloat(float64(f), 'g', 6, 64)
}

func formatSteps(c Curve) string {
	steps := make([]string, len(c.Indices))
	for i := range c.Indices {
		steps[i] = fmt.Sprintf("%d:%s", c.Indices[i], formatFloat(c.Values[i]))
	}
	return strings.Join(steps, " ")
}

func marker(s *Summary, id int) string {
	if s.BestRun == id {
		return "*"
	}
	return ""
}

func writeTable(s *Summary, w io.Writer) error {
	fmt.Fprintf(w, "Scenario: %s (objective %s)\n", s.Scenario, s.Objective)
	if len(s.Runs) == 0 {
		fmt.Fprintf(w, "No usable runs in %s\n", s.OutputDir)
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tEVALS\tBEST\tAT\tINCUMBENT STEPS")
	fmt.Fprintln(tw, strings.Repeat("-", 72))
	for _, r := range s.Runs {
		fmt.Fprintf(tw, "%d%s\t%d\t%s\t%d\t%s\n",
			r.RunID, marker(s, r.RunID), r.Evaluations, formatFloat(r.Best), r.BestIndex, formatSteps(r.Incumbent))
	}
	return tw.Flush()
}

func writeMarkdown(s *Summary, w io.Writer) error {
	fmt.Fprintf(w, "**Scenario:** `%s` (objective %s)\n\n", s.Scenario, s.Objective)
	if len(s.Runs) == 0 {
		fmt.Fprintf(w, "No usable runs in `%s`.\n", s.OutputDir)
		return nil
	}
	fmt.Fprintln(w, "| Run | Evaluations | Best | At | Best configuration |")
	fmt.Fprintln(w, "|---|---|---|---|---|")
	for _, r := range s.Runs {
		fmt.Fprintf(w, "| %d%s | %d | %s | %d | `%s` |\n",
			r.RunID, marker(s, r.RunID), r.Evaluations, formatFloat(r.Best), r.BestIndex, r.BestConfig.String())
	}
	return nil
}

func writeJSON(s *Summary, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// WriteIncumbent prints one run's incumbent curve, one step per line, or as
// JSON.
func WriteIncumbent(rec *rundata.Record, format string, w io.Writer) error {
	c, err := rec.Incumbent()
	if err != nil {
		return fmt.Errorf("run %d: %w", rec.RunID, err)
	}
	curve := newCurve(c)
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			RunID int `json:"run_id"`
			Curve
		}{rec.RunID, curve})
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "EVALUATION\tBEST SO FAR\tCONFIGURATION")
	for i, idx := range curve.Indices {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", idx, formatFloat(curve.Values[i]), rec.Configurations[idx].String())
	}
	return tw.Flush()
}
