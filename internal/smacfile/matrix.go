package smacfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cast"
)

// leading columns of an objective matrix row before the per-configuration values
const matrixKeyColumns = 2

// Matrix is a validationObjectiveMatrix file: one row per validation
// instance and seed, one value column per validated configuration.
type Matrix struct {
	Configs   []string
	Instances []string
	Seeds     []string
	Rows      [][]float64
}

func (m *Matrix) NumConfigs() int {
	return len(m.Configs)
}

// Column returns the objective values of configuration j across all rows.
func (m *Matrix) Column(j int) []float64 {
	col := make([]float64, len(m.Rows))
	for i, row := range m.Rows {
		col[i] = row[j]
	}
	return col
}

// Columns returns every configuration's values, in configuration order.
func (m *Matrix) Columns() [][]float64 {
	cols := make([][]float64, m.NumConfigs())
	for j := range cols {
		cols[j] = m.Column(j)
	}
	return cols
}

// ReadObjectiveMatrix reads a validationObjectiveMatrix CSV file.
func ReadObjectiveMatrix(path string) (*Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening objective matrix: %w", err)
	}
	defer f.Close()
	m, err := parseMatrix(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

func parseMatrix(r io.Reader) (*Matrix, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("missing header: %w", ErrParse)
		}
		return nil, fmt.Errorf("header: %v: %w", err, ErrParse)
	}
	if len(header) <= matrixKeyColumns {
		return nil, fmt.Errorf("header has no configuration columns: %w", ErrParse)
	}
	m := &Matrix{Configs: header[matrixKeyColumns:]}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// ragged rows surface here as csv.ErrFieldCount
			return nil, fmt.Errorf("%v: %w", err, ErrParse)
		}
		line, _ := cr.FieldPos(0)
		row := make([]float64, 0, len(rec)-matrixKeyColumns)
		for col, cell := range rec[matrixKeyColumns:] {
			v, err := cast.ToFloat64E(cell)
			if err != nil {
				return nil, fmt.Errorf("line %d column %d: %q is not a number: %w", line, col+matrixKeyColumns+1, cell, ErrParse)
			}
			row = append(row, v)
		}
		m.Instances = append(m.Instances, rec[0])
		m.Seeds = append(m.Seeds, rec[1])
		m.Rows = append(m.Rows, row)
	}
	if len(m.Rows) == 0 {
		return nil, fmt.Errorf("no instance rows: %w", ErrParse)
	}
	return m, nil
}
