// Package smacfile reads the validation artifacts SMAC writes per run: the
// call strings of the validated configurations and the objective matrix
// holding their measured performance.
package smacfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var ErrParse = errors.New("parse error")

// Configuration is one parameter assignment in call-string order.
type Configuration struct {
	Names  []string          `json:"names"`
	Values map[string]string `json:"values"`
}

func (c Configuration) Get(name string) (string, bool) {
	v, ok := c.Values[name]
	return v, ok
}

// String renders c back in call-string form.
func (c Configuration) String() string {
	parts := make([]string, 0, len(c.Names))
	for _, n := range c.Names {
		parts = append(parts, fmt.Sprintf("-%s '%s'", n, c.Values[n]))
	}
	return strings.Join(parts, " ")
}

// ParseCallString splits "-name 'value' -other 'value'" into a Configuration.
func ParseCallString(s string) (Configuration, error) {
	tokens := strings.Fields(s)
	if len(tokens)%2 != 0 {
		return Configuration{}, fmt.Errorf("odd number of tokens in %q: %w", s, ErrParse)
	}
	c := Configuration{
		Names:  make([]string, 0, len(tokens)/2),
		Values: make(map[string]string, len(tokens)/2),
	}
	for i := 0; i < len(tokens); i += 2 {
		if !strings.HasPrefix(tokens[i], "-") {
			return Configuration{}, fmt.Errorf("expected parameter name, got %q: %w", tokens[i], ErrParse)
		}
		name := strings.TrimLeft(tokens[i], "-")
		if name == "" {
			return Configuration{}, fmt.Errorf("empty parameter name in %q: %w", s, ErrParse)
		}
		if _, dup := c.Values[name]; !dup {
			c.Names = append(c.Names, name)
		}
		c.Values[name] = strings.Trim(tokens[i+1], "'")
	}
	return c, nil
}

// ReadCallStrings reads a validationCallStrings CSV file. The first row is a
// header; the second column of every other row holds a call string.
func ReadCallStrings(path string) ([]Configuration, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening call strings: %w", err)
	}
	defer f.Close()
	configs, err := parseCallStrings(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return configs, nil
}

func parseCallStrings(r io.Reader) ([]Configuration, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("missing header: %w", ErrParse)
		}
		return nil, fmt.Errorf("header: %v: %w", err, ErrParse)
	}
	var configs []Configuration
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%v: %w", err, ErrParse)
		}
		line, _ := cr.FieldPos(0)
		if len(rec) < 2 {
			return nil, fmt.Errorf("line %d: expected at least 2 columns, got %d: %w", line, len(rec), ErrParse)
		}
		c, err := ParseCallString(rec[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		configs = append(configs, c)
	}
	return configs, nil
}
