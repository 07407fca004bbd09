package substitution

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// csvColumns is the column order expected by ReadCSV.
var csvColumns = []string{
	"name", "massDiff", "minMass", "maxMass", "leftEnd", "rightEnd",
	"lowerSlope", "lowerIntercept", "upperSlope", "upperIntercept",
}

// ReadCSV loads a table from comma-separated text. The first line is a
// header and is skipped; columns follow csvColumns. Numeric fields accept
// "Inf". The result is validated.
func ReadCSV(r io.Reader) (Table, error) {
	scanner := bufio.NewScanner(r)

	// Skip header line
	if scanner.Scan() {
		// header
	}

	var t Table
	lineNum := 1
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		if len(parts) < len(csvColumns) {
			return nil, fmt.Errorf("line %d: expected %d fields (%s), got %d",
				lineNum, len(csvColumns), strings.Join(csvColumns, ","), len(parts))
		}

		row := Row{Name: strings.Trim(strings.TrimSpace(parts[0]), `"`)}
		dst := []*float64{
			&row.MassDiff, &row.MinMass, &row.MaxMass, &row.LeftEnd, &row.RightEnd,
			&row.LowerSlope, &row.LowerIntercept, &row.UpperSlope, &row.UpperIntercept,
		}
		for k, p := range dst {
			s := strings.TrimSpace(parts[k+1])
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid %s value '%s': %w", lineNum, csvColumns[k+1], s, err)
			}
			*p = v
		}
		t = append(t, row)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading CSV: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// yamlTable is the document layout accepted by ReadYAML.
type yamlTable struct {
	Name string `yaml:"name"`
	Rows []Row  `yaml:"rows"`
}

// ReadYAML loads a table from a YAML document of the form
//
//	name: custom
//	rows:
//	  - {name: "[13C]1", massDiff: 1.003355, leftEnd: 0, rightEnd: .inf, ...}
//
// The returned name is empty when the document does not set one.
func ReadYAML(r io.Reader) (string, Table, error) {
	var doc yamlTable
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return "", nil, fmt.Errorf("empty substitution document")
		}
		return "", nil, fmt.Errorf("failed to decode substitution YAML: %w", err)
	}
	t := Table(doc.Rows)
	if err := t.Validate(); err != nil {
		return "", nil, err
	}
	return doc.Name, t, nil
}
