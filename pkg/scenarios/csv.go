// Package scenarios loads allocation requests from scenario CSV batches and
// YAML request files.
package scenarios

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jakechorley/relief-allocator/pkg/core/model"
)

// Scenario is one named allocation request from a batch file
type Scenario struct {
	ID      string
	Name    string
	Request model.AllocationRequest
}

const (
	colScenarioID          = "scenario_id"
	colScenarioName        = "scenario_name"
	colZoneID              = "zone_id"
	colSeverity            = "severity"
	colRequired            = "required_volunteers"
	colCapacity            = "capacity"
	colAvailable           = "available_volunteers"
	colResourcesAvailable  = "resources_available"
	colMinResourcesPerUnit = "min_resources_per_volunteer"
)

var requiredColumns = []string{colScenarioID, colZoneID, colSeverity, colAvailable}

// LoadCSVFile opens path and parses it with ParseCSV
func LoadCSVFile(path string, fairnessWeight float64) ([]Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open scenario file: %w", err)
	}
	defer f.Close()

	return ParseCSV(f, fairnessWeight)
}

// ParseCSV reads zone rows grouped by scenario_id. Scenarios are returned in
// order of first appearance and zones keep their row order. The volunteer
// budget of a scenario is taken from its first row. Empty optional cells
// leave the zone attribute unset.
func ParseCSV(r io.Reader, fairnessWeight float64) ([]Scenario, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoScenarios
	}
	if err != nil {
		return nil, fmt.Errorf("error reading CSV header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			return nil, &ParseError{Line: 1, Column: name, Err: ErrMissingColumn}
		}
	}

	var scenarios []*Scenario
	byID := make(map[string]*Scenario)

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		if isBlank(record) {
			continue
		}

		line, _ := reader.FieldPos(0)
		row := csvRow{record: record, columns: columns, line: line}

		id, err := row.required(colScenarioID)
		if err != nil {
			return nil, err
		}
		zone, err := row.zone()
		if err != nil {
			return nil, err
		}

		sc, ok := byID[id]
		if !ok {
			available, err := row.requiredInt(colAvailable)
			if err != nil {
				return nil, err
			}
			sc = &Scenario{
				ID:   id,
				Name: row.optional(colScenarioName),
				Request: model.AllocationRequest{
					AvailableVolunteers: available,
					FairnessWeight:      fairnessWeight,
				},
			}
			byID[id] = sc
			scenarios = append(scenarios, sc)
		}
		sc.Request.Zones = append(sc.Request.Zones, zone)
	}

	if len(scenarios) == 0 {
		return nil, ErrNoScenarios
	}

	out := make([]Scenario, len(scenarios))
	for i, sc := range scenarios {
		out[i] = *sc
	}
	return out, nil
}

type csvRow struct {
	record  []string
	columns map[string]int
	line    int
}

func (r csvRow) optional(column string) string {
	idx, ok := r.columns[column]
	if !ok || idx >= len(r.record) {
		return ""
	}
	return strings.TrimSpace(r.record[idx])
}

func (r csvRow) required(column string) (string, error) {
	v := r.optional(column)
	if v == "" {
		return "", &ParseError{Line: r.line, Column: column, Err: ErrEmptyField}
	}
	return v, nil
}

func (r csvRow) requiredInt(column string) (int, error) {
	v, err := r.required(column)
	if err != nil {
		return 0, err
	}
	return r.parseInt(column, v)
}

func (r csvRow) optionalInt(column string) (*int, error) {
	v := r.optional(column)
	if v == "" {
		return nil, nil
	}
	n, err := r.parseInt(column, v)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r csvRow) optionalFloat(column string) (*float64, error) {
	v := r.optional(column)
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, &ParseError{Line: r.line, Column: column, Err: fmt.Errorf("%w: %v", ErrInvalidNumber, err)}
	}
	return &f, nil
}

// parseInt accepts integral floats such as "12.0", which spreadsheet exports produce
func (r csvRow) parseInt(column, v string) (int, error) {
	if n, err := strconv.Atoi(v); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f != float64(int(f)) {
		return 0, &ParseError{Line: r.line, Column: column, Err: fmt.Errorf("%w: %q", ErrInvalidNumber, v)}
	}
	return int(f), nil
}

func (r csvRow) zone() (model.Zone, error) {
	var zone model.Zone
	var err error

	if zone.ID, err = r.required(colZoneID); err != nil {
		return zone, err
	}
	if zone.Severity, err = r.requiredInt(colSeverity); err != nil {
		return zone, err
	}
	if zone.RequiredVolunteers, err = r.optionalInt(colRequired); err != nil {
		return zone, err
	}
	if zone.Capacity, err = r.optionalInt(colCapacity); err != nil {
		return zone, err
	}
	if zone.ResourcesAvailable, err = r.optionalFloat(colResourcesAvailable); err != nil {
		return zone, err
	}
	if zone.MinResourcesPerVolunteer, err = r.optionalFloat(colMinResourcesPerUnit); err != nil {
		return zone, err
	}
	return zone, nil
}

func isBlank(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
