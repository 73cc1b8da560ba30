package scenarios

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const batchCSV = `scenario_id,scenario_name,zone_id,severity,required_volunteers,capacity,available_volunteers,resources_available,min_resources_per_volunteer
S1,Coastal flood,Z1,8,10,,12,,
S1,Coastal flood,Z2,5,8,6,12,30,2.5
S2,Earthquake,A,9,20.0,15,25,,

S2,Earthquake,B,3,,,25,,
S1,Coastal flood,Z3,2,6,,12,,
`

func TestParseCSV_GroupsRowsByScenario(t *testing.T) {
	scenarios, err := ParseCSV(strings.NewReader(batchCSV), 0.6)
	require.NoError(t, err)
	require.Len(t, scenarios, 2)

	s1 := scenarios[0]
	assert.Equal(t, "S1", s1.ID)
	assert.Equal(t, "Coastal flood", s1.Name)
	assert.Equal(t, 12, s1.Request.AvailableVolunteers)
	assert.Equal(t, 0.6, s1.Request.FairnessWeight)
	require.Len(t, s1.Request.Zones, 3)
	assert.Equal(t, "Z1", s1.Request.Zones[0].ID)
	assert.Equal(t, "Z2", s1.Request.Zones[1].ID)
	assert.Equal(t, "Z3", s1.Request.Zones[2].ID)

	z1 := s1.Request.Zones[0]
	assert.Equal(t, 8, z1.Severity)
	require.NotNil(t, z1.RequiredVolunteers)
	assert.Equal(t, 10, *z1.RequiredVolunteers)
	assert.Nil(t, z1.Capacity)
	assert.Nil(t, z1.ResourcesAvailable)

	z2 := s1.Request.Zones[1]
	require.NotNil(t, z2.Capacity)
	assert.Equal(t, 6, *z2.Capacity)
	require.NotNil(t, z2.ResourcesAvailable)
	assert.Equal(t, 30.0, *z2.ResourcesAvailable)
	require.NotNil(t, z2.MinResourcesPerVolunteer)
	assert.Equal(t, 2.5, *z2.MinResourcesPerVolunteer)

	s2 := scenarios[1]
	assert.Equal(t, "S2", s2.ID)
	assert.Equal(t, 25, s2.Request.AvailableVolunteers)
	require.Len(t, s2.Request.Zones, 2)
	assert.Equal(t, 20, *s2.Request.Zones[0].RequiredVolunteers, "integral floats are accepted")
	assert.Nil(t, s2.Request.Zones[1].RequiredVolunteers)
}

func TestParseCSV_MinimalColumns(t *testing.T) {
	input := "Scenario_ID, Zone_ID, Severity, Available_Volunteers\nS,Z,4,7\n"

	scenarios, err := ParseCSV(strings.NewReader(input), 0)
	require.NoError(t, err)
	require.Len(t, scenarios, 1)
	assert.Empty(t, scenarios[0].Name)
	assert.Equal(t, 7, scenarios[0].Request.AvailableVolunteers)
	assert.Equal(t, 4, scenarios[0].Request.Zones[0].Severity)
}

func TestParseCSV_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		line     int
		column   string
		sentinel error
	}{
		{
			name:     "missing required column",
			input:    "scenario_id,zone_id,severity\nS,Z,1\n",
			line:     1,
			column:   colAvailable,
			sentinel: ErrMissingColumn,
		},
		{
			name:     "empty zone id",
			input:    "scenario_id,zone_id,severity,available_volunteers\nS,Z,1,5\nS,,1,5\n",
			line:     3,
			column:   colZoneID,
			sentinel: ErrEmptyField,
		},
		{
			name:     "non-numeric severity",
			input:    "scenario_id,zone_id,severity,available_volunteers\nS,Z,high,5\n",
			line:     2,
			column:   colSeverity,
			sentinel: ErrInvalidNumber,
		},
		{
			name:     "line numbers count skipped blank lines",
			input:    "scenario_id,zone_id,severity,available_volunteers\n\nS,Z,high,5\n",
			line:     3,
			column:   colSeverity,
			sentinel: ErrInvalidNumber,
		},
		{
			name:     "fractional capacity",
			input:    "scenario_id,zone_id,severity,available_volunteers,capacity\nS,Z,1,5,2.5\n",
			line:     2,
			column:   colCapacity,
			sentinel: ErrInvalidNumber,
		},
		{
			name:     "invalid resource rate",
			input:    "scenario_id,zone_id,severity,available_volunteers,min_resources_per_volunteer\nS,Z,1,5,lots\n",
			line:     2,
			column:   colMinResourcesPerUnit,
			sentinel: ErrInvalidNumber,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCSV(strings.NewReader(tt.input), 0.6)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)

			var parseErr *ParseError
			require.True(t, errors.As(err, &parseErr))
			assert.Equal(t, tt.line, parseErr.Line)
			assert.Equal(t, tt.column, parseErr.Column)
		})
	}
}

func TestParseCSV_NoScenarios(t *testing.T) {
	_, err := ParseCSV(strings.NewReader(""), 0.6)
	assert.ErrorIs(t, err, ErrNoScenarios)

	_, err = ParseCSV(strings.NewReader("scenario_id,zone_id,severity,available_volunteers\n"), 0.6)
	assert.ErrorIs(t, err, ErrNoScenarios)
}

func TestLoadCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenarios.csv")
	require.NoError(t, os.WriteFile(path, []byte(batchCSV), 0644))

	scenarios, err := LoadCSVFile(path, 0.3)
	require.NoError(t, err)
	assert.Len(t, scenarios, 2)

	_, err = LoadCSVFile(filepath.Join(t.TempDir(), "missing.csv"), 0.3)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open scenario file")
}
