package scenarios

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jakechorley/relief-allocator/pkg/core/model"
)

// LoadRequestFile reads a single allocation request from a YAML (or JSON) file.
// The fairness weight defaults to defaultWeight when the file does not set one.
func LoadRequestFile(path string, defaultWeight float64) (model.AllocationRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.AllocationRequest{}, fmt.Errorf("failed to read request file: %w", err)
	}
	return ParseRequest(data, defaultWeight)
}

// ParseRequest decodes a YAML allocation request. JSON input is accepted as YAML.
func ParseRequest(data []byte, defaultWeight float64) (model.AllocationRequest, error) {
	var req model.AllocationRequest
	if err := yaml.Unmarshal(data, &req); err != nil {
		return model.AllocationRequest{}, fmt.Errorf("failed to parse request: %w", err)
	}

	var weight struct {
		FairnessWeight *float64 `yaml:"fairness_weight"`
	}
	if err := yaml.Unmarshal(data, &weight); err != nil {
		return model.AllocationRequest{}, fmt.Errorf("failed to parse request: %w", err)
	}

	req.FairnessWeight = defaultWeight
	if weight.FairnessWeight != nil {
		req.FairnessWeight = *weight.FairnessWeight
	}
	return req, nil
}
