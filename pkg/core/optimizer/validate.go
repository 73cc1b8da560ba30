package optimizer

import (
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"

	"github.com/jakechorley/relief-allocator/pkg/core/model"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// ValidateRequest rejects requests that violate the caller contract: an empty
// zone list, a negative budget or fairness weight, duplicate zone ids, and
// negative or non-finite zone attributes.
func ValidateRequest(req model.AllocationRequest) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if math.IsNaN(req.FairnessWeight) || math.IsInf(req.FairnessWeight, 0) {
		return fmt.Errorf("%w: fairness weight must be finite, got %v", ErrInvalidInput, req.FairnessWeight)
	}

	seen := make(map[string]int, len(req.Zones))
	for i, zone := range req.Zones {
		if prev, ok := seen[zone.ID]; ok {
			return fmt.Errorf("%w: duplicate zone id %q at zones[%d] and zones[%d]", ErrInvalidInput, zone.ID, prev, i)
		}
		seen[zone.ID] = i

		if !finite(zone.ResourcesAvailable) || !finite(zone.MinResourcesPerVolunteer) {
			return fmt.Errorf("%w: zone %q has a non-finite resource attribute", ErrInvalidInput, zone.ID)
		}
	}

	return nil
}

func finite(v *float64) bool {
	return v == nil || !(math.IsNaN(*v) || math.IsInf(*v, 0))
}
