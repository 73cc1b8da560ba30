package services

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/relief-allocator/internal/config"
	"github.com/jakechorley/relief-allocator/pkg/core/model"
)

// ResolveBudget applies the first budget override whose rrule matches date.
// It returns the adjusted copy of req and the index of the applied override,
// or -1 when none matched.
func ResolveBudget(req model.AllocationRequest, overrides []config.BudgetOverride, date time.Time, logger *zap.Logger) (model.AllocationRequest, int, error) {
	for i, override := range overrides {
		matches, err := occursOn(override.RRule, date)
		if err != nil {
			return req, -1, fmt.Errorf("failed to parse rrule for override %d: %w", i, err)
		}
		if !matches {
			continue
		}

		if override.AvailableVolunteers != nil {
			req.AvailableVolunteers = *override.AvailableVolunteers
		}
		if override.FairnessWeight != nil {
			req.FairnessWeight = *override.FairnessWeight
		}

		logger.Info("Applied budget override",
			zap.Int("index", i),
			zap.String("rrule", override.RRule),
			zap.String("date", date.Format("2006-01-02")),
			zap.Int("available_volunteers", req.AvailableVolunteers),
			zap.Float64("fairness_weight", req.FairnessWeight))
		return req, i, nil
	}

	return req, -1, nil
}

// occursOn reports whether the rule has an occurrence on the calendar day of date
func occursOn(ruleStr string, date time.Time) (bool, error) {
	rule, err := config.ParseOverrideRule(ruleStr)
	if err != nil {
		return false, err
	}

	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	day := dayStart.Format("2006-01-02")
	for _, occurrence := range rule.Between(dayStart, dayStart.AddDate(0, 0, 1), true) {
		if occurrence.UTC().Format("2006-01-02") == day {
			return true, nil
		}
	}
	return false, nil
}
