package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"

	"github.com/jakechorley/relief-allocator/pkg/core/model"
	"github.com/jakechorley/relief-allocator/pkg/core/services"
	"github.com/jakechorley/relief-allocator/pkg/db"
)

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func optionalInt(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

func optionalPct(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", *v)
}

// renderPlan prints the allocation plan table followed by the solve summary
func renderPlan(out io.Writer, resp *services.AllocationResponse) error {
	table := tablewriter.NewWriter(out)
	table.Header("Zone", "Severity", "Required", "Capacity", "Allocated", "Satisfaction", "Capacity Used", "Resources Used")
	for _, row := range resp.AllocationPlan {
		resources := "-"
		if row.ResourcesUsed != nil {
			resources = strconv.FormatFloat(*row.ResourcesUsed, 'f', -1, 64)
			if row.ResourcesUsedPct != nil {
				resources += fmt.Sprintf(" (%.1f%%)", *row.ResourcesUsedPct)
			}
		}
		if err := table.Append([]string{
			row.ZoneID,
			strconv.Itoa(row.Severity),
			strconv.Itoa(row.Required),
			optionalInt(row.Capacity),
			strconv.Itoa(row.Allocated),
			fmt.Sprintf("%.1f%%", row.SatisfactionPct),
			optionalPct(row.CapacityUsedPct),
			resources,
		}); err != nil {
			return fmt.Errorf("failed to append plan row: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render plan: %w", err)
	}

	renderMetadata(out, resp.Metadata, resp.TotalAllocated())
	fmt.Fprintf(out, "Run:        %s (%s, %s)\n\n", resp.RunID, resp.Source, resp.Timestamp.Format(time.RFC3339))
	return nil
}

func renderMetadata(out io.Writer, md model.OptimizationMetadata, allocated int) {
	fm := md.FairnessMetrics
	fmt.Fprintf(out, "\nStatus:     %s (%d)\n", md.SolverStatusName, md.SolverStatus)
	fmt.Fprintf(out, "Objective:  %.2f\n", md.ObjectiveValue)
	fmt.Fprintf(out, "Allocated:  %s volunteers, %s remaining\n", humanize.Comma(int64(allocated)), humanize.Comma(int64(md.RemainingVolunteers)))
	fmt.Fprintf(out, "Fairness:   weight %.2f, mean %.2f, std dev %.2f, CV %.2f%%\n", md.FairnessWeight, fm.MeanAllocation, fm.StdDeviation, fm.CoefficientOfVariation)
	fmt.Fprintf(out, "Solve time: %.4fs (%s)\n", md.SolveTimeSeconds, md.ModelType)
}

// renderScenarios prints one summary row per scenario and the batch totals
func renderScenarios(out io.Writer, outcomes []services.ScenarioOutcome) error {
	table := tablewriter.NewWriter(out)
	table.Header("Scenario", "Name", "Zones", "Available", "Allocated", "Remaining", "Objective", "Status")

	succeeded := 0
	for _, o := range outcomes {
		req := o.Scenario.Request
		row := []string{o.Scenario.ID, o.Scenario.Name, strconv.Itoa(len(req.Zones)), humanize.Comma(int64(req.AvailableVolunteers))}
		if o.Err != nil {
			row = append(row, "-", "-", "-", "error: "+o.Err.Error())
		} else {
			succeeded++
			md := o.Response.Metadata
			row = append(row,
				humanize.Comma(int64(o.Response.TotalAllocated())),
				humanize.Comma(int64(md.RemainingVolunteers)),
				fmt.Sprintf("%.2f", md.ObjectiveValue),
				fmt.Sprintf("%s (%s)", md.SolverStatusName, o.Response.Source),
			)
		}
		if err := table.Append(row); err != nil {
			return fmt.Errorf("failed to append scenario %s: %w", o.Scenario.ID, err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render scenarios: %w", err)
	}

	fmt.Fprintf(out, "\nProcessed %d/%d scenarios successfully\n", succeeded, len(outcomes))
	return nil
}

// renderRuns prints recent runs with relative timestamps
func renderRuns(out io.Writer, runs []db.Run) error {
	if len(runs) == 0 {
		fmt.Fprintln(out, "No allocation runs recorded")
		return nil
	}

	table := tablewriter.NewWriter(out)
	table.Header("Run", "When", "Source", "Zones", "Available", "Allocated", "Objective", "Status")
	for _, r := range runs {
		if err := table.Append([]string{
			r.RunID,
			humanize.Time(r.CreatedAt),
			r.Source,
			strconv.Itoa(r.Zones),
			humanize.Comma(int64(r.AvailableVolunteers)),
			humanize.Comma(int64(r.TotalAllocated)),
			fmt.Sprintf("%.2f", r.ObjectiveValue),
			r.SolverStatus,
		}); err != nil {
			return fmt.Errorf("failed to append run %s: %w", r.RunID, err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render runs: %w", err)
	}
	return nil
}

func renderModelInfo(out io.Writer, info model.ModelInfo) {
	fmt.Fprintf(out, "Model version:   %s\n", info.Version)
	fmt.Fprintf(out, "Solver:          %s\n", info.Solver)
	fmt.Fprintf(out, "Fairness weight: %.2f\n", info.FairnessWeight)
	fmt.Fprintf(out, "Features:\n")
	features := []struct {
		name    string
		enabled bool
	}{
		{"severity optimization", info.Features.SeverityOptimization},
		{"capacity constraints", info.Features.CapacityConstraints},
		{"resource coupling", info.Features.ResourceCoupling},
		{"fairness floor", info.Features.FairnessFloor},
		{"integer variables", info.Features.IntegerVariables},
	}
	for _, f := range features {
		mark := "✗"
		if f.enabled {
			mark = "✓"
		}
		fmt.Fprintf(out, "  %s %s\n", mark, f.name)
	}
}
