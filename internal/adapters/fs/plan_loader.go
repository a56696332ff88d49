package fs

import (
	"context"
	"fmt"
	"os"

	"github.com/trebuchet-org/xfactory/internal/domain"
	"github.com/trebuchet-org/xfactory/internal/usecase"
	"gopkg.in/yaml.v3"
)

// PlanLoaderAdapter reads simulation plans from YAML files
type PlanLoaderAdapter struct{}

// NewPlanLoaderAdapter creates a new plan loader
func NewPlanLoaderAdapter() *PlanLoaderAdapter {
	return &PlanLoaderAdapter{}
}

// LoadPlan parses the plan at path and checks every step names a known operation
func (l *PlanLoaderAdapter) LoadPlan(ctx context.Context, path string) (*domain.SimulationPlan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan: %w", err)
	}

	var plan domain.SimulationPlan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("failed to parse plan %s: %w", path, err)
	}

	if len(plan.Steps) == 0 {
		return nil, fmt.Errorf("plan %s has no steps", path)
	}
	for i, step := range plan.Steps {
		if step.IsRawCall() {
			if _, err := step.Call(); err != nil {
				return nil, fmt.Errorf("step %d (%s): %w", i+1, step.Name, err)
			}
			continue
		}
		if _, _, err := domain.ParseOperation(step.Operation); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, step.Name, err)
		}
		if step.Caller == "" {
			return nil, fmt.Errorf("step %d (%s): caller is required", i+1, step.Name)
		}
	}

	return &plan, nil
}

var _ usecase.PlanLoader = (*PlanLoaderAdapter)(nil)
