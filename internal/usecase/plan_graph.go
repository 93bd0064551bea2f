package usecase

import (
	"fmt"
	"sort"

	"github.com/samber/lo"
	"github.com/trebuchet-org/treb-genesis/internal/domain"
	"github.com/trebuchet-org/treb-genesis/internal/domain/models"
)

// validatePlan checks a plan for structural errors
func validatePlan(plan *models.Plan) error {
	if plan == nil || len(plan.Steps) == 0 {
		return domain.NewConfigurationError("plan", "plan has no steps")
	}

	seen := make(map[string]bool, len(plan.Steps))
	for _, step := range plan.Steps {
		if step.Name == "" {
			return domain.NewConfigurationError("plan", "step without a name")
		}
		if seen[step.Name] {
			return domain.NewConfigurationError("plan", "step '%s' is declared twice", step.Name)
		}
		seen[step.Name] = true
		if step.Build == nil {
			return domain.NewConfigurationError("plan", "step '%s' has no init-code builder", step.Name)
		}
	}

	for _, step := range plan.Steps {
		for _, dep := range step.DependsOn {
			if dep == step.Name {
				return domain.NewConfigurationError("plan", "step '%s' cannot depend on itself", step.Name)
			}
			if !seen[dep] {
				return domain.NewConfigurationError("plan", "step '%s' depends on non-existent step '%s'", step.Name, dep)
			}
		}
	}

	return nil
}

// OrderSteps returns the plan's steps in execution order. Ready steps are
// taken in declaration order, so a plan that is already topologically sorted
// runs exactly as written.
func OrderSteps(plan *models.Plan) ([]*models.PlanStep, error) {
	if err := validatePlan(plan); err != nil {
		return nil, err
	}

	position := make(map[string]int, len(plan.Steps))
	inDegree := make(map[string]int, len(plan.Steps))
	dependents := make(map[string][]string)
	for i, step := range plan.Steps {
		position[step.Name] = i
		deps := lo.Uniq(step.DependsOn)
		inDegree[step.Name] = len(deps)
		for _, dep := range deps {
			dependents[dep] = append(dependents[dep], step.Name)
		}
	}

	byPosition := func(names []string) {
		sort.Slice(names, func(i, j int) bool { return position[names[i]] < position[names[j]] })
	}

	var queue []string
	for _, step := range plan.Steps {
		if inDegree[step.Name] == 0 {
			queue = append(queue, step.Name)
		}
	}

	result := make([]*models.PlanStep, 0, len(plan.Steps))
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		result = append(result, plan.Steps[position[current]])

		for _, dependent := range dependents[current] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
		byPosition(queue)
	}

	if len(result) != len(plan.Steps) {
		var cycle []string
		for name, degree := range inDegree {
			if degree > 0 {
				cycle = append(cycle, name)
			}
		}
		byPosition(cycle)
		return nil, &domain.ConfigurationError{
			Field: "plan",
			Err:   fmt.Errorf("%w involving steps: %v", domain.ErrDependencyCycle, cycle),
		}
	}

	return result, nil
}
