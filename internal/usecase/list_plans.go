package usecase

import (
	"context"

	"github.com/trebuchet-org/treb-genesis/internal/domain/config"
)

// ListPlansResult contains the available plans
type ListPlansResult struct {
	Plans   []PlanInfo
	Default string
}

// ListPlans lists built-in plans and plan files found in the project
type ListPlans struct {
	plans   PlanLoader
	current string
}

// NewListPlans creates a new ListPlans use case
func NewListPlans(cfg *config.RuntimeConfig, plans PlanLoader) *ListPlans {
	return &ListPlans{plans: plans, current: cfg.Plan}
}

// Run executes the use case
func (uc *ListPlans) Run(ctx context.Context) (*ListPlansResult, error) {
	return &ListPlansResult{
		Plans:   uc.plans.List(ctx),
		Default: uc.current,
	}, nil
}
