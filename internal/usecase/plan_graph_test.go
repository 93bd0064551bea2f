package usecase_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trebuchet-org/treb-genesis/internal/domain"
	"github.com/trebuchet-org/treb-genesis/internal/domain/models"
	"github.com/trebuchet-org/treb-genesis/internal/usecase"
)

func step(name string, deps ...string) *models.PlanStep {
	return &models.PlanStep{Name: name, DependsOn: deps, Build: emptyArgs}
}

func TestOrderSteps(t *testing.T) {
	tests := []struct {
		name    string
		steps   []*models.PlanStep
		want    []string
		wantErr error
		errMsg  string
	}{
		{
			name:  "already ordered",
			steps: []*models.PlanStep{step("A"), step("B", "A"), step("C", "B")},
			want:  []string{"A", "B", "C"},
		},
		{
			name:  "reverse declaration",
			steps: []*models.PlanStep{step("C", "B"), step("B", "A"), step("A")},
			want:  []string{"A", "B", "C"},
		},
		{
			name:  "independent steps keep declaration order",
			steps: []*models.PlanStep{step("Z"), step("M"), step("A")},
			want:  []string{"Z", "M", "A"},
		},
		{
			name:  "ties broken by declaration order",
			steps: []*models.PlanStep{step("Drop", "Fee", "Renderer"), step("Renderer"), step("Fee")},
			want:  []string{"Renderer", "Fee", "Drop"},
		},
		{
			name:  "released step waits behind earlier declared ready step",
			steps: []*models.PlanStep{step("A"), step("C"), step("B", "A")},
			want:  []string{"A", "C", "B"},
		},
		{
			name:  "duplicate dependency",
			steps: []*models.PlanStep{step("A"), step("B", "A", "A")},
			want:  []string{"A", "B"},
		},
		{
			name:    "cycle",
			steps:   []*models.PlanStep{step("A", "C"), step("B", "A"), step("C", "B"), step("D")},
			wantErr: domain.ErrDependencyCycle,
			errMsg:  "[A B C]",
		},
		{
			name:   "self dependency",
			steps:  []*models.PlanStep{step("A", "A")},
			errMsg: "cannot depend on itself",
		},
		{
			name:   "unknown dependency",
			steps:  []*models.PlanStep{step("A", "Ghost")},
			errMsg: "non-existent step 'Ghost'",
		},
		{
			name:   "duplicate step",
			steps:  []*models.PlanStep{step("A"), step("A")},
			errMsg: "declared twice",
		},
		{
			name:   "empty plan",
			errMsg: "no steps",
		},
		{
			name:   "missing builder",
			steps:  []*models.PlanStep{{Name: "A"}},
			errMsg: "no init-code builder",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ordered, err := usecase.OrderSteps(&models.Plan{Name: "test", Steps: tt.steps})
			if tt.errMsg != "" || tt.wantErr != nil {
				require.Error(t, err)
				var cfgErr *domain.ConfigurationError
				require.ErrorAs(t, err, &cfgErr)
				assert.Equal(t, "plan", cfgErr.Field)
				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
				}
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)

			names := make([]string, len(ordered))
			for i, s := range ordered {
				names[i] = s.Name
			}
			assert.Equal(t, tt.want, names)
		})
	}

	t.Run("nil plan", func(t *testing.T) {
		_, err := usecase.OrderSteps(nil)
		assert.Error(t, err)
	})
}
