package plans

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/trebuchet-org/treb-genesis/internal/domain"
	"github.com/trebuchet-org/treb-genesis/internal/domain/config"
	"github.com/trebuchet-org/treb-genesis/internal/domain/models"
	"github.com/trebuchet-org/treb-genesis/internal/usecase"
)

// PlansDir holds project plan files, relative to the project root
const PlansDir = "plans"

const builtinSource = "built-in"

// Loader resolves a plan reference to a built-in plan or a YAML plan file
type Loader struct {
	root    string
	builtin map[string]func() *models.Plan
	log     *slog.Logger
}

// NewLoader creates a new plan loader
func NewLoader(cfg *config.RuntimeConfig, log *slog.Logger) *Loader {
	drop := cfg.Drop
	return &Loader{
		root: cfg.ProjectRoot,
		builtin: map[string]func() *models.Plan{
			DropPlanName: func() *models.Plan { return DropPlan(drop) },
		},
		log: log.With("component", "PlanLoader"),
	}
}

// Load returns the plan named by ref: a built-in plan name, or a path to a
// YAML file (absolute or relative to the project root)
func (l *Loader) Load(ctx context.Context, ref string) (*models.Plan, error) {
	if ref == "" {
		return nil, domain.NewConfigurationError("plan", "no plan selected")
	}
	if build, ok := l.builtin[ref]; ok {
		l.log.Debug("using built-in plan", "plan", ref)
		return build(), nil
	}

	path := ref
	if !filepath.IsAbs(path) {
		path = filepath.Join(l.root, path)
	}
	if _, err := os.Stat(path); err != nil {
		if candidate := filepath.Join(l.root, PlansDir, ref+".yaml"); fileExists(candidate) {
			path = candidate
		} else {
			return nil, domain.NewConfigurationError("plan", "unknown plan %q; available: %s",
				ref, strings.Join(l.names(ctx), ", "))
		}
	}

	l.log.Debug("loading plan file", "path", path)
	return LoadPlanFile(path)
}

// List returns the built-in plans followed by the plan files of the project
func (l *Loader) List(ctx context.Context) []usecase.PlanInfo {
	keys := lo.Keys(l.builtin)
	sort.Strings(keys)

	infos := lo.Map(keys, func(name string, _ int) usecase.PlanInfo {
		p := l.builtin[name]()
		return usecase.PlanInfo{Name: p.Name, Description: p.Description, Source: builtinSource}
	})

	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, _ := filepath.Glob(filepath.Join(l.root, PlansDir, pattern))
		sort.Strings(matches)
		for _, path := range matches {
			rel, err := filepath.Rel(l.root, path)
			if err != nil {
				rel = path
			}
			plan, err := LoadPlanFile(path)
			if err != nil {
				l.log.Warn("skipping invalid plan file", "path", rel, "error", err)
				continue
			}
			infos = append(infos, usecase.PlanInfo{Name: plan.Name, Description: plan.Description, Source: rel})
		}
	}
	return infos
}

func (l *Loader) names(ctx context.Context) []string {
	return lo.Map(l.List(ctx), func(p usecase.PlanInfo, _ int) string {
		if p.Source == builtinSource {
			return p.Name
		}
		return p.Source
	})
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

var _ usecase.PlanLoader = (*Loader)(nil)
