package fs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"

	"github.com/trebuchet-org/treb-genesis/internal/domain/config"
	"github.com/trebuchet-org/treb-genesis/internal/domain/models"
	"github.com/trebuchet-org/treb-genesis/internal/usecase"
)

// ReportStoreAdapter writes run reports under <data dir>/reports
type ReportStoreAdapter struct {
	dir  string
	salt string
	now  func() time.Time
}

// NewReportStoreAdapter creates a new ReportStoreAdapter
func NewReportStoreAdapter(cfg *config.RuntimeConfig) *ReportStoreAdapter {
	return &ReportStoreAdapter{
		dir:  filepath.Join(cfg.DataDir, "reports"),
		salt: cfg.Salt.Hex(),
		now:  time.Now,
	}
}

// Report is the on-disk form of a network run
type Report struct {
	Plan        string         `json:"plan"`
	Network     string         `json:"network"`
	ChainID     uint64         `json:"chainId"`
	Salt        string         `json:"salt"`
	Deployer    common.Address `json:"deployer"`
	TxCount     int            `json:"txCount"`
	Error       string         `json:"error,omitempty"`
	Steps       []ReportStep   `json:"steps"`
	GeneratedAt time.Time      `json:"generatedAt"`
}

// ReportStep is one contract in a Report
type ReportStep struct {
	*models.StepResult
	Error string `json:"error,omitempty"`
}

// WriteReport writes the report and returns its path
func (s *ReportStoreAdapter) WriteReport(_ context.Context, plan string, result *usecase.NetworkRunResult) (string, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create reports directory: %w", err)
	}

	report := Report{
		Plan:     plan,
		Network:  result.Network,
		ChainID:  result.ChainID,
		Salt:     s.salt,
		Deployer: result.Deployer,
		TxCount:  result.TxCount,
		Steps: lo.Map(result.Steps, func(r *models.StepResult, _ int) ReportStep {
			step := ReportStep{StepResult: r}
			if r.Err != nil {
				step.Error = r.Err.Error()
			}
			return step
		}),
		GeneratedAt: s.now().UTC(),
	}
	if result.Err != nil {
		report.Error = result.Err.Error()
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	path := filepath.Join(s.dir, fmt.Sprintf("%s-%s.json", filepath.Base(plan), result.Network))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}

	return path, nil
}

// Ensure ReportStoreAdapter implements ReportWriter
var _ usecase.ReportWriter = (*ReportStoreAdapter)(nil)
