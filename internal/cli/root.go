package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/trebuchet-org/treb-genesis/internal/adapters/progress"
	"github.com/trebuchet-org/treb-genesis/internal/app"
	"github.com/trebuchet-org/treb-genesis/internal/config"
	"github.com/trebuchet-org/treb-genesis/internal/usecase"
)

// contextKey is the type for context keys
type contextKey string

const (
	// appKey is the context key for the app instance
	appKey contextKey = "app"
)

// skipsApp reports commands that run without a project
func skipsApp(name string) bool {
	return name == "version" || name == "help" || name == "completion"
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "treb-genesis",
		Short: "Deterministic CREATE2 deployments through a genesis factory",
		Long: `treb-genesis deploys a plan of contracts through a deterministic CREATE2
factory so that every contract lands at the same address on every network.

Contracts already present at their derived address are skipped, which makes
re-running a plan after a failure safe.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if skipsApp(cmd.Name()) {
				return nil
			}

			projectRoot, err := config.FindProjectRoot()
			if err != nil {
				return err
			}

			v := config.SetupViper(projectRoot, cmd)

			sink := newProgressSink(v)
			appInstance, err := app.InitApp(v, sink)
			if err != nil {
				return fmt.Errorf("failed to initialize app: %w", err)
			}

			ctx := context.WithValue(cmd.Context(), appKey, appInstance)
			ctx = context.WithValue(ctx, sinkKey, sink)
			cmd.SetContext(ctx)

			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if s, ok := cmd.Context().Value(sinkKey).(*progress.SpinnerSink); ok {
				s.Stop()
			}
		},
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug output")
	rootCmd.PersistentFlags().Bool("non-interactive", false, "Disable interactive prompts")
	rootCmd.PersistentFlags().Bool("json", false, "Output results as JSON")
	rootCmd.PersistentFlags().StringP("network", "n", "", "Primary network (e.g., sepolia)")
	rootCmd.PersistentFlags().String("companion", "", "Companion network that mirrors the primary")
	rootCmd.PersistentFlags().StringP("plan", "p", "", "Built-in plan name or path to a YAML plan")
	rootCmd.PersistentFlags().String("salt", "", "CREATE2 salt (0x-prefixed 32 bytes or a decimal integer)")
	rootCmd.PersistentFlags().String("artifacts", "", "Compiled artifacts directory")
	rootCmd.PersistentFlags().Bool("cold-storage", false, "Sign through the configured cold storage service")
	rootCmd.PersistentFlags().Duration("timeout", 10*time.Minute, "How long to wait for each deployment to be confirmed")

	rootCmd.AddGroup(&cobra.Group{
		ID:    "main",
		Title: "Main Commands",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "management",
		Title: "Management Commands",
	})

	deployCmd := NewDeployCmd()
	deployCmd.GroupID = "main"
	rootCmd.AddCommand(deployCmd)

	predictCmd := NewPredictCmd()
	predictCmd.GroupID = "main"
	rootCmd.AddCommand(predictCmd)

	statusCmd := NewStatusCmd()
	statusCmd.GroupID = "main"
	rootCmd.AddCommand(statusCmd)

	networksCmd := NewNetworksCmd()
	networksCmd.GroupID = "management"
	rootCmd.AddCommand(networksCmd)

	plansCmd := NewPlansCmd()
	plansCmd.GroupID = "management"
	rootCmd.AddCommand(plansCmd)

	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

const sinkKey contextKey = "progress"

// newProgressSink shows spinners on a terminal and stays silent otherwise
func newProgressSink(v *viper.Viper) usecase.ProgressSink {
	if v.GetBool("json") || color.NoColor {
		return progress.NewNopSink()
	}
	return progress.NewSpinnerSink()
}

// getApp retrieves the app instance from the command context
func getApp(cmd *cobra.Command) (*app.App, error) {
	appInstance := cmd.Context().Value(appKey)
	if appInstance == nil {
		return nil, fmt.Errorf("app not initialized")
	}

	app, ok := appInstance.(*app.App)
	if !ok {
		return nil, fmt.Errorf("invalid app instance")
	}

	return app, nil
}
