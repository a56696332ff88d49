package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/xfactory/internal/adapters/progress"
	"github.com/trebuchet-org/xfactory/internal/app"
	"github.com/trebuchet-org/xfactory/internal/cli/render"
	"github.com/trebuchet-org/xfactory/internal/config"
	domainconfig "github.com/trebuchet-org/xfactory/internal/domain/config"
	"github.com/trebuchet-org/xfactory/internal/usecase"
)

// contextKey is the type for context keys
type contextKey string

const (
	// appKey is the context key for the app instance
	appKey contextKey = "app"
)

// commands that run without an initialized app
var standaloneCommands = map[string]bool{
	"version":    true,
	"help":       true,
	"completion": true,
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "xfactory",
		Short: "Deterministic contract deployment factory toolkit",
		Long: `xfactory predicts, simulates and ships deployments through a
deterministic deployment factory. Contracts deployed with the same salt and
payload land at the same address on every chain the factory is live on.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if standaloneCommands[cmd.Name()] {
				return nil
			}

			// Find project root
			projectRoot, err := config.FindProjectRoot()
			if err != nil {
				return err
			}

			// Set up viper
			v := config.SetupViper(projectRoot, cmd)

			appInstance, err := app.InitApp(v, newProgressSink(v.GetBool("json") || v.GetBool("non_interactive")))
			if err != nil {
				return fmt.Errorf("failed to initialize app: %w", err)
			}

			if shouldShowSetupHint(cmd.Name(), appInstance.Config) {
				fmt.Fprintln(cmd.ErrOrStderr(), render.FormatWarning(
					fmt.Sprintf("No %s found, using the default factory and no networks", config.ProjectFile)))
			}

			// Store app in context
			ctx := context.WithValue(cmd.Context(), appKey, appInstance)

			// Add timeout if configured
			if appInstance.Config.Timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, appInstance.Config.Timeout)
				cmd.PostRun = func(cmd *cobra.Command, args []string) {
					cancel()
				}
			}

			cmd.SetContext(ctx)
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug output")
	rootCmd.PersistentFlags().Bool("non-interactive", false, "Disable interactive prompts")
	rootCmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringP("network", "n", "", "Network to use (name or chain ID from xfactory.toml)")

	// Add command groups
	rootCmd.AddGroup(&cobra.Group{
		ID:    "main",
		Title: "Main Commands",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "management",
		Title: "Management Commands",
	})

	// Main commands
	for _, cmd := range []*cobra.Command{
		NewPredictCmd(),
		NewSimulateCmd(),
		NewPresignCmd(),
		NewBroadcastCmd(),
		NewInterfaceCmd(),
	} {
		cmd.GroupID = "main"
		rootCmd.AddCommand(cmd)
	}

	// Management commands
	for _, cmd := range []*cobra.Command{
		NewDeploymentsCmd(),
		NewCheckCmd(),
		NewNetworksCmd(),
		NewConfigCmd(),
	} {
		cmd.GroupID = "management"
		rootCmd.AddCommand(cmd)
	}

	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// Execute runs the root command and reports errors the way the renderers do
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, render.FormatError(err))
		return 1
	}
	return 0
}

// newProgressSink returns a spinner for interactive terminals
func newProgressSink(quiet bool) usecase.ProgressSink {
	if quiet {
		return progress.NewNopSink()
	}
	return progress.NewSpinnerProgressReporter()
}

// shouldShowSetupHint reports whether to point out the missing project file.
// Commands that read networks are the ones that need it.
func shouldShowSetupHint(cmdName string, cfg *domainconfig.RuntimeConfig) bool {
	if cfg.ConfigSource != "" || cfg.JSON {
		return false
	}
	switch cmdName {
	case "check", "networks", "add":
		return true
	default:
		return false
	}
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
