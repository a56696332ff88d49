package cli

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/xfactory/internal/cli/render"
	"github.com/trebuchet-org/xfactory/internal/config"
	"github.com/trebuchet-org/xfactory/internal/usecase"
)

// NewCheckCmd creates the check command
func NewCheckCmd() *cobra.Command {
	var interactive bool

	cmd := &cobra.Command{
		Use:   "check [network...]",
		Short: "Check that the factory is live on registered networks",
		Long: `Dial every registered network's RPC endpoint, confirm the chain ID, and
check that the factory has code. Networks are named or given by chain ID;
with none given every registered network is checked.

This command only reads chain state.`,
		Example: `  xfactory check
  xfactory check mainnet 8453
  xfactory check --select`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			var params usecase.CheckDeploymentsParams
			switch {
			case len(args) > 0:
				params.ChainIDs, err = config.ParseChainIDs(app.Config.Networks, args)
				if err != nil {
					return err
				}
			case interactive:
				if app.Config.NonInteractive {
					return fmt.Errorf("--select is not available in non-interactive mode")
				}
				listing, err := app.ListDeployments.Run(cmd.Context(), usecase.ListDeploymentsParams{SortBy: usecase.SortByName})
				if err != nil {
					return err
				}
				params.ChainIDs, err = SelectNetworks(listing.Deployments, "Select networks to check")
				if err != nil {
					return err
				}
			}

			result, err := app.CheckDeployments.Run(cmd.Context(), params)
			if err != nil {
				return err
			}

			if app.Config.JSON {
				if err := render.WriteJSON(cmd.OutOrStdout(), result.Checks); err != nil {
					return err
				}
			} else if err := render.NewCheckRenderer(cmd.OutOrStdout()).Render(result); err != nil {
				return err
			}

			if !result.Healthy() {
				return fmt.Errorf("factory check failed on %d network(s)", countUnhealthy(result))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&interactive, "select", false, "Pick networks interactively")
	return cmd
}

func countUnhealthy(result *usecase.CheckDeploymentsResult) int {
	return lo.CountBy(result.Checks, func(check usecase.NetworkCheck) bool {
		return check.Status != usecase.CheckStatusDeployed
	})
}
