package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/xfactory/internal/cli/render"
	"github.com/trebuchet-org/xfactory/internal/usecase"
)

// NewDeploymentsCmd creates the deployments command group
func NewDeploymentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "deployments",
		Aliases: []string{"deps"},
		Short:   "Manage the registry of networks the factory is live on",
	}

	listCmd := newDeploymentsListCmd()
	cmd.AddCommand(listCmd, newDeploymentsAddCmd())

	// Running the group lists
	cmd.Args = listCmd.Args
	cmd.RunE = listCmd.RunE
	cmd.Flags().AddFlagSet(listCmd.Flags())
	return cmd
}

func newDeploymentsListCmd() *cobra.Command {
	var (
		search     string
		sortBy     string
		descending bool
	)

	cmd := &cobra.Command{
		Use:     "list [search]",
		Aliases: []string{"ls"},
		Short:   "List registered factory deployments",
		Long: `List every network the factory is registered on.

The optional search argument fuzzy-matches network names and chain IDs.`,
		Example: `  # All networks sorted by chain ID, highest first
  xfactory deployments list --sort chain --desc

  # Networks matching "sepolia"
  xfactory deployments list sepol`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			field, err := usecase.ParseSortField(sortBy)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				search = args[0]
			}

			result, err := app.ListDeployments.Run(cmd.Context(), usecase.ListDeploymentsParams{
				Search:     search,
				SortBy:     field,
				Descending: descending,
			})
			if err != nil {
				return err
			}

			if app.Config.JSON {
				return render.WriteJSON(cmd.OutOrStdout(), result.Deployments)
			}
			return render.NewDeploymentsRenderer(cmd.OutOrStdout()).Render(result)
		},
	}

	cmd.Flags().StringVar(&sortBy, "sort", "name", "Sort by name or chain")
	cmd.Flags().BoolVar(&descending, "desc", false, "Reverse the sort order")
	return cmd
}

func newDeploymentsAddCmd() *cobra.Command {
	var params usecase.AddDeploymentParams

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register the factory on a network",
		Long: `Register the factory on a network. Name and explorer URL default to the
network's entry in xfactory.toml. With --verify the factory code is checked
through the network's RPC endpoint before the entry is written.

Entries are append-only: a chain can be registered once.`,
		Example: `  xfactory deployments add --chain-id 10 --verify
  xfactory deployments add --chain-id 8453 --name Base --url https://basescan.org/address/0xba5Ed099633D3B313e4D5F7bdc1305d3c28ba5Ed`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			if params.ChainID == 0 && app.Config.Network != nil {
				params.ChainID = app.Config.Network.ChainID
			}

			dep, err := app.AddDeployment.Run(cmd.Context(), params)
			if err != nil {
				return err
			}

			if app.Config.JSON {
				return render.WriteJSON(cmd.OutOrStdout(), dep)
			}
			return render.NewDeploymentsRenderer(cmd.OutOrStdout()).RenderAdded(dep)
		},
	}

	cmd.Flags().Uint64Var(&params.ChainID, "chain-id", 0, "Chain ID (defaults to --network)")
	cmd.Flags().StringVar(&params.Name, "name", "", "Network name")
	cmd.Flags().StringVar(&params.URL, "url", "", "Explorer URL of the factory")
	cmd.Flags().StringVar(&params.Address, "address", "", "Factory address (defaults to the configured factory)")
	cmd.Flags().BoolVar(&params.Verify, "verify", false, "Check the factory code on-chain first")
	return cmd
}
