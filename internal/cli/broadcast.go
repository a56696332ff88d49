package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/xfactory/internal/cli/render"
	"github.com/trebuchet-org/xfactory/internal/config"
	"github.com/trebuchet-org/xfactory/internal/usecase"
)

// NewBroadcastCmd creates the broadcast command
func NewBroadcastCmd() *cobra.Command {
	var params usecase.BroadcastParams

	cmd := &cobra.Command{
		Use:   "broadcast <network...>",
		Short: "Broadcast the presigned factory deployment",
		Long: `Send the transaction written by presign, unmodified, to each network.
Networks are named or given by chain ID and need an RPC URL in xfactory.toml.

A network where the factory already has code is skipped. The receipt, or the
error, is written under <input>/broadcasts/<chain id>/.`,
		Example: `  xfactory broadcast sepolia base-sepolia
  xfactory broadcast 10 --register --yes`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			params.ChainIDs, err = config.ParseChainIDs(app.Config.Networks, args)
			if err != nil {
				return err
			}

			result, err := app.BroadcastDeployment.Run(cmd.Context(), params)
			if err != nil {
				return err
			}

			if app.Config.JSON {
				if err := render.WriteJSON(cmd.OutOrStdout(), result); err != nil {
					return err
				}
			} else if err := render.NewBroadcastRenderer(cmd.OutOrStdout()).Render(result); err != nil {
				return err
			}

			if !result.Succeeded() {
				return fmt.Errorf("broadcast failed on some networks")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&params.InputDir, "input", "i", "", "Directory holding the signed transaction (default: presign output)")
	cmd.Flags().BoolVar(&params.Register, "register", false, "Add every network the factory is live on to the registry")
	cmd.Flags().BoolVarP(&params.Force, "yes", "y", false, "Broadcast without asking")
	return cmd
}
