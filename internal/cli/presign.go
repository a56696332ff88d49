package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/xfactory/internal/cli/render"
	"github.com/trebuchet-org/xfactory/internal/usecase"
)

// NewPresignCmd creates the presign command
func NewPresignCmd() *cobra.Command {
	var params usecase.PresignParams

	cmd := &cobra.Command{
		Use:   "presign",
		Short: "Sign the replayable factory deployment transaction",
		Long: `Sign the factory's deployment transaction with the deployer key. The
transaction is a legacy contract creation with nonce 0 and no chain ID, so
anyone can broadcast it on any chain and the factory lands at the same
address everywhere.

The key is read from --private-key, [presign].private_key in xfactory.toml,
or XFACTORY_PRIVATE_KEY. Use broadcast to send it.`,
		Example: `  XFACTORY_PRIVATE_KEY=0x... xfactory presign
  xfactory presign --gas-price 50 --output ./out --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			tx, err := app.PresignDeployment.Run(cmd.Context(), params)
			if err != nil {
				return err
			}

			if app.Config.JSON {
				return render.WriteJSON(cmd.OutOrStdout(), tx)
			}
			return render.NewPresignRenderer(cmd.OutOrStdout()).Render(tx)
		},
	}

	cmd.Flags().StringVar(&params.PrivateKey, "private-key", "", "Deployer private key as hex")
	cmd.Flags().StringVarP(&params.OutputDir, "output", "o", "", "Directory for the signed transaction")
	cmd.Flags().Uint64Var(&params.GasLimit, "gas-limit", 0, "Gas limit (default 3000000)")
	cmd.Flags().Uint64Var(&params.GasPriceGwei, "gas-price", 0, "Gas price in gwei (default 100)")
	cmd.Flags().BoolVarP(&params.Force, "force", "f", false, "Overwrite an existing signed transaction")
	return cmd
}
