package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/xfactory/internal/cli/render"
	"github.com/trebuchet-org/xfactory/internal/config"
	"github.com/trebuchet-org/xfactory/internal/domain"
	"github.com/trebuchet-org/xfactory/internal/usecase"
)

// defaultSimulationCaller submits single-step simulations
const defaultSimulationCaller = "0x000000000000000000000000000000000000c0de"

// NewSimulateCmd creates the simulate command
func NewSimulateCmd() *cobra.Command {
	var (
		planPath string
		chains   []string
		step     domain.PlanStep
		fund     string
	)

	cmd := &cobra.Command{
		Use:   "simulate [plan.yaml]",
		Short: "Replay factory requests on simulated chains",
		Long: `Replay factory requests against fresh simulated chains that have the factory
installed at its canonical address, and compare the outcome per chain.

Either pass a YAML plan, describe a single request with --operation, or
submit an ABI encoded factory call with --calldata.`,
		Example: `  # Run a plan on the chains it lists
  xfactory simulate deploy.yaml

  # Same payload and salt on two chains
  xfactory simulate --operation deployCreate2 \
    --salt 0x0000000000000000000000000000000000000000000000000000000000000001 \
    --init-code 0x600060005360016000f3 --chain 1 --chain 10`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			if len(args) == 1 {
				planPath = args[0]
			}

			params := usecase.SimulateParams{PlanPath: planPath}
			if step.Operation != "" || step.Calldata != "" {
				if planPath != "" {
					return fmt.Errorf("--operation and --calldata cannot be combined with a plan file")
				}
				if step.Caller == "" {
					step.Caller = defaultSimulationCaller
				}
				params.Step = &step
				if fund != "" {
					params.Accounts = []domain.PlanAccount{{Address: step.Caller, Balance: fund}}
				}
			} else if planPath == "" {
				return fmt.Errorf("pass a plan file, --operation or --calldata")
			}

			if len(chains) > 0 {
				params.ChainIDs, err = config.ParseChainIDs(app.Config.Networks, chains)
				if err != nil {
					return err
				}
			}

			result, err := app.SimulateDeployment.Run(cmd.Context(), params)
			if err != nil {
				return err
			}

			if app.Config.JSON {
				return render.WriteJSON(cmd.OutOrStdout(), result)
			}
			return render.NewSimulationRenderer(cmd.OutOrStdout()).Render(result)
		},
	}

	cmd.Flags().StringVar(&planPath, "plan", "", "Simulation plan file")
	cmd.Flags().StringSliceVar(&chains, "chain", nil, "Chain ID or network name to simulate (repeatable)")
	cmd.Flags().StringVar(&step.Operation, "operation", "", "Factory operation, e.g. deployCreate2 or deployCreate3AndInit")
	cmd.Flags().StringVar(&step.Caller, "caller", "", "Account submitting the request")
	cmd.Flags().StringVar(&step.Value, "value", "", "Native value attached to the request, in wei")
	cmd.Flags().StringVar(&step.Salt, "salt", "", "32-byte salt as 0x hex")
	cmd.Flags().StringVar(&step.InitCode, "init-code", "", "Creation payload as 0x hex")
	cmd.Flags().StringVar(&step.InitCall, "init-call", "", "Initialisation calldata as 0x hex")
	cmd.Flags().StringVar(&step.ConstructorAmount, "constructor-amount", "", "Value forwarded to the constructor, in wei")
	cmd.Flags().StringVar(&step.InitCallAmount, "init-call-amount", "", "Value forwarded to the initialisation call, in wei")
	cmd.Flags().StringVar(&step.Refund, "refund", "", "Recipient of leftover balance")
	cmd.Flags().StringVar(&step.Implementation, "implementation", "", "Implementation cloned by the clone operations")
	cmd.Flags().StringVar(&step.Calldata, "calldata", "", "ABI encoded factory call, instead of --operation")
	cmd.Flags().StringVar(&fund, "fund", "", "Balance given to the caller on every chain, in wei")

	return cmd
}
