package cli

import (
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/xfactory/internal/cli/render"
	"github.com/trebuchet-org/xfactory/internal/domain"
	"github.com/trebuchet-org/xfactory/internal/usecase"
)

// predictFlags are shared by the predict subcommands
type predictFlags struct {
	chainID  uint64
	caller   string
	deployer string
	salt     string
	initCode string
	raw      bool
}

// NewPredictCmd creates the predict command group
func NewPredictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Compute factory deployment addresses",
		Long: `Compute where the factory deploys a contract without deploying it.

Salts are guarded the same way the factory guards them: a salt whose first 20
bytes name a sender can only be used by that sender, and a salt with the
protection byte set derives a different address on every chain.`,
	}

	cmd.AddCommand(
		newPredictCreateCmd(),
		newPredictSaltedCmd(usecase.PredictCreate2, "Address of a salt-based deployment", true),
		newPredictSaltedCmd(usecase.PredictCreate3, "Address of a relay-indirected deployment, independent of the payload", false),
		newPredictSaltedCmd(usecase.PredictSalt, "Decode a salt and show the salt the factory derives with", false),
		newPredictNextCmd(),
	)
	return cmd
}

func newPredictCreateCmd() *cobra.Command {
	var flags predictFlags

	cmd := &cobra.Command{
		Use:   "create <nonce>",
		Short: "Address of a nonce-based deployment",
		Args:  cobra.ExactArgs(1),
		Example: `  # Address of the factory's first deployment
  xfactory predict create 1

  # Address an account creates at nonce 0
  xfactory predict create 0 --deployer 0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266`,
		RunE: func(cmd *cobra.Command, args []string) error {
			nonce, ok := new(big.Int).SetString(args[0], 0)
			if !ok {
				return fmt.Errorf("invalid nonce %q", args[0])
			}
			params, err := flags.params(usecase.PredictCreate)
			if err != nil {
				return err
			}
			params.Nonce = nonce
			return runPredict(cmd, params)
		},
	}
	flags.register(cmd, false)
	return cmd
}

func newPredictSaltedCmd(kind usecase.PredictKind, short string, needsInitCode bool) *cobra.Command {
	var flags predictFlags

	cmd := &cobra.Command{
		Use:   string(kind) + " <salt>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.salt = args[0]
			params, err := flags.params(kind)
			if err != nil {
				return err
			}
			if needsInitCode && len(params.InitCode) == 0 {
				return fmt.Errorf("--init-code is required")
			}
			return runPredict(cmd, params)
		},
	}
	if needsInitCode {
		cmd.Example = `  xfactory predict create2 0x0000000000000000000000000000000000000000000000000000000000000001 \
    --init-code 0x600060005360016000f3`
	}
	flags.register(cmd, needsInitCode)
	return cmd
}

func newPredictNextCmd() *cobra.Command {
	var flags predictFlags

	cmd := &cobra.Command{
		Use:   "next",
		Short: "Address of the next nonce-based deployment",
		Long: `Address of the next nonce-based deployment. With --network the nonce is
read from the network's RPC endpoint, otherwise from a fresh simulated chain.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := flags.params(usecase.PredictNext)
			if err != nil {
				return err
			}
			return runPredict(cmd, params)
		},
	}
	cmd.Flags().StringVar(&flags.deployer, "deployer", "", "Creating account (defaults to the factory)")
	return cmd
}

func (f *predictFlags) register(cmd *cobra.Command, initCode bool) {
	cmd.Flags().Uint64Var(&f.chainID, "chain", 0, "Chain ID to predict for (defaults to --network, then 1)")
	cmd.Flags().StringVar(&f.deployer, "deployer", "", "Creating account (defaults to the factory)")
	if cmd.Name() == string(usecase.PredictCreate) {
		return
	}
	cmd.Flags().StringVar(&f.caller, "caller", "", "Account submitting the salt (defaults to the salt's reserved sender)")
	cmd.Flags().BoolVar(&f.raw, "raw", false, "Derive with the salt as given, skipping the salt guard")
	if initCode {
		cmd.Flags().StringVar(&f.initCode, "init-code", "", "Creation payload as 0x hex or @path to a file holding hex")
	}
}

func (f *predictFlags) params(kind usecase.PredictKind) (usecase.PredictParams, error) {
	params := usecase.PredictParams{
		Kind:    kind,
		ChainID: f.chainID,
		Raw:     f.raw,
	}

	if f.salt != "" {
		salt, err := parseSalt(f.salt)
		if err != nil {
			return params, err
		}
		params.Salt = salt
	}
	if f.caller != "" {
		caller, err := parseAddress("caller", f.caller)
		if err != nil {
			return params, err
		}
		params.Caller = &caller
	}
	if f.deployer != "" {
		deployer, err := parseAddress("deployer", f.deployer)
		if err != nil {
			return params, err
		}
		params.Deployer = &deployer
	}
	if f.initCode != "" {
		code, err := readHexArg(f.initCode)
		if err != nil {
			return params, fmt.Errorf("init code: %w", err)
		}
		params.InitCode = code
	}
	return params, nil
}

func runPredict(cmd *cobra.Command, params usecase.PredictParams) error {
	app, err := getApp(cmd)
	if err != nil {
		return err
	}

	result, err := app.PredictAddress.Run(cmd.Context(), params)
	if err != nil {
		return err
	}

	if app.Config.JSON {
		return render.WriteJSON(cmd.OutOrStdout(), result)
	}
	return render.NewPredictRenderer(cmd.OutOrStdout()).Render(result)
}

// parseSalt accepts exactly 32 bytes of 0x hex
func parseSalt(s string) (common.Hash, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return common.Hash{}, fmt.Errorf("salt %q: %w", s, err)
	}
	if len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("salt must be %d bytes, got %d", common.HashLength, len(b))
	}
	return common.BytesToHash(b), nil
}

func parseAddress(name, s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%s %q: %w", name, s, domain.ErrInvalidAddress)
	}
	return common.HexToAddress(s), nil
}

// readHexArg decodes 0x hex, or the contents of a file when prefixed with @
func readHexArg(s string) ([]byte, error) {
	if path, ok := strings.CutPrefix(s, "@"); ok {
		data, err := os.ReadFile(path) //nolint:gosec // user supplied path
		if err != nil {
			return nil, err
		}
		s = strings.TrimSpace(string(data))
	}
	return hexutil.Decode(s)
}
