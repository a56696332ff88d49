package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/xfactory/internal/cli/render"
	"github.com/trebuchet-org/xfactory/internal/usecase"
)

// NewInterfaceCmd creates the interface command
func NewInterfaceCmd() *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:     "interface",
		Aliases: []string{"abi"},
		Short:   "Print the factory interface for contracts and clients",
		Long: `Print the factory interface as a Solidity interface, an ethers.js
human-readable ABI, a viem "as const" ABI, or the raw ABI as JSON or YAML.`,
		Example: `  xfactory interface > IXFactory.sol
  xfactory interface --format viem --output src/abi`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			f, err := usecase.ParseInterfaceFormat(format)
			if err != nil {
				return err
			}

			if info, err := os.Stat(output); err == nil && info.IsDir() {
				output = filepath.Join(output, f.FileName())
			}

			result, err := app.ExportInterface.Run(cmd.Context(), usecase.ExportInterfaceParams{
				Format: f,
				Output: output,
			})
			if err != nil {
				return err
			}

			if result.Path != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), render.FormatSuccess(fmt.Sprintf("Wrote %s interface to %s", result.Format, result.Path)))
				return nil
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), result.Content)
			return err
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "solidity", "Output format: solidity, ethers, viem, json or yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file, or into this directory under the conventional name")
	return cmd
}
