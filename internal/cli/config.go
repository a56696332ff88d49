package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/xfactory/internal/cli/render"
	"github.com/trebuchet-org/xfactory/internal/usecase"
)

// NewConfigCmd creates the config command
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change local defaults",
		Long: `Show or change the defaults stored in .xfactory/config.local.json.

Available keys:
  network (net)  default network for commands that take --network
  timeout        overall command timeout, e.g. 2m`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			result, err := app.ShowConfig.Run(cmd.Context())
			if err != nil {
				return err
			}

			if app.Config.JSON {
				return render.WriteJSON(cmd.OutOrStdout(), result)
			}
			return render.NewConfigRenderer(cmd.OutOrStdout()).Render(result)
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Set a local default",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				app, err := getApp(cmd)
				if err != nil {
					return err
				}

				result, err := app.SetConfig.Run(cmd.Context(), usecase.SetConfigParams{Key: args[0], Value: args[1]})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), render.FormatSuccess(fmt.Sprintf("Set %s to %s", result.Key, result.Value)))
				return nil
			},
		},
		&cobra.Command{
			Use:   "remove <key>",
			Short: "Clear a local default",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				app, err := getApp(cmd)
				if err != nil {
					return err
				}

				result, err := app.RemoveConfig.Run(cmd.Context(), usecase.RemoveConfigParams{Key: args[0]})
				if err != nil {
					return err
				}
				if result.RemovedValue == "" {
					fmt.Fprintln(cmd.OutOrStdout(), render.FormatWarning(fmt.Sprintf("%s was not set", result.Key)))
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), render.FormatSuccess(fmt.Sprintf("Removed %s (was %s)", result.Key, result.RemovedValue)))
				return nil
			},
		},
	)

	return cmd
}
