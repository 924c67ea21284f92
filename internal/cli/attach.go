package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/esdeploy/internal/cli/render"
)

// NewAttachCmd creates the attach command
func NewAttachCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "attach <contract> <address|label>",
		Short: "Bind a contract ABI to an existing address",
		Long: `Bind a contract ABI to an address that is already deployed.

The address may be given in hex or as a label from the address book of the
selected network. Nothing is sent to the chain unless --check-code is set, in
which case the address must hold contract code.`,
		Example: `  esdeploy attach EasySwapVault 0x5FbDB2315678afecb367f032d93F642f64180aa3
  esdeploy attach EasySwapVault EasySwapVault --check-code`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			handle, err := app.Orchestrator.Attach(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}

			if app.Config.JSON {
				return render.WriteJSON(cmd.OutOrStdout(), map[string]string{
					"contract": handle.Name,
					"address":  handle.Address.Hex(),
				})
			}

			fmt.Fprintln(cmd.OutOrStdout(), render.FormatSuccess(fmt.Sprintf("Attached %s at %s", handle.Name, handle.Address.Hex())))
			return nil
		},
	}
}
