package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/esdeploy/internal/cli/render"
	"github.com/trebuchet-org/esdeploy/internal/domain/models"
	"github.com/trebuchet-org/esdeploy/internal/usecase"
)

// NewAddressesCmd creates the addresses command
func NewAddressesCmd() *cobra.Command {
	var (
		contractName string
		deployType   string
	)

	cmd := &cobra.Command{
		Use:     "addresses",
		Aliases: []string{"ls"},
		Short:   "List deployments recorded in the address book",
		Long: `List the deployments recorded in .esdeploy/addresses.json for the
selected network.`,
		Example: `  esdeploy addresses
  esdeploy addresses --contract EasySwapVault
  esdeploy addresses --type proxy --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			var deploymentType models.DeploymentType
			switch strings.ToLower(deployType) {
			case "":
			case "singleton":
				deploymentType = models.SingletonDeployment
			case "proxy":
				deploymentType = models.ProxyDeployment
			default:
				return fmt.Errorf("invalid deployment type: %s (valid: singleton, proxy)", deployType)
			}

			result, err := app.ListAddresses.Run(cmd.Context(), usecase.ListAddressesParams{
				ContractName: contractName,
				Type:         deploymentType,
			})
			if err != nil {
				return err
			}

			renderer := render.NewAddressesRenderer(cmd.OutOrStdout(), app.Config.JSON)
			return renderer.Render(result)
		},
	}

	cmd.Flags().StringVar(&contractName, "contract", "", "Filter by contract name")
	cmd.Flags().StringVar(&deployType, "type", "", "Filter by deployment type (singleton, proxy)")

	return cmd
}
