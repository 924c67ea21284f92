package cli

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/esdeploy/internal/cli/render"
	"github.com/trebuchet-org/esdeploy/internal/domain/models"
	"github.com/trebuchet-org/esdeploy/internal/usecase"
)

// NewDeployCmd creates the deploy command
func NewDeployCmd() *cobra.Command {
	var (
		proxy    bool
		label    string
		ctorArgs []string
		initArgs []string
	)

	cmd := &cobra.Command{
		Use:   "deploy <contract>",
		Short: "Deploy a contract, optionally behind an upgradeable proxy",
		Long: `Deploy a compiled contract by name.

With --proxy the implementation is deployed first, then a transparent proxy
whose constructor calls the initializer with the --init arguments. The
address recorded in the address book is the proxy address; the
implementation and admin are read back from the EIP-1967 slots.

Each invocation creates a new deployment and overwrites the address book
entry under the same label.`,
		Example: `  # Deploy the vault behind a proxy
  esdeploy deploy EasySwapVault --proxy

  # Deploy the order book behind a proxy, initialized against the vault
  esdeploy deploy EasySwapOrderBook --proxy --init 200,@EasySwapVault,EasySwapOrderBook,1

  # Deploy the test NFT
  esdeploy deploy Troll`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			params := usecase.DeployParams{
				Contract:        args[0],
				Label:           label,
				ConstructorArgs: stringsToArgs(ctorArgs),
				InitializerArgs: stringsToArgs(initArgs),
			}

			if params.ConstructorArgs, err = resolveLabels(cmd, params.ConstructorArgs); err != nil {
				return err
			}
			if params.InitializerArgs, err = resolveLabels(cmd, params.InitializerArgs); err != nil {
				return err
			}

			var record *models.DeploymentRecord
			if proxy {
				record, err = app.Orchestrator.DeployUpgradeable(cmd.Context(), params)
			} else {
				record, err = app.Orchestrator.Deploy(cmd.Context(), params)
			}
			if err != nil {
				return err
			}

			renderer := render.NewDeploymentRenderer(cmd.OutOrStdout(), app.Config.Network, app.Config.JSON)
			return renderer.Render(record)
		},
	}

	cmd.Flags().BoolVar(&proxy, "proxy", false, "Deploy behind a transparent upgradeable proxy")
	cmd.Flags().StringVar(&label, "label", "", "Address book key (defaults to the contract name)")
	cmd.Flags().StringSliceVar(&ctorArgs, "args", nil, "Constructor arguments, comma separated; @Label expands to a recorded address")
	cmd.Flags().StringSliceVar(&initArgs, "init", nil, "Initializer arguments for --proxy, comma separated")

	return cmd
}

func stringsToArgs(values []string) []any {
	if len(values) == 0 {
		return nil
	}
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// resolveLabels replaces @Label arguments with the recorded address of Label
func resolveLabels(cmd *cobra.Command, args []any) ([]any, error) {
	if len(args) == 0 {
		return args, nil
	}
	app, err := getApp(cmd)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(args))
	for i, arg := range args {
		out[i] = arg
		s, ok := arg.(string)
		if !ok || !strings.HasPrefix(s, "@") {
			continue
		}
		addr, err := app.Orchestrator.ResolveAddress(cmd.Context(), strings.TrimPrefix(s, "@"))
		if err != nil {
			return nil, err
		}
		out[i] = addr
	}
	return out, nil
}
