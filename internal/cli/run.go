package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/esdeploy/internal/cli/render"
	"github.com/trebuchet-org/esdeploy/internal/usecase"
)

// NewRunCmd creates the run command
func NewRunCmd() *cobra.Command {
	var (
		file   string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "run [standard|nft]",
		Short: "Run a deployment pipeline",
		Long: `Run a deployment pipeline in dependency order.

The built-in "standard" pipeline deploys the vault and the order book behind
proxies and registers the order book with the vault. The built-in "nft"
pipeline deploys the test NFT and mints token 10 to the sender.

A custom pipeline can be read from a YAML file with --file. Steps reference
the addresses of earlier steps as ${Step.address} and the sender as ${signer}.
Every local precondition is checked before the first transaction; execution
stops at the first failing step.`,
		Example: `  # Deploy and wire the protocol
  esdeploy run

  # Show the execution order without broadcasting
  esdeploy run nft --dry-run

  # Run a custom pipeline
  esdeploy run --file pipelines/testnet.yaml`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{usecase.PipelineStandard, usecase.PipelineNFT},
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			params := usecase.RunPipelineParams{
				File:   file,
				DryRun: dryRun,
			}
			if len(args) > 0 {
				params.Builtin = args[0]
			}

			result, err := app.RunPipeline.Run(cmd.Context(), params)
			if result == nil || (err != nil && len(result.Steps) == 0) {
				return err
			}

			// On failure the steps completed so far are still shown
			renderer := render.NewPipelineRenderer(cmd.OutOrStdout(), app.Config.JSON)
			if rerr := renderer.Render(result); rerr != nil && err == nil {
				return rerr
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Pipeline YAML file")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the execution plan without broadcasting")

	return cmd
}
