package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/esdeploy/internal/cli/render"
	"github.com/trebuchet-org/esdeploy/internal/domain"
)

// NewWireCmd creates the wire command
func NewWireCmd() *cobra.Command {
	var verify bool

	cmd := &cobra.Command{
		Use:   "wire [vault] [order-book]",
		Short: "Register the order book with the vault",
		Long: `Call setOrderBook on the vault so the order book may move escrowed assets.

Both arguments accept a hex address or an address book label and default to
the vault and order book contract names from esdeploy.toml.
With --verify the vault's orderBook() is read back after confirmation.`,
		Example: `  esdeploy wire
  esdeploy wire EasySwapVault 0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512 --verify`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			contracts := app.Config.ProjectConfig.Contracts

			vaultRef, orderBookRef := contracts.Vault, contracts.OrderBook
			if len(args) > 0 {
				vaultRef = args[0]
			}
			if len(args) > 1 {
				orderBookRef = args[1]
			}

			vault, err := app.Orchestrator.Attach(ctx, contracts.Vault, vaultRef)
			if err != nil {
				return err
			}
			orderBook, err := app.Orchestrator.ResolveAddress(ctx, orderBookRef)
			if err != nil {
				return err
			}

			tx, err := app.Orchestrator.WireContracts(ctx, vault, orderBook)
			if err != nil {
				return err
			}

			if verify {
				got, err := app.Orchestrator.OrderBookOf(ctx, vault)
				if err != nil {
					return err
				}
				if got != orderBook {
					return &domain.ChainError{
						Op:     "verify wiring",
						TxHash: tx.Hash.Hex(),
						Err:    fmt.Errorf("vault reports order book %s, expected %s", got.Hex(), orderBook.Hex()),
					}
				}
			}

			renderer := render.NewTransactionRenderer(cmd.OutOrStdout(), app.Config.Network, app.Config.JSON)
			return renderer.Render(tx)
		},
	}

	cmd.Flags().BoolVar(&verify, "verify", false, "Read the vault's order book back after wiring")

	return cmd
}
