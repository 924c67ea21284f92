package cli

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/esdeploy/internal/cli/render"
	"github.com/trebuchet-org/esdeploy/internal/domain"
)

// NewMintCmd creates the mint command
func NewMintCmd() *cobra.Command {
	var (
		to     string
		id     string
		verify bool
	)

	cmd := &cobra.Command{
		Use:   "mint [token]",
		Short: "Mint a test NFT",
		Long: `Mint a test token on the NFT contract.

The token accepts a hex address or an address book label and defaults to the
NFT contract name from esdeploy.toml. The recipient defaults to the sender.
Minting a token id that already exists reverts.`,
		Example: `  esdeploy mint
  esdeploy mint Troll --id 11 --to 0x70997970C51812dc3A010C7d01b50e0d17dc79C8`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			nft := app.Config.ProjectConfig.Contracts.NFT

			tokenRef := nft
			if len(args) > 0 {
				tokenRef = args[0]
			}

			tokenID, ok := new(big.Int).SetString(id, 0)
			if !ok || tokenID.Sign() < 0 {
				return &domain.ConfigurationError{Op: "mint", Err: fmt.Errorf("invalid token id %q", id)}
			}

			var recipient common.Address
			if to != "" {
				recipient, err = app.Orchestrator.ResolveAddress(ctx, to)
			} else {
				signer, serr := app.Orchestrator.ResolveSigner(ctx)
				if serr == nil {
					recipient = signer.Address
				}
				err = serr
			}
			if err != nil {
				return err
			}

			token, err := app.Orchestrator.Attach(ctx, nft, tokenRef)
			if err != nil {
				return err
			}

			tx, err := app.Orchestrator.Mint(ctx, token, recipient, tokenID)
			if err != nil {
				return err
			}

			if verify {
				owner, err := app.Orchestrator.OwnerOf(ctx, token, tokenID)
				if err != nil {
					return err
				}
				if owner != recipient {
					return &domain.ChainError{
						Op:     "verify mint",
						TxHash: tx.Hash.Hex(),
						Err:    fmt.Errorf("token %s is owned by %s, expected %s", tokenID, owner.Hex(), recipient.Hex()),
					}
				}
			}

			renderer := render.NewTransactionRenderer(cmd.OutOrStdout(), app.Config.Network, app.Config.JSON)
			return renderer.Render(tx)
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Recipient address or label (defaults to the sender)")
	cmd.Flags().StringVar(&id, "id", "10", "Token id to mint")
	cmd.Flags().BoolVar(&verify, "verify", false, "Read the token owner back after minting")

	return cmd
}
