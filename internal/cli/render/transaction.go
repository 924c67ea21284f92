package render

import (
	"fmt"
	"io"

	"github.com/trebuchet-org/esdeploy/internal/domain/config"
	"github.com/trebuchet-org/esdeploy/internal/domain/models"
)

// TransactionRenderer renders a confirmed call
type TransactionRenderer struct {
	out     io.Writer
	network *config.Network
	json    bool
}

// NewTransactionRenderer creates a new transaction renderer
func NewTransactionRenderer(out io.Writer, network *config.Network, asJSON bool) *TransactionRenderer {
	return &TransactionRenderer{
		out:     out,
		network: network,
		json:    asJSON,
	}
}

// Render renders the transaction
func (r *TransactionRenderer) Render(tx *models.Transaction) error {
	if r.json {
		return WriteJSON(r.out, tx)
	}

	status := FormatSuccess(string(tx.Status))
	if !tx.Confirmed() {
		status = FormatError(string(tx.Status))
	}

	fmt.Fprintf(r.out, "%s %s\n", status, tx.Method)
	fmt.Fprintf(r.out, "  %-10s %s\n", "Target:", addrColor.Sprint(tx.Target.Hex()))
	fmt.Fprintf(r.out, "  %-10s %s\n", "Tx:", tx.Hash.Hex())
	fmt.Fprintf(r.out, "  %-10s %d\n", "Block:", tx.BlockNumber)
	fmt.Fprintf(r.out, "  %-10s %d\n", "Gas used:", tx.GasUsed)
	if tx.Reason != "" {
		fmt.Fprintf(r.out, "  %-10s %s\n", "Reason:", tx.Reason)
	}
	if link := explorerLink(r.network, "tx", tx.Hash.Hex()); link != "" {
		fmt.Fprintf(r.out, "  %-10s %s\n", "Explorer:", faintColor.Sprint(link))
	}
	return nil
}

var _ Renderer[*models.Transaction] = (*TransactionRenderer)(nil)
