package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/trebuchet-org/esdeploy/internal/domain/config"
	"github.com/trebuchet-org/esdeploy/internal/domain/models"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	labelColor  = color.New(color.FgWhite, color.Bold)
	addrColor   = color.New(color.FgGreen)
	faintColor  = color.New(color.Faint)
)

// DeploymentRenderer renders a single deployment record
type DeploymentRenderer struct {
	out     io.Writer
	network *config.Network
	json    bool
}

// NewDeploymentRenderer creates a new deployment renderer
func NewDeploymentRenderer(out io.Writer, network *config.Network, asJSON bool) *DeploymentRenderer {
	return &DeploymentRenderer{
		out:     out,
		network: network,
		json:    asJSON,
	}
}

// Render renders a deployment record
func (r *DeploymentRenderer) Render(record *models.DeploymentRecord) error {
	if r.json {
		return WriteJSON(r.out, record)
	}

	fmt.Fprintf(r.out, "\n%s\n", headerColor.Sprintf("Deployment: %s", record.GetDisplayName()))
	fmt.Fprintln(r.out, strings.Repeat("=", 80))

	r.field("Network", fmt.Sprintf("%s (chain %d)", record.Network, record.ChainID))
	r.field("Type", string(record.Type))
	r.address("Address", record.Address)

	if record.IsProxy() {
		fmt.Fprintf(r.out, "\n%s\n", labelColor.Sprint("Proxy"))
		r.address("Implementation", record.Implementation)
		r.address("Admin", record.Admin)
	}

	fmt.Fprintf(r.out, "\n%s\n", labelColor.Sprint("Transaction"))
	r.field("Hash", record.TransactionHash.Hex())
	r.field("Block", fmt.Sprintf("%d", record.BlockNumber))
	r.field("Deployer", record.Deployer.Hex())
	if link := explorerLink(r.network, "tx", record.TransactionHash.Hex()); link != "" {
		r.field("Explorer", faintColor.Sprint(link))
	}
	fmt.Fprintln(r.out)

	return nil
}

func (r *DeploymentRenderer) field(name, value string) {
	fmt.Fprintf(r.out, "  %-16s %s\n", name+":", value)
}

func (r *DeploymentRenderer) address(name string, addr common.Address) {
	value := addrColor.Sprint(addr.Hex())
	if addr == (common.Address{}) {
		value = faintColor.Sprint("(unset)")
	}
	r.field(name, value)
}

var _ Renderer[*models.DeploymentRecord] = (*DeploymentRenderer)(nil)
