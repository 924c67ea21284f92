package render

import (
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/trebuchet-org/esdeploy/internal/usecase"
)

// AddressesRenderer renders the address book of a network
type AddressesRenderer struct {
	out  io.Writer
	json bool
}

// NewAddressesRenderer creates a new addresses renderer
func NewAddressesRenderer(out io.Writer, asJSON bool) *AddressesRenderer {
	return &AddressesRenderer{
		out:  out,
		json: asJSON,
	}
}

// Render renders the recorded deployments as a table
func (r *AddressesRenderer) Render(result *usecase.ListAddressesResult) error {
	if r.json {
		return WriteJSON(r.out, result.Deployments)
	}

	if len(result.Deployments) == 0 {
		fmt.Fprintf(r.out, "No deployments recorded on %s\n", result.Network)
		return nil
	}

	fmt.Fprintf(r.out, "%s %s\n\n", headerColor.Sprint("Network:"), result.Network)

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.Style().Options.DrawBorder = false
	t.Style().Options.SeparateColumns = false
	t.Style().Options.SeparateHeader = false
	t.Style().Options.SeparateRows = false

	t.AppendHeader(table.Row{"LABEL", "CONTRACT", "TYPE", "ADDRESS", "IMPLEMENTATION", "BLOCK"})
	for _, d := range result.Deployments {
		impl := ""
		if d.IsProxy() && d.Implementation != (common.Address{}) {
			impl = d.Implementation.Hex()
		}
		t.AppendRow(table.Row{
			color.New(color.FgCyan).Sprint(d.Key()),
			d.ContractName,
			string(d.Type),
			addrColor.Sprint(d.Address.Hex()),
			faintColor.Sprint(impl),
			d.BlockNumber,
		})
	}

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignLeft},
		{Number: 3, Align: text.AlignLeft},
		{Number: 4, Align: text.AlignLeft},
		{Number: 5, Align: text.AlignLeft},
		{Number: 6, Align: text.AlignRight},
	})
	t.Render()

	fmt.Fprintf(r.out, "\n📁 %s\n", getRelativePath(result.BookPath))
	return nil
}

var _ Renderer[*usecase.ListAddressesResult] = (*AddressesRenderer)(nil)
