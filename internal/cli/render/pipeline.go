package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/trebuchet-org/esdeploy/internal/domain"
	"github.com/trebuchet-org/esdeploy/internal/usecase"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// PipelineRenderer renders a pipeline plan and its results
type PipelineRenderer struct {
	out  io.Writer
	json bool
}

// NewPipelineRenderer creates a new pipeline renderer
func NewPipelineRenderer(out io.Writer, asJSON bool) *PipelineRenderer {
	return &PipelineRenderer{
		out:  out,
		json: asJSON,
	}
}

type pipelineStepOutput struct {
	Name        string `json:"name"`
	Action      string `json:"action"`
	Contract    string `json:"contract,omitempty"`
	Address     string `json:"address,omitempty"`
	Transaction string `json:"transaction,omitempty"`
}

type pipelineOutput struct {
	Pipeline string               `json:"pipeline"`
	Executed bool                 `json:"executed"`
	Steps    []pipelineStepOutput `json:"steps"`
}

// Render renders the plan, or the executed steps when the pipeline ran
func (r *PipelineRenderer) Render(result *usecase.RunPipelineResult) error {
	if r.json {
		return WriteJSON(r.out, r.toOutput(result))
	}

	title := cases.Title(language.English)
	fmt.Fprintf(r.out, "\n%s\n", headerColor.Sprintf("Pipeline: %s", title.String(result.Plan.Name)))

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.Style().Options.DrawBorder = false
	t.Style().Options.SeparateColumns = false
	t.Style().Options.SeparateHeader = false

	if !result.Executed && len(result.Steps) == 0 {
		t.AppendHeader(table.Row{"#", "STEP", "ACTION", "CONTRACT", "DEPENDS ON"})
		for i, step := range result.Plan.Steps {
			t.AppendRow(table.Row{
				i + 1,
				step.Name,
				actionTitle(title, step.Action),
				step.Contract,
				strings.Join(step.Deps, ", "),
			})
		}
	} else {
		t.AppendHeader(table.Row{"#", "STEP", "ACTION", "ADDRESS", "TX"})
		for i, step := range result.Steps {
			addr := ""
			if step.Address != (common.Address{}) {
				addr = addrColor.Sprint(step.Address.Hex())
			}
			tx := ""
			switch {
			case step.Transaction != nil:
				tx = step.Transaction.Hash.Hex()
			case step.Deployment != nil:
				tx = step.Deployment.TransactionHash.Hex()
			}
			if step.Address == (common.Address{}) && tx == "" {
				addr = color.New(color.FgRed).Sprint("failed")
			}
			t.AppendRow(table.Row{i + 1, step.Step.Name, actionTitle(title, step.Step.Action), addr, faintColor.Sprint(tx)})
		}
	}

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 2, Align: text.AlignLeft},
		{Number: 3, Align: text.AlignLeft},
		{Number: 4, Align: text.AlignLeft},
		{Number: 5, Align: text.AlignLeft},
	})
	t.Render()
	fmt.Fprintln(r.out)

	if !result.Executed && len(result.Steps) == 0 {
		fmt.Fprintln(r.out, FormatWarning("Dry run, nothing was broadcast"))
	} else if result.Executed {
		fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("Pipeline %s completed (%d steps)", result.Plan.Name, len(result.Steps))))
	}
	return nil
}

func (r *PipelineRenderer) toOutput(result *usecase.RunPipelineResult) pipelineOutput {
	out := pipelineOutput{Pipeline: result.Plan.Name, Executed: result.Executed}
	if len(result.Steps) == 0 {
		for _, step := range result.Plan.Steps {
			out.Steps = append(out.Steps, pipelineStepOutput{Name: step.Name, Action: string(step.Action), Contract: step.Contract})
		}
		return out
	}
	for _, step := range result.Steps {
		o := pipelineStepOutput{Name: step.Step.Name, Action: string(step.Step.Action), Contract: step.Step.Contract}
		if step.Address != (common.Address{}) {
			o.Address = step.Address.Hex()
		}
		if step.Transaction != nil {
			o.Transaction = step.Transaction.Hash.Hex()
		} else if step.Deployment != nil {
			o.Transaction = step.Deployment.TransactionHash.Hex()
		}
		out.Steps = append(out.Steps, o)
	}
	return out
}

func actionTitle(c cases.Caser, action domain.StepAction) string {
	return c.String(strings.ReplaceAll(string(action), "-", " "))
}

var _ Renderer[*usecase.RunPipelineResult] = (*PipelineRenderer)(nil)
