package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"
	"github.com/trebuchet-org/xfactory/internal/domain"
	"github.com/trebuchet-org/xfactory/internal/usecase"
)

// SimulationRenderer renders simulation outcomes, one table per step
type SimulationRenderer struct {
	out io.Writer
}

// NewSimulationRenderer creates a new simulation renderer
func NewSimulationRenderer(out io.Writer) *SimulationRenderer {
	return &SimulationRenderer{out: out}
}

// Render prints every step's outcome across chains
func (r *SimulationRenderer) Render(result *usecase.SimulationResult) error {
	if len(result.Chains) == 0 {
		fmt.Fprintln(r.out, "Nothing simulated")
		return nil
	}

	chainIDs := lo.Map(result.Chains, func(c usecase.ChainSimulation, _ int) string {
		return fmt.Sprintf("%d", c.ChainID)
	})
	fmt.Fprintf(r.out, "%s %s\n", headerStyle.Sprint("Factory"), result.Chains[0].Factory.Hex())
	fmt.Fprintf(r.out, "%s %s\n\n", headerStyle.Sprint("Chains "), strings.Join(chainIDs, ", "))

	for i, step := range result.Steps {
		name := step.Name
		if name == "" {
			name = fmt.Sprintf("step %d", i+1)
		}
		verdict := ""
		if len(result.Chains) > 1 {
			if result.Converged(i) {
				verdict = okStyle.Sprint("same address on every chain")
			} else {
				verdict = warnStyle.Sprint("addresses differ across chains")
			}
		}
		operation := step.Operation
		if step.IsRawCall() {
			operation = lo.FirstOr(lo.FilterMap(result.Chains, func(c usecase.ChainSimulation, _ int) (string, bool) {
				return c.Steps[i].Method, c.Steps[i].Method != ""
			}), "calldata")
		}
		fmt.Fprintf(r.out, "%s %s  %s\n", headerStyle.Sprint(name), labelStyle.Sprint(operation), verdict)
		fmt.Fprintln(r.out, r.stepTable(result, i))
		fmt.Fprintln(r.out)
	}
	return nil
}

func (r *SimulationRenderer) stepTable(result *usecase.SimulationResult, i int) string {
	t := newTable()
	t.AppendHeader(table.Row{"Chain", "Result", "Details"})

	for _, chain := range result.Chains {
		outcome := chain.Steps[i]
		switch {
		case outcome.Succeeded():
			events := lo.Map(outcome.Events, func(e domain.EventRecord, _ int) string { return e.String() })
			t.AppendRow(table.Row{
				chainStyle.Sprintf("%d", chain.ChainID),
				okStyle.Sprint(outcome.Address.Hex()),
				strings.Join(events, "\n"),
			})
		case outcome.Error != nil:
			t.AppendRow(table.Row{
				chainStyle.Sprintf("%d", chain.ChainID),
				failStyle.Sprint(string(outcome.Error.Kind)),
				DescribeFactoryError(outcome.Error),
			})
		default:
			t.AppendRow(table.Row{
				chainStyle.Sprintf("%d", chain.ChainID),
				failStyle.Sprint("not submitted"),
				outcome.Failure,
			})
		}
	}
	return t.Render()
}

var _ Renderer[*usecase.SimulationResult] = (*SimulationRenderer)(nil)
