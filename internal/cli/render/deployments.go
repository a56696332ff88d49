package render

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/trebuchet-org/xfactory/internal/domain/models"
	"github.com/trebuchet-org/xfactory/internal/usecase"
)

var (
	mainnetStyle = okStyle
	testnetStyle = warnStyle
)

// DeploymentsRenderer renders the factory registry as a table
type DeploymentsRenderer struct {
	out io.Writer
}

// NewDeploymentsRenderer creates a new deployments renderer
func NewDeploymentsRenderer(out io.Writer) *DeploymentsRenderer {
	return &DeploymentsRenderer{out: out}
}

// Render prints the registry listing and its summary
func (r *DeploymentsRenderer) Render(result *usecase.DeploymentListResult) error {
	if len(result.Deployments) == 0 {
		fmt.Fprintln(r.out, "No deployments found")
		return nil
	}

	t := newTable()
	t.AppendHeader(table.Row{"Network", "Chain ID", "Type", "Address", "Explorer"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
	})
	for _, dep := range result.Deployments {
		kind := mainnetStyle.Sprint("mainnet")
		if dep.IsTestnet() {
			kind = testnetStyle.Sprint("testnet")
		}
		t.AppendRow(table.Row{
			headerStyle.Sprint(dep.Name),
			chainStyle.Sprintf("%d", dep.ChainID),
			kind,
			dep.Address,
			labelStyle.Sprint(dep.URL),
		})
	}
	fmt.Fprintln(r.out, t.Render())
	fmt.Fprintln(r.out)

	summary := result.Summary
	fmt.Fprintf(r.out, "%s %d networks (%d mainnets, %d testnets)\n",
		headerStyle.Sprint("Total:"), summary.Total, summary.Mainnets, summary.Testnets)
	return nil
}

// RenderAdded confirms a new registry entry
func (r *DeploymentsRenderer) RenderAdded(dep *models.FactoryDeployment) error {
	fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("Registered %s", dep)))
	field(r.out, "Address", dep.Address)
	if dep.URL != "" {
		field(r.out, "Explorer", dep.URL)
	}
	return nil
}

// newTable returns a borderless table writer
func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.Style().Options.DrawBorder = false
	t.Style().Options.SeparateColumns = false
	t.Style().Options.SeparateRows = false
	return t
}

var _ Renderer[*usecase.DeploymentListResult] = (*DeploymentsRenderer)(nil)
