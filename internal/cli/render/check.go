package render

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/trebuchet-org/xfactory/internal/usecase"
)

// CheckRenderer renders network check results
type CheckRenderer struct {
	out io.Writer
}

// NewCheckRenderer creates a new check renderer
func NewCheckRenderer(out io.Writer) *CheckRenderer {
	return &CheckRenderer{out: out}
}

// Render prints one row per checked network
func (r *CheckRenderer) Render(result *usecase.CheckDeploymentsResult) error {
	t := newTable()
	t.AppendHeader(table.Row{"Network", "Chain ID", "Status", "Factory Nonce", "Deployer Nonce", "Reason"})
	for _, check := range result.Checks {
		factoryNonce, deployerNonce := "-", "-"
		if check.Status == usecase.CheckStatusDeployed || check.Status == usecase.CheckStatusMissing {
			factoryNonce = fmt.Sprintf("%d", check.FactoryNonce)
			deployerNonce = fmt.Sprintf("%d", check.DeployerNonce)
		}
		t.AppendRow(table.Row{
			headerStyle.Sprint(check.Deployment.Name),
			chainStyle.Sprintf("%d", check.Deployment.ChainID),
			statusLabel(check.Status),
			factoryNonce,
			deployerNonce,
			labelStyle.Sprint(check.Reason),
		})
	}
	fmt.Fprintln(r.out, t.Render())
	fmt.Fprintln(r.out)

	if result.Healthy() {
		fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("Factory is live on all %d networks", len(result.Checks))))
	} else {
		fmt.Fprintln(r.out, FormatWarning("Factory is not reachable on every network"))
	}
	return nil
}

func statusLabel(status usecase.CheckStatus) string {
	switch status {
	case usecase.CheckStatusDeployed:
		return okStyle.Sprint("✓ deployed")
	case usecase.CheckStatusMissing:
		return failStyle.Sprint("✗ missing")
	case usecase.CheckStatusNoRPC:
		return warnStyle.Sprint("- no rpc")
	default:
		return failStyle.Sprint("! error")
	}
}

var _ Renderer[*usecase.CheckDeploymentsResult] = (*CheckRenderer)(nil)
