package render

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/trebuchet-org/xfactory/internal/usecase"
)

// BroadcastRenderer renders broadcast outcomes
type BroadcastRenderer struct {
	out io.Writer
}

// NewBroadcastRenderer creates a new broadcast renderer
func NewBroadcastRenderer(out io.Writer) *BroadcastRenderer {
	return &BroadcastRenderer{out: out}
}

// Render prints one row per network
func (r *BroadcastRenderer) Render(result *usecase.BroadcastResult) error {
	field(r.out, "From", result.From.Hex())
	field(r.out, "Factory", addressStyle.Sprint(result.Factory.Hex()))
	fmt.Fprintln(r.out)

	t := newTable()
	t.AppendHeader(table.Row{"Network", "Chain ID", "Status", "Block", "Artifact", "Reason"})
	for _, outcome := range result.Outcomes {
		block := "-"
		if outcome.BlockNumber > 0 {
			block = fmt.Sprintf("%d", outcome.BlockNumber)
		}
		t.AppendRow(table.Row{
			headerStyle.Sprint(outcome.Network),
			chainStyle.Sprintf("%d", outcome.ChainID),
			broadcastLabel(outcome),
			block,
			outcome.Artifact,
			labelStyle.Sprint(outcome.Reason),
		})
	}
	fmt.Fprintln(r.out, t.Render())
	fmt.Fprintln(r.out)

	if result.Succeeded() {
		fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("Factory is live on all %d networks", len(result.Outcomes))))
	} else {
		fmt.Fprintln(r.out, FormatWarning("Broadcast did not reach every network"))
	}
	return nil
}

func broadcastLabel(outcome usecase.BroadcastOutcome) string {
	var label string
	switch outcome.Status {
	case usecase.BroadcastStatusMined:
		label = okStyle.Sprint("✓ mined")
	case usecase.BroadcastStatusSkipped:
		label = okStyle.Sprint("= already live")
	case usecase.BroadcastStatusNoRPC:
		return warnStyle.Sprint("- no rpc")
	default:
		return failStyle.Sprint("✗ failed")
	}
	if outcome.Registered {
		label += labelStyle.Sprint(" (registered)")
	}
	return label
}

var _ Renderer[*usecase.BroadcastResult] = (*BroadcastRenderer)(nil)
