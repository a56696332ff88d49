package render

import (
	"fmt"
	"io"

	"github.com/trebuchet-org/xfactory/internal/usecase"
)

// NetworksRenderer renders network lists
type NetworksRenderer struct {
	out io.Writer
}

// NewNetworksRenderer creates a new networks renderer
func NewNetworksRenderer(out io.Writer) *NetworksRenderer {
	return &NetworksRenderer{out: out}
}

// Render lists configured networks and whether the factory is registered on each
func (r *NetworksRenderer) Render(result *usecase.ListNetworksResult) error {
	if len(result.Networks) == 0 {
		fmt.Fprintln(r.out, "No networks configured in xfactory.toml [networks]")
		return nil
	}

	fmt.Fprintln(r.out, "🌐 Available Networks:")
	fmt.Fprintln(r.out)

	for _, network := range result.Networks {
		rpc := network.RPCURL
		if rpc == "" {
			rpc = warnStyle.Sprint("no RPC URL")
		}
		status := labelStyle.Sprint("not registered")
		if network.Registered != nil {
			status = okStyle.Sprintf("factory at %s", network.Registered.Address)
		}
		fmt.Fprintf(r.out, "  %s - Chain ID: %s\n", headerStyle.Sprint(network.Name), chainStyle.Sprintf("%d", network.ChainID))
		fmt.Fprintf(r.out, "      %s  %s\n", labelStyle.Sprint(rpc), status)
	}

	return nil
}

var _ Renderer[*usecase.ListNetworksResult] = (*NetworksRenderer)(nil)
