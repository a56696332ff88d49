package render

import (
	"fmt"
	"io"

	"github.com/trebuchet-org/xfactory/internal/usecase"
)

// ConfigRenderer renders the resolved configuration
type ConfigRenderer struct {
	out io.Writer
}

// NewConfigRenderer creates a new config renderer
func NewConfigRenderer(out io.Writer) *ConfigRenderer {
	return &ConfigRenderer{out: out}
}

// Render prints local defaults followed by the project settings
func (r *ConfigRenderer) Render(result *usecase.ShowConfigResult) error {
	fmt.Fprintln(r.out, headerStyle.Sprint("Local defaults"))
	if !result.Exists {
		fmt.Fprintln(r.out, labelStyle.Sprintf("  none, %s does not exist", result.ConfigPath))
	} else {
		field(r.out, "Network", orUnset(result.Config.Network))
		field(r.out, "Timeout", orUnset(result.Config.Timeout))
		field(r.out, "File", labelStyle.Sprint(result.ConfigPath))
	}
	fmt.Fprintln(r.out)

	fmt.Fprintln(r.out, headerStyle.Sprint("Project"))
	field(r.out, "Config file", orUnset(result.Source))
	field(r.out, "Factory", addressStyle.Sprint(result.Factory.Address.Hex()))
	field(r.out, "Deployer", result.Factory.Deployer.Hex())
	field(r.out, "Init code", fmt.Sprintf("%d bytes", len(result.Factory.InitCode)))
	field(r.out, "Networks", fmt.Sprintf("%d", result.Networks))
	return nil
}

func orUnset(s string) string {
	if s == "" {
		return labelStyle.Sprint("(not set)")
	}
	return s
}

var _ Renderer[*usecase.ShowConfigResult] = (*ConfigRenderer)(nil)
