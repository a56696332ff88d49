package render

import (
	"fmt"
	"io"

	"github.com/trebuchet-org/xfactory/internal/domain"
	"github.com/trebuchet-org/xfactory/internal/usecase"
)

// PredictRenderer renders predicted addresses
type PredictRenderer struct {
	out io.Writer
}

// NewPredictRenderer creates a new predict renderer
func NewPredictRenderer(out io.Writer) *PredictRenderer {
	return &PredictRenderer{out: out}
}

// Render prints the address followed by the inputs that produced it
func (r *PredictRenderer) Render(result *usecase.PredictResult) error {
	if result.Kind == usecase.PredictSalt {
		r.renderSalt(result)
		return nil
	}

	fmt.Fprintln(r.out, addressStyle.Sprint(result.Address.Hex()))
	fmt.Fprintln(r.out)

	chain := chainStyle.Sprintf("%d", result.ChainID)
	if result.Live {
		chain += labelStyle.Sprint(" (live)")
	}
	field(r.out, "Scheme", string(result.Kind))
	field(r.out, "Chain", chain)
	field(r.out, "Deployer", result.Deployer.Hex())
	if result.Nonce != nil {
		field(r.out, "Nonce", fmt.Sprintf("%d", *result.Nonce))
	}
	if result.Salt != nil {
		field(r.out, "Salt", hashStyle.Sprint(result.Salt.Hex()))
		if *result.EffectiveSalt != *result.Salt {
			field(r.out, "Guarded salt", hashStyle.Sprint(result.EffectiveSalt.Hex()))
		}
	}
	if result.CodeHash != nil {
		field(r.out, "Init code hash", hashStyle.Sprint(result.CodeHash.Hex()))
	}
	if result.Relay != nil {
		field(r.out, "Relay", result.Relay.Hex())
	}
	return nil
}

func (r *PredictRenderer) renderSalt(result *usecase.PredictResult) {
	layout := result.Layout
	fmt.Fprintln(r.out, hashStyle.Sprint(result.EffectiveSalt.Hex()))
	fmt.Fprintln(r.out)

	sender := labelStyle.Sprint("anyone")
	if layout.Permissioned() {
		sender = layout.PermissionedSender.Hex()
	}
	protection := title(layout.Protection.String())
	if layout.Protection == domain.ProtectionOn {
		protection += labelStyle.Sprintf(" (chain %d)", result.ChainID)
	}

	field(r.out, "Salt", result.Salt.Hex())
	field(r.out, "Reserved for", sender)
	field(r.out, "Cross-chain", protection)
	field(r.out, "Entropy", fmt.Sprintf("0x%x", layout.Entropy))
}

var _ Renderer[*usecase.PredictResult] = (*PredictRenderer)(nil)
