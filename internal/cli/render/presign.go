package render

import (
	"fmt"
	"io"

	"github.com/trebuchet-org/xfactory/internal/usecase"
)

// PresignRenderer renders the signed factory deployment
type PresignRenderer struct {
	out io.Writer
}

// NewPresignRenderer creates a new presign renderer
func NewPresignRenderer(out io.Writer) *PresignRenderer {
	return &PresignRenderer{out: out}
}

// Render summarises the transaction and where it was written
func (r *PresignRenderer) Render(tx *usecase.PresignedTransaction) error {
	fmt.Fprintln(r.out, FormatSuccess("Signed factory deployment transaction"))
	fmt.Fprintln(r.out)
	field(r.out, "From", tx.From.Hex())
	field(r.out, "Factory", addressStyle.Sprint(tx.Factory.Hex()))
	field(r.out, "Nonce", fmt.Sprintf("%d", tx.Nonce))
	field(r.out, "Gas limit", fmt.Sprintf("%d", tx.GasLimit))
	field(r.out, "Gas price", tx.GasPrice+" wei")
	field(r.out, "Hash", hashStyle.Sprint(tx.Hash.Hex()))
	field(r.out, "Written to", tx.OutputPath)
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, labelStyle.Sprintf("Fund %s before broadcasting on a new chain.", tx.From.Hex()))
	return nil
}

var _ Renderer[*usecase.PresignedTransaction] = (*PresignRenderer)(nil)
