package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
)

// NewSweepCommand ejecuta una pasada de reconciliación.
func NewSweepCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Aplica las líneas de compra y devolución pendientes",
		Long: `Recorre las líneas de compra y devolución con stock_processed = false y las
aplica al kardex. Re-ejecutarlo es seguro: cada línea se marca en la misma
transacción que su movimiento.

Ejemplos:
  ledgerctl sweep
  ledgerctl sweep --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, opts, func(ctx context.Context, b *Backend) error {
				res, err := b.Sweeper.ProcessAll(ctx)
				if err != nil {
					return WrapExitError(ExitFailure, "reconciliación incompleta", err)
				}
				out := dto.SweepResponse{Purchases: res.Purchases, Returns: res.Returns, Total: res.Total()}
				return render(cmd, opts, out, func(w io.Writer) {
					fmt.Fprintf(w, "compras aplicadas: %d\ndevoluciones aplicadas: %d\n", out.Purchases, out.Returns)
				})
			})
		},
	}
}
