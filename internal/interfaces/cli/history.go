package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
)

// NewHistoryCommand lista el kardex de un producto.
func NewHistoryCommand(opts *RootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history <product-id>",
		Short: "Kardex de un producto, el movimiento más reciente primero",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, opts, func(ctx context.Context, b *Backend) error {
				list, err := b.Stock.GetStockHistory(ctx, args[0], limit)
				if err != nil {
					return WrapExitError(ExitCommandError, "consultar kardex", err)
				}
				out := dto.ToMovementDTOs(list)
				return render(cmd, opts, out, func(w io.Writer) {
					tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "FECHA\tTIPO\tCANT\tANTES\tDESPUÉS\tREFERENCIA")
					for _, m := range out {
						fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s:%s\n",
							m.MovementDate.Format(time.DateTime), m.Type, m.Quantity,
							m.QuantityBefore, m.QuantityAfter, m.ReferenceType, m.ReferenceID)
					}
					_ = tw.Flush()
				})
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "máximo de movimientos (0 = por defecto)")
	return cmd
}

// NewLowCommand lista los productos bajo stock mínimo.
func NewLowCommand(opts *RootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "low",
		Short: "Productos con disponible por debajo del stock mínimo",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, opts, func(ctx context.Context, b *Backend) error {
				items, err := b.Stock.GetLowStockItems(ctx, limit)
				if err != nil {
					return WrapExitError(ExitCommandError, "consultar stock bajo", err)
				}
				out := dto.ToLowStockItemDTOs(items)
				return render(cmd, opts, out, func(w io.Writer) {
					if len(out) == 0 {
						fmt.Fprintln(w, "sin productos bajo el mínimo")
						return
					}
					tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "SKU\tPRODUCTO\tDISPONIBLE\tMÍNIMO\tBACKORDER")
					for _, it := range out {
						fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\n", it.SKU, it.Name, it.Available, it.MinStock, it.Backorder)
					}
					_ = tw.Flush()
				})
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "máximo de productos (0 = por defecto)")
	return cmd
}
