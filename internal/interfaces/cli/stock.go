package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
)

// SystemActorCLI actor por defecto de los ajustes hechos desde la consola.
const SystemActorCLI = "system:ledgerctl"

// NewStockCommand muestra el stock de un producto.
func NewStockCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stock <product-id>",
		Short: "Muestra cantidad, reservado y disponible de un producto",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, opts, func(ctx context.Context, b *Backend) error {
				rec, err := b.Stock.GetStock(ctx, args[0])
				if err != nil {
					return WrapExitError(ExitCommandError, "consultar stock", err)
				}
				if rec == nil {
					return WrapExitError(ExitFailure, fmt.Sprintf("el producto %s no tiene stock inicializado", args[0]), nil)
				}
				out := dto.ToStockDTO(rec)
				return render(cmd, opts, out, func(w io.Writer) {
					fmt.Fprintf(w, "producto:    %s\n", out.ProductID)
					fmt.Fprintf(w, "cantidad:    %d\n", out.Quantity)
					fmt.Fprintf(w, "reservado:   %d\n", out.Reserved)
					fmt.Fprintf(w, "disponible:  %d\n", out.Available)
					if out.Backorder > 0 {
						fmt.Fprintf(w, "backorder:   %d\n", out.Backorder)
					}
					fmt.Fprintf(w, "costo prom.: %s\n", out.AverageCost.StringFixed(4))
				})
			})
		},
	}
}

// NewInitCommand crea la fila de stock de un producto.
func NewInitCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init <product-id>",
		Short: "Inicializa el stock de un producto (cantidad 0)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, opts, func(ctx context.Context, b *Backend) error {
				rec, err := b.Stock.InitStock(ctx, args[0])
				if err != nil {
					return WrapExitError(ExitCommandError, "inicializar stock", err)
				}
				out := dto.ToStockDTO(rec)
				return render(cmd, opts, out, func(w io.Writer) {
					fmt.Fprintf(w, "stock de %s listo (cantidad %d)\n", out.ProductID, out.Quantity)
				})
			})
		},
	}
}

// AdjustOptions flags de adjust.
type AdjustOptions struct {
	*RootOptions
	Quantity    int64
	ReferenceID string
	Notes       string
	Actor       string
}

// NewAdjustCommand registra un ajuste de inventario (conteo físico).
func NewAdjustCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AdjustOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "adjust <product-id>",
		Short: "Fija la existencia al conteo físico",
		Long: `Registra un ajuste (opname): la existencia queda en --quantity y la
diferencia se guarda como movimiento de tipo adjustment.

Ejemplos:
  ledgerctl adjust 3f1c... --quantity 42 --ref OPN-2024-07 --notes "conteo anual"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, opts.RootOptions, func(ctx context.Context, b *Backend) error {
				mov, err := b.Stock.AdjustStock(ctx, inventory.AdjustInput{
					ProductID:   args[0],
					NewQuantity: opts.Quantity,
					ReferenceID: opts.ReferenceID,
					Notes:       opts.Notes,
					ActorID:     opts.Actor,
				})
				if err != nil {
					return WrapExitError(ExitCommandError, "ajustar stock", err)
				}
				out := dto.ToMovementDTO(mov)
				return render(cmd, opts.RootOptions, out, func(w io.Writer) {
					fmt.Fprintf(w, "ajuste %s: %d -> %d\n", out.ID, out.QuantityBefore, out.QuantityAfter)
				})
			})
		},
	}

	cmd.Flags().Int64VarP(&opts.Quantity, "quantity", "q", 0, "cantidad contada (requerido)")
	_ = cmd.MarkFlagRequired("quantity")
	cmd.Flags().StringVar(&opts.ReferenceID, "ref", "", "referencia del conteo")
	cmd.Flags().StringVar(&opts.Notes, "notes", "", "observaciones")
	cmd.Flags().StringVar(&opts.Actor, "actor", SystemActorCLI, "quién registra el ajuste")

	return cmd
}
