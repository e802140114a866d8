// Package cli comandos de operación del kardex (ledgerctl).
package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
)

// Sweeper barrido de reconciliación.
type Sweeper interface {
	ProcessAll(ctx context.Context) (inventory.SweepResult, error)
}

// Backend lo que necesitan los comandos. Close se llama al terminar cada comando.
type Backend struct {
	Stock   inventory.StockService
	Sweeper Sweeper
	Close   func() error
}

// Connector abre el backend (en producción, PostgreSQL + sinks).
type Connector func(ctx context.Context) (*Backend, error)

// RootOptions flags globales.
type RootOptions struct {
	Format  string // "json" | "text"
	connect Connector
}

// ValidFormats formatos de salida permitidos.
var ValidFormats = []string{"text", "json"}

// NewRootCommand crea el comando raíz de ledgerctl.
func NewRootCommand(connect Connector) *cobra.Command {
	opts := &RootOptions{connect: connect}

	cmd := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Operación del kardex de inventario",
		Long:  "Consulta stock y kardex, ejecuta la reconciliación y registra ajustes de inventario.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("formato inválido %q: debe ser uno de %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "formato de salida (json|text)")

	cmd.AddCommand(NewSweepCommand(opts))
	cmd.AddCommand(NewStockCommand(opts))
	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewAdjustCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewLowCommand(opts))

	return cmd
}

// withBackend abre el backend, ejecuta fn y lo cierra.
func withBackend(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, b *Backend) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	b, err := opts.connect(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "no se pudo abrir el kardex", err)
	}
	if b.Close != nil {
		defer func() { _ = b.Close() }()
	}
	return fn(ctx, b)
}
