package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento del kardex.
const (
	MovementTypeIn         = "in"
	MovementTypeOut        = "out"
	MovementTypeAdjustment = "adjustment"
)

// Tipos de referencia conocidos. ReferenceType es libre; estos son los que usa el núcleo.
const (
	ReferencePurchase   = "pembelian"
	ReferenceReturn     = "retur"
	ReferenceSale       = "penjualan"
	ReferenceAdjustment = "adjustment"
)

// StockMovement registro inmutable de un cambio de cantidad (kardex).
// Quantity es siempre la magnitud movida; Shortfall es la parte de una salida
// que no pudo descontarse de la existencia porque el stock llegó a cero.
type StockMovement struct {
	ID             string
	ProductID      string
	Type           string
	Quantity       int64
	QuantityBefore int64
	QuantityAfter  int64
	Shortfall      int64
	UnitCost       decimal.Decimal
	TotalCost      decimal.Decimal
	ReferenceType  string
	ReferenceID    string
	Notes          string
	ActorID        string
	MovementDate   time.Time
}

// Validate comprueba que before/after sean coherentes con el tipo y la cantidad.
func (m *StockMovement) Validate() error {
	if m.Quantity < 0 || m.Shortfall < 0 || m.QuantityAfter < 0 {
		return fmt.Errorf("movimiento %s: cantidades negativas", m.ID)
	}
	var ok bool
	switch m.Type {
	case MovementTypeIn:
		ok = m.QuantityAfter-m.QuantityBefore == m.Quantity && m.Shortfall == 0
	case MovementTypeOut:
		ok = m.QuantityBefore-m.Quantity+m.Shortfall == m.QuantityAfter
	case MovementTypeAdjustment:
		// Un conteo negativo deja la existencia en 0 y el exceso como faltante.
		d := m.QuantityAfter - m.QuantityBefore
		ok = (d == m.Quantity && m.Shortfall == 0) || m.QuantityBefore-m.Quantity+m.Shortfall == m.QuantityAfter
	default:
		return fmt.Errorf("movimiento %s: tipo %q desconocido", m.ID, m.Type)
	}
	if !ok {
		return fmt.Errorf("movimiento %s: before=%d after=%d no cuadra con %s %d",
			m.ID, m.QuantityBefore, m.QuantityAfter, m.Type, m.Quantity)
	}
	return nil
}

// Delta devuelve el cambio firmado de la cantidad en existencia.
func (m *StockMovement) Delta() int64 {
	return m.QuantityAfter - m.QuantityBefore
}
