package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentKind identifica la tabla de líneas de documento externo.
type DocumentKind string

const (
	DocumentPurchase DocumentKind = "purchase"
	DocumentReturn   DocumentKind = "return"
)

// ReferenceType devuelve el tipo de referencia con que se registra el movimiento.
func (k DocumentKind) ReferenceType() string {
	if k == DocumentReturn {
		return ReferenceReturn
	}
	return ReferencePurchase
}

// DocumentLine línea de compra o devolución creada fuera del núcleo.
// StockProcessed=false significa que su efecto aún no está en el kardex;
// MovementID apunta al movimiento que la aplicó.
type DocumentLine struct {
	ID             string
	Kind           DocumentKind
	DocumentID     string
	ProductID      string
	Quantity       int64
	UnitCost       *decimal.Decimal // solo compras
	Notes          string
	CreatedBy      string
	StockProcessed bool
	MovementID     *string
	CreatedAt      time.Time
}
