package entity

import "time"

// Tipos de evento que no corresponden a un movimiento del kardex.
const (
	EventTypeReserve = "reserve"
	EventTypeRelease = "release"
)

// StockChanged evento de dominio emitido tras cada mutación confirmada.
type StockChanged struct {
	ProductID     string    `json:"product_id"`
	QuantityDelta int64     `json:"quantity_delta"`
	ReservedDelta int64     `json:"reserved_delta,omitempty"`
	QuantityAfter int64     `json:"quantity_after"`
	Type          string    `json:"type"`
	MovementID    string    `json:"movement_id,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}
