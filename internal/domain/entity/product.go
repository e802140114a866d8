package entity

// ProductPolicy proyección de solo lectura del catálogo (propiedad externa)
// con lo que el kardex necesita: existencia, stock mínimo y venta sin stock.
type ProductPolicy struct {
	ProductID      string
	SKU            string
	Name           string
	MinStock       int64
	AllowZeroStock bool
	Active         bool
}
