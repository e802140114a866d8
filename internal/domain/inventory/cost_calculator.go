package inventory

import "github.com/shopspring/decimal"

// WeightedAverageCost calcula el costo promedio ponderado tras una entrada.
// NuevoCosto = ((StockActual * CostoActual) + (CantEntrada * CostoEntrada)) / (StockActual + CantEntrada)
// Con stock actual negativo o cero el costo de la entrada reemplaza al anterior.
func WeightedAverageCost(stockActual int64, costoActual decimal.Decimal, cantEntrada int64, costoEntrada decimal.Decimal) decimal.Decimal {
	if stockActual <= 0 {
		if cantEntrada <= 0 {
			return decimal.Zero
		}
		return costoEntrada
	}
	if cantEntrada <= 0 {
		return costoActual
	}
	actual := decimal.NewFromInt(stockActual)
	entrada := decimal.NewFromInt(cantEntrada)
	num := actual.Mul(costoActual).Add(entrada.Mul(costoEntrada))
	return num.Div(actual.Add(entrada)).Round(4)
}
